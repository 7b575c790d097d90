// Package capture provides frame sources backed by GoCV (OpenCV): live camera devices,
// video files and in-memory playback for tests.
package capture

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 5
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a source that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEndOfStream is returned by ReadFrame once a finite source has no more frames.
	ErrEndOfStream = errors.New("end of stream")
	// ErrFrameUnavailable is returned when a live device fails to deliver a frame.
	ErrFrameUnavailable = errors.New("camera delivered no frame")
)

// Source produces an ordered sequence of frames.
type Source interface {
	Open() error
	Close() error
	// ReadFrame blocks until the next frame is available. The caller is responsible
	// for closing the returned Mat. Finite sources return ErrEndOfStream at the end.
	ReadFrame() (*gocv.Mat, error)
	IsOpen() bool
	// Live reports whether the source is a device that needs a warm-up pause and
	// never ends on its own.
	Live() bool
}

// Camera is a live capture device. Settings made before Open are applied when the
// device opens; settings made while open are applied immediately.
type Camera interface {
	Source
	SetFPS(fps int)
	FPS() int
	SetResolution(width, height int)
	Resolution() (width, height int)
}

type camera struct {
	video
	deviceID int
	fps      int
	width    int
	height   int
}

// NewCamera creates a Camera for the given device index at 640x480, 5 fps.
func NewCamera(deviceID int) Camera {
	return &camera{
		deviceID: deviceID,
		fps:      DefaultFPS,
		width:    DefaultWidth,
		height:   DefaultHeight,
	}
}

func (c *camera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.deviceID, err)
	}
	c.attach(vc)
	c.apply()
	return nil
}

// apply pushes the settings to the device. The caller holds mu.
func (c *camera) apply() {
	if c.capture == nil {
		return
	}
	c.capture.Set(gocv.VideoCaptureFrameWidth, float64(c.width))
	c.capture.Set(gocv.VideoCaptureFrameHeight, float64(c.height))
	c.capture.Set(gocv.VideoCaptureFPS, float64(c.fps))
}

// ReadFrame never reports ErrEndOfStream; a failed read is ErrFrameUnavailable.
func (c *camera) ReadFrame() (*gocv.Mat, error) {
	return c.read(ErrFrameUnavailable)
}

// SetFPS ignores values <= 0.
func (c *camera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
	c.apply()
}

func (c *camera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

// SetResolution requests a capture size. The device may pick the nearest mode it
// supports; frames are resized downstream anyway. Non-positive sizes are ignored.
func (c *camera) SetResolution(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = width, height
	c.apply()
}

func (c *camera) Resolution() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *camera) Live() bool {
	return true
}
