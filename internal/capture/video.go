package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// video is the VideoCapture handle shared by the camera and file sources.
type video struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
}

// attach stores an opened capture. The caller holds mu.
func (v *video) attach(c *gocv.VideoCapture) {
	v.capture = c
}

// Close releases the capture. Closing a source that is not open is a no-op.
func (v *video) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return nil
	}
	err := v.capture.Close()
	v.capture = nil
	return err
}

// IsOpen reports whether a capture is attached.
func (v *video) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.capture != nil
}

// read grabs the next frame. A failed or empty read is reported as failed.
func (v *video) read(failed error) (*gocv.Mat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := v.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, failed
	}
	return &mat, nil
}
