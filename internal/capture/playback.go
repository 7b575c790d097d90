package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// Playback plays back in-memory frames, mostly for testing.
type Playback struct {
	frames  []*gocv.Mat
	index   int
	loop    bool
	live    bool
	endErr  error
	mu      sync.Mutex
	running bool
	closes  int
}

// NewPlayback creates a Playback over frames. With loop set it never ends.
func NewPlayback(frames []*gocv.Mat, loop bool) *Playback {
	return &Playback{
		frames: frames,
		loop:   loop,
		endErr: ErrEndOfStream,
	}
}

// Open starts playback from the first frame.
func (p *Playback) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = true
	p.index = 0
	return nil
}

// Close stops playback. The frames themselves stay owned by the caller.
func (p *Playback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	p.closes++
	return nil
}

// ReadFrame returns a clone of the next frame.
func (p *Playback) ReadFrame() (*gocv.Mat, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil, ErrCameraNotOpen
	}

	if p.index >= len(p.frames) {
		if !p.loop || len(p.frames) == 0 {
			return nil, p.endErr
		}
		p.index = 0
	}

	// Clone the frame so the original isn't modified
	frame := p.frames[p.index].Clone()
	p.index++

	return &frame, nil
}

// IsOpen reports whether playback is running.
func (p *Playback) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Live reports what SetLive configured (false by default).
func (p *Playback) Live() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// SetLive makes the playback pose as a live device.
func (p *Playback) SetLive(live bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.live = live
}

// SetEndError replaces ErrEndOfStream with err once the frames run out, simulating
// an acquisition failure.
func (p *Playback) SetEndError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endErr = err
}

// Closes returns how many times Close was called.
func (p *Playback) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}
