package capture

import (
	"fmt"

	"gocv.io/x/gocv"
)

type file struct {
	video
	path string
}

// NewFile creates a Source reading the video at path. It ends with ErrEndOfStream
// after the last frame.
func NewFile(path string) Source {
	return &file{path: path}
}

func (f *file) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(f.path)
	if err != nil {
		return fmt.Errorf("open video %s: %w", f.path, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("open video %s: not a readable video", f.path)
	}
	f.attach(vc)
	return nil
}

func (f *file) ReadFrame() (*gocv.Mat, error) {
	return f.read(ErrEndOfStream)
}

// Live returns false; files need no warm-up.
func (f *file) Live() bool {
	return false
}
