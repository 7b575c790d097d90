package motion

import "gocv.io/x/gocv"

// Baseline holds the reference frame the next frame is differenced against.
// It always holds the most recently set frame; nothing is averaged.
type Baseline struct {
	frame   gocv.Mat
	valid   bool
	updates int
}

// NewBaseline creates an empty Baseline.
func NewBaseline() *Baseline {
	return &Baseline{}
}

// Get returns the current baseline and whether one exists. The returned Mat stays
// owned by the Baseline and is only valid until the next Set, Reset or Close.
func (b *Baseline) Get() (gocv.Mat, bool) {
	if !b.valid {
		return gocv.Mat{}, false
	}
	return b.frame, true
}

// Set replaces the baseline with frame, taking ownership of it.
func (b *Baseline) Set(frame gocv.Mat) {
	if b.valid {
		b.frame.Close()
	}
	b.frame = frame
	b.valid = true
	b.updates++
}

// Updates returns how many times Set has been called.
func (b *Baseline) Updates() int {
	return b.updates
}

// Reset drops the baseline so the next frame seeds a new one.
func (b *Baseline) Reset() {
	if b.valid {
		b.frame.Close()
	}
	b.frame = gocv.Mat{}
	b.valid = false
}

// Close releases the baseline frame.
func (b *Baseline) Close() {
	b.Reset()
}
