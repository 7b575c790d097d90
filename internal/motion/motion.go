// Package motion implements frame-differencing motion detection using GoCV (OpenCV).
//
// A frame flows through Preprocessor, ChangeDetector and RegionExtractor and is reduced
// to an occupancy State by Classify. Detector wires the stages together and keeps the
// Baseline. Every stage allocates a new Mat for its output; the caller owns and must
// Close whatever it receives.
package motion

import (
	"errors"
	"fmt"
)

// Default detection parameters.
const (
	// DefaultWidth is the width frames are resized to before differencing.
	DefaultWidth = 500
	// DefaultBlurSize is the Gaussian blur kernel size (21x21).
	DefaultBlurSize = 21
	// DefaultDiffThreshold is the minimum per-pixel intensity change counted as motion.
	DefaultDiffThreshold = 25
	// DefaultDilateIterations is the number of 3x3 dilations applied to the mask.
	DefaultDilateIterations = 2
	// DefaultMinArea is the smallest region area, in pixels, that counts as motion.
	DefaultMinArea = 1500
)

var (
	// ErrMalformedFrame is returned when a frame is empty or has an unsupported layout.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrSizeMismatch is returned when a frame and the baseline differ in size or type.
	ErrSizeMismatch = errors.New("frame does not match baseline")
)

// Params holds the tunable detection parameters.
type Params struct {
	Width            int `yaml:"width"`
	BlurSize         int `yaml:"blur_size"`
	DiffThreshold    int `yaml:"diff_threshold"`
	DilateIterations int `yaml:"dilate_iterations"`
	MinArea          int `yaml:"min_area"`
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{
		Width:            DefaultWidth,
		BlurSize:         DefaultBlurSize,
		DiffThreshold:    DefaultDiffThreshold,
		DilateIterations: DefaultDilateIterations,
		MinArea:          DefaultMinArea,
	}
}

// Validate reports every parameter that is out of range.
func (p Params) Validate() error {
	var errs []error
	if p.Width <= 0 {
		errs = append(errs, fmt.Errorf("width must be positive, got %d", p.Width))
	}
	if p.BlurSize <= 0 || p.BlurSize%2 == 0 {
		errs = append(errs, fmt.Errorf("blur_size must be a positive odd number, got %d", p.BlurSize))
	}
	if p.DiffThreshold < 1 || p.DiffThreshold > 255 {
		errs = append(errs, fmt.Errorf("diff_threshold must be in 1..255, got %d", p.DiffThreshold))
	}
	if p.DilateIterations < 0 {
		errs = append(errs, fmt.Errorf("dilate_iterations must not be negative, got %d", p.DilateIterations))
	}
	if p.MinArea < 0 {
		errs = append(errs, fmt.Errorf("min_area must not be negative, got %d", p.MinArea))
	}
	return errors.Join(errs...)
}
