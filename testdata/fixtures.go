// Package testdata builds synthetic frames for tests.
package testdata

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Solid returns a width x height BGR frame filled with the given intensity.
func Solid(width, height int, value uint8) gocv.Mat {
	v := float64(value)
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), height, width, gocv.MatTypeCV8UC3)
}

// SolidGray returns a width x height single-channel frame filled with value.
func SolidGray(width, height int, value uint8) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(value), 0, 0, 0), height, width, gocv.MatTypeCV8UC1)
}

// WithRect returns a copy of base with r filled at the given intensity.
func WithRect(base gocv.Mat, r image.Rectangle, value uint8) gocv.Mat {
	out := base.Clone()
	c := color.RGBA{R: value, G: value, B: value, A: 255}
	gocv.Rectangle(&out, r, c, -1)
	return out
}

// Sequence returns n clones of frame. The caller closes each of them.
func Sequence(frame gocv.Mat, n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		m := frame.Clone()
		frames = append(frames, &m)
	}
	return frames
}

// CloseAll closes every frame.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
