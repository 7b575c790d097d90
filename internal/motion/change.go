package motion

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ChangeDetector turns a frame and its baseline into a binary change mask.
type ChangeDetector struct {
	threshold  int
	iterations int
	kernel     gocv.Mat
}

// NewChangeDetector creates a ChangeDetector. Pixels whose absolute difference is at
// least threshold are set; the mask is then dilated iterations times with a 3x3 kernel.
func NewChangeDetector(threshold, iterations int) *ChangeDetector {
	return &ChangeDetector{
		threshold:  threshold,
		iterations: iterations,
		kernel:     gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: 3, Y: 3}),
	}
}

// Detect returns a new single-channel mask (0 or 255) the size of current.
// Returns ErrSizeMismatch if current and baseline differ in size or type.
func (d *ChangeDetector) Detect(current, baseline gocv.Mat) (gocv.Mat, error) {
	if current.Rows() != baseline.Rows() || current.Cols() != baseline.Cols() || current.Type() != baseline.Type() {
		return gocv.Mat{}, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch,
			current.Cols(), current.Rows(), baseline.Cols(), baseline.Rows())
	}

	delta := gocv.NewMat()
	defer delta.Close()
	gocv.AbsDiff(baseline, current, &delta)

	// THRESH_BINARY keeps values strictly greater than the cut-off.
	mask := gocv.NewMat()
	gocv.Threshold(delta, &mask, float32(d.threshold-1), 255, gocv.ThresholdBinary)

	for i := 0; i < d.iterations; i++ {
		gocv.Dilate(mask, &mask, d.kernel)
	}

	return mask, nil
}

// Close releases the dilation kernel.
func (d *ChangeDetector) Close() {
	d.kernel.Close()
}
