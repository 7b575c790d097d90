package motion

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Prepared is a preprocessed frame: the resized colour image kept for snapshots and
// its blurred single-channel counterpart used for differencing.
type Prepared struct {
	Color gocv.Mat
	Gray  gocv.Mat
}

// Close releases both Mats.
func (p *Prepared) Close() {
	p.Color.Close()
	p.Gray.Close()
}

// Preprocessor normalizes raw frames to a fixed width, grayscale and blur.
type Preprocessor struct {
	width    int
	blurSize int
}

// NewPreprocessor creates a Preprocessor resizing to width and blurring with a
// blurSize x blurSize Gaussian kernel.
func NewPreprocessor(width, blurSize int) *Preprocessor {
	return &Preprocessor{
		width:    width,
		blurSize: blurSize,
	}
}

// Process resizes the frame (keeping its aspect ratio), converts it to grayscale and
// applies a Gaussian blur. The input is not modified.
//
// Returns ErrMalformedFrame for empty frames or unsupported channel counts.
func (p *Preprocessor) Process(frame gocv.Mat) (Prepared, error) {
	if frame.Empty() || frame.Rows() == 0 || frame.Cols() == 0 {
		return Prepared{}, fmt.Errorf("%w: empty frame", ErrMalformedFrame)
	}

	var code gocv.ColorConversionCode
	switch frame.Channels() {
	case 1:
	case 3:
		code = gocv.ColorBGRToGray
	case 4:
		code = gocv.ColorBGRAToGray
	default:
		return Prepared{}, fmt.Errorf("%w: %d channels", ErrMalformedFrame, frame.Channels())
	}

	height := frame.Rows() * p.width / frame.Cols()
	if height <= 0 {
		return Prepared{}, fmt.Errorf("%w: %dx%d cannot be scaled to width %d",
			ErrMalformedFrame, frame.Cols(), frame.Rows(), p.width)
	}

	resized := gocv.NewMat()
	if frame.Cols() == p.width && frame.Rows() == height {
		frame.CopyTo(&resized)
	} else {
		gocv.Resize(frame, &resized, image.Point{X: p.width, Y: height}, 0, 0, gocv.InterpolationArea)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() == 1 {
		resized.CopyTo(&gray)
	} else {
		gocv.CvtColor(resized, &gray, code)
	}

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: p.blurSize, Y: p.blurSize}, 0, 0, gocv.BorderDefault)

	return Prepared{Color: resized, Gray: blurred}, nil
}
