package motion

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"
)

// TimestampLayout is the layout of the timestamp drawn on annotated frames.
const TimestampLayout = "Monday 02 January 2006 03:04:05PM"

var (
	regionColor = color.RGBA{G: 255, A: 255}
	textColor   = color.RGBA{R: 255, A: 255}
)

// Annotate draws a box around every region, the room status in the top-left corner and
// the timestamp in the bottom-left corner of frame.
func Annotate(frame *gocv.Mat, regions []Region, state State, at time.Time) {
	if frame == nil || frame.Empty() {
		return
	}

	for _, r := range regions {
		gocv.Rectangle(frame, r.Bounds, regionColor, 2)
	}

	gocv.PutText(frame, fmt.Sprintf("Room Status: %s", state), image.Point{X: 10, Y: 20},
		gocv.FontHersheySimplex, 0.5, textColor, 2)
	gocv.PutText(frame, at.Format(TimestampLayout), image.Point{X: 10, Y: frame.Rows() - 10},
		gocv.FontHersheySimplex, 0.35, textColor, 1)
}
