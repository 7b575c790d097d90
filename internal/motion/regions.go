package motion

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Region is a connected area of change in the mask.
type Region struct {
	Bounds image.Rectangle `json:"bounds"`
	Area   int             `json:"area"`
}

// RegionExtractor finds the external regions of a mask and drops the small ones.
type RegionExtractor struct {
	minArea int
}

// NewRegionExtractor creates a RegionExtractor keeping regions of at least minArea pixels.
func NewRegionExtractor(minArea int) *RegionExtractor {
	return &RegionExtractor{minArea: minArea}
}

// Extract returns the regions bounded by the external contours of mask whose area is at
// least the minimum. Holes and contours nested inside another region are not reported.
//
// Area is the number of pixels inside the filled contour, so a solid w x h block has
// area w*h.
func (e *RegionExtractor) Extract(mask gocv.Mat) []Region {
	if mask.Empty() {
		return nil
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return nil
	}

	scratch := gocv.Zeros(mask.Rows(), mask.Cols(), gocv.MatTypeCV8UC1)
	defer scratch.Close()

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	zero := gocv.NewScalar(0, 0, 0, 0)

	var regions []Region
	for i := 0; i < contours.Size(); i++ {
		bounds := gocv.BoundingRect(contours.At(i))

		gocv.DrawContours(&scratch, contours, i, white, -1)
		roi := scratch.Region(bounds)
		area := gocv.CountNonZero(roi)
		// The filled contour never leaves its bounding box, so clearing the ROI
		// leaves scratch blank for the next contour.
		roi.SetTo(zero)
		roi.Close()

		if area < e.minArea {
			continue
		}
		regions = append(regions, Region{Bounds: bounds, Area: area})
	}

	return regions
}
