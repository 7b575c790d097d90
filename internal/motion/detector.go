package motion

import (
	"errors"

	"gocv.io/x/gocv"
)

// Result is the outcome of processing one frame.
type Result struct {
	// Frame is the resized colour frame, owned by the Result.
	Frame   gocv.Mat
	State   State
	Regions []Region
	// Seeded is true when the frame only (re)established the baseline and was not
	// evaluated for motion.
	Seeded bool
}

// Close releases the frame held by the result.
func (r *Result) Close() {
	r.Frame.Close()
}

// Detector runs the preprocess, difference, extract and classify stages against a
// single-step baseline: after every frame the baseline becomes that frame.
type Detector struct {
	params   Params
	pre      *Preprocessor
	change   *ChangeDetector
	regions  *RegionExtractor
	baseline *Baseline
}

// NewDetector creates a Detector with the given parameters.
func NewDetector(p Params) *Detector {
	return &Detector{
		params:   p,
		pre:      NewPreprocessor(p.Width, p.BlurSize),
		change:   NewChangeDetector(p.DiffThreshold, p.DilateIterations),
		regions:  NewRegionExtractor(p.MinArea),
		baseline: NewBaseline(),
	}
}

// Process evaluates frame against the baseline and then makes it the new baseline.
//
// The first frame (or the first after Reset) seeds the baseline and is reported as
// Unoccupied with Seeded set. A malformed frame returns an error wrapping
// ErrMalformedFrame and leaves the baseline untouched.
func (d *Detector) Process(frame gocv.Mat) (*Result, error) {
	prepared, err := d.pre.Process(frame)
	if err != nil {
		return nil, err
	}

	base, ok := d.baseline.Get()
	if !ok {
		d.baseline.Set(prepared.Gray)
		return &Result{Frame: prepared.Color, State: Unoccupied, Seeded: true}, nil
	}

	mask, err := d.change.Detect(prepared.Gray, base)
	if errors.Is(err, ErrSizeMismatch) {
		// The source changed its aspect ratio; start over from this frame.
		d.baseline.Set(prepared.Gray)
		return &Result{Frame: prepared.Color, State: Unoccupied, Seeded: true}, nil
	}
	if err != nil {
		prepared.Close()
		return nil, err
	}
	regions := d.regions.Extract(mask)
	mask.Close()

	d.baseline.Set(prepared.Gray)

	return &Result{
		Frame:   prepared.Color,
		State:   Classify(regions),
		Regions: regions,
	}, nil
}

// Baseline exposes the baseline tracker.
func (d *Detector) Baseline() *Baseline {
	return d.baseline
}

// Params returns the parameters the detector was built with.
func (d *Detector) Params() Params {
	return d.params
}

// Reset drops the baseline so the next frame seeds a new one.
func (d *Detector) Reset() {
	d.baseline.Reset()
}

// Close releases all OpenCV resources held by the detector.
func (d *Detector) Close() {
	d.baseline.Close()
	d.change.Close()
}
