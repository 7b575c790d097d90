package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/catfence/internal/alert"
	"github.com/ayusman/catfence/internal/motion"
)

// Event is published to websocket clients for every processed frame.
type Event struct {
	Time            time.Time       `json:"time"`
	State           motion.State    `json:"state"`
	Regions         []motion.Region `json:"regions"`
	Seeded          bool            `json:"seeded,omitempty"`
	Phase           alert.Phase     `json:"phase"`
	AlertID         string          `json:"alert_id,omitempty"`
	BaselineUpdates int             `json:"baseline_updates"`
}

// step runs one frame through detection and the alerter and reports whether an
// alert fired.
//
// Pipeline:
// 1. Discard the frame while paused
// 2. Drop the baseline if a resume asked for it
// 3. Detect motion against the baseline (malformed frames are skipped)
// 4. Let the alerter decide whether to fire
// 5. Publish the result and a preview frame
func (a *App) step(ctx context.Context, frame *gocv.Mat) bool {
	a.mu.Lock()
	paused := a.paused
	reset := a.resetPending
	a.resetPending = false
	a.mu.Unlock()

	if paused {
		return false
	}
	if reset {
		a.detector.Reset()
	}

	res, err := a.detector.Process(*frame)
	if err != nil {
		a.log.Warn("skipping frame", zap.Error(err))
		return false
	}
	defer res.Close()

	a.alerter.Counters().Frames.Add(1)

	out, err := a.alerter.Handle(ctx, res)
	if err != nil {
		a.log.Error("alert failed", zap.String("alert_id", out.AlertID), zap.Error(err))
	}

	throttle := a.alerter.Throttle()
	updates := a.detector.Baseline().Updates()
	last, _ := throttle.LastAlert()

	a.mu.Lock()
	a.state = res.State
	a.phase = throttle.Phase()
	a.lastAlert = last
	a.baselineUpdates = updates
	a.mu.Unlock()

	if out.Fired && a.config.OnAlert != nil {
		a.config.OnAlert(out, last)
	}

	a.publish(res, out, throttle.Phase(), updates)
	return out.Fired
}

func (a *App) publish(res *motion.Result, out alert.Outcome, phase alert.Phase, updates int) {
	if a.config.Events != nil {
		a.config.Events.Publish(Event{
			Time:            time.Now(),
			State:           res.State,
			Regions:         res.Regions,
			Seeded:          res.Seeded,
			Phase:           phase,
			AlertID:         out.AlertID,
			BaselineUpdates: updates,
		})
	}

	if a.config.Frames == nil || res.Frame.Empty() {
		return
	}
	preview := res.Frame.Clone()
	defer preview.Close()
	motion.Annotate(&preview, res.Regions, res.State, time.Now())

	jpeg, err := alert.EncodeJPEG(preview)
	if err != nil {
		a.log.Debug("failed to encode preview", zap.Error(err))
		return
	}
	a.config.Frames.Set(jpeg)
}
