package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayusman/catfence/internal/motion"
)

// Journal records fired alerts and how their delivery went.
type Journal interface {
	Record(ctx context.Context, p Payload, deliveryErr error) error
}

// Options configures an Alerter.
type Options struct {
	Cooldown    time.Duration
	Caption     string
	Description string
	// Annotate draws region boxes, status and timestamp on the snapshot.
	Annotate bool

	Notifier Notifier
	Counters *Counters
	Journal  Journal
	Clock    Clock
	Logger   *zap.Logger
}

// Outcome describes what Handle did with a frame.
type Outcome struct {
	Fired   bool
	AlertID string
}

// Alerter runs the throttle and performs the side effects of a fired alert: snapshot,
// delivery, counters and journal.
type Alerter struct {
	throttle    *Throttle
	notifier    Notifier
	counters    *Counters
	journal     Journal
	clock       Clock
	log         *zap.Logger
	caption     string
	description string
	annotate    bool
}

// NewAlerter creates an Alerter. A nil Counters or Logger is replaced by a private
// instance; a nil Notifier drops payloads.
func NewAlerter(opts Options) *Alerter {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	counters := opts.Counters
	if counters == nil {
		counters = &Counters{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(context.Context, Payload) error { return nil })
	}
	caption := opts.Caption
	if caption == "" {
		caption = DefaultCaption
	}

	return &Alerter{
		throttle:    NewThrottle(opts.Cooldown, clock),
		notifier:    notifier,
		counters:    counters,
		journal:     opts.Journal,
		clock:       clock,
		log:         log,
		caption:     caption,
		description: opts.Description,
		annotate:    opts.Annotate,
	}
}

// Handle observes the frame's state and, if the throttle fires, delivers an alert.
//
// A delivery failure is returned but leaves the throttle cooling; nothing is retried.
func (a *Alerter) Handle(ctx context.Context, res *motion.Result) (Outcome, error) {
	if !a.throttle.Observe(res.State) {
		return Outcome{}, nil
	}

	firedAt := a.clock.Now()
	a.counters.Fired.Add(1)

	payload := Payload{
		ID:          uuid.NewString(),
		FiredAt:     firedAt,
		Caption:     a.caption,
		Description: a.description,
		Regions:     res.Regions,
		Filename:    DefaultFilename,
		ContentType: "image/png",
	}
	out := Outcome{Fired: true, AlertID: payload.ID}

	log := a.log.With(zap.String("alert_id", payload.ID))
	log.Info("alert fired",
		zap.Int64("total", a.counters.Fired.Load()),
		zap.Int("regions", len(res.Regions)),
		zap.Int("largest_area", payload.LargestArea()),
	)

	image, err := a.snapshot(res, firedAt)
	if err != nil {
		a.counters.Failed.Add(1)
		a.record(ctx, log, payload, err)
		return out, fmt.Errorf("snapshot for alert %s: %w", payload.ID, err)
	}
	payload.Image = image

	sendErr := a.notifier.Send(ctx, payload)
	if sendErr != nil {
		a.counters.Failed.Add(1)
		log.Warn("alert delivery failed", zap.Error(sendErr))
	} else {
		a.counters.Delivered.Add(1)
	}
	a.record(ctx, log, payload, sendErr)

	if sendErr != nil {
		return out, fmt.Errorf("deliver alert %s: %w", payload.ID, sendErr)
	}
	return out, nil
}

func (a *Alerter) snapshot(res *motion.Result, at time.Time) ([]byte, error) {
	if !a.annotate {
		return EncodePNG(res.Frame)
	}
	if res.Frame.Empty() {
		return nil, ErrEmptySnapshot
	}

	frame := res.Frame.Clone()
	defer frame.Close()
	motion.Annotate(&frame, res.Regions, res.State, at)

	return EncodePNG(frame)
}

func (a *Alerter) record(ctx context.Context, log *zap.Logger, p Payload, deliveryErr error) {
	if a.journal == nil {
		return
	}
	if err := a.journal.Record(ctx, p, deliveryErr); err != nil {
		log.Warn("failed to journal alert", zap.Error(err))
	}
}

// Throttle exposes the underlying state machine.
func (a *Alerter) Throttle() *Throttle {
	return a.throttle
}

// Counters returns the counters the alerter updates.
func (a *Alerter) Counters() *Counters {
	return a.counters
}
