// Package notify delivers alerts to messaging sinks: Discord, MQTT and the log.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ayusman/catfence/internal/alert"
)

// Log writes alert metadata to a logger. It is the sink used when nothing else is
// configured.
type Log struct {
	log *zap.Logger
}

// NewLog creates a Log notifier.
func NewLog(log *zap.Logger) *Log {
	if log == nil {
		log = zap.NewNop()
	}
	return &Log{log: log}
}

// Send logs p.
func (l *Log) Send(_ context.Context, p alert.Payload) error {
	l.log.Info(p.Caption,
		zap.String("alert_id", p.ID),
		zap.Time("fired_at", p.FiredAt),
		zap.Int("regions", len(p.Regions)),
		zap.Int("largest_area", p.LargestArea()),
		zap.Int("image_bytes", len(p.Image)),
	)
	return nil
}

// Named pairs a notifier with the name used in errors and logs.
type Named struct {
	Name     string
	Notifier alert.Notifier
}

// Fanout sends every alert to all of its notifiers.
type Fanout struct {
	sinks []Named
}

// NewFanout creates a Fanout over sinks.
func NewFanout(sinks ...Named) *Fanout {
	return &Fanout{sinks: sinks}
}

// Len returns the number of sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Send delivers p to every sink, even after a failure, and joins the errors.
func (f *Fanout) Send(ctx context.Context, p alert.Payload) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Notifier.Send(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}
