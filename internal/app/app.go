// Package app runs the catfence watch loop: read a frame, detect motion, alert, sleep.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/catfence/internal/alert"
	"github.com/ayusman/catfence/internal/capture"
	"github.com/ayusman/catfence/internal/motion"
	"github.com/ayusman/catfence/internal/server"
)

// Loop timing defaults.
const (
	// DefaultWarmup is the pause before the first read from a live camera.
	DefaultWarmup = 2 * time.Second
	// DefaultFrameInterval is the sleep between two frames.
	DefaultFrameInterval = time.Second
)

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config holds the parts the App is assembled from.
type Config struct {
	Source   capture.Source
	Detector *motion.Detector
	Alerter  *alert.Alerter

	// Events and Frames are optional; the loop publishes per-frame results and a
	// JPEG preview to them.
	Events *server.Hub
	Frames *server.FrameBuffer

	// SourceName describes the source in status reports.
	SourceName    string
	Warmup        time.Duration
	FrameInterval time.Duration

	// OnPause runs after the paused flag changes.
	OnPause func(paused bool)
	// OnAlert runs after every fired alert.
	OnAlert func(out alert.Outcome, at time.Time)

	Sleep  SleepFunc
	Logger *zap.Logger
}

// App owns the watch loop and the state it shares with the status server and commands.
type App struct {
	config   Config
	source   capture.Source
	detector *motion.Detector
	alerter  *alert.Alerter
	log      *zap.Logger
	sleep    SleepFunc
	start    time.Time

	mu              sync.RWMutex
	paused          bool
	resetPending    bool
	state           motion.State
	phase           alert.Phase
	lastAlert       time.Time
	baselineUpdates int
}

// New creates an App. Detector and Alerter default to the standard motion parameters
// and a log-only alerter.
func New(config Config) *App {
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}
	det := config.Detector
	if det == nil {
		det = motion.NewDetector(motion.DefaultParams())
	}
	alerter := config.Alerter
	if alerter == nil {
		alerter = alert.NewAlerter(alert.Options{Cooldown: alert.DefaultCooldown, Logger: log})
	}
	sleep := config.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	return &App{
		config:   config,
		source:   config.Source,
		detector: det,
		alerter:  alerter,
		log:      log,
		sleep:    sleep,
		start:    time.Now(),
	}
}

// Run opens the source and processes frames until the context is cancelled or the
// source ends. A read error other than end-of-stream is logged and ends the run like
// end-of-stream does. The source is always closed before Run returns.
func (a *App) Run(ctx context.Context) error {
	if a.source == nil {
		return errors.New("no frame source")
	}
	if err := a.source.Open(); err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if err := a.source.Close(); err != nil {
			a.log.Warn("failed to close source", zap.Error(err))
		}
	}()

	params := a.detector.Params()
	a.log.Info("watching",
		zap.String("source", a.config.SourceName),
		zap.Bool("live", a.source.Live()),
		zap.Int("min_area", params.MinArea),
		zap.Int("diff_threshold", params.DiffThreshold),
		zap.Duration("cooldown", a.alerter.Throttle().Cooldown()),
	)

	if a.source.Live() && a.config.Warmup > 0 {
		a.log.Debug("warming up camera", zap.Duration("warmup", a.config.Warmup))
		if err := a.sleep(ctx, a.config.Warmup); err != nil {
			return nil
		}
	}

	for {
		if ctx.Err() != nil {
			a.log.Info("stopping", zap.Error(context.Cause(ctx)))
			return nil
		}

		frame, err := a.source.ReadFrame()
		if errors.Is(err, capture.ErrEndOfStream) {
			a.log.Info("end of stream", zap.Int64("frames", a.alerter.Counters().Frames.Load()))
			return nil
		}
		if err != nil {
			a.log.Warn("frame acquisition failed, stopping", zap.Error(err))
			return nil
		}

		fired := a.step(ctx, frame)
		frame.Close()

		if fired {
			if err := a.sleep(ctx, a.alerter.Throttle().Cooldown()); err != nil {
				return nil
			}
		}
		if a.config.FrameInterval > 0 {
			if err := a.sleep(ctx, a.config.FrameInterval); err != nil {
				return nil
			}
		}
	}
}

// SetPaused pauses or resumes detection. Frames read while paused are discarded and
// resuming drops the baseline so the next frame seeds a new one.
func (a *App) SetPaused(paused bool) {
	a.mu.Lock()
	changed := a.paused != paused
	if a.paused && !paused {
		a.resetPending = true
	}
	a.paused = paused
	a.mu.Unlock()

	if !changed {
		return
	}
	a.log.Info("watching toggled", zap.Bool("paused", paused))
	if a.config.OnPause != nil {
		a.config.OnPause(paused)
	}
}

// Paused reports whether detection is paused.
func (a *App) Paused() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.paused
}

// Counters returns the run counters.
func (a *App) Counters() *alert.Counters {
	return a.alerter.Counters()
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
