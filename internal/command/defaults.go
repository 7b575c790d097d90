package command

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/catfence/internal/alert"
)

// Command IDs and aliases registered by Defaults.
const (
	TableFlip      = "/tableflip"
	TableFlipAlias = "(╯°□°）╯︵"
	Play           = "/play"
	StatusCmd      = "/status"
	Pause          = "/pause"
	Resume         = "/resume"
)

// Status is the watcher state reported by /status.
type Status struct {
	Paused    bool
	State     string
	Counters  alert.CounterSnapshot
	LastAlert time.Time
	Uptime    time.Duration
}

// Controller is the part of the watcher that commands can drive.
type Controller interface {
	SetPaused(paused bool)
	Status() Status
}

// Deterrent scares the cat. An empty sound means the configured default.
type Deterrent interface {
	Run(ctx context.Context, trigger, sound string) error
	Sounds(ctx context.Context) ([]string, error)
}

// Defaults returns a registry with the operator commands wired to ctrl and det.
func Defaults(ctrl Controller, det Deterrent) *Registry {
	r := NewRegistry()

	shoo := func(ctx context.Context, trigger, sound string) (Response, error) {
		if det == nil {
			return Response{Text: "no deterrent configured"}, nil
		}
		if err := det.Run(ctx, trigger, sound); err != nil {
			return Response{}, err
		}
		return Response{Text: "(╯°□°）╯︵ ┻━┻"}, nil
	}

	mustRegister(r, NewSimple(TableFlip, "Shoo away cat.", func(ctx context.Context) (Response, error) {
		return shoo(ctx, TableFlip, "")
	}))
	mustAlias(r, TableFlipAlias, TableFlip)

	mustRegister(r, NewParameterized(Play, "<sound>", "Shoo away cat with a specific sound.",
		func(ctx context.Context, args []string) (Response, error) {
			if det == nil {
				if len(args) == 0 {
					return Response{}, fmt.Errorf("%w: usage %s <sound>", ErrUsage, Play)
				}
				return shoo(ctx, Play, args[0])
			}

			sounds, err := det.Sounds(ctx)
			if err != nil {
				return Response{}, fmt.Errorf("list sounds: %w", err)
			}
			if len(args) == 0 {
				return soundsResponse("Usage: "+Play+" <sound>", sounds), nil
			}
			if len(sounds) > 0 && !slices.Contains(sounds, args[0]) {
				return soundsResponse("Unknown sound "+args[0]+".", sounds), nil
			}
			return shoo(ctx, Play, args[0])
		}))

	mustRegister(r, NewSimple(StatusCmd, "Show what the camera sees and alert totals.", func(context.Context) (Response, error) {
		return statusResponse(ctrl.Status()), nil
	}))

	mustRegister(r, NewSimple(Pause, "Stop watching until resumed.", func(context.Context) (Response, error) {
		ctrl.SetPaused(true)
		return Response{Text: "Watching paused."}, nil
	}))

	mustRegister(r, NewSimple(Resume, "Start watching again.", func(context.Context) (Response, error) {
		ctrl.SetPaused(false)
		return Response{Text: "Watching resumed."}, nil
	}))

	return r
}

func soundsResponse(text string, sounds []string) Response {
	available := "none installed"
	if len(sounds) > 0 {
		available = strings.Join(sounds, ", ")
	}
	return Response{
		Text:   text,
		Fields: []Field{{Name: "Sounds", Value: available}},
	}
}

func statusResponse(s Status) Response {
	watching := "watching"
	if s.Paused {
		watching = "paused"
	}

	last := "never"
	if !s.LastAlert.IsZero() {
		last = s.LastAlert.Format(time.RFC1123)
	}

	return Response{
		Title: "Room Status: " + s.State,
		Fields: []Field{
			{Name: "Mode", Value: watching},
			{Name: "Frames", Value: strconv.FormatInt(s.Counters.Frames, 10)},
			{Name: "Alerts", Value: fmt.Sprintf("%d fired, %d delivered, %d failed",
				s.Counters.Fired, s.Counters.Delivered, s.Counters.Failed)},
			{Name: "Last alert", Value: last},
			{Name: "Uptime", Value: s.Uptime.Truncate(time.Second).String()},
		},
	}
}

// mustRegister panics on programmer errors in the fixed command table.
func mustRegister(r *Registry, c Command) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

func mustAlias(r *Registry, alias, id string) {
	if err := r.Alias(alias, id); err != nil {
		panic(err)
	}
}
