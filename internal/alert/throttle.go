// Package alert turns occupancy classifications into rate-limited notifications.
package alert

import (
	"time"

	"github.com/ayusman/catfence/internal/motion"
)

// DefaultCooldown is the minimum time between two alerts.
const DefaultCooldown = 10 * time.Second

// Phase is the throttle state.
type Phase int

const (
	// Idle means the next Occupied frame fires an alert.
	Idle Phase = iota
	// Cooling means alerts are suppressed until the cooldown has elapsed.
	Cooling
)

// String returns the phase name.
func (p Phase) String() string {
	if p == Cooling {
		return "cooling"
	}
	return "idle"
}

// MarshalText lets Phase render as its name in JSON.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Throttle is the Idle/Cooling state machine deciding when an alert may fire.
// It has no side effects of its own; see Alerter.
type Throttle struct {
	cooldown time.Duration
	clock    Clock
	phase    Phase
	last     time.Time
	fired    bool
}

// NewThrottle creates a Throttle in the Idle phase.
func NewThrottle(cooldown time.Duration, clock Clock) *Throttle {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Throttle{
		cooldown: cooldown,
		clock:    clock,
		phase:    Idle,
	}
}

// Observe feeds one classification and reports whether an alert should fire now.
//
// Cooling returns to Idle once the cooldown has elapsed since the last alert, whatever
// the state. Idle fires on Occupied and moves to Cooling.
func (t *Throttle) Observe(state motion.State) bool {
	now := t.clock.Now()

	if t.phase == Cooling && now.Sub(t.last) >= t.cooldown {
		t.phase = Idle
	}

	if t.phase == Idle && state == motion.Occupied {
		t.phase = Cooling
		t.last = now
		t.fired = true
		return true
	}

	return false
}

// Phase returns the phase as of the last Observe.
func (t *Throttle) Phase() Phase {
	return t.phase
}

// LastAlert returns when the last alert fired, if any.
func (t *Throttle) LastAlert() (time.Time, bool) {
	return t.last, t.fired
}

// Cooldown returns the configured cooldown.
func (t *Throttle) Cooldown() time.Duration {
	return t.cooldown
}
