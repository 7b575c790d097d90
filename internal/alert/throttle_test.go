package alert

import (
	"testing"
	"time"

	"github.com/ayusman/catfence/internal/motion"
)

func TestThrottle_OneAlertPerCooldown(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		offset time.Duration
		state  motion.State
		want   bool
		phase  Phase
	}{
		{name: "first occupied fires", offset: 0, state: motion.Occupied, want: true, phase: Cooling},
		{name: "occupied inside window suppressed", offset: 3 * time.Second, state: motion.Occupied, want: false, phase: Cooling},
		{name: "unoccupied inside window", offset: 5 * time.Second, state: motion.Unoccupied, want: false, phase: Cooling},
		{name: "occupied just before window ends", offset: 9999 * time.Millisecond, state: motion.Occupied, want: false, phase: Cooling},
		{name: "occupied at window end fires", offset: 10 * time.Second, state: motion.Occupied, want: true, phase: Cooling},
		{name: "suppressed again", offset: 11 * time.Second, state: motion.Occupied, want: false, phase: Cooling},
	}

	clock := NewManualClock(t0)
	th := NewThrottle(10*time.Second, clock)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.Advance(t0.Add(tt.offset).Sub(clock.Now()))

			if got := th.Observe(tt.state); got != tt.want {
				t.Errorf("Observe(%v) at +%v = %v, want %v", tt.state, tt.offset, got, tt.want)
			}
			if th.Phase() != tt.phase {
				t.Errorf("Phase() = %v, want %v", th.Phase(), tt.phase)
			}
		})
	}
}

func TestThrottle_IdleIgnoresUnoccupied(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	th := NewThrottle(DefaultCooldown, clock)

	for i := 0; i < 10; i++ {
		if th.Observe(motion.Unoccupied) {
			t.Fatalf("Observe(Unoccupied) fired on iteration %d", i)
		}
		clock.Advance(time.Second)
	}

	if th.Phase() != Idle {
		t.Errorf("Phase() = %v, want idle", th.Phase())
	}
	if _, ok := th.LastAlert(); ok {
		t.Error("LastAlert() should report no alert")
	}
}

func TestThrottle_CoolingReturnsToIdleOnUnoccupied(t *testing.T) {
	start := time.Unix(1000, 0)
	clock := NewManualClock(start)
	th := NewThrottle(10*time.Second, clock)

	th.Observe(motion.Occupied)
	clock.Advance(12 * time.Second)

	if th.Observe(motion.Unoccupied) {
		t.Error("Observe(Unoccupied) should not fire")
	}
	if th.Phase() != Idle {
		t.Errorf("Phase() = %v, want idle once the cooldown has elapsed", th.Phase())
	}

	last, ok := th.LastAlert()
	if !ok || !last.Equal(start) {
		t.Errorf("LastAlert() = %v, %v, want %v, true", last, ok, start)
	}
}

func TestThrottle_ZeroCooldown(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	th := NewThrottle(0, clock)

	for i := 0; i < 3; i++ {
		if !th.Observe(motion.Occupied) {
			t.Errorf("Observe(Occupied) %d should fire with no cooldown", i)
		}
	}
}

func TestPhase_String(t *testing.T) {
	if Idle.String() != "idle" || Cooling.String() != "cooling" {
		t.Errorf("unexpected phase names %q, %q", Idle, Cooling)
	}
}
