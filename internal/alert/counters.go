package alert

import "sync/atomic"

// Counters tracks run-wide totals. The caller creates it and injects it wherever it
// is updated; readers such as the status server only load the values.
type Counters struct {
	Frames    atomic.Int64
	Fired     atomic.Int64
	Delivered atomic.Int64
	Failed    atomic.Int64
}

// CounterSnapshot is a point-in-time copy of Counters.
type CounterSnapshot struct {
	Frames    int64 `json:"frames"`
	Fired     int64 `json:"fired"`
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
}

// Snapshot copies the current values.
func (c *Counters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		Frames:    c.Frames.Load(),
		Fired:     c.Fired.Load(),
		Delivered: c.Delivered.Load(),
		Failed:    c.Failed.Load(),
	}
}
