package depgraph

import "sync/atomic"

// Clock is a monotonic logical clock used to stamp node allocation
// order. Node seq numbers give the graph a deterministic total order
// that survives persistence (the store dumps nodes ORDER BY seq),
// without depending on wall-clock time.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0; the first Next() returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a specific sequence number.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
