// Package stopwatch measures time passed since a recorded start.
package stopwatch

import "time"

// Stopwatch records a start instant and reports elapsed time on check
type Stopwatch struct {
	start time.Time
	now   func() time.Time
}

// New makes a stopped Stopwatch
func New() *Stopwatch {
	return &Stopwatch{now: time.Now}
}

// Start records the current time as start
func (w *Stopwatch) Start() {
	w.start = w.clock()
}

// Started reports whether Start was called
func (w *Stopwatch) Started() bool {
	return !w.start.IsZero()
}

// Check returns start minus now. The result is negative (or zero) for a running watch,
// callers wanting the positive elapsed time have to negate it.
// Returns zero if the watch was never started.
func (w *Stopwatch) Check() time.Duration {
	if w.start.IsZero() {
		return 0
	}
	return w.start.Sub(w.clock())
}

func (w *Stopwatch) clock() time.Time {
	if w.now == nil {
		return time.Now()
	}
	return w.now()
}
