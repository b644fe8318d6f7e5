// Package action defines a schedulable block of time and the rules deriving
// its end from start and estimated duration.
package action

import (
	"errors"
	"fmt"
	"time"
)

// Action is a described unit of time with optional estimated duration, start and end.
// Zero values mean "unset" for durations and times.
type Action struct {
	Desc           string
	ActualDuration time.Duration // recorded after completion, nothing sets it yet

	estDuration time.Duration
	start       time.Time
	end         time.Time
}

// New makes an Action with the given description and nothing scheduled
func New(desc string) Action {
	return Action{Desc: desc}
}

// Start returns the time action is scheduled to take place
func (a Action) Start() time.Time {
	return a.start
}

// SetStart sets scheduled start time
func (a *Action) SetStart(t time.Time) {
	a.start = t
}

// End returns the time action is expected to end. With both start and estimated duration
// set it is always start+duration, regardless of what was stored before.
func (a Action) End() time.Time {
	if !a.start.IsZero() && a.estDuration > 0 {
		return a.start.Add(a.estDuration)
	}
	return a.end
}

// SetEnd sets the expected end. If estimated duration is set, start is moved to end-duration
// and the end itself is not stored.
func (a *Action) SetEnd(t time.Time) {
	if a.estDuration > 0 {
		a.start = t.Add(-a.estDuration)
		return
	}
	a.end = t
}

// EstDuration returns estimated duration, 0 if not set
func (a Action) EstDuration() time.Duration {
	return a.estDuration
}

// SetEstDuration changes estimated duration; with start set this moves End
func (a *Action) SetEstDuration(d time.Duration) {
	a.estDuration = d
}

// Validate checks description is present and durations are not negative
func (a Action) Validate() error {
	if a.Desc == "" {
		return errors.New("empty description")
	}
	if a.estDuration < 0 {
		return fmt.Errorf("negative estimated duration %v", a.estDuration)
	}
	if a.ActualDuration < 0 {
		return fmt.Errorf("negative actual duration %v", a.ActualDuration)
	}
	return nil
}

// String returns description
func (a Action) String() string {
	return a.Desc
}
