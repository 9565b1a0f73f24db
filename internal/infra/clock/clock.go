// Package clock provides the wall clock used by the enrollment services.
package clock

import (
	"time"

	"enrollment/internal/domain/service"
)

type systemClock struct{}

// New returns a clock reading the system time in UTC.
func New() service.Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a clock frozen at a single instant, for tests and replays.
type Fixed struct {
	At time.Time
}

func (f *Fixed) Now() time.Time {
	return f.At
}

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.At = f.At.Add(d)
}
