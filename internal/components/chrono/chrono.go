package chrono

import (
	"time"
	_ "time/tzdata"
)

// API is the interface that anything depending on the system clock should use.
//
// note: fault injection point
type API interface {
	// Now returns the current time in Location().
	Now() time.Time
	Location() *time.Location
}

// SleepAPI blocks the calling goroutine, it exists so that tests never really sleep.
type SleepAPI interface {
	Sleep(d time.Duration)
}

// StandardImpl is the standard implementation of API and SleepAPI using the standard library.
type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl returns a clock in Europe/London, the timezone the site publishes in.
func NewStandardImpl() (StandardImpl, error) {
	location, err := time.LoadLocation("Europe/London")
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.Location())
}

func (s StandardImpl) Location() *time.Location {
	if s.location == nil {
		return time.UTC
	}
	return s.location
}

func (StandardImpl) Sleep(d time.Duration) {
	time.Sleep(d)
}
