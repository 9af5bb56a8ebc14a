// Package clock abstracts wall-clock reads so that expiry validation,
// eligibility queries and the job scheduler can be tested against a fixed
// instant.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// System returns a Clock backed by time.Now.
func System() Clock {
	return systemClock{}
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time {
	return c.at
}

// Fixed returns a Clock that always reports the given instant.
func Fixed(at time.Time) Clock {
	return fixedClock{at: at}
}
