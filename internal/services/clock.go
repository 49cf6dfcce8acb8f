package services

import "time"

// Clock supplies the current time. Injected everywhere expiry rules apply so
// tests can drive time deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewRealClock returns a Clock backed by the system clock
func NewRealClock() Clock {
	return realClock{}
}
