package ports

import "time"

// Clock supplies the current instant. Every time-based rule takes its "now"
// from a Clock so tests can pin it.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the wall clock, in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
