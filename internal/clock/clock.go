// Package clock ships the real-time core.Clock implementation used
// outside of tests: a thin wrapper over time.Now's monotonic reading.
package clock

import "time"

// Monotonic reads nanoseconds off time.Now's monotonic clock reading.
// Now never fails; ok is always true.
type Monotonic struct {
	epoch time.Time
}

// New returns a Monotonic clock anchored to the call time.
func New() *Monotonic {
	return &Monotonic{epoch: time.Now()}
}

// Now implements core.Clock.
func (m *Monotonic) Now() (int64, bool) {
	return int64(time.Since(m.epoch)), true
}
