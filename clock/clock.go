// SPDX-License-Identifier: EPL-2.0

// Package clock abstracts the timer source used for load polling and
// virtual playback so tests can drive time by hand.
package clock

import "time"

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from firing. It reports false when the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// Clock provides monotonic readings and deferred callbacks.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f on its own goroutine once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// Real returns the wall clock backed by the time package.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
