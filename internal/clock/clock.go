// Package clock abstracts time for the session controller so polling and
// throttling can be driven deterministically in tests.
//
// Production code injects Real(); tests inject Fake() and move time with
// Advance.
package clock

import "time"

// Clock is the subset of the time package used by the client.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f once after d elapses. Stop cancels a pending call.
	AfterFunc(d time.Duration, f func()) Timer

	// Every calls f each time interval elapses until the returned Timer
	// is stopped. Panics if interval <= 0.
	Every(interval time.Duration, f func()) Timer
}

// Timer is a handle to a scheduled one-shot or periodic callback.
type Timer interface {
	// Stop cancels future calls. It reports whether the timer was active.
	Stop() bool
}
