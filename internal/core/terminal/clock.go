package terminal

import "time"

// Timer is a cancellable delayed call.
type Timer interface {
	// Stop cancels the call. It reports false if the call already ran or was stopped.
	Stop() bool
}

// Clock supplies the current time and delayed calls.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock is a Clock backed by the time package.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
