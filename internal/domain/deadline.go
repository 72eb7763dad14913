package domain

import "time"

// Elapsed returns the time since start, clamped at zero for skewed clocks.
func Elapsed(start, now time.Time) time.Duration {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

// Remaining returns max(0, window - elapsed).
func Remaining(start time.Time, window time.Duration, now time.Time) time.Duration {
	left := window - Elapsed(start, now)
	if left < 0 {
		return 0
	}
	return left
}

// RemainingSeconds is the whole-second countdown shown to clients: max(0, window - floor(elapsed)).
func RemainingSeconds(start time.Time, window time.Duration, now time.Time) int {
	left := int(window/time.Second) - int(Elapsed(start, now)/time.Second)
	if left < 0 {
		return 0
	}
	return left
}

// DeadlineExpired reports whether now is strictly past start + window.
func DeadlineExpired(start time.Time, window time.Duration, now time.Time) bool {
	return Elapsed(start, now) > window
}
