package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	defaultMaxTimerSeconds  = 300
	defaultJoinCodeAttempts = 10
	defaultTickInterval     = 100 * time.Millisecond
)

type options struct {
	clock            clockwork.Clock
	maxTimerSeconds  int
	joinCodeAttempts int
	tickInterval     time.Duration
	newID            func() string
}

// Option tunes a service.
type Option func(*options)

// WithClock swaps the real clock, e.g. for a clockwork.FakeClock in tests.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithMaxTimerSeconds bounds the per-question timer accepted by CreateSession.
func WithMaxTimerSeconds(n int) Option {
	return func(o *options) { o.maxTimerSeconds = n }
}

// WithJoinCodeAttempts bounds join-code collision retries.
func WithJoinCodeAttempts(n int) Option {
	return func(o *options) { o.joinCodeAttempts = n }
}

// WithTickInterval sets the deadline watcher's polling interval.
func WithTickInterval(d time.Duration) Option {
	return func(o *options) { o.tickInterval = d }
}

func buildOptions(opts []Option) options {
	o := options{
		clock:            clockwork.NewRealClock(),
		maxTimerSeconds:  defaultMaxTimerSeconds,
		joinCodeAttempts: defaultJoinCodeAttempts,
		tickInterval:     defaultTickInterval,
		newID:            uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
