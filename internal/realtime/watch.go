package realtime

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Loader reads the current snapshot of a watched entity.
type Loader[T any] func(ctx context.Context) (T, error)

// Watch streams snapshots of the entity behind topic until stop is called or ctx ends.
//
// The first snapshot is delivered right away. A consumer that falls behind only ever finds the newest snapshot
// waiting. Failed reads are logged and skipped so the consumer keeps its last snapshot; if the very first read
// fails it receives the zero value. If the broker cannot subscribe, the stream delivers the initial snapshot
// and then stays quiet.
func Watch[T any](ctx context.Context, broker Broker, topic string, load Loader[T]) (<-chan T, func()) {
	ctx, cancel := context.WithCancel(ctx)

	signals, unsubscribe, err := broker.Subscribe(ctx, topic)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("subscribe failed, serving last-known snapshot")
		signals, unsubscribe = nil, func() {}
	}

	out := make(chan T, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(out)
		defer unsubscribe()

		var last T
		if snap, err := load(ctx); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("initial snapshot failed")
		} else {
			last = snap
		}
		offer(out, last)

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				snap, err := load(ctx)
				if err != nil {
					if ctx.Err() == nil {
						log.Warn().Err(err).Str("topic", topic).Msg("snapshot reload failed")
					}
					continue
				}
				last = snap
				offer(out, last)
			}
		}
	}()

	stop := func() {
		cancel()
		<-done
	}
	return out, stop
}

// offer replaces any undelivered snapshot with v. Only the watch goroutine sends on ch.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
