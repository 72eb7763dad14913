package redis

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Broker carries change notifications over Redis Pub/Sub so that every instance sharing the Redis sees the
// writes of every other instance. Messages carry no payload; subscribers re-read their snapshot.
type Broker struct {
	client *redis.Client
}

func NewBroker(client *redis.Client) *Broker {
	return &Broker{client: client}
}

func (b *Broker) Publish(ctx context.Context, topic string) error {
	return b.client.Publish(ctx, eventChannel(topic), "1").Err()
}

// Subscribe returns once Redis has confirmed the subscription, so no later publish is missed.
func (b *Broker) Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error) {
	pubsub := b.client.Subscribe(ctx, eventChannel(topic))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(out)
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			_ = pubsub.Close()
			<-done
		})
	}
	return out, stop, nil
}
