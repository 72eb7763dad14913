// Package realtime fans entity changes out to observers as snapshot streams.
//
// Writers publish a payload-free signal on the entity's topic after every committed write; each watcher
// re-reads the entity and delivers the full snapshot. Snapshots for one topic arrive in write order, rapid
// writes may coalesce, and nothing is ordered across topics.
package realtime

import (
	"context"
	"sync"
)

// Broker carries change signals for topics.
type Broker interface {
	Publish(ctx context.Context, topic string) error
	// Subscribe returns a signal channel and a cancel func. The channel is closed on cancel.
	Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error)
}

// SessionTopic is signalled on every session transition.
func SessionTopic(sessionID string) string {
	return "session:" + sessionID
}

// PlayersTopic is signalled when the roster or a score changes.
func PlayersTopic(sessionID string) string {
	return "players:" + sessionID
}

// AnswersTopic is signalled when an answer to the question is recorded.
func AnswersTopic(sessionID, questionID string) string {
	return "answers:" + sessionID + ":" + questionID
}

// MemoryBroker is an in-process Broker for single-instance deployments and tests.
type MemoryBroker struct {
	mu   sync.RWMutex
	subs map[string]map[chan struct{}]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[chan struct{}]struct{})}
}

func (b *MemoryBroker) Publish(_ context.Context, topic string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[topic] {
		signal(ch)
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[chan struct{}]struct{})
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[topic], ch)
			if len(b.subs[topic]) == 0 {
				delete(b.subs, topic)
			}
			close(ch)
			b.mu.Unlock()
		})
	}
	context.AfterFunc(ctx, cancel)
	return ch, cancel, nil
}

// Subscribers reports how many watchers a topic has.
func (b *MemoryBroker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// signal performs a non-blocking send; a pending signal already covers this one.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
