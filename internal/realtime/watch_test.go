package realtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatchDeliversInitialAndUpdatedSnapshots(t *testing.T) {
	ctx := context.Background()
	broker := NewMemoryBroker()

	var version atomic.Int64
	snaps, stop := Watch(ctx, broker, "session:s1", func(context.Context) (int64, error) {
		return version.Load(), nil
	})
	defer stop()

	if got := next(t, snaps); got != 0 {
		t.Fatalf("expected initial snapshot 0, got %d", got)
	}

	version.Store(1)
	_ = broker.Publish(ctx, "session:s1")
	if got := next(t, snaps); got != 1 {
		t.Fatalf("expected snapshot 1, got %d", got)
	}
}

func TestWatchCoalescesToLatest(t *testing.T) {
	ctx := context.Background()
	broker := NewMemoryBroker()

	var version atomic.Int64
	snaps, stop := Watch(ctx, broker, "players:s1", func(context.Context) (int64, error) {
		return version.Load(), nil
	})
	defer stop()
	next(t, snaps)

	for i := int64(1); i <= 50; i++ {
		version.Store(i)
		_ = broker.Publish(ctx, "players:s1")
	}

	deadline := time.After(2 * time.Second)
	var last int64
	for last != 50 {
		select {
		case v := <-snaps:
			if v < last {
				t.Fatalf("snapshots went backwards: %d after %d", v, last)
			}
			last = v
		case <-deadline:
			t.Fatalf("latest snapshot never delivered, last=%d", last)
		}
	}
}

func TestWatchKeepsLastKnownOnReloadError(t *testing.T) {
	ctx := context.Background()
	broker := NewMemoryBroker()

	var calls atomic.Int64
	snaps, stop := Watch(ctx, broker, "answers:s1:q1", func(context.Context) ([]string, error) {
		switch calls.Add(1) {
		case 1:
			return []string{"a"}, nil
		case 2:
			return nil, errors.New("store unavailable")
		default:
			return []string{"a", "b"}, nil
		}
	})
	defer stop()

	if got := next(t, snaps); len(got) != 1 {
		t.Fatalf("expected one answer, got %v", got)
	}

	_ = broker.Publish(ctx, "answers:s1:q1") // failing reload, nothing delivered
	select {
	case got := <-snaps:
		t.Fatalf("unexpected snapshot after failed reload: %v", got)
	case <-time.After(50 * time.Millisecond):
	}

	_ = broker.Publish(ctx, "answers:s1:q1")
	if got := next(t, snaps); len(got) != 2 {
		t.Fatalf("expected two answers, got %v", got)
	}
}

func TestWatchInitialFailureYieldsZeroValue(t *testing.T) {
	snaps, stop := Watch(context.Background(), NewMemoryBroker(), "players:s1", func(context.Context) ([]string, error) {
		return nil, errors.New("boom")
	})
	defer stop()

	if got := next(t, snaps); got != nil {
		t.Fatalf("expected empty roster, got %v", got)
	}
}

func TestStopUnsubscribes(t *testing.T) {
	broker := NewMemoryBroker()
	snaps, stop := Watch(context.Background(), broker, "session:s1", func(context.Context) (int, error) {
		return 1, nil
	})
	next(t, snaps)
	if n := broker.Subscribers("session:s1"); n != 1 {
		t.Fatalf("expected 1 subscriber, got %d", n)
	}

	stop()
	if n := broker.Subscribers("session:s1"); n != 0 {
		t.Fatalf("expected subscriber removed, got %d", n)
	}
	for range snaps {
	}
}

func next[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("snapshot stream closed")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	var zero T
	return zero
}
