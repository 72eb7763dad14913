package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"live-trivia-service/internal/domain"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)
	store := NewSessionStore(client, time.Hour)

	ok, err := store.ReserveJoinCode(ctx, "4321", "s1")
	if err != nil || !ok {
		t.Fatalf("reserve: ok=%v err=%v", ok, err)
	}
	if ok, _ := store.ReserveJoinCode(ctx, "4321", "s2"); ok {
		t.Fatalf("expected code to stay with s1")
	}
	if err := store.CreateSession(ctx, domain.Session{ID: "s1", JoinCode: "4321", Status: domain.StatusWaiting, TimerDuration: 30}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("trivia:session:s1") || !mr.Exists("trivia:joincode:4321") {
		t.Fatalf("expected redis keys to be set")
	}
	if err := store.CreateSession(ctx, domain.Session{ID: "s1"}); err == nil {
		t.Fatalf("expected duplicate create to fail")
	}

	live, found, err := store.FindLiveSession(ctx, "4321")
	if err != nil || !found || live.ID != "s1" {
		t.Fatalf("find live: %+v found=%v err=%v", live, found, err)
	}

	now := time.Now()
	started, err := store.UpdateSession(ctx, "s1", func(s *domain.Session) error { return s.Start(now) })
	if err != nil || started.Status != domain.StatusActive {
		t.Fatalf("start: %+v %v", started, err)
	}
	got, _, _ := store.GetSession(ctx, "s1")
	if got.Status != domain.StatusActive || got.StartedAt == nil {
		t.Fatalf("expected persisted start, got %+v", got)
	}

	if _, err := store.UpdateSession(ctx, "s1", func(s *domain.Session) error { return s.End(now) }); err != nil {
		t.Fatalf("end: %v", err)
	}
	if mr.Exists("trivia:joincode:4321") {
		t.Fatalf("expected join code released on end")
	}
	if _, found, _ := store.FindLiveSession(ctx, "4321"); found {
		t.Fatalf("ended session must not resolve by code")
	}
}

func TestSessionStoreReleaseOnlyOwnCode(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)
	store := NewSessionStore(client, time.Hour)

	_, _ = store.ReserveJoinCode(ctx, "1111", "s1")
	if err := store.ReleaseJoinCode(ctx, "1111", "s2"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if !mr.Exists("trivia:joincode:1111") {
		t.Fatalf("foreign release must not delete the code")
	}
	if err := store.ReleaseJoinCode(ctx, "1111", "s1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("trivia:joincode:1111") {
		t.Fatalf("expected code deleted by its owner")
	}
}

func TestSessionStoreUpdateErrors(t *testing.T) {
	ctx := context.Background()
	_, client := newMiniredis(t)
	store := NewSessionStore(client, time.Hour)

	if _, err := store.UpdateSession(ctx, "missing", func(*domain.Session) error { return nil }); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	_ = store.CreateSession(ctx, domain.Session{ID: "s1", Status: domain.StatusWaiting})
	if _, err := store.UpdateSession(ctx, "s1", func(s *domain.Session) error { return s.CloseQuestion() }); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSessionStoreOptimisticUpdates(t *testing.T) {
	ctx := context.Background()
	_, client := newMiniredis(t)
	store := NewSessionStore(client, time.Hour)
	_ = store.CreateSession(ctx, domain.Session{ID: "s1"})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.UpdateSession(ctx, "s1", func(s *domain.Session) error {
				s.CurrentQuestion++
				return nil
			})
			switch {
			case err == nil:
				mu.Lock()
				succeeded++
				mu.Unlock()
			case !errors.Is(err, domain.ErrConflict):
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _, _ := store.GetSession(ctx, "s1")
	if got.CurrentQuestion != succeeded {
		t.Fatalf("expected no lost updates: counter=%d succeeded=%d", got.CurrentQuestion, succeeded)
	}
}
