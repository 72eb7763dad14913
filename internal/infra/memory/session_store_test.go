package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"live-trivia-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	ok, err := store.ReserveJoinCode(ctx, "1234", "s1")
	if err != nil || !ok {
		t.Fatalf("reserve: ok=%v err=%v", ok, err)
	}
	if ok, _ := store.ReserveJoinCode(ctx, "1234", "s2"); ok {
		t.Fatalf("expected code held by live session")
	}
	if err := store.CreateSession(ctx, domain.Session{ID: "s1", JoinCode: "1234", Status: domain.StatusWaiting, TimerDuration: 30}); err != nil {
		t.Fatalf("create: %v", err)
	}

	live, found, err := store.FindLiveSession(ctx, "1234")
	if err != nil || !found || live.ID != "s1" {
		t.Fatalf("expected live session s1, got %+v found=%v err=%v", live, found, err)
	}

	now := time.Now()
	if _, err := store.UpdateSession(ctx, "s1", func(s *domain.Session) error { return s.End(now) }); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, found, _ := store.FindLiveSession(ctx, "1234"); found {
		t.Fatalf("ended session must not resolve by code")
	}
	if ok, _ := store.ReserveJoinCode(ctx, "1234", "s2"); !ok {
		t.Fatalf("expected code released after end")
	}
}

func TestSessionStoreUpdateErrors(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	if _, err := store.UpdateSession(ctx, "missing", func(*domain.Session) error { return nil }); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	_ = store.CreateSession(ctx, domain.Session{ID: "s1", Status: domain.StatusWaiting})
	if _, err := store.UpdateSession(ctx, "s1", func(s *domain.Session) error { return s.OpenQuestion(time.Now()) }); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	got, _, _ := store.GetSession(ctx, "s1")
	if got.QuestionStartTime != nil {
		t.Fatalf("rejected mutation must not be stored")
	}
}

func TestSessionStoreSerializesUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	_ = store.CreateSession(ctx, domain.Session{ID: "s1"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.UpdateSession(ctx, "s1", func(s *domain.Session) error {
				s.CurrentQuestion++
				return nil
			})
		}()
	}
	wg.Wait()

	got, _, _ := store.GetSession(ctx, "s1")
	if got.CurrentQuestion != 50 {
		t.Fatalf("expected 50 serialized updates, got %d", got.CurrentQuestion)
	}
}
