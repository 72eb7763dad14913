package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"live-trivia-service/internal/domain"
)

func TestAnswerLedgerRecordsOnce(t *testing.T) {
	ctx := context.Background()
	players := NewPlayerStore()
	ledger := NewAnswerLedger(players)
	_ = players.CreatePlayer(ctx, domain.Player{ID: "p1", SessionID: "s1", Name: "Alice"})

	answer := domain.Answer{SessionID: "s1", PlayerID: "p1", QuestionID: "q1", IsCorrect: true, TimeSpent: 5, PointsEarned: 950}

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.Record(ctx, answer)
			switch {
			case err == nil:
				accepted.Add(1)
			case !errors.Is(err, domain.ErrAlreadyAnswered):
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted.Load() != 1 {
		t.Fatalf("expected exactly one accepted answer, got %d", accepted.Load())
	}
	player, _, _ := players.GetPlayer(ctx, "p1")
	if player.TotalScore != 950 {
		t.Fatalf("expected score 950, got %d", player.TotalScore)
	}
	stats, found, _ := ledger.Statistics(ctx, "q1")
	if !found || stats.TimesAsked != 1 || stats.CorrectAnswers != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	got, found, _ := ledger.GetAnswer(ctx, "s1", "p1", "q1")
	if !found || got.ID != "s1:p1:q1" {
		t.Fatalf("expected stored answer with composite id, got %+v", got)
	}
}

func TestAnswerLedgerIndexes(t *testing.T) {
	ctx := context.Background()
	players := NewPlayerStore()
	ledger := NewAnswerLedger(players)
	_ = players.CreatePlayer(ctx, domain.Player{ID: "p1", SessionID: "s1", Name: "Alice"})
	_ = players.CreatePlayer(ctx, domain.Player{ID: "p2", SessionID: "s1", Name: "Bob"})

	t0 := time.Unix(1700000000, 0)
	records := []domain.Answer{
		{SessionID: "s1", PlayerID: "p2", QuestionID: "q1", TimeSpent: 12, Timestamp: t0.Add(12 * time.Second)},
		{SessionID: "s1", PlayerID: "p1", QuestionID: "q1", IsCorrect: true, TimeSpent: 5, PointsEarned: 950, Timestamp: t0.Add(5 * time.Second)},
		{SessionID: "s1", PlayerID: "p1", QuestionID: "q2", IsCorrect: true, TimeSpent: 2, PointsEarned: 980, Timestamp: t0.Add(40 * time.Second)},
	}
	for _, a := range records {
		if err := ledger.Record(ctx, a); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	q1, _ := ledger.ListByQuestion(ctx, "s1", "q1")
	if len(q1) != 2 || q1[0].PlayerID != "p1" {
		t.Fatalf("expected q1 answers ordered by timestamp, got %+v", q1)
	}
	byAlice, _ := ledger.ListByPlayer(ctx, "s1", "p1")
	if len(byAlice) != 2 {
		t.Fatalf("expected 2 answers by p1, got %d", len(byAlice))
	}
	stats, _, _ := ledger.Statistics(ctx, "q1")
	if stats.TimesAsked != 2 || stats.WrongAnswers != 1 || stats.AverageTimeSpent != 8.5 {
		t.Fatalf("unexpected q1 stats %+v", stats)
	}
	alice, _, _ := players.GetPlayer(ctx, "p1")
	if alice.TotalScore != 1930 {
		t.Fatalf("expected score to equal sum of points, got %d", alice.TotalScore)
	}
}

func TestAnswerLedgerUnknownPlayer(t *testing.T) {
	ctx := context.Background()
	ledger := NewAnswerLedger(NewPlayerStore())
	err := ledger.Record(ctx, domain.Answer{SessionID: "s1", PlayerID: "ghost", QuestionID: "q1"})
	if !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
	if _, found, _ := ledger.GetAnswer(ctx, "s1", "ghost", "q1"); found {
		t.Fatalf("failed record must not be stored")
	}
}
