package memory

import (
	"context"
	"sort"
	"sync"

	"live-trivia-service/internal/domain"
)

// AnswerLedger is an in-memory implementation of app.AnswerLedger. Recording an answer and crediting the
// player's score happen under the ledger lock.
type AnswerLedger struct {
	players *PlayerStore

	mu         sync.RWMutex
	answers    map[string]domain.Answer
	byQuestion map[string][]string
	byPlayer   map[string][]string
	stats      map[string]domain.QuestionStatistics
}

func NewAnswerLedger(players *PlayerStore) *AnswerLedger {
	return &AnswerLedger{
		players:    players,
		answers:    make(map[string]domain.Answer),
		byQuestion: make(map[string][]string),
		byPlayer:   make(map[string][]string),
		stats:      make(map[string]domain.QuestionStatistics),
	}
}

func (l *AnswerLedger) Record(_ context.Context, answer domain.Answer) error {
	answer.ID = domain.AnswerID(answer.SessionID, answer.PlayerID, answer.QuestionID)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.answers[answer.ID]; exists {
		return domain.ErrAlreadyAnswered
	}
	if err := l.players.credit(answer.PlayerID, answer.PointsEarned); err != nil {
		return err
	}

	l.answers[answer.ID] = answer
	qk := indexKey(answer.SessionID, answer.QuestionID)
	pk := indexKey(answer.SessionID, answer.PlayerID)
	l.byQuestion[qk] = append(l.byQuestion[qk], answer.ID)
	l.byPlayer[pk] = append(l.byPlayer[pk], answer.ID)

	stats := l.stats[answer.QuestionID]
	stats.QuestionID = answer.QuestionID
	l.stats[answer.QuestionID] = stats.Record(answer.IsCorrect, answer.TimeSpent)
	return nil
}

func (l *AnswerLedger) GetAnswer(_ context.Context, sessionID, playerID, questionID string) (domain.Answer, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	answer, ok := l.answers[domain.AnswerID(sessionID, playerID, questionID)]
	return answer, ok, nil
}

func (l *AnswerLedger) ListByQuestion(_ context.Context, sessionID, questionID string) ([]domain.Answer, error) {
	return l.list(l.byQuestion, indexKey(sessionID, questionID)), nil
}

func (l *AnswerLedger) ListByPlayer(_ context.Context, sessionID, playerID string) ([]domain.Answer, error) {
	return l.list(l.byPlayer, indexKey(sessionID, playerID)), nil
}

func (l *AnswerLedger) Statistics(_ context.Context, questionID string) (domain.QuestionStatistics, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	stats, ok := l.stats[questionID]
	return stats, ok, nil
}

func (l *AnswerLedger) list(index map[string][]string, key string) []domain.Answer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := index[key]
	out := make([]domain.Answer, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.answers[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func indexKey(sessionID, id string) string {
	return sessionID + "\x00" + id
}
