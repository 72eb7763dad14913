package app

import (
	"context"

	"live-trivia-service/internal/domain"
)

// SessionRepository stores session documents and the live join-code index.
type SessionRepository interface {
	CreateSession(ctx context.Context, session domain.Session) error
	GetSession(ctx context.Context, sessionID string) (domain.Session, bool, error)
	// UpdateSession applies mutate to the latest stored session as one atomic write. A session that leaves the
	// live phases releases its join code in the same write.
	UpdateSession(ctx context.Context, sessionID string, mutate func(*domain.Session) error) (domain.Session, error)
	// FindLiveSession resolves a join code to a waiting or active session.
	FindLiveSession(ctx context.Context, joinCode string) (domain.Session, bool, error)
	ReserveJoinCode(ctx context.Context, joinCode, sessionID string) (bool, error)
	ReleaseJoinCode(ctx context.Context, joinCode, sessionID string) error
}

// PlayerRepository is the per-session roster.
type PlayerRepository interface {
	CreatePlayer(ctx context.Context, player domain.Player) error
	GetPlayer(ctx context.Context, playerID string) (domain.Player, bool, error)
	// ListPlayers returns the roster in join order.
	ListPlayers(ctx context.Context, sessionID string) ([]domain.Player, error)
}

// AnswerLedger is the append-only answer record keyed by (session, player, question).
type AnswerLedger interface {
	// Record stores the answer, credits the player's score and folds it into the question statistics as one
	// unit. It fails with domain.ErrAlreadyAnswered when the composite key already exists.
	Record(ctx context.Context, answer domain.Answer) error
	GetAnswer(ctx context.Context, sessionID, playerID, questionID string) (domain.Answer, bool, error)
	ListByQuestion(ctx context.Context, sessionID, questionID string) ([]domain.Answer, error)
	ListByPlayer(ctx context.Context, sessionID, playerID string) ([]domain.Answer, error)
	Statistics(ctx context.Context, questionID string) (domain.QuestionStatistics, bool, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}
