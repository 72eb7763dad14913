package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"live-trivia-service/internal/domain"
	"live-trivia-service/internal/realtime"
)

// PlayerService covers the player-facing operations: joining, answering and reading results.
type PlayerService struct {
	sessions SessionRepository
	players  PlayerRepository
	ledger   AnswerLedger
	quizzes  QuizRepository
	broker   realtime.Broker
	opts     options
}

func NewPlayerService(sessions SessionRepository, players PlayerRepository, ledger AnswerLedger, quizzes QuizRepository, broker realtime.Broker, opts ...Option) *PlayerService {
	return &PlayerService{
		sessions: sessions,
		players:  players,
		ledger:   ledger,
		quizzes:  quizzes,
		broker:   broker,
		opts:     buildOptions(opts),
	}
}

// JoinByCode adds a player with score 0 to the live session holding code.
func (s *PlayerService) JoinByCode(ctx context.Context, code, name string) (domain.Player, error) {
	if !domain.ValidJoinCode(code) {
		return domain.Player{}, domain.ErrInvalidJoinCode
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Player{}, domain.ErrEmptyName
	}

	session, found, err := s.sessions.FindLiveSession(ctx, code)
	if err != nil {
		return domain.Player{}, err
	}
	if !found {
		return domain.Player{}, domain.ErrNoLiveSession
	}

	player := domain.Player{
		ID:        s.opts.newID(),
		SessionID: session.ID,
		Name:      name,
		JoinedAt:  s.opts.clock.Now(),
	}
	if err := s.players.CreatePlayer(ctx, player); err != nil {
		return domain.Player{}, fmt.Errorf("create player: %w", err)
	}
	publish(ctx, s.broker, realtime.PlayersTopic(session.ID))

	log.Info().Str("session_id", session.ID).Str("player_id", player.ID).Str("name", name).Msg("player joined")
	return player, nil
}

// GetPlayer returns a player only if it belongs to sessionID.
func (s *PlayerService) GetPlayer(ctx context.Context, sessionID, playerID string) (domain.Player, bool, error) {
	player, found, err := s.players.GetPlayer(ctx, playerID)
	if err != nil || !found || player.SessionID != sessionID {
		return domain.Player{}, false, err
	}
	return player, true, nil
}

// SubmitAnswer records a player's answer to the current question. Preconditions are checked in order:
// membership, question open, not yet answered, option in range. The timestamp is taken once, on receipt.
func (s *PlayerService) SubmitAnswer(ctx context.Context, sessionID, playerID, questionID string, answerIndex int) (domain.Answer, error) {
	now := s.opts.clock.Now()

	session, found, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Answer{}, err
	}
	if !found {
		return domain.Answer{}, domain.ErrSessionNotFound
	}
	player, found, err := s.GetPlayer(ctx, sessionID, playerID)
	if err != nil {
		return domain.Answer{}, err
	}
	if !found {
		return domain.Answer{}, domain.ErrPlayerNotFound
	}

	if !session.AcceptsAnswers(now) {
		return domain.Answer{}, domain.ErrQuestionClosed
	}
	round, question, err := currentQuestion(ctx, s.quizzes, session)
	if err != nil {
		return domain.Answer{}, err
	}
	if question.ID != questionID {
		return domain.Answer{}, domain.ErrQuestionClosed
	}

	if _, answered, err := s.ledger.GetAnswer(ctx, sessionID, playerID, questionID); err != nil {
		return domain.Answer{}, err
	} else if answered {
		return domain.Answer{}, domain.ErrAlreadyAnswered
	}

	if !question.ValidOption(answerIndex) {
		return domain.Answer{}, domain.ErrAnswerOutOfRange
	}

	correct := answerIndex == question.CorrectIndex
	timeSpent, points := domain.ScoreAnswer(correct, domain.Elapsed(*session.QuestionStartTime, now), session.Window())
	answer := domain.Answer{
		ID:           domain.AnswerID(sessionID, playerID, questionID),
		SessionID:    sessionID,
		PlayerID:     playerID,
		PlayerName:   player.Name,
		QuestionID:   questionID,
		RoundID:      round.ID,
		AnswerIndex:  answerIndex,
		IsCorrect:    correct,
		Timestamp:    now,
		TimeSpent:    timeSpent,
		PointsEarned: points,
	}
	if err := s.ledger.Record(ctx, answer); err != nil {
		if !errors.Is(err, domain.ErrAlreadyAnswered) {
			err = fmt.Errorf("record answer: %w", err)
		}
		return domain.Answer{}, err
	}

	publish(ctx, s.broker, realtime.AnswersTopic(sessionID, questionID))
	publish(ctx, s.broker, realtime.PlayersTopic(sessionID))

	log.Info().
		Str("session_id", sessionID).
		Str("player_id", playerID).
		Str("question_id", questionID).
		Bool("correct", correct).
		Int("time_spent", timeSpent).
		Int("points", points).
		Msg("answer recorded")
	return answer, nil
}

// GetOwnAnswer lets a reconnecting player see what they already submitted for a question.
func (s *PlayerService) GetOwnAnswer(ctx context.Context, sessionID, playerID, questionID string) (domain.Answer, bool, error) {
	return s.ledger.GetAnswer(ctx, sessionID, playerID, questionID)
}

func (s *PlayerService) GetAnswersByPlayer(ctx context.Context, sessionID, playerID string) ([]domain.Answer, error) {
	return s.ledger.ListByPlayer(ctx, sessionID, playerID)
}

func (s *PlayerService) QuestionStatistics(ctx context.Context, questionID string) (domain.QuestionStatistics, bool, error) {
	return s.ledger.Statistics(ctx, questionID)
}

// AnswerSummary tallies the answers recorded for one question of a session.
func (s *PlayerService) AnswerSummary(ctx context.Context, sessionID, questionID string) (domain.AnswerSummary, error) {
	answers, err := s.ledger.ListByQuestion(ctx, sessionID, questionID)
	if err != nil {
		return domain.AnswerSummary{}, err
	}
	return domain.Summarize(questionID, answers), nil
}

// Results builds the ranked per-player statistics of a session.
func (s *PlayerService) Results(ctx context.Context, sessionID string) ([]domain.PlayerStatistics, error) {
	players, err := s.players.ListPlayers(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	answers := make(map[string][]domain.Answer, len(players))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, p := range players {
		playerID := p.ID
		g.Go(func() error {
			list, err := s.ledger.ListByPlayer(gctx, sessionID, playerID)
			if err != nil {
				return fmt.Errorf("answers of player %s: %w", playerID, err)
			}
			mu.Lock()
			answers[playerID] = list
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return domain.BuildResults(players, answers), nil
}

// SubscribeToPlayers streams the roster in join order.
func (s *PlayerService) SubscribeToPlayers(ctx context.Context, sessionID string) (<-chan []domain.Player, func()) {
	return realtime.Watch(ctx, s.broker, realtime.PlayersTopic(sessionID), func(ctx context.Context) ([]domain.Player, error) {
		return s.players.ListPlayers(ctx, sessionID)
	})
}

// SubscribeToAnswers streams every answer recorded for one question of a session.
func (s *PlayerService) SubscribeToAnswers(ctx context.Context, sessionID, questionID string) (<-chan []domain.Answer, func()) {
	return realtime.Watch(ctx, s.broker, realtime.AnswersTopic(sessionID, questionID), func(ctx context.Context) ([]domain.Answer, error) {
		return s.ledger.ListByQuestion(ctx, sessionID, questionID)
	})
}
