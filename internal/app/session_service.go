package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"live-trivia-service/internal/domain"
	"live-trivia-service/internal/realtime"
)

// SessionService drives the session lifecycle on behalf of the quizmaster.
type SessionService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	broker   realtime.Broker
	codes    *JoinCodeAllocator
	opts     options
}

func NewSessionService(sessions SessionRepository, quizzes QuizRepository, broker realtime.Broker, opts ...Option) *SessionService {
	o := buildOptions(opts)
	return &SessionService{
		sessions: sessions,
		quizzes:  quizzes,
		broker:   broker,
		codes:    NewJoinCodeAllocator(sessions, o.joinCodeAttempts),
		opts:     o,
	}
}

// Clock exposes the service clock so transports compute countdowns on the same time base.
func (s *SessionService) Clock() clockwork.Clock {
	return s.opts.clock
}

// CreateSession allocates a join code and stores a waiting session pointing at the quiz's first question.
func (s *SessionService) CreateSession(ctx context.Context, quizID string, timerDuration int, autoClose bool) (domain.Session, error) {
	if timerDuration <= 0 || (s.opts.maxTimerSeconds > 0 && timerDuration > s.opts.maxTimerSeconds) {
		return domain.Session{}, domain.ErrInvalidTimerDuration
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Session{}, err
	}
	if _, _, ok := quiz.QuestionAt(0, 0); !ok {
		return domain.Session{}, domain.ErrEmptyQuiz
	}

	id := s.opts.newID()
	code, err := s.codes.Allocate(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{
		ID:                  id,
		QuizID:              quiz.ID,
		Status:              domain.StatusWaiting,
		JoinCode:            code,
		TimerDuration:       timerDuration,
		AutoCloseOnTimerEnd: autoClose,
		CreatedAt:           s.opts.clock.Now(),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		if relErr := s.sessions.ReleaseJoinCode(ctx, code, id); relErr != nil {
			log.Warn().Err(relErr).Str("join_code", code).Msg("release join code after failed create")
		}
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}

	log.Info().Str("session_id", id).Str("quiz_id", quiz.ID).Str("join_code", code).Msg("session created")
	return session, nil
}

func (s *SessionService) GetSession(ctx context.Context, sessionID string) (domain.Session, bool, error) {
	return s.sessions.GetSession(ctx, sessionID)
}

// FindLiveSession resolves a join code to a waiting or active session.
func (s *SessionService) FindLiveSession(ctx context.Context, joinCode string) (domain.Session, bool, error) {
	if !domain.ValidJoinCode(joinCode) {
		return domain.Session{}, false, domain.ErrInvalidJoinCode
	}
	return s.sessions.FindLiveSession(ctx, joinCode)
}

// CurrentQuestion resolves the question the session currently points at.
func (s *SessionService) CurrentQuestion(ctx context.Context, session domain.Session) (domain.Round, domain.Question, error) {
	return currentQuestion(ctx, s.quizzes, session)
}

func (s *SessionService) Start(ctx context.Context, sessionID string) (domain.Session, error) {
	return s.transition(ctx, sessionID, "start", func(sess *domain.Session) error {
		return sess.Start(s.opts.clock.Now())
	})
}

func (s *SessionService) OpenQuestion(ctx context.Context, sessionID string) (domain.Session, error) {
	return s.transition(ctx, sessionID, "open_question", func(sess *domain.Session) error {
		return sess.OpenQuestion(s.opts.clock.Now())
	})
}

// CloseQuestion is idempotent, so racing auto-close observers are harmless.
func (s *SessionService) CloseQuestion(ctx context.Context, sessionID string) (domain.Session, error) {
	return s.transition(ctx, sessionID, "close_question", func(sess *domain.Session) error {
		return sess.CloseQuestion()
	})
}

func (s *SessionService) Advance(ctx context.Context, sessionID string) (domain.Session, error) {
	current, found, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if !found {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	quiz, err := s.quizzes.GetQuiz(ctx, current.QuizID)
	if err != nil {
		return domain.Session{}, err
	}
	return s.transition(ctx, sessionID, "advance", func(sess *domain.Session) error {
		return sess.Advance(quiz, s.opts.clock.Now())
	})
}

func (s *SessionService) End(ctx context.Context, sessionID string) (domain.Session, error) {
	return s.transition(ctx, sessionID, "end", func(sess *domain.Session) error {
		return sess.End(s.opts.clock.Now())
	})
}

func (s *SessionService) transition(ctx context.Context, sessionID, action string, mutate func(*domain.Session) error) (domain.Session, error) {
	updated, err := s.sessions.UpdateSession(ctx, sessionID, mutate)
	if err != nil {
		log.Debug().Err(err).Str("session_id", sessionID).Str("action", action).Msg("transition rejected")
		return domain.Session{}, err
	}
	publish(ctx, s.broker, realtime.SessionTopic(sessionID))
	log.Info().
		Str("session_id", sessionID).
		Str("action", action).
		Str("status", string(updated.Status)).
		Int("round", updated.CurrentRound).
		Int("question", updated.CurrentQuestion).
		Msg("session transition")
	return updated, nil
}

// SubscribeToSession streams session snapshots; nil is delivered while the session does not exist.
func (s *SessionService) SubscribeToSession(ctx context.Context, sessionID string) (<-chan *domain.Session, func()) {
	return realtime.Watch(ctx, s.broker, realtime.SessionTopic(sessionID), func(ctx context.Context) (*domain.Session, error) {
		session, found, err := s.sessions.GetSession(ctx, sessionID)
		if err != nil || !found {
			return nil, err
		}
		return &session, nil
	})
}

// WatchDeadline is the quizmaster-side auto-close loop. It re-evaluates the latest snapshot on every tick and
// issues CloseQuestion once the countdown of an auto-closing question reaches zero. It returns when ctx is
// done or the session has ended.
func (s *SessionService) WatchDeadline(ctx context.Context, sessionID string) error {
	snapshots, stop := s.SubscribeToSession(ctx, sessionID)
	defer stop()

	var current *domain.Session
	select {
	case <-ctx.Done():
		return ctx.Err()
	case current = <-snapshots:
	}

	ticker := s.opts.clock.NewTicker(s.opts.tickInterval)
	defer ticker.Stop()

	for {
		if current != nil && current.Status == domain.StatusEnded {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-snapshots:
			if !ok {
				return ctx.Err()
			}
			current = snap
		case <-ticker.Chan():
			if current == nil || !current.ShouldAutoClose(s.opts.clock.Now()) {
				continue
			}
			closed, err := s.CloseQuestion(ctx, sessionID)
			if err != nil {
				if !errors.Is(err, domain.ErrSessionEnded) {
					log.Warn().Err(err).Str("session_id", sessionID).Msg("auto-close failed")
				}
				continue
			}
			log.Info().Str("session_id", sessionID).Msg("question auto-closed")
			current = &closed
		}
	}
}

func currentQuestion(ctx context.Context, quizzes QuizRepository, session domain.Session) (domain.Round, domain.Question, error) {
	quiz, err := quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return domain.Round{}, domain.Question{}, err
	}
	round, question, ok := quiz.QuestionAt(session.CurrentRound, session.CurrentQuestion)
	if !ok {
		return domain.Round{}, domain.Question{}, domain.ErrQuestionNotFound
	}
	return round, question, nil
}

func publish(ctx context.Context, broker realtime.Broker, topic string) {
	if err := broker.Publish(ctx, topic); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("publish change notification")
	}
}
