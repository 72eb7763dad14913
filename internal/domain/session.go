package domain

import (
	"fmt"
	"time"
)

// QuestionPhase is the sub-state of the current question while a session is active.
type QuestionPhase string

const (
	PhaseIdle   QuestionPhase = "idle"
	PhaseOpen   QuestionPhase = "open"
	PhaseClosed QuestionPhase = "closed"
)

// Window returns the per-question answer window.
func (s Session) Window() time.Duration {
	return time.Duration(s.TimerDuration) * time.Second
}

// Deadline returns questionStartTime + window, if a question has been opened.
func (s Session) Deadline() (time.Time, bool) {
	if s.QuestionStartTime == nil {
		return time.Time{}, false
	}
	return s.QuestionStartTime.Add(s.Window()), true
}

// Phase reports the question sub-state at now. Under auto-close an expired question counts as closed
// even before the closed flag has been written.
func (s Session) Phase(now time.Time) QuestionPhase {
	switch {
	case s.QuestionStartTime == nil:
		return PhaseIdle
	case s.IsQuestionClosed:
		return PhaseClosed
	case s.AutoCloseOnTimerEnd && DeadlineExpired(*s.QuestionStartTime, s.Window(), now):
		return PhaseClosed
	default:
		return PhaseOpen
	}
}

// AcceptsAnswers reports whether a submission at now may be recorded.
func (s Session) AcceptsAnswers(now time.Time) bool {
	return s.Status == StatusActive && s.Phase(now) == PhaseOpen
}

// RemainingSeconds is the countdown for the current question; the full timer while idle.
func (s Session) RemainingSeconds(now time.Time) int {
	if s.QuestionStartTime == nil {
		return s.TimerDuration
	}
	return RemainingSeconds(*s.QuestionStartTime, s.Window(), now)
}

// ShouldAutoClose reports whether an observer at now must issue closeQuestion.
func (s Session) ShouldAutoClose(now time.Time) bool {
	return s.Status == StatusActive &&
		s.AutoCloseOnTimerEnd &&
		s.QuestionStartTime != nil &&
		!s.IsQuestionClosed &&
		s.RemainingSeconds(now) == 0
}

func (s *Session) mutable() error {
	if s.Status == StatusEnded {
		return ErrSessionEnded
	}
	return nil
}

func (s *Session) requireActive(action string) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if s.Status != StatusActive {
		return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, action, s.Status)
	}
	return nil
}

// Start moves waiting -> active.
func (s *Session) Start(now time.Time) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if s.Status != StatusWaiting {
		return fmt.Errorf("%w: start while %s", ErrInvalidTransition, s.Status)
	}
	s.Status = StatusActive
	s.StartedAt = &now
	return nil
}

// OpenQuestion moves the current question idle -> open and records the authoritative start instant.
func (s *Session) OpenQuestion(now time.Time) error {
	if err := s.requireActive("open question"); err != nil {
		return err
	}
	if s.QuestionStartTime != nil {
		return fmt.Errorf("%w: question already opened", ErrInvalidTransition)
	}
	s.QuestionStartTime = &now
	s.IsQuestionClosed = false
	return nil
}

// CloseQuestion moves open -> closed. Closing a closed question is a no-op.
func (s *Session) CloseQuestion() error {
	if err := s.requireActive("close question"); err != nil {
		return err
	}
	if s.QuestionStartTime == nil {
		return fmt.Errorf("%w: question not opened", ErrInvalidTransition)
	}
	s.IsQuestionClosed = true
	return nil
}

// Advance moves a closed question to the next question's idle state, crossing into the next round when the
// current one is exhausted. After the last question it fails with ErrLastQuestion.
func (s *Session) Advance(quiz Quiz, now time.Time) error {
	if err := s.requireActive("advance"); err != nil {
		return err
	}
	if s.Phase(now) != PhaseClosed {
		return fmt.Errorf("%w: current question is not closed", ErrInvalidTransition)
	}
	round, question, ok := quiz.NextPosition(s.CurrentRound, s.CurrentQuestion)
	if !ok {
		return ErrLastQuestion
	}
	s.CurrentRound = round
	s.CurrentQuestion = question
	s.QuestionStartTime = nil
	s.IsQuestionClosed = false
	return nil
}

// End moves the session to its terminal phase. A waiting lobby may be ended as well.
func (s *Session) End(now time.Time) error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.Status = StatusEnded
	s.EndedAt = &now
	return nil
}
