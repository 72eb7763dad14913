package http

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"live-trivia-service/internal/app"
	"live-trivia-service/internal/domain"
)

// sessionView is the session as clients see it: the stored document plus the derived question phase,
// countdown and current question.
type sessionView struct {
	domain.Session
	Phase            domain.QuestionPhase `json:"phase"`
	RemainingSeconds int                  `json:"remainingSeconds"`
	Question         *questionView        `json:"question,omitempty"`
}

// questionView hides the correct option from players until the question is closed.
type questionView struct {
	ID           string   `json:"id"`
	RoundID      string   `json:"roundId"`
	RoundName    string   `json:"roundName"`
	Text         string   `json:"text"`
	Answers      []string `json:"answers"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
}

func newSessionView(ctx context.Context, sessions *app.SessionService, session domain.Session, now time.Time, reveal bool) sessionView {
	view := sessionView{
		Session:          session,
		Phase:            session.Phase(now),
		RemainingSeconds: session.RemainingSeconds(now),
	}
	if session.Status != domain.StatusActive {
		return view
	}

	round, question, err := sessions.CurrentQuestion(ctx, session)
	if err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("resolve current question")
		return view
	}
	qv := &questionView{
		ID:        question.ID,
		RoundID:   round.ID,
		RoundName: round.Name,
		Text:      question.Text,
		Answers:   question.Answers,
	}
	if reveal || view.Phase == domain.PhaseClosed {
		idx := question.CorrectIndex
		qv.CorrectIndex = &idx
	}
	view.Question = qv
	return view
}

func (v sessionView) questionID() string {
	if v.Question == nil {
		return ""
	}
	return v.Question.ID
}

type answersPayload struct {
	QuestionID string               `json:"questionId"`
	Answers    []domain.Answer      `json:"answers"`
	Summary    domain.AnswerSummary `json:"summary"`
}
