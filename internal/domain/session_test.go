package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoRoundQuiz() Quiz {
	return Quiz{
		ID: "quiz-1",
		Rounds: []Round{
			{ID: "r1", Questions: []Question{{ID: "q1"}, {ID: "q2"}}},
			{ID: "empty"},
			{ID: "r3", Questions: []Question{{ID: "q3"}}},
		},
	}
}

func newWaitingSession() Session {
	return Session{ID: "s1", QuizID: "quiz-1", Status: StatusWaiting, TimerDuration: 30}
}

func TestSessionLifecycle(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	quiz := twoRoundQuiz()
	s := newWaitingSession()

	require.ErrorIs(t, s.OpenQuestion(now), ErrInvalidTransition, "cannot open before start")
	require.NoError(t, s.Start(now))
	require.ErrorIs(t, s.Start(now), ErrInvalidTransition, "double start")
	assert.Equal(t, PhaseIdle, s.Phase(now))

	require.ErrorIs(t, s.CloseQuestion(), ErrInvalidTransition, "close while idle")
	require.ErrorIs(t, s.Advance(quiz, now), ErrInvalidTransition, "advance while idle")

	require.NoError(t, s.OpenQuestion(now))
	assert.Equal(t, PhaseOpen, s.Phase(now))
	require.ErrorIs(t, s.OpenQuestion(now), ErrInvalidTransition, "reopen")
	require.ErrorIs(t, s.Advance(quiz, now), ErrInvalidTransition, "advance while open")

	require.NoError(t, s.CloseQuestion())
	closedOnce := s
	require.NoError(t, s.CloseQuestion())
	assert.Equal(t, closedOnce, s, "close is idempotent")

	require.NoError(t, s.Advance(quiz, now))
	assert.Equal(t, 0, s.CurrentRound)
	assert.Equal(t, 1, s.CurrentQuestion)
	assert.Nil(t, s.QuestionStartTime)
	assert.False(t, s.IsQuestionClosed)

	require.NoError(t, s.OpenQuestion(now))
	require.NoError(t, s.CloseQuestion())
	require.NoError(t, s.Advance(quiz, now))
	assert.Equal(t, 2, s.CurrentRound, "empty round is skipped")
	assert.Equal(t, 0, s.CurrentQuestion)

	require.NoError(t, s.OpenQuestion(now))
	require.NoError(t, s.CloseQuestion())
	require.ErrorIs(t, s.Advance(quiz, now), ErrLastQuestion)
	assert.Equal(t, PhaseClosed, s.Phase(now), "stays closed awaiting end")

	require.NoError(t, s.End(now.Add(time.Minute)))
	assert.Equal(t, StatusEnded, s.Status)
	require.NotNil(t, s.EndedAt)

	require.ErrorIs(t, s.Start(now), ErrSessionEnded)
	require.ErrorIs(t, s.OpenQuestion(now), ErrSessionEnded)
	require.ErrorIs(t, s.CloseQuestion(), ErrSessionEnded)
	require.ErrorIs(t, s.Advance(quiz, now), ErrSessionEnded)
	require.ErrorIs(t, s.End(now), ErrSessionEnded)
}

func TestSessionAutoClosePhase(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newWaitingSession()
	s.AutoCloseOnTimerEnd = true
	require.NoError(t, s.Start(start))
	require.NoError(t, s.OpenQuestion(start))

	assert.True(t, s.AcceptsAnswers(start.Add(29*time.Second)))
	assert.False(t, s.ShouldAutoClose(start.Add(29*time.Second)))
	assert.True(t, s.ShouldAutoClose(start.Add(30*time.Second)))
	assert.False(t, s.AcceptsAnswers(start.Add(31*time.Second)))
	assert.Equal(t, PhaseClosed, s.Phase(start.Add(31*time.Second)))

	// An expired auto-close question can be advanced before the flag is written.
	require.NoError(t, s.Advance(twoRoundQuiz(), start.Add(31*time.Second)))

	s.AutoCloseOnTimerEnd = false
	require.NoError(t, s.OpenQuestion(start))
	assert.True(t, s.AcceptsAnswers(start.Add(time.Hour)), "without auto-close only an explicit close stops answers")
	assert.False(t, s.ShouldAutoClose(start.Add(time.Hour)))
}

func TestEndFromWaiting(t *testing.T) {
	s := newWaitingSession()
	require.NoError(t, s.End(time.Now()))
	assert.False(t, s.Status.Live())
}

func TestQuestionStatisticsRecord(t *testing.T) {
	stats := QuestionStatistics{QuestionID: "q1"}
	stats = stats.Record(true, 5)
	stats = stats.Record(false, 12)

	assert.Equal(t, 2, stats.TimesAsked)
	assert.Equal(t, 1, stats.CorrectAnswers)
	assert.Equal(t, 1, stats.WrongAnswers)
	assert.InDelta(t, 8.5, stats.AverageTimeSpent, 1e-9)
}
