package memory

import (
	"context"

	"live-trivia-service/internal/domain"
)

// StaticContent serves quiz content from an in-memory map (useful for tests/demos).
type StaticContent struct {
	quizzes map[string]domain.Quiz
}

func NewStaticContent(quizzes ...domain.Quiz) *StaticContent {
	c := &StaticContent{quizzes: make(map[string]domain.Quiz, len(quizzes))}
	for _, q := range quizzes {
		c.quizzes[q.ID] = q
	}
	return c
}

// GetQuiz returns the quiz header without its rounds.
func (c *StaticContent) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	quiz, ok := c.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return domain.Quiz{ID: quiz.ID, Name: quiz.Name}, nil
}

func (c *StaticContent) GetRounds(_ context.Context, quizID string) ([]domain.Round, error) {
	quiz, ok := c.quizzes[quizID]
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	rounds := make([]domain.Round, len(quiz.Rounds))
	for i, r := range quiz.Rounds {
		r.Questions = nil
		rounds[i] = r
	}
	return rounds, nil
}

func (c *StaticContent) GetQuestions(_ context.Context, quizID, roundID string) ([]domain.Question, error) {
	quiz, ok := c.quizzes[quizID]
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	for _, r := range quiz.Rounds {
		if r.ID == roundID {
			return append([]domain.Question(nil), r.Questions...), nil
		}
	}
	return nil, nil
}

// DemoQuiz is a two-round quiz seeded when no content database is configured.
func DemoQuiz() domain.Quiz {
	q := func(id, round, text string, correct, order int, answers ...string) domain.Question {
		return domain.Question{ID: id, QuizID: "demo", RoundID: round, Text: text, Answers: answers, CorrectIndex: correct, Order: order}
	}
	return domain.Quiz{
		ID:   "demo",
		Name: "Demo quiz",
		Rounds: []domain.Round{
			{
				ID: "demo-r1", QuizID: "demo", Name: "Warm-up", Order: 0,
				Questions: []domain.Question{
					q("demo-q1", "demo-r1", "What is 2 + 2?", 1, 0, "3", "4", "5", "22"),
					q("demo-q2", "demo-r1", "Which planet is known as the red planet?", 2, 1, "Venus", "Jupiter", "Mars", "Saturn"),
				},
			},
			{
				ID: "demo-r2", QuizID: "demo", Name: "Go", Order: 1,
				Questions: []domain.Question{
					q("demo-q3", "demo-r2", "Which keyword starts a goroutine?", 0, 0, "go", "async", "spawn", "thread"),
				},
			},
		},
	}
}
