package app

import (
	"context"
	"fmt"
	"sort"

	"live-trivia-service/internal/domain"
)

// ContentSource is the read-only quiz content collaborator. GetQuiz returns the quiz header; rounds and
// questions are fetched separately, ordered by their Order field.
type ContentSource interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	GetRounds(ctx context.Context, quizID string) ([]domain.Round, error)
	GetQuestions(ctx context.Context, quizID, roundID string) ([]domain.Question, error)
}

// ContentLoader assembles a full quiz tree from a ContentSource.
type ContentLoader struct {
	src ContentSource
}

func NewContentLoader(src ContentSource) *ContentLoader {
	return &ContentLoader{src: src}
}

func (l *ContentLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := l.src.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	rounds, err := l.src.GetRounds(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load rounds: %w", err)
	}
	sort.SliceStable(rounds, func(i, j int) bool { return rounds[i].Order < rounds[j].Order })

	for i := range rounds {
		questions, err := l.src.GetQuestions(ctx, quizID, rounds[i].ID)
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("load questions for round %s: %w", rounds[i].ID, err)
		}
		sort.SliceStable(questions, func(a, b int) bool { return questions[a].Order < questions[b].Order })
		rounds[i].Questions = questions
	}
	quiz.Rounds = rounds
	return quiz, nil
}
