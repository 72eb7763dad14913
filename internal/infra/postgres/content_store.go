package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"live-trivia-service/internal/domain"
)

// ContentStore reads quiz content from the quizzes/rounds/questions tables. It implements app.ContentSource.
type ContentStore struct {
	pool *pgxpool.Pool
}

func NewContentStore(pool *pgxpool.Pool) *ContentStore {
	return &ContentStore{pool: pool}
}

func (s *ContentStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz := domain.Quiz{ID: quizID}
	err := s.pool.QueryRow(ctx, `SELECT name FROM quizzes WHERE id = $1`, quizID).Scan(&quiz.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}

func (s *ContentStore) GetRounds(ctx context.Context, quizID string) ([]domain.Round, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, ord FROM rounds WHERE quiz_id = $1 ORDER BY ord, id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load rounds: %w", err)
	}
	defer rows.Close()

	var rounds []domain.Round
	for rows.Next() {
		r := domain.Round{QuizID: quizID}
		if err := rows.Scan(&r.ID, &r.Name, &r.Order); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

func (s *ContentStore) GetQuestions(ctx context.Context, quizID, roundID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, text, answers, correct_index, ord
		FROM questions
		WHERE quiz_id = $1 AND round_id = $2
		ORDER BY ord, id`, quizID, roundID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		q := domain.Question{QuizID: quizID, RoundID: roundID}
		if err := rows.Scan(&q.ID, &q.Text, &q.Answers, &q.CorrectIndex, &q.Order); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SaveQuiz upserts a full quiz tree in one transaction. Used by the seed command and tests.
func (s *ContentStore) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	for _, r := range quiz.Rounds {
		for _, q := range r.Questions {
			if len(q.Answers) != domain.OptionsPerQuestion || !q.ValidOption(q.CorrectIndex) {
				return fmt.Errorf("question %s: need %d answers and a valid correct index", q.ID, domain.OptionsPerQuestion)
			}
		}
	}

	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO quizzes (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, quiz.ID, quiz.Name); err != nil {
			return fmt.Errorf("upsert quiz: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM rounds WHERE quiz_id = $1`, quiz.ID); err != nil {
			return fmt.Errorf("clear rounds: %w", err)
		}

		batch := &pgx.Batch{}
		for _, r := range quiz.Rounds {
			batch.Queue(`INSERT INTO rounds (id, quiz_id, name, ord) VALUES ($1, $2, $3, $4)`, r.ID, quiz.ID, r.Name, r.Order)
		}
		for _, r := range quiz.Rounds {
			for _, q := range r.Questions {
				batch.Queue(`
					INSERT INTO questions (id, quiz_id, round_id, text, answers, correct_index, ord)
					VALUES ($1, $2, $3, $4, $5, $6, $7)`,
					q.ID, quiz.ID, r.ID, q.Text, q.Answers, q.CorrectIndex, q.Order)
			}
		}
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("insert content: %w", err)
			}
		}
		return results.Close()
	})
}
