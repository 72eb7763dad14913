package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"live-trivia-service/internal/domain"
)

// recordAnswer inserts the answer under its composite key, indexes it, credits the player and folds it into
// the question statistics in one script run.
//
// KEYS: answer, question index, player index, player hash, stats hash, session key set
// ARGV: answer json, index score, answer id, points, correct (1/0), time spent, question id, ttl ms
// Returns 1 on insert, 0 if the key exists, -1 if the player is unknown.
var recordAnswer = redis.NewScript(`
if redis.call('EXISTS', KEYS[4]) == 0 then
	return -1
end
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[3])
redis.call('ZADD', KEYS[3], ARGV[2], ARGV[3])
redis.call('SADD', KEYS[6], KEYS[1], KEYS[2], KEYS[3])
if tonumber(ARGV[8]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[8])
	redis.call('PEXPIRE', KEYS[2], ARGV[8])
	redis.call('PEXPIRE', KEYS[3], ARGV[8])
	redis.call('PEXPIRE', KEYS[6], ARGV[8])
end
redis.call('HINCRBY', KEYS[4], 'totalScore', ARGV[4])

local asked = tonumber(redis.call('HGET', KEYS[5], 'timesAsked') or '0')
local avg = tonumber(redis.call('HGET', KEYS[5], 'averageTimeSpent') or '0')
avg = (avg * asked + tonumber(ARGV[6])) / (asked + 1)
redis.call('HSET', KEYS[5], 'questionId', ARGV[7], 'timesAsked', tostring(asked + 1), 'averageTimeSpent', tostring(avg))
if ARGV[5] == '1' then
	redis.call('HINCRBY', KEYS[5], 'correctAnswers', '1')
else
	redis.call('HINCRBY', KEYS[5], 'wrongAnswers', '1')
end
return 1
`)

// AnswerLedger is a Redis implementation of app.AnswerLedger. Statistics are global per question and never
// expire; answers and their indexes share the session TTL and are renewed with it.
type AnswerLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAnswerLedger(client *redis.Client, ttl time.Duration) *AnswerLedger {
	return &AnswerLedger{client: client, ttl: ttl}
}

type statsRecord struct {
	QuestionID       string  `redis:"questionId"`
	TimesAsked       int     `redis:"timesAsked"`
	CorrectAnswers   int     `redis:"correctAnswers"`
	WrongAnswers     int     `redis:"wrongAnswers"`
	AverageTimeSpent float64 `redis:"averageTimeSpent"`
}

func (l *AnswerLedger) Record(ctx context.Context, answer domain.Answer) error {
	answer.ID = domain.AnswerID(answer.SessionID, answer.PlayerID, answer.QuestionID)
	data, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	correct := "0"
	if answer.IsCorrect {
		correct = "1"
	}

	keys := []string{
		answerKey(answer.SessionID, answer.PlayerID, answer.QuestionID),
		questionAnswersKey(answer.SessionID, answer.QuestionID),
		playerAnswersKey(answer.SessionID, answer.PlayerID),
		playerKey(answer.PlayerID),
		statsKey(answer.QuestionID),
		sessionKeysKey(answer.SessionID),
	}
	res, err := recordAnswer.Run(ctx, l.client, keys,
		data,
		answer.Timestamp.UnixNano(),
		answer.ID,
		answer.PointsEarned,
		correct,
		answer.TimeSpent,
		answer.QuestionID,
		l.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("record answer script: %w", err)
	}
	switch res {
	case 0:
		return domain.ErrAlreadyAnswered
	case -1:
		return domain.ErrPlayerNotFound
	}
	return nil
}

func (l *AnswerLedger) GetAnswer(ctx context.Context, sessionID, playerID, questionID string) (domain.Answer, bool, error) {
	data, err := l.client.Get(ctx, answerKey(sessionID, playerID, questionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Answer{}, false, nil
	}
	if err != nil {
		return domain.Answer{}, false, err
	}
	var answer domain.Answer
	if err := json.Unmarshal(data, &answer); err != nil {
		return domain.Answer{}, false, fmt.Errorf("decode answer: %w", err)
	}
	return answer, true, nil
}

func (l *AnswerLedger) ListByQuestion(ctx context.Context, sessionID, questionID string) ([]domain.Answer, error) {
	return l.list(ctx, questionAnswersKey(sessionID, questionID))
}

func (l *AnswerLedger) ListByPlayer(ctx context.Context, sessionID, playerID string) ([]domain.Answer, error) {
	return l.list(ctx, playerAnswersKey(sessionID, playerID))
}

func (l *AnswerLedger) Statistics(ctx context.Context, questionID string) (domain.QuestionStatistics, bool, error) {
	res := l.client.HGetAll(ctx, statsKey(questionID))
	if err := res.Err(); err != nil {
		return domain.QuestionStatistics{}, false, err
	}
	if len(res.Val()) == 0 {
		return domain.QuestionStatistics{}, false, nil
	}
	var record statsRecord
	if err := res.Scan(&record); err != nil {
		return domain.QuestionStatistics{}, false, fmt.Errorf("decode statistics: %w", err)
	}
	return domain.QuestionStatistics(record), true, nil
}

// list resolves an index ZSET (ids ordered by answer timestamp) into answers.
func (l *AnswerLedger) list(ctx context.Context, index string) ([]domain.Answer, error) {
	ids, err := l.client.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	answers := make([]domain.Answer, 0, len(ids))
	if len(ids) == 0 {
		return answers, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + "answer:" + id
	}
	values, err := l.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var answer domain.Answer
		if err := json.Unmarshal([]byte(raw), &answer); err != nil {
			return nil, fmt.Errorf("decode answer %s: %w", ids[i], err)
		}
		answers = append(answers, answer)
	}
	return answers, nil
}
