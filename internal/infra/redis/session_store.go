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

const maxUpdateRetries = 16

// releaseCode deletes a join code only while it still points at the given session.
var releaseCode = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// SessionStore is a Redis implementation of app.SessionRepository.
// Sessions are JSON documents under trivia:session:{id}; live join codes are SETNX keys under
// trivia:joincode:{code} holding the session id. Updates are optimistic (WATCH/MULTI) and retried.
// Every update renews the TTL of the session, its join code while live, and the keys listed in
// trivia:session:{id}:keys (players, roster, answers and their indexes).
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) CreateSession(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, sessionKey(session.ID), data, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	return nil
}

func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (domain.Session, bool, error) {
	return readSession(ctx, s.client, sessionID)
}

func (s *SessionStore) UpdateSession(ctx context.Context, sessionID string, mutate func(*domain.Session) error) (domain.Session, error) {
	key := sessionKey(sessionID)
	var updated domain.Session

	txf := func(tx *redis.Tx) error {
		session, found, err := readSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrSessionNotFound
		}
		if err := mutate(&session); err != nil {
			return err
		}
		data, err := json.Marshal(session)
		if err != nil {
			return err
		}

		var dependents []string
		if s.ttl > 0 {
			dependents, err = tx.SMembers(ctx, sessionKeysKey(sessionID)).Result()
			if err != nil {
				return err
			}
		}

		codeKey := joinCodeKey(session.JoinCode)
		owned := false
		if session.JoinCode != "" {
			if err := tx.Watch(ctx, codeKey).Err(); err != nil {
				return err
			}
			holder, err := tx.Get(ctx, codeKey).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			owned = holder == sessionID
		}
		live := session.Status.Live()

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			switch {
			case owned && !live:
				pipe.Del(ctx, codeKey)
			case owned && s.ttl > 0:
				pipe.Expire(ctx, codeKey, s.ttl)
			}
			if s.ttl > 0 {
				for _, k := range dependents {
					pipe.Expire(ctx, k, s.ttl)
				}
				pipe.Expire(ctx, sessionKeysKey(sessionID), s.ttl)
			}
			return nil
		})
		if err == nil {
			updated = session
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.Session{}, err
		}
		return updated, nil
	}
	return domain.Session{}, domain.ErrConflict
}

// FindLiveSession resolves the code index and drops sessions that are no longer live.
func (s *SessionStore) FindLiveSession(ctx context.Context, joinCode string) (domain.Session, bool, error) {
	sessionID, err := s.client.Get(ctx, joinCodeKey(joinCode)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, err
	}
	session, found, err := readSession(ctx, s.client, sessionID)
	if err != nil || !found || !session.Status.Live() {
		return domain.Session{}, false, err
	}
	return session, true, nil
}

func (s *SessionStore) ReserveJoinCode(ctx context.Context, joinCode, sessionID string) (bool, error) {
	return s.client.SetNX(ctx, joinCodeKey(joinCode), sessionID, s.ttl).Result()
}

func (s *SessionStore) ReleaseJoinCode(ctx context.Context, joinCode, sessionID string) error {
	return releaseCode.Run(ctx, s.client, []string{joinCodeKey(joinCode)}, sessionID).Err()
}

func readSession(ctx context.Context, client redis.Cmdable, sessionID string) (domain.Session, bool, error) {
	data, err := client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, err
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return session, true, nil
}
