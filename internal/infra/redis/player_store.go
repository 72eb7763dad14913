package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"live-trivia-service/internal/domain"
)

// PlayerStore keeps players as hashes (trivia:player:{id}) plus a per-session roster ZSET scored by join time.
type PlayerStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPlayerStore(client *redis.Client, ttl time.Duration) *PlayerStore {
	return &PlayerStore{client: client, ttl: ttl}
}

type playerRecord struct {
	ID         string `redis:"id"`
	SessionID  string `redis:"sessionId"`
	Name       string `redis:"name"`
	TotalScore int    `redis:"totalScore"`
	JoinedAt   int64  `redis:"joinedAt"`
}

func (r playerRecord) player() domain.Player {
	return domain.Player{
		ID:         r.ID,
		SessionID:  r.SessionID,
		Name:       r.Name,
		TotalScore: r.TotalScore,
		JoinedAt:   time.Unix(0, r.JoinedAt).UTC(),
	}
}

func (s *PlayerStore) CreatePlayer(ctx context.Context, player domain.Player) error {
	key := playerKey(player.ID)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("player %s already exists", player.ID)
	}

	record := playerRecord{
		ID:         player.ID,
		SessionID:  player.SessionID,
		Name:       player.Name,
		TotalScore: player.TotalScore,
		JoinedAt:   player.JoinedAt.UnixNano(),
	}
	roster := rosterKey(player.SessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, record)
		pipe.ZAdd(ctx, roster, redis.Z{Score: float64(record.JoinedAt), Member: player.ID})
		pipe.SAdd(ctx, sessionKeysKey(player.SessionID), key, roster)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
			pipe.Expire(ctx, roster, s.ttl)
			pipe.Expire(ctx, sessionKeysKey(player.SessionID), s.ttl)
		}
		return nil
	})
	return err
}

func (s *PlayerStore) GetPlayer(ctx context.Context, playerID string) (domain.Player, bool, error) {
	res := s.client.HGetAll(ctx, playerKey(playerID))
	if err := res.Err(); err != nil {
		return domain.Player{}, false, err
	}
	if len(res.Val()) == 0 {
		return domain.Player{}, false, nil
	}
	var record playerRecord
	if err := res.Scan(&record); err != nil {
		return domain.Player{}, false, fmt.Errorf("decode player %s: %w", playerID, err)
	}
	return record.player(), true, nil
}

func (s *PlayerStore) ListPlayers(ctx context.Context, sessionID string) ([]domain.Player, error) {
	ids, err := s.client.ZRange(ctx, rosterKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Player{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, playerKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	players := make([]domain.Player, 0, len(ids))
	for i, cmd := range cmds {
		if len(cmd.Val()) == 0 {
			continue
		}
		var record playerRecord
		if err := cmd.Scan(&record); err != nil {
			return nil, fmt.Errorf("decode player %s: %w", ids[i], err)
		}
		players = append(players, record.player())
	}
	return players, nil
}
