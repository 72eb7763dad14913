package memory

import (
	"context"
	"fmt"
	"sync"

	"live-trivia-service/internal/domain"
)

// PlayerStore is an in-memory implementation of app.PlayerRepository.
type PlayerStore struct {
	mu        sync.RWMutex
	players   map[string]domain.Player
	bySession map[string][]string
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{
		players:   make(map[string]domain.Player),
		bySession: make(map[string][]string),
	}
}

func (s *PlayerStore) CreatePlayer(_ context.Context, player domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.players[player.ID]; exists {
		return fmt.Errorf("player %s already exists", player.ID)
	}
	s.players[player.ID] = player
	s.bySession[player.SessionID] = append(s.bySession[player.SessionID], player.ID)
	return nil
}

func (s *PlayerStore) GetPlayer(_ context.Context, playerID string) (domain.Player, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[playerID]
	return player, ok, nil
}

func (s *PlayerStore) ListPlayers(_ context.Context, sessionID string) ([]domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.bySession[sessionID]
	out := make([]domain.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.players[id])
	}
	return out, nil
}

func (s *PlayerStore) credit(playerID string, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	player.TotalScore += points
	s.players[playerID] = player
	return nil
}
