package app

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"live-trivia-service/internal/domain"
)

// CodeReserver atomically claims a join code for a session if no live session holds it.
type CodeReserver interface {
	ReserveJoinCode(ctx context.Context, joinCode, sessionID string) (bool, error)
}

// JoinCodeAllocator hands out 4-digit join codes that are unique among live sessions.
type JoinCodeAllocator struct {
	store    CodeReserver
	attempts int

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewJoinCodeAllocator(store CodeReserver, attempts int) *JoinCodeAllocator {
	if attempts <= 0 {
		attempts = defaultJoinCodeAttempts
	}
	return &JoinCodeAllocator{
		store:    store,
		attempts: attempts,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Allocate draws codes uniformly from 1000-9999 until one can be reserved for sessionID.
func (a *JoinCodeAllocator) Allocate(ctx context.Context, sessionID string) (string, error) {
	for attempt := 1; attempt <= a.attempts; attempt++ {
		code := a.generate()
		ok, err := a.store.ReserveJoinCode(ctx, code, sessionID)
		if err != nil {
			return "", fmt.Errorf("reserve join code: %w", err)
		}
		if ok {
			return code, nil
		}
		log.Debug().Str("join_code", code).Int("attempt", attempt).Msg("join code collision")
	}
	return "", domain.ErrAllocationExhausted
}

func (a *JoinCodeAllocator) generate() string {
	a.mu.Lock()
	n := domain.JoinCodeMin + a.rnd.Intn(domain.JoinCodeMax-domain.JoinCodeMin+1)
	a.mu.Unlock()
	return strconv.Itoa(n)
}
