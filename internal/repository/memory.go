package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/deft-reversi/deft/internal/session"
)

// memorySweepInterval is the longest time between two sweeps of expired sessions.
const memorySweepInterval = time.Minute

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemorySessionRepository keeps sessions in process memory. It is used when no Redis is configured.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	locks    map[string]struct{}
	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
}

// NewMemorySessionRepository creates a store whose sessions expire ttl after their last save. Zero ttl never expires.
func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]memoryEntry),
		locks:    make(map[string]struct{}),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (repo *MemorySessionRepository) Load(_ context.Context, id string) (session.State, error) {
	repo.mu.Lock()
	entry, ok := repo.sessions[id]
	if ok && repo.expired(entry) {
		delete(repo.sessions, id)
		ok = false
	}
	repo.mu.Unlock()

	if !ok {
		return session.State{}, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}

	var state session.State
	if err := json.Unmarshal(entry.data, &state); err != nil {
		return session.State{}, fmt.Errorf("error unmarshaling session: %w", err)
	}

	return state, nil
}

func (repo *MemorySessionRepository) Save(_ context.Context, id string, state session.State) error {
	// Stored as JSON so callers never share memory with the store.
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("error marshaling session: %w", err)
	}

	entry := memoryEntry{data: data}
	if repo.ttl > 0 {
		entry.expiresAt = repo.now().Add(repo.ttl)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.sessions[id] = entry

	if now := repo.now(); !now.Before(repo.nextSweep) {
		repo.sweep()
		repo.nextSweep = now.Add(min(repo.ttl, memorySweepInterval))
	}

	return nil
}

func (repo *MemorySessionRepository) Delete(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	delete(repo.sessions, id)
	return nil
}

func (repo *MemorySessionRepository) Lock(_ context.Context, id string) (func(), error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, locked := repo.locks[id]; locked {
		return nil, session.ErrBusy
	}

	repo.locks[id] = struct{}{}

	unlock := func() {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		delete(repo.locks, id)
	}

	return unlock, nil
}

// Len removes expired sessions and returns the number of sessions left.
func (repo *MemorySessionRepository) Len() int {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.sweep()
	return len(repo.sessions)
}

// sweep removes expired sessions. The caller holds repo.mu.
func (repo *MemorySessionRepository) sweep() {
	if repo.ttl <= 0 {
		return
	}

	for id, entry := range repo.sessions {
		if repo.expired(entry) {
			delete(repo.sessions, id)
		}
	}
}

func (repo *MemorySessionRepository) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !repo.now().Before(entry.expiresAt)
}
