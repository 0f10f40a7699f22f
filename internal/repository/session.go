package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/deft-reversi/deft/internal/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix     = "game:"
	sessionLockKeyPrefix = "game_lock:"
	sessionUnlockTimeout = 2 * time.Second
)

// unlockScript deletes the lock only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionRepository stores sessions in Redis.
type SessionRepository struct {
	redis   *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewSessionRepository creates a store whose sessions expire ttl after their last save.
// lockTTL bounds how long a crashed request can hold a session; it must exceed the longest operation.
func NewSessionRepository(client *redis.Client, ttl, lockTTL time.Duration) *SessionRepository {
	return &SessionRepository{
		redis:   client,
		ttl:     ttl,
		lockTTL: lockTTL,
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func sessionLockKey(id string) string {
	return sessionLockKeyPrefix + id
}

func (repo *SessionRepository) Load(ctx context.Context, id string) (session.State, error) {
	jsonData, err := repo.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.State{}, fmt.Errorf("%w: %s", session.ErrNotFound, id)
		}
		return session.State{}, fmt.Errorf("error getting session: %w", err)
	}

	var state session.State
	if err = json.Unmarshal(jsonData, &state); err != nil {
		return session.State{}, fmt.Errorf("error unmarshaling session: %w", err)
	}

	return state, nil
}

func (repo *SessionRepository) Save(ctx context.Context, id string, state session.State) error {
	jsonData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("error marshaling session: %w", err)
	}

	// Store and reset TTL
	if err = repo.redis.Set(ctx, sessionKey(id), jsonData, repo.ttl).Err(); err != nil {
		return fmt.Errorf("error storing session: %w", err)
	}

	return nil
}

func (repo *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := repo.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

func (repo *SessionRepository) Lock(ctx context.Context, id string) (func(), error) {
	key := sessionLockKey(id)
	token := uuid.NewString()

	lockAcquired, err := repo.redis.SetNX(ctx, key, token, repo.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("error acquiring session lock: %w", err)
	}

	if !lockAcquired {
		return nil, session.ErrBusy
	}

	unlock := func() {
		// The request context may be done already, the lock must be released anyway.
		unlockCtx, cancel := context.WithTimeout(context.Background(), sessionUnlockTimeout)
		defer cancel()

		if err := unlockScript.Run(unlockCtx, repo.redis, []string{key}, token).Err(); err != nil {
			slog.Error("error releasing session lock", "id", id, "error", err)
		}
	}

	return unlock, nil
}
