package services

import (
	"log/slog"

	"github.com/deft-reversi/deft/internal/config"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Services contains the connections to the external services.
// Both are optional: Redis is nil without a Redis URL, Postgres is nil without a Postgres URL.
type Services struct {
	Postgres *sqlx.DB
	Redis    *redis.Client
}

func InitServices(cfg *config.ServerConfig) (*Services, error) {
	services := &Services{}

	if cfg.PostgresURL != "" {
		postgres, err := InitPostgres(cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		services.Postgres = postgres
	} else {
		slog.Warn("No Postgres URL configured, game archive is disabled")
	}

	if cfg.RedisURL != "" {
		redis, err := InitRedis(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		services.Redis = redis
	} else {
		slog.Warn("No Redis URL configured, sessions are kept in memory")
	}

	return services, nil
}

// Close closes all connections.
func (s *Services) Close() {
	if s.Postgres != nil {
		if err := s.Postgres.Close(); err != nil {
			slog.Error("Failed to close Postgres connection", "error", err)
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			slog.Error("Failed to close Redis connection", "error", err)
		}
	}
}
