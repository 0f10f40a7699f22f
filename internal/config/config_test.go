package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	t.Setenv("DEFT_SERVER_HOST", "localhost")
	t.Setenv("DEFT_SERVER_PORT", "4444")
	t.Setenv("DEFT_REDIS_URL", "")
	t.Setenv("DEFT_POSTGRES_URL", "")
	t.Setenv("DEFT_PREFORK", "")
	t.Setenv("DEFT_SESSION_TTL", "")
	t.Setenv("DEFT_AI_MOVE_TIMEOUT", "")
	t.Setenv("DEFT_DEFAULT_LEVEL", "")

	cfg := LoadServerConfig()

	require.Equal(t, "localhost", cfg.ServerHost)
	require.Equal(t, "4444", cfg.ServerPort)
	require.Empty(t, cfg.RedisURL)
	require.Empty(t, cfg.PostgresURL)
	require.False(t, cfg.Prefork)
	require.Equal(t, DefaultSessionTTL, cfg.SessionTTL)
	require.Equal(t, DefaultAIMoveTimeout, cfg.AIMoveTimeout)
	require.Equal(t, DefaultAILevel, cfg.DefaultLevel)
}

func TestLoadServerConfig(t *testing.T) {
	t.Setenv("DEFT_SERVER_HOST", "0.0.0.0")
	t.Setenv("DEFT_SERVER_PORT", "8080")
	t.Setenv("DEFT_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DEFT_POSTGRES_URL", "postgres://deft@localhost/deft")
	t.Setenv("DEFT_TOKEN", "secret")
	t.Setenv("DEFT_PREFORK", "true")
	t.Setenv("DEFT_SESSION_TTL", "1h")
	t.Setenv("DEFT_AI_MOVE_TIMEOUT", "250ms")
	t.Setenv("DEFT_DEFAULT_LEVEL", "5")

	cfg := LoadServerConfig()

	require.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	require.Equal(t, "postgres://deft@localhost/deft", cfg.PostgresURL)
	require.Equal(t, "secret", cfg.Token)
	require.True(t, cfg.Prefork)
	require.Equal(t, time.Hour, cfg.SessionTTL)
	require.Equal(t, 250*time.Millisecond, cfg.AIMoveTimeout)
	require.Equal(t, 5, cfg.DefaultLevel)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		value   string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"Warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, test := range tests {
		t.Run(test.value, func(t *testing.T) {
			level, err := ParseLogLevel(test.value)
			if test.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, test.want, level)
		})
	}
}
