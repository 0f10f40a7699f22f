package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	DefaultSessionTTL    = 24 * time.Hour
	DefaultAIMoveTimeout = 5 * time.Second
	DefaultAILevel       = 2
)

// ServerConfig holds all configuration values loaded from environment variables.
type ServerConfig struct {
	ServerHost        string
	ServerPort        string
	RedisURL          string
	PostgresURL       string
	BasicAuthUsername string
	BasicAuthPassword string
	Token             string
	Prefork           bool
	StaticDir         string
	SessionTTL        time.Duration
	AIMoveTimeout     time.Duration
	DefaultLevel      int
}

// LoadServerConfig loads configuration from environment variables.
func LoadServerConfig() *ServerConfig {
	return &ServerConfig{
		ServerHost:        getEnvMust("DEFT_SERVER_HOST"),
		ServerPort:        getEnvMust("DEFT_SERVER_PORT"),
		RedisURL:          os.Getenv("DEFT_REDIS_URL"),
		PostgresURL:       os.Getenv("DEFT_POSTGRES_URL"),
		BasicAuthUsername: os.Getenv("DEFT_BASIC_AUTH_USER"),
		BasicAuthPassword: os.Getenv("DEFT_BASIC_AUTH_PASS"),
		Token:             os.Getenv("DEFT_TOKEN"),
		Prefork:           getEnvBool("DEFT_PREFORK", false),
		StaticDir:         os.Getenv("DEFT_STATIC_DIR"),
		SessionTTL:        getEnvDuration("DEFT_SESSION_TTL", DefaultSessionTTL),
		AIMoveTimeout:     getEnvDuration("DEFT_AI_MOVE_TIMEOUT", DefaultAIMoveTimeout),
		DefaultLevel:      getEnvInt("DEFT_DEFAULT_LEVEL", DefaultAILevel),
	}
}

// getEnvMust either returns the environment variable or logs a fatal error if it is not set.
func getEnvMust(key string) string {
	value := os.Getenv(key)
	if value == "" {
		slog.Error("Environment variable is not set", "key", key)
		os.Exit(1)
	}
	return value
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	if value != "true" && value != "false" {
		slog.Error("Cannot load environment variable, it must be \"true\" or \"false\"", "key", key, "value", value)
		os.Exit(1)
	}

	return value == "true"
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	duration, err := time.ParseDuration(value)
	if err != nil || duration < 0 {
		slog.Error("Cannot load environment variable, it must be a duration like \"5s\"", "key", key, "value", value)
		os.Exit(1)
	}

	return duration
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		slog.Error("Cannot load environment variable, it must be an integer", "key", key, "value", value)
		os.Exit(1)
	}

	return i
}
