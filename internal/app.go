package internal

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/deft-reversi/deft/internal/ai"
	"github.com/deft-reversi/deft/internal/config"
	"github.com/deft-reversi/deft/internal/middleware"
	"github.com/deft-reversi/deft/internal/repository"
	"github.com/deft-reversi/deft/internal/routes"
	"github.com/deft-reversi/deft/internal/services"
	"github.com/deft-reversi/deft/internal/session"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultConcurrency  = 256 * 1024 // Maximum number of concurrent connections per worker
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultIdleTimeout  = 5 * time.Second
	defaultBodyLimit    = 64 * 1024
	schemaTimeout       = 10 * time.Second

	// A session lock outlives the slowest AI move plus archiving the game it ends.
	lockMargin = 5 * time.Second
)

// SetupApp loads the configuration, connects to the external services and builds the app.
// It exits the process on failure.
func SetupApp() (*fiber.App, *config.ServerConfig, *services.Services) {
	// Load configuration
	cfg := config.LoadServerConfig()

	if cfg.DefaultLevel < 0 || cfg.DefaultLevel > ai.MaxLevel {
		slog.Error("Invalid default AI level", "level", cfg.DefaultLevel, "max", ai.MaxLevel)
		os.Exit(1)
	}

	// Initialize services
	services, err := services.InitServices(cfg)
	if err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	if cfg.Prefork && services.Redis == nil {
		slog.Warn("Prefork without Redis: every worker process keeps its own sessions")
	}

	archive := repository.NewArchiveRepositoryFromServices(services)
	if archive.Available() {
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()

		if err = archive.EnsureSchema(ctx); err != nil {
			slog.Error("Failed to create archive schema", "error", err)
			os.Exit(1)
		}
	}

	return BuildApp(cfg, services), cfg, services
}

// NewSessionManager creates the session manager. Sessions live in Redis when it is configured and in memory otherwise.
func NewSessionManager(cfg *config.ServerConfig, services *services.Services) *session.Manager {
	var store session.Store
	if services.Redis != nil {
		store = repository.NewSessionRepository(services.Redis, cfg.SessionTTL, lockTTL(cfg))
	} else {
		store = repository.NewMemorySessionRepository(cfg.SessionTTL)
	}

	opts := []session.ManagerOption{
		session.WithMoveTimeout(cfg.AIMoveTimeout),
		session.WithArchiveTimeout(session.DefaultArchiveTimeout),
		session.WithDefaultLevel(cfg.DefaultLevel),
	}

	archive := repository.NewArchiveRepositoryFromServices(services)
	if archive.Available() {
		opts = append(opts, session.WithArchiver(archive))
	}

	return session.NewManager(store, ai.NewPlayer(), opts...)
}

// lockTTL is how long a session lock may be held: one AI search, then archiving the game it may end.
func lockTTL(cfg *config.ServerConfig) time.Duration {
	return cfg.AIMoveTimeout + session.DefaultArchiveTimeout + lockMargin
}

// BuildApp creates the Fiber app with its middleware and routes.
func BuildApp(cfg *config.ServerConfig, services *services.Services) *fiber.App {
	// Create Fiber app
	app := fiber.New(fiber.Config{
		Prefork:      cfg.Prefork,
		Concurrency:  defaultConcurrency,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
		BodyLimit:    defaultBodyLimit,
	})

	sessions := NewSessionManager(cfg, services)

	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())

	// Setup connections to external services and config in Fiber app
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("services", services)
		c.Locals("config", cfg)
		c.Locals("sessions", sessions)
		return c.Next()
	})

	// Add logging middleware
	app.Use(middleware.Logging())

	// Setup all routes
	routes.SetupRoutes(app, cfg)

	return app
}
