package main

import (
	"log/slog"
	"os"

	"github.com/deft-reversi/deft/internal"
	"github.com/deft-reversi/deft/internal/config"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional, the environment takes precedence.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	config.SetLogLevel()

	// Setup app
	app, cfg, services := internal.SetupApp()

	// Start server
	address := cfg.ServerHost + ":" + cfg.ServerPort
	err := app.Listen(address)

	services.Close()

	if err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
