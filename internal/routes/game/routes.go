package game

import (
	"path/filepath"

	"github.com/deft-reversi/deft/internal/config"
	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App) {
	app.Get("/game", Page)
}

// Page serves the game page.
func Page(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.ServerConfig) //nolint: errcheck

	return c.SendFile(filepath.Join(cfg.StaticDir, "index.html"))
}
