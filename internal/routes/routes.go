package routes

import (
	"github.com/deft-reversi/deft/internal/config"
	"github.com/deft-reversi/deft/internal/routes/api"
	"github.com/deft-reversi/deft/internal/routes/game"
	"github.com/deft-reversi/deft/internal/routes/static"
	"github.com/deft-reversi/deft/internal/routes/version"
	"github.com/deft-reversi/deft/internal/routes/ws"
	"github.com/gofiber/fiber/v2"
)

func rootHandler(c *fiber.Ctx) error {
	return c.Redirect("/game")
}

func infoHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":    "deft",
		"api":     "/api/games",
		"ws":      "/ws",
		"version": "/version",
	})
}

func SetupRoutes(app *fiber.App, cfg *config.ServerConfig) {
	// Serve API routes
	api.SetupRoutes(app)

	// Serve websocket
	ws.SetupRoutes(app)

	// Serve version info
	version.SetupRoutes(app)

	// Without static files there is no page to redirect to.
	if cfg.StaticDir == "" {
		app.Get("/", infoHandler)
		return
	}

	// Serve static files
	static.SetupRoutes(app, cfg.StaticDir)

	// Serve HTML pages
	game.SetupRoutes(app)

	// Serve root page
	app.Get("/", rootHandler)
}
