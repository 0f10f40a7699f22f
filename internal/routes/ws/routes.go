package ws

import (
	"log/slog"

	"github.com/deft-reversi/deft/internal/session"
	"github.com/deft-reversi/deft/internal/ws"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func handleWs(c *websocket.Conn) {
	sessions := c.Locals("sessions").(*session.Manager) //nolint: errcheck

	h := ws.NewHandler(c, sessions)
	err := h.Handle()
	if err != nil {
		slog.Debug("ws connection closed", "error", err)
	}
}

// upgradeRequired rejects plain HTTP requests on the websocket route.
func upgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// SetupRoutes sets up the routes for the websocket.
func SetupRoutes(app *fiber.App) {
	app.Get("/ws", upgradeRequired, websocket.New(handleWs))
}
