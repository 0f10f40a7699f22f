package api

import (
	"errors"

	"github.com/deft-reversi/deft/internal/ai"
	"github.com/deft-reversi/deft/internal/middleware"
	"github.com/deft-reversi/deft/internal/models"
	"github.com/deft-reversi/deft/internal/othello"
	"github.com/deft-reversi/deft/internal/repository"
	"github.com/deft-reversi/deft/internal/session"
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes sets up the API routes.
func SetupRoutes(app *fiber.App) {
	apiGroup := app.Group("/api")

	// Game routes
	games := apiGroup.Group("/games")
	games.Post("/", CreateGame)
	games.Get("/:id", GetGame)
	games.Delete("/:id", DeleteGame)
	games.Post("/:id/moves", PutMove)
	games.Post("/:id/pass", Pass)
	games.Post("/:id/undo", Undo)
	games.Post("/:id/restart", Restart)
	games.Post("/:id/advance", Advance)
	games.Put("/:id/ai", SetAI)
	games.Get("/:id/hint", Hint)

	// Archive routes
	archive := apiGroup.Group("/archive", middleware.AuthOrToken())
	archive.Get("/", ListArchive)
	archive.Get("/stats", GetArchiveStats)
}

// StatusFor maps an error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, othello.ErrIllegalMove),
		errors.Is(err, othello.ErrInvalidPass),
		errors.Is(err, ai.ErrInvalidLevel),
		errors.Is(err, session.ErrInvalidColor),
		errors.Is(err, models.ErrMissingMove):
		return fiber.StatusBadRequest
	case errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrAITurn),
		errors.Is(err, session.ErrAIDisabled),
		errors.Is(err, ai.ErrNoLegalMove):
		return fiber.StatusConflict
	case errors.Is(err, repository.ErrNoDatabase):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(StatusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}
