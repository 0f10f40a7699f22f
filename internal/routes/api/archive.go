package api

import (
	"github.com/deft-reversi/deft/internal/repository"
	"github.com/gofiber/fiber/v2"
)

const defaultListLimit = 20

// ListArchive returns finished games, most recent first.
func ListArchive(c *fiber.Ctx) error {
	repo := repository.NewArchiveRepository(c)

	games, err := repo.ListGames(c.Context(), c.QueryInt("limit", defaultListLimit), c.QueryInt("offset", 0))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(games)
}

// GetArchiveStats returns win statistics of finished games.
func GetArchiveStats(c *fiber.Ctx) error {
	repo := repository.NewArchiveRepository(c)

	stats, err := repo.GetStats(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(stats)
}
