package api

import (
	"strconv"

	"github.com/deft-reversi/deft/internal/models"
	"github.com/deft-reversi/deft/internal/session"
	"github.com/gofiber/fiber/v2"
)

func sessions(c *fiber.Ctx) *session.Manager {
	return c.Locals("sessions").(*session.Manager) //nolint: errcheck
}

// CreateGame starts a new game. The body is optional.
func CreateGame(c *fiber.Ctx) error {
	var payload models.NewGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	m := sessions(c)

	cfg, err := payload.AIConfig(m.DefaultAIConfig())
	if err != nil {
		return errorResponse(c, err)
	}

	s, err := m.Create(c.Context(), cfg)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(s)
}

// GetGame returns a game.
func GetGame(c *fiber.Ctx) error {
	s, err := sessions(c).Get(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(s)
}

// DeleteGame removes a game.
func DeleteGame(c *fiber.Ctx) error {
	if err := sessions(c).Delete(c.Context(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// PutMove plays a human move.
func PutMove(c *fiber.Ctx) error {
	var payload models.MoveRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "Invalid request body")
	}

	move, err := payload.Parse()
	if err != nil {
		return badRequest(c, err.Error())
	}

	s, err := sessions(c).Put(c.Context(), c.Params("id"), move)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(s)
}

// Pass passes for a side without legal moves.
func Pass(c *fiber.Ctx) error {
	s, err := sessions(c).Pass(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(s)
}

// Undo takes back the last move of the human player.
func Undo(c *fiber.Ctx) error {
	s, err := sessions(c).Undo(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(s)
}

// Restart starts a new game with the same AI configuration.
func Restart(c *fiber.Ctx) error {
	s, err := sessions(c).NewGame(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(s)
}

// Advance plays the forced pass or the AI move, if any.
func Advance(c *fiber.Ctx) error {
	step, s, err := sessions(c).Advance(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(models.AdvanceResponse{
		Step: step,
		Game: s,
	})
}

// SetAI changes the AI configuration of a game.
func SetAI(c *fiber.Ctx) error {
	var payload models.AIRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "Invalid request body")
	}

	s, err := sessions(c).SetAI(c.Context(), c.Params("id"), payload.Apply)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(s)
}

// Hint suggests a move for the side to move. The level defaults to the level of the game's AI.
func Hint(c *fiber.Ctx) error {
	m := sessions(c)
	id := c.Params("id")

	var level int

	if query := c.Query("level"); query != "" {
		var err error
		if level, err = strconv.Atoi(query); err != nil {
			return badRequest(c, "level must be an integer")
		}
	} else {
		s, err := m.Get(c.Context(), id)
		if err != nil {
			return errorResponse(c, err)
		}
		level = s.AI.Level
	}

	move, err := m.Hint(c.Context(), id, level)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(models.HintResponse{
		Move:  move,
		Level: level,
	})
}
