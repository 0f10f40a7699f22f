package ws

import (
	"encoding/json"

	"github.com/deft-reversi/deft/internal/models"
)

type Incoming struct {
	Event string          `json:"event"`
	ID    int             `json:"id"`
	Data  json.RawMessage `json:"data"`
}

type Outgoing struct {
	ID    int    `json:"id"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// JoinRequest attaches the connection to an existing game.
type JoinRequest struct {
	GameID string `json:"game_id"`
}

type LevelRequest struct {
	Level int `json:"level"`
}

type HintRequest struct {
	Level *int `json:"level"`
}

// BoolResponse answers the yes/no events.
type BoolResponse struct {
	Value bool `json:"value"`
}

type NewGameRequest = models.NewGameRequest
