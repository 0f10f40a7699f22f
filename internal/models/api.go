package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deft-reversi/deft/internal/othello"
	"github.com/deft-reversi/deft/internal/session"
)

// NewGameRequest represents the payload for creating a game.
type NewGameRequest struct {
	AIEnabled bool   `json:"ai_enabled"`
	Level     *int   `json:"level"`
	AIColor   string `json:"ai_color"`
}

// AIConfig returns the AI configuration of the new game, starting from defaults.
func (r NewGameRequest) AIConfig(defaults session.AIConfig) (session.AIConfig, error) {
	enabled := r.AIEnabled
	return AIRequest{Enabled: &enabled, Level: r.Level, Color: r.AIColor}.Apply(defaults)
}

// AIRequest represents a change of the AI configuration. Fields left out are not changed.
type AIRequest struct {
	Enabled *bool  `json:"enabled"`
	Level   *int   `json:"level"`
	Color   string `json:"color"`
}

// Apply returns cfg with the requested changes. It does not validate the level.
func (r AIRequest) Apply(cfg session.AIConfig) (session.AIConfig, error) {
	if r.Enabled != nil {
		cfg.Enabled = *r.Enabled
	}

	if r.Level != nil {
		cfg.Level = *r.Level
	}

	if r.Color != "" {
		color, err := othello.ParseColor(r.Color)
		if err != nil {
			return session.AIConfig{}, fmt.Errorf("%w: %s", session.ErrInvalidColor, r.Color)
		}
		cfg.Color = color
	}

	return cfg, nil
}

// MoveRequest represents a move, either as a field like "d3" or as row and column.
type MoveRequest struct {
	Move string `json:"move"`
	Row  *int   `json:"row"`
	Col  *int   `json:"col"`
}

// ErrMissingMove is returned when a MoveRequest holds neither a field nor a row and column.
var ErrMissingMove = errors.New("missing move")

// Parse returns the requested move.
func (r MoveRequest) Parse() (othello.Move, error) {
	if r.Move != "" {
		return othello.ParseMove(r.Move)
	}

	if r.Row == nil || r.Col == nil {
		return othello.Move{}, ErrMissingMove
	}

	return othello.NewMove(*r.Row, *r.Col)
}

// AdvanceResponse represents the result of an automatic action.
type AdvanceResponse struct {
	Step session.Step    `json:"step"`
	Game session.Session `json:"game"`
}

// HintResponse represents a suggested move.
type HintResponse struct {
	Move  othello.Move `json:"move"`
	Level int          `json:"level"`
}

// ArchivedGame represents a finished game in the archive.
type ArchivedGame struct {
	ID         string    `json:"id"          db:"id"`
	SessionID  string    `json:"session_id"  db:"session_id"`
	Moves      Moves     `json:"moves"       db:"moves"`
	Black      int       `json:"black"       db:"black"`
	White      int       `json:"white"       db:"white"`
	Winner     int       `json:"winner"      db:"winner"`
	AIEnabled  bool      `json:"ai_enabled"  db:"ai_enabled"`
	AILevel    int       `json:"ai_level"    db:"ai_level"`
	AIColor    int       `json:"ai_color"    db:"ai_color"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
}

// Moves is a list of fields that implements sql.Scanner.
type Moves []string

// Scan implements the sql.Scanner interface for Moves.
func (m *Moves) Scan(value interface{}) error {
	var s string

	switch v := value.(type) {
	case []byte:
		if v == nil {
			return errors.New("cannot scan nil into Moves")
		}
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("cannot scan %T into Moves", value)
	}

	// We should have a string that looks like "{f5,d6,--}"
	s = strings.Trim(s, "{}")

	if s == "" {
		*m = Moves{}
		return nil
	}

	parts := strings.Split(s, ",")

	moves := make(Moves, len(parts))
	for i, part := range parts {
		part = strings.Trim(part, `"`)
		if !othello.IsPassField(part) {
			if _, err := othello.ParseMove(part); err != nil {
				return fmt.Errorf("cannot convert %s to a move: %w", part, err)
			}
		}
		moves[i] = part
	}
	*m = moves

	return nil
}

// ArchiveStats counts archived games by AI level, AI color and winner.
// AILevel is -1 for games without AI. AIColor and Winner are cell codes, Winner 0 is a draw.
type ArchiveStats struct {
	AILevel int `json:"ai_level"`
	AIColor int `json:"ai_color"`
	Winner  int `json:"winner"`
	Count   int `json:"count"`
}

type VersionResponse struct {
	Commit string `json:"commit"`
}
