package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/deft-reversi/deft/internal/ai"
	"github.com/deft-reversi/deft/internal/game"
	"github.com/deft-reversi/deft/internal/othello"
)

var (
	ErrBusy         = errors.New("session is busy")
	ErrNotFound     = errors.New("session not found")
	ErrAIDisabled   = errors.New("ai is disabled")
	ErrAITurn       = errors.New("it is the ai's turn")
	ErrInvalidColor = errors.New("invalid color")
)

// MoveChooser picks moves for the AI side. It is implemented by *ai.Player.
type MoveChooser interface {
	ChooseMove(ctx context.Context, board othello.Board, color othello.Color, level int) (othello.Move, error)
}

// AIConfig controls whether and how the AI plays in a session.
type AIConfig struct {
	Enabled bool          `json:"enabled"`
	Level   int           `json:"level"`
	Color   othello.Color `json:"color"`
}

// DefaultAIConfig has the AI disabled, playing white at level.
func DefaultAIConfig(level int) AIConfig {
	return AIConfig{
		Level: level,
		Color: othello.White,
	}
}

// Validate checks the level range and the color.
func (cfg AIConfig) Validate() error {
	if cfg.Level < 0 || cfg.Level > ai.MaxLevel {
		return fmt.Errorf("%w: %d not in 0..%d", ai.ErrInvalidLevel, cfg.Level, ai.MaxLevel)
	}

	if !othello.IsColor(cfg.Color) {
		return fmt.Errorf("%w: %d", ErrInvalidColor, int(cfg.Color))
	}

	return nil
}

// State is the serializable form of a Controller.
type State struct {
	Game game.Snapshot `json:"game"`
	AI   AIConfig      `json:"ai"`

	// Archived is set once a finished game has been handed to the archive.
	Archived bool `json:"archived,omitempty"`
}

// StepKind is the kind of automatic action taken by Advance.
type StepKind int

const (
	// StepNone means it is a human's turn to move.
	StepNone StepKind = iota
	StepPassed
	StepMoved
	StepGameOver
)

func (k StepKind) String() string {
	switch k {
	case StepNone:
		return "none"
	case StepPassed:
		return "passed"
	case StepMoved:
		return "moved"
	case StepGameOver:
		return "game_over"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k StepKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind encoded by MarshalText.
func (k *StepKind) UnmarshalText(text []byte) error {
	for kind := StepNone; kind <= StepGameOver; kind++ {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown step kind: %q", text)
}

// Step describes what Advance did.
type Step struct {
	Kind  StepKind      `json:"kind"`
	Color othello.Color `json:"color,omitempty"`
	Move  *othello.Move `json:"move,omitempty"`
}

// Controller runs one game with an optional AI opponent.
// At most one operation runs at a time: a call made while another one is in flight fails with ErrBusy.
type Controller struct {
	mu     sync.Mutex
	game   *game.Game
	ai     AIConfig
	player MoveChooser
}

// NewController creates a controller for a new game. player may be nil if the AI is never enabled.
func NewController(player MoveChooser, cfg AIConfig) (*Controller, error) {
	if err := validateAI(player, cfg); err != nil {
		return nil, err
	}

	return &Controller{
		game:   game.New(),
		ai:     cfg,
		player: player,
	}, nil
}

// RestoreController creates a controller from a stored state.
func RestoreController(player MoveChooser, state State) (*Controller, error) {
	if err := validateAI(player, state.AI); err != nil {
		return nil, err
	}

	g, err := game.Restore(state.Game)
	if err != nil {
		return nil, fmt.Errorf("failed to restore game: %w", err)
	}

	return &Controller{
		game:   g,
		ai:     state.AI,
		player: player,
	}, nil
}

func validateAI(player MoveChooser, cfg AIConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Enabled && player == nil {
		return fmt.Errorf("%w: no ai player available", ErrAIDisabled)
	}

	return nil
}

func (c *Controller) acquire() error {
	if !c.mu.TryLock() {
		return ErrBusy
	}
	return nil
}

// State returns the serializable state.
func (c *Controller) State() (State, error) {
	if err := c.acquire(); err != nil {
		return State{}, err
	}
	defer c.mu.Unlock()

	return c.state(), nil
}

func (c *Controller) state() State {
	return State{
		Game: c.game.Snapshot(),
		AI:   c.ai,
	}
}

// View returns the presentation of the current position.
func (c *Controller) View() (game.View, error) {
	if err := c.acquire(); err != nil {
		return game.View{}, err
	}
	defer c.mu.Unlock()

	return c.game.View(), nil
}

// AIConfig returns the current AI configuration.
func (c *Controller) AIConfig() (AIConfig, error) {
	if err := c.acquire(); err != nil {
		return AIConfig{}, err
	}
	defer c.mu.Unlock()

	return c.ai, nil
}

// NewGame replaces the game with a new one. The AI configuration is kept.
func (c *Controller) NewGame() (game.View, error) {
	if err := c.acquire(); err != nil {
		return game.View{}, err
	}
	defer c.mu.Unlock()

	c.game = game.New()
	return c.game.View(), nil
}

func (c *Controller) isAITurn() bool {
	return c.ai.Enabled && c.game.Turn() == c.ai.Color
}

// Put plays a human move. It fails with ErrAITurn while the AI is to move.
func (c *Controller) Put(move othello.Move) (game.View, error) {
	if err := c.acquire(); err != nil {
		return game.View{}, err
	}
	defer c.mu.Unlock()

	if c.isAITurn() && c.game.Status() == game.AwaitingMove {
		return game.View{}, ErrAITurn
	}

	if err := c.game.Put(move); err != nil {
		return game.View{}, err
	}

	return c.game.View(), nil
}

// Pass passes for the side to move. It is only valid if that side has no legal move.
func (c *Controller) Pass() (game.View, error) {
	if err := c.acquire(); err != nil {
		return game.View{}, err
	}
	defer c.mu.Unlock()

	if err := c.game.Pass(); err != nil {
		return game.View{}, err
	}

	return c.game.View(), nil
}

// Undo takes back plies until a human is to move again, or until the start of the game.
func (c *Controller) Undo() (game.View, error) {
	if err := c.acquire(); err != nil {
		return game.View{}, err
	}
	defer c.mu.Unlock()

	for c.game.Undo() {
		if !c.isAITurn() {
			break
		}
	}

	return c.game.View(), nil
}

// ChooseAIMove returns the move the AI would play for the side to move at level. The game is not changed.
func (c *Controller) ChooseAIMove(ctx context.Context, level int) (othello.Move, error) {
	if err := c.acquire(); err != nil {
		return othello.Move{}, err
	}
	defer c.mu.Unlock()

	if c.player == nil {
		return othello.Move{}, ErrAIDisabled
	}

	if c.game.IsEndGame() {
		return othello.Move{}, fmt.Errorf("%w: game is over", ai.ErrNoLegalMove)
	}

	return c.player.ChooseMove(ctx, c.game.Board(), c.game.Turn(), level)
}

// SetAIConfig replaces the AI configuration. Invalid levels fail with ai.ErrInvalidLevel.
func (c *Controller) SetAIConfig(cfg AIConfig) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.mu.Unlock()

	if err := validateAI(c.player, cfg); err != nil {
		return err
	}

	c.ai = cfg
	return nil
}

// Advance performs the next automatic action: the pass of a side without moves, or the move of the AI.
// It never plays for a human; then it returns StepNone.
func (c *Controller) Advance(ctx context.Context) (Step, error) {
	if err := c.acquire(); err != nil {
		return Step{}, err
	}
	defer c.mu.Unlock()

	turn := c.game.Turn()

	switch c.game.Status() {
	case game.GameOver:
		return Step{Kind: StepGameOver}, nil

	case game.AwaitingPass:
		if err := c.game.Pass(); err != nil {
			return Step{}, err
		}
		return Step{Kind: StepPassed, Color: turn}, nil

	case game.AwaitingMove:
	}

	if !c.isAITurn() {
		return Step{Kind: StepNone}, nil
	}

	move, err := c.player.ChooseMove(ctx, c.game.Board(), turn, c.ai.Level)
	if err != nil {
		return Step{}, fmt.Errorf("failed to choose ai move: %w", err)
	}

	if err = c.game.Put(move); err != nil {
		return Step{}, fmt.Errorf("ai chose an illegal move: %w", err)
	}

	return Step{Kind: StepMoved, Color: turn, Move: &move}, nil
}
