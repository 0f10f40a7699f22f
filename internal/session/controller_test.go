package session //nolint:testpackage

import (
	"context"
	"testing"

	"github.com/deft-reversi/deft/internal/ai"
	"github.com/deft-reversi/deft/internal/game"
	"github.com/deft-reversi/deft/internal/othello"
	"github.com/stretchr/testify/require"
)

// firstMove plays the first legal move in row-major order.
type firstMove struct{}

func (firstMove) ChooseMove(_ context.Context, board othello.Board, color othello.Color, _ int) (othello.Move, error) {
	moves := othello.LegalMoves(board, color)
	if len(moves) == 0 {
		return othello.Move{}, ai.ErrNoLegalMove
	}
	return moves[0], nil
}

// blockingChooser waits for release before answering.
type blockingChooser struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingChooser) ChooseMove(ctx context.Context, board othello.Board, color othello.Color, level int) (othello.Move, error) {
	close(b.started)
	<-b.release
	return firstMove{}.ChooseMove(ctx, board, color, level)
}

func bitAt(row, col int) uint64 {
	return uint64(1) << (row*othello.Size + col)
}

func restore(t *testing.T, player MoveChooser, board othello.Board, turn othello.Color, cfg AIConfig) *Controller {
	t.Helper()

	c, err := RestoreController(player, State{
		Game: game.NewFromBoard(board, turn).Snapshot(),
		AI:   cfg,
	})
	require.NoError(t, err)
	return c
}

func TestNewController(t *testing.T) {
	_, err := NewController(nil, AIConfig{Level: ai.MaxLevel + 1, Color: othello.White})
	require.ErrorIs(t, err, ai.ErrInvalidLevel)

	_, err = NewController(nil, AIConfig{Level: 1, Color: othello.Empty})
	require.ErrorIs(t, err, ErrInvalidColor)

	_, err = NewController(nil, AIConfig{Enabled: true, Level: 1, Color: othello.White})
	require.ErrorIs(t, err, ErrAIDisabled)

	c, err := NewController(nil, DefaultAIConfig(2))
	require.NoError(t, err)

	view, err := c.View()
	require.NoError(t, err)
	require.Len(t, view.Hints, 4)
}

func TestControllerPut(t *testing.T) {
	c, err := NewController(firstMove{}, AIConfig{Enabled: true, Level: 1, Color: othello.White})
	require.NoError(t, err)

	_, err = c.Put(othello.Move{Row: 0, Col: 0})
	require.ErrorIs(t, err, othello.ErrIllegalMove)

	view, err := c.Put(othello.Move{Row: 2, Col: 3})
	require.NoError(t, err)
	require.Equal(t, 4, view.Black)
	require.Equal(t, 1, view.White)
	require.Equal(t, othello.White, view.NextTurn)

	// White is played by the AI.
	_, err = c.Put(othello.Move{Row: 2, Col: 2})
	require.ErrorIs(t, err, ErrAITurn)
}

func TestControllerAdvance(t *testing.T) {
	ctx := context.Background()

	c, err := NewController(firstMove{}, AIConfig{Enabled: true, Level: 1, Color: othello.White})
	require.NoError(t, err)

	step, err := c.Advance(ctx)
	require.NoError(t, err)
	require.Equal(t, StepNone, step.Kind)

	_, err = c.Put(othello.Move{Row: 2, Col: 3})
	require.NoError(t, err)

	step, err = c.Advance(ctx)
	require.NoError(t, err)
	require.Equal(t, StepMoved, step.Kind)
	require.Equal(t, othello.White, step.Color)
	require.Equal(t, &othello.Move{Row: 2, Col: 2}, step.Move)

	view, err := c.View()
	require.NoError(t, err)
	require.Equal(t, othello.Black, view.NextTurn)
	require.Equal(t, "c3", view.LastPly)
}

func TestControllerAdvancePassAndGameOver(t *testing.T) {
	ctx := context.Background()

	// White has no move, black can capture b1 with c1.
	board := othello.NewBoardMust(bitAt(0, 0), bitAt(0, 1))
	c := restore(t, nil, board, othello.White, DefaultAIConfig(1))

	step, err := c.Advance(ctx)
	require.NoError(t, err)
	require.Equal(t, StepPassed, step.Kind)
	require.Equal(t, othello.White, step.Color)

	// Black is human.
	step, err = c.Advance(ctx)
	require.NoError(t, err)
	require.Equal(t, StepNone, step.Kind)

	view, err := c.Put(othello.Move{Row: 0, Col: 2})
	require.NoError(t, err)
	require.Equal(t, "game_over", view.Status)
	require.Equal(t, othello.Black, view.Winner)

	step, err = c.Advance(ctx)
	require.NoError(t, err)
	require.Equal(t, StepGameOver, step.Kind)

	_, err = c.ChooseAIMove(ctx, 1)
	require.ErrorIs(t, err, ErrAIDisabled)
}

func TestControllerPass(t *testing.T) {
	c, err := NewController(nil, DefaultAIConfig(1))
	require.NoError(t, err)

	_, err = c.Pass()
	require.ErrorIs(t, err, othello.ErrInvalidPass)

	board := othello.NewBoardMust(bitAt(0, 0), bitAt(0, 1))
	c = restore(t, nil, board, othello.White, DefaultAIConfig(1))

	view, err := c.Pass()
	require.NoError(t, err)
	require.Equal(t, othello.Black, view.NextTurn)
	require.Equal(t, 1, view.PassStreak)
}

func TestControllerChooseAIMove(t *testing.T) {
	ctx := context.Background()

	c, err := NewController(ai.NewPlayer(ai.WithSeed(1)), DefaultAIConfig(1))
	require.NoError(t, err)

	before, err := c.State()
	require.NoError(t, err)

	move, err := c.ChooseAIMove(ctx, 3)
	require.NoError(t, err)
	require.True(t, othello.IsLegalMove(othello.NewBoardStart(), othello.Black, move))

	after, err := c.State()
	require.NoError(t, err)
	require.Equal(t, before, after)

	_, err = c.ChooseAIMove(ctx, -1)
	require.ErrorIs(t, err, ai.ErrInvalidLevel)
}

func TestControllerSetAIConfig(t *testing.T) {
	c, err := NewController(firstMove{}, DefaultAIConfig(1))
	require.NoError(t, err)

	err = c.SetAIConfig(AIConfig{Enabled: true, Level: ai.MaxLevel + 1, Color: othello.Black})
	require.ErrorIs(t, err, ai.ErrInvalidLevel)

	cfg, err := c.AIConfig()
	require.NoError(t, err)
	require.Equal(t, DefaultAIConfig(1), cfg)

	require.NoError(t, c.SetAIConfig(AIConfig{Enabled: true, Level: 4, Color: othello.Black}))

	cfg, err = c.AIConfig()
	require.NoError(t, err)
	require.Equal(t, AIConfig{Enabled: true, Level: 4, Color: othello.Black}, cfg)

	// The AI plays black now, so the human can't move first.
	_, err = c.Put(othello.Move{Row: 2, Col: 3})
	require.ErrorIs(t, err, ErrAITurn)
}

func TestControllerUndo(t *testing.T) {
	ctx := context.Background()

	c, err := NewController(firstMove{}, AIConfig{Enabled: true, Level: 1, Color: othello.White})
	require.NoError(t, err)

	_, err = c.Put(othello.Move{Row: 2, Col: 3})
	require.NoError(t, err)

	_, err = c.Advance(ctx)
	require.NoError(t, err)

	// Both the AI reply and the human move are taken back.
	view, err := c.Undo()
	require.NoError(t, err)
	require.Equal(t, 0, view.PlyCount)
	require.Equal(t, othello.Black, view.NextTurn)

	view, err = c.Undo()
	require.NoError(t, err)
	require.Equal(t, 0, view.PlyCount)
}

func TestControllerBusy(t *testing.T) {
	chooser := &blockingChooser{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	c, err := NewController(chooser, AIConfig{Enabled: true, Level: 1, Color: othello.Black})
	require.NoError(t, err)

	done := make(chan error)
	go func() {
		_, err := c.Advance(context.Background())
		done <- err
	}()

	<-chooser.started

	_, err = c.Put(othello.Move{Row: 2, Col: 3})
	require.ErrorIs(t, err, ErrBusy)

	_, err = c.Pass()
	require.ErrorIs(t, err, ErrBusy)

	_, err = c.View()
	require.ErrorIs(t, err, ErrBusy)

	err = c.SetAIConfig(DefaultAIConfig(1))
	require.ErrorIs(t, err, ErrBusy)

	close(chooser.release)
	require.NoError(t, <-done)

	view, err := c.View()
	require.NoError(t, err)
	require.Equal(t, 1, view.PlyCount)
}

func TestControllerNewGame(t *testing.T) {
	c, err := NewController(nil, DefaultAIConfig(3))
	require.NoError(t, err)

	_, err = c.Put(othello.Move{Row: 2, Col: 3})
	require.NoError(t, err)

	view, err := c.NewGame()
	require.NoError(t, err)
	require.Equal(t, 0, view.PlyCount)

	cfg, err := c.AIConfig()
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Level)
}

func TestStepKindJSON(t *testing.T) {
	text, err := StepMoved.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "moved", string(text))
	require.Equal(t, "game_over", StepGameOver.String())

	var kind StepKind
	require.NoError(t, kind.UnmarshalText([]byte("passed")))
	require.Equal(t, StepPassed, kind)
	require.Error(t, kind.UnmarshalText([]byte("jumped")))
}
