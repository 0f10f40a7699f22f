package session_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deft-reversi/deft/internal/ai"
	"github.com/deft-reversi/deft/internal/othello"
	"github.com/deft-reversi/deft/internal/repository"
	"github.com/deft-reversi/deft/internal/session"
	"github.com/stretchr/testify/require"
)

// blockingArchiver waits until its context ends.
type blockingArchiver struct {
	hadDeadline bool
}

func (a *blockingArchiver) Archive(ctx context.Context, _ string, _ session.State) error {
	_, a.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

type fakeArchiver struct {
	mu       sync.Mutex
	archived map[string]session.State
	calls    int
	err      error
}

func (a *fakeArchiver) Archive(_ context.Context, id string, state session.State) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls++
	if a.err != nil {
		return a.err
	}

	if a.archived == nil {
		a.archived = make(map[string]session.State)
	}
	a.archived[id] = state
	return nil
}

func newManager(opts ...session.ManagerOption) (*session.Manager, *repository.MemorySessionRepository) {
	store := repository.NewMemorySessionRepository(time.Hour)
	player := ai.NewPlayer(ai.WithSeed(1))
	return session.NewManager(store, player, opts...), store
}

func playTranscript(t *testing.T, m *session.Manager, id, transcript string) session.Session {
	t.Helper()

	var s session.Session
	for _, field := range strings.Fields(transcript) {
		move, err := othello.ParseMove(field)
		require.NoError(t, err)

		s, err = m.Put(context.Background(), id, move)
		require.NoError(t, err)
	}
	return s
}

func TestManagerCreateGet(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(session.WithDefaultLevel(4))

	cfg := m.DefaultAIConfig()
	require.Equal(t, 4, cfg.Level)
	require.False(t, cfg.Enabled)

	created, err := m.Create(ctx, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, 1, store.Len())

	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	_, err = m.Get(ctx, "missing")
	require.ErrorIs(t, err, session.ErrNotFound)

	_, err = m.Create(ctx, session.AIConfig{Level: 99, Color: othello.White})
	require.ErrorIs(t, err, ai.ErrInvalidLevel)
}

func TestManagerPlay(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager()

	s, err := m.Create(ctx, session.AIConfig{Enabled: true, Level: 1, Color: othello.White})
	require.NoError(t, err)

	_, err = m.Put(ctx, s.ID, othello.Move{Row: 0, Col: 0})
	require.ErrorIs(t, err, othello.ErrIllegalMove)

	s, err = m.Put(ctx, s.ID, othello.Move{Row: 2, Col: 3})
	require.NoError(t, err)
	require.Equal(t, othello.White, s.Game.NextTurn)

	step, s, err := m.Advance(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, session.StepMoved, step.Kind)
	require.NotNil(t, step.Move)
	require.Equal(t, othello.Black, s.Game.NextTurn)
	require.Equal(t, 2, s.Game.PlyCount)

	// The stored session has the AI move.
	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s.Game, got.Game)

	s, err = m.Undo(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, 0, s.Game.PlyCount)

	_, err = m.Pass(ctx, s.ID)
	require.ErrorIs(t, err, othello.ErrInvalidPass)
}

func TestManagerSetAIAndHint(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager()

	s, err := m.Create(ctx, m.DefaultAIConfig())
	require.NoError(t, err)

	_, err = m.SetAI(ctx, s.ID, session.ReplaceAI(session.AIConfig{Enabled: true, Level: -1, Color: othello.Black}))
	require.ErrorIs(t, err, ai.ErrInvalidLevel)

	s, err = m.SetAI(ctx, s.ID, session.ReplaceAI(session.AIConfig{Enabled: true, Level: 3, Color: othello.Black}))
	require.NoError(t, err)
	require.Equal(t, session.AIConfig{Enabled: true, Level: 3, Color: othello.Black}, s.AI)

	move, err := m.Hint(ctx, s.ID, 2)
	require.NoError(t, err)
	require.True(t, othello.IsLegalMove(othello.NewBoardStart(), othello.Black, move))

	// A hint doesn't change the game.
	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Game.PlyCount)

	_, err = m.Hint(ctx, "missing", 2)
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestManagerSetAIPartialUpdates(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager()

	s, err := m.Create(ctx, session.AIConfig{Level: 2, Color: othello.White})
	require.NoError(t, err)

	enable := func(cfg session.AIConfig) (session.AIConfig, error) {
		cfg.Enabled = true
		return cfg, nil
	}
	setLevel := func(cfg session.AIConfig) (session.AIConfig, error) {
		cfg.Level = 4
		return cfg, nil
	}

	// Each change starts from the stored configuration, not from an earlier read.
	_, err = m.SetAI(ctx, s.ID, enable)
	require.NoError(t, err)

	s, err = m.SetAI(ctx, s.ID, setLevel)
	require.NoError(t, err)
	require.Equal(t, session.AIConfig{Enabled: true, Level: 4, Color: othello.White}, s.AI)

	// The change runs while the session is locked.
	var nested error
	_, err = m.SetAI(ctx, s.ID, func(cfg session.AIConfig) (session.AIConfig, error) {
		_, nested = m.SetAI(ctx, s.ID, enable)
		return cfg, nil
	})
	require.NoError(t, err)
	require.ErrorIs(t, nested, session.ErrBusy)

	// A failing change leaves the session untouched.
	changeErr := errors.New("bad change")
	_, err = m.SetAI(ctx, s.ID, func(session.AIConfig) (session.AIConfig, error) {
		return session.AIConfig{}, changeErr
	})
	require.ErrorIs(t, err, changeErr)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s.AI, got.AI)

	_, err = m.SetAI(ctx, "missing", enable)
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestManagerBusy(t *testing.T) {
	ctx := context.Background()
	m, store := newManager()

	s, err := m.Create(ctx, m.DefaultAIConfig())
	require.NoError(t, err)

	unlock, err := store.Lock(ctx, s.ID)
	require.NoError(t, err)

	_, err = m.Put(ctx, s.ID, othello.Move{Row: 2, Col: 3})
	require.ErrorIs(t, err, session.ErrBusy)

	_, _, err = m.Advance(ctx, s.ID)
	require.ErrorIs(t, err, session.ErrBusy)

	err = m.Delete(ctx, s.ID)
	require.ErrorIs(t, err, session.ErrBusy)

	unlock()

	_, err = m.Put(ctx, s.ID, othello.Move{Row: 2, Col: 3})
	require.NoError(t, err)
}

func TestManagerArchive(t *testing.T) {
	ctx := context.Background()
	archiver := &fakeArchiver{}
	m, _ := newManager(session.WithArchiver(archiver))

	s, err := m.Create(ctx, m.DefaultAIConfig())
	require.NoError(t, err)

	s = playTranscript(t, m, s.ID, "e6 f4 e3 f6 g5 d6 e7 f5 c5")
	require.Equal(t, "game_over", s.Game.Status)
	require.Equal(t, 13, s.Game.Black)
	require.Equal(t, 1, archiver.calls)
	require.Contains(t, archiver.archived, s.ID)

	// Later operations on the finished game don't archive it again.
	step, _, err := m.Advance(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, session.StepGameOver, step.Kind)
	require.Equal(t, 1, archiver.calls)

	// A new game in the same session is archived when it ends.
	_, err = m.NewGame(ctx, s.ID)
	require.NoError(t, err)

	playTranscript(t, m, s.ID, "e6 f4 e3 f6 g5 d6 e7 f5 c5")
	require.Equal(t, 2, archiver.calls)
}

func TestManagerArchiveFailure(t *testing.T) {
	ctx := context.Background()
	archiver := &fakeArchiver{err: errors.New("database is down")}
	m, _ := newManager(session.WithArchiver(archiver))

	s, err := m.Create(ctx, m.DefaultAIConfig())
	require.NoError(t, err)

	// The game is saved even if archiving fails, and archiving is retried.
	s = playTranscript(t, m, s.ID, "e6 f4 e3 f6 g5 d6 e7 f5 c5")
	require.Equal(t, "game_over", s.Game.Status)
	require.Equal(t, 1, archiver.calls)

	archiver.err = nil
	_, _, err = m.Advance(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, 2, archiver.calls)
	require.Contains(t, archiver.archived, s.ID)
}

func TestManagerArchiveTimeout(t *testing.T) {
	ctx := context.Background()
	archiver := &blockingArchiver{}
	m, _ := newManager(session.WithArchiver(archiver), session.WithArchiveTimeout(20*time.Millisecond))

	s, err := m.Create(ctx, m.DefaultAIConfig())
	require.NoError(t, err)

	// A stuck archive gives up after the timeout, and the finished game is still saved.
	start := time.Now()
	s = playTranscript(t, m, s.ID, "e6 f4 e3 f6 g5 d6 e7 f5 c5")
	require.Less(t, time.Since(start), 5*time.Second)
	require.True(t, archiver.hadDeadline)
	require.Equal(t, "game_over", s.Game.Status)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s.Game, got.Game)
}

func TestManagerDelete(t *testing.T) {
	ctx := context.Background()
	m, store := newManager()

	s, err := m.Create(ctx, m.DefaultAIConfig())
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, s.ID))
	require.Equal(t, 0, store.Len())

	err = m.Delete(ctx, s.ID)
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestManagerSelfPlay(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(session.WithMoveTimeout(time.Second))

	s, err := m.Create(ctx, session.AIConfig{Enabled: true, Level: 0, Color: othello.White})
	require.NoError(t, err)

	// The human side is played with hints.
	for s.Game.Status != "game_over" {
		if s.Game.NextTurn == othello.Black && s.Game.Status == "awaiting_move" {
			move, err := m.Hint(ctx, s.ID, 0)
			require.NoError(t, err)

			s, err = m.Put(ctx, s.ID, move)
			require.NoError(t, err)
			continue
		}

		var step session.Step
		step, s, err = m.Advance(ctx, s.ID)
		require.NoError(t, err)
		require.NotEqual(t, session.StepNone, step.Kind)
	}

	require.Equal(t, othello.Squares, s.Game.Black+s.Game.White+countEmpty(s))
}

func countEmpty(s session.Session) int {
	count := 0
	for _, row := range s.Game.Board {
		for _, cell := range row {
			if cell == othello.Empty {
				count++
			}
		}
	}
	return count
}
