package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deft-reversi/deft/internal/game"
	"github.com/deft-reversi/deft/internal/othello"
	"github.com/google/uuid"
)

// Store persists session states.
type Store interface {
	// Load returns the state of a session, or ErrNotFound.
	Load(ctx context.Context, id string) (State, error)

	Save(ctx context.Context, id string, state State) error
	Delete(ctx context.Context, id string) error

	// Lock acquires the session for one operation. It fails with ErrBusy if the session is locked.
	Lock(ctx context.Context, id string) (unlock func(), err error)
}

// Archiver stores finished games.
type Archiver interface {
	Archive(ctx context.Context, id string, state State) error
}

// Session is a stored game as presented to clients.
type Session struct {
	ID   string    `json:"id"`
	Game game.View `json:"game"`
	AI   AIConfig  `json:"ai"`
}

// DefaultArchiveTimeout bounds the archiving of a finished game.
const DefaultArchiveTimeout = 5 * time.Second

// Manager runs operations on stored sessions.
type Manager struct {
	store          Store
	archiver       Archiver
	player         MoveChooser
	moveTimeout    time.Duration
	archiveTimeout time.Duration
	level          int
}

// AIChange computes a new AI configuration from the current one.
type AIChange func(current AIConfig) (AIConfig, error)

// ReplaceAI returns an AIChange that ignores the current configuration.
func ReplaceAI(cfg AIConfig) AIChange {
	return func(AIConfig) (AIConfig, error) {
		return cfg, nil
	}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithArchiver archives every finished game once.
func WithArchiver(archiver Archiver) ManagerOption {
	return func(m *Manager) {
		m.archiver = archiver
	}
}

// WithMoveTimeout bounds every AI search. Zero means no bound.
func WithMoveTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.moveTimeout = timeout
	}
}

// WithArchiveTimeout bounds every call to the archiver. The session stays locked while archiving,
// so the store's lock TTL must cover it.
func WithArchiveTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.archiveTimeout = timeout
	}
}

// WithDefaultLevel sets the AI level of sessions created without one.
func WithDefaultLevel(level int) ManagerOption {
	return func(m *Manager) {
		m.level = level
	}
}

func NewManager(store Store, player MoveChooser, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:          store,
		player:         player,
		archiveTimeout: DefaultArchiveTimeout,
		level:          2, //nolint:mnd
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// DefaultAIConfig returns the AI configuration of new sessions.
func (m *Manager) DefaultAIConfig() AIConfig {
	return DefaultAIConfig(m.level)
}

// Create starts a new session.
func (m *Manager) Create(ctx context.Context, cfg AIConfig) (Session, error) {
	c, err := NewController(m.player, cfg)
	if err != nil {
		return Session{}, err
	}

	id := uuid.NewString()
	state := c.state()

	if err = m.store.Save(ctx, id, state); err != nil {
		return Session{}, fmt.Errorf("failed to save session: %w", err)
	}

	slog.Info("session created", "id", id, "ai_enabled", cfg.Enabled, "ai_level", cfg.Level, "ai_color", cfg.Color.String())

	return newSession(id, c), nil
}

// Get returns a session without changing it.
func (m *Manager) Get(ctx context.Context, id string) (Session, error) {
	state, err := m.store.Load(ctx, id)
	if err != nil {
		return Session{}, err
	}

	c, err := RestoreController(m.player, state)
	if err != nil {
		return Session{}, err
	}

	return newSession(id, c), nil
}

// Delete removes a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock, err := m.store.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err = m.store.Load(ctx, id); err != nil {
		return err
	}

	return m.store.Delete(ctx, id)
}

// NewGame restarts the game of a session, keeping its AI configuration.
func (m *Manager) NewGame(ctx context.Context, id string) (Session, error) {
	return m.update(ctx, id, func(c *Controller) error {
		c.game = game.New()
		return nil
	}, true)
}

func (m *Manager) Put(ctx context.Context, id string, move othello.Move) (Session, error) {
	return m.update(ctx, id, func(c *Controller) error {
		_, err := c.Put(move)
		return err
	}, false)
}

func (m *Manager) Pass(ctx context.Context, id string) (Session, error) {
	return m.update(ctx, id, func(c *Controller) error {
		_, err := c.Pass()
		return err
	}, false)
}

func (m *Manager) Undo(ctx context.Context, id string) (Session, error) {
	return m.update(ctx, id, func(c *Controller) error {
		_, err := c.Undo()
		return err
	}, false)
}

// SetAI changes the AI configuration of a session. change sees the stored configuration
// while the session is locked, so concurrent partial updates do not overwrite each other.
func (m *Manager) SetAI(ctx context.Context, id string, change AIChange) (Session, error) {
	return m.update(ctx, id, func(c *Controller) error {
		current, err := c.AIConfig()
		if err != nil {
			return err
		}

		cfg, err := change(current)
		if err != nil {
			return err
		}
		return c.SetAIConfig(cfg)
	}, false)
}

// Advance performs the next automatic action of a session, see Controller.Advance.
func (m *Manager) Advance(ctx context.Context, id string) (Step, Session, error) {
	var step Step
	s, err := m.update(ctx, id, func(c *Controller) error {
		searchCtx, cancel := m.searchContext(ctx)
		defer cancel()

		var err error
		step, err = c.Advance(searchCtx)
		return err
	}, false)

	return step, s, err
}

// Hint returns the move the AI would play at level for the side to move. The session is not changed.
func (m *Manager) Hint(ctx context.Context, id string, level int) (othello.Move, error) {
	unlock, err := m.store.Lock(ctx, id)
	if err != nil {
		return othello.Move{}, err
	}
	defer unlock()

	c, err := m.load(ctx, id)
	if err != nil {
		return othello.Move{}, err
	}

	// The timeout bounds the search only, not the store.
	searchCtx, cancel := m.searchContext(ctx)
	defer cancel()

	return c.ChooseAIMove(searchCtx, level)
}

func (m *Manager) searchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.moveTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.moveTimeout)
}

func (m *Manager) archive(ctx context.Context, id string, state State) error {
	if m.archiveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.archiveTimeout)
		defer cancel()
	}
	return m.archiver.Archive(ctx, id, state)
}

func (m *Manager) load(ctx context.Context, id string) (*Controller, error) {
	state, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	c, err := RestoreController(m.player, state)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", id, err)
	}

	return c, nil
}

// update locks, loads, changes and saves a session. Finished games are archived once;
// reset clears the archived flag for a new game.
func (m *Manager) update(ctx context.Context, id string, apply func(c *Controller) error, reset bool) (Session, error) {
	unlock, err := m.store.Lock(ctx, id)
	if err != nil {
		return Session{}, err
	}
	defer unlock()

	state, err := m.store.Load(ctx, id)
	if err != nil {
		return Session{}, err
	}

	c, err := RestoreController(m.player, state)
	if err != nil {
		return Session{}, fmt.Errorf("failed to restore session %s: %w", id, err)
	}

	if err = apply(c); err != nil {
		return Session{}, err
	}

	archived := state.Archived && !reset
	newState := c.state()

	if !archived && m.archiver != nil && c.game.IsEndGame() {
		if err = m.archive(ctx, id, newState); err != nil {
			slog.Error("failed to archive game", "id", id, "err", err)
		} else {
			archived = true
		}
	}

	newState.Archived = archived

	if err = m.store.Save(ctx, id, newState); err != nil {
		return Session{}, fmt.Errorf("failed to save session: %w", err)
	}

	return newSession(id, c), nil
}

func newSession(id string, c *Controller) Session {
	return Session{
		ID:   id,
		Game: c.game.View(),
		AI:   c.ai,
	}
}
