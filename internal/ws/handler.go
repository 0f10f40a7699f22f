package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/deft-reversi/deft/internal/game"
	"github.com/deft-reversi/deft/internal/models"
	"github.com/deft-reversi/deft/internal/session"
	"github.com/gofiber/contrib/websocket"
)

var (
	ErrNoGame       = errors.New("no game attached, send new_game or join first")
	ErrUnknownEvent = errors.New("unknown event")
)

// Conn is the part of a websocket connection the handler uses.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
}

// Handler serves one websocket connection. A connection plays at most one game at a time.
type Handler struct {
	sessions *session.Manager
	ws       Conn
	gameID   string
}

// NewHandler creates a new Handler.
func NewHandler(ws Conn, sessions *session.Manager) *Handler {
	return &Handler{sessions: sessions, ws: ws}
}

func (h *Handler) readMessage() (*Incoming, error) {
	var req Incoming

	msgType, msg, err := h.ws.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("ws read error: %w", err)
	}

	slog.Debug("read ws message", "msgType", msgType, "msg", string(msg))

	if msgType != websocket.TextMessage {
		return nil, fmt.Errorf("unexpected message type: %d", msgType)
	}

	if err = json.Unmarshal(msg, &req); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	return &req, nil
}

func (h *Handler) writeMessage(outgoing *Outgoing) error {
	msg, err := json.Marshal(outgoing)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	slog.Debug("write ws message", "msg", string(msg))

	if err = h.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	return nil
}

// handleMessage runs one event. Game errors are reported to the client and keep the connection open.
func (h *Handler) handleMessage(ctx context.Context, req *Incoming) *Outgoing {
	data, err := h.dispatch(ctx, req)
	if err != nil {
		slog.Debug("ws event failed", "event", req.Event, "error", err)
		return &Outgoing{ID: req.ID, Error: err.Error()}
	}

	return &Outgoing{ID: req.ID, Data: data}
}

func (h *Handler) dispatch(ctx context.Context, req *Incoming) (any, error) {
	if req.Event == "" {
		return nil, errors.New("event field is either empty or missing")
	}

	switch req.Event {
	case "new_game":
		return h.handleNewGame(ctx, req)
	case "join":
		return h.handleJoin(ctx, req)
	}

	if h.gameID == "" {
		return nil, ErrNoGame
	}

	switch req.Event {
	case "get_board":
		return h.sessions.Get(ctx, h.gameID)
	case "put":
		return h.handlePut(ctx, req)
	case "pass":
		return h.sessions.Pass(ctx, h.gameID)
	case "undo":
		return h.sessions.Undo(ctx, h.gameID)
	case "ai_put":
		step, s, err := h.sessions.Advance(ctx, h.gameID)
		if err != nil {
			return nil, err
		}
		return models.AdvanceResponse{Step: step, Game: s}, nil
	case "is_no_put_place":
		return h.handleQuery(ctx, func(v game.View) bool { return v.MustPass })
	case "is_end_game":
		return h.handleQuery(ctx, func(v game.View) bool { return v.Status == game.GameOver.String() })
	case "set_level":
		return h.handleSetLevel(ctx, req)
	case "hint":
		return h.handleHint(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, req.Event)
	}
}

// Handle handles the websocket connection.
func (h *Handler) Handle() error {
	for {
		req, err := h.readMessage()
		if err != nil {
			return fmt.Errorf("ws read error: %w", err)
		}

		resp := h.handleMessage(context.Background(), req)

		if err = h.writeMessage(resp); err != nil {
			return fmt.Errorf("ws write error: %w", err)
		}
	}
}

func decode(req *Incoming, target any) error {
	if len(req.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(req.Data, target); err != nil {
		return fmt.Errorf("ws %s request unmarshal error: %w", req.Event, err)
	}
	return nil
}

func (h *Handler) handleNewGame(ctx context.Context, req *Incoming) (any, error) {
	var reqData NewGameRequest
	if err := decode(req, &reqData); err != nil {
		return nil, err
	}

	cfg, err := reqData.AIConfig(h.sessions.DefaultAIConfig())
	if err != nil {
		return nil, err
	}

	s, err := h.sessions.Create(ctx, cfg)
	if err != nil {
		return nil, err
	}

	h.gameID = s.ID
	return s, nil
}

func (h *Handler) handleJoin(ctx context.Context, req *Incoming) (any, error) {
	var reqData JoinRequest
	if err := decode(req, &reqData); err != nil {
		return nil, err
	}

	s, err := h.sessions.Get(ctx, reqData.GameID)
	if err != nil {
		return nil, err
	}

	h.gameID = s.ID
	return s, nil
}

func (h *Handler) handlePut(ctx context.Context, req *Incoming) (any, error) {
	var reqData models.MoveRequest
	if err := decode(req, &reqData); err != nil {
		return nil, err
	}

	move, err := reqData.Parse()
	if err != nil {
		return nil, err
	}

	return h.sessions.Put(ctx, h.gameID, move)
}

func (h *Handler) handleQuery(ctx context.Context, query func(game.View) bool) (any, error) {
	s, err := h.sessions.Get(ctx, h.gameID)
	if err != nil {
		return nil, err
	}

	return BoolResponse{Value: query(s.Game)}, nil
}

func (h *Handler) handleSetLevel(ctx context.Context, req *Incoming) (any, error) {
	var reqData LevelRequest
	if err := decode(req, &reqData); err != nil {
		return nil, err
	}

	return h.sessions.SetAI(ctx, h.gameID, func(cfg session.AIConfig) (session.AIConfig, error) {
		cfg.Level = reqData.Level
		return cfg, nil
	})
}

func (h *Handler) handleHint(ctx context.Context, req *Incoming) (any, error) {
	var reqData HintRequest
	if err := decode(req, &reqData); err != nil {
		return nil, err
	}

	var level int
	if reqData.Level != nil {
		level = *reqData.Level
	} else {
		s, err := h.sessions.Get(ctx, h.gameID)
		if err != nil {
			return nil, err
		}
		level = s.AI.Level
	}

	move, err := h.sessions.Hint(ctx, h.gameID, level)
	if err != nil {
		return nil, err
	}

	return models.HintResponse{Move: move, Level: level}, nil
}
