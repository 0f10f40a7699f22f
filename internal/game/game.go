package game

import (
	"fmt"
	"strings"

	"github.com/deft-reversi/deft/internal/othello"
)

// Status is the state of a game from the point of view of the side to move.
type Status int

const (
	// AwaitingMove means the side to move has at least one legal move.
	AwaitingMove Status = iota

	// AwaitingPass means the side to move has no legal move but the opponent has. The side to move must pass.
	AwaitingPass

	// GameOver means neither side can move, either by board state or by two consecutive passes.
	GameOver
)

// String returns the name of the status.
func (s Status) String() string {
	switch s {
	case AwaitingMove:
		return "awaiting_move"
	case AwaitingPass:
		return "awaiting_pass"
	case GameOver:
		return "game_over"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Ply is one turn of one player: a disc placement or a pass.
type Ply struct {
	Color othello.Color
	Move  othello.Move
	Pass  bool
}

// String returns the ply in field notation. Passes are written as "--".
func (p Ply) String() string {
	if p.Pass {
		return "--"
	}
	return p.Move.String()
}

// Game represents an Othello game in progress or finished.
type Game struct {
	// start is the board before any ply is played. This allows custom start positions.
	start     othello.Board
	startTurn othello.Color
	startPly  int

	// startPassStreak is non-zero only for games restored from a position without history.
	startPassStreak int

	board      othello.Board
	turn       othello.Color
	plyCount   int
	passStreak int

	// history holds all plies, passes included.
	history []Ply
}

// New creates a game with the standard opening position, black to move.
func New() *Game {
	return NewFromBoard(othello.NewBoardStart(), othello.Black)
}

// NewFromBoard creates a game starting from a custom board with the given side to move.
func NewFromBoard(board othello.Board, turn othello.Color) *Game {
	if !othello.IsColor(turn) {
		turn = othello.Black
	}

	return &Game{
		start:     board,
		startTurn: turn,
		board:     board,
		turn:      turn,
		history:   make([]Ply, 0, 64),
	}
}

// NewFromTranscript creates a game from the standard start and a list of fields, e.g. "f5 d6 c3".
// Passes may be written as "--" or left out; a missing forced pass is inserted automatically.
func NewFromTranscript(transcript string) (*Game, error) {
	g := New()

	for _, field := range strings.Fields(transcript) {
		if othello.IsPassField(field) {
			if err := g.Pass(); err != nil {
				return nil, fmt.Errorf("failed to pass: %w", err)
			}
			continue
		}

		move, err := othello.ParseMove(field)
		if err != nil {
			return nil, fmt.Errorf("failed to parse move %s: %w", field, err)
		}

		// Some transcripts don't mark passed moves.
		if g.Status() == AwaitingPass {
			if err = g.Pass(); err != nil {
				return nil, fmt.Errorf("failed to pass: %w", err)
			}
		}

		if err = g.Put(move); err != nil {
			return nil, fmt.Errorf("failed to play %s: %w", field, err)
		}
	}

	return g, nil
}

// Board returns the current board.
func (g *Game) Board() othello.Board {
	return g.board
}

// StartBoard returns the board before the first ply.
func (g *Game) StartBoard() othello.Board {
	return g.start
}

// Turn returns the color to move.
func (g *Game) Turn() othello.Color {
	return g.turn
}

// PlyCount returns the number of plies played, passes included.
func (g *Game) PlyCount() int {
	return g.plyCount
}

// PassStreak returns the number of consecutive passes.
func (g *Game) PassStreak() int {
	return g.passStreak
}

// History returns a copy of all plies played.
func (g *Game) History() []Ply {
	return append([]Ply(nil), g.history...)
}

// LastPly returns the most recent ply, if any.
func (g *Game) LastPly() (Ply, bool) {
	if len(g.history) == 0 {
		return Ply{}, false
	}
	return g.history[len(g.history)-1], true
}

// Status computes the state of the game.
func (g *Game) Status() Status {
	if g.passStreak >= 2 || othello.IsTerminal(g.board) {
		return GameOver
	}

	if !othello.HasAnyLegalMove(g.board, g.turn) {
		return AwaitingPass
	}

	return AwaitingMove
}

// LegalMoves returns the legal moves of the side to move.
func (g *Game) LegalMoves() []othello.Move {
	if g.passStreak >= 2 {
		return []othello.Move{}
	}
	return othello.LegalMoves(g.board, g.turn)
}

// HasAnyLegalMove checks whether the side to move can place a disc.
func (g *Game) HasAnyLegalMove() bool {
	return g.passStreak < 2 && othello.HasAnyLegalMove(g.board, g.turn)
}

// MustPass checks whether the side to move has to pass before play continues.
func (g *Game) MustPass() bool {
	return g.Status() == AwaitingPass
}

// IsEndGame checks whether the game is over.
func (g *Game) IsEndGame() bool {
	return g.Status() == GameOver
}

// Score returns the disc counts of black and white.
func (g *Game) Score() (black, white int) {
	return othello.Score(g.board)
}

// Winner returns the color with most discs, or Empty on a draw or unfinished game.
func (g *Game) Winner() othello.Color {
	if !g.IsEndGame() {
		return othello.Empty
	}

	black, white := g.Score()
	switch {
	case black > white:
		return othello.Black
	case white > black:
		return othello.White
	default:
		return othello.Empty
	}
}

// Put places a disc for the side to move. On error the game is left unchanged.
// Put never passes for the next player: if the next player cannot move, Status becomes AwaitingPass.
func (g *Game) Put(move othello.Move) error {
	if status := g.Status(); status != AwaitingMove {
		return fmt.Errorf("%w: cannot put %s while %s", othello.ErrIllegalMove, move, status)
	}

	board, err := othello.ApplyMove(g.board, g.turn, move)
	if err != nil {
		return err
	}

	g.history = append(g.history, Ply{Color: g.turn, Move: move})
	g.board = board
	g.turn = othello.Opponent(g.turn)
	g.passStreak = 0
	g.plyCount++

	return nil
}

// Pass forfeits the turn of the side to move. It is only allowed without legal moves on a non-terminal board.
func (g *Game) Pass() error {
	if status := g.Status(); status != AwaitingPass {
		return fmt.Errorf("%w: %s cannot pass while %s", othello.ErrInvalidPass, g.turn, status)
	}

	g.history = append(g.history, Ply{Color: g.turn, Pass: true})
	g.turn = othello.Opponent(g.turn)
	g.passStreak++
	g.plyCount++

	return nil
}

// Undo takes back the last ply. If that ply is a pass, the move before it is taken back too,
// so Undo never stops at a position where the side to move has to pass.
// It returns false if there is nothing to undo.
func (g *Game) Undo() bool {
	if len(g.history) == 0 {
		return false
	}

	popped := 1
	if g.history[len(g.history)-1].Pass && len(g.history) >= 2 {
		popped = 2
	}

	return g.replay(g.history[:len(g.history)-popped]) == nil
}

// replay resets the game to its start board and plays the given plies.
func (g *Game) replay(plies []Ply) error {
	plies = append([]Ply(nil), plies...)

	g.board = g.start
	g.turn = g.startTurn
	g.plyCount = g.startPly
	g.passStreak = g.startPassStreak
	g.history = g.history[:0]

	for _, ply := range plies {
		var err error
		if ply.Pass {
			err = g.Pass()
		} else {
			err = g.Put(ply.Move)
		}

		if err != nil {
			return fmt.Errorf("failed to replay ply %d (%s): %w", g.plyCount+1, ply, err)
		}
	}

	return nil
}

// Transcript returns all plies in field notation separated by spaces.
func (g *Game) Transcript() string {
	fields := make([]string, len(g.history))
	for i, ply := range g.history {
		fields[i] = ply.String()
	}
	return strings.Join(fields, " ")
}

// Clone returns an independent copy of the game.
func (g *Game) Clone() *Game {
	clone := *g
	clone.history = append(make([]Ply, 0, cap(g.history)), g.history...)
	return &clone
}
