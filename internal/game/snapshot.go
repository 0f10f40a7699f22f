package game

import (
	"errors"
	"fmt"

	"github.com/deft-reversi/deft/internal/othello"
)

// HintCode marks a legal move in HintGrid. It is never stored on a board.
const HintCode = 3

// Snapshot is the serializable form of a Game.
// Board, Turn and PassStreak fully describe the position. The Start fields and Moves
// carry the history so that undo keeps working after a restore.
type Snapshot struct {
	Board      [othello.Size][othello.Size]othello.Cell `json:"board"`
	Turn       othello.Color                             `json:"turn"`
	PassStreak int                                       `json:"passStreak"`
	PlyCount   int                                       `json:"plyCount"`
	Start      string                                    `json:"start,omitempty"`
	StartTurn  othello.Color                             `json:"startTurn,omitempty"`
	StartPly   int                                       `json:"startPly,omitempty"`
	StartPass  int                                       `json:"startPassStreak,omitempty"`
	Moves      []string                                  `json:"moves,omitempty"`
}

// Snapshot returns the serializable form of the game.
func (g *Game) Snapshot() Snapshot {
	moves := make([]string, len(g.history))
	for i, ply := range g.history {
		moves[i] = ply.String()
	}

	return Snapshot{
		Board:      g.board.Grid(),
		Turn:       g.turn,
		PassStreak: g.passStreak,
		PlyCount:   g.plyCount,
		Start:      g.start.String(),
		StartTurn:  g.startTurn,
		StartPly:   g.startPly,
		StartPass:  g.startPassStreak,
		Moves:      moves,
	}
}

// Restore creates a game from a snapshot.
// If the snapshot carries a history, it is replayed and must end in the stored board.
func Restore(s Snapshot) (*Game, error) {
	board, err := othello.NewBoardFromGrid(s.Board)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot board: %w", err)
	}

	if !othello.IsColor(s.Turn) {
		return nil, fmt.Errorf("invalid snapshot turn: %d", int(s.Turn))
	}

	if s.PassStreak < 0 || s.PassStreak > 2 {
		return nil, fmt.Errorf("invalid snapshot pass streak: %d", s.PassStreak)
	}

	if s.Start == "" && len(s.Moves) == 0 {
		g := NewFromBoard(board, s.Turn)
		g.passStreak = s.PassStreak
		g.startPassStreak = s.PassStreak
		g.plyCount = s.PlyCount
		g.startPly = s.PlyCount
		return g, nil
	}

	start := othello.NewBoardStart()
	if s.Start != "" {
		if start, err = othello.ParseBoard(s.Start); err != nil {
			return nil, fmt.Errorf("invalid snapshot start: %w", err)
		}
	}

	startTurn := s.StartTurn
	if !othello.IsColor(startTurn) {
		startTurn = othello.Black
	}

	plies := make([]Ply, len(s.Moves))
	for i, field := range s.Moves {
		if othello.IsPassField(field) {
			plies[i] = Ply{Pass: true}
			continue
		}

		move, err := othello.ParseMove(field)
		if err != nil {
			return nil, fmt.Errorf("invalid snapshot move %d: %w", i, err)
		}
		plies[i] = Ply{Move: move}
	}

	if s.StartPass < 0 || s.StartPass > 2 {
		return nil, fmt.Errorf("invalid snapshot start pass streak: %d", s.StartPass)
	}

	g := NewFromBoard(start, startTurn)
	g.startPly = s.StartPly
	g.startPassStreak = s.StartPass

	if err = g.replay(plies); err != nil {
		return nil, err
	}

	if g.board != board || g.turn != s.Turn || g.passStreak != s.PassStreak {
		return nil, errors.New("invalid snapshot: moves do not lead to the stored board")
	}

	return g, nil
}

// View is the board as shown to a player: discs, placement hints and the score.
type View struct {
	Board      [othello.Size][othello.Size]othello.Cell `json:"board"`
	Hints      []othello.Move                            `json:"hints"`
	NextTurn   othello.Color                             `json:"next_turn"`
	Status     string                                    `json:"status"`
	MustPass   bool                                      `json:"must_pass"`
	Black      int                                       `json:"black"`
	White      int                                       `json:"white"`
	Winner     othello.Color                             `json:"winner"`
	PlyCount   int                                       `json:"ply_count"`
	PassStreak int                                       `json:"pass_streak"`
	LastPly    string                                    `json:"last_ply,omitempty"`
}

// View returns the presentation of the current position.
func (g *Game) View() View {
	black, white := g.Score()
	status := g.Status()

	view := View{
		Board:      g.board.Grid(),
		Hints:      g.LegalMoves(),
		NextTurn:   g.turn,
		Status:     status.String(),
		MustPass:   status == AwaitingPass,
		Black:      black,
		White:      white,
		Winner:     g.Winner(),
		PlyCount:   g.plyCount,
		PassStreak: g.passStreak,
	}

	if last, ok := g.LastPly(); ok {
		view.LastPly = last.String()
	}

	return view
}

// HintGrid returns the board as cell codes with HintCode on every legal move.
func (v View) HintGrid() [othello.Size][othello.Size]int {
	var grid [othello.Size][othello.Size]int
	for row := range othello.Size {
		for col := range othello.Size {
			grid[row][col] = int(v.Board[row][col])
		}
	}

	for _, hint := range v.Hints {
		grid[hint.Row][hint.Col] = HintCode
	}

	return grid
}
