package game //nolint:testpackage

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/deft-reversi/deft/internal/othello"
	"github.com/stretchr/testify/require"
)

func bitAt(row, col int) uint64 {
	return uint64(1) << (row*othello.Size + col)
}

// whiteMustPassBoard has black on a1 and white on b1: black can capture with c1, white has no move.
func whiteMustPassBoard() othello.Board {
	return othello.NewBoardMust(bitAt(0, 0), bitAt(0, 1))
}

func TestNew(t *testing.T) {
	g := New()

	require.Equal(t, AwaitingMove, g.Status())
	require.Equal(t, othello.Black, g.Turn())
	require.Equal(t, 0, g.PlyCount())
	require.Equal(t, 0, g.PassStreak())
	require.False(t, g.IsEndGame())
	require.True(t, g.HasAnyLegalMove())

	black, white := g.Score()
	require.Equal(t, 2, black)
	require.Equal(t, 2, white)

	require.Equal(t, []othello.Move{{Row: 2, Col: 3}, {Row: 3, Col: 2}, {Row: 4, Col: 5}, {Row: 5, Col: 4}}, g.LegalMoves())
}

func TestPut(t *testing.T) {
	g := New()

	require.NoError(t, g.Put(othello.Move{Row: 2, Col: 3}))

	black, white := g.Score()
	require.Equal(t, 4, black)
	require.Equal(t, 1, white)
	require.Equal(t, othello.White, g.Turn())
	require.Equal(t, 1, g.PlyCount())
	require.Equal(t, othello.Black, g.Board().At(3, 3))
}

func TestPutIllegal(t *testing.T) {
	g := New()
	before := g.Snapshot()

	err := g.Put(othello.Move{Row: 0, Col: 0})
	require.ErrorIs(t, err, othello.ErrIllegalMove)

	err = g.Put(othello.Move{Row: 3, Col: 3})
	require.ErrorIs(t, err, othello.ErrIllegalMove)

	require.Equal(t, before, g.Snapshot())
	require.Equal(t, othello.Black, g.Turn())
}

func TestPassWithLegalMove(t *testing.T) {
	g := New()

	err := g.Pass()
	require.ErrorIs(t, err, othello.ErrInvalidPass)
	require.Equal(t, othello.Black, g.Turn())
	require.Equal(t, 0, g.PassStreak())
}

func TestForcedPass(t *testing.T) {
	g := NewFromBoard(whiteMustPassBoard(), othello.White)

	require.False(t, g.HasAnyLegalMove())
	require.Equal(t, AwaitingPass, g.Status())
	require.True(t, g.MustPass())
	require.False(t, g.IsEndGame())

	err := g.Put(othello.Move{Row: 0, Col: 2})
	require.ErrorIs(t, err, othello.ErrIllegalMove)

	require.NoError(t, g.Pass())
	require.Equal(t, othello.Black, g.Turn())
	require.Equal(t, 1, g.PassStreak())
	require.Equal(t, 1, g.PlyCount())
	require.Equal(t, AwaitingMove, g.Status())

	// Black captures the last white disc, nobody can move anymore.
	require.NoError(t, g.Put(othello.Move{Row: 0, Col: 2}))
	require.Equal(t, 0, g.PassStreak())
	require.True(t, g.IsEndGame())
	require.Equal(t, othello.Black, g.Winner())
	require.Empty(t, g.LegalMoves())

	err = g.Pass()
	require.ErrorIs(t, err, othello.ErrInvalidPass)

	require.Equal(t, "-- c1", g.Transcript())
}

func TestPutLeavesPassToCaller(t *testing.T) {
	// After c1 white cannot move, but black can still capture g8 with f8.
	board := othello.NewBoardMust(bitAt(0, 0)|bitAt(7, 7), bitAt(0, 1)|bitAt(7, 6))
	g := NewFromBoard(board, othello.Black)

	require.NoError(t, g.Put(othello.Move{Row: 0, Col: 2}))

	require.Equal(t, othello.White, g.Turn())
	require.Equal(t, AwaitingPass, g.Status())
	require.Equal(t, 0, g.PassStreak())

	require.NoError(t, g.Pass())
	require.Equal(t, othello.Black, g.Turn())

	require.NoError(t, g.Put(othello.Move{Row: 7, Col: 5}))
	require.True(t, g.IsEndGame())

	black, white := g.Score()
	require.Equal(t, 6, black)
	require.Equal(t, 0, white)
}

func TestUndo(t *testing.T) {
	g := New()
	require.False(t, g.Undo())

	require.NoError(t, g.Put(othello.Move{Row: 2, Col: 3}))
	require.NoError(t, g.Put(othello.Move{Row: 2, Col: 2}))
	require.Equal(t, 2, g.PlyCount())

	require.True(t, g.Undo())
	require.Equal(t, 1, g.PlyCount())
	require.Equal(t, othello.White, g.Turn())
	require.Equal(t, "d3", g.Transcript())

	require.True(t, g.Undo())
	require.Equal(t, othello.NewBoardStart(), g.Board())
	require.Equal(t, othello.Black, g.Turn())
}

func TestUndoPass(t *testing.T) {
	board := othello.NewBoardMust(bitAt(0, 0)|bitAt(7, 7), bitAt(0, 1)|bitAt(7, 6))
	g := NewFromBoard(board, othello.Black)

	require.NoError(t, g.Put(othello.Move{Row: 0, Col: 2}))
	require.NoError(t, g.Pass())

	// The pass and the move that forced it are taken back together.
	require.True(t, g.Undo())
	require.Equal(t, board, g.Board())
	require.Equal(t, othello.Black, g.Turn())
	require.Equal(t, 0, g.PlyCount())
}

func TestTranscript(t *testing.T) {
	g, err := NewFromTranscript("d3 c3 c4")
	require.NoError(t, err)
	require.Equal(t, "d3 c3 c4", g.Transcript())
	require.Equal(t, 3, g.PlyCount())
	require.Equal(t, othello.White, g.Turn())

	_, err = NewFromTranscript("d3 d3")
	require.ErrorIs(t, err, othello.ErrIllegalMove)

	_, err = NewFromTranscript("--")
	require.ErrorIs(t, err, othello.ErrInvalidPass)

	_, err = NewFromTranscript("d3 zz")
	require.Error(t, err)
}

func TestSnapshotRestore(t *testing.T) {
	g, err := NewFromTranscript("d3 c3 c4")
	require.NoError(t, err)

	data, err := json.Marshal(g.Snapshot())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "board")
	require.Contains(t, raw, "turn")
	require.Contains(t, raw, "passStreak")

	var snapshot Snapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))

	restored, err := Restore(snapshot)
	require.NoError(t, err)
	require.Equal(t, g.Board(), restored.Board())
	require.Equal(t, g.Turn(), restored.Turn())
	require.Equal(t, g.Transcript(), restored.Transcript())
	require.Equal(t, g.PlyCount(), restored.PlyCount())

	require.True(t, restored.Undo())
	require.Equal(t, "d3 c3", restored.Transcript())
}

func TestRestoreWithoutHistory(t *testing.T) {
	snapshot := Snapshot{
		Board:      whiteMustPassBoard().Grid(),
		Turn:       othello.White,
		PassStreak: 0,
		PlyCount:   12,
	}

	g, err := Restore(snapshot)
	require.NoError(t, err)
	require.Equal(t, AwaitingPass, g.Status())
	require.Equal(t, 12, g.PlyCount())

	require.NoError(t, g.Pass())
	require.Equal(t, 13, g.PlyCount())

	require.True(t, g.Undo())
	require.Equal(t, 12, g.PlyCount())
	require.Equal(t, othello.White, g.Turn())
}

func TestRestoreInvalid(t *testing.T) {
	good := New().Snapshot()

	tests := []struct {
		name   string
		modify func(s *Snapshot)
	}{
		{"bad turn", func(s *Snapshot) { s.Turn = othello.Empty }},
		{"bad cell", func(s *Snapshot) { s.Board[0][0] = othello.Cell(7) }},
		{"bad pass streak", func(s *Snapshot) { s.PassStreak = 3 }},
		{"bad start", func(s *Snapshot) { s.Start = "xyz" }},
		{"illegal move", func(s *Snapshot) { s.Moves = []string{"a1"} }},
		{"moves do not match board", func(s *Snapshot) { s.Moves = []string{"d3"} }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			snapshot := good
			snapshot.Moves = append([]string(nil), good.Moves...)
			test.modify(&snapshot)

			_, err := Restore(snapshot)
			require.Error(t, err)
		})
	}
}

func TestView(t *testing.T) {
	view := New().View()

	require.Equal(t, othello.Black, view.NextTurn)
	require.Equal(t, "awaiting_move", view.Status)
	require.Len(t, view.Hints, 4)
	require.Equal(t, 2, view.Black)
	require.Equal(t, 2, view.White)
	require.Equal(t, othello.Empty, view.Winner)

	grid := view.HintGrid()
	require.Equal(t, HintCode, grid[2][3])
	require.Equal(t, int(othello.White), grid[3][3])
	require.Equal(t, int(othello.Black), grid[3][4])
	require.Equal(t, int(othello.Empty), grid[0][0])
}

func TestRandomGames(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for range 30 {
		g := New()

		for !g.IsEndGame() {
			if g.MustPass() {
				require.NoError(t, g.Pass())
				continue
			}

			require.ErrorIs(t, g.Pass(), othello.ErrInvalidPass)

			moves := g.LegalMoves()
			require.NotEmpty(t, moves)

			discs := g.Board().CountDiscs()
			require.NoError(t, g.Put(moves[rng.Intn(len(moves))]))
			require.Equal(t, discs+1, g.Board().CountDiscs())
		}

		require.True(t, othello.IsTerminal(g.Board()))
		require.Equal(t, len(g.History()), g.PlyCount())

		replayed, err := NewFromTranscript(g.Transcript())
		require.NoError(t, err)
		require.Equal(t, g.Board(), replayed.Board())
	}
}
