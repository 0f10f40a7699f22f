package ai

import (
	"math/bits"

	"github.com/deft-reversi/deft/internal/othello"
)

const (
	// winScore dominates every heuristic value, so a won endgame is always preferred.
	winScore  = 10000
	discScale = 100

	infinity = 1 << 20
)

// weights is the positional value of every square, row-major.
// Squares next to a corner are only penalized while that corner is empty, see positional.
var weights = [othello.Squares]int{
	100, -20, 10, 5, 5, 10, -20, 100,
	-20, -50, -2, -2, -2, -2, -50, -20,
	10, -2, 5, 1, 1, 5, -2, 10,
	5, -2, 1, 1, 1, 1, -2, 5,
	5, -2, 1, 1, 1, 1, -2, 5,
	10, -2, 5, 1, 1, 5, -2, 10,
	-20, -50, -2, -2, -2, -2, -50, -20,
	100, -20, 10, 5, 5, 10, -20, 100,
}

// adjacentCorner maps the X and C squares to the bit of the corner they touch.
var adjacentCorner = buildAdjacentCorner()

func buildAdjacentCorner() [othello.Squares]uint64 {
	var table [othello.Squares]uint64

	corners := [4][2]int{{0, 0}, {0, 7}, {7, 0}, {7, 7}}
	for _, corner := range corners {
		cornerBit := uint64(1) << (corner[0]*othello.Size + corner[1])

		for dRow := -1; dRow <= 1; dRow++ {
			for dCol := -1; dCol <= 1; dCol++ {
				row, col := corner[0]+dRow, corner[1]+dCol
				if (dRow == 0 && dCol == 0) || row < 0 || row >= othello.Size || col < 0 || col >= othello.Size {
					continue
				}
				table[row*othello.Size+col] = cornerBit
			}
		}
	}

	return table
}

// positional sums the square weights of discs. occupied is used to drop the penalty next to taken corners.
func positional(discs, occupied uint64) int {
	score := 0
	for discs != 0 {
		index := bits.TrailingZeros64(discs)
		discs &= discs - 1

		weight := weights[index]
		if weight < 0 && occupied&adjacentCorner[index] != 0 {
			weight = 0
		}
		score += weight
	}
	return score
}

// terminalScore scores a finished game from the perspective of player.
func terminalScore(player, opponent uint64) int {
	return diffScore(othello.PlayerFinalScore(player, opponent))
}

// diffScore maps a final disc difference to a search score.
func diffScore(diff int) int {
	switch {
	case diff > 0:
		return winScore + discScale*diff
	case diff < 0:
		return -winScore + discScale*diff
	default:
		return 0
	}
}

// phaseWeights returns the disc and mobility weights for the number of empty squares.
func phaseWeights(empties int) (disc, mobility int) {
	switch {
	case empties > 40:
		return 0, 8
	case empties > 14:
		return 1, 6
	default:
		return 6, 2
	}
}

// evaluate scores a position from the perspective of player, the side to move.
func evaluate(player, opponent uint64) int {
	myMoves := bits.OnesCount64(othello.PlayerMoves(player, opponent))
	oppMoves := bits.OnesCount64(othello.PlayerMoves(opponent, player))

	if myMoves == 0 && oppMoves == 0 {
		return terminalScore(player, opponent)
	}

	me := bits.OnesCount64(player)
	opp := bits.OnesCount64(opponent)
	empties := othello.Squares - me - opp

	discWeight, mobilityWeight := phaseWeights(empties)

	occupied := player | opponent
	pos := positional(player, occupied) - positional(opponent, occupied)

	return discWeight*(me-opp) + mobilityWeight*(myMoves-oppMoves) + pos
}

// Evaluate returns the static evaluation of board from the perspective of color.
func Evaluate(board othello.Board, color othello.Color) int {
	player := board.Discs(color)
	opponent := board.Discs(othello.Opponent(color))
	return evaluate(player, opponent)
}
