package ai

import (
	"context"
	"math/bits"

	"github.com/deft-reversi/deft/internal/othello"
)

// ctxCheckInterval is the number of nodes between two context checks. Must be a power of two.
const ctxCheckInterval = 1024

type scoredMove struct {
	index int
	score int
}

type search struct {
	ctx    context.Context //nolint:containedctx
	table  *table
	budget uint64

	nodes   uint64
	aborted bool
}

func (s *search) stopped() bool {
	if s.aborted {
		return true
	}

	if s.budget > 0 && s.nodes > s.budget {
		s.aborted = true
	} else if s.nodes&(ctxCheckInterval-1) == 0 && s.ctx.Err() != nil {
		s.aborted = true
	}

	return s.aborted
}

// orderMoves returns the indexes in moves, first before all others, then by descending square weight.
func orderMoves(moves uint64, first int, buf []int) []int {
	for moves != 0 {
		buf = append(buf, bits.TrailingZeros64(moves))
		moves &= moves - 1
	}

	key := func(index int) int {
		if index == first {
			return infinity
		}
		return weights[index]
	}

	// Insertion sort, there are rarely more than 20 moves.
	for i := 1; i < len(buf); i++ {
		for j := i; j > 0 && key(buf[j]) > key(buf[j-1]); j-- {
			buf[j], buf[j-1] = buf[j-1], buf[j]
		}
	}

	return buf
}

func play(player, opponent uint64, index int) (uint64, uint64) {
	flips := othello.PlayerFlips(player, opponent, index)
	return player | flips | uint64(1)<<index, opponent &^ flips
}

// negamax returns the score of the position for player, searched to depth plies.
// Passes do not use up depth. The result is only valid if the search was not aborted.
func (s *search) negamax(player, opponent uint64, depth, alpha, beta int) int {
	s.nodes++
	if s.stopped() {
		return 0
	}

	if depth == 0 {
		return evaluate(player, opponent)
	}

	moves := othello.PlayerMoves(player, opponent)
	if moves == 0 {
		if othello.PlayerMoves(opponent, player) == 0 {
			return terminalScore(player, opponent)
		}
		return -s.negamax(opponent, player, depth, -beta, -alpha)
	}

	alphaOrig := alpha
	ttBest := -1

	// Only entries of the same depth cut off, so results don't depend on earlier searches.
	if e, ok := s.table.lookup(player, opponent); ok {
		ttBest = int(e.best)

		if int(e.depth) == depth {
			score := int(e.score)

			switch e.bound {
			case boundExact:
				return score
			case boundLower:
				alpha = max(alpha, score)
			case boundUpper:
				beta = min(beta, score)
			case boundNone:
			}

			if alpha >= beta {
				return score
			}
		}
	}

	var buf [othello.Squares]int

	best := -infinity
	bestIndex := -1

	for _, index := range orderMoves(moves, ttBest, buf[:0]) {
		childPlayer, childOpponent := play(player, opponent, index)

		score := -s.negamax(childOpponent, childPlayer, depth-1, -beta, -alpha)
		if s.aborted {
			return 0
		}

		if score > best {
			best = score
			bestIndex = index
		}

		alpha = max(alpha, score)
		if alpha >= beta {
			break
		}
	}

	b := boundExact
	if best <= alphaOrig {
		b = boundUpper
	} else if best >= beta {
		b = boundLower
	}

	s.table.store(player, opponent, depth, best, bestIndex, b)

	return best
}

// root searches every move in order to depth. Scores within margin of the best score are exact,
// lower scores may be upper bounds. It returns nil if the search was aborted.
func (s *search) root(player, opponent uint64, order []int, depth, margin int) []scoredMove {
	results := make([]scoredMove, 0, len(order))
	best := -infinity

	for _, index := range order {
		childPlayer, childOpponent := play(player, opponent, index)

		alpha := -infinity
		if best > -infinity {
			alpha = best - margin - 1
		}

		score := -s.negamax(childOpponent, childPlayer, depth-1, -infinity, -alpha)
		if s.aborted {
			return nil
		}

		results = append(results, scoredMove{index: index, score: score})
		best = max(best, score)
	}

	return results
}

// sortScored sorts by descending score, keeping the order of equal scores.
func sortScored(scores []scoredMove) []scoredMove {
	sorted := append([]scoredMove(nil), scores...)

	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].score > sorted[j-1].score; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	return sorted
}
