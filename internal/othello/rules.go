package othello

import (
	"errors"
	"fmt"
	"math/bits"
)

var (
	// ErrIllegalMove is returned when a disc cannot be placed on the requested square.
	ErrIllegalMove = errors.New("illegal move")

	// ErrInvalidPass is returned when a player tries to pass while having a legal move.
	ErrInvalidPass = errors.New("invalid pass")
)

// directions contains the 8 (dRow, dCol) steps a capture can run along.
var directions = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// moves returns a bitset with all valid moves for player.
// This code is adapted from Edax.
func moves(player, opponent uint64) uint64 {
	mask := opponent & 0x7E7E7E7E7E7E7E7E

	flipL := mask & (player << 1)
	flipL |= mask & (flipL << 1)
	maskL := mask & (mask << 1)
	flipL |= maskL & (flipL << (2 * 1))
	flipL |= maskL & (flipL << (2 * 1))
	flipR := mask & (player >> 1)
	flipR |= mask & (flipR >> 1)
	maskR := mask & (mask >> 1)
	flipR |= maskR & (flipR >> (2 * 1))
	flipR |= maskR & (flipR >> (2 * 1))
	movesSet := (flipL << 1) | (flipR >> 1)

	flipL = mask & (player << 7)
	flipL |= mask & (flipL << 7)
	maskL = mask & (mask << 7)
	flipL |= maskL & (flipL << (2 * 7))
	flipL |= maskL & (flipL << (2 * 7))
	flipR = mask & (player >> 7)
	flipR |= mask & (flipR >> 7)
	maskR = mask & (mask >> 7)
	flipR |= maskR & (flipR >> (2 * 7))
	flipR |= maskR & (flipR >> (2 * 7))
	movesSet |= (flipL << 7) | (flipR >> 7)

	flipL = mask & (player << 9)
	flipL |= mask & (flipL << 9)
	maskL = mask & (mask << 9)
	flipL |= maskL & (flipL << (2 * 9))
	flipL |= maskL & (flipL << (2 * 9))
	flipR = mask & (player >> 9)
	flipR |= mask & (flipR >> 9)
	maskR = mask & (mask >> 9)
	flipR |= maskR & (flipR >> (2 * 9))
	flipR |= maskR & (flipR >> (2 * 9))
	movesSet |= (flipL << 9) | (flipR >> 9)

	flipL = opponent & (player << 8)
	flipL |= opponent & (flipL << 8)
	maskL = opponent & (opponent << 8)
	flipL |= maskL & (flipL << (2 * 8))
	flipL |= maskL & (flipL << (2 * 8))
	flipR = opponent & (player >> 8)
	flipR |= opponent & (flipR >> 8)
	maskR = opponent & (opponent >> 8)
	flipR |= maskR & (flipR >> (2 * 8))
	flipR |= maskR & (flipR >> (2 * 8))
	movesSet |= (flipL << 8) | (flipR >> 8)

	movesSet &^= player | opponent
	return movesSet
}

// flipped returns the opponent discs captured when player places a disc at index.
// Every direction is checked, so a move capturing along several lines flips all of them.
func flipped(player, opponent uint64, index int) uint64 {
	moveBit := uint64(1) << index

	if (player|opponent)&moveBit != 0 {
		return 0
	}

	row, col := index/Size, index%Size
	flips := uint64(0)

	for _, dir := range directions {
		dRow, dCol := dir[0], dir[1]
		run := uint64(0)

		r, c := row+dRow, col+dCol
		for r >= 0 && r < Size && c >= 0 && c < Size {
			curBit := uint64(1) << (r*Size + c)

			if opponent&curBit != 0 {
				run |= curBit
				r += dRow
				c += dCol
				continue
			}

			if player&curBit != 0 {
				flips |= run
			}
			break
		}
	}

	return flips
}

// PlayerMoves returns the legal move bitset for a side-to-move/opponent bitboard pair.
func PlayerMoves(player, opponent uint64) uint64 {
	return moves(player, opponent)
}

// PlayerFlips returns the discs captured by player at index for a side-to-move/opponent pair.
func PlayerFlips(player, opponent uint64, index int) uint64 {
	return flipped(player, opponent, index)
}

// LegalMoveMask returns a bitset with all legal moves of color c.
func LegalMoveMask(b Board, c Color) uint64 {
	if !IsColor(c) {
		return 0
	}
	player, opponent := b.playerOpponent(c)
	return moves(player, opponent)
}

// LegalMoves returns all legal moves of color c in row-major order.
func LegalMoves(b Board, c Color) []Move {
	return MovesFromMask(LegalMoveMask(b, c))
}

// CountLegalMoves returns the number of legal moves of color c.
func CountLegalMoves(b Board, c Color) int {
	return bits.OnesCount64(LegalMoveMask(b, c))
}

// HasAnyLegalMove checks whether color c can place a disc.
func HasAnyLegalMove(b Board, c Color) bool {
	return LegalMoveMask(b, c) != 0
}

// IsLegalMove checks whether color c may place a disc on m.
func IsLegalMove(b Board, c Color, m Move) bool {
	return m.OnBoard() && LegalMoveMask(b, c)&m.bit() != 0
}

// Flips returns the discs that would be captured if color c played m. It is 0 for illegal moves.
func Flips(b Board, c Color, m Move) uint64 {
	if !IsColor(c) || !m.OnBoard() {
		return 0
	}
	player, opponent := b.playerOpponent(c)
	return flipped(player, opponent, m.Index())
}

// ApplyMove places a disc of color c on m and flips all captured discs.
// The input board is left untouched; the returned board has all flips applied.
func ApplyMove(b Board, c Color, m Move) (Board, error) {
	if !IsColor(c) {
		return b, fmt.Errorf("%w: invalid color %d", ErrIllegalMove, int(c))
	}

	if !m.OnBoard() {
		return b, fmt.Errorf("%w: row %d, col %d is off the board", ErrIllegalMove, m.Row, m.Col)
	}

	player, opponent := b.playerOpponent(c)
	moveBit := m.bit()

	if (player|opponent)&moveBit != 0 {
		return b, fmt.Errorf("%w: %s is occupied", ErrIllegalMove, m)
	}

	flips := flipped(player, opponent, m.Index())
	if flips == 0 {
		return b, fmt.Errorf("%w: %s captures no discs for %s", ErrIllegalMove, m, c)
	}

	player |= flips | moveBit
	opponent &^= flips

	return fromPlayerOpponent(c, player, opponent), nil
}

// IsTerminal checks whether neither color has a legal move. This includes the full board.
func IsTerminal(b Board) bool {
	return !HasAnyLegalMove(b, Black) && !HasAnyLegalMove(b, White)
}

// Score returns the disc counts of black and white.
func Score(b Board) (black, white int) {
	return b.Count(Black), b.Count(White)
}

// FinalScore returns the disc difference from the perspective of color c,
// with empty squares awarded to the winner.
func FinalScore(b Board, c Color) int {
	player, opponent := b.playerOpponent(c)
	return finalScore(player, opponent)
}

func finalScore(player, opponent uint64) int {
	me := bits.OnesCount64(player)
	opp := bits.OnesCount64(opponent)
	empties := Squares - me - opp

	switch {
	case me > opp:
		return me - opp + empties
	case opp > me:
		return me - opp - empties
	default:
		return 0
	}
}

// PlayerFinalScore is FinalScore for a side-to-move/opponent bitboard pair.
func PlayerFinalScore(player, opponent uint64) int {
	return finalScore(player, opponent)
}
