package othello

import (
	"fmt"
	"math/bits"
	"strconv"
)

const (
	Size    = 8
	Squares = Size * Size

	// startBlack holds e4 and d5, startWhite holds d4 and e5.
	startBlack = 0x0000000810000000
	startWhite = 0x0000001008000000

	BoardStringLength = 32
)

// Cell is the content of a single square. The values double as wire codes.
type Cell int

const (
	Empty Cell = iota
	Black
	White
)

// String returns a human readable name of the cell.
func (c Cell) String() string {
	switch c {
	case Empty:
		return "empty"
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "Cell(" + strconv.Itoa(int(c)) + ")"
	}
}

// Color is the color of a player. Only Black and White are valid colors.
type Color = Cell

// Opponent returns the other color.
func Opponent(c Color) Color {
	return Black + White - c
}

// IsColor checks whether c is Black or White.
func IsColor(c Cell) bool {
	return c == Black || c == White
}

// ParseColor parses "black"/"white" (or "b"/"w") into a Color.
func ParseColor(s string) (Color, error) {
	switch s {
	case "black", "b", "1":
		return Black, nil
	case "white", "w", "2":
		return White, nil
	default:
		return Empty, fmt.Errorf("invalid color: %q", s)
	}
}

// Board represents an 8x8 Othello board as two bitboards.
// Bit index row*8+col is set when the square holds a disc of that color.
type Board struct {
	black uint64
	white uint64
}

// NewBoard creates a board from a black and white bitboard.
func NewBoard(black, white uint64) (Board, error) {
	if black&white != 0 {
		return Board{}, fmt.Errorf("invalid board: black and white discs cannot overlap")
	}

	return Board{black: black, white: white}, nil
}

// NewBoardMust creates a board like NewBoard and panics if it is invalid.
func NewBoardMust(black, white uint64) Board {
	b, err := NewBoard(black, white)
	if err != nil {
		panic(err)
	}
	return b
}

// NewBoardStart creates a board with the standard opening position.
func NewBoardStart() Board {
	return NewBoardMust(startBlack, startWhite)
}

// NewBoardEmpty creates a board without discs.
func NewBoardEmpty() Board {
	return Board{}
}

// NewBoardFromGrid creates a board from a row-major grid of cells.
func NewBoardFromGrid(grid [Size][Size]Cell) (Board, error) {
	var black, white uint64

	for row := range Size {
		for col := range Size {
			mask := uint64(1) << (row*Size + col)

			switch grid[row][col] {
			case Empty:
			case Black:
				black |= mask
			case White:
				white |= mask
			default:
				return Board{}, fmt.Errorf("invalid cell %d at row %d, col %d", int(grid[row][col]), row, col)
			}
		}
	}

	return NewBoard(black, white)
}

// ParseBoard parses the output of Board.String.
func ParseBoard(s string) (Board, error) {
	if len(s) != BoardStringLength {
		return Board{}, fmt.Errorf("board string must be %d characters long, got %d", BoardStringLength, len(s))
	}

	black, err := strconv.ParseUint(s[:16], 16, 64)
	if err != nil {
		return Board{}, fmt.Errorf("invalid black discs: %w", err)
	}

	white, err := strconv.ParseUint(s[16:], 16, 64)
	if err != nil {
		return Board{}, fmt.Errorf("invalid white discs: %w", err)
	}

	return NewBoard(black, white)
}

// Discs returns the bitboard of the given color.
func (b Board) Discs(c Color) uint64 {
	switch c {
	case Black:
		return b.black
	case White:
		return b.white
	default:
		return 0
	}
}

// Empties returns the bitboard of empty squares.
func (b Board) Empties() uint64 {
	return ^(b.black | b.white)
}

// At returns the cell at the given row and column.
func (b Board) At(row, col int) Cell {
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return Empty
	}

	mask := uint64(1) << (row*Size + col)
	switch {
	case b.black&mask != 0:
		return Black
	case b.white&mask != 0:
		return White
	default:
		return Empty
	}
}

// Grid returns the board as a row-major grid.
func (b Board) Grid() [Size][Size]Cell {
	var grid [Size][Size]Cell
	for row := range Size {
		for col := range Size {
			grid[row][col] = b.At(row, col)
		}
	}
	return grid
}

// Count returns the number of discs of the given color.
func (b Board) Count(c Color) int {
	return bits.OnesCount64(b.Discs(c))
}

// CountDiscs returns the number of discs on the board.
func (b Board) CountDiscs() int {
	return bits.OnesCount64(b.black | b.white)
}

// CountEmpties returns the number of empty squares.
func (b Board) CountEmpties() int {
	return Squares - b.CountDiscs()
}

// IsFull returns whether every square holds a disc.
func (b Board) IsFull() bool {
	return b.black|b.white == ^uint64(0)
}

// playerOpponent returns the bitboards from the perspective of color c.
func (b Board) playerOpponent(c Color) (uint64, uint64) {
	if c == White {
		return b.white, b.black
	}
	return b.black, b.white
}

// fromPlayerOpponent is the inverse of playerOpponent.
func fromPlayerOpponent(c Color, player, opponent uint64) Board {
	if c == White {
		return Board{black: opponent, white: player}
	}
	return Board{black: player, white: opponent}
}

// ASCIIArtLines returns the board drawn as text. Squares set in hints are marked with a dot.
func (b Board) ASCIIArtLines(hints uint64) []string {
	lines := make([]string, Size+2)

	lines[0] = "+-a-b-c-d-e-f-g-h-+"
	for row := range Size {
		line := fmt.Sprintf("%d ", row+1)

		for col := range Size {
			mask := uint64(1) << (row*Size + col)

			switch {
			case b.white&mask != 0:
				line += "○ "
			case b.black&mask != 0:
				line += "● "
			case hints&mask != 0:
				line += "· "
			default:
				line += "  "
			}
		}

		lines[row+1] = line + "|"
	}

	lines[Size+1] = "+-----------------+"

	return lines
}

// String returns the board as 32 hex characters: black discs followed by white discs.
func (b Board) String() string {
	return fmt.Sprintf("%016x%016x", b.black, b.white)
}
