package othello

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Move is a square on the board, addressed by 0-indexed row and column.
// A Move only says where a disc goes; whether it is legal is decided by ApplyMove.
type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// NewMove creates a move and checks that it is on the board.
func NewMove(row, col int) (Move, error) {
	m := Move{Row: row, Col: col}
	if !m.OnBoard() {
		return Move{}, fmt.Errorf("move out of range: row %d, col %d", row, col)
	}
	return m, nil
}

// MoveFromIndex converts a bit index (row*8+col) to a Move.
func MoveFromIndex(index int) Move {
	return Move{Row: index / Size, Col: index % Size}
}

// OnBoard checks whether the move addresses a square on the board.
func (m Move) OnBoard() bool {
	return m.Row >= 0 && m.Row < Size && m.Col >= 0 && m.Col < Size
}

// Index returns the bit index of the move.
func (m Move) Index() int {
	return m.Row*Size + m.Col
}

func (m Move) bit() uint64 {
	return uint64(1) << m.Index()
}

// String returns the move in field notation, column letter first: row 2, col 3 is "d3".
func (m Move) String() string {
	if !m.OnBoard() {
		return "??"
	}
	return string([]byte{byte('a' + m.Col), byte('1' + m.Row)})
}

// IsPassField checks whether a field denotes a pass.
func IsPassField(field string) bool {
	field = strings.ToLower(field)
	return field == "--" || field == "ps" || field == "pa"
}

// ParseMove converts field notation (e.g. "a1", "h8") to a Move.
func ParseMove(field string) (Move, error) {
	if len(field) != 2 {
		return Move{}, fmt.Errorf("invalid field length: %q", field)
	}

	field = strings.ToLower(field)

	if !('a' <= field[0] && field[0] <= 'h' && '1' <= field[1] && field[1] <= '8') {
		return Move{}, fmt.Errorf("invalid field: %q", field)
	}

	return Move{Row: int(field[1] - '1'), Col: int(field[0] - 'a')}, nil
}

// MovesFromMask lists the squares set in mask in row-major order.
func MovesFromMask(mask uint64) []Move {
	moves := make([]Move, 0, 16)
	for index := range Squares {
		if mask&(uint64(1)<<index) != 0 {
			moves = append(moves, MoveFromIndex(index))
		}
	}
	return moves
}

// MarshalText encodes the move in field notation.
func (m Move) MarshalText() ([]byte, error) {
	if !m.OnBoard() {
		return nil, fmt.Errorf("move out of range: row %d, col %d", m.Row, m.Col)
	}
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either field notation ("d3") or an object with row and col.
func (m *Move) UnmarshalJSON(data []byte) error {
	var field string
	if err := json.Unmarshal(data, &field); err == nil {
		parsed, err := ParseMove(field)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}

	var coords struct {
		Row *int `json:"row"`
		Col *int `json:"col"`
	}
	if err := json.Unmarshal(data, &coords); err != nil {
		return fmt.Errorf("invalid move: %w", err)
	}

	if coords.Row == nil || coords.Col == nil {
		return fmt.Errorf("invalid move: row and col are required")
	}

	parsed, err := NewMove(*coords.Row, *coords.Col)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
