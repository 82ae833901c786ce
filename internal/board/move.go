package board

import (
	"errors"
	"fmt"
)

// ErrIllegalMove is returned when a move string names a move that is not
// legal in the given position.
var ErrIllegalMove = errors.New("illegal move")

// Move encodes a chess move as a (from, to) pair:
// bits 0-5:   from square (0-63)
// bits 6-11:  to square (0-63)
// Promotion, castling and en passant are not stored; ApplyMove infers them
// from the moving piece and the geometry of the move.
type Move uint16

// NoMove represents an invalid or null move.
const NoMove Move = 0

// NewMove creates a move.
func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<6
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// IsCapture returns true if this move captures a piece.
func (m Move) IsCapture(pos *Position) bool {
	if !pos.IsEmpty(m.To()) {
		return true
	}
	return pos.Pieces[pos.SideToMove][Pawn].IsSet(m.From()) && m.To() == pos.EnPassant
}

// IsPromotion reports whether m moves a pawn onto its last rank in pos.
func (m Move) IsPromotion(pos *Position) bool {
	piece := pos.PieceAt(m.From())
	return piece.Type() == Pawn && m.To().RelativeRank(piece.Color()) == 7
}

// String returns the from/to squares in UCI format (e.g., "e2e4").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	return m.From().String() + m.To().String()
}

// UCI returns the move in UCI format, with the "q" suffix on promotions.
func (p *Position) UCI(m Move) string {
	if m == NoMove {
		return "0000"
	}
	if m.IsPromotion(p) {
		return m.String() + "q"
	}
	return m.String()
}

// ParseMove parses a UCI format move string and checks it is legal in pos.
// Pawns always promote to a queen, so the only accepted suffix is "q".
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("invalid move string %q: %w", s, ErrIllegalMove)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	m := NewMove(from, to)
	if len(s) == 5 && (s[4] != 'q' || !m.IsPromotion(pos)) {
		return NoMove, fmt.Errorf("%s: unsupported promotion %q: %w", s, s[4], ErrIllegalMove)
	}
	if !pos.GenerateLegalMoves().Contains(m) {
		return NoMove, fmt.Errorf("%s: %w", s, ErrIllegalMove)
	}
	return m, nil
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}
