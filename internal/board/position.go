package board

import (
	"errors"
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, ch := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(ch)
		}
	}
	return sb.String()
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	return cr&castleRight(c, kingSide) != 0
}

func castleRight(c Color, kingSide bool) CastlingRights {
	right := WhiteQueenSideCastle
	if kingSide {
		right = WhiteKingSideCastle
	}
	if c == Black {
		right <<= 2
	}
	return right
}

// castleRightsLost lists the rights revoked when a move starts or ends on a
// square. A king or rook leaving home, or a rook being captured there, loses
// the matching right.
var castleRightsLost = func() [64]CastlingRights {
	var t [64]CastlingRights
	t[E1] = WhiteKingSideCastle | WhiteQueenSideCastle
	t[H1] = WhiteKingSideCastle
	t[A1] = WhiteQueenSideCastle
	t[E8] = BlackKingSideCastle | BlackQueenSideCastle
	t[H8] = BlackKingSideCastle
	t[A8] = BlackQueenSideCastle
	return t
}()

// Position represents a complete chess position. It is a plain value: the
// search copies it per branch and never undoes moves.
type Position struct {
	// Piece bitboards: [Color][PieceType]
	Pieces [2][6]Bitboard

	// Occupancy bitboards (cached for efficiency)
	Occupied    [2]Bitboard // All pieces of each color
	AllOccupied Bitboard    // All pieces on the board

	// Game state
	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // Target square for en passant, NoSquare if none
	HalfMoveClock  int    // Plies since last pawn move or capture
	FullMoveNumber int    // Full move counter, starts at 1
}

// Placement is one occupied square, as reported by Positions.
type Placement struct {
	Color  Color
	Type   PieceType
	Square Square
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// NewEmptyPosition returns a board with no pieces, White to move.
func NewEmptyPosition() *Position {
	p := &Position{}
	p.Clear()
	return p
}

// Copy creates a deep copy of the position.
func (p *Position) Copy() *Position {
	newPos := *p
	return &newPos
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)
	if p.AllOccupied&bb == 0 {
		return NoPiece
	}

	c := White
	if p.Occupied[Black]&bb != 0 {
		c = Black
	}

	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.AllOccupied&SquareBB(sq) == 0
}

// SetPiece places a piece on an empty square. It is meant for building
// test and puzzle positions; any piece already there is replaced.
func (p *Position) SetPiece(piece Piece, sq Square) {
	p.removePiece(sq)
	p.setPiece(piece, sq)
}

// Positions lists every piece on the board, White first, then by type and
// square.
func (p *Position) Positions() []Placement {
	out := make([]Placement, 0, p.AllOccupied.PopCount())
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				out = append(out, Placement{Color: c, Type: pt, Square: bb.PopLSB()})
			}
		}
	}
	return out
}

func (p *Position) setPiece(piece Piece, sq Square) {
	if piece == NoPiece {
		return
	}
	c := piece.Color()
	bb := SquareBB(sq)

	p.Pieces[c][piece.Type()] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
}

func (p *Position) removePiece(sq Square) Piece {
	piece := p.PieceAt(sq)
	if piece == NoPiece {
		return NoPiece
	}
	c := piece.Color()
	bb := SquareBB(sq)

	p.Pieces[c][piece.Type()] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
	return piece
}

func (p *Position) movePiece(from, to Square) {
	piece := p.PieceAt(from)
	if piece == NoPiece {
		return
	}
	c := piece.Color()
	moveBB := SquareBB(from) | SquareBB(to)

	p.Pieces[c][piece.Type()] ^= moveBB
	p.Occupied[c] ^= moveBB
	p.AllOccupied ^= moveBB
}

// updateOccupied recalculates occupancy bitboards from piece bitboards.
func (p *Position) updateOccupied() {
	p.Occupied[White] = Empty
	p.Occupied[Black] = Empty

	for pt := Pawn; pt <= King; pt++ {
		p.Occupied[White] |= p.Pieces[White][pt]
		p.Occupied[Black] |= p.Pieces[Black][pt]
	}

	p.AllOccupied = p.Occupied[White] | p.Occupied[Black]
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", p.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassant)
	fmt.Fprintf(&sb, "Half-move clock: %d\n", p.HalfMoveClock)
	fmt.Fprintf(&sb, "Full move: %d\n", p.FullMoveNumber)
	return sb.String()
}

// Clear resets the position to an empty board.
func (p *Position) Clear() {
	*p = Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
}

// Validate checks if the position is valid.
func (p *Position) Validate() error {
	if p.Pieces[White][King].PopCount() != 1 {
		return errors.New("white must have exactly one king")
	}
	if p.Pieces[Black][King].PopCount() != 1 {
		return errors.New("black must have exactly one king")
	}
	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return errors.New("pawns cannot be on rank 1 or 8")
	}
	if p.KingAttacked(p.SideToMove.Other()) {
		return errors.New("side not to move is in check")
	}
	return nil
}

// InCheck returns true if the side to move is in check.
func (p *Position) InCheck() bool {
	return p.KingAttacked(p.SideToMove)
}
