package board

import "strings"

// Color is a side. NoColor is used for an empty square or an outcome
// without a winner.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// PieceType is the kind of a piece regardless of color.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType PieceType = 6
)

var pieceTypeNames = [...]string{"Pawn", "Knight", "Bishop", "Rook", "Queen", "King", "None"}

func (pt PieceType) String() string {
	if pt > NoPieceType {
		return "None"
	}
	return pieceTypeNames[pt]
}

// Piece packs a PieceType and Color as pieceType + 6*color, so white pieces
// are 0-5 and black pieces 6-11.
type Piece uint8

const (
	WhitePawn, WhiteKnight, WhiteBishop, WhiteRook, WhiteQueen, WhiteKing Piece = 0, 1, 2, 3, 4, 5
	BlackPawn, BlackKnight, BlackBishop, BlackRook, BlackQueen, BlackKing Piece = 6, 7, 8, 9, 10, 11

	NoPiece Piece = 12
)

// NewPiece returns NoPiece for NoPieceType or NoColor.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(pt) + Piece(c)*6
}

func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 6)
}

func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p / 6)
}

const pieceChars = "PNBRQKpnbrqk"

// String is the FEN letter, upper case for White.
func (p Piece) String() string {
	if p >= NoPiece {
		return " "
	}
	return string(pieceChars[p])
}

// PieceFromChar maps a FEN letter to its piece, or NoPiece.
func PieceFromChar(c byte) Piece {
	if i := strings.IndexByte(pieceChars, c); i >= 0 {
		return Piece(i)
	}
	return NoPiece
}
