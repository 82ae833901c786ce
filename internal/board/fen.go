package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFEN is wrapped by every ParseFEN failure.
var ErrInvalidFEN = errors.New("invalid FEN")

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN reads a position. The clock fields may be omitted. The result is
// checked with Validate, and an en passant square must be one a pawn could
// really have skipped on the previous move.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 || len(fields) > 6 {
		return nil, fmt.Errorf("%w: %d fields", ErrInvalidFEN, len(fields))
	}

	pos := NewEmptyPosition()
	if err := pos.parsePlacement(fields[0]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFEN, err)
	}
	pos.updateOccupied()

	switch fields[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, fields[1])
	}

	if err := pos.parseCastling(fields[2]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFEN, err)
	}
	if err := pos.parseEnPassant(fields[3]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFEN, err)
	}

	counters := []*int{&pos.HalfMoveClock, &pos.FullMoveNumber}
	for i, f := range fields[4:] {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: move counter %q", ErrInvalidFEN, f)
		}
		*counters[i] = n
	}

	if err := pos.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFEN, err)
	}
	return pos, nil
}

// parsePlacement fills the board from the first FEN field, eighth rank first.
func (p *Position) parsePlacement(field string) error {
	ranks := strings.Split(field, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("placement has %d ranks", len(ranks))
	}

	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			piece := PieceFromChar(c)
			if piece == NoPiece {
				return fmt.Errorf("unknown piece %q", c)
			}
			if file > 7 {
				return fmt.Errorf("rank %d has more than 8 files", rank+1)
			}
			p.setPiece(piece, NewSquare(file, rank))
			file++
		}
		if file != 8 {
			return fmt.Errorf("rank %d covers %d files", rank+1, file)
		}
	}
	return nil
}

func (p *Position) parseCastling(field string) error {
	p.CastlingRights = NoCastling
	if field == "-" {
		return nil
	}
	for i := 0; i < len(field); i++ {
		k := strings.IndexByte("KQkq", field[i])
		if k < 0 {
			return fmt.Errorf("castling flag %q", field[i])
		}
		p.CastlingRights |= CastlingRights(1) << k
	}
	return nil
}

// parseEnPassant accepts "-" or an empty square on the sixth rank of the side
// to move with an enemy pawn directly in front of it, seen from the enemy.
// The side to move is already set.
func (p *Position) parseEnPassant(field string) error {
	if field == "-" {
		return nil
	}
	sq, err := ParseSquare(field)
	if err != nil {
		return fmt.Errorf("en passant: %w", err)
	}

	us, them := p.SideToMove, p.SideToMove.Other()
	pusher := sq + 8
	if us == White {
		pusher = sq - 8
	}
	switch {
	case sq.RelativeRank(us) != 5:
		return fmt.Errorf("en passant square %s is not on %s's sixth rank", sq, us)
	case !p.IsEmpty(sq):
		return fmt.Errorf("en passant square %s is occupied", sq)
	case !p.Pieces[them][Pawn].IsSet(pusher):
		return fmt.Errorf("en passant square %s has no %s pawn in front", sq, them)
	}
	p.EnPassant = sq
	return nil
}

// ToFEN returns the FEN representation of the position.
func (p *Position) ToFEN() string {
	var sb strings.Builder

	// Piece placement
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			sq := NewSquare(file, rank)
			piece := p.PieceAt(sq)
			if piece == NoPiece {
				empty++
			} else {
				if empty > 0 {
					sb.WriteString(strconv.Itoa(empty))
					empty = 0
				}
				sb.WriteString(piece.String())
			}
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	// Side to move
	sb.WriteByte(' ')
	if p.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	// Castling rights
	sb.WriteByte(' ')
	sb.WriteString(p.CastlingRights.String())

	// En passant
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())

	// Half-move clock and full-move number
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))

	return sb.String()
}
