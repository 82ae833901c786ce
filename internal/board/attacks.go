package board

// direction is a (file, rank) step used by the ray caster.
type direction struct {
	df, dr int
}

var (
	rookDirections   = []direction{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	bishopDirections = []direction{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	kingDirections   = append(append([]direction{}, rookDirections...), bishopDirections...)
	knightOffsets    = []direction{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
)

// Pre-computed attack tables for non-sliding pieces
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square]

	// tables is shared read-only by every position and search goroutine.
	tables *AttackTables
)

func init() {
	initLeaperAttacks()

	t, err := NewAttackTables()
	if err != nil {
		panic(err)
	}
	tables = t
}

func initLeaperAttacks() {
	for sq := A1; sq <= H8; sq++ {
		knightAttacks[sq] = slide(sq, Empty, knightOffsets, 1)
		kingAttacks[sq] = slide(sq, Empty, kingDirections, 1)

		bb := SquareBB(sq)
		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()
	}
}

// slide casts a ray from sq along each direction for at most reach steps,
// stopping at (and including) the first occupied square.
func slide(sq Square, occupied Bitboard, dirs []direction, reach int) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		s := sq
		for step := 0; step < reach; step++ {
			next, ok := s.Offset(d.df, d.dr)
			if !ok {
				break
			}
			attacks |= SquareBB(next)
			if occupied.IsSet(next) {
				break
			}
			s = next
		}
	}
	return attacks
}

// Tables returns the shared slider attack tables.
func Tables() *AttackTables {
	return tables
}

// KnightAttacks returns the knight attack bitboard for a square.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the king attack bitboard for a square.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the squares a pawn of color c on sq captures onto.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// BishopAttacks returns the bishop attack bitboard for a square with given occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return tables.BishopAttacks(sq, occupied)
}

// RookAttacks returns the rook attack bitboard for a square with given occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return tables.RookAttacks(sq, occupied)
}

// QueenAttacks returns the queen attack bitboard for a square with given occupancy.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return tables.QueenAttacks(sq, occupied)
}

// AttackersByColor returns a bitboard of pieces of the given color attacking a square.
// It looks outward from sq only: both slider rays, the knight offsets, the
// two pawn diagonals and the adjacent squares.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	enemy := c.Other()
	return (pawnAttacks[enemy][sq] & p.Pieces[c][Pawn]) |
		(knightAttacks[sq] & p.Pieces[c][Knight]) |
		(kingAttacks[sq] & p.Pieces[c][King]) |
		(BishopAttacks(sq, occupied) & (p.Pieces[c][Bishop] | p.Pieces[c][Queen])) |
		(RookAttacks(sq, occupied) & (p.Pieces[c][Rook] | p.Pieces[c][Queen]))
}

// IsSquareAttacked returns true if the square is attacked by the given color.
func (p *Position) IsSquareAttacked(sq Square, byColor Color) bool {
	return p.AttackersByColor(sq, byColor, p.AllOccupied) != 0
}

// KingAttacked reports whether the king of color c can be captured.
func (p *Position) KingAttacked(c Color) bool {
	king := p.Pieces[c][King]
	if king == 0 {
		return false
	}
	return p.IsSquareAttacked(king.LSB(), c.Other())
}

// AttackedBy returns every square attacked by color c. Pawns contribute
// their capture diagonals only. No legality filtering is applied, which is
// what lets castling and check detection consult it without recursion.
func (p *Position) AttackedBy(c Color) Bitboard {
	occupied := p.AllOccupied
	var attacked Bitboard

	pawns := p.Pieces[c][Pawn]
	if c == White {
		attacked |= pawns.NorthEast() | pawns.NorthWest()
	} else {
		attacked |= pawns.SouthEast() | pawns.SouthWest()
	}

	knights := p.Pieces[c][Knight]
	for knights != 0 {
		attacked |= KnightAttacks(knights.PopLSB())
	}

	diagonal := p.Pieces[c][Bishop] | p.Pieces[c][Queen]
	for diagonal != 0 {
		attacked |= BishopAttacks(diagonal.PopLSB(), occupied)
	}

	straight := p.Pieces[c][Rook] | p.Pieces[c][Queen]
	for straight != 0 {
		attacked |= RookAttacks(straight.PopLSB(), occupied)
	}

	kings := p.Pieces[c][King]
	for kings != 0 {
		attacked |= KingAttacks(kings.PopLSB())
	}

	return attacked
}
