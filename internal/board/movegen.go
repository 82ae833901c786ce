package board

import "fmt"

// FiftyMoveLimit is the half-move clock value at which the game is drawn.
const FiftyMoveLimit = 50

// castleRule describes one castling option.
type castleRule struct {
	right CastlingRights
	king  Square   // king home square
	rook  Square   // rook home square
	to    Square   // king destination
	path  Bitboard // squares between king and rook, must be empty
	safe  Bitboard // king start, transit and destination, must not be attacked
}

var castleRules = [2][2]castleRule{
	White: {
		{WhiteKingSideCastle, E1, H1, G1, SquareBB(F1) | SquareBB(G1), SquareBB(E1) | SquareBB(F1) | SquareBB(G1)},
		{WhiteQueenSideCastle, E1, A1, C1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), SquareBB(E1) | SquareBB(D1) | SquareBB(C1)},
	},
	Black: {
		{BlackKingSideCastle, E8, H8, G8, SquareBB(F8) | SquareBB(G8), SquareBB(E8) | SquareBB(F8) | SquareBB(G8)},
		{BlackQueenSideCastle, E8, A8, C8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), SquareBB(E8) | SquareBB(D8) | SquareBB(C8)},
	},
}

// PseudoMovesFrom returns the destinations of the piece on sq without
// checking whether its own king is left attacked. Castling is not included.
func (p *Position) PseudoMovesFrom(sq Square) Bitboard {
	piece := p.PieceAt(sq)
	if piece == NoPiece {
		return Empty
	}
	us := piece.Color()
	own := p.Occupied[us]

	switch piece.Type() {
	case Pawn:
		return p.pawnTargets(sq, us)
	case Knight:
		return KnightAttacks(sq) &^ own
	case Bishop:
		return BishopAttacks(sq, p.AllOccupied) &^ own
	case Rook:
		return RookAttacks(sq, p.AllOccupied) &^ own
	case Queen:
		return QueenAttacks(sq, p.AllOccupied) &^ own
	case King:
		return KingAttacks(sq) &^ own
	}
	return Empty
}

// pawnTargets returns pushes gated on empty squares and diagonal captures
// gated on an enemy piece or the en passant target.
func (p *Position) pawnTargets(sq Square, us Color) Bitboard {
	bb := SquareBB(sq)
	empty := ^p.AllOccupied
	captures := p.Occupied[us.Other()]
	if us == p.SideToMove && p.EnPassant != NoSquare {
		captures |= SquareBB(p.EnPassant) &^ p.AllOccupied
	}

	var targets Bitboard
	if us == White {
		push := bb.North() & empty
		targets = push | (push&Rank3).North()&empty
	} else {
		push := bb.South() & empty
		targets = push | (push&Rank6).South()&empty
	}
	return targets | pawnAttacks[us][sq]&captures
}

// castlingTargets returns the king destinations of every castling move
// available to color us.
func (p *Position) castlingTargets(us Color) Bitboard {
	var targets Bitboard
	var attacked Bitboard
	computed := false

	for _, r := range castleRules[us] {
		if p.CastlingRights&r.right == 0 ||
			!p.Pieces[us][King].IsSet(r.king) ||
			!p.Pieces[us][Rook].IsSet(r.rook) ||
			p.AllOccupied&r.path != 0 {
			continue
		}
		if !computed {
			attacked = p.AttackedBy(us.Other())
			computed = true
		}
		if attacked&r.safe == 0 {
			targets |= SquareBB(r.to)
		}
	}
	return targets
}

// legalTargets filters the destinations of the piece on sq by playing each
// one on a copy and rejecting those that leave the mover's king attacked.
func (p *Position) legalTargets(sq Square) Bitboard {
	piece := p.PieceAt(sq)
	if piece == NoPiece || piece.Color() != p.SideToMove {
		return Empty
	}
	us := piece.Color()

	candidates := p.PseudoMovesFrom(sq)
	if piece.Type() == King {
		candidates |= p.castlingTargets(us)
	}

	var legal Bitboard
	for candidates != 0 {
		to := candidates.PopLSB()
		next := *p
		next.ApplyMove(sq, to)
		if !next.KingAttacked(us) {
			legal |= SquareBB(to)
		}
	}
	return legal
}

// LegalMovesFrom returns every legal destination of the piece on sq. It is
// empty for an empty square or a piece of the side not to move.
func (p *Position) LegalMovesFrom(sq Square) []Square {
	return p.legalTargets(sq).Squares()
}

// GenerateLegalMoves generates all legal moves for the side to move.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	own := p.Occupied[p.SideToMove]
	for own != 0 {
		from := own.PopLSB()
		targets := p.legalTargets(from)
		for targets != 0 {
			ml.Add(NewMove(from, targets.PopLSB()))
		}
	}
	return ml
}

// HasLegalMoves returns true if the side to move has any legal moves.
func (p *Position) HasLegalMoves() bool {
	own := p.Occupied[p.SideToMove]
	for own != 0 {
		if p.legalTargets(own.PopLSB()) != 0 {
			return true
		}
	}
	return false
}

// Result is the state of the game.
type Result uint8

const (
	InProgress Result = iota
	Checkmate
	Draw
)

func (r Result) String() string {
	switch r {
	case Checkmate:
		return "checkmate"
	case Draw:
		return "draw"
	default:
		return "in progress"
	}
}

// Reason explains how a game ended.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonCheckmate
	ReasonStalemate
	ReasonFiftyMove
	ReasonBareKings
)

var reasonNames = [...]string{"none", "checkmate", "stalemate", "fifty-move rule", "bare kings"}

func (r Reason) String() string {
	if int(r) >= len(reasonNames) {
		return "unknown"
	}
	return reasonNames[r]
}

// Outcome is the adjudicated state of a position. Winner is only meaningful
// for Checkmate and names the side that delivered mate.
type Outcome struct {
	Result Result
	Winner Color
	Reason Reason
}

// IsTerminal reports whether the game is over.
func (o Outcome) IsTerminal() bool {
	return o.Result != InProgress
}

func (o Outcome) String() string {
	switch o.Result {
	case Checkmate:
		return fmt.Sprintf("checkmate, %s wins", o.Winner)
	case Draw:
		return fmt.Sprintf("draw by %s", o.Reason)
	default:
		return "in progress"
	}
}

// Outcome adjudicates the position.
func (p *Position) Outcome() Outcome {
	if o, ok := p.drawByRule(); ok {
		return o
	}
	return p.Adjudicate(p.HasLegalMoves())
}

// Adjudicate is Outcome for callers that already know whether the side to
// move has a legal move.
func (p *Position) Adjudicate(hasLegalMoves bool) Outcome {
	if o, ok := p.drawByRule(); ok {
		return o
	}
	if hasLegalMoves {
		return Outcome{Result: InProgress, Winner: NoColor}
	}
	if p.InCheck() {
		return Outcome{Result: Checkmate, Winner: p.SideToMove.Other(), Reason: ReasonCheckmate}
	}
	return Outcome{Result: Draw, Winner: NoColor, Reason: ReasonStalemate}
}

func (p *Position) drawByRule() (Outcome, bool) {
	if p.HalfMoveClock >= FiftyMoveLimit {
		return Outcome{Result: Draw, Winner: NoColor, Reason: ReasonFiftyMove}, true
	}
	if p.bareKings() {
		return Outcome{Result: Draw, Winner: NoColor, Reason: ReasonBareKings}, true
	}
	return Outcome{}, false
}

// bareKings reports whether only the two kings are left.
func (p *Position) bareKings() bool {
	return p.AllOccupied&^(p.Pieces[White][King]|p.Pieces[Black][King]) == 0
}

// Perft counts the leaf nodes of the legal move tree to the given depth.
func (p *Position) Perft(depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := p.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for _, m := range moves.Slice() {
		next := *p
		next.Apply(m)
		nodes += next.Perft(depth - 1)
	}
	return nodes
}

// PerftDivide returns the perft count below each root move.
func (p *Position) PerftDivide(depth int) map[Move]uint64 {
	result := make(map[Move]uint64)
	if depth < 1 {
		return result
	}
	for _, m := range p.GenerateLegalMoves().Slice() {
		next := *p
		next.Apply(m)
		result[m] = next.Perft(depth - 1)
	}
	return result
}
