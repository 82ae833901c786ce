package board

import (
	"fmt"
	"strings"
)

// SAN converts a legal move to Standard Algebraic Notation.
func (p *Position) SAN(m Move) string {
	if m == NoMove {
		return "-"
	}

	from, to := m.From(), m.To()
	piece := p.PieceAt(from)
	if piece == NoPiece {
		return m.String() // Fallback to UCI
	}
	pt := piece.Type()

	var sb strings.Builder
	switch {
	case pt == King && to.File()-from.File() == 2:
		sb.WriteString("O-O")
	case pt == King && from.File()-to.File() == 2:
		sb.WriteString("O-O-O")
	default:
		if pt != Pawn {
			sb.WriteByte("PNBRQK"[pt])
			sb.WriteString(disambiguation(p, m, pt))
		}
		if m.IsCapture(p) {
			if pt == Pawn {
				sb.WriteByte('a' + byte(from.File()))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(to.String())
		if m.IsPromotion(p) {
			sb.WriteString("=Q")
		}
	}

	next := *p
	next.Apply(m)
	if next.InCheck() {
		if next.HasLegalMoves() {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('#')
		}
	}
	return sb.String()
}

// disambiguation returns the origin file, rank or square needed when
// another piece of the same type can reach the same destination.
func disambiguation(p *Position, m Move, pt PieceType) string {
	from, to := m.From(), m.To()

	var sameFile, sameRank, ambiguous bool
	others := p.Pieces[p.SideToMove][pt] &^ SquareBB(from)
	for others != 0 {
		sq := others.PopLSB()
		if !p.legalTargets(sq).IsSet(to) {
			continue
		}
		ambiguous = true
		sameFile = sameFile || sq.File() == from.File()
		sameRank = sameRank || sq.Rank() == from.Rank()
	}

	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string(rune('a' + from.File()))
	case !sameRank:
		return string(rune('1' + from.Rank()))
	default:
		return from.String()
	}
}

// ParseSAN finds the legal move whose SAN matches s. Check and mate
// markers are optional.
func ParseSAN(s string, p *Position) (Move, error) {
	want := strings.TrimRight(strings.TrimSpace(s), "+#")
	if strings.Trim(want, "0-") == "" {
		want = strings.ReplaceAll(want, "0", "O")
	}
	for _, m := range p.GenerateLegalMoves().Slice() {
		if strings.TrimRight(p.SAN(m), "+#") == want {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%s: %w", s, ErrIllegalMove)
}
