// Package engine implements the chess AI search engine.
package engine

import (
	"github.com/hailam/chessplay/internal/board"
)

// Material values in pawns. The king is never captured and counts nothing.
const (
	PawnValue   = 1.0
	KnightValue = 3.05
	BishopValue = 3.33
	RookValue   = 5.63
	QueenValue  = 9.5
	KingValue   = 0.0
)

// MateScore is the score of a position in which White has delivered mate.
const MateScore = 1000.0

// Piece values array for quick lookup
var pieceValues = [6]float64{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue}

// Material returns the material balance in pawns, positive favors White.
func Material(pos *board.Position) float64 {
	var score float64
	for pt := board.Pawn; pt <= board.King; pt++ {
		diff := pos.Pieces[board.White][pt].PopCount() - pos.Pieces[board.Black][pt].PopCount()
		score += float64(diff) * pieceValues[pt]
	}
	return score
}

// Evaluate returns the static evaluation of a position from White's point
// of view. A finished game overrides material: mate scores ±MateScore and
// any draw scores 0.
func Evaluate(pos *board.Position) float64 {
	return evaluate(pos, pos.Outcome())
}

func evaluate(pos *board.Position, o board.Outcome) float64 {
	switch o.Result {
	case board.Checkmate:
		if o.Winner == board.White {
			return MateScore
		}
		return -MateScore
	case board.Draw:
		return 0
	}
	return Material(pos)
}
