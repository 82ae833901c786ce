package engine

import (
	"time"

	"github.com/hailam/chessplay/internal/board"
)

// Clock contains UCI time control parameters.
type Clock struct {
	Time      [2]time.Duration // wtime, btime (remaining time for each color)
	Inc       [2]time.Duration // winc, binc (increment per move)
	MovesToGo int              // moves until next time control (0 = sudden death)
}

// MoveBudget turns the remaining clock into a MoveTime for BestMove.
// ply is the current game ply (half-move number).
//
// BestMove finishes the sweep it is in when the budget runs out, and the
// next sweep costs several times the previous one, so only half of the
// per-move share is handed out.
func MoveBudget(c Clock, us board.Color, ply int) time.Duration {
	timeLeft := c.Time[us]
	if timeLeft <= 0 {
		return 0
	}
	inc := c.Inc[us]

	// Estimate moves to go
	mtg := c.MovesToGo
	if mtg == 0 {
		// Sudden death: early game expects more moves than late game
		mtg = 50 - ply/4
		if mtg < 10 {
			mtg = 10
		}
		if mtg > 50 {
			mtg = 50
		}
	}

	optimum := timeLeft/time.Duration(mtg) + inc*9/10
	if ply < 8 {
		optimum = optimum * 85 / 100
	}

	budget := optimum / 2
	if limit := timeLeft / 10; budget > limit {
		budget = limit
	}
	if budget < 10*time.Millisecond {
		budget = 10 * time.Millisecond
	}
	return budget
}
