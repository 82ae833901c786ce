package engine

import (
	"math"

	"github.com/hailam/chessplay/internal/board"
	"lukechampine.com/frand"
)

// Infinity bounds the alpha-beta window.
var Infinity = math.Inf(1)

// searcher runs one sequential alpha-beta search. Each root task owns one,
// so nothing in it is shared between goroutines.
type searcher struct {
	nodes uint64
}

// Minimax searches pos to the given depth with alpha-beta pruning and
// returns its score from White's point of view. White maximizes.
func Minimax(pos *board.Position, depth int, alpha, beta float64, maximizing bool) float64 {
	var s searcher
	return s.minimax(pos, depth, alpha, beta, maximizing)
}

func (s *searcher) minimax(pos *board.Position, depth int, alpha, beta float64, maximizing bool) float64 {
	s.nodes++

	if depth == 0 {
		return Evaluate(pos)
	}

	moves := pos.GenerateLegalMoves().Slice()
	if o := pos.Adjudicate(len(moves) > 0); o.IsTerminal() {
		return evaluate(pos, o)
	}

	// Move ordering is random rather than heuristic.
	frand.Shuffle(len(moves), func(i, j int) {
		moves[i], moves[j] = moves[j], moves[i]
	})

	if maximizing {
		best := -Infinity
		for _, m := range moves {
			next := *pos
			next.Apply(m)
			best = math.Max(best, s.minimax(&next, depth-1, alpha, beta, false))
			alpha = math.Max(alpha, best)
			if beta <= alpha {
				break
			}
		}
		return best
	}

	best := Infinity
	for _, m := range moves {
		next := *pos
		next.Apply(m)
		best = math.Min(best, s.minimax(&next, depth-1, alpha, beta, true))
		beta = math.Min(beta, best)
		if beta <= alpha {
			break
		}
	}
	return best
}
