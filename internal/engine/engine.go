package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"
)

// maxSearchDepth caps iterative deepening when the time budget alone would
// allow another sweep.
const maxSearchDepth = 64

// SearchInfo contains information about one completed depth.
type SearchInfo struct {
	Depth int
	Score float64
	Move  board.Move
	Nodes uint64
	Time  time.Duration
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	StartDepth int           // First depth searched (0 = 1)
	MaxDepth   int           // Maximum depth (0 = no limit)
	MoveTime   time.Duration // Deepen while less than this has elapsed
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

var difficultyNames = [...]string{"easy", "medium", "hard"}

func (d Difficulty) String() string {
	if d < Easy || d > Hard {
		return fmt.Sprintf("Difficulty(%d)", int(d))
	}
	return difficultyNames[d]
}

// ParseDifficulty converts a difficulty name to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	for i, name := range difficultyNames {
		if name == s {
			return Difficulty(i), nil
		}
	}
	return Medium, fmt.Errorf("unknown difficulty %q", s)
}

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {StartDepth: 1, MaxDepth: 2, MoveTime: 200 * time.Millisecond},
	Medium: {StartDepth: 1, MaxDepth: 4, MoveTime: time.Second},
	Hard:   {StartDepth: 1, MaxDepth: 6, MoveTime: 3 * time.Second},
}

// Engine is the chess AI engine. Root moves are searched in parallel on
// the pool it was built with.
type Engine struct {
	pool       *Pool
	difficulty Difficulty

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine that runs root tasks on pool.
func NewEngine(pool *Pool) *Engine {
	return &Engine{
		pool:       pool,
		difficulty: Medium,
	}
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// Difficulty returns the current difficulty.
func (e *Engine) Difficulty() Difficulty {
	return e.difficulty
}

// Search finds the best move for the given position at the current difficulty.
func (e *Engine) Search(pos *board.Position) board.Move {
	m, _ := e.BestMove(pos, DifficultySettings[e.difficulty])
	return m
}

// BestMove runs iterative deepening over the root moves of pos. Every depth
// is a full sweep: one pool task per root move, each searching its own copy
// of the position. After a sweep the elapsed time is compared with
// limits.MoveTime; while time remains the sweep is repeated one ply deeper
// and the previous choice is discarded. A sweep is never interrupted, so the
// call can overrun MoveTime by up to one sweep.
//
// The returned score is from White's point of view. A position without
// legal moves yields NoMove; callers check Outcome first.
func (e *Engine) BestMove(pos *board.Position, limits SearchLimits) (board.Move, float64) {
	return e.BestMoveContext(context.Background(), pos, limits)
}

// BestMoveContext is BestMove that also stops deepening once ctx is done.
// ctx is checked between sweeps, so the first sweep always completes and
// a move is always returned.
func (e *Engine) BestMoveContext(ctx context.Context, pos *board.Position, limits SearchLimits) (board.Move, float64) {
	start := time.Now()

	roots := append([]board.Move(nil), pos.GenerateLegalMoves().Slice()...)
	if len(roots) == 0 {
		return board.NoMove, Evaluate(pos)
	}

	depth := limits.StartDepth
	if depth < 1 {
		depth = 1
	}
	maximizing := pos.SideToMove == board.White

	var totalNodes uint64
	for {
		frand.Shuffle(len(roots), func(i, j int) {
			roots[i], roots[j] = roots[j], roots[i]
		})

		scores := make([]float64, len(roots))
		nodes := make([]uint64, len(roots))
		tasks := make([]func(), len(roots))
		for i, m := range roots {
			tasks[i] = func() {
				var s searcher
				next := *pos
				next.Apply(m)
				scores[i] = s.minimax(&next, depth-1, -Infinity, Infinity, !maximizing)
				nodes[i] = s.nodes
			}
		}
		e.pool.Run(tasks)

		best := 0
		for i := range scores {
			totalNodes += nodes[i]
			if (maximizing && scores[i] > scores[best]) || (!maximizing && scores[i] < scores[best]) {
				best = i
			}
		}

		elapsed := time.Since(start)
		info := SearchInfo{
			Depth: depth,
			Score: scores[best],
			Move:  roots[best],
			Nodes: totalNodes,
			Time:  elapsed,
		}
		log.Debug().
			Int("depth", depth).
			Float64("score", info.Score).
			Stringer("move", info.Move).
			Uint64("nodes", totalNodes).
			Dur("elapsed", elapsed).
			Msg("sweep-complete")
		if e.OnInfo != nil {
			e.OnInfo(info)
		}

		if ctx.Err() != nil ||
			elapsed >= limits.MoveTime ||
			(limits.MaxDepth > 0 && depth >= limits.MaxDepth) ||
			depth >= maxSearchDepth {
			return info.Move, info.Score
		}
		depth++
	}
}
