// Package match plays headless engine-vs-engine games.
package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/storage"
	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
)

// ErrNoMove is returned when a player has nothing to play in a position that
// is not over.
var ErrNoMove = errors.New("player returned no move")

// Player chooses moves for one side.
type Player interface {
	Name() string
	Move(ctx context.Context, pos *board.Position) (board.Move, error)
}

// EnginePlayer plays the engine's best move under fixed limits.
type EnginePlayer struct {
	name   string
	engine *engine.Engine
	limits engine.SearchLimits
}

// NewEnginePlayer wraps eng. Each game needs its own Engine; engines may share
// a pool.
func NewEnginePlayer(name string, eng *engine.Engine, limits engine.SearchLimits) *EnginePlayer {
	return &EnginePlayer{name: name, engine: eng, limits: limits}
}

func (p *EnginePlayer) Name() string { return p.name }

// Move searches pos. Cancelling ctx stops deepening after the current
// sweep; a search that has not started is refused.
func (p *EnginePlayer) Move(ctx context.Context, pos *board.Position) (board.Move, error) {
	if err := ctx.Err(); err != nil {
		return board.NoMove, err
	}
	m, _ := p.engine.BestMoveContext(ctx, pos, p.limits)
	if m == board.NoMove {
		return board.NoMove, ErrNoMove
	}
	return m, nil
}

// Config describes one game.
type Config struct {
	White, Black Player
	StartFEN     string // empty for the standard start position
	MaxPlies     int    // 0 = play until the game ends
}

// Result is a finished or abandoned game.
type Result struct {
	White, Black string
	StartFEN     string
	FinalFEN     string
	Moves        []string // SAN
	UCIMoves     []string
	Outcome      board.Outcome
	Plies        int
	Duration     time.Duration
	PlayedAt     time.Time
}

// Score returns the PGN result token: "1-0", "0-1", "1/2-1/2", or "*" for a
// game that did not finish.
func (r *Result) Score() string {
	switch r.Outcome.Result {
	case board.Checkmate:
		if r.Outcome.Winner == board.White {
			return "1-0"
		}
		return "0-1"
	case board.Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// Record converts the result for storage.
func (r *Result) Record() *storage.GameRecord {
	reason := r.Outcome.Reason.String()
	if !r.Outcome.IsTerminal() {
		reason = "unfinished"
	}
	return &storage.GameRecord{
		White:    r.White,
		Black:    r.Black,
		StartFEN: r.StartFEN,
		FinalFEN: r.FinalFEN,
		Moves:    r.Moves,
		Result:   r.Score(),
		Reason:   reason,
		Plies:    r.Plies,
		Duration: r.Duration,
		PlayedAt: r.PlayedAt,
	}
}

// PGN renders the game in Portable Game Notation.
func (r *Result) PGN() (string, error) {
	opt, err := chess.FEN(r.StartFEN)
	if err != nil {
		return "", fmt.Errorf("pgn: %w", err)
	}
	game := chess.NewGame(opt)
	for i, s := range r.UCIMoves {
		m, err := chess.UCINotation{}.Decode(game.Position(), s)
		if err != nil {
			return "", fmt.Errorf("pgn: ply %d: %w", i+1, err)
		}
		if err := game.Move(m); err != nil {
			return "", fmt.Errorf("pgn: ply %d: %w", i+1, err)
		}
	}

	game.AddTagPair("Event", "chessplay selfplay")
	game.AddTagPair("Date", r.PlayedAt.Format("2006.01.02"))
	game.AddTagPair("White", r.White)
	game.AddTagPair("Black", r.Black)
	game.AddTagPair("Result", r.Score())
	if r.StartFEN != board.StartFEN {
		game.AddTagPair("SetUp", "1")
		game.AddTagPair("FEN", r.StartFEN)
	}
	if r.Outcome.IsTerminal() {
		game.AddTagPair("Termination", r.Outcome.Reason.String())
	}
	return game.String(), nil
}

// Play runs one game to its end, to MaxPlies, or until ctx is done. On
// cancellation the partial game is returned along with ctx's error.
func Play(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.White == nil || cfg.Black == nil {
		return nil, errors.New("match: both players are required")
	}

	pos := board.NewPosition()
	if cfg.StartFEN != "" {
		var err error
		if pos, err = board.ParseFEN(cfg.StartFEN); err != nil {
			return nil, fmt.Errorf("match: %w", err)
		}
	}

	res := &Result{
		White:    cfg.White.Name(),
		Black:    cfg.Black.Name(),
		StartFEN: pos.ToFEN(),
		PlayedAt: time.Now(),
	}
	players := [2]Player{board.White: cfg.White, board.Black: cfg.Black}

	finish := func() {
		res.FinalFEN = pos.ToFEN()
		res.Duration = time.Since(res.PlayedAt)
	}

	for {
		res.Outcome = pos.Outcome()
		if res.Outcome.IsTerminal() || (cfg.MaxPlies > 0 && res.Plies >= cfg.MaxPlies) {
			break
		}
		if err := ctx.Err(); err != nil {
			finish()
			return res, err
		}

		player := players[pos.SideToMove]
		m, err := player.Move(ctx, pos)
		if err != nil {
			finish()
			return res, fmt.Errorf("%s at ply %d: %w", player.Name(), res.Plies, err)
		}
		if !pos.GenerateLegalMoves().Contains(m) {
			finish()
			return res, fmt.Errorf("%s played %s at ply %d: %w", player.Name(), m, res.Plies, board.ErrIllegalMove)
		}

		res.Moves = append(res.Moves, pos.SAN(m))
		res.UCIMoves = append(res.UCIMoves, pos.UCI(m))
		pos.Apply(m)
		res.Plies++

		log.Debug().
			Str("player", player.Name()).
			Str("move", res.Moves[len(res.Moves)-1]).
			Int("ply", res.Plies).
			Msg("move-played")
	}

	finish()
	log.Info().
		Str("white", res.White).
		Str("black", res.Black).
		Str("result", res.Score()).
		Stringer("outcome", res.Outcome).
		Int("plies", res.Plies).
		Dur("duration", res.Duration).
		Msg("game-over")
	return res, nil
}
