package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/match"
	"github.com/hailam/chessplay/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	games      = flag.Int("games", 1, "number of games to play")
	parallel   = flag.Int("parallel", 1, "games played at the same time")
	threads    = flag.Int("threads", 0, "search threads shared by all games (0 = one per CPU)")
	moveTime   = flag.Duration("movetime", 0, "time budget per move")
	maxDepth   = flag.Int("maxdepth", 0, "maximum search depth (0 = no limit)")
	maxPlies   = flag.Int("maxplies", 300, "adjourn games after this many plies (0 = no limit)")
	difficulty = flag.String("difficulty", "", "easy, medium or hard")
	startFEN   = flag.String("fen", "", "start position (default: standard)")
	dbDir      = flag.String("db", "", "database directory (default: user data dir)")
	pgnPath    = flag.String("pgn", "", "append finished games to this PGN file")
	loglevel   = flag.String("loglevel", "info", "log level: trace, debug, info, warn, error")
)

func main() {
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(*loglevel)
	if err != nil {
		log.Fatal().Err(err).Msg("bad-log-level")
	}
	zerolog.SetGlobalLevel(level)

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("selfplay")
	}
}

func run() error {
	var store *storage.Storage
	var err error
	if *dbDir != "" {
		store, err = storage.Open(*dbDir)
	} else {
		store, err = storage.NewStorage()
	}
	if err != nil {
		return err
	}
	defer store.Close()

	prefs, err := store.LoadPreferences()
	if err != nil {
		return err
	}
	applyFlags(prefs)

	d, err := engine.ParseDifficulty(prefs.Difficulty)
	if err != nil {
		return err
	}
	limits := engine.DifficultySettings[d]
	if prefs.MoveTime > 0 {
		limits.MoveTime = prefs.MoveTime
	}
	if prefs.MaxDepth > 0 {
		limits.MaxDepth = prefs.MaxDepth
	}

	prefs.LastPlayed = time.Now()
	if err := store.SavePreferences(prefs); err != nil {
		return err
	}

	pool := engine.NewPool(prefs.Threads)
	defer pool.Close()

	log.Info().
		Int("games", *games).
		Int("threads", pool.Size()).
		Stringer("difficulty", d).
		Dur("movetime", limits.MoveTime).
		Int("maxdepth", limits.MaxDepth).
		Msg("selfplay-start")

	var pgnOut *pgnWriter
	if *pgnPath != "" {
		f, err := os.OpenFile(*pgnPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		pgnOut = &pgnWriter{f: f}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*parallel, 1))
	for i := range *games {
		g.Go(func() error {
			cfg := match.Config{
				White:    match.NewEnginePlayer(fmt.Sprintf("engine-%d-white", i+1), engine.NewEngine(pool), limits),
				Black:    match.NewEnginePlayer(fmt.Sprintf("engine-%d-black", i+1), engine.NewEngine(pool), limits),
				StartFEN: *startFEN,
				MaxPlies: *maxPlies,
			}
			res, err := match.Play(ctx, cfg)
			if errors.Is(err, context.Canceled) {
				return err
			}
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			if err := store.RecordGame(res.Record()); err != nil {
				return err
			}
			return pgnOut.write(res)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	stats, err := store.LoadStats()
	if err != nil {
		return err
	}
	log.Info().
		Int("played", stats.GamesPlayed).
		Int("white", stats.WhiteWins).
		Int("black", stats.BlackWins).
		Int("draws", stats.Draws).
		Int("unfinished", stats.Unfinished).
		Float64("avg-plies", stats.AveragePlies()).
		Msg("stats")
	return nil
}

// applyFlags overrides stored preferences with the flags given on the
// command line.
func applyFlags(prefs *storage.Preferences) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "threads":
			prefs.Threads = *threads
		case "movetime":
			prefs.MoveTime = *moveTime
		case "maxdepth":
			prefs.MaxDepth = *maxDepth
		case "difficulty":
			prefs.Difficulty = *difficulty
		}
	})
}

// pgnWriter appends games to a file; games finish concurrently.
type pgnWriter struct {
	mu sync.Mutex
	f  *os.File
}

func (w *pgnWriter) write(res *match.Result) error {
	if w == nil {
		return nil
	}
	pgn, err := res.PGN()
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = fmt.Fprintf(w.f, "%s\n\n", pgn)
	return err
}
