package main

import (
	"flag"
	"os"
	"runtime/pprof"

	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/uci"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	threads    = flag.Int("threads", 0, "search threads (0 = one per CPU)")
	loglevel   = flag.String("loglevel", "info", "log level: trace, debug, info, warn, error")
	difficulty = flag.String("difficulty", "medium", "default search limits: easy, medium, hard")
)

func main() {
	flag.Parse()

	// Logs go to stderr; stdout belongs to the protocol.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(*loglevel)
	if err != nil {
		log.Fatal().Err(err).Msg("bad-log-level")
	}
	zerolog.SetGlobalLevel(level)

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("create-cpu-profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("start-cpu-profile")
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("file", profilePath).Msg("cpu-profiling")
	}

	d, err := engine.ParseDifficulty(*difficulty)
	if err != nil {
		log.Fatal().Err(err).Msg("bad-difficulty")
	}

	pool := engine.NewPool(*threads)
	defer pool.Close()
	log.Debug().Int("threads", pool.Size()).Msg("pool-started")

	eng := engine.NewEngine(pool)
	eng.SetDifficulty(d)

	protocol := uci.New(eng, os.Stdout)
	if err := protocol.Run(os.Stdin); err != nil {
		log.Error().Err(err).Msg("read-input")
	}
}
