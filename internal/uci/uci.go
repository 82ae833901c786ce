// Package uci implements the Universal Chess Interface front end of the engine.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/rs/zerolog/log"
)

// unlimited is the MoveTime used when only a depth bounds the search.
const unlimited = time.Duration(math.MaxInt64)

// mateCentipawns is reported for a forced mate; searches do not track the
// distance to mate.
const mateCentipawns = 100000

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	position *board.Position

	out io.Writer
	mu  sync.Mutex // serializes writes to out

	// Search state
	searchDone   chan struct{}
	cancelSearch context.CancelFunc

	// CPU profiling
	profileFile *os.File
}

// New creates a new UCI protocol handler writing responses to out.
func New(eng *engine.Engine, out io.Writer) *UCI {
	return &UCI{
		engine:   eng,
		position: board.NewPosition(),
		out:      out,
	}
}

// Run reads commands from r until "quit" or end of input.
func (u *UCI) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.printf("readyok\n")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleQuit()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.handleDisplay()
		case "perft":
			u.handlePerft(args)
		default:
			log.Debug().Str("command", cmd).Msg("unknown-command")
		}
	}

	u.stopSearch()
	return scanner.Err()
}

func (u *UCI) printf(format string, args ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.out, format, args...)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.printf("id name ChessPlay\n")
	u.printf("id author ChessPlay Team\n\n")
	u.printf("option name Difficulty type combo default %s var easy var medium var hard\n", u.engine.Difficulty())
	u.printf("option name CPUProfile type string default <empty>\n")
	u.printf("uciok\n")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.stopSearch()
	u.position = board.NewPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}
	u.stopSearch()

	moveStart := len(args)
	for i, arg := range args {
		if arg == "moves" {
			moveStart = i
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:moveStart], " "))
		if err != nil {
			log.Error().Err(err).Msg("position")
			u.printf("info string %v\n", err)
			return
		}
	default:
		return
	}

	if moveStart < len(args) {
		for _, moveStr := range args[moveStart+1:] {
			m, err := board.ParseMove(moveStr, pos)
			if err != nil {
				log.Error().Err(err).Str("fen", pos.ToFEN()).Msg("position")
				u.printf("info string %v\n", err)
				return
			}
			pos.Apply(m)
		}
	}

	u.position = pos
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// handleGo starts a search with the given parameters. The search runs in the
// background and prints bestmove when its last sweep completes; with
// "infinite" it keeps deepening and bestmove waits for stop or quit.
func (u *UCI) handleGo(args []string) {
	u.stopSearch()

	opts := parseGoOptions(args)
	pos := u.position.Copy()
	limits := u.calculateLimits(opts, pos)

	u.engine.OnInfo = func(info engine.SearchInfo) {
		u.sendInfo(pos, info)
	}

	ctx, cancel := context.WithCancel(context.Background())
	u.searchDone = make(chan struct{})
	u.cancelSearch = cancel
	done := u.searchDone

	go func() {
		defer close(done)

		best := "0000"
		if o := pos.Outcome(); o.IsTerminal() {
			u.printf("info string game over: %s\n", o)
		} else {
			m, score := u.engine.BestMoveContext(ctx, pos, limits)
			log.Debug().
				Stringer("move", m).
				Float64("score", score).
				Msg("best-move")
			best = pos.UCI(m)
		}

		// An infinite search reports only when told to stop.
		if opts.Infinite {
			<-ctx.Done()
		}
		u.printf("bestmove %s\n", best)
	}()
}

// parseGoOptions parses "go" command arguments.
func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	millis := func(i int) time.Duration {
		ms, _ := strconv.Atoi(args[i])
		return time.Duration(ms) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		if args[i] == "infinite" {
			opts.Infinite = true
			continue
		}
		if i+1 >= len(args) {
			break
		}
		switch args[i] {
		case "depth":
			opts.Depth, _ = strconv.Atoi(args[i+1])
		case "movetime":
			opts.MoveTime = millis(i + 1)
		case "wtime":
			opts.WTime = millis(i + 1)
		case "btime":
			opts.BTime = millis(i + 1)
		case "winc":
			opts.WInc = millis(i + 1)
		case "binc":
			opts.BInc = millis(i + 1)
		case "movestogo":
			opts.MovesToGo, _ = strconv.Atoi(args[i+1])
		default:
			continue
		}
		i++
	}

	return opts
}

// calculateLimits converts GoOptions to engine.SearchLimits. Without any
// bound the current difficulty decides. An infinite search deepens until
// stopped, or to the requested depth.
func (u *UCI) calculateLimits(opts GoOptions, pos *board.Position) engine.SearchLimits {
	limits := engine.DifficultySettings[u.engine.Difficulty()]
	if opts.Infinite {
		limits.MoveTime = unlimited
		limits.MaxDepth = opts.Depth
		return limits
	}

	switch {
	case opts.MoveTime > 0:
		limits.MoveTime = opts.MoveTime
		limits.MaxDepth = 0
	case opts.WTime > 0 || opts.BTime > 0:
		clock := engine.Clock{
			Time:      [2]time.Duration{opts.WTime, opts.BTime},
			Inc:       [2]time.Duration{opts.WInc, opts.BInc},
			MovesToGo: opts.MovesToGo,
		}
		ply := (pos.FullMoveNumber-1)*2 + int(pos.SideToMove)
		limits.MoveTime = engine.MoveBudget(clock, pos.SideToMove, ply)
		limits.MaxDepth = 0
	case opts.Depth > 0:
		limits.MoveTime = unlimited
	}

	if opts.Depth > 0 {
		limits.MaxDepth = opts.Depth
	}
	return limits
}

// sendInfo outputs search info in UCI format. Scores are from the side to
// move's point of view in centipawns.
func (u *UCI) sendInfo(pos *board.Position, info engine.SearchInfo) {
	score := info.Score
	if pos.SideToMove == board.Black {
		score = -score
	}
	cp := int(math.Round(score * 100))
	switch {
	case score >= engine.MateScore:
		cp = mateCentipawns
	case score <= -engine.MateScore:
		cp = -mateCentipawns
	}

	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		fmt.Sprintf("score cp %d", cp),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	}
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.Move != board.NoMove {
		parts = append(parts, "pv "+pos.UCI(info.Move))
	}

	u.printf("info %s\n", strings.Join(parts, " "))
}

// handleStop ends the running search. A sweep is never interrupted, so
// bestmove arrives once the current depth completes.
func (u *UCI) handleStop() {
	u.stopSearch()
}

// stopSearch ends deepening and waits for bestmove to be printed.
func (u *UCI) stopSearch() {
	if u.searchDone == nil {
		return
	}
	u.cancelSearch()
	<-u.searchDone
	u.searchDone, u.cancelSearch = nil, nil
}

// handleQuit finishes any search and stops profiling.
func (u *UCI) handleQuit() {
	u.stopSearch()
	u.stopProfile()
}

func (u *UCI) stopProfile() {
	if u.profileFile == nil {
		return
	}
	pprof.StopCPUProfile()
	u.profileFile.Close()
	log.Info().Str("file", u.profileFile.Name()).Msg("cpu-profile-saved")
	u.profileFile = nil
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> value <value>
	var name, value []string
	var target *[]string

	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if target != nil {
				*target = append(*target, arg)
			}
		}
	}

	val := strings.Join(value, " ")
	switch strings.ToLower(strings.Join(name, " ")) {
	case "difficulty":
		d, err := engine.ParseDifficulty(strings.ToLower(val))
		if err != nil {
			u.printf("info string %v\n", err)
			return
		}
		u.stopSearch()
		u.engine.SetDifficulty(d)
	case "cpuprofile":
		u.stopProfile()
		if val == "" || val == "stop" || val == "<empty>" {
			return
		}
		f, err := os.Create(val)
		if err != nil {
			log.Error().Err(err).Msg("create-cpu-profile")
			return
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			log.Error().Err(err).Msg("start-cpu-profile")
			return
		}
		u.profileFile = f
		log.Info().Str("file", val).Msg("cpu-profiling")
	}
}

// handleDisplay prints the board, its FEN and the game state.
func (u *UCI) handleDisplay() {
	u.printf("%s\nFen: %s\nOutcome: %s\n", u.position, u.position.ToFEN(), u.position.Outcome())
}

// handlePerft runs a perft test with a per-move breakdown.
func (u *UCI) handlePerft(args []string) {
	depth := 4
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}
	u.stopSearch()

	start := time.Now()
	var nodes uint64
	for _, m := range u.position.GenerateLegalMoves().Slice() {
		next := *u.position
		next.Apply(m)
		n := next.Perft(depth - 1)
		nodes += n
		u.printf("%s: %d\n", u.position.UCI(m), n)
	}
	elapsed := time.Since(start)

	u.printf("\nNodes: %d\n", nodes)
	u.printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		u.printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}
