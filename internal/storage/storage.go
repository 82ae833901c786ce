package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when a requested game does not exist.
var ErrNotFound = errors.New("storage: not found")

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	keyGameSeq     = "game_seq"
	gamePrefix     = "game/"
)

// maxConflictRetries bounds how often a write is retried when a concurrent
// transaction touched the same keys.
const maxConflictRetries = 10

// Preferences stores engine settings between runs.
type Preferences struct {
	Threads    int           `json:"threads"`
	MoveTime   time.Duration `json:"move_time"`
	MaxDepth   int           `json:"max_depth"`
	Difficulty string        `json:"difficulty"`
	LastPlayed time.Time     `json:"last_played"`
}

// DefaultPreferences returns default preferences
func DefaultPreferences() *Preferences {
	return &Preferences{
		Threads:    0, // one per CPU
		MoveTime:   time.Second,
		Difficulty: "medium",
	}
}

// GameRecord is one finished game.
type GameRecord struct {
	ID       uint64        `json:"id"`
	White    string        `json:"white"`
	Black    string        `json:"black"`
	StartFEN string        `json:"start_fen"`
	FinalFEN string        `json:"final_fen"`
	Moves    []string      `json:"moves"`  // SAN
	Result   string        `json:"result"` // "1-0", "0-1", "1/2-1/2" or "*"
	Reason   string        `json:"reason"`
	Plies    int           `json:"plies"`
	Duration time.Duration `json:"duration"`
	PlayedAt time.Time     `json:"played_at"`
}

// Stats stores aggregate results over all recorded games.
type Stats struct {
	GamesPlayed   int            `json:"games_played"`
	WhiteWins     int            `json:"white_wins"`
	BlackWins     int            `json:"black_wins"`
	Draws         int            `json:"draws"`
	Unfinished    int            `json:"unfinished"`
	DrawsByReason map[string]int `json:"draws_by_reason"`
	TotalPlies    int            `json:"total_plies"`
	TotalPlayTime time.Duration  `json:"total_play_time"`
}

// NewStats returns empty statistics
func NewStats() *Stats {
	return &Stats{DrawsByReason: make(map[string]int)}
}

// AveragePlies returns the mean game length.
func (s *Stats) AveragePlies() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalPlies) / float64(s.GamesPlayed)
}

func (s *Stats) add(rec *GameRecord) {
	s.GamesPlayed++
	s.TotalPlies += rec.Plies
	s.TotalPlayTime += rec.Duration

	switch rec.Result {
	case "1-0":
		s.WhiteWins++
	case "0-1":
		s.BlackWins++
	case "1/2-1/2":
		s.Draws++
		s.DrawsByReason[rec.Reason]++
	default:
		s.Unfinished++
	}
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewStorage opens the database in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens (or creates) a database in dir.
func Open(dir string) (*Storage, error) {
	return open(badger.DefaultOptions(dir))
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory() (*Storage, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Storage, error) {
	opts = opts.WithLogger(badgerLogger{log.With().Str("component", "badger").Logger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	seq, err := db.GetSequence([]byte(keyGameSeq), 16)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("game sequence: %w", err)
	}

	return &Storage{db: db, seq: seq}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	seqErr := s.seq.Release()
	if err := s.db.Close(); err != nil {
		return err
	}
	return seqErr
}

// SavePreferences saves preferences
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastPlayed = time.Now()

	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPreferences), data)
	})
}

// LoadPreferences loads preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, keyPreferences, prefs)
	})
	if errors.Is(err, ErrNotFound) {
		return prefs, nil
	}
	return prefs, err
}

// LoadStats loads statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*Stats, error) {
	stats := NewStats()
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, keyStats, stats)
	})
	if errors.Is(err, ErrNotFound) {
		return stats, nil
	}
	return stats, err
}

// RecordGame stores a finished game and folds it into the statistics in one
// transaction. The record's ID is assigned here.
func (s *Storage) RecordGame(rec *GameRecord) error {
	id, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("next game id: %w", err)
	}
	// Badger sequences start at zero; IDs start at one.
	rec.ID = id + 1
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now()
	}

	game, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			stats := NewStats()
			if err := getJSON(txn, keyStats, stats); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			stats.add(rec)

			data, err := json.Marshal(stats)
			if err != nil {
				return err
			}
			if err := txn.Set(gameKey(rec.ID), game); err != nil {
				return err
			}
			return txn.Set([]byte(keyStats), data)
		})
		if !errors.Is(err, badger.ErrConflict) || attempt >= maxConflictRetries {
			break
		}
		log.Debug().Uint64("game", rec.ID).Int("attempt", attempt).Msg("record-game-conflict")
	}
	if err != nil {
		return fmt.Errorf("record game %d: %w", rec.ID, err)
	}
	return nil
}

// LoadGame returns the game with the given ID.
func (s *Storage) LoadGame(id uint64) (*GameRecord, error) {
	rec := &GameRecord{}
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, string(gameKey(id)), rec)
	})
	if err != nil {
		return nil, fmt.Errorf("game %d: %w", id, err)
	}
	return rec, nil
}

// ListGames returns up to limit games, newest first. A limit of 0 returns
// every game.
func (s *Storage) ListGames(limit int) ([]*GameRecord, error) {
	var games []*GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(gamePrefix)
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts from the largest key with the prefix.
		for it.Seek(append([]byte(gamePrefix), 0xFF)); it.ValidForPrefix(opts.Prefix); it.Next() {
			rec := &GameRecord{}
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, rec)
			}); err != nil {
				return err
			}
			games = append(games, rec)
			if limit > 0 && len(games) >= limit {
				break
			}
		}
		return nil
	})
	return games, err
}

// gameKey orders games by ID under lexicographic key order.
func gameKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x", gamePrefix, id))
}

func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// badgerLogger routes badger's logging through zerolog.
type badgerLogger struct {
	zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.Error().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warn().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.Trace().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
