package storage

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestPreferences(t *testing.T) {
	s := openTestStorage(t)

	t.Run("Defaults", func(t *testing.T) {
		prefs, err := s.LoadPreferences()
		if err != nil {
			t.Fatalf("LoadPreferences: %v", err)
		}
		if prefs.Difficulty != "medium" {
			t.Errorf("Difficulty = %q, want medium", prefs.Difficulty)
		}
		if prefs.MoveTime != time.Second {
			t.Errorf("MoveTime = %v, want 1s", prefs.MoveTime)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		want := &Preferences{Threads: 6, MoveTime: 250 * time.Millisecond, MaxDepth: 5, Difficulty: "hard"}
		if err := s.SavePreferences(want); err != nil {
			t.Fatalf("SavePreferences: %v", err)
		}
		if want.LastPlayed.IsZero() {
			t.Error("SavePreferences did not stamp LastPlayed")
		}

		got, err := s.LoadPreferences()
		if err != nil {
			t.Fatalf("LoadPreferences: %v", err)
		}
		if got.Threads != 6 || got.MoveTime != want.MoveTime || got.MaxDepth != 5 || got.Difficulty != "hard" {
			t.Errorf("LoadPreferences() = %+v, want %+v", got, want)
		}
	})
}

func TestRecordGame(t *testing.T) {
	s := openTestStorage(t)

	games := []*GameRecord{
		{White: "hard", Black: "easy", Moves: []string{"f3", "e5", "g4", "Qh4#"}, Result: "0-1", Reason: "checkmate", Plies: 4, Duration: time.Second},
		{White: "easy", Black: "easy", Result: "1/2-1/2", Reason: "stalemate", Plies: 80, Duration: 2 * time.Second},
		{White: "easy", Black: "hard", Result: "1-0", Reason: "checkmate", Plies: 40, Duration: time.Second},
		{White: "easy", Black: "hard", Result: "*", Plies: 200, Duration: time.Second},
	}
	for i, g := range games {
		if err := s.RecordGame(g); err != nil {
			t.Fatalf("RecordGame: %v", err)
		}
		if g.ID != uint64(i+1) {
			t.Errorf("game %d got ID %d", i, g.ID)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.GamesPlayed != 4 || stats.WhiteWins != 1 || stats.BlackWins != 1 || stats.Draws != 1 || stats.Unfinished != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.DrawsByReason["stalemate"] != 1 {
		t.Errorf("DrawsByReason = %v", stats.DrawsByReason)
	}
	if got := stats.AveragePlies(); got != 81 {
		t.Errorf("AveragePlies() = %v, want 81", got)
	}
	if stats.TotalPlayTime != 5*time.Second {
		t.Errorf("TotalPlayTime = %v, want 5s", stats.TotalPlayTime)
	}

	got, err := s.LoadGame(1)
	if err != nil {
		t.Fatalf("LoadGame(1): %v", err)
	}
	if got.Result != "0-1" || len(got.Moves) != 4 || got.Moves[3] != "Qh4#" {
		t.Errorf("LoadGame(1) = %+v", got)
	}

	if _, err := s.LoadGame(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadGame(99) = %v, want ErrNotFound", err)
	}
}

func TestListGames(t *testing.T) {
	s := openTestStorage(t)

	for i := 0; i < 20; i++ {
		if err := s.RecordGame(&GameRecord{White: fmt.Sprint(i), Result: "*"}); err != nil {
			t.Fatalf("RecordGame: %v", err)
		}
	}

	all, err := s.ListGames(0)
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(all) != 20 {
		t.Fatalf("ListGames(0) returned %d games, want 20", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ID >= all[i-1].ID {
			t.Fatalf("games not newest first: %d before %d", all[i-1].ID, all[i].ID)
		}
	}

	recent, err := s.ListGames(3)
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(recent) != 3 || recent[0].ID != 20 {
		t.Errorf("ListGames(3) = %d games starting at %d", len(recent), recent[0].ID)
	}
}

func TestRecordGameConcurrent(t *testing.T) {
	s := openTestStorage(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.RecordGame(&GameRecord{Result: "1-0", Plies: 10}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("RecordGame: %v", err)
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 8 {
		t.Errorf("GamesPlayed = %d, want 8", stats.GamesPlayed)
	}
}

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.RecordGame(&GameRecord{Result: "1/2-1/2", Reason: "bare kings"}); err != nil {
		t.Fatalf("RecordGame: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	if _, err := s.LoadGame(1); err != nil {
		t.Errorf("LoadGame after reopen: %v", err)
	}
	rec := &GameRecord{Result: "*"}
	if err := s.RecordGame(rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID <= 1 {
		t.Errorf("ID after reopen = %d, want > 1", rec.ID)
	}
}

func TestDataPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DataDirEnv, dir)

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir != dir {
		t.Errorf("GetDataDir() = %q, want %q", dataDir, dir)
	}

	dbDir, err := GetDatabaseDir()
	if err != nil {
		t.Fatalf("GetDatabaseDir failed: %v", err)
	}
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		t.Errorf("Database directory was not created: %s", dbDir)
	}
}
