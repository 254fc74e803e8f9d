package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codearena/internal/arena"
	"codearena/internal/game"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestAwardPointsAccumulates(t *testing.T) {
	store := openTestStore(t)

	if err := store.AwardPoints("111111", "alice", 100); err != nil {
		t.Fatalf("AwardPoints() failed: %v", err)
	}
	if err := store.AwardPoints("222222", "alice", 20); err != nil {
		t.Fatalf("AwardPoints() failed: %v", err)
	}

	score, err := store.Score("alice")
	if err != nil {
		t.Fatalf("Score() failed: %v", err)
	}
	if score != 120 {
		t.Errorf("Expected score 120, got %d", score)
	}
}

func TestAwardPointsIdempotentPerRoom(t *testing.T) {
	store := openTestStore(t)

	// Retrying the same award must not double-count.
	for i := 0; i < 3; i++ {
		if err := store.AwardPoints("111111", "alice", 100); err != nil {
			t.Fatalf("AwardPoints() failed: %v", err)
		}
	}

	score, err := store.Score("alice")
	if err != nil {
		t.Fatalf("Score() failed: %v", err)
	}
	if score != 100 {
		t.Errorf("Expected score 100 after retries, got %d", score)
	}
}

func TestScoreUnknownPlayer(t *testing.T) {
	store := openTestStore(t)

	score, err := store.Score("nobody")
	if err != nil {
		t.Fatalf("Score() failed: %v", err)
	}
	if score != 0 {
		t.Errorf("Expected 0 for unknown player, got %d", score)
	}
}

func TestLeaderboardOrder(t *testing.T) {
	store := openTestStore(t)

	store.AwardPoints("r1", "alice", 100)
	store.AwardPoints("r1", "bob", 20)
	store.AwardPoints("r2", "carol", 50)
	store.AwardPoints("r3", "carol", 100)

	entries, err := store.Leaderboard(10)
	if err != nil {
		t.Fatalf("Leaderboard() failed: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].Player != "carol" || entries[0].Score != 150 {
		t.Errorf("Expected carol first with 150, got %s %d", entries[0].Player, entries[0].Score)
	}
	if entries[1].Player != "alice" || entries[1].Score != 100 {
		t.Errorf("Expected alice second with 100, got %s %d", entries[1].Player, entries[1].Score)
	}
	if entries[2].Player != "bob" {
		t.Errorf("Expected bob last, got %s", entries[2].Player)
	}
}

func TestLeaderboardLimit(t *testing.T) {
	store := openTestStore(t)

	players := []string{"a", "b", "c", "d", "e"}
	for i, p := range players {
		store.AwardPoints("r1", p, (i+1)*10)
	}

	entries, err := store.Leaderboard(3)
	if err != nil {
		t.Fatalf("Leaderboard() failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 3 entries with limit, got %d", len(entries))
	}
	if entries[0].Score != 50 {
		t.Errorf("Expected top score 50, got %d", entries[0].Score)
	}
}

func TestSaveAndRetrieveMatches(t *testing.T) {
	store := openTestStore(t)

	err := store.SaveMatch(arena.Result{
		RoomID:   "123456",
		Winner:   game.Player1,
		Names:    [2]string{"alice", "bob"},
		FinalHP:  [2]int{35, 0},
		Rounds:   3,
		Duration: 95 * time.Second,
	})
	if err != nil {
		t.Fatalf("SaveMatch() failed: %v", err)
	}

	err = store.SaveMatch(arena.Result{
		RoomID:  "654321",
		Winner:  0,
		Names:   [2]string{"carol", "dave"},
		FinalHP: [2]int{10, 10},
		Rounds:  3,
	})
	if err != nil {
		t.Fatalf("SaveMatch() failed: %v", err)
	}

	records, err := store.RecentMatches(10)
	if err != nil {
		t.Fatalf("RecentMatches() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(records))
	}

	history, err := store.PlayerMatchHistory("alice", 10)
	if err != nil {
		t.Fatalf("PlayerMatchHistory() failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("Expected 1 match for alice, got %d", len(history))
	}
	r := history[0]
	if r.RoomID != "123456" || r.Player1 != "alice" || r.Player2 != "bob" {
		t.Errorf("Unexpected record: %+v", r)
	}
	if r.Winner != 1 || r.HP1 != 35 || r.HP2 != 0 {
		t.Errorf("Unexpected result fields: %+v", r)
	}
	if r.DurationSecs != 95 {
		t.Errorf("Expected duration 95s, got %d", r.DurationSecs)
	}
}

func TestPlayerMatchHistoryBothSeats(t *testing.T) {
	store := openTestStore(t)

	store.SaveMatch(arena.Result{RoomID: "r1", Names: [2]string{"alice", "bob"}})
	store.SaveMatch(arena.Result{RoomID: "r2", Names: [2]string{"carol", "alice"}})
	store.SaveMatch(arena.Result{RoomID: "r3", Names: [2]string{"carol", "dave"}})

	history, err := store.PlayerMatchHistory("alice", 10)
	if err != nil {
		t.Fatalf("PlayerMatchHistory() failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("Expected 2 matches for alice, got %d", len(history))
	}
}

func TestStoreExpandHomePath(t *testing.T) {
	// Verify nested directories are created on open.
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}
