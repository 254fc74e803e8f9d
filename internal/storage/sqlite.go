// Package storage provides SQLite-based persistence for player profiles and
// match history. Uses the pure-Go modernc.org/sqlite driver to avoid CGO
// dependencies.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"codearena/internal/arena"
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// ProfileEntry is one row of the leaderboard.
type ProfileEntry struct {
	Player string
	Score  int
}

// MatchRecord is a persisted match result.
type MatchRecord struct {
	ID           int64
	RoomID       string
	Player1      string
	Player2      string
	HP1          int
	HP2          int
	Winner       int // 0 draw, 1 or 2
	Rounds       int
	DurationSecs int
	CreatedAt    time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS profiles (
			player TEXT PRIMARY KEY,
			score INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS point_awards (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id TEXT NOT NULL,
			player TEXT NOT NULL,
			points INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(room_id, player)
		);

		CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id TEXT NOT NULL,
			player1 TEXT NOT NULL,
			player2 TEXT NOT NULL,
			hp1 INTEGER NOT NULL DEFAULT 0,
			hp2 INTEGER NOT NULL DEFAULT 0,
			winner INTEGER NOT NULL DEFAULT 0,
			rounds INTEGER NOT NULL DEFAULT 0,
			duration_secs INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_matches_player1 ON matches(player1);
		CREATE INDEX IF NOT EXISTS idx_matches_player2 ON matches(player2);
		CREATE INDEX IF NOT EXISTS idx_profiles_score ON profiles(score DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// AwardPoints credits a player for a finished match. Awarding the same
// room twice for the same player is a no-op, so retries cannot double-count.
func (s *Store) AwardPoints(roomID, player string, points int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT OR IGNORE INTO point_awards (room_id, player, points) VALUES (?, ?, ?)",
		roomID, player, points,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot record award: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: cannot check award: %w", err)
	}
	if inserted == 0 {
		// Already credited for this room.
		return nil
	}

	_, err = tx.Exec(
		`INSERT INTO profiles (player, score) VALUES (?, ?)
		 ON CONFLICT(player) DO UPDATE SET score = score + excluded.score`,
		player, points,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot update profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit award: %w", err)
	}
	return nil
}

// Score returns a player's accumulated score. Unknown players score 0.
func (s *Store) Score(player string) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow(
		"SELECT score FROM profiles WHERE player = ?",
		player,
	).Scan(&score)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query score: %w", err)
	}
	return int(score.Int64), nil
}

// Leaderboard retrieves the top N players by score.
func (s *Store) Leaderboard(limit int) ([]ProfileEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT player, score
		 FROM profiles
		 ORDER BY score DESC, player ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []ProfileEntry
	for rows.Next() {
		var e ProfileEntry
		if err := rows.Scan(&e.Player, &e.Score); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// SaveMatch implements arena.MatchSaver, recording a finished match.
func (s *Store) SaveMatch(result arena.Result) error {
	_, err := s.db.Exec(
		`INSERT INTO matches
		 (room_id, player1, player2, hp1, hp2, winner, rounds, duration_secs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(result.RoomID),
		result.Names[0],
		result.Names[1],
		result.FinalHP[0],
		result.FinalHP[1],
		int(result.Winner),
		result.Rounds,
		int(result.Duration.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save match: %w", err)
	}
	return nil
}

// RecentMatches retrieves the most recent matches.
func (s *Store) RecentMatches(limit int) ([]MatchRecord, error) {
	return s.queryMatches(
		`SELECT id, room_id, player1, player2, hp1, hp2, winner, rounds, duration_secs, created_at
		 FROM matches
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
}

// PlayerMatchHistory retrieves a player's most recent matches.
func (s *Store) PlayerMatchHistory(player string, limit int) ([]MatchRecord, error) {
	return s.queryMatches(
		`SELECT id, room_id, player1, player2, hp1, hp2, winner, rounds, duration_secs, created_at
		 FROM matches
		 WHERE player1 = ? OR player2 = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		player, player, limit,
	)
}

func (s *Store) queryMatches(query string, args ...any) ([]MatchRecord, error) {
	if n := len(args); n > 0 {
		if limit, ok := args[n-1].(int); ok && limit <= 0 {
			args[n-1] = 20
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		var r MatchRecord
		var createdAt any
		if err := rows.Scan(
			&r.ID,
			&r.RoomID,
			&r.Player1,
			&r.Player2,
			&r.HP1,
			&r.HP2,
			&r.Winner,
			&r.Rounds,
			&r.DurationSecs,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}

		// Parse the datetime - handle both time.Time and string
		switch v := createdAt.(type) {
		case time.Time:
			r.CreatedAt = v
		case string:
			if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
				r.CreatedAt = parsed
			}
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return records, nil
}

// Interface checks
var (
	_ arena.PointsAwarder = (*Store)(nil)
	_ arena.MatchSaver    = (*Store)(nil)
	_ arena.ScoreReader   = (*Store)(nil)
)
