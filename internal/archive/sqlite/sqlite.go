package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/movewire/movewire-server/internal/archive"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id             TEXT PRIMARY KEY,
	room           TEXT NOT NULL,
	result         TEXT NOT NULL,
	final_position TEXT NOT NULL DEFAULT '',
	ended_at       DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_games_room ON games(room, ended_at DESC);
`

// SQLiteStore implements archive.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite archive store and bootstraps the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveGame persists a finished game record.
func (s *SQLiteStore) SaveGame(ctx context.Context, game *archive.Game) error {
	query := `
		INSERT INTO games (id, room, result, final_position, ended_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query,
		game.ID, game.Room, game.Result, game.FinalPosition, game.EndedAt); err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

// ListGames retrieves records for a room, newest first.
func (s *SQLiteStore) ListGames(ctx context.Context, room string) ([]*archive.Game, error) {
	query := `
		SELECT id, room, result, final_position, ended_at
		FROM games
		WHERE room = ?
		ORDER BY ended_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, room)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []*archive.Game
	for rows.Next() {
		g := &archive.Game{}
		if err := rows.Scan(&g.ID, &g.Room, &g.Result, &g.FinalPosition, &g.EndedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}
