// Package archive persists terminal game records. Live session state
// stays in memory; only finished games are written here.
package archive

import (
	"context"
	"time"
)

// Result labels for archived games.
const (
	ResultResignation = "resignation"
)

// Game is a record of a finished game.
type Game struct {
	ID            string
	Room          string
	Result        string
	FinalPosition string
	EndedAt       time.Time
}

// Store handles game record persistence.
type Store interface {
	// SaveGame persists a finished game record.
	SaveGame(ctx context.Context, game *Game) error

	// ListGames retrieves records for a room, newest first.
	ListGames(ctx context.Context, room string) ([]*Game, error)

	// Close closes the underlying database connection.
	Close() error
}
