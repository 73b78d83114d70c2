package db

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS board_meta (
		id       INTEGER PRIMARY KEY,
		saved_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS courts (
		id               TEXT PRIMARY KEY,
		position         INTEGER NOT NULL,
		name             TEXT NOT NULL,
		status           TEXT NOT NULL CHECK (status IN ('empty', 'occupied')),
		match_start_time TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS board_players (
		id            TEXT PRIMARY KEY,
		display_name  TEXT NOT NULL,
		avatar_url    TEXT NOT NULL DEFAULT '',
		check_in_time TIMESTAMPTZ NOT NULL,
		status        TEXT NOT NULL CHECK (status IN ('queueing', 'ready', 'playing')),
		location      TEXT NOT NULL CHECK (location IN ('queue', 'ready', 'court')),
		court_id      TEXT REFERENCES courts (id) ON DELETE CASCADE,
		position      INTEGER NOT NULL
	)`,
}

// Migrate creates the board tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
