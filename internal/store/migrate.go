package store

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS leaderboard (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		time_seconds INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_leaderboard_time ON leaderboard(time_seconds, created_at);`,
	`CREATE TABLE IF NOT EXISTS puzzles (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		normalized_question TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL
	);`,
}

// Migrate cria as tabelas que faltarem.
func (s *Store) Migrate(ctx context.Context) error {
	if !s.ready() {
		return ErrNotInitialized
	}
	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}
	return nil
}
