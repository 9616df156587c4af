package store

import (
	"context"
	"fmt"
	"time"

	"puzzle-gateway/internal/leaderboard"
	"puzzle-gateway/internal/retry"
)

var _ leaderboard.Repository = (*Store)(nil)

func (s *Store) AddEntry(ctx context.Context, name string, timeSeconds int) (leaderboard.Entry, error) {
	if !s.ready() {
		return leaderboard.Entry{}, retry.Permanent(ErrNotInitialized)
	}

	now := time.Now().UTC()
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO leaderboard (name, time_seconds, created_at) VALUES (?, ?, ?)`,
		name, timeSeconds, now.UnixMilli())
	if err != nil {
		return leaderboard.Entry{}, fmt.Errorf("insert leaderboard entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return leaderboard.Entry{}, fmt.Errorf("insert leaderboard entry: %w", err)
	}
	return leaderboard.Entry{
		ID:          id,
		Name:        name,
		TimeSeconds: timeSeconds,
		CreatedAt:   time.UnixMilli(now.UnixMilli()).UTC(),
	}, nil
}

// ListEntries ordena por tempo e, no empate, por quem enviou primeiro.
func (s *Store) ListEntries(ctx context.Context, limit, offset int) (leaderboard.Page, error) {
	if !s.ready() {
		return leaderboard.Page{Entries: []leaderboard.Entry{}}, nil
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leaderboard`).Scan(&total); err != nil {
		return leaderboard.Page{}, fmt.Errorf("count leaderboard: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, time_seconds, created_at
		FROM leaderboard
		ORDER BY time_seconds ASC, created_at ASC, id ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return leaderboard.Page{}, fmt.Errorf("list leaderboard: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	entries := []leaderboard.Entry{}
	for rows.Next() {
		var (
			e       leaderboard.Entry
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.TimeSeconds, &created); err != nil {
			return leaderboard.Page{}, fmt.Errorf("scan leaderboard: %w", err)
		}
		e.CreatedAt = time.UnixMilli(created).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return leaderboard.Page{}, fmt.Errorf("list leaderboard: %w", err)
	}
	return leaderboard.Page{Total: total, Entries: entries}, nil
}
