package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"puzzle-gateway/internal/puzzle"
	"puzzle-gateway/internal/retry"
)

var _ puzzle.Repository = (*Store)(nil)

// SavePuzzle ignora perguntas repetidas (mesma pergunta normalizada).
func (s *Store) SavePuzzle(ctx context.Context, p puzzle.Puzzle) (bool, error) {
	if !s.ready() {
		return false, retry.Permanent(ErrNotInitialized)
	}

	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO puzzles (id, type, question, answer, normalized_question, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(normalized_question) DO NOTHING
	`, p.ID, string(p.Type), p.Question, p.Answer, puzzle.NormalizeText(p.Question), time.Now().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("save puzzle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save puzzle: %w", err)
	}
	return n > 0, nil
}

func (s *Store) PuzzleByID(ctx context.Context, id string) (puzzle.Puzzle, bool, error) {
	if !s.ready() {
		return puzzle.Puzzle{}, false, nil
	}
	row := s.DB.QueryRowContext(ctx, `SELECT id, type, question, answer FROM puzzles WHERE id = ?`, id)
	return scanPuzzle(row)
}

func (s *Store) RandomPuzzle(ctx context.Context, excludeIDs []string) (puzzle.Puzzle, bool, error) {
	if !s.ready() {
		return puzzle.Puzzle{}, false, nil
	}

	query := `SELECT id, type, question, answer FROM puzzles`
	args := make([]any, 0, len(excludeIDs))
	if len(excludeIDs) > 0 {
		query += ` WHERE id NOT IN (` + strings.TrimSuffix(strings.Repeat("?,", len(excludeIDs)), ",") + `)`
		for _, id := range excludeIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY RANDOM() LIMIT 1`

	return scanPuzzle(s.DB.QueryRowContext(ctx, query, args...))
}

func scanPuzzle(row *sql.Row) (puzzle.Puzzle, bool, error) {
	var (
		p puzzle.Puzzle
		t string
	)
	if err := row.Scan(&p.ID, &t, &p.Question, &p.Answer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return puzzle.Puzzle{}, false, nil
		}
		return puzzle.Puzzle{}, false, fmt.Errorf("fetch puzzle: %w", err)
	}
	p.Type = puzzle.Type(t)
	return p, true, nil
}
