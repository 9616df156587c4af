// Package leaderboard recebe e lista os tempos de conclusão dos jogadores.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"puzzle-gateway/internal/anticheat"
	"puzzle-gateway/internal/retry"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var ErrInvalidPage = errors.New("limit must be between 1 and 100 and offset must be non-negative")

type Entry struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	TimeSeconds int       `json:"time_seconds"`
	CreatedAt   time.Time `json:"created_at"`
}

// Page é uma fatia ordenada do ranking (menor tempo primeiro).
type Page struct {
	Total   int     `json:"total"`
	Entries []Entry `json:"data"`
}

type Repository interface {
	AddEntry(ctx context.Context, name string, timeSeconds int) (Entry, error)
	ListEntries(ctx context.Context, limit, offset int) (Page, error)
}

// RejectedError carrega o motivo do anti-cheat.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return "submission rejected: " + e.Reason }

type Service struct {
	repo   Repository
	rules  anticheat.Rules
	retry  retry.Config
	logger *zap.Logger
}

type Option func(*Service)

func WithRules(r anticheat.Rules) Option { return func(s *Service) { s.rules = r } }

func WithRetry(cfg retry.Config) Option { return func(s *Service) { s.retry = cfg } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		rules:  anticheat.DefaultRules,
		retry:  retry.StorageConfig,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit valida, sanitiza e grava a entrada. Erros de validação vêm como
// *RejectedError; erros do repositório passam pelo retry e voltam como estão.
func (s *Service) Submit(ctx context.Context, name string, timeSeconds float64) (Entry, error) {
	if res := s.rules.Validate(name, timeSeconds); !res.Valid {
		s.logger.Info("leaderboard submission rejected", zap.String("reason", res.Reason))
		return Entry{}, &RejectedError{Reason: res.Reason}
	}

	clean := s.rules.SanitizeName(name)
	secs := int(timeSeconds)

	entry, err := retry.Do(ctx, s.retry, func(ctx context.Context) (Entry, error) {
		return s.repo.AddEntry(ctx, clean, secs)
	})
	if err != nil {
		s.logger.Error("leaderboard insert failed", zap.String("name", clean), zap.Error(err))
		return Entry{}, err
	}
	return entry, nil
}

// List aplica DefaultLimit quando limit == 0.
func (s *Service) List(ctx context.Context, limit, offset int) (Page, error) {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit || offset < 0 {
		return Page{}, fmt.Errorf("%w (limit=%d offset=%d)", ErrInvalidPage, limit, offset)
	}

	page, err := s.repo.ListEntries(ctx, limit, offset)
	if err != nil {
		return Page{}, fmt.Errorf("list leaderboard: %w", err)
	}
	if page.Entries == nil {
		page.Entries = []Entry{}
	}
	return page, nil
}
