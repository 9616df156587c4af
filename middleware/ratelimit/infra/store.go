package infra

import (
	"context"
	"sync"
	"time"

	"puzzle-gateway/middleware/ratelimit/domain"
)

// Store é um rate limiter de janela fixa em memória.
//
// Cada chave tem um contador que zera quando a janela expira. A expiração é
// preguiçosa: o Check recria a entrada quando encontra uma janela vencida, então
// Cleanup só serve para limitar memória.
//
// Reiniciar o processo zera todos os contadores.
type Store struct {
	mu           sync.Mutex
	entries      map[domain.Key]*domain.Entry
	now          func() time.Time
	cleanupEvery time.Duration
}

type StoreOption func(*Store)

// WithClock troca o relógio (testes).
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *Store) { s.cleanupEvery = d }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		entries:      make(map[domain.Key]*domain.Entry),
		now:          time.Now,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check implementa domain.LimiterStore. Nunca retorna erro.
func (s *Store) Check(_ context.Context, key domain.Key, cfg domain.Config) (domain.Decision, error) {
	return s.CheckRateLimit(key, cfg), nil
}

// CheckRateLimit decide se a requisição de key é admitida.
//
// Requisições rejeitadas não consomem cota nem estendem a janela.
func (s *Store) CheckRateLimit(key domain.Key, cfg domain.Config) domain.Decision {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || ent.Expired(now) {
		reset := now.Add(cfg.Window)
		s.entries[key] = &domain.Entry{Count: 1, ResetTime: reset}
		return domain.Decision{
			Allowed:   true,
			Limit:     cfg.MaxRequests,
			Remaining: cfg.MaxRequests - 1,
			ResetTime: reset,
		}
	}

	if ent.Count >= cfg.MaxRequests {
		return domain.Decision{
			Allowed:   false,
			Limit:     cfg.MaxRequests,
			Remaining: 0,
			ResetTime: ent.ResetTime,
		}
	}

	ent.Count++
	return domain.Decision{
		Allowed:   true,
		Limit:     cfg.MaxRequests,
		Remaining: cfg.MaxRequests - ent.Count,
		ResetTime: ent.ResetTime,
	}
}

// Lookup devolve a entrada viva de key, se houver.
func (s *Store) Lookup(key domain.Key) (domain.Entry, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || ent.Expired(now) {
		return domain.Entry{}, false
	}
	return *ent, true
}

// Len conta as entradas guardadas, inclusive as expiradas ainda não limpas.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup remove as entradas cuja janela já passou.
func (s *Store) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.Expired(now) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que chama Cleanup periodicamente.
// Pare cancelando o contexto.
func (s *Store) StartJanitor(ctx context.Context) {
	startJanitor(ctx, s.cleanupEvery, s.Cleanup)
}

func startJanitor(ctx context.Context, every time.Duration, fn func()) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				fn()
			}
		}
	}()
}
