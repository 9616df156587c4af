// Package retry executa operações que podem falhar com backoff exponencial.
package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"puzzle-gateway/internal/observability"
)

// ErrNoAttempts é devolvido quando MaxAttempts < 1: a operação não roda.
var ErrNoAttempts = errors.New("retry: max attempts must be at least 1")

// Config é imutável; passe por valor.
type Config struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

var (
	// DefaultConfig serve para operações genéricas.
	DefaultConfig = Config{
		MaxAttempts:       3,
		BaseDelay:         time.Second,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2,
	}

	// StorageConfig é mais rápido e barato, para escritas no banco.
	StorageConfig = Config{
		MaxAttempts:       3,
		BaseDelay:         500 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2,
	}
)

// Delay é a espera depois da tentativa attempt (a partir de 1) falhar:
// min(BaseDelay * BackoffMultiplier^(attempt-1), MaxDelay).
func (c Config) Delay(attempt int) time.Duration {
	d := float64(c.BaseDelay) * math.Pow(c.BackoffMultiplier, float64(attempt-1))
	if d > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(d)
}

// Do chama op até ela ter sucesso ou até MaxAttempts tentativas.
//
// O erro devolvido ao esgotar é exatamente o da última tentativa, sem wrap.
// Cancelar ctx interrompe a espera entre tentativas e devolve ctx.Err().
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts < 1 {
		return zero, ErrNoAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := cfg.Delay(attempt)
		observability.Logger.Warn("operation failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", cfg.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err))

		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	return zero, lastErr
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marca um erro que não adianta repetir. Do para na hora e devolve
// o erro original, sem a marca.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Run é Do para operações sem valor de retorno.
func Run(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	_, err := Do(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
