package application

import (
	"context"
	"errors"
	"time"

	"puzzle-gateway/middleware/ratelimit/domain"
)

// ErrNoSlot indica que nenhuma vaga foi obtida dentro do timeout.
var ErrNoSlot = errors.New("no concurrency slot available")

// ConcurrencyService controla aquisição/liberação de vagas com timeout.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir uma vaga.
// Com AcquireTimeout <= 0 espera até o ctx encerrar.
// Se ok=false, nenhuma vaga foi adquirida e release é nil.
func (s ConcurrencyService) Acquire(ctx context.Context) (release func(), ok bool) {
	if s.Pool == nil {
		return func() {}, true
	}

	if s.AcquireTimeout <= 0 {
		return s.Pool.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()
	return s.Pool.Acquire(acqCtx)
}

// Run executa fn ocupando uma vaga, ou retorna ErrNoSlot sem executar.
func (s ConcurrencyService) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	release, ok := s.Acquire(ctx)
	if !ok {
		return ErrNoSlot
	}
	defer release()
	return fn(ctx)
}
