package application

import (
	"context"

	"puzzle-gateway/middleware/ratelimit/domain"
)

// Service aplica a Config de um ponto de uso sobre um LimiterStore.
//
// Vários Services podem compartilhar o mesmo Store; nesse caso a cota por chave
// é única entre eles.
type Service struct {
	Store  domain.LimiterStore
	Config domain.Config
}

func (s Service) config() domain.Config {
	if s.Config.MaxRequests == 0 && s.Config.Window == 0 {
		return domain.DefaultConfig
	}
	return s.Config
}

// Decide consulta o store. Sem store tudo é admitido.
//
// Se o store falhar a decisão é "admitido" (fail open) e o erro é devolvido
// para quem chamou registrar.
func (s Service) Decide(ctx context.Context, key domain.Key) (domain.Decision, error) {
	cfg := s.config()
	if s.Store == nil {
		return domain.Decision{Allowed: true, Limit: cfg.MaxRequests, Remaining: cfg.MaxRequests}, nil
	}

	dec, err := s.Store.Check(ctx, key, cfg)
	if err != nil {
		return domain.Decision{Allowed: true, Limit: cfg.MaxRequests}, err
	}
	return dec, nil
}
