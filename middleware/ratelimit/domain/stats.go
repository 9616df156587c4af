package domain

import (
	"context"
	"time"
)

// StatsEvent registra uma decisão do rate limit.
//
// Route é o padrão da rota (ex: "POST /api/leaderboard"), não o path cru,
// para não explodir a cardinalidade no Redis.
type StatsEvent struct {
	Key     Key
	Allowed bool

	Route     string
	Remaining int

	At time.Time
}

// StatsStore persiste estatísticas de decisão.
// O middleware trata erro como best-effort.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
