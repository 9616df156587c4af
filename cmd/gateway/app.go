package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"puzzle-gateway/internal/config"
	"puzzle-gateway/internal/leaderboard"
	"puzzle-gateway/internal/metrics"
	"puzzle-gateway/internal/puzzle"
	"puzzle-gateway/internal/server"
	"puzzle-gateway/internal/store"
	"puzzle-gateway/middleware/ratelimit/application"
	"puzzle-gateway/middleware/ratelimit/domain"
	"puzzle-gateway/middleware/ratelimit/infra"
)

// app guarda o servidor montado e o que precisa ser fechado no fim.
type app struct {
	Server *server.Server

	rdb *redis.Client
	db  *store.Store
}

func (a *app) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

// buildApp liga config, backends e serviços. O janitor do store em memória
// vive até o ctx encerrar.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	if cfg.RateLimit.Backend == config.BackendRedis || (cfg.Stats.Enabled && cfg.Stats.Backend == config.BackendRedis) {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.rdb = rdb

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
	}

	var limiter domain.LimiterStore
	switch cfg.RateLimit.Backend {
	case config.BackendRedis:
		limiter = infra.NewRedisStore(a.rdb, infra.WithRedisPrefix(cfg.Redis.Prefix))
	default:
		mem := infra.NewStore(infra.WithCleanupEvery(cfg.RateLimit.CleanupEvery))
		mem.StartJanitor(ctx)
		limiter = mem
	}

	var stats domain.StatsStore
	if cfg.Stats.Enabled {
		switch cfg.Stats.Backend {
		case config.BackendRedis:
			stats = infra.NewRedisStatsStore(a.rdb,
				infra.WithStatsPrefix(cfg.Stats.Prefix),
				infra.WithStatsTTL(cfg.Stats.TTL),
				infra.WithStatsBucket(cfg.Stats.Bucket),
				infra.WithStatsTrackKeys(cfg.Stats.TrackKeys))
		default:
			stats = infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.Stats.TrackKeys))
		}
	}

	// sem banco o leaderboard recebe um *Store nil: leitura vazia, escrita falha
	var puzzleRepo puzzle.Repository
	if cfg.Store.Enabled() {
		db, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		a.db = db
		if err := db.Migrate(ctx); err != nil {
			return nil, err
		}
		puzzleRepo = db
	} else {
		logger.Warn("no database configured; leaderboard submissions will fail and puzzles come from the local list")
	}

	collector := metrics.New(logger.Named("metrics"), cfg.Metrics.DumpInterval)

	puzzles := puzzle.New(puzzle.Config{
		Repo: puzzleRepo,
		Slots: application.ConcurrencyService{
			Pool:           infra.NewChanPool(cfg.Concurrency.MaxGeneration),
			AcquireTimeout: cfg.Concurrency.AcquireTimeout,
		},
		Metrics: collector,
		Logger:  logger.Named("puzzle"),
	})
	board := leaderboard.NewService(a.db, leaderboard.WithLogger(logger.Named("leaderboard")))

	var frontend http.Handler
	if cfg.Frontend.UpstreamURL != "" {
		proxy, err := server.NewFrontendProxy(cfg.Frontend.UpstreamURL, logger.Named("frontend"))
		if err != nil {
			return nil, err
		}
		frontend = proxy
	}

	var inflight domain.SlotPool
	if cfg.Concurrency.MaxInflight > 0 {
		inflight = infra.NewChanPool(cfg.Concurrency.MaxInflight)
	}

	a.Server = server.New(server.Deps{
		Puzzles:         puzzles,
		Leaderboard:     board,
		Metrics:         collector,
		Limiter:         limiter,
		Stats:           stats,
		RateLimit:       domain.Config{MaxRequests: cfg.RateLimit.MaxRequests, Window: cfg.RateLimit.Window},
		NamespaceRoutes: cfg.RateLimit.NamespaceRoutes,
		InflightPool:    inflight,
		AcquireTimeout:  cfg.Concurrency.AcquireTimeout,
		Frontend:        frontend,
		Logger:          logger,
	})

	ok = true
	return a, nil
}
