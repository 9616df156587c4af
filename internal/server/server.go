// Package server monta a API HTTP do jogo sobre chi.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"puzzle-gateway/internal/config"
	"puzzle-gateway/internal/leaderboard"
	"puzzle-gateway/internal/metrics"
	"puzzle-gateway/internal/puzzle"
	"puzzle-gateway/middleware/ratelimit"
	"puzzle-gateway/middleware/ratelimit/domain"
)

// Deps reúne o que o servidor precisa. Limiter nil desliga o rate limit;
// InflightPool nil desliga o limite de concorrência; Frontend nil devolve
// 404 JSON para rotas desconhecidas.
type Deps struct {
	Puzzles     *puzzle.Service
	Leaderboard *leaderboard.Service
	Metrics     *metrics.Collector

	Limiter         domain.LimiterStore
	Stats           domain.StatsStore
	RateLimit       domain.Config
	NamespaceRoutes bool

	InflightPool   domain.SlotPool
	AcquireTimeout time.Duration

	Frontend http.Handler
	Logger   *zap.Logger
}

type Server struct {
	router      *chi.Mux
	puzzles     *puzzle.Service
	leaderboard *leaderboard.Service
	metrics     *metrics.Collector
	stats       domain.StatsStore
	logger      *zap.Logger

	deps Deps
}

func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New(nil, 0)
	}

	s := &Server{
		router:      chi.NewRouter(),
		puzzles:     d.Puzzles,
		leaderboard: d.Leaderboard,
		metrics:     d.Metrics,
		stats:       d.Stats,
		logger:      d.Logger,
		deps:        d,
	}

	s.router.Use(RequestID)
	s.router.Use(AccessLog(d.Logger.Named("http")))
	s.router.Use(Recovery(d.Logger))

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.router

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.With(
			s.limit("puzzle"),
			ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
				Pool:           s.deps.InflightPool,
				RejectStatus:   http.StatusServiceUnavailable,
				AcquireTimeout: s.deps.AcquireTimeout,
			}),
		).Post("/puzzle", s.handlePuzzle)
		r.With(s.limit("validate")).Post("/validate", s.handleValidate)
		r.With(s.limit("leaderboard")).Get("/leaderboard", s.handleListLeaderboard)
		r.With(s.limit("leaderboard")).Post("/leaderboard", s.handleSubmitLeaderboard)
		r.Get("/metrics", s.handleMetrics)
	})

	if s.deps.Frontend != nil {
		r.NotFound(s.deps.Frontend.ServeHTTP)
	} else {
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "Not found")
		})
	}
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// limit embrulha uma rota da API no rate limit. Sem NamespaceRoutes todas as
// rotas dividem a mesma cota por IP.
func (s *Server) limit(route string) func(http.Handler) http.Handler {
	if s.deps.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	ns := ""
	if s.deps.NamespaceRoutes {
		ns = route
	}
	return ratelimit.Middleware(ratelimit.Options{
		Store:     s.deps.Limiter,
		Stats:     s.deps.Stats,
		Config:    s.deps.RateLimit,
		Namespace: ns,
		Logger:    s.logger.Named("ratelimit"),
	})
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serve até o ctx encerrar e então faz shutdown com ShutdownTimeout.
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down http server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("http shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("gateway listening", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	return nil
}
