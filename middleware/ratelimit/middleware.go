package ratelimit

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"puzzle-gateway/middleware/ratelimit/application"
	"puzzle-gateway/middleware/ratelimit/domain"
)

const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	headerRetryAfter = "Retry-After"

	RejectMessage = "Rate limit exceeded. Please try again later."
)

// Options configura o Middleware.
//
// Sem Namespace, todas as rotas que compartilham o mesmo Store dividem uma
// única cota por identificador.
type Options struct {
	Store     domain.LimiterStore
	Stats     domain.StatsStore
	Config    domain.Config
	KeyFn     KeyFunc
	Namespace string
	Logger    *zap.Logger
	Now       func() time.Time
}

// RejectBody é o corpo JSON da resposta 429.
type RejectBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc
	}
	opts.KeyFn = NamespacedKeyFunc(opts.Namespace, opts.KeyFn)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	svc := application.Service{
		Store:  opts.Store,
		Config: opts.Config,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			dec, err := svc.Decide(r.Context(), key)
			if err != nil {
				opts.Logger.Warn("rate limit store failed, admitting request",
					zap.String("key", string(key)),
					zap.String("path", r.URL.Path),
					zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if opts.Stats != nil {
				_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
					Key:       key,
					Allowed:   dec.Allowed,
					Route:     r.Method + " " + r.URL.Path,
					Remaining: dec.Remaining,
					At:        opts.Now(),
				})
			}

			h := w.Header()
			h.Set(HeaderLimit, formatInt(dec.Limit))
			h.Set(HeaderRemaining, formatInt(dec.Remaining))
			if !dec.ResetTime.IsZero() {
				h.Set(HeaderReset, formatReset(dec.ResetTime))
			}

			if !dec.Allowed {
				opts.Logger.Debug("rate limit exceeded",
					zap.String("key", string(key)),
					zap.String("path", r.URL.Path),
					zap.Time("reset", dec.ResetTime))
				h.Set(headerRetryAfter, formatRetryAfter(dec.RetryAfter(opts.Now())))
				writeJSON(w, http.StatusTooManyRequests, RejectBody{Success: false, Error: RejectMessage})
				return
			}

			// headers já estão no ResponseWriter: o handler pode sobrescrevê-los,
			// e status/corpo dele passam intactos.
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
