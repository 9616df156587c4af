// Package config carrega a configuração do gateway: defaults, arquivo YAML
// opcional, .env e variáveis PUZZLE_*.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const EnvPrefix = "PUZZLE"

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Stats       StatsConfig       `mapstructure:"stats"`
	Store       StoreConfig       `mapstructure:"store"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency"`
	Frontend    FrontendConfig    `mapstructure:"frontend"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
	// Backend é "memory" (por processo) ou "redis" (compartilhado).
	Backend string `mapstructure:"backend"`
	// NamespaceRoutes dá a cada rota da API sua própria cota.
	NamespaceRoutes bool          `mapstructure:"namespace_routes"`
	CleanupEvery    time.Duration `mapstructure:"cleanup_every"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type StatsConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Backend   string        `mapstructure:"backend"`
	Prefix    string        `mapstructure:"prefix"`
	Bucket    string        `mapstructure:"bucket"`
	TTL       time.Duration `mapstructure:"ttl"`
	TrackKeys bool          `mapstructure:"track_keys"`
}

// StoreConfig aponta para o banco libsql. Path e URL vazios desligam a persistência.
type StoreConfig struct {
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

func (c StoreConfig) Enabled() bool {
	return strings.TrimSpace(c.Path) != "" || strings.TrimSpace(c.URL) != ""
}

type ConcurrencyConfig struct {
	// MaxInflight limita requisições simultâneas em /api/puzzle (503 acima disso).
	MaxInflight int `mapstructure:"max_inflight"`
	// MaxGeneration limita chamadas simultâneas ao gerador. <= 0 significa sem limite.
	MaxGeneration  int           `mapstructure:"max_generation"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
}

type FrontendConfig struct {
	UpstreamURL string `mapstructure:"upstream_url"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	DumpInterval time.Duration `mapstructure:"dump_interval"`
}

// Validate devolve todos os problemas encontrados de uma vez.
func (c *Config) Validate() error {
	var errs []error

	if c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, errors.New("ratelimit.max_requests must be > 0"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("ratelimit.window must be > 0"))
	}
	switch c.RateLimit.Backend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			errs = append(errs, errors.New("redis.addr is required when ratelimit.backend=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ratelimit.backend %q", c.RateLimit.Backend))
	}

	if c.Stats.Enabled {
		switch c.Stats.Backend {
		case BackendMemory:
		case BackendRedis:
			if strings.TrimSpace(c.Redis.Addr) == "" {
				errs = append(errs, errors.New("redis.addr is required when stats.backend=redis"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown stats.backend %q", c.Stats.Backend))
		}
	}

	if c.Concurrency.MaxInflight < 0 {
		errs = append(errs, errors.New("concurrency.max_inflight must be >= 0"))
	}
	if c.Concurrency.AcquireTimeout < 0 {
		errs = append(errs, errors.New("concurrency.acquire_timeout must be >= 0"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}

	return errors.Join(errs...)
}
