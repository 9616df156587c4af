package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "90s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("ratelimit.max_requests", 3)
	v.SetDefault("ratelimit.window", "5m")
	v.SetDefault("ratelimit.backend", BackendMemory)
	v.SetDefault("ratelimit.namespace_routes", false)
	v.SetDefault("ratelimit.cleanup_every", "2m")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "ratelimit:window")

	v.SetDefault("stats.enabled", false)
	v.SetDefault("stats.backend", BackendMemory)
	v.SetDefault("stats.prefix", "ratelimit:stats")
	v.SetDefault("stats.bucket", "minute")
	v.SetDefault("stats.ttl", "24h")
	v.SetDefault("stats.track_keys", false)

	v.SetDefault("store.path", "")
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("concurrency.max_inflight", 100)
	v.SetDefault("concurrency.max_generation", 4)
	v.SetDefault("concurrency.acquire_timeout", "2s")

	v.SetDefault("frontend.upstream_url", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.dump_interval", "1m")
}

// Load monta a configuração em camadas: defaults, arquivo (path ou
// ./config/puzzle-gateway.yaml se existir), variáveis PUZZLE_* e por fim
// overrides (flags da CLI).
func Load(path string, overrides ...map[string]any) (*Config, error) {
	// .env é opcional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("puzzle-gateway")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	for _, o := range overrides {
		for k, val := range o {
			v.Set(k, val)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.RateLimit.Backend = strings.ToLower(strings.TrimSpace(cfg.RateLimit.Backend))
	cfg.Stats.Backend = strings.ToLower(strings.TrimSpace(cfg.Stats.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
