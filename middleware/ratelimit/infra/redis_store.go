package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"puzzle-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript executa ler-verificar-incrementar de forma atômica no Redis.
// Retorna {count, pttl_ms, allowed}. Rejeição não incrementa nem renova o TTL.
var fixedWindowScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  redis.call('SET', KEYS[1], '1', 'PX', ARGV[2])
  return {1, tonumber(ARGV[2]), 1}
end
local count = tonumber(v)
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
  ttl = tonumber(ARGV[2])
end
if count >= tonumber(ARGV[1]) then
  return {count, ttl, 0}
end
count = redis.call('INCR', KEYS[1])
return {count, ttl, 1}
`)

// RedisStore é a janela fixa compartilhada entre várias instâncias do gateway.
// A expiração fica por conta do TTL do Redis, então não há Cleanup.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

type RedisStoreOption func(*RedisStore)

func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithRedisClock(now func() time.Time) RedisStoreOption {
	return func(s *RedisStore) { s.now = now }
}

func NewRedisStore(rdb *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: "ratelimit:window",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check implementa domain.LimiterStore.
func (s *RedisStore) Check(ctx context.Context, key domain.Key, cfg domain.Config) (domain.Decision, error) {
	windowMs := cfg.Window.Milliseconds()
	if windowMs < 1 {
		windowMs = 1
	}

	res, err := fixedWindowScript.Run(ctx, s.rdb, []string{s.prefix + ":" + string(key)}, cfg.MaxRequests, windowMs).Int64Slice()
	if err != nil {
		return domain.Decision{}, fmt.Errorf("redis rate limit check: %w", err)
	}
	if len(res) != 3 {
		return domain.Decision{}, fmt.Errorf("redis rate limit check: unexpected reply %v", res)
	}

	count, ttl, allowed := int(res[0]), time.Duration(res[1])*time.Millisecond, res[2] == 1
	dec := domain.Decision{
		Allowed:   allowed,
		Limit:     cfg.MaxRequests,
		ResetTime: s.now().Add(ttl),
	}
	if allowed {
		dec.Remaining = cfg.MaxRequests - count
	}
	return dec, nil
}
