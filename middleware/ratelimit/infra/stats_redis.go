package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"puzzle-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

const (
	fieldAllowed = "allowed"
	fieldDenied  = "denied"
)

// RedisStatsStore agrega decisões em hashes do Redis, compartilhados entre
// instâncias do gateway:
//
//	<prefix>:total               allowed/denied desde sempre
//	<prefix>:minute:YYYYMMDDhhmm allowed/denied do minuto (expira)
//	<prefix>:route               "<rota>|allowed" / "<rota>|denied"
//	<prefix>:key:<key>           por identificador (opcional, expira)
type RedisStatsStore struct {
	rdb       *redis.Client
	prefix    string
	ttl       time.Duration
	perMinute bool
	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.prefix = strings.Trim(prefix, ":") }
}

// WithStatsTTL vale para os hashes por minuto e por identificador.
func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

// WithStatsBucket aceita "minute" (padrão) ou "none".
func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.perMinute = strings.ToLower(strings.TrimSpace(bucket)) != "none"
	}
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:       rdb,
		prefix:    "ratelimit:stats",
		ttl:       24 * time.Hour,
		perMinute: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func outcome(allowed bool) string {
	if allowed {
		return fieldAllowed
	}
	return fieldDenied
}

// Record grava tudo num único pipeline.
func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := outcome(ev.Allowed)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)

	if s.perMinute {
		s.incrExpiring(ctx, pipe, s.prefix+":minute:"+at.UTC().Format("200601021504"), field)
	}
	if route := strings.TrimSpace(ev.Route); route != "" {
		pipe.HIncrBy(ctx, s.prefix+":route", route+"|"+field, 1)
	}
	if k := strings.TrimSpace(string(ev.Key)); s.trackKeys && k != "" {
		s.incrExpiring(ctx, pipe, s.prefix+":key:"+k, field)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record rate limit stats: %w", err)
	}
	return nil
}

func (s *RedisStatsStore) incrExpiring(ctx context.Context, pipe redis.Pipeliner, key, field string) {
	pipe.HIncrBy(ctx, key, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
}

// Snapshot lê os totais e o detalhamento por rota.
func (s *RedisStatsStore) Snapshot(ctx context.Context) (StatsSnapshot, error) {
	snap := StatsSnapshot{ByRoute: map[string]Counters{}}
	if s == nil || s.rdb == nil {
		return snap, nil
	}

	total, err := s.rdb.HGetAll(ctx, s.prefix+":total").Result()
	if err != nil {
		return StatsSnapshot{}, fmt.Errorf("read rate limit stats: %w", err)
	}
	snap.Total = parseCounters(total)

	routes, err := s.rdb.HGetAll(ctx, s.prefix+":route").Result()
	if err != nil {
		return StatsSnapshot{}, fmt.Errorf("read rate limit stats: %w", err)
	}
	for f, v := range routes {
		i := strings.LastIndexByte(f, '|')
		if i < 0 {
			continue
		}
		route, field := f[:i], f[i+1:]
		c := snap.ByRoute[route]
		n, _ := strconv.ParseInt(v, 10, 64)
		switch field {
		case fieldAllowed:
			c.Allowed += n
		case fieldDenied:
			c.Denied += n
		}
		snap.ByRoute[route] = c
	}
	return snap, nil
}

func parseCounters(h map[string]string) Counters {
	var c Counters
	c.Allowed, _ = strconv.ParseInt(h[fieldAllowed], 10, 64)
	c.Denied, _ = strconv.ParseInt(h[fieldDenied], 10, 64)
	return c
}
