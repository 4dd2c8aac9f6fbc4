package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"image-gateway/middleware/swcache/domain"

	"github.com/redis/go-redis/v9"
)

type RedisStatsStore struct {
	rdb *redis.Client

	prefix string
	// ttl aplica apenas em chaves de série temporal / por URL.
	// total é cumulativo e não expira.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackURLs bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackURLs(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackURLs = track }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "swcache:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := string(ev.Outcome)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)

	if s.bucket == "minute" {
		bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	if ev.Strategy != "" {
		pipe.HIncrBy(ctx, s.prefix+":strategy", string(ev.Strategy)+":"+field, 1)
	}

	if s.trackURLs && ev.Key.URL != "" {
		urlKey := s.prefix + ":url:" + ev.Key.String()
		pipe.HIncrBy(ctx, urlKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, urlKey, s.ttl)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Totals lê o hash cumulativo, compartilhado entre instâncias do gateway.
func (s *RedisStatsStore) Totals(ctx context.Context) (Counters, error) {
	raw, err := s.rdb.HGetAll(ctx, s.prefix+":total").Result()
	if err != nil {
		return nil, fmt.Errorf("read stats totals: %w", err)
	}
	out := make(Counters, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[domain.Outcome(k)] = n
	}
	return out, nil
}
