package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"image-gateway/middleware/swcache/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStore guarda snapshots no Redis.
//
// Layout das chaves:
//
//	<prefix>:generations          SET com as gerações existentes
//	<prefix>:gen:<gen>            SET com as chaves de entrada da geração
//	<prefix>:entry:<gen>:<key>    STRING com o snapshot em JSON
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

type RedisStoreOption func(*RedisStore)

func WithStorePrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

func NewRedisStore(rdb *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{rdb: rdb, prefix: "swcache"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) generationsKey() string   { return s.prefix + ":generations" }
func (s *RedisStore) genKey(gen string) string { return s.prefix + ":gen:" + gen }
func (s *RedisStore) entryKey(gen string, key domain.RequestKey) string {
	return s.prefix + ":entry:" + gen + ":" + key.String()
}

func (s *RedisStore) Match(ctx context.Context, gen string, key domain.RequestKey) (domain.Snapshot, bool, error) {
	raw, err := s.rdb.Get(ctx, s.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("redis get: %w", err)
	}
	var rec snapshotRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return rec.snapshot(), true, nil
}

func (s *RedisStore) Put(ctx context.Context, gen string, key domain.RequestKey, snap domain.Snapshot) error {
	payload, err := json.Marshal(toRecord(snap))
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	entry := s.entryKey(gen, key)

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, entry, payload, 0)
	pipe.SAdd(ctx, s.genKey(gen), entry)
	pipe.SAdd(ctx, s.generationsKey(), gen)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

func (s *RedisStore) Generations(ctx context.Context) ([]string, error) {
	gens, err := s.rdb.SMembers(ctx, s.generationsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis generations: %w", err)
	}
	sort.Strings(gens)
	return gens, nil
}

// DeleteGeneration apaga as entradas numa transação MULTI/EXEC.
func (s *RedisStore) DeleteGeneration(ctx context.Context, gen string) error {
	entries, err := s.rdb.SMembers(ctx, s.genKey(gen)).Result()
	if err != nil {
		return fmt.Errorf("redis members: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	if len(entries) > 0 {
		pipe.Del(ctx, entries...)
	}
	pipe.Del(ctx, s.genKey(gen))
	pipe.SRem(ctx, s.generationsKey(), gen)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete generation: %w", err)
	}
	return nil
}
