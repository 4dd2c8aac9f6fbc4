package main

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type config struct {
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080"`
	UpstreamURL string `env:"UPSTREAM_URL"`

	Generation      string   `env:"CACHE_GENERATION" envDefault:"v1"`
	Backend         string   `env:"CACHE_BACKEND" envDefault:"memory"`
	RedisAddr       string   `env:"CACHE_REDIS_ADDR"`
	RedisPassword   string   `env:"CACHE_REDIS_PASSWORD"`
	RedisDB         int      `env:"CACHE_REDIS_DB" envDefault:"0"`
	RedisPrefix     string   `env:"CACHE_REDIS_PREFIX" envDefault:"swcache"`
	SQLitePath      string   `env:"CACHE_SQLITE_PATH" envDefault:"swcache.db"`
	ImageHosts      []string `env:"IMAGE_HOSTS" envSeparator:"," envDefault:"images.unsplash.com"`
	OfflineDocument string   `env:"OFFLINE_DOCUMENT" envDefault:"/index.html"`
	PrecacheURLs    []string `env:"PRECACHE_URLS" envSeparator:","`
	PreloadURLs     []string `env:"PRELOAD_URLS" envSeparator:","`

	// IMPORTANTE: ORIGIN_RPS=0 desliga o limite por origem.
	// Com RPS baixo e burst alto a primeira rajada de miss passa inteira.
	OriginRPS   float64 `env:"ORIGIN_RPS" envDefault:"0"`
	OriginBurst int     `env:"ORIGIN_BURST" envDefault:"10"`

	StatsRedisEnabled bool          `env:"STATS_REDIS_ENABLED" envDefault:"false"`
	StatsPrefix       string        `env:"STATS_PREFIX" envDefault:"swcache:stats"`
	StatsTTL          time.Duration `env:"STATS_TTL" envDefault:"24h"`
	StatsBucket       string        `env:"STATS_BUCKET" envDefault:"minute"`
	StatsTrackURLs    bool          `env:"STATS_TRACK_URLS" envDefault:"false"`

	LogDev       bool   `env:"LOG_DEV" envDefault:"false"`
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

func readConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, err
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.PrecacheURLs = trimAll(cfg.PrecacheURLs)
	cfg.PreloadURLs = trimAll(cfg.PreloadURLs)
	cfg.ImageHosts = trimAll(cfg.ImageHosts)

	if cfg.UpstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if strings.TrimSpace(cfg.Generation) == "" {
		return config{}, errors.New("CACHE_GENERATION must not be empty")
	}
	switch cfg.Backend {
	case "memory", "sqlite":
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return config{}, errors.New("CACHE_REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	default:
		return config{}, errors.New("CACHE_BACKEND must be one of memory, redis, sqlite")
	}
	if cfg.StatsRedisEnabled && strings.TrimSpace(cfg.RedisAddr) == "" {
		return config{}, errors.New("CACHE_REDIS_ADDR is required when STATS_REDIS_ENABLED=true")
	}
	if cfg.OriginRPS < 0 {
		return config{}, errors.New("ORIGIN_RPS must be >= 0")
	}
	if cfg.OriginRPS > 0 && cfg.OriginBurst <= 0 {
		return config{}, errors.New("ORIGIN_BURST must be > 0")
	}
	return cfg, nil
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
