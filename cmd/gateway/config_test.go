package main

import "testing"

func TestReadConfig_RequiresUpstream(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "")
	if _, err := readConfig(); err == nil {
		t.Fatalf("expected error without UPSTREAM_URL")
	}
}

func TestReadConfig_DefaultsAndLists(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "http://app:8081")
	t.Setenv("PRECACHE_URLS", " /, /index.html ,,/css/style.css")

	cfg, err := readConfig()
	if err != nil {
		t.Fatalf("readConfig: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.Backend != "memory" || cfg.Generation != "v1" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.PrecacheURLs) != 3 || cfg.PrecacheURLs[1] != "/index.html" {
		t.Fatalf("expected trimmed precache list, got %q", cfg.PrecacheURLs)
	}
	if len(cfg.ImageHosts) != 1 || cfg.ImageHosts[0] != "images.unsplash.com" {
		t.Fatalf("expected default image host, got %q", cfg.ImageHosts)
	}
}

func TestReadConfig_RedisBackendNeedsAddr(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "http://app:8081")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("CACHE_REDIS_ADDR", "")
	if _, err := readConfig(); err == nil {
		t.Fatalf("expected error for redis backend without address")
	}

	t.Setenv("CACHE_BACKEND", "mongo")
	if _, err := readConfig(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestReadConfig_OriginRate(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "http://app:8081")
	t.Setenv("ORIGIN_RPS", "5")
	t.Setenv("ORIGIN_BURST", "0")
	if _, err := readConfig(); err == nil {
		t.Fatalf("expected error for zero burst with rate enabled")
	}
}
