package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"image-gateway/internal/tracing"
	"image-gateway/middleware/swcache"
	"image-gateway/middleware/swcache/domain"
	"image-gateway/middleware/swcache/infra"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := newLogger(cfg.LogDev)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	target, err := url.Parse(cfg.UpstreamURL)
	if err != nil || target.Host == "" {
		logger.Fatal("invalid UPSTREAM_URL", zap.String("value", cfg.UpstreamURL), zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, "image-gateway", cfg.OTelEndpoint)
	if err != nil {
		logger.Fatal("tracing setup failed", zap.Error(err))
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = shutdownTracing(sctx)
	}()

	var rdb *redis.Client
	if cfg.RedisAddr != "" && (cfg.Backend == "redis" || cfg.StatsRedisEnabled) {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pcancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		pcancel()
		if err != nil {
			logger.Fatal("redis ping error", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
	}

	store, closeStore, err := openStore(cfg, rdb)
	if err != nil {
		logger.Fatal("cache store error", zap.String("backend", cfg.Backend), zap.Error(err))
	}
	defer closeStore()

	memStats := infra.NewMemoryStatsStore(infra.WithTrackURLs(cfg.StatsTrackURLs))
	stats := infra.MultiStats{memStats}
	var shared sharedTotals
	if cfg.StatsRedisEnabled {
		redisStats := infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.StatsPrefix),
			infra.WithStatsTTL(cfg.StatsTTL),
			infra.WithStatsBucket(cfg.StatsBucket),
			infra.WithStatsTrackURLs(cfg.StatsTrackURLs),
		)
		stats = append(stats, redisStats)
		shared = redisStats
	}

	tr := swcache.NewTransport(swcache.Options{
		Store:           store,
		Stats:           stats,
		Generation:      cfg.Generation,
		ImageHosts:      cfg.ImageHosts,
		Origin:          target.Host,
		OfflineDocument: cfg.OfflineDocument,
		OriginRPS:       cfg.OriginRPS,
		OriginBurst:     cfg.OriginBurst,
		Logger:          logger,
	})
	tr.StartJanitor(ctx)

	svc := tr.Service()
	precache := resolveAll(target, cfg.PrecacheURLs)
	preload := resolveAll(target, cfg.PreloadURLs)

	// Install falho deixa o serviço inativo: o gateway vira proxy puro.
	if err := svc.Install(ctx, precache); err != nil {
		logger.Error("install failed, serving pass-through", zap.Error(err))
	} else if err := svc.Activate(ctx); err != nil {
		logger.Warn("activate cleanup incomplete", zap.Error(err))
	}
	if len(preload) > 0 {
		go func() {
			n := svc.Preload(ctx, preload)
			logger.Info("preload finished", zap.Int("requested", len(preload)), zap.Int("stored", n))
		}()
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = tr
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("proxy error", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newRouter(proxy, tr, memStats, shared, preload, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("gateway listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("upstream", target.String()),
		zap.String("backend", cfg.Backend),
		zap.String("generation", svc.Generation()),
		zap.Bool("active", svc.Active()),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openStore(cfg config, rdb *redis.Client) (domain.Store, func(), error) {
	switch cfg.Backend {
	case "redis":
		return infra.NewRedisStore(rdb, infra.WithStorePrefix(cfg.RedisPrefix)), func() {}, nil
	case "sqlite":
		st, err := infra.OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return st, func() { _ = st.Close() }, nil
	default:
		return infra.NewMemoryStore(), func() {}, nil
	}
}

// resolveAll resolve caminhos relativos contra o upstream, como o navegador
// faria com as URLs do precache.
func resolveAll(base *url.URL, refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		u, err := url.Parse(r)
		if err != nil {
			continue
		}
		out = append(out, base.ResolveReference(u).String())
	}
	return out
}
