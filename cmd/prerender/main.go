// Command prerender resolve as imagens lazy de uma página HTML offline:
// classifica a conexão, busca cada imagem visível pelo mesmo pipeline do
// navegador (otimização, fila limitada, fallback webp) e grava o HTML final.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"image-gateway/internal/tracing"
	"image-gateway/lazyload"
	lzdomain "image-gateway/lazyload/domain"
	lzinfra "image-gateway/lazyload/infra"
	"image-gateway/middleware/swcache"
	swdomain "image-gateway/middleware/swcache/domain"
	swinfra "image-gateway/middleware/swcache/infra"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

type config struct {
	In       string        `env:"IN" envDefault:"-"`
	Out      string        `env:"OUT" envDefault:"-"`
	Base     string        `env:"BASE"`
	ECT      string        `env:"ECT"`
	DPR      float64       `env:"DPR" envDefault:"1"`
	Viewport string        `env:"VIEWPORT" envDefault:"1280x800"`
	WebP     string        `env:"WEBP" envDefault:"auto"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"15s"`
	Scroll   bool          `env:"SCROLL" envDefault:"true"`
	// CacheSQLite vazio usa cache em memória (vale só para esta execução).
	CacheSQLite string `env:"CACHE_SQLITE"`
	Generation  string `env:"CACHE_GENERATION" envDefault:"v1"`
	LogDev      bool   `env:"LOG_DEV" envDefault:"false"`
	OTelEnd     string `env:"OTEL_ENDPOINT"`
}

func main() {
	cfg, err := readConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("prerender: %v", err)
	}
}

// readConfig lê PRERENDER_* como padrão e deixa as flags sobrescreverem.
func readConfig(args []string) (config, error) {
	var cfg config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "PRERENDER_"}); err != nil {
		return config{}, err
	}

	fs := flag.NewFlagSet("prerender", flag.ContinueOnError)
	fs.StringVar(&cfg.In, "in", cfg.In, "input HTML file (- for stdin)")
	fs.StringVar(&cfg.Out, "out", cfg.Out, "output HTML file (- for stdout)")
	fs.StringVar(&cfg.Base, "base", cfg.Base, "base URL for relative image locators")
	fs.StringVar(&cfg.ECT, "ect", cfg.ECT, "effective connection type (slow-2g, 2g, 3g, 4g)")
	fs.Float64Var(&cfg.DPR, "dpr", cfg.DPR, "device pixel ratio")
	fs.StringVar(&cfg.Viewport, "viewport", cfg.Viewport, "viewport size WxH")
	fs.StringVar(&cfg.WebP, "webp", cfg.WebP, "webp support: auto, on, off")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-fetch timeout (0 = none)")
	fs.BoolVar(&cfg.Scroll, "scroll", cfg.Scroll, "scroll through the whole page")
	fs.StringVar(&cfg.CacheSQLite, "cache-sqlite", cfg.CacheSQLite, "sqlite file for the response cache")
	fs.StringVar(&cfg.Generation, "generation", cfg.Generation, "cache generation tag")
	fs.BoolVar(&cfg.LogDev, "log-dev", cfg.LogDev, "development logging")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	switch strings.ToLower(cfg.WebP) {
	case "auto", "on", "off":
		cfg.WebP = strings.ToLower(cfg.WebP)
	default:
		return config{}, errors.New("PRERENDER_WEBP / -webp must be auto, on or off")
	}
	if cfg.DPR <= 0 {
		return config{}, errors.New("PRERENDER_DPR / -dpr must be > 0")
	}
	if _, _, err := parseViewport(cfg.Viewport); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func parseViewport(v string) (float64, float64, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(v)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid viewport %q (want WxH)", v)
	}
	width, err1 := strconv.ParseFloat(w, 64)
	height, err2 := strconv.ParseFloat(h, 64)
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid viewport %q (want WxH)", v)
	}
	return width, height, nil
}

func run(cfg config) error {
	newLogger := zap.NewProduction
	if cfg.LogDev {
		newLogger = zap.NewDevelopment
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, "image-prerender", cfg.OTelEnd)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	var base *url.URL
	if cfg.Base != "" {
		if base, err = url.Parse(cfg.Base); err != nil {
			return fmt.Errorf("invalid base %q: %w", cfg.Base, err)
		}
	}

	in, closeIn, err := openInput(cfg.In)
	if err != nil {
		return err
	}
	doc, err := lzinfra.ParseDocument(in)
	closeIn()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg.CacheSQLite)
	if err != nil {
		return err
	}
	defer closeStore()

	origin := ""
	if base != nil {
		origin = base.Host
	}
	tr := swcache.NewTransport(swcache.Options{
		Store:      store,
		Generation: cfg.Generation,
		Origin:     origin,
		Logger:     logger,
	})
	if err := tr.Service().Activate(ctx); err != nil {
		logger.Warn("cache cleanup incomplete", zap.Error(err))
	}

	width, height, _ := parseViewport(cfg.Viewport)
	vp := lzinfra.NewViewport(width, height)

	sched := lazyload.New(lazyload.Options{
		Document:         doc,
		Observer:         vp,
		Frames:           doc,
		EffectiveType:    lzdomain.ParseEffectiveType(cfg.ECT),
		DevicePixelRatio: cfg.DPR,
		Client:           &http.Client{Transport: tr},
		BaseURL:          base,
		Capabilities:     capabilities(cfg.WebP),
		FetchTimeout:     cfg.Timeout,
		Logger:           logger,
	})
	defer sched.Close()

	sched.InitializeImages()
	sched.Wait()
	if cfg.Scroll {
		bottom := pageHeight(doc)
		for y := height; y < bottom && ctx.Err() == nil; y += height {
			vp.ScrollTo(y)
			sched.Wait()
		}
	}
	doc.FlushFrames()

	st := sched.Stats()
	logger.Info("prerender finished",
		zap.String("tier", string(sched.Profile().Tier)),
		zap.Int("applied", st.Applied),
		zap.Int("errored", st.Errored),
		zap.Int("fetches", st.Fetches),
		zap.Int("pending", st.Pending),
	)

	out, closeOut, err := openOutput(cfg.Out)
	if err != nil {
		return err
	}
	defer closeOut()
	return doc.Render(out)
}

func capabilities(mode string) lzdomain.Capabilities {
	switch mode {
	case "on":
		return lzinfra.StaticCapabilities{WebP: true}
	case "off":
		return lzinfra.StaticCapabilities{WebP: false}
	default:
		return &lzinfra.DecoderProbe{}
	}
}

func pageHeight(doc *lzinfra.Document) float64 {
	var bottom float64
	for _, el := range doc.Elements() {
		r := el.Rect()
		if b := r.Top + r.Height; b > bottom {
			bottom = b
		}
	}
	return bottom
}

func openStore(path string) (swdomain.Store, func(), error) {
	if path == "" {
		return swinfra.NewMemoryStore(), func() {}, nil
	}
	st, err := swinfra.OpenSQLiteStore(path)
	if err != nil {
		return nil, nil, err
	}
	return st, func() { _ = st.Close() }, nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
