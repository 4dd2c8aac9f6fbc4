package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"image-gateway/middleware/swcache/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultGeneration      = "v1"
	DefaultOfflineDocument = "/index.html"
)

// DefaultImageHosts são as origens externas de imagem com fallback de placeholder.
var DefaultImageHosts = []string{"images.unsplash.com"}

var tracer = otel.Tracer("image-gateway/swcache")

type Config struct {
	Store   domain.Store
	Fetcher domain.Fetcher
	Stats   domain.StatsStore

	// Generation é a tag da versão atual do cache.
	Generation      string
	ImageHosts      []string
	OfflineDocument string

	Logger *zap.Logger
}

// Service concentra as estratégias do cache. Ele não sabe nada sobre HTTP.
//
// Até Activate, o serviço não controla o tráfego: tudo vai direto à rede.
type Service struct {
	cfg Config
	log *zap.Logger

	mu     sync.RWMutex
	active bool
}

func NewService(cfg Config) *Service {
	if cfg.Generation == "" {
		cfg.Generation = DefaultGeneration
	}
	if cfg.ImageHosts == nil {
		cfg.ImageHosts = DefaultImageHosts
	}
	if cfg.OfflineDocument == "" {
		cfg.OfflineDocument = DefaultOfflineDocument
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{cfg: cfg, log: log.With(zap.String("generation", cfg.Generation))}
}

func (s *Service) Generation() string { return s.cfg.Generation }

func (s *Service) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Classify escolhe a estratégia. Não-GET nunca é interceptado.
func (s *Service) Classify(req domain.Request) domain.Strategy {
	if !strings.EqualFold(req.Method, "GET") || !s.Active() {
		return domain.StrategyPassThrough
	}
	if s.isImageHost(req.URL) {
		return domain.StrategyImageNetwork
	}
	return domain.StrategyCacheFirst
}

func (s *Service) isImageHost(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range s.cfg.ImageHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && (host == h || strings.HasSuffix(host, "."+h)) {
			return true
		}
	}
	return false
}

// Handle resolve a requisição pela estratégia classificada.
func (s *Service) Handle(ctx context.Context, req domain.Request) (domain.Snapshot, domain.Outcome, error) {
	strategy := s.Classify(req)

	ctx, span := tracer.Start(ctx, "swcache.handle", trace.WithAttributes(
		attribute.String("swcache.strategy", string(strategy)),
		attribute.String("http.url", req.URL),
	))
	defer span.End()

	var (
		snap    domain.Snapshot
		outcome domain.Outcome
		err     error
	)
	switch strategy {
	case domain.StrategyImageNetwork:
		snap, outcome = s.networkWithPlaceholder(ctx, req)
	case domain.StrategyCacheFirst:
		snap, outcome, err = s.cacheFirst(ctx, req)
	default:
		snap, err = s.cfg.Fetcher.Fetch(ctx, req)
		outcome = domain.OutcomePassThrough
		if err != nil {
			outcome = domain.OutcomeFailed
		}
	}

	span.SetAttributes(attribute.String("swcache.outcome", string(outcome)))
	s.record(ctx, req.Key(), strategy, outcome)
	return snap, outcome, err
}

// networkWithPlaceholder: cache sem revalidação; na falta, rede; falha de
// transporte vira o SVG "Offline" em vez de erro.
func (s *Service) networkWithPlaceholder(ctx context.Context, req domain.Request) (domain.Snapshot, domain.Outcome) {
	key := req.Key()
	if snap, ok := s.match(ctx, key); ok {
		return snap, domain.OutcomeHit
	}

	snap, err := s.cfg.Fetcher.Fetch(ctx, req)
	if err != nil {
		s.log.Debug("image fetch failed, serving placeholder", zap.String("url", req.URL), zap.Error(err))
		return OfflineImage(), domain.OutcomePlaceholder
	}
	if snap.Status != 200 || !snap.Type.Readable() {
		return snap, domain.OutcomeMiss
	}
	s.put(ctx, key, snap)
	return snap, domain.OutcomeStored
}

func (s *Service) cacheFirst(ctx context.Context, req domain.Request) (domain.Snapshot, domain.Outcome, error) {
	key := req.Key()
	if snap, ok := s.match(ctx, key); ok {
		return snap, domain.OutcomeHit, nil
	}

	snap, err := s.cfg.Fetcher.Fetch(ctx, req)
	if err != nil {
		if req.Navigational() {
			if doc, ok := s.match(ctx, domain.RequestKey{Method: "GET", URL: s.offlineURL(req.URL)}); ok {
				return doc, domain.OutcomeOffline, nil
			}
		}
		if !errors.Is(err, domain.ErrNetworkFailure) {
			err = fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
		}
		return domain.Snapshot{}, domain.OutcomeFailed, err
	}
	if snap.Status != 200 {
		return snap, domain.OutcomeMiss, nil
	}
	s.put(ctx, key, snap)
	return snap, domain.OutcomeStored, nil
}

func (s *Service) offlineURL(raw string) string {
	ref, err := url.Parse(s.cfg.OfflineDocument)
	if err != nil {
		return s.cfg.OfflineDocument
	}
	base, err := url.Parse(raw)
	if err != nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// Install guarda os recursos críticos. Tudo ou nada: se um falhar, nada é gravado.
func (s *Service) Install(ctx context.Context, urls []string) error {
	snaps := make([]domain.Snapshot, len(urls))
	for i, u := range urls {
		snap, err := s.cfg.Fetcher.Fetch(ctx, domain.Request{Method: "GET", URL: u})
		if err != nil {
			return fmt.Errorf("install %s: %w", u, err)
		}
		if snap.Status < 200 || snap.Status > 299 {
			return fmt.Errorf("install %s: status %d", u, snap.Status)
		}
		snaps[i] = snap
	}

	s.log.Info("caching critical resources", zap.Int("count", len(urls)))
	for i, u := range urls {
		if err := s.store(ctx, domain.RequestKey{Method: "GET", URL: u}, snaps[i]); err != nil {
			return fmt.Errorf("install %s: %w", u, err)
		}
	}
	return nil
}

// Activate assume o controle e depois apaga toda geração diferente da atual.
// Após o claim, as decisões só leem a geração atual, então a remoção física
// pode correr junto com requisições em andamento.
func (s *Service) Activate(ctx context.Context) error {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()

	gens, err := s.cfg.Store.Generations(ctx)
	if err != nil {
		return fmt.Errorf("list generations: %w", err)
	}

	var errs []error
	for _, g := range gens {
		if g == s.cfg.Generation {
			continue
		}
		s.log.Info("deleting old cache", zap.String("stale", g))
		if err := s.cfg.Store.DeleteGeneration(ctx, g); err != nil {
			errs = append(errs, fmt.Errorf("delete generation %s: %w", g, err))
		}
	}
	return errors.Join(errs...)
}

// Preload aquece imagens críticas em paralelo. Falhas só são logadas.
// Retorna quantas foram gravadas.
func (s *Service) Preload(ctx context.Context, urls []string) int {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		stored int
	)
	for _, u := range urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			snap, err := s.cfg.Fetcher.Fetch(ctx, domain.Request{Method: "GET", URL: u})
			if err != nil {
				s.log.Warn("preload failed", zap.String("url", u), zap.Error(err))
				return
			}
			if snap.Status < 200 || snap.Status > 299 {
				s.log.Warn("preload failed", zap.String("url", u), zap.Int("status", snap.Status))
				return
			}
			if err := s.store(ctx, domain.RequestKey{Method: "GET", URL: u}, snap); err != nil {
				s.log.Warn("preload store failed", zap.String("url", u), zap.Error(err))
				return
			}
			mu.Lock()
			stored++
			mu.Unlock()
		}(u)
	}
	wg.Wait()
	return stored
}

func (s *Service) match(ctx context.Context, key domain.RequestKey) (domain.Snapshot, bool) {
	snap, ok, err := s.cfg.Store.Match(ctx, s.cfg.Generation, key)
	if err != nil {
		s.log.Warn("cache match failed", zap.String("key", key.String()), zap.Error(err))
		return domain.Snapshot{}, false
	}
	return snap, ok
}

// put é best-effort: erro de escrita não afeta a resposta.
func (s *Service) put(ctx context.Context, key domain.RequestKey, snap domain.Snapshot) {
	if err := s.store(ctx, key, snap); err != nil {
		s.log.Warn("cache put failed", zap.String("key", key.String()), zap.Error(err))
	}
}

func (s *Service) store(ctx context.Context, key domain.RequestKey, snap domain.Snapshot) error {
	if snap.StoredAt.IsZero() {
		snap.StoredAt = time.Now().UTC()
	}
	return s.cfg.Store.Put(ctx, s.cfg.Generation, key, snap)
}

func (s *Service) record(ctx context.Context, key domain.RequestKey, strategy domain.Strategy, outcome domain.Outcome) {
	if s.cfg.Stats == nil {
		return
	}
	_ = s.cfg.Stats.Record(ctx, domain.StatsEvent{
		Key:      key,
		Strategy: strategy,
		Outcome:  outcome,
		At:       time.Now(),
	})
}
