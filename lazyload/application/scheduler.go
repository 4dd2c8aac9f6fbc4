package application

import (
	"context"
	"sync"
	"time"

	"image-gateway/lazyload/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ClassLoaded = "loaded"
	ClassError  = "error"

	DefaultResizeQuiet = 250 * time.Millisecond
)

// ErrorPlaceholder é a caixa neutra exibida quando a imagem não carrega.
const ErrorPlaceholder = `data:image/svg+xml,%3Csvg xmlns='http://www.w3.org/2000/svg' width='400' height='300'%3E%3Crect width='100%25' height='100%25' fill='%23333'/%3E%3Ctext x='50%25' y='50%25' dominant-baseline='middle' text-anchor='middle' fill='%23666' font-size='14'%3EImage unavailable%3C/text%3E%3C/svg%3E`

type Config struct {
	Profile          domain.QualityProfile
	Optimizer        Optimizer
	DevicePixelRatio float64

	Document     domain.Document
	Observer     domain.Observer
	Fetcher      domain.Fetcher
	Slots        domain.SlotPool
	Capabilities domain.Capabilities
	Frames       domain.FrameScheduler

	// ResizeQuiet é o período sem resize antes de re-varrer o documento.
	ResizeQuiet time.Duration
	// FetchTimeout <= 0 desliga o timeout: uma busca travada
	// ocupa a vaga indefinidamente.
	FetchTimeout time.Duration

	SessionID string
	Logger    *zap.Logger
}

// Stats é um retrato dos contadores da sessão.
type Stats struct {
	Queued    int
	Fetches   int
	CacheHits int
	Joined    int
	Applied   int
	Errored   int
	InFlight  int
	Pending   int
}

type entry struct {
	state    domain.State
	resolved string
	faded    bool
}

// Scheduler é o contexto de uma página: perfil, fila, admissão e caches.
// Uma instância por sessão, descartada com Close.
type Scheduler struct {
	cfg    Config
	log    *zap.Logger
	resize *debouncer
	wg     sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	queue    []*domain.LoadRequest
	results  map[string]string
	inflight map[string][]*domain.LoadRequest
	entries  map[domain.ElementID]*entry
	stats    Stats
}

func NewScheduler(cfg Config) *Scheduler {
	if cfg.Optimizer.Hosts == nil {
		cfg.Optimizer = DefaultOptimizer()
	}
	if cfg.DevicePixelRatio <= 0 {
		cfg.DevicePixelRatio = 1
	}
	if cfg.ResizeQuiet <= 0 {
		cfg.ResizeQuiet = DefaultResizeQuiet
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Scheduler{
		cfg:      cfg,
		log:      log.With(zap.String("session", cfg.SessionID)),
		results:  make(map[string]string),
		inflight: make(map[string][]*domain.LoadRequest),
		entries:  make(map[domain.ElementID]*entry),
	}
	s.resize = newDebouncer(cfg.ResizeQuiet, s.refresh)

	s.log.Info("connection classified",
		zap.String("tier", string(cfg.Profile.Tier)),
		zap.Int("concurrency", cfg.Profile.ConcurrencyLimit),
		zap.Float64("margin", cfg.Profile.VisibilityMargin),
	)
	return s
}

func (s *Scheduler) Profile() domain.QualityProfile { return s.cfg.Profile }

// InitializeImages observa todos os candidatos do documento.
func (s *Scheduler) InitializeImages() {
	if s.cfg.Document == nil {
		return
	}
	for _, el := range s.cfg.Document.Candidates() {
		s.Observe(el)
	}
}

// Observe começa a vigiar o elemento. No-op sem locator pendente ou se o
// elemento já saiu de unobserved/observed.
func (s *Scheduler) Observe(el domain.Element) {
	if _, ok := el.PendingSource(); !ok {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	e := s.entryLocked(el)
	if e.state != domain.StateUnobserved && e.state != domain.StateObserved {
		s.mu.Unlock()
		return
	}
	e.state = domain.StateObserved
	margin := s.cfg.Profile.VisibilityMargin
	s.mu.Unlock()

	// fora do lock: o observer pode chamar onVisible de forma síncrona
	s.cfg.Observer.Observe(el, margin, s.onVisible)
}

// onVisible é one-shot: para de vigiar e enfileira.
func (s *Scheduler) onVisible(el domain.Element) {
	s.cfg.Observer.Unobserve(el)

	src, ok := el.PendingSource()
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	e := s.entryLocked(el)
	if e.state != domain.StateObserved {
		return
	}
	e.state = domain.StateQueued
	s.stats.Queued++
	s.queue = append(s.queue, &domain.LoadRequest{
		Element:  el,
		Source:   src,
		Rect:     el.Rect(),
		Variants: el.PendingVariants(),
	})
	s.dispatchLocked()
}

// dispatchLocked admite pedidos da cabeça da fila enquanto houver vaga.
// Sem vaga, retorna em silêncio: a próxima conclusão chama de novo.
func (s *Scheduler) dispatchLocked() {
	for len(s.queue) > 0 {
		release, ok := s.cfg.Slots.TryAcquire()
		if !ok {
			return
		}
		req := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]

		s.entryLocked(req.Element).state = domain.StateLoading
		s.wg.Add(1)
		go s.load(req, release)
	}
}

func (s *Scheduler) load(req *domain.LoadRequest, release func()) {
	defer s.wg.Done()
	defer func() {
		release()
		s.mu.Lock()
		if !s.closed {
			s.dispatchLocked()
		}
		s.mu.Unlock()
	}()

	start := time.Now()
	optimized := s.cfg.Optimizer.Optimize(req.Source, req.Rect, s.cfg.DevicePixelRatio, s.cfg.Profile)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if resolved, ok := s.results[optimized]; ok {
		s.stats.CacheHits++
		s.applyLocked(req.Element, resolved, req.Variants)
		s.mu.Unlock()
		return
	}
	if waiters, ok := s.inflight[optimized]; ok {
		// mesma URL já em voo: espera o resultado sem segurar vaga
		s.inflight[optimized] = append(waiters, req)
		s.stats.Joined++
		s.mu.Unlock()
		return
	}
	s.inflight[optimized] = nil
	s.stats.Fetches++
	s.mu.Unlock()

	resolved, err := s.fetchWithIndicator(req.Element, optimized)

	s.mu.Lock()
	defer s.mu.Unlock()

	waiters := s.inflight[optimized]
	delete(s.inflight, optimized)
	if s.closed {
		return
	}

	if err != nil {
		s.log.Warn("image load failed", zap.String("locator", optimized), zap.Error(err))
		s.failLocked(req.Element)
		for _, w := range waiters {
			s.failLocked(w.Element)
		}
		return
	}

	s.results[optimized] = resolved
	s.applyLocked(req.Element, resolved, req.Variants)
	for _, w := range waiters {
		s.applyLocked(w.Element, resolved, w.Variants)
	}
	s.log.Debug("image loaded",
		zap.String("locator", optimized),
		zap.String("resolved", resolved),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *Scheduler) fetchWithIndicator(el domain.Element, optimized string) (string, error) {
	el.SetLoadingIndicator(true)
	defer el.SetLoadingIndicator(false)

	if s.cfg.Capabilities != nil && s.cfg.Capabilities.SupportsWebP() {
		if alt := SubstituteFormat(optimized); alt != optimized {
			err := s.fetchOne(alt)
			if err == nil {
				return alt, nil
			}
			s.log.Debug("substituted format failed, retrying original",
				zap.String("locator", alt), zap.Error(err))
		}
	}
	if err := s.fetchOne(optimized); err != nil {
		return "", err
	}
	return optimized, nil
}

func (s *Scheduler) fetchOne(locator string) error {
	ctx := context.Background()
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}
	return s.cfg.Fetcher.Fetch(ctx, locator)
}

// Apply aplica um locator já resolvido ao elemento. Idempotente.
func (s *Scheduler) Apply(el domain.Element, resolved string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(el, resolved, el.PendingVariants())
}

func (s *Scheduler) applyLocked(el domain.Element, resolved string, v domain.Variants) {
	e := s.entryLocked(el)
	if e.state == domain.StateApplied && e.resolved == resolved {
		return
	}

	if v.SrcSet != "" || v.Sizes != "" {
		el.SetVariants(v)
	}
	el.SetSource(resolved)
	el.AddClass(ClassLoaded)
	el.ClearStaging()

	e.state = domain.StateApplied
	e.resolved = resolved
	s.stats.Applied++

	if e.faded {
		return
	}
	e.faded = true
	fade := func() { el.SetStyle("opacity", "1") }
	if s.cfg.Frames == nil {
		fade()
		return
	}
	s.cfg.Frames.RequestFrame(fade)
}

func (s *Scheduler) failLocked(el domain.Element) {
	e := s.entryLocked(el)
	e.state = domain.StateErrored
	s.stats.Errored++
	el.AddClass(ClassError)
	el.SetSource(ErrorPlaceholder)
}

func (s *Scheduler) entryLocked(el domain.Element) *entry {
	e, ok := s.entries[el.ID()]
	if !ok {
		e = &entry{}
		s.entries[el.ID()] = e
	}
	return e
}

// OnViewportResize re-varre o documento após o período de silêncio.
func (s *Scheduler) OnViewportResize() {
	s.resize.Trigger()
}

// refresh reinscreve elementos com locator pendente que ainda não foram
// enfileirados. Elementos com erro não são repetidos.
func (s *Scheduler) refresh() {
	if s.cfg.Document == nil {
		return
	}
	for _, el := range s.cfg.Document.Candidates() {
		s.Observe(el)
	}
}

// State retorna o estado do elemento no side-table.
func (s *Scheduler) State(el domain.Element) domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[el.ID()]; ok {
		return e.state
	}
	return domain.StateUnobserved
}

func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Pending = len(s.queue)
	if s.cfg.Slots != nil {
		st.InFlight = s.cfg.Slots.InFlight()
	}
	return st
}

// Wait bloqueia até todas as cargas admitidas terminarem.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Close para a observação e limpa fila e cache. Cargas em voo terminam,
// mas seus handlers viram no-op.
func (s *Scheduler) Close() {
	s.resize.Stop()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.queue = nil
	s.results = make(map[string]string)
	s.inflight = make(map[string][]*domain.LoadRequest)
	s.mu.Unlock()

	s.cfg.Observer.Disconnect()
}
