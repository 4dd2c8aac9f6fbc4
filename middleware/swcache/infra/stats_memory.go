package infra

import (
	"context"
	"sync"

	"image-gateway/middleware/swcache/domain"
)

// Counters é o total por outcome.
type Counters map[domain.Outcome]int64

// MemoryStatsStore é uma implementação simples em memória.
// Não faz expiração; serve o endpoint /_sw/stats do gateway e os testes.
type MemoryStatsStore struct {
	mu         sync.Mutex
	total      Counters
	byStrategy map[domain.Strategy]Counters
	byURL      map[string]Counters

	trackURLs bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackURLs(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackURLs = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		total:      make(Counters),
		byStrategy: make(map[domain.Strategy]Counters),
		byURL:      make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total[ev.Outcome]++

	c, ok := s.byStrategy[ev.Strategy]
	if !ok {
		c = make(Counters)
		s.byStrategy[ev.Strategy] = c
	}
	c[ev.Outcome]++

	if s.trackURLs {
		k := ev.Key.String()
		u, ok := s.byURL[k]
		if !ok {
			u = make(Counters)
			s.byURL[k] = u
		}
		u[ev.Outcome]++
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounters(s.total)
}

func (s *MemoryStatsStore) ByStrategy() map[domain.Strategy]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Strategy]Counters, len(s.byStrategy))
	for k, v := range s.byStrategy {
		out[k] = copyCounters(v)
	}
	return out
}

func (s *MemoryStatsStore) ByURL() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byURL))
	for k, v := range s.byURL {
		out[k] = copyCounters(v)
	}
	return out
}

func copyCounters(in Counters) Counters {
	out := make(Counters, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// MultiStats repassa o evento para todos os stores; o primeiro erro é retornado.
type MultiStats []domain.StatsStore

func (m MultiStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var first error
	for _, st := range m {
		if st == nil {
			continue
		}
		if err := st.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
