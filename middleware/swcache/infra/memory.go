package infra

import (
	"context"
	"sort"
	"sync"

	"image-gateway/middleware/swcache/domain"
)

// MemoryStore guarda snapshots em memória. Útil para testes e desenvolvimento;
// não sobrevive ao processo.
type MemoryStore struct {
	mu   sync.RWMutex
	gens map[string]map[domain.RequestKey]domain.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{gens: make(map[string]map[domain.RequestKey]domain.Snapshot)}
}

func (s *MemoryStore) Match(_ context.Context, gen string, key domain.RequestKey) (domain.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.gens[gen][key]
	if !ok {
		return domain.Snapshot{}, false, nil
	}
	return cloneSnapshot(snap), true, nil
}

func (s *MemoryStore) Put(_ context.Context, gen string, key domain.RequestKey, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.gens[gen]
	if !ok {
		entries = make(map[domain.RequestKey]domain.Snapshot)
		s.gens[gen] = entries
	}
	entries[key] = cloneSnapshot(snap)
	return nil
}

func (s *MemoryStore) Generations(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.gens))
	for g := range s.gens {
		out = append(out, g)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) DeleteGeneration(_ context.Context, gen string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.gens, gen)
	return nil
}

// Len retorna quantas entradas existem na geração.
func (s *MemoryStore) Len(gen string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.gens[gen])
}

func cloneSnapshot(in domain.Snapshot) domain.Snapshot {
	out := in
	out.Body = append([]byte(nil), in.Body...)
	if in.Header != nil {
		out.Header = make(map[string][]string, len(in.Header))
		for k, v := range in.Header {
			out.Header[k] = append([]string(nil), v...)
		}
	}
	return out
}
