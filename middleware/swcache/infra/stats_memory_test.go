package infra

import (
	"context"
	"errors"
	"testing"

	"image-gateway/middleware/swcache/domain"
)

func TestMemoryStatsStore_CountsByStrategyAndURL(t *testing.T) {
	s := NewMemoryStatsStore(WithTrackURLs(true))
	ctx := context.Background()
	key := domain.RequestKey{Method: "GET", URL: "https://site/a"}

	_ = s.Record(ctx, domain.StatsEvent{Key: key, Strategy: domain.StrategyCacheFirst, Outcome: domain.OutcomeStored})
	_ = s.Record(ctx, domain.StatsEvent{Key: key, Strategy: domain.StrategyCacheFirst, Outcome: domain.OutcomeHit})
	_ = s.Record(ctx, domain.StatsEvent{Key: key, Strategy: domain.StrategyCacheFirst, Outcome: domain.OutcomeHit})

	if got := s.Total()[domain.OutcomeHit]; got != 2 {
		t.Fatalf("expected 2 hits total, got %d", got)
	}
	if got := s.ByStrategy()[domain.StrategyCacheFirst][domain.OutcomeStored]; got != 1 {
		t.Fatalf("expected 1 stored under cache-first, got %d", got)
	}
	if got := s.ByURL()[key.String()][domain.OutcomeHit]; got != 2 {
		t.Fatalf("expected 2 hits for url, got %d", got)
	}
}

func TestMemoryStatsStore_URLTrackingOffByDefault(t *testing.T) {
	s := NewMemoryStatsStore()
	_ = s.Record(context.Background(), domain.StatsEvent{Key: domain.RequestKey{Method: "GET", URL: "u"}, Outcome: domain.OutcomeMiss})
	if len(s.ByURL()) != 0 {
		t.Fatalf("expected no per-url counters")
	}
}

type failingStats struct{ calls int }

func (f *failingStats) Record(context.Context, domain.StatsEvent) error {
	f.calls++
	return errors.New("boom")
}

func TestMultiStats_FansOutAndReturnsFirstError(t *testing.T) {
	mem := NewMemoryStatsStore()
	bad := &failingStats{}
	m := MultiStats{bad, nil, mem}

	err := m.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeHit})
	if err == nil {
		t.Fatalf("expected error from failing store")
	}
	if bad.calls != 1 || mem.Total()[domain.OutcomeHit] != 1 {
		t.Fatalf("expected every store to receive the event")
	}
}
