package infra

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// OriginLimiter é um token bucket (x/time/rate) por origem, para não
// martelar o serviço de imagens em rajadas de cache miss.
// Entradas ociosas são limpas periodicamente.
type OriginLimiter struct {
	mu           sync.Mutex
	entries      map[string]*limiterEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type LimiterOption func(*OriginLimiter)

func WithIdleTTL(d time.Duration) LimiterOption {
	return func(l *OriginLimiter) { l.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) LimiterOption {
	return func(l *OriginLimiter) { l.cleanupEvery = d }
}

func NewOriginLimiter(rps float64, burst int, opts ...LimiterOption) *OriginLimiter {
	if burst <= 0 {
		burst = 1
	}
	l := &OriginLimiter{
		entries:      make(map[string]*limiterEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *OriginLimiter) RPS() float64 { return float64(l.rps) }
func (l *OriginLimiter) Burst() int   { return l.burst }

func (l *OriginLimiter) Get(origin string) *rate.Limiter {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if ent, ok := l.entries[origin]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(l.rps, l.burst)
	l.entries[origin] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

// Wait bloqueia até haver token para a origem ou o ctx encerrar.
func (l *OriginLimiter) Wait(ctx context.Context, origin string) error {
	if l == nil {
		return nil
	}
	return l.Get(origin).Wait(ctx)
}

func (l *OriginLimiter) Cleanup() {
	cutoff := time.Now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, ent := range l.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(l.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa origens inativas periodicamente.
// Pare cancelando o contexto.
func (l *OriginLimiter) StartJanitor(ctx context.Context) {
	if l.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(l.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Cleanup()
			}
		}
	}()
}
