package domain

import (
	"context"
	"time"
)

// StatsEvent representa uma decisão do cache.
//
// Observação: cuidado com cardinalidade ao persistir URL (Redis/Prometheus).
type StatsEvent struct {
	Key      RequestKey
	Strategy Strategy
	Outcome  Outcome

	At time.Time
}

// StatsStore é a estratégia de persistência das estatísticas.
// O chamador trata erro como best-effort (não derruba a requisição).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
