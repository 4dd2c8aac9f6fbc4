package domain

import (
	"context"
	"errors"
)

// ErrNetworkFailure: falha de transporte, nenhuma resposta recebida.
var ErrNetworkFailure = errors.New("network failure")

// Store é o cache persistente, particionado por geração (nome do cache).
//
// Match retorna ok=false quando não há entrada. Implementações devem ser
// seguras para uso concorrente; Put sobre a mesma chave sobrescreve.
type Store interface {
	Match(ctx context.Context, generation string, key RequestKey) (Snapshot, bool, error)
	Put(ctx context.Context, generation string, key RequestKey, snap Snapshot) error
	Generations(ctx context.Context) ([]string, error)
	// DeleteGeneration remove todas as entradas da geração de uma vez.
	DeleteGeneration(ctx context.Context, generation string) error
}

// Fetcher faz a busca de rede. Erro significa falha de transporte
// (deve satisfazer errors.Is(err, ErrNetworkFailure)); status não-200 não é erro.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Snapshot, error)
}
