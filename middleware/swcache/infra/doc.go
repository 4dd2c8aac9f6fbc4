// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryStore / RedisStore / SQLiteStore: cache persistente por geração
//   - MemoryStatsStore / RedisStatsStore: estatísticas de hit/miss
//   - OriginLimiter: token bucket por origem usando golang.org/x/time/rate
//   - NetworkFetcher: busca de rede sobre um http.RoundTripper
package infra
