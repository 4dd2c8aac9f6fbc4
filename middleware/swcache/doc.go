// Package swcache fornece o adapter HTTP (net/http) do cache de interceptação.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos (Store, Fetcher, Snapshot, Strategy) sem net/http
//   - application: estratégias (cache-first, rede com placeholder), install, activate, preload
//   - infra: stores (memória, Redis, SQLite), stats, limiter por origem, fetcher de rede
//   - swcache (este pacote): Transport (http.RoundTripper) + wiring
//
// Fluxo de uma requisição:
//
//  1. Não-GET, ou serviço ainda não ativado: vai direto ao transporte base
//  2. Host de imagem externo: cache, senão rede; sem rede, SVG "Offline"
//  3. Demais GET: cache-first; sem rede, documento offline para navegação
//
// O gateway (cmd/gateway) monta o Transport atrás de um httputil.ReverseProxy;
// a CLI de prerender usa o mesmo Transport no http.Client das imagens.
package swcache
