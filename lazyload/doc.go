// Package lazyload monta o pipeline de carregamento preguiçoso de imagens.
//
// Visão geral (camadas):
//
//   - domain: contratos (Element, Observer, Fetcher, SlotPool) e tipos do domínio
//   - application: Classify, Optimizer e Scheduler, sem net/http nem HTML
//   - infra: documento HTML (x/net/html), viewport, fetcher HTTP, semáforo, probe WebP
//   - lazyload (este pacote): wiring das camadas a partir de Options
//
// Fluxo:
//
//  1. Classify gera o QualityProfile a partir do sinal de conexão
//  2. O Scheduler observa os candidatos do documento
//  3. Ao ficar visível, o elemento entra na fila e é admitido se houver vaga
//  4. A URL otimizada é buscada (variante WebP primeiro, original em seguida)
//  5. Sucesso aplica src/srcset/classe loaded; falha aplica o placeholder
package lazyload
