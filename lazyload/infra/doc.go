// Package infra contém implementações concretas para os contratos do pacote domain.
//
// Exemplos:
//   - ChanPool: semáforo não bloqueante para o limite de cargas simultâneas
//   - Document: adapter de DOM sobre golang.org/x/net/html
//   - Viewport: observer geométrico de interseção com margem
//   - HTTPFetcher: busca via net/http e valida o decode da imagem
//   - DecoderProbe: detecção de suporte a WebP via golang.org/x/image/webp
package infra
