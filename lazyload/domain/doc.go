// Package domain define contratos e tipos de domínio do carregamento preguiçoso
// de imagens: perfil de qualidade, elementos observáveis e busca de recursos.
//
// Este pacote não depende de net/http, de HTML nem de implementações concretas.
// O host (documento HTML, viewport, cliente HTTP) é plugado pela camada infra.
package domain
