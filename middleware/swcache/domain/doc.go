// Package domain define contratos e tipos de domínio do cache de interceptação
// de requisições (equivalente a um service worker).
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar as estratégias
// de cache dos detalhes de armazenamento (memória, Redis, SQLite).
package domain
