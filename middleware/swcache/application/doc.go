// Package application contém os casos de uso do cache de interceptação:
// escolha de estratégia, install, activate (purga de gerações) e preload.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Handle(ctx, req) retorna o Snapshot a servir e o Outcome.
package application
