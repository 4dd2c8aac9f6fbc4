// Package application contém os casos de uso do carregamento preguiçoso:
// classificação da rede, otimização de URL e o scheduler com admissão limitada.
//
// Ele depende apenas do pacote domain e não conhece net/http nem HTML.
package application
