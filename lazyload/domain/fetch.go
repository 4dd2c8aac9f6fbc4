package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNetworkFailure: falha de transporte, nenhuma resposta.
	ErrNetworkFailure = errors.New("network failure")
	// ErrUnsuccessfulStatus: resposta recebida, mas não 2xx.
	ErrUnsuccessfulStatus = errors.New("unsuccessful status")
	// ErrDecodeFailure: corpo não é um recurso que o runtime consiga renderizar.
	ErrDecodeFailure = errors.New("decode failure")
)

// StatusError carrega o status HTTP e responde a errors.Is(err, ErrUnsuccessfulStatus).
type StatusError struct {
	Locator string
	Status  int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d", e.Locator, e.Status)
}

func (e *StatusError) Is(target error) bool { return target == ErrUnsuccessfulStatus }

// Fetcher busca um locator e confirma que ele é exibível.
// Retorna erros que satisfazem errors.Is com os sentinels acima.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) error
}

// Capabilities é resolvido uma vez na inicialização.
type Capabilities interface {
	SupportsWebP() bool
}
