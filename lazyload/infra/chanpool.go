package infra

import "image-gateway/lazyload/domain"

type chanPool struct {
	sem chan struct{}
}

// NewChanPool cria um pool baseado em channel com capacidade `max`.
// A capacidade do channel garante que InFlight nunca passa de max.
func NewChanPool(max int) domain.SlotPool {
	if max <= 0 {
		max = 1
	}
	return &chanPool{sem: make(chan struct{}, max)}
}

func (p *chanPool) TryAcquire() (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	default:
		return nil, false
	}
}

func (p *chanPool) InFlight() int { return len(p.sem) }
func (p *chanPool) Cap() int      { return cap(p.sem) }
