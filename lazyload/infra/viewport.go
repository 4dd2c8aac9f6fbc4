package infra

import (
	"sync"

	"image-gateway/lazyload/domain"
)

// DefaultThreshold é a fração mínima visível para disparar.
const DefaultThreshold = 0.1

type watch struct {
	el      domain.Element
	margin  float64
	onEnter func(domain.Element)
}

// Viewport é um observer geométrico: compara a caixa de cada elemento com a
// janela visível expandida pela margem. Os callbacks rodam fora do lock.
type Viewport struct {
	mu        sync.Mutex
	width     float64
	height    float64
	scrollY   float64
	threshold float64
	watched   map[domain.ElementID]watch
}

func NewViewport(width, height float64) *Viewport {
	return &Viewport{
		width:     width,
		height:    height,
		threshold: DefaultThreshold,
		watched:   make(map[domain.ElementID]watch),
	}
}

func (v *Viewport) Observe(el domain.Element, margin float64, onEnter func(domain.Element)) {
	w := watch{el: el, margin: margin, onEnter: onEnter}

	v.mu.Lock()
	v.watched[el.ID()] = w
	hit := v.intersectsLocked(el.Rect(), margin)
	v.mu.Unlock()

	if hit {
		onEnter(el)
	}
}

func (v *Viewport) Unobserve(el domain.Element) {
	v.mu.Lock()
	delete(v.watched, el.ID())
	v.mu.Unlock()
}

func (v *Viewport) Disconnect() {
	v.mu.Lock()
	v.watched = make(map[domain.ElementID]watch)
	v.mu.Unlock()
}

// ScrollTo move a janela e notifica quem entrou.
func (v *Viewport) ScrollTo(y float64) {
	v.mu.Lock()
	v.scrollY = y
	v.mu.Unlock()
	v.evaluate()
}

// Resize muda as dimensões da janela e notifica quem entrou.
func (v *Viewport) Resize(width, height float64) {
	v.mu.Lock()
	v.width, v.height = width, height
	v.mu.Unlock()
	v.evaluate()
}

func (v *Viewport) Watching() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.watched)
}

func (v *Viewport) evaluate() {
	v.mu.Lock()
	var hits []watch
	for _, w := range v.watched {
		if v.intersectsLocked(w.el.Rect(), w.margin) {
			hits = append(hits, w)
		}
	}
	v.mu.Unlock()

	for _, w := range hits {
		w.onEnter(w.el)
	}
}

func (v *Viewport) intersectsLocked(r domain.Rect, margin float64) bool {
	top := v.scrollY - margin
	bottom := v.scrollY + v.height + margin
	left := -margin
	right := v.width + margin

	if r.Width <= 0 || r.Height <= 0 {
		return r.Top >= top && r.Top <= bottom && r.Left >= left && r.Left <= right
	}

	overlapH := min(bottom, r.Top+r.Height) - max(top, r.Top)
	overlapW := min(right, r.Left+r.Width) - max(left, r.Left)
	if overlapH <= 0 || overlapW <= 0 {
		return false
	}
	ratio := (overlapH * overlapW) / (r.Width * r.Height)
	return ratio >= v.threshold
}
