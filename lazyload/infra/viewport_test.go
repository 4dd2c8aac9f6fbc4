package infra

import (
	"testing"

	"image-gateway/lazyload/domain"
)

type boxElement struct {
	id   domain.ElementID
	rect domain.Rect
}

func (b *boxElement) ID() domain.ElementID             { return b.id }
func (b *boxElement) Rect() domain.Rect                { return b.rect }
func (b *boxElement) PendingSource() (string, bool)    { return "/x.png", true }
func (b *boxElement) PendingVariants() domain.Variants { return domain.Variants{} }
func (b *boxElement) SetSource(string)                 {}
func (b *boxElement) SetVariants(domain.Variants)      {}
func (b *boxElement) AddClass(string)                  {}
func (b *boxElement) SetStyle(string, string)          {}
func (b *boxElement) ClearStaging()                    {}
func (b *boxElement) SetLoadingIndicator(bool)         {}

func TestViewport_VisibleElementFiresOnObserve(t *testing.T) {
	v := NewViewport(1280, 800)
	el := &boxElement{id: 1, rect: domain.Rect{Top: 0, Width: 400, Height: 300}}

	fired := 0
	v.Observe(el, 0, func(domain.Element) { fired++ })
	if fired != 1 {
		t.Fatalf("expected immediate callback, got %d", fired)
	}
}

func TestViewport_MarginAndScroll(t *testing.T) {
	v := NewViewport(1280, 800)
	near := &boxElement{id: 1, rect: domain.Rect{Top: 830, Width: 400, Height: 300}}
	far := &boxElement{id: 2, rect: domain.Rect{Top: 2000, Width: 400, Height: 300}}

	var got []domain.ElementID
	onEnter := func(el domain.Element) {
		got = append(got, el.ID())
		v.Unobserve(el)
	}
	v.Observe(near, 50, onEnter)
	v.Observe(far, 50, onEnter)

	// near: 20px de sobreposição em 300 < 10%
	if len(got) != 0 {
		t.Fatalf("expected nothing visible yet, got %v", got)
	}

	v.ScrollTo(100)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected near element after scroll, got %v", got)
	}

	v.ScrollTo(1500)
	if len(got) != 2 || got[1] != 2 {
		t.Fatalf("expected far element after second scroll, got %v", got)
	}
	if v.Watching() != 0 {
		t.Fatalf("expected no watched elements left, got %d", v.Watching())
	}
}

func TestViewport_ResizeAndDisconnect(t *testing.T) {
	v := NewViewport(800, 400)
	el := &boxElement{id: 1, rect: domain.Rect{Top: 500, Width: 400, Height: 300}}

	fired := 0
	v.Observe(el, 0, func(domain.Element) { fired++ })
	v.Disconnect()
	v.Resize(800, 1200)
	if fired != 0 {
		t.Fatalf("expected no callback after disconnect, got %d", fired)
	}

	v.Observe(el, 0, func(domain.Element) { fired++ })
	if fired != 1 {
		t.Fatalf("expected callback for element inside resized viewport, got %d", fired)
	}
}
