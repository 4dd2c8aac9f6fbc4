package infra

import (
	"strings"
	"testing"

	"image-gateway/lazyload/domain"
)

const page = `<!doctype html><html><body>
<div class="card"><img class="lazy-image" width="200" height="100" data-src="/a.png" data-srcset="/a2.png 2x" data-sizes="50vw"><span class="image-loading-indicator" style="display: none"></span></div>
<img class="lazy-image" data-src="/b.png">
<img class="lazy-image">
<img src="/c.png">
</body></html>`

func parsePage(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseDocument(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestDocument_FindsLazyImagesWithStackedLayout(t *testing.T) {
	doc := parsePage(t)

	els := doc.Elements()
	if len(els) != 3 {
		t.Fatalf("expected 3 lazy images, got %d", len(els))
	}
	want := []domain.Rect{
		{Top: 0, Width: 200, Height: 100},
		{Top: 100, Width: 400, Height: 300},
		{Top: 400, Width: 400, Height: 300},
	}
	for i, el := range els {
		if el.Rect() != want[i] {
			t.Fatalf("element %d rect = %+v, want %+v", i, el.Rect(), want[i])
		}
	}
	if n := len(doc.Candidates()); n != 2 {
		t.Fatalf("expected 2 candidates with data-src, got %d", n)
	}
}

func TestDocument_ApplyMutatesTree(t *testing.T) {
	doc := parsePage(t)
	el := doc.Elements()[0]

	if v := el.PendingVariants(); v.SrcSet != "/a2.png 2x" || v.Sizes != "50vw" {
		t.Fatalf("unexpected pending variants %+v", v)
	}

	el.SetVariants(el.PendingVariants())
	el.SetSource("/a.png")
	el.AddClass("loaded")
	el.AddClass("loaded")
	el.ClearStaging()
	doc.RequestFrame(func() { el.SetStyle("opacity", "1") })

	if _, ok := el.PendingSource(); ok {
		t.Fatalf("expected data-src removed")
	}
	if cls, _ := el.Attr("class"); cls != "lazy-image loaded" {
		t.Fatalf("expected class added once, got %q", cls)
	}
	if n := len(doc.Candidates()); n != 1 {
		t.Fatalf("expected loaded element out of candidates, got %d", n)
	}
	if n := doc.FlushFrames(); n != 1 {
		t.Fatalf("expected 1 frame flushed, got %d", n)
	}
	if n := doc.FlushFrames(); n != 0 {
		t.Fatalf("expected frames drained, got %d", n)
	}

	var b strings.Builder
	if err := doc.Render(&b); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	for _, s := range []string{`src="/a.png"`, `srcset="/a2.png 2x"`, `sizes="50vw"`, `style="opacity: 1"`} {
		if !strings.Contains(out, s) {
			t.Fatalf("expected rendered html to contain %s, got:\n%s", s, out)
		}
	}
	if strings.Contains(out, `data-srcset`) {
		t.Fatalf("expected staging attributes removed, got:\n%s", out)
	}
}

func TestDocument_LoadingIndicatorToggle(t *testing.T) {
	doc := parsePage(t)
	el := doc.Elements()[0]

	el.SetLoadingIndicator(true)
	if s := el.IndicatorStyle(); s != "display: block" {
		t.Fatalf("expected indicator shown, got %q", s)
	}
	el.SetLoadingIndicator(false)
	if s := el.IndicatorStyle(); s != "display: none" {
		t.Fatalf("expected indicator hidden, got %q", s)
	}
}
