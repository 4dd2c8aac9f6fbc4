package lazyload

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"image-gateway/lazyload/application"
	"image-gateway/lazyload/domain"
	"image-gateway/lazyload/infra"
	"image-gateway/middleware/swcache"
)

const gallery = `<html><body>
<img class="lazy-image" width="400" height="300" data-src="/img/1.png">
<img class="lazy-image" width="400" height="300" data-src="/img/2.png">
<img class="lazy-image" width="400" height="300" data-src="/img/3.jpg">
<img class="lazy-image" width="400" height="300" data-src="/img/4.png">
</body></html>`

func newGalleryServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	body := buf.Bytes()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if !strings.HasSuffix(r.URL.Path, ".png") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_LoadsVisibleImagesThroughCache(t *testing.T) {
	var hits atomic.Int32
	srv := newGalleryServer(t, &hits)
	base, _ := url.Parse(srv.URL)

	tr := swcache.NewTransport(swcache.Options{Origin: base.Host})
	if err := tr.Service().Activate(context.Background()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	client := &http.Client{Transport: tr}

	doc, err := infra.ParseDocument(strings.NewReader(gallery))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	vp := infra.NewViewport(1280, 550)

	s := New(Options{
		Document:      doc,
		Observer:      vp,
		Frames:        doc,
		EffectiveType: domain.EffectiveType4G,
		Client:        client,
		BaseURL:       base,
		Capabilities:  infra.StaticCapabilities{WebP: false},
	})
	defer s.Close()

	if s.Profile().Tier != domain.TierHigh {
		t.Fatalf("expected high tier, got %s", s.Profile().Tier)
	}

	s.InitializeImages()
	s.Wait()

	els := doc.Elements()
	// viewport 550 + margem 50: só as duas primeiras imagens
	for i, el := range els[:2] {
		if !el.HasClass(application.ClassLoaded) {
			t.Fatalf("expected element %d loaded", i)
		}
	}
	if els[2].HasClass(application.ClassLoaded) || els[3].HasClass(application.ClassLoaded) {
		t.Fatalf("expected offscreen elements untouched")
	}

	vp.ScrollTo(900)
	s.Wait()
	doc.FlushFrames()

	if !els[2].HasClass(application.ClassError) {
		t.Fatalf("expected missing jpg to error")
	}
	if src, _ := els[2].Attr("src"); src != application.ErrorPlaceholder {
		t.Fatalf("expected placeholder src, got %q", src)
	}
	if !els[3].HasClass(application.ClassLoaded) {
		t.Fatalf("expected element 4 loaded after scroll")
	}
	if style, _ := els[3].Attr("style"); style != "opacity: 1" {
		t.Fatalf("expected fade-in style after frame flush, got %q", style)
	}

	before := hits.Load()

	doc2, _ := infra.ParseDocument(strings.NewReader(gallery))
	s2 := New(Options{
		Document:      doc2,
		Observer:      infra.NewViewport(1280, 550),
		EffectiveType: domain.EffectiveType4G,
		Client:        client,
		BaseURL:       base,
		Capabilities:  infra.StaticCapabilities{WebP: false},
	})
	defer s2.Close()
	s2.InitializeImages()
	s2.Wait()

	if hits.Load() != before {
		t.Fatalf("expected second session served from cache, origin hits %d -> %d", before, hits.Load())
	}
	if !doc2.Elements()[0].HasClass(application.ClassLoaded) {
		t.Fatalf("expected cached image applied in second session")
	}
}
