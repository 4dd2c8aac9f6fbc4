package swcache

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"image-gateway/middleware/swcache/infra"
)

func newOrigin(t *testing.T, hits *atomic.Int32) (*httptest.Server, *url.URL) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/index.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, "<html>offline home</html>")
		case "/app.css":
			w.Header().Set("Content-Type", "text/css")
			_, _ = io.WriteString(w, "body{}")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	u, _ := url.Parse(srv.URL)
	return srv, u
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func TestTransport_PassThroughBeforeActivate(t *testing.T) {
	var hits atomic.Int32
	srv, u := newOrigin(t, &hits)
	tr := NewTransport(Options{Origin: u.Host})
	client := &http.Client{Transport: tr}

	for i := 0; i < 2; i++ {
		resp, err := client.Get(srv.URL + "/app.css")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if resp.Header.Get(HeaderOutcome) != "" {
			t.Fatalf("expected no cache header before activation")
		}
		_ = readAll(t, resp)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected every request to reach origin, got %d", hits.Load())
	}
}

func TestTransport_CacheFirstAfterActivate(t *testing.T) {
	var hits atomic.Int32
	srv, u := newOrigin(t, &hits)
	stats := infra.NewMemoryStatsStore()
	tr := NewTransport(Options{Origin: u.Host, Stats: stats})
	if err := tr.Service().Activate(context.Background()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	client := &http.Client{Transport: tr}

	resp, err := client.Get(srv.URL + "/app.css")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := resp.Header.Get(HeaderOutcome); got != "stored" {
		t.Fatalf("expected stored outcome, got %q", got)
	}
	_ = readAll(t, resp)

	resp, err = client.Get(srv.URL + "/app.css")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := resp.Header.Get(HeaderOutcome); got != "hit" {
		t.Fatalf("expected hit outcome, got %q", got)
	}
	if resp.Header.Get("Age") == "" {
		t.Fatalf("expected Age header on cache hit")
	}
	if body := readAll(t, resp); body != "body{}" {
		t.Fatalf("unexpected cached body %q", body)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected single origin hit, got %d", hits.Load())
	}
}

func TestTransport_PostIsNotIntercepted(t *testing.T) {
	var hits atomic.Int32
	srv, u := newOrigin(t, &hits)
	tr := NewTransport(Options{Origin: u.Host})
	_ = tr.Service().Activate(context.Background())
	client := &http.Client{Transport: tr}

	for i := 0; i < 2; i++ {
		resp, err := client.Post(srv.URL+"/app.css", "text/plain", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		if resp.Header.Get(HeaderOutcome) != "" {
			t.Fatalf("expected POST untouched by cache")
		}
		_ = readAll(t, resp)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected both POSTs at origin, got %d", hits.Load())
	}
}

func TestTransport_OfflineNavigationServesPrecachedDocument(t *testing.T) {
	var hits atomic.Int32
	srv, u := newOrigin(t, &hits)

	var down atomic.Bool
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if down.Load() {
			return nil, errors.New("connection refused")
		}
		return http.DefaultTransport.RoundTrip(r)
	})

	tr := NewTransport(Options{Origin: u.Host, Base: base})
	svc := tr.Service()
	if err := svc.Install(context.Background(), []string{srv.URL + "/index.html"}); err != nil {
		t.Fatalf("install: %v", err)
	}
	_ = svc.Activate(context.Background())
	down.Store(true)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/rooms/7", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := (&http.Client{Transport: tr}).Do(req)
	if err != nil {
		t.Fatalf("expected offline document, got error %v", err)
	}
	if got := resp.Header.Get(HeaderOutcome); got != "offline" {
		t.Fatalf("expected offline outcome, got %q", got)
	}
	if body := readAll(t, resp); body != "<html>offline home</html>" {
		t.Fatalf("unexpected offline body %q", body)
	}

	if _, err := (&http.Client{Transport: tr}).Get(srv.URL + "/api/data"); err == nil {
		t.Fatalf("expected error for non-navigational request while offline")
	}
}

func TestTransport_ImageHostPlaceholder(t *testing.T) {
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("no route to host")
	})
	tr := NewTransport(Options{Base: base, Origin: "app.example"})
	_ = tr.Service().Activate(context.Background())

	resp, err := (&http.Client{Transport: tr}).Get("https://images.unsplash.com/photo.jpg?w=400")
	if err != nil {
		t.Fatalf("expected placeholder instead of error, got %v", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/svg+xml" {
		t.Fatalf("expected 200 svg placeholder, got %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if got := resp.Header.Get(HeaderOutcome); got != "placeholder" {
		t.Fatalf("expected placeholder outcome, got %q", got)
	}
	if body := readAll(t, resp); !strings.Contains(body, "Offline") {
		t.Fatalf("expected Offline placeholder body")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
