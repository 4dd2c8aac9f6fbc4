package swcache

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"image-gateway/middleware/swcache/application"
	"image-gateway/middleware/swcache/domain"
	"image-gateway/middleware/swcache/infra"

	"go.uber.org/zap"
)

// HeaderOutcome expõe como a resposta foi resolvida (hit, stored, placeholder...).
const HeaderOutcome = "X-SW-Cache"

type Options struct {
	Store domain.Store
	Stats domain.StatsStore
	// Base é o transporte de rede; nil usa http.DefaultTransport.
	Base http.RoundTripper

	Generation      string
	ImageHosts      []string
	Origin          string
	OfflineDocument string

	// OriginRPS <= 0 desliga o limite por origem.
	OriginRPS   float64
	OriginBurst int

	Logger *zap.Logger
}

// Transport intercepta as buscas de saída, como um service worker.
type Transport struct {
	base    http.RoundTripper
	svc     *application.Service
	limiter *infra.OriginLimiter
}

func NewTransport(opts Options) *Transport {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	store := opts.Store
	if store == nil {
		store = infra.NewMemoryStore()
	}

	var limiter *infra.OriginLimiter
	if opts.OriginRPS > 0 {
		limiter = infra.NewOriginLimiter(opts.OriginRPS, opts.OriginBurst)
	}

	svc := application.NewService(application.Config{
		Store: store,
		Fetcher: &infra.NetworkFetcher{
			Transport: base,
			Origin:    opts.Origin,
			Limiter:   limiter,
		},
		Stats:           opts.Stats,
		Generation:      opts.Generation,
		ImageHosts:      opts.ImageHosts,
		OfflineDocument: opts.OfflineDocument,
		Logger:          opts.Logger,
	})

	return &Transport{base: base, svc: svc, limiter: limiter}
}

// Service dá acesso ao ciclo de vida (Install/Activate/Preload).
func (t *Transport) Service() *application.Service { return t.svc }

// StartJanitor limpa limiters de origens ociosas. No-op sem limite configurado.
func (t *Transport) StartJanitor(ctx context.Context) {
	if t.limiter != nil {
		t.limiter.StartJanitor(ctx)
	}
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	req := domain.Request{Method: r.Method, URL: r.URL.String(), Header: r.Header}
	if t.svc.Classify(req) == domain.StrategyPassThrough {
		return t.base.RoundTrip(r)
	}

	if r.Body != nil {
		_ = r.Body.Close()
	}
	snap, outcome, err := t.svc.Handle(r.Context(), req)
	if err != nil {
		return nil, err
	}
	return toResponse(r, snap, outcome), nil
}

func toResponse(r *http.Request, snap domain.Snapshot, outcome domain.Outcome) *http.Response {
	header := make(http.Header, len(snap.Header)+2)
	for k, vs := range snap.Header {
		header[k] = append([]string(nil), vs...)
	}
	header.Set("Content-Length", strconv.Itoa(len(snap.Body)))
	header.Set(HeaderOutcome, string(outcome))
	if !snap.StoredAt.IsZero() && outcome == domain.OutcomeHit {
		header.Set("Age", strconv.Itoa(int(time.Since(snap.StoredAt).Seconds())))
	}

	status := snap.Status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		Status:        strconv.Itoa(status) + " " + http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(snap.Body)),
		ContentLength: int64(len(snap.Body)),
		Request:       r,
	}
}
