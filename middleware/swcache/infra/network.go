package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"image-gateway/middleware/swcache/domain"
)

const defaultMaxBody = 32 << 20

// NetworkFetcher faz a busca real sobre um RoundTripper e bufferiza o corpo
// para que a resposta possa ser servida e guardada ao mesmo tempo.
type NetworkFetcher struct {
	Transport http.RoundTripper
	// Origin é o host "próprio"; respostas dele são basic. Vazio trata tudo como basic.
	Origin  string
	Limiter *OriginLimiter
	MaxBody int64
}

func (f *NetworkFetcher) Fetch(ctx context.Context, req domain.Request) (domain.Snapshot, error) {
	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, nil)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}
	for k, vs := range req.Header {
		hreq.Header[k] = append([]string(nil), vs...)
	}

	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx, hreq.URL.Host); err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: rate wait: %v", domain.ErrNetworkFailure, err)
		}
	}

	rt := f.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	resp, err := rt.RoundTrip(hreq)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	limit := f.MaxBody
	if limit <= 0 {
		limit = defaultMaxBody
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: read body: %v", domain.ErrNetworkFailure, err)
	}
	if int64(len(body)) > limit {
		return domain.Snapshot{}, fmt.Errorf("%w: body larger than %d bytes", domain.ErrNetworkFailure, limit)
	}

	return domain.Snapshot{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
		Type:   f.responseType(hreq, resp),
	}, nil
}

func (f *NetworkFetcher) responseType(req *http.Request, resp *http.Response) domain.ResponseType {
	if f.Origin == "" || strings.EqualFold(req.URL.Host, f.Origin) {
		return domain.ResponseBasic
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "" {
		return domain.ResponseCORS
	}
	return domain.ResponseOpaque
}
