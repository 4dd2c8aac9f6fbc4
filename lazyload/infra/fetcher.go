package infra

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"image-gateway/lazyload/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	_ "golang.org/x/image/webp"
)

const defaultMaxBytes = 16 << 20

var tracer = otel.Tracer("image-gateway/lazyload")

// HTTPFetcher busca o locator e confirma que o corpo é uma imagem decodificável.
//
// O Client pode usar o swcache.Transport, assim as buscas passam pelo cache
// persistente antes da rede.
type HTTPFetcher struct {
	Client *http.Client
	// Base resolve locators relativos.
	Base     *url.URL
	MaxBytes int64
}

func (f *HTTPFetcher) Fetch(ctx context.Context, locator string) error {
	// placeholders inline não passam pela rede
	if strings.HasPrefix(locator, "data:") {
		return nil
	}

	ctx, span := tracer.Start(ctx, "lazyload.fetch",
		trace.WithAttributes(attribute.String("image.locator", locator)))
	defer span.End()

	err := f.fetch(ctx, locator)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (f *HTTPFetcher) fetch(ctx context.Context, locator string) error {
	u, err := url.Parse(locator)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}
	if f.Base != nil {
		u = f.Base.ResolveReference(u)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}
	req.Header.Set("Accept", "image/webp,image/*,*/*;q=0.8")
	req.Header.Set("Sec-Fetch-Dest", "image")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.StatusError{Locator: u.String(), Status: resp.StatusCode}
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = defaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", domain.ErrNetworkFailure, err)
	}
	if int64(len(body)) > limit {
		return fmt.Errorf("%w: body larger than %d bytes", domain.ErrDecodeFailure, limit)
	}
	return checkDecodable(resp.Header.Get("Content-Type"), body)
}

func checkDecodable(contentType string, body []byte) error {
	if isSVG(contentType, body) {
		return nil
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(body)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDecodeFailure, err)
	}
	return nil
}

func isSVG(contentType string, body []byte) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "image/svg+xml" {
		return true
	}
	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}
