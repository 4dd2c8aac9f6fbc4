package domain

import (
	"net/textproto"
	"strings"
	"time"
)

// RequestKey é a identidade de uma requisição no cache.
type RequestKey struct {
	Method string
	URL    string
}

func (k RequestKey) String() string { return k.Method + " " + k.URL }

// Request é a visão da requisição interceptada, sem net/http.
type Request struct {
	Method string
	URL    string
	Header map[string][]string
}

func (r Request) Key() RequestKey {
	return RequestKey{Method: strings.ToUpper(r.Method), URL: r.URL}
}

func (r Request) header(k string) string {
	vs := r.Header[textproto.CanonicalMIMEHeaderKey(k)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// Navigational indica pedido de documento (destination === 'document').
// Sem Sec-Fetch-Dest, cai no Accept com text/html.
func (r Request) Navigational() bool {
	if dest := strings.TrimSpace(r.header("Sec-Fetch-Dest")); dest != "" {
		return strings.EqualFold(dest, "document")
	}
	return strings.Contains(r.header("Accept"), "text/html")
}

// ResponseType segue a classificação de respostas do fetch.
type ResponseType string

const (
	ResponseBasic  ResponseType = "basic"
	ResponseCORS   ResponseType = "cors"
	ResponseOpaque ResponseType = "opaque"
)

// Readable indica resposta equivalente a mesma origem (corpo legível).
func (t ResponseType) Readable() bool {
	return t == ResponseBasic || t == ResponseCORS
}

// Snapshot é a resposta armazenada, com corpo já lido.
type Snapshot struct {
	Status   int
	Header   map[string][]string
	Body     []byte
	Type     ResponseType
	StoredAt time.Time
}

// Strategy é a política escolhida para a requisição.
type Strategy string

const (
	StrategyPassThrough  Strategy = "pass-through"
	StrategyImageNetwork Strategy = "image-network-fallback"
	StrategyCacheFirst   Strategy = "cache-first"
)

// Outcome descreve como a requisição foi resolvida.
type Outcome string

const (
	OutcomeHit         Outcome = "hit"
	OutcomeStored      Outcome = "stored"
	OutcomeMiss        Outcome = "miss"
	OutcomePlaceholder Outcome = "placeholder"
	OutcomeOffline     Outcome = "offline"
	OutcomePassThrough Outcome = "pass-through"
	OutcomeFailed      Outcome = "failed"
)
