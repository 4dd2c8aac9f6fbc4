package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"image-gateway/lazyload/application"
	"image-gateway/lazyload/domain"
	"image-gateway/middleware/swcache"
	"image-gateway/middleware/swcache/infra"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type profileResponse struct {
	Tier             string  `json:"tier"`
	ConcurrencyLimit int     `json:"concurrency_limit"`
	VisibilityMargin float64 `json:"visibility_margin"`
	CompressionLevel int     `json:"compression_level"`
}

type statsResponse struct {
	Generation string                    `json:"generation"`
	Active     bool                      `json:"active"`
	Total      infra.Counters            `json:"total"`
	Shared     infra.Counters            `json:"shared,omitempty"`
	ByStrategy map[string]infra.Counters `json:"by_strategy"`
}

// sharedTotals são os contadores agregados de todas as instâncias (redis).
type sharedTotals interface {
	Totals(ctx context.Context) (infra.Counters, error)
}

// newRouter monta as rotas administrativas em /_sw e manda o resto ao proxy.
// shared pode ser nil.
func newRouter(proxy http.Handler, tr *swcache.Transport, stats *infra.MemoryStatsStore, shared sharedTotals, preload []string, logger *zap.Logger) http.Handler {
	svc := tr.Service()

	r := chi.NewRouter()
	r.Use(requestLogger(logger))

	r.Route("/_sw", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok\n"))
		})

		r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			resp := statsResponse{
				Generation: svc.Generation(),
				Active:     svc.Active(),
				Total:      stats.Total(),
				ByStrategy: make(map[string]infra.Counters),
			}
			for k, v := range stats.ByStrategy() {
				resp.ByStrategy[string(k)] = v
			}
			if shared != nil {
				totals, err := shared.Totals(r.Context())
				if err != nil {
					logger.Warn("shared stats unavailable", zap.Error(err))
				}
				resp.Shared = totals
			}
			writeJSON(w, http.StatusOK, resp)
		})

		// profile classifica a conexão do cliente pelo client hint ECT.
		r.Get("/profile", func(w http.ResponseWriter, r *http.Request) {
			p := application.Classify(domain.ParseEffectiveType(r.Header.Get("ECT")))
			w.Header().Set("Accept-CH", "ECT")
			w.Header().Set("Vary", "ECT")
			writeJSON(w, http.StatusOK, profileResponse{
				Tier:             string(p.Tier),
				ConcurrencyLimit: p.ConcurrencyLimit,
				VisibilityMargin: p.VisibilityMargin,
				CompressionLevel: p.CompressionLevel,
			})
		})

		r.Post("/activate", func(w http.ResponseWriter, r *http.Request) {
			if err := svc.Activate(r.Context()); err != nil {
				logger.Error("activate failed", zap.Error(err))
				http.Error(w, "activate failed", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/preload", func(w http.ResponseWriter, r *http.Request) {
			n := svc.Preload(r.Context(), preload)
			writeJSON(w, http.StatusOK, map[string]int{"requested": len(preload), "stored": n})
		})
	})

	r.Handle("/*", proxy)
	return r
}

func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = uuid.NewString()
				r.Header.Set("X-Request-Id", id)
			}
			w.Header().Set("X-Request-Id", id)

			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request",
				zap.String("id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
