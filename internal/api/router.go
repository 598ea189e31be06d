// internal/api/router.go
//
// Root HTTP handler.
//
// Middleware order
// ----------------
//  1. RequestID     – chi; tags every log line.
//  2. Enrich        – client IP, agent, and country for the access log.
//  3. RequestLog    – one zap line per request plus latency histogram.
//  4. Recoverer     – chi; a panic becomes a 500, never a dropped conn.
//  5. Security      – response headers.
//  6. ForceHTTPS    – optional 308 to HTTPS.
//
// Notes
// -----
//   - /healthz and /metrics sit behind the same chain so they are logged.
//   - Oxford commas, two spaces after periods.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/jye-barcode/internal/middleware"
	"github.com/yanizio/jye-barcode/internal/requestinfo"
)

// RouterOptions carries the `http` config bits the router needs.
type RouterOptions struct {
	ForceHTTPS bool
	Geo        *requestinfo.GeoDB // optional
}

// NewRouter assembles the full handler tree.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(requestinfo.Enrich(opts.Geo))
	r.Use(middleware.RequestLog)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security)
	r.Use(middleware.ForceHTTPS(opts.ForceHTTPS))

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/api", h.Routes())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no such endpoint", Kind: "not_found"})
	})
	return r
}
