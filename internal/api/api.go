package api

import (
	"context"
	"net/http"
	"time"

	"github.com/fpawel/castings/internal/casting"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/powerman/structlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Store interface {
	GetCasting(ctx context.Context, id string) (casting.Casting, error)
	ListCastings(ctx context.Context, page, limit int) (casting.Page, error)
	SearchCastings(ctx context.Context, q string) (casting.SearchResult, error)
}

// NewHandler builds the router of the castings API. Metrics are registered
// on reg and exposed at /metrics.
func NewHandler(store Store, reg *prometheus.Registry) http.Handler {
	h := &handler{
		store: store,
		log:   structlog.New(structlog.KeyUnit, "api"),
	}
	m := newMetrics(reg)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.accessLog)
	r.Use(m.instrument)

	r.Get("/lookup/{casting}", func(w http.ResponseWriter, req *http.Request) {
		h.lookup(w, req, chi.URLParam(req, "casting"))
	})
	r.Get("/castings", h.list)
	r.Get("/search", h.search)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return r
}

type handler struct {
	store Store
	log   *structlog.Logger
}

func (h *handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		keyvals := []interface{}{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"dur", time.Since(start),
		}
		if ww.Status() >= http.StatusInternalServerError {
			h.log.PrintErr("request failed", keyvals...)
			return
		}
		h.log.Debug("request", keyvals...)
	})
}
