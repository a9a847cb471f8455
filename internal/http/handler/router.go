package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the health check, PnL routes and an optional metrics
// handler under /metrics.
func NewRouter(pnl *PnlHandler, metrics http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", HealthCheckHandler)
	if pnl != nil {
		pnl.RegisterRoutes(r)
	}
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	return r
}
