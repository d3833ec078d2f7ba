package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", g.handleHealth())
	r.Get("/status", g.handleStatus())
	r.Method(http.MethodGet, "/metrics", g.metricsHandler())

	return r
}

func (g *Gateway) metricsHandler() http.Handler {
	if g.metrics == nil {
		return http.NotFoundHandler()
	}
	return g.metrics.Handler()
}
