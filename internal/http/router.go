// Package httpapi assembles the service's HTTP surface: health and metrics
// endpoints plus the authenticated delegation API.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/handler"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/platform/middleware"
)

// NewRouter wires all endpoints. Everything under /api/auth requires a valid
// bearer token; health and metrics stay open.
func NewRouter(delegation *handler.Handler, validator middleware.JWTValidator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/auth", func(api chi.Router) {
		api.Use(middleware.RequireAuth(validator, logger))
		delegation.Register(api)
	})

	return r
}
