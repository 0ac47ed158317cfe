// Package httptransport assembles the public HTTP surface: the engine
// endpoints, health, and Prometheus metrics. Handlers live next to their
// services; this package only owns the chain.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	enginehandler "memento/internal/engine/handler"
	platformredis "memento/internal/platform/redis"
	"memento/pkg/platform/httputil"
	"memento/pkg/platform/middleware/auth"
	"memento/pkg/platform/middleware/metadata"
)

// Deps carries everything the router mounts.
type Deps struct {
	Engine *enginehandler.Handler
	Auth   *auth.Middleware
	Redis  *platformredis.Client
	Logger *slog.Logger
}

// NewRouter builds the full middleware chain and mounts all endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(metadata.RequestMetadata)

	r.Get("/healthz", handleHealth(deps.Redis))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if deps.Auth != nil && deps.Auth.Enabled() {
			r.Use(deps.Auth.RequireToken)
		}
		deps.Engine.Register(r)
	})

	return r
}

// handleHealth reports liveness plus the state of optional backends. A
// degraded Redis does not fail the check; the engine recomputes instead of
// replaying, so the service is still serving correct answers.
func handleHealth(redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}

		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				status["cache"] = "degraded"
			} else {
				status["cache"] = "ok"
			}
		}

		httputil.WriteJSON(w, http.StatusOK, status)
	}
}
