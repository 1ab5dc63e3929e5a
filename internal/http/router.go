// Package httpapi assembles the HTTP surface: the shared middleware
// chain, the public read endpoints, and the authenticated purchase and
// withdrawal endpoints.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"namedeed/internal/platform/middleware"
)

// ModuleHandler is implemented by each module's HTTP handler.
type ModuleHandler interface {
	Register(r chi.Router)
}

// PublicHandler is implemented by handlers that also expose
// unauthenticated routes.
type PublicHandler interface {
	RegisterPublic(r chi.Router)
}

// NewRouter builds the full route tree. Reads (price, ownership) are
// public; everything that moves money or mutates state requires a
// bearer token.
func NewRouter(logger *slog.Logger, validator middleware.TokenValidator, handlers ...ModuleHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(api chi.Router) {
		for _, h := range handlers {
			if pub, ok := h.(PublicHandler); ok {
				pub.RegisterPublic(api)
			}
		}

		api.Group(func(authed chi.Router) {
			authed.Use(middleware.RequireAuth(validator, logger))
			for _, h := range handlers {
				h.Register(authed)
			}
		})
	})

	return r
}
