// Package router mounts the gateway routes on a chi router.
package router

import (
	"net/http"

	authctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/socialgate/internal/http/controllers/health"
	httperrors "github.com/dropDatabas3/socialgate/internal/http/errors"
	mw "github.com/dropDatabas3/socialgate/internal/http/middlewares"
	"github.com/dropDatabas3/socialgate/internal/rate"
	"github.com/go-chi/chi/v5"
)

// Deps contains everything the router mounts.
type Deps struct {
	Auth    *authctrl.Controllers
	Health  *healthctrl.HealthController
	Metrics http.Handler // nil disables /metrics
	Limiter rate.Limiter // nil disables rate limiting
}

// New builds the root handler.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithMetrics(),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	if d.Health != nil {
		registerHealthRoutes(r, d.Health)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	if d.Auth != nil {
		registerAuthRoutes(r, d.Auth, d.Limiter)
	}
	return r
}

// Health checks are frequent; they skip request logging.
func registerHealthRoutes(r chi.Router, c *healthctrl.HealthController) {
	r.Get("/healthz", c.Healthz)
	r.Get("/readyz", c.Readyz)
}

func registerAuthRoutes(r chi.Router, c *authctrl.Controllers, limiter rate.Limiter) {
	r.Route("/auth", func(r chi.Router) {
		r.Use(
			mw.WithLogging(),
			mw.WithSecurityHeaders(),
			mw.WithNoStore(),
			mw.WithRateLimit(limiter, mw.IPPathRateKey),
		)

		r.Get("/providers", c.Login.Providers)
		r.Get("/{provider}/url", c.Login.AuthURL)
		r.Get("/{provider}/callback", c.Login.Callback)
		r.Post("/{provider}/callback", c.Login.Callback)

		r.Get("/user", c.Session.UserInfo)
		r.Post("/logout", c.Session.Logout)
		r.Post("/refresh", c.Refresh.Refresh)
	})
}
