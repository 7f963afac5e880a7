package middlewares

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/socialgate/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// WithMetrics records request counts, latency and in-flight requests. The
// path label is the chi route pattern so ids in URLs do not explode
// cardinality.
func WithMetrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			metrics.HTTPInflight.Inc()
			defer metrics.HTTPInflight.Dec()

			rec := record(w)
			next.ServeHTTP(rec, r)

			path := metrics.NormalizePath(r.URL.Path)
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					path = p
				}
			}
			metrics.ObserveHTTP(r.Method, path, rec.status, time.Since(start))
		})
	}
}
