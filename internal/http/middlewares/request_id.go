package middlewares

import (
	"net/http"
	"strings"

	tokens "github.com/dropDatabas3/socialgate/internal/security/token"
)

const maxRequestIDLen = 128

// WithRequestID propagates the client's X-Request-ID or generates one. The id
// is echoed in the response and stored in the request context.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if rid == "" || len(rid) > maxRequestIDLen {
				rid, _ = tokens.GenerateOpaqueToken(16)
			}
			w.Header().Set("X-Request-ID", rid)
			next.ServeHTTP(w, r.WithContext(setRequestID(r.Context(), rid)))
		})
	}
}
