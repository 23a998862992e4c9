package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"lgpd-site-api/internal/http/httperr"
)

// MetricsAuth guards /metrics with a static token read from X-Metrics-Token
// or Authorization: Bearer. An empty token leaves the route open.
func MetricsAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-Metrics-Token")
			if presented == "" {
				if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
					presented = strings.TrimSpace(bearer)
				}
			}

			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				httperr.Unauthorized401(w, r.Context(), "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
