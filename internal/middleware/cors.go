package middleware

import (
	"net/http"
	"strings"
)

// CORS allows the configured origin. A configured value of the form
// "https://prefix-*.suffix" also admits every origin matching the wildcard,
// which covers preview deployments of the dashboard.
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqOrigin := r.Header.Get("Origin")
			allowed := origin

			if reqOrigin != "" && isAllowed(reqOrigin, origin) {
				allowed = reqOrigin
				w.Header().Add("Vary", "Origin")
			}

			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isAllowed(reqOrigin, configured string) bool {
	if configured == "*" {
		return true
	}
	if reqOrigin == configured {
		return true
	}
	prefix, suffix, ok := strings.Cut(configured, "*")
	if !ok {
		return false
	}
	return len(reqOrigin) > len(prefix)+len(suffix) &&
		strings.HasPrefix(reqOrigin, prefix) &&
		strings.HasSuffix(reqOrigin, suffix)
}
