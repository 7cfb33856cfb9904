package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireAdminToken returns a middleware that requires the admin token as a
// bearer credential. Browsers cannot set headers on an EventSource, so a
// token query parameter is accepted too.
// If token is empty, auth is disabled (dev mode).
func RequireAdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			got := extractBearer(r)
			if got == "" {
				got = r.URL.Query().Get("token")
			}
			if got == "" {
				respondError(w, http.StatusUnauthorized, "missing Authorization header")
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				respondError(w, http.StatusUnauthorized, "invalid admin token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return auth[7:]
	}
	return auth
}
