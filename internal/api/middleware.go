package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerAuth returns middleware that validates the Authorization: Bearer <token> header.
// Uses crypto/subtle.ConstantTimeCompare to prevent timing attacks.
func BearerAuth(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || len(want) == 0 || subtle.ConstantTimeCompare([]byte(provided), want) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
