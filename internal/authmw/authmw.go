// Package authmw provides HTTP middleware for shared-secret header
// authentication of ingest endpoints.
package authmw

import (
	"crypto/subtle"
	"net/http"
)

// SharedSecret returns middleware that validates the given header matches
// the expected secret. Comparison uses constant-time equality to prevent
// timing side-channel attacks. An empty secret disables the check.
func SharedSecret(header, secret string) func(http.Handler) http.Handler {
	expected := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			got := []byte(r.Header.Get(header))

			if subtle.ConstantTimeCompare(got, expected) != 1 {
				http.Error(w, `{"error":"invalid or missing secret"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
