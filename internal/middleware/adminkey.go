package middleware

import (
	"crypto/subtle"
	"net/http"

	"g2-yoyodex/pkg/apierror"
)

// LoginKeyHeader carries the admin key.
const LoginKeyHeader = "X-Login-Key"

// AdminKey rejects requests whose X-Login-Key does not match key. An empty
// key leaves the routes open.
func AdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(LoginKeyHeader)
			if got == "" {
				apierror.Unauthorized("X-Login-Key header required").Write(w)
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				apierror.Unauthorized("invalid login key").Write(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
