package middleware

import (
	"net/http"
	"runtime/debug"

	"g2-yoyodex/internal/logger"
	"g2-yoyodex/pkg/apierror"
)

// Recovery turns a handler panic into a 500 response.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	log = logger.OrNop(log).Component("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					log.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
						"request_id", GetRequestID(r.Context()),
						"stack", string(debug.Stack()),
					)
					apierror.InternalError("internal server error").Write(w)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
