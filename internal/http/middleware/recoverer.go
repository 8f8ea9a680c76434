package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"example.com/blog-api/internal/core"
	"example.com/blog-api/internal/http/respond"
	"example.com/blog-api/internal/logging"
)

// Recoverer turns a panic into the usual {"error": ...} 500 response.
func Recoverer(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				log.Error(r.Context(), "Recovered from panic", "panic", rvr, "stack", string(debug.Stack()))
				respond.Error(w, r, log, core.Internal(fmt.Errorf("panic: %v", rvr)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
