// Package respond writes JSON responses and is the single place where
// errors become HTTP status codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"example.com/blog-api/internal/core"
	"example.com/blog-api/internal/logging"
)

func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes err as {"error": message}. A *core.Error keeps its status and
// message; anything else is logged and reported as a bare 500.
func Error(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	var ce *core.Error
	if !errors.As(err, &ce) {
		ce = core.Internal(err)
	}
	if ce.Kind == core.KindInternal && log != nil {
		log.Error(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
	JSON(w, ce.Kind.Status(), map[string]string{"error": ce.Message})
}
