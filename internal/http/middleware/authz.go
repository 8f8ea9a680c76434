package middleware

import (
	"errors"
	"net/http"

	"example.com/blog-api/internal/core"
	"example.com/blog-api/internal/http/respond"
	"example.com/blog-api/internal/logging"
)

// AuthZRoles only lets identities with one of the given roles through. It
// must be mounted after AuthN; without an identity it fails closed.
func AuthZRoles(log logging.Logger, allowed ...core.Role) func(http.Handler) http.Handler {
	set := make(map[core.Role]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := core.IdentityFrom(r.Context())
			if !ok {
				respond.Error(w, r, log, core.Internal(errors.New("authorization guard mounted without authentication")))
				return
			}

			if _, allowed := set[id.Role]; !allowed {
				respond.Error(w, r, log, core.Forbidden("Access Denied, you are not allowed to access this resource!"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
