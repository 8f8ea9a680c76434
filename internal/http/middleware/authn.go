package middleware

import (
	"errors"
	"net/http"
	"strings"

	"example.com/blog-api/internal/core"
	"example.com/blog-api/internal/http/respond"
	"example.com/blog-api/internal/logging"
	"example.com/blog-api/internal/platform/config"
	"example.com/blog-api/internal/platform/jwt"
)

// TokenCookie is the cookie that carries the credential token.
const TokenCookie = "token"

type Verifier interface {
	Verify(token string) (core.Identity, error)
}

// Extractor finds the raw credential token in a request.
type Extractor interface {
	Extract(r *http.Request) (string, bool)
}

type CookieExtractor struct {
	Name string
}

func (c CookieExtractor) Extract(r *http.Request) (string, bool) {
	ck, err := r.Cookie(c.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

type BearerExtractor struct{}

func (BearerExtractor) Extract(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(h[7:])
	return raw, raw != ""
}

// FirstOf tries each extractor in order.
type FirstOf []Extractor

func (f FirstOf) Extract(r *http.Request) (string, bool) {
	for _, e := range f {
		if raw, ok := e.Extract(r); ok {
			return raw, true
		}
	}
	return "", false
}

// ExtractorFor maps a configured transport to its extractor. With both
// transports enabled the Authorization header wins over the cookie.
func ExtractorFor(transport string) Extractor {
	switch transport {
	case config.TransportCookie:
		return CookieExtractor{Name: TokenCookie}
	case config.TransportBearer:
		return BearerExtractor{}
	default:
		return FirstOf{BearerExtractor{}, CookieExtractor{Name: TokenCookie}}
	}
}

// AuthN rejects requests without a valid credential and attaches the
// verified identity to the context of those that have one.
func AuthN(v Verifier, ex Extractor, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := ex.Extract(r)
			if !ok {
				respond.Error(w, r, log, core.Unauthorized("Unauthorized"))
				return
			}

			id, err := v.Verify(raw)
			if err != nil {
				log.Debug(r.Context(), "Token rejected", "path", r.URL.Path, "error", err)
				if errors.Is(err, jwt.ErrExpired) {
					respond.Error(w, r, log, core.Unauthorized("token expired"))
					return
				}
				respond.Error(w, r, log, core.Forbidden("invalid token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(core.WithIdentity(r.Context(), id)))
		})
	}
}
