// Package handler holds the HTTP endpoints. Handlers decode the request,
// call into core and hand every failure to respond.Error.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"example.com/blog-api/internal/core"
	"example.com/blog-api/internal/http/respond"
	"example.com/blog-api/internal/logging"
)

const maxBodyBytes = 1 << 20

// CookiePolicy controls how the credential cookie is written at login.
type CookiePolicy struct {
	Enabled bool
	Secure  bool
	TTL     time.Duration
}

type Handler struct {
	accounts *core.AccountService
	posts    *core.PostService
	cookie   CookiePolicy
	log      logging.Logger
}

func New(accounts *core.AccountService, posts *core.PostService, cookie CookiePolicy, log logging.Logger) *Handler {
	return &Handler{
		accounts: accounts,
		posts:    posts,
		cookie:   cookie,
		log:      log,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound is the terminal handler for unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, r, h.log, core.NotFound("Route Not Found!"))
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method Not Allowed"})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(w, r, h.log, err)
}

// decode reads a JSON body into v. An empty body leaves v untouched so the
// core layer can report the missing fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return core.BadRequest("Invalid request body!")
}

// identity returns the caller attached by AuthN. Handlers that call it are
// only ever mounted behind AuthN, so a miss is a wiring bug.
func identity(r *http.Request) (core.Identity, error) {
	id, ok := core.IdentityFrom(r.Context())
	if !ok {
		return core.Identity{}, core.Internal(errors.New("handler: no identity in context"))
	}
	return id, nil
}

func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
