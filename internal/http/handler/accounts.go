package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"example.com/blog-api/internal/core"
	"example.com/blog-api/internal/http/middleware"
	"example.com/blog-api/internal/http/respond"
)

type signUpRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      core.Profile `json:"user"`
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var in signUpRequest
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.accounts.SignUp(r.Context(), core.SignUpInput{
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Email:         in.Email,
		Password:      in.Password,
		RequestedRole: in.Role,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    p,
	})
}

// Login returns the token in the body and, when cookies are an accepted
// transport, also sets it as an http-only cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	s, err := h.accounts.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if h.cookie.Enabled {
		http.SetCookie(w, h.tokenCookie(s.Token, int(h.cookie.TTL.Seconds())))
	}
	respond.JSON(w, http.StatusOK, loginResponse{
		Message:   "Login successful",
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		User:      s.Profile,
	})
}

// Logout only clears the cookie. Issued tokens stay valid until they expire.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.cookie.Enabled {
		http.SetCookie(w, h.tokenCookie("", -1))
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *Handler) tokenCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.accounts.Get(r.Context(), id, id.AccountID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.List(r.Context(), r.URL.Query().Get("email"), queryLimit(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "users fetched Successfully",
		"users":   users,
	})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.accounts.Get(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}
