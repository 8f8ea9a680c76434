package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"example.com/blog-api/internal/core"
)

var (
	ErrExpired          = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMalformed        = errors.New("malformed token")
)

const (
	DefaultIssuer   = "blog-api"
	DefaultAudience = "blog-clients"
)

// Claims is the signed payload of a credential token.
type Claims struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

type Options struct {
	Secret   []byte
	TTL      time.Duration
	Issuer   string
	Audience string
	// Now overrides the clock, used by tests.
	Now func() time.Time
}

// HS256 issues and verifies HMAC-SHA256 signed tokens. It is immutable after
// construction and safe for concurrent use.
type HS256 struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience string
	now      func() time.Time
}

func NewHS256(o Options) (*HS256, error) {
	if len(o.Secret) == 0 {
		return nil, errors.New("jwt: empty signing secret")
	}
	if o.TTL <= 0 {
		return nil, fmt.Errorf("jwt: non-positive ttl %s", o.TTL)
	}
	h := &HS256{
		secret:   append([]byte(nil), o.Secret...),
		ttl:      o.TTL,
		issuer:   o.Issuer,
		audience: o.Audience,
		now:      o.Now,
	}
	if h.issuer == "" {
		h.issuer = DefaultIssuer
	}
	if h.audience == "" {
		h.audience = DefaultAudience
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h, nil
}

func (h *HS256) TTL() time.Duration { return h.ttl }

// Issue signs id with an absolute expiry of now+ttl. A non-positive ttl
// falls back to the configured default.
func (h *HS256) Issue(id core.Identity, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = h.ttl
	}
	now := h.now()
	exp := now.Add(ttl)
	claims := Claims{
		AccountID: id.AccountID,
		Email:     id.Email,
		Role:      string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.AccountID,
			Issuer:    h.issuer,
			Audience:  jwt.ClaimStrings{h.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(h.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return s, exp, nil
}

// Verify checks signature, issuer, audience and expiry and returns the
// identity the token asserts.
func (h *HS256) Verify(raw string) (core.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(h.issuer),
		jwt.WithAudience(h.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(h.now),
	)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return core.Identity{}, ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return core.Identity{}, ErrExpired
	default:
		return core.Identity{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	role := core.Role(claims.Role)
	if claims.AccountID == "" || !role.Valid() {
		return core.Identity{}, fmt.Errorf("%w: incomplete claims", ErrMalformed)
	}

	return core.Identity{
		AccountID: claims.AccountID,
		Email:     claims.Email,
		Role:      role,
	}, nil
}
