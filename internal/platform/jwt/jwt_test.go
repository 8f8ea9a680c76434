package jwt

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/blog-api/internal/core"
)

var alice = core.Identity{AccountID: "acc-1", Email: "a@x.com", Role: core.RoleUser}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newSigner(t *testing.T, secret string, c *clock) *HS256 {
	t.Helper()
	o := Options{Secret: []byte(secret), TTL: time.Hour}
	if c != nil {
		o.Now = c.Now
	}
	h, err := NewHS256(o)
	require.NoError(t, err)
	return h
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	h := newSigner(t, "super-secret", nil)
	tok, exp, err := h.Issue(alice, 0)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 2*time.Second)

	got, err := h.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, alice, got)
}

func TestVerify_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	c := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	h := newSigner(t, "super-secret", c)

	tok, exp, err := h.Issue(alice, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, c.t.Add(10*time.Minute), exp)

	c.t = c.t.Add(9 * time.Minute)
	_, err = h.Verify(tok)
	require.NoError(t, err)

	c.t = c.t.Add(2 * time.Minute)
	_, err = h.Verify(tok)
	assert.ErrorIs(t, err, ErrExpired)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _, err := newSigner(t, "right-secret", nil).Issue(alice, 0)
	require.NoError(t, err)

	_, err = newSigner(t, "wrong-secret", nil).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.NotErrorIs(t, err, ErrExpired)
}

func TestVerify_TamperedPayload(t *testing.T) {
	t.Parallel()

	h := newSigner(t, "super-secret", nil)
	tok, _, err := h.Issue(alice, 0)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var claims map[string]any
	require.NoError(t, json.Unmarshal(payload, &claims))
	claims["role"] = "admin"
	forged, err := json.Marshal(claims)
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString(forged)

	_, err = h.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	h := newSigner(t, "super-secret", nil)
	for _, raw := range []string{"", "not.a.jwt", "abc"} {
		_, err := h.Verify(raw)
		assert.ErrorIs(t, err, ErrMalformed, "token %q", raw)
	}
}

func TestVerify_WrongAudience(t *testing.T) {
	t.Parallel()

	other, err := NewHS256(Options{Secret: []byte("super-secret"), TTL: time.Hour, Audience: "someone-else"})
	require.NoError(t, err)
	tok, _, err := other.Issue(alice, 0)
	require.NoError(t, err)

	_, err = newSigner(t, "super-secret", nil).Verify(tok)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := Claims{
		AccountID: "acc-1",
		Role:      "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    DefaultIssuer,
			Audience:  jwt.ClaimStrings{DefaultAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newSigner(t, "super-secret", nil).Verify(tok)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrExpired)
}

func TestVerify_UnknownRole(t *testing.T) {
	t.Parallel()

	h := newSigner(t, "super-secret", nil)
	tok, _, err := h.Issue(core.Identity{AccountID: "acc-1", Role: "root"}, 0)
	require.NoError(t, err)

	_, err = h.Verify(tok)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNewHS256_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewHS256(Options{TTL: time.Hour})
	assert.Error(t, err)

	_, err = NewHS256(Options{Secret: []byte("k")})
	assert.Error(t, err)
}
