package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindBadRequest.Status())
	assert.Equal(t, http.StatusUnauthorized, KindUnauthorized.Status())
	assert.Equal(t, http.StatusForbidden, KindForbidden.Status())
	assert.Equal(t, http.StatusNotFound, KindNotFound.Status())
	assert.Equal(t, http.StatusInternalServerError, KindInternal.Status())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("x")))
	assert.Equal(t, KindForbidden, KindOf(fmt.Errorf("wrapped: %w", Forbidden("x"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("raw")))
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("pq: password authentication failed")
	err := Internal(cause)

	assert.Equal(t, "internal server error", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFrom(context.Background())
	assert.False(t, ok)

	id := Identity{AccountID: "1", Role: RoleAdmin}
	got, ok := IdentityFrom(WithIdentity(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
	assert.True(t, got.IsAdmin())
}
