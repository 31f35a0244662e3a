package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatusCode(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusUnprocessableEntity},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.StatusCode())
		})
	}
}

func TestAsThroughWrapping(t *testing.T) {
	cause := stderrors.New("duplicate key")
	wrapped := fmt.Errorf("failed to create review: %w", Conflict("review already exists", cause))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindConflict, appErr.Kind)
	assert.True(t, IsConflict(wrapped))
	assert.ErrorIs(t, wrapped, cause)
}

func TestInternalHidesCause(t *testing.T) {
	err := Internal(stderrors.New("pq: connection refused"))

	assert.Equal(t, "internal server error", err.Message)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, KindInternal, KindOf(stderrors.New("plain")))
}

func TestFieldError(t *testing.T) {
	err := FieldError("email", "email has already been taken")

	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, map[string]string{"email": "email has already been taken"}, err.Fields)
}
