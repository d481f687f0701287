package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInvalidCredentials, http.StatusUnauthorized},
		{KindAlreadyExists, http.StatusConflict},
		{KindInvalidToken, http.StatusUnauthorized},
		{KindMissingAuthHeader, http.StatusUnauthorized},
		{KindInsufficientPermissions, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindValidation, http.StatusBadRequest},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindInternal, http.StatusInternalServerError},
		{Kind("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.kind))
		})
	}
}

func TestToDomainError_WrapsUnknownAsInternal(t *testing.T) {
	cause := errors.New("connection refused")

	de := ToDomainError(cause)
	require.NotNil(t, de)
	assert.Equal(t, KindInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Equal(t, "internal server error", de.Message)
	assert.ErrorIs(t, de, cause)
	assert.True(t, de.IsServerFault())
	assert.False(t, de.Timestamp.IsZero())
}

func TestToDomainError_PreservesWrappedDomainError(t *testing.T) {
	err := fmt.Errorf("login: %w", NewInvalidCredentials())

	de := ToDomainError(err)
	assert.Equal(t, KindInvalidCredentials, de.Code)
	assert.False(t, de.IsServerFault())
	assert.Nil(t, ToDomainError(nil))
}

func TestDomainError_IsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("refresh: %w", NewNotFound("user", nil))

	assert.ErrorIs(t, err, NewNotFound("anything", nil))
	assert.NotErrorIs(t, err, NewInvalidCredentials())
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestInvalidCredentialsIsStable(t *testing.T) {
	a := NewInvalidCredentials().(*DomainError)
	b := NewInvalidCredentials().(*DomainError)

	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, a.Message, b.Message)
}
