package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NewNotFoundError("lead"), http.StatusNotFound},
		{NewValidationError("bad input"), http.StatusBadRequest},
		{NewBadRequestError("bad body"), http.StatusBadRequest},
		{NewUnauthorizedError(""), http.StatusUnauthorized},
		{NewForbiddenError("no"), http.StatusForbidden},
		{NewConflictError("exists"), http.StatusConflict},
		{NewUpstreamError("99acres", errors.New("timeout")), http.StatusBadGateway},
		{NewDatabaseUnavailableError(errors.New("down")), http.StatusServiceUnavailable},
		{NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "error %v", tc.err)
	}
}

func TestPublicMessageHidesInternalDetail(t *testing.T) {
	err := NewInternalError(errors.New("pk violation on users.email"))
	assert.Equal(t, "An internal error occurred", PublicMessage(err))
	assert.NotContains(t, PublicMessage(err), "pk violation")

	err = NewDatabaseUnavailableError(errors.New("server selection timeout at 10.0.0.3"))
	assert.Equal(t, "Service temporarily unavailable", PublicMessage(err))

	err = NewValidationError("invalid status value")
	assert.Equal(t, "invalid status value", PublicMessage(err))

	assert.Equal(t, "An internal error occurred", PublicMessage(errors.New("raw")))
}

func TestUpstreamErrorNamesProviderOnly(t *testing.T) {
	err := NewUpstreamError("google calendar", errors.New("dial tcp: i/o timeout"))

	assert.Equal(t, "google calendar request failed", PublicMessage(err))
	assert.True(t, IsUpstream(err))
}

func TestNotFoundMessage(t *testing.T) {
	err := NewNotFoundError("agent")
	assert.Equal(t, "agent not found", PublicMessage(err))
	assert.True(t, IsNotFound(err))
}

func TestUnauthorizedDefaultMessage(t *testing.T) {
	assert.Equal(t, "Authentication required", PublicMessage(NewUnauthorizedError("")))
	assert.Equal(t, "token missing", PublicMessage(NewUnauthorizedError("token missing")))
}

func TestGetErrorCodeWrapped(t *testing.T) {
	inner := NewNotFoundError("lead")
	wrapped := fmt.Errorf("loading lead: %w", inner)

	assert.Equal(t, ErrCodeNotFound, GetErrorCode(wrapped))
	assert.True(t, IsNotFound(wrapped))
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDatabaseUnavailableError(cause)

	assert.True(t, errors.Is(err, cause))
}
