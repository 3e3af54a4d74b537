package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorPassthrough(t *testing.T) {
	original := NewInvalidState("ticket is closed", map[string]any{"ticket_id": int64(9)})
	mapped := ToDomainError(original)
	require.Equal(t, CodeInvalidState, mapped.Code)
	require.Equal(t, http.StatusConflict, mapped.HTTPStatus)
	require.Equal(t, int64(9), mapped.Details["ticket_id"])
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	mapped := ToDomainError(errors.New("boom"))
	require.Equal(t, CodeInternal, mapped.Code)
	require.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	mapped := ToDomainError(fmt.Errorf("query ticket: %w", pgx.ErrNoRows))
	require.Equal(t, CodeNotFound, mapped.Code)
	require.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
}

func TestHasCode(t *testing.T) {
	err := NewForbidden("administrator role required", nil)
	require.True(t, HasCode(err, CodeForbidden))
	require.False(t, HasCode(err, CodeUnauthorized))
	require.False(t, HasCode(errors.New("plain"), CodeForbidden))
	require.False(t, HasCode(nil, CodeForbidden))
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewDependencyUnavailable("postgres", cause)
	require.ErrorIs(t, err, cause)
	require.True(t, HasCode(err, CodeDependencyUnavailable))
}
