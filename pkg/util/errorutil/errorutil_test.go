package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThroughDomainErrors(t *testing.T) {
	fields := FieldErrors{}
	fields.Add("title", "Title is required.")
	err := fmt.Errorf("create: %w", NewValidationError(fields))

	domainErr := ToDomainError(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus)
	assert.Equal(t, FieldErrors{"title": {"Title is required."}}, domainErr.Body())
}

func TestToDomainError_NoRowsIsNotFound(t *testing.T) {
	domainErr := ToDomainError(fmt.Errorf("get ticket: %w", pgx.ErrNoRows))
	assert.Equal(t, http.StatusNotFound, domainErr.HTTPStatus)
	assert.Equal(t, map[string]string{"error": "Not found"}, domainErr.Body())
	assert.True(t, IsNotFound(pgx.ErrNoRows))
}

func TestToDomainError_UnknownIsInternal(t *testing.T) {
	cause := errors.New("connection reset")
	domainErr := ToDomainError(cause)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
	assert.ErrorIs(t, domainErr, cause)
	assert.Equal(t, map[string]string{"error": "internal server error"}, domainErr.Body())
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestInvalidInputBody(t *testing.T) {
	domainErr := ToDomainError(NewInvalidInput("description is required"))
	assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus)
	assert.Equal(t, map[string]string{"error": "description is required"}, domainErr.Body())
	assert.False(t, IsNotFound(domainErr))
}

func TestFieldErrorsSorted(t *testing.T) {
	fields := FieldErrors{}
	fields.Add("status", "x")
	fields.Add("category", "y")
	fields.Add("category", "z")
	assert.Equal(t, []string{"category", "status"}, fields.Fields())
	assert.Len(t, fields["category"], 2)
}
