package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredefinedErrorStatuses(t *testing.T) {
	cases := map[*Error]int{
		ErrNotFound:    http.StatusNotFound,
		ErrValidation:  http.StatusBadRequest,
		ErrUnsupported: http.StatusNotImplemented,
		ErrInternal:    http.StatusInternalServerError,
	}
	for err, status := range cases {
		assert.Equal(t, status, err.Status, err.Code)
	}
}

func TestFromErrorWrapsUnknownErrorsAsInternal(t *testing.T) {
	cause := fmt.Errorf("load units: %w", sql.ErrConnDone)

	appErr := FromError(cause)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
	assert.Nil(t, FromError(nil))
}

func TestCloneAndIs(t *testing.T) {
	notFound := Clone(ErrNotFound, "course 7 not found")
	assert.Equal(t, "course 7 not found", notFound.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)

	wrapped := fmt.Errorf("suggest: %w", notFound)
	assert.True(t, Is(wrapped, ErrNotFound))
	assert.False(t, Is(wrapped, ErrValidation))
	assert.False(t, Is(nil, ErrNotFound))
}
