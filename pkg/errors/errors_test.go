package errors

import (
	"fmt"
	"net/http"
	"testing"

	"edusync/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   ErrorCode
		status int
	}{
		{"not found", shared.NewNotFoundError("course", "c1"), CodeNotFound, http.StatusNotFound},
		{"forbidden", shared.NewForbiddenError("course", "nope", nil), CodeForbidden, http.StatusForbidden},
		{"bad request", shared.NewValidationError("result", "score", "bad"), CodeBadRequest, http.StatusBadRequest},
		{"conflict", shared.NewConflictError("result", "stale"), CodeConflict, http.StatusConflict},
		{"unauthorized", shared.NewUnauthorizedError("missing token"), CodeUnauthorized, http.StatusUnauthorized},
		{"transaction", shared.NewTransactionError("course", fmt.Errorf("disk full")), CodeTransactionFailed, http.StatusInternalServerError},
		{"plain", fmt.Errorf("boom"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromDomainError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, appErr.HTTPStatusCode())
		})
	}
}

func TestNotFoundInsideTransactionStaysNotFound(t *testing.T) {
	err := shared.NewTransactionError("course", shared.NewNotFoundError("course", "c1"))
	assert.Equal(t, CodeNotFound, FromDomainError(err).Code)
}

func TestForbiddenDetailsSurvive(t *testing.T) {
	err := shared.NewForbiddenError("course", "not owner", map[string]string{"caller_id": "u2"})
	appErr := FromDomainError(fmt.Errorf("delete: %w", err))
	assert.Equal(t, "not owner", appErr.Message)
	assert.Equal(t, "u2", appErr.Details["caller_id"])
	assert.True(t, Is(appErr, CodeForbidden))
	assert.Nil(t, FromDomainError(nil))
}
