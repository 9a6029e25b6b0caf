package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorBuilderMarkAndPredicates(t *testing.T) {
	err := NewError("subscription 7 not found").
		WithHint("Check the subscription identifier").
		WithReportableDetails(map[string]any{"subscription_id": 7}).
		Mark(ErrNotFound)

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.Contains(t, err.Error(), "subscription 7 not found")
}

func TestErrorBuilderWrapsCause(t *testing.T) {
	cause := NewError("connection refused").Mark(ErrDatabase)
	err := WithError(cause).
		WithHint("Storage is unavailable").
		Mark(ErrInternal)

	assert.True(t, IsDatabase(err), "the original mark must survive wrapping")
	assert.True(t, IsInternal(err))
}

func TestNewErrorResponse(t *testing.T) {
	err := NewError("too many consumers").
		WithHint("Buy more seats first").
		WithReportableDetails(map[string]any{"paid_consumers": 2}).
		Mark(ErrInvalidOperation)

	resp := NewErrorResponse(err)
	assert.False(t, resp.Success)
	// The hint is promoted to the caller-facing message.
	assert.Equal(t, "Buy more seats first", resp.Error.Message)
	assert.Contains(t, resp.Error.InternalError, "too many consumers")
	assert.Equal(t, 2, resp.Error.Details["paid_consumers"])
}

func TestHTTPStatusFromErr(t *testing.T) {
	tests := []struct {
		sentinel error
		status   int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrInvalidOperation, http.StatusUnprocessableEntity},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrPaymentFailed, http.StatusPaymentRequired},
		{ErrInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		err := NewError("boom").Mark(tt.sentinel)
		assert.Equal(t, tt.status, HTTPStatusFromErr(err))
	}
}
