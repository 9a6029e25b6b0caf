package errors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// ErrorDetail is the error body returned to API callers.
type ErrorDetail struct {
	Message       string         `json:"message"`
	InternalError string         `json:"internal_error,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the envelope rendered for failed API requests.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// NewErrorResponse builds the API error envelope from any error. The hint
// becomes the caller-facing message; the raw error string is kept separately.
func NewErrorResponse(err error) *ErrorResponse {
	resp := &ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Message:       err.Error(),
			InternalError: err.Error(),
		},
	}

	var ie *InternalError
	if errors.As(err, &ie) {
		if ie.Hint() != "" {
			resp.Error.Message = ie.Hint()
		}
		resp.Error.Details = ie.ReportableDetails()
	}

	return resp
}

// HTTPStatusFromErr maps an error category to an HTTP status code.
func HTTPStatusFromErr(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsAlreadyExists(err):
		return http.StatusConflict
	case IsInvalidOperation(err):
		return http.StatusUnprocessableEntity
	case IsPermissionDenied(err):
		return http.StatusForbidden
	case IsPaymentFailed(err):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
