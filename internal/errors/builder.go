package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// InternalError is the rich error produced by the builder. It carries a
// user-facing hint and structured details alongside the wrapped cause.
type InternalError struct {
	cause             error
	hint              string
	reportableDetails map[string]any
}

func (e *InternalError) Error() string {
	if e.cause == nil {
		return e.hint
	}
	return e.cause.Error()
}

func (e *InternalError) Unwrap() error {
	return e.cause
}

// Hint returns the user-facing hint attached to the error, if any.
func (e *InternalError) Hint() string {
	return e.hint
}

// ReportableDetails returns structured details safe to surface to callers.
func (e *InternalError) ReportableDetails() map[string]any {
	return e.reportableDetails
}

// ErrorBuilder accumulates context before the error is marked with its
// category sentinel. Mark finalizes the builder.
type ErrorBuilder struct {
	err *InternalError
}

// NewError starts a builder from a fresh error message.
func NewError(message string) *ErrorBuilder {
	return &ErrorBuilder{
		err: &InternalError{cause: errors.New(message)},
	}
}

// NewErrorf starts a builder from a formatted error message.
func NewErrorf(format string, args ...any) *ErrorBuilder {
	return &ErrorBuilder{
		err: &InternalError{cause: errors.Newf(format, args...)},
	}
}

// WithError starts a builder wrapping an existing error.
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{
		err: &InternalError{cause: err},
	}
}

// WithHint attaches a user-facing hint.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err.hint = hint
	return b
}

// WithHintf attaches a formatted user-facing hint.
func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err.hint = fmt.Sprintf(format, args...)
	return b
}

// WithReportableDetails attaches structured details that are safe to return
// to API callers.
func (b *ErrorBuilder) WithReportableDetails(details map[string]any) *ErrorBuilder {
	b.err.reportableDetails = details
	return b
}

// Mark finalizes the builder, tagging the error with its category sentinel.
func (b *ErrorBuilder) Mark(sentinel error) error {
	b.err.cause = errors.Mark(b.err.cause, sentinel)
	return b.err
}
