package types

import "context"

type ContextKey string

const (
	CtxCallerID  ContextKey = "ctx_caller_id"
	CtxRequestID ContextKey = "ctx_request_id"
)

// WithCallerID returns a context carrying the identity invoking the operation.
func WithCallerID(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, CtxCallerID, callerID)
}

// GetCallerID retrieves the caller identity from the context.
// Returns an empty string if no caller is set.
func GetCallerID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxCallerID).(string); ok {
		return id
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxRequestID).(string); ok {
		return id
	}
	return ""
}
