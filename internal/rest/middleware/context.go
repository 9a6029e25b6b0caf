package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/datapass/datapass/internal/types"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderCallerID  = "X-Caller-ID"
)

// ContextMiddleware seeds the request context with the request id and the
// caller identity so downstream code reads both from the context only.
func ContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST)
		}
		ctx = types.WithRequestID(ctx, requestID)

		if callerID := c.GetHeader(HeaderCallerID); callerID != "" {
			ctx = types.WithCallerID(ctx, callerID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(HeaderRequestID, requestID)
		c.Next()
	}
}
