package middleware

import (
	"github.com/gin-gonic/gin"

	ierr "github.com/datapass/datapass/internal/errors"
)

// ErrorHandler renders errors attached to the gin context as the standard
// error envelope, with the status derived from the error category.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		c.JSON(ierr.HTTPStatusFromErr(err), ierr.NewErrorResponse(err))
	}
}
