package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperr "github.com/imisi99/Spotify-api/pkg/errors"
	"github.com/imisi99/Spotify-api/pkg/logger"
)

// ErrorHandlerMiddleware renders AppError and RemoteError values attached to
// the context and recovers panics.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Panic recovered")

				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "An unexpected error occurred",
				})
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err

			if appErr, ok := err.(*apperr.AppError); ok {
				c.JSON(appErr.Code, gin.H{"error": appErr.Message})
				return
			}

			// Provider rejections are propagated with Spotify's status and body.
			if re, ok := apperr.Remote(err); ok {
				c.JSON(re.Status, gin.H{"error": "Spotify rejected the request", "details": re.Body})
				return
			}

			logger.Error().Err(err).Msg("Unhandled request error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		}
	}
}
