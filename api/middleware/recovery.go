package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/audio-extract-go/pkg/logger"
	"go.uber.org/zap"
)

// Recovery turns a handler panic into a 500. The panic goes to the server log
// with its stack and, when events is set, to the daily error log.
func Recovery(log *zap.Logger, events *logger.MultiLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			fields := []zap.Field{
				zap.Any("panic", rec),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			}
			log.Error("Handler panicked", append(fields, zap.Stack("stack"))...)
			if events != nil {
				events.LogAppError("Handler panicked", fields...)
			}

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "internal server error",
			})
		}()
		c.Next()
	}
}
