package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GetFlawed/HouseFinder/internal/logger"
)

// RequestTimeout puts a deadline on each request's context. Handlers are not
// killed when it fires; anything downstream that honors ctx.Done() stops
// early, and the middleware answers 504 if nothing was written yet.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	log := logger.WithComponent("api")

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() != context.DeadlineExceeded {
			return
		}

		// Once the handler has written we cannot change the response.
		if c.Writer.Written() {
			return
		}

		log.Warnf("request %s %s exceeded %s deadline", c.Request.Method, c.Request.URL.Path, d)
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
			"error": "request timeout",
		})
	}
}
