package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const adminCtxKey = "is_admin"

// AdminKey marks the request as administrative when the X-Admin-Key
// header matches the configured key. Requests without the header proceed
// unauthenticated; handlers for admin-only operations reject them.
func AdminKey(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := strings.TrimSpace(c.GetHeader("X-Admin-Key"))
		if adminKey != "" && supplied == adminKey {
			c.Set(adminCtxKey, true)
		}
		c.Next()
	}
}

// IsAdmin reports whether the request carries valid admin credentials.
func IsAdmin(c *gin.Context) bool {
	v, _ := c.Get(adminCtxKey)
	b, _ := v.(bool)
	return b
}

// RequestLogger logs one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		event := log.Info()
		status := c.Writer.Status()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}
		event.
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("client_ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("Request processed")
	}
}
