package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders hardens every API answer. The API only serves JSON, file
// downloads and the live socket, so nothing may be framed or run scripts.
// hsts is set when the server sits behind HTTPS.
func SecurityHeaders(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		if hsts {
			h.Set("Strict-Transport-Security", "max-age=31536000")
		}

		// The public menu may be cached briefly; staff data, sessions and
		// report downloads never.
		if c.Request.Method == "GET" && strings.HasPrefix(c.Request.URL.Path, "/menu") {
			h.Set("Cache-Control", "public, max-age=60")
		} else {
			h.Set("Cache-Control", "no-store")
		}

		c.Next()
	}
}
