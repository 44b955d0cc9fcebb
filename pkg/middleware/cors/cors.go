package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var preflightHeaders = map[string]string{
	"Access-Control-Allow-Headers": "Authorization, Content-Type, X-Requested-With, X-Request-ID",
	"Access-Control-Allow-Methods": "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	"Access-Control-Max-Age":       "600",
}

// New admits cross-origin requests from allowedOrigins, or from anywhere when the list is
// empty. A matched origin is echoed with credentials allowed so the session cookie travels.
// Content-Disposition is exposed for report downloads.
func New(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[normalize(origin)] = true
	}
	permits := func(origin string) bool {
		return len(allowed) == 0 || allowed[normalize(origin)]
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		if origin == "" {
			if len(allowed) == 0 {
				h.Set("Access-Control-Allow-Origin", "*")
			}
		} else if permits(origin) {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		for k, v := range preflightHeaders {
			h.Set(k, v)
		}
		c.AbortWithStatus(http.StatusNoContent)
	}
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}
