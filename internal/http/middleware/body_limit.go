package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps request bodies at n bytes. Declared oversize bodies are
// refused with 413 up front; undeclared ones fail when the handler reads past
// the cap.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > n {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
