package middleware

import "github.com/gin-gonic/gin"

// CORSHeaders stamps permissive cross-origin headers on every response,
// including those without an Origin header that cors.New leaves untouched.
func CORSHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Next()
	}
}
