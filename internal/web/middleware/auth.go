package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (m *MiddlewareManager) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, err := m.auth.ValidateToken(c.GetHeader("Authorization"))
		if err != nil {
			log.Printf("WEB: Authentication error: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set("subject", subject)

		c.Next()
	}
}
