package api

import (
	"streamcast/auth"
	"streamcast/internal/web/models"

	"github.com/gin-gonic/gin"
)

func RegisterAuthRoutes(router *gin.Engine, authModule *auth.AuthModule) {
	r := router.Group("/auth")
	{
		r.POST("/login", func(c *gin.Context) {
			var loginRequest models.LoginRequest
			if err := c.ShouldBindJSON(&loginRequest); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			token, err := authModule.Login(loginRequest.Password)
			if err != nil {
				c.JSON(401, gin.H{"error": "Invalid credentials"})
				return
			}
			c.JSON(200, gin.H{"token": token})
		})
	}
}
