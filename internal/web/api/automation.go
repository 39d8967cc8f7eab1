package api

import (
	"log"

	"streamcast/internal/automation"
	"streamcast/internal/engine"
	"streamcast/internal/web/middleware"
	webModels "streamcast/internal/web/models"

	"github.com/gin-gonic/gin"
)

func RegisterAutomationRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, eng *engine.Engine) {
	automations := r.Group("/automations")
	automations.Use(middleware.RequireAuth())
	{
		automations.GET("/rules", func(c *gin.Context) {
			c.JSON(200, eng.ListRules())
		})

		automations.GET("/rules/:id", func(c *gin.Context) {
			rule, err := eng.GetRule(c.Param("id"))
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(200, rule)
		})

		automations.POST("/rules", func(c *gin.Context) {
			var spec automation.RuleSpec
			if err := c.ShouldBindJSON(&spec); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			id, err := eng.RegisterRule(c, spec)
			if err != nil {
				log.Printf("WEB: Failed to register rule: %v", err)
				writeError(c, err)
				return
			}
			rule, err := eng.GetRule(id)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(201, rule)
		})

		automations.PATCH("/rules/:id", func(c *gin.Context) {
			var req webModels.EnableRequest
			if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			if err := eng.EnableRule(c, c.Param("id"), *req.Enabled); err != nil {
				writeError(c, err)
				return
			}
			c.JSON(200, gin.H{"status": "updated"})
		})

		automations.DELETE("/rules/:id", func(c *gin.Context) {
			if !eng.UnregisterRule(c, c.Param("id")) {
				c.JSON(404, gin.H{"error": "Rule not found"})
				return
			}
			c.JSON(200, gin.H{"status": "deleted"})
		})
	}
}
