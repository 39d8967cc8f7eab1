package api

import (
	"log"

	"streamcast/internal/engine"
	"streamcast/internal/models"
	"streamcast/internal/templates"
	"streamcast/internal/web/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterTemplateRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, eng *engine.Engine) {
	group := r.Group("/templates")
	group.Use(middleware.RequireAuth())
	{
		group.GET("", func(c *gin.Context) {
			filter := templates.Filter{EventType: c.Query("event_type")}
			if v := c.Query("enabled"); v != "" {
				enabled := v == "true"
				filter.Enabled = &enabled
			}
			c.JSON(200, eng.ListTemplates(filter))
		})

		group.GET("/:id", func(c *gin.Context) {
			tpl, err := eng.GetTemplate(c.Param("id"))
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(200, tpl)
		})

		group.POST("", func(c *gin.Context) {
			var tpl models.Template
			if err := c.ShouldBindJSON(&tpl); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			created, err := eng.CreateTemplate(c, tpl)
			if err != nil {
				log.Printf("WEB: Failed to create template: %v", err)
				writeError(c, err)
				return
			}
			c.JSON(201, created)
		})

		group.PATCH("/:id", func(c *gin.Context) {
			var upd models.TemplateUpdate
			if err := c.ShouldBindJSON(&upd); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			updated, err := eng.UpdateTemplate(c, c.Param("id"), upd)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(200, updated)
		})

		group.DELETE("/:id", func(c *gin.Context) {
			if err := eng.DeleteTemplate(c, c.Param("id")); err != nil {
				writeError(c, err)
				return
			}
			c.JSON(200, gin.H{"status": "deleted"})
		})
	}
}
