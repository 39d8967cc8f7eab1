package api

import (
	"streamcast/internal/engine"
	"streamcast/internal/web/middleware"
	webModels "streamcast/internal/web/models"

	"github.com/gin-gonic/gin"
)

func RegisterQueueRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, eng *engine.Engine) {
	queue := r.Group("/queue")
	queue.Use(middleware.RequireAuth())
	{
		queue.GET("/status", func(c *gin.Context) {
			c.JSON(200, eng.QueueStatus())
		})

		queue.GET("/history", func(c *gin.Context) {
			c.JSON(200, eng.QueueHistory())
		})

		queue.POST("/alerts", func(c *gin.Context) {
			var req engine.EnqueueAlertRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			id, err := eng.EnqueueAlert(req)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(202, gin.H{"alert_id": id})
		})

		queue.POST("/clear", func(c *gin.Context) {
			c.JSON(200, gin.H{"cleared": eng.ClearQueue()})
		})

		queue.POST("/pause", func(c *gin.Context) {
			eng.PauseQueue()
			c.JSON(200, gin.H{"status": "paused"})
		})

		queue.POST("/resume", func(c *gin.Context) {
			eng.ResumeQueue()
			c.JSON(200, gin.H{"status": "resumed"})
		})
	}

	test := r.Group("/test")
	test.Use(middleware.RequireAuth())
	{
		test.POST("/trigger", func(c *gin.Context) {
			var req webModels.TriggerRequest
			if err := c.ShouldBindJSON(&req); err != nil || req.EventType == "" {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			event := eng.TestTrigger(req.EventType, req.Data)
			c.JSON(202, event)
		})
	}
}
