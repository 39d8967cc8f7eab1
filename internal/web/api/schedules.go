package api

import (
	"streamcast/internal/models"
	"streamcast/internal/scheduler"
	"streamcast/internal/web/middleware"
	webModels "streamcast/internal/web/models"

	"github.com/gin-gonic/gin"
)

func RegisterScheduleRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, sched *scheduler.Scheduler) {
	schedules := r.Group("/schedules")
	schedules.Use(middleware.RequireAuth())
	{
		schedules.GET("", func(c *gin.Context) {
			list, err := sched.List(c)
			if err != nil {
				c.JSON(500, gin.H{"error": err.Error()})
				return
			}
			c.JSON(200, list)
		})

		schedules.POST("", func(c *gin.Context) {
			var req webModels.AddScheduleRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			enabled := true
			if req.Enabled != nil {
				enabled = *req.Enabled
			}
			id, err := sched.Add(c, models.Schedule{
				CronExpression: req.CronExpression,
				EventType:      req.EventType,
				Data:           req.Data,
				Enabled:        enabled,
			})
			if err != nil {
				c.JSON(400, gin.H{"error": err.Error()})
				return
			}
			c.JSON(201, gin.H{"schedule_id": id})
		})

		schedules.DELETE("/:id", func(c *gin.Context) {
			sched.Remove(c, c.Param("id"))
			c.JSON(200, gin.H{"status": "deleted"})
		})
	}
}
