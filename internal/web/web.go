package web

import (
	"streamcast/auth"
	"streamcast/internal/engine"
	"streamcast/internal/overlay"
	"streamcast/internal/scheduler"
	"streamcast/internal/web/api"
	"streamcast/internal/web/middleware"

	"github.com/gin-gonic/gin"
)

type WebServer struct {
	router *gin.Engine
}

func NewWebServer(eng *engine.Engine, authModule *auth.AuthModule, hub *overlay.Hub, sched *scheduler.Scheduler) *WebServer {
	router := gin.Default()

	middlewareManager := middleware.NewMiddlewareManager(authModule)

	api.RegisterAuthRoutes(router, authModule)
	api.RegisterTemplateRoutes(router, middlewareManager, eng)
	api.RegisterAutomationRoutes(router, middlewareManager, eng)
	api.RegisterQueueRoutes(router, middlewareManager, eng)
	if sched != nil {
		api.RegisterScheduleRoutes(router, middlewareManager, sched)
	}

	// The overlay connects over a plain websocket; browser sources cannot
	// attach Authorization headers.
	if hub != nil {
		router.GET("/overlay/ws", func(c *gin.Context) {
			hub.ServeWs(c.Writer, c.Request)
		})
	}

	return &WebServer{router: router}
}

func (ws *WebServer) Start(addr string) error {
	return ws.router.Run(addr)
}
