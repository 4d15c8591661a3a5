package api

import (
	"HealthMate/backend/go/pkg/httpmiddleware"
	"HealthMate/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(h *Handler, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(log))
	r.Use(httpmiddleware.CORS())

	r.GET("/", h.Liveness)
	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/user", h.CreateUser)
		api.POST("/chat", h.Chat)
		api.GET("/memory/:userId", h.GetMemory)
	}

	return r
}
