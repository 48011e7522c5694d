package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/audio-extract-go/api/handlers"
	"github.com/yourusername/audio-extract-go/api/middleware"
	"github.com/yourusername/audio-extract-go/pkg/logger"
)

// RouterDeps are the collaborators of the HTTP router
type RouterDeps struct {
	Service handlers.DownloadService
	Hub     *handlers.ProgressHub
	Events  *logger.MultiLogger // optional
	LogsDir string
	Logger  *zap.Logger
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(deps.Logger, deps.Events))
	router.Use(middleware.Recovery(deps.Logger, deps.Events))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(deps.Service)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		downloadHandler := handlers.NewDownloadHandler(deps.Service, deps.Logger)
		downloads := v1.Group("/downloads")
		{
			downloads.POST("/music", downloadHandler.StartMusic)
			downloads.POST("/youtube", downloadHandler.StartYoutube)
			downloads.POST("/stop", downloadHandler.Stop)
			downloads.GET("/status", downloadHandler.Status)
		}

		backendHandler := handlers.NewBackendHandler(deps.Service)
		v1.GET("/backends/:backend", backendHandler.Check)

		folderHandler := handlers.NewFolderHandler(deps.Service)
		v1.POST("/folder", folderHandler.Select)

		sessionHandler := handlers.NewSessionHandler(deps.Service)
		sessions := v1.Group("/sessions")
		{
			sessions.GET("", sessionHandler.ListSessions)
			sessions.GET("/stats", sessionHandler.GetStats)
			sessions.GET("/:id", sessionHandler.GetSession)
		}

		v1.GET("/progress", deps.Hub.HandleWebSocket)

		logHandler := handlers.NewLogHandler(deps.LogsDir)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "not found"})
	})

	return router
}
