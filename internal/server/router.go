package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Skvorcmen/RLT-test/internal/handlers"
	"github.com/Skvorcmen/RLT-test/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware  *middleware.AuthMiddleware
	VideoHandler    *handlers.VideoHandler
	SnapshotHandler *handlers.SnapshotHandler
	AskHandler      *handlers.AskHandler
	AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.RequestID())

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// reads
		api.GET("/videos/top", cfg.VideoHandler.Top)
		api.GET("/videos/:id", cfg.VideoHandler.GetByID)
		api.GET("/videos/:id/snapshots", cfg.SnapshotHandler.History)
		api.GET("/creators/:id/videos", cfg.VideoHandler.ByCreator)
		api.POST("/ask", cfg.AskHandler.Ask)

		// writes
		protected := api.Group("/")
		protected.Use(cfg.AuthMiddleware.RequireAuth())
		protected.POST("/videos", cfg.VideoHandler.Upsert)
		protected.DELETE("/videos/:id", cfg.VideoHandler.Delete)
		protected.POST("/videos/:id/snapshots", cfg.SnapshotHandler.Append)
	}

	return router
}
