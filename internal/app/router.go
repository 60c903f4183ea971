package app

import (
	"github.com/gin-gonic/gin"

	"github.com/Skvorcmen/RLT-test/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthMiddleware:  middlewareset.Auth,
		VideoHandler:    handlerset.Video,
		SnapshotHandler: handlerset.Snapshot,
		AskHandler:      handlerset.Ask,
		AllowOrigins:    cfg.AllowOrigins,
	})
}
