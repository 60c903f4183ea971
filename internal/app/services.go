package app

import (
	"gorm.io/gorm"

	"github.com/Skvorcmen/RLT-test/internal/logger"
	"github.com/Skvorcmen/RLT-test/internal/services"
)

type Services struct {
	Auth  services.AuthService
	Stats services.StatsService
	Ask   services.AskService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) Services {
	log.Info("Wiring services...")
	return Services{
		Auth:  services.NewAuthService(log, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Stats: services.NewStatsService(db, log, reposet.Video, reposet.VideoSnapshot, clients.Cache, cfg.TopCacheTTL),
		Ask:   services.NewAskService(db, log, clients.OpenAI, clients.Cache, cfg.AskCacheTTL),
	}
}
