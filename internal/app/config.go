package app

import (
	"strings"
	"time"

	"github.com/Skvorcmen/RLT-test/internal/logger"
	"github.com/Skvorcmen/RLT-test/internal/utils"
)

type Config struct {
	ListenAddr     string
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	AllowOrigins   []string
	AskCacheTTL    time.Duration
	TopCacheTTL    time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	listenAddr := utils.GetEnv("LISTEN_ADDR", ":8080", log)
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	askCacheTTLSeconds := utils.GetEnvAsInt("ASK_CACHE_TTL", 300, log)
	topCacheTTLSeconds := utils.GetEnvAsInt("TOP_CACHE_TTL", 30, log)

	var origins []string
	for _, origin := range strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}

	return Config{
		ListenAddr:     listenAddr,
		JWTSecretKey:   jwtSecretKey,
		AccessTokenTTL: time.Duration(accessTokenTTLSeconds) * time.Second,
		AllowOrigins:   origins,
		AskCacheTTL:    time.Duration(askCacheTTLSeconds) * time.Second,
		TopCacheTTL:    time.Duration(topCacheTTLSeconds) * time.Second,
	}
}
