package app

import (
	"os"

	"github.com/Skvorcmen/RLT-test/internal/clients/openai"
	"github.com/Skvorcmen/RLT-test/internal/clients/redis"
	"github.com/Skvorcmen/RLT-test/internal/logger"
)

type Clients struct {
	OpenAI openai.Client
	Cache  redis.Cache
}

// wireClients builds the outbound clients. Both are optional: without an
// OpenAI key /api/ask is disabled, without a redis address caching is off.
func wireClients(log *logger.Logger) Clients {
	log.Info("Wiring clients...")
	var clients Clients

	if os.Getenv("OPENAI_API_KEY") != "" {
		llm, err := openai.NewClient(log)
		if err != nil {
			log.Warn("OpenAI client init failed, /api/ask disabled", "error", err)
		} else {
			clients.OpenAI = llm
		}
	} else {
		log.Info("OPENAI_API_KEY not set, /api/ask disabled")
	}

	if os.Getenv("REDIS_ADDR") != "" {
		cache, err := redis.NewCache(log)
		if err != nil {
			log.Warn("Redis cache init failed, running without cache", "error", err)
		} else {
			clients.Cache = cache
		}
	} else {
		log.Info("REDIS_ADDR not set, running without cache")
	}

	return clients
}
