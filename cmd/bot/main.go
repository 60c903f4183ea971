package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Skvorcmen/RLT-test/internal/bot"
	"github.com/Skvorcmen/RLT-test/internal/clients/openai"
	"github.com/Skvorcmen/RLT-test/internal/clients/redis"
	"github.com/Skvorcmen/RLT-test/internal/db"
	"github.com/Skvorcmen/RLT-test/internal/logger"
	"github.com/Skvorcmen/RLT-test/internal/services"
	"github.com/Skvorcmen/RLT-test/internal/utils"
)

func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	botToken := utils.GetEnv("TELEGRAM_BOT_TOKEN", "", log)
	if botToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}
	askCacheTTL := utils.GetEnvAsInt("ASK_CACHE_TTL", 300, log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}

	llm, err := openai.NewClient(log)
	if err != nil {
		log.Fatal("OpenAI client init failed", "error", err)
	}

	var cache redis.Cache
	if os.Getenv("REDIS_ADDR") != "" {
		cache, err = redis.NewCache(log)
		if err != nil {
			log.Warn("Redis cache init failed, running without cache", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	askService := services.NewAskService(pg.DB(), log, llm, cache, time.Duration(askCacheTTL)*time.Second)

	statsBot, err := bot.New(log, askService, botToken)
	if err != nil {
		log.Fatal("Bot init failed", "error", err)
	}
	statsBot.Start()
}
