package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Skvorcmen/RLT-test/internal/db"
	"github.com/Skvorcmen/RLT-test/internal/loader"
	"github.com/Skvorcmen/RLT-test/internal/logger"
	"github.com/Skvorcmen/RLT-test/internal/repos"
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

	datasetURL := utils.GetEnv("DATASET_URL", "", log)
	datasetFile := utils.GetEnv("DATASET_FILE", "data.json", log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	theDB := pg.DB()

	videoRepo := repos.NewVideoRepo(theDB, log)
	snapshotRepo := repos.NewVideoSnapshotRepo(theDB, log)
	datasetLoader := loader.New(log, videoRepo, snapshotRepo)

	ctx := context.Background()

	if datasetURL != "" {
		if err := datasetLoader.Download(ctx, datasetURL, datasetFile); err != nil {
			log.Fatal("Dataset download failed", "error", err)
		}
	}

	records, err := datasetLoader.ParseFile(datasetFile)
	if err != nil {
		log.Fatal("Dataset parse failed", "file", datasetFile, "error", err)
	}

	stats, err := datasetLoader.Load(ctx, records)
	if err != nil {
		log.Fatal("Dataset load failed", "error", err)
	}
	log.Info("Done",
		"videos", stats.VideosLoaded,
		"snapshots", stats.SnapshotsLoaded,
		"failed", stats.VideosFailed,
	)
}
