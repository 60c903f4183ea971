package app

import (
	"gorm.io/gorm"

	"github.com/Skvorcmen/RLT-test/internal/logger"
	"github.com/Skvorcmen/RLT-test/internal/repos"
)

type Repos struct {
	Video         repos.VideoRepo
	VideoSnapshot repos.VideoSnapshotRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Video:         repos.NewVideoRepo(db, log),
		VideoSnapshot: repos.NewVideoSnapshotRepo(db, log),
	}
}
