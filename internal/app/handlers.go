package app

import (
	"github.com/Skvorcmen/RLT-test/internal/handlers"
	"github.com/Skvorcmen/RLT-test/internal/logger"
)

type Handlers struct {
	Video    *handlers.VideoHandler
	Snapshot *handlers.SnapshotHandler
	Ask      *handlers.AskHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Video:    handlers.NewVideoHandler(serviceset.Stats),
		Snapshot: handlers.NewSnapshotHandler(serviceset.Stats),
		Ask:      handlers.NewAskHandler(serviceset.Ask),
	}
}
