package main

import (
	"context"
	"errors"
	"os"

	"ArxivDigest/internal/app"
	"ArxivDigest/internal/config"
	"ArxivDigest/internal/logging"
	"ArxivDigest/internal/notify"
)

// Exit codes: 0 the run completed (even with nothing matched), 1 the
// run started but failed (fetch infrastructure, dispatch), 2 the run
// could not start at all (configuration).
const (
	exitOK     = 0
	exitRun    = 1
	exitConfig = 2
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if errors.Is(err, notify.ErrNoChannel) {
		logger.Error("configuration error", "error", err)
		os.Exit(exitConfig)
	}
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(exitConfig)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(exitRun)
	}
	os.Exit(exitOK)
}
