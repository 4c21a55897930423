// Package main is the entry point for the FormaView desktop viewer.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/forma3d/formaview/internal/config"
	"github.com/forma3d/formaview/internal/decoder"
	"github.com/forma3d/formaview/internal/logger"
	"github.com/forma3d/formaview/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== FormaView ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	stores, err := viewer.OpenStores(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to open storage", zap.Error(err))
		os.Exit(1)
	}

	app, err := viewer.New(cfg, stores, decoder.JSON())
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}
