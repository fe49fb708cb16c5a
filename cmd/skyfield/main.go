// Package main is the entry point for the Skyfield cloud demo.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/skyfield/internal/app"
	"github.com/Faultbox/skyfield/internal/config"
	"github.com/Faultbox/skyfield/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, adjustments, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Skyfield ===")
	for _, adj := range adjustments {
		logger.Warn("config value clamped", zap.Stringer("adjustment", adj))
	}
	logger.Sugar.Debugf("Config: %+v", cfg)

	a, err := app.New(cfg)
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}

	runErr := a.Run()
	if err := a.Close(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	if runErr != nil {
		logger.Fatal("frame loop failed", zap.Error(runErr))
	}

	logger.Info("closed normally")
}
