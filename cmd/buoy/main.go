// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/relabs-tech/wavebuoy/internal/app"
	"github.com/relabs-tech/wavebuoy/internal/config"
	"github.com/relabs-tech/wavebuoy/internal/state"
	"github.com/relabs-tech/wavebuoy/internal/zaplog"
)

func main() {
	configPath := flag.String("config", "./buoy.toml", "path to configuration file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	counter := &state.Counter{}
	var stamp *state.Counter
	if cfg.Log.EpochTime {
		stamp = counter
	}
	logger, err := zaplog.New(*verbose || cfg.Log.Verbose, stamp)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	zaplog.SetLogger(logger)

	logger.Info("starting wave buoy", zap.String("device", cfg.Device.Name))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunBuoy(ctx, cfg, counter, logger); err != nil {
		logger.Fatal("fatal", zap.Error(err))
	}
	logger.Info("stopped")
}
