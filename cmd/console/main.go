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
	"github.com/relabs-tech/wavebuoy/internal/zaplog"
)

func main() {
	configPath := flag.String("config", "./buoy.toml", "path to configuration file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := zaplog.New(false, nil)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunConsoleMQTT(ctx, config.Get(), os.Stdout, logger.Named("console")); err != nil {
		logger.Fatal("fatal", zap.Error(err))
	}
}
