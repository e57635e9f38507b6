// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package app wires the buoy binaries.
package app

import (
	"context"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/wavebuoy/internal/config"
	"github.com/relabs-tech/wavebuoy/internal/gps"
	"github.com/relabs-tech/wavebuoy/internal/note"
	"github.com/relabs-tech/wavebuoy/internal/sensors"
	"github.com/relabs-tech/wavebuoy/internal/state"
	"github.com/relabs-tech/wavebuoy/internal/zaplog"
)

const envInterval = 10 * time.Second

// RunBuoy runs the acquisition daemon until ctx is done.
func RunBuoy(ctx context.Context, cfg *config.Config, counter *state.Counter, logger *zap.Logger) (err error) {
	if logger == nil {
		logger = zaplog.Logger()
	}
	clk := clock.New()

	// --- sensor ---
	var src sensors.IMURawReader
	if cfg.IMU.Mock {
		logger.Info("using mock IMU source")
		src = sensors.NewMockSource(clk, cfg.IMU.LSBPerG, cfg.IMU.MockHeight, cfg.IMU.MockPeriod)
	} else {
		src, err = sensors.NewIMUSource(cfg.IMU.SPIDevice, cfg.IMU.CSPin, logger.Named("imu"))
		if err != nil {
			return err
		}
	}
	sampler := sensors.NewSampler(src, clk, cfg.SamplePeriod(), cfg.IMU.FIFOSize, logger.Named("sampler"))
	deps := Deps{Clock: clk, Counter: counter, FIFO: sampler}

	// --- MQTT uplink ---
	if cfg.MQTT.Enabled {
		pub, err := note.DialMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientID, time.Duration(cfg.MQTT.TimeoutMS)*time.Millisecond)
		if err != nil {
			return err
		}
		defer pub.Close()
		logger.Info("connected to MQTT", zap.String("broker", cfg.MQTT.Broker))
		deps.Publisher = pub
	}

	// --- GPS ---
	var gpsPort io.ReadCloser
	if cfg.GPS.Enabled {
		gpsPort, err = gps.OpenSerial(cfg.GPS.SerialPort, cfg.GPS.BaudRate)
		if err != nil {
			return err
		}
		logger.Info("GPS serial port opened", zap.String("port", cfg.GPS.SerialPort), zap.Uint("baud", cfg.GPS.BaudRate))
		rcv := gps.NewReceiver(clk, time.Duration(cfg.GPS.MaxAgeMS)*time.Millisecond, logger.Named("gps"))
		deps.Card = rcv
	}

	b, err := NewBuoy(cfg, deps, logger)
	if err != nil {
		if gpsPort != nil {
			err = multierr.Append(err, gpsPort.Close())
		}
		return err
	}

	// Setup is done, start the producers.
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sampler.Run(ctx)
		return nil
	})
	if rcv, ok := deps.Card.(*gps.Receiver); ok {
		g.Go(func() error {
			// Reader failures are reported through the card.
			_ = rcv.Run(ctx, gpsPort)
			return nil
		})
	}

	// --- housing sensor ---
	if cfg.Env.Enabled {
		envSrc, envErr := sensors.NewEnvSource(cfg.Env.SPIDevice)
		if envErr != nil {
			logger.Warn("environment sensor unavailable", zap.Error(envErr))
		} else {
			defer func() { err = multierr.Append(err, envSrc.Close()) }()
			g.Go(func() error {
				runEnv(ctx, clk, envSrc, b.Status, logger)
				return nil
			})
		}
	}

	// --- web, metrics, display ---
	if cfg.Web.Enabled {
		h := NewWebHandler(b.Status, time.Second, cfg.Metrics.Enabled && cfg.Metrics.Addr == cfg.Web.Addr, logger.Named("web"))
		g.Go(func() error { return Serve(ctx, cfg.Web.Addr, h, logger.Named("web")) })
	}
	if cfg.Metrics.Enabled && (!cfg.Web.Enabled || cfg.Metrics.Addr != cfg.Web.Addr) {
		h := NewWebHandler(b.Status, time.Second, true, logger.Named("metrics"))
		g.Go(func() error { return Serve(ctx, cfg.Metrics.Addr, h, logger.Named("metrics")) })
	}
	if cfg.Display.Enabled {
		g.Go(func() error {
			interval := time.Duration(cfg.Display.UpdateIntervalMS) * time.Millisecond
			if err := RunDisplay(ctx, b.Status, interval, logger.Named("display")); err != nil {
				logger.Warn("display stopped", zap.Error(err))
			}
			return nil
		})
	}

	g.Go(func() error { return b.Run(ctx) })
	return g.Wait()
}

func runEnv(ctx context.Context, clk clock.Clock, src sensors.EnvReader, status *Status, logger *zap.Logger) {
	ticker := clk.Ticker(envInterval)
	defer ticker.Stop()
	for {
		if e, err := src.ReadEnv(); err != nil {
			logger.Warn("env read error", zap.Error(err))
		} else {
			status.SetEnv(e)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
