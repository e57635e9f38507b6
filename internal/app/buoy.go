// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/wavebuoy/internal/axl"
	"github.com/relabs-tech/wavebuoy/internal/config"
	"github.com/relabs-tech/wavebuoy/internal/imu"
	"github.com/relabs-tech/wavebuoy/internal/location"
	"github.com/relabs-tech/wavebuoy/internal/metrics"
	"github.com/relabs-tech/wavebuoy/internal/note"
	"github.com/relabs-tech/wavebuoy/internal/queue"
	"github.com/relabs-tech/wavebuoy/internal/state"
	"github.com/relabs-tech/wavebuoy/internal/storage"
	"github.com/relabs-tech/wavebuoy/internal/waves"
	"github.com/relabs-tech/wavebuoy/internal/zaplog"
)

// Deps are the collaborators of the main loop. Card and Publisher may be nil.
type Deps struct {
	Clock     clock.Clock
	Counter   *state.Counter
	FIFO      imu.FIFO
	Card      note.Card
	Publisher note.Publisher
}

// Buoy is the acquisition main loop.
type Buoy struct {
	cfg    *config.Config
	clk    clock.Clock
	logger *zap.Logger

	State    *state.State
	Counter  *state.Counter
	Location *location.Location
	Status   *Status

	imu   *imu.Imu
	waves *waves.Waves
	card  note.Card

	storage  *storage.Storage
	storageQ *queue.Consumer[*axl.Packet]
	txProd   *queue.Producer[*axl.Packet]
	txCons   *queue.Consumer[*axl.Packet]
	uplink   *note.Uplink

	// lastFixWarn rate limits location failure warnings to one per cooldown.
	lastFixWarn time.Time
}

// NewBuoy wires the pipeline. With storage enabled segments flow
// imu -> storage queue -> storage -> transmission queue; without it the imu
// feeds the transmission queue directly.
func NewBuoy(cfg *config.Config, deps Deps, logger *zap.Logger) (*Buoy, error) {
	if logger == nil {
		logger = zaplog.Logger()
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Counter == nil {
		deps.Counter = &state.Counter{}
	}
	b := &Buoy{
		cfg:      cfg,
		clk:      deps.Clock,
		logger:   logger,
		State:    state.New(),
		Counter:  deps.Counter,
		Location: location.New(logger.Named("location")),
		Status:   &Status{},
		card:     deps.Card,
	}
	b.State.Init(state.NewSoftRTC(deps.Clock))
	b.Location.Cooldown = cfg.Cooldown()

	w, err := waves.New(deps.FIFO, deps.Clock, waves.Config{
		InputFreq: cfg.IMU.SampleRateHz,
		Decimate:  cfg.IMU.Decimate,
		Taps:      cfg.IMU.Taps,
		LSBPerG:   cfg.IMU.LSBPerG,
	})
	if err != nil {
		return nil, err
	}
	b.waves = w

	txProd, txCons := queue.New[*axl.Packet](cfg.Queue.Capacity).Split()
	b.txCons = txCons

	imuProd := txProd
	if cfg.Storage.Enabled {
		var clk storage.TimeSource = storage.CountClock{Counter: b.Counter}
		s, err := storage.Open(cfg.Storage.Dir, clk, cfg.Storage.PackagesPerFile, logger.Named("storage"))
		if err != nil {
			return nil, err
		}
		b.storage = s
		var storageProd *queue.Producer[*axl.Packet]
		storageProd, b.storageQ = queue.New[*axl.Packet](cfg.Queue.Capacity).Split()
		imuProd = storageProd
		b.txProd = txProd
	}
	b.imu = imu.New(w, imuProd, logger.Named("imu"))
	b.imu.FIFODelay = time.Duration(cfg.IMU.FIFODelayMS) * time.Millisecond

	if deps.Publisher != nil {
		b.uplink = note.NewUplink(deps.Publisher, cfg.MQTT.TopicAxl, txCons, logger.Named("uplink"))
	}
	return b, nil
}

// Start resets the pipeline and starts the epoch ticker and the uplink.
func (b *Buoy) Start(ctx context.Context) error {
	go state.RunEpochTicker(ctx, b.clk, b.State, b.Counter, b.cfg.EpochTick())
	if b.uplink != nil {
		go func() {
			ticker := b.clk.Ticker(time.Duration(b.cfg.MQTT.SendIntervalMS) * time.Millisecond)
			defer ticker.Stop()
			b.uplink.Run(ctx, ticker.C)
		}()
	}

	now, pt, lon, lat := b.State.Snapshot()
	return errors.Wrap(b.imu.Reset(now.UnixMilli(), pt, lon, lat), "initial reset")
}

// Run steps the main loop until ctx is done.
func (b *Buoy) Run(ctx context.Context) error {
	if err := b.Start(ctx); err != nil {
		return err
	}
	ticker := b.clk.Ticker(b.cfg.LoopInterval())
	defer ticker.Stop()

	b.logger.Info("entering main loop", zap.Duration("interval", b.cfg.LoopInterval()))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			b.Step(ctx)
		}
	}
}

// Step runs one main loop iteration: clock sync, sensor poll and storage
// drain.
func (b *Buoy) Step(ctx context.Context) {
	if b.card != nil {
		qctx, cancel := context.WithTimeout(ctx, time.Duration(b.cfg.Location.TimeoutMS)*time.Millisecond)
		if err := b.Location.CheckRetrieve(qctx, b.State, b.card); err != nil {
			b.fixFailed(err)
		}
		cancel()
	}

	now, pt, lon, lat := b.State.Snapshot()
	if err := b.imu.Poll(now.UnixMilli(), pt, lon, lat); err != nil {
		b.logger.Error("imu poll failed, resetting", zap.Error(err))
		if err := b.imu.Reset(now.UnixMilli(), pt, lon, lat); err != nil {
			b.logger.Error("imu reset failed", zap.Error(err))
		}
	}

	b.drainStorage()
	b.updateStatus(now)
}

func (b *Buoy) fixFailed(err error) {
	now := b.clk.Now()
	if !b.lastFixWarn.IsZero() && now.Sub(b.lastFixWarn) < b.cfg.Cooldown() {
		b.logger.Debug("location check failed", zap.Error(err))
		return
	}
	b.lastFixWarn = now
	b.logger.Warn("location check failed", zap.Error(err))
}

func (b *Buoy) drainStorage() {
	if b.storage == nil {
		return
	}
	for {
		pck, ok := b.storageQ.Dequeue()
		if !ok {
			break
		}
		if err := b.storage.Store(pck); err != nil {
			b.logger.Error("failed to store package", zap.Int64("timestamp", pck.Timestamp), zap.Error(err))
		} else {
			metrics.SegmentsStored.Inc()
		}
		if !b.txProd.Enqueue(pck) {
			metrics.SegmentsDropped.Inc()
			b.logger.Warn("transmission queue full, package only stored",
				zap.Int64("timestamp", pck.Timestamp), zap.Int("samples", pck.Len()))
		}
	}
}

func (b *Buoy) updateStatus(now time.Time) {
	_, pt, lon, lat := b.State.Snapshot()
	s := StatusSnapshot{
		Device:       b.cfg.Device.Name,
		Time:         now.UTC(),
		Epoch:        b.Counter.Load(),
		PositionTime: pt,
		Lat:          lat,
		Lon:          lon,
		Fix:          b.Location.Retrieved(),
		Buffered:     b.waves.Len(),
		TxQueue:      b.txCons.Len(),
	}
	metrics.QueueDepth.WithLabelValues("transmission").Set(float64(s.TxQueue))
	if b.storage != nil {
		s.StorageQueue = b.storageQ.Len()
		s.StorageID = b.storage.CurrentID()
		metrics.QueueDepth.WithLabelValues("storage").Set(float64(s.StorageQueue))
	}
	b.Status.Set(s)
}

// TxQueue exposes the transmission queue consumer when no uplink owns it.
func (b *Buoy) TxQueue() (*queue.Consumer[*axl.Packet], bool) {
	return b.txCons, b.uplink == nil
}
