// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors drives the inertial sensor and buffers its samples for the
// main loop.
package sensors

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/relabs-tech/wavebuoy/internal/imu"
	"github.com/relabs-tech/wavebuoy/internal/metrics"
	"github.com/relabs-tech/wavebuoy/internal/queue"
)

// DefaultFIFOSize is the number of raw samples buffered between sampler and
// main loop.
const DefaultFIFOSize = 1024

// Sampler reads the sensor at a fixed rate and buffers samples in a FIFO. Run
// is the only producer and Read/Clear the only consumer.
type Sampler struct {
	src    IMURawReader
	clk    clock.Clock
	period time.Duration
	logger *zap.Logger

	prod *queue.Producer[imu.IMURaw]
	cons *queue.Consumer[imu.IMURaw]

	overrun atomic.Bool
	readErr atomic.Pointer[error]
}

var _ imu.FIFO = (*Sampler)(nil)

// NewSampler returns a sampler reading src every period.
func NewSampler(src IMURawReader, clk clock.Clock, period time.Duration, size int, logger *zap.Logger) *Sampler {
	if size <= 0 {
		size = DefaultFIFOSize
	}
	prod, cons := queue.New[imu.IMURaw](size).Split()
	return &Sampler{src: src, clk: clk, period: period, logger: logger, prod: prod, cons: cons}
}

// Run samples until ctx is done.
func (s *Sampler) Run(ctx context.Context) {
	ticker := s.clk.Ticker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *Sampler) sample() {
	raw, err := s.src.ReadRaw()
	if err != nil {
		s.readErr.Store(&err)
		return
	}
	if !s.prod.Enqueue(raw) {
		if !s.overrun.Swap(true) {
			s.logger.Warn("sample fifo full", zap.Int("capacity", s.prod.Capacity()))
		}
		metrics.FIFOOverruns.Inc()
	}
}

// Read implements imu.FIFO. A sensor read error is reported once and samples
// queued before it stay readable.
func (s *Sampler) Read(dst []imu.IMURaw) (int, error) {
	if s.overrun.Load() {
		return 0, imu.ErrOverrun
	}
	if err := s.readErr.Swap(nil); err != nil {
		return 0, *err
	}
	n := 0
	for n < len(dst) {
		raw, ok := s.cons.Dequeue()
		if !ok {
			break
		}
		dst[n] = raw
		n++
	}
	return n, nil
}

// Clear implements imu.FIFO.
func (s *Sampler) Clear() {
	for {
		if _, ok := s.cons.Dequeue(); !ok {
			break
		}
	}
	s.overrun.Store(false)
}

// Len is the number of buffered samples.
func (s *Sampler) Len() int { return s.cons.Len() }
