// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package imu turns filtered sensor samples into segments and hands them to
// the outbound queue.
package imu

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/wavebuoy/internal/axl"
	"github.com/relabs-tech/wavebuoy/internal/metrics"
	"github.com/relabs-tech/wavebuoy/internal/queue"
)

// DefaultFIFODelay is the settle time after re-enabling the sensor FIFO.
const DefaultFIFODelay = 100 * time.Millisecond

// Waves is the sensor and filter subsystem.
type Waves interface {
	// ReadAndFilter drains the sensor FIFO through the filter into the
	// internal buffer.
	ReadAndFilter() error
	IsFull() bool
	// TakeBuf returns the buffered samples stamped with the given values and
	// opens the next buffer at now.
	TakeBuf(now int64, positionTime uint32, lon, lat float64) (*axl.Packet, error)
	Reset() error
	EnableFIFO(delay time.Duration) error
}

// Imu is the acquisition pipeline. It owns the producer side of one outbound
// queue.
type Imu struct {
	queue *queue.Producer[*axl.Packet]
	waves Waves

	FIFODelay time.Duration

	logger *zap.Logger
}

// New returns a pipeline pushing full segments into q.
func New(waves Waves, q *queue.Producer[*axl.Packet], logger *zap.Logger) *Imu {
	return &Imu{
		queue:     q,
		waves:     waves,
		FIFODelay: DefaultFIFODelay,
		logger:    logger,
	}
}

// Poll reads the sensor once. When the buffer is full the segment is taken
// with the given time and position and enqueued. A full queue drops the
// segment.
func (m *Imu) Poll(now int64, positionTime uint32, lon, lat float64) error {
	if err := m.waves.ReadAndFilter(); err != nil {
		return errors.Wrap(err, "read and filter")
	}
	if !m.waves.IsFull() {
		return nil
	}

	pck, err := m.waves.TakeBuf(now, positionTime, lon, lat)
	if err != nil {
		return errors.Wrap(err, "take buffer")
	}
	m.logger.Debug("segment ready",
		zap.Int64("timestamp", pck.Timestamp),
		zap.Int("samples", pck.Len()),
		zap.Int("queued", m.queue.Len()))

	if !m.queue.Enqueue(pck) {
		metrics.SegmentsDropped.Inc()
		m.logger.Error("queue full, dropping segment",
			zap.Int64("timestamp", pck.Timestamp),
			zap.Int("samples", pck.Len()),
			zap.Int("capacity", m.queue.Capacity()))
		return nil
	}
	metrics.SegmentsEnqueued.Inc()
	return nil
}

// Reset clears the sensor, starts a new epoch at the given time and position
// and re-enables continuous capture.
func (m *Imu) Reset(now int64, positionTime uint32, lon, lat float64) error {
	m.logger.Info("resetting acquisition", zap.Int64("now", now))
	metrics.SensorResets.Inc()
	if err := m.waves.Reset(); err != nil {
		return errors.Wrap(err, "reset sensor")
	}
	if _, err := m.waves.TakeBuf(now, positionTime, lon, lat); err != nil {
		return errors.Wrap(err, "latch epoch")
	}
	return errors.Wrap(m.waves.EnableFIFO(m.FIFODelay), "enable fifo")
}
