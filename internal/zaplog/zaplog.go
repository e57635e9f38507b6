// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package zaplog builds the process logger.
package zaplog

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/relabs-tech/wavebuoy/internal/state"
)

var logger atomic.Pointer[zap.Logger]

// Logger returns the process logger, or a no-op logger before SetLogger.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// SetLogger installs the process logger.
func SetLogger(l *zap.Logger) { logger.Store(l) }

// EpochEncoder stamps log entries with the epoch counter instead of the
// host clock, so log lines line up with segment timestamps after a fix.
func EpochEncoder(counter *state.Counter) zapcore.TimeEncoder {
	return func(_ time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendInt64(counter.Load())
	}
}

// New builds a development logger. When counter is nil entries carry the
// host time.
func New(verbose bool, counter *state.Counter) (*zap.Logger, error) {
	c := zap.NewDevelopmentConfig()
	c.DisableStacktrace = true
	c.EncoderConfig.EncodeCaller = func(
		caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		p := caller.TrimmedPath()
		if len(p) > 30 {
			p = "..." + p[len(p)-27:]
		}
		enc.AppendString(fmt.Sprintf("%30s", p))
	}
	if counter != nil {
		c.EncoderConfig.EncodeTime = EpochEncoder(counter)
	}
	if !verbose {
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return c.Build()
}
