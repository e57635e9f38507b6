// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package state

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// Counter mirrors the RTC as whole seconds since the unix epoch. It is written
// only by the epoch ticker and may be read from anywhere without locking.
// Values are advisory and may jump backwards after a clock correction.
type Counter struct {
	v atomic.Int64
}

// Publish stores the current epoch seconds.
func (c *Counter) Publish(sec int64) { c.v.Store(sec) }

// Load returns the last published epoch seconds.
func (c *Counter) Load() int64 { return c.v.Load() }

// RunEpochTicker publishes the RTC into counter every period until ctx is
// done. It is the only writer of counter.
func RunEpochTicker(ctx context.Context, clk clock.Clock, st *State, counter *Counter, period time.Duration) {
	publish := func() {
		counter.Publish(With(st, func(s *SharedState) int64 {
			return s.RTC.Now().Unix()
		}))
	}

	ticker := clk.Ticker(period)
	defer ticker.Stop()
	publish()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publish()
		}
	}
}
