// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package location keeps the buoy clock and position in step with the
// communication module.
package location

import (
	"context"
	"math"
	"time"

	geo "github.com/kellydunn/golang-geo"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/wavebuoy/internal/metrics"
	"github.com/relabs-tech/wavebuoy/internal/note"
	"github.com/relabs-tech/wavebuoy/internal/state"
)

// DefaultCooldown is the minimum time between fix attempts.
const DefaultCooldown = 60 * time.Second

// NeverAttempted is the initial attempt time. It is stale against any RTC
// reading so the first check always queries the module.
const NeverAttempted int64 = math.MinInt64 / 2

// LocationState is either Trying or Retrieved.
type LocationState interface {
	// Last is the time in ms of the last attempt or success.
	Last() int64
	isLocationState()
}

// Trying records the time of the last failed or first pending attempt.
type Trying struct{ At int64 }

// Retrieved records the corrected RTC time of the last successful fix.
type Retrieved struct{ At int64 }

func (s Trying) Last() int64    { return s.At }
func (s Retrieved) Last() int64 { return s.At }

func (Trying) isLocationState()    {}
func (Retrieved) isLocationState() {}

// Location is the last fix known to the main loop.
type Location struct {
	Lat          float64
	Lon          float64
	PositionTime uint32
	Time         uint32
	State        LocationState

	Cooldown time.Duration

	logger *zap.Logger
}

// New returns a Location that will attempt a fix on the first check.
func New(logger *zap.Logger) *Location {
	return &Location{
		State:    Trying{At: NeverAttempted},
		Cooldown: DefaultCooldown,
		logger:   logger,
	}
}

// Retrieved reports whether a fix has ever been applied.
func (l *Location) Retrieved() bool {
	_, ok := l.State.(Retrieved)
	return ok
}

// CheckRetrieve queries card for a new fix once the cooldown since the last
// attempt has passed. A complete fix steps the RTC and updates the shared
// position. A location query error is returned with the state unchanged; a
// time query error counts as a missing time.
func (l *Location) CheckRetrieve(ctx context.Context, st *state.State, card note.Card) error {
	now := st.Now().UnixMilli()
	if now-l.State.Last() <= l.Cooldown.Milliseconds() {
		return nil
	}

	metrics.FixAttempts.Inc()
	gps, err := card.Location(ctx)
	if err != nil {
		return errors.Wrap(err, "query location")
	}
	tm, err := card.Time(ctx)
	if err != nil {
		l.logger.Warn("time query failed", zap.Error(err))
		tm = note.TimeFix{}
	}

	l.logger.Info("fix",
		zap.Float64p("lat", gps.Lat),
		zap.Float64p("lon", gps.Lon),
		zap.Uint32p("position_time", gps.Time),
		zap.Uint32p("time", tm.Time))

	if !gps.Complete() || tm.Time == nil {
		l.State = Trying{At: now}
		return nil
	}

	l.logger.Info("got time and location, setting RTC")
	if l.Retrieved() {
		drift := geo.NewPoint(l.Lat, l.Lon).GreatCircleDistance(geo.NewPoint(*gps.Lat, *gps.Lon))
		l.logger.Info("moved since last fix", zap.Float64("metres", drift*1000))
	}

	l.Lat = *gps.Lat
	l.Lon = *gps.Lon
	l.PositionTime = *gps.Time
	l.Time = *tm.Time

	fixTime := time.Unix(int64(*tm.Time), 0)
	st.Update(func(s *state.SharedState) {
		step := fixTime.Sub(s.RTC.Now())
		s.RTC.Set(fixTime)
		s.PositionTime = l.PositionTime
		s.Lat = l.Lat
		s.Lon = l.Lon

		l.State = Retrieved{At: s.RTC.Now().UnixMilli()}
		metrics.ClockStep.Set(step.Seconds())
	})
	metrics.FixSuccesses.Inc()
	return nil
}
