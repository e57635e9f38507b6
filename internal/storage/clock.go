// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package storage

import (
	"time"

	"github.com/relabs-tech/wavebuoy/internal/state"
)

// Timestamp is the on-media time format. Year is an offset from 1970 in a
// single byte; month and day are zero-indexed.
type Timestamp struct {
	YearSince1970    uint8
	ZeroIndexedMonth uint8
	ZeroIndexedDay   uint8
	Hours            uint8
	Minutes          uint8
	Seconds          uint8
}

// maxTimestamp is returned for instants past the representable range.
var maxTimestamp = Timestamp{
	YearSince1970:    255,
	ZeroIndexedMonth: 11,
	ZeroIndexedDay:   30,
	Hours:            23,
	Minutes:          59,
	Seconds:          59,
}

// Time converts the timestamp back to UTC.
func (ts Timestamp) Time() time.Time {
	return time.Date(
		1970+int(ts.YearSince1970),
		time.Month(ts.ZeroIndexedMonth)+1,
		int(ts.ZeroIndexedDay)+1,
		int(ts.Hours), int(ts.Minutes), int(ts.Seconds),
		0, time.UTC)
}

// TimeSource supplies timestamps for files written by Storage.
type TimeSource interface {
	Timestamp() Timestamp
}

// NullClock always reports 1970-01-01 00:00:00. It is used before any clock
// is configured.
type NullClock struct{}

// Timestamp implements TimeSource.
func (NullClock) Timestamp() Timestamp { return Timestamp{} }

// CountClock reads the epoch counter published by the epoch ticker.
type CountClock struct {
	Counter *state.Counter
}

// Timestamp implements TimeSource.
func (c CountClock) Timestamp() Timestamp {
	return TimestampFromUnix(c.Counter.Load())
}

// TimestampFromUnix converts epoch seconds to calendar fields. Instants before
// 1970 map to the zero timestamp and instants after year 2225 saturate.
func TimestampFromUnix(sec int64) Timestamp {
	if sec < 0 {
		return Timestamp{}
	}
	dt := time.Unix(sec, 0).UTC()
	years := dt.Year() - 1970
	if years > 255 {
		return maxTimestamp
	}
	return Timestamp{
		YearSince1970:    uint8(years),
		ZeroIndexedMonth: uint8(dt.Month() - 1),
		ZeroIndexedDay:   uint8(dt.Day() - 1),
		Hours:            uint8(dt.Hour()),
		Minutes:          uint8(dt.Minute()),
		Seconds:          uint8(dt.Second()),
	}
}
