// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package note describes the communication module: fix lookups used to
// correct the clock, and the uplink that carries segments ashore.
package note

import "context"

// LocationFix is the answer to a location query. Any field may be missing.
type LocationFix struct {
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
	Time *uint32  `json:"time,omitempty"` // position fix time, unix seconds
}

// Complete reports whether latitude, longitude and fix time are all present.
func (f LocationFix) Complete() bool {
	return f.Lat != nil && f.Lon != nil && f.Time != nil
}

// TimeFix is the answer to a time query.
type TimeFix struct {
	Time *uint32 `json:"time,omitempty"` // unix seconds
}

// Card is the fix side of the communication module. Implementations apply
// their own timeouts; ctx cancels an outstanding query.
type Card interface {
	Location(ctx context.Context) (LocationFix, error)
	Time(ctx context.Context) (TimeFix, error)
}
