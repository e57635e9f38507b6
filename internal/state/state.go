// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package state holds the clock and position shared between the epoch ticker
// and the main loop, and the epoch counter mirrored from it.
package state

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// RTC is the authoritative wall clock of the buoy.
type RTC interface {
	Now() time.Time
	Set(t time.Time)
}

// SoftRTC is an RTC kept as an offset over a base clock. Setting it never
// touches the base clock.
type SoftRTC struct {
	base   clock.Clock
	offset atomic.Int64
}

// NewSoftRTC returns an RTC that initially reads the same as base.
func NewSoftRTC(base clock.Clock) *SoftRTC {
	return &SoftRTC{base: base}
}

// Now returns the corrected time.
func (r *SoftRTC) Now() time.Time {
	return r.base.Now().Add(time.Duration(r.offset.Load()))
}

// Set steps the RTC so that Now reads t.
func (r *SoftRTC) Set(t time.Time) {
	r.offset.Store(int64(t.Sub(r.base.Now())))
}

// SharedState is the data guarded by State.
type SharedState struct {
	RTC          RTC
	PositionTime uint32
	Lon          float64
	Lat          float64
}

// State guards a SharedState that must be installed with Init before use.
// All mutation goes through Update or With.
type State struct {
	mu sync.Mutex
	s  *SharedState
}

// New returns an uninitialized State.
func New() *State {
	return &State{}
}

// Init installs the RTC. It panics when rtc is nil or Init was already called.
func (st *State) Init(rtc RTC) {
	if rtc == nil {
		panic("state: rtc must not be nil")
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.s != nil {
		panic("state: already initialized")
	}
	st.s = &SharedState{RTC: rtc}
}

// Initialized reports whether Init has been called.
func (st *State) Initialized() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s != nil
}

func (st *State) locked() *SharedState {
	if st.s == nil {
		panic("state: used before Init")
	}
	return st.s
}

// Update runs f with exclusive access to the shared state. f must not call
// back into st.
func (st *State) Update(f func(s *SharedState)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	f(st.locked())
}

// With runs f with exclusive access to the shared state and returns its result.
func With[T any](st *State, f func(s *SharedState) T) T {
	st.mu.Lock()
	defer st.mu.Unlock()
	return f(st.locked())
}

// Now reads the RTC. Never call it from inside Update or With.
func (st *State) Now() time.Time {
	return With(st, func(s *SharedState) time.Time {
		return s.RTC.Now()
	})
}

// Snapshot returns the current time together with the last position, read in
// one critical section so a concurrent fix update is never observed half-way.
func (st *State) Snapshot() (now time.Time, positionTime uint32, lon, lat float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.locked()
	return s.RTC.Now(), s.PositionTime, s.Lon, s.Lat
}
