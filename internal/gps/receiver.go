// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gps reads NMEA from a serial receiver and answers location and
// time queries for the clock synchronizer.
package gps

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/benbjohnson/clock"
	serial "github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/wavebuoy/internal/note"
)

// DefaultMaxAge is how long a fix is served after the last valid RMC.
const DefaultMaxAge = 10 * time.Second

// ErrClosed is reported after the serial reader stopped.
var ErrClosed = errors.New("gps reader stopped")

// OpenSerial opens the receiver port.
func OpenSerial(port string, baud uint) (io.ReadWriteCloser, error) {
	opts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	rw, err := serial.Open(opts)
	return rw, errors.Wrapf(err, "open gps serial %s", port)
}

// Receiver keeps the latest fix parsed from an NMEA stream.
type Receiver struct {
	clk    clock.Clock
	maxAge time.Duration
	logger *zap.Logger

	mu         sync.Mutex
	fix        Fix
	receivedAt time.Time
	err        error
}

var _ note.Card = (*Receiver)(nil)

// NewReceiver returns a receiver with no fix.
func NewReceiver(clk clock.Clock, maxAge time.Duration, logger *zap.Logger) *Receiver {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Receiver{clk: clk, maxAge: maxAge, logger: logger}
}

// Run reads sentences from rc until it fails or ctx is done. rc is closed on
// return. The error that stopped the reader is reported by Location.
func (r *Receiver) Run(ctx context.Context, rc io.ReadCloser) error {
	stop := context.AfterFunc(ctx, func() { rc.Close() })
	defer stop()
	defer rc.Close()

	reader := bufio.NewReader(rc)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			r.mu.Lock()
			r.err = errors.Wrap(err, "gps read")
			r.mu.Unlock()
			r.logger.Warn("gps reader stopped", zap.Error(err))
			return err
		}
		if err := r.Update(line); err != nil {
			r.logger.Debug("nmea parse error", zap.String("line", strings.TrimSpace(line)), zap.Error(err))
		}
	}
}

// Update parses one NMEA line. Sentences other than RMC and GGA are ignored.
func (r *Receiver) Update(line string) error {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return nil
	}
	sentence, err := nmea.Parse(line)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch sentence.DataType() {
	case nmea.TypeRMC:
		m := sentence.(nmea.RMC)
		if !m.Date.Valid || !m.Time.Valid {
			return nil
		}
		r.fix.Time = time.Date(2000+m.Date.YY, time.Month(m.Date.MM), m.Date.DD,
			m.Time.Hour, m.Time.Minute, m.Time.Second, m.Time.Millisecond*int(time.Millisecond), time.UTC)
		r.fix.Latitude = m.Latitude
		r.fix.Longitude = m.Longitude
		r.fix.SpeedKnots = m.Speed
		r.fix.CourseDeg = m.Course
		r.fix.Validity = m.Validity
		r.receivedAt = r.clk.Now()
	case nmea.TypeGGA:
		m := sentence.(nmea.GGA)
		r.fix.Satellites = m.NumSatellites
		r.fix.HDOP = m.HDOP
	}
	return nil
}

// Fix returns the latest fix and whether it is valid and fresh.
func (r *Receiver) Fix() (Fix, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fix, r.freshLocked()
}

func (r *Receiver) freshLocked() bool {
	return r.fix.Valid() && r.clk.Since(r.receivedAt) <= r.maxAge
}

// Location implements note.Card. A stale or void fix is reported as an
// empty LocationFix.
func (r *Receiver) Location(ctx context.Context) (note.LocationFix, error) {
	if err := ctx.Err(); err != nil {
		return note.LocationFix{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return note.LocationFix{}, errors.Wrap(ErrClosed, r.err.Error())
	}
	if !r.freshLocked() {
		return note.LocationFix{}, nil
	}
	lat, lon := r.fix.Latitude, r.fix.Longitude
	ts := uint32(r.fix.Time.Unix())
	return note.LocationFix{Lat: &lat, Lon: &lon, Time: &ts}, nil
}

// Time implements note.Card. The fix time is advanced by the age of the fix.
func (r *Receiver) Time(ctx context.Context) (note.TimeFix, error) {
	if err := ctx.Err(); err != nil {
		return note.TimeFix{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return note.TimeFix{}, errors.Wrap(ErrClosed, r.err.Error())
	}
	if !r.freshLocked() {
		return note.TimeFix{}, nil
	}
	ts := uint32(r.fix.Time.Add(r.clk.Since(r.receivedAt)).Unix())
	return note.TimeFix{Time: &ts}, nil
}
