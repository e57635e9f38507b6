// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package waves filters and decimates raw acceleration into segment buffers.
package waves

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/relabs-tech/wavebuoy/internal/axl"
	"github.com/relabs-tech/wavebuoy/internal/imu"
)

// StandardGravity converts g to m/s².
const StandardGravity = 9.80665

// Config describes the sensor stream.
type Config struct {
	// InputFreq is the raw sample rate in Hz.
	InputFreq float64
	// Decimate is the ratio between raw and output rate.
	Decimate int
	// Taps is the FIR length.
	Taps int
	// LSBPerG is the accelerometer sensitivity.
	LSBPerG float64
}

// DefaultConfig is 208 Hz raw data decimated to 52 Hz at ±2 g.
var DefaultConfig = Config{
	InputFreq: 208,
	Decimate:  4,
	Taps:      33,
	LSBPerG:   16384,
}

// Waves implements imu.Waves over a sample FIFO.
type Waves struct {
	fifo imu.FIFO
	clk  clock.Clock
	cfg  Config

	axes    [3]*Decimator
	buf     []float32
	scratch []imu.IMURaw

	// started is the RTC time in ms when the buffer being filled was opened
	// by the last TakeBuf.
	started int64
	offset  uint16
}

var _ imu.Waves = (*Waves)(nil)

// New returns a filter reading from fifo.
func New(fifo imu.FIFO, clk clock.Clock, cfg Config) (*Waves, error) {
	if cfg.InputFreq <= 0 || cfg.Decimate < 1 || cfg.Taps < 3 || cfg.LSBPerG <= 0 {
		return nil, errors.Errorf("invalid filter config %+v", cfg)
	}
	taps := LowPass(cfg.Taps, 0.4/float64(cfg.Decimate))
	w := &Waves{
		fifo:    fifo,
		clk:     clk,
		cfg:     cfg,
		buf:     make([]float32, 0, axl.SampleSz*3),
		scratch: make([]imu.IMURaw, 64),
	}
	for i := range w.axes {
		w.axes[i] = NewDecimator(taps, cfg.Decimate)
	}
	return w, nil
}

// Freq is the output sample rate.
func (w *Waves) Freq() float64 { return w.cfg.InputFreq / float64(w.cfg.Decimate) }

// Len is the number of buffered output samples.
func (w *Waves) Len() int { return len(w.buf) / 3 }

// ReadAndFilter implements imu.Waves. It stops reading once the buffer is
// full and leaves the remaining samples in the FIFO.
func (w *Waves) ReadAndFilter() error {
	for !w.IsFull() {
		// Enough raw samples to fill the buffer and never more.
		want := (axl.SampleSz-w.Len())*w.cfg.Decimate - w.axes[0].Pending()
		if want > len(w.scratch) {
			want = len(w.scratch)
		}
		n, err := w.fifo.Read(w.scratch[:want])
		if err != nil {
			return errors.Wrap(err, "read fifo")
		}
		if n == 0 {
			return nil
		}
		scale := StandardGravity / w.cfg.LSBPerG
		for _, s := range w.scratch[:n] {
			x, ok := w.axes[0].Push(float64(s.Ax) * scale)
			y, _ := w.axes[1].Push(float64(s.Ay) * scale)
			z, _ := w.axes[2].Push(float64(s.Az) * scale)
			if ok {
				w.buf = append(w.buf, float32(x), float32(y), float32(z))
			}
		}
	}
	return nil
}

// IsFull implements imu.Waves.
func (w *Waves) IsFull() bool { return len(w.buf) >= axl.SampleSz*3 }

// TakeBuf implements imu.Waves.
func (w *Waves) TakeBuf(now int64, positionTime uint32, lon, lat float64) (*axl.Packet, error) {
	pck := &axl.Packet{
		Timestamp:    now,
		PositionTime: positionTime,
		Lat:          lat,
		Lon:          lon,
		Freq:         w.Freq(),
		Offset:       w.offset,
		Started:      w.started,
		Data:         append([]float32(nil), w.buf...),
	}
	w.offset += uint16(w.Len())
	w.buf = w.buf[:0]

	w.started = now
	return pck, nil
}

// Started returns the time the buffer being filled was opened.
func (w *Waves) Started() int64 { return w.started }

// Reset implements imu.Waves.
func (w *Waves) Reset() error {
	for _, d := range w.axes {
		d.Reset()
	}
	w.buf = w.buf[:0]
	w.offset = 0
	w.fifo.Clear()
	return nil
}

// EnableFIFO implements imu.Waves. It waits delay for the sensor to settle
// and then discards what was captured meanwhile.
func (w *Waves) EnableFIFO(delay time.Duration) error {
	if delay > 0 {
		w.clk.Sleep(delay)
	}
	w.fifo.Clear()
	return nil
}
