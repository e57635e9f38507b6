// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package waves

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// LowPass returns n windowed-sinc taps with the given cutoff as a fraction of
// the input sample rate (0 < cutoff < 0.5). The taps sum to one.
func LowPass(n int, cutoff float64) []float64 {
	taps := make([]float64, n)
	m := float64(n-1) / 2
	for i := range taps {
		x := float64(i) - m
		var sinc float64
		if x == 0 {
			sinc = 2 * cutoff
		} else {
			sinc = math.Sin(2*math.Pi*cutoff*x) / (math.Pi * x)
		}
		// Hamming window
		w := 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		taps[i] = sinc * w
	}
	floats.Scale(1/floats.Sum(taps), taps)
	return taps
}

// Decimator low-pass filters one channel and keeps every factor-th output.
type Decimator struct {
	taps   []float64
	hist   []float64 // doubled ring so a window is always contiguous
	pos    int
	factor int
	phase  int
}

// NewDecimator returns a decimator over taps.
func NewDecimator(taps []float64, factor int) *Decimator {
	if factor < 1 {
		factor = 1
	}
	return &Decimator{
		taps:   taps,
		hist:   make([]float64, 2*len(taps)),
		factor: factor,
	}
}

// Push adds one input sample. It returns the filtered value and true on every
// factor-th sample.
func (d *Decimator) Push(x float64) (float64, bool) {
	n := len(d.taps)
	d.hist[d.pos] = x
	d.hist[d.pos+n] = x
	d.pos = (d.pos + 1) % n

	d.phase++
	if d.phase < d.factor {
		return 0, false
	}
	d.phase = 0
	// hist[pos:pos+n] runs oldest to newest; taps are symmetric.
	return floats.Dot(d.taps, d.hist[d.pos:d.pos+n]), true
}

// Pending is the number of inputs pushed since the last output.
func (d *Decimator) Pending() int { return d.phase }

// Reset clears history and phase.
func (d *Decimator) Reset() {
	for i := range d.hist {
		d.hist[i] = 0
	}
	d.pos = 0
	d.phase = 0
}
