// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/relabs-tech/wavebuoy/internal/imu"
)

type mockSource struct {
	clk     clock.Clock
	start   time.Time
	lsbPerG float64
	height  float64
	period  float64
}

// NewMockSource returns a source riding a regular swell of the given height
// (m) and period (s).
func NewMockSource(clk clock.Clock, lsbPerG, height, period float64) IMURawReader {
	return &mockSource{clk: clk, start: clk.Now(), lsbPerG: lsbPerG, height: height, period: period}
}

func (m *mockSource) ReadRaw() (imu.IMURaw, error) {
	elapsed := m.clk.Since(m.start).Seconds()
	w := 2 * math.Pi / m.period
	// vertical acceleration of h/2 sin(wt) heave, in g
	heave := -(m.height / 2) * w * w * math.Sin(w*elapsed) / 9.80665

	return imu.IMURaw{
		Ax: int16(0.02 * math.Sin(elapsed*0.7) * m.lsbPerG),
		Ay: int16(0.02 * math.Cos(elapsed*0.5) * m.lsbPerG),
		Az: int16((1 + heave) * m.lsbPerG),
	}, nil
}
