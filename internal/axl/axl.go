// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package axl defines the acceleration segment handed from the acquisition
// pipeline to storage and uplink, and helpers to analyse collections of them.
package axl

import (
	"time"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// SampleSz is the number of samples in a full segment. Each sample is three
// interleaved axis values.
const SampleSz = 1024

// Packet is one full segment of filtered acceleration.
type Packet struct {
	// Timestamp is the RTC time in ms when the segment was taken off the
	// filter, which is the time of its last sample.
	Timestamp    int64   `msgpack:"timestamp" json:"timestamp"`
	PositionTime uint32  `msgpack:"position_time" json:"position_time"`
	Lat          float64 `msgpack:"lat" json:"lat"`
	Lon          float64 `msgpack:"lon" json:"lon"`
	// Freq is the output sample rate in Hz.
	Freq float64 `msgpack:"freq" json:"freq"`
	// Offset is the sample index of the first sample within the current epoch.
	Offset uint16 `msgpack:"offset" json:"offset"`
	// Started is the RTC time in ms when capture of the segment began: the
	// previous hand-off, or the epoch reset for the first segment of an epoch.
	Started   int64     `msgpack:"started" json:"started"`
	StorageID *uint32   `msgpack:"storage_id,omitempty" json:"storage_id,omitempty"`
	Data      []float32 `msgpack:"data" json:"-"`
}

// Len returns the number of samples (not values).
func (p *Packet) Len() int { return len(p.Data) / 3 }

// Duration is the time covered by the samples.
func (p *Packet) Duration() time.Duration {
	if p.Freq <= 0 {
		return 0
	}
	return time.Duration(float64(p.Len()) / p.Freq * float64(time.Second))
}

// End is the time of the last sample.
func (p *Packet) End() time.Time { return time.UnixMilli(p.Timestamp).UTC() }

// Start is the time of the first sample.
func (p *Packet) Start() time.Time {
	if p.Len() == 0 {
		return p.End()
	}
	return p.End().Add(-p.Duration() + p.period())
}

func (p *Packet) period() time.Duration {
	if p.Freq <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / p.Freq)
}

// Times returns the time of every sample.
func (p *Packet) Times() []time.Time {
	n := p.Len()
	ts := make([]time.Time, n)
	start := p.Start()
	dt := p.period()
	for i := range ts {
		ts[i] = start.Add(time.Duration(i) * dt)
	}
	return ts
}

// Axis returns the values of one axis (0=x, 1=y, 2=z).
func (p *Packet) Axis(axis int) []float32 {
	out := make([]float32, 0, p.Len())
	for i := axis; i < len(p.Data); i += 3 {
		out = append(out, p.Data[i])
	}
	return out
}

// Marshal encodes a packet for storage or uplink.
func Marshal(p *Packet) ([]byte, error) {
	b, err := msgpack.Marshal(p)
	return b, errors.Wrap(err, "encode packet")
}

// Unmarshal decodes a packet produced by Marshal.
func Unmarshal(b []byte) (*Packet, error) {
	var p Packet
	if err := msgpack.Unmarshal(b, &p); err != nil {
		return nil, errors.Wrap(err, "decode packet")
	}
	if len(p.Data)%3 != 0 {
		return nil, errors.Errorf("packet data length %d is not a multiple of 3", len(p.Data))
	}
	return &p, nil
}
