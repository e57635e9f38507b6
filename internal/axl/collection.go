// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package axl

import (
	"sort"
	"time"
)

// DefaultMaxGap is the largest gap between two packets that still counts as
// one continuous segment.
const DefaultMaxGap = 2 * time.Second

// Collection is a set of packets ordered by start time.
type Collection struct {
	Packets []*Packet
}

// NewCollection sorts pcks by start time.
func NewCollection(pcks []*Packet) *Collection {
	c := &Collection{Packets: append([]*Packet(nil), pcks...)}
	sort.SliceStable(c.Packets, func(i, j int) bool {
		return c.Packets[i].Start().Before(c.Packets[j].Start())
	})
	return c
}

// Len returns the number of packets.
func (c *Collection) Len() int { return len(c.Packets) }

// Clip drops packets starting before start or ending after end. A zero time
// leaves that side open.
func (c *Collection) Clip(start, end time.Time) {
	kept := c.Packets[:0]
	for _, p := range c.Packets {
		if !start.IsZero() && p.Start().Before(start) {
			continue
		}
		if !end.IsZero() && p.End().After(end) {
			continue
		}
		kept = append(kept, p)
	}
	c.Packets = kept
}

// Segments splits the collection wherever the gap between the end of one
// packet and the start of the next exceeds maxGap.
func (c *Collection) Segments(maxGap time.Duration) []*Segment {
	var out []*Segment
	var cur *Segment
	for _, p := range c.Packets {
		if cur != nil && gap(cur.Packets[len(cur.Packets)-1], p) <= maxGap {
			cur.Packets = append(cur.Packets, p)
			continue
		}
		cur = &Segment{Packets: []*Packet{p}}
		out = append(out, cur)
	}
	return out
}

func gap(prev, next *Packet) time.Duration {
	return next.Start().Sub(prev.End()) - prev.period()
}

// Segment is a run of packets with no gap larger than the split threshold.
type Segment struct {
	Packets []*Packet
}

// Start of the first packet.
func (s *Segment) Start() time.Time { return s.Packets[0].Start() }

// End of the last packet.
func (s *Segment) End() time.Time { return s.Packets[len(s.Packets)-1].End() }

// Duration between Start and End.
func (s *Segment) Duration() time.Duration { return s.End().Sub(s.Start()) }

// Len returns the number of packets.
func (s *Segment) Len() int { return len(s.Packets) }

// MaxGap is the largest gap between consecutive packets.
func (s *Segment) MaxGap() time.Duration {
	var m time.Duration
	for i := 1; i < len(s.Packets); i++ {
		if g := gap(s.Packets[i-1], s.Packets[i]); g > m {
			m = g
		}
	}
	return m
}
