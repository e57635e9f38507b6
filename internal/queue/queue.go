// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package queue implements a fixed-capacity single-producer/single-consumer
// FIFO. The backing array is allocated once by New and never grows.
//
// A Queue is split exactly once into a Producer and a Consumer. Each handle
// may be used from one goroutine at a time; the two handles may be used from
// different goroutines concurrently without further locking.
package queue

import (
	"fmt"
	"sync/atomic"
)

// DefaultCapacity is the queue depth used by the buoy for both outbound queues.
const DefaultCapacity = 32

// noCopy is flagged by `go vet -copylocks` when a handle is copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Queue is a bounded lock-free ring buffer.
type Queue[T any] struct {
	buf []T

	// head and tail are free-running counters. The slot of an index is
	// index % len(buf). head is written only by the consumer, tail only by
	// the producer.
	head atomic.Uint64
	tail atomic.Uint64

	split atomic.Bool
}

// New returns a queue that holds at most capacity items.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("queue: invalid capacity %d", capacity))
	}
	return &Queue[T]{buf: make([]T, capacity)}
}

// Split hands out the producer and consumer roles. It panics when called a
// second time.
func (q *Queue[T]) Split() (*Producer[T], *Consumer[T]) {
	if !q.split.CompareAndSwap(false, true) {
		panic("queue: already split")
	}
	return &Producer[T]{q: q}, &Consumer[T]{q: q}
}

// Capacity returns the fixed number of slots.
func (q *Queue[T]) Capacity() int { return len(q.buf) }

// Len returns the number of queued items. The value is a snapshot and may be
// stale by the time it is used.
func (q *Queue[T]) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Producer is the enqueue side of a Queue.
type Producer[T any] struct {
	_ noCopy
	q *Queue[T]
}

// Enqueue appends item. It returns false without blocking and without
// overwriting anything when the queue is full; the caller keeps item and
// decides whether to drop or retry it.
func (p *Producer[T]) Enqueue(item T) bool {
	q := p.q
	t := q.tail.Load()
	if t-q.head.Load() == uint64(len(q.buf)) {
		return false
	}
	q.buf[t%uint64(len(q.buf))] = item
	q.tail.Store(t + 1)
	return true
}

// Ready reports whether the next Enqueue would succeed.
func (p *Producer[T]) Ready() bool {
	return p.q.tail.Load()-p.q.head.Load() < uint64(len(p.q.buf))
}

// Len returns the number of queued items.
func (p *Producer[T]) Len() int { return p.q.Len() }

// Capacity returns the queue capacity.
func (p *Producer[T]) Capacity() int { return p.q.Capacity() }

// Consumer is the dequeue side of a Queue.
type Consumer[T any] struct {
	_ noCopy
	q *Queue[T]
}

// Dequeue removes and returns the oldest item.
func (c *Consumer[T]) Dequeue() (T, bool) {
	var zero T
	q := c.q
	h := q.head.Load()
	if h == q.tail.Load() {
		return zero, false
	}
	slot := h % uint64(len(q.buf))
	item := q.buf[slot]
	// release the reference so the garbage collector can reclaim it
	q.buf[slot] = zero
	q.head.Store(h + 1)
	return item, true
}

// Peek returns the oldest item without removing it.
func (c *Consumer[T]) Peek() (T, bool) {
	var zero T
	q := c.q
	h := q.head.Load()
	if h == q.tail.Load() {
		return zero, false
	}
	return q.buf[h%uint64(len(q.buf))], true
}

// Len returns the number of queued items.
func (c *Consumer[T]) Len() int { return c.q.Len() }

// Capacity returns the queue capacity.
func (c *Consumer[T]) Capacity() int { return c.q.Capacity() }
