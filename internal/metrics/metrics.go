// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	segmentsEnqueuedN = "wavebuoy_segments_enqueued_total"
	segmentsEnqueuedH = "The total number of segments accepted by the outbound queue"

	segmentsDroppedN = "wavebuoy_segments_dropped_total"
	segmentsDroppedH = "The total number of segments dropped because the outbound queue was full"

	segmentsStoredN = "wavebuoy_segments_stored_total"
	segmentsStoredH = "The total number of segments written to storage"

	segmentsSentN = "wavebuoy_segments_sent_total"
	segmentsSentH = "The total number of segments sent by the uplink"

	fixAttemptsN = "wavebuoy_fix_attempts_total"
	fixAttemptsH = "The total number of location and time fix attempts"

	fixSuccessesN = "wavebuoy_fix_successes_total"
	fixSuccessesH = "The total number of fix attempts that corrected the clock"

	clockStepN = "wavebuoy_clock_step_seconds"
	clockStepH = "The clock correction applied by the last successful fix"

	sensorResetsN = "wavebuoy_sensor_resets_total"
	sensorResetsH = "The total number of acquisition pipeline resets"

	fifoOverrunsN = "wavebuoy_fifo_overruns_total"
	fifoOverrunsH = "The total number of raw samples lost because the sample FIFO was full"

	queueDepthN = "wavebuoy_queue_depth"
	queueDepthH = "The number of segments waiting in an outbound queue"
)

var (
	SegmentsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: segmentsEnqueuedN,
		Help: segmentsEnqueuedH,
	})
	SegmentsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: segmentsDroppedN,
		Help: segmentsDroppedH,
	})
	SegmentsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: segmentsStoredN,
		Help: segmentsStoredH,
	})
	SegmentsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: segmentsSentN,
		Help: segmentsSentH,
	})
	FixAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: fixAttemptsN,
		Help: fixAttemptsH,
	})
	FixSuccesses = promauto.NewCounter(prometheus.CounterOpts{
		Name: fixSuccessesN,
		Help: fixSuccessesH,
	})
	ClockStep = promauto.NewGauge(prometheus.GaugeOpts{
		Name: clockStepN,
		Help: clockStepH,
	})
	SensorResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: sensorResetsN,
		Help: sensorResetsH,
	})
	FIFOOverruns = promauto.NewCounter(prometheus.CounterOpts{
		Name: fifoOverrunsN,
		Help: fifoOverrunsH,
	})
	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: queueDepthN,
		Help: queueDepthH,
	}, []string{"queue"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
