/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package pipeline

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels of hemoscan_analyses_total.
const (
	OutcomeAugmented = "augmented"
	OutcomeFallback  = "fallback"
	OutcomeInvalid   = "invalid"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hemoscan",
			Name:      "analyses_total",
			Help:      "Total number of analyses handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	augmentationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "hemoscan",
			Name:      "augmentation_seconds",
			Help:      "Time from local result to settled augmentation in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	archiveFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hemoscan",
			Name:      "archive_failures_total",
			Help:      "Settled analyses that could not be archived.",
		},
	)
)

// RegisterMetrics attaches the pipeline collectors to the supplied registerer.
func RegisterMetrics(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		augmentationSeconds,
		archiveFailuresTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

func observeSettled(state State, duration time.Duration) {
	label := OutcomeFallback
	if state == StateAugmented {
		label = OutcomeAugmented
	}
	analysesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	augmentationSeconds.Observe(duration.Seconds())
}

func observeInvalid() {
	analysesTotal.WithLabelValues(OutcomeInvalid).Inc()
}
