/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package routes exposes the analysis pipeline and report archive over HTTP.
package routes

import (
	"github.com/flamego/flamego"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/humaidq/hemoscan/pipeline"
)

// Mount registers the API on f. Handlers receive p through injection.
func Mount(f *flamego.Flame, p *pipeline.Pipeline, gatherer prometheus.Gatherer) {
	f.Map(p)

	metrics := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})

	f.Group("/api", func() {
		f.Post("/analyze", Analyze)
		f.Get("/reports", ListReports)
		f.Post("/reports/clear", ClearReports)
		f.Get("/ranges", Ranges)
	})

	f.Get("/metrics", func(c flamego.Context) {
		metrics.ServeHTTP(c.ResponseWriter(), c.Request().Request)
	})
}
