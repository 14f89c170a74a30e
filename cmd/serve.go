/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/flamego/flamego"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/hemoscan/pipeline"
	"github.com/humaidq/hemoscan/routes"
)

const shutdownTimeout = 10 * time.Second

var CmdServe = &cli.Command{
	Name:    "serve",
	Aliases: []string{"start", "run"},
	Usage:   "Start the HTTP API",
	Flags: flags(
		[]cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Sources: cli.EnvVars("PORT"),
				Value:   "8080",
				Usage:   "the web server port",
			},
		},
		storeFlags(),
		engineFlags(),
		augmenterFlags(),
	),
	Action: serve,
}

func newRegistry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := pipeline.RegisterMetrics(reg); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return reg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, closeStore, err := newPipeline(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	reg, err := newRegistry()
	if err != nil {
		return err
	}

	f := flamego.New()
	f.Use(flamego.Recovery())
	f.Use(routes.RequestLogger)
	routes.Mount(f, p, reg)

	port := cmd.String("port")

	srv := &http.Server{
		Addr:        fmt.Sprintf("0.0.0.0:%s", port),
		Handler:     f,
		ReadTimeout: 5 * time.Second,
		// Analysis streams stay open until augmentation settles.
		WriteTimeout: cmd.Duration("augment-timeout") + 15*time.Second,
		ErrorLog:     requestStdLogger,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info("Starting web server", "port", port, "augmenter", cmd.String("augmenter"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("web server exited: %w", err)
		}
	case <-ctx.Done():
		appLogger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("Web server shutdown", "error", err)
	}

	// Let in-flight analyses reach the archive before it is closed.
	if err := p.Drain(shutdownCtx); err != nil {
		appLogger.Warn("Analyses still running at shutdown", "error", err)
	}

	appLogger.Info("hemoscan stopped")

	return nil
}
