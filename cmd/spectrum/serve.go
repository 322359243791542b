// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/tomtom215/shopper-spectrum/internal/api"
	"github.com/tomtom215/shopper-spectrum/internal/logging"
	"github.com/tomtom215/shopper-spectrum/internal/pipeline"
	"github.com/tomtom215/shopper-spectrum/internal/supervisor"
	"github.com/tomtom215/shopper-spectrum/internal/supervisor/services"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recommendations and segment predictions over HTTP",
		Long: `Load the latest stored bundle and serve it. When retrain.enabled is set the
model is rebuilt every retrain.interval and swapped in without downtime.
Without a stored bundle the server trains once on startup if
retrain.on_startup is set, and answers 503 until a model is available.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeLogged("artifacts", store)

	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer closeLogged("duckdb", db)

	current, err := loadLatest(ctx, store)
	if err != nil {
		return err
	}
	holder := pipeline.NewHolder(current)
	if current != nil {
		logging.Info().Int("version", current.Info().Version).Str("run_id", current.Info().RunID).Msg("Loaded stored model")
	} else {
		logging.Warn().Msg("No stored model; serving 503 until training completes")
	}

	recCfg := a.cfg.RecommendConfig()
	handler, err := api.NewHandler(holder, recCfg)
	if err != nil {
		return err
	}
	s := a.cfg.Server
	mw := api.NewMiddleware(&api.MiddlewareConfig{
		CORSAllowedOrigins: s.CORSOrigins,
		CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", api.RequestIDHeader},
		CORSMaxAge:         86400,
		RateLimitRequests:  s.RateLimitRequests,
		RateLimitWindow:    s.RateLimitWindow,
	})
	server := &http.Server{
		Addr:         s.Addr,
		Handler:      api.NewRouter(handler, mw),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logging.Logger()), supervisor.TreeConfig{
		ShutdownTimeout: s.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	r := a.cfg.Retrain
	if r.Enabled || (r.OnStartup && current == nil) {
		training := a.trainingService(db, store, holder)
		handler.SetTrainingStatus(training)
		tree.AddTrainingService(training)
	}
	tree.AddAPIService(services.NewHTTPServerService(server, s.ShutdownTimeout))
	if recCfg.Cache.Enabled {
		tree.AddAPIService(services.NewCacheJanitorService(handler, recCfg.Cache.TTL))
	}
	logging.Info().Str("addr", server.Addr).Bool("retrain", r.Enabled).Msg("Starting server")

	if err := <-tree.ServeBackground(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	logging.Info().Msg("Server stopped")
	return nil
}
