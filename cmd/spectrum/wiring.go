// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/shopper-spectrum/internal/artifacts"
	"github.com/tomtom215/shopper-spectrum/internal/database"
	"github.com/tomtom215/shopper-spectrum/internal/logging"
	"github.com/tomtom215/shopper-spectrum/internal/pipeline"
	"github.com/tomtom215/shopper-spectrum/internal/supervisor/services"
)

// openStore opens the configured artifact backend.
func (a *app) openStore() (artifacts.Store, error) {
	c := a.cfg.Artifacts
	switch c.Backend {
	case "badger":
		return artifacts.OpenBadgerStore(artifacts.BadgerConfig{Path: c.Path, SyncWrites: c.SyncWrites})
	case "file", "":
		return artifacts.NewFileStore(c.Path)
	default:
		return nil, fmt.Errorf("unknown artifacts backend %q", c.Backend)
	}
}

// openDB opens DuckDB for CSV ingestion and report tables.
func (a *app) openDB(ctx context.Context) (*database.DB, error) {
	c := a.cfg.Database
	return database.Open(ctx, database.Config{
		Path:      c.Path,
		MaxMemory: c.MaxMemory,
		Threads:   c.Threads,
	})
}

// trainFunc reads the configured CSV through db and runs the pipeline.
func (a *app) trainFunc(db *database.DB) services.TrainFunc {
	d := a.cfg.Data
	pcfg := a.cfg.PipelineConfig()
	return func(ctx context.Context) (*pipeline.Result, error) {
		if d.InputPath == "" {
			return nil, errors.New("data.input_path is not set")
		}
		src := db.CSVSource(d.InputPath, d.Encoding, d.DateFormat)
		return pipeline.Train(ctx, src, pcfg, logging.Component("pipeline"))
	}
}

// trainingService wires training, storage, publication and reports.
func (a *app) trainingService(db *database.DB, store artifacts.Store, holder *pipeline.Holder) *services.TrainingService {
	var reports services.ReportWriter
	if a.cfg.Database.WriteReports {
		reports = db
	}
	r := a.cfg.Retrain
	interval := r.Interval
	if !r.Enabled {
		interval = 0
	}
	return services.NewTrainingService(a.trainFunc(db), store, holder, reports, services.TrainingConfig{
		Interval:       interval,
		OnStartup:      r.OnStartup && holder.Current() == nil,
		Timeout:        r.Timeout,
		MaxFailures:    r.MaxFailures,
		CooldownPeriod: r.CooldownPeriod,
		Keep:           a.cfg.Artifacts.Keep,
		Neighbors:      a.cfg.Database.NeighborsPerProduct,
		Backend:        a.cfg.Artifacts.Backend,
	})
}

// loadLatest returns the newest stored bundle, or nil when the store is empty.
func loadLatest(ctx context.Context, store artifacts.Store) (*pipeline.Bundle, error) {
	_, ok, err := store.LatestVersion(ctx, pipeline.ArtifactName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	b, _, err := pipeline.LoadBundle(ctx, store, 0)
	return b, err
}

func closeLogged(name string, closer interface{ Close() error }) {
	if err := closer.Close(); err != nil {
		logging.Warn().Err(err).Str("resource", name).Msg("Close failed")
	}
}
