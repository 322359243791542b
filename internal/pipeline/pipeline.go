// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/shopper-spectrum/internal/logging"
	"github.com/tomtom215/shopper-spectrum/internal/metrics"
	"github.com/tomtom215/shopper-spectrum/internal/recommend"
	"github.com/tomtom215/shopper-spectrum/internal/retail"
	"github.com/tomtom215/shopper-spectrum/internal/segment"
)

// RecordSource supplies raw transaction records.
type RecordSource interface {
	LoadRawRecords(ctx context.Context) ([]retail.TransactionRecord, error)
}

// SliceSource serves records from memory.
type SliceSource []retail.TransactionRecord

// LoadRawRecords returns the records.
func (s SliceSource) LoadRawRecords(context.Context) ([]retail.TransactionRecord, error) {
	return s, nil
}

// Config configures a training run.
type Config struct {
	// Frequency selects how RFM frequency is counted.
	Frequency retail.FrequencyMode `json:"frequency"`

	// Segment configures k-means and labelling.
	Segment segment.Config `json:"segment"`

	// Aggregation and Workers configure the similarity build.
	Aggregation recommend.Aggregation `json:"aggregation"`
	Workers     int                   `json:"workers"`
}

// DefaultConfig returns the default run configuration.
func DefaultConfig() Config {
	return Config{
		Frequency:   retail.FrequencyLineItems,
		Segment:     segment.DefaultConfig(),
		Aggregation: recommend.AggregateSum,
		Workers:     4,
	}
}

// Result is everything a run produced. Only Bundle is needed to serve
// queries; the rest feeds reports.
type Result struct {
	Bundle      *Bundle
	Cleaned     []retail.CleanedTransaction
	Profiles    []retail.RFMProfile
	Assignments []segment.Assignment
	CleanStats  retail.CleanStats
	DBSCAN      *segment.DBSCANResult
}

// SizesByLabel counts training customers per label.
func (r *Result) SizesByLabel() map[string]int {
	out := make(map[string]int)
	for _, a := range r.Assignments {
		out[string(a.Label)]++
	}
	return out
}

// Train loads records from src and runs the pipeline.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Train(ctx context.Context, src RecordSource, cfg Config, logger zerolog.Logger) (*Result, error) {
	start := time.Now()
	records, err := src.LoadRawRecords(ctx)
	metrics.RecordPipelineStage("load", time.Since(start))
	if err != nil {
		metrics.RecordPipelineRun(err)
		return nil, fmt.Errorf("load records: %w", err)
	}
	return Run(ctx, records, cfg, logger)
}

// Run executes the full pipeline over raw records. A run ID already stored
// in ctx with logging.ContextWithRunID is reused; otherwise one is generated.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Run(ctx context.Context, records []retail.TransactionRecord, cfg Config, logger zerolog.Logger) (*Result, error) {
	res, err := run(ctx, records, cfg, logger)
	metrics.RecordPipelineRun(err)
	return res, err
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func run(ctx context.Context, records []retail.TransactionRecord, cfg Config, logger zerolog.Logger) (*Result, error) {
	runID := logging.RunIDFromContext(ctx)
	if runID == "" {
		runID = uuid.New().String()
		ctx = logging.ContextWithRunID(ctx, runID)
	}
	ctx = logging.ContextWithLogger(ctx, logger)
	log := logging.Ctx(ctx)
	start := time.Now()

	stageStart := time.Now()
	cleaned, stats, err := retail.CleanWithStats(records)
	metrics.RecordPipelineStage("clean", time.Since(stageStart))
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	metrics.RecordCleaning(stats.Input, map[string]int{
		"missing_customer":      stats.MissingCustomer,
		"cancelled":             stats.Cancelled,
		"unparseable":           stats.Unparseable,
		"non_positive_quantity": stats.NonPositiveQty,
		"non_positive_price":    stats.NonPositivePrice,
	})
	log.Info().
		Int("input", stats.Input).
		Int("kept", stats.Kept).
		Int("missing_customer", stats.MissingCustomer).
		Int("cancelled", stats.Cancelled).
		Int("unparseable", stats.Unparseable).
		Int("non_positive_quantity", stats.NonPositiveQty).
		Int("non_positive_price", stats.NonPositivePrice).
		Msg("cleaned transactions")

	var (
		profiles    []retail.RFMProfile
		seg         *segment.Segmenter
		assignments []segment.Assignment
		dbscan      *segment.DBSCANResult
		sim         *recommend.SimilarityMatrix
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t := time.Now()
		var err error
		profiles, err = retail.BuildRFM(cleaned, retail.WithFrequencyMode(cfg.Frequency))
		metrics.RecordPipelineStage("rfm", time.Since(t))
		if err != nil {
			return fmt.Errorf("rfm: %w", err)
		}
		logging.Ctx(gctx).Debug().Int("profiles", len(profiles)).Dur("elapsed", time.Since(t)).Msg("built rfm profiles")

		t = time.Now()
		seg, err = segment.Fit(gctx, profiles, cfg.Segment)
		metrics.RecordPipelineStage("segment", time.Since(t))
		if err != nil {
			return fmt.Errorf("segment: %w", err)
		}
		assignments = seg.Assign(profiles)
		logging.Ctx(gctx).Debug().Int("clusters", seg.K()).Int("iterations", seg.Iterations()).Msg("fitted segments")

		if cfg.Segment.DBSCAN.Enabled {
			dbscan, err = seg.DBSCAN(profiles, cfg.Segment.DBSCAN)
			if err != nil {
				return fmt.Errorf("dbscan: %w", err)
			}
		}
		return nil
	})

	g.Go(func() error {
		t := time.Now()
		var err error
		sim, err = recommend.BuildSimilarity(gctx, cleaned,
			recommend.WithAggregation(cfg.Aggregation),
			recommend.WithWorkers(cfg.Workers),
		)
		metrics.RecordPipelineStage("similarity", time.Since(t))
		if err != nil {
			return fmt.Errorf("similarity: %w", err)
		}
		logging.Ctx(gctx).Debug().Int("products", sim.Len()).Dur("elapsed", time.Since(t)).Msg("built similarity matrix")
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	info := Info{
		RunID:        runID,
		TrainedAt:    time.Now().UTC(),
		Duration:     time.Since(start),
		Transactions: len(cleaned),
		Customers:    len(profiles),
		Products:     sim.Len(),
		Clean:        stats,
	}
	bundle, err := NewBundle(seg, sim, info)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Bundle:      bundle,
		Cleaned:     cleaned,
		Profiles:    profiles,
		Assignments: assignments,
		CleanStats:  stats,
		DBSCAN:      dbscan,
	}

	ev := log.Info().
		Int("customers", info.Customers).
		Int("products", info.Products).
		Int("clusters", seg.K()).
		Float64("inertia", seg.Inertia()).
		Int("iterations", seg.Iterations()).
		Dur("duration", info.Duration)
	if dbscan != nil {
		ev = ev.Int("dbscan_clusters", dbscan.Clusters).Int("dbscan_noise", dbscan.Noise)
	}
	ev.Msg("pipeline complete")

	metrics.UpdateModelGauges(info.Customers, info.Products, seg.Inertia(), res.SizesByLabel())
	return res, nil
}
