// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/shopper-spectrum/internal/artifacts"
	"github.com/tomtom215/shopper-spectrum/internal/database"
	"github.com/tomtom215/shopper-spectrum/internal/logging"
	"github.com/tomtom215/shopper-spectrum/internal/metrics"
	"github.com/tomtom215/shopper-spectrum/internal/models"
	"github.com/tomtom215/shopper-spectrum/internal/pipeline"
)

// TrainFunc runs one training pipeline pass.
type TrainFunc func(ctx context.Context) (*pipeline.Result, error)

// ReportWriter persists per-run analytics tables. *database.DB satisfies it.
type ReportWriter interface {
	WriteReports(ctx context.Context, res *pipeline.Result, neighbors int) (database.ReportStats, error)
}

// TrainingConfig controls scheduled retraining.
type TrainingConfig struct {
	// Interval between scheduled runs. Zero disables the schedule; only
	// OnStartup and explicit RunOnce calls train.
	Interval time.Duration

	// OnStartup trains once as soon as the service starts.
	OnStartup bool

	// Timeout bounds a single run.
	// Default: 30m
	Timeout time.Duration

	// MaxFailures consecutive failed runs open the circuit.
	// Default: 3
	MaxFailures uint32

	// CooldownPeriod is how long the circuit stays open before a trial run.
	// Default: 1h
	CooldownPeriod time.Duration

	// Keep is the number of bundle versions retained in the store. 0 keeps all.
	Keep int

	// Neighbors is the report depth per product.
	Neighbors int

	// Backend names the artifact store in metrics.
	Backend string
}

// TrainingService retrains the model and publishes each new bundle.
type TrainingService struct {
	train   TrainFunc
	store   artifacts.Store
	holder  *pipeline.Holder
	reports ReportWriter
	config  TrainingConfig
	logger  zerolog.Logger
	cb      *gobreaker.CircuitBreaker[*pipeline.Bundle]

	runs     atomic.Int64
	failures atomic.Int64
	skipped  atomic.Int64
	last     atomic.Pointer[pipeline.Result]
}

// NewTrainingService creates the service. reports may be nil.
//
//nolint:gocritic // cfg passed by value, copied at construction
func NewTrainingService(train TrainFunc, store artifacts.Store, holder *pipeline.Holder, reports ReportWriter, cfg TrainingConfig) *TrainingService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 3
	}
	if cfg.CooldownPeriod <= 0 {
		cfg.CooldownPeriod = time.Hour
	}

	s := &TrainingService{
		train:   train,
		store:   store,
		holder:  holder,
		reports: reports,
		config:  cfg,
		logger:  logging.Component("training"),
	}

	maxFailures := cfg.MaxFailures
	s.cb = gobreaker.NewCircuitBreaker[*pipeline.Bundle](gobreaker.Settings{
		Name:        "training",
		MaxRequests: 1,
		Timeout:     cfg.CooldownPeriod,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			s.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("Training circuit state change")
			metrics.SetTrainingCircuitState(stateValue(to))
		},
	})
	metrics.SetTrainingCircuitState(0)
	return s
}

func stateValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Serve implements suture.Service. A failed run is logged and never stops
// the service.
func (s *TrainingService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("on_startup", s.config.OnStartup).
		Dur("interval", s.config.Interval).
		Msg("Training service starting")

	if s.config.OnStartup {
		s.runLogged(ctx)
	}

	if s.config.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Training service stopping")
			return ctx.Err()
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *TrainingService) runLogged(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			s.logger.Warn().Msg("Training skipped: circuit open")
			return
		}
		s.logger.Error().Err(err).Msg("Training run failed")
	}
}

// RunOnce trains, saves, prunes and publishes one bundle. The previous
// bundle keeps serving if any step before publication fails.
func (s *TrainingService) RunOnce(ctx context.Context) (*pipeline.Bundle, error) {
	b, err := s.cb.Execute(func() (*pipeline.Bundle, error) {
		return s.run(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			s.skipped.Add(1)
		} else {
			s.failures.Add(1)
		}
		return nil, err
	}
	return b, nil
}

func (s *TrainingService) run(ctx context.Context) (*pipeline.Bundle, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	s.runs.Add(1)

	ctx = logging.ContextWithRunID(ctx, logging.NewRequestID())
	log := s.logger.With().Str("run_id", logging.RunIDFromContext(ctx)).Logger()

	start := time.Now()
	res, err := s.train(ctx)
	if err != nil {
		return nil, err
	}

	saved, meta, err := pipeline.SaveBundle(ctx, s.store, res.Bundle)
	metrics.RecordArtifactSave(s.config.Backend, err)
	if err != nil {
		return nil, err
	}
	if s.config.Keep > 0 {
		if err := s.store.Prune(ctx, pipeline.ArtifactName, s.config.Keep); err != nil {
			log.Warn().Err(err).Msg("Failed to prune old bundles")
		}
	}

	if s.reports != nil {
		stats, err := s.reports.WriteReports(ctx, res, s.config.Neighbors)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to write run reports")
		} else {
			log.Debug().Int("customers", stats.Customers).Int("neighbors", stats.Neighbors).Msg("Run reports written")
		}
	}

	s.holder.Swap(saved)
	s.last.Store(res)
	log.Info().
		Int("version", meta.Version).
		Int("customers", saved.Info().Customers).
		Int("products", saved.Info().Products).
		Dur("duration", time.Since(start)).
		Msg("Published new model")
	return saved, nil
}

// Stats returns run counters.
func (s *TrainingService) Stats() (runs, failures, skipped int64) {
	return s.runs.Load(), s.failures.Load(), s.skipped.Load()
}

// LastResult returns the full result of the last published run, including
// diagnostics that are not stored in the bundle. Nil before the first run.
func (s *TrainingService) LastResult() *pipeline.Result {
	return s.last.Load()
}

// Status reports run counters and the breaker state for the model endpoint.
func (s *TrainingService) Status() models.TrainingStatus {
	runs, failures, skipped := s.Stats()
	return models.TrainingStatus{
		Runs:     runs,
		Failures: failures,
		Skipped:  skipped,
		Circuit:  s.CircuitState().String(),
	}
}

// CircuitState returns the breaker state.
func (s *TrainingService) CircuitState() gobreaker.State {
	return s.cb.State()
}

func (s *TrainingService) String() string {
	return "training-service"
}
