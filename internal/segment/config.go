// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package segment

import (
	"errors"
	"fmt"
)

// Config controls k-means fitting and cluster labelling.
type Config struct {
	// K is the number of clusters.
	// Default: 4.
	K int `json:"k"`

	// Seed drives k-means++ initialization.
	// Default: 42.
	Seed int64 `json:"seed"`

	// MaxIterations bounds Lloyd iterations per initialization.
	// Default: 300.
	MaxIterations int `json:"max_iterations"`

	// NumInit is the number of independent initializations. The run with
	// the lowest inertia is kept.
	// Default: 10.
	NumInit int `json:"num_init"`

	// Tolerance stops iterating once no centroid moves further than this
	// (squared distance, scaled space).
	// Default: 1e-4.
	Tolerance float64 `json:"tolerance"`

	// Rules holds the label decision list thresholds.
	Rules RuleConfig `json:"rules"`

	// DBSCAN configures the density-based cross-check.
	DBSCAN DBSCANConfig `json:"dbscan"`
}

// DBSCANConfig configures DBSCAN over the scaled RFM space.
type DBSCANConfig struct {
	// Enabled runs DBSCAN after k-means during training.
	// Default: true.
	Enabled bool `json:"enabled"`

	// Eps is the neighbourhood radius.
	// Default: 0.8.
	Eps float64 `json:"eps"`

	// MinSamples is the neighbourhood size, including the point itself,
	// required for a core point.
	// Default: 5.
	MinSamples int `json:"min_samples"`
}

// DefaultConfig returns the default segmentation configuration.
func DefaultConfig() Config {
	return Config{
		K:             4,
		Seed:          42,
		MaxIterations: 300,
		NumInit:       10,
		Tolerance:     1e-4,
		Rules:         DefaultRuleConfig(),
		DBSCAN: DBSCANConfig{
			Enabled:    true,
			Eps:        0.8,
			MinSamples: 5,
		},
	}
}

// Validate checks the configuration for obviously invalid values. Whether
// K fits the data is checked by Fit.
func (c *Config) Validate() error {
	var errs []error
	if c.K < 1 {
		errs = append(errs, fmt.Errorf("segment.k must be at least 1, got %d", c.K))
	}
	if c.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("segment.max_iterations must be at least 1, got %d", c.MaxIterations))
	}
	if c.NumInit < 1 {
		errs = append(errs, fmt.Errorf("segment.num_init must be at least 1, got %d", c.NumInit))
	}
	if c.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("segment.tolerance must be non-negative, got %f", c.Tolerance))
	}
	if c.DBSCAN.Enabled {
		if c.DBSCAN.Eps <= 0 {
			errs = append(errs, fmt.Errorf("segment.dbscan.eps must be positive, got %f", c.DBSCAN.Eps))
		}
		if c.DBSCAN.MinSamples < 1 {
			errs = append(errs, fmt.Errorf("segment.dbscan.min_samples must be at least 1, got %d", c.DBSCAN.MinSamples))
		}
	}
	if err := c.Rules.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
