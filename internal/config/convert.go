// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package config

import (
	"os"

	"github.com/tomtom215/shopper-spectrum/internal/logging"
	"github.com/tomtom215/shopper-spectrum/internal/pipeline"
	"github.com/tomtom215/shopper-spectrum/internal/recommend"
	"github.com/tomtom215/shopper-spectrum/internal/retail"
	"github.com/tomtom215/shopper-spectrum/internal/segment"
)

// SegmentConfig returns the k-means and labelling settings.
func (c *Config) SegmentConfig() segment.Config {
	t := c.Training
	return segment.Config{
		K:             t.K,
		Seed:          t.Seed,
		MaxIterations: t.MaxIterations,
		NumInit:       t.NumInit,
		Tolerance:     t.Tolerance,
		Rules: segment.RuleConfig{
			HighValueMaxRecency:   t.Rules.HighValueMaxRecency,
			HighValueMinFrequency: t.Rules.HighValueMinFrequency,
			HighValueMinMonetary:  t.Rules.HighValueMinMonetary,
			HighRiskMinRecency:    t.Rules.HighRiskMinRecency,
			HighRiskMaxFrequency:  t.Rules.HighRiskMaxFrequency,
			RegularMinFrequency:   t.Rules.RegularMinFrequency,
			RegularMaxRecency:     t.Rules.RegularMaxRecency,
		},
		DBSCAN: segment.DBSCANConfig{
			Enabled:    t.DBSCAN.Enabled,
			Eps:        t.DBSCAN.Eps,
			MinSamples: t.DBSCAN.MinSamples,
		},
	}
}

// PipelineConfig returns the training run settings.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		Frequency:   retail.FrequencyMode(c.Training.Frequency),
		Segment:     c.SegmentConfig(),
		Aggregation: recommend.Aggregation(c.Recommend.Aggregation),
		Workers:     c.Recommend.Workers,
	}
}

// RecommendConfig returns the query engine settings.
func (c *Config) RecommendConfig() *recommend.Config {
	return &recommend.Config{
		Aggregation: recommend.Aggregation(c.Recommend.Aggregation),
		Workers:     c.Recommend.Workers,
		Limits: recommend.LimitsConfig{
			DefaultK: c.Recommend.DefaultK,
			MaxK:     c.Recommend.MaxK,
		},
		Cache: recommend.CacheConfig{
			Enabled:    c.Recommend.CacheEnabled,
			TTL:        c.Recommend.CacheTTL,
			MaxEntries: c.Recommend.CacheMaxEntries,
		},
	}
}

// LoggingConfig returns the logger settings, writing to stderr.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		Caller:    c.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	}
}
