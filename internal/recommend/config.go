// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package recommend

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// DefaultTopN is the number of recommendations returned when none is requested.
const DefaultTopN = 5

// Aggregation selects how repeated purchases of a product by one customer
// collapse into a single interaction matrix cell.
type Aggregation string

const (
	// AggregateSum uses the total quantity bought.
	AggregateSum Aggregation = "sum"

	// AggregateMean uses the mean quantity per line item.
	AggregateMean Aggregation = "mean"
)

// Valid reports whether a is a known aggregation.
func (a Aggregation) Valid() bool {
	return a == AggregateSum || a == AggregateMean
}

// Config contains configuration for the similarity model and query engine.
type Config struct {
	// Aggregation collapses repeated purchases into one cell.
	// Default: sum.
	Aggregation Aggregation `json:"aggregation"`

	// Workers is the number of goroutines computing similarity rows.
	// If <= 0, defaults to 4.
	Workers int `json:"workers"`

	// Limits contains query limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains response caching parameters.
	Cache CacheConfig `json:"cache"`
}

// LimitsConfig contains query limits.
type LimitsConfig struct {
	// DefaultK is the number of recommendations returned when K is 0.
	// Default: 5.
	DefaultK int `json:"default_k"`

	// MaxK caps the requested K.
	// Default: 100.
	MaxK int `json:"max_k"`
}

// CacheConfig contains response caching parameters.
type CacheConfig struct {
	// Enabled controls whether caching is active.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 10m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached entries.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Aggregation: AggregateSum,
		Workers:     4,
		Limits: LimitsConfig{
			DefaultK: DefaultTopN,
			MaxK:     100,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        10 * time.Minute,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !c.Aggregation.Valid() {
		return fmt.Errorf("recommend.aggregation must be sum or mean, got %q", c.Aggregation)
	}
	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("recommend.limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("recommend.limits.max_k (%d) must be >= default_k (%d)", c.Limits.MaxK, c.Limits.DefaultK)
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("recommend.cache.ttl must be positive, got %s", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("recommend.cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// MarshalJSON implements custom JSON marshaling for duration fields.
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal(&struct {
		*Alias
		Cache struct {
			Enabled    bool   `json:"enabled"`
			TTL        string `json:"ttl"`
			MaxEntries int    `json:"max_entries"`
		} `json:"cache"`
	}{
		Alias: (*Alias)(c),
		Cache: struct {
			Enabled    bool   `json:"enabled"`
			TTL        string `json:"ttl"`
			MaxEntries int    `json:"max_entries"`
		}{
			Enabled:    c.Cache.Enabled,
			TTL:        c.Cache.TTL.String(),
			MaxEntries: c.Cache.MaxEntries,
		},
	})
}
