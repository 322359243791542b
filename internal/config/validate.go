// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/shopper-spectrum/internal/validation"
)

// Validate checks field constraints and then the rules that span fields.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	var errs []error
	if c.Recommend.MaxK < c.Recommend.DefaultK {
		errs = append(errs, fmt.Errorf("recommend.max_k (%d) must be >= recommend.default_k (%d)",
			c.Recommend.MaxK, c.Recommend.DefaultK))
	}
	if c.Recommend.CacheEnabled {
		if c.Recommend.CacheTTL <= 0 {
			errs = append(errs, errors.New("recommend.cache_ttl must be positive when the cache is enabled"))
		}
		if c.Recommend.CacheMaxEntries < 1 {
			errs = append(errs, errors.New("recommend.cache_max_entries must be positive when the cache is enabled"))
		}
	}

	positive := map[string]time.Duration{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.idle_timeout":     c.Server.IdleTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	}
	if c.Server.RateLimitRequests > 0 {
		positive["server.rate_limit_window"] = c.Server.RateLimitWindow
	}
	if c.Retrain.Enabled {
		positive["retrain.timeout"] = c.Retrain.Timeout
		positive["retrain.cooldown_period"] = c.Retrain.CooldownPeriod
		if c.Retrain.Interval < time.Minute {
			errs = append(errs, fmt.Errorf("retrain.interval must be at least 1m, got %s", c.Retrain.Interval))
		}
	}
	for _, name := range sortedKeys(positive) {
		if positive[name] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, positive[name]))
		}
	}

	return errors.Join(errs...)
}
