// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shopper-spectrum/internal/logging"
	"github.com/tomtom215/shopper-spectrum/internal/metrics"
)

// ExpiredPurger drops expired cache entries. *api.Handler satisfies it.
type ExpiredPurger interface {
	PurgeExpired() int
}

// CacheJanitorService periodically purges expired recommendation responses
// so they do not linger until capacity pressure evicts them.
type CacheJanitorService struct {
	purger   ExpiredPurger
	interval time.Duration
	logger   zerolog.Logger
}

// NewCacheJanitorService sweeps purger every interval. A non-positive
// interval means one minute.
func NewCacheJanitorService(purger ExpiredPurger, interval time.Duration) *CacheJanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CacheJanitorService{
		purger:   purger,
		interval: interval,
		logger:   logging.Component("cache-janitor"),
	}
}

// Serve implements suture.Service.
func (c *CacheJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Sweep runs one purge and returns the number of entries removed.
func (c *CacheJanitorService) Sweep() int {
	n := c.purger.PurgeExpired()
	metrics.RecordCacheExpired(n)
	if n > 0 {
		c.logger.Debug().Int("removed", n).Msg("Purged expired recommendation responses")
	}
	return n
}

func (c *CacheJanitorService) String() string {
	return "cache-janitor"
}
