// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shopper-spectrum/internal/cache"
	"github.com/tomtom215/shopper-spectrum/internal/retail"
)

// Engine serves recommendation queries against one similarity matrix.
// It is safe for concurrent use.
type Engine struct {
	config  *Config
	logger  zerolog.Logger
	matrix  *SimilarityMatrix
	version string

	requestCount  atomic.Int64
	notFoundCount atomic.Int64

	// cache is nil when caching is disabled.
	cache *cache.LRU[*Response]
}

// NewEngine creates an engine for matrix. version is reported in response
// metadata and may be empty.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(matrix *SimilarityMatrix, cfg *Config, logger zerolog.Logger, version string) (*Engine, error) {
	if matrix == nil {
		return nil, errors.New("similarity matrix is nil")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		config:  cfg.Clone(),
		logger:  logger.With().Str("component", "recommend").Logger(),
		matrix:  matrix,
		version: version,
	}
	if cfg.Cache.Enabled {
		e.cache = cache.New[*Response](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}
	return e, nil
}

// Matrix returns the underlying similarity matrix.
func (e *Engine) Matrix() *SimilarityMatrix {
	return e.matrix
}

// Recommend answers a single query.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req = e.prepareRequest(req)
	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Str("product", req.ProductID).
		Int("k", req.K).
		Logger()

	if resp := e.tryGetCachedResponse(req, start); resp != nil {
		logger.Debug().Msg("cache hit")
		return resp, nil
	}

	items, err := Recommend(e.matrix, req.ProductID, req.K)
	if err != nil {
		var notFound *retail.ProductNotFoundError
		if errors.As(err, &notFound) {
			e.notFoundCount.Add(1)
			logger.Debug().Msg("product not in similarity model")
		}
		return nil, err
	}

	resp := &Response{
		Items:    items,
		Metadata: e.buildMetadata(req, start, false),
	}
	e.cacheResponse(req, resp)

	logger.Debug().
		Int("returned", len(items)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

// prepareRequest applies defaults and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	if req.K <= 0 {
		req.K = e.config.Limits.DefaultK
	}
	if req.K > e.config.Limits.MaxK {
		req.K = e.config.Limits.MaxK
	}
	return req
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildMetadata(req Request, start time.Time, cacheHit bool) ResponseMetadata {
	return ResponseMetadata{
		RequestID:    req.RequestID,
		ProductID:    req.ProductID,
		K:            req.K,
		LatencyMS:    time.Since(start).Milliseconds(),
		CacheHit:     cacheHit,
		ModelVersion: e.version,
		Timestamp:    time.Now(),
	}
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) tryGetCachedResponse(req Request, start time.Time) *Response {
	if e.cache == nil {
		return nil
	}

	cached, ok := e.cache.Get(cacheKey(req))
	if !ok {
		return nil
	}

	items := make([]ScoredProduct, len(cached.Items))
	copy(items, cached.Items)

	meta := cached.Metadata
	meta.RequestID = req.RequestID
	meta.CacheHit = true
	meta.LatencyMS = time.Since(start).Milliseconds()
	meta.Timestamp = time.Now()
	return &Response{Items: items, Metadata: meta}
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) cacheResponse(req Request, resp *Response) {
	if e.cache == nil {
		return
	}
	stored := &Response{
		Items:    append([]ScoredProduct(nil), resp.Items...),
		Metadata: resp.Metadata,
	}
	e.cache.Add(cacheKey(req), stored)
}

// GetMetrics returns the current engine counters. Cache figures are zero
// when caching is disabled.
func (e *Engine) GetMetrics() Metrics {
	m := Metrics{
		RequestCount:  e.requestCount.Load(),
		NotFoundCount: e.notFoundCount.Load(),
	}
	if e.cache != nil {
		m.CacheHits, m.CacheMisses, m.CacheEvictions, m.CacheEntries = e.cache.Stats()
	}
	return m
}

// PurgeExpired drops expired cached responses and returns how many were
// removed.
func (e *Engine) PurgeExpired() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.CleanupExpired()
}

//nolint:gocritic // hugeParam: req passed by value for simplicity
func cacheKey(req Request) string {
	return fmt.Sprintf("rec:%s:%d", req.ProductID, req.K)
}
