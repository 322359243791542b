// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package models

import "time"

// Recommendation is one similar product.
type Recommendation struct {
	Product string  `json:"product"`
	Score   float64 `json:"score"`
}

// RecommendationsResponse is returned by the recommendations endpoints.
type RecommendationsResponse struct {
	Product         string           `json:"product"`
	K               int              `json:"k"`
	Recommendations []Recommendation `json:"recommendations"`
}

// PredictSegmentRequest is the body of POST /api/v1/segments/predict.
// Values are in original units: days, purchase count, currency.
type PredictSegmentRequest struct {
	Recency   *float64 `json:"recency" validate:"required,finite,gte=0"`
	Frequency *float64 `json:"frequency" validate:"required,finite,gte=0"`
	Monetary  *float64 `json:"monetary" validate:"required,finite"`
}

// PredictSegmentResponse is the predicted cluster and its label.
type PredictSegmentResponse struct {
	Cluster int    `json:"cluster"`
	Label   string `json:"label"`
}

// RFM is a point in original units.
type RFM struct {
	Recency   float64 `json:"recency"`
	Frequency float64 `json:"frequency"`
	Monetary  float64 `json:"monetary"`
}

// ClusterInfo describes one fitted cluster.
type ClusterInfo struct {
	Cluster  int    `json:"cluster"`
	Label    string `json:"label"`
	Centroid RFM    `json:"centroid"`
	Size     *int   `json:"size,omitempty"`
}

// ClustersResponse lists every cluster of the active model.
type ClustersResponse struct {
	Clusters []ClusterInfo `json:"clusters"`
}

// ModelInfo describes the active model.
type ModelInfo struct {
	RunID        string    `json:"run_id"`
	Version      int       `json:"version"`
	TrainedAt    time.Time `json:"trained_at"`
	DurationMS   int64     `json:"duration_ms"`
	Transactions int       `json:"transactions"`
	Customers    int       `json:"customers"`
	Products     int       `json:"products"`
	Clusters     int       `json:"clusters"`
	Inertia      float64   `json:"inertia"`
	RowsInput    int       `json:"rows_input"`
	RowsDropped  int       `json:"rows_dropped"`

	RecommendationRequests int64 `json:"recommendation_requests"`
	CacheHits              int64 `json:"cache_hits"`
	CacheMisses            int64 `json:"cache_misses"`
	CacheEvictions         int64 `json:"cache_evictions"`
	CacheEntries           int   `json:"cache_entries"`
	NotFound               int64 `json:"not_found"`

	// ModelSwaps counts bundles published since the server started.
	ModelSwaps int64 `json:"model_swaps"`

	// Training is nil when the server runs without a training service.
	Training *TrainingStatus `json:"training,omitempty"`
}

// TrainingStatus summarizes the retraining service.
type TrainingStatus struct {
	Runs     int64  `json:"runs"`
	Failures int64  `json:"failures"`
	Skipped  int64  `json:"skipped"`
	Circuit  string `json:"circuit"`
}

// ProductsResponse is a page of the product catalogue.
type ProductsResponse struct {
	Products []string `json:"products"`
	Total    int      `json:"total"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status       string  `json:"status"`
	ModelLoaded  bool    `json:"model_loaded"`
	ModelVersion int     `json:"model_version,omitempty"`
	UptimeSec    float64 `json:"uptime_seconds"`
}
