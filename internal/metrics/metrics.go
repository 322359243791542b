// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline Metrics
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spectrum_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage"}, // load, clean, rfm, segment, similarity, persist
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectrum_pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"status"}, // success, error
	)

	PipelineLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spectrum_pipeline_last_success_timestamp",
			Help: "Unix timestamp of the last successful pipeline run",
		},
	)

	RecordsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spectrum_records_ingested_total",
			Help: "Total number of raw transaction records read",
		},
	)

	RecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectrum_records_dropped_total",
			Help: "Total number of raw records removed by cleaning, by reason",
		},
		[]string{"reason"}, // missing_customer, cancelled, unparseable, non_positive_quantity, non_positive_price
	)

	// Model Metrics
	ModelCustomers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spectrum_model_customers",
			Help: "Number of customer profiles in the active model",
		},
	)

	ModelProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spectrum_model_products",
			Help: "Number of products in the active similarity model",
		},
	)

	ModelClusterSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spectrum_model_cluster_size",
			Help: "Number of training customers per segment label",
		},
		[]string{"label"},
	)

	ModelInertia = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spectrum_model_kmeans_inertia",
			Help: "Within-cluster sum of squares of the active k-means model",
		},
	)

	ArtifactSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectrum_artifact_saves_total",
			Help: "Total number of artifact save attempts by backend and outcome",
		},
		[]string{"backend", "status"},
	)

	// Query Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectrum_recommendation_requests_total",
			Help: "Total number of product recommendation requests by outcome",
		},
		[]string{"outcome"}, // ok, not_found, error
	)

	RecommendationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spectrum_recommendation_cache_hits_total",
			Help: "Total number of recommendation responses served from cache",
		},
	)

	RecommendationCacheExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spectrum_recommendation_cache_expired_total",
			Help: "Total number of expired recommendation responses purged from cache",
		},
	)

	SegmentPredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectrum_segment_predictions_total",
			Help: "Total number of segment predictions by label",
		},
		[]string{"label"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectrum_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spectrum_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spectrum_api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	// Training service
	TrainingCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spectrum_training_circuit_state",
			Help: "Retraining circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// RecordPipelineStage records the duration of one pipeline stage.
func RecordPipelineStage(stage string, duration time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordPipelineRun records the outcome of a full pipeline run.
func RecordPipelineRun(err error) {
	if err != nil {
		PipelineRuns.WithLabelValues("error").Inc()
		return
	}
	PipelineRuns.WithLabelValues("success").Inc()
	PipelineLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordCleaning records ingestion volume and per-reason drops.
func RecordCleaning(input int, dropped map[string]int) {
	RecordsIngested.Add(float64(input))
	for reason, n := range dropped {
		if n > 0 {
			RecordsDropped.WithLabelValues(reason).Add(float64(n))
		}
	}
}

// UpdateModelGauges publishes the shape of the active model.
func UpdateModelGauges(customers, products int, inertia float64, sizesByLabel map[string]int) {
	ModelCustomers.Set(float64(customers))
	ModelProducts.Set(float64(products))
	ModelInertia.Set(inertia)
	ModelClusterSize.Reset()
	for label, n := range sizesByLabel {
		ModelClusterSize.WithLabelValues(label).Set(float64(n))
	}
}

// RecordArtifactSave records an artifact save attempt.
func RecordArtifactSave(backend string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ArtifactSaves.WithLabelValues(backend, status).Inc()
}

// RecordRecommendation records the outcome of a recommendation request.
func RecordRecommendation(outcome string, cacheHit bool) {
	RecommendationRequests.WithLabelValues(outcome).Inc()
	if cacheHit {
		RecommendationCacheHits.Inc()
	}
}

// RecordCacheExpired records expired cache entries removed by a sweep.
func RecordCacheExpired(n int) {
	if n > 0 {
		RecommendationCacheExpired.Add(float64(n))
	}
}

// RecordSegmentPrediction records a segment prediction.
func RecordSegmentPrediction(label string) {
	SegmentPredictions.WithLabelValues(label).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// SetTrainingCircuitState publishes the retraining breaker state.
func SetTrainingCircuitState(state int) {
	TrainingCircuitState.Set(float64(state))
}
