// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package api

import (
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shopper-spectrum/internal/logging"
	"github.com/tomtom215/shopper-spectrum/internal/metrics"
	"github.com/tomtom215/shopper-spectrum/internal/models"
	"github.com/tomtom215/shopper-spectrum/internal/pipeline"
	"github.com/tomtom215/shopper-spectrum/internal/recommend"
	"github.com/tomtom215/shopper-spectrum/internal/retail"
	"github.com/tomtom215/shopper-spectrum/internal/segment"
	"github.com/tomtom215/shopper-spectrum/internal/validation"
)

const (
	defaultProductLimit = 50
	maxProductLimit     = 1000
	maxBodyBytes        = 1 << 16
)

// Handler serves the model held by a pipeline.Holder.
type Handler struct {
	holder    *pipeline.Holder
	recConfig *recommend.Config
	logger    zerolog.Logger
	startTime time.Time

	// bound caches the recommendation engine of the current bundle. It is
	// rebuilt when the holder publishes a new bundle.
	bound  atomic.Pointer[boundEngine]
	bindMu sync.Mutex

	training TrainingStatusSource
}

// TrainingStatusSource reports retraining progress.
// *services.TrainingService satisfies it.
type TrainingStatusSource interface {
	Status() models.TrainingStatus
}

type boundEngine struct {
	bundle *pipeline.Bundle
	engine *recommend.Engine
}

// NewHandler creates a handler. A nil recConfig uses recommend defaults.
func NewHandler(holder *pipeline.Holder, recConfig *recommend.Config) (*Handler, error) {
	if holder == nil {
		return nil, errors.New("api: holder is nil")
	}
	if recConfig == nil {
		recConfig = recommend.DefaultConfig()
	}
	if err := recConfig.Validate(); err != nil {
		return nil, err
	}
	return &Handler{
		holder:    holder,
		recConfig: recConfig.Clone(),
		logger:    logging.Component("api"),
		startTime: time.Now(),
	}, nil
}

// SetTrainingStatus attaches the retraining service reported by Model. It
// must be called before the handler serves requests.
func (h *Handler) SetTrainingStatus(src TrainingStatusSource) {
	h.training = src
}

// PurgeExpired drops expired cached responses of the bound engine.
func (h *Handler) PurgeExpired() int {
	cur := h.bound.Load()
	if cur == nil {
		return 0
	}
	return cur.engine.PurgeExpired()
}

// engineFor returns the engine bound to b, creating it on first use.
func (h *Handler) engineFor(b *pipeline.Bundle) (*recommend.Engine, error) {
	if cur := h.bound.Load(); cur != nil && cur.bundle == b {
		return cur.engine, nil
	}

	h.bindMu.Lock()
	defer h.bindMu.Unlock()
	if cur := h.bound.Load(); cur != nil && cur.bundle == b {
		return cur.engine, nil
	}

	engine, err := recommend.NewEngine(b.Similarity(), h.recConfig, h.logger, modelVersion(b))
	if err != nil {
		return nil, err
	}
	h.bound.Store(&boundEngine{bundle: b, engine: engine})
	h.logger.Info().Str("model_version", modelVersion(b)).Msg("Recommendation engine bound to new model")
	return engine, nil
}

func modelVersion(b *pipeline.Bundle) string {
	if v := b.Info().Version; v > 0 {
		return strconv.Itoa(v)
	}
	return b.Info().RunID
}

// currentBundle writes 503 and returns nil when no model is loaded.
func (h *Handler) currentBundle(w http.ResponseWriter, r *http.Request) *pipeline.Bundle {
	b := h.holder.Current()
	if b == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeModelNotReady, "No trained model is loaded yet", nil)
	}
	return b
}

// Health reports liveness. It never fails while the process is serving.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:    "healthy",
		UptimeSec: time.Since(h.startTime).Seconds(),
	}
	if b := h.holder.Current(); b != nil {
		resp.ModelLoaded = true
		resp.ModelVersion = b.Info().Version
	}
	respondOK(w, r, resp, models.Metadata{})
}

// Ready answers 503 until a model is loaded.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	b := h.currentBundle(w, r)
	if b == nil {
		return
	}
	respondOK(w, r, models.HealthResponse{
		Status:       "ready",
		ModelLoaded:  true,
		ModelVersion: b.Info().Version,
		UptimeSec:    time.Since(h.startTime).Seconds(),
	}, models.Metadata{})
}

// Model describes the active model.
func (h *Handler) Model(w http.ResponseWriter, r *http.Request) {
	b := h.currentBundle(w, r)
	if b == nil {
		return
	}
	engine, err := h.engineFor(b)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "Failed to initialise recommendation engine", err)
		return
	}

	info := b.Info()
	em := engine.GetMetrics()
	mi := models.ModelInfo{
		RunID:                  info.RunID,
		Version:                info.Version,
		TrainedAt:              info.TrainedAt,
		DurationMS:             info.Duration.Milliseconds(),
		Transactions:           info.Transactions,
		Customers:              info.Customers,
		Products:               b.Similarity().Len(),
		Clusters:               b.Segmenter().K(),
		Inertia:                b.Segmenter().Inertia(),
		RowsInput:              info.Clean.Input,
		RowsDropped:            info.Clean.Dropped(),
		RecommendationRequests: em.RequestCount,
		CacheHits:              em.CacheHits,
		CacheMisses:            em.CacheMisses,
		CacheEvictions:         em.CacheEvictions,
		CacheEntries:           em.CacheEntries,
		NotFound:               em.NotFoundCount,
		ModelSwaps:             h.holder.Swaps(),
	}
	if h.training != nil {
		st := h.training.Status()
		mi.Training = &st
	}
	respondOK(w, r, mi, models.Metadata{ModelVersion: modelVersion(b)})
}

// Products lists model products, optionally filtered by a case-insensitive prefix.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	b := h.currentBundle(w, r)
	if b == nil {
		return
	}
	limit, err := getIntParam(r, "limit", defaultProductLimit)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}
	if limit > maxProductLimit {
		limit = maxProductLimit
	}

	prefix := strings.ToLower(r.URL.Query().Get("prefix"))
	all := b.Similarity().Products()
	matched := make([]string, 0, len(all))
	for _, p := range all {
		if prefix == "" || strings.HasPrefix(strings.ToLower(p), prefix) {
			matched = append(matched, p)
		}
	}
	sort.Strings(matched)
	total := len(matched)
	if len(matched) > limit {
		matched = matched[:limit]
	}

	respondOK(w, r, models.ProductsResponse{Products: matched, Total: total}, models.Metadata{ModelVersion: modelVersion(b)})
}

// ProductRecommendations serves GET /api/v1/products/{id}/recommendations.
func (h *Handler) ProductRecommendations(w http.ResponseWriter, r *http.Request) {
	product, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, "Malformed product id", nil)
		return
	}
	h.recommend(w, r, product)
}

// Recommendations serves GET /api/v1/recommendations?product=.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	product := r.URL.Query().Get("product")
	if product == "" {
		respondError(w, r, http.StatusBadRequest, CodeValidation, "product query parameter is required", nil)
		return
	}
	h.recommend(w, r, product)
}

func (h *Handler) recommend(w http.ResponseWriter, r *http.Request, product string) {
	k, err := getIntParam(r, "k", 0)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidK, err.Error(), nil)
		return
	}

	b := h.currentBundle(w, r)
	if b == nil {
		return
	}
	engine, err := h.engineFor(b)
	if err != nil {
		metrics.RecordRecommendation("error", false)
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "Failed to initialise recommendation engine", err)
		return
	}

	resp, err := engine.Recommend(r.Context(), recommend.Request{
		ProductID: product,
		K:         k,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		if retail.IsProductNotFound(err) {
			metrics.RecordRecommendation("not_found", false)
			respondErrorDetails(w, r, http.StatusNotFound, CodeNotFound, err.Error(),
				map[string]any{"product": product}, nil)
			return
		}
		metrics.RecordRecommendation("error", false)
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "Recommendation failed", err)
		return
	}
	metrics.RecordRecommendation("ok", resp.Metadata.CacheHit)

	out := models.RecommendationsResponse{
		Product:         product,
		K:               resp.Metadata.K,
		Recommendations: make([]models.Recommendation, len(resp.Items)),
	}
	for i, it := range resp.Items {
		out.Recommendations[i] = models.Recommendation{Product: it.Product, Score: it.Score}
	}
	respondOK(w, r, out, models.Metadata{
		QueryTimeMS:  resp.Metadata.LatencyMS,
		Cached:       resp.Metadata.CacheHit,
		ModelVersion: resp.Metadata.ModelVersion,
	})
}

// Clusters lists every cluster with its label and centroid in original units.
func (h *Handler) Clusters(w http.ResponseWriter, r *http.Request) {
	b := h.currentBundle(w, r)
	if b == nil {
		return
	}
	seg := b.Segmenter()
	labels := seg.LabelClusters()
	sizes := seg.ClusterSizes()

	out := models.ClustersResponse{Clusters: make([]models.ClusterInfo, 0, seg.K())}
	for i, c := range seg.Centroids() {
		info := models.ClusterInfo{
			Cluster:  i,
			Label:    string(labels[i]),
			Centroid: rfmFromPoint(c),
		}
		if sizes != nil {
			size := sizes[i]
			info.Size = &size
		}
		out.Clusters = append(out.Clusters, info)
	}
	respondOK(w, r, out, models.Metadata{ModelVersion: modelVersion(b)})
}

// PredictSegment assigns an RFM triple to a cluster and label.
func (h *Handler) PredictSegment(w http.ResponseWriter, r *http.Request) {
	var req models.PredictSegmentRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidJSON, "Request body must be a JSON object with recency, frequency and monetary", nil)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			respondErrorDetails(w, r, http.StatusBadRequest, CodeValidation, verr.Error(), verr.Details(), nil)
			return
		}
		respondError(w, r, http.StatusBadRequest, CodeValidation, "Invalid request", err)
		return
	}

	b := h.currentBundle(w, r)
	if b == nil {
		return
	}

	var p segment.Point
	p[segment.DimRecency] = *req.Recency
	p[segment.DimFrequency] = *req.Frequency
	p[segment.DimMonetary] = *req.Monetary
	cluster, label := b.PredictSegment(p)
	metrics.RecordSegmentPrediction(string(label))

	respondOK(w, r, models.PredictSegmentResponse{Cluster: cluster, Label: string(label)},
		models.Metadata{ModelVersion: modelVersion(b)})
}

func rfmFromPoint(p segment.Point) models.RFM {
	return models.RFM{
		Recency:   p[segment.DimRecency],
		Frequency: p[segment.DimFrequency],
		Monetary:  p[segment.DimMonetary],
	}
}
