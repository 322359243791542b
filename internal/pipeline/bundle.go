// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tomtom215/shopper-spectrum/internal/artifacts"
	"github.com/tomtom215/shopper-spectrum/internal/recommend"
	"github.com/tomtom215/shopper-spectrum/internal/retail"
	"github.com/tomtom215/shopper-spectrum/internal/segment"
)

// ArtifactName is the store name under which bundles are saved.
const ArtifactName = "bundle"

// Info describes how a bundle was produced.
type Info struct {
	RunID        string            `json:"run_id"`
	TrainedAt    time.Time         `json:"trained_at"`
	Duration     time.Duration     `json:"duration"`
	Transactions int               `json:"transactions"`
	Customers    int               `json:"customers"`
	Products     int               `json:"products"`
	Clean        retail.CleanStats `json:"clean"`
	Version      int               `json:"version,omitempty"`
}

// Bundle is the immutable set of fitted artifacts: scaling transform,
// cluster model, cluster labels and the product similarity matrix.
type Bundle struct {
	segmenter  *segment.Segmenter
	similarity *recommend.SimilarityMatrix
	info       Info
}

// BundleState is the serializable form of a Bundle.
type BundleState struct {
	Segment    segment.State
	Similarity recommend.MatrixState
	Info       Info
}

// NewBundle assembles a bundle from fitted artifacts.
//
//nolint:gocritic // info passed by value for immutability
func NewBundle(seg *segment.Segmenter, sim *recommend.SimilarityMatrix, info Info) (*Bundle, error) {
	if seg == nil {
		return nil, errors.New("bundle: segmenter is nil")
	}
	if sim == nil {
		return nil, errors.New("bundle: similarity matrix is nil")
	}
	if info.Products == 0 {
		info.Products = sim.Len()
	}
	return &Bundle{segmenter: seg, similarity: sim, info: info}, nil
}

// BundleFromState restores a bundle.
//
//nolint:gocritic // state passed by value, decoded once at load time
func BundleFromState(st BundleState) (*Bundle, error) {
	seg, err := segment.FromState(st.Segment)
	if err != nil {
		return nil, fmt.Errorf("restore segmenter: %w", err)
	}
	sim, err := recommend.FromState(st.Similarity)
	if err != nil {
		return nil, fmt.Errorf("restore similarity: %w", err)
	}
	return NewBundle(seg, sim, st.Info)
}

// State returns a serializable copy of the bundle.
func (b *Bundle) State() BundleState {
	return BundleState{
		Segment:    b.segmenter.State(),
		Similarity: b.similarity.State(),
		Info:       b.info,
	}
}

// Segmenter returns the fitted segmenter.
func (b *Bundle) Segmenter() *segment.Segmenter { return b.segmenter }

// Similarity returns the product similarity matrix.
func (b *Bundle) Similarity() *recommend.SimilarityMatrix { return b.similarity }

// Info returns run information.
func (b *Bundle) Info() Info { return b.info }

// PredictSegment assigns an RFM point (original units) to a cluster and label.
func (b *Bundle) PredictSegment(p segment.Point) (int, segment.Label) {
	return b.segmenter.Segment(p)
}

// Recommend returns the topN products most similar to productID.
func (b *Bundle) Recommend(productID string, topN int) ([]recommend.ScoredProduct, error) {
	return recommend.Recommend(b.similarity, productID, topN)
}

// withVersion returns a shallow copy carrying the store version.
func (b *Bundle) withVersion(v int) *Bundle {
	c := *b
	c.info.Version = v
	return &c
}

// SaveBundle persists b as the next version in store and returns the new
// version's metadata.
func SaveBundle(ctx context.Context, store artifacts.Store, b *Bundle) (*Bundle, *artifacts.Metadata, error) {
	latest, _, err := store.LatestVersion(ctx, ArtifactName)
	if err != nil {
		return nil, nil, fmt.Errorf("latest bundle version: %w", err)
	}
	version := latest + 1
	saved := b.withVersion(version)

	meta, err := store.Save(ctx, ArtifactName, version, saved.State(), artifacts.Metadata{
		RunID:              b.info.RunID,
		TrainedAt:          b.info.TrainedAt,
		Transactions:       b.info.Transactions,
		Customers:          b.info.Customers,
		Products:           b.similarity.Len(),
		Clusters:           b.segmenter.K(),
		TrainingDurationMS: b.info.Duration.Milliseconds(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("save bundle: %w", err)
	}
	return saved, meta, nil
}

// LoadBundle restores a bundle from store. Version 0 loads the latest.
func LoadBundle(ctx context.Context, store artifacts.Store, version int) (*Bundle, *artifacts.Metadata, error) {
	var st BundleState
	meta, err := store.Load(ctx, ArtifactName, version, &st)
	if err != nil {
		return nil, nil, fmt.Errorf("load bundle: %w", err)
	}
	b, err := BundleFromState(st)
	if err != nil {
		return nil, nil, err
	}
	return b.withVersion(meta.Version), meta, nil
}

// Holder publishes the active bundle to concurrent readers.
type Holder struct {
	current atomic.Pointer[Bundle]
	swaps   atomic.Int64
}

// NewHolder creates a holder, optionally seeded with a bundle.
func NewHolder(b *Bundle) *Holder {
	h := &Holder{}
	if b != nil {
		h.current.Store(b)
	}
	return h
}

// Current returns the active bundle or nil when none has been published.
func (h *Holder) Current() *Bundle {
	return h.current.Load()
}

// Swap publishes b and returns the previous bundle.
func (h *Holder) Swap(b *Bundle) *Bundle {
	h.swaps.Add(1)
	return h.current.Swap(b)
}

// Swaps returns how many times a bundle has been published.
func (h *Holder) Swaps() int64 {
	return h.swaps.Load()
}
