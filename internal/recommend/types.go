// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package recommend

import (
	"fmt"
	"math"
	"time"
)

// ScoredProduct is a product with its similarity to the query product.
type ScoredProduct struct {
	Product string  `json:"product"`
	Score   float64 `json:"score"`
}

// SimilarityMatrix is a dense product x product cosine similarity table.
// It is immutable after construction.
type SimilarityMatrix struct {
	products []string
	index    map[string]int
	scores   [][]float64
}

// MatrixState is the serializable form of a SimilarityMatrix.
type MatrixState struct {
	Products []string    `json:"products"`
	Scores   [][]float64 `json:"scores"`
}

// NewSimilarityMatrix validates and wraps precomputed scores. The slices are
// copied. Scores must be finite, within [-1, 1] and symmetric, with exactly
// 1 on the diagonal.
func NewSimilarityMatrix(products []string, scores [][]float64) (*SimilarityMatrix, error) {
	if len(scores) != len(products) {
		return nil, fmt.Errorf("similarity matrix has %d rows for %d products", len(scores), len(products))
	}
	m := &SimilarityMatrix{
		products: append([]string(nil), products...),
		index:    make(map[string]int, len(products)),
		scores:   make([][]float64, len(scores)),
	}
	for i, p := range m.products {
		if _, dup := m.index[p]; dup {
			return nil, fmt.Errorf("duplicate product %q in similarity matrix", p)
		}
		m.index[p] = i
		if len(scores[i]) != len(products) {
			return nil, fmt.Errorf("similarity row %d has %d columns, want %d", i, len(scores[i]), len(products))
		}
		m.scores[i] = append([]float64(nil), scores[i]...)
	}
	if err := m.checkScores(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SimilarityMatrix) checkScores() error {
	for i, row := range m.scores {
		if row[i] != 1 {
			return fmt.Errorf("similarity of %q with itself is %v, want 1", m.products[i], row[i])
		}
		for j := i + 1; j < len(row); j++ {
			v := row[j]
			if math.IsNaN(v) || v < -1 || v > 1 {
				return fmt.Errorf("similarity of %q and %q is %v, outside [-1, 1]", m.products[i], m.products[j], v)
			}
			if m.scores[j][i] != v {
				return fmt.Errorf("similarity of %q and %q is not symmetric (%v, %v)", m.products[i], m.products[j], v, m.scores[j][i])
			}
		}
	}
	return nil
}

// FromState restores a matrix saved with State.
func FromState(st MatrixState) (*SimilarityMatrix, error) {
	return NewSimilarityMatrix(st.Products, st.Scores)
}

// State returns a serializable copy of the matrix.
func (m *SimilarityMatrix) State() MatrixState {
	scores := make([][]float64, len(m.scores))
	for i, row := range m.scores {
		scores[i] = append([]float64(nil), row...)
	}
	return MatrixState{
		Products: append([]string(nil), m.products...),
		Scores:   scores,
	}
}

// Len returns the number of products.
func (m *SimilarityMatrix) Len() int {
	return len(m.products)
}

// Products returns the product identifiers in matrix order.
func (m *SimilarityMatrix) Products() []string {
	return append([]string(nil), m.products...)
}

// Contains reports whether product is part of the model.
func (m *SimilarityMatrix) Contains(product string) bool {
	_, ok := m.index[product]
	return ok
}

// Score returns the similarity between two products.
func (m *SimilarityMatrix) Score(a, b string) (float64, bool) {
	i, ok := m.index[a]
	if !ok {
		return 0, false
	}
	j, ok := m.index[b]
	if !ok {
		return 0, false
	}
	return m.scores[i][j], true
}

// Request is a recommendation query.
type Request struct {
	// ProductID is the product to find neighbours for.
	ProductID string `json:"product_id"`

	// K is the number of recommendations. 0 uses the configured default.
	K int `json:"k"`

	// RequestID is used for tracing. Generated when empty.
	RequestID string `json:"request_id,omitempty"`
}

// Response contains recommendations and metadata.
type Response struct {
	Items    []ScoredProduct  `json:"items"`
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains information about a recommendation response.
type ResponseMetadata struct {
	RequestID    string    `json:"request_id"`
	ProductID    string    `json:"product_id"`
	K            int       `json:"k"`
	LatencyMS    int64     `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	ModelVersion string    `json:"model_version,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Metrics contains engine counters.
type Metrics struct {
	RequestCount  int64 `json:"request_count"`
	CacheHits      int64 `json:"cache_hits"`
	CacheMisses    int64 `json:"cache_misses"`
	CacheEvictions int64 `json:"cache_evictions"`
	CacheEntries   int   `json:"cache_entries"`
	NotFoundCount  int64 `json:"not_found_count"`
}
