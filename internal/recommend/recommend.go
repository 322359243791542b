// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package recommend

import (
	"sort"

	"github.com/tomtom215/shopper-spectrum/internal/retail"
)

// Recommend returns the topN products most similar to productID.
//
// The query product is excluded exactly once, even when other products tie
// with it at a score of 1. Results are ordered by descending score, then by
// product name. topN <= 0 uses DefaultTopN; fewer results are returned when
// the catalogue is smaller than topN+1.
func Recommend(m *SimilarityMatrix, productID string, topN int) ([]ScoredProduct, error) {
	self, ok := m.index[productID]
	if !ok {
		return nil, &retail.ProductNotFoundError{ProductID: productID}
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	row := m.scores[self]
	candidates := make([]ScoredProduct, 0, len(row)-1)
	for j, s := range row {
		if j == self {
			continue
		}
		candidates = append(candidates, ScoredProduct{Product: m.products[j], Score: s})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Product < candidates[j].Product
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates, nil
}
