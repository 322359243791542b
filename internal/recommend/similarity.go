// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/tomtom215/shopper-spectrum/internal/retail"
)

type buildOptions struct {
	aggregation Aggregation
	workers     int
}

// Option configures BuildSimilarity.
type Option func(*buildOptions)

// WithAggregation selects how repeated purchases collapse into one cell.
func WithAggregation(a Aggregation) Option {
	return func(o *buildOptions) {
		o.aggregation = a
	}
}

// WithWorkers sets the number of goroutines computing similarity rows.
func WithWorkers(n int) Option {
	return func(o *buildOptions) {
		o.workers = n
	}
}

// entry is one non-zero cell of a customer's row of the interaction matrix.
type entry struct {
	product int
	value   float64
}

// interactionMatrix is the sparse customers x products matrix, stored as
// one row per customer with entries sorted by product index.
type interactionMatrix struct {
	products []string
	rows     [][]entry
}

// buildInteractionMatrix pivots transactions into customer rows. Products
// are indexed in ascending name order so the output does not depend on
// input order.
func buildInteractionMatrix(cleaned []retail.CleanedTransaction, agg Aggregation) *interactionMatrix {
	productSet := make(map[string]struct{})
	for i := range cleaned {
		productSet[cleaned[i].Description] = struct{}{}
	}
	products := make([]string, 0, len(productSet))
	for p := range productSet {
		products = append(products, p)
	}
	sort.Strings(products)
	productIndex := make(map[string]int, len(products))
	for i, p := range products {
		productIndex[p] = i
	}

	type cell struct {
		sum   float64
		count int
	}
	customers := make(map[string]map[int]*cell)
	for i := range cleaned {
		tx := &cleaned[i]
		row, ok := customers[tx.CustomerID]
		if !ok {
			row = make(map[int]*cell)
			customers[tx.CustomerID] = row
		}
		p := productIndex[tx.Description]
		c, ok := row[p]
		if !ok {
			c = &cell{}
			row[p] = c
		}
		c.sum += float64(tx.Quantity)
		c.count++
	}

	ids := make([]string, 0, len(customers))
	for id := range customers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([][]entry, len(ids))
	for r, id := range ids {
		cells := customers[id]
		row := make([]entry, 0, len(cells))
		for p, c := range cells {
			v := c.sum
			if agg == AggregateMean {
				v = c.sum / float64(c.count)
			}
			row = append(row, entry{product: p, value: v})
		}
		sort.Slice(row, func(i, j int) bool { return row[i].product < row[j].product })
		rows[r] = row
	}

	return &interactionMatrix{products: products, rows: rows}
}

// BuildSimilarity computes the cosine similarity between every pair of
// products over the customer interaction matrix.
//
// Row ranges are split across workers. Each worker only writes the upper
// triangle rows it owns and accumulates over customers in a fixed order, so
// the result is identical for any worker count.
func BuildSimilarity(ctx context.Context, cleaned []retail.CleanedTransaction, opts ...Option) (*SimilarityMatrix, error) {
	o := buildOptions{aggregation: AggregateSum, workers: 4}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.aggregation.Valid() {
		return nil, fmt.Errorf("similarity: unknown aggregation %q", o.aggregation)
	}
	if o.workers <= 0 {
		o.workers = 4
	}
	if len(cleaned) == 0 {
		return nil, &retail.EmptyInputError{Stage: "similarity"}
	}

	im := buildInteractionMatrix(cleaned, o.aggregation)
	n := len(im.products)

	// Invert to product -> (customer row, position) so each worker can walk
	// only the rows that contain its products.
	type occurrence struct {
		row int
		pos int
	}
	occurrences := make([][]occurrence, n)
	for r, row := range im.rows {
		for pos, e := range row {
			occurrences[e.product] = append(occurrences[e.product], occurrence{row: r, pos: pos})
		}
	}

	dots := make([][]float64, n)
	for i := range dots {
		dots[i] = make([]float64, n)
	}

	workers := o.workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				if (i-lo)%256 == 0 {
					if err := ctx.Err(); err != nil {
						errCh <- err
						return
					}
				}
				dotRow := dots[i]
				for _, occ := range occurrences[i] {
					row := im.rows[occ.row]
					vi := row[occ.pos].value
					for _, e := range row[occ.pos:] {
						dotRow[e.product] += vi * e.value
					}
				}
			}
		}(lo, hi)
	}
	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return nil, err
	}

	sqNorms := make([]float64, n)
	for i := 0; i < n; i++ {
		sqNorms[i] = dots[i][i]
	}

	scores := dots
	for i := 0; i < n; i++ {
		scores[i][i] = 1
		for j := i + 1; j < n; j++ {
			s := cosine(dots[i][j], sqNorms[i], sqNorms[j])
			scores[i][j] = s
			scores[j][i] = s
		}
	}

	return &SimilarityMatrix{
		products: im.products,
		index:    indexOf(im.products),
		scores:   scores,
	}, nil
}

// cosine turns a dot product and the two squared norms into a similarity
// clamped to [-1, 1]. A zero norm yields 0.
func cosine(dot, sqNormA, sqNormB float64) float64 {
	if sqNormA == 0 || sqNormB == 0 {
		return 0
	}
	s := dot / math.Sqrt(sqNormA*sqNormB)
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return s
}

func indexOf(products []string) map[string]int {
	idx := make(map[string]int, len(products))
	for i, p := range products {
		idx[p] = i
	}
	return idx
}
