// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

// Package recommend implements item-to-item product recommendations from
// co-purchase behaviour.
//
// # Model
//
// BuildSimilarity pivots cleaned transactions into a customers x products
// interaction matrix (cell = total quantity the customer bought of the
// product, zero when absent) and computes the cosine similarity between
// every pair of product columns. The result is a dense, symmetric
// SimilarityMatrix with an exact 1 on the diagonal.
//
// Products are identified by their description text.
//
// # Queries
//
// Recommend returns the topN most similar products to a given product,
// excluding the product itself, ordered by descending score with ties
// broken by product name. Unknown products yield a
// *retail.ProductNotFoundError.
//
// Engine wraps a matrix with request IDs, latency metadata and a small TTL
// cache for the HTTP layer:
//
//	engine, err := recommend.NewEngine(matrix, recommend.DefaultConfig(), logger)
//	resp, err := engine.Recommend(ctx, recommend.Request{ProductID: "WHITE HANGING HEART T-LIGHT HOLDER", K: 5})
//
// # Thread Safety
//
// A SimilarityMatrix is never modified after construction, so any number
// of goroutines may query it. Engine guards only its cache and counters.
package recommend
