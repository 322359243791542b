// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package segment

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/tomtom215/shopper-spectrum/internal/retail"
)

// ClusterModel holds k centroids in scaled space.
type ClusterModel struct {
	Centroids []Point `json:"centroids"`
}

// K returns the number of clusters.
func (m *ClusterModel) K() int {
	return len(m.Centroids)
}

// Predict returns the index of the centroid nearest to p (scaled units).
// Ties go to the lower index.
func (m *ClusterModel) Predict(p Point) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range m.Centroids {
		if d := squaredDistance(p, c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// kmeansResult is the outcome of one or more k-means runs.
type kmeansResult struct {
	centroids  []Point
	assign     []int
	inertia    float64
	iterations int
}

// distinctPoints counts unique points.
func distinctPoints(points []Point) int {
	seen := make(map[Point]struct{}, len(points))
	for _, p := range points {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// fitKMeans runs cfg.NumInit seeded k-means++/Lloyd fits over scaled points
// and keeps the one with the lowest inertia. All randomness comes from a
// single source seeded with cfg.Seed.
func fitKMeans(ctx context.Context, points []Point, cfg *Config) (*kmeansResult, error) {
	if cfg.K < 1 {
		return nil, &retail.ClusteringError{Reason: fmt.Sprintf("k must be at least 1, got %d", cfg.K)}
	}
	if distinct := distinctPoints(points); cfg.K > distinct {
		return nil, &retail.ClusteringError{
			Reason: fmt.Sprintf("k=%d exceeds the number of distinct profiles (%d)", cfg.K, distinct),
		}
	}

	//nolint:gosec // G404: math/rand is acceptable for ML initialization (not security)
	rng := rand.New(rand.NewSource(cfg.Seed))

	var best *kmeansResult
	for run := 0; run < cfg.NumInit; run++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := lloyd(ctx, points, seedPlusPlus(points, cfg.K, rng), cfg)
		if err != nil {
			return nil, err
		}
		if best == nil || res.inertia < best.inertia {
			best = res
		}
	}
	return best, nil
}

// seedPlusPlus chooses k initial centroids with k-means++: the first
// uniformly, each subsequent one with probability proportional to its
// squared distance from the nearest centroid already chosen.
func seedPlusPlus(points []Point, k int, rng *rand.Rand) []Point {
	centroids := make([]Point, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])

	dist := make([]float64, len(points))
	for i, p := range points {
		dist[i] = squaredDistance(p, centroids[0])
	}

	for len(centroids) < k {
		var total float64
		for _, d := range dist {
			total += d
		}

		next := -1
		if total > 0 {
			target := rng.Float64() * total
			var cum float64
			for i, d := range dist {
				if d == 0 {
					continue
				}
				next = i
				cum += d
				if cum >= target {
					break
				}
			}
		}
		if next < 0 {
			next = 0
		}
		chosen := points[next]
		centroids = append(centroids, chosen)

		for i, p := range points {
			if d := squaredDistance(p, chosen); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centroids
}

// lloyd refines centroids until assignments stabilise, centroids move less
// than cfg.Tolerance, or cfg.MaxIterations is reached.
func lloyd(ctx context.Context, points []Point, centroids []Point, cfg *Config) (*kmeansResult, error) {
	k := len(centroids)
	model := &ClusterModel{Centroids: centroids}
	assign := make([]int, len(points))
	for i := range assign {
		assign[i] = -1
	}

	iterations := 0
	converged := false
	for iterations < cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iterations++

		changed := false
		for i, p := range points {
			c := model.Predict(p)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			converged = true
			break
		}

		next := make([]Point, k)
		counts := make([]int, k)
		for i, p := range points {
			c := assign[i]
			counts[c]++
			for d := 0; d < Dims; d++ {
				next[c][d] += p[d]
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				next[c] = farthestPoint(points, assign, model.Centroids)
				continue
			}
			for d := 0; d < Dims; d++ {
				next[c][d] /= float64(counts[c])
			}
		}

		var shift float64
		for c := 0; c < k; c++ {
			shift = math.Max(shift, squaredDistance(next[c], model.Centroids[c]))
		}
		model.Centroids = next
		if shift <= cfg.Tolerance {
			break
		}
	}

	// Centroids moved after the last assignment step unless the loop ended
	// on an unchanged assignment.
	if !converged {
		for i, p := range points {
			assign[i] = model.Predict(p)
		}
	}

	var inertia float64
	for i, p := range points {
		inertia += squaredDistance(p, model.Centroids[assign[i]])
	}

	return &kmeansResult{
		centroids:  model.Centroids,
		assign:     assign,
		inertia:    inertia,
		iterations: iterations,
	}, nil
}

// farthestPoint returns the point furthest from its assigned centroid. It
// re-seeds clusters that lost every member.
func farthestPoint(points []Point, assign []int, centroids []Point) Point {
	best := 0
	bestDist := -1.0
	for i, p := range points {
		if d := squaredDistance(p, centroids[assign[i]]); d > bestDist {
			best, bestDist = i, d
		}
	}
	return points[best]
}
