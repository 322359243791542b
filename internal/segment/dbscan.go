// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package segment

import "fmt"

// Noise is the DBSCAN label of points that belong to no cluster.
const Noise = -1

// DBSCANResult holds per-point cluster labels.
type DBSCANResult struct {
	Labels   []int `json:"-"`
	Clusters int   `json:"clusters"`
	Noise    int   `json:"noise"`
}

// DBSCAN clusters points by density. A point is a core point when at least
// minSamples points (itself included) lie within eps of it. Clusters are
// numbered in order of discovery, so the result is deterministic for a
// given input order.
func DBSCAN(points []Point, eps float64, minSamples int) (*DBSCANResult, error) {
	if eps <= 0 {
		return nil, fmt.Errorf("dbscan: eps must be positive, got %f", eps)
	}
	if minSamples < 1 {
		return nil, fmt.Errorf("dbscan: min_samples must be at least 1, got %d", minSamples)
	}

	const unvisited = -2
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = unvisited
	}
	eps2 := eps * eps

	neighbours := func(i int) []int {
		var out []int
		for j := range points {
			if squaredDistance(points[i], points[j]) <= eps2 {
				out = append(out, j)
			}
		}
		return out
	}

	cluster := 0
	for i := range points {
		if labels[i] != unvisited {
			continue
		}
		seeds := neighbours(i)
		if len(seeds) < minSamples {
			labels[i] = Noise
			continue
		}

		labels[i] = cluster
		queue := append([]int(nil), seeds...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]

			if labels[j] == Noise {
				labels[j] = cluster
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = cluster
			if n := neighbours(j); len(n) >= minSamples {
				queue = append(queue, n...)
			}
		}
		cluster++
	}

	res := &DBSCANResult{Labels: labels, Clusters: cluster}
	for _, l := range labels {
		if l == Noise {
			res.Noise++
		}
	}
	return res, nil
}
