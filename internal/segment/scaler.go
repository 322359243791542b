// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package segment

import (
	"fmt"
	"math"

	"github.com/tomtom215/shopper-spectrum/internal/retail"
)

// Dimensions of an RFM point.
const (
	DimRecency = iota
	DimFrequency
	DimMonetary
	Dims
)

var dimNames = [Dims]string{"recency", "frequency", "monetary"}

// Point is an RFM vector, in either original or scaled units.
type Point [Dims]float64

// ScalingTransform standardizes each dimension to zero mean and unit
// population standard deviation.
type ScalingTransform struct {
	Mean  Point `json:"mean"`
	Scale Point `json:"scale"`
}

// FitScaler computes the per-dimension mean and population standard
// deviation of points. Any dimension with zero variance is an error since
// the scaled value would be undefined.
func FitScaler(points []Point) (ScalingTransform, error) {
	var t ScalingTransform
	if len(points) == 0 {
		return t, &retail.ClusteringError{Reason: "no profiles to scale"}
	}

	n := float64(len(points))
	for _, p := range points {
		for d := 0; d < Dims; d++ {
			t.Mean[d] += p[d]
		}
	}
	for d := 0; d < Dims; d++ {
		t.Mean[d] /= n
	}

	for _, p := range points {
		for d := 0; d < Dims; d++ {
			diff := p[d] - t.Mean[d]
			t.Scale[d] += diff * diff
		}
	}
	for d := 0; d < Dims; d++ {
		t.Scale[d] = math.Sqrt(t.Scale[d] / n)
		if t.Scale[d] == 0 || math.IsNaN(t.Scale[d]) {
			return ScalingTransform{}, &retail.ClusteringError{
				Reason: fmt.Sprintf("%s has zero variance", dimNames[d]),
			}
		}
	}
	return t, nil
}

// Transform maps a point in original units to scaled units.
func (t ScalingTransform) Transform(p Point) Point {
	var out Point
	for d := 0; d < Dims; d++ {
		out[d] = (p[d] - t.Mean[d]) / t.Scale[d]
	}
	return out
}

// Inverse maps a scaled point back to original units.
func (t ScalingTransform) Inverse(p Point) Point {
	var out Point
	for d := 0; d < Dims; d++ {
		out[d] = p[d]*t.Scale[d] + t.Mean[d]
	}
	return out
}

// TransformAll scales every point.
func (t ScalingTransform) TransformAll(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = t.Transform(p)
	}
	return out
}

// PointsFromProfiles converts profiles to original-unit points.
func PointsFromProfiles(profiles []retail.RFMProfile) []Point {
	points := make([]Point, len(profiles))
	for i := range profiles {
		points[i] = Point(profiles[i].Triple())
	}
	return points
}

func squaredDistance(a, b Point) float64 {
	var sum float64
	for d := 0; d < Dims; d++ {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return sum
}
