// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package segment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/tomtom215/shopper-spectrum/internal/retail"
)

// Segmenter is a fitted scaling transform, cluster model and label table.
// It is immutable after construction.
type Segmenter struct {
	transform  ScalingTransform
	model      ClusterModel
	rules      RuleConfig
	labels     map[int]Label
	inertia    float64
	iterations int
	sizes      []int
}

// Assignment is a profile together with its cluster and label.
type Assignment struct {
	Profile retail.RFMProfile `json:"profile"`
	Cluster int               `json:"cluster"`
	Label   Label             `json:"label"`
}

// State is the serializable form of a Segmenter.
type State struct {
	Transform    ScalingTransform `json:"transform"`
	Centroids    []Point          `json:"centroids"`
	Rules        RuleConfig       `json:"rules"`
	Inertia      float64          `json:"inertia"`
	Iterations   int              `json:"iterations"`
	ClusterSizes []int            `json:"cluster_sizes"`
}

// Fit standardizes the profiles and clusters them into cfg.K groups.
//
// It fails with a ClusteringError when there are no profiles, when K
// exceeds the number of distinct profiles, or when any RFM dimension has
// zero variance.
func Fit(ctx context.Context, profiles []retail.RFMProfile, cfg Config) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &retail.ClusteringError{Reason: err.Error()}
	}
	if len(profiles) == 0 {
		return nil, &retail.ClusteringError{Reason: "no profiles to cluster"}
	}

	raw := PointsFromProfiles(profiles)
	transform, err := FitScaler(raw)
	if err != nil {
		return nil, err
	}
	scaled := transform.TransformAll(raw)

	res, err := fitKMeans(ctx, scaled, &cfg)
	if err != nil {
		return nil, err
	}

	sizes := make([]int, cfg.K)
	for _, c := range res.assign {
		sizes[c]++
	}

	s := newSegmenter(transform, ClusterModel{Centroids: res.centroids}, cfg.Rules)
	s.inertia = res.inertia
	s.iterations = res.iterations
	s.sizes = sizes
	return s, nil
}

// New builds a Segmenter from previously fitted artifacts.
func New(transform ScalingTransform, model ClusterModel, rules RuleConfig) (*Segmenter, error) {
	if model.K() == 0 {
		return nil, &retail.ClusteringError{Reason: "cluster model has no centroids"}
	}
	for d := 0; d < Dims; d++ {
		if sc := transform.Scale[d]; !finite(sc) || sc <= 0 {
			return nil, &retail.ClusteringError{Reason: fmt.Sprintf("%s scale must be finite and positive, got %v", dimNames[d], sc)}
		}
		if !finite(transform.Mean[d]) {
			return nil, &retail.ClusteringError{Reason: fmt.Sprintf("%s mean is not finite", dimNames[d])}
		}
	}
	for i, c := range model.Centroids {
		for d := 0; d < Dims; d++ {
			if !finite(c[d]) {
				return nil, &retail.ClusteringError{Reason: fmt.Sprintf("centroid %d %s is not finite", i, dimNames[d])}
			}
		}
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return newSegmenter(transform, model, rules), nil
}

// FromState restores a Segmenter saved with State.
func FromState(st State) (*Segmenter, error) {
	s, err := New(st.Transform, ClusterModel{Centroids: st.Centroids}, st.Rules)
	if err != nil {
		return nil, err
	}
	s.inertia = st.Inertia
	s.iterations = st.Iterations
	if len(st.ClusterSizes) == s.model.K() {
		s.sizes = append([]int(nil), st.ClusterSizes...)
	}
	return s, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func newSegmenter(transform ScalingTransform, model ClusterModel, rules RuleConfig) *Segmenter {
	centroids := append([]Point(nil), model.Centroids...)
	s := &Segmenter{
		transform: transform,
		model:     ClusterModel{Centroids: centroids},
		rules:     rules,
		labels:    make(map[int]Label, len(centroids)),
	}
	for i, c := range centroids {
		s.labels[i] = rules.Classify(transform.Inverse(c))
	}
	return s
}

// State returns a serializable copy of the segmenter.
func (s *Segmenter) State() State {
	return State{
		Transform:    s.transform,
		Centroids:    append([]Point(nil), s.model.Centroids...),
		Rules:        s.rules,
		Inertia:      s.inertia,
		Iterations:   s.iterations,
		ClusterSizes: append([]int(nil), s.sizes...),
	}
}

// Predict returns the cluster of an RFM point given in original units.
func (s *Segmenter) Predict(p Point) int {
	return s.model.Predict(s.transform.Transform(p))
}

// Segment returns both the cluster and its label.
func (s *Segmenter) Segment(p Point) (int, Label) {
	c := s.Predict(p)
	return c, s.labels[c]
}

// LabelClusters returns the label of every cluster. The returned map is a
// copy and may be modified by the caller.
func (s *Segmenter) LabelClusters() map[int]Label {
	out := make(map[int]Label, len(s.labels))
	for k, v := range s.labels {
		out[k] = v
	}
	return out
}

// Label returns the label of a single cluster.
func (s *Segmenter) Label(cluster int) (Label, error) {
	l, ok := s.labels[cluster]
	if !ok {
		return "", fmt.Errorf("cluster %d out of range [0,%d)", cluster, s.model.K())
	}
	return l, nil
}

// Assign predicts cluster and label for every profile.
func (s *Segmenter) Assign(profiles []retail.RFMProfile) []Assignment {
	out := make([]Assignment, len(profiles))
	for i := range profiles {
		c, l := s.Segment(Point(profiles[i].Triple()))
		out[i] = Assignment{Profile: profiles[i], Cluster: c, Label: l}
	}
	return out
}

// Centroids returns the centroids in original units.
func (s *Segmenter) Centroids() []Point {
	out := make([]Point, s.model.K())
	for i, c := range s.model.Centroids {
		out[i] = s.transform.Inverse(c)
	}
	return out
}

// Transform returns the fitted scaling transform.
func (s *Segmenter) Transform() ScalingTransform { return s.transform }

// Rules returns the label thresholds in use.
func (s *Segmenter) Rules() RuleConfig { return s.rules }

// K returns the number of clusters.
func (s *Segmenter) K() int { return s.model.K() }

// Inertia is the within-cluster sum of squares of the fit, in scaled space.
// Zero for segmenters built with New.
func (s *Segmenter) Inertia() float64 { return s.inertia }

// Iterations is the number of Lloyd iterations of the winning run.
func (s *Segmenter) Iterations() int { return s.iterations }

// ClusterSizes returns the training-set size of each cluster, or nil when
// unknown.
func (s *Segmenter) ClusterSizes() []int {
	if s.sizes == nil {
		return nil
	}
	return append([]int(nil), s.sizes...)
}

// DBSCAN runs density clustering over profiles in this segmenter's scaled space.
func (s *Segmenter) DBSCAN(profiles []retail.RFMProfile, cfg DBSCANConfig) (*DBSCANResult, error) {
	if len(profiles) == 0 {
		return nil, errors.New("dbscan: no profiles")
	}
	return DBSCAN(s.transform.TransformAll(PointsFromProfiles(profiles)), cfg.Eps, cfg.MinSamples)
}
