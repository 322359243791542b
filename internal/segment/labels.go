// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package segment

import (
	"errors"
	"fmt"
)

// Label is a human-readable segment name.
type Label string

// Segment labels.
const (
	HighValue  Label = "High Value Customer"
	Regular    Label = "Regular Customer"
	Occasional Label = "Occasional Shopper"
	HighRisk   Label = "High Risk Customer"
)

// AllLabels lists every label in decision-list order, fallback last.
var AllLabels = []Label{HighValue, HighRisk, Regular, Occasional}

// RuleConfig holds the label thresholds. Recency is in days, frequency in
// the unit RFM profiles were built with, monetary in currency units.
// Zero-valued optional thresholds are disabled.
type RuleConfig struct {
	HighValueMaxRecency   float64 `json:"high_value_max_recency"`
	HighValueMinFrequency float64 `json:"high_value_min_frequency"`
	// HighValueMinMonetary additionally requires a spend floor. Optional.
	HighValueMinMonetary float64 `json:"high_value_min_monetary"`

	HighRiskMinRecency   float64 `json:"high_risk_min_recency"`
	HighRiskMaxFrequency float64 `json:"high_risk_max_frequency"`

	RegularMinFrequency float64 `json:"regular_min_frequency"`
	// RegularMaxRecency additionally requires recent activity. Optional.
	RegularMaxRecency float64 `json:"regular_max_recency"`
}

// DefaultRuleConfig returns the standard thresholds.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		HighValueMaxRecency:   60,
		HighValueMinFrequency: 8,
		HighRiskMinRecency:    180,
		HighRiskMaxFrequency:  2,
		RegularMinFrequency:   5,
	}
}

// Validate rejects negative thresholds.
func (r RuleConfig) Validate() error {
	var errs []error
	check := func(name string, v float64) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("segment.rules.%s must be non-negative, got %f", name, v))
		}
	}
	check("high_value_max_recency", r.HighValueMaxRecency)
	check("high_value_min_frequency", r.HighValueMinFrequency)
	check("high_value_min_monetary", r.HighValueMinMonetary)
	check("high_risk_min_recency", r.HighRiskMinRecency)
	check("high_risk_max_frequency", r.HighRiskMaxFrequency)
	check("regular_min_frequency", r.RegularMinFrequency)
	check("regular_max_recency", r.RegularMaxRecency)
	return errors.Join(errs...)
}

// Rule is one entry of the decision list.
type Rule struct {
	Label Label
	Match func(c Point) bool
}

// Rules builds the ordered decision list. The final rule always matches.
func (r RuleConfig) Rules() []Rule {
	return []Rule{
		{
			Label: HighValue,
			Match: func(c Point) bool {
				if r.HighValueMinMonetary > 0 && c[DimMonetary] < r.HighValueMinMonetary {
					return false
				}
				return c[DimRecency] <= r.HighValueMaxRecency && c[DimFrequency] >= r.HighValueMinFrequency
			},
		},
		{
			Label: HighRisk,
			Match: func(c Point) bool {
				return c[DimRecency] >= r.HighRiskMinRecency && c[DimFrequency] <= r.HighRiskMaxFrequency
			},
		},
		{
			Label: Regular,
			Match: func(c Point) bool {
				if r.RegularMaxRecency > 0 && c[DimRecency] > r.RegularMaxRecency {
					return false
				}
				return c[DimFrequency] >= r.RegularMinFrequency
			},
		},
		{
			Label: Occasional,
			Match: func(Point) bool { return true },
		},
	}
}

// Classify returns the label of the first rule matching centroid c, which
// must be in original units.
func (r RuleConfig) Classify(c Point) Label {
	for _, rule := range r.Rules() {
		if rule.Match(c) {
			return rule.Label
		}
	}
	return Occasional
}
