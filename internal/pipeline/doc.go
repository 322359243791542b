// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

// Package pipeline wires the analytics stages into a training run and
// holds the resulting immutable artifact Bundle.
//
// A run cleans the raw records once, then executes two independent
// branches concurrently:
//
//	                 +-> BuildRFM -> segment.Fit -> labels
//	records -> Clean |
//	                 +-> BuildSimilarity
//
// Either branch failing fails the run; nothing partial is returned.
//
// A Bundle is built once per run (or restored from an artifacts.Store) and
// never modified afterwards. Long-lived processes swap whole bundles via
// Holder.
package pipeline
