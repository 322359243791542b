// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

// Package segment partitions RFM profiles into behavioural clusters and
// names them.
//
// Fitting standardizes the (recency, frequency, monetary) space with
// population mean and standard deviation, then runs seeded k-means
// (k-means++ initialization followed by Lloyd iterations). The same seed,
// input and configuration always produce the same centroids.
//
// Cluster names come from an ordered decision list evaluated against each
// centroid in original units; the first matching rule wins:
//
//	recency <= 60  and frequency >= 8  -> High Value Customer
//	recency >= 180 and frequency <= 2  -> High Risk Customer
//	frequency >= 5                     -> Regular Customer
//	otherwise                          -> Occasional Shopper
//
// Thresholds live in RuleConfig. A fitted Segmenter is immutable and safe
// for concurrent Predict and LabelClusters calls.
//
// DBSCAN is provided as a density-based cross-check over the same scaled
// space. It does not feed the label rules.
package segment
