// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

// Package metrics defines the Prometheus instruments for the analytics
// pipeline and the query API.
//
// All collectors are registered on the default registry through promauto
// and exposed by the server at /metrics. Helpers named Record* wrap the
// raw collectors so call sites stay one line.
package metrics
