// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

// Package validation wraps go-playground/validator with a process-wide
// validator instance, domain tags and error messages suitable for API
// responses and config load failures.
//
// Field names in errors come from the json tag (or koanf tag when there
// is no json tag), so a failure on PredictRequest.Recency is reported as
// "recency".
//
// Registered tags beyond the validator built-ins:
//
//	frequency_mode  line_items | distinct_invoices
//	aggregation     sum | mean
//	log_level       a level name the logging package accepts
//	finite          a float that is neither NaN nor infinite
package validation
