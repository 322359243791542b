// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

// Package models defines the JSON shapes of the HTTP API.
//
// Every response is wrapped in APIResponse:
//
//	{"status": "success", "data": {...}, "metadata": {"timestamp": "..."}}
//	{"status": "error", "data": null, "metadata": {...}, "error": {"code": "PRODUCT_NOT_FOUND", "message": "..."}}
package models
