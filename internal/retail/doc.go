// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

// Package retail holds the transaction data model and the first two stages
// of the analytics pipeline: cleaning raw transaction records and building
// per-customer RFM (Recency, Frequency, Monetary) profiles.
//
// # Stages
//
//	raw records -> Clean -> []CleanedTransaction -> BuildRFM -> []RFMProfile
//
// Clean drops cancellations (invoice numbers prefixed with "C"), rows with
// no customer, and rows with non-positive quantity or price. Descriptions
// that are absent become "Unknown" and every surviving row gets a
// TotalAmount of Quantity x UnitPrice.
//
// BuildRFM derives a single snapshot instant (latest invoice + 1 day) and
// aggregates each customer's rows into one RFMProfile.
//
// # Money
//
// Prices and totals are shopspring/decimal values so that monetary sums are
// exact regardless of how many line items a customer has.
//
// # Errors
//
// All stages report failures with the typed errors in errors.go. Callers
// that only need the category compare with errors.Is against the exported
// sentinels:
//
//	if errors.Is(err, retail.ErrProductNotFound) { ... }
package retail
