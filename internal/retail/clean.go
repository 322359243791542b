// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package retail

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CleanStats counts how many records each filter removed. A record is
// attributed to the first filter it fails.
type CleanStats struct {
	Input             int `json:"input"`
	Kept              int `json:"kept"`
	MissingCustomer   int `json:"missing_customer"`
	Cancelled         int `json:"cancelled"`
	Unparseable       int `json:"unparseable"`
	NonPositiveQty    int `json:"non_positive_quantity"`
	NonPositivePrice  int `json:"non_positive_price"`
	DescriptionFilled int `json:"description_filled"`
}

// Dropped returns the total number of records removed.
func (s CleanStats) Dropped() int {
	return s.Input - s.Kept
}

// Clean validates and normalizes raw transaction records.
//
// A record is kept only if it has a customer, its invoice is not a
// cancellation, its quantity and unit price were parsed, and both are
// strictly positive.
// The input slice is not modified.
func Clean(records []TransactionRecord) ([]CleanedTransaction, error) {
	cleaned, _, err := CleanWithStats(records)
	return cleaned, err
}

// CleanWithStats is Clean plus per-filter drop counts.
func CleanWithStats(records []TransactionRecord) ([]CleanedTransaction, CleanStats, error) {
	stats := CleanStats{Input: len(records)}

	for i := range records {
		if missing := missingFields(&records[i]); len(missing) > 0 {
			return nil, stats, &DataIntegrityError{Fields: missing, Row: i}
		}
	}

	out := make([]CleanedTransaction, 0, len(records))
	for i := range records {
		r := &records[i]

		customer := ""
		if r.CustomerID != nil {
			customer = strings.TrimSpace(*r.CustomerID)
		}
		switch {
		case customer == "":
			stats.MissingCustomer++
			continue
		case strings.HasPrefix(r.InvoiceID, CancellationPrefix):
			stats.Cancelled++
			continue
		case len(r.Unparseable) > 0:
			stats.Unparseable++
			continue
		case r.Quantity <= 0:
			stats.NonPositiveQty++
			continue
		case !r.UnitPrice.IsPositive():
			stats.NonPositivePrice++
			continue
		}

		description := UnknownDescription
		if r.Description != nil {
			description = *r.Description
		} else {
			stats.DescriptionFilled++
		}

		out = append(out, CleanedTransaction{
			CustomerID:       customer,
			InvoiceID:        r.InvoiceID,
			Description:      description,
			Quantity:         r.Quantity,
			UnitPrice:        r.UnitPrice,
			InvoiceTimestamp: r.InvoiceTimestamp,
			TotalAmount:      r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity))),
		})
	}

	stats.Kept = len(out)
	return out, stats, nil
}

// missingFields returns the mandatory fields a record lacks. Customer and
// description may be absent; the filters and the "Unknown" default handle
// them.
func missingFields(r *TransactionRecord) []string {
	var missing []string
	if r.InvoiceID == "" {
		missing = append(missing, "InvoiceNo")
	}
	if r.InvoiceTimestamp.IsZero() {
		missing = append(missing, "InvoiceDate")
	}
	return missing
}
