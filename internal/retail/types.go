// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package retail

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnknownDescription replaces absent product descriptions during cleaning.
const UnknownDescription = "Unknown"

// CancellationPrefix marks invoice numbers of cancelled orders.
const CancellationPrefix = "C"

// TransactionRecord is one raw line item as read from the source.
// CustomerID and Description are nil when the source value is missing.
type TransactionRecord struct {
	CustomerID       *string         `json:"customer_id,omitempty"`
	InvoiceID        string          `json:"invoice_no"`
	Description      *string         `json:"description,omitempty"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	InvoiceTimestamp time.Time       `json:"invoice_date"`

	// Unparseable lists numeric columns whose source value was blank or
	// malformed. Such records are dropped by Clean.
	Unparseable []string `json:"unparseable,omitempty"`
}

// CleanedTransaction is a line item that passed every cleaning filter.
type CleanedTransaction struct {
	CustomerID       string          `json:"customer_id"`
	InvoiceID        string          `json:"invoice_no"`
	Description      string          `json:"description"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	InvoiceTimestamp time.Time       `json:"invoice_date"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
}

// RFMProfile is the per-customer behavioural summary.
type RFMProfile struct {
	CustomerID string `json:"customer_id"`

	// RecencyDays is the number of whole days between the customer's latest
	// invoice and the snapshot instant. Always >= 0.
	RecencyDays int `json:"recency"`

	// Frequency is >= 1. Its exact meaning depends on FrequencyMode.
	Frequency int `json:"frequency"`

	// Monetary is the sum of TotalAmount over the customer's rows.
	Monetary decimal.Decimal `json:"monetary"`
}

// Triple returns the profile as a numeric (recency, frequency, monetary)
// vector for the segmentation stage.
func (p RFMProfile) Triple() [3]float64 {
	return [3]float64{
		float64(p.RecencyDays),
		float64(p.Frequency),
		p.Monetary.InexactFloat64(),
	}
}

// StringPtr is a small helper for constructing records with optional fields.
func StringPtr(s string) *string {
	return &s
}
