// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package retail

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// FrequencyMode selects how RFMProfile.Frequency is counted.
type FrequencyMode string

const (
	// FrequencyLineItems counts every cleaned row of the customer. This is
	// the behaviour the segment thresholds were tuned against.
	FrequencyLineItems FrequencyMode = "line_items"

	// FrequencyDistinctInvoices counts distinct invoice numbers.
	FrequencyDistinctInvoices FrequencyMode = "distinct_invoices"
)

// Valid reports whether m is a known mode.
func (m FrequencyMode) Valid() bool {
	return m == FrequencyLineItems || m == FrequencyDistinctInvoices
}

// SnapshotOffset is added to the latest invoice timestamp to obtain the
// reference instant for recency.
const SnapshotOffset = 24 * time.Hour

type rfmOptions struct {
	mode     FrequencyMode
	snapshot time.Time
}

// RFMOption configures BuildRFM.
type RFMOption func(*rfmOptions)

// WithFrequencyMode overrides the default FrequencyLineItems mode.
func WithFrequencyMode(mode FrequencyMode) RFMOption {
	return func(o *rfmOptions) {
		o.mode = mode
	}
}

// WithSnapshot pins the reference instant instead of deriving it from the data.
func WithSnapshot(t time.Time) RFMOption {
	return func(o *rfmOptions) {
		o.snapshot = t
	}
}

type rfmAccumulator struct {
	latest   time.Time
	rows     int
	invoices map[string]struct{}
	monetary decimal.Decimal
}

// Snapshot returns the latest invoice timestamp plus SnapshotOffset.
func Snapshot(cleaned []CleanedTransaction) (time.Time, error) {
	if len(cleaned) == 0 {
		return time.Time{}, &EmptyInputError{Stage: "rfm"}
	}
	latest := cleaned[0].InvoiceTimestamp
	for i := 1; i < len(cleaned); i++ {
		if cleaned[i].InvoiceTimestamp.After(latest) {
			latest = cleaned[i].InvoiceTimestamp
		}
	}
	return latest.Add(SnapshotOffset), nil
}

// BuildRFM aggregates cleaned transactions into one profile per customer.
// Profiles are returned sorted by CustomerID.
func BuildRFM(cleaned []CleanedTransaction, opts ...RFMOption) ([]RFMProfile, error) {
	o := rfmOptions{mode: FrequencyLineItems}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.mode.Valid() {
		return nil, fmt.Errorf("rfm: unknown frequency mode %q", o.mode)
	}
	if len(cleaned) == 0 {
		return nil, &EmptyInputError{Stage: "rfm"}
	}

	snapshot := o.snapshot
	if snapshot.IsZero() {
		var err error
		if snapshot, err = Snapshot(cleaned); err != nil {
			return nil, err
		}
	}

	byCustomer := make(map[string]*rfmAccumulator)
	for i := range cleaned {
		tx := &cleaned[i]
		acc, ok := byCustomer[tx.CustomerID]
		if !ok {
			acc = &rfmAccumulator{
				latest:   tx.InvoiceTimestamp,
				invoices: make(map[string]struct{}),
				monetary: decimal.Zero,
			}
			byCustomer[tx.CustomerID] = acc
		}
		if tx.InvoiceTimestamp.After(acc.latest) {
			acc.latest = tx.InvoiceTimestamp
		}
		acc.rows++
		acc.invoices[tx.InvoiceID] = struct{}{}
		acc.monetary = acc.monetary.Add(tx.TotalAmount)
	}

	profiles := make([]RFMProfile, 0, len(byCustomer))
	for customer, acc := range byCustomer {
		frequency := acc.rows
		if o.mode == FrequencyDistinctInvoices {
			frequency = len(acc.invoices)
		}
		profiles = append(profiles, RFMProfile{
			CustomerID:  customer,
			RecencyDays: wholeDays(snapshot.Sub(acc.latest)),
			Frequency:   frequency,
			Monetary:    acc.monetary,
		})
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].CustomerID < profiles[j].CustomerID
	})
	return profiles, nil
}

// wholeDays truncates d to whole days, clamping negatives to zero. A
// negative duration only occurs with a pinned snapshot earlier than the data.
func wholeDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
