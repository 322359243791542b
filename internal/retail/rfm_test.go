// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package retail

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func cleaned(customer, invoice string, ts time.Time, qty int, price string) CleanedTransaction {
	p := decimal.RequireFromString(price)
	return CleanedTransaction{
		CustomerID:       customer,
		InvoiceID:        invoice,
		Description:      "ITEM",
		Quantity:         qty,
		UnitPrice:        p,
		InvoiceTimestamp: ts,
		TotalAmount:      p.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func TestBuildRFM_SingleCustomer(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time { return time.Date(2011, 1, d, 10, 0, 0, 0, time.UTC) }
	txs := []CleanedTransaction{
		cleaned("X", "1", day(1), 1, "10"),
		cleaned("X", "2", day(5), 1, "20"),
		cleaned("X", "3", day(10), 1, "30"),
	}

	got, err := BuildRFM(txs)
	if err != nil {
		t.Fatalf("BuildRFM() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(profiles) = %d, want 1", len(got))
	}
	p := got[0]
	if p.RecencyDays != 1 {
		t.Errorf("RecencyDays = %d, want 1", p.RecencyDays)
	}
	if p.Frequency != 3 {
		t.Errorf("Frequency = %d, want 3", p.Frequency)
	}
	if !p.Monetary.Equal(decimal.NewFromInt(60)) {
		t.Errorf("Monetary = %s, want 60", p.Monetary)
	}
}

func TestBuildRFM_FrequencyModes(t *testing.T) {
	t.Parallel()

	ts := time.Date(2011, 6, 1, 0, 0, 0, 0, time.UTC)
	txs := []CleanedTransaction{
		cleaned("X", "inv-1", ts, 1, "1"),
		cleaned("X", "inv-1", ts, 2, "1"),
		cleaned("X", "inv-2", ts, 3, "1"),
	}

	tests := []struct {
		name string
		mode FrequencyMode
		want int
	}{
		{"line items", FrequencyLineItems, 3},
		{"distinct invoices", FrequencyDistinctInvoices, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := BuildRFM(txs, WithFrequencyMode(tt.mode))
			if err != nil {
				t.Fatalf("BuildRFM() error = %v", err)
			}
			if got[0].Frequency != tt.want {
				t.Errorf("Frequency = %d, want %d", got[0].Frequency, tt.want)
			}
		})
	}

	if _, err := BuildRFM(txs, WithFrequencyMode("weekly")); err == nil {
		t.Error("BuildRFM() with unknown mode expected error")
	}
}

func TestBuildRFM_Invariants(t *testing.T) {
	t.Parallel()

	start := time.Date(2011, 1, 1, 8, 30, 0, 0, time.UTC)
	var txs []CleanedTransaction
	customers := []string{"c1", "c2", "c3", "c4"}
	for i := 0; i < 40; i++ {
		c := customers[i%len(customers)]
		txs = append(txs, cleaned(c, "inv", start.Add(time.Duration(i)*37*time.Hour), i%5+1, "1.10"))
	}

	got, err := BuildRFM(txs)
	if err != nil {
		t.Fatalf("BuildRFM() error = %v", err)
	}
	if len(got) != len(customers) {
		t.Fatalf("len(profiles) = %d, want %d", len(got), len(customers))
	}

	seen := make(map[string]bool)
	minRecency := got[0].RecencyDays
	for i, p := range got {
		if seen[p.CustomerID] {
			t.Errorf("duplicate profile for %s", p.CustomerID)
		}
		seen[p.CustomerID] = true
		if i > 0 && got[i-1].CustomerID >= p.CustomerID {
			t.Errorf("profiles not sorted at %d", i)
		}
		if p.RecencyDays < 0 || p.Frequency < 1 || p.Monetary.IsNegative() {
			t.Errorf("profile %+v out of range", p)
		}
		if p.RecencyDays < minRecency {
			minRecency = p.RecencyDays
		}
	}
	// The customer with the latest invoice is exactly one day from the snapshot.
	if minRecency != 1 {
		t.Errorf("min RecencyDays = %d, want 1", minRecency)
	}
}

func TestBuildRFM_PinnedSnapshot(t *testing.T) {
	t.Parallel()

	ts := time.Date(2011, 3, 1, 0, 0, 0, 0, time.UTC)
	got, err := BuildRFM(
		[]CleanedTransaction{cleaned("X", "1", ts, 1, "1")},
		WithSnapshot(ts.Add(90*24*time.Hour+5*time.Hour)),
	)
	if err != nil {
		t.Fatalf("BuildRFM() error = %v", err)
	}
	if got[0].RecencyDays != 90 {
		t.Errorf("RecencyDays = %d, want 90", got[0].RecencyDays)
	}
}

func TestBuildRFM_Empty(t *testing.T) {
	t.Parallel()

	_, err := BuildRFM(nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("BuildRFM(nil) error = %v, want ErrEmptyInput", err)
	}
}

func TestRFMProfile_Triple(t *testing.T) {
	t.Parallel()

	p := RFMProfile{RecencyDays: 12, Frequency: 4, Monetary: decimal.RequireFromString("99.5")}
	got := p.Triple()
	if got != [3]float64{12, 4, 99.5} {
		t.Errorf("Triple() = %v", got)
	}
}

func TestErrors_Taxonomy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want error
	}{
		{&DataIntegrityError{Fields: []string{"InvoiceNo"}, Row: -1}, ErrDataIntegrity},
		{&EmptyInputError{Stage: "similarity"}, ErrEmptyInput},
		{&ClusteringError{Reason: "k too large"}, ErrClustering},
		{&ProductNotFoundError{ProductID: "MUG"}, ErrProductNotFound},
	}
	for _, tt := range tests {
		wrapped := errors.Join(errors.New("context"), tt.err)
		if !errors.Is(wrapped, tt.want) {
			t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.want)
		}
		if tt.err.Error() == "" {
			t.Errorf("%T has empty message", tt.err)
		}
	}
	if IsProductNotFound(&EmptyInputError{Stage: "x"}) {
		t.Error("IsProductNotFound matched EmptyInputError")
	}
}
