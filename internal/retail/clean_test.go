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

var baseTime = time.Date(2011, 12, 9, 12, 0, 0, 0, time.UTC)

func record(customer *string, invoice string, desc *string, qty int, price string) TransactionRecord {
	return TransactionRecord{
		CustomerID:       customer,
		InvoiceID:        invoice,
		Description:      desc,
		Quantity:         qty,
		UnitPrice:        decimal.RequireFromString(price),
		InvoiceTimestamp: baseTime,
	}
}

func TestClean_Filters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		record  TransactionRecord
		keep    bool
		verify  func(t *testing.T, got CleanedTransaction)
		dropped func(s CleanStats) int
	}{
		{
			name:   "valid row kept with total",
			record: record(StringPtr("17850"), "536365", StringPtr("WHITE HANGING HEART"), 6, "2.55"),
			keep:   true,
			verify: func(t *testing.T, got CleanedTransaction) {
				if !got.TotalAmount.Equal(decimal.RequireFromString("15.30")) {
					t.Errorf("TotalAmount = %s, want 15.30", got.TotalAmount)
				}
			},
		},
		{
			name:    "cancellation dropped",
			record:  record(StringPtr("17850"), "C536379", StringPtr("Discount"), 1, "27.50"),
			dropped: func(s CleanStats) int { return s.Cancelled },
		},
		{
			name:    "missing customer dropped",
			record:  record(nil, "536414", StringPtr("MUG"), 56, "1.00"),
			dropped: func(s CleanStats) int { return s.MissingCustomer },
		},
		{
			name: "unparseable quantity dropped",
			record: func() TransactionRecord {
				r := record(StringPtr("17850"), "536420", StringPtr("MUG"), 0, "1.00")
				r.Unparseable = []string{"Quantity"}
				return r
			}(),
			dropped: func(s CleanStats) int { return s.Unparseable },
		},
		{
			name: "unparseable price on a cancellation counts as cancelled",
			record: func() TransactionRecord {
				r := record(StringPtr("17850"), "C536421", StringPtr("MUG"), 1, "0")
				r.Unparseable = []string{"UnitPrice"}
				return r
			}(),
			dropped: func(s CleanStats) int { return s.Cancelled },
		},
		{
			name:    "blank customer dropped",
			record:  record(StringPtr("  "), "536414", StringPtr("MUG"), 56, "1.00"),
			dropped: func(s CleanStats) int { return s.MissingCustomer },
		},
		{
			name:    "zero quantity dropped",
			record:  record(StringPtr("17850"), "536365", StringPtr("MUG"), 0, "1.00"),
			dropped: func(s CleanStats) int { return s.NonPositiveQty },
		},
		{
			name:    "negative quantity dropped",
			record:  record(StringPtr("17850"), "536365", StringPtr("MUG"), -3, "1.00"),
			dropped: func(s CleanStats) int { return s.NonPositiveQty },
		},
		{
			name:    "zero price dropped",
			record:  record(StringPtr("17850"), "536365", StringPtr("MUG"), 3, "0"),
			dropped: func(s CleanStats) int { return s.NonPositivePrice },
		},
		{
			name:   "missing description filled",
			record: record(StringPtr("17850"), "536365", nil, 2, "3.00"),
			keep:   true,
			verify: func(t *testing.T, got CleanedTransaction) {
				if got.Description != UnknownDescription {
					t.Errorf("Description = %q, want %q", got.Description, UnknownDescription)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, stats, err := CleanWithStats([]TransactionRecord{tt.record})
			if err != nil {
				t.Fatalf("CleanWithStats() error = %v", err)
			}
			if tt.keep {
				if len(got) != 1 {
					t.Fatalf("len(cleaned) = %d, want 1", len(got))
				}
				if tt.verify != nil {
					tt.verify(t, got[0])
				}
				return
			}
			if len(got) != 0 {
				t.Errorf("len(cleaned) = %d, want 0", len(got))
			}
			if n := tt.dropped(stats); n != 1 {
				t.Errorf("drop counter = %d, want 1", n)
			}
		})
	}
}

func TestClean_MixedBatch(t *testing.T) {
	t.Parallel()

	records := []TransactionRecord{
		record(StringPtr("A"), "C100", StringPtr("X"), 1, "1.00"),
		record(nil, "101", StringPtr("X"), 1, "1.00"),
		record(StringPtr("B"), "102", StringPtr("X"), 2, "5.00"),
	}

	got, stats, err := CleanWithStats(records)
	if err != nil {
		t.Fatalf("CleanWithStats() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(cleaned) = %d, want 1", len(got))
	}
	if got[0].CustomerID != "B" || got[0].InvoiceID != "102" {
		t.Errorf("kept %+v, want customer B invoice 102", got[0])
	}
	if stats.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", stats.Dropped())
	}
	if stats.Input != 3 || stats.Kept != 1 {
		t.Errorf("stats = %+v, want Input=3 Kept=1", stats)
	}
}

func TestClean_Invariants(t *testing.T) {
	t.Parallel()

	records := []TransactionRecord{
		record(StringPtr("A"), "1", StringPtr("X"), 4, "0.25"),
		record(StringPtr("A"), "C2", StringPtr("X"), 4, "0.25"),
		record(StringPtr("B"), "3", nil, 1, "9.99"),
		record(StringPtr("C"), "4", StringPtr("Y"), 10, "-1"),
	}

	got, err := Clean(records)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	for _, tx := range got {
		if tx.Quantity <= 0 || !tx.UnitPrice.IsPositive() {
			t.Errorf("row %+v violates positivity", tx)
		}
		if tx.InvoiceID[0] == 'C' {
			t.Errorf("row %+v is a cancellation", tx)
		}
		want := tx.UnitPrice.Mul(decimal.NewFromInt(int64(tx.Quantity)))
		if !tx.TotalAmount.Equal(want) {
			t.Errorf("TotalAmount = %s, want %s", tx.TotalAmount, want)
		}
	}
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	records := []TransactionRecord{record(StringPtr("A"), "1", nil, 1, "1")}
	if _, err := Clean(records); err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if records[0].Description != nil {
		t.Error("input record Description was modified")
	}
}

func TestClean_DataIntegrity(t *testing.T) {
	t.Parallel()

	records := []TransactionRecord{
		record(StringPtr("A"), "1", nil, 1, "1"),
		{CustomerID: StringPtr("B"), Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
	}

	_, err := Clean(records)
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("Clean() error = %v, want ErrDataIntegrity", err)
	}
	var die *DataIntegrityError
	if !errors.As(err, &die) {
		t.Fatalf("error %T is not *DataIntegrityError", err)
	}
	if die.Row != 1 || len(die.Fields) != 2 {
		t.Errorf("DataIntegrityError = %+v, want row 1 with 2 fields", die)
	}
}

func TestClean_EmptyInput(t *testing.T) {
	t.Parallel()

	got, err := Clean(nil)
	if err != nil {
		t.Fatalf("Clean(nil) error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len(cleaned) = %d, want 0", len(got))
	}
}
