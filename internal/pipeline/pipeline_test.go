// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/shopper-spectrum/internal/artifacts"
	"github.com/tomtom215/shopper-spectrum/internal/logging"
	"github.com/tomtom215/shopper-spectrum/internal/retail"
	"github.com/tomtom215/shopper-spectrum/internal/segment"
)

var lastDay = time.Date(2011, 12, 9, 12, 0, 0, 0, time.UTC)

// syntheticRecords builds a store history with three customer groups plus
// some rows the cleaner must drop.
func syntheticRecords() []retail.TransactionRecord {
	var out []retail.TransactionRecord
	add := func(customer string, invoice string, product string, daysAgo, qty int, price string) {
		out = append(out, retail.TransactionRecord{
			CustomerID:       retail.StringPtr(customer),
			InvoiceID:        invoice,
			Description:      retail.StringPtr(product),
			Quantity:         qty,
			UnitPrice:        decimal.RequireFromString(price),
			InvoiceTimestamp: lastDay.AddDate(0, 0, -daysAgo),
		})
	}

	for c := 0; c < 12; c++ {
		id := fmt.Sprintf("loyal-%02d", c)
		for i := 0; i < 30+c%3; i++ {
			add(id, fmt.Sprintf("L%02d%03d", c, i), fmt.Sprintf("CANDLE %d", i%6), c%4+i*3, 6, "4.25")
		}
	}
	for c := 0; c < 12; c++ {
		id := fmt.Sprintf("lapsed-%02d", c)
		add(id, fmt.Sprintf("P%02d", c), fmt.Sprintf("MUG %d", c%3), 280+c*2, 1+c%2, "2.10")
	}
	for c := 0; c < 12; c++ {
		id := fmt.Sprintf("middle-%02d", c)
		for i := 0; i < 6+c%2; i++ {
			add(id, fmt.Sprintf("M%02d%d", c, i), fmt.Sprintf("LANTERN %d", i%3), 85+c+i, 2, "9.95")
		}
	}

	// Rows the cleaner drops.
	add("loyal-00", "C999", "CANDLE 0", 1, 3, "4.25")
	out = append(out, retail.TransactionRecord{
		InvoiceID:        "N1",
		Description:      retail.StringPtr("MUG 0"),
		Quantity:         1,
		UnitPrice:        decimal.NewFromInt(1),
		InvoiceTimestamp: lastDay,
	})
	add("middle-00", "Z1", "LANTERN 0", 3, 0, "1.00")
	return out
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Segment.K = 3
	return cfg
}

func TestRun(t *testing.T) {
	res, err := Run(context.Background(), syntheticRecords(), testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.CleanStats.Dropped() != 3 {
		t.Errorf("Dropped() = %d, want 3", res.CleanStats.Dropped())
	}
	if len(res.Profiles) != 36 {
		t.Errorf("profiles = %d, want 36", len(res.Profiles))
	}
	if len(res.Assignments) != len(res.Profiles) {
		t.Errorf("assignments = %d, want %d", len(res.Assignments), len(res.Profiles))
	}
	if res.DBSCAN == nil {
		t.Error("DBSCAN result missing with DBSCAN enabled")
	}

	info := res.Bundle.Info()
	if info.RunID == "" || info.Customers != 36 || info.Products != 6+3+3 {
		t.Errorf("Info = %+v", info)
	}

	sizes := res.SizesByLabel()
	if sizes[string(segment.HighValue)] != 12 || sizes[string(segment.HighRisk)] != 12 {
		t.Errorf("SizesByLabel() = %v, want 12 high value and 12 high risk", sizes)
	}

	_, label := res.Bundle.PredictSegment(segment.Point{3, 35, 800})
	if label != segment.HighValue {
		t.Errorf("PredictSegment(loyal-like) = %q, want %q", label, segment.HighValue)
	}
	_, label = res.Bundle.PredictSegment(segment.Point{320, 1, 3})
	if label != segment.HighRisk {
		t.Errorf("PredictSegment(lapsed-like) = %q, want %q", label, segment.HighRisk)
	}

	recs, err := res.Bundle.Recommend("CANDLE 0", 3)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("Recommend() = %v, want 3 items", recs)
	}
	for _, r := range recs {
		if r.Product == "CANDLE 0" {
			t.Error("Recommend() returned the query product")
		}
		if r.Score <= 0 {
			t.Errorf("Recommend() item %+v, want co-purchased candle", r)
		}
	}

	if _, err := res.Bundle.Recommend("NOT A PRODUCT", 3); !errors.Is(err, retail.ErrProductNotFound) {
		t.Errorf("Recommend(unknown) error = %v, want ErrProductNotFound", err)
	}
}

func TestRun_RunIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	ctx := logging.ContextWithRunID(context.Background(), "run-fixed")

	res, err := Run(ctx, syntheticRecords(), testConfig(), logger)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := res.Bundle.Info().RunID; got != "run-fixed" {
		t.Errorf("RunID = %q, want run-fixed", got)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) < 5 {
		t.Fatalf("got %d log lines, want clean, rfm, segment, similarity and summary", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, `"run_id":"run-fixed"`) {
			t.Errorf("log line without run_id: %s", line)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	a, err := Run(context.Background(), syntheticRecords(), testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	b, err := Run(context.Background(), syntheticRecords(), testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	ca, cb := a.Bundle.Segmenter().Centroids(), b.Bundle.Segmenter().Centroids()
	for i := range ca {
		if ca[i] != cb[i] {
			t.Errorf("centroid %d differs: %v vs %v", i, ca[i], cb[i])
		}
	}
	for _, p := range a.Bundle.Similarity().Products() {
		ra, _ := a.Bundle.Recommend(p, 5)
		rb, _ := b.Bundle.Recommend(p, 5)
		for i := range ra {
			if ra[i] != rb[i] {
				t.Errorf("Recommend(%s)[%d] differs: %v vs %v", p, i, ra[i], rb[i])
			}
		}
	}
}

func TestRun_Errors(t *testing.T) {
	tooManyClusters := testConfig()
	tooManyClusters.Segment.K = 100

	tests := []struct {
		name    string
		records []retail.TransactionRecord
		cfg     Config
		want    error
	}{
		{"no records", nil, testConfig(), retail.ErrEmptyInput},
		{"everything cancelled", []retail.TransactionRecord{{
			CustomerID: retail.StringPtr("a"), InvoiceID: "C1", Quantity: 1,
			UnitPrice: decimal.NewFromInt(1), InvoiceTimestamp: lastDay,
		}}, testConfig(), retail.ErrEmptyInput},
		{"missing invoice", []retail.TransactionRecord{{CustomerID: retail.StringPtr("a")}}, testConfig(), retail.ErrDataIntegrity},
		{"k too large", syntheticRecords(), tooManyClusters, retail.ErrClustering},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), tt.records, tt.cfg, zerolog.Nop())
			if !errors.Is(err, tt.want) {
				t.Errorf("Run() error = %v, want %v", err, tt.want)
			}
		})
	}
}

type failingSource struct{}

func (failingSource) LoadRawRecords(context.Context) ([]retail.TransactionRecord, error) {
	return nil, errors.New("source offline")
}

func TestTrain(t *testing.T) {
	res, err := Train(context.Background(), SliceSource(syntheticRecords()), testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if res.Bundle == nil {
		t.Fatal("Train() returned nil bundle")
	}

	if _, err := Train(context.Background(), failingSource{}, testConfig(), zerolog.Nop()); err == nil {
		t.Error("Train() with failing source expected error")
	}
}

func TestBundle_SaveLoad(t *testing.T) {
	res, err := Run(context.Background(), syntheticRecords(), testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	fileStore, err := artifacts.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	badgerStore, err := artifacts.OpenBadgerStore(artifacts.BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadgerStore() error = %v", err)
	}
	t.Cleanup(func() { _ = badgerStore.Close() })

	for name, store := range map[string]artifacts.Store{"file": fileStore, "badger": badgerStore} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			saved, meta, err := SaveBundle(ctx, store, res.Bundle)
			if err != nil {
				t.Fatalf("SaveBundle() error = %v", err)
			}
			if meta.Version != 1 || saved.Info().Version != 1 {
				t.Errorf("version = %d / %d, want 1", meta.Version, saved.Info().Version)
			}
			if meta.Clusters != 3 || meta.Customers != 36 {
				t.Errorf("metadata = %+v", meta)
			}
			_, meta, err = SaveBundle(ctx, store, res.Bundle)
			if err != nil {
				t.Fatalf("second SaveBundle() error = %v", err)
			}
			if meta.Version != 2 {
				t.Errorf("second save version = %d, want 2", meta.Version)
			}

			loaded, _, err := LoadBundle(ctx, store, 0)
			if err != nil {
				t.Fatalf("LoadBundle() error = %v", err)
			}
			if loaded.Info().Version != 2 || loaded.Info().RunID != res.Bundle.Info().RunID {
				t.Errorf("loaded info = %+v", loaded.Info())
			}

			for _, a := range res.Assignments {
				c, l := loaded.PredictSegment(segment.Point(a.Profile.Triple()))
				if c != a.Cluster || l != a.Label {
					t.Errorf("customer %s: loaded (%d,%s), fitted (%d,%s)", a.Profile.CustomerID, c, l, a.Cluster, a.Label)
				}
			}
			want, _ := res.Bundle.Recommend("LANTERN 1", 5)
			got, err := loaded.Recommend("LANTERN 1", 5)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("Recommend()[%d] = %v, want %v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestNewBundle_Validation(t *testing.T) {
	res, err := Run(context.Background(), syntheticRecords(), testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := NewBundle(nil, res.Bundle.Similarity(), Info{}); err == nil {
		t.Error("NewBundle(nil segmenter) expected error")
	}
	if _, err := NewBundle(res.Bundle.Segmenter(), nil, Info{}); err == nil {
		t.Error("NewBundle(nil similarity) expected error")
	}
	b, err := NewBundle(res.Bundle.Segmenter(), res.Bundle.Similarity(), Info{})
	if err != nil {
		t.Fatalf("NewBundle() error = %v", err)
	}
	if b.Info().Products != res.Bundle.Similarity().Len() {
		t.Errorf("Products = %d, want derived from matrix", b.Info().Products)
	}
}

func TestHolder(t *testing.T) {
	h := NewHolder(nil)
	if h.Current() != nil {
		t.Fatal("Current() on empty holder should be nil")
	}

	res, err := Run(context.Background(), syntheticRecords(), testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.Swap(res.Bundle)
		}()
		go func() {
			defer wg.Done()
			if b := h.Current(); b != nil {
				_, _ = b.Recommend("CANDLE 1", 2)
			}
		}()
	}
	wg.Wait()

	if h.Current() != res.Bundle {
		t.Error("Current() did not return the published bundle")
	}
	if h.Swaps() != 8 {
		t.Errorf("Swaps() = %d, want 8", h.Swaps())
	}
}
