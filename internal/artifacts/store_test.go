// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package artifacts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type testState struct {
	Products []string
	Scores   [][]float64
	Label    map[int]string
}

func sampleState(n int) testState {
	st := testState{Label: map[int]string{0: "High Value Customer", 1: "Occasional Shopper"}}
	for i := 0; i < n; i++ {
		st.Products = append(st.Products, string(rune('A'+i)))
		row := make([]float64, n)
		row[i] = 1
		st.Scores = append(st.Scores, row)
	}
	return st
}

type storeFactory struct {
	name string
	open func(t *testing.T) Store
}

func factories() []storeFactory {
	return []storeFactory{
		{
			name: "file",
			open: func(t *testing.T) Store {
				s, err := NewFileStore(filepath.Join(t.TempDir(), "models"))
				if err != nil {
					t.Fatalf("NewFileStore() error = %v", err)
				}
				return s
			},
		},
		{
			name: "badger",
			open: func(t *testing.T) Store {
				s, err := OpenBadgerStore(BadgerConfig{InMemory: true})
				if err != nil {
					t.Fatalf("OpenBadgerStore() error = %v", err)
				}
				t.Cleanup(func() { _ = s.Close() })
				return s
			},
		},
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)
			ctx := context.Background()

			trained := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			meta, err := store.Save(ctx, "bundle", 1, sampleState(3), Metadata{
				TrainedAt: trained,
				Customers: 42,
				RunID:     "run-1",
			})
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if meta.Checksum == "" || meta.SizeBytes == 0 {
				t.Errorf("Save() metadata = %+v, want checksum and size", meta)
			}
			if meta.Name != "bundle" || meta.Version != 1 {
				t.Errorf("Save() identity = %s v%d", meta.Name, meta.Version)
			}

			var got testState
			loaded, err := store.Load(ctx, "bundle", 1, &got)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if loaded.Customers != 42 || loaded.RunID != "run-1" || !loaded.TrainedAt.Equal(trained) {
				t.Errorf("Load() metadata = %+v", loaded)
			}
			if len(got.Products) != 3 || got.Scores[2][2] != 1 || got.Label[0] != "High Value Customer" {
				t.Errorf("Load() state = %+v", got)
			}
		})
	}
}

func TestStore_LoadLatest(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)
			ctx := context.Background()

			for _, v := range []int{1, 3, 2} {
				if _, err := store.Save(ctx, "bundle", v, sampleState(v), Metadata{}); err != nil {
					t.Fatalf("Save(v%d) error = %v", v, err)
				}
			}

			latest, ok, err := store.LatestVersion(ctx, "bundle")
			if err != nil || !ok || latest != 3 {
				t.Fatalf("LatestVersion() = %d, %v, %v; want 3, true, nil", latest, ok, err)
			}

			var got testState
			meta, err := store.Load(ctx, "bundle", 0, &got)
			if err != nil {
				t.Fatalf("Load(latest) error = %v", err)
			}
			if meta.Version != 3 || len(got.Products) != 3 {
				t.Errorf("Load(latest) version = %d, products = %d", meta.Version, len(got.Products))
			}
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)
			ctx := context.Background()

			var got testState
			if _, err := store.Load(ctx, "missing", 0, &got); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load(latest missing) error = %v, want ErrNotFound", err)
			}
			if _, err := store.Save(ctx, "bundle", 1, sampleState(1), Metadata{}); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if _, err := store.Load(ctx, "bundle", 7, &got); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load(v7) error = %v, want ErrNotFound", err)
			}
			if _, ok, _ := store.LatestVersion(ctx, "missing"); ok {
				t.Error("LatestVersion(missing) reported a version")
			}
		})
	}
}

func TestStore_InvalidArguments(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)
			ctx := context.Background()

			tests := []struct {
				name    string
				version int
			}{
				{"", 1},
				{"bundle", 0},
				{"bundle", -1},
				{"../escape", 1},
			}
			for _, tt := range tests {
				if _, err := store.Save(ctx, tt.name, tt.version, sampleState(1), Metadata{}); err == nil {
					t.Errorf("Save(%q, %d) expected error", tt.name, tt.version)
				}
			}
		})
	}
}

func TestStore_ListAndPrune(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)
			ctx := context.Background()

			for v := 1; v <= 5; v++ {
				if _, err := store.Save(ctx, "bundle", v, sampleState(2), Metadata{}); err != nil {
					t.Fatalf("Save() error = %v", err)
				}
			}
			if _, err := store.Save(ctx, "aux", 1, sampleState(1), Metadata{}); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			list, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(list) != 2 || list[0].Name != "aux" || list[1].Name != "bundle" || list[1].Version != 5 {
				t.Errorf("List() = %+v, want aux v1 and bundle v5", list)
			}

			if err := store.Prune(ctx, "bundle", 2); err != nil {
				t.Fatalf("Prune() error = %v", err)
			}
			var got testState
			for v := 1; v <= 3; v++ {
				if _, err := store.Load(ctx, "bundle", v, &got); !errors.Is(err, ErrNotFound) {
					t.Errorf("Load(v%d) after prune error = %v, want ErrNotFound", v, err)
				}
			}
			for v := 4; v <= 5; v++ {
				if _, err := store.Load(ctx, "bundle", v, &got); err != nil {
					t.Errorf("Load(v%d) after prune error = %v", v, err)
				}
			}
			if _, err := store.Load(ctx, "aux", 1, &got); err != nil {
				t.Errorf("Prune removed unrelated artifact: %v", err)
			}
		})
	}
}

func TestStore_Concurrent(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)
			ctx := context.Background()

			var wg sync.WaitGroup
			for v := 1; v <= 8; v++ {
				wg.Add(1)
				go func(v int) {
					defer wg.Done()
					if _, err := store.Save(ctx, "bundle", v, sampleState(2), Metadata{}); err != nil {
						t.Errorf("Save(v%d) error = %v", v, err)
					}
				}(v)
			}
			wg.Wait()

			latest, _, err := store.LatestVersion(ctx, "bundle")
			if err != nil || latest != 8 {
				t.Errorf("LatestVersion() = %d, %v; want 8", latest, err)
			}
		})
	}
}

func TestFileStore_ChecksumValidation(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()
	if _, err := store.Save(ctx, "bundle", 1, sampleState(2), Metadata{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Rewrite the record with a forged checksum.
	path := filepath.Join(dir, "bundle_v1.gob.gz")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	rec, err := unmarshalRecord(data)
	if err != nil {
		t.Fatalf("unmarshalRecord() error = %v", err)
	}
	rec.Metadata.Checksum = "deadbeef"
	forged, err := marshalRecord(rec)
	if err != nil {
		t.Fatalf("marshalRecord() error = %v", err)
	}
	if err := os.WriteFile(path, forged, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var got testState
	if _, err := store.Load(ctx, "bundle", 1, &got); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Load() error = %v, want ErrChecksumMismatch", err)
	}
}

func TestFileStore_ScansExisting(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()
	for v := 1; v <= 2; v++ {
		if _, err := first.Save(ctx, "bundle", v, sampleState(1), Metadata{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	second, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	latest, ok, _ := second.LatestVersion(ctx, "bundle")
	if !ok || latest != 2 {
		t.Errorf("LatestVersion() = %d, %v; want 2, true", latest, ok)
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		version int
		ok      bool
	}{
		{"bundle_v1.gob.gz", "bundle", 1, true},
		{"my_model_v12.gob.gz", "my_model", 12, true},
		{"bundle_v0.gob.gz", "", 0, false},
		{"bundle.gob.gz", "", 0, false},
		{"bundle_vx.gob.gz", "", 0, false},
		{"bundle_v1.gob", "", 0, false},
	}
	for _, tt := range tests {
		name, version, ok := parseFilename(tt.in)
		if name != tt.name || version != tt.version || ok != tt.ok {
			t.Errorf("parseFilename(%q) = (%q, %d, %v), want (%q, %d, %v)",
				tt.in, name, version, ok, tt.name, tt.version, tt.ok)
		}
	}
}
