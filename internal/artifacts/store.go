// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package artifacts

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrNotFound is returned when no artifact exists for a name/version.
var ErrNotFound = errors.New("artifact not found")

// ErrChecksumMismatch is returned when stored data fails verification.
var ErrChecksumMismatch = errors.New("artifact checksum mismatch")

// Metadata contains information about a stored artifact.
type Metadata struct {
	// Name is the artifact name (e.g., "bundle").
	Name string `json:"name"`

	// Version is the artifact version (monotonically increasing).
	Version int `json:"version"`

	// RunID identifies the training run that produced the artifact.
	RunID string `json:"run_id,omitempty"`

	// TrainedAt is when the artifact was produced.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the artifact was saved.
	SavedAt time.Time `json:"saved_at"`

	// Transactions is the number of cleaned transactions used.
	Transactions int `json:"transactions"`

	// Customers is the number of RFM profiles.
	Customers int `json:"customers"`

	// Products is the number of products in the similarity model.
	Products int `json:"products"`

	// Clusters is the number of k-means clusters.
	Clusters int `json:"clusters"`

	// Checksum is the SHA-256 checksum of the uncompressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// TrainingDurationMS is how long the run took.
	TrainingDurationMS int64 `json:"training_duration_ms"`
}

// Store persists versioned artifacts.
type Store interface {
	// Save stores data under name/version and returns the completed metadata.
	Save(ctx context.Context, name string, version int, data any, meta Metadata) (*Metadata, error)

	// Load decodes name/version into target. Version 0 loads the latest.
	Load(ctx context.Context, name string, version int, target any) (*Metadata, error)

	// LatestVersion returns the highest stored version of name.
	LatestVersion(ctx context.Context, name string) (int, bool, error)

	// List returns metadata for the latest version of every artifact.
	List(ctx context.Context) ([]Metadata, error)

	// Prune deletes all but the newest keep versions of name.
	Prune(ctx context.Context, name string, keep int) error

	// Close releases backend resources.
	Close() error
}

// record is the stored representation shared by all backends.
type record struct {
	Metadata       Metadata
	CompressedData []byte
}

// encode serializes data and fills the checksum, size and identity fields
// of meta.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func encode(name string, version int, data any, meta Metadata) (*record, error) {
	if name == "" {
		return nil, errors.New("artifact name is empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("artifact name %q must not contain path separators", name)
	}
	if version < 1 {
		return nil, fmt.Errorf("artifact version must be positive, got %d", version)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	raw := buf.Bytes()

	hash := sha256.Sum256(raw)
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress artifact: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now().UTC()
	meta.Name = name
	meta.Version = version

	return &record{Metadata: meta, CompressedData: compressed.Bytes()}, nil
}

// decode verifies and deserializes a record into target.
func decode(rec *record, target any) error {
	gzr, err := gzip.NewReader(bytes.NewReader(rec.CompressedData))
	if err != nil {
		return fmt.Errorf("decompress artifact: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(raw)
	if got := hex.EncodeToString(hash[:]); got != rec.Metadata.Checksum {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, rec.Metadata.Checksum, got)
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}
	return nil
}

func marshalRecord(rec *record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}

func unmarshalRecord(data []byte) (*record, error) {
	var rec record
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}
