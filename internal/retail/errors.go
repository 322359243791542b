// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package retail

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the pipeline error taxonomy. Typed errors below match
// their sentinel through errors.Is.
var (
	ErrDataIntegrity   = errors.New("data integrity violation")
	ErrEmptyInput      = errors.New("empty input")
	ErrClustering      = errors.New("clustering failed")
	ErrProductNotFound = errors.New("product not found")
)

// DataIntegrityError reports input that lacks required fields entirely.
type DataIntegrityError struct {
	// Fields lists the missing field or column names.
	Fields []string
	// Row is the zero-based index of the offending record, or -1 when the
	// problem is with the source schema as a whole.
	Row int
}

func (e *DataIntegrityError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("data integrity: missing required columns: %s", strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("data integrity: record %d missing required fields: %s", e.Row, strings.Join(e.Fields, ", "))
}

// Is matches ErrDataIntegrity.
func (e *DataIntegrityError) Is(target error) bool {
	return target == ErrDataIntegrity
}

// EmptyInputError reports a stage that received no rows to work with.
type EmptyInputError struct {
	Stage string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s: empty input", e.Stage)
}

// Is matches ErrEmptyInput.
func (e *EmptyInputError) Is(target error) bool {
	return target == ErrEmptyInput
}

// ClusteringError reports a segmentation request that cannot be satisfied.
type ClusteringError struct {
	Reason string
}

func (e *ClusteringError) Error() string {
	return "clustering: " + e.Reason
}

// Is matches ErrClustering.
func (e *ClusteringError) Is(target error) bool {
	return target == ErrClustering
}

// ProductNotFoundError reports a recommendation query for a product that is
// not part of the similarity model.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %q", e.ProductID)
}

// Is matches ErrProductNotFound.
func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}

// IsProductNotFound reports whether err is, or wraps, a ProductNotFoundError.
func IsProductNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}
