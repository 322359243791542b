// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

// Package artifacts persists trained model artifacts.
//
// Artifacts are gob-encoded, gzip-compressed and stored together with a
// Metadata record that carries a SHA-256 checksum of the uncompressed
// payload. Load verifies the checksum before decoding.
//
// Two backends implement Store:
//
//   - FileStore writes one file per artifact version:
//     {name}_v{version}.gob.gz
//   - BadgerStore keeps every version in an embedded BadgerDB under
//     artifact/{name}/{version}
//
// Versions are positive and monotonically increasing per name. Loading
// version 0 returns the latest version.
//
// # Usage
//
//	store, err := artifacts.NewFileStore("/data/models")
//	meta, err := store.Save(ctx, "bundle", 3, state, artifacts.Metadata{TrainedAt: now})
//
//	var restored State
//	meta, err = store.Load(ctx, "bundle", 0, &restored) // latest
package artifacts
