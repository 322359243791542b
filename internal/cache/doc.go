// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

// Package cache provides a bounded, thread-safe LRU cache with per-entry TTL.
//
// Get and Add are O(1): a map indexes nodes of a doubly-linked list
// ordered from most to least recently used. Expired entries are dropped
// lazily on access or in bulk with CleanupExpired.
package cache
