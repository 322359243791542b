// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

// Package services adapts server components to suture.Service.
//
// HTTPServerService translates http.Server's blocking ListenAndServe into
// a context-aware Serve with graceful shutdown. TrainingService retrains
// the model on a schedule behind a circuit breaker, persists each bundle
// and publishes it to the shared pipeline.Holder.
package services
