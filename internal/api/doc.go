// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

/*
Package api serves the trained model over HTTP.

The router is built on go-chi/chi with go-chi/cors for CORS and
go-chi/httprate for per-IP rate limiting. Handlers read the active model
from a pipeline.Holder on every request, so a retrain published by the
supervisor is visible without restarting the server.

# Endpoints

	GET  /health                                  liveness and model status
	GET  /health/ready                            503 until a model is loaded
	GET  /metrics                                 Prometheus metrics
	GET  /api/v1/model                            active model information
	GET  /api/v1/products?prefix=&limit=          product catalogue
	GET  /api/v1/products/{id}/recommendations?k= similar products
	GET  /api/v1/recommendations?product=&k=      same, for names containing '/'
	GET  /api/v1/segments/clusters                fitted clusters and labels
	POST /api/v1/segments/predict                 segment for an RFM triple

All JSON responses use the models.APIResponse envelope.
*/
package api
