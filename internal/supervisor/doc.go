// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

/*
Package supervisor runs the long-lived parts of the server under a
suture supervisor tree.

	shopper-spectrum (root)
	├── training-layer
	│   └── training-service   periodic retrain, publish to the holder
	└── api-layer
	    └── http-server        chi router

A panic or error in one layer restarts only that service. Supervisor
events are logged through sutureslog into the zerolog logger via
logging.NewSlogLogger.
*/
package supervisor
