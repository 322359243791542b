// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

// Package logging configures the process-wide zerolog logger.
//
// Commands call Init once from main with the values of the logging config
// section. Components derive child loggers with Component and pass them
// down explicitly; request handlers use Ctx to pick up the request ID
// stored by the API middleware.
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	log := logging.Component("trainer")
//	log.Info().Int("customers", n).Msg("model trained")
//
// Libraries that want a *slog.Logger (the suture supervisor) get one from
// NewSlogLogger, which forwards records to zerolog.
package logging
