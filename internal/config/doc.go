// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

/*
Package config loads Shopper Spectrum configuration.

Sources are layered with koanf, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: CONFIG_PATH, else the first of DefaultConfigPaths
 3. Environment variables

Environment variables map onto config keys by section prefix. The section
name is the first segment and the remainder is the field name:

	TRAINING_K=6                  -> training.k
	TRAINING_RULES_HIGH_RISK_MIN_RECENCY=120 -> training.rules.high_risk_min_recency
	RECOMMEND_CACHE_TTL=30m       -> recommend.cache_ttl
	SERVER_CORS_ORIGINS=a,b       -> server.cors_origins (comma separated)

A few short aliases are accepted as well: LOG_LEVEL, LOG_FORMAT,
DUCKDB_PATH, HTTP_ADDR. Variables that match no section are ignored.

# Example file

	data:
	  input_path: /data/online_retail.csv
	training:
	  k: 4
	  frequency: line_items
	  rules:
	    high_value_min_monetary: 50000
	recommend:
	  aggregation: sum
	artifacts:
	  backend: badger
	  path: /data/artifacts
	retrain:
	  enabled: true
	  interval: 24h

Load validates field constraints with the validation package and then
applies cross-field checks, so a returned *Config is always usable.
*/
package config
