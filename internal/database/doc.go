// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

/*
Package database wraps DuckDB for the two places the pipeline touches SQL.

CSVSource reads the retail export through DuckDB's read_csv (which handles
the latin-1 encoding of the public Online Retail file) and turns rows into
retail.TransactionRecord values. A file missing one of the required columns
fails with a *retail.DataIntegrityError whose Row is -1.

WriteReports stores the results of a training run in three tables:

	training_runs       one row per run
	customer_segments   RFM values, cluster and label per customer
	product_neighbors   top-N most similar products per product

Reports are keyed by run ID, so rewriting a run replaces its rows and
earlier runs stay queryable.
*/
package database
