// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomtom215/shopper-spectrum/internal/logging"
	"github.com/tomtom215/shopper-spectrum/internal/pipeline"
	"github.com/tomtom215/shopper-spectrum/internal/recommend"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS training_runs (
		run_id        VARCHAR PRIMARY KEY,
		trained_at    TIMESTAMP NOT NULL,
		transactions  INTEGER NOT NULL,
		customers     INTEGER NOT NULL,
		products      INTEGER NOT NULL,
		clusters      INTEGER NOT NULL,
		inertia       DOUBLE NOT NULL,
		duration_ms   BIGINT NOT NULL,
		rows_input    INTEGER NOT NULL,
		rows_dropped  INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS customer_segments (
		run_id        VARCHAR NOT NULL,
		customer_id   VARCHAR NOT NULL,
		recency_days  INTEGER NOT NULL,
		frequency     INTEGER NOT NULL,
		monetary      DECIMAL(18, 2) NOT NULL,
		cluster       INTEGER NOT NULL,
		label         VARCHAR NOT NULL,
		PRIMARY KEY (run_id, customer_id)
	)`,
	`CREATE TABLE IF NOT EXISTS product_neighbors (
		run_id        VARCHAR NOT NULL,
		product       VARCHAR NOT NULL,
		neighbor_rank INTEGER NOT NULL,
		neighbor      VARCHAR NOT NULL,
		score         DOUBLE NOT NULL,
		PRIMARY KEY (run_id, product, neighbor_rank)
	)`,
}

func (db *DB) initSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ReportStats counts the rows written by WriteReports.
type ReportStats struct {
	Customers int
	Neighbors int
}

// WriteReports stores a run's summary, customer segments and the top
// neighbors of every product in one transaction. Existing rows for the
// same run ID are replaced.
func (db *DB) WriteReports(ctx context.Context, res *pipeline.Result, neighbors int) (stats ReportStats, err error) {
	if res == nil || res.Bundle == nil {
		return stats, errors.New("write reports: no training result")
	}
	info := res.Bundle.Info()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("report rollback failed")
			}
		}
	}()

	for _, table := range []string{"training_runs", "customer_segments", "product_neighbors"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", info.RunID); err != nil {
			return stats, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	seg := res.Bundle.Segmenter()
	_, err = tx.ExecContext(ctx, `INSERT INTO training_runs
		(run_id, trained_at, transactions, customers, products, clusters, inertia, duration_ms, rows_input, rows_dropped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		info.RunID, info.TrainedAt, info.Transactions, info.Customers, info.Products,
		seg.K(), seg.Inertia(), info.Duration.Milliseconds(), info.Clean.Input, info.Clean.Dropped())
	if err != nil {
		return stats, fmt.Errorf("insert training run: %w", err)
	}

	if stats.Customers, err = insertSegments(ctx, tx, info.RunID, res); err != nil {
		return stats, err
	}
	if stats.Neighbors, err = insertNeighbors(ctx, tx, info.RunID, res.Bundle.Similarity(), neighbors); err != nil {
		return stats, err
	}

	if err = tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit reports: %w", err)
	}
	return stats, nil
}

func insertSegments(ctx context.Context, tx *sql.Tx, runID string, res *pipeline.Result) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO customer_segments
		(run_id, customer_id, recency_days, frequency, monetary, cluster, label)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare customer_segments insert: %w", err)
	}
	defer closeQuietly(stmt)

	for _, a := range res.Assignments {
		p := a.Profile
		if _, err := stmt.ExecContext(ctx, runID, p.CustomerID, p.RecencyDays, p.Frequency,
			p.Monetary.StringFixed(2), a.Cluster, string(a.Label)); err != nil {
			return 0, fmt.Errorf("insert segment for %s: %w", p.CustomerID, err)
		}
	}
	return len(res.Assignments), nil
}

func insertNeighbors(ctx context.Context, tx *sql.Tx, runID string, m *recommend.SimilarityMatrix, depth int) (int, error) {
	if depth <= 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO product_neighbors
		(run_id, product, neighbor_rank, neighbor, score) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare product_neighbors insert: %w", err)
	}
	defer closeQuietly(stmt)

	n := 0
	for _, product := range m.Products() {
		recs, err := recommend.Recommend(m, product, depth)
		if err != nil {
			return n, err
		}
		for rank, r := range recs {
			if _, err := stmt.ExecContext(ctx, runID, product, rank+1, r.Product, r.Score); err != nil {
				return n, fmt.Errorf("insert neighbors for %s: %w", product, err)
			}
			n++
		}
	}
	return n, nil
}

// SegmentCounts returns customers per label for a run.
func (db *DB) SegmentCounts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT label, COUNT(*) FROM customer_segments WHERE run_id = ? GROUP BY label`, runID)
	if err != nil {
		return nil, fmt.Errorf("query segment counts: %w", err)
	}
	defer closeQuietly(rows)

	out := make(map[string]int)
	for rows.Next() {
		var (
			label string
			n     int
		)
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		out[label] = n
	}
	return out, rows.Err()
}

// Neighbors returns the stored neighbors of product for a run, best first.
func (db *DB) Neighbors(ctx context.Context, runID, product string) ([]recommend.ScoredProduct, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT neighbor, score FROM product_neighbors WHERE run_id = ? AND product = ? ORDER BY neighbor_rank`,
		runID, product)
	if err != nil {
		return nil, fmt.Errorf("query neighbors: %w", err)
	}
	defer closeQuietly(rows)

	var out []recommend.ScoredProduct
	for rows.Next() {
		var sp recommend.ScoredProduct
		if err := rows.Scan(&sp.Product, &sp.Score); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// LatestRunID returns the most recently trained run, or "" when none.
func (db *DB) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := db.conn.QueryRowContext(ctx,
		`SELECT run_id FROM training_runs ORDER BY trained_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}
