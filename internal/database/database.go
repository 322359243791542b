// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/shopper-spectrum/internal/logging"
)

// Config configures the DuckDB connection.
type Config struct {
	// Path is the database file. Empty opens an in-memory database.
	Path string

	// MaxMemory is DuckDB's max_memory setting, e.g. "1GB". Empty keeps
	// DuckDB's default.
	MaxMemory string

	// Threads defaults to runtime.NumCPU() when <= 0.
	Threads int
}

// DB wraps a DuckDB connection pool.
type DB struct {
	conn *sql.DB
	path string
}

// Open connects to DuckDB and creates the report schema.
//
//nolint:gocritic // Config is small and read once
func Open(ctx context.Context, cfg Config) (*DB, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	} else if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	params := url.Values{}
	params.Set("threads", strconv.Itoa(threads))
	params.Set("autoinstall_known_extensions", "false")
	params.Set("autoload_known_extensions", "false")
	if cfg.MaxMemory != "" {
		params.Set("max_memory", cfg.MaxMemory)
	}

	conn, err := sql.Open("duckdb", path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	db := &DB{conn: conn, path: cfg.Path}
	if err := db.initSchema(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logging.Debug().Str("path", path).Int("threads", threads).Msg("duckdb opened")
	return db, nil
}

// Conn returns the underlying pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close checkpoints file databases and closes the pool.
func (db *DB) Close() error {
	if db.path != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			logging.Warn().Err(err).Msg("duckdb checkpoint before close failed")
		}
	}
	return db.conn.Close()
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close() //nolint:errcheck // best-effort cleanup
	}
}
