// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/shopper-spectrum/internal/retail"
)

// Required CSV columns, as named in the Online Retail export.
const (
	ColInvoice     = "InvoiceNo"
	ColDescription = "Description"
	ColQuantity    = "Quantity"
	ColInvoiceDate = "InvoiceDate"
	ColUnitPrice   = "UnitPrice"
	ColCustomer    = "CustomerID"
)

// RequiredColumns lists every column CSVSource reads.
var RequiredColumns = []string{ColInvoice, ColDescription, ColQuantity, ColInvoiceDate, ColUnitPrice, ColCustomer}

// CSVSource loads transaction records from a CSV file via DuckDB.
type CSVSource struct {
	db *DB

	// Path of the CSV file.
	Path string

	// Encoding is passed to read_csv: latin-1, utf-8 or utf-16.
	Encoding string

	// DateFormat is a strptime format for InvoiceDate. Empty casts the
	// column to TIMESTAMP instead.
	DateFormat string
}

// CSVSource returns a source reading path through this database.
func (db *DB) CSVSource(path, encoding, dateFormat string) *CSVSource {
	return &CSVSource{db: db, Path: path, Encoding: encoding, DateFormat: dateFormat}
}

func (s *CSVSource) relation() string {
	enc := s.Encoding
	if enc == "" {
		enc = "utf-8"
	}
	return fmt.Sprintf("read_csv(%s, header = true, all_varchar = true, encoding = %s)",
		quoteLiteral(s.Path), quoteLiteral(enc))
}

// Columns returns the header of the CSV file.
func (s *CSVSource) Columns(ctx context.Context) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx, "SELECT * FROM "+s.relation()+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("read csv header %s: %w", s.Path, err)
	}
	defer closeQuietly(rows)
	return rows.Columns()
}

// LoadRawRecords reads every row. A row whose date cannot be parsed fails
// with a *retail.DataIntegrityError naming the row. Blank or malformed
// quantities and prices are reported in TransactionRecord.Unparseable.
func (s *CSVSource) LoadRawRecords(ctx context.Context) ([]retail.TransactionRecord, error) {
	cols, err := s.Columns(ctx)
	if err != nil {
		return nil, err
	}
	if missing := missingColumns(cols); len(missing) > 0 {
		return nil, &retail.DataIntegrityError{Fields: missing, Row: -1}
	}

	ts := fmt.Sprintf("TRY_CAST(%s AS TIMESTAMP)", quoteIdent(ColInvoiceDate))
	if s.DateFormat != "" {
		ts = fmt.Sprintf("try_strptime(%s, %s)", quoteIdent(ColInvoiceDate), quoteLiteral(s.DateFormat))
	}
	query := fmt.Sprintf(`SELECT
		NULLIF(TRIM(%s), ''),
		TRIM(%s),
		%s,
		TRY_CAST(%s AS BIGINT),
		TRIM(%s),
		%s
	FROM %s`,
		quoteIdent(ColCustomer),
		quoteIdent(ColInvoice),
		quoteIdent(ColDescription),
		quoteIdent(ColQuantity),
		quoteIdent(ColUnitPrice),
		ts,
		s.relation(),
	)

	rows, err := s.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", s.Path, err)
	}
	defer closeQuietly(rows)

	var out []retail.TransactionRecord
	for i := 0; rows.Next(); i++ {
		var (
			customer, invoice, desc, price sql.NullString
			qty                            sql.NullInt64
			at                             sql.NullTime
		)
		if err := rows.Scan(&customer, &invoice, &desc, &qty, &price, &at); err != nil {
			return nil, fmt.Errorf("scan csv row %d: %w", i, err)
		}

		if !at.Valid {
			return nil, &retail.DataIntegrityError{Fields: []string{ColInvoiceDate}, Row: i}
		}

		// Blank or malformed numerics stay in the result flagged, so the
		// cleaner drops and counts them instead of failing the whole load.
		var unparseable []string
		if !qty.Valid {
			unparseable = append(unparseable, ColQuantity)
		}
		unitPrice, perr := decimal.NewFromString(strings.TrimSpace(price.String))
		if perr != nil {
			unparseable = append(unparseable, ColUnitPrice)
			unitPrice = decimal.Zero
		}

		rec := retail.TransactionRecord{
			InvoiceID:        invoice.String,
			Quantity:         int(qty.Int64),
			UnitPrice:        unitPrice,
			InvoiceTimestamp: at.Time.UTC(),
			Unparseable:      unparseable,
		}
		if customer.Valid {
			rec.CustomerID = retail.StringPtr(normalizeCustomerID(customer.String))
		}
		if desc.Valid {
			rec.Description = retail.StringPtr(desc.String)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read csv %s: %w", s.Path, err)
	}
	return out, nil
}

func missingColumns(have []string) []string {
	set := make(map[string]bool, len(have))
	for _, c := range have {
		set[strings.TrimSpace(c)] = true
	}
	var missing []string
	for _, c := range RequiredColumns {
		if !set[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// normalizeCustomerID strips the ".0" suffix left by spreadsheet exports
// that stored customer IDs as floats.
func normalizeCustomerID(id string) string {
	if trimmed, ok := strings.CutSuffix(id, ".0"); ok && trimmed != "" {
		return trimmed
	}
	return id
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
