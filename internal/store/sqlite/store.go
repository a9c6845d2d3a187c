// Package sqlite implements the catalog store on SQLite for local runs and
// tests. It uses the pure-Go modernc.org/sqlite driver through database/sql.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/CatalogImport/internal/catalog"
	"github.com/JonMunkholm/CatalogImport/internal/core"
)

//go:embed schema.sql
var schema string

// maxLookupParams keeps IN lists well under SQLite's bound parameter limit.
const maxLookupParams = 500

const upsertProduct = `
INSERT INTO catalog_products (sku, product_id, name, product_code, category, image_url, imported_by, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (sku) DO UPDATE SET
    product_id   = excluded.product_id,
    name         = excluded.name,
    product_code = excluded.product_code,
    category     = excluded.category,
    image_url    = excluded.image_url,
    imported_by  = excluded.imported_by,
    updated_at   = excluded.updated_at`

const insertRun = `
INSERT INTO catalog_import_runs (id, imported_by, parsed_products, dropped_products, imported,
    with_image, without_image, image_mappings, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Store is a core.Store backed by a SQLite database.
type Store struct {
	db *sql.DB
}

var _ core.Store = (*Store)(nil)

// Open opens the SQLite database at dsn, a file path, file: URI or
// ":memory:". SQLite allows one writer at a time, so the pool is limited to
// a single connection; this also keeps an in-memory database alive for the
// life of the Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}

	return &Store{db: db}, nil
}

// DSNFromURL converts a sqlite://path DATABASE_URL to a driver DSN. file:
// URIs are passed through unchanged.
func DSNFromURL(url string) string {
	if rest, ok := strings.CutPrefix(url, "sqlite://"); ok {
		return rest
	}
	return url
}

// Migrate creates the catalog tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Reset deletes all catalog products and import runs.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"catalog_products", "catalog_import_runs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ExistingEntries implements core.Store.
func (s *Store) ExistingEntries(ctx context.Context, skus []string) (map[string]catalog.ExistingEntry, error) {
	entries := make(map[string]catalog.ExistingEntry, len(skus))

	for start := 0; start < len(skus); start += maxLookupParams {
		end := min(start+maxLookupParams, len(skus))
		if err := s.lookup(ctx, skus[start:end], entries); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

func (s *Store) lookup(ctx context.Context, skus []string, into map[string]catalog.ExistingEntry) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(skus)), ",")
	args := make([]any, len(skus))
	for i, sku := range skus {
		args[i] = sku
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sku, product_code, category FROM catalog_products WHERE sku IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("query existing entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sku      string
			code     sql.NullString
			category string
		)
		if err := rows.Scan(&sku, &code, &category); err != nil {
			return fmt.Errorf("scan existing entry: %w", err)
		}
		into[sku] = catalog.ExistingEntry{
			SKU:         sku,
			ProductCode: code.String,
			Category:    category,
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read existing entries: %w", err)
	}
	return nil
}

// Upsert implements core.Store. All records are written in one transaction.
func (s *Store) Upsert(ctx context.Context, batch []catalog.UpsertRecord) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertProduct)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range batch {
		_, err := stmt.ExecContext(ctx,
			r.SKU,
			r.ProductID,
			r.Name,
			nullString(r.ProductCode),
			r.Category,
			nullString(r.ImageURL),
			nullString(r.ImportedBy),
		)
		if err != nil {
			return fmt.Errorf("upsert sku %q: %w", r.SKU, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RecordImport implements core.Store.
func (s *Store) RecordImport(ctx context.Context, run core.ImportRun) error {
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, insertRun,
		run.ID,
		nullString(run.ImportedBy),
		run.Summary.ParsedProducts,
		run.Summary.DroppedProducts,
		run.Summary.Imported,
		run.Summary.WithImage,
		run.Summary.WithoutImage,
		run.Summary.ImageMappings,
		run.Duration.Milliseconds(),
		createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert import run: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
