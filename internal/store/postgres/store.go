// Package postgres implements the catalog store on PostgreSQL using pgx.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/CatalogImport/internal/catalog"
	"github.com/JonMunkholm/CatalogImport/internal/config"
	"github.com/JonMunkholm/CatalogImport/internal/core"
)

//go:embed schema.sql
var schema string

// DefaultBatchSize is used when New is given a non-positive batch size.
const DefaultBatchSize = 500

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

const selectExisting = `
SELECT sku, product_code, category
FROM catalog_products
WHERE sku = ANY($1)`

const upsertProduct = `
INSERT INTO catalog_products (sku, product_id, name, product_code, category, image_url, imported_by, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (sku) DO UPDATE SET
    product_id   = EXCLUDED.product_id,
    name         = EXCLUDED.name,
    product_code = EXCLUDED.product_code,
    category     = EXCLUDED.category,
    image_url    = EXCLUDED.image_url,
    imported_by  = EXCLUDED.imported_by,
    updated_at   = EXCLUDED.updated_at`

const insertRun = `
INSERT INTO catalog_import_runs (id, imported_by, parsed_products, dropped_products, imported,
    with_image, without_image, image_mappings, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()))`

// Store is a core.Store backed by a pgx connection pool.
type Store struct {
	pool      *pgxpool.Pool
	batchSize int
}

var _ core.Store = (*Store)(nil)

// Connect opens a pool tuned from cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// New wraps pool. Upserts are sent batchSize statements per round trip.
func New(pool *pgxpool.Pool, batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Store{pool: pool, batchSize: batchSize}
}

// Migrate creates the catalog tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Reset deletes all catalog products and import runs.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "TRUNCATE catalog_products, catalog_import_runs"); err != nil {
		return fmt.Errorf("truncate catalog: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ExistingEntries implements core.Store.
func (s *Store) ExistingEntries(ctx context.Context, skus []string) (map[string]catalog.ExistingEntry, error) {
	return existingEntries(ctx, s.pool, skus)
}

func existingEntries(ctx context.Context, db DBTX, skus []string) (map[string]catalog.ExistingEntry, error) {
	entries := make(map[string]catalog.ExistingEntry, len(skus))
	if len(skus) == 0 {
		return entries, nil
	}

	rows, err := db.Query(ctx, selectExisting, skus)
	if err != nil {
		return nil, fmt.Errorf("query existing entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sku      string
			code     pgtype.Text
			category string
		)
		if err := rows.Scan(&sku, &code, &category); err != nil {
			return nil, fmt.Errorf("scan existing entry: %w", err)
		}
		entries[sku] = catalog.ExistingEntry{
			SKU:         sku,
			ProductCode: code.String,
			Category:    category,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read existing entries: %w", err)
	}

	return entries, nil
}

// Upsert implements core.Store. All records are written in one transaction,
// queued in batches; any failure rolls the whole import back.
func (s *Store) Upsert(ctx context.Context, batch []catalog.UpsertRecord) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for start := 0; start < len(batch); start += s.batchSize {
		end := min(start+s.batchSize, len(batch))
		if err := sendBatch(ctx, tx, batch[start:end]); err != nil {
			return fmt.Errorf("records %d-%d: %w", start+1, end, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func sendBatch(ctx context.Context, tx pgx.Tx, records []catalog.UpsertRecord) error {
	batch := queueUpserts(records)

	br := tx.SendBatch(ctx, batch)
	for i := range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert sku %q: %w", records[i].SKU, err)
		}
	}
	return br.Close()
}

func queueUpserts(records []catalog.UpsertRecord) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(upsertProduct,
			r.SKU,
			r.ProductID,
			r.Name,
			ToPgText(r.ProductCode),
			r.Category,
			ToPgText(r.ImageURL),
			ToPgText(r.ImportedBy),
		)
	}
	return batch
}

// RecordImport implements core.Store.
func (s *Store) RecordImport(ctx context.Context, run core.ImportRun) error {
	_, err := s.pool.Exec(ctx, insertRun,
		run.ID,
		ToPgText(run.ImportedBy),
		run.Summary.ParsedProducts,
		run.Summary.DroppedProducts,
		run.Summary.Imported,
		run.Summary.WithImage,
		run.Summary.WithoutImage,
		run.Summary.ImageMappings,
		run.Duration.Milliseconds(),
		pgtype.Timestamptz{Time: run.CreatedAt, Valid: !run.CreatedAt.IsZero()},
	)
	if err != nil {
		return fmt.Errorf("insert import run: %w", err)
	}
	return nil
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid (NULL) if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}
