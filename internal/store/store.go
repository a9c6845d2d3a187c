// Package store opens the catalog store named by DATABASE_URL.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/CatalogImport/internal/config"
	"github.com/JonMunkholm/CatalogImport/internal/core"
	"github.com/JonMunkholm/CatalogImport/internal/store/postgres"
	"github.com/JonMunkholm/CatalogImport/internal/store/sqlite"
)

// Store is a core.Store that can create its schema, delete its data and
// release resources.
type Store interface {
	core.Store
	Migrate(ctx context.Context) error
	Reset(ctx context.Context) error
	Close() error
}

// Open connects to the backend selected by the scheme of cfg.URL.
// batchSize applies to PostgreSQL upserts.
func Open(ctx context.Context, cfg config.DatabaseConfig, batchSize int) (Store, error) {
	switch cfg.Driver() {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return postgres.New(pool, batchSize), nil

	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, sqlite.DSNFromURL(cfg.URL))
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported database url scheme in %q", redact(cfg.URL))
	}
}

// redact keeps only the scheme of a database URL for error messages.
func redact(url string) string {
	scheme, _, ok := strings.Cut(url, ":")
	if !ok {
		return "..."
	}
	return scheme + "://..."
}
