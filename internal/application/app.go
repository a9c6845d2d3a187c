// Package application assembles the store, import service and source opener
// from configuration. Both the HTTP server and the CLI start here.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/CatalogImport/internal/catalog"
	"github.com/JonMunkholm/CatalogImport/internal/config"
	"github.com/JonMunkholm/CatalogImport/internal/core"
	"github.com/JonMunkholm/CatalogImport/internal/source"
	"github.com/JonMunkholm/CatalogImport/internal/store"
)

// App holds the wired components of a running process.
type App struct {
	Config  *config.Config
	Store   store.Store
	Service *core.Service
	Opener  *source.Opener
}

// New opens the store, creates its schema and builds the import service.
// The caller must Close the App.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	urlFor, err := catalog.NewTemplateURL(cfg.Import.ImageURLTemplate)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Database, cfg.Import.BatchSize)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	slog.Info("connected to database", "driver", cfg.Database.Driver())

	s3Client, err := source.NewS3Client(ctx, cfg.Storage)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	limiter := core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime)
	service := core.NewService(st, urlFor, core.Options{
		Limiter: limiter,
		Timeout: cfg.Import.Timeout,
	})

	return &App{
		Config:  cfg,
		Store:   st,
		Service: service,
		Opener:  source.NewOpener(s3Client),
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
