package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/CatalogImport/internal/catalog"
	"github.com/JonMunkholm/CatalogImport/internal/extract"
	"github.com/JonMunkholm/CatalogImport/internal/logging"
)

// ErrNoProducts is returned when the products export yields no valid rows.
// The accompanying ImportResult still carries the parse counts.
var ErrNoProducts = errors.New("no products found")

// DefaultImportTimeout bounds one import when Options.Timeout is zero.
const DefaultImportTimeout = 10 * time.Minute

// Store is the persistent catalog.
type Store interface {
	// ExistingEntries returns the stored state for the given SKUs. SKUs the
	// store does not know are absent from the map.
	ExistingEntries(ctx context.Context, skus []string) (map[string]catalog.ExistingEntry, error)

	// Upsert inserts or replaces every record keyed on SKU, atomically.
	// Rows not in batch are left untouched.
	Upsert(ctx context.Context, batch []catalog.UpsertRecord) error

	// RecordImport stores the history entry for a completed import.
	RecordImport(ctx context.Context, run ImportRun) error
}

// ImportRun is the history entry written after a successful import.
type ImportRun struct {
	ID         string
	ImportedBy string
	Summary    catalog.Summary
	Duration   time.Duration
	CreatedAt  time.Time
}

// ImportRequest carries the three exports as text.
type ImportRequest struct {
	Products       string
	ProductMedia   string
	ManagedContent string

	// ImportedBy is stamped on every record. When empty the value from
	// ImportedByFromContext is used.
	ImportedBy string
}

// ImportResult describes one import or dry run.
type ImportResult struct {
	ID        string                 `json:"id"`
	StartedAt time.Time              `json:"startedAt"`
	Duration  time.Duration          `json:"-"`
	Summary   catalog.Summary        `json:"summary"`
	Records   []catalog.UpsertRecord `json:"records,omitempty"`
	DryRun    bool                   `json:"dryRun"`
}

// Options tunes a Service.
type Options struct {
	// Limiter caps concurrent imports. Nil means unlimited.
	Limiter *ImportLimiter

	// Timeout bounds a single import including store calls.
	Timeout time.Duration
}

// Service runs catalog imports against a Store.
type Service struct {
	store   Store
	urlFor  catalog.URLFunc
	limiter *ImportLimiter
	timeout time.Duration
}

// NewService creates a Service. urlFor turns managed-content keys into image
// URLs; see catalog.NewTemplateURL.
func NewService(store Store, urlFor catalog.URLFunc, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultImportTimeout
	}
	return &Service{
		store:   store,
		urlFor:  urlFor,
		limiter: opts.Limiter,
		timeout: opts.Timeout,
	}
}

// Limiter returns the import limiter, or nil.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Import reconciles the exports with the store and upserts the result.
//
// If the products export has no valid rows Import returns ErrNoProducts
// without touching the store. Store failures are returned wrapped and leave
// the catalog unchanged. Failing to record the import history is logged and
// ignored.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	return s.run(ctx, req, false)
}

// Plan runs the same pipeline as Import, including the existing-entry lookup,
// but writes nothing. The result includes the records that Import would write.
func (s *Service) Plan(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	return s.run(ctx, req, true)
}

func (s *Service) run(ctx context.Context, req ImportRequest, dryRun bool) (*ImportResult, error) {
	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer s.limiter.Release()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	importedBy := req.ImportedBy
	if importedBy == "" {
		importedBy = ImportedByFromContext(ctx)
	}

	result := &ImportResult{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		DryRun:    dryRun,
	}
	logger := logging.WithFields(ctx,
		"import_id", result.ID,
		"imported_by", importedBy,
		"dry_run", dryRun,
	)
	logger.Info("import started")

	var (
		products extract.Extraction[extract.ProductRow]
		existing map[string]catalog.ExistingEntry
		images   catalog.ImageMapping
	)

	// Products and the existing-entry lookup run alongside the image join;
	// reconciliation needs both.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products = extract.Products(req.Products)
		if len(products.Rows) == 0 {
			return ErrNoProducts
		}

		var err error
		existing, err = s.store.ExistingEntries(gctx, catalog.SKUs(products.Rows))
		if err != nil {
			return fmt.Errorf("lookup existing entries: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		media := extract.ProductMedia(req.ProductMedia)
		content := extract.ManagedContent(req.ManagedContent)
		images = catalog.BuildImageMapping(media.Rows, content.Rows, s.urlFor)
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrNoProducts) {
			result.Summary = catalog.Summarize(products, images, nil)
			result.Duration = time.Since(result.StartedAt)
			logger.Warn("import found no products",
				"parsed", products.Parsed,
				"dropped", products.Dropped,
			)
			return result, ErrNoProducts
		}
		logger.Error("import failed", "error", err)
		return nil, err
	}

	batch := catalog.Reconcile(products.Rows, images, existing, importedBy)
	result.Records = batch
	result.Summary = catalog.Summarize(products, images, batch)

	if !dryRun {
		if err := s.store.Upsert(ctx, batch); err != nil {
			logger.Error("import failed", "error", err)
			return nil, fmt.Errorf("upsert catalog: %w", err)
		}
	}

	result.Duration = time.Since(result.StartedAt)

	if !dryRun {
		run := ImportRun{
			ID:         result.ID,
			ImportedBy: importedBy,
			Summary:    result.Summary,
			Duration:   result.Duration,
			CreatedAt:  time.Now(),
		}
		if err := s.store.RecordImport(ctx, run); err != nil {
			logger.Warn("failed to record import history", "error", err)
		}
	}

	logger.Info("import completed",
		"parsed", result.Summary.ParsedProducts,
		"dropped", result.Summary.DroppedProducts,
		"imported", result.Summary.Imported,
		"with_image", result.Summary.WithImage,
		"image_mappings", result.Summary.ImageMappings,
		"duration", result.Duration,
	)

	return result, nil
}
