// Package admin provides administrative operations for the catalog store.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ResetTimeout is the maximum duration for reset operations.
const ResetTimeout = 30 * time.Second

// Resetter is implemented by stores that can delete their catalog data.
type Resetter interface {
	Reset(ctx context.Context) error
}

// ResetCatalog deletes every catalog product and import run.
// This is a destructive operation - use with caution.
func ResetCatalog(ctx context.Context, r Resetter) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	start := time.Now()
	if err := r.Reset(ctx); err != nil {
		return fmt.Errorf("reset catalog: %w", err)
	}

	slog.Warn("catalog reset", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
