package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/JonMunkholm/CatalogImport/internal/core"
)

// ImportedByHeader names the caller when the form carries no importedBy field.
const ImportedByHeader = "X-Imported-By"

// WithRequestMetadata records the X-Imported-By header on the context so the
// service can attribute the import.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	if by := strings.TrimSpace(r.Header.Get(ImportedByHeader)); by != "" {
		ctx = core.ContextWithImportedBy(ctx, by)
	}
	return ctx
}
