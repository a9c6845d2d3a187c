package core

import "context"

type contextKey string

const ctxKeyImportedBy contextKey = "imported_by"

// ContextWithImportedBy records who is running an import. ImportRequest's
// own ImportedBy takes precedence when set.
func ContextWithImportedBy(ctx context.Context, importedBy string) context.Context {
	return context.WithValue(ctx, ctxKeyImportedBy, importedBy)
}

// ImportedByFromContext returns the value stored by ContextWithImportedBy.
func ImportedByFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyImportedBy).(string); ok {
		return v
	}
	return ""
}
