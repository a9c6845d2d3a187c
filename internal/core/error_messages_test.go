package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/CatalogImport/internal/csv"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "no products",
			err:      ErrNoProducts,
			wantCode: "IMP001",
		},
		{
			name:     "limiter busy",
			err:      ErrTooManyImports,
			wantCode: "IMP002",
		},
		{
			name:     "wrapped file too large",
			err:      fmt.Errorf("read products: %w", csv.ErrFileTooLarge),
			wantCode: "FILE001",
		},
		{
			name:     "missing local file",
			err:      errors.New("open products.csv: no such file or directory"),
			wantCode: "FILE004",
		},
		{
			name:     "cancelled upsert maps to request, not database",
			err:      fmt.Errorf("upsert catalog: %w", errors.New("context canceled")),
			wantCode: "REQ001",
		},
		{
			name:     "connection refused inside lookup",
			err:      fmt.Errorf("lookup existing entries: %w", errors.New("dial tcp: connection refused")),
			wantCode: "DB001",
		},
		{
			name:     "generic upsert failure",
			err:      fmt.Errorf("upsert catalog: %w", errors.New("syntax error at or near")),
			wantCode: "DB006",
		},
		{
			name:     "malformed upload",
			err:      errors.New("invalid multipart form: request Content-Type isn't multipart/form-data"),
			wantCode: "REQ004",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("NO PRODUCTS FOUND"),
			wantCode: "IMP001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrTooManyImports)

	expected := "System is busy processing other imports (Code: IMP002). Please wait a moment and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrNoProducts, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
