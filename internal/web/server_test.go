package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/CatalogImport/internal/catalog"
	"github.com/JonMunkholm/CatalogImport/internal/config"
	"github.com/JonMunkholm/CatalogImport/internal/core"
)

const (
	productsCSV = "Id,Name,SKU,ProductCode\nP1,Widget,SKU1,CAT:A\nP2,Gadget,SKU2,\n"
	mediaCSV    = "ProductId,ElectronicMediaId\nP1,M1\n"
	contentCSV  = "Id,ContentKey\nM1,K1\n"
)

// memStore is an in-memory core.Store.
type memStore struct {
	mu        sync.Mutex
	upserts   [][]catalog.UpsertRecord
	upsertErr error
}

func (m *memStore) ExistingEntries(context.Context, []string) (map[string]catalog.ExistingEntry, error) {
	return map[string]catalog.ExistingEntry{}, nil
}

func (m *memStore) Upsert(_ context.Context, batch []catalog.UpsertRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts = append(m.upserts, batch)
	return nil
}

func (m *memStore) RecordImport(context.Context, core.ImportRun) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Import: config.ImportConfig{MaxFileSize: 1 << 20},
	}
}

func newTestServer(t *testing.T, store core.Store, cfg *config.Config, limiter *core.ImportLimiter) *Server {
	t.Helper()
	urlFor := func(key string) string { return "https://cdn.test/" + key }
	svc := core.NewService(store, urlFor, core.Options{Limiter: limiter})
	return NewServer(svc, cfg)
}

// multipartBody builds a form with the given file fields and plain values.
func multipartBody(t *testing.T, files map[string]string, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".csv")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write([]byte(content))
	}
	for k, v := range values {
		mw.WriteField(k, v)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func allFiles() map[string]string {
	return map[string]string{
		FieldProducts:       productsCSV,
		FieldProductMedia:   mediaCSV,
		FieldManagedContent: contentCSV,
	}
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, s *Server, path string, files, values map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, files, values)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	return do(t, s, req)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v (body %q)", err, rec.Body.String())
	}
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &memStore{}, testConfig(), nil)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestImport(t *testing.T) {
	store := &memStore{}
	s := newTestServer(t, store, testConfig(), nil)

	rec := postForm(t, s, "/api/catalog/import", allFiles(), map[string]string{FieldImportedBy: "alice"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp ImportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == "" {
		t.Error("response has no import id")
	}
	want := catalog.Summary{ParsedProducts: 2, Imported: 2, WithImage: 1, WithoutImage: 1, ImageMappings: 1}
	if resp.Summary != want {
		t.Errorf("Summary = %+v, want %+v", resp.Summary, want)
	}
	if resp.Records != nil || resp.DryRun {
		t.Errorf("import response should carry no records and dryRun=false: %+v", resp)
	}

	if len(store.upserts) != 1 {
		t.Fatalf("upserts = %d, want 1", len(store.upserts))
	}
	for _, r := range store.upserts[0] {
		if r.ImportedBy != "alice" {
			t.Errorf("record %s ImportedBy = %q, want alice", r.SKU, r.ImportedBy)
		}
	}
}

func TestImport_ImportedByHeader(t *testing.T) {
	store := &memStore{}
	s := newTestServer(t, store, testConfig(), nil)

	body, contentType := multipartBody(t, allFiles(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/catalog/import", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(ImportedByHeader, "bob")

	if rec := do(t, s, req); rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := store.upserts[0][0].ImportedBy; got != "bob" {
		t.Errorf("ImportedBy = %q, want bob", got)
	}
}

func TestImport_OnlyProducts(t *testing.T) {
	s := newTestServer(t, &memStore{}, testConfig(), nil)

	rec := postForm(t, s, "/api/catalog/import", map[string]string{FieldProducts: productsCSV}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp ImportResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Summary.WithImage != 0 || resp.Summary.Imported != 2 {
		t.Errorf("Summary = %+v", resp.Summary)
	}
}

func TestPreview(t *testing.T) {
	store := &memStore{}
	s := newTestServer(t, store, testConfig(), nil)

	rec := postForm(t, s, "/api/catalog/preview", allFiles(), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp ImportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.DryRun || len(resp.Records) != 2 {
		t.Errorf("preview response = %+v", resp)
	}
	if resp.Records[0].ImageURL != "https://cdn.test/K1" {
		t.Errorf("first record ImageURL = %q", resp.Records[0].ImageURL)
	}
	if len(store.upserts) != 0 {
		t.Error("preview wrote to the store")
	}
}

func TestImport_Errors(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]string
		store      *memStore
		maxSize    int64
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing products file",
			files:      map[string]string{FieldProductMedia: mediaCSV},
			store:      &memStore{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE002",
		},
		{
			name:       "no valid products",
			files:      map[string]string{FieldProducts: "Id,Name,SKU\n,,\n"},
			store:      &memStore{},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "IMP001",
		},
		{
			name:       "file too large",
			files:      map[string]string{FieldProducts: productsCSV},
			store:      &memStore{},
			maxSize:    16,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "FILE001",
		},
		{
			name:       "store failure",
			files:      allFiles(),
			store:      &memStore{upsertErr: errors.New("syntax error at or near")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "DB006",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.maxSize > 0 {
				cfg.Import.MaxFileSize = tt.maxSize
			}
			s := newTestServer(t, tt.store, cfg, nil)

			rec := postForm(t, s, "/api/catalog/import", tt.files, nil)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decodeError(t, rec); got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestImport_NotMultipart(t *testing.T) {
	s := newTestServer(t, &memStore{}, testConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/catalog/import", strings.NewReader(productsCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec := do(t, s, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeError(t, rec); got.Code != "REQ004" {
		t.Errorf("code = %q, want REQ004", got.Code)
	}
}

func TestImport_Busy(t *testing.T) {
	limiter := core.NewImportLimiter(1, 10*time.Millisecond)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer limiter.Release()

	s := newTestServer(t, &memStore{}, testConfig(), limiter)

	rec := postForm(t, s, "/api/catalog/import", allFiles(), nil)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if got := decodeError(t, rec); got.Code != "IMP002" {
		t.Errorf("code = %q, want IMP002", got.Code)
	}
}

func TestImportStatus(t *testing.T) {
	limiter := core.NewImportLimiter(3, time.Second)
	s := newTestServer(t, &memStore{}, testConfig(), limiter)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/imports/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got core.LimiterStatus
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != (core.LimiterStatus{Active: 0, Available: 3, MaxConcurrent: 3}) {
		t.Errorf("status = %+v", got)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	s := newTestServer(t, &memStore{}, cfg, nil)

	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200 without key", rec.Code)
	}
	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/imports/status", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("status without key = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/imports/status", nil)
	req.Header.Set("X-API-Key", "secret")
	if rec := do(t, s, req); rec.Code != http.StatusOK {
		t.Errorf("status with key = %d, want 200", rec.Code)
	}
}

func TestImportRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ImportLimit: 1}
	s := newTestServer(t, &memStore{}, cfg, nil)

	if rec := postForm(t, s, "/api/catalog/preview", allFiles(), nil); rec.Code != http.StatusOK {
		t.Fatalf("first preview status = %d", rec.Code)
	}
	if rec := postForm(t, s, "/api/catalog/preview", allFiles(), nil); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second preview status = %d, want 429", rec.Code)
	}
	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/imports/status", nil)); rec.Code != http.StatusOK {
		t.Errorf("status endpoint should not share the import limit, got %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrNoProducts, http.StatusUnprocessableEntity},
		{core.ErrTooManyImports, http.StatusServiceUnavailable},
		{errNoFile, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
