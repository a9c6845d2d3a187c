package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/CatalogImport/internal/catalog"
	"github.com/JonMunkholm/CatalogImport/internal/core"
	"github.com/JonMunkholm/CatalogImport/internal/csv"
)

// Multipart field names of the three exports.
const (
	FieldProducts       = "products"
	FieldProductMedia   = "productMedia"
	FieldManagedContent = "managedContent"
	FieldImportedBy     = "importedBy"
)

// multipartMemory is how much of a form is held in memory before spilling
// file parts to disk.
const multipartMemory = 32 << 20

var (
	errNoFile      = errors.New("no file provided")
	errInvalidForm = errors.New("invalid multipart form")
)

// ImportResponse is returned by the import and preview endpoints.
type ImportResponse struct {
	ID         string                 `json:"id"`
	Summary    catalog.Summary        `json:"summary"`
	DurationMs int64                  `json:"durationMs"`
	DryRun     bool                   `json:"dryRun"`
	Records    []catalog.UpsertRecord `json:"records,omitempty"`
}

func newImportResponse(res *core.ImportResult) ImportResponse {
	return ImportResponse{
		ID:         res.ID,
		Summary:    res.Summary,
		DurationMs: res.Duration.Milliseconds(),
		DryRun:     res.DryRun,
		Records:    res.Records,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleImportStatus reports import slot usage.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	limiter := s.service.Limiter()
	if limiter == nil {
		writeJSON(w, http.StatusOK, core.LimiterStatus{})
		return
	}
	writeJSON(w, http.StatusOK, limiter.Status())
}

// handleImport runs a full import from the uploaded exports.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	req, err := s.readImportRequest(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	res, err := s.service.Import(WithRequestMetadata(r.Context(), r), req)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	// Records are only echoed back by preview.
	resp := newImportResponse(res)
	resp.Records = nil
	writeJSON(w, http.StatusOK, resp)
}

// handlePreview runs the pipeline without writing and returns the records an
// import would upsert.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	req, err := s.readImportRequest(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	res, err := s.service.Plan(WithRequestMetadata(r.Context(), r), req)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, newImportResponse(res))
}

// readImportRequest parses the multipart upload into an import request.
// The products export is required; media and content may be omitted, in
// which case no product gets an image.
func (s *Server) readImportRequest(w http.ResponseWriter, r *http.Request) (core.ImportRequest, error) {
	var req core.ImportRequest

	maxSize := s.cfg.Import.MaxFileSize
	if maxSize > 0 {
		// Three files plus form overhead.
		r.Body = http.MaxBytesReader(w, r.Body, 3*maxSize+multipartMemory)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return req, fmt.Errorf("%w: request exceeds %d bytes", csv.ErrFileTooLarge, tooBig.Limit)
		}
		return req, fmt.Errorf("%w: %v", errInvalidForm, err)
	}
	defer r.MultipartForm.RemoveAll()

	var err error
	if req.Products, err = readFormFile(r, FieldProducts, maxSize, true); err != nil {
		return req, err
	}
	if req.ProductMedia, err = readFormFile(r, FieldProductMedia, maxSize, false); err != nil {
		return req, err
	}
	if req.ManagedContent, err = readFormFile(r, FieldManagedContent, maxSize, false); err != nil {
		return req, err
	}

	req.ImportedBy = strings.TrimSpace(r.FormValue(FieldImportedBy))
	return req, nil
}

func readFormFile(r *http.Request, field string, maxSize int64, required bool) (string, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return "", fmt.Errorf("%w: %s", errNoFile, field)
		}
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", errInvalidForm, field, err)
	}
	defer file.Close()

	text, err := csv.ReadText(file, maxSize)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return text, nil
}
