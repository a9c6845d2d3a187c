// Package catalog resolves product images and reconciles freshly extracted
// products with what the catalog store already holds.
//
// Everything here is a pure function of its arguments. The store lookup that
// produces ExistingEntry values and the upsert that consumes UpsertRecord
// values live in the callers.
package catalog

import (
	"strings"

	"github.com/JonMunkholm/CatalogImport/internal/extract"
)

// OtherCategory is the category of products whose code yields none.
const OtherCategory = "Other"

// ExistingEntry is the stored state of a product, used only as a fallback.
type ExistingEntry struct {
	SKU         string `json:"sku"`
	ProductCode string `json:"productCode,omitempty"`
	Category    string `json:"category,omitempty"`
}

// UpsertRecord is one row of the batch written to the catalog store.
// ProductCode and ImageURL are empty when unknown; stores write them as NULL.
type UpsertRecord struct {
	ProductID   string `json:"productId"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	ProductCode string `json:"productCode,omitempty"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl,omitempty"`
	ImportedBy  string `json:"importedBy,omitempty"`
}

// DeriveCategory returns the first colon-separated segment of code with
// surrounding whitespace trimmed, or OtherCategory when that segment is blank.
func DeriveCategory(code string) string {
	segment, _, _ := strings.Cut(code, ":")
	if segment = strings.TrimSpace(segment); segment == "" {
		return OtherCategory
	}
	return segment
}

// Reconcile builds the upsert batch for rows.
//
// Each row produces one record, in input order. For each record:
//
//   - productCode is the row's code, else the stored code, else empty
//   - category is derived from that final productCode when it is set, else
//     the stored category, else OtherCategory
//   - imageUrl comes from images keyed by product id
//
// SKUs are unique in the result. When rows repeat a SKU the last one wins
// and keeps its own position; earlier rows with that SKU are removed.
func Reconcile(rows []extract.ProductRow, images ImageMapping, existing map[string]ExistingEntry, importedBy string) []UpsertRecord {
	records := make([]UpsertRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, reconcileRow(row, images, existing, importedBy))
	}
	return dedupeSKUs(records)
}

func reconcileRow(row extract.ProductRow, images ImageMapping, existing map[string]ExistingEntry, importedBy string) UpsertRecord {
	prev, known := existing[row.SKU]

	code := productCode(row, prev, known)
	imageURL, _ := images.URL(row.ID)

	return UpsertRecord{
		ProductID:   row.ID,
		SKU:         row.SKU,
		Name:        row.Name,
		ProductCode: code,
		Category:    category(code, prev, known),
		ImageURL:    imageURL,
		ImportedBy:  importedBy,
	}
}

// productCode applies: new if present, else existing, else empty.
func productCode(row extract.ProductRow, prev ExistingEntry, known bool) string {
	if row.ProductCode != "" {
		return row.ProductCode
	}
	if known && prev.ProductCode != "" {
		return prev.ProductCode
	}
	return ""
}

// category applies: derived from the final code if present, else existing,
// else OtherCategory.
func category(finalCode string, prev ExistingEntry, known bool) string {
	if finalCode != "" {
		return DeriveCategory(finalCode)
	}
	if known && prev.Category != "" {
		return prev.Category
	}
	return OtherCategory
}

func dedupeSKUs(records []UpsertRecord) []UpsertRecord {
	last := make(map[string]int, len(records))
	for i, r := range records {
		last[r.SKU] = i
	}
	if len(last) == len(records) {
		return records
	}

	out := make([]UpsertRecord, 0, len(last))
	for i, r := range records {
		if last[r.SKU] == i {
			out = append(out, r)
		}
	}
	return out
}

// SKUs returns the distinct SKUs of rows in first-seen order.
func SKUs(rows []extract.ProductRow) []string {
	seen := make(map[string]struct{}, len(rows))
	skus := make([]string, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.SKU]; ok {
			continue
		}
		seen[r.SKU] = struct{}{}
		skus = append(skus, r.SKU)
	}
	return skus
}
