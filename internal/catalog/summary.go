package catalog

import "github.com/JonMunkholm/CatalogImport/internal/extract"

// Summary holds the counts reported back after an import.
type Summary struct {
	ParsedProducts  int `json:"parsedProducts"`
	DroppedProducts int `json:"droppedProducts"`
	Imported        int `json:"imported"`
	WithImage       int `json:"withImage"`
	WithoutImage    int `json:"withoutImage"`
	ImageMappings   int `json:"imageMappings"`
}

// Summarize counts the outcome of one reconciliation.
func Summarize(products extract.Extraction[extract.ProductRow], images ImageMapping, batch []UpsertRecord) Summary {
	s := Summary{
		ParsedProducts:  products.Parsed,
		DroppedProducts: products.Dropped,
		Imported:        len(batch),
		ImageMappings:   len(images),
	}
	for _, r := range batch {
		if r.ImageURL != "" {
			s.WithImage++
		} else {
			s.WithoutImage++
		}
	}
	return s
}
