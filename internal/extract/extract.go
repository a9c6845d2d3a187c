// Package extract turns the three catalog exports into typed rows.
//
// Each extractor is a pure function of its input text: it parses with
// package csv, places columns with package schema, trims every value and drops
// rows missing a mandatory field. Dropped rows are counted, not reported.
package extract

import (
	"github.com/JonMunkholm/CatalogImport/internal/csv"
	"github.com/JonMunkholm/CatalogImport/internal/schema"
)

// ProductRow is one product from the products export.
type ProductRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	ProductCode string `json:"productCode"`
}

// ProductMediaRow links a product to an electronic media record.
type ProductMediaRow struct {
	ProductID         string `json:"productId"`
	ElectronicMediaID string `json:"electronicMediaId"`
}

// ManagedContentRow is one entry of the managed-content registry.
type ManagedContentRow struct {
	ID         string `json:"id"`
	ContentKey string `json:"contentKey"`
}

// Extraction holds the valid rows of one export plus parse counts.
type Extraction[T any] struct {
	Rows    []T
	Parsed  int // Records read from the input
	Dropped int // Records discarded for a missing mandatory field
}

var (
	productMapper        = schema.NewMapper(schema.ProductFields)
	productMediaMapper   = schema.NewMapper(schema.ProductMediaFields, schema.ExactMatch)
	managedContentMapper = schema.NewMapper(schema.ManagedContentFields, schema.ExactMatch)
)

// Products extracts product rows. Column names are matched leniently; id and
// sku are mandatory.
func Products(text string) Extraction[ProductRow] {
	return run(text, productMapper, func(m schema.Mapping, rec csv.Record) ProductRow {
		return ProductRow{
			ID:          m.Value(rec, schema.FieldID),
			Name:        m.Value(rec, schema.FieldName),
			SKU:         m.Value(rec, schema.FieldSKU),
			ProductCode: m.Value(rec, schema.FieldProductCode),
		}
	})
}

// ProductMedia extracts product-to-media links. Both columns are mandatory.
func ProductMedia(text string) Extraction[ProductMediaRow] {
	return run(text, productMediaMapper, func(m schema.Mapping, rec csv.Record) ProductMediaRow {
		return ProductMediaRow{
			ProductID:         m.Value(rec, schema.FieldProductID),
			ElectronicMediaID: m.Value(rec, schema.FieldElectronicMediaID),
		}
	})
}

// ManagedContent extracts managed-content entries. Both columns are mandatory.
func ManagedContent(text string) Extraction[ManagedContentRow] {
	return run(text, managedContentMapper, func(m schema.Mapping, rec csv.Record) ManagedContentRow {
		return ManagedContentRow{
			ID:         m.Value(rec, schema.FieldContentID),
			ContentKey: m.Value(rec, schema.FieldContentKey),
		}
	})
}

func run[T any](text string, mapper *schema.Mapper, build func(schema.Mapping, csv.Record) T) Extraction[T] {
	var out Extraction[T]

	doc := csv.Parse(text)
	if doc.Empty() {
		return out
	}

	mapping := mapper.Resolve(doc.Header)
	for rec := range doc.Records() {
		out.Parsed++
		if !mapping.Complete(rec) {
			out.Dropped++
			continue
		}
		out.Rows = append(out.Rows, build(mapping, rec))
	}

	return out
}
