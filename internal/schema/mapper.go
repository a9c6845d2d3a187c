// Package schema locates semantic fields in loosely structured CSV headers.
//
// Exports arrive with whatever column names the exporting tool or user chose:
// "StockKeepingUnit", "Product SKU", "sku", or sometimes nothing recognisable
// at all. A [Mapper] resolves each canonical [Field] to a header column by
// running an ordered list of [Strategy] values and keeping the first hit. The
// result is a column index, so values are read positionally.
//
//	m := schema.NewMapper(schema.ProductFields)
//	mapping := m.Resolve(doc.Header)
//	for rec := range doc.Records() {
//	    sku := mapping.Value(rec, schema.FieldSKU)
//	}
//
// Fields are resolved independently. Two fields may land on the same column
// when names are ambiguous; that is accepted, not reported.
package schema

import (
	"github.com/JonMunkholm/CatalogImport/internal/csv"
)

// Field identifies a canonical semantic column.
type Field string

const (
	FieldID                Field = "id"
	FieldName              Field = "name"
	FieldSKU               Field = "sku"
	FieldProductCode       Field = "productCode"
	FieldProductID         Field = "productId"
	FieldElectronicMediaID Field = "electronicMediaId"
	FieldContentID         Field = "contentId"
	FieldContentKey        Field = "contentKey"
)

// NoPosition disables the positional fallback for a FieldSpec.
const NoPosition = -1

// FieldSpec describes how to find one canonical field in a header row.
type FieldSpec struct {
	Field    Field
	Variants []string // Known header names, compared case-insensitively
	Position int      // Fallback column index, or NoPosition
	Required bool     // Rows with an empty value for this field are invalid
}

// Mapper resolves FieldSpecs against header rows.
type Mapper struct {
	specs      []FieldSpec
	strategies []Strategy
}

// NewMapper creates a Mapper for specs. With no strategies given it uses
// DefaultStrategies.
func NewMapper(specs []FieldSpec, strategies ...Strategy) *Mapper {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	return &Mapper{
		specs:      specs,
		strategies: strategies,
	}
}

// Resolve maps every spec to a header column. Fields no strategy can place are
// left unmapped and read as "".
func (m *Mapper) Resolve(header []string) Mapping {
	mapping := Mapping{
		columns: make(map[Field]int, len(m.specs)),
		header:  header,
		specs:   m.specs,
	}

	for _, spec := range m.specs {
		for _, s := range m.strategies {
			if idx, ok := s.Resolve(spec, header); ok {
				mapping.columns[spec.Field] = idx
				break
			}
		}
	}

	return mapping
}

// Mapping is the outcome of Mapper.Resolve for one header row. Fields are
// bound to column indexes, not labels, so blank or repeated labels still
// read the column the strategy chose.
type Mapping struct {
	columns map[Field]int
	header  []string
	specs   []FieldSpec
}

// Index returns the column index a field resolved to.
func (m Mapping) Index(f Field) (int, bool) {
	idx, ok := m.columns[f]
	return idx, ok
}

// Column returns the header label a field resolved to.
func (m Mapping) Column(f Field) (string, bool) {
	idx, ok := m.columns[f]
	if !ok || idx < 0 || idx >= len(m.header) {
		return "", false
	}
	return m.header[idx], true
}

// Value returns the value of field f in rec, or "" if f is unmapped.
func (m Mapping) Value(rec csv.Record, f Field) string {
	idx, ok := m.columns[f]
	if !ok {
		return ""
	}
	return rec.At(idx)
}

// Complete reports whether every required field has a non-empty value in rec.
func (m Mapping) Complete(rec csv.Record) bool {
	for _, spec := range m.specs {
		if spec.Required && m.Value(rec, spec.Field) == "" {
			return false
		}
	}
	return true
}
