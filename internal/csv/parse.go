// Package csv parses loosely formatted delimited-text exports into records
// aligned with their header row.
//
// Exports produced by Salesforce data loaders and spreadsheet tools are not
// always RFC 4180 clean: stray spaces around quoted cells, doubled quotes,
// blank separator lines. Parse is deliberately forgiving. It never returns an
// error; input it cannot make sense of yields an empty Document.
//
// Records are produced lazily. Each data line is tokenized only when the
// caller ranges over [Document.Records], so large exports can be filtered
// row by row without materialising every record first.
package csv

import (
	"iter"
	"strings"
)

// Record is one data row zipped against the header. Cells are held in header
// order, so columns with blank or repeated labels stay addressable by index.
type Record struct {
	header []string
	cells  []string
}

// NewRecord pairs cells with header. Short rows are padded with "" and cells
// past the last header column are dropped.
func NewRecord(header, cells []string) Record {
	row := make([]string, len(header))
	copy(row, cells)
	return Record{header: header, cells: row}
}

// At returns the cell in column i, or "" when i is out of range.
func (r Record) At(i int) string {
	if i < 0 || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}

// Get returns the value under label, or "" when the label is not a header.
// When several columns share the label the rightmost one wins.
func (r Record) Get(label string) string {
	for i := len(r.header) - 1; i >= 0; i-- {
		if r.header[i] == label {
			return r.cells[i]
		}
	}
	return ""
}

// Len returns the number of columns, which always equals the header width.
func (r Record) Len() int {
	return len(r.cells)
}

// Map returns the record keyed by label, with the same rightmost-wins rule
// as Get.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.cells))
	for i, label := range r.header {
		m[label] = r.cells[i]
	}
	return m
}

// Document is a parsed delimited-text input: a header row and the raw data
// lines that follow it.
type Document struct {
	// Header holds the cleaned header labels in their original order.
	Header []string

	lines []string
}

// Parse splits text into lines and extracts the header.
//
// Blank and whitespace-only lines are discarded. When fewer than two lines
// remain there is no data to read and an empty Document is returned.
func Parse(text string) *Document {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) < 2 {
		return &Document{}
	}

	return &Document{
		Header: cleanCells(Tokenize(lines[0])),
		lines:  lines[1:],
	}
}

// Empty reports whether the document has no header or no data lines.
func (d *Document) Empty() bool {
	return d == nil || len(d.Header) == 0 || len(d.lines) == 0
}

// Labels returns a copy of the header labels.
func (d *Document) Labels() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.Header...)
}

// Records returns a single-pass sequence of records in input order.
//
// Cells are zipped positionally against the header: extra cells are ignored,
// short lines yield "" for the missing columns. Lines whose cells are all
// empty after cleaning are skipped.
func (d *Document) Records() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		if d.Empty() {
			return
		}

		for _, line := range d.lines {
			cells := cleanCells(Tokenize(line))
			if isEmptyRow(cells) {
				continue
			}

			if !yield(NewRecord(d.Header, cells)) {
				return
			}
		}
	}
}

// Tokenize splits one line into raw cells.
//
// A double quote toggles quoted mode, except that a doubled quote inside a
// quoted section is one literal quote. Commas separate cells only outside
// quotes. The final cell is always emitted, even when empty.
func Tokenize(line string) []string {
	var (
		cells    []string
		field    strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(line) && line[i+1] == '"':
			field.WriteByte('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			cells = append(cells, field.String())
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}

	return append(cells, field.String())
}

// CleanCell trims surrounding whitespace and strips at most one pair of
// enclosing double quotes. Cells already unquoted by Tokenize pass through
// unchanged.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return s
}

func cleanCells(cells []string) []string {
	for i, c := range cells {
		cells[i] = CleanCell(c)
	}
	return cells
}

func isEmptyRow(cells []string) bool {
	for _, v := range cells {
		if v != "" {
			return false
		}
	}
	return true
}
