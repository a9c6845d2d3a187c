package extract

import (
	"reflect"
	"testing"
)

func TestProducts(t *testing.T) {
	text := "Id,Name,StockKeepingUnit,ProductCode\n" +
		"P1,Widget,SKU1,CAT:A\n" +
		"P2,Gadget,SKU2,\n"

	got := Products(text)

	want := []ProductRow{
		{ID: "P1", Name: "Widget", SKU: "SKU1", ProductCode: "CAT:A"},
		{ID: "P2", Name: "Gadget", SKU: "SKU2", ProductCode: ""},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("Rows = %+v, want %+v", got.Rows, want)
	}
	if got.Parsed != 2 {
		t.Errorf("Parsed = %d, want 2", got.Parsed)
	}
	if got.Dropped != 0 {
		t.Errorf("Dropped = %d, want 0", got.Dropped)
	}
}

func TestProducts_MandatoryFields(t *testing.T) {
	text := "Id,Name,SKU,ProductCode\n" +
		",No Id,SKU1,C:1\n" +
		"P2,No Sku,,C:2\n" +
		"P3,,SKU3,\n" +
		"P4,  Spaced  ,  SKU4  , C:4 \n"

	got := Products(text)

	want := []ProductRow{
		{ID: "P3", Name: "", SKU: "SKU3", ProductCode: ""},
		{ID: "P4", Name: "Spaced", SKU: "SKU4", ProductCode: "C:4"},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("Rows = %+v, want %+v", got.Rows, want)
	}
	if got.Parsed != 4 || got.Dropped != 2 {
		t.Errorf("Parsed, Dropped = %d, %d, want 4, 2", got.Parsed, got.Dropped)
	}
}

func TestProducts_RenamedColumns(t *testing.T) {
	text := "Product Name,Product SKU,Product Id,Product Code\n" +
		"Widget,SKU1,P1,\"CAT:A\"\n"

	got := Products(text)

	want := []ProductRow{{ID: "P1", Name: "Widget", SKU: "SKU1", ProductCode: "CAT:A"}}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("Rows = %+v, want %+v", got.Rows, want)
	}
}

func TestProducts_PositionalHeaders(t *testing.T) {
	got := Products("A,B,C,D\nP1,Widget,SKU1,CAT:A\n")

	want := []ProductRow{{ID: "P1", Name: "Widget", SKU: "SKU1", ProductCode: "CAT:A"}}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("Rows = %+v, want %+v", got.Rows, want)
	}
}

func TestProducts_QuotedName(t *testing.T) {
	got := Products("Id,Name,SKU\nP1,\"Widget, large \"\"XL\"\"\",SKU1\n")

	if len(got.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want 1", len(got.Rows))
	}
	if got.Rows[0].Name != `Widget, large "XL"` {
		t.Errorf("Name = %q, want %q", got.Rows[0].Name, `Widget, large "XL"`)
	}
}

func TestProducts_NoData(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"header only", "Id,Name,SKU,ProductCode\n"},
		{"blank lines", "\n  \n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Products(tt.text)
			if len(got.Rows) != 0 || got.Parsed != 0 || got.Dropped != 0 {
				t.Errorf("Products(%q) = %+v, want zero Extraction", tt.text, got)
			}
		})
	}
}

func TestProductMedia(t *testing.T) {
	text := "Id,ProductId,ElectronicMediaId\n" +
		"X1,P1,M1\n" +
		"X2,P2,\n" +
		"X3,,M3\n"

	got := ProductMedia(text)

	want := []ProductMediaRow{{ProductID: "P1", ElectronicMediaID: "M1"}}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("Rows = %+v, want %+v", got.Rows, want)
	}
	if got.Parsed != 3 || got.Dropped != 2 {
		t.Errorf("Parsed, Dropped = %d, %d, want 3, 2", got.Parsed, got.Dropped)
	}
}

func TestProductMedia_NoPositionalFallback(t *testing.T) {
	// Without recognised headers no link can be trusted.
	got := ProductMedia("A,B\nP1,M1\n")

	if len(got.Rows) != 0 {
		t.Errorf("Rows = %+v, want none", got.Rows)
	}
	if got.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", got.Dropped)
	}
}

func TestManagedContent(t *testing.T) {
	text := "Id,ContentKey,Title\n" +
		"M1,K1,Front\n" +
		"M2,,Back\n"

	got := ManagedContent(text)

	want := []ManagedContentRow{{ID: "M1", ContentKey: "K1"}}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("Rows = %+v, want %+v", got.Rows, want)
	}
	if got.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", got.Dropped)
	}
}

func TestExtractorsAreDeterministic(t *testing.T) {
	text := "Id,Name,SKU,ProductCode\nP1,Widget,SKU1,CAT:A\nP2,Gadget,SKU2,\n"

	first := Products(text)
	second := Products(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Products not deterministic: %+v vs %+v", first, second)
	}
}

func TestProducts_UnlabelledHeaderFallsBackToPosition(t *testing.T) {
	tests := []struct {
		name string
		text string
		want ProductRow
	}{
		{
			name: "blank labels",
			text: ",,,\nP1,Widget,SKU1,CAT:A\n",
			want: ProductRow{ID: "P1", Name: "Widget", SKU: "SKU1", ProductCode: "CAT:A"},
		},
		{
			name: "repeated labels",
			text: "X,X,X,X\n1,2,3,4\n",
			want: ProductRow{ID: "1", Name: "2", SKU: "3", ProductCode: "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Products(tt.text)
			if want := []ProductRow{tt.want}; !reflect.DeepEqual(got.Rows, want) {
				t.Errorf("Rows = %+v, want %+v", got.Rows, want)
			}
		})
	}
}
