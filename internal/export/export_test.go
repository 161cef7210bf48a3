package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/booster-sim/internal/economy"
	"github.com/ramonehamilton/booster-sim/internal/mtga/booster"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

type testRow struct {
	ID        int             `csv:"id"`
	Name      string          `csv:"name"`
	Price     decimal.Decimal `csv:"price"`
	Ratio     float64         `csv:"ratio"`
	Foil      bool            `csv:"foil"`
	OpenedAt  time.Time       `csv:"opened_at"`
	Note      *string         `csv:"note"`
	Internal  string          `csv:"-"`
	Untagged  string
	unexposed string
}

func stringPtr(s string) *string {
	return &s
}

func testRows() []testRow {
	return []testRow{
		{
			ID:       1,
			Name:     "Lightning Bolt",
			Price:    decimal.NewFromFloat(0.25),
			Ratio:    1.5,
			Foil:     true,
			OpenedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			Note:     stringPtr("first"),
			Internal: "skip",
			Untagged: "u",
		},
		{ID: 2, Name: "Shock, Again", Price: decimal.NewFromInt(3)},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{" JSON ", FormatJSON, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if FormatJSON.ContentType() != "application/json" || FormatCSV.ContentType() != "text/csv" {
		t.Error("unexpected content types")
	}
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, testRows(), false); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), buf.String())
	}

	want := []string{
		"id,name,price,ratio,foil,opened_at,note,Untagged",
		"1,Lightning Bolt,0.25,1.50,true,2024-01-01T12:00:00Z,first,u",
		`2,"Shock, Again",3,0.00,false,,,`,
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
}

func TestWrite_CSVEmptySliceWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, []CollectionRow{}, false); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "card_id,name,set,rarity,type_line,quantity,staged,unit_price,value" {
		t.Errorf("header = %q", got)
	}
}

func TestWrite_CSVPointerElements(t *testing.T) {
	rows := testRows()
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, []*testRow{&rows[0], nil}, false); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("Expected header and one row, got %d lines", n)
	}
}

func TestWrite_CSVRejectsNonStructSlices(t *testing.T) {
	if err := Write(&bytes.Buffer{}, FormatCSV, testRows()[0], false); err == nil {
		t.Error("Expected error for non-slice")
	}
	if err := Write(&bytes.Buffer{}, FormatCSV, []string{"a"}, false); err == nil {
		t.Error("Expected error for slice of strings")
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	rows := []PackRow{{Pack: 1, Slot: 1, Name: "Island", Land: true, Price: decimal.NewFromFloat(0.1)}}
	if err := Write(&buf, FormatJSON, rows, true); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("Expected indented JSON")
	}

	var got []PackRow
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
	if len(got) != 1 || !got[0].Land || !got[0].Price.Equal(decimal.NewFromFloat(0.1)) {
		t.Errorf("unexpected rows: %+v", got)
	}
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, Format("xml"), testRows(), false); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestExporter_Overwrite(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "nested", "rows.csv")

	if err := NewExporter(Options{Format: FormatCSV, FilePath: filePath}).Export(testRows()); err != nil {
		t.Fatalf("First export failed: %v", err)
	}
	if err := NewExporter(Options{Format: FormatCSV, FilePath: filePath}).Export(testRows()); err == nil {
		t.Error("Expected error when file exists and overwrite is false")
	}
	if err := NewExporter(Options{Format: FormatJSON, FilePath: filePath, Overwrite: true}).Export(testRows()); err != nil {
		t.Fatalf("Overwrite export failed: %v", err)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if !strings.HasPrefix(string(content), "[") {
		t.Errorf("Expected JSON after overwrite, got %q", content)
	}
}

func TestExporter_UnsupportedFormatCreatesNoFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "rows.xml")
	if err := NewExporter(Options{Format: "xml", FilePath: filePath}).Export(testRows()); err == nil {
		t.Fatal("Expected error for unsupported format")
	}
	if _, err := os.Stat(filePath); !os.IsNotExist(err) {
		t.Error("Expected no file to be created")
	}
}

func TestGenerateFilename(t *testing.T) {
	name := GenerateFilename("collection", FormatCSV)
	if !strings.HasPrefix(name, "collection_") || !strings.HasSuffix(name, ".csv") {
		t.Errorf("unexpected filename %q", name)
	}
}

func TestCollectionRows(t *testing.T) {
	items := []economy.CollectionItem{{
		CollectionEntry: economy.CollectionEntry{
			Card: booster.DrawnCard{
				Card:  cards.Card{ID: "c1", Name: "Opt", Rarity: cards.Common, SetCode: "abc", TypeLine: "Instant"},
				Price: decimal.NewFromFloat(0.25),
			},
			Quantity: 3,
		},
		Staged: 1,
	}}

	rows := CollectionRows(items)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.CardID != "c1" || r.Rarity != "common" || r.Quantity != 3 || r.Staged != 1 {
		t.Errorf("unexpected row: %+v", r)
	}
	if !r.Value.Equal(decimal.NewFromFloat(0.75)) {
		t.Errorf("Value = %s, want 0.75", r.Value)
	}

	if CollectionRows(nil) == nil {
		t.Error("Expected non-nil rows for nil input")
	}
}

func TestPackRows(t *testing.T) {
	pack := []booster.DrawnCard{
		{Card: cards.Card{ID: "l", Name: "Plains", Rarity: cards.Common, TypeLine: "Basic Land — Plains"}},
		{Card: cards.Card{ID: "m", Name: "Dragon", Rarity: cards.Mythic, TypeLine: "Creature — Dragon"}, Price: decimal.NewFromInt(12)},
	}

	rows := PackRows(4, pack)
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].Pack != 4 || rows[0].Slot != 1 || !rows[0].Land {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Slot != 2 || rows[1].Land || rows[1].Rarity != "mythic" {
		t.Errorf("unexpected second row: %+v", rows[1])
	}
}
