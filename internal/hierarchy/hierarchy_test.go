package hierarchy

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestBuildRoundTrip(t *testing.T) {
	rows := []Row{
		{"Thiès", "Thiès", "Mbour 1"},
		{"Thiès", "Thiès", "Fandène"},
		{"Thiès", "Mbour", "Saly"},
		{"Dakar", "Rufisque", "Sangalkam"},
	}
	h := Build(rows)
	got := h.Villages("Thiès", "Thiès")
	want := []string{Sentinel, "Fandène", "Mbour 1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Villages(Thiès, Thiès) = %v, want %v", got, want)
	}
	if got := h.Villages("Dakar", "Rufisque"); !reflect.DeepEqual(got, []string{Sentinel, "Sangalkam"}) {
		t.Fatalf("Villages(Dakar, Rufisque) = %v", got)
	}
}

func TestBuildTrimsSkipsAndDedupes(t *testing.T) {
	rows := []Row{
		{"  Thiès ", " Thiès", " Mbour 1 "},
		{"Thiès", "Thiès", "Mbour 1"}, // duplicate after trimming
		{"Thiès", "", "Orphelin"},     // missing commune: skipped
		{"", "Thiès", "Orphelin"},     // missing region: skipped
		{"Thiès", "Thiès", "   "},     // blank village: skipped
	}
	h := Build(rows)
	got := h.Villages("Thiès", "Thiès")
	if !reflect.DeepEqual(got, []string{Sentinel, "Mbour 1"}) {
		t.Fatalf("got %v", got)
	}
	if len(h) != 1 || len(h["Thiès"]) != 1 {
		t.Fatalf("skipped rows leaked into the hierarchy: %v", h)
	}
}

func TestSameVillageUnderTwoCommunes(t *testing.T) {
	h := Build([]Row{
		{"Thiès", "Thiès", "Keur Ndiaye"},
		{"Thiès", "Mbour", "Keur Ndiaye"},
	})
	if got := h.Villages("Thiès", "Thiès"); !reflect.DeepEqual(got, []string{Sentinel, "Keur Ndiaye"}) {
		t.Fatalf("got %v", got)
	}
	if got := h.Villages("Thiès", "Mbour"); !reflect.DeepEqual(got, []string{Sentinel, "Keur Ndiaye"}) {
		t.Fatalf("got %v", got)
	}
}

func TestAccessorsSentinelOnly(t *testing.T) {
	h := Build([]Row{{"Thiès", "Thiès", "Mbour 1"}})
	if got := h.Regions(); !reflect.DeepEqual(got, []string{Sentinel, "Thiès"}) {
		t.Fatalf("Regions() = %v", got)
	}
	for _, got := range [][]string{
		h.Communes(""),
		h.Communes("Inconnue"),
		h.Villages("", ""),
		h.Villages("Thiès", ""),
		h.Villages("Thiès", "Inconnue"),
	} {
		if !reflect.DeepEqual(got, []string{Sentinel}) {
			t.Fatalf("expected sentinel-only list, got %v", got)
		}
	}
}

func writeWorkbook(t *testing.T, header []string, rows [][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	all := append([][]string{header}, rows...)
	for i, row := range all {
		for j, val := range row {
			cellName, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cellName, val); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return &buf
}

func TestLoadReaderFlexibleColumns(t *testing.T) {
	// Shuffled order, mixed header case, one extra column.
	buf := writeWorkbook(t,
		[]string{"Village", " REGION ", "Population", "commune"},
		[][]string{
			{"Mbour 1", "Thiès", "1200", "Thiès"},
			{"Saly", "Thiès", "900", "Mbour"},
		})
	h, err := LoadReader(buf)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := h.Villages("Thiès", "Mbour"); !reflect.DeepEqual(got, []string{Sentinel, "Saly"}) {
		t.Fatalf("got %v", got)
	}
}

func TestLoadReaderMissingColumn(t *testing.T) {
	buf := writeWorkbook(t,
		[]string{"region", "commune"},
		[][]string{{"Thiès", "Thiès"}})
	h, err := LoadReader(buf)
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if len(h) != 0 {
		t.Fatalf("expected empty hierarchy, got %v", h)
	}
}

func TestLoadReaderEmptyAndGarbage(t *testing.T) {
	buf := writeWorkbook(t, []string{"region", "commune", "village"}, nil)
	if _, err := LoadReader(buf); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("empty workbook: expected ErrDataUnavailable, got %v", err)
	}
	if _, err := LoadReader(bytes.NewReader([]byte("pas un xlsx"))); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("garbage: expected ErrDataUnavailable, got %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("nexiste/pas/Villages.xlsx"); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}
