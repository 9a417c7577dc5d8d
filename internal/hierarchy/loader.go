package hierarchy

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrDataUnavailable signals that the village source is missing, empty or
// malformed. Callers must not proceed with a partial hierarchy when they
// see it.
var ErrDataUnavailable = errors.New("données des villages indisponibles")

// LoadFile reads the village workbook from disk and builds the hierarchy.
func LoadFile(path string) (Hierarchy, error) {
	f, err := os.Open(path)
	if err != nil {
		return Hierarchy{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer f.Close()
	return LoadReader(f)
}

// LoadReader parses an XLSX stream. The first sheet must carry, anywhere in
// its header row, columns named region, commune and village (matched
// case-insensitively after trimming). Column order is free and extra
// columns are ignored; rows missing any of the three values are skipped.
func LoadReader(r io.Reader) (Hierarchy, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Hierarchy{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	cells, err := f.GetRows(sheet)
	if err != nil {
		return Hierarchy{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if len(cells) < 2 {
		return Hierarchy{}, fmt.Errorf("%w: fichier vide", ErrDataUnavailable)
	}

	cols := headerIndex(cells[0])
	if cols["region"] < 0 || cols["commune"] < 0 || cols["village"] < 0 {
		return Hierarchy{}, fmt.Errorf("%w: colonnes region/commune/village manquantes", ErrDataUnavailable)
	}

	rows := make([]Row, 0, len(cells)-1)
	for _, line := range cells[1:] {
		rows = append(rows, Row{
			Region:  cell(line, cols["region"]),
			Commune: cell(line, cols["commune"]),
			Village: cell(line, cols["village"]),
		})
	}
	h := Build(rows)
	if len(h) == 0 {
		return Hierarchy{}, fmt.Errorf("%w: aucune ligne exploitable", ErrDataUnavailable)
	}
	return h, nil
}

func headerIndex(header []string) map[string]int {
	cols := map[string]int{"region": -1, "commune": -1, "village": -1}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, wanted := cols[key]; wanted && cols[key] < 0 {
			cols[key] = i
		}
	}
	return cols
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
