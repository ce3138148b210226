package importer

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook wraps an opened spreadsheet held in memory.
type Workbook struct {
	file   *excelize.File
	sheets []string
}

// Sheet is the header and data rows read from one sheet.
type Sheet struct {
	Name    string      `json:"name"`
	Columns []string    `json:"columns"`
	Rows    []ImportRow `json:"-"`
}

// OpenWorkbook parses buffered file bytes. Any parse failure is a *FileReadError.
func OpenWorkbook(data []byte) (*Workbook, error) {
	if len(data) == 0 {
		return nil, &FileReadError{Err: ErrNoFile}
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &FileReadError{Err: err}
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, &FileReadError{Err: ErrNoSheets}
	}

	return &Workbook{file: f, sheets: sheets}, nil
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

// Sheets returns sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	out := make([]string, len(w.sheets))
	copy(out, w.sheets)
	return out
}

func (w *Workbook) hasSheet(name string) bool {
	for _, s := range w.sheets {
		if s == name {
			return true
		}
	}
	return false
}

// Read extracts the header labels found in headerRow (1-based) and every
// following row that has at least one non-empty cell under a labelled column.
// A header row past the end of the sheet yields an empty Sheet.
func (w *Workbook) Read(sheet string, headerRow int) (Sheet, error) {
	if headerRow < 1 {
		return Sheet{}, ErrInvalidHeaderRow
	}
	if !w.hasSheet(sheet) {
		return Sheet{}, ErrSheetNotFound
	}

	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return Sheet{}, &FileReadError{Err: err}
	}

	result := Sheet{Name: sheet, Columns: []string{}, Rows: []ImportRow{}}
	if headerRow > len(rows) {
		return result, nil
	}

	type column struct {
		index int
		label string
	}

	var columns []column
	seen := make(map[string]bool)
	for i, cell := range rows[headerRow-1] {
		label := strings.TrimSpace(cell)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		columns = append(columns, column{index: i, label: label})
		result.Columns = append(result.Columns, label)
	}

	for _, cells := range rows[headerRow:] {
		row := make(ImportRow, len(columns))
		hasValue := false
		for _, col := range columns {
			value := ""
			if col.index < len(cells) {
				value = strings.TrimSpace(cells[col.index])
			}
			if value != "" {
				hasValue = true
			}
			row[col.label] = value
		}
		if hasValue {
			result.Rows = append(result.Rows, row)
		}
	}

	return result, nil
}
