package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const errorSeparator = "; "

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// WriteWorkbook writes records as a single styled sheet with the schema
// labels as header row. It backs both dataset exports and import templates.
func WriteWorkbook(w io.Writer, schema Schema, sheetName string, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	for i, label := range schema.Labels() {
		f.SetCellValue(sheetName, cellName(i+1, 1), label)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", cellName(len(schema.Fields), 1), headerStyle)

	for r, rec := range records {
		for c, field := range schema.Fields {
			f.SetCellValue(sheetName, cellName(c+1, r+2), rec[field.Name])
		}
	}

	for c, field := range schema.Fields {
		col, _ := excelize.ColumnNumberToName(c + 1)
		width := 18.0
		if field.MaxLength > 100 {
			width = 32
		}
		f.SetColWidth(sheetName, col, col, width)
	}

	f.SetActiveSheet(index)
	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	return f.Write(w)
}

// WriteTemplate writes the static import template for a schema.
func WriteTemplate(w io.Writer, schema Schema, samples []Record) error {
	return WriteWorkbook(w, schema, "Template", samples)
}

// Columns appended after the original ones in an error report. AutoMap drops
// them again when a corrected report is uploaded.
var reportColumns = []string{"Row Number", "Errors"}

func reportHeaders(columns []string) []string {
	headers := make([]string, 0, len(columns)+len(reportColumns))
	headers = append(headers, columns...)
	return append(headers, reportColumns...)
}

type reportLine struct {
	result ValidationResult
	values []string
}

// reportLines pairs every invalid result with the cell values the user
// uploaded, in the original column order.
func reportLines(columns []string, rows []ImportRow, results []ValidationResult) []reportLine {
	var lines []reportLine
	for i, res := range results {
		if res.IsValid {
			continue
		}
		values := make([]string, len(columns))
		if i < len(rows) {
			for c, col := range columns {
				values[c] = rows[i][col]
			}
		}
		lines = append(lines, reportLine{result: res, values: values})
	}
	return lines
}

// WriteErrorReport lists only the invalid rows as they were uploaded, under
// the original column labels, followed by their row number and concatenated
// errors. The corrected sheet can be uploaded again as is. Counts go to a
// separate Summary sheet.
func WriteErrorReport(w io.Writer, columns []string, rows []ImportRow, results []ValidationResult) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Import Errors"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	headers := reportHeaders(columns)
	for i, header := range headers {
		f.SetCellValue(sheetName, cellName(i+1, 1), header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFE6E6"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", cellName(len(headers), 1), headerStyle)

	errorStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFFFCC"}, Pattern: 1},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})

	rowCol := len(columns) + 1
	lines := reportLines(columns, rows, results)
	for i, line := range lines {
		row := i + 2
		for c, value := range line.values {
			f.SetCellValue(sheetName, cellName(c+1, row), value)
		}
		f.SetCellValue(sheetName, cellName(rowCol, row), line.result.RowIndex)
		f.SetCellValue(sheetName, cellName(rowCol+1, row), strings.Join(line.result.Errors, errorSeparator))
		f.SetCellStyle(sheetName, cellName(rowCol, row), cellName(rowCol+1, row), errorStyle)
	}

	if len(columns) > 0 {
		last, _ := excelize.ColumnNumberToName(len(columns))
		f.SetColWidth(sheetName, "A", last, 18)
	}
	errCol, _ := excelize.ColumnNumberToName(rowCol + 1)
	f.SetColWidth(sheetName, errCol, errCol, 60)

	summarySheet := "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	valid, errorCount := Summarize(results)
	f.SetCellValue(summarySheet, "A1", "Import Summary")
	f.SetCellValue(summarySheet, "A2", "Total Rows Processed:")
	f.SetCellValue(summarySheet, "B2", len(results))
	f.SetCellValue(summarySheet, "A3", "Valid Rows:")
	f.SetCellValue(summarySheet, "B3", valid)
	f.SetCellValue(summarySheet, "A4", "Errors Found:")
	f.SetCellValue(summarySheet, "B4", errorCount)

	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellStyle(summarySheet, "A1", "A1", summaryStyle)
	f.SetColWidth(summarySheet, "A", "A", 24)

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write error report: %w", err)
	}
	return nil
}

// WriteErrorReportCSV writes the same invalid-row table as CSV.
func WriteErrorReportCSV(w io.Writer, columns []string, rows []ImportRow, results []ValidationResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeaders(columns)); err != nil {
		return err
	}

	for _, line := range reportLines(columns, rows, results) {
		record := append(line.values, strconv.Itoa(line.result.RowIndex), strings.Join(line.result.Errors, errorSeparator))
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
