package service

import (
	"accounting-admin/internal/importer"
	"context"
	"fmt"
	"io"
	"time"
)

// ExcelService writes dataset exports and the static import templates.
type ExcelService struct {
	datasets DatasetRegistry
}

func NewExcelService(datasets DatasetRegistry) *ExcelService {
	return &ExcelService{datasets: datasets}
}

// Export writes every stored record of the dataset with the import schema
// as header row, so an export can be imported again.
func (s *ExcelService) Export(ctx context.Context, dataset string, w io.Writer) error {
	ds, err := s.datasets.Get(dataset)
	if err != nil {
		return err
	}

	records, err := ds.ExportRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", dataset, err)
	}
	return importer.WriteWorkbook(w, ds.Schema(), ds.Title(), records)
}

func (s *ExcelService) Template(dataset string, w io.Writer) error {
	ds, err := s.datasets.Get(dataset)
	if err != nil {
		return err
	}
	return importer.WriteTemplate(w, ds.Schema(), ds.TemplateSamples())
}

// ExportFileName returns e.g. "bank_accounts_export_20240131_150405.xlsx"
func ExportFileName(dataset string, now time.Time) string {
	return fmt.Sprintf("%s_export_%s.xlsx", dataset, now.Format("20060102_150405"))
}

func TemplateFileName(dataset string) string {
	return dataset + "_import_template.xlsx"
}

func ErrorReportFileName(dataset, format string) string {
	if format == "csv" {
		return dataset + "_import_errors.csv"
	}
	return dataset + "_import_errors.xlsx"
}
