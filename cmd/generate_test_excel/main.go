package main

import (
	"accounting-admin/internal/config"
	"accounting-admin/internal/models"
	"accounting-admin/internal/repository"
	"accounting-admin/internal/service"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Writes the import templates and a few workbooks that walk the import
// wizard through its validation paths.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		return
	}

	outputDir := filepath.Join(cfg.ExportPath, "test_files")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Printf("Error creating output directory: %v\n", err)
		return
	}

	datasets := service.NewDatasetRegistry(
		service.NewBankAccountDataset(repository.NewMemoryBankAccountStore(repository.SeedBankAccounts())),
		service.NewCostObjectDataset(repository.NewMemoryCostObjectStore(repository.SeedCostObjects())),
	)
	excelService := service.NewExcelService(datasets)

	for _, name := range datasets.Names() {
		path := filepath.Join(outputDir, service.TemplateFileName(name))
		file, err := os.Create(path)
		if err != nil {
			fmt.Printf("Error creating %s: %v\n", path, err)
			return
		}
		err = excelService.Template(name, file)
		file.Close()
		if err != nil {
			fmt.Printf("Error writing %s: %v\n", path, err)
			return
		}
		fmt.Printf("✓ Template created: %s\n", path)
	}

	// Leading ID column is skipped by the automatic mapping
	bankRows := [][]interface{}{
		{"ID", "Account number", "Account name", "Bank name", "Branch", "Currency", "Opening balance", "Notes"},
		{1, "0071000123456", "Cong ty TNHH ABC", "Vietcombank", "Ho Chi Minh", "VND", 175000000, "Existing account, valid for update"},
		{2, "0451000999888", "Cong ty TNHH ABC", "Vietcombank", "Can Tho", "VND", 0, "New account"},
		{3, "0451000999888", "Cong ty TNHH ABC", "ACB", "", "", "", "Duplicate number in file"},
		{4, "", "Cong ty TNHH ABC", "BIDV", "", "VND", "", "Missing account number"},
		{5, "2201000777", "", "", "", "USD", "12.5", "Missing names"},
	}
	if err := writeSheet(filepath.Join(outputDir, "bank_accounts_test_data.xlsx"), "Bank Accounts", 1, bankRows); err != nil {
		fmt.Printf("Error saving file: %v\n", err)
		return
	}

	// Two title rows, so the header row has to be set to 3 in the wizard
	costRows := [][]interface{}{
		{"Code", "Vietnamese name", "English name", "Korean name", "Parent", "Notes"},
		{"CC001", "Chi phí quản lý", "Administrative expenses", "관리비", 0, "Existing object"},
		{"CC010", "Phòng IT", "IT department", "IT부", 1, "New child of CC001"},
		{"CC011", "Phòng pháp chế", "Legal department", "법무부", "abc", "Parent is not a number"},
		{"CC012", "Kho", "Warehouse", "창고", 999, "Parent does not exist"},
		{"CC013", "", "Unnamed", "", 0, "Missing Vietnamese name"},
	}
	if err := writeSheet(filepath.Join(outputDir, "cost_objects_test_data.xlsx"), "Cost Objects", 3, costRows); err != nil {
		fmt.Printf("Error saving file: %v\n", err)
		return
	}

	fmt.Printf("✓ Test files created in %s (datasets: %s, %s)\n", outputDir, models.DatasetBankAccounts, models.DatasetCostObjects)
}

func writeSheet(path, sheetName string, headerRow int, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	if headerRow > 1 {
		f.SetCellValue(sheetName, "A1", sheetName+" import test data")
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, headerRow+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	last, _ := excelize.CoordinatesToCellName(len(rows[0]), headerRow)
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	f.SetCellStyle(sheetName, first, last, headerStyle)
	f.SetColWidth(sheetName, "A", "H", 20)

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return err
	}
	fmt.Printf("✓ Test file created: %s (%d data rows)\n", path, len(rows)-1)
	return nil
}
