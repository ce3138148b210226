package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testSchema = Schema{
	Dataset:     "cost_objects",
	KeyField:    "code",
	ParentField: "parent_id",
	Fields: []FieldSpec{
		{Name: "code", Label: "Code", Required: true, MaxLength: 20},
		{Name: "name_vi", Label: "Vietnamese name", Required: true},
		{Name: "name_en", Label: "English name"},
		{Name: "parent_id", Label: "Parent object"},
		{Name: "notes", Label: "Notes"},
	},
}

type testSheet struct {
	name string
	rows [][]interface{}
}

// buildWorkbook returns xlsx bytes with the given sheets, rows starting at A1.
func buildWorkbook(t *testing.T, sheets ...testSheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sh.name))
		} else {
			_, err := f.NewSheet(sh.name)
			require.NoError(t, err)
		}
		for r, row := range sh.rows {
			if row == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sh.name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func mappingsFor(pairs map[string]string) []ColumnMapping {
	m := NewMapper(testSchema)
	for field, col := range pairs {
		_ = m.SetMapping(field, col)
	}
	return m.Mappings()
}

// fullMapping maps every destination field onto a column of the same name.
func fullMapping() []ColumnMapping {
	return mappingsFor(map[string]string{
		"code":      "code",
		"name_vi":   "name_vi",
		"name_en":   "name_en",
		"parent_id": "parent_id",
		"notes":     "notes",
	})
}

type recordingCommitter struct {
	calls   int
	records []Record
	method  ImportMethod
}

func (c *recordingCommitter) Apply(_ context.Context, records []Record, method ImportMethod) (CommitSummary, error) {
	c.calls++
	c.records = records
	c.method = method
	return CommitSummary{Method: method, Inserted: len(records)}, nil
}
