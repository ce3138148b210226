package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Step is the position of an import session in the wizard.
type Step string

const (
	StepSelectFile Step = "select_file"
	StepMapColumns Step = "map_columns"
	StepReview     Step = "review"
)

// Session is the state of one import wizard run. Only the operator's inputs
// are serialized; columns, rows, validation results and the selection are
// re-derived by Restore.
type Session struct {
	ID           string           `json:"id"`
	Dataset      string           `json:"dataset"`
	Owner        string           `json:"owner"`
	Step         Step             `json:"step"`
	FileName     string           `json:"file_name"`
	File         []byte           `json:"file,omitempty"`
	Sheets       []string         `json:"sheets"`
	Sheet        string           `json:"sheet"`
	HeaderRow    int              `json:"header_row"`
	Method       ImportMethod     `json:"method"`
	Mappings     []ColumnMapping  `json:"mappings"`
	SelectedRows []int            `json:"selected_rows"`
	Existing     []ExistingRecord `json:"existing"`
	MaxRows      int              `json:"max_rows"`
	CreatedAt    time.Time        `json:"created_at"`

	schema    Schema
	columns   []string
	rows      []ImportRow
	mapper    *Mapper
	results   []ValidationResult
	selection *Selection
}

// NewSession starts a wizard run. existing is the dataset snapshot used for
// the whole session.
func NewSession(schema Schema, existing []ExistingRecord, maxRows int) *Session {
	s := &Session{
		ID:        uuid.New().String(),
		Dataset:   schema.Dataset,
		Step:      StepSelectFile,
		HeaderRow: 1,
		Method:    MethodInsert,
		Existing:  existing,
		MaxRows:   maxRows,
		CreatedAt: time.Now(),
		schema:    schema,
		mapper:    NewMapper(schema),
	}
	s.Mappings = s.mapper.Mappings()
	return s
}

// Restore rebuilds derived state after the session was loaded from a store.
func (s *Session) Restore(schema Schema) error {
	s.schema = schema
	s.mapper = NewMapper(schema)
	for _, m := range s.Mappings {
		if m.SourceColumn == "" {
			continue
		}
		if err := s.mapper.SetMapping(m.DestinationField, m.SourceColumn); err != nil {
			return err
		}
	}
	s.Mappings = s.mapper.Mappings()

	if len(s.File) == 0 {
		return nil
	}
	if err := s.readSheet(); err != nil {
		return err
	}
	if s.Step == StepReview {
		selected := s.SelectedRows
		s.validate()
		s.selection.Restore(selected)
		s.SelectedRows = s.selection.Selected()
	}
	return nil
}

func (s *Session) Schema() Schema { return s.schema }

func (s *Session) Columns() []string { return s.columns }

func (s *Session) Rows() []ImportRow { return s.rows }

func (s *Session) RowCount() int { return len(s.rows) }

func (s *Session) Results() []ValidationResult { return s.results }

func (s *Session) MissingMappings() []string { return s.mapper.Missing() }

func (s *Session) MappingComplete() bool { return s.mapper.IsComplete() }

func (s *Session) IsSelected(rowIndex int) bool {
	return s.selection != nil && s.selection.IsSelected(rowIndex)
}

// SelectedRecords returns the records a commit would hand over.
func (s *Session) SelectedRecords() []Record {
	if s.selection == nil {
		return nil
	}
	return s.selection.Records()
}

// LoadFile buffers the uploaded bytes and opens them. On failure the session
// stays in the file selection step with no file.
func (s *Session) LoadFile(name string, data []byte) error {
	if s.Step != StepSelectFile {
		return &StepError{Action: "load a file", Step: s.Step}
	}

	s.clearFile()

	wb, err := OpenWorkbook(data)
	if err != nil {
		var fre *FileReadError
		if errors.As(err, &fre) {
			fre.FileName = name
		}
		return err
	}
	sheets := wb.Sheets()
	wb.Close()

	s.FileName = name
	s.File = data
	s.Sheets = sheets
	s.Sheet = sheets[0]
	if s.HeaderRow < 1 {
		s.HeaderRow = 1
	}
	if err := s.readSheet(); err != nil {
		s.clearFile()
		return err
	}
	return nil
}

func (s *Session) clearFile() {
	s.FileName = ""
	s.File = nil
	s.Sheets = nil
	s.Sheet = ""
	s.columns = nil
	s.rows = nil
}

// ChooseSheet re-reads the buffered file with another sheet or header row.
func (s *Session) ChooseSheet(sheet string, headerRow int) error {
	if s.Step == StepReview {
		return &StepError{Action: "change the sheet", Step: s.Step}
	}
	if len(s.File) == 0 {
		return ErrNoFile
	}
	if headerRow < 1 {
		return ErrInvalidHeaderRow
	}

	prevSheet, prevHeader := s.Sheet, s.HeaderRow
	s.Sheet, s.HeaderRow = sheet, headerRow
	err := s.readSheet()
	if err == nil && s.Step == StepMapColumns {
		err = s.checkRowLimit()
	}
	if err != nil {
		s.Sheet, s.HeaderRow = prevSheet, prevHeader
		_ = s.readSheet()
		return err
	}

	if s.Step == StepMapColumns {
		s.mapper.AutoMap(s.columns)
		s.Mappings = s.mapper.Mappings()
	}
	return nil
}

func (s *Session) readSheet() error {
	wb, err := OpenWorkbook(s.File)
	if err != nil {
		return err
	}
	defer wb.Close()

	sheet, err := wb.Read(s.Sheet, s.HeaderRow)
	if err != nil {
		return err
	}

	s.columns = sheet.Columns
	s.rows = sheet.Rows
	return nil
}

// checkRowLimit applies MaxRows to the chosen sheet only, so an oversized
// first sheet does not keep the file from being used.
func (s *Session) checkRowLimit() error {
	if s.MaxRows > 0 && len(s.rows) > s.MaxRows {
		return fmt.Errorf("%w: %d rows, limit is %d", ErrTooManyRows, len(s.rows), s.MaxRows)
	}
	return nil
}

// ToMapColumns leaves the file step. A file, a sheet and at least one data
// row are required; columns are auto-mapped on entry.
func (s *Session) ToMapColumns() error {
	if s.Step != StepSelectFile {
		return &StepError{Action: "continue to column mapping", Step: s.Step}
	}
	if len(s.File) == 0 {
		return ErrNoFile
	}
	if s.Sheet == "" {
		return ErrSheetNotFound
	}
	if len(s.rows) == 0 {
		return ErrNoDataRows
	}
	if err := s.checkRowLimit(); err != nil {
		return err
	}

	s.mapper.AutoMap(s.columns)
	s.Mappings = s.mapper.Mappings()
	s.Step = StepMapColumns
	return nil
}

// SetMapping overrides one destination field. In review the rows are validated again.
func (s *Session) SetMapping(field, column string) error {
	if s.Step == StepSelectFile {
		return &StepError{Action: "change the column mapping", Step: s.Step}
	}
	if err := s.mapper.SetMapping(field, column); err != nil {
		return err
	}
	s.Mappings = s.mapper.Mappings()
	if s.Step == StepReview {
		s.validate()
	}
	return nil
}

// SetMethod changes the merge policy. In review the rows are validated again.
func (s *Session) SetMethod(method ImportMethod) error {
	if _, err := ParseImportMethod(string(method)); err != nil {
		return err
	}
	s.Method = method
	if s.Step == StepReview {
		s.validate()
	}
	return nil
}

// ToReview validates every row. All required fields must be mapped.
func (s *Session) ToReview() error {
	if s.Step != StepMapColumns {
		return &StepError{Action: "review rows", Step: s.Step}
	}
	if missing := s.mapper.Missing(); len(missing) > 0 {
		return &IncompleteMappingError{Missing: missing}
	}

	s.validate()
	s.Step = StepReview
	return nil
}

func (s *Session) validate() {
	s.results = Validate(s.schema, s.rows, s.mapper.Mappings(), s.Existing, s.Method, s.HeaderRow)
	s.selection = NewSelection(s.results)
	s.SelectedRows = s.selection.Selected()
}

// Back moves one step towards file selection.
func (s *Session) Back() error {
	switch s.Step {
	case StepReview:
		s.Step = StepMapColumns
		s.results = nil
		s.selection = nil
		s.SelectedRows = nil
	case StepMapColumns:
		s.Step = StepSelectFile
	default:
		return &StepError{Action: "go back", Step: s.Step}
	}
	return nil
}

// SelectionMode names a bulk selection operation.
type SelectionMode string

const (
	SelectAllRows     SelectionMode = "all"
	SelectValidRows   SelectionMode = "valid"
	SelectInvalidRows SelectionMode = "invalid"
)

// Select applies a bulk selection mode and then toggles individual rows.
func (s *Session) Select(mode SelectionMode, toggle []int) error {
	if s.Step != StepReview {
		return &StepError{Action: "select rows", Step: s.Step}
	}

	switch mode {
	case SelectAllRows:
		s.selection.SelectAll()
	case SelectValidRows:
		s.selection.SelectValid()
	case SelectInvalidRows:
		s.selection.SelectInvalid()
	case "":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSelection, mode)
	}
	for _, idx := range toggle {
		s.selection.Toggle(idx)
	}
	s.SelectedRows = s.selection.Selected()
	return nil
}

// Commit passes the selected valid rows and the method to the committer.
func (s *Session) Commit(ctx context.Context, committer Committer) (CommitSummary, error) {
	if s.Step != StepReview {
		return CommitSummary{}, &StepError{Action: "commit", Step: s.Step}
	}
	return s.selection.Commit(ctx, committer, s.Method)
}
