package importer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidMethod    = errors.New("invalid import method")
	ErrInvalidHeaderRow = errors.New("header row must be 1 or greater")
	ErrSheetNotFound    = errors.New("sheet not found in workbook")
	ErrNoSheets         = errors.New("no sheets found in Excel file")
	ErrUnknownField     = errors.New("unknown destination field")
	ErrNoFile           = errors.New("no file has been loaded")
	ErrNoDataRows       = errors.New("no data rows found in the selected sheet")
	ErrTooManyRows      = errors.New("file exceeds the maximum number of rows")
	ErrNothingToCommit  = errors.New("no valid rows are selected")
	ErrInvalidSelection = errors.New("invalid selection mode")
	ErrSessionNotFound  = errors.New("import session not found or expired")
	ErrParentCycle      = errors.New("parent reference would create a cycle")
)

// FileReadError is returned when uploaded bytes cannot be parsed as a workbook.
type FileReadError struct {
	FileName string
	Err      error
}

func (e *FileReadError) Error() string {
	if e.FileName != "" {
		return fmt.Sprintf("failed to read Excel file %q: %v", e.FileName, e.Err)
	}
	return fmt.Sprintf("failed to read Excel file: %v", e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}

// IncompleteMappingError lists required fields that have no source column.
type IncompleteMappingError struct {
	Missing []string
}

func (e *IncompleteMappingError) Error() string {
	return "required fields are not mapped: " + strings.Join(e.Missing, ", ")
}

// StepError is returned when a wizard transition is attempted from the wrong step.
type StepError struct {
	Action string
	Step   Step
}

func (e *StepError) Error() string {
	return fmt.Sprintf("cannot %s while in step %q", e.Action, e.Step)
}
