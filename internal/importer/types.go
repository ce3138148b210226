package importer

import (
	"fmt"
	"strings"
)

// ImportRow is one data row of a sheet, keyed by trimmed header label.
type ImportRow map[string]string

// Record is a validated row keyed by destination field name.
type Record map[string]string

// ImportMethod is the merge policy applied when committing an import.
type ImportMethod string

const (
	MethodInsert    ImportMethod = "insert"
	MethodUpdate    ImportMethod = "update"
	MethodOverwrite ImportMethod = "overwrite"
)

// ParseImportMethod accepts the method names case-insensitively.
func ParseImportMethod(s string) (ImportMethod, error) {
	switch m := ImportMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodInsert, MethodUpdate, MethodOverwrite:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

type FieldKind string

const (
	KindText    FieldKind = "text"
	KindInteger FieldKind = "integer"
	KindDecimal FieldKind = "decimal"
)

// FieldSpec describes one destination field of a dataset.
type FieldSpec struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Required    bool      `json:"required"`
	Description string    `json:"description"`
	Kind        FieldKind `json:"kind,omitempty"`
	MaxLength   int       `json:"max_length,omitempty"`
	Example     string    `json:"example,omitempty"`
}

// Schema is the fixed, ordered destination field set of a dataset.
type Schema struct {
	Dataset     string      `json:"dataset"`
	Fields      []FieldSpec `json:"fields"`
	KeyField    string      `json:"key_field"`
	ParentField string      `json:"parent_field,omitempty"`
}

func (s Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

func (s Schema) Labels() []string {
	labels := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		labels[i] = f.Label
	}
	return labels
}

// ColumnMapping binds a destination field to a spreadsheet column.
type ColumnMapping struct {
	DestinationField string `json:"destination_field"`
	SourceColumn     string `json:"source_column"`
	Required         bool   `json:"required"`
	Description      string `json:"description"`
}

// ExistingRecord is the read-only view of a stored record used for
// existence and parent checks. Parent is the stored parent ID, empty or "0"
// for top-level records and for datasets without a hierarchy.
type ExistingRecord struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Parent string `json:"parent,omitempty"`
}

// NormalizeKey folds a business key the way the database collation compares
// it: surrounding blanks ignored, letters case-insensitive.
func NormalizeKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type ValidationResult struct {
	RowIndex int      `json:"row_index"`
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Data     Record   `json:"data"`
}

// CommitSummary is reported back by the dataset owner after applying records.
type CommitSummary struct {
	Method   ImportMethod `json:"method"`
	Inserted int          `json:"inserted"`
	Updated  int          `json:"updated"`
	Deleted  int          `json:"deleted"`
	Queued   bool         `json:"queued"`
}

func (s CommitSummary) Total() int {
	return s.Inserted + s.Updated
}
