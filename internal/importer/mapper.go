package importer

import (
	"fmt"
	"strings"
)

// Mapper holds one ColumnMapping per destination field of a schema.
type Mapper struct {
	schema   Schema
	mappings []ColumnMapping
}

func NewMapper(schema Schema) *Mapper {
	m := &Mapper{schema: schema, mappings: make([]ColumnMapping, len(schema.Fields))}
	for i, f := range schema.Fields {
		m.mappings[i] = ColumnMapping{
			DestinationField: f.Name,
			Required:         f.Required,
			Description:      f.Description,
		}
	}
	return m
}

// AutoMap assigns columns to destination fields by position. A leading
// "ID" column is treated as a pass-through identifier and skipped.
func (m *Mapper) AutoMap(columns []string) {
	m.Reset()
	if len(columns) > 0 && strings.EqualFold(strings.TrimSpace(columns[0]), "ID") {
		columns = columns[1:]
	}
	if n := len(columns) - len(reportColumns); n >= 0 && equalFoldAll(columns[n:], reportColumns) {
		columns = columns[:n]
	}
	for i := 0; i < len(columns) && i < len(m.mappings); i++ {
		m.mappings[i].SourceColumn = columns[i]
	}
}

// SetMapping overrides the source column of a field. An empty column unmaps it.
func (m *Mapper) SetMapping(field, column string) error {
	for i := range m.mappings {
		if m.mappings[i].DestinationField == field {
			m.mappings[i].SourceColumn = column
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownField, field)
}

func (m *Mapper) IsComplete() bool {
	return len(m.Missing()) == 0
}

// Missing returns the labels of required fields that are not mapped.
func (m *Mapper) Missing() []string {
	var missing []string
	for _, mp := range m.mappings {
		if mp.Required && mp.SourceColumn == "" {
			missing = append(missing, m.label(mp.DestinationField))
		}
	}
	return missing
}

func (m *Mapper) Reset() {
	for i := range m.mappings {
		m.mappings[i].SourceColumn = ""
	}
}

// Mappings returns a copy of the current mappings in schema order.
func (m *Mapper) Mappings() []ColumnMapping {
	out := make([]ColumnMapping, len(m.mappings))
	copy(out, m.mappings)
	return out
}

func (m *Mapper) label(field string) string {
	if f, ok := m.schema.Field(field); ok && f.Label != "" {
		return f.Label
	}
	return field
}

func equalFoldAll(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(strings.TrimSpace(a[i]), b[i]) {
			return false
		}
	}
	return true
}
