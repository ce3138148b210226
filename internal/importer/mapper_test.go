package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sources(m *Mapper) []string {
	var out []string
	for _, mp := range m.Mappings() {
		out = append(out, mp.SourceColumn)
	}
	return out
}

func TestNewMapper(t *testing.T) {
	m := NewMapper(testSchema)
	mappings := m.Mappings()

	require.Len(t, mappings, len(testSchema.Fields))
	for i, f := range testSchema.Fields {
		assert.Equal(t, f.Name, mappings[i].DestinationField)
		assert.Equal(t, f.Required, mappings[i].Required)
		assert.Empty(t, mappings[i].SourceColumn)
	}
	assert.False(t, m.IsComplete())
}

func TestMapperAutoMap(t *testing.T) {
	testCases := []struct {
		name     string
		columns  []string
		expected []string
	}{
		{
			name:     "positional",
			columns:  []string{"Mã", "Tên", "Name", "Cha", "Ghi chú"},
			expected: []string{"Mã", "Tên", "Name", "Cha", "Ghi chú"},
		},
		{
			name:     "fewer columns than fields",
			columns:  []string{"Mã", "Tên"},
			expected: []string{"Mã", "Tên", "", "", ""},
		},
		{
			name:     "extra columns are ignored",
			columns:  []string{"a", "b", "c", "d", "e", "f", "g"},
			expected: []string{"a", "b", "c", "d", "e"},
		},
		{
			name:     "leading ID column is skipped",
			columns:  []string{"ID", "Mã", "Tên"},
			expected: []string{"Mã", "Tên", "", "", ""},
		},
		{
			name:     "ID match is case-insensitive",
			columns:  []string{"id", "Mã"},
			expected: []string{"Mã", "", "", "", ""},
		},
		{
			name:     "ID elsewhere is an ordinary column",
			columns:  []string{"Mã", "ID"},
			expected: []string{"Mã", "ID", "", "", ""},
		},
		{
			name:     "trailing error report columns are skipped",
			columns:  []string{"Mã", "Tên", "Row Number", "Errors"},
			expected: []string{"Mã", "Tên", "", "", ""},
		},
		{
			name:     "report column names elsewhere are ordinary columns",
			columns:  []string{"Errors", "Mã"},
			expected: []string{"Errors", "Mã", "", "", ""},
		},
		{
			name:     "no columns",
			columns:  nil,
			expected: []string{"", "", "", "", ""},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMapper(testSchema)
			m.AutoMap(tc.columns)
			assert.Equal(t, tc.expected, sources(m))
		})
	}

	t.Run("remapping clears previous assignments", func(t *testing.T) {
		m := NewMapper(testSchema)
		m.AutoMap([]string{"a", "b", "c", "d", "e"})
		m.AutoMap([]string{"x"})
		assert.Equal(t, []string{"x", "", "", "", ""}, sources(m))
	})
}

func TestMapperSetMapping(t *testing.T) {
	t.Run("override replaces auto assignment", func(t *testing.T) {
		m := NewMapper(testSchema)
		m.AutoMap([]string{"a", "b"})

		require.NoError(t, m.SetMapping("code", "b"))
		require.NoError(t, m.SetMapping("name_vi", "not-a-column"))

		assert.Equal(t, []string{"b", "not-a-column", "", "", ""}, sources(m))
	})

	t.Run("unknown destination field", func(t *testing.T) {
		m := NewMapper(testSchema)
		err := m.SetMapping("balance", "a")
		assert.ErrorIs(t, err, ErrUnknownField)
	})
}

func TestMapperCompleteness(t *testing.T) {
	m := NewMapper(testSchema)
	assert.Equal(t, []string{"Code", "Vietnamese name"}, m.Missing())

	require.NoError(t, m.SetMapping("code", "a"))
	assert.False(t, m.IsComplete())
	assert.Equal(t, []string{"Vietnamese name"}, m.Missing())

	require.NoError(t, m.SetMapping("name_vi", "b"))
	assert.True(t, m.IsComplete())
	assert.Empty(t, m.Missing())

	require.NoError(t, m.SetMapping("code", ""))
	assert.False(t, m.IsComplete())

	m.Reset()
	assert.Equal(t, []string{"", "", "", "", ""}, sources(m))
}
