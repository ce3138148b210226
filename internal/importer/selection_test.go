package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []ValidationResult {
	return []ValidationResult{
		{RowIndex: 2, IsValid: true, Data: Record{"code": "A"}},
		{RowIndex: 3, IsValid: false, Errors: []string{"bad"}, Data: Record{"code": "B"}},
		{RowIndex: 4, IsValid: true, Data: Record{"code": "C"}},
		{RowIndex: 5, IsValid: false, Errors: []string{"bad"}, Data: Record{"code": "D"}},
	}
}

func TestSelection(t *testing.T) {
	t.Run("starts with valid rows", func(t *testing.T) {
		sel := NewSelection(sampleResults())
		assert.Equal(t, []int{2, 4}, sel.Selected())
	})

	t.Run("bulk modes", func(t *testing.T) {
		sel := NewSelection(sampleResults())

		sel.SelectAll()
		assert.Equal(t, []int{2, 3, 4, 5}, sel.Selected())

		sel.SelectInvalid()
		assert.Equal(t, []int{3, 5}, sel.Selected())

		sel.SelectValid()
		assert.Equal(t, []int{2, 4}, sel.Selected())
	})

	t.Run("toggle", func(t *testing.T) {
		sel := NewSelection(sampleResults())

		assert.True(t, sel.Toggle(2))
		assert.False(t, sel.IsSelected(2))
		assert.True(t, sel.Toggle(3))
		assert.True(t, sel.IsSelected(3))
		assert.False(t, sel.Toggle(42))
		assert.Equal(t, []int{3, 4}, sel.Selected())
	})

	t.Run("restore drops unknown rows", func(t *testing.T) {
		sel := NewSelection(sampleResults())
		sel.Restore([]int{5, 99, 2})
		assert.Equal(t, []int{2, 5}, sel.Selected())
	})
}

func TestSelectionCommit(t *testing.T) {
	t.Run("only selected valid rows are committed", func(t *testing.T) {
		sel := NewSelection(sampleResults())
		sel.SelectAll()
		sel.Toggle(4)
		committer := &recordingCommitter{}

		summary, err := sel.Commit(context.Background(), committer, MethodOverwrite)
		require.NoError(t, err)

		assert.Equal(t, []Record{{"code": "A"}}, committer.records)
		assert.Equal(t, MethodOverwrite, committer.method)
		assert.Equal(t, 1, summary.Inserted)
	})

	t.Run("output length equals selected valid rows", func(t *testing.T) {
		sel := NewSelection(sampleResults())
		assert.Len(t, sel.Records(), 2)

		sel.SelectInvalid()
		sel.Toggle(2)
		assert.Len(t, sel.Records(), 1)
	})

	t.Run("nothing selected is a no-op", func(t *testing.T) {
		sel := NewSelection(sampleResults())
		sel.SelectInvalid()
		committer := &recordingCommitter{}

		_, err := sel.Commit(context.Background(), committer, MethodInsert)
		assert.ErrorIs(t, err, ErrNothingToCommit)
		assert.Equal(t, 0, committer.calls)
	})
}
