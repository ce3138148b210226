package importer

import (
	"context"
	"sort"
)

// Committer applies committed records to the dataset that owns them.
type Committer interface {
	Apply(ctx context.Context, records []Record, method ImportMethod) (CommitSummary, error)
}

// Selection tracks which validated rows the operator wants to import.
type Selection struct {
	results  []ValidationResult
	selected map[int]bool
}

// NewSelection starts with exactly the valid rows selected.
func NewSelection(results []ValidationResult) *Selection {
	s := &Selection{results: results}
	s.SelectValid()
	return s
}

func (s *Selection) SelectAll() {
	s.selected = make(map[int]bool, len(s.results))
	for _, r := range s.results {
		s.selected[r.RowIndex] = true
	}
}

func (s *Selection) SelectValid() {
	s.selectWhere(true)
}

func (s *Selection) SelectInvalid() {
	s.selectWhere(false)
}

func (s *Selection) selectWhere(valid bool) {
	s.selected = make(map[int]bool, len(s.results))
	for _, r := range s.results {
		if r.IsValid == valid {
			s.selected[r.RowIndex] = true
		}
	}
}

// Toggle flips one row. Unknown row indexes are ignored and report false.
func (s *Selection) Toggle(rowIndex int) bool {
	for _, r := range s.results {
		if r.RowIndex == rowIndex {
			if s.selected[rowIndex] {
				delete(s.selected, rowIndex)
			} else {
				s.selected[rowIndex] = true
			}
			return true
		}
	}
	return false
}

func (s *Selection) IsSelected(rowIndex int) bool {
	return s.selected[rowIndex]
}

// Selected returns the selected row indexes in ascending order.
func (s *Selection) Selected() []int {
	out := make([]int, 0, len(s.selected))
	for idx := range s.selected {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Restore replaces the selection with the given row indexes, dropping unknown ones.
func (s *Selection) Restore(indexes []int) {
	s.selected = make(map[int]bool, len(indexes))
	known := make(map[int]bool, len(s.results))
	for _, r := range s.results {
		known[r.RowIndex] = true
	}
	for _, idx := range indexes {
		if known[idx] {
			s.selected[idx] = true
		}
	}
}

// Records returns the data of rows that are both selected and valid, in row order.
func (s *Selection) Records() []Record {
	var out []Record
	for _, r := range s.results {
		if r.IsValid && s.selected[r.RowIndex] {
			out = append(out, r.Data)
		}
	}
	return out
}

// Commit hands the selected valid records to the committer. Invalid rows are
// never passed on, even when selected.
func (s *Selection) Commit(ctx context.Context, committer Committer, method ImportMethod) (CommitSummary, error) {
	records := s.Records()
	if len(records) == 0 {
		return CommitSummary{}, ErrNothingToCommit
	}
	return committer.Apply(ctx, records, method)
}
