package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// NoParent is the parent reference value meaning "top level".
const NoParent = "0"

var digitsOnly = regexp.MustCompile(`^\d+$`)

// Validate checks every row against the schema, the current mappings, the
// existing dataset and the import method. It is a pure batch function:
// duplicate detection needs the whole batch, and identical inputs always
// produce identical results. Problems are reported per row, never returned
// as an error.
func Validate(schema Schema, rows []ImportRow, mappings []ColumnMapping, existing []ExistingRecord, method ImportMethod, headerRow int) []ValidationResult {
	sources := make(map[string]string, len(mappings))
	for _, m := range mappings {
		sources[m.DestinationField] = m.SourceColumn
	}

	existingCodes := make(map[string]bool, len(existing))
	parentKeys := make(map[string]bool, len(existing)*2)
	for _, rec := range existing {
		if rec.Code != "" {
			existingCodes[NormalizeKey(rec.Code)] = true
			parentKeys[NormalizeKey(rec.Code)] = true
		}
		if rec.ID != "" {
			parentKeys[rec.ID] = true
		}
	}

	results := make([]ValidationResult, len(rows))
	keyRows := make(map[string][]int)
	for i, row := range rows {
		results[i] = ValidationResult{
			RowIndex: i + headerRow + 1,
			Errors:   []string{},
			Data:     extract(schema, row, sources),
		}
		if key := NormalizeKey(results[i].Data[schema.KeyField]); key != "" && schema.KeyField != "" {
			keyRows[key] = append(keyRows[key], results[i].RowIndex)
		}
	}

	for i := range results {
		res := &results[i]
		keyReported := false

		for _, f := range schema.Fields {
			value := res.Data[f.Name]
			if value == "" || (f.Name == schema.ParentField && value == NoParent) {
				if f.Required && value == "" {
					res.Errors = append(res.Errors, fmt.Sprintf("%s is required", f.Label))
					if f.Name == schema.KeyField {
						keyReported = true
					}
				}
				continue
			}

			if f.MaxLength > 0 && utf8.RuneCountInString(value) > f.MaxLength {
				res.Errors = append(res.Errors, fmt.Sprintf("%s cannot exceed %d characters", f.Label, f.MaxLength))
			}

			switch f.Name {
			case schema.ParentField:
				if !digitsOnly.MatchString(value) {
					res.Errors = append(res.Errors, fmt.Sprintf("%s must be an integer", f.Label))
				} else if !parentKeys[value] && !parentKeys[NormalizeKey(value)] {
					res.Errors = append(res.Errors, fmt.Sprintf("%s %q does not exist in the system", f.Label, value))
				}
				continue
			case schema.KeyField:
				res.Errors = append(res.Errors, checkKey(f, value, res.RowIndex, keyRows[NormalizeKey(value)], existingCodes, method)...)
			}

			if msg := checkKind(f, value); msg != "" {
				res.Errors = append(res.Errors, msg)
			}
		}

		if schema.KeyField != "" && res.Data[schema.KeyField] == "" && method == MethodUpdate && !keyReported {
			label := schema.KeyField
			if f, ok := schema.Field(schema.KeyField); ok {
				label = f.Label
			}
			res.Errors = append(res.Errors, fmt.Sprintf("%s is required to identify the record to update", label))
		}
	}

	if schema.ParentField != "" && schema.KeyField != "" && method != MethodInsert {
		checkHierarchy(schema, results, existing, method)
	}
	for i := range results {
		results[i].IsValid = len(results[i].Errors) == 0
	}

	return results
}

// checkHierarchy rejects rows whose new parent would make the record its own
// ancestor once the batch is applied. Only rows without other errors take
// part. Under overwrite the stored parents of records missing from the file
// are not followed.
func checkHierarchy(schema Schema, results []ValidationResult, existing []ExistingRecord, method ImportMethod) {
	f, _ := schema.Field(schema.ParentField)

	ids := make(map[string]bool, len(existing))
	idByCode := make(map[string]string, len(existing))
	for _, rec := range existing {
		if rec.ID == "" {
			continue
		}
		ids[rec.ID] = true
		idByCode[NormalizeKey(rec.Code)] = rec.ID
	}
	resolve := func(ref string) string {
		if ref == "" || ref == NoParent {
			return ""
		}
		if ids[ref] {
			return ref
		}
		return idByCode[NormalizeKey(ref)]
	}

	parents := make(map[string]string, len(existing))
	if method == MethodUpdate {
		for _, rec := range existing {
			if rec.ID != "" {
				parents[rec.ID] = resolve(rec.Parent)
			}
		}
	}

	rowIDs := make(map[int]string)
	for i, res := range results {
		if len(res.Errors) > 0 {
			continue
		}
		id := idByCode[NormalizeKey(res.Data[schema.KeyField])]
		if id == "" {
			continue
		}
		rowIDs[i] = id
		parents[id] = resolve(res.Data[schema.ParentField])
	}

	for i, id := range rowIDs {
		seen := map[string]bool{}
		for cur := parents[id]; cur != "" && !seen[cur]; cur = parents[cur] {
			if cur == id {
				value := results[i].Data[schema.ParentField]
				results[i].Errors = append(results[i].Errors,
					fmt.Sprintf("%s %q would make the record its own ancestor", f.Label, value))
				break
			}
			seen[cur] = true
		}
	}
}

// extract maps one sheet row onto destination fields.
func extract(schema Schema, row ImportRow, sources map[string]string) Record {
	data := make(Record, len(schema.Fields))
	for _, f := range schema.Fields {
		value := ""
		if src := sources[f.Name]; src != "" {
			value = strings.TrimSpace(row[src])
		}
		if value == "" && f.Name == schema.ParentField {
			value = NoParent
		}
		data[f.Name] = value
	}
	return data
}

func checkKey(f FieldSpec, value string, rowIndex int, sameKey []int, existingCodes map[string]bool, method ImportMethod) []string {
	var errs []string

	for _, other := range sameKey {
		if other != rowIndex {
			errs = append(errs, fmt.Sprintf("%s %q is duplicated within the file (row %d)", f.Label, value, other))
			break
		}
	}

	switch method {
	case MethodInsert:
		if existingCodes[NormalizeKey(value)] {
			errs = append(errs, fmt.Sprintf("%s %q already exists in the system", f.Label, value))
		}
	case MethodUpdate:
		if !existingCodes[NormalizeKey(value)] {
			errs = append(errs, fmt.Sprintf("%s %q does not exist in the system", f.Label, value))
		}
	}

	return errs
}

func checkKind(f FieldSpec, value string) string {
	switch f.Kind {
	case KindInteger:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return fmt.Sprintf("%s must be an integer", f.Label)
		}
	case KindDecimal:
		if _, err := decimal.NewFromString(strings.ReplaceAll(value, ",", "")); err != nil {
			return fmt.Sprintf("%s must be a number", f.Label)
		}
	}
	return ""
}

// Summarize counts valid and invalid results.
func Summarize(results []ValidationResult) (valid, invalid int) {
	for _, r := range results {
		if r.IsValid {
			valid++
		} else {
			invalid++
		}
	}
	return valid, invalid
}
