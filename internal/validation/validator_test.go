package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utsmok/ea-cli/internal/schema"
	"github.com/utsmok/ea-cli/internal/types"
)

// fullTable returns a table with every schema column and the given rows,
// each row given as field -> value.
func fullTable(rows ...map[string]string) *types.Table {
	t := &types.Table{SourceFile: "EEMCS_2024-01-05.xlsx", Headers: append([]string(nil), schema.Columns...)}
	for _, r := range rows {
		t.Rows = append(t.Rows, schema.Row(types.Record(r)))
	}
	return t
}

func TestEmptyTableIsInvalid(t *testing.T) {
	v := NewValidator()

	for _, table := range []*types.Table{nil, {SourceFile: "x.xlsx", Headers: []string{"material_id"}}} {
		result := v.ValidateTable(table)
		assert.False(t, result.IsValid)
		assert.Equal(t, 1, result.ErrorCount)
		assert.Equal(t, "not_empty", result.Errors[0].Rule)
	}
}

func TestCleanTable(t *testing.T) {
	table := fullTable(
		map[string]string{"material_id": "1", "workflow_status": "ToDo", "last_change": "2024-01-05"},
		map[string]string{"material_id": "2", "workflow_status": "Done", "manual_classification": "open access"},
	)

	result := NewValidator().ValidateTable(table)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.RowsValidated)
}

func TestStructuralProblemsAreWarnings(t *testing.T) {
	table := &types.Table{
		SourceFile: "old.xlsx",
		Headers:    []string{"material_id", "title", "title", "extra"},
		Rows:       [][]string{{"1", "a", "b", "x"}},
	}

	result := NewValidator().ValidateTable(table)
	assert.True(t, result.IsValid)
	assert.Zero(t, result.ErrorCount)

	rules := map[string]int{}
	for _, w := range result.Warnings() {
		rules[w.Rule]++
	}
	assert.Equal(t, 1, rules["duplicate_column"])
	assert.Equal(t, 1, rules["unknown_column"])
	assert.Equal(t, len(schema.Columns)-2, rules["missing_column"])
}

func TestRequiredColumnMissingIsError(t *testing.T) {
	table := &types.Table{Headers: []string{"material_id"}, Rows: [][]string{{"1"}}}

	v := NewValidatorWithOptions(ValidationOptions{RequiredColumns: []string{schema.FieldURL}})
	result := v.ValidateTable(table)

	assert.False(t, result.IsValid)
	require.Len(t, result.FatalErrors(), 1)
	assert.Equal(t, schema.FieldURL, result.FatalErrors()[0].Field)
}

func TestValueChecks(t *testing.T) {
	table := fullTable(
		map[string]string{"material_id": "42", "workflow_status": "Maybe"},
		map[string]string{"material_id": "42.0", "manual_classification": "unknown", "last_change": "05/01/2024"},
		map[string]string{"material_id": ""},
	)

	result := NewValidator().ValidateTable(table)
	assert.True(t, result.IsValid)

	byRule := map[string]*ValidationError{}
	for _, w := range result.Warnings() {
		byRule[w.Rule+"/"+w.Field] = w
	}

	require.Contains(t, byRule, "allowed_value/workflow_status")
	assert.Equal(t, 2, byRule["allowed_value/workflow_status"].RowNumber)
	require.Contains(t, byRule, "allowed_value/manual_classification")
	require.Contains(t, byRule, "date_format/last_change")
	require.Contains(t, byRule, "unique/material_id")
	assert.Equal(t, 3, byRule["unique/material_id"].RowNumber)
	require.Contains(t, byRule, "not_empty/material_id")
	assert.Equal(t, 4, byRule["not_empty/material_id"].RowNumber)
}

func TestTreatWarningsAsErrors(t *testing.T) {
	table := &types.Table{Headers: []string{"material_id"}, Rows: [][]string{{"1"}}}
	result := NewValidatorWithOptions(ValidationOptions{TreatWarningsAsErrors: true}).ValidateTable(table)
	assert.False(t, result.IsValid)
	assert.Zero(t, result.ErrorCount)
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "No validation errors.", FormatErrors(nil))

	out := FormatErrors([]*ValidationError{{
		Severity:   SeverityWarning,
		SourceFile: "a.xlsx",
		Field:      "url",
		Message:    "column is missing",
		RowNumber:  3,
	}})
	assert.Contains(t, out, "1 problem(s)")
	assert.Contains(t, out, "[WARNING] a.xlsx row 3, field 'url': column is missing")
}
