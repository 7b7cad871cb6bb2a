package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/utsmok/ea-cli/internal/types"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Material ID", "material_id"},
		{"#students_registered", "count_students_registered"},
		{"Pages * Students", "pages_x_students"},
		{"  Last Change ", "last_change"},
		{"url", "url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeHeader(tt.in), tt.in)
	}
}

func TestColumnsContainReservedFields(t *testing.T) {
	for _, f := range []string{FieldMaterialID, FieldLastChange, FieldStatus, FieldRetrievedFromCopyrightOn, FieldWorkflowStatus, FieldFaculty} {
		assert.GreaterOrEqual(t, ColumnIndex(f), 0, f)
	}
	for _, f := range ReviewColumns {
		assert.GreaterOrEqual(t, ColumnIndex(f), 0, f)
	}
	assert.Equal(t, 0, ColumnIndex(FieldMaterialID))
	assert.Equal(t, len(Columns)-1, ColumnIndex(FieldFaculty))
	assert.Equal(t, -1, ColumnIndex(FieldAddedToSheetOn))
}

func TestConform(t *testing.T) {
	rec := types.Record{"material_id": "1", "extra": "dropped"}

	out := Conform(rec)
	assert.Len(t, out, len(Columns))
	assert.Equal(t, "1", out["material_id"])
	assert.Equal(t, "", out["faculty"])
	assert.NotContains(t, out, "extra")
	assert.Contains(t, rec, "extra", "input is not modified")

	row := Row(out)
	assert.Len(t, row, len(Columns))
	assert.Equal(t, "1", row[0])
}

func TestMissingColumns(t *testing.T) {
	missing := MissingColumns(Columns[2:])
	assert.Equal(t, []string{"material_id", "period"}, missing)
	assert.Empty(t, MissingColumns(Columns))
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"42", "42"},
		{"42.0", "42"},
		{" 42 ", "42"},
		{"4.2E+1", "42"},
		{"-7.50", "-7.5"},
		{"0.5", "0.5"},
		{"007", "007"},
		{"+42", "+42"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Canonical(tt.in), tt.in)
	}
}
