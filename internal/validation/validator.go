// =============================================================================
// Easy Access Toolkit - Sheet Validation
// =============================================================================
//
// This module checks raw tables read back from disk before their records are
// trusted by the reconciliation stage. It validates:
//   - Emptiness (an empty table is never usable)
//   - Header structure (duplicate, unknown and missing columns)
//   - Field values of the reserved columns (optional)
//
// ERROR HANDLING:
//   - Problems are collected, not returned on the first hit
//   - Each problem carries the file, row and field it was found in
//   - Errors make the table invalid; warnings are only reported
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/utsmok/ea-cli/internal/schema"
	"github.com/utsmok/ea-cli/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Severity of a validation problem.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError represents a single validation problem.
type ValidationError struct {
	// Severity indicates whether the table is still usable.
	Severity Severity

	// SourceFile is the file the table was read from.
	SourceFile string

	// Field is the column the problem was found in, if any.
	Field string

	// Value is the offending value, if any.
	Value string

	// Rule is a short machine-readable name for the check that failed.
	Rule string

	// Message is a human-readable description.
	Message string

	// RowNumber is the 1-based sheet row (the header is row 1), or 0 for
	// table-level problems.
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	location := e.SourceFile
	if e.RowNumber > 0 {
		location = fmt.Sprintf("%s row %d", location, e.RowNumber)
	}
	if e.Field != "" {
		location = fmt.Sprintf("%s, field '%s'", location, e.Field)
	}
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(string(e.Severity)), location, e.Message)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validating one table.
type ValidationResult struct {
	// IsValid is true if there are no errors.
	IsValid bool

	// Errors contains all problems, warnings included.
	Errors []*ValidationError

	// ErrorCount is the number of errors.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// RowsValidated is the number of data rows checked.
	RowsValidated int
}

func (r *ValidationResult) add(e *ValidationError, treatWarningsAsErrors bool) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
		return
	}
	r.WarningCount++
	if treatWarningsAsErrors {
		r.IsValid = false
	}
}

// Warnings returns only the warnings.
func (r *ValidationResult) Warnings() []*ValidationError {
	return r.filter(SeverityWarning)
}

// FatalErrors returns only the errors.
func (r *ValidationResult) FatalErrors() []*ValidationError {
	return r.filter(SeverityError)
}

func (r *ValidationResult) filter(s Severity) []*ValidationError {
	var out []*ValidationError
	for _, e := range r.Errors {
		if e.Severity == s {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// RequiredColumns are schema columns whose absence is an error rather
	// than a warning.
	RequiredColumns []string

	// CheckValues enables per-row checks of the reserved columns.
	CheckValues bool

	// TreatWarningsAsErrors makes any warning invalidate the table.
	TreatWarningsAsErrors bool
}

// Validator validates raw tables against the record schema.
type Validator struct {
	options ValidationOptions
}

// DefaultValidationOptions returns the options used for read-back sheets:
// only emptiness is fatal, everything else is reported as a warning.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{CheckValues: true}
}

// NewValidator creates a new Validator instance with default options.
func NewValidator() *Validator {
	return &Validator{options: DefaultValidationOptions()}
}

// NewValidatorWithOptions creates a new Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// ValidateTable validates a raw table whose headers already use schema names.
//
// PARAMETERS:
//   - table: The table to validate.
//
// RETURNS:
//   - A ValidationResult; IsValid is false for an empty table.
func (v *Validator) ValidateTable(table *types.Table) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	source := ""
	if table != nil {
		source = table.SourceFile
	}

	if table.IsEmpty() {
		result.add(&ValidationError{
			Severity:   SeverityError,
			SourceFile: source,
			Rule:       "not_empty",
			Message:    "table contains no data rows",
		}, false)
		return result
	}

	v.validateHeaders(table, result)

	result.RowsValidated = len(table.Rows)
	if v.options.CheckValues {
		v.validateRows(table, result)
	}

	return result
}

// validateHeaders checks for duplicate, unknown and missing columns.
func (v *Validator) validateHeaders(table *types.Table, result *ValidationResult) {
	seen := make(map[string]bool, len(table.Headers))
	for _, h := range table.Headers {
		if seen[h] {
			v.report(result, SeverityWarning, table.SourceFile, h, "", 0, "duplicate_column",
				"column appears more than once, the last occurrence is used")
			continue
		}
		seen[h] = true
		if schema.ColumnIndex(h) < 0 {
			v.report(result, SeverityWarning, table.SourceFile, h, "", 0, "unknown_column",
				"column is not part of the record schema and will be dropped")
		}
	}

	required := make(map[string]bool, len(v.options.RequiredColumns))
	for _, c := range v.options.RequiredColumns {
		required[c] = true
	}

	for _, col := range schema.MissingColumns(table.Headers) {
		severity := SeverityWarning
		message := "column is missing and will be left empty"
		if required[col] {
			severity = SeverityError
			message = "required column is missing"
		}
		v.report(result, severity, table.SourceFile, col, "", 0, "missing_column", message)
	}
}

// validateRows checks the values of the reserved columns.
func (v *Validator) validateRows(table *types.Table, result *ValidationResult) {
	workflowIdx := table.ColumnIndex(schema.FieldWorkflowStatus)
	classificationIdx := table.ColumnIndex(schema.FieldManualClassification)
	lastChangeIdx := table.ColumnIndex(schema.FieldLastChange)
	idIdx := table.ColumnIndex(schema.FieldMaterialID)

	seenIDs := make(map[string]int)

	for i, row := range table.Rows {
		rowNumber := i + 2

		if value := cell(row, workflowIdx); value != "" && !contains(schema.WorkflowStates, value) {
			v.report(result, SeverityWarning, table.SourceFile, schema.FieldWorkflowStatus, value, rowNumber,
				"allowed_value", fmt.Sprintf("expected one of %s", strings.Join(schema.WorkflowStates, ", ")))
		}

		if value := cell(row, classificationIdx); value != "" && !contains(schema.ManualClassifications, value) {
			v.report(result, SeverityWarning, table.SourceFile, schema.FieldManualClassification, value, rowNumber,
				"allowed_value", "not one of the manual classification options")
		}

		if value := cell(row, lastChangeIdx); value != "" {
			if _, err := time.Parse(schema.DateLayout, value); err != nil {
				v.report(result, SeverityWarning, table.SourceFile, schema.FieldLastChange, value, rowNumber,
					"date_format", "expected a YYYY-MM-DD date")
			}
		}

		if idIdx >= 0 {
			id := schema.Canonical(cell(row, idIdx))
			if id == "" {
				v.report(result, SeverityWarning, table.SourceFile, schema.FieldMaterialID, "", rowNumber,
					"not_empty", "material_id is empty")
			} else if first, ok := seenIDs[id]; ok {
				v.report(result, SeverityWarning, table.SourceFile, schema.FieldMaterialID, id, rowNumber,
					"unique", fmt.Sprintf("material_id also appears on row %d", first))
			} else {
				seenIDs[id] = rowNumber
			}
		}
	}
}

func (v *Validator) report(result *ValidationResult, severity Severity, source, field, value string, row int, rule, message string) {
	result.add(&ValidationError{
		Severity:   severity,
		SourceFile: source,
		Field:      field,
		Value:      value,
		Rule:       rule,
		Message:    message,
		RowNumber:  row,
	}, v.options.TreatWarningsAsErrors)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation problems for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d problem(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
