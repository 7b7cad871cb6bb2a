// =============================================================================
// Easy Access Toolkit - Record Schema
// =============================================================================
//
// This module defines the fixed, ordered set of fields every record carries.
// The order defined here is the column order of every spreadsheet the toolkit
// writes, regardless of where the records came from.
//
// It also holds the reserved values (workflow states, category labels, sheet
// names) shared by the ingestion, reconciliation and writing stages.
//
// =============================================================================

package schema

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/utsmok/ea-cli/internal/types"
)

// =============================================================================
// FIELD NAMES
// =============================================================================

const (
	FieldMaterialID               = "material_id"
	FieldDepartment               = "department"
	FieldCourseName               = "course_name"
	FieldURL                      = "url"
	FieldTitle                    = "title"
	FieldOwner                    = "owner"
	FieldMLPrediction             = "ml_prediction"
	FieldManualClassification     = "manual_classification"
	FieldScope                    = "scope"
	FieldRemarks                  = "remarks"
	FieldLastChange               = "last_change"
	FieldStatus                   = "status"
	FieldAuthor                   = "author"
	FieldRetrievedFromCopyrightOn = "retrieved_from_copyright_on"
	FieldWorkflowStatus           = "workflow_status"
	FieldFaculty                  = "faculty"

	// FieldAddedToSheetOn is the legacy name of retrieved_from_copyright_on
	// found in older hand-maintained sheets.
	FieldAddedToSheetOn = "added_to_sheet_on"
)

// Columns is the fixed column order for every "Complete data" sheet.
var Columns = []string{
	"material_id",
	"period",
	"department",
	"course_code",
	"course_name",
	"url",
	"filename",
	"title",
	"owner",
	"filetype",
	"classification",
	"type",
	"ml_prediction",
	"manual_classification",
	"manual_identifier",
	"scope",
	"remarks",
	"auditor",
	"last_change",
	"status",
	"google_search_file",
	"isbn",
	"doi",
	"in_collection",
	"pagecount",
	"wordcount",
	"picturecount",
	"author",
	"publisher",
	"reliability",
	"pages_x_students",
	"count_students_registered",
	"retrieved_from_copyright_on",
	"workflow_status",
	"faculty",
}

// ReviewColumns are the columns copied into the "Data entry" sheet, in order.
var ReviewColumns = []string{
	FieldURL,
	FieldWorkflowStatus,
	FieldManualClassification,
	FieldScope,
	FieldRemarks,
	FieldMLPrediction,
	FieldMaterialID,
	FieldTitle,
	FieldOwner,
	FieldAuthor,
	FieldDepartment,
	FieldCourseName,
}

// =============================================================================
// RESERVED VALUES
// =============================================================================

const (
	// WorkflowToDo is the initial workflow_status of every ingested record.
	WorkflowToDo = "ToDo"
	// WorkflowDone marks a record as fully reviewed.
	WorkflowDone = "Done"
	// WorkflowInProgress marks a record as under review.
	WorkflowInProgress = "InProgress"

	// StatusDeleted is the tracking tool's status for removed items.
	StatusDeleted = "Deleted"

	// CategoryUnmapped is used for departments missing from the mapping file.
	CategoryUnmapped = "Unmapped"
	// CategoryNone is used when a record has no category at all.
	CategoryNone = "no_faculty_found"
	// AllItemsName is the file name prefix of the consolidated sheet.
	AllItemsName = "all_items"

	// CompleteDataSheet is the name of the primary sheet in every output file.
	CompleteDataSheet = "Complete data"
	// DataEntrySheet is the name of the review sheet added next to it.
	DataEntrySheet = "Data entry"

	// DateLayout is the on-disk date format (YYYY-MM-DD).
	DateLayout = "2006-01-02"
)

// WorkflowStates lists the allowed workflow_status values.
var WorkflowStates = []string{WorkflowToDo, WorkflowDone, WorkflowInProgress}

// ManualClassifications lists the allowed manual_classification values.
var ManualClassifications = []string{
	"open access",
	"eigen materiaal - powerpoint",
	"eigen materiaal - overig",
	"lange overname",
	"eigen materiaal - titelindicatie",
}

// =============================================================================
// HEADER NORMALIZATION
// =============================================================================

// headerRewrites is the fixed rewrite table applied to export headers.
var headerRewrites = strings.NewReplacer(
	" ", "_",
	"#", "count_",
	"*", "x",
)

var lower = cases.Lower(language.Und)

// NormalizeHeader rewrites a tracking-tool column name into the schema naming
// convention: spaces become underscores, "#" becomes "count_", "*" becomes
// "x", and the result is lower-cased.
//
// EXAMPLE:
//   "Material ID"        -> "material_id"
//   "#students_registered" -> "count_students_registered"
//   "Pages * Students"   -> "pages_x_students"
func NormalizeHeader(header string) string {
	return lower.String(headerRewrites.Replace(strings.TrimSpace(header)))
}

// NormalizeHeaders applies NormalizeHeader to every header.
func NormalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = NormalizeHeader(h)
	}
	return out
}

// =============================================================================
// CONFORMANCE
// =============================================================================

// Conform returns a copy of rec holding exactly the schema fields.
// Missing fields are filled with "", fields outside the schema are dropped.
func Conform(rec types.Record) types.Record {
	out := make(types.Record, len(Columns))
	for _, col := range Columns {
		out[col] = rec[col]
	}
	return out
}

// ConformAll applies Conform to every record of the set.
func ConformAll(records types.RecordSet) types.RecordSet {
	out := make(types.RecordSet, len(records))
	for i, r := range records {
		out[i] = Conform(r)
	}
	return out
}

// Row returns the record's values in schema column order.
func Row(rec types.Record) []string {
	row := make([]string, len(Columns))
	for i, col := range Columns {
		row[i] = rec[col]
	}
	return row
}

// MissingColumns returns the schema columns not present in headers.
func MissingColumns(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, col := range Columns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// ColumnIndex returns the 0-based schema position of a field, or -1.
func ColumnIndex(field string) int {
	for i, col := range Columns {
		if col == field {
			return i
		}
	}
	return -1
}

// =============================================================================
// VALUE CANONICALIZATION
// =============================================================================

// Canonical returns the string form used when comparing values read from
// differently typed sources. Numbers written by one tool as "42" and by
// another as "42.0" or "4.2E+1" compare equal after canonicalization.
// Non-numeric text is only trimmed.
func Canonical(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || !looksNumeric(value) {
		return value
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return value
	}
	return d.String()
}

// looksNumeric filters out strings decimal would accept but that are not
// plain numbers in a spreadsheet sense (e.g. leading "+" or zero-padded codes).
func looksNumeric(value string) bool {
	if len(value) > 1 && value[0] == '0' && value[1] != '.' {
		return false
	}
	prev := rune(0)
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
		case r == '.', r == '-', r == 'e', r == 'E':
		case r == '+' && (prev == 'e' || prev == 'E'):
		default:
			return false
		}
		prev = r
	}
	return true
}
