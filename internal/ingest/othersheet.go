package ingest

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/utsmok/ea-cli/internal/mapping"
	"github.com/utsmok/ea-cli/internal/schema"
	"github.com/utsmok/ea-cli/internal/types"
	"github.com/utsmok/ea-cli/internal/validation"
	"github.com/utsmok/ea-cli/internal/xlsxparser"
	apperrors "github.com/utsmok/ea-cli/pkg/errors"
	"github.com/utsmok/ea-cli/pkg/logger"
)

// =============================================================================
// ALTERNATE SHEET
// =============================================================================

// OtherSheet is a previously written (or hand-maintained) review sheet used
// as the data source instead of a CopyRight export.
type OtherSheet struct {
	// Records are the schema-conformant records of the sheet.
	Records types.RecordSet

	// Date is the latest retrieved_from_copyright_on of the sheet, used as
	// the run date.
	Date time.Time
}

// ReadOtherSheet reads the first sheet of path and back-fills the columns an
// older sheet may lack:
//   - workflow_status          -> "ToDo"
//   - retrieved_from_copyright_on -> renamed from added_to_sheet_on when
//     present, otherwise the file's modification date
//   - faculty                  -> derived from department
//
// Any other missing schema column is a validation error.
func ReadOtherSheet(path string, mapper *mapping.Mapper, log logger.Logger) (*OtherSheet, error) {
	log = log.WithComponent("other-sheet")

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, apperrors.EnvironmentError(apperrors.CodePermission, path, err)
		}
		return nil, apperrors.EnvironmentError(apperrors.CodeNoExportFound, path, err)
	}
	modified := info.ModTime().Format(schema.DateLayout)

	raw, err := xlsxparser.ReadTable(path, "")
	if err != nil {
		return nil, apperrors.ValidationError(apperrors.CodeUnreadableSheet, path, "", err)
	}
	if raw.IsEmpty() {
		return nil, apperrors.ValidationError(apperrors.CodeEmptySheet, path, "", nil)
	}

	table := &types.Table{
		SourceFile: raw.SourceFile,
		SheetName:  raw.SheetName,
		Headers:    schema.NormalizeHeaders(raw.Headers),
		Rows:       cloneRows(raw.Rows),
	}
	log.Info("read %d item(s) from %s, last modified %s", len(table.Rows), path, modified)

	if !table.HasColumn(schema.FieldWorkflowStatus) {
		addColumn(table, schema.FieldWorkflowStatus, func([]string) string { return schema.WorkflowToDo })
	}

	if !table.HasColumn(schema.FieldRetrievedFromCopyrightOn) {
		if idx := table.ColumnIndex(schema.FieldAddedToSheetOn); idx >= 0 {
			table.Headers[idx] = schema.FieldRetrievedFromCopyrightOn
		} else {
			addColumn(table, schema.FieldRetrievedFromCopyrightOn, func([]string) string { return modified })
		}
	}

	if !table.HasColumn(schema.FieldFaculty) {
		deptIdx := table.ColumnIndex(schema.FieldDepartment)
		addColumn(table, schema.FieldFaculty, func(row []string) string {
			if deptIdx < 0 {
				return mapper.Category("")
			}
			return mapper.Category(row[deptIdx])
		})
	}

	validator := validation.NewValidatorWithOptions(validation.ValidationOptions{
		RequiredColumns: schema.Columns,
		CheckValues:     true,
	})
	result := validator.ValidateTable(table)
	for _, w := range result.Warnings() {
		log.Debug("%s", w.Error())
	}
	if !result.IsValid {
		var missing []string
		for _, e := range result.FatalErrors() {
			missing = append(missing, e.Field)
		}
		return nil, apperrors.ValidationError(apperrors.CodeMissingColumn, path, strings.Join(missing, ", "), nil)
	}

	records := table.Records()
	latest := ""
	for _, rec := range records {
		rec[schema.FieldMaterialID] = schema.Canonical(rec[schema.FieldMaterialID])
		for _, field := range []string{schema.FieldRetrievedFromCopyrightOn, schema.FieldLastChange} {
			if date, ok := ParseDate(rec[field]); ok {
				rec[field] = date
			}
		}
		if r := rec[schema.FieldRetrievedFromCopyrightOn]; r > latest {
			if _, err := time.Parse(schema.DateLayout, r); err == nil {
				latest = r
			}
		}
	}

	date := info.ModTime()
	if latest != "" {
		date, _ = time.Parse(schema.DateLayout, latest)
	}

	return &OtherSheet{Records: schema.ConformAll(records), Date: date}, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// addColumn appends a column whose value is computed from each row.
func addColumn(table *types.Table, name string, value func(row []string) string) {
	for i, row := range table.Rows {
		table.Rows[i] = append(row, value(row))
	}
	table.Headers = append(table.Headers, name)
}
