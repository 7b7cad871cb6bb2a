// =============================================================================
// Easy Access Toolkit - Review Sheet Augmenter
// =============================================================================
//
// This module turns a freshly written single-sheet workbook into the review
// workbook reviewers work in:
//
//   "Complete data"  all schema columns, as written
//   "Data entry"     the review columns, copied by name, with
//                      - url values as clickable links
//                      - drop-downs on workflow_status and
//                        manual_classification
//                      - an Excel table named DataEntry
//
// The workbook is saved to a temporary file next to the original, which is
// then renamed over it.
//
// =============================================================================

package review

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/utsmok/ea-cli/internal/schema"
	apperrors "github.com/utsmok/ea-cli/pkg/errors"
	"github.com/utsmok/ea-cli/pkg/logger"
	"github.com/utsmok/ea-cli/pkg/utils"
)

const (
	// TableName is the name of the table on the data entry sheet.
	TableName = "DataEntry"

	// FirstTableStyle is the TableStyleMedium number of the first file.
	FirstTableStyle = 2

	// maxTableStyle is the highest built-in TableStyleMedium number.
	maxTableStyle = 28

	validationErrorTitle = "Invalid option"
	validationErrorMsg   = "Please select a valid option from the list"
	validationInputTitle = "List selection"
	validationInputMsg   = "Please select from the list"
)

// dropDowns lists the review columns restricted to a fixed set of values.
var dropDowns = []struct {
	field   string
	options []string
}{
	{schema.FieldWorkflowStatus, schema.WorkflowStates},
	{schema.FieldManualClassification, schema.ManualClassifications},
}

// =============================================================================
// AUGMENTER
// =============================================================================

// Augmenter adds the data entry sheet to written workbooks. Each augmented
// workbook gets the next table style, so files of one run are easy to tell
// apart. An Augmenter is not safe for concurrent use.
type Augmenter struct {
	nextStyle int
	log       logger.Logger
}

// NewAugmenter creates an Augmenter starting at FirstTableStyle.
func NewAugmenter(log logger.Logger) *Augmenter {
	return &Augmenter{
		nextStyle: FirstTableStyle,
		log:       log.WithComponent("review"),
	}
}

// Augment rewrites the workbook at path in place.
//
// RETURNS:
//   - An augmentation error when the workbook cannot be reopened, changed or
//     saved. The original file is left as written in that case.
func (a *Augmenter) Augment(path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return apperrors.AugmentationError(apperrors.CodeReopenFailed, path, err)
	}

	style := a.takeStyle()
	if err := build(f, style); err != nil {
		f.Close()
		return apperrors.AugmentationError(apperrors.CodeSaveFailed, path, err)
	}

	tmp := utils.TempSibling(path)
	if err := f.SaveAs(tmp); err != nil {
		f.Close()
		return apperrors.AugmentationError(apperrors.CodeSaveFailed, path, err)
	}
	if err := f.Close(); err != nil {
		a.log.Debug("closing %s: %v", path, err)
	}

	if err := utils.ReplaceFile(tmp, path); err != nil {
		return apperrors.AugmentationError(apperrors.CodeSaveFailed, path, err)
	}

	a.log.Debug("added review sheet to %s (TableStyleMedium%d)", path, style)
	return nil
}

// takeStyle returns the current table style number and advances the counter,
// wrapping from maxTableStyle back to 1.
func (a *Augmenter) takeStyle() int {
	style := a.nextStyle
	a.nextStyle = style%maxTableStyle + 1
	return style
}

// =============================================================================
// WORKBOOK CHANGES
// =============================================================================

// build applies all changes to an open workbook.
func build(f *excelize.File, style int) error {
	first := f.GetSheetName(0)
	if first == "" {
		return fmt.Errorf("workbook has no sheets")
	}
	if first != schema.CompleteDataSheet {
		if err := f.SetSheetName(first, schema.CompleteDataSheet); err != nil {
			return fmt.Errorf("failed to rename sheet %q: %w", first, err)
		}
	}

	rows, err := f.GetRows(schema.CompleteDataSheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", schema.CompleteDataSheet, err)
	}

	if _, err := f.NewSheet(schema.DataEntrySheet); err != nil {
		return fmt.Errorf("failed to add sheet %q: %w", schema.DataEntrySheet, err)
	}

	dataRows := copyReviewColumns(rows)
	if err := writeRows(f, dataRows); err != nil {
		return err
	}

	// The table and validations need at least one data row.
	maxRow := len(dataRows) + 1
	if maxRow < 2 {
		maxRow = 2
	}

	if err := addDropDowns(f, maxRow); err != nil {
		return err
	}
	return addTable(f, maxRow, style)
}

// copyReviewColumns selects the review columns from the rows of the complete
// data sheet by header name. A review column missing from the header row is
// left empty.
func copyReviewColumns(rows [][]string) [][]string {
	if len(rows) == 0 {
		return nil
	}

	source := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		if _, dup := source[h]; !dup {
			source[h] = i
		}
	}

	out := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		values := make([]string, len(schema.ReviewColumns))
		for j, col := range schema.ReviewColumns {
			if i, ok := source[col]; ok && i < len(row) {
				values[j] = row[i]
			}
		}
		out = append(out, values)
	}
	return out
}

// writeRows writes the header and data rows to the data entry sheet and
// turns url values into external hyperlinks.
func writeRows(f *excelize.File, dataRows [][]string) error {
	sheet := schema.DataEntrySheet

	header := make([]interface{}, len(schema.ReviewColumns))
	for i, col := range schema.ReviewColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write review header: %w", err)
	}

	urlCol := reviewColumn(schema.FieldURL)

	for i, values := range dataRows {
		rowNum := i + 2
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write review row %d: %w", rowNum, err)
		}

		link := values[urlCol-1]
		if link == "" {
			continue
		}
		linkCell, err := excelize.CoordinatesToCellName(urlCol, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellHyperLink(sheet, linkCell, link, "External"); err != nil {
			return fmt.Errorf("failed to link %s: %w", linkCell, err)
		}
	}
	return nil
}

// addDropDowns restricts the drop-down columns to their allowed values.
func addDropDowns(f *excelize.File, maxRow int) error {
	for _, dd := range dropDowns {
		col, err := excelize.ColumnNumberToName(reviewColumn(dd.field))
		if err != nil {
			return err
		}

		dv := excelize.NewDataValidation(true)
		dv.Sqref = fmt.Sprintf("%s2:%s%d", col, col, maxRow)
		if err := dv.SetDropList(dd.options); err != nil {
			return fmt.Errorf("failed to set options for %s: %w", dd.field, err)
		}
		dv.SetError(excelize.DataValidationErrorStyleStop, validationErrorTitle, validationErrorMsg)
		dv.SetInput(validationInputTitle, validationInputMsg)

		if err := f.AddDataValidation(schema.DataEntrySheet, dv); err != nil {
			return fmt.Errorf("failed to add validation for %s: %w", dd.field, err)
		}
	}
	return nil
}

// addTable registers the DataEntry table over the copied block.
func addTable(f *excelize.File, maxRow, style int) error {
	lastCol, err := excelize.ColumnNumberToName(len(schema.ReviewColumns))
	if err != nil {
		return err
	}

	showStripes := true
	table := &excelize.Table{
		Range:          fmt.Sprintf("A1:%s%d", lastCol, maxRow),
		Name:           TableName,
		StyleName:      fmt.Sprintf("TableStyleMedium%d", style),
		ShowRowStripes: &showStripes,
	}
	if err := f.AddTable(schema.DataEntrySheet, table); err != nil {
		return fmt.Errorf("failed to add table: %w", err)
	}
	return nil
}

// reviewColumn returns the 1-based column number of a review field.
func reviewColumn(field string) int {
	for i, col := range schema.ReviewColumns {
		if col == field {
			return i + 1
		}
	}
	return 0
}
