// =============================================================================
// Easy Access Toolkit - XLSX Sheet Parser
// =============================================================================
//
// This module reads one sheet of an XLSX workbook into a raw Table. It is used
// for the CopyRight export itself, for the alternate sheet given with
// --other-sheet, and for reading back previously written faculty sheets.
//
// SHEET SELECTION:
//   The caller names a preferred sheet (e.g. "Complete data"). When the
//   workbook has no sheet with that name, the first sheet is read instead.
//
// CELL VALUES:
//   Cells are read as raw values, not as they are displayed. A date cell in a
//   CopyRight export therefore arrives as an Excel serial number ("45296")
//   and is converted by the ingestion normalizer.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/utsmok/ea-cli/internal/types"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ReadTable reads a sheet of an XLSX file into a Table.
//
// PARAMETERS:
//   - path: The path to the XLSX file.
//   - preferredSheet: The sheet to read. Empty means the first sheet.
//
// RETURNS:
//   - A pointer to the Table. The first non-empty row is the header row;
//     every data row has exactly len(Headers) cells.
//   - An error if the file cannot be opened or the sheet cannot be read.
func ReadTable(path string, preferredSheet string) (*types.Table, error) {
	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := selectSheet(f, preferredSheet)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheetName, err)
	}

	table := &types.Table{
		SourceFile: path,
		SheetName:  sheetName,
		Rows:       [][]string{},
	}

	headerIndex := firstNonEmptyRow(rows)
	if headerIndex < 0 {
		return table, nil
	}

	table.Headers = cleanHeaders(rows[headerIndex])
	width := len(table.Headers)

	for _, row := range rows[headerIndex+1:] {
		if isRowEmpty(row) {
			continue
		}
		cells := make([]string, width)
		for i := 0; i < width && i < len(row); i++ {
			cells[i] = strings.TrimSpace(row[i])
		}
		table.Rows = append(table.Rows, cells)
	}

	return table, nil
}

// SheetNames returns the sheet names of a workbook in tab order.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// selectSheet returns preferred when the workbook has it, otherwise the
// first sheet.
func selectSheet(f *excelize.File, preferred string) string {
	if preferred != "" {
		for _, name := range f.GetSheetList() {
			if name == preferred {
				return name
			}
		}
	}
	return f.GetSheetName(0)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func firstNonEmptyRow(rows [][]string) int {
	for i, row := range rows {
		if !isRowEmpty(row) {
			return i
		}
	}
	return -1
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// cleanHeaders trims headers and drops trailing empty header cells. Empty
// headers in the middle are named after their column letter.
func cleanHeaders(row []string) []string {
	last := len(row) - 1
	for last >= 0 && strings.TrimSpace(row[last]) == "" {
		last--
	}

	headers := make([]string, last+1)
	for i := 0; i <= last; i++ {
		header := strings.TrimSpace(row[i])
		if header == "" {
			name, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				name = fmt.Sprintf("%d", i+1)
			}
			header = "Column_" + name
		}
		headers[i] = header
	}
	return headers
}
