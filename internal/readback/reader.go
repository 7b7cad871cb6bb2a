// =============================================================================
// Easy Access Toolkit - Category Sheet Reader
// =============================================================================
//
// This module reads back every category sheet previously written under the
// faculties directory. The result is the "previous" record set the
// reconciliation engine compares the current export against.
//
// READ-BACK RULES:
//   - The directory tree is walked recursively
//   - Only .xlsx files are read; .xls files are reported and skipped
//   - Office lock files (~$...) and hidden temporary files are ignored
//   - The "Complete data" sheet is read, falling back to the first sheet
//   - A file that cannot be opened or holds no rows is skipped
//   - Date columns are normalized to YYYY-MM-DD, whether stored as text or
//     as date cells
//   - All records are conformed to the schema and identical rows collapse
//
// =============================================================================

package readback

import (
	"path/filepath"
	"strings"

	"github.com/utsmok/ea-cli/internal/ingest"
	"github.com/utsmok/ea-cli/internal/schema"
	"github.com/utsmok/ea-cli/internal/types"
	"github.com/utsmok/ea-cli/internal/validation"
	"github.com/utsmok/ea-cli/internal/xlsxparser"
	apperrors "github.com/utsmok/ea-cli/pkg/errors"
	"github.com/utsmok/ea-cli/pkg/logger"
	"github.com/utsmok/ea-cli/pkg/utils"
)

// SheetExtensions are the file types considered category sheets.
var SheetExtensions = []string{".xlsx", ".xls"}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result holds the records read back from a directory tree.
type Result struct {
	// Records are the distinct, schema-conformant records of all valid files.
	Records types.RecordSet

	// FilesRead lists the files that contributed records.
	FilesRead []string

	// FilesSkipped lists candidate files that were rejected.
	FilesSkipped []string
}

// =============================================================================
// READER
// =============================================================================

// Reader reads previously written category sheets.
type Reader struct {
	validator *validation.Validator
	log       logger.Logger
}

// NewReader creates a Reader.
func NewReader(log logger.Logger) *Reader {
	return &Reader{
		validator: validation.NewValidator(),
		log:       log.WithComponent("readback"),
	}
}

// ReadAll reads every category sheet below root.
//
// PARAMETERS:
//   - root: The faculties directory.
//
// RETURNS:
//   - The combined Result; Records is empty when no valid sheet exists.
//   - An environment error when root itself cannot be walked.
func (r *Reader) ReadAll(root string) (*Result, error) {
	files, err := utils.ListFilesRecursive(root)
	if err != nil {
		return nil, apperrors.EnvironmentError(apperrors.CodeDirectoryError, root, err)
	}

	result := &Result{}
	var all types.RecordSet

	for _, path := range files {
		name := filepath.Base(path)
		if utils.IsLockFile(name) || strings.HasPrefix(name, ".") {
			continue
		}
		if !utils.HasExtension(name, SheetExtensions) {
			r.log.Warn("skipping %s: not a spreadsheet", path)
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".xls") {
			r.log.Warn("skipping %s: legacy .xls workbooks cannot be read, save it as .xlsx", path)
			result.FilesSkipped = append(result.FilesSkipped, path)
			continue
		}

		records, err := r.readFile(path)
		if err != nil {
			r.log.Warn("skipping %s: %v", path, err)
			result.FilesSkipped = append(result.FilesSkipped, path)
			continue
		}

		result.FilesRead = append(result.FilesRead, path)
		all = append(all, records...)
	}

	result.Records = distinctRows(schema.ConformAll(all))
	r.log.Info("read %d previous item(s) from %d sheet(s), %d skipped",
		len(result.Records), len(result.FilesRead), len(result.FilesSkipped))

	return result, nil
}

// readFile reads and validates a single category sheet.
func (r *Reader) readFile(path string) (types.RecordSet, error) {
	table, err := xlsxparser.ReadTable(path, schema.CompleteDataSheet)
	if err != nil {
		return nil, apperrors.ValidationError(apperrors.CodeUnreadableSheet, path, "", err)
	}

	table.Headers = schema.NormalizeHeaders(table.Headers)

	result := r.validator.ValidateTable(table)
	for _, w := range result.Warnings() {
		r.log.Debug("%s", w.Error())
	}
	if !result.IsValid {
		return nil, apperrors.ValidationError(apperrors.CodeEmptySheet, path, result.FatalErrors()[0].Message, nil)
	}

	records := table.Records()
	for _, rec := range records {
		normalizeDates(rec)
	}
	return records, nil
}

// normalizeDates rewrites date cells (Excel serials or text dates) to
// YYYY-MM-DD so they compare equal to normalized export dates.
func normalizeDates(rec types.Record) {
	for _, field := range []string{schema.FieldLastChange, schema.FieldRetrievedFromCopyrightOn} {
		if date, ok := ingest.ParseDate(rec[field]); ok {
			rec[field] = date
		}
	}
}

// distinctRows drops records whose schema row equals an earlier record's.
func distinctRows(records types.RecordSet) types.RecordSet {
	seen := make(map[string]bool, len(records))
	out := make(types.RecordSet, 0, len(records))
	for _, rec := range records {
		key := strings.Join(schema.Row(rec), "\x1f")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rec)
	}
	return out
}
