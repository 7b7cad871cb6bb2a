// =============================================================================
// Easy Access Toolkit - Export Ingestion
// =============================================================================
//
// This module locates the current CopyRight export and reads it into a raw
// table. The current export is the most recently modified .xlsx, .xlsm or
// .csv file directly inside the export directory; its modification date is
// the export date stamped on every record.
//
// =============================================================================

package ingest

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/utsmok/ea-cli/internal/config"
	"github.com/utsmok/ea-cli/internal/csvparser"
	"github.com/utsmok/ea-cli/internal/types"
	"github.com/utsmok/ea-cli/internal/xlsxparser"
	apperrors "github.com/utsmok/ea-cli/pkg/errors"
	"github.com/utsmok/ea-cli/pkg/utils"
)

// ExportExtensions are the file types accepted as a CopyRight export.
var ExportExtensions = []string{".xlsx", ".xlsm", ".csv"}

// Export identifies the export file selected for a run.
type Export struct {
	// Path is the export file.
	Path string

	// Date is the export date (the file's modification time).
	Date time.Time
}

// SelectExport returns the newest export in dir.
//
// RETURNS:
//   - The selected Export.
//   - An environment error when dir has no candidate, cannot be read, or
//     access is denied.
func SelectExport(dir string) (Export, error) {
	path, info, err := utils.NewestFile(dir, ExportExtensions)
	switch {
	case err == nil:
		return Export{Path: path, Date: info.ModTime()}, nil
	case errors.Is(err, utils.ErrNoFiles), errors.Is(err, fs.ErrNotExist):
		return Export{}, apperrors.EnvironmentError(apperrors.CodeNoExportFound, dir, err)
	case errors.Is(err, fs.ErrPermission):
		return Export{}, apperrors.EnvironmentError(apperrors.CodePermission, dir, err)
	default:
		return Export{}, apperrors.EnvironmentError(apperrors.CodeDirectoryError, dir, err)
	}
}

// ReadExport reads an export file into a raw table, choosing the parser by
// file extension.
func ReadExport(path string, csvSettings config.CSVSettings) (*types.Table, error) {
	var (
		table *types.Table
		err   error
	)

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		table, err = csvparser.Parse(path, csvSettings)
	} else {
		table, err = xlsxparser.ReadTable(path, "")
	}

	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, apperrors.EnvironmentError(apperrors.CodePermission, path, err)
		}
		return nil, apperrors.ValidationError(apperrors.CodeUnreadableSheet, path, "", err)
	}

	return table, nil
}
