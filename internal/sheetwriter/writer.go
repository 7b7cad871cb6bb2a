// =============================================================================
// Easy Access Toolkit - Sheet Writer Module
// =============================================================================
//
// This module writes reconciled records to spreadsheets: one file per
// category plus one consolidated file holding every record.
//
// OUTPUT LAYOUT:
//
//   <faculties>/
//     BMS/
//       BMS_2024-03-01.xlsx
//     EEMCS/
//       EEMCS_2024-03-01.xlsx
//       EEMCS_2024-03-01_1.xlsx      (second run on the same day)
//   <all_items>/
//     all_items_2024-03-01.xlsx
//
// Every file starts with a single sheet holding all schema columns in schema
// order. Each written file is then handed to the Augmenter, which turns it
// into the two-sheet review workbook.
//
// =============================================================================

package sheetwriter

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/utsmok/ea-cli/internal/schema"
	"github.com/utsmok/ea-cli/internal/types"
	apperrors "github.com/utsmok/ea-cli/pkg/errors"
	"github.com/utsmok/ea-cli/pkg/logger"
	"github.com/utsmok/ea-cli/pkg/utils"
)

// Extension is the file extension of every written sheet.
const Extension = ".xlsx"

// initialSheet is the sheet name of a freshly created workbook.
const initialSheet = "Sheet1"

// =============================================================================
// INTERFACES AND RESULTS
// =============================================================================

// Augmenter post-processes a freshly written sheet in place.
type Augmenter interface {
	Augment(path string) error
}

// Artifact describes one written file.
type Artifact struct {
	// Category is the category label, or schema.AllItemsName.
	Category string

	// Path is the written file.
	Path string

	// Records is the number of data rows in the file.
	Records int
}

// =============================================================================
// WRITER
// =============================================================================

// Writer writes category and consolidated sheets.
type Writer struct {
	files     *utils.FileManager
	augmenter Augmenter
	log       logger.Logger
}

// New creates a Writer. A nil augmenter leaves written files untouched.
func New(files *utils.FileManager, augmenter Augmenter, log logger.Logger) *Writer {
	return &Writer{
		files:     files,
		augmenter: augmenter,
		log:       log.WithComponent("sheetwriter"),
	}
}

// Categories returns the sorted, distinct categories of records. An empty
// faculty value is reported as schema.CategoryNone.
func Categories(records types.RecordSet) []string {
	categories := records.Distinct(schema.FieldFaculty)
	for i, c := range categories {
		if c == "" {
			categories[i] = schema.CategoryNone
		}
	}
	sort.Strings(categories)
	return slices.Compact(categories)
}

// WriteCategories writes one file per category, in lexicographic order.
//
// PARAMETERS:
//   - records: The records to partition by faculty.
//   - categories: The categories to write. Every category gets a file, even
//     when no record belongs to it.
//   - date: The run date used in the file names.
//
// RETURNS:
//   - The written artifacts in category order.
//   - The first write or augmentation error. Files written before the error
//     are kept.
func (w *Writer) WriteCategories(records types.RecordSet, categories []string, date time.Time) ([]Artifact, error) {
	sorted := append([]string(nil), categories...)
	for i, c := range sorted {
		if c == "" {
			sorted[i] = schema.CategoryNone
		}
	}
	sort.Strings(sorted)

	artifacts := make([]Artifact, 0, len(sorted))
	for i, category := range sorted {
		if i > 0 && category == sorted[i-1] {
			continue
		}

		part := records.Filter(func(rec types.Record) bool { return categoryOf(rec) == category })
		if len(part) == 0 {
			w.log.Warn("category %s has no items, writing an empty sheet", category)
		}

		dir := w.files.CategoryDir(category)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return artifacts, apperrors.EnvironmentError(apperrors.CodeDirectoryError, dir, err)
		}

		artifact, err := w.write(dir, category, part, date)
		if err != nil {
			return artifacts, err
		}
		artifacts = append(artifacts, artifact)
	}

	return artifacts, nil
}

// WriteAllItems writes the consolidated sheet of all records.
func (w *Writer) WriteAllItems(records types.RecordSet, date time.Time) (Artifact, error) {
	dir := w.files.AllItemsDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Artifact{}, apperrors.EnvironmentError(apperrors.CodeDirectoryError, dir, err)
	}
	return w.write(dir, schema.AllItemsName, records, date)
}

// write writes records to a new, uniquely named file in dir and augments it.
func (w *Writer) write(dir, name string, records types.RecordSet, date time.Time) (Artifact, error) {
	path, err := utils.UniqueFilePath(dir, utils.DatedFileName(name, date, Extension))
	if err != nil {
		return Artifact{}, apperrors.EnvironmentError(apperrors.CodeDirectoryError, dir, err)
	}

	if err := WriteSheet(path, records); err != nil {
		return Artifact{}, apperrors.EnvironmentError(apperrors.CodeWriteFailed, path, err)
	}
	w.log.Info("wrote %d item(s) to %s", len(records), path)

	if w.augmenter != nil {
		if err := w.augmenter.Augment(path); err != nil {
			return Artifact{}, err
		}
	}

	return Artifact{Category: name, Path: path, Records: len(records)}, nil
}

// =============================================================================
// SHEET OUTPUT
// =============================================================================

// WriteSheet writes records to a new single-sheet workbook at path, with the
// schema columns as header row. Every value is written as text.
func WriteSheet(path string, records types.RecordSet) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(schema.Columns))
	for i, col := range schema.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(initialSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		values := schema.Row(rec)
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		if err := f.SetSheetRow(initialSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", filepath.Base(path), err)
	}
	return nil
}

func categoryOf(rec types.Record) string {
	if c := rec[schema.FieldFaculty]; c != "" {
		return c
	}
	return schema.CategoryNone
}
