package readback

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/utsmok/ea-cli/internal/reconcile"
	"github.com/utsmok/ea-cli/internal/review"
	"github.com/utsmok/ea-cli/internal/schema"
	"github.com/utsmok/ea-cli/internal/sheetwriter"
	"github.com/utsmok/ea-cli/internal/types"
	apperrors "github.com/utsmok/ea-cli/pkg/errors"
	"github.com/utsmok/ea-cli/pkg/logger"
)

func item(id, lastChange, faculty string) types.Record {
	return schema.Conform(types.Record{
		schema.FieldMaterialID: id,
		schema.FieldLastChange: lastChange,
		schema.FieldFaculty:    faculty,
	})
}

// writeReviewSheet writes records the way a run does: plain sheet, then
// the review sheet on top.
func writeReviewSheet(t *testing.T, path string, records types.RecordSet) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, sheetwriter.WriteSheet(path, records))
	require.NoError(t, review.NewAugmenter(logger.Discard()).Augment(path))
}

func TestReadAll(t *testing.T) {
	root := t.TempDir()
	writeReviewSheet(t, filepath.Join(root, "EEMCS", "EEMCS_2024-01-01.xlsx"), types.RecordSet{
		item("1", "2024-01-01", "EEMCS"),
		item("2", "2024-01-01", "EEMCS"),
	})
	writeReviewSheet(t, filepath.Join(root, "EEMCS", "EEMCS_2024-02-01.xlsx"), types.RecordSet{
		item("2", "2024-01-01", "EEMCS"),
		item("3", "2024-02-01", "EEMCS"),
	})
	writeReviewSheet(t, filepath.Join(root, "BMS", "nested", "BMS_2024-01-01.xlsx"), types.RecordSet{
		item("4", "2024-01-01", "BMS"),
	})

	result, err := NewReader(logger.Discard()).ReadAll(root)
	require.NoError(t, err)

	assert.Len(t, result.FilesRead, 3)
	assert.Empty(t, result.FilesSkipped)
	require.Len(t, result.Records, 4, "identical rows collapse")

	var ids []string
	for _, rec := range result.Records {
		assert.Len(t, rec, len(schema.Columns))
		ids = append(ids, rec[schema.FieldMaterialID])
	}
	assert.ElementsMatch(t, []string{"1", "2", "3", "4"}, ids)
}

func TestReadAllSkipsBadFiles(t *testing.T) {
	root := t.TempDir()
	writeReviewSheet(t, filepath.Join(root, "A", "A_2024-01-01.xlsx"), types.RecordSet{item("1", "", "A")})
	writeReviewSheet(t, filepath.Join(root, "A", "A_empty.xlsx"), nil)

	require.NoError(t, os.WriteFile(filepath.Join(root, "A", "broken.xlsx"), []byte("nope"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "A", "legacy.xls"), []byte("nope"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "A", "notes.txt"), []byte("nope"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "A", "~$A_2024-01-01.xlsx"), []byte("lock"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "A", ".A.tmp.xlsx"), []byte("tmp"), 0o644))

	result, err := NewReader(logger.Discard()).ReadAll(root)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "A", "A_2024-01-01.xlsx")}, result.FilesRead)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "A", "A_empty.xlsx"),
		filepath.Join(root, "A", "broken.xlsx"),
		filepath.Join(root, "A", "legacy.xls"),
	}, result.FilesSkipped)
	assert.Len(t, result.Records, 1)
}

func TestReadAllEmptyRoot(t *testing.T) {
	result, err := NewReader(logger.Discard()).ReadAll(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, result.Records)
}

func TestReadAllMissingRoot(t *testing.T) {
	_, err := NewReader(logger.Discard()).ReadAll(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, 2, apperrors.ExitCode(err))
}

// writeTypedSheet writes a sheet whose id and date columns hold number and
// date cells instead of text.
func writeTypedSheet(t *testing.T, path string, id int, lastChange time.Time, status string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", schema.CompleteDataSheet))

	header := make([]interface{}, len(schema.Columns))
	for i, col := range schema.Columns {
		header[i] = col
	}
	require.NoError(t, f.SetSheetRow(schema.CompleteDataSheet, "A1", &header))

	set := func(field string, value interface{}) {
		cell, err := excelize.CoordinatesToCellName(schema.ColumnIndex(field)+1, 2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(schema.CompleteDataSheet, cell, value))
	}
	set(schema.FieldMaterialID, id)
	set(schema.FieldLastChange, lastChange)
	set(schema.FieldRetrievedFromCopyrightOn, lastChange)
	set(schema.FieldStatus, status)
	set(schema.FieldFaculty, "EEMCS")

	require.NoError(t, f.SaveAs(path))
}

func TestReadAllNormalizesDateCells(t *testing.T) {
	root := t.TempDir()
	writeTypedSheet(t, filepath.Join(root, "EEMCS", "EEMCS_2024-01-01.xlsx"),
		42, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), schema.StatusDeleted)

	result, err := NewReader(logger.Discard()).ReadAll(root)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	prev := result.Records[0]
	assert.Equal(t, "42", schema.Canonical(prev[schema.FieldMaterialID]))
	assert.Equal(t, "2024-01-01", prev[schema.FieldLastChange])
	assert.Equal(t, "2024-01-01", prev[schema.FieldRetrievedFromCopyrightOn])

	current := types.RecordSet{item("42", "2024-01-01", "EEMCS")}
	out := reconcile.New(reconcile.DefaultPolicy(), logger.Discard()).Reconcile(current, result.Records)
	assert.Zero(t, out.Changed, "same date in a date cell is not a change")
	assert.True(t, out.NoNewItems)

	current = types.RecordSet{item("42", "2024-02-01", "EEMCS")}
	out = reconcile.New(reconcile.DefaultPolicy(), logger.Discard()).Reconcile(current, result.Records)
	assert.Equal(t, 1, out.Changed)
}
