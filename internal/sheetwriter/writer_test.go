package sheetwriter

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/utsmok/ea-cli/internal/schema"
	"github.com/utsmok/ea-cli/internal/types"
	apperrors "github.com/utsmok/ea-cli/pkg/errors"
	"github.com/utsmok/ea-cli/pkg/logger"
	"github.com/utsmok/ea-cli/pkg/utils"
)

// recordingAugmenter remembers every path it was asked to augment.
type recordingAugmenter struct {
	paths []string
	err   error
}

func (r *recordingAugmenter) Augment(path string) error {
	r.paths = append(r.paths, path)
	return r.err
}

var runDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func newWriter(t *testing.T, aug Augmenter) (*Writer, *utils.FileManager) {
	t.Helper()
	root := t.TempDir()
	fm := utils.NewFileManager(
		filepath.Join(root, "export"),
		filepath.Join(root, "import"),
		filepath.Join(root, "faculties"),
		filepath.Join(root, "all_items"),
	)
	return New(fm, aug, logger.Discard()), fm
}

func item(id, faculty string) types.Record {
	return schema.Conform(types.Record{
		schema.FieldMaterialID: id,
		schema.FieldFaculty:    faculty,
		schema.FieldTitle:      "title " + id,
	})
}

func TestCategories(t *testing.T) {
	records := types.RecordSet{item("1", "EEMCS"), item("2", "BMS"), item("3", ""), item("4", "EEMCS")}
	assert.Equal(t, []string{"BMS", "EEMCS", schema.CategoryNone}, Categories(records))
}

func TestWriteCategories(t *testing.T) {
	aug := &recordingAugmenter{}
	w, fm := newWriter(t, aug)

	records := types.RecordSet{item("1", "EEMCS"), item("2", "BMS"), item("3", "EEMCS")}
	artifacts, err := w.WriteCategories(records, []string{"EEMCS", "BMS", "TNW"}, runDate)
	require.NoError(t, err)

	require.Len(t, artifacts, 3)
	assert.Equal(t, "BMS", artifacts[0].Category)
	assert.Equal(t, filepath.Join(fm.FacultiesDir, "BMS", "BMS_2024-03-01.xlsx"), artifacts[0].Path)
	assert.Equal(t, 1, artifacts[0].Records)
	assert.Equal(t, 2, artifacts[1].Records)
	assert.Equal(t, 0, artifacts[2].Records)
	assert.FileExists(t, artifacts[2].Path, "empty partitions still get a file")

	assert.Equal(t, []string{artifacts[0].Path, artifacts[1].Path, artifacts[2].Path}, aug.paths)

	f, err := excelize.OpenFile(artifacts[1].Path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, schema.Columns, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "3", rows[2][0])
}

func TestWriteCategoriesAvoidsCollisions(t *testing.T) {
	w, fm := newWriter(t, nil)
	records := types.RecordSet{item("1", "EEMCS")}

	var paths []string
	for i := 0; i < 3; i++ {
		artifacts, err := w.WriteCategories(records, Categories(records), runDate)
		require.NoError(t, err)
		paths = append(paths, artifacts[0].Path)
	}

	dir := filepath.Join(fm.FacultiesDir, "EEMCS")
	assert.Equal(t, []string{
		filepath.Join(dir, "EEMCS_2024-03-01.xlsx"),
		filepath.Join(dir, "EEMCS_2024-03-01_1.xlsx"),
		filepath.Join(dir, "EEMCS_2024-03-01_2.xlsx"),
	}, paths)
}

func TestWriteCategoriesEmptyCategory(t *testing.T) {
	w, fm := newWriter(t, nil)
	records := types.RecordSet{item("1", "")}

	artifacts, err := w.WriteCategories(records, []string{""}, runDate)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, schema.CategoryNone, artifacts[0].Category)
	assert.Equal(t, filepath.Join(fm.FacultiesDir, schema.CategoryNone, "no_faculty_found_2024-03-01.xlsx"), artifacts[0].Path)
	assert.Equal(t, 1, artifacts[0].Records)
}

func TestWriteCategoriesStopsOnAugmentError(t *testing.T) {
	aug := &recordingAugmenter{err: apperrors.AugmentationError(apperrors.CodeSaveFailed, "x", errors.New("disk full"))}
	w, _ := newWriter(t, aug)

	records := types.RecordSet{item("1", "A"), item("2", "B")}
	artifacts, err := w.WriteCategories(records, Categories(records), runDate)
	require.Error(t, err)
	assert.Equal(t, 5, apperrors.ExitCode(err))
	assert.Empty(t, artifacts)
	assert.Len(t, aug.paths, 1)
}

func TestWriteAllItems(t *testing.T) {
	w, fm := newWriter(t, nil)
	records := types.RecordSet{item("1", "A"), item("2", "B")}

	artifact, err := w.WriteAllItems(records, runDate)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.AllItemsDir, "all_items_2024-03-01.xlsx"), artifact.Path)
	assert.Equal(t, schema.AllItemsName, artifact.Category)
	assert.Equal(t, 2, artifact.Records)
}
