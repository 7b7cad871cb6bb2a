package utils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestNewestFile(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	touch(t, filepath.Join(dir, "old.xlsx"), base)
	touch(t, filepath.Join(dir, "new.csv"), base.Add(2*time.Hour))
	touch(t, filepath.Join(dir, "newest.txt"), base.Add(5*time.Hour))
	touch(t, filepath.Join(dir, "~$new.xlsx"), base.Add(6*time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.xlsx"), 0o755))

	path, info, err := NewestFile(dir, []string{".xlsx", ".xlsm", ".csv"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new.csv"), path)
	assert.True(t, info.ModTime().Equal(base.Add(2*time.Hour)))
}

func TestNewestFileTieBreaksByName(t *testing.T) {
	dir := t.TempDir()
	mod := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(dir, "a.xlsx"), mod)
	touch(t, filepath.Join(dir, "b.XLSX"), mod)

	path, _, err := NewestFile(dir, []string{".xlsx"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b.XLSX"), path)
}

func TestNewestFileErrors(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "notes.txt"), time.Now())

	_, _, err := NewestFile(dir, []string{".xlsx"})
	assert.True(t, errors.Is(err, ErrNoFiles))

	_, _, err = NewestFile(filepath.Join(dir, "missing"), []string{".xlsx"})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestListFilesRecursive(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(root, "EEMCS", "EEMCS_2024-01-01.xlsx"), now)
	touch(t, filepath.Join(root, "BMS", "deep", "BMS_2024-01-01.xlsx"), now)
	touch(t, filepath.Join(root, "readme.md"), now)

	files, err := ListFilesRecursive(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "BMS", "deep", "BMS_2024-01-01.xlsx"),
		filepath.Join(root, "EEMCS", "EEMCS_2024-01-01.xlsx"),
		filepath.Join(root, "readme.md"),
	}, files)

	_, err = ListFilesRecursive(filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestUniqueFilePath(t *testing.T) {
	dir := t.TempDir()
	name := DatedFileName("EEMCS", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), ".xlsx")
	assert.Equal(t, "EEMCS_2024-01-05.xlsx", name)

	first, err := UniqueFilePath(dir, name)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "EEMCS_2024-01-05.xlsx"), first)
	touch(t, first, time.Now())

	second, err := UniqueFilePath(dir, name)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "EEMCS_2024-01-05_1.xlsx"), second)
	touch(t, second, time.Now())

	third, err := UniqueFilePath(dir, name)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "EEMCS_2024-01-05_2.xlsx"), third)
}

func TestUniqueFilePathStatError(t *testing.T) {
	// A regular file used as a directory fails with ENOTDIR, not ENOENT.
	notDir := filepath.Join(t.TempDir(), "EEMCS")
	require.NoError(t, os.WriteFile(notDir, []byte("x"), 0o644))

	_, err := UniqueFilePath(notDir, "EEMCS_2024-01-05.xlsx")
	require.Error(t, err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))
}

func TestPathExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.xlsx")
	exists, err := pathExists(path)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	exists, err = pathExists(path)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = pathExists(filepath.Join(path, "child"))
	assert.Error(t, err)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "EEMCS", SanitizeName("EEMCS"))
	assert.Equal(t, "A_B", SanitizeName("A/B"))
	assert.Equal(t, "x_y_z", SanitizeName(`x\y:z`))
	assert.Equal(t, "_", SanitizeName(""))
	assert.Equal(t, "_", SanitizeName(".."))
}

func TestTempSiblingAndReplace(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "BMS_2024-01-05.xlsx")
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o644))

	tmp := TempSibling(dst)
	assert.Equal(t, dir, filepath.Dir(tmp))
	assert.True(t, strings.HasSuffix(tmp, ".xlsx"))
	assert.NotEqual(t, tmp, TempSibling(dst))

	require.NoError(t, os.WriteFile(tmp, []byte("new"), 0o644))
	require.NoError(t, ReplaceFile(tmp, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.NoFileExists(t, tmp)
}

func TestCategoryDir(t *testing.T) {
	root := t.TempDir()
	fm := NewFileManager(filepath.Join(root, "e"), filepath.Join(root, "i"), filepath.Join(root, "f"), filepath.Join(root, "a"))
	assert.Equal(t, filepath.Join(root, "f", "A_B"), fm.CategoryDir("A/B"))
}
