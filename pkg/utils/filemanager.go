// =============================================================================
// Easy Access Toolkit - File Manager Utility
// =============================================================================
//
// This module provides the file system helpers the toolkit stages share:
//   - Per-category directory layout
//   - Newest-file selection in the export directory
//   - Recursive discovery of previously written sheets
//   - Collision-free output naming (name, name_1, name_2, ...)
//   - Atomic replacement of a file by a temporary sibling
//
// =============================================================================

package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoFiles is returned when a directory holds no candidate files.
var ErrNoFiles = errors.New("no matching files")

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager knows the working directories of one run.
type FileManager struct {
	// ExportDir is the directory CopyRight exports are dropped in.
	ExportDir string

	// ImportDir is the directory re-import sheets are written to.
	ImportDir string

	// FacultiesDir holds one subdirectory per faculty.
	FacultiesDir string

	// AllItemsDir holds the consolidated sheets.
	AllItemsDir string
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(exportDir, importDir, facultiesDir, allItemsDir string) *FileManager {
	return &FileManager{
		ExportDir:    exportDir,
		ImportDir:    importDir,
		FacultiesDir: facultiesDir,
		AllItemsDir:  allItemsDir,
	}
}

// =============================================================================
// DIRECTORY LAYOUT
// =============================================================================

// CategoryDir returns the directory that holds a faculty's sheets.
func (fm *FileManager) CategoryDir(category string) string {
	return filepath.Join(fm.FacultiesDir, SanitizeName(category))
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// NewestFile returns the most recently modified regular file in dir whose
// extension is one of extensions (case-insensitive). Office lock files
// ("~$...") are ignored. Ties are broken by name.
//
// RETURNS:
//   - The path and FileInfo of the newest file.
//   - ErrNoFiles (wrapped) when dir holds no candidate, or the error from
//     reading dir.
func NewestFile(dir string, extensions []string) (string, os.FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var newestPath string
	var newestInfo os.FileInfo

	for _, entry := range entries {
		if entry.IsDir() || IsLockFile(entry.Name()) || !HasExtension(entry.Name(), extensions) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return "", nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}

		if newestInfo == nil ||
			info.ModTime().After(newestInfo.ModTime()) ||
			(info.ModTime().Equal(newestInfo.ModTime()) && entry.Name() > newestInfo.Name()) {
			newestPath = filepath.Join(dir, entry.Name())
			newestInfo = info
		}
	}

	if newestInfo == nil {
		return "", nil, fmt.Errorf("%w in %s", ErrNoFiles, dir)
	}

	return newestPath, newestInfo, nil
}

// ListFilesRecursive returns every regular file below root, sorted.
// An error reading root itself is returned; the caller decides whether a
// missing root is fatal.
func ListFilesRecursive(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// HasExtension reports whether name ends in one of extensions (case-insensitive).
func HasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// IsLockFile reports whether name is an Office owner/lock file.
func IsLockFile(name string) bool {
	return strings.HasPrefix(filepath.Base(name), "~$")
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// DatedFileName returns "<prefix>_<YYYY-MM-DD><ext>".
func DatedFileName(prefix string, date time.Time, ext string) string {
	return fmt.Sprintf("%s_%s%s", SanitizeName(prefix), date.Format("2006-01-02"), ext)
}

// UniqueFilePath returns filepath.Join(dir, name) if no such file exists,
// otherwise the first of name_1, name_2, ... (suffix before the extension)
// that does not exist yet.
//
// EXAMPLE:
//   EEMCS_2024-01-05.xlsx exists -> EEMCS_2024-01-05_1.xlsx
//
// RETURNS:
//   - The free path.
//   - Any stat error other than "does not exist" (for example when dir
//     cannot be searched).
func UniqueFilePath(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(dir, name)
	for i := 1; ; i++ {
		exists, err := pathExists(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
}

// SanitizeName makes a category label safe to use as a single path element.
func SanitizeName(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name = strings.TrimSpace(replacer.Replace(name))
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}

// =============================================================================
// ATOMIC REPLACEMENT
// =============================================================================

// TempSibling returns a unique, not yet existing path in the same directory
// as path, keeping its extension.
func TempSibling(path string) string {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp%s", base, uuid.NewString(), ext))
}

// ReplaceFile atomically moves tmp over dst. Both must be on the same file
// system; TempSibling guarantees that.
func ReplaceFile(tmp, dst string) error {
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", dst, err)
	}
	return nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// pathExists reports whether path exists. Only fs.ErrNotExist counts as
// absent; every other stat error is returned.
func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
