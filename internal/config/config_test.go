package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the toolkit variables for the duration of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvExportDir, EnvImportDir, EnvFacultiesDir, EnvAllItemsDir, EnvMappingFile, EnvLogLevel, EnvLogFormat} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadMainConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "./copyright_export", cfg.ExportDir)
	assert.Equal(t, "./copyright_import", cfg.ImportDir)
	assert.Equal(t, "./faculties", cfg.FacultiesDir)
	assert.Equal(t, "./all_items", cfg.AllItemsDir)
	assert.Equal(t, "department_mapping.json", cfg.MappingFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ",", cfg.CSVSettings.Delimiter)
	assert.Equal(t, 1, cfg.CSVSettings.HeaderRows)
	assert.Equal(t, 2, cfg.CSVSettings.DataStartRow)
}

func TestLoadMainConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
faculties_dir: /data/faculties
log_level: debug
csv_settings:
  delimiter: ";"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/faculties", cfg.FacultiesDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ";", cfg.CSVSettings.Delimiter)
	assert.Equal(t, "./all_items", cfg.AllItemsDir)
}

func TestLoadMainConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("faculties_dir: [unclosed"), 0o644))

	_, err := LoadMainConfig(path)
	assert.Error(t, err)
}

func TestPrecedenceEnvOverSettingsFileOverYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("faculties_dir: from-yaml\nall_items_dir: from-yaml\nlog_level: warn\n"), 0o644))

	settingsPath := filepath.Join(dir, "settings.env")
	require.NoError(t, os.WriteFile(settingsPath, []byte("FACULTIES_DIR=from-settings\nALL_ITEMS_DIR=from-settings\n"), 0o644))

	t.Setenv(EnvAllItemsDir, "from-env")

	cfg, err := Load(yamlPath, settingsPath)
	require.NoError(t, err)

	assert.Equal(t, "from-settings", cfg.FacultiesDir)
	assert.Equal(t, "from-env", cfg.AllItemsDir)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "./copyright_export", cfg.ExportDir)
}

func TestApplyEnvironmentIgnoresEmptyValues(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMappingFile, "")
	t.Setenv(EnvExportDir, "/exports")

	cfg := Default()
	require.NoError(t, ApplyEnvironment(cfg, viper.New()))

	assert.Equal(t, "department_mapping.json", cfg.MappingFile)
	assert.Equal(t, "/exports", cfg.ExportDir)
}

func TestLoadSettingsEnvMissingFile(t *testing.T) {
	assert.NoError(t, LoadSettingsEnv(filepath.Join(t.TempDir(), "settings.env")))
	assert.NoError(t, LoadSettingsEnv(""))
}

func TestValidateCreatesDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.ExportDir = filepath.Join(root, "export")
	cfg.ImportDir = filepath.Join(root, "import")
	cfg.FacultiesDir = filepath.Join(root, "faculties")
	cfg.AllItemsDir = filepath.Join(root, "all_items")

	require.NoError(t, cfg.Validate())

	for _, dir := range []string{cfg.ExportDir, cfg.ImportDir, cfg.FacultiesDir, cfg.AllItemsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "xml"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.CSVSettings.DataStartRow = 1
	assert.Error(t, cfg.Validate())
}
