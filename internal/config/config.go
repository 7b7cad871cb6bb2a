// =============================================================================
// Easy Access Toolkit - Configuration Module
// =============================================================================
//
// This module is responsible for loading the toolkit configuration from its
// three layered sources and producing a single validated MainConfig.
//
// CONFIGURATION SOURCES (lowest to highest precedence):
//   1. Built-in defaults
//   2. Main Config (config.yaml, optional)
//   3. settings.env file and process environment variables
//   4. Command line flags (applied by the cmd package)
//
// ENVIRONMENT VARIABLES:
//   COPYRIGHT_EXPORT_DIR, COPYRIGHT_IMPORT_DIR, FACULTIES_DIR, ALL_ITEMS_DIR,
//   DEPARTMENT_MAPPING_FILE, LOG_LEVEL, LOG_FORMAT
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global toolkit configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// ExportDir is where CopyRight exports are dropped. The newest file in
	// this directory is the current export.
	// Default: "./copyright_export"
	ExportDir string `yaml:"copyright_export_dir"`

	// ImportDir is where re-import sheets for CopyRight are written.
	// Default: "./copyright_import"
	ImportDir string `yaml:"copyright_import_dir"`

	// FacultiesDir holds one subdirectory per faculty with its review sheets.
	// Default: "./faculties"
	FacultiesDir string `yaml:"faculties_dir"`

	// AllItemsDir holds the consolidated all_items sheets.
	// Default: "./all_items"
	AllItemsDir string `yaml:"all_items_dir"`

	// MappingFile is the JSON department -> faculty mapping.
	// Default: "department_mapping.json"
	MappingFile string `yaml:"department_mapping_file"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// CSVSettings applies when the current export is a .csv file.
	CSVSettings CSVSettings `yaml:"csv_settings"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing CSV exports.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Common values: "," (comma), ";" (semicolon), "\t" (tab)
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows. Multi-row headers are merged.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-based row where data begins.
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row"`
}

// =============================================================================
// ENVIRONMENT KEYS
// =============================================================================

const (
	EnvExportDir    = "COPYRIGHT_EXPORT_DIR"
	EnvImportDir    = "COPYRIGHT_IMPORT_DIR"
	EnvFacultiesDir = "FACULTIES_DIR"
	EnvAllItemsDir  = "ALL_ITEMS_DIR"
	EnvMappingFile  = "DEPARTMENT_MAPPING_FILE"
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogFormat    = "LOG_FORMAT"
)

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a MainConfig populated with built-in defaults.
func Default() *MainConfig {
	config := &MainConfig{}
	applyMainConfigDefaults(config)
	return config
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. A missing file is
//     not an error; defaults are used instead.
//
// RETURNS:
//   - A pointer to the MainConfig struct with defaults applied.
//   - An error if the file exists but cannot be read or parsed.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Optional file.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyMainConfigDefaults(&config)
	return &config, nil
}

// LoadSettingsEnv loads KEY=VALUE pairs from a settings file into the process
// environment. Variables already set in the environment are not overridden.
// A missing file is not an error.
func LoadSettingsEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load settings file %s: %w", path, err)
	}
	return nil
}

// ApplyEnvironment overrides config values with any bound environment
// variables that are set and non-empty.
//
// PARAMETERS:
//   - config: The configuration to update in place.
//   - v: The viper instance to bind through. A fresh one is used when nil.
func ApplyEnvironment(config *MainConfig, v *viper.Viper) error {
	if v == nil {
		v = viper.New()
	}

	targets := map[string]*string{
		EnvExportDir:    &config.ExportDir,
		EnvImportDir:    &config.ImportDir,
		EnvFacultiesDir: &config.FacultiesDir,
		EnvAllItemsDir:  &config.AllItemsDir,
		EnvMappingFile:  &config.MappingFile,
		EnvLogLevel:     &config.LogLevel,
		EnvLogFormat:    &config.LogFormat,
	}

	for key, target := range targets {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind environment variable %s: %w", key, err)
		}
		if value := v.GetString(key); value != "" {
			*target = value
		}
	}

	return nil
}

// Load builds the configuration from config.yaml, settings.env and the
// process environment, in that order of increasing precedence.
func Load(configPath, settingsPath string) (*MainConfig, error) {
	config, err := LoadMainConfig(configPath)
	if err != nil {
		return nil, err
	}

	if err := LoadSettingsEnv(settingsPath); err != nil {
		return nil, err
	}

	if err := ApplyEnvironment(config, viper.New()); err != nil {
		return nil, err
	}

	return config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.ExportDir == "" {
		config.ExportDir = "./copyright_export"
	}
	if config.ImportDir == "" {
		config.ImportDir = "./copyright_import"
	}
	if config.FacultiesDir == "" {
		config.FacultiesDir = "./faculties"
	}
	if config.AllItemsDir == "" {
		config.AllItemsDir = "./all_items"
	}
	if config.MappingFile == "" {
		config.MappingFile = "department_mapping.json"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}

	if config.CSVSettings.Delimiter == "" {
		config.CSVSettings.Delimiter = ","
	}
	if config.CSVSettings.HeaderRows == 0 {
		config.CSVSettings.HeaderRows = 1
	}
	if config.CSVSettings.DataStartRow == 0 {
		config.CSVSettings.DataStartRow = config.CSVSettings.HeaderRows + 1
	}
}

// Validate checks the configuration and creates the working directories.
func (c *MainConfig) Validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q: must be text or json", c.LogFormat)
	}

	if c.CSVSettings.HeaderRows < 1 {
		return fmt.Errorf("csv_settings.header_rows must be at least 1")
	}
	if c.CSVSettings.DataStartRow <= c.CSVSettings.HeaderRows {
		return fmt.Errorf("csv_settings.data_start_row must come after the header rows")
	}

	return c.EnsureDirectories()
}

// EnsureDirectories creates every configured working directory.
func (c *MainConfig) EnsureDirectories() error {
	dirs := []string{
		c.ExportDir,
		c.ImportDir,
		c.FacultiesDir,
		c.AllItemsDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
