// =============================================================================
// Easy Access Toolkit - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (ea-cli)
//   ├── processCmd  (ea-cli process)
//   ├── validateCmd (ea-cli validate)
//   └── versionCmd  (ea-cli version)
//
// EXIT CODES:
//   0 success, 1 internal error, 2 environment error (missing export,
//   permissions), 3 validation error, 4 configuration error,
//   5 review sheet could not be added
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/utsmok/ea-cli/internal/config"
	apperrors "github.com/utsmok/ea-cli/pkg/errors"
	"github.com/utsmok/ea-cli/pkg/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the optional main configuration file.
var cfgFile string

// settingsFile holds the path to the optional settings.env file.
var settingsFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ea-cli",
	Short: "Easy Access Toolkit - split CopyRight exports into faculty review sheets",
	Long: `The Easy Access Toolkit reads the newest export of the CopyRight tracking
tool, works out which items have not been reviewed yet, and writes them to one
review workbook per faculty plus a consolidated all_items workbook.

Key Features:
  - Picks the newest .xlsx, .xlsm or .csv export automatically
  - Only adds items that are not in the existing faculty sheets yet
  - Review workbooks with drop-downs, links and an Excel table
  - Settings from config.yaml, settings.env, environment or flags

Example Usage:
  ea-cli process                        # read the newest export, add new items
  ea-cli process --do both              # also prepare the CopyRight import
  ea-cli process --no-changes           # add every item of the export
  ea-cli process --other-sheet old.xlsx # use an existing sheet as the source`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and runs it. The
// process exits with the code belonging to the error category.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file (optional)",
	)

	rootCmd.PersistentFlags().StringVar(
		&settingsFile,
		"settings",
		"settings.env",
		"Path to the settings.env file (optional)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig loads and validates the configuration, applying overrides on top
// of the file and environment values.
func loadConfig(overrides func(*config.MainConfig)) (*config.MainConfig, error) {
	cfg, err := config.Load(cfgFile, settingsFile)
	if err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, cfgFile, err)
	}

	if overrides != nil {
		overrides(cfg)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, cfgFile, err)
	}
	return cfg, nil
}

// newLogger creates the logger described by cfg.
func newLogger(cfg *config.MainConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: logger.Format(cfg.LogFormat),
		Output: os.Stderr,
	})
	if err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "log_level", err)
	}
	return log, nil
}
