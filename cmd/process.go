// =============================================================================
// Easy Access Toolkit - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the toolkit pipeline.
//
// COMMAND USAGE:
//   ea-cli process [flags]
//
// FLAGS:
//   --do                    : read, export or both (default read)
//   --changes/--no-changes  : only add new and changed items (default), or all
//   --other-sheet           : use an existing sheet instead of the newest export
//   --copyright-export-dir, --copyright-import-dir, --faculties-dir,
//   --all-items-dir         : override the configured directories
//   --mapping               : override the department mapping file
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/utsmok/ea-cli/internal/config"
	"github.com/utsmok/ea-cli/internal/mapping"
	"github.com/utsmok/ea-cli/internal/pipeline"
	apperrors "github.com/utsmok/ea-cli/pkg/errors"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// doMode selects the stages to run.
var doMode string

// onlyChanges and noChanges back the --changes/--no-changes pair.
var (
	onlyChanges bool
	noChanges   bool
)

// otherSheet is an alternate source sheet.
var otherSheet string

// Directory and mapping overrides.
var (
	exportDirFlag    string
	importDirFlag    string
	facultiesDirFlag string
	allItemsDirFlag  string
	mappingFlag      string
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Read the newest export and write faculty review sheets",
	Long: `The process command runs the toolkit in one of three modes:

  read    Read the newest CopyRight export (or --other-sheet), compare it with
          the existing faculty sheets and write the new items to one sheet per
          faculty plus an all_items sheet.
  export  Read the reviewed faculty sheets back in to prepare a CopyRight
          import sheet.
  both    Do both in one run.

Every written workbook has a "Complete data" sheet with all columns and a
"Data entry" sheet for reviewers.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&doMode, "do", string(pipeline.ModeRead),
		"Which tool to run: read, export or both")

	processCmd.Flags().BoolVar(&onlyChanges, "changes", true,
		"Only add items that are new or changed since the existing sheets")
	processCmd.Flags().BoolVar(&noChanges, "no-changes", false,
		"Add every item of the export, without checking the existing sheets")
	processCmd.MarkFlagsMutuallyExclusive("changes", "no-changes")

	processCmd.Flags().StringVar(&otherSheet, "other-sheet", "",
		"Use this sheet as the data source instead of the newest CopyRight export")

	processCmd.Flags().StringVar(&exportDirFlag, "copyright-export-dir", "",
		"Override the directory with CopyRight exports")
	processCmd.Flags().StringVar(&importDirFlag, "copyright-import-dir", "",
		"Override the directory for CopyRight import sheets")
	processCmd.Flags().StringVar(&facultiesDirFlag, "faculties-dir", "",
		"Override the directory with faculty sheets")
	processCmd.Flags().StringVar(&allItemsDirFlag, "all-items-dir", "",
		"Override the directory for all_items sheets")
	processCmd.Flags().StringVar(&mappingFlag, "mapping", "",
		"Override the department mapping file")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess loads the configuration, builds the pipeline for the selected
// mode and runs it.
func runProcess() error {
	fmt.Println("=== Easy Access Toolkit ===")

	mode, err := pipeline.ParseMode(doMode)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(applyDirectoryFlags)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	mapper, err := mapping.Load(cfg.MappingFile)
	if err != nil {
		return apperrors.ConfigurationError(apperrors.CodeMissingMapping, cfg.MappingFile, err)
	}
	log.Debug("loaded %d department mapping(s) from %s", mapper.Len(), cfg.MappingFile)

	opts := pipeline.Options{
		Mode:        mode,
		OnlyChanges: onlyChanges && !noChanges,
		OtherSheet:  otherSheet,
	}

	deps := pipeline.NewDeps(cfg, mapper, log)
	stages, err := pipeline.Build(opts, deps)
	if err != nil {
		return err
	}

	rc := pipeline.NewRunContext(opts)
	runErr := pipeline.Run(rc, stages, log)

	rc.Summary().Print(os.Stdout)
	return runErr
}

// applyDirectoryFlags copies the non-empty directory flags onto cfg.
func applyDirectoryFlags(cfg *config.MainConfig) {
	overrides := map[*string]string{
		&cfg.ExportDir:    exportDirFlag,
		&cfg.ImportDir:    importDirFlag,
		&cfg.FacultiesDir: facultiesDirFlag,
		&cfg.AllItemsDir:  allItemsDirFlag,
		&cfg.MappingFile:  mappingFlag,
	}
	for target, value := range overrides {
		if value != "" {
			*target = value
		}
	}
}
