// =============================================================================
// Easy Access Toolkit - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks the configuration,
// the department mapping and the newest export without writing anything.
//
// COMMAND USAGE:
//   ea-cli validate [--strict]
//
// FLAGS:
//   --strict    Treat warnings (unknown columns, invalid values) as errors
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utsmok/ea-cli/internal/ingest"
	"github.com/utsmok/ea-cli/internal/mapping"
	"github.com/utsmok/ea-cli/internal/schema"
	"github.com/utsmok/ea-cli/internal/types"
	"github.com/utsmok/ea-cli/internal/validation"
	"github.com/utsmok/ea-cli/internal/xlsxparser"
	apperrors "github.com/utsmok/ea-cli/pkg/errors"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration, mapping and the newest export",
	Long: `The validate command loads the configuration and department mapping,
selects the newest CopyRight export and reports problems in it (missing or
unknown columns, invalid dates, duplicate material ids) without writing any
sheets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate()
	},
}

var strictValidate bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&strictValidate, "strict", false, "Treat warnings as errors")
}

func runValidate() error {
	fmt.Println("=== Easy Access Toolkit - Validate ===")

	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	fmt.Printf("Export directory:    %s\n", cfg.ExportDir)
	fmt.Printf("Faculties directory: %s\n", cfg.FacultiesDir)
	fmt.Printf("All items directory: %s\n", cfg.AllItemsDir)

	mapper, err := mapping.Load(cfg.MappingFile)
	if err != nil {
		return apperrors.ConfigurationError(apperrors.CodeMissingMapping, cfg.MappingFile, err)
	}
	fmt.Printf("Mapping:             %d department(s) -> %d faculties\n", mapper.Len(), len(mapper.Categories()))

	export, err := ingest.SelectExport(cfg.ExportDir)
	if err != nil {
		return err
	}
	raw, err := ingest.ReadExport(export.Path, cfg.CSVSettings)
	if err != nil {
		return err
	}
	fmt.Printf("Newest export:       %s (%s, %d rows)\n", export.Path, export.Date.Format(schema.DateLayout), len(raw.Rows))
	if raw.SheetName != "" {
		sheets, err := xlsxparser.SheetNames(export.Path)
		if err != nil {
			return apperrors.ValidationError(apperrors.CodeUnreadableSheet, export.Path, "", err)
		}
		fmt.Printf("Sheets:              %s (read: %s)\n", strings.Join(sheets, ", "), raw.SheetName)
	}

	table := &types.Table{
		SourceFile: raw.SourceFile,
		SheetName:  raw.SheetName,
		Headers:    schema.NormalizeHeaders(raw.Headers),
		Rows:       raw.Rows,
	}
	options := validation.DefaultValidationOptions()
	options.TreatWarningsAsErrors = strictValidate
	result := validation.NewValidatorWithOptions(options).ValidateTable(table)

	fmt.Println()
	fmt.Println(validation.FormatErrors(result.Errors))

	if !result.IsValid {
		return apperrors.ValidationError(apperrors.CodeEmptySheet, export.Path, "", nil)
	}
	return nil
}
