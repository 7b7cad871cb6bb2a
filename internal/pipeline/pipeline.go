// =============================================================================
// Easy Access Toolkit - Pipeline Module
// =============================================================================
//
// This module orchestrates a run. The selected mode is resolved once into an
// ordered list of stages; every stage receives the same RunContext.
//
// MODES:
//   read    read the newest export (or --other-sheet), normalize, reconcile
//           against the category sheets, write category and all items sheets
//   export  read the category sheets back and create the import sheet
//   both    read, then export, then write
//
// =============================================================================

package pipeline

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/utsmok/ea-cli/internal/config"
	"github.com/utsmok/ea-cli/internal/ingest"
	"github.com/utsmok/ea-cli/internal/mapping"
	"github.com/utsmok/ea-cli/internal/readback"
	"github.com/utsmok/ea-cli/internal/reconcile"
	"github.com/utsmok/ea-cli/internal/review"
	"github.com/utsmok/ea-cli/internal/sheetwriter"
	apperrors "github.com/utsmok/ea-cli/pkg/errors"
	"github.com/utsmok/ea-cli/pkg/logger"
	"github.com/utsmok/ea-cli/pkg/utils"
)

// =============================================================================
// MODES AND OPTIONS
// =============================================================================

// Mode selects which stages run.
type Mode string

const (
	ModeRead   Mode = "read"
	ModeExport Mode = "export"
	ModeBoth   Mode = "both"
)

// ParseMode converts a --do value into a Mode (case-insensitive).
func ParseMode(value string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(value))); m {
	case ModeRead, ModeExport, ModeBoth:
		return m, nil
	default:
		return "", apperrors.ConfigurationError(apperrors.CodeInvalidMode, "do",
			fmt.Errorf("unknown mode %q", value)).
			WithSuggestion("use one of: read, export, both")
	}
}

// Options are the per-invocation choices.
type Options struct {
	// Mode selects the stages.
	Mode Mode

	// OnlyChanges enables reconciliation against existing category sheets.
	OnlyChanges bool

	// OtherSheet replaces the CopyRight export as source when set.
	OtherSheet string
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Deps are the collaborators the stages use.
type Deps struct {
	Config     *config.MainConfig
	Mapper     *mapping.Mapper
	Normalizer *ingest.Normalizer
	Engine     *reconcile.Engine
	Reader     *readback.Reader
	Writer     *sheetwriter.Writer
	Log        logger.Logger
}

// NewDeps wires the default collaborators for cfg.
func NewDeps(cfg *config.MainConfig, mapper *mapping.Mapper, log logger.Logger) *Deps {
	files := utils.NewFileManager(cfg.ExportDir, cfg.ImportDir, cfg.FacultiesDir, cfg.AllItemsDir)
	return &Deps{
		Config:     cfg,
		Mapper:     mapper,
		Normalizer: ingest.NewNormalizer(mapper, log),
		Engine:     reconcile.New(reconcile.DefaultPolicy(), log),
		Reader:     readback.NewReader(log),
		Writer:     sheetwriter.New(files, review.NewAugmenter(log), log),
		Log:        log.WithComponent("pipeline"),
	}
}

// =============================================================================
// STAGES
// =============================================================================

// Stage is one step of a run.
type Stage interface {
	Name() string
	Run(rc *RunContext) error
}

// Build resolves opts.Mode into the ordered stages of a run.
func Build(opts Options, deps *Deps) ([]Stage, error) {
	source := func() []Stage {
		if opts.OtherSheet != "" {
			return []Stage{&readOtherSheetStage{deps}}
		}
		return []Stage{&readExportStage{deps}, &normalizeStage{deps}}
	}

	switch opts.Mode {
	case ModeRead:
		stages := source()
		return append(stages,
			&reconcileStage{deps},
			&writeCategorySheetsStage{deps},
			&writeAllItemsStage{deps},
		), nil

	case ModeBoth:
		stages := source()
		return append(stages,
			&reconcileStage{deps},
			&readCategorySheetsStage{deps},
			&createImportSheetStage{deps},
			&writeCategorySheetsStage{deps},
			&writeAllItemsStage{deps},
		), nil

	case ModeExport:
		if opts.OtherSheet != "" {
			deps.Log.Warn("only exporting data, the contents of %s will have no effect on the output", opts.OtherSheet)
		}
		return []Stage{
			&readCategorySheetsStage{deps},
			&createImportSheetStage{deps},
		}, nil

	default:
		mode, err := ParseMode(string(opts.Mode))
		if err != nil {
			return nil, err
		}
		opts.Mode = mode
		return Build(opts, deps)
	}
}

// Run executes stages in order and stops at the first error. Errors that are
// not application errors are reported as internal errors.
func Run(rc *RunContext, stages []Stage, log logger.Logger) error {
	log = log.WithField("run", rc.RunID)

	for i, stage := range stages {
		log.Info("=== step %d/%d: %s ===", i+1, len(stages), stage.Name())
		start := time.Now()

		if err := stage.Run(rc); err != nil {
			var appErr *apperrors.AppError
			if !stderrors.As(err, &appErr) {
				err = apperrors.InternalError(stage.Name(), err)
			}
			log.Error("%s failed: %v", stage.Name(), err)
			return err
		}

		log.Debug("%s finished in %s", stage.Name(), time.Since(start).Round(time.Millisecond))
	}

	return nil
}
