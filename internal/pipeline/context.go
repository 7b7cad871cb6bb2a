package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/utsmok/ea-cli/internal/readback"
	"github.com/utsmok/ea-cli/internal/sheetwriter"
	"github.com/utsmok/ea-cli/internal/types"
)

// RunContext carries the state of one invocation from stage to stage. It is
// created when the run starts and discarded when it ends.
type RunContext struct {
	// RunID identifies the run in log output.
	RunID string

	// Options are the invocation options.
	Options Options

	// StartedAt is when the run began.
	StartedAt time.Time

	// SourceFile is the export or alternate sheet the records came from.
	SourceFile string

	// SourceDate is the run date stamped on records and file names.
	SourceDate time.Time

	// Raw is the export as read, before normalization.
	Raw *types.Table

	// Current are the normalized records of the source.
	Current types.RecordSet

	// Previous are the records read back from existing category sheets.
	Previous types.RecordSet

	// Reconciled are the records to write.
	Reconciled types.RecordSet

	// NewlySeen and Changed count the reconciliation outcome.
	NewlySeen int
	Changed   int

	// Categories are the categories observed in Reconciled.
	Categories []string

	// NoNewItems is set when reconciliation found nothing to add.
	NoNewItems bool

	// CategorySheets is the read-back of all category sheets, used to
	// build the import sheet.
	CategorySheets *readback.Result

	// Artifacts are the files written in this run.
	Artifacts []sheetwriter.Artifact
}

// NewRunContext creates the context for a new run.
func NewRunContext(opts Options) *RunContext {
	return &RunContext{
		RunID:     uuid.NewString(),
		Options:   opts,
		StartedAt: time.Now(),
	}
}
