package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/utsmok/ea-cli/internal/schema"
)

// Summary condenses a finished run for display.
type Summary struct {
	RunID      string
	Mode       Mode
	SourceFile string
	SourceDate string
	Current    int
	Previous   int
	NewlySeen  int
	Changed    int
	Written    int
	NoNewItems bool
	Files      []string
	Elapsed    time.Duration
}

// Summary builds the summary of the run so far.
func (rc *RunContext) Summary() Summary {
	s := Summary{
		RunID:      rc.RunID,
		Mode:       rc.Options.Mode,
		SourceFile: rc.SourceFile,
		Current:    len(rc.Current),
		Previous:   len(rc.Previous),
		NewlySeen:  rc.NewlySeen,
		Changed:    rc.Changed,
		Written:    len(rc.Reconciled),
		NoNewItems: rc.NoNewItems,
		Elapsed:    time.Since(rc.StartedAt),
	}
	if !rc.SourceDate.IsZero() {
		s.SourceDate = rc.SourceDate.Format(schema.DateLayout)
	}
	for _, a := range rc.Artifacts {
		s.Files = append(s.Files, a.Path)
	}
	return s
}

// Print writes the summary in the CLI's plain text layout.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Summary ===")
	fmt.Fprintf(w, "Run:            %s\n", s.RunID)
	fmt.Fprintf(w, "Mode:           %s\n", s.Mode)
	if s.SourceFile != "" {
		fmt.Fprintf(w, "Source:         %s (%s)\n", s.SourceFile, s.SourceDate)
		fmt.Fprintf(w, "Items read:     %d\n", s.Current)
	}
	if s.Previous > 0 {
		fmt.Fprintf(w, "Already known:  %d\n", s.Previous)
	}
	if s.NoNewItems {
		fmt.Fprintln(w, "No new items to add.")
	} else if s.SourceFile != "" {
		fmt.Fprintf(w, "Items added:    %d (%d new, %d changed)\n", s.Written, s.NewlySeen, s.Changed)
	}
	fmt.Fprintf(w, "Files written:  %d\n", len(s.Files))
	for _, f := range s.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
	fmt.Fprintf(w, "Elapsed:        %s\n", s.Elapsed.Round(time.Millisecond))
}
