// =============================================================================
// Easy Access Toolkit - Main Entry Point
// =============================================================================
//
// USAGE:
//   ea-cli process     - Read the newest export and write faculty sheets
//   ea-cli validate    - Check configuration, mapping and the newest export
//   ea-cli version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : ingestion, reconciliation, sheet reading and writing
//   - pkg/       : errors, logging and file helpers
//
// =============================================================================

package main

import (
	"github.com/utsmok/ea-cli/cmd"
)

func main() {
	cmd.Execute()
}
