// =============================================================================
// Easy Access Toolkit - Reconciliation Engine
// =============================================================================
//
// This module decides which records of the current export still need to be
// added to the category sheets, given what those sheets already contain.
//
// RECONCILIATION RULES:
//   1. No previous records: everything is emitted (bootstrap run)
//   2. Newly seen: material_id does not occur in the previous records
//   3. Changed: material_id occurs, last_change differs, and the previous
//      record carries the admitted status (Policy.AdmitStatus)
//   4. Nothing newly seen and nothing changed: NoNewItems is set
//
// Emitted records always carry the current-side values.
//
// =============================================================================

package reconcile

import (
	"github.com/utsmok/ea-cli/internal/schema"
	"github.com/utsmok/ea-cli/internal/types"
	"github.com/utsmok/ea-cli/pkg/logger"
)

// =============================================================================
// POLICY
// =============================================================================

// Policy controls which changed records are re-admitted.
type Policy struct {
	// AdmitStatus is the previous-record status a changed record needs to be
	// emitted again. Empty admits every changed record.
	AdmitStatus string
}

// DefaultPolicy only re-admits records previously marked as deleted.
func DefaultPolicy() Policy {
	return Policy{AdmitStatus: schema.StatusDeleted}
}

// admits reports whether a previous record lets a changed record through.
func (p Policy) admits(previous types.Record) bool {
	return p.AdmitStatus == "" || previous[schema.FieldStatus] == p.AdmitStatus
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of one reconciliation.
type Result struct {
	// Records are the records to write: newly seen followed by changed.
	Records types.RecordSet

	// NewlySeen counts records whose material_id was not seen before.
	NewlySeen int

	// Changed counts re-admitted records with a different last_change.
	Changed int

	// Bootstrap is true when there were no previous records.
	Bootstrap bool

	// NoNewItems is true when nothing needs to be written.
	NoNewItems bool
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine reconciles a current record set against previously written records.
type Engine struct {
	policy Policy
	log    logger.Logger
}

// New creates an Engine with the given policy.
func New(policy Policy, log logger.Logger) *Engine {
	return &Engine{policy: policy, log: log.WithComponent("reconcile")}
}

// Reconcile computes the records of current that are not yet reflected in
// previous. Neither input is modified.
func (e *Engine) Reconcile(current, previous types.RecordSet) Result {
	if len(previous) == 0 {
		e.log.Info("no previous records found, adding all %d item(s) without checking for changes", len(current))
		return Result{
			Records:   current,
			NewlySeen: len(current),
			Bootstrap: true,
		}
	}

	index := indexByID(previous)

	var newlySeen, changed types.RecordSet
	for _, rec := range current {
		id := schema.Canonical(rec[schema.FieldMaterialID])
		matches, ok := index[id]
		if id == "" || !ok {
			newlySeen = append(newlySeen, rec)
			continue
		}
		if e.isChanged(rec, matches) {
			changed = append(changed, rec)
		}
	}

	result := Result{
		NewlySeen: len(newlySeen),
		Changed:   len(changed),
	}

	if len(newlySeen) == 0 && len(changed) == 0 {
		e.log.Info("no new items to add")
		result.NoNewItems = true
		return result
	}

	result.Records = make(types.RecordSet, 0, len(newlySeen)+len(changed))
	result.Records = append(result.Records, newlySeen...)
	result.Records = append(result.Records, changed...)

	e.log.Info("%d newly seen and %d changed item(s) to add", result.NewlySeen, result.Changed)
	return result
}

// isChanged reports whether any previous record with the same material_id
// has a different last_change and is admitted by the policy. A record is
// emitted once even if several previous records qualify.
func (e *Engine) isChanged(rec types.Record, previous []types.Record) bool {
	for _, prev := range previous {
		if prev[schema.FieldLastChange] != rec[schema.FieldLastChange] && e.policy.admits(prev) {
			return true
		}
	}
	return false
}

// indexByID groups records by canonical material_id. Records without an id
// are not indexed and therefore never match.
func indexByID(records types.RecordSet) map[string][]types.Record {
	index := make(map[string][]types.Record, len(records))
	for _, rec := range records {
		id := schema.Canonical(rec[schema.FieldMaterialID])
		if id == "" {
			continue
		}
		index[id] = append(index[id], rec)
	}
	return index
}
