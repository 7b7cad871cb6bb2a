package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/utsmok/ea-cli/internal/mapping"
	"github.com/utsmok/ea-cli/internal/schema"
	"github.com/utsmok/ea-cli/internal/types"
	"github.com/utsmok/ea-cli/pkg/logger"
)

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer turns a raw CopyRight export into schema-conformant records.
type Normalizer struct {
	mapper *mapping.Mapper
	log    logger.Logger
}

// NewNormalizer creates a Normalizer using mapper for the faculty column.
func NewNormalizer(mapper *mapping.Mapper, log logger.Logger) *Normalizer {
	return &Normalizer{mapper: mapper, log: log.WithComponent("normalize")}
}

// Normalize converts the raw export table into records. The table itself is
// not modified.
//
// For every record:
//   - headers are renamed with schema.NormalizeHeader
//   - retrieved_from_copyright_on is set to exportDate
//   - workflow_status is set to "ToDo"
//   - last_change is reformatted to YYYY-MM-DD
//   - faculty is derived from department
func (n *Normalizer) Normalize(table *types.Table, exportDate time.Time) types.RecordSet {
	if table == nil {
		return types.RecordSet{}
	}

	renamed := &types.Table{
		SourceFile: table.SourceFile,
		SheetName:  table.SheetName,
		Headers:    schema.NormalizeHeaders(table.Headers),
		Rows:       table.Rows,
	}

	retrieved := exportDate.Format(schema.DateLayout)
	unparsed := 0

	records := renamed.Records()
	out := make(types.RecordSet, 0, len(records))

	for _, rec := range records {
		rec[schema.FieldMaterialID] = schema.Canonical(rec[schema.FieldMaterialID])
		rec[schema.FieldRetrievedFromCopyrightOn] = retrieved
		rec[schema.FieldWorkflowStatus] = schema.WorkflowToDo

		if raw := rec[schema.FieldLastChange]; raw != "" {
			if date, ok := ParseDate(raw); ok {
				rec[schema.FieldLastChange] = date
			} else {
				unparsed++
				n.log.Debug("could not parse last_change %q of material %s", raw, rec[schema.FieldMaterialID])
			}
		}

		rec[schema.FieldFaculty] = n.mapper.Category(rec[schema.FieldDepartment])
		out = append(out, schema.Conform(rec))
	}

	if unparsed > 0 {
		n.log.Warn("%d last_change value(s) could not be parsed as a date and were kept as-is", unparsed)
	}
	if missing := schema.MissingColumns(renamed.Headers); len(missing) > 0 {
		n.log.Debug("export lacks columns %s, they are left empty", strings.Join(missing, ", "))
	}

	n.log.Info("normalized %d record(s) from %s", len(out), table.SourceFile)
	return out
}

// =============================================================================
// DATE PARSING
// =============================================================================

// dateLayouts are tried in order. Day-first layouts come before month-first
// ones because the CopyRight tool exports in the Dutch locale.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	time.RFC3339,
	time.RFC3339Nano,
	"02-01-2006",
	"02-01-2006 15:04",
	"02-01-2006 15:04:05",
	"2-1-2006",
	"2-1-2006 15:04",
	"02/01/2006",
	"02/01/2006 15:04",
	"2/1/2006",
	"2/1/2006 15:04",
}

// ParseDate converts a date value as found in a spreadsheet or CSV to
// YYYY-MM-DD. Excel serial numbers (e.g. "45296" or "45296.5") are accepted
// too. The second return value is false when the value is not a date.
func ParseDate(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(schema.DateLayout), true
		}
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial >= 1 && serial < 2958466 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t.Format(schema.DateLayout), true
		}
	}

	return "", false
}
