// =============================================================================
// Easy Access Toolkit - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - ingest
//   - reconcile
//   - readback
//   - sheetwriter
//   - pipeline
//
// =============================================================================

package types

// =============================================================================
// RAW TABLE
// =============================================================================

// Table is a raw, untyped table as it comes out of a spreadsheet or CSV file.
// Headers are kept exactly as found in the source; no renaming happens here.
type Table struct {
	// SourceFile is the path of the file the table was read from.
	SourceFile string

	// SheetName is the sheet the table was read from (empty for CSV files).
	SheetName string

	// Headers contains the column headers from the first row.
	Headers []string

	// Rows contains the data rows. Every row has exactly len(Headers) cells.
	Rows [][]string
}

// IsEmpty reports whether the table has no data rows.
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Rows) == 0
}

// HasColumn reports whether the table has a header with the given name.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnIndex returns the position of the named header, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Records converts the table rows into records keyed by header name.
// When a header occurs more than once, the last column wins.
func (t *Table) Records() RecordSet {
	if t == nil {
		return nil
	}
	records := make(RecordSet, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(Record, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

// =============================================================================
// RECORDS
// =============================================================================

// Record is a single tracked item: field name -> string value.
// Field order is not stored here; the schema package owns column order.
type Record map[string]string

// Clone returns a copy of the record that can be modified independently.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RecordSet is an unordered collection of records.
// material_id acts as a natural key within one source, but is not guaranteed
// to be unique once sets from several sources are merged.
type RecordSet []Record

// Filter returns the records for which keep returns true.
func (rs RecordSet) Filter(keep func(Record) bool) RecordSet {
	out := make(RecordSet, 0, len(rs))
	for _, r := range rs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Distinct returns the distinct values of a field, in order of first occurrence.
func (rs RecordSet) Distinct(field string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, r := range rs {
		v := r[field]
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	return values
}
