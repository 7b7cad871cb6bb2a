// Package mapping translates raw department labels from the tracking tool
// into the faculty category used to partition output sheets.
package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/utsmok/ea-cli/internal/schema"
)

// Mapper is a read-only department -> category lookup.
type Mapper struct {
	categories map[string]string
}

// New creates a Mapper from an in-memory mapping. The map is copied.
func New(m map[string]string) *Mapper {
	categories := make(map[string]string, len(m))
	for k, v := range m {
		categories[k] = v
	}
	return &Mapper{categories: categories}
}

// Load reads a JSON object of department -> category pairs.
func Load(path string) (*Mapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read department mapping: %w", err)
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse department mapping %s: %w", path, err)
	}

	return New(m), nil
}

// Category returns the category for a department, or schema.CategoryUnmapped
// when the department has no entry. It never fails.
func (m *Mapper) Category(department string) string {
	if m != nil {
		if category, ok := m.categories[department]; ok {
			return category
		}
	}
	return schema.CategoryUnmapped
}

// Len returns the number of mapped departments.
func (m *Mapper) Len() int {
	if m == nil {
		return 0
	}
	return len(m.categories)
}

// Categories returns the distinct target categories, sorted.
func (m *Mapper) Categories() []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, c := range m.categories {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
