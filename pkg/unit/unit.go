// Package unit defines the work unit types shared by every stage of a batch
// run: the immutable input, the per-unit outcome and category normalization.
package unit

import (
	"sort"
	"strings"
)

// UnknownCategory is the bucket that empty or whitespace-only categories
// collapse into.
const UnknownCategory = "__unknown__"

// WorkUnit is one independently specified page to generate.
type WorkUnit struct {
	// SequenceNumber orders the unit in the final output. Units may arrive
	// in any order.
	SequenceNumber int `json:"sequence_number"`

	// Category selects the request builder and keys both quota and variety
	// tracking. Free text, normalized with NormalizeCategory.
	Category string `json:"category"`

	// PayloadHints are passed to the request builder and copied into the
	// result data.
	PayloadHints map[string]string `json:"payload_hints,omitempty"`
}

// ProcessedUnit is the outcome of one admitted unit. Failures are represented,
// never dropped.
type ProcessedUnit struct {
	SequenceNumber int            `json:"sequence_number"`
	Category       string         `json:"category"`
	Success        bool           `json:"success"`
	Data           map[string]any `json:"data,omitempty"`
	Error          string         `json:"error,omitempty"`
	SelectedItem   string         `json:"selected_item,omitempty"`

	// RawExcerpt holds the beginning of the backend response when no
	// payload could be extracted from it.
	RawExcerpt string `json:"raw_excerpt,omitempty"`
}

// Failed builds a failed outcome for u.
func Failed(u WorkUnit, msg string) ProcessedUnit {
	return ProcessedUnit{
		SequenceNumber: u.SequenceNumber,
		Category:       u.Category,
		Success:        false,
		Error:          msg,
	}
}

// NormalizeCategory trims and case-folds a category. Empty input maps to
// UnknownCategory.
func NormalizeCategory(category string) string {
	key := strings.ToLower(strings.TrimSpace(category))
	if key == "" {
		return UnknownCategory
	}
	return key
}

// SortBySequence orders units by ascending sequence number. The sort is
// stable so duplicates keep their completion order.
func SortBySequence(units []ProcessedUnit) {
	sort.SliceStable(units, func(i, j int) bool {
		return units[i].SequenceNumber < units[j].SequenceNumber
	})
}
