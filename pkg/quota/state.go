// Package quota implements admission control for a batch run: a global cap on
// processed units and independent per-category caps, plus an append-only log
// of skip reasons.
package quota

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/pagegen/pkg/unit"
)

// Skip reason labels used for metrics.
const (
	ReasonTotalLimit    = "total_limit"
	ReasonCategoryLimit = "category_limit"
)

// Config is the limiter configuration. It is copied by NewLimiter and never
// changed afterwards.
type Config struct {
	// MaxTotal caps the number of processed units. Nil means unlimited;
	// zero rejects everything.
	MaxTotal *int `json:"max_total,omitempty" yaml:"max_total"`

	// PerCategory caps processed units per category. Keys are normalized
	// with unit.NormalizeCategory. Categories without an entry are
	// unconstrained.
	PerCategory map[string]int `json:"per_category,omitempty" yaml:"per_category"`
}

// Validate rejects negative limits.
func (c Config) Validate() error {
	if c.MaxTotal != nil && *c.MaxTotal < 0 {
		return fmt.Errorf("max_total must be >= 0 (got %d)", *c.MaxTotal)
	}
	for category, limit := range c.PerCategory {
		if limit < 0 {
			return fmt.Errorf("limit for %q must be >= 0 (got %d)", category, limit)
		}
	}
	return nil
}

// Limit returns a pointer to n, for building a Config inline.
func Limit(n int) *int {
	return &n
}

// Summary is a point-in-time snapshot of the limiter state. Category counts
// are keyed by the first original label seen for each normalized category.
type Summary struct {
	TotalProcessed    int            `json:"total_processed"`
	MaxTotal          *int           `json:"max_total,omitempty"`
	PerCategory       map[string]int `json:"per_category"`
	PerCategoryLimits map[string]int `json:"per_category_limits,omitempty"`
	SkippedMessages   []string       `json:"skipped_messages"`
}

// TotalSkipped returns the number of recorded skip messages.
func (s Summary) TotalSkipped() int {
	return len(s.SkippedMessages)
}

// Remaining returns how many more units the global cap admits. ok is false
// when no global cap is configured.
func (s Summary) Remaining() (remaining int, ok bool) {
	if s.MaxTotal == nil {
		return 0, false
	}
	remaining = *s.MaxTotal - s.TotalProcessed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// totalLimitReason formats the rejection reason for the global cap.
func totalLimitReason(limit int) string {
	return fmt.Sprintf("Total limit %d reached", limit)
}

// categoryLimitReason formats the rejection reason for a per-category cap.
func categoryLimitReason(limit int, label string) string {
	return fmt.Sprintf("Topic limit %d reached for '%s'", limit, label)
}

// labelOf returns the human-readable label for a raw category.
func labelOf(category string) string {
	label := strings.TrimSpace(category)
	if label == "" {
		return unit.UnknownCategory
	}
	return label
}
