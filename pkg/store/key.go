package store

import (
	"strings"

	"github.com/Sternrassler/pagegen/pkg/unit"
)

const (
	kindVariety = "variety"
	kindBatch   = "batch"
	recentList  = "batches"
)

// Key identifies a stored record.
type Key struct {
	Prefix string
	Kind   string
	ID     string
}

// String returns the Redis key, e.g. "pagegen:variety:maze". Colons around
// Prefix and Kind are trimmed; ID is kept verbatim so that it can be read
// back. Empty parts are left out.
func (k Key) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{k.Prefix, k.Kind} {
		if p = strings.Trim(p, ":"); p != "" {
			parts = append(parts, p)
		}
	}
	if k.ID != "" {
		parts = append(parts, k.ID)
	}
	return strings.Join(parts, ":")
}

// HistoryKey returns the key holding the variety history of category.
func HistoryKey(prefix, category string) Key {
	return Key{Prefix: prefix, Kind: kindVariety, ID: unit.NormalizeCategory(category)}
}

// SummaryKey returns the key holding the summary of run runID.
func SummaryKey(prefix, runID string) Key {
	return Key{Prefix: prefix, Kind: kindBatch, ID: runID}
}

// RecentKey returns the key of the recent run ID list.
func RecentKey(prefix string) Key {
	return Key{Prefix: prefix, Kind: recentList}
}

// historyPattern matches every history key under prefix.
func historyPattern(prefix string) string {
	return Key{Prefix: prefix, Kind: kindVariety, ID: "*"}.String()
}

// categoryOf extracts the category from a history key.
func categoryOf(prefix, redisKey string) string {
	head := Key{Prefix: prefix, Kind: kindVariety}.String() + ":"
	return strings.TrimPrefix(redisKey, head)
}
