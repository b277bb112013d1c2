package variety

import (
	"math/rand"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Sternrassler/pagegen/pkg/metrics"
	"github.com/Sternrassler/pagegen/pkg/unit"
	"github.com/rs/zerolog"
)

// Tracker records which items were selected per normalized category. It is
// safe for concurrent use; every method runs under one mutex.
type Tracker struct {
	mu     sync.Mutex
	used   map[string][]string
	rng    *rand.Rand
	logger zerolog.Logger
}

// NewTracker creates an empty tracker. A nil rng is replaced with a
// time-seeded source; pass a seeded one for deterministic selections.
func NewTracker(rng *rand.Rand, logger zerolog.Logger) *Tracker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Tracker{
		used:   make(map[string][]string),
		rng:    rng,
		logger: logger,
	}
}

// SelectUnused picks a random item from available that has not been used in
// category yet and records it. An exhausted category starts over.
func (t *Tracker) SelectUnused(category string, available []string) (string, error) {
	key := unit.NormalizeCategory(category)

	t.mu.Lock()
	defer t.mu.Unlock()

	selected, next, reset, err := Pick(available, t.used[key], t.rng)
	if err != nil {
		return "", err
	}
	if reset {
		metrics.VarietyResetsTotal.WithLabelValues(key).Inc()
		t.logger.Debug().
			Str("category", key).
			Int("available", len(available)).
			Msg("Variety history exhausted, starting over")
	}
	t.used[key] = next

	return selected, nil
}

// MarkUsed records item for category. Recording an item twice is a no-op.
func (t *Tracker) MarkUsed(category, item string) {
	key := unit.NormalizeCategory(category)

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, existing := range t.used[key] {
		if existing == item {
			return
		}
	}
	t.used[key] = append(t.used[key], item)
}

// StartCycle records item as the first pick of a new cycle for category.
// exhausted is the history the pick was made against. If the history was
// already restarted since then, item is added to the new cycle instead.
func (t *Tracker) StartCycle(category, item string, exhausted []string) {
	key := unit.NormalizeCategory(category)

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.used[key]) < len(exhausted) {
		if !slices.Contains(t.used[key], item) {
			t.used[key] = append(t.used[key], item)
		}
		return
	}

	metrics.VarietyResetsTotal.WithLabelValues(key).Inc()
	t.logger.Debug().
		Str("category", key).
		Int("exhausted", len(exhausted)).
		Msg("Variety history exhausted, starting over")
	t.used[key] = []string{item}
}

// Used returns a copy of the items recorded for category, in selection order.
func (t *Tracker) Used(category string) []string {
	key := unit.NormalizeCategory(category)

	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]string(nil), t.used[key]...)
}

// Reset clears the history of one category.
func (t *Tracker) Reset(category string) {
	key := unit.NormalizeCategory(category)

	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.used, key)
}

// ResetAll clears the history of every category.
func (t *Tracker) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.used = make(map[string][]string)
}

// Restore replaces the history of category with items, dropping duplicates.
// Used to resume cycling from persisted history.
func (t *Tracker) Restore(category string, items []string) {
	key := unit.NormalizeCategory(category)

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(items) == 0 {
		delete(t.used, key)
		return
	}
	t.used[key] = dedupe(items)
}

// Categories returns the normalized categories with recorded history, sorted.
func (t *Tracker) Categories() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.used))
	for key := range t.used {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Summary returns a deep copy of the current history.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	categories := make(map[string][]string, len(t.used))
	for key, items := range t.used {
		categories[key] = append([]string(nil), items...)
	}
	return Summary{Categories: categories}
}
