// Package variety keeps content choices from repeating within a category
// until every available choice has been used once.
package variety

import (
	"errors"
	"math/rand"
)

// ErrEmptyOptions is returned when a selection is requested from an empty
// item list.
var ErrEmptyOptions = errors.New("no available items to select from")

// Summary is a read-only view of the used items per category.
type Summary struct {
	Categories map[string][]string `json:"categories"`
}

// Pick selects one item from available that is not in used. When every
// available item has been used, the history is considered reset and the
// whole list is the candidate pool again.
//
// Pick never modifies its arguments. It returns the selected item, the
// history after the selection, and whether the history was reset. A nil rng
// uses the math/rand global source.
func Pick(available, used []string, rng *rand.Rand) (selected string, next []string, reset bool, err error) {
	if len(available) == 0 {
		return "", nil, false, ErrEmptyOptions
	}

	candidates := unused(available, used)
	history := used
	if len(candidates) == 0 {
		candidates = dedupe(available)
		history = nil
		reset = true
	}

	var idx int
	if rng != nil {
		idx = rng.Intn(len(candidates))
	} else {
		idx = rand.Intn(len(candidates))
	}
	selected = candidates[idx]

	next = make([]string, 0, len(history)+1)
	next = append(next, history...)
	next = append(next, selected)

	return selected, next, reset, nil
}

func unused(available, used []string) []string {
	seen := make(map[string]struct{}, len(used))
	for _, item := range used {
		seen[item] = struct{}{}
	}

	out := make([]string, 0, len(available))
	for _, item := range available {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func dedupe(items []string) []string {
	return unused(items, nil)
}
