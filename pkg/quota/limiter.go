package quota

import (
	"sync"

	"github.com/Sternrassler/pagegen/pkg/metrics"
	"github.com/Sternrassler/pagegen/pkg/unit"
	"github.com/rs/zerolog"
)

// Limiter enforces the global and per-category caps. All methods are safe for
// concurrent use.
//
// Sequential callers use ShouldProcess followed by MarkProcessed. Concurrent
// callers use Reserve, which checks and claims a slot in one critical section
// so that in-flight units count against the caps and no cap is overshot.
type Limiter struct {
	mu sync.Mutex

	maxTotal    *int
	limits      map[string]int
	limitLabels map[string]string

	processed  int
	counts     map[string]int
	labels     map[string]string
	reserved   int
	reservedBy map[string]int
	skips      []string
	generation int

	logger zerolog.Logger
}

// NewLimiter creates a limiter for cfg.
func NewLimiter(cfg Config, logger zerolog.Logger) *Limiter {
	l := &Limiter{
		limits:      make(map[string]int, len(cfg.PerCategory)),
		limitLabels: make(map[string]string, len(cfg.PerCategory)),
		logger:      logger,
	}
	if cfg.MaxTotal != nil {
		l.maxTotal = Limit(*cfg.MaxTotal)
	}
	for category, limit := range cfg.PerCategory {
		key := unit.NormalizeCategory(category)
		l.limits[key] = limit
		l.limitLabels[key] = labelOf(category)
	}
	l.resetLocked()
	return l
}

// ShouldProcess reports whether a unit of category may be processed now.
// The first failing check wins: the global cap, then the category cap.
func (l *Limiter) ShouldProcess(category string) (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, reason, ok := l.checkLocked(category)
	return ok, reason
}

// MarkProcessed counts one processed unit of category. Callers invoke it once
// per unit that ShouldProcess admitted, whether the unit succeeded or not.
func (l *Limiter) MarkProcessed(category string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := unit.NormalizeCategory(category)
	l.rememberLabel(key, category)
	l.processed++
	l.counts[key]++
}

// Reserve admits a unit of category and claims its slot atomically. The
// returned reservation must be either committed or released.
func (l *Limiter) Reserve(category string) (*Reservation, string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key, reason, ok := l.checkLocked(category)
	if !ok {
		return nil, reason, false
	}
	l.reserved++
	l.reservedBy[key]++

	return &Reservation{limiter: l, key: key, generation: l.generation}, "", true
}

// TrackSkip appends a skip message.
func (l *Limiter) TrackSkip(reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.skips = append(l.skips, reason)
}

// SkippedMessages returns a copy of the skip log.
func (l *Limiter) SkippedMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.skips...)
}

// TotalProcessed returns the number of processed units.
func (l *Limiter) TotalProcessed() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.processed
}

// Summary returns a snapshot with counts keyed by original labels.
func (l *Limiter) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	perCategory := make(map[string]int, len(l.counts))
	for key, count := range l.counts {
		perCategory[l.labelLocked(key)] = count
	}

	var limits map[string]int
	if len(l.limits) > 0 {
		limits = make(map[string]int, len(l.limits))
		for key, limit := range l.limits {
			limits[l.labelLocked(key)] = limit
		}
	}

	var maxTotal *int
	if l.maxTotal != nil {
		maxTotal = Limit(*l.maxTotal)
	}

	return Summary{
		TotalProcessed:    l.processed,
		MaxTotal:          maxTotal,
		PerCategory:       perCategory,
		PerCategoryLimits: limits,
		SkippedMessages:   append([]string{}, l.skips...),
	}
}

// Reset zeroes counters, reservations and skip messages. Limits are kept.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetLocked()
}

func (l *Limiter) resetLocked() {
	l.processed = 0
	l.counts = make(map[string]int)
	l.labels = make(map[string]string)
	l.reserved = 0
	l.reservedBy = make(map[string]int)
	l.skips = nil
	l.generation++
}

func (l *Limiter) checkLocked(category string) (key, reason string, ok bool) {
	if l.maxTotal != nil && l.processed+l.reserved >= *l.maxTotal {
		reason = totalLimitReason(*l.maxTotal)
		metrics.UnitsSkipped.WithLabelValues(ReasonTotalLimit).Inc()
		l.logger.Debug().Str("category", category).Str("reason", reason).Msg("Admission rejected")
		return "", reason, false
	}

	key = unit.NormalizeCategory(category)
	l.rememberLabel(key, category)

	if limit, exists := l.limits[key]; exists && l.counts[key]+l.reservedBy[key] >= limit {
		reason = categoryLimitReason(limit, l.labelLocked(key))
		metrics.UnitsSkipped.WithLabelValues(ReasonCategoryLimit).Inc()
		l.logger.Debug().Str("category", category).Str("reason", reason).Msg("Admission rejected")
		return key, reason, false
	}

	return key, "", true
}

func (l *Limiter) rememberLabel(key, category string) {
	if _, seen := l.labels[key]; !seen {
		l.labels[key] = labelOf(category)
	}
}

func (l *Limiter) labelLocked(key string) string {
	if label, ok := l.labels[key]; ok {
		return label
	}
	if label, ok := l.limitLabels[key]; ok {
		return label
	}
	return key
}

// Reservation is a claimed but not yet accounted slot.
type Reservation struct {
	limiter    *Limiter
	key        string
	generation int
	done       bool
}

// Commit turns the reservation into a processed unit. Calls after the first
// Commit or Release are no-ops, as are reservations taken before a Reset.
func (r *Reservation) Commit() {
	l := r.limiter
	l.mu.Lock()
	defer l.mu.Unlock()

	if r.done || r.generation != l.generation {
		r.done = true
		return
	}
	r.done = true
	l.reserved--
	l.reservedBy[r.key]--
	l.processed++
	l.counts[r.key]++
}

// Release gives the slot back without counting a processed unit.
func (r *Reservation) Release() {
	l := r.limiter
	l.mu.Lock()
	defer l.mu.Unlock()

	if r.done || r.generation != l.generation {
		r.done = true
		return
	}
	r.done = true
	l.reserved--
	l.reservedBy[r.key]--
}
