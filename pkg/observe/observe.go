// Package observe defines the read-only notifications a batch run emits and
// the logging, metrics and fan-out observers that consume them. Observers are
// never consulted for control decisions.
package observe

import (
	"time"

	"github.com/Sternrassler/pagegen/pkg/quota"
	"github.com/Sternrassler/pagegen/pkg/unit"
	"github.com/Sternrassler/pagegen/pkg/variety"
)

// BackendCall describes one backend request.
type BackendCall struct {
	Duration     time.Duration
	StatusCode   int
	InputTokens  int
	OutputTokens int
	Err          error
}

// BatchSummary is emitted once when a run finishes.
type BatchSummary struct {
	RunID      string          `json:"run_id"`
	Mode       string          `json:"mode"`
	Processed  int             `json:"processed"`
	Skipped    int             `json:"skipped"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Aborted    bool            `json:"aborted"`
	Cancelled  bool            `json:"cancelled"`
	Duration   time.Duration   `json:"duration"`
	FinishedAt time.Time       `json:"finished_at"`
	Quota      quota.Summary   `json:"quota"`
	Variety    variety.Summary `json:"variety"`
}

// Observer receives run notifications. Implementations must be safe for
// concurrent use; the concurrent pipeline calls them from worker goroutines.
type Observer interface {
	UnitStarted(u unit.WorkUnit)
	UnitCompleted(pu unit.ProcessedUnit, elapsed time.Duration)
	BackendCalled(call BackendCall)
	BatchFinished(summary BatchSummary)
}

// Nop ignores every notification.
type Nop struct{}

func (Nop) UnitStarted(unit.WorkUnit)                       {}
func (Nop) UnitCompleted(unit.ProcessedUnit, time.Duration) {}
func (Nop) BackendCalled(BackendCall)                       {}
func (Nop) BatchFinished(BatchSummary)                      {}

// Multi forwards every notification to each observer in order.
type Multi []Observer

func (m Multi) UnitStarted(u unit.WorkUnit) {
	for _, o := range m {
		o.UnitStarted(u)
	}
}

func (m Multi) UnitCompleted(pu unit.ProcessedUnit, elapsed time.Duration) {
	for _, o := range m {
		o.UnitCompleted(pu, elapsed)
	}
}

func (m Multi) BackendCalled(call BackendCall) {
	for _, o := range m {
		o.BackendCalled(call)
	}
}

func (m Multi) BatchFinished(summary BatchSummary) {
	for _, o := range m {
		o.BatchFinished(summary)
	}
}

// OrNop returns o, or Nop when o is nil.
func OrNop(o Observer) Observer {
	if o == nil {
		return Nop{}
	}
	return o
}
