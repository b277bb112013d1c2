package observe

import (
	"time"

	"github.com/Sternrassler/pagegen/pkg/unit"
	"github.com/rs/zerolog"
)

// LogObserver writes notifications to a zerolog logger.
type LogObserver struct {
	logger zerolog.Logger
}

// NewLogObserver creates a LogObserver.
func NewLogObserver(logger zerolog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) UnitStarted(u unit.WorkUnit) {
	o.logger.Debug().
		Int("sequence", u.SequenceNumber).
		Str("category", u.Category).
		Msg("Unit started")
}

func (o *LogObserver) UnitCompleted(pu unit.ProcessedUnit, elapsed time.Duration) {
	if pu.Success {
		o.logger.Info().
			Int("sequence", pu.SequenceNumber).
			Str("category", pu.Category).
			Str("selected_item", pu.SelectedItem).
			Dur("duration", elapsed).
			Msg("Unit completed")
		return
	}
	o.logger.Warn().
		Int("sequence", pu.SequenceNumber).
		Str("category", pu.Category).
		Str("error", pu.Error).
		Dur("duration", elapsed).
		Msg("Unit failed")
}

func (o *LogObserver) BackendCalled(call BackendCall) {
	event := o.logger.Debug()
	if call.Err != nil {
		event = o.logger.Warn().Err(call.Err)
	}
	event.
		Int("status", call.StatusCode).
		Int("input_tokens", call.InputTokens).
		Int("output_tokens", call.OutputTokens).
		Dur("duration", call.Duration).
		Msg("Backend call")
}

func (o *LogObserver) BatchFinished(s BatchSummary) {
	o.logger.Info().
		Str("run_id", s.RunID).
		Str("mode", s.Mode).
		Int("processed", s.Processed).
		Int("skipped", s.Skipped).
		Int("succeeded", s.Succeeded).
		Int("failed", s.Failed).
		Bool("aborted", s.Aborted).
		Bool("cancelled", s.Cancelled).
		Dur("duration", s.Duration).
		Msg("Batch finished")
}
