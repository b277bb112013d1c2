package quota

import (
	"testing"

	"github.com/rs/zerolog"
)

func newTestLimiter(cfg Config) *Limiter {
	return NewLimiter(cfg, zerolog.Nop())
}

func TestShouldProcess_EvaluationOrder(t *testing.T) {
	tests := []struct {
		name       string
		config     Config
		processed  []string
		category   string
		wantOK     bool
		wantReason string
	}{
		{
			name:     "no limits",
			config:   Config{},
			category: "coloring",
			wantOK:   true,
		},
		{
			name:       "zero total rejects everything",
			config:     Config{MaxTotal: Limit(0)},
			category:   "coloring",
			wantOK:     false,
			wantReason: "Total limit 0 reached",
		},
		{
			name:       "total limit reached",
			config:     Config{MaxTotal: Limit(2)},
			processed:  []string{"maze", "coloring"},
			category:   "maze",
			wantOK:     false,
			wantReason: "Total limit 2 reached",
		},
		{
			name:       "category limit reached",
			config:     Config{PerCategory: map[string]int{"coloring": 1}},
			processed:  []string{"Coloring"},
			category:   "coloring",
			wantOK:     false,
			wantReason: "Topic limit 1 reached for 'Coloring'",
		},
		{
			name:      "other category unconstrained",
			config:    Config{PerCategory: map[string]int{"coloring": 1}},
			processed: []string{"coloring"},
			category:  "maze",
			wantOK:    true,
		},
		{
			name:       "total wins over category",
			config:     Config{MaxTotal: Limit(1), PerCategory: map[string]int{"coloring": 1}},
			processed:  []string{"coloring"},
			category:   "coloring",
			wantOK:     false,
			wantReason: "Total limit 1 reached",
		},
		{
			name:       "limit keys normalized",
			config:     Config{PerCategory: map[string]int{"  MAZE ": 1}},
			processed:  []string{"maze"},
			category:   "Maze",
			wantOK:     false,
			wantReason: "Topic limit 1 reached for 'maze'",
		},
		{
			name:       "empty and blank share the unknown bucket",
			config:     Config{PerCategory: map[string]int{"": 2}},
			processed:  []string{"", "   "},
			category:   "\t",
			wantOK:     false,
			wantReason: "Topic limit 2 reached for '__unknown__'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := newTestLimiter(tt.config)
			for _, category := range tt.processed {
				limiter.MarkProcessed(category)
			}

			ok, reason := limiter.ShouldProcess(tt.category)

			if ok != tt.wantOK {
				t.Errorf("ShouldProcess(%q) ok = %v, want %v", tt.category, ok, tt.wantOK)
			}
			if reason != tt.wantReason {
				t.Errorf("ShouldProcess(%q) reason = %q, want %q", tt.category, reason, tt.wantReason)
			}
		})
	}
}

func TestMarkProcessed_Accounting(t *testing.T) {
	limiter := newTestLimiter(Config{})

	categories := []string{"coloring", "Coloring", "maze", "", " ", "dot_to_dot"}
	for i, category := range categories {
		limiter.MarkProcessed(category)

		summary := limiter.Summary()
		sum := 0
		for _, count := range summary.PerCategory {
			sum += count
		}
		if summary.TotalProcessed != i+1 {
			t.Errorf("TotalProcessed = %d, want %d", summary.TotalProcessed, i+1)
		}
		if sum != summary.TotalProcessed {
			t.Errorf("sum(PerCategory) = %d, want %d", sum, summary.TotalProcessed)
		}
	}

	summary := limiter.Summary()
	want := map[string]int{"coloring": 2, "maze": 1, "__unknown__": 2, "dot_to_dot": 1}
	for label, count := range want {
		if summary.PerCategory[label] != count {
			t.Errorf("PerCategory[%q] = %d, want %d", label, summary.PerCategory[label], count)
		}
	}
}

func TestSummary_FirstSeenLabel(t *testing.T) {
	limiter := newTestLimiter(Config{PerCategory: map[string]int{"coloring": 5}})

	limiter.ShouldProcess("  Coloring  ")
	limiter.MarkProcessed("COLORING")

	summary := limiter.Summary()
	if summary.PerCategory["Coloring"] != 1 {
		t.Errorf("PerCategory = %v, want Coloring: 1", summary.PerCategory)
	}
	if summary.PerCategoryLimits["Coloring"] != 5 {
		t.Errorf("PerCategoryLimits = %v, want Coloring: 5", summary.PerCategoryLimits)
	}
}

func TestTrackSkip_Copies(t *testing.T) {
	limiter := newTestLimiter(Config{})
	limiter.TrackSkip("first")
	limiter.TrackSkip("second")

	messages := limiter.SkippedMessages()
	messages[0] = "mutated"

	got := limiter.SkippedMessages()
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("SkippedMessages() = %v, want [first second]", got)
	}

	summary := limiter.Summary()
	summary.SkippedMessages[1] = "mutated"
	if limiter.SkippedMessages()[1] != "second" {
		t.Error("Summary().SkippedMessages should be a copy")
	}
	if summary.TotalSkipped() != 2 {
		t.Errorf("TotalSkipped() = %d, want 2", summary.TotalSkipped())
	}
}

func TestReset_KeepsLimits(t *testing.T) {
	limiter := newTestLimiter(Config{MaxTotal: Limit(1)})
	limiter.MarkProcessed("maze")
	limiter.TrackSkip("skipped")

	if ok, _ := limiter.ShouldProcess("maze"); ok {
		t.Fatal("expected limit to be reached before reset")
	}

	limiter.Reset()

	summary := limiter.Summary()
	if summary.TotalProcessed != 0 || len(summary.PerCategory) != 0 || len(summary.SkippedMessages) != 0 {
		t.Errorf("Summary after Reset = %+v, want zeroed", summary)
	}
	if summary.MaxTotal == nil || *summary.MaxTotal != 1 {
		t.Errorf("MaxTotal after Reset = %v, want 1", summary.MaxTotal)
	}
	if ok, _ := limiter.ShouldProcess("maze"); !ok {
		t.Error("expected admission after Reset")
	}
}

func TestNewLimiter_CopiesConfig(t *testing.T) {
	total := 3
	cfg := Config{MaxTotal: &total, PerCategory: map[string]int{"maze": 1}}
	limiter := newTestLimiter(cfg)

	total = 0
	cfg.PerCategory["maze"] = 0

	if ok, reason := limiter.ShouldProcess("maze"); !ok {
		t.Errorf("ShouldProcess() rejected after caller mutated config: %s", reason)
	}
}

func TestSummary_Remaining(t *testing.T) {
	limiter := newTestLimiter(Config{MaxTotal: Limit(3)})
	limiter.MarkProcessed("maze")

	remaining, ok := limiter.Summary().Remaining()
	if !ok || remaining != 2 {
		t.Errorf("Remaining() = %d, %v, want 2, true", remaining, ok)
	}

	if _, ok := newTestLimiter(Config{}).Summary().Remaining(); ok {
		t.Error("Remaining() should report no cap when MaxTotal is nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "empty", config: Config{}},
		{name: "zero total", config: Config{MaxTotal: Limit(0)}},
		{name: "negative total", config: Config{MaxTotal: Limit(-1)}, wantErr: true},
		{name: "negative category", config: Config{PerCategory: map[string]int{"maze": -2}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScenario_TotalAndCategoryLimits(t *testing.T) {
	limiter := newTestLimiter(Config{
		MaxTotal:    Limit(8),
		PerCategory: map[string]int{"coloring": 5},
	})

	var categories []string
	for i := 0; i < 6; i++ {
		categories = append(categories, "coloring")
	}
	for i := 0; i < 4; i++ {
		categories = append(categories, "maze")
	}

	processed := map[string]int{}
	for _, category := range categories {
		ok, reason := limiter.ShouldProcess(category)
		if !ok {
			limiter.TrackSkip(reason)
			continue
		}
		limiter.MarkProcessed(category)
		processed[category]++
	}

	if processed["coloring"] != 5 || processed["maze"] != 3 {
		t.Errorf("processed = %v, want coloring: 5, maze: 3", processed)
	}
	if got := limiter.TotalProcessed(); got != 8 {
		t.Errorf("TotalProcessed() = %d, want 8", got)
	}
	want := []string{"Topic limit 5 reached for 'coloring'", "Total limit 8 reached"}
	got := limiter.SkippedMessages()
	if len(got) != len(want) {
		t.Fatalf("SkippedMessages() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SkippedMessages()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
