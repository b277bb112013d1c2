package request

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/Sternrassler/pagegen/pkg/variety"
)

// ThemeHint is the payload hint that pins a unit to a specific theme. A
// pinned theme bypasses variety selection.
const ThemeHint = "theme"

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// TemplateData is what a ThemeBuilder template is rendered with.
type TemplateData struct {
	Category     string
	Theme        string
	Avoid        []string
	Hints        map[string]string
	RequiredKeys []string
}

// ThemeBuilder picks a theme that the category has not used yet and renders
// a prompt template with it.
type ThemeBuilder struct {
	themes       []string
	tmpl         *template.Template
	requiredKeys []string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewThemeBuilder parses tmpl and creates a builder over themes. A nil rng
// is replaced with a time-seeded source.
func NewThemeBuilder(name string, themes []string, tmpl string, requiredKeys []string, rng *rand.Rand) (*ThemeBuilder, error) {
	if len(themes) == 0 {
		return nil, fmt.Errorf("builder %s: %w", name, variety.ErrEmptyOptions)
	}
	t, err := template.New(name).Funcs(templateFuncs).Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("builder %s: parse template: %w", name, err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ThemeBuilder{
		themes:       append([]string(nil), themes...),
		tmpl:         t,
		requiredKeys: append([]string(nil), requiredKeys...),
		rng:          rng,
	}, nil
}

// Themes returns a copy of the available themes.
func (b *ThemeBuilder) Themes() []string {
	return append([]string(nil), b.themes...)
}

// Build implements Builder.
func (b *ThemeBuilder) Build(category string, history []string, hints map[string]string) (Request, error) {
	avoid := history
	theme := strings.TrimSpace(hints[ThemeHint])
	var reset bool
	if theme == "" {
		b.mu.Lock()
		selected, _, wrapped, err := variety.Pick(b.themes, history, b.rng)
		b.mu.Unlock()
		if err != nil {
			return Request{}, err
		}
		theme, reset = selected, wrapped
		if reset {
			avoid = nil
		}
	}

	var buf bytes.Buffer
	err := b.tmpl.Execute(&buf, TemplateData{
		Category:     category,
		Theme:        theme,
		Avoid:        avoid,
		Hints:        hints,
		RequiredKeys: b.requiredKeys,
	})
	if err != nil {
		return Request{}, fmt.Errorf("render %s request: %w", category, err)
	}

	return Request{
		Payload:      buf.String(),
		SelectedItem: theme,
		StartsCycle:  reset,
		RequiredKeys: append([]string(nil), b.requiredKeys...),
	}, nil
}
