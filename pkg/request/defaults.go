package request

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// Definition describes a theme-based category.
type Definition struct {
	Themes       []string `yaml:"themes"`
	Template     string   `yaml:"template"`
	RequiredKeys []string `yaml:"required_keys"`
}

const commonTail = `
{{- if .Avoid}}
Do not reuse these recent themes: {{join .Avoid ", "}}.
{{- end}}
{{- range $key, $value := .Hints}}
{{$key}}: {{$value}}
{{- end}}
Respond with a single JSON object with the keys: {{join .RequiredKeys ", "}}.`

// Definitions returns the built-in categories.
func Definitions() map[string]Definition {
	return map[string]Definition{
		"coloring": {
			Themes: []string{
				"ocean animals", "farm life", "outer space", "dinosaurs",
				"jungle", "fairy tale castle", "construction site", "garden insects",
			},
			Template:     "Design a children's coloring page about {{.Theme}}. Use bold outlines and large areas to color." + commonTail,
			RequiredKeys: []string{"title", "description", "elements"},
		},
		"maze": {
			Themes: []string{
				"pirate treasure", "mouse and cheese", "rocket to the moon",
				"bee to the flower", "knight to the castle", "dog to the bone",
			},
			Template:     "Design a printable maze for children themed \"{{.Theme}}\" with a clear start and goal." + commonTail,
			RequiredKeys: []string{"title", "start", "goal", "difficulty"},
		},
		"word_search": {
			Themes: []string{
				"fruits", "weather", "musical instruments", "sports",
				"vehicles", "kitchen", "seasons",
			},
			Template:     "Create a word search puzzle about {{.Theme}} with 8 to 12 age-appropriate words." + commonTail,
			RequiredKeys: []string{"title", "words"},
		},
		"dot_to_dot": {
			Themes: []string{
				"butterfly", "sailboat", "elephant", "star", "house", "giraffe",
			},
			Template:     "Describe a dot-to-dot picture of a {{.Theme}} with 20 to 40 numbered points." + commonTail,
			RequiredKeys: []string{"title", "subject", "points"},
		},
	}
}

// NewRegistryFrom registers one ThemeBuilder per definition. Each builder
// gets its own random source seeded from rng so selections stay
// reproducible for a seeded rng.
func NewRegistryFrom(defs map[string]Definition, rng *rand.Rand) (*Registry, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	reg := NewRegistry()
	for _, name := range sortedKeys(defs) {
		def := defs[name]
		b, err := NewThemeBuilder(name, def.Themes, def.Template, def.RequiredKeys, rand.New(rand.NewSource(rng.Int63())))
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
		reg.Register(name, b)
	}
	return reg, nil
}

// DefaultRegistry returns a registry with the built-in categories.
func DefaultRegistry(rng *rand.Rand) *Registry {
	reg, err := NewRegistryFrom(Definitions(), rng)
	if err != nil {
		panic(err)
	}
	return reg
}

// Merge overlays overrides onto base. Fields left empty in an override keep
// the base value; unknown names add new categories.
func Merge(base, overrides map[string]Definition) map[string]Definition {
	out := make(map[string]Definition, len(base)+len(overrides))
	for name, def := range base {
		out[name] = def
	}
	for name, o := range overrides {
		def := out[name]
		if len(o.Themes) > 0 {
			def.Themes = o.Themes
		}
		if o.Template != "" {
			def.Template = o.Template
		}
		if len(o.RequiredKeys) > 0 {
			def.RequiredKeys = o.RequiredKeys
		}
		out[name] = def
	}
	return out
}

func sortedKeys(defs map[string]Definition) []string {
	keys := make([]string, 0, len(defs))
	for k := range defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
