package backend

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   map[string]any
		wantOK bool
	}{
		{
			name:   "plain object",
			text:   `{"title": "Ocean"}`,
			want:   map[string]any{"title": "Ocean"},
			wantOK: true,
		},
		{
			name:   "json code fence",
			text:   "```json\n{\"title\": \"Ocean\", \"count\": 3}\n```",
			want:   map[string]any{"title": "Ocean", "count": float64(3)},
			wantOK: true,
		},
		{
			name:   "bare code fence",
			text:   "```\n{\"ok\": true}\n```",
			want:   map[string]any{"ok": true},
			wantOK: true,
		},
		{
			name:   "surrounded by prose",
			text:   "Here is your page:\n{\"title\": \"Forest\"}\nEnjoy!",
			want:   map[string]any{"title": "Forest"},
			wantOK: true,
		},
		{
			name:   "trailing commas repaired",
			text:   `{"words": ["cat", "dog",], "title": "Pets",}`,
			want:   map[string]any{"words": []any{"cat", "dog"}, "title": "Pets"},
			wantOK: true,
		},
		{
			name:   "nested object uses widest span",
			text:   `prefix {"grid": {"rows": 2}} suffix`,
			want:   map[string]any{"grid": map[string]any{"rows": float64(2)}},
			wantOK: true,
		},
		{
			name:   "no braces",
			text:   "I cannot help with that.",
			wantOK: false,
		},
		{
			name:   "closing brace before opening",
			text:   "} nothing {",
			wantOK: false,
		},
		{
			name:   "two objects are not merged",
			text:   `{"a": 1} and {"b": 2}`,
			wantOK: false,
		},
		{
			name:   "single quotes are not repaired",
			text:   `{'title': 'Ocean'}`,
			wantOK: false,
		},
		{
			name:   "empty text",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Extract() ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK {
				if got != nil {
					t.Errorf("Extract() = %v, want nil", got)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestMissingKeys(t *testing.T) {
	payload := map[string]any{"title": "x", "grid": nil}

	if got := missingKeys(payload, []string{"title", "grid"}); len(got) != 0 {
		t.Errorf("missingKeys() = %v, want none", got)
	}

	got := missingKeys(payload, []string{"words", "title", "solution"})
	want := []string{"words", "solution"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("missingKeys() = %v, want %v", got, want)
	}
}
