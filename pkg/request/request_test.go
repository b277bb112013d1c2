package request

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/Sternrassler/pagegen/pkg/variety"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LookupNormalizes(t *testing.T) {
	reg := NewRegistry()
	reg.Register(" Coloring ", BuilderFunc(func(string, []string, map[string]string) (Request, error) {
		return Request{Payload: "p"}, nil
	}))

	for _, name := range []string{"coloring", "COLORING", "  coloring\t"} {
		b, err := reg.Lookup(name)
		require.NoError(t, err, name)
		req, err := b.Build(name, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "p", req.Payload)
		assert.True(t, reg.Has(name))
	}

	assert.Equal(t, []string{"coloring"}, reg.Categories())
}

func TestRegistry_LookupUnknown(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Lookup("origami")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCategoryNotRegistered))
	assert.Contains(t, err.Error(), "origami")
	assert.False(t, reg.Has("origami"))
	assert.False(t, reg.Has(""))
}

func TestThemeBuilder_AvoidsHistory(t *testing.T) {
	themes := []string{"a", "b", "c"}
	b, err := NewThemeBuilder("t", themes, "{{.Theme}}", []string{"title"}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		req, err := b.Build("t", []string{"a", "b"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "c", req.SelectedItem)
		assert.Equal(t, "c", req.Payload)
		assert.Equal(t, []string{"title"}, req.RequiredKeys)
	}
}

func TestThemeBuilder_DoesNotMutateHistory(t *testing.T) {
	b, err := NewThemeBuilder("t", []string{"a", "b"}, "{{.Theme}}", nil, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	history := []string{"a"}
	_, err = b.Build("t", history, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, history)
}

func TestThemeBuilder_ExhaustedHistoryCycles(t *testing.T) {
	b, err := NewThemeBuilder("t", []string{"a", "b"}, "{{.Theme}}|{{join .Avoid \",\"}}", nil, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	req, err := b.Build("t", []string{"b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", req.SelectedItem)
	assert.False(t, req.StartsCycle)
	assert.Equal(t, "a|b", req.Payload)

	req, err = b.Build("t", []string{"b", "a"}, nil)
	require.NoError(t, err)
	assert.Contains(t, []string{"a", "b"}, req.SelectedItem)
	assert.True(t, req.StartsCycle)
	assert.Equal(t, req.SelectedItem+"|", req.Payload, "a new cycle has nothing to avoid")
}

func TestThemeBuilder_PinnedTheme(t *testing.T) {
	b, err := NewThemeBuilder("t", []string{"a"}, "theme={{.Theme}}", nil, nil)
	require.NoError(t, err)

	req, err := b.Build("t", []string{"a"}, map[string]string{ThemeHint: " volcano "})
	require.NoError(t, err)
	assert.Equal(t, "volcano", req.SelectedItem)
	assert.Equal(t, "theme=volcano", req.Payload)
}

func TestThemeBuilder_RendersHintsAndAvoid(t *testing.T) {
	b, err := NewThemeBuilder("coloring", []string{"x", "y"}, Definitions()["coloring"].Template,
		[]string{"title", "elements"}, rand.New(rand.NewSource(11)))
	require.NoError(t, err)

	req, err := b.Build("coloring", []string{"x"}, map[string]string{"age": "5", "audience": "preschool"})
	require.NoError(t, err)

	assert.Contains(t, req.Payload, "coloring page about y")
	assert.Contains(t, req.Payload, "Do not reuse these recent themes: x.")
	assert.Contains(t, req.Payload, "age: 5\naudience: preschool")
	assert.True(t, strings.HasSuffix(req.Payload, "keys: title, elements."))
}

func TestNewThemeBuilder_Errors(t *testing.T) {
	_, err := NewThemeBuilder("empty", nil, "{{.Theme}}", nil, nil)
	assert.ErrorIs(t, err, variety.ErrEmptyOptions)

	_, err = NewThemeBuilder("broken", []string{"a"}, "{{.Theme", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse template")
}

func TestThemeBuilder_ConcurrentBuild(t *testing.T) {
	b, err := NewThemeBuilder("t", []string{"a", "b", "c", "d"}, "{{.Theme}}", nil, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.Build("t", []string{"a"}, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry(rand.New(rand.NewSource(42)))
	assert.Equal(t, []string{"coloring", "dot_to_dot", "maze", "word_search"}, reg.Categories())

	for _, name := range reg.Categories() {
		b, err := reg.Lookup(name)
		require.NoError(t, err)

		req, err := b.Build(name, nil, nil)
		require.NoError(t, err, name)
		assert.NotEmpty(t, req.Payload)
		assert.NotEmpty(t, req.SelectedItem)
		assert.NotEmpty(t, req.RequiredKeys)
	}
}

func TestDefaultRegistry_Reproducible(t *testing.T) {
	pick := func() []string {
		reg := DefaultRegistry(rand.New(rand.NewSource(99)))
		var out []string
		for _, name := range reg.Categories() {
			b, _ := reg.Lookup(name)
			req, _ := b.Build(name, nil, nil)
			out = append(out, req.SelectedItem)
		}
		return out
	}
	assert.Equal(t, pick(), pick())
}

func TestMerge(t *testing.T) {
	base := Definitions()
	merged := Merge(base, map[string]Definition{
		"maze":    {Themes: []string{"labyrinth"}},
		"origami": {Themes: []string{"crane"}, Template: "fold a {{.Theme}}", RequiredKeys: []string{"steps"}},
	})

	assert.Equal(t, []string{"labyrinth"}, merged["maze"].Themes)
	assert.Equal(t, base["maze"].Template, merged["maze"].Template)
	assert.Equal(t, base["maze"].RequiredKeys, merged["maze"].RequiredKeys)
	assert.Contains(t, merged, "origami")
	assert.Len(t, base["maze"].Themes, 6, "base must not change")

	reg, err := NewRegistryFrom(merged, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.True(t, reg.Has("origami"))
}
