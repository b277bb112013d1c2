// Package request turns a work unit's category into a backend request.
//
// One Builder serves each category and is looked up through a Registry.
// Builders read the variety history of their category but never modify it;
// the processor records the selected item once the backend call succeeded.
package request

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Sternrassler/pagegen/pkg/unit"
)

// ErrCategoryNotRegistered is returned by Registry.Lookup for unknown
// categories.
var ErrCategoryNotRegistered = errors.New("category not registered")

// Request is a built backend request.
type Request struct {
	// Payload is sent to the backend as is.
	Payload string

	// SelectedItem is the variety item this request uses, if any.
	SelectedItem string

	// StartsCycle reports that the history passed to Build was exhausted and
	// SelectedItem opens a new cycle.
	StartsCycle bool

	// RequiredKeys must all be present in the extracted payload for the
	// response to be accepted.
	RequiredKeys []string
}

// Builder builds the request for one unit of a category.
type Builder interface {
	Build(category string, history []string, hints map[string]string) (Request, error)
}

// BuilderFunc adapts a plain function to the Builder interface.
type BuilderFunc func(category string, history []string, hints map[string]string) (Request, error)

// Build calls f.
func (f BuilderFunc) Build(category string, history []string, hints map[string]string) (Request, error) {
	return f(category, history, hints)
}

// Registry maps normalized category names to builders. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register binds b to category, replacing any previous builder.
func (r *Registry) Register(category string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[unit.NormalizeCategory(category)] = b
}

// Lookup returns the builder for category.
func (r *Registry) Lookup(category string) (Builder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.builders[unit.NormalizeCategory(category)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotRegistered, category)
	}
	return b, nil
}

// Has reports whether category has a builder.
func (r *Registry) Has(category string) bool {
	_, err := r.Lookup(category)
	return err == nil
}

// Categories returns the registered category keys in sorted order.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.builders))
	for key := range r.builders {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
