// Package computed provides named functions that derive document values from
// a record and its ancestor chain.
package computed

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp-forge/contentsearch/pkg/record"
)

// Func derives a value for one record. Returned values must be one of the
// document value types: string, int64, float64, []string, []any or nil.
type Func func(ctx context.Context, rec *record.Record, lookup record.AncestorLookup, params map[string]string) (any, error)

// Registry maps computed field type names to functions.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// DefaultRegistry returns a registry holding the built-in functions.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister("parents", Parents)
	r.MustRegister("parent_names", ParentNames)
	r.MustRegister("small_created_date", SmallCreatedDate)
	r.MustRegister("depth", Depth)
	r.MustRegister("template_name", TemplateName)
	return r
}

// Register adds fn under name. Registering a name twice is an error.
func (r *Registry) Register(name string, fn Func) error {
	if name == "" {
		return fmt.Errorf("computed field type name is required")
	}
	if fn == nil {
		return fmt.Errorf("computed field type %q: function is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[name]; exists {
		return fmt.Errorf("computed field type %q already registered", name)
	}
	r.funcs[name] = fn
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, fn Func) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
