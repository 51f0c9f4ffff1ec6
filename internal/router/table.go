package router

import (
	"fmt"

	"github.com/vyrodovalexey/pathhint/internal/util"
)

// Entry binds a route path to its handler.
type Entry struct {
	Path    string
	Handler Handler
}

// Table is an ordered, immutable set of routes. It is read-only after
// NewTable returns and may be shared across goroutines without locking.
type Table struct {
	paths    []RoutePath
	handlers map[RoutePath]Handler
}

// NewTable builds a table from entries, preserving their order.
// Paths are normalized; duplicates after normalization are rejected.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{
		paths:    make([]RoutePath, 0, len(entries)),
		handlers: make(map[RoutePath]Handler, len(entries)),
	}

	for i, entry := range entries {
		if entry.Handler == nil {
			return nil, fmt.Errorf("route %d (%s): %w: nil handler", i, entry.Path, util.ErrInvalidInput)
		}

		path := NormalizePath(entry.Path)
		if _, exists := t.handlers[path]; exists {
			return nil, fmt.Errorf("duplicate route path: %s", path)
		}

		t.paths = append(t.paths, path)
		t.handlers[path] = entry.Handler
	}

	return t, nil
}

// Lookup returns the handler bound to path, if any.
func (t *Table) Lookup(path RoutePath) (Handler, bool) {
	h, ok := t.handlers[path]
	return h, ok
}

// Paths returns a copy of the route paths in table order.
func (t *Table) Paths() []RoutePath {
	paths := make([]RoutePath, len(t.paths))
	copy(paths, t.paths)
	return paths
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.paths)
}
