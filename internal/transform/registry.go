// Package transform executes the named, parameterized transformations
// a layout attaches to its mappings. The layout core only stores
// transformation descriptors; this package owns their execution via an
// open registry of named functions, so new transformation types can be
// added without touching the layout model.
package transform

import (
	"fmt"
	"sort"
	"sync"
)

// Func applies one transformation to a raw cell value.
// Params carries the open, string-keyed scalar parameters from the
// layout's transformation descriptor.
type Func func(params map[string]any, raw string) (string, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Func)
)

// Register adds a transformation function under a type name.
// Panics if the name is already taken.
func Register(name string, fn Func) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("transformation already registered: %s", name))
	}
	registry[name] = fn
}

// Apply looks up a transformation by type name and runs it.
func Apply(name string, params map[string]any, raw string) (string, error) {
	registryMu.RLock()
	fn, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return "", fmt.Errorf("unknown transformation: %s", name)
	}
	return fn(params, raw)
}

// Known returns the registered transformation type names, sorted.
func Known() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// stringParam reads a string parameter, with an error naming the
// transformation when it is absent or not a string.
func stringParam(params map[string]any, key, transformation string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("%s: missing parameter %q", transformation, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: parameter %q must be a string", transformation, key)
	}
	return s, nil
}
