// Package filter is the filter registry: a name-to-callable map the
// compiler consults at evaluation time and the top-level glue populates
// at startup.
package filter

import "github.com/pumped-fn/reaxpr/value"

// Factory builds a fresh callable for a registered filter name. Most
// filters are pure functions and can return the same *value.Callable every
// time; a factory exists (rather than a bare callable) so stateful filters
// can hold per-registration state without a global.
type Factory func() *value.Callable

// Registry is the mutable name→factory map the engine's compiler resolves
// filters against. The zero value is usable; NewRegistry
// additionally seeds the always-present `filter` builtin.
type Registry struct {
	factories map[string]Factory
	stateful  map[string]bool
}

// NewRegistry returns a Registry with the built-in array-predicate
// `filter` already registered.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		stateful:  make(map[string]bool),
	}
	r.Register("filter", func() *value.Callable { return builtinFilter })
	return r
}

// Register installs a single named filter factory. markStateful, when
// true, tells the AST analysis pass that this filter's result must
// never be folded to constant even when every argument is.
func (r *Registry) Register(name string, factory Factory, markStateful ...bool) {
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	if r.stateful == nil {
		r.stateful = make(map[string]bool)
	}
	r.factories[name] = factory
	if len(markStateful) > 0 && markStateful[0] {
		r.stateful[name] = true
	}
}

// RegisterMap installs several filters at once.
func (r *Registry) RegisterMap(m map[string]Factory) {
	for name, f := range m {
		r.Register(name, f)
	}
}

// Lookup resolves name against the registry, building a fresh callable
// from its factory each call. It satisfies compiler.FilterLookup.
func (r *Registry) Lookup(name string) (*value.Callable, bool) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Stateful reports whether name was registered as stateful, for
// ast.StatefulFilter. Unknown names default to false (pure).
func (r *Registry) Stateful(name string) bool {
	return r.stateful[name]
}
