package compiler

import "github.com/pumped-fn/reaxpr/value"

// Context is the minimal view a compiled evaluator needs of a scope: its
// own attribute mapping and, for a non-isolated child, the parent to
// continue an inheritance-chain lookup on. scope.Scope implements this
// directly; the compiler package never imports scope, so there is no
// cycle.
type Context interface {
	// ScopeValue returns this scope's own attribute mapping. Writes through
	// it are visible to every Context sharing the same underlying scope.
	ScopeValue() value.Value

	// ScopeParent returns the scope to continue the inheritance walk on.
	// An isolate scope (or the root) reports ok=false, stopping the walk
	// even though it may still have a real parent for other purposes
	// (Emit/Broadcast, Root) that the scope package tracks itself.
	ScopeParent() (Context, bool)
}
