// Package reaxpr is the root package of the expression engine and reactive
// scope graph: a small grammar compiled to AST-walking closures, evaluated
// against a tree of Scopes driven by a fixed-point digest loop. It
// re-exports the pieces most callers need so day-to-day use does not
// require importing the internal packages directly.
package reaxpr

import (
	"errors"

	"github.com/pumped-fn/reaxpr/ast"
	"github.com/pumped-fn/reaxpr/filter"
	"github.com/pumped-fn/reaxpr/lexer"
	"github.com/pumped-fn/reaxpr/safety"
	"github.com/pumped-fn/reaxpr/scope"
	"github.com/pumped-fn/reaxpr/value"
)

// Re-exported so callers only need this package for the common path.
type (
	Scope   = scope.Scope
	Value   = value.Value
	Option  = scope.Option
	Filters = filter.Registry
)

// New constructs a root Scope with a fresh filter registry seeded with the
// built-in `filter` predicate filter, plus any
// caller-supplied options.
func New(opts ...Option) *Scope {
	return NewWithFilters(filter.NewRegistry(), opts...)
}

// NewWithFilters constructs a root Scope over a caller-populated filter
// registry, for applications that register their filters before creating
// any scope.
func NewWithFilters(reg *Filters, opts ...Option) *Scope {
	all := append([]Option{scope.WithFilters(reg)}, opts...)
	return scope.New(all...)
}

// RegisterFilter installs a named filter factory into reg. Pass
// markStateful=true for filters whose output depends on hidden state
// across calls; a stateful filter keeps its expression from being folded
// to a constant even when every argument is.
func RegisterFilter(reg *Filters, name string, factory filter.Factory, markStateful ...bool) {
	reg.Register(name, factory, markStateful...)
}

// NewFilterRegistry creates an empty registry seeded with the built-in
// `filter` predicate.
func NewFilterRegistry() *Filters { return filter.NewRegistry() }

// LexError wraps a lexical failure: any character or literal matching no
// lexical rule.
type LexError struct{ cause *lexer.Error }

func (e *LexError) Error() string { return e.cause.Error() }
func (e *LexError) Unwrap() error { return e.cause }

// ParseError wraps a grammar failure: a token sequence the grammar does
// not accept.
type ParseError struct{ cause *ast.Error }

func (e *ParseError) Error() string { return e.cause.Error() }
func (e *ParseError) Unwrap() error { return e.cause }

// SafetyError wraps a rejected member/call name or unreachable value,
// surfaced at compile or eval time depending on whether the name is
// static or computed.
type SafetyError struct{ cause *safety.Error }

func (e *SafetyError) Error() string { return e.cause.Error() }
func (e *SafetyError) Unwrap() error { return e.cause }

// WrapError classifies an error returned by Compile/Eval into one of the
// typed wrappers above, so callers can errors.As against a single
// family of types without reaching into the ast/lexer/safety packages.
// Errors of an unrecognised kind (ErrNotAssignable, ErrNotAFunction,
// ErrUnknownFilter, ErrNotAnObject, runtime evaluation faults) pass
// through unwrapped; they are already sentinel errors meant to be
// matched with errors.Is.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	var lexErr *lexer.Error
	if errors.As(err, &lexErr) {
		return &LexError{cause: lexErr}
	}
	var parseErr *ast.Error
	if errors.As(err, &parseErr) {
		return &ParseError{cause: parseErr}
	}
	var safetyErr *safety.Error
	if errors.As(err, &safetyErr) {
		return &SafetyError{cause: safetyErr}
	}
	return err
}
