package compiler

import (
	"fmt"

	"github.com/pumped-fn/reaxpr/ast"
	"github.com/pumped-fn/reaxpr/safety"
	"github.com/pumped-fn/reaxpr/value"
)

type evalFunc func(scope Context, locals value.Value) (value.Value, error)
type keyFunc func(scope Context, locals value.Value) (string, error)
type writeFunc func(scope Context, locals, val value.Value) (value.Value, error)

// findWriteOwner resolves the innermost context that already owns name:
// locals take precedence if they already define it, otherwise the nearest
// scope (walking up through non-isolated parents, starting at scope
// itself) that already owns it, falling back to scope itself when nothing
// in the chain does.
func findWriteOwner(scope Context, locals value.Value, name string) value.Value {
	if locals.Kind() == value.KindMapping {
		if _, ok := locals.Get(name); ok {
			return locals
		}
	}
	cur := scope
	for {
		if _, ok := cur.ScopeValue().Get(name); ok {
			return cur.ScopeValue()
		}
		parent, hasParent := cur.ScopeParent()
		if !hasParent {
			break
		}
		cur = parent
	}
	return scope.ScopeValue()
}

func readIdentifier(scope Context, locals value.Value, name string) (value.Value, bool) {
	if locals.Kind() == value.KindMapping {
		if v, ok := locals.Get(name); ok {
			return v, true
		}
	}
	cur := scope
	for {
		if v, ok := cur.ScopeValue().Get(name); ok {
			return v, true
		}
		parent, hasParent := cur.ScopeParent()
		if !hasParent {
			break
		}
		cur = parent
	}
	return value.Null, false
}

// compileKey compiles a Member node's property into a runtime key
// function, performing the compile-time safety check for non-computed
// names once, up front.
func compileKey(n *ast.Node, filters FilterLookup) (keyFunc, error) {
	if !n.Computed {
		name := n.Property.Name
		if err := safety.CheckField(name); err != nil {
			return nil, err
		}
		return func(Context, value.Value) (string, error) { return name, nil }, nil
	}
	propFn, err := compileNode(n.Property, filters)
	if err != nil {
		return nil, err
	}
	return func(scope Context, locals value.Value) (string, error) {
		v, err := propFn(scope, locals)
		if err != nil {
			return "", err
		}
		key := v.String()
		if err := safety.CheckField(key); err != nil {
			return "", err
		}
		return key, nil
	}, nil
}

// compileContainer compiles n (Identifier, This, Locals, or Member) into a
// function that resolves the value n denotes, auto-vivifying any missing
// intermediate mapping along the way on the innermost context that defines
// its root. It is used for the object half of an assignment path;
// the final segment of the path is written by compileWrite, not here.
func compileContainer(n *ast.Node, filters FilterLookup) (evalFunc, error) {
	switch n.Kind {
	case ast.This:
		return func(scope Context, locals value.Value) (value.Value, error) {
			return scope.ScopeValue(), nil
		}, nil

	case ast.Locals:
		return func(scope Context, locals value.Value) (value.Value, error) {
			return locals, nil
		}, nil

	case ast.Identifier:
		name := n.Name
		return func(scope Context, locals value.Value) (value.Value, error) {
			owner := findWriteOwner(scope, locals, name)
			child, ok := owner.Get(name)
			if !ok || isFalsyForVivify(child) {
				child = value.NewMapping()
				owner.Set(name, child)
				return child, nil
			}
			if child.Kind() != value.KindMapping {
				return value.Null, fmt.Errorf("%w: %s", ErrNotAnObject, name)
			}
			return child, nil
		}, nil

	case ast.Member:
		parentFn, err := compileContainer(n.Object, filters)
		if err != nil {
			return nil, err
		}
		keyFn, err := compileKey(n, filters)
		if err != nil {
			return nil, err
		}
		return func(scope Context, locals value.Value) (value.Value, error) {
			parent, err := parentFn(scope, locals)
			if err != nil {
				return value.Null, err
			}
			if err := safety.CheckValue(parent); err != nil {
				return value.Null, err
			}
			key, err := keyFn(scope, locals)
			if err != nil {
				return value.Null, err
			}
			child, ok := memberGet(parent, key)
			if !ok || isFalsyForVivify(child) {
				child = value.NewMapping()
				if !memberSet(parent, key, child) {
					return value.Null, fmt.Errorf("%w: %s", ErrNotAnObject, key)
				}
				return child, nil
			}
			if child.Kind() != value.KindMapping {
				return value.Null, fmt.Errorf("%w: %s", ErrNotAnObject, key)
			}
			return child, nil
		}, nil

	default:
		return nil, fmt.Errorf("%w: node kind %v cannot anchor a path", ErrNotAssignable, n.Kind)
	}
}

// compileWrite compiles an assignable node (Identifier or Member) into
// the side-effecting write half of an assignment, creating missing
// intermediate mappings.
func compileWrite(n *ast.Node, filters FilterLookup) (writeFunc, error) {
	switch n.Kind {
	case ast.Identifier:
		name := n.Name
		return func(scope Context, locals, val value.Value) (value.Value, error) {
			owner := findWriteOwner(scope, locals, name)
			owner.Set(name, val)
			return val, nil
		}, nil

	case ast.Member:
		parentFn, err := compileContainer(n.Object, filters)
		if err != nil {
			return nil, err
		}
		keyFn, err := compileKey(n, filters)
		if err != nil {
			return nil, err
		}
		return func(scope Context, locals, val value.Value) (value.Value, error) {
			parent, err := parentFn(scope, locals)
			if err != nil {
				return value.Null, err
			}
			if err := safety.CheckValue(parent); err != nil {
				return value.Null, err
			}
			key, err := keyFn(scope, locals)
			if err != nil {
				return value.Null, err
			}
			if !memberSet(parent, key, val) {
				return value.Null, fmt.Errorf("%w: %s", ErrNotAnObject, key)
			}
			return val, nil
		}, nil

	default:
		return nil, fmt.Errorf("%w", ErrNotAssignable)
	}
}
