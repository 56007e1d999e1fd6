package compiler

import (
	"fmt"

	"github.com/pumped-fn/reaxpr/ast"
	"github.com/pumped-fn/reaxpr/safety"
	"github.com/pumped-fn/reaxpr/value"
)

// compileCall compiles a Call node: a filter pipe
// (n.Filter != ""), a member call (receiver bound to the enclosing object),
// a bare call (receiver bound to the context that owns the name), or a call
// on an arbitrary callee expression (no receiver).
func compileCall(n *ast.Node, filters FilterLookup) (evalFunc, error) {
	if n.Filter != "" {
		return compileFilterCall(n, filters)
	}

	argFns := make([]evalFunc, len(n.Arguments))
	for i, a := range n.Arguments {
		fn, err := compileNode(a, filters)
		if err != nil {
			return nil, err
		}
		argFns[i] = fn
	}

	switch n.Callee.Kind {
	case ast.Member:
		return compileMemberCall(n.Callee, argFns, filters)
	case ast.Identifier:
		return compileBareCall(n.Callee.Name, argFns)
	default:
		calleeFn, err := compileNode(n.Callee, filters)
		if err != nil {
			return nil, err
		}
		return func(scope Context, locals value.Value) (value.Value, error) {
			fnVal, err := calleeFn(scope, locals)
			if err != nil {
				return value.Null, err
			}
			args, err := evalArgs(argFns, scope, locals)
			if err != nil {
				return value.Null, err
			}
			return invokeCallable(fnVal, nil, args)
		}, nil
	}
}

func compileMemberCall(member *ast.Node, argFns []evalFunc, filters FilterLookup) (evalFunc, error) {
	objFn, err := compileNode(member.Object, filters)
	if err != nil {
		return nil, err
	}
	keyFn, err := compileKey(member, filters)
	if err != nil {
		return nil, err
	}
	if !member.Computed {
		if err := safety.CheckCallName(member.Property.Name); err != nil {
			return nil, err
		}
	}
	return func(scope Context, locals value.Value) (value.Value, error) {
		obj, err := objFn(scope, locals)
		if err != nil {
			return value.Null, err
		}
		if obj.IsNull() {
			return value.Null, nil
		}
		if err := safety.CheckValue(obj); err != nil {
			return value.Null, err
		}
		key, err := keyFn(scope, locals)
		if err != nil {
			return value.Null, err
		}
		if member.Computed {
			if err := safety.CheckCallName(key); err != nil {
				return value.Null, err
			}
		}
		fnVal, ok := memberGet(obj, key)
		if !ok {
			return value.Null, fmt.Errorf("%w: %s", ErrNotAFunction, key)
		}
		args, err := evalArgs(argFns, scope, locals)
		if err != nil {
			return value.Null, err
		}
		return invokeCallable(fnVal, &obj, args)
	}, nil
}

func compileBareCall(name string, argFns []evalFunc) (evalFunc, error) {
	return func(scope Context, locals value.Value) (value.Value, error) {
		receiver, ok := findReceiver(scope, locals, name)
		if !ok {
			return value.Null, fmt.Errorf("%w: %s", ErrNotAFunction, name)
		}
		fnVal, _ := receiver.Get(name)
		args, err := evalArgs(argFns, scope, locals)
		if err != nil {
			return value.Null, err
		}
		return invokeCallable(fnVal, &receiver, args)
	}, nil
}

// findReceiver resolves the context that owns name for a bare call's
// receiver binding: locals take precedence, then the scope-inheritance
// chain, matching readIdentifier's resolution order.
func findReceiver(scope Context, locals value.Value, name string) (value.Value, bool) {
	if locals.Kind() == value.KindMapping {
		if _, ok := locals.Get(name); ok {
			return locals, true
		}
	}
	cur := scope
	for {
		if _, ok := cur.ScopeValue().Get(name); ok {
			return cur.ScopeValue(), true
		}
		parent, hasParent := cur.ScopeParent()
		if !hasParent {
			return value.Null, false
		}
		cur = parent
	}
}

func evalArgs(fns []evalFunc, scope Context, locals value.Value) ([]value.Value, error) {
	args := make([]value.Value, len(fns))
	for i, fn := range fns {
		v, err := fn(scope, locals)
		if err != nil {
			return nil, err
		}
		if err := safety.CheckValue(v); err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// invokeCallable binds receiver onto the Callable's mutable Receiver
// field (visible to an Fn closure that captures its own *Callable) before
// invoking it, then runs the result through the safety gate.
func invokeCallable(fnVal value.Value, receiver *value.Value, args []value.Value) (value.Value, error) {
	c := fnVal.Callable()
	if c == nil {
		return value.Null, fmt.Errorf("%w", ErrNotAFunction)
	}
	c.Receiver = receiver
	result, err := c.Fn(args)
	if err != nil {
		return value.Null, err
	}
	if err := safety.CheckValue(result); err != nil {
		return value.Null, err
	}
	return result, nil
}

// compileFilterCall compiles `x | name:a:b` into `F(x, a, b)`, F resolved
// against the filter registry at evaluation time.
func compileFilterCall(n *ast.Node, filters FilterLookup) (evalFunc, error) {
	valueFn, err := compileNode(n.Callee, filters)
	if err != nil {
		return nil, err
	}
	argFns := make([]evalFunc, len(n.Arguments))
	for i, a := range n.Arguments {
		fn, err := compileNode(a, filters)
		if err != nil {
			return nil, err
		}
		argFns[i] = fn
	}
	name := n.Filter
	return func(scope Context, locals value.Value) (value.Value, error) {
		v, err := valueFn(scope, locals)
		if err != nil {
			return value.Null, err
		}
		if filters == nil {
			return value.Null, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
		}
		f, ok := filters(name)
		if !ok {
			return value.Null, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
		}
		args := make([]value.Value, 0, len(argFns)+1)
		args = append(args, v)
		for _, fn := range argFns {
			av, err := fn(scope, locals)
			if err != nil {
				return value.Null, err
			}
			args = append(args, av)
		}
		return f.Fn(args)
	}, nil
}
