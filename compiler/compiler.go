// Package compiler emits AST-walking closures over an analysed expression
// tree: a chain of closures built innermost first, with no runtime code
// synthesis.
package compiler

import (
	"fmt"
	"math"

	"github.com/pumped-fn/reaxpr/ast"
	"github.com/pumped-fn/reaxpr/safety"
	"github.com/pumped-fn/reaxpr/value"
)

// FilterLookup resolves a named filter against the registry at evaluation
// time; filters are never values in the scope.
type FilterLookup func(name string) (*value.Callable, bool)

// Delegate names the watch-registration strategy a compiled expression carries,
// consulted by the scope package when registering a watcher.
type Delegate uint8

const (
	DelegateNone Delegate = iota
	DelegateConstant
	DelegateOneTime
	DelegateOneTimeLiteral
	DelegateInputs
)

// CompiledExpr is the result of Compile: an evaluator closure plus the
// metadata the scope package needs to pick a watch delegate.
type CompiledExpr struct {
	Source  string
	OneTime bool

	eval   evalFunc
	assign writeFunc // nil when the program is not a single assignable statement

	class ast.Classification

	// Inputs holds one compiled evaluator per toWatch node when the
	// program qualifies for the inputs delegate.
	Inputs []*CompiledExpr
}

// Eval runs the compiled expression against scope and optional locals.
func (c *CompiledExpr) Eval(scope Context, locals value.Value) (value.Value, error) {
	return c.eval(scope, locals)
}

// Assignable reports whether Assign can be called.
func (c *CompiledExpr) Assignable() bool { return c.assign != nil }

// Assign stores val into the compiled expression's single assignable
// target, creating intermediate mappings lazily.
func (c *CompiledExpr) Assign(scope Context, locals, val value.Value) (value.Value, error) {
	if c.assign == nil {
		return value.Null, ErrNotAssignable
	}
	return c.assign(scope, locals, val)
}

// Literal reports whether the program is a literal: an empty body, or a
// single literal/array/object statement.
func (c *CompiledExpr) Literal() bool { return c.class.Literal }

// Constant reports whether the whole program folds to a constant.
func (c *CompiledExpr) Constant() bool { return c.class.Constant }

// Delegate computes the watch delegate from the classification and the
// leading-`::` flag: constant first, then one-time (literal or not), then
// inputs.
func (c *CompiledExpr) Delegate() Delegate {
	switch {
	case c.class.Constant:
		return DelegateConstant
	case c.OneTime:
		if c.class.Literal {
			return DelegateOneTimeLiteral
		}
		return DelegateOneTime
	case len(c.Inputs) > 0:
		return DelegateInputs
	default:
		return DelegateNone
	}
}

// Compile parses, analyses, and compiles source into a CompiledExpr.
// stateful reports whether a named filter is non-pure, for the analysis
// pass's constant-folding decision; it may be nil.
func Compile(source string, filters FilterLookup, stateful ast.StatefulFilter) (*CompiledExpr, error) {
	prog, oneTime, err := ast.Parse(source)
	if err != nil {
		return nil, err
	}
	ast.Analyze(prog, stateful)
	class := ast.Classify(prog)

	evalFn, err := compileProgram(prog, filters)
	if err != nil {
		return nil, err
	}

	ce := &CompiledExpr{Source: source, OneTime: oneTime, eval: evalFn, class: class}

	if len(prog.Body) == 1 && prog.Body[0].IsAssignable() {
		assignFn, err := compileWrite(prog.Body[0], filters)
		if err != nil {
			return nil, err
		}
		ce.assign = assignFn
	}

	if len(class.Inputs) > 0 {
		ce.Inputs = make([]*CompiledExpr, len(class.Inputs))
		for i, n := range class.Inputs {
			fn, err := compileNode(n, filters)
			if err != nil {
				return nil, err
			}
			ce.Inputs[i] = &CompiledExpr{Source: source, eval: fn}
		}
	}

	return ce, nil
}

func compileProgram(prog *ast.Node, filters FilterLookup) (evalFunc, error) {
	fns := make([]evalFunc, len(prog.Body))
	for i, stmt := range prog.Body {
		fn, err := compileNode(stmt, filters)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}
	return func(scope Context, locals value.Value) (value.Value, error) {
		result := value.Null
		for _, fn := range fns {
			v, err := fn(scope, locals)
			if err != nil {
				return value.Null, err
			}
			result = v
		}
		return result, nil
	}, nil
}

func compileNode(n *ast.Node, filters FilterLookup) (evalFunc, error) {
	switch n.Kind {
	case ast.Literal:
		v := n.Value
		return func(Context, value.Value) (value.Value, error) { return v, nil }, nil

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
			v, _ := readIdentifier(scope, locals, name)
			return v, nil
		}, nil

	case ast.Array:
		elemFns := make([]evalFunc, len(n.Elements))
		for i, e := range n.Elements {
			fn, err := compileNode(e, filters)
			if err != nil {
				return nil, err
			}
			elemFns[i] = fn
		}
		return func(scope Context, locals value.Value) (value.Value, error) {
			elems := make([]value.Value, len(elemFns))
			for i, fn := range elemFns {
				v, err := fn(scope, locals)
				if err != nil {
					return value.Null, err
				}
				elems[i] = v
			}
			return value.Sequence(elems), nil
		}, nil

	case ast.Object:
		type compiledProp struct {
			keyFn keyFunc
			valFn evalFunc
		}
		props := make([]compiledProp, len(n.Properties))
		for i, p := range n.Properties {
			var kf keyFunc
			if p.Key.Kind == ast.Literal {
				name := p.Key.Value.String()
				kf = func(Context, value.Value) (string, error) { return name, nil }
			} else {
				fn, err := compileNode(p.Key, filters)
				if err != nil {
					return nil, err
				}
				kf = func(scope Context, locals value.Value) (string, error) {
					v, err := fn(scope, locals)
					if err != nil {
						return "", err
					}
					return v.String(), nil
				}
			}
			vf, err := compileNode(p.Value, filters)
			if err != nil {
				return nil, err
			}
			props[i] = compiledProp{keyFn: kf, valFn: vf}
		}
		return func(scope Context, locals value.Value) (value.Value, error) {
			m := value.NewMapping()
			for _, p := range props {
				key, err := p.keyFn(scope, locals)
				if err != nil {
					return value.Null, err
				}
				val, err := p.valFn(scope, locals)
				if err != nil {
					return value.Null, err
				}
				m.Set(key, val)
			}
			return m, nil
		}, nil

	case ast.Member:
		objFn, err := compileNode(n.Object, filters)
		if err != nil {
			return nil, err
		}
		keyFn, err := compileKey(n, filters)
		if err != nil {
			return nil, err
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
			v, ok := memberGet(obj, key)
			if !ok {
				return value.Null, nil
			}
			return v, nil
		}, nil

	case ast.Call:
		return compileCall(n, filters)

	case ast.Assignment:
		if !n.Left.IsAssignable() {
			return nil, fmt.Errorf("%w", ErrNotAssignable)
		}
		writeFn, err := compileWrite(n.Left, filters)
		if err != nil {
			return nil, err
		}
		rightFn, err := compileNode(n.Right, filters)
		if err != nil {
			return nil, err
		}
		return func(scope Context, locals value.Value) (value.Value, error) {
			v, err := rightFn(scope, locals)
			if err != nil {
				return value.Null, err
			}
			return writeFn(scope, locals, v)
		}, nil

	case ast.Unary:
		argFn, err := compileNode(n.Argument, filters)
		if err != nil {
			return nil, err
		}
		switch n.Operator {
		case "!":
			return func(scope Context, locals value.Value) (value.Value, error) {
				v, err := argFn(scope, locals)
				if err != nil {
					return value.Null, err
				}
				return value.Bool(!v.Bool()), nil
			}, nil
		case "+":
			return func(scope Context, locals value.Value) (value.Value, error) {
				v, err := argFn(scope, locals)
				if err != nil {
					return value.Null, err
				}
				return evalUnaryPlus(v), nil
			}, nil
		case "-":
			return func(scope Context, locals value.Value) (value.Value, error) {
				v, err := argFn(scope, locals)
				if err != nil {
					return value.Null, err
				}
				return evalUnaryMinus(v), nil
			}, nil
		default:
			return nil, fmt.Errorf("compiler: unknown unary operator %q", n.Operator)
		}

	case ast.Binary:
		return compileBinary(n, filters)

	case ast.Logical:
		leftFn, err := compileNode(n.L, filters)
		if err != nil {
			return nil, err
		}
		rightFn, err := compileNode(n.R, filters)
		if err != nil {
			return nil, err
		}
		if n.Operator == "&&" {
			return func(scope Context, locals value.Value) (value.Value, error) {
				l, err := leftFn(scope, locals)
				if err != nil {
					return value.Null, err
				}
				if !l.Bool() {
					return l, nil
				}
				return rightFn(scope, locals)
			}, nil
		}
		return func(scope Context, locals value.Value) (value.Value, error) {
			l, err := leftFn(scope, locals)
			if err != nil {
				return value.Null, err
			}
			if l.Bool() {
				return l, nil
			}
			return rightFn(scope, locals)
		}, nil

	case ast.Conditional:
		testFn, err := compileNode(n.Test, filters)
		if err != nil {
			return nil, err
		}
		consFn, err := compileNode(n.Consequent, filters)
		if err != nil {
			return nil, err
		}
		altFn, err := compileNode(n.Alternate, filters)
		if err != nil {
			return nil, err
		}
		return func(scope Context, locals value.Value) (value.Value, error) {
			t, err := testFn(scope, locals)
			if err != nil {
				return value.Null, err
			}
			if t.Bool() {
				return consFn(scope, locals)
			}
			return altFn(scope, locals)
		}, nil

	default:
		return nil, fmt.Errorf("compiler: unsupported node kind %v", n.Kind)
	}
}

func compileBinary(n *ast.Node, filters FilterLookup) (evalFunc, error) {
	leftFn, err := compileNode(n.L, filters)
	if err != nil {
		return nil, err
	}
	rightFn, err := compileNode(n.R, filters)
	if err != nil {
		return nil, err
	}
	combine, err := binaryOp(n.Operator)
	if err != nil {
		return nil, err
	}
	return func(scope Context, locals value.Value) (value.Value, error) {
		l, err := leftFn(scope, locals)
		if err != nil {
			return value.Null, err
		}
		r, err := rightFn(scope, locals)
		if err != nil {
			return value.Null, err
		}
		return combine(l, r), nil
	}, nil
}

func binaryOp(op string) (func(l, r value.Value) value.Value, error) {
	switch op {
	case "+":
		return evalAdd, nil
	case "-":
		return evalSub, nil
	case "*":
		return func(l, r value.Value) value.Value { return value.Number(toNumber(l) * toNumber(r)) }, nil
	case "/":
		return func(l, r value.Value) value.Value { return value.Number(toNumber(l) / toNumber(r)) }, nil
	case "%":
		return func(l, r value.Value) value.Value {
			return value.Number(math.Mod(toNumber(l), toNumber(r)))
		}, nil
	case "<":
		return compareOp(func(a, b float64) bool { return a < b }, func(a, b string) bool { return a < b }), nil
	case ">":
		return compareOp(func(a, b float64) bool { return a > b }, func(a, b string) bool { return a > b }), nil
	case "<=":
		return compareOp(func(a, b float64) bool { return a <= b }, func(a, b string) bool { return a <= b }), nil
	case ">=":
		return compareOp(func(a, b float64) bool { return a >= b }, func(a, b string) bool { return a >= b }), nil
	case "==":
		return func(l, r value.Value) value.Value { return value.Bool(looseEq(l, r)) }, nil
	case "!=":
		return func(l, r value.Value) value.Value { return value.Bool(!looseEq(l, r)) }, nil
	case "===":
		return func(l, r value.Value) value.Value { return value.Bool(strictEq(l, r)) }, nil
	case "!==":
		return func(l, r value.Value) value.Value { return value.Bool(!strictEq(l, r)) }, nil
	default:
		return nil, fmt.Errorf("compiler: unknown binary operator %q", op)
	}
}

func compareOp(numOp func(a, b float64) bool, strOp func(a, b string) bool) func(l, r value.Value) value.Value {
	return func(l, r value.Value) value.Value {
		if l.Kind() == value.KindString && r.Kind() == value.KindString {
			return value.Bool(strOp(l.String(), r.String()))
		}
		return value.Bool(numOp(toNumber(l), toNumber(r)))
	}
}

