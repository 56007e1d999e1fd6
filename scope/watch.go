package scope

import (
	"github.com/pumped-fn/reaxpr/compiler"
	"github.com/pumped-fn/reaxpr/value"
)

// Watch is the single entry point for compiling and registering an
// expression watcher. valueEq selects structural equality over the
// default reference equality.
func (s *Scope) Watch(source string, listener ListenerFunc, valueEq bool) (Destructor, error) {
	compiled, err := compiler.Compile(source, s.root.filters, s.root.stateful)
	if err != nil {
		return nil, err
	}
	return s.WatchCompiled(compiled, listener, valueEq), nil
}

// WatchCompiled registers a watcher from an already-compiled expression,
// delegating registration strategy to the compiled expression's watch
// delegate when present.
func (s *Scope) WatchCompiled(compiled *compiler.CompiledExpr, listener ListenerFunc, valueEq bool) Destructor {
	switch compiled.Delegate() {
	case compiler.DelegateConstant:
		return s.registerConstant(compiled, listener, valueEq)
	case compiler.DelegateOneTime:
		return s.registerOneTime(compiled, listener, valueEq, false)
	case compiler.DelegateOneTimeLiteral:
		return s.registerOneTime(compiled, listener, valueEq, true)
	case compiler.DelegateInputs:
		return s.registerInputs(compiled, listener, valueEq)
	default:
		wf := func(sc *Scope) (value.Value, error) { return compiled.Eval(sc, value.Null) }
		return s.addWatcher(wf, listener, valueEq)
	}
}

// registerConstant implements the constant delegate: a normal
// watcher that removes itself after its first fire.
func (s *Scope) registerConstant(compiled *compiler.CompiledExpr, listener ListenerFunc, valueEq bool) Destructor {
	var destroy Destructor
	wf := func(sc *Scope) (value.Value, error) { return compiled.Eval(sc, value.Null) }
	wrapped := func(newVal, oldVal value.Value, sc *Scope) error {
		var err error
		if listener != nil {
			err = listener(newVal, oldVal, sc)
		}
		if destroy != nil {
			destroy()
		}
		return err
	}
	destroy = s.addWatcher(wf, wrapped, valueEq)
	return destroy
}

// registerOneTime implements the one-time and one-time-literal delegates:
// the watcher behaves normally until its value becomes "defined" (or, for
// the literal variant, until every element/property of it is), then
// schedules a post-digest recheck that removes it if still defined. The
// recheck is intentional, not redundant: it handles values that arrive or
// vanish between the fire and the end of the digest.
func (s *Scope) registerOneTime(compiled *compiler.CompiledExpr, listener ListenerFunc, valueEq bool, literal bool) Destructor {
	defFn := isDefined
	if literal {
		defFn = allDefined
	}
	var destroy Destructor
	wf := func(sc *Scope) (value.Value, error) { return compiled.Eval(sc, value.Null) }
	wrapped := func(newVal, oldVal value.Value, sc *Scope) error {
		var err error
		if listener != nil {
			err = listener(newVal, oldVal, sc)
		}
		if defFn(newVal) {
			sc.PostDigest(func() {
				v, evalErr := compiled.Eval(sc, value.Null)
				if evalErr == nil && defFn(v) && destroy != nil {
					destroy()
				}
			})
		}
		return err
	}
	destroy = s.addWatcher(wf, wrapped, valueEq)
	return destroy
}

// registerInputs implements the inputs delegate: the watchFn first
// evaluates each input; if none changed (NaN=NaN counted as unchanged),
// the cached last result is returned without re-running the full
// expression.
func (s *Scope) registerInputs(compiled *compiler.CompiledExpr, listener ListenerFunc, valueEq bool) Destructor {
	inputs := compiled.Inputs
	last := make([]value.Value, len(inputs))
	for i := range last {
		last[i] = value.Sentinel
	}
	cached := value.Sentinel
	wf := func(sc *Scope) (value.Value, error) {
		cur := make([]value.Value, len(inputs))
		changed := value.IsSentinel(cached)
		for i, in := range inputs {
			v, err := in.Eval(sc, value.Null)
			if err != nil {
				return value.Null, err
			}
			cur[i] = v
			if !value.RefEqual(v, last[i]) {
				changed = true
			}
		}
		if !changed {
			return cached, nil
		}
		copy(last, cur)
		v, err := compiled.Eval(sc, value.Null)
		if err != nil {
			return value.Null, err
		}
		cached = v
		return v, nil
	}
	return s.addWatcher(wf, listener, valueEq)
}

func isDefined(v value.Value) bool { return !v.IsNull() }

// allDefined reports whether v, and recursively every element/property it
// holds, is defined.
func allDefined(v value.Value) bool {
	if v.IsNull() {
		return false
	}
	switch v.Kind() {
	case value.KindSequence:
		for _, e := range v.Elements() {
			if !allDefined(e) {
				return false
			}
		}
	case value.KindMapping:
		for _, k := range v.Keys() {
			e, _ := v.Get(k)
			if !allDefined(e) {
				return false
			}
		}
	}
	return true
}
