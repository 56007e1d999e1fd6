package scope

import (
	"github.com/pumped-fn/reaxpr/compiler"
	"github.com/pumped-fn/reaxpr/value"
)

// GroupListener receives (newValues, oldValues, scope); on the first
// firing both arguments are the same sequence.
type GroupListener func(newVals, oldVals []value.Value, s *Scope) error

// WatchGroup watches an ordered list of expressions and fires listener
// once per digest with parallel newValues/oldValues arrays. An
// empty list still fires the listener once, scheduled through the async
// queue; the returned destructor cancels that firing only if it runs
// before the queued task does. When WatchGroup is called outside a digest
// with the default synchronous Scheduler, the digest runs inside this
// call, so the listener has already fired by the time WatchGroup returns.
func (s *Scope) WatchGroup(sources []string, listener GroupListener) (Destructor, error) {
	if len(sources) == 0 {
		var cancelled bool
		destroy := func() { cancelled = true }
		s.EvalAsync(func(sc *Scope) error {
			if cancelled || listener == nil {
				return nil
			}
			return listener(nil, nil, sc)
		})
		return destroy, nil
	}

	compiled := make([]*compiler.CompiledExpr, len(sources))
	for i, src := range sources {
		c, err := compiler.Compile(src, s.root.filters, s.root.stateful)
		if err != nil {
			return nil, err
		}
		compiled[i] = c
	}

	vals := make([]value.Value, len(sources))
	destructors := make([]Destructor, len(sources))
	changedCount := 0

	// prevReported is nil before the first firing; on the first firing the
	// new and old arrays are the SAME slice, so prevReported is set
	// to that very slice afterward rather than a copy.
	var prevReported []value.Value

	fire := func(sc *Scope) {
		if listener == nil {
			return
		}
		cur := make([]value.Value, len(vals))
		copy(cur, vals)

		oldArg := prevReported
		if oldArg == nil {
			oldArg = cur
		}
		sc.safeCall("watchGroupListener", func() error { return listener(cur, oldArg, sc) })
		prevReported = cur
	}

	for i := range compiled {
		idx := i
		wf := func(sc *Scope) (value.Value, error) { return compiled[idx].Eval(sc, value.Null) }
		listenerFn := func(newVal, _ value.Value, sc *Scope) error {
			vals[idx] = newVal
			changedCount++
			return nil
		}
		destructors[idx] = s.addWatcher(wf, listenerFn, false)
	}

	// A single coordinating watcher fires once per digest whenever any
	// member changed, by comparing a change-count snapshot each round.
	var lastCount int = -1
	coordinatorWf := func(sc *Scope) (value.Value, error) {
		return value.Number(float64(changedCount)), nil
	}
	coordinatorListener := func(_, _ value.Value, sc *Scope) error {
		if changedCount == lastCount {
			return nil
		}
		lastCount = changedCount
		fire(sc)
		return nil
	}
	coordinatorDestroy := s.addWatcher(coordinatorWf, coordinatorListener, false)

	return func() {
		for _, d := range destructors {
			d()
		}
		coordinatorDestroy()
	}, nil
}
