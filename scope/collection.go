package scope

import (
	"github.com/pumped-fn/reaxpr/compiler"
	"github.com/pumped-fn/reaxpr/value"
)

// CollectionListener receives (newValue, veryOldValue, scope); veryOldValue
// is a shallow clone taken only when needsOld is true.
type CollectionListener func(newVal, veryOld value.Value, s *Scope) error

// WatchCollection registers a shallow dirty-check watcher over a sequence
// or mapping: growing/shrinking a parallel tracking sequence for
// array-like values, or diffing own keys against a tracking mapping for a
// plain mapping, otherwise falling back to reference equality. needsOld
// tells the watcher whether to pay for a shallow clone of the previous
// value (most listeners only look at newVal).
func (s *Scope) WatchCollection(source string, needsOld bool, listener CollectionListener) (Destructor, error) {
	compiled, err := compiler.Compile(source, s.root.filters, s.root.stateful)
	if err != nil {
		return nil, err
	}

	var counter float64
	tracking := value.Null
	first := true

	wf := func(sc *Scope) (value.Value, error) {
		v, err := compiled.Eval(sc, value.Null)
		if err != nil {
			return value.Null, err
		}

		changed := first
		switch {
		case v.IsArrayLike():
			elems := v.Elements()
			if tracking.Kind() != value.KindSequence {
				tracking = value.Sequence(make([]value.Value, 0, len(elems)))
				changed = true
			}
			trackedElems := tracking.Elements()
			if len(trackedElems) != len(elems) {
				changed = true
			}
			for i, e := range elems {
				if i >= len(trackedElems) {
					tracking.Push(e)
					changed = true
					continue
				}
				if !value.RefEqual(e, trackedElems[i]) {
					tracking.SetIndex(i, e)
					changed = true
				}
			}
			if len(tracking.Elements()) > len(elems) {
				tracking = value.Sequence(tracking.Elements()[:len(elems)])
				changed = true
			}

		case v.Kind() == value.KindMapping:
			if tracking.Kind() != value.KindMapping {
				tracking = value.NewMapping()
				changed = true
			}
			newLen := v.Len()
			for _, k := range v.Keys() {
				cur, _ := v.Get(k)
				if old, ok := tracking.Get(k); !ok || !value.RefEqual(old, cur) {
					tracking.Set(k, cur)
					changed = true
				}
			}
			// tracking now holds every current key; if it holds more, some
			// tracked key is gone from v.
			if tracking.Len() > newLen {
				for _, k := range tracking.Keys() {
					if _, ok := v.Get(k); !ok {
						tracking.Delete(k)
						changed = true
					}
				}
			}

		default:
			if !value.RefEqual(v, tracking) {
				tracking = v
				changed = true
			}
		}

		first = false
		if changed {
			counter++
		}
		return value.Number(counter), nil
	}

	var lastReported value.Value = value.Sentinel
	wrapped := func(_, _ value.Value, sc *Scope) error {
		current, err := compiled.Eval(sc, value.Null)
		if err != nil {
			return err
		}
		veryOld := current
		if needsOld && !value.IsSentinel(lastReported) {
			veryOld = lastReported
		}
		if listener != nil {
			if err := listener(current, veryOld, sc); err != nil {
				return err
			}
		}
		if needsOld {
			switch current.Kind() {
			case value.KindSequence:
				lastReported = value.Sequence(current.Elements())
			case value.KindMapping:
				cp := value.NewMapping()
				for _, k := range current.Keys() {
					e, _ := current.Get(k)
					cp.Set(k, e)
				}
				lastReported = cp
			default:
				lastReported = current
			}
		}
		return nil
	}

	return s.addWatcher(wf, wrapped, false), nil
}
