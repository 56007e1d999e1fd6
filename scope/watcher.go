package scope

import "github.com/pumped-fn/reaxpr/value"

// WatchFunc is the watch half of a watcher, evaluated against a scope
// each digest round.
type WatchFunc func(s *Scope) (value.Value, error)

// ListenerFunc is the listener half of a watcher. Returning an error (or
// panicking) is caught by the digest loop and routed to the error sink;
// it never aborts the digest.
type ListenerFunc func(newVal, oldVal value.Value, s *Scope) error

// watcher pairs a watch function with its listener, comparison mode, and
// last-seen value, plus a removed tombstone: removing a watcher must never
// cause another watcher to be skipped mid-traversal, so destructors only
// mark the slot and compaction waits for the digest loop.
type watcher struct {
	watchFn    WatchFunc
	listenerFn ListenerFunc
	valueEq    bool
	last       value.Value
	removed    bool
}

// Destructor removes a registration.
type Destructor func()

// WatchFunc registers a raw watch/listener pair directly, bypassing
// expression compilation, through the same registration path that
// WatchCollection/WatchGroup use internally; available to host code that
// wants to watch non-expression state.
func (s *Scope) WatchFunc(wf WatchFunc, listener ListenerFunc, valueEq bool) Destructor {
	return s.addWatcher(wf, listener, valueEq)
}

func (s *Scope) addWatcher(wf WatchFunc, listener ListenerFunc, valueEq bool) Destructor {
	w := &watcher{watchFn: wf, listenerFn: listener, valueEq: valueEq, last: value.Sentinel}
	// Prepend: digest traversal iterates in reverse, so appended-during a
	// pass is unreachable in the current pass.
	s.watchers = append([]*watcher{w}, s.watchers...)
	root := s.root
	// defeat the last-dirty short-circuit: a watcher registered from inside
	// a listener must still be visited before this digest settles
	root.lastDirtyWatch = nil
	return func() {
		w.removed = true
		s.needCompact = true
		root.lastDirtyWatch = nil
	}
}

func (s *Scope) compactWatchers() {
	if !s.needCompact {
		return
	}
	out := s.watchers[:0]
	for _, w := range s.watchers {
		if !w.removed {
			out = append(out, w)
		}
	}
	s.watchers = out
	s.needCompact = false
}
