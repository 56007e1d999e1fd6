package scope

import (
	"github.com/pumped-fn/reaxpr/internal/sink"
	"github.com/pumped-fn/reaxpr/value"
)

// ttlWarner is implemented by sinks that want the digest loop's
// approaching-TTL warning; *sink.Slog implements it.
type ttlWarner interface {
	WarnTTL(scope string, round, ttl int)
}

// Digest runs the fixed-point dirty-check loop over s's subtree.
// Root-only state (phase, the async queues, the TTL guard, lastDirtyWatch)
// is tracked on s.Root() regardless of which scope Digest is called on, so
// a digest started from any scope while another digest or apply is active
// in the same tree is rejected by the reentrancy guard.
func (s *Scope) Digest() error {
	root := s.root
	if root.phase != PhaseNone {
		return &DigestError{Reentrant: true, Phase: root.phase}
	}
	root.phase = PhaseDigest
	root.lastDirtyWatch = nil
	defer func() { root.phase = PhaseNone }()

	if root.applyAsyncPending {
		root.applyAsyncPending = false
		root.flushApplyAsyncQueue()
	}

	ttl := root.ttl
	if ttl <= 0 {
		ttl = defaultTTL
	}
	budget := ttl

	var dirty bool
	for {
		for len(root.asyncQueue) > 0 {
			task := root.asyncQueue[0]
			root.asyncQueue = root.asyncQueue[1:]
			task.scope.safeCall("asyncQueue", func() error { return task.fn(task.scope) })
		}

		dirty = s.digestOnce(root)
		budget--

		if warner, ok := root.sinkImpl.(ttlWarner); ok && budget <= 2 && budget > 0 {
			warner.WarnTTL(s.id.String(), ttl-budget, ttl)
		}

		if (dirty || len(root.asyncQueue) > 0) && budget == 0 {
			return &DigestError{TTL: true}
		}
		if !dirty && len(root.asyncQueue) == 0 {
			break
		}
	}

	pending := root.postDigestQueue
	root.postDigestQueue = nil
	for _, fn := range pending {
		capturedFn := fn
		root.safeCall("postDigest", func() error { capturedFn(); return nil })
	}
	return nil
}

// digestOnce performs one pre-order walk of s's subtree, evaluating every
// watcher in reverse registration order at each scope. The traversal uses
// an explicit stack rather than recursion so the last-dirty short-circuit
// can abort the entire walk (not just the current scope) by breaking out
// of the outer loop.
func (s *Scope) digestOnce(root *Scope) bool {
	dirty := false
	stack := []*Scope{s}

outer:
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i := len(cur.children) - 1; i >= 0; i-- {
			stack = append(stack, cur.children[i])
		}

		ws := cur.watchers
		for i := len(ws) - 1; i >= 0; i-- {
			w := ws[i]
			if w.removed {
				continue
			}
			newVal, err := w.watchFn(cur)
			if err != nil {
				cur.reportError(err, "watchFn")
				continue
			}

			var changed bool
			if value.IsSentinel(w.last) {
				changed = true
			} else if w.valueEq {
				changed = !value.StructuralEqual(newVal, w.last)
			} else {
				changed = !value.RefEqual(newVal, w.last)
			}

			if changed {
				root.lastDirtyWatch = w
				oldVal := newVal
				if !value.IsSentinel(w.last) {
					oldVal = w.last
				}
				if w.listenerFn != nil {
					capturedListener, capturedNew, capturedOld, capturedScope := w.listenerFn, newVal, oldVal, cur
					cur.safeCall("listenerFn", func() error {
						return capturedListener(capturedNew, capturedOld, capturedScope)
					})
				}
				if w.valueEq {
					w.last = value.DeepClone(newVal)
				} else {
					w.last = newVal
				}
				dirty = true
			} else if w == root.lastDirtyWatch {
				break outer
			}
		}
		cur.compactWatchers()
	}
	return dirty
}

// Apply runs fn in phase "apply", then digests from the root, never from
// a subtree.
func (s *Scope) Apply(fn func(*Scope) (value.Value, error)) (value.Value, error) {
	root := s.root
	if root.phase != PhaseNone {
		return value.Null, &DigestError{Reentrant: true, Phase: root.phase}
	}
	root.phase = PhaseApply
	var result value.Value
	var err error
	func() {
		defer func() {
			root.phase = PhaseNone
			if r := recover(); r != nil {
				err = &PanicError{Value: r}
			}
		}()
		result, err = fn(s)
	}()

	if digestErr := root.Digest(); digestErr != nil && err == nil {
		err = digestErr
	}
	return result, err
}

// ApplyEval is a convenience wrapper over Apply that evaluates an
// expression string in phase "apply".
func (s *Scope) ApplyEval(source string) (value.Value, error) {
	return s.Apply(func(sc *Scope) (value.Value, error) { return sc.Eval(source, value.Null) })
}

// EvalAsync appends fn to the shared async queue. If no digest is
// currently in progress and the queue was empty, a digest is scheduled
// via the root's Scheduler, the host's nearest-deferred-task mechanism.
func (s *Scope) EvalAsync(fn func(*Scope) error) {
	root := s.root
	wasEmpty := len(root.asyncQueue) == 0
	root.asyncQueue = append(root.asyncQueue, asyncTask{scope: s, fn: fn})
	if root.phase == PhaseNone && wasEmpty {
		root.scheduler(func() { _ = root.Digest() })
	}
}

// EvalAsyncExpr queues an expression string for evaluation by the next
// digest.
func (s *Scope) EvalAsyncExpr(source string) {
	s.EvalAsync(func(sc *Scope) error {
		_, err := sc.Eval(source, value.Null)
		return err
	})
}

// ApplyAsync coalesces fn onto the shared apply-async queue, scheduling
// a single flush through Apply if one is not already pending. Tasks
// queued this way never run in the digest that scheduled them: a digest
// that runs before the scheduled flush fires drains the queue up-front
// instead.
func (s *Scope) ApplyAsync(fn func(*Scope) error) {
	root := s.root
	root.applyAsyncQueue = append(root.applyAsyncQueue, applyAsyncTask{scope: s, fn: fn})
	if !root.applyAsyncPending {
		root.applyAsyncPending = true
		root.scheduler(func() {
			if !root.applyAsyncPending {
				return
			}
			root.applyAsyncPending = false
			_, _ = root.Apply(func(*Scope) (value.Value, error) {
				root.flushApplyAsyncQueue()
				return value.Null, nil
			})
		})
	}
}

// ApplyAsyncExpr queues an expression string onto the coalesced
// apply-async flush.
func (s *Scope) ApplyAsyncExpr(source string) {
	s.ApplyAsync(func(sc *Scope) error {
		_, err := sc.Eval(source, value.Null)
		return err
	})
}

func (root *Scope) flushApplyAsyncQueue() {
	pending := root.applyAsyncQueue
	root.applyAsyncQueue = nil
	for _, task := range pending {
		capturedTask := task
		capturedTask.scope.safeCall("applyAsync", func() error { return capturedTask.fn(capturedTask.scope) })
	}
}

// PostDigest enqueues fn to run once the current (or next) digest loop
// terminates, in FIFO order.
func (s *Scope) PostDigest(fn func()) {
	s.root.postDigestQueue = append(s.root.postDigestQueue, fn)
}

func (s *Scope) reportError(err error, label string) {
	s.root.sinkImpl.OnError(err, sink.Context{
		Scope:   s.id.String(),
		Phase:   string(s.root.phase),
		Watcher: label,
	})
}

// safeCall runs fn, catching both a returned error and a panic (a
// runtime evaluation fault), and routes either to the error sink without
// aborting the digest.
func (s *Scope) safeCall(label string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.reportError(&PanicError{Value: r}, label)
		}
	}()
	if err := fn(); err != nil {
		s.reportError(err, label)
	}
}
