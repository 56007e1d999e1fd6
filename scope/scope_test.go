package scope

import (
	"errors"
	"testing"

	"github.com/pumped-fn/reaxpr/filter"
	"github.com/pumped-fn/reaxpr/internal/sink"
	"github.com/pumped-fn/reaxpr/value"
)

func newTestScope(opts ...Option) *Scope {
	all := append([]Option{WithFilters(filter.NewRegistry())}, opts...)
	return New(all...)
}

func TestWatchFiresOnFirstDigestThenOnChange(t *testing.T) {
	s := newTestScope()
	s.Set("x", value.Number(1))

	var fires []float64
	_, err := s.Watch("x", func(newVal, oldVal value.Value, _ *Scope) error {
		fires = append(fires, newVal.Number())
		return nil
	}, false)
	if err != nil {
		t.Fatalf("Watch error: %v", err)
	}

	if err := s.Digest(); err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	if len(fires) != 1 || fires[0] != 1 {
		t.Fatalf("fires after first digest = %v, want [1]", fires)
	}

	s.Set("x", value.Number(2))
	if err := s.Digest(); err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	if len(fires) != 2 || fires[1] != 2 {
		t.Fatalf("fires after second digest = %v, want [1 2]", fires)
	}

	// No further change: a third digest must not fire again.
	if err := s.Digest(); err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	if len(fires) != 2 {
		t.Fatalf("fires after no-op digest = %v, want unchanged", fires)
	}
}

// TestTTLExhaustionAtEveryRound verifies the fixed-point guard fires a
// DigestError{TTL:true} for mutual watchers that keep perturbing each other
// every round, for TTL values 1 through 10.
func TestTTLExhaustionAtEveryRound(t *testing.T) {
	for ttl := 1; ttl <= 10; ttl++ {
		t.Run("", func(t *testing.T) {
			s := newTestScope(WithTTL(ttl), WithErrorSink(sink.Nop{}))
			s.Set("a", value.Number(0))
			s.Set("b", value.Number(0))

			s.WatchFunc(func(sc *Scope) (value.Value, error) {
				v, _ := sc.Get("a")
				return v, nil
			}, func(newVal, _ value.Value, sc *Scope) error {
				cur, _ := sc.Get("b")
				sc.Set("b", value.Number(cur.Number()+1))
				return nil
			}, false)

			s.WatchFunc(func(sc *Scope) (value.Value, error) {
				v, _ := sc.Get("b")
				return v, nil
			}, func(newVal, _ value.Value, sc *Scope) error {
				cur, _ := sc.Get("a")
				sc.Set("a", value.Number(cur.Number()+1))
				return nil
			}, false)

			err := s.Digest()
			var digestErr *DigestError
			if !errors.As(err, &digestErr) || !digestErr.TTL {
				t.Fatalf("ttl=%d: Digest() = %v, want a TTL DigestError", ttl, err)
			}
		})
	}
}

// TestMutualDirtyingSettles verifies the fixed point is reached when the
// mutual perturbation is bounded: the pair stops dirtying once a reaches n,
// so the digest settles within the default TTL for small n.
func TestMutualDirtyingSettles(t *testing.T) {
	for n := 1; n <= 8; n++ {
		t.Run("", func(t *testing.T) {
			s := newTestScope()
			s.Set("a", value.Number(0))
			s.Set("b", value.Number(0))

			s.WatchFunc(func(sc *Scope) (value.Value, error) {
				v, _ := sc.Get("a")
				return v, nil
			}, func(newVal, _ value.Value, sc *Scope) error {
				if newVal.Number() < float64(n) {
					sc.Set("b", value.Number(newVal.Number()+1))
				}
				return nil
			}, false)

			s.WatchFunc(func(sc *Scope) (value.Value, error) {
				v, _ := sc.Get("b")
				return v, nil
			}, func(newVal, _ value.Value, sc *Scope) error {
				sc.Set("a", newVal)
				return nil
			}, false)

			if err := s.Digest(); err != nil {
				t.Fatalf("n=%d: Digest() = %v, want settled fixed point", n, err)
			}
			a, _ := s.Get("a")
			if a.Number() != float64(n) {
				t.Errorf("n=%d: a settled at %v, want %d", n, a.Number(), n)
			}
		})
	}
}

func TestIsolationBreaksInheritance(t *testing.T) {
	root := newTestScope()
	root.Set("name", value.String("root"))

	nonIsolated := root.New(false)
	isolated := root.New(true)

	v, ok := nonIsolated.Get("name")
	if ok {
		t.Fatalf("Get on own attrs unexpectedly found %v; inheritance is only visible through Eval", v)
	}
	result, err := nonIsolated.Eval("name", value.Null)
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if result.String() != "root" {
		t.Errorf("non-isolated child sees name = %q, want %q", result.String(), "root")
	}

	isolatedResult, err := isolated.Eval("name", value.Null)
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if !isolatedResult.IsNull() {
		t.Errorf("isolated child sees name = %v, want null (inheritance chain broken)", isolatedResult)
	}
}

func TestNewWithParentSplitsInheritanceFromHierarchy(t *testing.T) {
	root := newTestScope()
	donor := root.New(false)
	donor.Set("flavor", value.String("plum"))
	other := root.New(false)

	child := donor.NewWithParent(false, other)

	v, err := child.Eval("flavor", value.Null)
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if v.String() != "plum" {
		t.Errorf("child inherits flavor = %q, want %q (inheritance follows the creating scope)", v.String(), "plum")
	}
	if child.Parent() != other {
		t.Error("expected the hierarchy parent to be the scope passed to NewWithParent")
	}

	var fired bool
	child.Set("y", value.Number(1))
	child.WatchFunc(func(sc *Scope) (value.Value, error) {
		v, _ := sc.Get("y")
		return v, nil
	}, func(_, _ value.Value, _ *Scope) error {
		fired = true
		return nil
	}, false)
	if err := other.Digest(); err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	if !fired {
		t.Error("expected a digest of the hierarchy parent to reach the child's watcher")
	}
}

func TestWatcherRemovalDuringDigestDoesNotSkipOthers(t *testing.T) {
	s := newTestScope()
	s.Set("x", value.Number(1))

	var secondFired bool
	var destroyFirst Destructor
	destroyFirst, _ = s.Watch("x", func(newVal, _ value.Value, _ *Scope) error {
		destroyFirst()
		return nil
	}, false)
	_, _ = s.Watch("x", func(newVal, _ value.Value, _ *Scope) error {
		secondFired = true
		return nil
	}, false)

	if err := s.Digest(); err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	if !secondFired {
		t.Error("expected the second watcher to still fire after the first removed itself mid-digest")
	}
}

func TestWatchCollectionDetectsGrowAndShrink(t *testing.T) {
	s := newTestScope()
	items := value.Sequence([]value.Value{value.Number(1), value.Number(2)})
	s.Set("items", items)

	var fireCount int
	_, err := s.WatchCollection("items", false, func(newVal, _ value.Value, _ *Scope) error {
		fireCount++
		return nil
	})
	if err != nil {
		t.Fatalf("WatchCollection error: %v", err)
	}

	if err := s.Digest(); err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	if fireCount != 1 {
		t.Fatalf("fireCount after first digest = %d, want 1", fireCount)
	}

	cur, _ := s.Get("items")
	cur.Push(value.Number(3))
	if err := s.Digest(); err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	if fireCount != 2 {
		t.Fatalf("fireCount after grow = %d, want 2", fireCount)
	}

	s.Set("items", value.Sequence([]value.Value{value.Number(1)}))
	if err := s.Digest(); err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	if fireCount != 3 {
		t.Fatalf("fireCount after shrink = %d, want 3", fireCount)
	}
}

func TestWatchGroupFirstFiringSharesSlice(t *testing.T) {
	s := newTestScope()
	s.Set("a", value.Number(1))
	s.Set("b", value.Number(2))

	var gotNew, gotOld []value.Value
	var calls int
	_, err := s.WatchGroup([]string{"a", "b"}, func(newVals, oldVals []value.Value, _ *Scope) error {
		calls++
		gotNew, gotOld = newVals, oldVals
		return nil
	})
	if err != nil {
		t.Fatalf("WatchGroup error: %v", err)
	}

	if err := s.Digest(); err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if &gotNew[0] != &gotOld[0] {
		t.Error("expected first firing's newVals and oldVals to be the same underlying array")
	}

	s.Set("a", value.Number(99))
	if err := s.Digest(); err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if &gotNew[0] == &gotOld[0] {
		t.Error("expected a later firing's newVals and oldVals to be distinct arrays")
	}
	if gotOld[0].Number() != 1 {
		t.Errorf("oldVals[0] = %v, want the pre-change value 1", gotOld[0].Number())
	}
}

func TestEventBusEmitBubblesAndBroadcastDescends(t *testing.T) {
	root := newTestScope()
	child := root.New(false)
	grandchild := child.New(false)

	var rootSaw, childSaw, grandchildSaw int
	root.On("ping", func(*Event, ...any) { rootSaw++ })
	child.On("ping", func(*Event, ...any) { childSaw++ })
	grandchild.On("ping", func(*Event, ...any) { grandchildSaw++ })

	grandchild.Emit("ping")
	if rootSaw != 1 || childSaw != 1 || grandchildSaw != 1 {
		t.Errorf("emit bubble counts = root:%d child:%d grandchild:%d, want 1/1/1", rootSaw, childSaw, grandchildSaw)
	}

	rootSaw, childSaw, grandchildSaw = 0, 0, 0
	root.Broadcast("ping")
	if rootSaw != 1 || childSaw != 1 || grandchildSaw != 1 {
		t.Errorf("broadcast descend counts = root:%d child:%d grandchild:%d, want 1/1/1", rootSaw, childSaw, grandchildSaw)
	}
}

func TestEventStopPropagationHaltsEmitNotBroadcast(t *testing.T) {
	root := newTestScope()
	child := root.New(false)

	var rootSaw int
	root.On("x", func(*Event, ...any) { rootSaw++ })
	child.On("x", func(evt *Event, args ...any) { evt.StopPropagation() })

	child.Emit("x")
	if rootSaw != 0 {
		t.Error("expected StopPropagation to prevent the root listener from seeing the emit")
	}

	// On a broadcast, the child's StopPropagation call must not keep the
	// event from descending to the grandchild.
	grandchild := child.New(false)
	var grandchildSaw int
	grandchild.On("x", func(*Event, ...any) { grandchildSaw++ })
	child.Broadcast("x")
	if grandchildSaw != 1 {
		t.Errorf("grandchild saw the broadcast %d times, want 1 (StopPropagation has no effect on broadcast)", grandchildSaw)
	}
}

func TestApplyAsyncCoalescesMultipleCalls(t *testing.T) {
	s := newTestScope()
	var runs int
	s.ApplyAsync(func(*Scope) error { runs++; return nil })
	s.ApplyAsync(func(*Scope) error { runs++; return nil })

	if err := s.Digest(); err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	if runs != 2 {
		t.Fatalf("runs = %d, want 2 (both queued tasks flushed, not deduplicated)", runs)
	}
}

func TestPostDigestRunsAfterDigestSettles(t *testing.T) {
	s := newTestScope()
	var order []string
	s.Set("x", value.Number(1))
	_, _ = s.Watch("x", func(value.Value, value.Value, *Scope) error {
		order = append(order, "watch")
		return nil
	}, false)
	s.PostDigest(func() { order = append(order, "post") })

	if err := s.Digest(); err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	if len(order) != 2 || order[0] != "watch" || order[1] != "post" {
		t.Fatalf("order = %v, want [watch post]", order)
	}
}
