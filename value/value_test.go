package value

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRefEqualNaN(t *testing.T) {
	nan := Number(nanValue())
	if !RefEqual(nan, nan) {
		t.Error("RefEqual(NaN, NaN) = false, want true")
	}
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestRefEqualCompositeIdentity(t *testing.T) {
	m := NewMapping()
	m2 := m
	if !RefEqual(m, m2) {
		t.Error("expected same mapping to be ref-equal to itself")
	}
	other := NewMapping()
	if RefEqual(m, other) {
		t.Error("expected two distinct empty mappings to NOT be ref-equal")
	}
}

func TestStructuralEqualDeepComparesMappings(t *testing.T) {
	a := NewMapping().With("x", Number(1)).With("y", Sequence([]Value{Number(2), Number(3)}))
	b := NewMapping().With("x", Number(1)).With("y", Sequence([]Value{Number(2), Number(3)}))
	if !StructuralEqual(a, b) {
		t.Error("expected structurally identical mappings to be equal")
	}
	c := b.With("y", Sequence([]Value{Number(2), Number(4)}))
	if StructuralEqual(a, c) {
		t.Error("expected mappings with a differing nested element to be unequal")
	}
}

func TestDeepCloneIsIndependent(t *testing.T) {
	orig := NewMapping().With("items", Sequence([]Value{Number(1)}))
	clone := DeepClone(orig)
	items, _ := orig.Get("items")
	items.Push(Number(2))

	clonedItems, _ := clone.Get("items")
	if clonedItems.Len() != 1 {
		t.Errorf("clone mutated by original's Push: len = %d, want 1", clonedItems.Len())
	}
}

func TestSentinelDistinctFromEveryLegalValue(t *testing.T) {
	for _, v := range []Value{Null, Bool(false), Number(0), String(""), Sequence(nil), NewMapping()} {
		if IsSentinel(v) {
			t.Errorf("IsSentinel(%v) = true, want false", v)
		}
	}
	if !IsSentinel(Sentinel) {
		t.Error("IsSentinel(Sentinel) = false, want true")
	}
}

func TestKeysPreservesInsertionOrder(t *testing.T) {
	m := NewMapping()
	m.Set("z", Number(1))
	m.Set("a", Number(2))
	m.Set("m", Number(3))

	want := []string{"z", "a", "m"}
	if diff := cmp.Diff(want, m.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}

func TestWithMutatesSameMappingIdentity(t *testing.T) {
	base := NewMapping().With("a", Number(1))
	extended := base.With("b", Number(2))
	// With mutates the same underlying mapping and returns it, unlike a
	// copy-on-write design.
	if _, ok := base.Get("b"); !ok {
		t.Error("expected With to mutate the shared mapping identity")
	}
	if !RefEqual(base, extended) {
		t.Error("expected base and extended to be the same mapping identity")
	}
}
