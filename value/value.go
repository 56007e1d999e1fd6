// Package value defines the dynamic tagged value union that expressions
// evaluate to, and every mutable scope context holds.
package value

import (
	"fmt"
	"math"
	"sort"
)

// Kind tags which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
	KindCallable
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindCallable:
		return "callable"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Callable is a host or expression-level function. Receiver is the bound
// "this" for member calls, nil for bare calls.
type Callable struct {
	Name     string
	Receiver *Value
	Fn       func(args []Value) (Value, error)

	// Constructor, when set, is the value this callable reports as its own
	// constructor. A callable whose Constructor resolves back to itself is
	// the "function constructor" the safety gate must refuse.
	Constructor *Value
}

// mapObj is the mutable backing store for a mapping value. Mapping values
// hold a pointer to one so that scope contexts, nested-mapping
// auto-vivification and self-referential structures all work
// as expected: writes through one Value are visible through
// any other Value sharing the same mapObj.
type mapObj struct {
	keys []string
	m    map[string]Value
}

// seqObj is the mutable backing store for a sequence value, mirroring
// mapObj for the same reason: WatchCollection and in-place array mutation
// need a stable identity to compare against.
type seqObj struct {
	elems []Value
}

// Value is the dynamic tagged union every expression produces and every
// scope slot holds.
type Value struct {
	kind     Kind
	b        bool
	n        float64
	s        string
	seq      *seqObj
	mapping  *mapObj
	callable *Callable
	opaque   any
}

// Null is the singleton null value.
var Null = Value{kind: KindNull}

// Undefined is represented identically to Null in this engine: the
// expression language has no separate undefined literal, but compiled
// evaluators return Null to mean "no value".
var Undefined = Null

func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }
func String(s string) Value  { return Value{kind: KindString, s: s} }

// Sequence builds an array-like value from a slice (copied into a fresh
// backing store).
func Sequence(elems []Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: KindSequence, seq: &seqObj{elems: cp}}
}

// NewMapping builds an empty mapping value with its own fresh identity.
func NewMapping() Value {
	return Value{kind: KindMapping, mapping: &mapObj{m: make(map[string]Value)}}
}

// Mapping builds a mapping value from a map, preserving key order as given.
func Mapping(keys []string, m map[string]Value) Value {
	mm := make(map[string]Value, len(m))
	kk := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := m[k]; ok {
			mm[k] = v
			kk = append(kk, k)
		}
	}
	return Value{kind: KindMapping, mapping: &mapObj{m: mm, keys: kk}}
}

func CallableValue(c *Callable) Value {
	return Value{kind: KindCallable, callable: c}
}

func Opaque(v any) Value {
	return Value{kind: KindOpaque, opaque: v}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNull:
		return false
	case KindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case KindString:
		return v.s != ""
	default:
		return true
	}
}

func (v Value) Number() float64 {
	if v.kind == KindNumber {
		return v.n
	}
	return math.NaN()
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.n)
	case KindSequence:
		parts := make([]string, len(v.seq.elems))
		for i, e := range v.seq.elems {
			parts[i] = e.String()
		}
		return fmt.Sprintf("%v", parts)
	case KindMapping:
		return "[object Object]"
	case KindCallable:
		return "function " + v.callable.Name
	default:
		return fmt.Sprintf("%v", v.opaque)
	}
}

func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}

// Elements returns the backing slice of a sequence value (nil otherwise).
// The slice aliases the value's storage; callers must not retain it across
// a Push/SetIndex on the same value if they need a stable snapshot.
func (v Value) Elements() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq.elems
}

// Len reports the element/key count for sequences and mappings, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.seq.elems)
	case KindMapping:
		return len(v.mapping.m)
	default:
		return 0
	}
}

// SetIndex mutates a sequence element in place, growing the backing slice
// with Null padding if necessary.
func (v Value) SetIndex(i int, val Value) {
	if v.kind != KindSequence || i < 0 {
		return
	}
	for len(v.seq.elems) <= i {
		v.seq.elems = append(v.seq.elems, Null)
	}
	v.seq.elems[i] = val
}

// Push appends to a sequence in place.
func (v Value) Push(val Value) {
	if v.kind != KindSequence {
		return
	}
	v.seq.elems = append(v.seq.elems, val)
}

// Keys returns the mapping's keys in insertion order ([] for non-mappings).
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	if v.mapping.keys != nil {
		return v.mapping.keys
	}
	keys := make([]string, 0, len(v.mapping.m))
	for k := range v.mapping.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get looks up a mapping key, returning (Null, false) when absent or when
// v is not a mapping.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Null, false
	}
	val, ok := v.mapping.m[key]
	return val, ok
}

// Set mutates the mapping in place, appending key to the order list the
// first time it is seen. This is the primitive the compiler's identifier/
// member write path and scope context creation build on: writing
// through any Value that shares this mapping's identity is visible to
// every other Value sharing it, which is how auto-vivified intermediate
// mappings and the scope-inheritance chain work without a host prototype.
func (v Value) Set(key string, val Value) {
	if v.kind != KindMapping {
		return
	}
	if _, existed := v.mapping.m[key]; !existed {
		v.mapping.keys = append(v.mapping.keys, key)
	}
	v.mapping.m[key] = val
}

// Delete removes a key from a mapping in place.
func (v Value) Delete(key string) {
	if v.kind != KindMapping {
		return
	}
	if _, existed := v.mapping.m[key]; !existed {
		return
	}
	delete(v.mapping.m, key)
	for i, k := range v.mapping.keys {
		if k == key {
			v.mapping.keys = append(v.mapping.keys[:i], v.mapping.keys[i+1:]...)
			break
		}
	}
}

// With returns a value that is the same mapping identity as v with key set
// to val, a convenience wrapper over Set for call sites that prefer an
// expression form. Unlike a copy-on-write design, this mutates v in place
// and returns v itself (falling back to a fresh mapping if v isn't one).
func (v Value) With(key string, val Value) Value {
	if v.kind != KindMapping {
		v = NewMapping()
	}
	v.Set(key, val)
	return v
}

func (v Value) Callable() *Callable {
	if v.kind != KindCallable {
		return nil
	}
	return v.callable
}

// Opaque_ returns the wrapped host value for an Opaque-kinded Value.
func (v Value) Opaque_() any {
	return v.opaque
}

// IsArrayLike reports whether v should be treated as an array by
// WatchCollection and the filter built-in: sequences only in
// this engine, since the value model has no host arrays to duck-type.
func (v Value) IsArrayLike() bool {
	return v.kind == KindSequence
}

// RefEqual implements reference-mode equality: identity for composite
// values, NaN=NaN for numbers, value equality for scalars.
func RefEqual(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		if math.IsNaN(a.n) && math.IsNaN(b.n) {
			return true
		}
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindSequence:
		return a.seq == b.seq
	case KindMapping:
		return a.mapping == b.mapping
	case KindCallable:
		return a.callable == b.callable
	case KindOpaque:
		return a.opaque == b.opaque
	default:
		return false
	}
}

// StructuralEqual implements deep value equality.
func StructuralEqual(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindSequence:
		if len(a.seq.elems) != len(b.seq.elems) {
			return false
		}
		for i := range a.seq.elems {
			if !StructuralEqual(a.seq.elems[i], b.seq.elems[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(a.mapping.m) != len(b.mapping.m) {
			return false
		}
		for k, av := range a.mapping.m {
			bv, ok := b.mapping.m[k]
			if !ok || !StructuralEqual(av, bv) {
				return false
			}
		}
		return true
	default:
		return RefEqual(a, b)
	}
}

// DeepClone preserves structural shape: scalars are returned as-is
// (immutable), sequences and mappings are recursively copied into a fresh,
// independent backing store.
func DeepClone(v Value) Value {
	switch v.kind {
	case KindSequence:
		cp := make([]Value, len(v.seq.elems))
		for i, e := range v.seq.elems {
			cp[i] = DeepClone(e)
		}
		return Value{kind: KindSequence, seq: &seqObj{elems: cp}}
	case KindMapping:
		mm := make(map[string]Value, len(v.mapping.m))
		for k, vv := range v.mapping.m {
			mm[k] = DeepClone(vv)
		}
		return Value{kind: KindMapping, mapping: &mapObj{m: mm, keys: append([]string{}, v.mapping.keys...)}}
	default:
		return v
	}
}

// Sentinel is a unique Value distinct from every legal expression result,
// used by Watcher.last before its first comparison.
var Sentinel = Value{kind: KindOpaque, opaque: &sentinelMarker{}}

type sentinelMarker struct{}

// IsSentinel reports whether v is the dedicated initial-watch sentinel.
func IsSentinel(v Value) bool {
	m, ok := v.opaque.(*sentinelMarker)
	return ok && v.kind == KindOpaque && m == Sentinel.opaque
}
