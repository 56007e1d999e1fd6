package compiler

import (
	"math"
	"strconv"
	"strings"

	"github.com/pumped-fn/reaxpr/value"
)

func toNumber(v value.Value) float64 {
	switch v.Kind() {
	case value.KindNumber:
		return v.Number()
	case value.KindBool:
		if v.Bool() {
			return 1
		}
		return 0
	case value.KindString:
		s := strings.TrimSpace(v.String())
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case value.KindNull:
		return math.NaN()
	default:
		return math.NaN()
	}
}

// evalAdd implements `+`: undefined operands substitute 0; otherwise
// either-operand-a-string triggers concatenation, mirroring the host
// language this grammar was modelled on.
func evalAdd(l, r value.Value) value.Value {
	if l.IsNull() || r.IsNull() {
		ln, rn := 0.0, 0.0
		if !l.IsNull() {
			ln = toNumber(l)
		}
		if !r.IsNull() {
			rn = toNumber(r)
		}
		return value.Number(ln + rn)
	}
	if l.Kind() == value.KindString || r.Kind() == value.KindString {
		return value.String(l.String() + r.String())
	}
	return value.Number(toNumber(l) + toNumber(r))
}

// evalSub implements `-`: always numeric, undefined substitutes 0.
func evalSub(l, r value.Value) value.Value {
	ln, rn := 0.0, 0.0
	if !l.IsNull() {
		ln = toNumber(l)
	}
	if !r.IsNull() {
		rn = toNumber(r)
	}
	return value.Number(ln - rn)
}

// strictEq implements `===`: same kind, identity for composites, ordinary
// (non-NaN-folding) float equality for numbers. This is distinct from
// value.RefEqual, which treats NaN=NaN for watcher change detection;
// the language's own equality operators must not.
func strictEq(l, r value.Value) bool {
	if l.Kind() != r.Kind() {
		return false
	}
	switch l.Kind() {
	case value.KindNull:
		return true
	case value.KindBool:
		return l.Bool() == r.Bool()
	case value.KindNumber:
		return l.Number() == r.Number()
	case value.KindString:
		return l.String() == r.String()
	default:
		return value.RefEqual(l, r)
	}
}

// looseEq implements `==`: same-kind falls back to strictEq; cross-kind
// (excluding null) coerces both sides to number.
func looseEq(l, r value.Value) bool {
	if l.Kind() == r.Kind() {
		return strictEq(l, r)
	}
	if l.Kind() == value.KindNull || r.Kind() == value.KindNull {
		return false
	}
	return toNumber(l) == toNumber(r)
}

func evalUnaryPlus(v value.Value) value.Value {
	if v.IsNull() {
		return value.Number(0)
	}
	return value.Number(toNumber(v))
}

func evalUnaryMinus(v value.Value) value.Value {
	n := 0.0
	if !v.IsNull() {
		n = toNumber(v)
	}
	return value.Number(0 - n)
}

// memberGet reads a property/index off any value kind that supports it:
// mappings by key, sequences by numeric index or "length", strings by
// "length". Anything else reports not-found, which the caller surfaces as
// undefined rather than an error (safe navigation).
func memberGet(obj value.Value, key string) (value.Value, bool) {
	switch obj.Kind() {
	case value.KindMapping:
		return obj.Get(key)
	case value.KindSequence:
		if key == "length" {
			return value.Number(float64(len(obj.Elements()))), true
		}
		if idx, err := strconv.Atoi(key); err == nil && idx >= 0 {
			elems := obj.Elements()
			if idx < len(elems) {
				return elems[idx], true
			}
		}
		return value.Null, false
	case value.KindString:
		if key == "length" {
			return value.Number(float64(len([]rune(obj.String())))), true
		}
		return value.Null, false
	default:
		return value.Null, false
	}
}

// memberSet writes a property/index in place on a mapping or sequence.
// Returns false if obj's kind does not support indexed writes.
func memberSet(obj value.Value, key string, val value.Value) bool {
	switch obj.Kind() {
	case value.KindMapping:
		obj.Set(key, val)
		return true
	case value.KindSequence:
		if idx, err := strconv.Atoi(key); err == nil && idx >= 0 {
			obj.SetIndex(idx, val)
			return true
		}
		return false
	default:
		return false
	}
}

// isFalsyForVivify reports whether an existing member value should be
// overwritten with a fresh mapping during assignment auto-creation: only
// a non-existent or falsy intermediate is replaced, never a truthy
// non-mapping value.
func isFalsyForVivify(v value.Value) bool {
	return v.IsNull() || !v.Bool()
}
