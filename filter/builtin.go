package filter

import (
	"strings"

	"github.com/pumped-fn/reaxpr/value"
)

// builtinFilter implements the `filter` builtin:
// (array, criterion, comparator?) → array.
var builtinFilter = &value.Callable{
	Name: "filter",
	Fn: func(args []value.Value) (value.Value, error) {
		if len(args) == 0 || args[0].Kind() != value.KindSequence {
			return value.Sequence(nil), nil
		}
		criterion := value.Null
		if len(args) > 1 {
			criterion = args[1]
		}
		comparator := value.Null
		if len(args) > 2 {
			comparator = args[2]
		}

		predicate := buildPredicate(criterion, comparator)
		var out []value.Value
		for _, el := range args[0].Elements() {
			if predicate(el) {
				out = append(out, el)
			}
		}
		return value.Sequence(out), nil
	},
}

type comparatorFunc func(actual, expected value.Value) bool

func buildPredicate(criterion, comparator value.Value) func(value.Value) bool {
	cmp := resolveComparator(comparator)

	if criterion.Kind() == value.KindCallable {
		c := criterion.Callable()
		return func(v value.Value) bool {
			r, err := c.Fn([]value.Value{v})
			return err == nil && r.Bool()
		}
	}

	if criterion.Kind() == value.KindMapping {
		return func(v value.Value) bool { return matchObject(v, criterion, cmp) }
	}

	return func(v value.Value) bool { return cmp(v, criterion) }
}

func resolveComparator(comparator value.Value) comparatorFunc {
	switch {
	case comparator.Kind() == value.KindCallable:
		c := comparator.Callable()
		return func(actual, expected value.Value) bool {
			r, err := c.Fn([]value.Value{actual, expected})
			return err == nil && r.Bool()
		}
	case comparator.Kind() == value.KindBool && comparator.Bool():
		return value.StructuralEqual
	default:
		return defaultComparator
	}
}

// defaultComparator implements the primitive rule: a criterion of
// null matches only a null/undefined actual; a defined criterion never
// matches an undefined actual; otherwise a case-insensitive substring match
// on the string forms, negated when the criterion string begins with "!".
func defaultComparator(actual, expected value.Value) bool {
	if expected.IsNull() {
		return actual.IsNull()
	}
	if actual.IsNull() {
		return false
	}
	es := strings.ToLower(expected.String())
	as := strings.ToLower(actual.String())
	if strings.HasPrefix(es, "!") {
		return !strings.Contains(as, es[1:])
	}
	return strings.Contains(as, es)
}

// matchObject implements the mapping-criterion form: every non-"$" key
// of criterion must match the same key of actual (recursing when the
// expected value is itself a mapping); a "$" key matches if any key of
// actual at this level satisfies it.
func matchObject(actual, criterion value.Value, cmp comparatorFunc) bool {
	for _, key := range criterion.Keys() {
		expected, _ := criterion.Get(key)
		if key == "$" {
			if !matchAnyKey(actual, expected, cmp) {
				return false
			}
			continue
		}
		actualVal := value.Null
		if actual.Kind() == value.KindMapping {
			if v, ok := actual.Get(key); ok {
				actualVal = v
			}
		}
		if expected.Kind() == value.KindMapping {
			if !matchObject(actualVal, expected, cmp) {
				return false
			}
			continue
		}
		if !cmp(actualVal, expected) {
			return false
		}
	}
	return true
}

func matchAnyKey(actual, expected value.Value, cmp comparatorFunc) bool {
	if actual.Kind() != value.KindMapping {
		return cmp(actual, expected)
	}
	for _, k := range actual.Keys() {
		v, _ := actual.Get(k)
		if expected.Kind() == value.KindMapping {
			if matchObject(v, expected, cmp) {
				return true
			}
			continue
		}
		if cmp(v, expected) {
			return true
		}
	}
	return false
}
