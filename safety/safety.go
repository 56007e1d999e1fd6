// Package safety centralises the allow/deny rules enforced during
// compilation and evaluation. It is the single source of truth: the
// lexer and parser know nothing about forbidden names.
package safety

import "github.com/pumped-fn/reaxpr/value"

// Error is returned by a failed safety check, carrying a message naming
// what was refused.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

var disallowedFields = map[string]bool{
	"constructor":         true,
	"__proto__":           true,
	"__defineGetter__":    true,
	"__defineSetter__":    true,
	"__lookupGetter__":    true,
	"__lookupSetter__":    true,
}

var disallowedCalls = map[string]bool{
	"call":  true,
	"bind":  true,
	"apply": true,
}

// CheckField rejects member-name access to a disallowed field, for both
// reads and writes.
func CheckField(name string) error {
	if disallowedFields[name] {
		return &Error{Message: "Attempting to access a disallowed field: " + name}
	}
	return nil
}

// CheckCallName rejects calling call/bind/apply on a callable.
func CheckCallName(name string) error {
	if disallowedCalls[name] {
		return &Error{Message: "Attempting to call a disallowed method: " + name}
	}
	return nil
}

// CheckValue rejects a value reached as a receiver, argument, or return:
// the global environment handle, a DOM-like node, a value equal to its
// own constructor, and the root Object itself.
func CheckValue(v value.Value) error {
	switch v.Kind() {
	case value.KindMapping:
		if isGlobalHandle(v) {
			return &Error{Message: "Referencing the global environment is disallowed"}
		}
		if isDOMLike(v) {
			return &Error{Message: "Referencing DOM nodes is disallowed"}
		}
		if isRootObject(v) {
			return &Error{Message: "Referencing the root Object is disallowed"}
		}
	case value.KindCallable:
		if isSelfConstructing(v) {
			return &Error{Message: "Referencing a function constructor is disallowed"}
		}
	}
	return nil
}

// isGlobalHandle heuristically detects the self-referential "window ===
// window" global object: a mapping whose own "window" key points back at
// itself. No other key is checked.
func isGlobalHandle(v value.Value) bool {
	self, ok := v.Get("window")
	if !ok {
		return false
	}
	return value.RefEqual(self, v)
}

// isDOMLike heuristically detects a DOM-like node: has "children" and
// either "nodeName" or all of "prop"/"find"/"attr".
func isDOMLike(v value.Value) bool {
	if _, ok := v.Get("children"); !ok {
		return false
	}
	if _, ok := v.Get("nodeName"); ok {
		return true
	}
	_, hasProp := v.Get("prop")
	_, hasFind := v.Get("find")
	_, hasAttr := v.Get("attr")
	return hasProp && hasFind && hasAttr
}

// isRootObject detects the root Object marker: a mapping tagged with the
// sentinel "__isRootObject__" key, the only stable signal available
// without host-language reflection over prototypes.
func isRootObject(v value.Value) bool {
	marker, ok := v.Get("__isRootObject__")
	return ok && marker.Bool()
}

// isSelfConstructing detects a function constructor: a callable equal to
// its own "constructor" tag, i.e. Function === Function.constructor.
func isSelfConstructing(v value.Value) bool {
	c := v.Callable()
	if c == nil || c.Constructor == nil {
		return false
	}
	return value.RefEqual(*c.Constructor, v)
}
