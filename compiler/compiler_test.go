package compiler_test

import (
	"testing"

	"github.com/pumped-fn/reaxpr/compiler"
	"github.com/pumped-fn/reaxpr/scope"
	"github.com/pumped-fn/reaxpr/value"
)

func TestDelegateConstantForLiteralExpression(t *testing.T) {
	c, err := compiler.Compile("1 + 2", nil, nil)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if c.Delegate() != compiler.DelegateConstant {
		t.Errorf("Delegate() = %v, want DelegateConstant", c.Delegate())
	}
}

func TestDelegateInputsForBinaryOverIdentifiers(t *testing.T) {
	c, err := compiler.Compile("a + b", nil, nil)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if c.Delegate() != compiler.DelegateInputs {
		t.Errorf("Delegate() = %v, want DelegateInputs", c.Delegate())
	}
	if len(c.Inputs) != 2 {
		t.Errorf("len(Inputs) = %d, want 2", len(c.Inputs))
	}
}

func TestDelegateNoneForSelfWatchingIdentifier(t *testing.T) {
	c, err := compiler.Compile("x", nil, nil)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if c.Delegate() != compiler.DelegateNone {
		t.Errorf("Delegate() = %v, want DelegateNone", c.Delegate())
	}
}

func TestDelegateOneTimeForPrefixedExpression(t *testing.T) {
	c, err := compiler.Compile("::x + y", nil, nil)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if c.Delegate() != compiler.DelegateOneTime {
		t.Errorf("Delegate() = %v, want DelegateOneTime", c.Delegate())
	}
}

func TestAssignWritesToOwningScope(t *testing.T) {
	s := scope.New()
	s.Set("x", value.Number(1))

	c, err := compiler.Compile("x", nil, nil)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if !c.Assignable() {
		t.Fatal("expected a bare identifier to be assignable")
	}
	if _, err := c.Assign(s, value.Null, value.Number(5)); err != nil {
		t.Fatalf("Assign error: %v", err)
	}
	v, _ := s.Get("x")
	if v.Number() != 5 {
		t.Errorf("x after Assign = %v, want 5", v.Number())
	}
}

func TestUndefinedOperandBoundaries(t *testing.T) {
	s := scope.New()
	s.Set("a", value.Number(5))

	cases := []struct {
		src  string
		want func(value.Value) bool
		desc string
	}{
		{"u + 2", func(v value.Value) bool { return v.Number() == 2 }, "undefined + substitutes 0"},
		{"2 - u", func(v value.Value) bool { return v.Number() == 2 }, "undefined - substitutes 0"},
		{"u * 2", func(v value.Value) bool { return v.Number() != v.Number() }, "undefined * is NaN"},
		{"-(-a)", func(v value.Value) bool { return v.Number() == 5 }, "double negation is identity"},
		{"-(-u)", func(v value.Value) bool { return v.Number() == 0 }, "negating undefined is 0"},
		{"!a", func(v value.Value) bool { return !v.Bool() }, "! negates truthy"},
		{"!!a", func(v value.Value) bool { return v.Bool() }, "!! is boolean identity"},
	}
	for _, c := range cases {
		v, err := s.Eval(c.src, value.Null)
		if err != nil {
			t.Fatalf("Eval(%q) error: %v", c.src, err)
		}
		if !c.want(v) {
			t.Errorf("Eval(%q) = %v: %s", c.src, v, c.desc)
		}
	}
}

func TestUnknownFilterErrors(t *testing.T) {
	c, err := compiler.Compile("x | nope", nil, nil)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	s := scope.New()
	if _, err := c.Eval(s, value.Null); err == nil {
		t.Error("expected ErrUnknownFilter for an unregistered filter name")
	}
}
