package compiler_test

import (
	"testing"

	"github.com/pumped-fn/reaxpr/compiler"
	"github.com/pumped-fn/reaxpr/filter"
	"github.com/pumped-fn/reaxpr/scope"
	"github.com/pumped-fn/reaxpr/value"
)

func mustEval(t *testing.T, s *scope.Scope, src string) value.Value {
	t.Helper()
	v, err := s.Eval(src, value.Null)
	if err != nil {
		t.Fatalf("Eval(%q) error: %v", src, err)
	}
	return v
}

func TestCallMemberBindsReceiver(t *testing.T) {
	s := scope.New(scope.WithFilters(filter.NewRegistry()))

	obj := value.NewMapping()
	counter := 0
	fn := &value.Callable{Name: "bump"}
	fn.Fn = func(args []value.Value) (value.Value, error) {
		counter++
		if fn.Receiver == nil {
			t.Fatal("expected receiver to be bound before Fn runs")
		}
		return value.Number(float64(counter)), nil
	}
	obj.Set("bump", value.CallableValue(fn))
	s.Set("obj", obj)

	v := mustEval(t, s, "obj.bump()")
	if v.Number() != 1 {
		t.Errorf("obj.bump() = %v, want 1", v.Number())
	}
}

func TestCallRejectsCallBindApply(t *testing.T) {
	s := scope.New(scope.WithFilters(filter.NewRegistry()))
	fn := &value.Callable{Name: "noop", Fn: func(args []value.Value) (value.Value, error) { return value.Null, nil }}
	s.Set("f", value.CallableValue(fn))

	for _, src := range []string{"f.call()", "f.bind()", "f.apply()"} {
		if _, err := s.Eval(src, value.Null); err == nil {
			t.Errorf("Eval(%q) = nil error, want rejection by the safety gate", src)
		}
	}
}

func TestCallBareFunctionFromLocals(t *testing.T) {
	s := scope.New(scope.WithFilters(filter.NewRegistry()))
	fn := &value.Callable{Name: "double", Fn: func(args []value.Value) (value.Value, error) {
		return value.Number(args[0].Number() * 2), nil
	}}
	locals := value.NewMapping()
	locals.Set("double", value.CallableValue(fn))

	compiled, err := compiler.Compile("double(21)", nil, nil)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	v, err := compiled.Eval(s, locals)
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if v.Number() != 42 {
		t.Errorf("double(21) = %v, want 42", v.Number())
	}
}

func TestFilterCallPipesValueAsFirstArgument(t *testing.T) {
	reg := filter.NewRegistry()
	s := scope.New(scope.WithFilters(reg))

	items := value.Sequence([]value.Value{
		value.NewMapping().With("age", value.Number(30)),
		value.NewMapping().With("age", value.Number(12)),
	})
	s.Set("items", items)

	v := mustEval(t, s, `items | filter:{age: 30}`)
	if v.Len() != 1 {
		t.Fatalf("filtered length = %d, want 1", v.Len())
	}
}
