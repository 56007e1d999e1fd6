package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseOneTimePrefix(t *testing.T) {
	prog, oneTime, err := Parse("::a + b")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !oneTime {
		t.Error("expected oneTime=true for a :: prefixed expression")
	}
	if len(prog.Body) != 1 || prog.Body[0].Kind != Binary {
		t.Fatalf("expected a single Binary statement, got %+v", prog.Body)
	}
}

func TestParseEmptyProgramIsLiteral(t *testing.T) {
	prog, _, err := Parse("")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	Analyze(prog, nil)
	class := Classify(prog)
	if !class.Literal || !class.Constant {
		t.Errorf("empty program classification = %+v, want literal+constant", class)
	}
}

func TestAnalyzeIdentifierIsNeverConstant(t *testing.T) {
	prog, _, err := Parse("x")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	Analyze(prog, nil)
	class := Classify(prog)
	if class.Constant {
		t.Error("a bare identifier must never classify as constant")
	}
	// A bare identifier watches itself: its ToWatch set is unusable for
	// input short-circuiting, so no inputs are derived.
	if len(class.Inputs) != 0 {
		t.Fatalf("expected no inputs for a self-watching identifier statement, got %d", len(class.Inputs))
	}
}

func TestAnalyzeLiteralExpressionIsConstant(t *testing.T) {
	prog, _, err := Parse("1 + 2")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	Analyze(prog, nil)
	class := Classify(prog)
	if !class.Constant {
		t.Error("1 + 2 should classify as constant")
	}
}

func TestAnalyzeStatefulFilterForcesNonConstant(t *testing.T) {
	prog, _, err := Parse("1 | random")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	Analyze(prog, func(name string) bool { return name == "random" })
	class := Classify(prog)
	if class.Constant {
		t.Error("a stateful filter over constant arguments must not classify as constant")
	}
}

func TestAnalyzeCollectsInputNames(t *testing.T) {
	prog, _, err := Parse("a + b")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	Analyze(prog, nil)
	class := Classify(prog)

	names := make([]string, len(class.Inputs))
	for i, n := range class.Inputs {
		names[i] = n.Name
	}

	want := []string{"a", "b"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("input names mismatch (-want +got):\n%s", diff)
	}
}

func TestParseUnexpectedTokenIsAnError(t *testing.T) {
	if _, _, err := Parse("1 +"); err == nil {
		t.Error("expected a parse error for a dangling operator")
	}
}
