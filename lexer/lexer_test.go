package lexer

import (
	"testing"
)

func TestLexNumbers(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"42", 42},
		{"3.14", 3.14},
		{".5", 0.5},
		{"1e3", 1000},
		{"1.5e-2", 0.015},
		{"2E+2", 200},
	}
	for _, c := range cases {
		toks, err := Lex(c.in)
		if err != nil {
			t.Fatalf("Lex(%q): %v", c.in, err)
		}
		if len(toks) != 1 || !toks[0].HasValue {
			t.Fatalf("Lex(%q) = %v, want single numeric token", c.in, toks)
		}
		if got := toks[0].Value.Number(); got != c.want {
			t.Errorf("Lex(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestLexBadExponent(t *testing.T) {
	if _, err := Lex("1e"); err == nil {
		t.Fatal("expected error for invalid exponent")
	}
	if _, err := Lex("1e+"); err == nil {
		t.Fatal("expected error for invalid exponent")
	}
}

func TestLexStrings(t *testing.T) {
	toks, err := Lex(`'a\'b\nA'`)
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 1 {
		t.Fatalf("got %d tokens", len(toks))
	}
	got := toks[0].Value.String()
	want := "a'b\nA"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestLexMismatchedQuote(t *testing.T) {
	if _, err := Lex(`'abc"`); err == nil {
		t.Fatal("expected error for mismatched quote")
	}
}

func TestLexOperatorsLongestMatch(t *testing.T) {
	toks, err := Lex("a === b !== c <= d")
	if err != nil {
		t.Fatal(err)
	}
	var ops []string
	for _, tok := range toks {
		if !tok.Identifier && !tok.HasValue {
			ops = append(ops, tok.Text)
		}
	}
	want := []string{"===", "!==", "<="}
	if len(ops) != len(want) {
		t.Fatalf("got ops %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("op[%d] = %q, want %q", i, ops[i], want[i])
		}
	}
}

func TestLexPunctuation(t *testing.T) {
	toks, err := Lex("[a,b]{c:d}(e)?f;")
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) == 0 {
		t.Fatal("expected tokens")
	}
}

func TestLexUnknownCharacterFails(t *testing.T) {
	if _, err := Lex("a # b"); err == nil {
		t.Fatal("expected error for unknown character")
	}
}

func TestLexIdentifiersWithDollarAndUnderscore(t *testing.T) {
	toks, err := Lex("$locals _foo $x1")
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3", len(toks))
	}
	for _, tok := range toks {
		if !tok.Identifier {
			t.Errorf("token %q not marked identifier", tok.Text)
		}
	}
}
