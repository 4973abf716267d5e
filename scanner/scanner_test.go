package scanner

import (
	"testing"

	"sonicc/textbuf"
)

func newScanner(s string) *Scanner {
	b := textbuf.New(64)
	b.OpenString("t", s)
	return New(b)
}

func TestGetCharCollapsesSpace(t *testing.T) {
	sc := newScanner("a   b")
	if c := sc.GetChar(); c != 'a' {
		t.Fatalf("expected 'a', got %q", c)
	}
	if c := sc.GetChar(); c != ' ' {
		t.Fatalf("expected single SPACE token, got %q", c)
	}
	if c := sc.GetChar(); c != 'b' {
		t.Fatalf("expected 'b', got %q", c)
	}
}

func TestGetCharNoSpaceSkipsRuns(t *testing.T) {
	sc := newScanner("a \t\n b")
	if c := sc.GetCharNoSpace(); c != 'a' {
		t.Fatalf("expected 'a', got %q", c)
	}
	if c := sc.GetCharNoSpace(); c != 'b' {
		t.Fatalf("expected 'b', got %q", c)
	}
}

func TestLineCommentSkipped(t *testing.T) {
	sc := newScanner("a # comment\nb")
	if c := sc.GetCharNoSpace(); c != 'a' {
		t.Fatalf("expected 'a', got %q", c)
	}
	if c := sc.GetCharNoSpace(); c != 'b' {
		t.Fatalf("expected 'b' after comment, got %q", c)
	}
}

func TestBlockComment(t *testing.T) {
	sc := newScanner("a/* block\ncomment */b")
	if c := sc.GetCharNoSpace(); c != 'a' {
		t.Fatalf("expected 'a', got %q", c)
	}
	if c := sc.GetCharNoSpace(); c != 'b' {
		t.Fatalf("expected 'b', got %q", c)
	}
}

func TestUngetKTimesThenGetKTimes(t *testing.T) {
	sc := newScanner("abcdefgh")
	var first []byte
	for i := 0; i < 5; i++ {
		first = append(first, sc.GetChar())
	}
	for i := 0; i < 5; i++ {
		sc.UngetChar()
	}
	var second []byte
	for i := 0; i < 5; i++ {
		second = append(second, sc.GetChar())
	}
	if string(first) != string(second) {
		t.Fatalf("unget round-trip mismatch: %q vs %q", first, second)
	}
}

func TestGetSymbolString(t *testing.T) {
	sc := newScanner("foo_Bar2 + rest")
	name, ok := sc.GetSymbolString()
	if !ok || name != "foo_Bar2" {
		t.Fatalf("expected foo_Bar2, got %q ok=%v", name, ok)
	}
}

func TestExpressionPrecedence(t *testing.T) {
	sc := newScanner("2+3*4")
	v, ok := sc.GetDouble(false, nil)
	if !ok || v != 14 {
		t.Fatalf("expected 14, got %v ok=%v", v, ok)
	}
}

func TestExpressionPowerRightAssoc(t *testing.T) {
	sc := newScanner("2^3^2")
	v, ok := sc.GetDouble(false, nil)
	if !ok || v != 512 {
		t.Fatalf("expected 2^(3^2)=512, got %v", v)
	}
}

func TestExpressionParens(t *testing.T) {
	sc := newScanner("(2+3)*4")
	v, ok := sc.GetDouble(false, nil)
	if !ok || v != 20 {
		t.Fatalf("expected 20, got %v", v)
	}
}

func TestExpressionNamedConstant(t *testing.T) {
	sc := newScanner("L")
	v, ok := sc.GetDouble(false, func(name string) (float64, bool) {
		if name == "L" {
			return -1, true
		}
		return 0, false
	})
	if !ok || v != -1 {
		t.Fatalf("expected -1, got %v ok=%v", v, ok)
	}
}

func TestExpressionUndefinedVariableErrors(t *testing.T) {
	sc := newScanner("$nope")
	_, ok := sc.GetDouble(false, nil)
	if ok {
		t.Fatalf("expected failure for undefined variable")
	}
	if !sc.HadError() {
		t.Fatalf("expected HadError true")
	}
}
