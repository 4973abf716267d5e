package textbuf

import "testing"

func TestGetCharRoundTrip(t *testing.T) {
	b := New(8)
	b.OpenString("t", "hello")
	var got []byte
	for !b.AtEOF() {
		c := b.GetChar()
		if b.AfterEOF() {
			break
		}
		got = append(got, c)
	}
	if string(got) != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
	if !b.AtEOF() {
		t.Fatalf("expected AtEOF after consuming source")
	}
}

func TestUngetThenGetMatches(t *testing.T) {
	b := New(8)
	b.OpenString("t", "abcdef")
	var first []byte
	for i := 0; i < 4; i++ {
		first = append(first, b.GetChar())
	}
	b.UngetN(4)
	var second []byte
	for i := 0; i < 4; i++ {
		second = append(second, b.GetChar())
	}
	if string(first) != string(second) {
		t.Fatalf("expected %q, got %q", first, second)
	}
}

func TestTryChar(t *testing.T) {
	b := New(8)
	b.OpenString("t", "xy")
	if b.TryChar('a') {
		t.Fatalf("expected no match for 'a'")
	}
	if !b.TryChar('x') {
		t.Fatalf("expected match for 'x'")
	}
	if b.GetChar() != 'y' {
		t.Fatalf("expected 'y' next")
	}
}

func TestGetInt(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"123", 123, true},
		{"-45", -45, true},
		{"+7", 7, true},
		{"abc", 0, false},
	}
	for _, c := range cases {
		b := New(8)
		b.OpenString("t", c.in)
		got, ok := b.GetInt(true)
		if ok != c.ok || got != c.want {
			t.Fatalf("GetInt(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestGetDouble(t *testing.T) {
	b := New(8)
	b.OpenString("t", "-3.25e1")
	got, ok := b.GetDouble(true)
	if !ok || got != -32.5 {
		t.Fatalf("expected -32.5, got %v ok=%v", got, ok)
	}
}

func TestSkipLine(t *testing.T) {
	b := New(8)
	b.OpenString("t", "abc\ndef")
	b.SkipLine()
	got, _ := b.GetString(func(c byte) bool { return c != 0 }, 3)
	if got != "def" {
		t.Fatalf("expected def, got %q", got)
	}
}

func TestRefillAcrossHalves(t *testing.T) {
	// half=4, source longer than one half to exercise refill boundary.
	b := New(4)
	src := "0123456789abcdef"
	b.OpenString("t", src)
	var got []byte
	for !b.AtEOF() {
		c := b.GetChar()
		if b.AtEOF() {
			break
		}
		got = append(got, c)
	}
	if string(got) != src {
		t.Fatalf("expected %q, got %q", src, got)
	}
}

func TestErrorRefillerSetsStatus(t *testing.T) {
	b := New(4)
	b.OpenRefiller("t", errRefiller{})
	b.GetChar()
	if b.Status() != StatusError {
		t.Fatalf("expected StatusError, got %v", b.Status())
	}
}

type errRefiller struct{}

func (errRefiller) Refill(dst []byte) (int, error) {
	return 0, errShort
}

var errShort = &fakeErr{"boom"}

type fakeErr struct{ msg string }

func (e *fakeErr) Error() string { return e.msg }
