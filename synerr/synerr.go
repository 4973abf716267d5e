// Package synerr defines the small typed-error set shared across the
// scan/parse/build pipeline: each carries a file/line/column position so
// callers can report "file:line:col: message" without re-deriving it.
package synerr

import "fmt"

// Pos is a file position.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// ScanError reports a lexical-level failure: invalid byte, unterminated
// comment, number overflow, or a truncated symbol (the last of which is
// ordinarily only a warning; ScanError is used when it is fatal).
type ScanError struct {
	Pos Pos
	Msg string
}

func (e *ScanError) Error() string { return fmt.Sprintf("%s: scan error: %s", e.Pos, e.Msg) }

// ParseError reports a grammar-level failure: misplaced token, unclosed
// bracket, undefined or non-object variable reference, infinite number
// in an expression.
type ParseError struct {
	Pos Pos
	Msg string
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: parse error: %s", e.Pos, e.Msg) }
func (e *ParseError) Unwrap() error { return nil }

// BuildError reports a program-build-level failure: voice/operator
// count over limit, nesting depth over limit, negative time value.
type BuildError struct {
	Msg string
}

func (e *BuildError) Error() string { return fmt.Sprintf("build error: %s", e.Msg) }

// NewScan, NewParse, NewBuild are small constructors to keep call sites
// terse.
func NewScan(pos Pos, format string, args ...interface{}) *ScanError {
	return &ScanError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func NewParse(pos Pos, format string, args ...interface{}) *ParseError {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func NewBuild(format string, args ...interface{}) *BuildError {
	return &BuildError{Msg: fmt.Sprintf(format, args...)}
}
