// Package sonicc wires the script language, build pipeline, and
// renderer together into the small public surface a CLI or embedder
// needs: Compile a script to a Program, then NewRenderer to play it.
package sonicc

import (
	"sonicc/lang"
	"sonicc/program"
)

// Compile parses script and runs the build pipeline against it,
// returning a Program ready for NewRenderer. A script-level failure
// (scan, parse, or build error) is returned as-is so the caller can
// report file:line:col.
func Compile(label, script string, opt program.BuildOptions) (*program.Program, error) {
	events, err := lang.New(label, script).Parse()
	if err != nil {
		return nil, err
	}
	return program.Build(events, opt)
}
