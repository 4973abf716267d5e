// Package lang implements the object-introducer script language the
// scanner's number-expression layer was built to serve: a small
// recursive-descent parser that turns source text into the
// []*program.ScriptEvent list program.Build expects. Comments,
// whitespace, and number expressions are handled entirely by the
// scanner; this package only adds the object-introducer token surface
// on top of it.
package lang

import (
	"sonicc/program"
	"sonicc/scanner"
	"sonicc/synerr"
	"sonicc/tables"
	"sonicc/textbuf"
)

// Parser walks one script's token stream and builds its event list.
type Parser struct {
	sc    *scanner.Scanner
	named map[string]*program.ScriptOpData // 'name assignments, resolved by $name/@name
}

// New creates a Parser reading src (already wrapped in a label for error
// messages by the caller, if desired).
func New(label, src string) *Parser {
	buf := textbuf.New(4096)
	buf.OpenString(label, src)
	return &Parser{
		sc:    scanner.New(buf),
		named: make(map[string]*program.ScriptOpData),
	}
}

// Parse consumes the whole script and returns its event list, or the
// first parse error encountered (errors stop the current script).
func (p *Parser) Parse() ([]*program.ScriptEvent, error) {
	var events []*program.ScriptEvent
	for {
		c := p.peek()
		if c == 0 && p.sc.AtEOF() {
			break
		}
		if c == 'Q' {
			p.sc.GetCharNoSpace()
			break
		}
		ev, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if p.sc.HadError() {
		diags := p.sc.Diagnostics()
		return nil, synerr.NewScan(synerr.Pos{Line: diags[len(diags)-1].Frame.Line, Column: diags[len(diags)-1].Frame.Column}, "%s", diags[len(diags)-1].Message)
	}
	return events, nil
}

func (p *Parser) peek() byte {
	c := p.sc.GetCharNoSpace()
	p.sc.UngetChar()
	return c
}

func (p *Parser) perr(format string, args ...interface{}) error {
	fr := p.sc.CurrentFrame()
	return synerr.NewParse(synerr.Pos{Line: fr.Line, Column: fr.Column}, format, args...)
}

// parseStatement parses one top-level event: an optional run of '|'
// duration-group boundaries, an optional delay, an optional variable
// binding, the object chain itself, and any ';'-separated compositive
// continuations.
func (p *Parser) parseStatement() (*program.ScriptEvent, error) {
	groupBreak := false
	for p.peek() == '|' {
		p.sc.GetCharNoSpace()
		groupBreak = true
	}

	waitMs, err := p.parseDelay()
	if err != nil {
		return nil, err
	}

	var varName string
	if p.peek() == '\'' {
		p.sc.GetCharNoSpace()
		name, ok := p.sc.GetSymbolString()
		if !ok {
			return nil, p.perr("expected identifier after \"'\"")
		}
		varName = name
	}

	root, extras, err := p.parseObjectChain()
	if err != nil {
		return nil, err
	}
	if varName != "" {
		p.named[varName] = root
	}

	ev := &program.ScriptEvent{
		WaitMs:     waitMs,
		RootOpKey:  root.OpKey,
		OpUpdates:  append([]*program.ScriptOpData{root}, extras...),
		GroupBreak: groupBreak,
	}

	for p.peek() == ';' {
		p.sc.GetCharNoSpace()
		cont, err := p.parseContinuation(root)
		if err != nil {
			return nil, err
		}
		contWait := 0.0
		if root.TimeMs != nil {
			contWait = *root.TimeMs
		}
		ev.Fork = append(ev.Fork, &program.ScriptEvent{
			WaitMs:    contWait,
			RootOpKey: root.OpKey,
			OpUpdates: []*program.ScriptOpData{cont},
		})
	}

	return ev, nil
}

// parseDelay parses "/<seconds>" as an explicit wait. "/t" is accepted
// and yields a zero wait: no delay is inserted for it.
func (p *Parser) parseDelay() (float64, error) {
	if p.peek() != '/' {
		return 0, nil
	}
	p.sc.GetCharNoSpace()
	if p.peek() == 't' {
		p.sc.GetCharNoSpace()
		return 0, nil
	}
	secs, ok := p.sc.GetDouble(false, nil)
	if !ok {
		return 0, p.perr("expected a time value after '/'")
	}
	return secs * 1000.0, nil
}

func isIntroducer(c byte) bool {
	switch c {
	case 'W', 'N', 'L', 'R', 'E':
		return true
	}
	return false
}

func isSubnameLetter(c byte) bool {
	switch c {
	case 'a', 'c', 'f', 'p', 'r', 't', 'w':
		return true
	}
	return false
}

func isIdentStartByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isExprStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == '+' || c == '-' || c == '(' || c == '$' || isIdentStartByte(c)
}

// parseObjectChain parses one introducer letter, its direct type name
// (e.g. the "sin" in "Wsin"), and its parameter list, returning the
// node built plus any inline modulator nodes it introduced (so the
// caller can fold them into the event's OpUpdates).
func (p *Parser) parseObjectChain() (*program.ScriptOpData, []*program.ScriptOpData, error) {
	intro := p.sc.GetCharNoSpace()
	if !isIntroducer(intro) {
		return nil, nil, p.perr("expected an object introducer (W/N/L/R/E), got %q", string(rune(intro)))
	}
	node := &program.ScriptOpData{IsNew: true}
	node.OpKey = node

	switch intro {
	case 'W':
		node.IsCarrier = true
		if isIdentStartByte(p.peek()) {
			name, _ := p.sc.GetSymbolString()
			node.WaveName = name
		}
	case 'N':
		node.IsCarrier = true
		if isIdentStartByte(p.peek()) {
			name, _ := p.sc.GetSymbolString()
			node.NoiseType = name
		} else {
			node.NoiseType = "WH"
		}
	case 'L', 'R', 'E':
		// Line/random-segment/envelope objects are modulator-only
		// trajectory generators: no wavetable, no carrier role. Their
		// value comes entirely from the amp/freq ramp parameters that
		// follow, same as a wave oscillator's ramps.
	}

	var extras []*program.ScriptOpData
	for {
		c := p.peek()
		if c != 0 && isSubnameLetter(c) {
			sub, subExtras, err := p.parseParam(node)
			if err != nil {
				return nil, nil, err
			}
			_ = sub
			extras = append(extras, subExtras...)
			continue
		}
		break
	}
	return node, extras, nil
}

// parseContinuation parses a ';'-separated compositive step: it reuses
// the parent's operator identity but only the subnames actually present
// in this clause take effect (program.Build treats unset fields as "no
// change" — see applyOpData).
func (p *Parser) parseContinuation(parent *program.ScriptOpData) (*program.ScriptOpData, error) {
	node := &program.ScriptOpData{OpKey: parent.OpKey, IsNew: false, IsCarrier: parent.IsCarrier}
	for {
		c := p.peek()
		if c != 0 && isSubnameLetter(c) {
			_, extras, err := p.parseParam(node)
			if err != nil {
				return nil, err
			}
			if len(extras) > 0 {
				return nil, p.perr("inline modulators are not supported in compositive steps")
			}
			continue
		}
		break
	}
	return node, nil
}

// parseParam parses one "letter[.r](scalar|{ramp}|[modlist])" parameter
// and applies it to node.
func (p *Parser) parseParam(node *program.ScriptOpData) (byte, []*program.ScriptOpData, error) {
	letter := p.sc.GetCharNoSpace()
	secondary := false
	if p.peek() == '.' {
		p.sc.GetCharNoSpace()
		r := p.sc.GetCharNoSpace()
		if r != 'r' {
			return 0, nil, p.perr("unknown parameter suffix '.%c'", r)
		}
		secondary = true
	}

	if letter == 't' {
		secs, ok := p.sc.GetDouble(false, nil)
		if !ok {
			return 0, nil, p.perr("expected a time value after 't'")
		}
		ms := secs * 1000.0
		node.TimeMs = &ms
		return letter, nil, nil
	}

	if letter == 'w' {
		name, ok := p.sc.GetSymbolString()
		if !ok {
			return 0, nil, p.perr("expected a wave name after 'w'")
		}
		node.WaveName = name
		return letter, nil, nil
	}

	if p.peek() == '[' {
		p.sc.GetCharNoSpace()
		ids, extras, err := p.parseModList()
		if err != nil {
			return 0, nil, err
		}
		if !p.sc.TryCharNoSpace(']') {
			return 0, nil, p.perr("unclosed '[' modulator list")
		}
		p.assignList(node, letter, secondary, ids)
		return letter, extras, nil
	}

	spec, err := p.parseParamValue(letter)
	if err != nil {
		return 0, nil, err
	}
	p.assignScalar(node, letter, secondary, spec)
	return letter, nil, nil
}

// parseModList parses a comma/space separated list of object chains or
// '@name' references between '[' and ']', returning each item's OpKey
// plus any freshly built nodes (so the caller folds them into the
// event's OpUpdates - a list item is itself an operator and must be
// applied by Build just like the root).
func (p *Parser) parseModList() ([]program.OpKey, []*program.ScriptOpData, error) {
	var ids []program.OpKey
	var extras []*program.ScriptOpData
	for {
		c := p.peek()
		if c == ']' || c == 0 {
			break
		}
		if c == ',' {
			p.sc.GetCharNoSpace()
			continue
		}
		if c == '@' {
			p.sc.GetCharNoSpace()
			name, ok := p.sc.GetSymbolString()
			if !ok {
				return nil, nil, p.perr("expected identifier after '@'")
			}
			ref, ok := p.named[name]
			if !ok {
				return nil, nil, p.perr("reference to undefined variable @%s", name)
			}
			ids = append(ids, ref.OpKey)
			continue
		}
		sub, subExtras, err := p.parseObjectChain()
		if err != nil {
			return nil, nil, err
		}
		sub.IsCarrier = false // a list item modulates; it never reaches the mix
		ids = append(ids, sub.OpKey)
		extras = append(extras, sub)
		extras = append(extras, subExtras...)
	}
	return ids, extras, nil
}

// panConst resolves the pan named constants ("named constants
// C/L/R for pan").
func panConst(name string) (float64, bool) {
	switch name {
	case "C":
		return 0, true
	case "L":
		return -1, true
	case "R":
		return 1, true
	}
	return 0, false
}

func (p *Parser) numConstFor(letter byte) scanner.NumConstFunc {
	if letter == 'p' || letter == 'c' {
		return panConst
	}
	return nil
}

// parseParamValue parses either a bare scalar (which sets v0==vt, shape
// hor — an instantaneous set) or a "{v0 [shape] vt [t<time>]}" ramp
// block.
func (p *Parser) parseParamValue(letter byte) (*program.RampSpec, error) {
	nc := p.numConstFor(letter)
	if p.peek() == '{' {
		return p.parseRampBlock(nc)
	}
	v, ok := p.sc.GetDouble(true, nc)
	if !ok {
		return nil, p.perr("expected a numeric value after '%c'", letter)
	}
	return &program.RampSpec{V0: &v, Vt: &v}, nil
}

func (p *Parser) peekIdent() (string, bool) {
	name, ok := p.sc.GetSymbolString()
	if !ok {
		return "", false
	}
	for range name {
		p.sc.UngetChar()
	}
	return name, true
}

func (p *Parser) parseRampBlock(nc scanner.NumConstFunc) (*program.RampSpec, error) {
	if !p.sc.TryCharNoSpace('{') {
		return nil, p.perr("expected '{'")
	}
	spec := &program.RampSpec{}

	if isExprStart(p.peek()) {
		v0, ok := p.sc.GetDouble(true, nc)
		if ok {
			spec.V0 = &v0
		}
	}
	if name, ok := p.peekIdent(); ok {
		if sh, ok2 := tables.ParseShape(name); ok2 {
			p.sc.GetSymbolString()
			spec.Shape = sh
			spec.ShapeSet = true
		}
	}
	if isExprStart(p.peek()) {
		vt, ok := p.sc.GetDouble(true, nc)
		if ok {
			spec.Vt = &vt
		}
	}
	if p.peek() == 't' {
		p.sc.GetCharNoSpace()
		secs, ok := p.sc.GetDouble(false, nil)
		if ok {
			ms := secs * 1000.0
			spec.TimeMs = &ms
		}
	}
	if !p.sc.TryCharNoSpace('}') {
		return nil, p.perr("unclosed '}' ramp block")
	}
	return spec, nil
}

func (p *Parser) assignScalar(node *program.ScriptOpData, letter byte, secondary bool, spec *program.RampSpec) {
	switch letter {
	case 'f':
		if secondary {
			node.DynFreq = spec
		} else {
			node.Freq = spec
		}
	case 'a':
		if secondary {
			node.DynAmp = spec
		} else {
			node.Amp = spec
		}
	case 'p', 'c':
		node.Pan = spec
	case 'r':
		node.Freq = spec
		node.FreqIsRatio = true
	}
}

func (p *Parser) assignList(node *program.ScriptOpData, letter byte, secondary bool, ids []program.OpKey) {
	node.ListsSet = true
	switch letter {
	case 'f':
		if secondary {
			node.FreqPMList = ids
		} else {
			node.FMList = ids
		}
	case 'r':
		node.RateFMList = ids
	case 'p':
		node.PMList = ids
	case 'a':
		if secondary {
			node.RingAMList = ids
		} else {
			node.AMList = ids
		}
	}
}
