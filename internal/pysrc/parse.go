package pysrc

import (
	"sort"
	"strings"
)

// NodeKind identifies a structural node variant.
type NodeKind int

const (
	// KindCall is an attribute call expression with a bare identifier
	// receiver, e.g. logger.warn(...).
	KindCall NodeKind = iota
	// KindFuncDef is a function definition header that fits on one
	// physical line.
	KindFuncDef
)

// Node is a structural element recognized by the parser.
type Node interface {
	Kind() NodeKind
}

// CallExpr is a method call whose receiver is a bare identifier.
type CallExpr struct {
	// Receiver is the identifier the method is called on.
	Receiver string
	// Method is the called attribute name.
	Method string
	// Line is the 0-based source line index.
	Line int
	// MethodStart and MethodEnd are byte offsets of the method name
	// within the line.
	MethodStart int
	MethodEnd   int
}

// Kind implements Node.
func (*CallExpr) Kind() NodeKind { return KindCall }

// FuncDef is a function definition whose header sits on one physical line.
type FuncDef struct {
	// Name is the function name.
	Name string
	// Params holds the raw parameter texts, split on top-level commas.
	Params []string
	// FirstParam is the identifier of the first positional parameter,
	// or "" when the parameter list is empty or starts with *args/**kwargs.
	FirstParam string
	// Line is the 0-based source line index.
	Line int
	// ParamsStart is the byte offset just past the opening paren.
	ParamsStart int
	// ParamsEnd is the byte offset of the closing paren.
	ParamsEnd int
}

// Kind implements Node.
func (*FuncDef) Kind() NodeKind { return KindFuncDef }

// Visitor receives each recognized node in document order.
type Visitor interface {
	VisitCall(*CallExpr)
	VisitFuncDef(*FuncDef)
}

// Module is a parsed source file plus any pending text edits.
type Module struct {
	lines []string
	nodes []Node
	edits []edit
}

type edit struct {
	line  int
	start int
	end   int
	text  string
}

// blockKeywords are statement keywords whose logical line must carry a
// colon at bracket depth zero.
var blockKeywords = map[string]bool{
	"def": true, "class": true, "if": true, "elif": true, "else": true,
	"for": true, "while": true, "try": true, "except": true,
	"finally": true, "with": true,
}

// Parse validates src and builds a Module over its lines.
//
// Parse fails on unbalanced brackets, strings left open at end of file,
// and block-keyword statements that carry no colon. It deliberately does
// not attempt full grammar validation; the goal is to reject input that
// line-level repair could not fix, not to replace a real parser.
func Parse(src string) (*Module, error) {
	lines := strings.Split(src, "\n")
	mod := &Module{lines: lines}

	st := &lineState{}
	logStart := -1
	var logCode strings.Builder
	logColon := false

	for i, line := range lines {
		startedInTriple := st.inTriple
		scan, err := scanLine(line, i+1, st)
		if err != nil {
			return nil, err
		}

		if logStart < 0 {
			logStart = i
		}
		logCode.WriteByte(' ')
		logCode.Write(scan.code)
		if scan.topColon {
			logColon = true
		}

		// Nodes are only recognized on lines that begin outside a string.
		if !startedInTriple {
			mod.collectCalls(i, scan.code)
			if logStart == i {
				mod.collectFuncDef(i, scan.code)
			}
		}

		if st.inTriple || st.depth > 0 || scan.continued {
			continue
		}

		if err := checkBlockHeader(logCode.String(), logStart+1, logColon); err != nil {
			return nil, err
		}
		logStart = -1
		logCode.Reset()
		logColon = false
	}

	if st.inTriple {
		return nil, &SyntaxError{Line: len(lines), Msg: "unterminated triple-quoted string"}
	}
	if st.depth > 0 {
		return nil, &SyntaxError{Line: len(lines), Msg: "unbalanced brackets at end of file"}
	}
	if logStart >= 0 {
		if err := checkBlockHeader(logCode.String(), logStart+1, logColon); err != nil {
			return nil, err
		}
	}

	return mod, nil
}

// checkBlockHeader rejects block-keyword statements without a colon.
func checkBlockHeader(code string, lineNo int, hasColon bool) error {
	fields := strings.Fields(code)
	if len(fields) == 0 {
		return nil
	}
	first := fields[0]
	if first == "async" && len(fields) > 1 {
		first = fields[1]
	}
	if blockKeywords[first] && !hasColon {
		return &SyntaxError{Line: lineNo, Msg: "expected ':' after " + first + " statement"}
	}
	return nil
}

// collectCalls records bare-identifier attribute calls found on one line.
// code has strings and comments blanked, so offsets are trustworthy.
func (m *Module) collectCalls(lineIdx int, code []byte) {
	i := 0
	for i < len(code) {
		if !isIdentStart(code[i]) || (i > 0 && (isIdentByte(code[i-1]) || code[i-1] == '.')) {
			i++
			continue
		}
		recvStart := i
		for i < len(code) && isIdentByte(code[i]) {
			i++
		}
		if i >= len(code) || code[i] != '.' {
			continue
		}
		i++
		if i >= len(code) || !isIdentStart(code[i]) {
			continue
		}
		methStart := i
		for i < len(code) && isIdentByte(code[i]) {
			i++
		}
		methEnd := i
		j := i
		for j < len(code) && code[j] == ' ' {
			j++
		}
		if j >= len(code) || code[j] != '(' {
			continue
		}
		m.nodes = append(m.nodes, &CallExpr{
			Receiver:    string(code[recvStart : methStart-1]),
			Method:      string(code[methStart:methEnd]),
			Line:        lineIdx,
			MethodStart: methStart,
			MethodEnd:   methEnd,
		})
	}
}

// collectFuncDef records a def header when it fits on one physical line.
// Headers that spill across lines are validated elsewhere but produce no
// node; rewrites leave them alone.
func (m *Module) collectFuncDef(lineIdx int, code []byte) {
	i := 0
	for i < len(code) && code[i] == ' ' {
		i++
	}
	if hasWordAt(code, i, "async") {
		i += len("async")
		for i < len(code) && code[i] == ' ' {
			i++
		}
	}
	if !hasWordAt(code, i, "def") {
		return
	}
	i += len("def")
	for i < len(code) && code[i] == ' ' {
		i++
	}
	nameStart := i
	for i < len(code) && isIdentByte(code[i]) {
		i++
	}
	if i == nameStart {
		return
	}
	name := string(code[nameStart:i])
	for i < len(code) && code[i] == ' ' {
		i++
	}
	if i >= len(code) || code[i] != '(' {
		return
	}
	open := i
	depth := 0
	closing := -1
	for j := open; j < len(code); j++ {
		switch code[j] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				closing = j
			}
		}
		if closing >= 0 {
			break
		}
	}
	if closing < 0 {
		return
	}

	params := splitParams(code[open+1 : closing])
	def := &FuncDef{
		Name:        name,
		Params:      params,
		Line:        lineIdx,
		ParamsStart: open + 1,
		ParamsEnd:   closing,
	}
	if len(params) > 0 {
		def.FirstParam = firstParamName(params[0])
	}
	m.nodes = append(m.nodes, def)
}

// hasWordAt reports whether word starts at offset i with a word boundary
// after it.
func hasWordAt(code []byte, i int, word string) bool {
	if i+len(word) > len(code) || string(code[i:i+len(word)]) != word {
		return false
	}
	end := i + len(word)
	return end >= len(code) || !isIdentByte(code[end])
}

// splitParams splits a parameter list on top-level commas.
func splitParams(code []byte) []string {
	var params []string
	depth := 0
	start := 0
	flush := func(end int) {
		text := strings.TrimSpace(string(code[start:end]))
		if text != "" {
			params = append(params, text)
		}
	}
	for i, c := range code {
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(code))
	return params
}

// firstParamName extracts the identifier of a positional parameter, or ""
// for star parameters and anything that does not begin with an identifier.
func firstParamName(param string) string {
	if param == "" || param[0] == '*' {
		return ""
	}
	i := 0
	for i < len(param) && isIdentByte(param[i]) {
		i++
	}
	return param[:i]
}

// Walk dispatches every node to the visitor in document order.
func (m *Module) Walk(v Visitor) {
	for _, n := range m.nodes {
		switch node := n.(type) {
		case *CallExpr:
			v.VisitCall(node)
		case *FuncDef:
			v.VisitFuncDef(node)
		}
	}
}

// Nodes returns the recognized nodes in document order.
func (m *Module) Nodes() []Node {
	return m.nodes
}

// Replace queues a text replacement for the byte span [start, end) on the
// given 0-based line.
func (m *Module) Replace(line, start, end int, text string) {
	m.edits = append(m.edits, edit{line: line, start: start, end: end, text: text})
}

// Insert queues a text insertion at the given byte offset.
func (m *Module) Insert(line, pos int, text string) {
	m.edits = append(m.edits, edit{line: line, start: pos, end: pos, text: text})
}

// Render applies queued edits and returns the resulting source text.
// Edits on the same line are applied right to left so earlier offsets
// stay valid.
func (m *Module) Render() string {
	if len(m.edits) == 0 {
		return strings.Join(m.lines, "\n")
	}

	byLine := make(map[int][]edit)
	for _, e := range m.edits {
		byLine[e.line] = append(byLine[e.line], e)
	}

	out := make([]string, len(m.lines))
	copy(out, m.lines)
	for lineIdx, edits := range byLine {
		sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
		line := out[lineIdx]
		for _, e := range edits {
			line = line[:e.start] + e.text + line[e.end:]
		}
		out[lineIdx] = line
	}
	return strings.Join(out, "\n")
}
