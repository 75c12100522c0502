package pysrc

import "fmt"

// SyntaxError reports a structural problem that prevents parsing.
type SyntaxError struct {
	// Line is the 1-based line number where the problem was detected.
	Line int
	// Msg describes the problem.
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// lineState carries scanner state across physical lines.
type lineState struct {
	// inTriple is true while inside a triple-quoted string.
	inTriple bool
	// tripleQuote is the quote character of the open triple string.
	tripleQuote byte
	// depth is the current (), [], {} nesting depth outside strings.
	depth int
}

// lineScan is the result of scanning one physical line.
type lineScan struct {
	// code holds the line with string contents and comments blanked out.
	// Offsets match the original line; blanked positions hold spaces.
	code []byte
	// topColon is true if a ':' appears in code at bracket depth zero.
	topColon bool
	// continued is true if the line ends with a backslash continuation.
	continued bool
}

// scanLine scans one physical line, updating st in place.
// lineNo is 1-based and used only for error reporting.
func scanLine(line string, lineNo int, st *lineState) (lineScan, error) {
	res := lineScan{code: make([]byte, len(line))}
	for i := range res.code {
		res.code[i] = ' '
	}

	i := 0
	for i < len(line) {
		if st.inTriple {
			if isTripleAt(line, i, st.tripleQuote) {
				st.inTriple = false
				i += 3
				continue
			}
			// Skip escaped characters so \""" does not close the string.
			if line[i] == '\\' && i+1 < len(line) {
				i += 2
				continue
			}
			i++
			continue
		}

		c := line[i]
		switch {
		case c == '#':
			// Comment runs to end of line.
			i = len(line)

		case c == '\'' || c == '"':
			if isTripleAt(line, i, c) {
				st.inTriple = true
				st.tripleQuote = c
				i += 3
				continue
			}
			end, ok := scanShortString(line, i)
			if !ok {
				return res, &SyntaxError{Line: lineNo, Msg: "unterminated string literal"}
			}
			i = end

		case c == '(' || c == '[' || c == '{':
			res.code[i] = c
			st.depth++
			i++

		case c == ')' || c == ']' || c == '}':
			res.code[i] = c
			st.depth--
			if st.depth < 0 {
				return res, &SyntaxError{Line: lineNo, Msg: fmt.Sprintf("unmatched %q", string(c))}
			}
			i++

		case c == ':':
			res.code[i] = c
			if st.depth == 0 {
				res.topColon = true
			}
			i++

		case c == '\\' && i == len(line)-1:
			res.continued = true
			i++

		default:
			res.code[i] = c
			i++
		}
	}

	return res, nil
}

// isTripleAt reports whether a triple quote of the given character
// starts at position i.
func isTripleAt(line string, i int, quote byte) bool {
	return i+2 < len(line) && line[i] == quote && line[i+1] == quote && line[i+2] == quote
}

// scanShortString scans a single-quoted or double-quoted string starting
// at i and returns the offset just past its closing quote. Returns ok=false
// when the string is not terminated on this line.
func scanShortString(line string, i int) (int, bool) {
	quote := line[i]
	j := i + 1
	for j < len(line) {
		switch line[j] {
		case '\\':
			j += 2
		case quote:
			return j + 1, true
		default:
			j++
		}
	}
	return j, false
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
