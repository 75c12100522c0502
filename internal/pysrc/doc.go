// Package pysrc provides a lightweight structural parser for Python source.
//
// The parser recognizes exactly the constructs the healing transforms need:
// attribute call expressions and function definition headers. Everything else
// is validated for gross well-formedness (balanced brackets, terminated
// strings, block headers carrying a colon) and otherwise ignored.
//
// # Parsing Model
//
// Parse builds a Module over the original source lines. It does not produce
// a full abstract syntax tree; nodes carry byte offsets back into their
// source line so that rewrites can be applied as precise text edits and the
// untouched remainder of the file survives byte-for-byte.
//
//	mod, err := pysrc.Parse(src)
//	if err != nil {
//	    // malformed input: unbalanced brackets, unterminated string,
//	    // or a block header with no colon
//	}
//	mod.Walk(visitor)
//	out := mod.Render()
//
// # Node Set
//
// The node set is closed: CallExpr and FuncDef. A function definition whose
// header spans multiple physical lines is validated but not emitted as a
// node; rewrites treat it as an ignored variant.
package pysrc
