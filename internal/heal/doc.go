// Package heal implements the multi-stage repair pipeline for watched
// source files.
//
// A pipeline run reads the file once and pushes its content through three
// stages in strict order:
//
//  1. PatchSyntax: line-oriented repair of missing block colons and a
//     malformed triple-quote escape. Heuristic, idempotent, never fails.
//  2. RewriteStructure: parses the text (package pysrc) and applies two
//     structural rewrites: logger.warn -> logger.warning, and prepending
//     self to definitions missing a receiver parameter. A parse failure
//     aborts the run and leaves the file on disk untouched.
//  3. Formatter: two subprocess passes through an external tool (format,
//     then fix). Tool failure degrades to pass-through with a warning;
//     a missing binary skips the stage entirely.
//
// Only runs that survive stage 2 write back to disk. The write goes
// through a temp file and rename so a crash mid-write cannot truncate
// the original.
package heal
