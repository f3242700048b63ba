// Package collab defines the Go-shaped contracts an external
// lexer/parser/backend would implement against this compiler's core
// (spec.md §6 "EXTERNAL INTERFACES"). No implementation ships here: a
// real hand-written lexer+parser and a real native-code or VM backend
// are both out of this module's scope, exactly as the teacher's own
// internal/interp tests build *ast.Program literals by hand instead of
// invoking a real parser (internal/interp/astutil, internal/interp
// *_test.go). cmd/brickc accepts a Parser through its package-level
// SetParser for the same reason: so its tests can supply a hand-built
// ast.ParsedFile.
package collab

import (
	"github.com/brick-lang/brickc/internal/ast"
	"github.com/brick-lang/brickc/internal/errors"
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/lir"
)

// Parser turns brick source text into a ParsedFile, or a list of
// collected parse errors (the parser accumulates rather than stops at
// the first error, matching every other phase's Result<T, Vec<Error>>
// shape from spec.md §7).
type Parser interface {
	Parse(fileID ident.FileID, source string) (*ast.ParsedFile, []*errors.CompilerError)
}

// Backend consumes the fully lowered, laid-out program and produces
// whatever the back-end's own target is (native object code, a VM
// module, an interpreter-ready form — unspecified by this module).
type Backend interface {
	Emit(result lir.LowerResults) error
}

// Runtime supplies the handful of operations emitted LIR cannot perform
// on its own (spec.md §6 "Runtime functions required by emitted LIR").
type Runtime interface {
	Alloc(size uint64) (ptr uint64)
	Memcpy(dst, src, size uint64)
	StringConcat(a, b string) string
	Abort(reason string)
}
