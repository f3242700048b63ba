// Package errors formats and accumulates compiler diagnostics. It keeps
// the original compiler's CompilerError shape — a message plus a source
// position, with a renderer that prints a source line and a caret — but
// replaces the open-ended string message with the closed ErrorKind
// taxonomy from spec.md §7, replaces lexer.Position with provenance.Range
// (spans, not just points), and adds a Diagnostics accumulator so a whole
// phase can collect every error it finds instead of stopping at the
// first (spec.md §7 "errors are accumulated within a phase where
// possible").
package errors

import (
	"fmt"
	"strings"

	"github.com/brick-lang/brickc/internal/provenance"
)

// ErrorKind is the closed taxonomy of diagnostic kinds from spec.md §7.
// Lex and parse errors are excluded: those are produced by the external
// lexer/parser collaborators (spec.md §6), not this module.
type ErrorKind int

const (
	// Declaration context errors
	DeclarationNameConflict ErrorKind = iota
	IllegalImport
	FileNotFound
	ImportPathMustBeModule
	IllegalReferenceInsideDataType
	UnknownProperty

	// Type checker errors
	NameNotFound
	TypeMismatch
	FieldNotPresent
	ExportNotFound
	ArithmeticMismatch
	ExpectedNullableLHS
	CaseStatementRequiresUnion
	BindingCountDoesntMatch
	BindingNameDoesntMatch
	NonExhaustiveCase
	IllegalDotLHS
	IllegalDotRHS
	IllegalAssignmentLHS
	IllegalSharedRefMutation
	IllegalFirstClassReference
	IllegalNonLvalueBorrow
	IllegalNonRefBorrow
	DereferenceNonPointer
	CantCall
	WrongArgsCount
	MissingField
	NonStructDeclStructLiteral
	MustReturnGenerator
	CannotYield
	NoNullDeclarations
	TopLevelConstantMustHaveType
	NonConstantInConst
	CantAssignToReference
	SelfParameterInNonAssociatedFunc

	// InternalError marks a phase-fatal condition rather than a
	// recoverable source-level diagnostic.
	InternalError
)

var kindNames = [...]string{
	"DeclarationNameConflict",
	"IllegalImport",
	"FileNotFound",
	"ImportPathMustBeModule",
	"IllegalReferenceInsideDataType",
	"UnknownProperty",
	"NameNotFound",
	"TypeMismatch",
	"FieldNotPresent",
	"ExportNotFound",
	"ArithmeticMismatch",
	"ExpectedNullableLHS",
	"CaseStatementRequiresUnion",
	"BindingCountDoesntMatch",
	"BindingNameDoesntMatch",
	"NonExhaustiveCase",
	"IllegalDotLHS",
	"IllegalDotRHS",
	"IllegalAssignmentLHS",
	"IllegalSharedRefMutation",
	"IllegalFirstClassReference",
	"IllegalNonLvalueBorrow",
	"IllegalNonRefBorrow",
	"DereferenceNonPointer",
	"CantCall",
	"WrongArgsCount",
	"MissingField",
	"NonStructDeclStructLiteral",
	"MustReturnGenerator",
	"CannotYield",
	"NoNullDeclarations",
	"TopLevelConstantMustHaveType",
	"NonConstantInConst",
	"CantAssignToReference",
	"SelfParameterInNonAssociatedFunc",
	"InternalError",
}

func (k ErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// CompilerError is a single diagnostic: a kind, a message, and the
// provenance it refers to. Related is set for diagnostics that reference
// a second location, e.g. DeclarationNameConflict naming the earlier
// declaration.
type CompilerError struct {
	Kind    ErrorKind
	Message string
	Pos     provenance.Range
	Related *provenance.Range
	Source  string
	File    string
}

// NewCompilerError creates a CompilerError.
func NewCompilerError(kind ErrorKind, pos provenance.Range, message, source, file string) *CompilerError {
	return &CompilerError{Kind: kind, Pos: pos, Message: message, Source: source, File: file}
}

// New creates a CompilerError without source text attached, for diagnostics
// raised during the declaration-context and type-checking phases, which
// work from the AST rather than the original source bytes.
func New(kind ErrorKind, pos provenance.Range, message string) *CompilerError {
	return NewCompilerError(kind, pos, message, "", "")
}

// WithRelated attaches a second provenance and returns the receiver.
func (e *CompilerError) WithRelated(pos provenance.Range) *CompilerError {
	e.Related = &pos
	return e
}

// Error implements the error interface.
func (e *CompilerError) Error() string {
	return e.Format(false)
}

// Format formats the error message with source context.
// If color is true, ANSI color codes are used for terminal output.
func (e *CompilerError) Format(color bool) string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(fmt.Sprintf("%s in %s:%d:%d\n", e.Kind, e.File, e.Pos.Start.Line, e.Pos.Start.Column))
	} else {
		sb.WriteString(fmt.Sprintf("%s at line %d:%d\n", e.Kind, e.Pos.Start.Line, e.Pos.Start.Column))
	}

	sourceLine := e.getSourceLine(e.Pos.Start.Line)
	if sourceLine != "" {
		lineNumStr := fmt.Sprintf("%4d | ", e.Pos.Start.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(sourceLine)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+e.Pos.Start.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString(strings.Repeat("^", caretWidth(e.Pos.Length)))
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

func caretWidth(length int) int {
	if length < 1 {
		return 1
	}
	return length
}

// getSourceLine extracts a specific line from the source code.
// Lines are 1-indexed.
func (e *CompilerError) getSourceLine(lineNum int) string {
	if e.Source == "" {
		return ""
	}

	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}

	return lines[lineNum-1]
}

// getSourceContext extracts multiple lines around the error for context.
// Returns lines from (lineNum - contextBefore) to (lineNum + contextAfter).
func (e *CompilerError) getSourceContext(lineNum, contextBefore, contextAfter int) []string {
	if e.Source == "" {
		return nil
	}

	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return nil
	}

	start := lineNum - contextBefore
	if start < 1 {
		start = 1
	}

	end := lineNum + contextAfter
	if end > len(lines) {
		end = len(lines)
	}

	return lines[start-1 : end]
}

// FormatWithContext formats the error with surrounding source context.
func (e *CompilerError) FormatWithContext(contextLines int, color bool) string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(fmt.Sprintf("%s in %s:%d:%d\n", e.Kind, e.File, e.Pos.Start.Line, e.Pos.Start.Column))
	} else {
		sb.WriteString(fmt.Sprintf("%s at line %d:%d\n", e.Kind, e.Pos.Start.Line, e.Pos.Start.Column))
	}

	contextLinesList := e.getSourceContext(e.Pos.Start.Line, contextLines, contextLines)
	if len(contextLinesList) == 0 {
		return e.Format(color)
	}

	startLine := e.Pos.Start.Line - contextLines
	if startLine < 1 {
		startLine = 1
	}

	for i, line := range contextLinesList {
		currentLine := startLine + i
		lineNumStr := fmt.Sprintf("%4d | ", currentLine)

		if currentLine == e.Pos.Start.Line {
			if color {
				sb.WriteString("\033[1m")
			}
			sb.WriteString(lineNumStr)
			sb.WriteString(line)
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")

			sb.WriteString(strings.Repeat(" ", len(lineNumStr)+e.Pos.Start.Column-1))
			if color {
				sb.WriteString("\033[1;31m")
			}
			sb.WriteString(strings.Repeat("^", caretWidth(e.Pos.Length)))
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		} else {
			if color {
				sb.WriteString("\033[2m")
			}
			sb.WriteString(lineNumStr)
			sb.WriteString(line)
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

// FormatErrors formats multiple compiler errors.
func FormatErrors(errs []*CompilerError, color bool) string {
	if len(errs) == 0 {
		return ""
	}

	if len(errs) == 1 {
		return errs[0].Format(color)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("compilation failed with %d error(s):\n\n", len(errs)))

	for i, err := range errs {
		sb.WriteString(fmt.Sprintf("[Error %d of %d]\n", i+1, len(errs)))
		sb.WriteString(err.Format(color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}

	return sb.String()
}

// FormatErrorsWithContext formats multiple compiler errors with source context.
func FormatErrorsWithContext(errs []*CompilerError, contextLines int, color bool) string {
	if len(errs) == 0 {
		return ""
	}

	if len(errs) == 1 {
		return errs[0].FormatWithContext(contextLines, color)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("compilation failed with %d error(s):\n\n", len(errs)))

	for i, err := range errs {
		sb.WriteString(fmt.Sprintf("[Error %d of %d]\n", i+1, len(errs)))
		sb.WriteString(err.FormatWithContext(contextLines, color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}

	return sb.String()
}

// Diagnostics accumulates errors across a phase, so e.g. every mismatched
// call argument is reported instead of only the first (spec.md §7).
type Diagnostics struct {
	errors []*CompilerError
	fatal  bool
}

// Add records a recoverable diagnostic.
func (d *Diagnostics) Add(e *CompilerError) {
	d.errors = append(d.errors, e)
}

// Addf builds and records a CompilerError without source/file context;
// callers needing caret rendering build the error with NewCompilerError,
// which takes the source text and file name, and record it via Add.
func (d *Diagnostics) Addf(kind ErrorKind, pos provenance.Range, format string, args ...any) {
	d.Add(&CompilerError{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Fatal records a diagnostic and marks the phase as unable to continue,
// e.g. declaration resolution failing before type checking can run
// (spec.md §7 "cross-phase errors halt").
func (d *Diagnostics) Fatal(e *CompilerError) {
	d.errors = append(d.errors, e)
	d.fatal = true
}

// HasErrors reports whether any diagnostic was recorded.
func (d *Diagnostics) HasErrors() bool {
	return len(d.errors) > 0
}

// HasFatal reports whether a fatal diagnostic was recorded.
func (d *Diagnostics) HasFatal() bool {
	return d.fatal
}

// Errors returns the accumulated diagnostics in report order.
func (d *Diagnostics) Errors() []*CompilerError {
	return d.errors
}

// Merge appends another Diagnostics' errors, propagating fatality. Used
// to combine sibling-expression diagnostics during a single recursive
// type-checking walk (spec.md §4.2).
func (d *Diagnostics) Merge(other *Diagnostics) {
	d.errors = append(d.errors, other.errors...)
	if other.fatal {
		d.fatal = true
	}
}

// FromStringErrors converts plain string error messages (e.g. from an
// external collaborator that does not yet report structured positions)
// into CompilerErrors tagged InternalError.
func FromStringErrors(stringErrors []string, source, file string) []*CompilerError {
	errs := make([]*CompilerError, 0, len(stringErrors))

	for _, errStr := range stringErrors {
		pos, message := parseErrorString(errStr)
		errs = append(errs, NewCompilerError(InternalError, pos, message, source, file))
	}

	return errs
}

// parseErrorString attempts to extract position information from an
// error string. Expected format: "...at LINE:COLUMN" or "message".
func parseErrorString(errStr string) (provenance.Range, string) {
	atIndex := strings.LastIndex(errStr, " at ")
	if atIndex == -1 {
		return provenance.Range{}, errStr
	}

	posStr := errStr[atIndex+4:]
	message := strings.TrimSpace(errStr[:atIndex])

	var line, column int
	_, err := fmt.Sscanf(posStr, "%d:%d", &line, &column)
	if err != nil {
		return provenance.Range{}, errStr
	}

	return provenance.Range{Start: provenance.Position{Line: line, Column: column}, Length: 1}, message
}
