package lir

import (
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/semantic"
)

// ConstantPool holds the pooled byte-level constant data a module's
// instructions reference by index: string bytes today, and a natural
// home for any other constant blob a later phase wants to deduplicate
// (spec.md §4.4 "constant data pool").
type ConstantPool struct {
	Strings []string
}

// InternString returns the pool index of s, adding it if this is the
// first time s has been seen in this module.
func (p *ConstantPool) InternString(s string) int {
	for i, existing := range p.Strings {
		if existing == s {
			return i
		}
	}
	p.Strings = append(p.Strings, s)
	return len(p.Strings) - 1
}

// Function is one lowered function: its parameter locals, declared
// return type, and flat instruction list. Unlike hir.Function, control
// flow here is entirely explicit (Jump/JumpIfFalse/BindLabel) rather
// than nested If/While/Loop nodes.
type Function struct {
	ID         ident.FunctionID
	Params     []ident.VariableID
	ParamTypes []PhysicalType
	Returns    PhysicalType
	HasReturn  bool // false for a void-returning function

	Instructions []Op

	// IsCoroutine functions are only ever reached through GeneratorCreate
	// in HIR, which lowers to MakeGenerator rather than to a Call; Lower
	// still linearizes their bodies (Instructions is
	// populated) so a future resume-point splitter has something to work
	// from, but no Call/VtableCall in this module ever targets one.
	IsCoroutine bool
}

// Module is the per-file linear IR: one Function per HIR function, plus
// the constant pool and declared-type layout table computed for this
// file's types.
type Module struct {
	File      ident.FileID
	Functions []*Function
	Constants ConstantPool
	Layouts   *Layouts
}

// FunctionByID finds a lowered function by its FunctionID, or nil.
func (m *Module) FunctionByID(id ident.FunctionID) *Function {
	for _, f := range m.Functions {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// LowerResults is what the core exposes to a back-end (spec.md §6): every
// lowered function plus the declaration context and layouts a back-end
// needs to make sense of them. Named Function/Op rather than
// LinearFunction/LinearNode to avoid stuttering on the lir. package
// qualifier; internal/collab.Backend.Emit takes this shape directly.
type LowerResults struct {
	Functions    []*Function
	Declarations *semantic.DeclarationContext
	Layouts      *Layouts
}

// Results packages m's functions and layouts, plus the DeclarationContext
// used to build them, into a LowerResults for a Backend to consume.
func Results(m *Module, declarations *semantic.DeclarationContext) LowerResults {
	return LowerResults{Functions: m.Functions, Declarations: declarations, Layouts: m.Layouts}
}
