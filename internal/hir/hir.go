// Package hir implements the tree-shaped intermediate representation
// described in spec.md §4.3: a desugared form of the fully-typed AST,
// produced by Lower and then rewritten in place by the fourteen ordered
// desugaring passes in Passes(). Unlike the AST, HIR is owned outright by
// its module (no external collaborator holds references into it), so
// nodes may be rewritten and cloned freely once lowering completes.
//
// Grounded on the teacher compiler's bytecode.Compiler tree-walk (the
// AST→bytecode lowering in internal/bytecode/compiler*.go): same
// recursive-descent-over-a-typed-tree shape, generalized from directly
// emitting flat bytecode to building an intermediate tree that a further
// phase (internal/lir) flattens.
package hir

import (
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/provenance"
	"github.com/brick-lang/brickc/internal/semantic"
	"github.com/brick-lang/brickc/internal/types"
)

// NodeID refers to a Node within an Arena. Cloning a subtree always
// allocates fresh NodeIDs for every node in the clone (spec.md §4.3
// "cloning an HirNode produces a fresh node_id").
type NodeID int

// NoNode is the sentinel for an absent optional child (an omitted
// else-branch, a bare `return`, and so on).
const NoNode NodeID = -1

// Value is implemented by every concrete HirNodeValue variant.
type Value interface {
	hirValue()
}

// Node is one entry in the arena: a value, its static type (carried over
// from the AST's type cell, or synthesized by a desugaring pass that
// introduces a node with no AST counterpart), and its source provenance.
type Node struct {
	Value      Value
	Type       types.ExpressionType
	Provenance provenance.Range
}

// Arena is the owning store of HIR nodes for one module. Unlike
// ast.Arena it permits in-place mutation of a node's Value: desugaring
// passes rewrite the tree by replacing nodes wholesale.
type Arena struct {
	nodes []Node
}

// NewArena creates an empty arena.
func NewArena() *Arena { return &Arena{} }

// Add appends a new node and returns its NodeID.
func (a *Arena) Add(v Value, t types.ExpressionType, rng provenance.Range) NodeID {
	a.nodes = append(a.nodes, Node{Value: v, Type: t, Provenance: rng})
	return NodeID(len(a.nodes) - 1)
}

// Get returns a mutable pointer to the node at id.
func (a *Arena) Get(id NodeID) *Node {
	return &a.nodes[id]
}

// Replace overwrites the value of an existing node in place, leaving its
// type as it was (Retype changes that), which is how a desugaring pass
// rewrites a node without disturbing whatever else still refers to its
// NodeID.
func (a *Arena) Replace(id NodeID, v Value) {
	a.nodes[id].Value = v
}

// Retype overwrites a node's static type. Constant inlining uses it to
// give a replaced constant reference the type of the cloned initializer,
// and lvalue temporaries to mark the Sequence that replaces a compound
// assignment as Void.
func (a *Arena) Retype(id NodeID, t types.ExpressionType) {
	a.nodes[id].Type = t
}

// Len reports how many nodes the arena holds.
func (a *Arena) Len() int { return len(a.nodes) }

// Function is one lowered function body: its parameters (already bound
// to VariableIDs by the parser/checker), whether it is a coroutine, and
// its body as a single Sequence node. nextLabel hands out the GotoLabel/
// GeneratorSuspend label sequence used by the yield-rewriting pass; it
// is function-scoped because each coroutine has its own resume-point
// numbering (spec.md §4.3 "a shared label counter").
type Function struct {
	ID          ident.FunctionID
	Params      []ident.VariableID
	Returns     types.ExpressionType
	IsCoroutine bool
	Body        NodeID

	nextLabel int
}

// NextLabel allocates the next yield/goto label for this function.
func (f *Function) NextLabel() int {
	l := f.nextLabel
	f.nextLabel++
	return l
}

// Module is the per-file HIR: an arena, the file's lowered functions, and
// the lowered initializer of every constant declared in this file (kept
// so the constant-inlining pass can clone a constant's value wherever it
// is referenced, per spec.md §4.3 pass 2).
type Module struct {
	File      ident.FileID
	Arena     *Arena
	Functions []*Function
	Constants map[ident.ConstantID]NodeID

	// DC is the shared declaration context Lower built this module
	// against. Desugaring passes consult it for struct field layouts,
	// function signatures, and interface vtables rather than threading a
	// parallel parameter through every pass.
	DC *semantic.DeclarationContext

	// VarIDs is the same global allocator Lower used for match-scrutinee
	// temporaries, shared with later passes (lvalue temporaries) that
	// synthesize their own fresh locals.
	VarIDs *ident.VariableIDAllocator
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
