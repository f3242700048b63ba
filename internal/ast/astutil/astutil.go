// Package astutil provides builder helpers for constructing AST fragments
// by hand, for use in tests that exercise the declaration context, type
// checker, HIR lowering, or LIR lowering without a real parser (the parser
// is an external collaborator, out of scope for this module; see
// spec.md §6). Grounded on the teacher compiler's internal/interp/astutil
// helper package.
package astutil

import (
	"github.com/brick-lang/brickc/internal/ast"
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/provenance"
)

// Builder wraps an Arena with convenience constructors; each takes the
// provenance range to attach to the node it adds (see At).
type Builder struct {
	File  ident.FileID
	Arena *ast.Arena
}

// New creates a Builder over a fresh arena for the given file.
func New(file ident.FileID) *Builder {
	return &Builder{File: file, Arena: ast.NewArena()}
}

// At returns a Range at the given line/column with length 1, for nodes
// whose exact span doesn't matter to the test.
func (b *Builder) At(line, col int) provenance.Range {
	return provenance.Range{File: b.File, Start: provenance.Position{Line: line, Column: col}, Length: 1}
}

func (b *Builder) add(v ast.Value, rng provenance.Range) ast.Index {
	return b.Arena.Add(v, rng)
}

// Name adds a Name node.
func (b *Builder) Name(name string, rng provenance.Range) ast.Index {
	return b.add(&ast.Name{Value: name}, rng)
}

// Int adds an IntLiteral node.
func (b *Builder) Int(v int64, rng provenance.Range) ast.Index {
	return b.add(&ast.IntLiteral{Value: v}, rng)
}

// Float adds a FloatLiteral node.
func (b *Builder) Float(v float64, rng provenance.Range) ast.Index {
	return b.add(&ast.FloatLiteral{Value: v}, rng)
}

// Bool adds a BoolLiteral node.
func (b *Builder) Bool(v bool, rng provenance.Range) ast.Index {
	return b.add(&ast.BoolLiteral{Value: v}, rng)
}

// Str adds a StringLiteral node.
func (b *Builder) Str(v string, rng provenance.Range) ast.Index {
	return b.add(&ast.StringLiteral{Value: v}, rng)
}

// Null adds a NullLiteral node.
func (b *Builder) Null(rng provenance.Range) ast.Index {
	return b.add(&ast.NullLiteral{}, rng)
}

// Bin adds a BinExpr node.
func (b *Builder) Bin(op ast.BinOp, lhs, rhs ast.Index, rng provenance.Range) ast.Index {
	return b.add(&ast.BinExpr{Op: op, Lhs: lhs, Rhs: rhs}, rng)
}

// Call adds a Call node.
func (b *Builder) Call(callee ast.Index, args []ast.Index, rng provenance.Range) ast.Index {
	return b.add(&ast.Call{Callee: callee, Args: args}, rng)
}

// Dot adds a Dot node.
func (b *Builder) Dot(target ast.Index, field string, rng provenance.Range) ast.Index {
	return b.add(&ast.Dot{Target: target, Field: field}, rng)
}

// Block adds a Block node.
func (b *Builder) Block(stmts []ast.Index, rng provenance.Range) ast.Index {
	return b.add(&ast.Block{Statements: stmts}, rng)
}

// ExprStmt adds an ExprStatement node.
func (b *Builder) ExprStmt(value ast.Index, rng provenance.Range) ast.Index {
	return b.add(&ast.ExprStatement{Value: value}, rng)
}

// VarDecl adds a VarDecl node. typeExpr may be -1 when omitted.
func (b *Builder) VarDecl(name string, typeExpr, value ast.Index, v ident.VariableID, rng provenance.Range) ast.Index {
	return b.add(&ast.VarDecl{Name: name, Type: typeExpr, Value: value, Variable: v}, rng)
}

// Assign adds an Assignment node.
func (b *Builder) Assign(target, value ast.Index, rng provenance.Range) ast.Index {
	return b.add(&ast.Assignment{Target: target, Value: value}, rng)
}

// Return adds a Return node. value may be -1 for a bare return.
func (b *Builder) Return(value ast.Index, rng provenance.Range) ast.Index {
	return b.add(&ast.Return{Value: value}, rng)
}

// CompoundAssign adds a CompoundAssign node (`target op= value`).
func (b *Builder) CompoundAssign(op ast.BinOp, target, value ast.Index, rng provenance.Range) ast.Index {
	return b.add(&ast.CompoundAssign{Op: op, Target: target, Value: value}, rng)
}

// NameType adds a NameTypeExpr node.
func (b *Builder) NameType(name string, rng provenance.Range) ast.Index {
	return b.add(&ast.NameTypeExpr{Name: name}, rng)
}

// NoIndex is the sentinel used throughout the AST for "absent" optional
// child indices (e.g. an omitted else-branch or type annotation).
const NoIndex ast.Index = -1
