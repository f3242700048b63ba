package hir

import (
	"testing"

	"github.com/brick-lang/brickc/internal/ast"
	"github.com/brick-lang/brickc/internal/ast/astutil"
	"github.com/brick-lang/brickc/internal/errors"
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/semantic"
	"github.com/brick-lang/brickc/internal/types"
)

// buildAddFile constructs:
//
//	fn add(a: int32, b: int32) int32 { return a + b; }
func buildAddFile(file ident.FileID) *ast.ParsedFile {
	b := astutil.New(file)
	rng := b.At(1, 1)

	aType := b.NameType("int32", rng)
	bType := b.NameType("int32", rng)
	retType := b.NameType("int32", rng)

	sum := b.Bin(ast.Add, b.Name("a", rng), b.Name("b", rng), rng)
	body := b.Block([]ast.Index{b.Return(sum, rng)}, rng)

	fnIdx := b.Arena.Add(&ast.FunctionDecl{
		Name:       "add",
		Params:     []ast.Param{{Name: "a", Type: aType}, {Name: "b", Type: bType}},
		ReturnType: retType,
		Body:       body,
	}, rng)

	return &ast.ParsedFile{File: file, Arena: b.Arena, TopLevel: []ast.Index{fnIdx}}
}

func checkAndLower(t *testing.T, pf *ast.ParsedFile) (*semantic.DeclarationContext, *Module, *ident.VariableIDAllocator) {
	t.Helper()
	dc, diags := semantic.Build([]semantic.FileInput{{ModuleName: "m", File: pf}})
	if diags.HasErrors() {
		t.Fatalf("unexpected declaration errors: %v", diags.Errors())
	}

	varIDs := &ident.VariableIDAllocator{}
	checker := semantic.NewChecker(dc, pf, varIDs)
	checker.CheckFile()
	if checker.Diagnostics().HasErrors() {
		t.Fatalf("unexpected type errors: %v", checker.Diagnostics().Errors())
	}

	m := Lower(dc, pf, varIDs)
	return dc, m, varIDs
}

func TestLowerArithmeticFunction(t *testing.T) {
	pf := buildAddFile(ident.FileID(1))
	_, m, _ := checkAndLower(t, pf)

	if len(m.Functions) != 1 {
		t.Fatalf("expected one lowered function, got %d", len(m.Functions))
	}
	fn := m.Functions[0]
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if fn.Returns.Kind != types.KPrimitive || fn.Returns.Primitive != types.Int32 {
		t.Fatalf("expected int32 return type, got %v", fn.Returns)
	}

	seq, ok := m.Arena.Get(fn.Body).Value.(*Sequence)
	if !ok || len(seq.Statements) != 1 {
		t.Fatalf("expected a single-statement body, got %#v", m.Arena.Get(fn.Body).Value)
	}
	ret, ok := m.Arena.Get(seq.Statements[0]).Value.(*Return)
	if !ok {
		t.Fatalf("expected Return, got %#v", m.Arena.Get(seq.Statements[0]).Value)
	}
	if _, ok := m.Arena.Get(ret.Value).Value.(*Arithmetic); !ok {
		t.Fatalf("expected Arithmetic return value, got %#v", m.Arena.Get(ret.Value).Value)
	}
}

func TestPassesRunCleanlyOnArithmeticFunction(t *testing.T) {
	pf := buildAddFile(ident.FileID(1))
	_, m, _ := checkAndLower(t, pf)

	diags := runAllPasses(t, m)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics from desugaring: %v", diags.Errors())
	}

	fn := m.Functions[0]
	seq := m.Arena.Get(fn.Body).Value.(*Sequence)
	ret := m.Arena.Get(seq.Statements[0]).Value.(*Return)
	// Both operands are already int32, so numeric-cast insertion must be a
	// no-op: the arithmetic's own operands stay bare VariableReferences.
	arith := m.Arena.Get(ret.Value).Value.(*Arithmetic)
	if _, ok := m.Arena.Get(arith.Lhs).Value.(*VariableReference); !ok {
		t.Fatalf("expected untouched VariableReference lhs, got %#v", m.Arena.Get(arith.Lhs).Value)
	}
}

// buildDiscardFile constructs:
//
//	fn one() int32 { return 1; }
//	fn main() int32 { one(); return 0; }
//
// so the discard-unused-values pass has a statement-position call to wrap.
func buildDiscardFile(file ident.FileID) *ast.ParsedFile {
	b := astutil.New(file)
	rng := b.At(1, 1)

	i32 := func() ast.Index { return b.NameType("int32", rng) }

	oneBody := b.Block([]ast.Index{b.Return(b.Int(1, rng), rng)}, rng)
	oneIdx := b.Arena.Add(&ast.FunctionDecl{Name: "one", ReturnType: i32(), Body: oneBody}, rng)

	call := b.Call(b.Name("one", rng), nil, rng)
	mainBody := b.Block([]ast.Index{
		b.ExprStmt(call, rng),
		b.Return(b.Int(0, rng), rng),
	}, rng)
	mainIdx := b.Arena.Add(&ast.FunctionDecl{Name: "main", ReturnType: i32(), Body: mainBody}, rng)

	return &ast.ParsedFile{File: file, Arena: b.Arena, TopLevel: []ast.Index{oneIdx, mainIdx}}
}

func TestDiscardPassWrapsUnusedCallValue(t *testing.T) {
	pf := buildDiscardFile(ident.FileID(1))
	_, m, _ := checkAndLower(t, pf)

	diags := runAllPasses(t, m)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics from desugaring: %v", diags.Errors())
	}

	var found bool
	for _, f := range m.Functions {
		seq, ok := m.Arena.Get(f.Body).Value.(*Sequence)
		if !ok || len(seq.Statements) < 2 {
			continue
		}
		if _, ok := m.Arena.Get(seq.Statements[0]).Value.(*Discard); ok {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the first statement of main's body to be wrapped in Discard")
	}
}

// buildCompoundAssignFile constructs:
//
//	fn incr() int32 { let x = 1; x += 2; return x; }
func buildCompoundAssignFile(file ident.FileID) *ast.ParsedFile {
	b := astutil.New(file)
	rng := b.At(1, 1)

	decl := b.VarDecl("x", astutil.NoIndex, b.Int(1, rng), 0, rng)
	compound := b.CompoundAssign(ast.Add, b.Name("x", rng), b.Int(2, rng), rng)
	body := b.Block([]ast.Index{
		decl,
		b.ExprStmt(compound, rng),
		b.Return(b.Name("x", rng), rng),
	}, rng)

	fnIdx := b.Arena.Add(&ast.FunctionDecl{
		Name:       "incr",
		ReturnType: b.NameType("int32", rng),
		Body:       body,
	}, rng)

	return &ast.ParsedFile{File: file, Arena: b.Arena, TopLevel: []ast.Index{fnIdx}}
}

func TestCompoundAssignDesugarsWithoutPanic(t *testing.T) {
	pf := buildCompoundAssignFile(ident.FileID(1))
	_, m, _ := checkAndLower(t, pf)

	diags := runAllPasses(t, m)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics from desugaring: %v", diags.Errors())
	}

	var sawFromCompound bool
	forEachFunctionNode(m, func(id NodeID, _ *Function) {
		if asn, ok := m.Arena.Get(id).Value.(*Assignment); ok && asn.FromCompound {
			sawFromCompound = true
		}
	})
	if !sawFromCompound {
		t.Fatal("expected a surviving FromCompound assignment for a plain-variable target")
	}
}

func runAllPasses(t *testing.T, m *Module) *errors.Diagnostics {
	t.Helper()
	diags := &errors.Diagnostics{}
	Passes().RunAll(m, diags)
	return diags
}
