package semantic

import (
	"testing"

	"github.com/brick-lang/brickc/internal/ast"
	"github.com/brick-lang/brickc/internal/ast/astutil"
	"github.com/brick-lang/brickc/internal/errors"
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/types"
)

// buildAddFile constructs:
//
//	fn add(a: int32, b: int32) int32 { return a + b; }
func buildAddFile(file ident.FileID) (*ast.ParsedFile, ast.Index) {
	b := astutil.New(file)
	rng := b.At(1, 1)

	aType := b.NameType("int32", rng)
	bType := b.NameType("int32", rng)
	retType := b.NameType("int32", rng)

	aName := b.Name("a", rng)
	bName := b.Name("b", rng)
	sum := b.Bin(ast.Add, aName, bName, rng)
	ret := b.Return(sum, rng)
	body := b.Block([]ast.Index{ret}, rng)

	fnIdx := b.Arena.Add(&ast.FunctionDecl{
		Name:       "add",
		Params:     []ast.Param{{Name: "a", Type: aType}, {Name: "b", Type: bType}},
		ReturnType: retType,
		Body:       body,
	}, rng)

	return &ast.ParsedFile{File: file, Arena: b.Arena, TopLevel: []ast.Index{fnIdx}}, ret
}

func TestCheckFileTypesArithmeticReturn(t *testing.T) {
	file := ident.FileID(1)
	pf, retIdx := buildAddFile(file)

	dc, diags := Build([]FileInput{{ModuleName: "m", File: pf}})
	if diags.HasErrors() {
		t.Fatalf("unexpected declaration errors: %v", diags.Errors())
	}

	checker := NewChecker(dc, pf, &ident.VariableIDAllocator{})
	checker.CheckFile()

	if checker.Diagnostics().HasErrors() {
		t.Fatalf("unexpected type errors: %v", checker.Diagnostics().Errors())
	}

	retNode := pf.Arena.Get(retIdx)
	if typ, ok := retNode.Type(); !ok || typ.Kind != types.KUnreachable {
		t.Fatalf("expected return statement to be typed Unreachable, got %v (set=%v)", typ, ok)
	}
}

func TestCheckFileRejectsBadReturnType(t *testing.T) {
	file := ident.FileID(1)
	b := astutil.New(file)
	rng := b.At(1, 1)

	boolRet := b.NameType("bool", rng)
	intVal := b.Int(1, rng)
	ret := b.Return(intVal, rng)
	body := b.Block([]ast.Index{ret}, rng)

	fnIdx := b.Arena.Add(&ast.FunctionDecl{Name: "bad", ReturnType: boolRet, Body: body}, rng)
	pf := &ast.ParsedFile{File: file, Arena: b.Arena, TopLevel: []ast.Index{fnIdx}}

	dc, diags := Build([]FileInput{{ModuleName: "m", File: pf}})
	if diags.HasErrors() {
		t.Fatalf("unexpected declaration errors: %v", diags.Errors())
	}

	checker := NewChecker(dc, pf, &ident.VariableIDAllocator{})
	checker.CheckFile()

	found := false
	for _, e := range checker.Diagnostics().Errors() {
		if e.Kind == errors.TypeMismatch {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a TypeMismatch error, got: %v", checker.Diagnostics().Errors())
	}
}

func TestCheckFileRejectsPointerVarDecl(t *testing.T) {
	file := ident.FileID(1)
	b := astutil.New(file)
	rng := b.At(1, 1)

	intVal := b.Int(1, rng)
	ptrVal := b.Arena.Add(&ast.TakeUnique{Operand: intVal}, rng)
	varDecl := b.VarDecl("p", astutil.NoIndex, ptrVal, ident.VariableID(1), rng)
	exprStmt := b.ExprStmt(b.Int(0, rng), rng)
	body := b.Block([]ast.Index{varDecl, exprStmt}, rng)

	voidRet := astutil.NoIndex
	fnIdx := b.Arena.Add(&ast.FunctionDecl{Name: "f", ReturnType: voidRet, Body: body}, rng)
	pf := &ast.ParsedFile{File: file, Arena: b.Arena, TopLevel: []ast.Index{fnIdx}}

	dc, diags := Build([]FileInput{{ModuleName: "m", File: pf}})
	if diags.HasErrors() {
		t.Fatalf("unexpected declaration errors: %v", diags.Errors())
	}

	checker := NewChecker(dc, pf, &ident.VariableIDAllocator{})
	checker.CheckFile()

	found := false
	for _, e := range checker.Diagnostics().Errors() {
		if e.Kind == errors.IllegalFirstClassReference {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected IllegalFirstClassReference error, got: %v", checker.Diagnostics().Errors())
	}
}
