package semantic

import (
	"testing"

	"github.com/brick-lang/brickc/internal/ast"
	"github.com/brick-lang/brickc/internal/errors"
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/provenance"
	"github.com/brick-lang/brickc/internal/types"
)

func rng(file ident.FileID) provenance.Range {
	return provenance.Range{File: file, Start: provenance.Position{Line: 1, Column: 1}, Length: 1}
}

// buildStructFile constructs a single-file program declaring:
//
//	struct Point { x: int32, y: int32 }
//	fn make() Point { ... } (body omitted; declctx does not look at it)
func buildStructFile(file ident.FileID) *ast.ParsedFile {
	arena := ast.NewArena()
	xType := arena.Add(&ast.NameTypeExpr{Name: "int32"}, rng(file))
	yType := arena.Add(&ast.NameTypeExpr{Name: "int32"}, rng(file))
	structIdx := arena.Add(&ast.StructDecl{
		Name:   "Point",
		Fields: []ast.FieldDecl{{Name: "x", Type: xType}, {Name: "y", Type: yType}},
	}, rng(file))

	retType := arena.Add(&ast.NameTypeExpr{Name: "Point"}, rng(file))
	fnIdx := arena.Add(&ast.FunctionDecl{Name: "make", ReturnType: retType, Body: -1}, rng(file))

	return &ast.ParsedFile{File: file, Arena: arena, TopLevel: []ast.Index{structIdx, fnIdx}}
}

func TestBuildResolvesStructFields(t *testing.T) {
	pf := buildStructFile(1)
	dc, diags := Build([]FileInput{{ModuleName: "point", File: pf}})
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}

	structID := ident.TypeID{File: 1, Index: 1}
	td, ok := dc.Types[structID]
	if !ok {
		t.Fatalf("expected struct declaration at %v", structID)
	}
	if len(td.Fields) != 2 || td.Fields[0].Name != "x" || !td.Fields[0].Type.Equal(types.Prim(types.Int32)) {
		t.Fatalf("unexpected fields: %+v", td.Fields)
	}

	fnID := ident.FunctionID{File: 1, Index: 0}
	ft, ok := dc.Functions[fnID]
	if !ok {
		t.Fatalf("expected function declaration at %v", fnID)
	}
	if !ft.Returns.Equal(types.InstanceOf(structID)) {
		t.Fatalf("expected return type InstanceOf(Point), got %v", ft.Returns)
	}
}

func TestBuildRejectsDuplicateTopLevelName(t *testing.T) {
	file := ident.FileID(1)
	arena := ast.NewArena()
	a := arena.Add(&ast.StructDecl{Name: "Dup"}, rng(file))
	b := arena.Add(&ast.StructDecl{Name: "Dup"}, rng(file))
	pf := &ast.ParsedFile{File: file, Arena: arena, TopLevel: []ast.Index{a, b}}

	_, diags := Build([]FileInput{{ModuleName: "m", File: pf}})
	if !diags.HasErrors() {
		t.Fatal("expected a DeclarationNameConflict error")
	}
	found := false
	for _, e := range diags.Errors() {
		if e.Kind == errors.DeclarationNameConflict {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected DeclarationNameConflict among: %v", diags.Errors())
	}
}

func TestBuildRejectsPointerStructField(t *testing.T) {
	file := ident.FileID(1)
	arena := ast.NewArena()
	innerName := arena.Add(&ast.NameTypeExpr{Name: "int32"}, rng(file))
	ptrType := arena.Add(&ast.PointerTypeExpr{Kind: types.Unique, Inner: innerName}, rng(file))
	structIdx := arena.Add(&ast.StructDecl{
		Name:   "Bad",
		Fields: []ast.FieldDecl{{Name: "p", Type: ptrType}},
	}, rng(file))
	pf := &ast.ParsedFile{File: file, Arena: arena, TopLevel: []ast.Index{structIdx}}

	_, diags := Build([]FileInput{{ModuleName: "m", File: pf}})
	if !diags.HasErrors() {
		t.Fatal("expected IllegalReferenceInsideDataType error")
	}
}

func TestBuildResolvesImportBetweenFiles(t *testing.T) {
	fileA := ident.FileID(1)
	arenaA := ast.NewArena()
	structIdx := arenaA.Add(&ast.StructDecl{Name: "Widget"}, rng(fileA))
	pfA := &ast.ParsedFile{File: fileA, Arena: arenaA, TopLevel: []ast.Index{structIdx}}

	fileB := ident.FileID(2)
	arenaB := ast.NewArena()
	importIdx := arenaB.Add(&ast.ImportDecl{Path: []string{"self", "a", "Widget"}}, rng(fileB))
	widgetRef := arenaB.Add(&ast.NameTypeExpr{Name: "Widget"}, rng(fileB))
	fnIdx := arenaB.Add(&ast.FunctionDecl{Name: "useWidget", ReturnType: widgetRef, Body: -1}, rng(fileB))
	pfB := &ast.ParsedFile{File: fileB, Arena: arenaB, TopLevel: []ast.Index{importIdx, fnIdx}}

	dc, diags := Build([]FileInput{{ModuleName: "a", File: pfA}, {ModuleName: "b", File: pfB}})
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}

	fnID := ident.FunctionID{File: fileB, Index: 0}
	ft := dc.Functions[fnID]
	wantStruct := ident.TypeID{File: fileA, Index: 1}
	if !ft.Returns.Equal(types.InstanceOf(wantStruct)) {
		t.Fatalf("expected import to resolve to Widget, got %v", ft.Returns)
	}
}

func TestBuildRegistersIntrinsics(t *testing.T) {
	dc, _ := Build(nil)
	found := false
	for _, ft := range dc.Functions {
		if ft.Intrinsic != nil && *ft.Intrinsic == types.IntrinsicArrayPush {
			found = true
		}
	}
	if !found {
		t.Fatal("expected Array.push intrinsic to be registered")
	}
}
