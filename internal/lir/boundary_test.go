package lir

import (
	"testing"

	"github.com/brick-lang/brickc/internal/ast"
	"github.com/brick-lang/brickc/internal/ast/astutil"
	"github.com/brick-lang/brickc/internal/errors"
	"github.com/brick-lang/brickc/internal/hir"
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/semantic"
	"github.com/brick-lang/brickc/internal/types"
	"github.com/gkampitakis/go-snaps/snaps"
)

// Each buildScenarioN function below hand-builds one of spec.md §8's
// seven boundary-scenario programs (no real parser — an external
// collaborator, see internal/collab) and is carried through every phase
// this module implements: declaration context, type checker, HIR
// desugaring, and LIR linearization.

// scenario 1: `let x = 5; x + 2` — Int32, single function returning the
// arithmetic result.
func buildScenario1(file ident.FileID) *ast.ParsedFile {
	b := astutil.New(file)
	rng := b.At(1, 1)
	varIDs := &ident.VariableIDAllocator{}

	five := b.Int(5, rng)
	xDecl := b.VarDecl("x", astutil.NoIndex, five, varIDs.Next(), rng)
	sum := b.Bin(ast.Add, b.Name("x", rng), b.Int(2, rng), rng)
	body := b.Block([]ast.Index{xDecl, b.Return(sum, rng)}, rng)
	retType := b.NameType("int32", rng)
	fn := b.Arena.Add(&ast.FunctionDecl{Name: "run", ReturnType: retType, Body: body}, rng)
	return &ast.ParsedFile{File: file, Arena: b.Arena, TopLevel: []ast.Index{fn}}
}

// scenario 2: `let x: i64? = null; x ?? 3` — the null-coalesce evaluates
// to 3 of type Int64.
func buildScenario2(file ident.FileID) *ast.ParsedFile {
	b := astutil.New(file)
	rng := b.At(1, 1)
	varIDs := &ident.VariableIDAllocator{}

	xType := b.Arena.Add(&ast.NullableTypeExpr{Inner: b.NameType("int64", rng)}, rng)
	null := b.Null(rng)
	xDecl := b.VarDecl("x", xType, null, varIDs.Next(), rng)
	coalesce := b.Bin(ast.NullCoalesce, b.Name("x", rng), b.Int(3, rng), rng)
	body := b.Block([]ast.Index{xDecl, b.Return(coalesce, rng)}, rng)
	retType := b.NameType("int64", rng)
	fn := b.Arena.Add(&ast.FunctionDecl{Name: "run", ReturnType: retType, Body: body}, rng)
	return &ast.ParsedFile{File: file, Arena: b.Arena, TopLevel: []ast.Index{fn}}
}

// scenario 3: `union U { A, B(i32) } ... match u { case A => 0, case B(x) => x }`
// is exhaustive; dropping the `exhaustive` flag removes the `A` case to
// force NonExhaustiveCase.
func buildScenario3(file ident.FileID, exhaustive bool) *ast.ParsedFile {
	b := astutil.New(file)
	rng := b.At(1, 1)
	varIDs := &ident.VariableIDAllocator{}

	payload := b.NameType("int32", rng)
	union := b.Arena.Add(&ast.UnionDecl{
		Name: "U",
		Variants: []ast.VariantDecl{
			{Name: "A", Payload: astutil.NoIndex},
			{Name: "B", Payload: payload},
		},
	}, rng)

	uType := b.NameType("U", rng)
	uArg := ast.Param{Name: "u", Type: uType, Variable: varIDs.Next()}

	cases := []ast.MatchCase{
		{Variants: []string{"B"}, Binding: "x", Variable: varIDs.Next(),
			Body: b.Block([]ast.Index{b.ExprStmt(b.Name("x", rng), rng)}, rng)},
	}
	if exhaustive {
		cases = append([]ast.MatchCase{
			{Variants: []string{"A"}, Body: b.Block([]ast.Index{b.ExprStmt(b.Int(0, rng), rng)}, rng)},
		}, cases...)
	}
	match := b.Arena.Add(&ast.Match{Value: b.Name("u", rng), Cases: cases}, rng)
	body := b.Block([]ast.Index{b.ExprStmt(match, rng), b.Return(astutil.NoIndex, rng)}, rng)

	fn := b.Arena.Add(&ast.FunctionDecl{Name: "run", Params: []ast.Param{uArg}, Body: body}, rng)
	return &ast.ParsedFile{File: file, Arena: b.Arena, TopLevel: []ast.Index{union, fn}}
}

// scenario 4: `struct S { f: i32 } fn S.m(self: shared S): i32 { self.f }
// ... let s = S{f:1}; s.m()` — auto-dereference wraps `self.f`.
func buildScenario4(file ident.FileID) *ast.ParsedFile {
	b := astutil.New(file)
	rng := b.At(1, 1)
	varIDs := &ident.VariableIDAllocator{}

	fType := b.NameType("int32", rng)
	structDecl := b.Arena.Add(&ast.StructDecl{Name: "S", Fields: []ast.FieldDecl{{Name: "f", Type: fType}}}, rng)

	selfField := b.Dot(b.Name("self", rng), "f", rng)
	method := b.Arena.Add(&ast.FunctionDecl{
		Name:         "m",
		AssociatedOn: "S",
		Self:         ast.SharedSelf,
		SelfVariable: varIDs.Next(),
		ReturnType:   b.NameType("int32", rng),
		Body:         b.Block([]ast.Index{b.Return(selfField, rng)}, rng),
	}, rng)

	sType := b.NameType("S", rng)
	lit := b.Arena.Add(&ast.StructLiteral{Type: sType, Fields: []ast.FieldInit{{Name: "f", Value: b.Int(1, rng)}}}, rng)
	sDecl := b.VarDecl("s", astutil.NoIndex, lit, varIDs.Next(), rng)
	call := b.Call(b.Dot(b.Name("s", rng), "m", rng), nil, rng)
	body := b.Block([]ast.Index{sDecl, b.Return(call, rng)}, rng)
	retType := b.NameType("int32", rng)
	run := b.Arena.Add(&ast.FunctionDecl{Name: "run", ReturnType: retType, Body: body}, rng)

	return &ast.ParsedFile{File: file, Arena: b.Arena, TopLevel: []ast.Index{structDecl, method, run}}
}

// scenario 5: `interface I { fn run(self): i32 } struct S {} fn S.run(self: shared S): i32 { 7 }
// ... let i: I = S{}; i.run()` — StructToInterface wraps the literal with
// a vtable mapping I.run → S.run.
func buildScenario5(file ident.FileID) *ast.ParsedFile {
	b := astutil.New(file)
	rng := b.At(1, 1)
	varIDs := &ident.VariableIDAllocator{}

	iface := b.Arena.Add(&ast.InterfaceDecl{
		Name:    "I",
		Methods: []ast.MethodSig{{Name: "run", ReturnType: b.NameType("int32", rng)}},
	}, rng)

	structDecl := b.Arena.Add(&ast.StructDecl{Name: "S"}, rng)

	method := b.Arena.Add(&ast.FunctionDecl{
		Name:         "run",
		AssociatedOn: "S",
		Self:         ast.SharedSelf,
		SelfVariable: varIDs.Next(),
		ReturnType:   b.NameType("int32", rng),
		Body:         b.Block([]ast.Index{b.Return(b.Int(7, rng), rng)}, rng),
	}, rng)

	sType := b.NameType("S", rng)
	lit := b.Arena.Add(&ast.StructLiteral{Type: sType}, rng)
	iType := b.NameType("I", rng)
	iDecl := b.VarDecl("i", iType, lit, varIDs.Next(), rng)
	call := b.Call(b.Dot(b.Name("i", rng), "run", rng), nil, rng)
	body := b.Block([]ast.Index{iDecl, b.Return(call, rng)}, rng)
	retType := b.NameType("int32", rng)
	// Named "main" rather than "run": declaration names share one
	// top-level namespace regardless of AssociatedOn, so this can't
	// collide with S.run.
	driver := b.Arena.Add(&ast.FunctionDecl{Name: "main", ReturnType: retType, Body: body}, rng)

	return &ast.ParsedFile{File: file, Arena: b.Arena, TopLevel: []ast.Index{iface, structDecl, method, driver}}
}

// scenario 6: `let arr = list[i32][1,2,3]; arr.push(4); arr[3]` — compiles
// and yields 4; the out-of-bounds `arr[10]` abort is a runtime property
// this module's intrinsic-call/index lowering exposes but cannot itself
// execute (no Backend ships in this module, spec.md §6).
func buildScenario6(file ident.FileID) *ast.ParsedFile {
	b := astutil.New(file)
	rng := b.At(1, 1)
	varIDs := &ident.VariableIDAllocator{}

	elemType := b.NameType("int32", rng)
	arrLit := b.Arena.Add(&ast.ArrayLiteral{
		ElemType: elemType,
		Elements: []ast.Index{b.Int(1, rng), b.Int(2, rng), b.Int(3, rng)},
	}, rng)
	arrDecl := b.VarDecl("arr", astutil.NoIndex, arrLit, varIDs.Next(), rng)

	push := b.ExprStmt(b.Call(b.Dot(b.Name("arr", rng), "push", rng), []ast.Index{b.Int(4, rng)}, rng), rng)
	index := b.Arena.Add(&ast.IndexExpr{Target: b.Name("arr", rng), Index: b.Int(3, rng)}, rng)

	body := b.Block([]ast.Index{arrDecl, push, b.Return(index, rng)}, rng)
	retType := b.NameType("int32", rng)
	fn := b.Arena.Add(&ast.FunctionDecl{Name: "run", ReturnType: retType, Body: body}, rng)
	return &ast.ParsedFile{File: file, Arena: b.Arena, TopLevel: []ast.Index{fn}}
}

// scenario 7: `let x: i32 = 1; let p = shared x; *p = 5` — rejected with
// IllegalSharedRefMutation.
func buildScenario7(file ident.FileID) *ast.ParsedFile {
	b := astutil.New(file)
	rng := b.At(1, 1)
	varIDs := &ident.VariableIDAllocator{}

	xDecl := b.VarDecl("x", b.NameType("int32", rng), b.Int(1, rng), varIDs.Next(), rng)
	pDecl := b.Arena.Add(&ast.BorrowDecl{Name: "p", Kind: types.Shared, Value: b.Name("x", rng), Variable: varIDs.Next()}, rng)

	deref := b.Arena.Add(&ast.Dereference{Operand: b.Name("p", rng)}, rng)
	assign := b.ExprStmt(b.Assign(deref, b.Int(5, rng), rng), rng)

	body := b.Block([]ast.Index{xDecl, pDecl, assign}, rng)
	fn := b.Arena.Add(&ast.FunctionDecl{Name: "run", Body: body}, rng)
	return &ast.ParsedFile{File: file, Arena: b.Arena, TopLevel: []ast.Index{fn}}
}

// checkBoundary runs every in-scope phase over pf. The third return
// value is nil whenever an earlier phase (declaration context, type
// checking, or desugaring) reported an error, since there is nothing
// meaningful to linearize in that case.
func checkBoundary(t *testing.T, pf *ast.ParsedFile) (*semantic.DeclarationContext, *errors.Diagnostics, *Module) {
	t.Helper()
	dc, declDiags := semantic.Build([]semantic.FileInput{{ModuleName: "m", File: pf}})
	if declDiags.HasErrors() {
		return dc, declDiags, nil
	}

	varIDs := &ident.VariableIDAllocator{}
	checker := semantic.NewChecker(dc, pf, varIDs)
	checker.CheckFile()
	if checker.Diagnostics().HasErrors() {
		return dc, checker.Diagnostics(), nil
	}

	hm := hir.Lower(dc, pf, varIDs)
	hirDiags := &errors.Diagnostics{}
	hir.Passes().RunAll(hm, hirDiags)
	if hirDiags.HasErrors() {
		return dc, hirDiags, nil
	}

	layouts := BuildLayouts(dc)
	return dc, nil, Lower(hm, layouts)
}

func TestBoundaryScenarios(t *testing.T) {
	t.Run("arithmetic_let_and_add", func(t *testing.T) {
		_, diags, m := checkBoundary(t, buildScenario1(1))
		if diags != nil && diags.HasErrors() {
			t.Fatalf("unexpected errors: %v", diags.Errors())
		}
		fn := m.Functions[0]
		var sawBinOp bool
		for _, op := range fn.Instructions {
			if bo, ok := op.(BinOp); ok && bo.Op == OpAdd {
				sawBinOp = true
			}
		}
		if !sawBinOp {
			t.Fatalf("expected a BinOp(Add) in the lowered instructions, got: %s", Dump(m))
		}
		snaps.MatchSnapshot(t, "arithmetic_let_and_add", Dump(m))
	})

	t.Run("nullable_coalesce", func(t *testing.T) {
		_, diags, m := checkBoundary(t, buildScenario2(1))
		if diags != nil && diags.HasErrors() {
			t.Fatalf("unexpected errors: %v", diags.Errors())
		}
		snaps.MatchSnapshot(t, "nullable_coalesce", Dump(m))
	})

	t.Run("union_match_exhaustive", func(t *testing.T) {
		_, diags, m := checkBoundary(t, buildScenario3(1, true))
		if diags != nil && diags.HasErrors() {
			t.Fatalf("unexpected errors: %v", diags.Errors())
		}
		snaps.MatchSnapshot(t, "union_match_exhaustive", Dump(m))
	})

	t.Run("union_match_non_exhaustive_rejected", func(t *testing.T) {
		_, diags, m := checkBoundary(t, buildScenario3(1, false))
		if m != nil {
			t.Fatalf("expected lowering to be skipped after a type-check error")
		}
		if diags == nil || !diags.HasErrors() {
			t.Fatal("expected a NonExhaustiveCase error")
		}
		var found bool
		for _, e := range diags.Errors() {
			if e.Kind == errors.NonExhaustiveCase {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected NonExhaustiveCase, got: %v", diags.Errors())
		}
	})

	t.Run("struct_method_auto_deref_self", func(t *testing.T) {
		_, diags, m := checkBoundary(t, buildScenario4(1))
		if diags != nil && diags.HasErrors() {
			t.Fatalf("unexpected errors: %v", diags.Errors())
		}
		snaps.MatchSnapshot(t, "struct_method_auto_deref_self", Dump(m))
	})

	t.Run("interface_vtable_dispatch", func(t *testing.T) {
		_, diags, m := checkBoundary(t, buildScenario5(1))
		if diags != nil && diags.HasErrors() {
			t.Fatalf("unexpected errors: %v", diags.Errors())
		}
		var sawVtableCall bool
		for _, fn := range m.Functions {
			for _, op := range fn.Instructions {
				if _, ok := op.(VtableCall); ok {
					sawVtableCall = true
				}
			}
		}
		if !sawVtableCall {
			t.Fatalf("expected a VtableCall in the lowered instructions, got: %s", Dump(m))
		}
		snaps.MatchSnapshot(t, "interface_vtable_dispatch", Dump(m))
	})

	t.Run("array_push_and_index", func(t *testing.T) {
		_, diags, m := checkBoundary(t, buildScenario6(1))
		if diags != nil && diags.HasErrors() {
			t.Fatalf("unexpected errors: %v", diags.Errors())
		}
		var sawIntrinsic, sawLoadIndex bool
		for _, op := range m.Functions[0].Instructions {
			switch op.(type) {
			case IntrinsicCall:
				sawIntrinsic = true
			case LoadIndex:
				sawLoadIndex = true
			}
		}
		if !sawIntrinsic || !sawLoadIndex {
			t.Fatalf("expected an IntrinsicCall (push) and a LoadIndex, got: %s", Dump(m))
		}
		snaps.MatchSnapshot(t, "array_push_and_index", Dump(m))
	})

	t.Run("shared_pointer_mutation_rejected", func(t *testing.T) {
		_, diags, m := checkBoundary(t, buildScenario7(1))
		if m != nil {
			t.Fatalf("expected lowering to be skipped after a type-check error")
		}
		if diags == nil || !diags.HasErrors() {
			t.Fatal("expected an IllegalSharedRefMutation error")
		}
		var found bool
		for _, e := range diags.Errors() {
			if e.Kind == errors.IllegalSharedRefMutation {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected IllegalSharedRefMutation, got: %v", diags.Errors())
		}
	})
}
