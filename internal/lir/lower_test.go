package lir

import (
	"strings"
	"testing"

	"github.com/brick-lang/brickc/internal/ast"
	"github.com/brick-lang/brickc/internal/ast/astutil"
	"github.com/brick-lang/brickc/internal/errors"
	"github.com/brick-lang/brickc/internal/hir"
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/semantic"
)

// buildAddFile constructs: fn add(a: int32, b: int32) int32 { return a + b; }
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

func checkLowerAndLinearize(t *testing.T, pf *ast.ParsedFile) *Module {
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

	hm := hir.Lower(dc, pf, varIDs)
	hirDiags := &errors.Diagnostics{}
	hir.Passes().RunAll(hm, hirDiags)
	if hirDiags.HasErrors() {
		t.Fatalf("unexpected desugaring diagnostics: %v", hirDiags.Errors())
	}

	layouts := BuildLayouts(dc)
	return Lower(hm, layouts)
}

func TestLowerArithmeticFunctionToLir(t *testing.T) {
	pf := buildAddFile(ident.FileID(1))
	m := checkLowerAndLinearize(t, pf)

	if len(m.Functions) != 1 {
		t.Fatalf("expected one function, got %d", len(m.Functions))
	}
	fn := m.Functions[0]
	if len(fn.Instructions) == 0 {
		t.Fatal("expected at least one lowered instruction")
	}

	var sawBinOp, sawReturn bool
	for _, op := range fn.Instructions {
		switch op.(type) {
		case BinOp:
			sawBinOp = true
		case Return:
			sawReturn = true
		}
	}
	if !sawBinOp {
		t.Error("expected a BinOp instruction for a + b")
	}
	if !sawReturn {
		t.Error("expected a Return instruction")
	}
}

func TestDumpProducesReadableListing(t *testing.T) {
	pf := buildAddFile(ident.FileID(1))
	m := checkLowerAndLinearize(t, pf)

	out := Dump(m)
	if !strings.Contains(out, "bin_op") {
		t.Errorf("expected dump to mention bin_op, got:\n%s", out)
	}
	if !strings.Contains(out, "return") {
		t.Errorf("expected dump to mention return, got:\n%s", out)
	}
}

func TestDumpJSONAndYAMLRoundTripShape(t *testing.T) {
	pf := buildAddFile(ident.FileID(1))
	m := checkLowerAndLinearize(t, pf)

	js, err := DumpJSON(m)
	if err != nil {
		t.Fatalf("DumpJSON: %v", err)
	}
	if !strings.Contains(string(js), "\"kind\"") {
		t.Errorf("expected stamped kind field in JSON, got:\n%s", js)
	}

	yml, err := DumpYAML(m)
	if err != nil {
		t.Fatalf("DumpYAML: %v", err)
	}
	if !strings.Contains(string(yml), "functions:") {
		t.Errorf("expected functions key in YAML, got:\n%s", yml)
	}
}
