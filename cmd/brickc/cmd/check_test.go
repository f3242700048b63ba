package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brick-lang/brickc/internal/ast"
	"github.com/brick-lang/brickc/internal/ast/astutil"
	"github.com/brick-lang/brickc/internal/errors"
	"github.com/brick-lang/brickc/internal/ident"
)

// fakeParser discards the source text it's handed and always returns a
// pre-built ParsedFile, standing in for the real lexer/parser this
// module never ships (see SetParser's doc comment).
type fakeParser struct {
	build func(file ident.FileID) *ast.ParsedFile
}

func (f fakeParser) Parse(fileID ident.FileID, _ string) (*ast.ParsedFile, []*errors.CompilerError) {
	return f.build(fileID), nil
}

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

func writeTempBrick(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "add.brick")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestCheckFileWithoutParserConfigured(t *testing.T) {
	old := parser
	parser = nil
	defer func() { parser = old }()

	path := writeTempBrick(t, "fn add(a: int32, b: int32) int32 { return a + b; }")
	if _, _, _, _, err := checkFile(path); err == nil {
		t.Fatal("expected an error when no parser is configured")
	}
}

func TestCheckFileSucceedsWithFakeParser(t *testing.T) {
	old := parser
	parser = fakeParser{build: buildAddFile}
	defer func() { parser = old }()

	path := writeTempBrick(t, "fn add(a: int32, b: int32) int32 { return a + b; }")
	_, dc, checkDiags, declDiags, err := checkFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if declDiags.HasErrors() {
		t.Fatalf("unexpected declaration errors: %v", declDiags.Errors())
	}
	if checkDiags.HasErrors() {
		t.Fatalf("unexpected type errors: %v", checkDiags.Errors())
	}
	if dc == nil {
		t.Fatal("expected a non-nil DeclarationContext")
	}
}

func TestCheckFileReportsMissingSourceFile(t *testing.T) {
	old := parser
	parser = fakeParser{build: buildAddFile}
	defer func() { parser = old }()

	if _, _, _, _, err := checkFile(filepath.Join(t.TempDir(), "missing.brick")); err == nil {
		t.Fatal("expected an error for a nonexistent file")
	}
}
