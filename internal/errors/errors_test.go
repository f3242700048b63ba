package errors

import (
	"strings"
	"testing"

	"github.com/brick-lang/brickc/internal/provenance"
)

func pos(line, col, length int) provenance.Range {
	return provenance.Range{Start: provenance.Position{Line: line, Column: col}, Length: length}
}

func TestFormatIncludesCaretAtColumn(t *testing.T) {
	e := NewCompilerError(TypeMismatch, pos(2, 5, 3), "expected Int32, found Bool", "let x = true;\nlet y = x + 1;", "main.brick")
	out := e.Format(false)

	if !strings.Contains(out, "TypeMismatch") {
		t.Fatalf("expected kind name in output, got: %s", out)
	}
	if !strings.Contains(out, "let y = x + 1;") {
		t.Fatalf("expected source line in output, got: %s", out)
	}
	if !strings.Contains(out, "^^^") {
		t.Fatalf("expected 3-wide caret for length 3, got: %s", out)
	}
}

func TestFormatWithoutSourceOmitsCaretLine(t *testing.T) {
	e := NewCompilerError(NameNotFound, pos(1, 1, 1), "undefined name `x`", "", "")
	out := e.Format(false)
	if strings.Contains(out, "^") {
		t.Fatalf("expected no caret when source is empty, got: %s", out)
	}
}

func TestFormatErrorsSingleOmitsBanner(t *testing.T) {
	e := NewCompilerError(CantCall, pos(1, 1, 1), "not callable", "", "")
	out := FormatErrors([]*CompilerError{e}, false)
	if strings.Contains(out, "compilation failed with") {
		t.Fatalf("single error should not show the batch banner, got: %s", out)
	}
}

func TestFormatErrorsMultipleNumbersEach(t *testing.T) {
	e1 := NewCompilerError(CantCall, pos(1, 1, 1), "not callable", "", "")
	e2 := NewCompilerError(WrongArgsCount, pos(2, 1, 1), "wrong arity", "", "")
	out := FormatErrors([]*CompilerError{e1, e2}, false)
	if !strings.Contains(out, "[Error 1 of 2]") || !strings.Contains(out, "[Error 2 of 2]") {
		t.Fatalf("expected both errors numbered, got: %s", out)
	}
}

func TestDiagnosticsAccumulatesAndTracksFatal(t *testing.T) {
	var d Diagnostics
	d.Addf(NameNotFound, pos(1, 1, 1), "undefined name `%s`", "foo")
	if d.HasFatal() {
		t.Fatal("non-fatal Addf should not mark fatal")
	}
	d.Fatal(NewCompilerError(InternalError, pos(1, 1, 1), "halt", "", ""))
	if !d.HasFatal() {
		t.Fatal("expected HasFatal after Fatal()")
	}
	if len(d.Errors()) != 2 {
		t.Fatalf("expected 2 accumulated errors, got %d", len(d.Errors()))
	}
}

func TestDiagnosticsMergePropagatesFatal(t *testing.T) {
	var a, b Diagnostics
	a.Addf(TypeMismatch, pos(1, 1, 1), "mismatch")
	b.Fatal(NewCompilerError(InternalError, pos(1, 1, 1), "halt", "", ""))

	a.Merge(&b)
	if !a.HasFatal() {
		t.Fatal("expected fatality to propagate through Merge")
	}
	if len(a.Errors()) != 2 {
		t.Fatalf("expected 2 errors after merge, got %d", len(a.Errors()))
	}
}

func TestFromStringErrorsParsesPosition(t *testing.T) {
	errs := FromStringErrors([]string{"unexpected token at 3:7"}, "", "main.brick")
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].Pos.Start.Line != 3 || errs[0].Pos.Start.Column != 7 {
		t.Fatalf("expected position 3:7, got %d:%d", errs[0].Pos.Start.Line, errs[0].Pos.Start.Column)
	}
	if errs[0].Message != "unexpected token" {
		t.Fatalf("expected message without position suffix, got %q", errs[0].Message)
	}
}
