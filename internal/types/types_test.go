package types

import (
	"testing"

	"github.com/brick-lang/brickc/internal/ident"
)

func TestExpressionTypeEqualNominal(t *testing.T) {
	a := InstanceOf(ident.TypeID{File: 1, Index: 1})
	b := InstanceOf(ident.TypeID{File: 1, Index: 1})
	c := InstanceOf(ident.TypeID{File: 1, Index: 2})

	if !a.Equal(b) {
		t.Fatal("expected same TypeID instances to be equal")
	}
	if a.Equal(c) {
		t.Fatal("expected different TypeID instances to be unequal")
	}
}

func TestPointerEqualRequiresSameKind(t *testing.T) {
	inner := Prim(Int32)
	u := Pointer(Unique, inner)
	s := Pointer(Shared, inner)
	if u.Equal(s) {
		t.Fatal("unique and shared pointers to the same type should not be equal")
	}
}

func TestDerefStripsOneLayer(t *testing.T) {
	inner := Prim(Int32)
	p := Pointer(Unique, inner)
	deref, ok := p.Deref()
	if !ok || !deref.Equal(inner) {
		t.Fatalf("Deref() = %v, %v; want %v, true", deref, ok, inner)
	}

	_, ok = inner.Deref()
	if ok {
		t.Fatal("Deref() on a non-pointer should report false")
	}
}

func TestFullyDerefStripsNestedPointers(t *testing.T) {
	inner := Prim(Int32)
	pp := Pointer(Shared, Pointer(Unique, inner))
	if got := pp.FullyDeref(); !got.Equal(inner) {
		t.Fatalf("FullyDeref() = %v, want %v", got, inner)
	}
}

func TestCollectionEqualityComparesElementAndKey(t *testing.T) {
	a := DictOf(Prim(Int32), StringType())
	b := DictOf(Prim(Int32), StringType())
	c := DictOf(Prim(Int64), StringType())

	if !a.Equal(b) {
		t.Fatal("expected identical dict types to be equal")
	}
	if a.Equal(c) {
		t.Fatal("expected dicts with different key types to be unequal")
	}
}

func TestTypeDeclarationVariantIndexMatchesOrder(t *testing.T) {
	decl := &TypeDeclaration{
		Kind:         DeclUnion,
		VariantOrder: []string{"A", "B", "C"},
	}
	for i, name := range decl.VariantOrder {
		if decl.VariantIndex(name) != i {
			t.Errorf("VariantIndex(%q) = %d, want %d", name, decl.VariantIndex(name), i)
		}
	}
	if decl.VariantIndex("missing") != -1 {
		t.Fatal("expected -1 for unknown variant")
	}
}

func TestFileDeclarationsAllocatorsAreFileScoped(t *testing.T) {
	fd := NewFileDeclarations(ident.FileID(7), ident.TypeID{File: 7, Index: 0})
	tid := fd.TypeIDs.Next()
	if tid.File != ident.FileID(7) {
		t.Fatalf("expected TypeID scoped to file 7, got %+v", tid)
	}
}

func TestPrimitiveIsIntegerFloat(t *testing.T) {
	if !Int32.IsInteger() || Int32.IsFloat() {
		t.Fatal("Int32 should be integer, not float")
	}
	if !Float64.IsFloat() || Float64.IsInteger() {
		t.Fatal("Float64 should be float, not integer")
	}
	if !PointerSizePrimitive.IsInteger() {
		t.Fatal("PointerSize should count as an integer primitive")
	}
}
