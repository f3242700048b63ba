package ast

import (
	"testing"

	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/provenance"
	"github.com/brick-lang/brickc/internal/types"
)

func rng() provenance.Range {
	return provenance.Range{File: 1, Start: provenance.Position{Line: 1, Column: 1}, Length: 1}
}

func TestArenaAddAndGetRoundtrip(t *testing.T) {
	a := NewArena()
	idx := a.Add(&IntLiteral{Value: 42}, rng())
	node := a.Get(idx)
	lit, ok := node.Value.(*IntLiteral)
	if !ok || lit.Value != 42 {
		t.Fatalf("expected IntLiteral{42}, got %#v", node.Value)
	}
}

func TestTypeCellSetOnce(t *testing.T) {
	a := NewArena()
	idx := a.Add(&IntLiteral{Value: 1}, rng())
	node := a.Get(idx)

	if err := node.SetType(types.Prim(types.Int32)); err != nil {
		t.Fatalf("first SetType should succeed: %v", err)
	}
	if err := node.SetType(types.Prim(types.Int64)); err == nil {
		t.Fatal("second SetType should fail")
	}

	got, ok := node.Type()
	if !ok || !got.Equal(types.Prim(types.Int32)) {
		t.Fatalf("Type() = %v, %v; want Int32, true", got, ok)
	}
}

func TestMustTypePanicsBeforeSet(t *testing.T) {
	a := NewArena()
	idx := a.Add(&IntLiteral{Value: 1}, rng())
	node := a.Get(idx)

	defer func() {
		if recover() == nil {
			t.Fatal("expected MustType to panic before the cell is set")
		}
	}()
	node.MustType()
}

func TestNameRefCellSetOnce(t *testing.T) {
	a := NewArena()
	idx := a.Add(&Name{Value: "x"}, rng())
	name := a.Get(idx).Value.(*Name)

	id := ident.AsVariable(ident.VariableID(7))
	if err := name.SetRef(id); err != nil {
		t.Fatalf("first SetRef should succeed: %v", err)
	}
	if err := name.SetRef(id); err == nil {
		t.Fatal("second SetRef should fail")
	}

	got, ok := name.Ref()
	if !ok || got != id {
		t.Fatalf("Ref() = %v, %v; want %v, true", got, ok, id)
	}
}

func TestUnresolvedNameLeavesRefUnset(t *testing.T) {
	a := NewArena()
	idx := a.Add(&Name{Value: "unknown"}, rng())
	name := a.Get(idx).Value.(*Name)

	if _, ok := name.Ref(); ok {
		t.Fatal("expected Ref() to report unset for a never-resolved name")
	}
}
