// Package lir implements the linear intermediate representation
// described in spec.md §4.4: a flat, register-based form that the HIR
// desugaring passes feed into, annotated with concrete memory layout
// (spec.md's DeclaredTypeLayout/PhysicalType) instead of the HIR's
// checker-level ExpressionType.
//
// Grounded on the teacher compiler's bytecode package: Lower plays the
// role of bytecode.Compiler (a tree-walk that emits a flat instruction
// stream into a Function), and Dump/DumpJSON/DumpYAML play the role of
// bytecode.Disassembler, generalized from a textual-only disassembly to
// machine-readable dumps for tooling (internal/collab, cmd/brickc).
package lir

import (
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/semantic"
	"github.com/brick-lang/brickc/internal/types"
)

// PhysicalType is the concrete, machine-level shape of a checker-level
// types.ExpressionType: its size and alignment in bytes, plus (for a
// struct/union instance) a reference to the declared layout that
// describes its fields.
type PhysicalType struct {
	Size  int
	Align int

	// Layout is set only when t names a struct or union; nil for
	// primitives, pointers, interfaces and the built-in collections,
	// whose shape is fixed rather than declared.
	Layout *DeclaredTypeLayout
}

// DeclaredTypeLayout is the field-offset table computed for one declared
// struct or union type (spec.md §4.4 "DeclaredTypeLayout"). A union
// layout reserves the first TagSize bytes for the discriminant; every
// variant's payload is overlaid starting at PayloadOffset.
type DeclaredTypeLayout struct {
	Size  int
	Align int

	// FieldOffsets gives, for a struct, the byte offset of each field in
	// declaration order. Nil for a union.
	FieldOffsets []int

	IsUnion       bool
	TagSize       int
	PayloadOffset int
}

const (
	pointerSize  = 8
	sliceHeader  = pointerSize * 3 // data ptr, length, capacity
	stringHeader = pointerSize * 2 // data ptr, length
	fatPointer   = pointerSize * 2 // data ptr, vtable ptr (interface value)
)

func align(offset, a int) int {
	if a <= 1 {
		return offset
	}
	if r := offset % a; r != 0 {
		return offset + (a - r)
	}
	return offset
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func primitiveSize(p types.Primitive) (size, alignment int) {
	switch p {
	case types.Bool:
		return 1, 1
	case types.Char, types.Int32, types.Float32:
		return 4, 4
	case types.Int64, types.Float64, types.PointerSizePrimitive:
		return 8, 8
	default:
		return 8, 8
	}
}

// Layouts holds the computed DeclaredTypeLayout of every struct and union
// declared in a DeclarationContext, plus the primitive/collection sizing
// rules needed to compute any ExpressionType's PhysicalType.
type Layouts struct {
	dc   *semantic.DeclarationContext
	byID map[ident.TypeID]*DeclaredTypeLayout
}

// BuildLayouts computes a DeclaredTypeLayout for every struct and union
// type registered in dc. Interface and module declarations have no
// storage layout of their own (an interface value is always the fixed
// fat-pointer representation) so they are left out of byID.
func BuildLayouts(dc *semantic.DeclarationContext) *Layouts {
	l := &Layouts{dc: dc, byID: map[ident.TypeID]*DeclaredTypeLayout{}}
	resolving := map[ident.TypeID]bool{}

	var resolve func(id ident.TypeID) *DeclaredTypeLayout
	resolve = func(id ident.TypeID) *DeclaredTypeLayout {
		if dl, ok := l.byID[id]; ok {
			return dl
		}
		td := dc.Types[id]
		if td == nil || (td.Kind != types.DeclStruct && td.Kind != types.DeclUnion) {
			return nil
		}
		if resolving[id] {
			// Ownership forbids unboxed recursion (a struct can only
			// reach itself through a pointer indirection), so a cycle
			// here means an incomplete-type query; treat it as a single
			// pointer slot rather than recursing forever.
			return &DeclaredTypeLayout{Size: pointerSize, Align: pointerSize}
		}
		resolving[id] = true
		defer delete(resolving, id)

		var dl *DeclaredTypeLayout
		if td.Kind == types.DeclUnion {
			tagSize := 4
			widest, widestAlign := 0, 1
			for _, v := range td.Variants {
				if v.Payload == nil {
					continue
				}
				s, a := l.sizeOf(*v.Payload, resolve)
				if s > widest {
					widest = s
				}
				if a > widestAlign {
					widestAlign = a
				}
			}
			payloadOffset := align(tagSize, widestAlign)
			dl = &DeclaredTypeLayout{
				Size: align(payloadOffset+widest, maxInt(tagSize, widestAlign)), Align: maxInt(tagSize, widestAlign),
				IsUnion: true, TagSize: tagSize, PayloadOffset: payloadOffset,
			}
		} else {
			offsets := make([]int, len(td.Fields))
			offset, structAlign := 0, 1
			for i, f := range td.Fields {
				s, a := l.sizeOf(f.Type, resolve)
				offset = align(offset, a)
				offsets[i] = offset
				offset += s
				if a > structAlign {
					structAlign = a
				}
			}
			dl = &DeclaredTypeLayout{Size: align(offset, structAlign), Align: structAlign, FieldOffsets: offsets}
		}
		l.byID[id] = dl
		return dl
	}

	for id, td := range dc.Types {
		if td.Kind == types.DeclStruct || td.Kind == types.DeclUnion {
			resolve(id)
		}
	}
	return l
}

// Of computes the PhysicalType of t.
func (l *Layouts) Of(t types.ExpressionType) PhysicalType {
	size, alignment := l.sizeOf(t, func(id ident.TypeID) *DeclaredTypeLayout {
		if dl, ok := l.byID[id]; ok {
			return dl
		}
		return nil
	})
	var dl *DeclaredTypeLayout
	if t.Kind == types.KInstanceOf {
		dl = l.byID[t.TypeID]
	}
	return PhysicalType{Size: size, Align: alignment, Layout: dl}
}

func (l *Layouts) sizeOf(t types.ExpressionType, resolve func(ident.TypeID) *DeclaredTypeLayout) (int, int) {
	switch t.Kind {
	case types.KVoid, types.KUnreachable:
		return 0, 1
	case types.KNull:
		return pointerSize, pointerSize
	case types.KPrimitive:
		return primitiveSize(t.Primitive)
	case types.KPointer, types.KReferenceToType, types.KReferenceToFunction, types.KFunctionReference:
		return pointerSize, pointerSize
	case types.KTypeParameterReference:
		// Monomorphization is out of scope (generics are a spec Non-goal
		// beyond associated-function signatures, which are never
		// themselves lowered), so a bare type-parameter reference never
		// needs a concrete size in practice.
		return pointerSize, pointerSize
	case types.KNullable:
		inner, innerAlign := l.sizeOf(*t.Inner, resolve)
		return align(inner, innerAlign) + innerAlign, innerAlign
	case types.KGenerator:
		return pointerSize, pointerSize // opaque coroutine frame pointer
	case types.KCollection:
		switch t.Collection {
		case types.CollectionArray:
			return sliceHeader, pointerSize
		case types.CollectionDict:
			return pointerSize, pointerSize // opaque hash-map handle
		case types.CollectionString:
			return stringHeader, pointerSize
		case types.CollectionRc:
			return pointerSize, pointerSize // ptr to refcounted block
		case types.CollectionCell:
			return pointerSize, pointerSize // ptr to boxed value
		}
		return pointerSize, pointerSize
	case types.KInstanceOf:
		td := l.dc.Types[t.TypeID]
		if td != nil && td.Kind == types.DeclInterface {
			return fatPointer, pointerSize
		}
		if dl := resolve(t.TypeID); dl != nil {
			return dl.Size, dl.Align
		}
		return pointerSize, pointerSize
	default:
		return pointerSize, pointerSize
	}
}
