package ast

import "github.com/brick-lang/brickc/internal/types"

// Type expression nodes: the syntax written in an annotation position
// (a `let` hint, a field type, a parameter or return type). The
// declaration context and type checker resolve these into
// types.ExpressionType values; they are never consulted again after that
// (the resolved type lives in the annotated node's own type cell, not in
// the type-expression subtree).

// VoidTypeExpr is the absence of a type annotation written as `void`.
type VoidTypeExpr struct{}

func (*VoidTypeExpr) astValue() {}

// NameTypeExpr names a primitive, a user type, or an imported type by
// identifier. Resolution consults the file's local type-name map (built
// from exports plus imports, spec.md §4.1).
type NameTypeExpr struct {
	Name string
}

func (*NameTypeExpr) astValue() {}

// PointerTypeExpr is `unique T` / `shared T` written in a parameter,
// return, or self position (pointers are not first-class, spec.md
// invariant: never legal inside a struct field, union variant,
// declaration, block value, or match result).
type PointerTypeExpr struct {
	Kind  types.PointerKind
	Inner Index
}

func (*PointerTypeExpr) astValue() {}

// NullableTypeExpr is `T?`.
type NullableTypeExpr struct {
	Inner Index
}

func (*NullableTypeExpr) astValue() {}

// ArrayTypeExpr is `[T]`.
type ArrayTypeExpr struct {
	Elem Index
}

func (*ArrayTypeExpr) astValue() {}

// DictTypeExpr is `dict[K,V]`.
type DictTypeExpr struct {
	Key, Value Index
}

func (*DictTypeExpr) astValue() {}

// RcTypeExpr is `rc[T]`.
type RcTypeExpr struct {
	Elem Index
}

func (*RcTypeExpr) astValue() {}

// CellTypeExpr is `cell[T]`.
type CellTypeExpr struct {
	Elem Index
}

func (*CellTypeExpr) astValue() {}

// GeneratorTypeExpr is `generator[Yield, Param]`.
type GeneratorTypeExpr struct {
	Yield, Param Index
}

func (*GeneratorTypeExpr) astValue() {}
