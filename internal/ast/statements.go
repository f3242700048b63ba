package ast

import (
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/types"
)

// ExprStatement wraps an expression used in statement position (including
// the trailing expression of a Block, whose value becomes the block's
// value).
type ExprStatement struct {
	Value Index
}

func (*ExprStatement) astValue() {}

// VarDecl is `let name[: Type] = value;`. Type is -1 when the annotation
// is omitted and must be inferred from Value. Variable is assigned by the
// parser at construction time (spec.md "Lifecycle": VariableIDs are
// created by the parser for local declarations), not by a later phase.
type VarDecl struct {
	Name     string
	Type     Index // type expression, or -1
	Value    Index
	Variable ident.VariableID
}

func (*VarDecl) astValue() {}

// BorrowDecl is `borrow name = &e;` — the only way to bind a pointer-typed
// value to a local name (spec.md "first-class reference ban").
type BorrowDecl struct {
	Name     string
	Kind     types.PointerKind
	Value    Index
	Variable ident.VariableID
}

func (*BorrowDecl) astValue() {}

// ConstDecl is a top-level `const name: Type = value;`. Type is
// mandatory (spec.md "Constants: must have a declared type hint").
type ConstDecl struct {
	Name  string
	Type  Index
	Value Index
}

func (*ConstDecl) astValue() {}

// ImportDecl is `import self.<file>[.<name>]*;`.
type ImportDecl struct {
	Path []string
}

func (*ImportDecl) astValue() {}

// SelfKind distinguishes how a function receives `self`.
type SelfKind int

const (
	NoSelf SelfKind = iota
	SharedSelf
	UniqueSelf
)

// Param is one function parameter. Variable is assigned by the parser,
// the same way VarDecl.Variable is: spec.md's VariableID lifecycle rule
// ("VariableIDs are created by the parser for local declarations")
// applies equally to a function's own parameters.
type Param struct {
	Name     string
	Type     Index
	Variable ident.VariableID
}

// FunctionDecl is a top-level function, or an associated function when
// AssociatedOn is non-empty.
type FunctionDecl struct {
	Name           string
	AssociatedOn   string // struct/interface name, or "" for a free function
	Self           SelfKind
	SelfVariable   ident.VariableID // assigned by the parser when Self != NoSelf
	TypeParamCount int
	Params         []Param
	ReturnType     Index // -1 for Void
	IsCoroutine    bool
	Body           Index // Block; -1 for an extern/interface-method declaration
}

func (*FunctionDecl) astValue() {}

// FieldDecl is one struct field.
type FieldDecl struct {
	Name string
	Type Index
}

// StructDecl declares a struct type.
type StructDecl struct {
	Name     string
	IsAffine bool
	Fields   []FieldDecl
}

func (*StructDecl) astValue() {}

// VariantDecl is one union variant; Payload is -1 for a value-less
// variant.
type VariantDecl struct {
	Name    string
	Payload Index
}

// UnionDecl declares a tagged-union type.
type UnionDecl struct {
	Name     string
	IsAffine bool
	Variants []VariantDecl
}

func (*UnionDecl) astValue() {}

// MethodSig is one interface method signature (no body).
type MethodSig struct {
	Name       string
	Params     []Param
	ReturnType Index // -1 for Void
}

// InterfaceDecl declares an interface type.
type InterfaceDecl struct {
	Name    string
	Methods []MethodSig
}

func (*InterfaceDecl) astValue() {}
