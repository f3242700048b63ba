package hir

import (
	"github.com/brick-lang/brickc/internal/ast"
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/types"
)

// The HirNodeValue sum from spec.md §4.3. Every case the spec names has a
// variant here; a handful carry one extra bookkeeping field the spec
// leaves implementation-defined (e.g. Call.Resolved, Assignment.FromCompound)
// so the desugaring passes below have a well-defined trigger instead of
// re-deriving it from tree shape each time.

// Parameter is a function parameter reference, bound once at function
// entry (distinct from VariableReference only in that LIR gives it a
// fixed calling-convention slot rather than a stack local).
type Parameter struct {
	Variable ident.VariableID
	Index    int
}

func (*Parameter) hirValue() {}

// VariableReference reads a local variable or parameter.
type VariableReference struct{ Variable ident.VariableID }

func (*VariableReference) hirValue() {}

// ConstantReference reads a top-level constant. The constant-inlining
// pass (desugar pass 2) replaces every occurrence with a fresh clone of
// the constant's own lowered initializer.
type ConstantReference struct{ Constant ident.ConstantID }

func (*ConstantReference) hirValue() {}

// Declaration introduces a fresh local variable slot with no initial
// value (the paired Assignment that gives it one follows immediately in
// the enclosing Sequence — see Lower's VarDecl expansion).
type Declaration struct{ Variable ident.VariableID }

func (*Declaration) hirValue() {}

// Call is a direct or (pre-desugar) not-yet-resolved function call.
// Lowering emits every `x.f(args)` dot-call with Resolved false and
// Method set to the field name; desugar pass 4 (associated function
// rewriting) resolves it to Function/Args with Resolved true, or
// rewrites it away entirely into a VtableCall/IntrinsicCall.
type Call struct {
	Function ident.FunctionID
	Resolved bool
	Receiver NodeID // NoNode if this was never a dot-call
	Method   string // "" once Resolved
	Args     []NodeID
}

func (*Call) hirValue() {}

// VtableCall invokes an interface method through its receiver's vtable.
type VtableCall struct {
	Receiver NodeID
	Method   ident.FunctionID
	Args     []NodeID
}

func (*VtableCall) hirValue() {}

// IntrinsicCall invokes a compiler-provided Array/Dict/Rc/Cell method.
type IntrinsicCall struct {
	Intrinsic types.IntrinsicKind
	Receiver  NodeID
	Args      []NodeID
}

func (*IntrinsicCall) hirValue() {}

// Access is `target.field` on a struct instance (or, before desugar pass
// 7 runs, a pointer to one). FieldIndex is the field's declaration-order
// position, already resolved so LIR lowering never re-consults the
// declaration context.
type Access struct {
	Target     NodeID
	Field      string
	FieldIndex int
}

func (*Access) hirValue() {}

// NullableTraverse is `target?.field`-shaped access through a Nullable
// pointer, short-circuiting to null when the pointer is unset.
type NullableTraverse struct {
	Target     NodeID
	Field      string
	FieldIndex int
}

func (*NullableTraverse) hirValue() {}

// Assignment is `target = value`. FromCompound marks an assignment
// synthesized from AST CompoundAssign (`target op= value`), which
// desugar pass 10 (lvalue temporaries) consults to decide whether
// Target needs hoisting into a temporary to avoid evaluating a complex
// lvalue's address twice.
type Assignment struct {
	Target       NodeID
	Value        NodeID
	FromCompound bool
}

func (*Assignment) hirValue() {}

// ArrayIndex is `target[index]` on an array collection.
type ArrayIndex struct{ Target, Index NodeID }

func (*ArrayIndex) hirValue() {}

// DictIndex is `target[key]` on a dict collection.
type DictIndex struct{ Target, Key NodeID }

func (*DictIndex) hirValue() {}

// StringConcat is `lhs + rhs` once both operands are known to be string.
type StringConcat struct{ Lhs, Rhs NodeID }

func (*StringConcat) hirValue() {}

// Arithmetic is a primitive arithmetic operator (+ - * / %), resolved to
// the widened result type recorded in the node's own Type.
type Arithmetic struct {
	Op       ast.BinOp
	Lhs, Rhs NodeID
}

func (*Arithmetic) hirValue() {}

// Comparison is a primitive relational operator (== != < <= > >=).
type Comparison struct {
	Op       ast.BinOp
	Lhs, Rhs NodeID
}

func (*Comparison) hirValue() {}

// BinaryLogical is `&&` / `||`.
type BinaryLogical struct {
	Op       ast.BinOp
	Lhs, Rhs NodeID
}

func (*BinaryLogical) hirValue() {}

// NullCoalesce is `lhs ?? rhs`.
type NullCoalesce struct{ Lhs, Rhs NodeID }

func (*NullCoalesce) hirValue() {}

// UnaryLogical is `!operand`.
type UnaryLogical struct{ Operand NodeID }

func (*UnaryLogical) hirValue() {}

// Return is `return [value]`; Value is NoNode for a bare return.
type Return struct{ Value NodeID }

func (*Return) hirValue() {}

// Yield is `yield value`, present only until desugar pass 6 rewrites it
// away into a GeneratorSuspend/GotoLabel pair.
type Yield struct{ Value NodeID }

func (*Yield) hirValue() {}

// Break exits the nearest enclosing While/Loop.
type Break struct{}

func (*Break) hirValue() {}

// IntLiteral, FloatLiteral, BoolLiteral, CharLiteral, StringLiteral,
// NullLiteral, PointerSizeLiteral are the literal node kinds.
type IntLiteral struct{ Value int64 }
type FloatLiteral struct{ Value float64 }
type BoolLiteral struct{ Value bool }
type CharLiteral struct{ Value rune }
type StringLiteral struct{ Value string }
type NullLiteral struct{}
type PointerSizeLiteral struct{ Value uint64 }

func (*IntLiteral) hirValue()        {}
func (*FloatLiteral) hirValue()      {}
func (*BoolLiteral) hirValue()       {}
func (*CharLiteral) hirValue()       {}
func (*StringLiteral) hirValue()     {}
func (*NullLiteral) hirValue()       {}
func (*PointerSizeLiteral) hirValue() {}

// NumericCast narrows or widens a primitive, inserted by desugar pass 8.
type NumericCast struct {
	From, To types.Primitive
	Operand  NodeID
}

func (*NumericCast) hirValue() {}

// TakeUnique/TakeShared take a pointer to an lvalue.
type TakeUnique struct{ Operand NodeID }
type TakeShared struct{ Operand NodeID }

func (*TakeUnique) hirValue() {}
func (*TakeShared) hirValue() {}

// Dereference reads through one level of Unique/Shared pointer, inserted
// explicitly (one per level) by desugar pass 7.
type Dereference struct{ Operand NodeID }

func (*Dereference) hirValue() {}

// Sequence is an ordered list of statements; its value is its last
// element's value (Void if empty).
type Sequence struct{ Statements []NodeID }

func (*Sequence) hirValue() {}

// If is `if cond { then } [else { else }]`. Else is NoNode if absent.
type If struct{ Cond, Then, Else NodeID }

func (*If) hirValue() {}

// While is a condition-tested loop.
type While struct{ Cond, Body NodeID }

func (*While) hirValue() {}

// Loop is an unconditional loop, exited only via Break.
type Loop struct{ Body NodeID }

func (*Loop) hirValue() {}

// StructLiteral builds a struct instance. Fields is in declaration
// order, already reordered and gap-filled by Lower from however the
// source wrote them (spec.md §4.5 "field order as written need not
// match declaration order").
type StructLiteral struct {
	Type   ident.TypeID
	Fields []NodeID
}

func (*StructLiteral) hirValue() {}

// UnionLiteral builds a tagged-union instance for one variant.
type UnionLiteral struct {
	Type         ident.TypeID
	Variant      string
	VariantIndex int
	Payload      NodeID // NoNode for a value-less variant
}

func (*UnionLiteral) hirValue() {}

// ArrayLiteral builds an array from an explicit element list.
type ArrayLiteral struct{ Elements []NodeID }

func (*ArrayLiteral) hirValue() {}

// ArrayLiteralLength builds an array of Length copies of Fill (the
// `[T; n]` fill-constructor form). Lower never produces one: the AST has
// only the element-list ArrayLiteral.
type ArrayLiteralLength struct{ Length, Fill NodeID }

func (*ArrayLiteralLength) hirValue() {}

// DictLiteral builds a dict from parallel key/value lists.
type DictLiteral struct{ Keys, Values []NodeID }

func (*DictLiteral) hirValue() {}

// ReferenceCountLiteral builds an `rc[T]` from its initial value.
type ReferenceCountLiteral struct{ Operand NodeID }

func (*ReferenceCountLiteral) hirValue() {}

// CellLiteral builds a `cell[T]` from its initial value.
type CellLiteral struct{ Operand NodeID }

func (*CellLiteral) hirValue() {}

// InterfaceAddress takes the object-pointer half of an interface fat
// pointer, used internally by LIR lowering of vtable calls.
type InterfaceAddress struct{ Operand NodeID }

func (*InterfaceAddress) hirValue() {}

// StructToInterface wraps a struct instance as an interface value,
// pairing the instance with a vtable mapping each interface method to
// the struct's own implementation (inserted by desugar pass 5).
type StructToInterface struct {
	Operand NodeID
	Vtable  map[ident.FunctionID]ident.FunctionID
}

func (*StructToInterface) hirValue() {}

// MakeNullable wraps a non-null value as a present Nullable, inserted by
// desugar pass 9.
type MakeNullable struct{ Operand NodeID }

func (*MakeNullable) hirValue() {}

// Discard evaluates Operand for its side effects and drops the result,
// inserted by desugar pass 14 around statement-position expressions
// that still produce a non-Void value.
type Discard struct{ Operand NodeID }

func (*Discard) hirValue() {}

// GeneratorSuspend stores Value into the coroutine's resume state,
// records Label as the next resume point, and returns control to the
// caller (desugar pass 6's expansion of Yield).
type GeneratorSuspend struct {
	Label int
	Value NodeID
}

func (*GeneratorSuspend) hirValue() {}

// GotoLabel marks a resume point a GeneratorResume may jump to.
type GotoLabel struct{ Label int }

func (*GotoLabel) hirValue() {}

// GeneratorResume continues a suspended coroutine from its stored resume
// point, passing Value as the argument to the resumed yield expression.
type GeneratorResume struct {
	Generator NodeID
	Value     NodeID
}

func (*GeneratorResume) hirValue() {}

// GeneratorCreate allocates a coroutine's fixed-size frame and binds it
// to Function without running any of its body yet (desugar pass 1's
// wrapping of a direct call to a coroutine function).
type GeneratorCreate struct {
	Function ident.FunctionID
	Args     []NodeID
}

func (*GeneratorCreate) hirValue() {}

// SwitchCase is one arm of a Switch: the set of union tag values it
// matches, and the body to run (already bound to the matched payload via
// a leading UnionVariant, see Lower's Match expansion).
type SwitchCase struct {
	Tags []int
	Body NodeID
}

// Switch is the desugared form of a `match` expression: a UnionTag read
// followed by per-tag-value case dispatch.
type Switch struct {
	Value NodeID
	Cases []SwitchCase
}

func (*Switch) hirValue() {}

// UnionTag reads a union value's discriminant.
type UnionTag struct{ Operand NodeID }

func (*UnionTag) hirValue() {}

// UnionVariant reads a union value's payload, assuming (without
// re-checking) that its tag already matches Variant — legal only
// directly inside the Switch case body selected by that same tag.
type UnionVariant struct {
	Operand      NodeID
	Variant      string
	VariantIndex int
}

func (*UnionVariant) hirValue() {}
