package ast

import "github.com/brick-lang/brickc/internal/ident"

// BinOp enumerates binary operators. String concatenation is not a
// distinct AST operator: `a + b` on strings is recognized and rewritten
// to a StringConcat HIR node during lowering, once the operand types are
// known (see the hir package's lowerBinExpr).
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	LogicalAnd
	LogicalOr
	NullCoalesce
)

func (op BinOp) IsComparison() bool {
	switch op {
	case Eq, Ne, Lt, Le, Gt, Ge:
		return true
	default:
		return false
	}
}

func (op BinOp) IsArithmetic() bool {
	switch op {
	case Add, Sub, Mul, Mod, Div:
		return true
	default:
		return false
	}
}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	Neg UnaryOp = iota
	Not
)

// IntLiteral is an integer literal. The parser records only the raw
// value; spec.md's widening-by-size rule (Int32 if it fits, else Int64)
// is applied by the type checker, not here.
type IntLiteral struct{ Value int64 }

func (*IntLiteral) astValue() {}

// FloatLiteral is a floating-point literal.
type FloatLiteral struct{ Value float64 }

func (*FloatLiteral) astValue() {}

// BoolLiteral is `true` or `false`.
type BoolLiteral struct{ Value bool }

func (*BoolLiteral) astValue() {}

// CharLiteral is a single-character literal.
type CharLiteral struct{ Value rune }

func (*CharLiteral) astValue() {}

// StringLiteral is a string literal.
type StringLiteral struct{ Value string }

func (*StringLiteral) astValue() {}

// NullLiteral is the `null` literal.
type NullLiteral struct{}

func (*NullLiteral) astValue() {}

// BinExpr is a binary operator expression.
type BinExpr struct {
	Op       BinOp
	Lhs, Rhs Index
}

func (*BinExpr) astValue() {}

// UnaryExpr is a unary operator expression.
type UnaryExpr struct {
	Op      UnaryOp
	Operand Index
}

func (*UnaryExpr) astValue() {}

// Call is a function call. Callee is commonly a Name, a Dot (for
// `x.f(...)` associated/intrinsic calls), or any other expression whose
// static type resolves to ReferenceToFunction or FunctionReference.
type Call struct {
	Callee   Index
	Args     []Index
	TypeArgs []Index // explicit generic type arguments, if written
}

func (*Call) astValue() {}

// Dot is field/method/export access: `lhs.field`.
type Dot struct {
	Target Index
	Field  string
}

func (*Dot) astValue() {}

// IndexExpr is array or dict indexing: `target[index]`.
type IndexExpr struct {
	Target Index
	Index  Index
}

func (*IndexExpr) astValue() {}

// Assignment is a plain `target = value` statement-expression.
type Assignment struct {
	Target Index
	Value  Index
}

func (*Assignment) astValue() {}

// CompoundAssign is `target += value` and friends.
type CompoundAssign struct {
	Op     BinOp
	Target Index
	Value  Index
}

func (*CompoundAssign) astValue() {}

// TakeUnique is `unique e`: takes a mutable pointer to an lvalue.
type TakeUnique struct{ Operand Index }

func (*TakeUnique) astValue() {}

// TakeShared is `shared e`: takes a read-only pointer to an lvalue.
type TakeShared struct{ Operand Index }

func (*TakeShared) astValue() {}

// Dereference is `*e`: reads through a Unique pointer lvalue.
type Dereference struct{ Operand Index }

func (*Dereference) astValue() {}

// FieldInit is one `name: value` pair inside a StructLiteral.
type FieldInit struct {
	Name  string
	Value Index
}

// StructLiteral is `TypeName{field: value, ...}`. Type names the struct
// type expression; field order as written need not match declaration
// order (HIR lowering normalizes it, see SPEC_FULL.md §4.5).
type StructLiteral struct {
	Type   Index
	Fields []FieldInit
}

func (*StructLiteral) astValue() {}

// ArrayLiteral is `list[T][e1, e2, ...]`; ElemType is -1 when the
// element type is to be inferred from the first element.
type ArrayLiteral struct {
	ElemType Index // may be -1 (absent)
	Elements []Index
}

func (*ArrayLiteral) astValue() {}

// DictEntry is one `key: value` pair inside a DictLiteral.
type DictEntry struct {
	Key, Value Index
}

// DictLiteral is `dict[K,V]{k1: v1, ...}`.
type DictLiteral struct {
	KeyType, ValueType Index // may be -1 (absent)
	Entries            []DictEntry
}

func (*DictLiteral) astValue() {}

// Block is a braced sequence of statements. Used wherever spec.md's
// "Block" expression-position construct appears: function bodies,
// if/while/loop bodies, match case bodies. The last statement, if it is
// an ExprStatement, determines the block's value (spec.md §4.2 "Block").
type Block struct {
	Statements []Index
}

func (*Block) astValue() {}

// If is `if cond { then } [else { else }]`, usable as a statement or, if
// both branches produce values, as an expression.
type If struct {
	Cond Index
	Then Index // Block
	Else Index // Block, or -1 if absent
}

func (*If) astValue() {}

// While is a condition-tested loop.
type While struct {
	Cond Index
	Body Index // Block
}

func (*While) astValue() {}

// Loop is an unconditional loop, exited only via Break.
type Loop struct {
	Body Index // Block
}

func (*Loop) astValue() {}

// Break exits the nearest enclosing While or Loop.
type Break struct{}

func (*Break) astValue() {}

// MatchCase is one `case Variant[(binding)] => body` arm. Binding is
// empty for a value-less variant or when the payload is discarded with
// `_`; Discard reports the latter explicitly, since both leave Binding
// empty but have different meaning for BindingNameDoesntMatch checks.
type MatchCase struct {
	Variants []string
	Binding  string
	Discard  bool
	Variable ident.VariableID // assigned by the parser when Binding != ""
	Body     Index            // Block
}

// Match is a union pattern match, usable as a statement or an
// expression if every case's body produces a common type.
type Match struct {
	Value Index
	Cases []MatchCase
}

func (*Match) astValue() {}

// Return is `return [value]`.
type Return struct {
	Value Index // -1 if absent (bare `return` in a Void function)
}

func (*Return) astValue() {}

// Yield is `yield value`, legal only inside a coroutine body.
type Yield struct {
	Value Index
}

func (*Yield) astValue() {}
