package lir

import (
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/types"
)

// Reg names a virtual register: a single SSA-ish value slot, live from
// its defining Op until its last use. Registers are dead at the end of
// whichever loop or function introduced them (spec.md §4.4); Lower never
// reuses a Reg number once allocated, so liveness is simply "defined
// before, used after" over the flat instruction list.
type Reg int

// NoReg marks an instruction with no result (a Store, a Jump, ...).
const NoReg Reg = -1

// Label names a jump target within a Function's instruction list.
type Label int

// Op is implemented by every concrete linear-node variant.
type Op interface{ lirOp() }

// BinKind enumerates the arithmetic/comparison/logical operators a BinOp
// instruction performs, collapsing HIR's separate Arithmetic/Comparison/
// BinaryLogical/NullCoalesce/StringConcat node kinds into one instruction
// shape now that the operand types are concrete.
type BinKind byte

const (
	OpAdd BinKind = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpConcat
)

// ConstInt loads a compile-time-known integer (or bool/char, which share
// the integer register representation) into Dst.
type ConstInt struct {
	Dst   Reg
	Value int64
	Type  PhysicalType
}

// ConstFloat loads a compile-time-known float into Dst.
type ConstFloat struct {
	Dst   Reg
	Value float64
	Type  PhysicalType
}

// ConstString loads the address/length of a pooled string constant
// (ConstantPool.Strings[Index]) into Dst.
type ConstString struct {
	Dst   Reg
	Index int
}

// ConstNull loads the null pointer/nullable-absent bit pattern into Dst.
type ConstNull struct{ Dst Reg }

// LoadLocal reads the current value of a local (parameter or declared
// variable) into Dst.
type LoadLocal struct {
	Dst Reg
	Var ident.VariableID
}

// StoreLocal writes Src into a local slot.
type StoreLocal struct {
	Var ident.VariableID
	Src Reg
}

// LoadField reads the struct field at Offset (within Base's own storage)
// into Dst.
type LoadField struct {
	Dst, Base Reg
	Offset    int
	Type      PhysicalType
}

// StoreField writes Src into the struct field at Offset within Base.
type StoreField struct {
	Base   Reg
	Offset int
	Src    Reg
}

// LoadIndex reads Base[Index] (an array element or dict value) into Dst.
type LoadIndex struct {
	Dst, Base, Index Reg
	ElemType         PhysicalType
	IsDict           bool
}

// StoreIndex writes Src into Base[Index].
type StoreIndex struct {
	Base, Index, Src Reg
	IsDict           bool
}

// BinOp computes Lhs Op Rhs into Dst.
type BinOp struct {
	Dst, Lhs, Rhs Reg
	Op            BinKind
	Type          PhysicalType // operand type, for opcode selection (int vs float) at a later codegen stage
}

// UnaryNot computes logical negation.
type UnaryNot struct{ Dst, Src Reg }

// Cast reinterprets Src's bits from one primitive representation to
// another (e.g. int32 -> int64), writing the converted value to Dst.
type Cast struct {
	Dst, Src Reg
	From, To types.Primitive
}

// WrapNullable copies Src's bits into Dst's payload region and sets its
// present tag, matching the nullable PhysicalType's
// [payload][present-byte] layout computed in layout.go.
type WrapNullable struct{ Dst, Src Reg }

// AddrOf takes the address of a local or field, producing a Unique or
// Shared pointer value in Dst (TakeUnique/TakeShared are indistinguishable
// once lowered: ownership is a compile-time-only distinction enforced by
// the checker, not a runtime tag).
type AddrOf struct{ Dst, Src Reg }

// Deref reads through a pointer register into Dst.
type Deref struct {
	Dst, Src Reg
	Type     PhysicalType
}

// Alloc reserves Layout.Size freshly zeroed bytes on the heap and loads
// their address into Dst, backing a unique-pointer struct/union literal.
type Alloc struct {
	Dst    Reg
	Layout *DeclaredTypeLayout
}

// MakeStruct stores each of Fields into the struct instance already
// addressed by Dst (typically the result of a preceding Alloc), at the
// offsets given by Layout.
type MakeStruct struct {
	Dst    Reg
	Fields []Reg
	Layout *DeclaredTypeLayout
}

// MakeUnion writes Tag and, if present, Payload into the union instance
// addressed by Dst.
type MakeUnion struct {
	Dst     Reg
	Tag     int
	Payload Reg // NoReg for a payload-less variant
	Layout  *DeclaredTypeLayout
}

// UnionTag reads a union instance's discriminant into Dst.
type UnionTag struct {
	Dst, Src Reg
	Layout   *DeclaredTypeLayout
}

// UnionPayload reads a union instance's payload (already known, by the
// checker, to hold the given variant) into Dst.
type UnionPayload struct {
	Dst, Src Reg
	Layout   *DeclaredTypeLayout
	Type     PhysicalType
}

// MakeArray allocates a fresh array with Elems as its initial contents.
type MakeArray struct {
	Dst      Reg
	Elems    []Reg
	ElemType PhysicalType
}

// MakeArrayFill allocates a fresh array of Length copies of Fill (the
// `[T; n]` fill-constructor form), for when Length is not a compile-time
// constant and so can't simply be unrolled into MakeArray's Elems list.
type MakeArrayFill struct {
	Dst, Length, Fill Reg
	ElemType          PhysicalType
}

// MakeDict allocates a fresh dict seeded with the given key/value pairs.
type MakeDict struct {
	Dst          Reg
	Keys, Values []Reg
}

// MakeInterface packs a struct pointer and its resolved method
// implementations into the fat pointer representation of an interface
// value. Vtable's order is not yet the interface's declared method slot
// order (that assignment is a later codegen concern); it only carries
// which struct method backs each interface method.
type MakeInterface struct {
	Dst, Src Reg
	Vtable   []ident.FunctionID
}

// Call invokes a statically known function.
type Call struct {
	Dst      Reg // NoReg if the function returns void
	Function ident.FunctionID
	Args     []Reg
}

// VtableCall invokes a method through an interface value's vtable slot.
type VtableCall struct {
	Dst        Reg
	Receiver   Reg
	MethodSlot int
	Args       []Reg
}

// IntrinsicCall invokes a built-in collection operation (len, push,
// contains_key, insert, clone, get, set).
type IntrinsicCall struct {
	Dst       Reg
	Intrinsic types.IntrinsicKind
	Receiver  Reg
	Args      []Reg
}

// Jump transfers control unconditionally to Target.
type Jump struct{ Target Label }

// JumpIfFalse transfers control to Target when Cond is false.
type JumpIfFalse struct {
	Cond   Reg
	Target Label
}

// BindLabel marks Target's position in the instruction list.
type BindLabel struct{ Target Label }

// Return exits the current function, optionally with a value.
type Return struct {
	Value    Reg
	HasValue bool
}

// Discard evaluates Src for its side effects and drops the result
// (spec.md's statement-position-expression desugaring).
type Discard struct{ Src Reg }

// MakeGenerator allocates a coroutine's fixed-size resume frame bound to
// Function, without running any of its body (the lowering of HIR's
// GeneratorCreate, spec.md §4.3 pass 1's wrapping of a coroutine call).
type MakeGenerator struct {
	Dst      Reg
	Function ident.FunctionID
	Args     []Reg
}

func (ConstInt) lirOp()       {}
func (ConstFloat) lirOp()     {}
func (ConstString) lirOp()    {}
func (ConstNull) lirOp()      {}
func (LoadLocal) lirOp()      {}
func (StoreLocal) lirOp()     {}
func (LoadField) lirOp()      {}
func (StoreField) lirOp()     {}
func (LoadIndex) lirOp()      {}
func (StoreIndex) lirOp()     {}
func (BinOp) lirOp()          {}
func (UnaryNot) lirOp()       {}
func (Cast) lirOp()           {}
func (WrapNullable) lirOp()   {}
func (AddrOf) lirOp()         {}
func (Deref) lirOp()          {}
func (Alloc) lirOp()          {}
func (MakeStruct) lirOp()     {}
func (MakeUnion) lirOp()      {}
func (UnionTag) lirOp()       {}
func (UnionPayload) lirOp()   {}
func (MakeArray) lirOp()      {}
func (MakeArrayFill) lirOp()  {}
func (MakeDict) lirOp()       {}
func (MakeInterface) lirOp()  {}
func (Call) lirOp()           {}
func (VtableCall) lirOp()     {}
func (IntrinsicCall) lirOp()  {}
func (Jump) lirOp()           {}
func (JumpIfFalse) lirOp()    {}
func (BindLabel) lirOp()      {}
func (Return) lirOp()         {}
func (Discard) lirOp()        {}
func (MakeGenerator) lirOp()  {}
