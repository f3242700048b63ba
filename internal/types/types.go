// Package types defines ExpressionType, the central semantic type sum, and
// the declaration-level types (struct/union/interface/module) it refers
// to by TypeID. It is consulted by every later phase (semantic, hir, lir)
// but does not itself depend on the AST.
package types

import (
	"fmt"

	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/provenance"
)

// Primitive enumerates the scalar kinds that appear inside ExpressionType's
// Primitive variant.
type Primitive int

const (
	Bool Primitive = iota
	Char
	Int32
	Int64
	Float32
	Float64
	PointerSizePrimitive
)

func (p Primitive) String() string {
	switch p {
	case Bool:
		return "bool"
	case Char:
		return "char"
	case Int32:
		return "i32"
	case Int64:
		return "i64"
	case Float32:
		return "f32"
	case Float64:
		return "f64"
	case PointerSizePrimitive:
		return "usize"
	default:
		return fmt.Sprintf("Primitive(%d)", int(p))
	}
}

// IsInteger reports whether p is one of the integer primitives.
func (p Primitive) IsInteger() bool {
	switch p {
	case Int32, Int64, PointerSizePrimitive:
		return true
	default:
		return false
	}
}

// IsFloat reports whether p is one of the floating-point primitives.
func (p Primitive) IsFloat() bool {
	return p == Float32 || p == Float64
}

// PointerKind distinguishes unique (mutable, single-owner) from shared
// (aliasable, read-only) references.
type PointerKind int

const (
	Unique PointerKind = iota
	Shared
)

func (k PointerKind) String() string {
	if k == Unique {
		return "unique"
	}
	return "shared"
}

// CollectionKind enumerates the compiler-intrinsic collection families.
type CollectionKind int

const (
	CollectionArray CollectionKind = iota
	CollectionDict
	CollectionString
	CollectionRc
	CollectionCell
)

func (k CollectionKind) String() string {
	switch k {
	case CollectionArray:
		return "array"
	case CollectionDict:
		return "dict"
	case CollectionString:
		return "string"
	case CollectionRc:
		return "rc"
	case CollectionCell:
		return "cell"
	default:
		return "collection"
	}
}

// ExpressionKind discriminates the variant of ExpressionType in use.
type ExpressionKind int

const (
	KVoid ExpressionKind = iota
	KUnreachable
	KNull
	KPrimitive
	KInstanceOf
	KReferenceToType
	KReferenceToFunction
	KFunctionReference
	KPointer
	KCollection
	KNullable
	KGenerator
	KTypeParameterReference
)

// FunctionSignature is the payload of the FunctionReference variant: an
// anonymous function type used only inside the type checker (e.g. as the
// static type of a not-yet-bound lambda). Named functions use
// ReferenceToFunction(FunctionID) instead.
type FunctionSignature struct {
	Parameters []ExpressionType
	Returns    ExpressionType
}

// ExpressionType is the central semantic type: the sum described in
// spec.md §3. Only the field matching Kind is meaningful; helper
// constructors below should be used rather than building literals by hand.
type ExpressionType struct {
	Kind ExpressionKind

	Primitive Primitive

	// InstanceOf / ReferenceToType
	TypeID ident.TypeID

	// ReferenceToFunction
	FunctionID ident.FunctionID

	// FunctionReference
	Signature *FunctionSignature

	// Pointer
	PointerKind PointerKind
	Inner       *ExpressionType

	// Collection
	Collection CollectionKind
	Elem       *ExpressionType // Array/Rc/Cell element, or Dict value
	Key        *ExpressionType // Dict key only

	// Nullable
	// (Inner reused)

	// Generator
	YieldType *ExpressionType
	ParamType *ExpressionType

	// TypeParameterReference
	ParamIndex int
}

func Void() ExpressionType       { return ExpressionType{Kind: KVoid} }
func Unreachable() ExpressionType { return ExpressionType{Kind: KUnreachable} }
func Null() ExpressionType       { return ExpressionType{Kind: KNull} }

func Prim(p Primitive) ExpressionType { return ExpressionType{Kind: KPrimitive, Primitive: p} }

func InstanceOf(id ident.TypeID) ExpressionType {
	return ExpressionType{Kind: KInstanceOf, TypeID: id}
}

func ReferenceToType(id ident.TypeID) ExpressionType {
	return ExpressionType{Kind: KReferenceToType, TypeID: id}
}

func ReferenceToFunction(id ident.FunctionID) ExpressionType {
	return ExpressionType{Kind: KReferenceToFunction, FunctionID: id}
}

func FuncRef(params []ExpressionType, returns ExpressionType) ExpressionType {
	sig := &FunctionSignature{Parameters: params, Returns: returns}
	return ExpressionType{Kind: KFunctionReference, Signature: sig}
}

func Pointer(kind PointerKind, inner ExpressionType) ExpressionType {
	return ExpressionType{Kind: KPointer, PointerKind: kind, Inner: &inner}
}

func ArrayOf(elem ExpressionType) ExpressionType {
	return ExpressionType{Kind: KCollection, Collection: CollectionArray, Elem: &elem}
}

func DictOf(key, value ExpressionType) ExpressionType {
	return ExpressionType{Kind: KCollection, Collection: CollectionDict, Key: &key, Elem: &value}
}

func StringType() ExpressionType {
	return ExpressionType{Kind: KCollection, Collection: CollectionString}
}

func RcOf(elem ExpressionType) ExpressionType {
	return ExpressionType{Kind: KCollection, Collection: CollectionRc, Elem: &elem}
}

func CellOf(elem ExpressionType) ExpressionType {
	return ExpressionType{Kind: KCollection, Collection: CollectionCell, Elem: &elem}
}

func NullableOf(inner ExpressionType) ExpressionType {
	return ExpressionType{Kind: KNullable, Inner: &inner}
}

func GeneratorOf(yield, param ExpressionType) ExpressionType {
	return ExpressionType{Kind: KGenerator, YieldType: &yield, ParamType: &param}
}

func TypeParam(index int) ExpressionType {
	return ExpressionType{Kind: KTypeParameterReference, ParamIndex: index}
}

// IsPointer reports whether t is a Pointer variant.
func (t ExpressionType) IsPointer() bool { return t.Kind == KPointer }

// Deref strips exactly one layer of Pointer, returning the inner type and
// true, or t itself and false if t is not a pointer.
func (t ExpressionType) Deref() (ExpressionType, bool) {
	if t.Kind != KPointer {
		return t, false
	}
	return *t.Inner, true
}

// FullyDeref strips every layer of Pointer, as dot-access and comparison
// operands require.
func (t ExpressionType) FullyDeref() ExpressionType {
	for t.Kind == KPointer {
		t = *t.Inner
	}
	return t
}

// Equal reports structural equality. Struct/Union/Interface instances
// compare nominally via TypeID, matching spec.md's "nominal equality"
// rule for InstanceOf.
func (t ExpressionType) Equal(other ExpressionType) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KVoid, KUnreachable, KNull:
		return true
	case KPrimitive:
		return t.Primitive == other.Primitive
	case KInstanceOf, KReferenceToType:
		return t.TypeID == other.TypeID
	case KReferenceToFunction:
		return t.FunctionID == other.FunctionID
	case KFunctionReference:
		if len(t.Signature.Parameters) != len(other.Signature.Parameters) {
			return false
		}
		for i := range t.Signature.Parameters {
			if !t.Signature.Parameters[i].Equal(other.Signature.Parameters[i]) {
				return false
			}
		}
		return t.Signature.Returns.Equal(other.Signature.Returns)
	case KPointer:
		return t.PointerKind == other.PointerKind && t.Inner.Equal(*other.Inner)
	case KCollection:
		if t.Collection != other.Collection {
			return false
		}
		switch t.Collection {
		case CollectionString:
			return true
		case CollectionDict:
			return t.Key.Equal(*other.Key) && t.Elem.Equal(*other.Elem)
		default:
			return t.Elem.Equal(*other.Elem)
		}
	case KNullable:
		return t.Inner.Equal(*other.Inner)
	case KGenerator:
		return t.YieldType.Equal(*other.YieldType) && t.ParamType.Equal(*other.ParamType)
	case KTypeParameterReference:
		return t.ParamIndex == other.ParamIndex
	default:
		return false
	}
}

func (t ExpressionType) String() string {
	switch t.Kind {
	case KVoid:
		return "void"
	case KUnreachable:
		return "!"
	case KNull:
		return "null"
	case KPrimitive:
		return t.Primitive.String()
	case KInstanceOf:
		return fmt.Sprintf("#%v", t.TypeID)
	case KReferenceToType:
		return fmt.Sprintf("typeof(#%v)", t.TypeID)
	case KReferenceToFunction:
		return fmt.Sprintf("fn#%v", t.FunctionID)
	case KFunctionReference:
		return "fn(...)"
	case KPointer:
		return fmt.Sprintf("%v %v", t.PointerKind, t.Inner)
	case KCollection:
		switch t.Collection {
		case CollectionArray:
			return fmt.Sprintf("[%v]", t.Elem)
		case CollectionDict:
			return fmt.Sprintf("dict[%v]%v", t.Key, t.Elem)
		case CollectionString:
			return "string"
		case CollectionRc:
			return fmt.Sprintf("rc[%v]", t.Elem)
		case CollectionCell:
			return fmt.Sprintf("cell[%v]", t.Elem)
		}
	case KNullable:
		return fmt.Sprintf("%v?", t.Inner)
	case KGenerator:
		return fmt.Sprintf("generator[%v,%v]", t.YieldType, t.ParamType)
	case KTypeParameterReference:
		return fmt.Sprintf("T%d", t.ParamIndex)
	}
	return "?"
}

// TypeDeclKind discriminates the TypeDeclaration sum.
type TypeDeclKind int

const (
	DeclStruct TypeDeclKind = iota
	DeclUnion
	DeclInterface
	DeclModule
)

// StructField is one ordered field of a Struct declaration.
type StructField struct {
	Name string
	Type ExpressionType
}

// UnionVariant is one named variant of a Union declaration. Payload is
// nil for a value-less variant.
type UnionVariant struct {
	Name    string
	Payload *ExpressionType
}

// ModuleExport is one export of a Module (file) declaration: a type or a
// function, optionally also a compile-time constant.
type ModuleExport struct {
	Constant *ident.ConstantID
	Type     ExpressionType
}

// TypeDeclaration is the sum described in spec.md §3: Struct, Union,
// Interface, or Module (one per parsed file, holding its exports).
type TypeDeclaration struct {
	Kind TypeDeclKind
	Name string

	// Struct
	Fields              []StructField
	AssociatedFunctions map[string]ident.FunctionID
	IsAffine            bool

	// Union
	VariantOrder []string
	Variants     map[string]*ExpressionType

	// Interface
	// (AssociatedFunctions reused)

	// Module
	Exports map[string]ModuleExport

	Provenance provenance.Range
}

// FieldIndex returns the declaration-order index of a struct field, or -1.
func (d *TypeDeclaration) FieldIndex(name string) int {
	for i, f := range d.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// VariantIndex returns the tag value of a union variant: its position in
// VariantOrder. Layout code depends on this equality (spec.md invariant).
func (d *TypeDeclaration) VariantIndex(name string) int {
	for i, v := range d.VariantOrder {
		if v == name {
			return i
		}
	}
	return -1
}

// IntrinsicKind tags a FuncType as a compiler-provided collection method
// rather than a user function, so LIR lowering can special-case it instead
// of emitting a generic Call (spec.md §4.1 intrinsics table).
type IntrinsicKind int

const (
	IntrinsicArrayLen IntrinsicKind = iota
	IntrinsicArrayPush
	IntrinsicDictContainsKey
	IntrinsicDictInsert
	IntrinsicRcClone
	IntrinsicCellGet
	IntrinsicCellSet
)

// FuncType is a function's signature as recorded by the declaration
// context: its parameter/return types, generic arity, and whether it is
// an associated function, a coroutine, or a compiler intrinsic.
type FuncType struct {
	ID              ident.FunctionID
	Params          []ExpressionType
	Returns         ExpressionType
	TypeParamCount  int
	IsAssociated    bool
	IsCoroutine     bool
	Intrinsic       *IntrinsicKind
	SelfPointerKind *PointerKind // nil if not an associated function
	Provenance      provenance.Range
}

// FileDeclarations is the per-file bookkeeping produced by Pass A of the
// declaration context: monotonic ID counters for this file and its import
// table (populated in Pass B).
type FileDeclarations struct {
	FileID       ident.FileID
	ModuleTypeID ident.TypeID

	TypeIDs     *ident.TypeIDAllocator
	FunctionIDs *ident.FunctionIDAllocator
	ConstantIDs *ident.ConstantIDAllocator

	// Imports maps a locally-bound name to what it resolved to: a type,
	// function, or (if the import path is terminal) a whole module.
	Imports map[string]ModuleExport
}

func NewFileDeclarations(file ident.FileID, moduleType ident.TypeID) *FileDeclarations {
	return &FileDeclarations{
		FileID:       file,
		ModuleTypeID: moduleType,
		TypeIDs:      ident.NewTypeIDAllocator(file),
		FunctionIDs:  ident.NewFunctionIDAllocator(file),
		ConstantIDs:  ident.NewConstantIDAllocator(file),
		Imports:      make(map[string]ModuleExport),
	}
}
