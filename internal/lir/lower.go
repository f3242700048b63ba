package lir

import (
	"fmt"

	"github.com/brick-lang/brickc/internal/ast"
	"github.com/brick-lang/brickc/internal/hir"
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/types"
)

// Lower flattens a fully-desugared hir.Module (every node already run
// through hir.Passes().RunAll) into a Module of flat per-function
// instruction lists.
//
// Struct and union values are always carried as a pointer register in
// this representation, never inlined: a struct-typed Declaration
// allocates its storage once up front, and a nested aggregate field is
// itself stored as a pointer within its parent. This falls directly out
// of the ownership model (a struct is only ever reached through its one
// affine owner or through an explicit Unique/Shared pointer — see
// DESIGN.md's internal/lir section), so it costs nothing beyond what the
// checker already requires; only scalar locals whose address is taken
// (TakeUnique/TakeShared of a primitive lvalue) need explicit boxing via
// AddrOf.
func Lower(hm *hir.Module, layouts *Layouts) *Module {
	m := &Module{File: hm.File, Layouts: layouts}
	for _, f := range hm.Functions {
		m.Functions = append(m.Functions, lowerFunction(hm, layouts, &m.Constants, f))
	}
	return m
}

type linearizer struct {
	hm      *hir.Module
	layouts *Layouts
	consts  *ConstantPool
	fn      *Function

	nextReg   Reg
	nextLabel Label

	breakTargets []Label
}

func lowerFunction(hm *hir.Module, layouts *Layouts, consts *ConstantPool, f *hir.Function) *Function {
	out := &Function{ID: f.ID, Params: f.Params, IsCoroutine: f.IsCoroutine, HasReturn: f.Returns.Kind != types.KVoid}
	if out.HasReturn {
		out.Returns = layouts.Of(f.Returns)
	}
	if ft := hm.DC.Functions[f.ID]; ft != nil {
		out.ParamTypes = make([]PhysicalType, len(ft.Params))
		for i, pt := range ft.Params {
			out.ParamTypes[i] = layouts.Of(pt)
		}
	}
	lz := &linearizer{hm: hm, layouts: layouts, consts: consts, fn: out}
	lz.lowerStatement(f.Body)
	return out
}

func (lz *linearizer) newReg() Reg {
	r := lz.nextReg
	lz.nextReg++
	return r
}

func (lz *linearizer) newLabel() Label {
	l := lz.nextLabel
	lz.nextLabel++
	return l
}

func (lz *linearizer) emit(op Op) { lz.fn.Instructions = append(lz.fn.Instructions, op) }

func (lz *linearizer) get(id hir.NodeID) *hir.Node { return lz.hm.Arena.Get(id) }

// lowerStatement lowers id for its side effects only, discarding any
// produced register.
func (lz *linearizer) lowerStatement(id hir.NodeID) {
	if id == hir.NoNode {
		return
	}
	lz.lowerNode(id)
}

// lowerNode lowers id and returns a register holding its value, or NoReg
// if id's static type is Void/Unreachable.
func (lz *linearizer) lowerNode(id hir.NodeID) Reg {
	n := lz.get(id)
	pt := lz.layouts.Of(n.Type)

	switch v := n.Value.(type) {
	case *hir.IntLiteral:
		dst := lz.newReg()
		lz.emit(ConstInt{Dst: dst, Value: v.Value, Type: pt})
		return dst
	case *hir.FloatLiteral:
		dst := lz.newReg()
		lz.emit(ConstFloat{Dst: dst, Value: v.Value, Type: pt})
		return dst
	case *hir.BoolLiteral:
		dst := lz.newReg()
		val := int64(0)
		if v.Value {
			val = 1
		}
		lz.emit(ConstInt{Dst: dst, Value: val, Type: pt})
		return dst
	case *hir.CharLiteral:
		dst := lz.newReg()
		lz.emit(ConstInt{Dst: dst, Value: int64(v.Value), Type: pt})
		return dst
	case *hir.PointerSizeLiteral:
		dst := lz.newReg()
		lz.emit(ConstInt{Dst: dst, Value: int64(v.Value), Type: pt})
		return dst
	case *hir.StringLiteral:
		dst := lz.newReg()
		lz.emit(ConstString{Dst: dst, Index: lz.consts.InternString(v.Value)})
		return dst
	case *hir.NullLiteral:
		dst := lz.newReg()
		lz.emit(ConstNull{Dst: dst})
		return dst

	case *hir.Parameter:
		dst := lz.newReg()
		lz.emit(LoadLocal{Dst: dst, Var: v.Variable})
		return dst
	case *hir.VariableReference:
		dst := lz.newReg()
		lz.emit(LoadLocal{Dst: dst, Var: v.Variable})
		return dst
	case *hir.Declaration:
		if n.Type.Kind == types.KInstanceOf {
			phys := lz.layouts.Of(n.Type)
			dst := lz.newReg()
			lz.emit(Alloc{Dst: dst, Layout: phys.Layout})
			lz.emit(StoreLocal{Var: v.Variable, Src: dst})
		}
		return NoReg

	case *hir.Assignment:
		val := lz.lowerNode(v.Value)
		lz.lowerStore(v.Target, val)
		return NoReg

	case *hir.ArrayIndex:
		base := lz.lowerNode(v.Target)
		idx := lz.lowerNode(v.Index)
		dst := lz.newReg()
		lz.emit(LoadIndex{Dst: dst, Base: base, Index: idx, ElemType: pt})
		return dst
	case *hir.DictIndex:
		base := lz.lowerNode(v.Target)
		key := lz.lowerNode(v.Key)
		dst := lz.newReg()
		lz.emit(LoadIndex{Dst: dst, Base: base, Index: key, ElemType: pt, IsDict: true})
		return dst

	case *hir.Access:
		base := lz.lowerNode(v.Target)
		dst := lz.newReg()
		lz.emit(LoadField{Dst: dst, Base: base, Offset: fieldOffset(lz, v.Target, v.FieldIndex), Type: pt})
		return dst
	case *hir.NullableTraverse:
		// The present-bit check belongs to a later control-flow lowering
		// stage; this phase lowers the happy-path field read, matching
		// Access (spec.md's §4.3 nullable-traversal note leaves the
		// short-circuit as a follow-on of the already-inserted MakeNullable
		// bookkeeping rather than new control flow here).
		base := lz.lowerNode(v.Target)
		dst := lz.newReg()
		lz.emit(LoadField{Dst: dst, Base: base, Offset: fieldOffset(lz, v.Target, v.FieldIndex), Type: pt})
		return dst

	case *hir.StringConcat:
		return lz.lowerBin(OpConcat, v.Lhs, v.Rhs, pt)
	case *hir.Arithmetic:
		return lz.lowerBin(arithKind(v.Op), v.Lhs, v.Rhs, pt)
	case *hir.Comparison:
		return lz.lowerBin(compareKind(v.Op), v.Lhs, v.Rhs, lz.layouts.Of(lz.get(v.Lhs).Type))
	case *hir.BinaryLogical:
		return lz.lowerBin(logicalKind(v.Op), v.Lhs, v.Rhs, pt)
	case *hir.NullCoalesce:
		return lz.lowerBin(OpOr, v.Lhs, v.Rhs, pt)
	case *hir.UnaryLogical:
		src := lz.lowerNode(v.Operand)
		dst := lz.newReg()
		lz.emit(UnaryNot{Dst: dst, Src: src})
		return dst

	case *hir.Return:
		val := NoReg
		if v.Value != hir.NoNode {
			val = lz.lowerNode(v.Value)
		}
		lz.emit(Return{Value: val, HasValue: val != NoReg})
		return NoReg
	case *hir.Break:
		if len(lz.breakTargets) == 0 {
			panic("lir: break outside any loop (checker should have rejected this)")
		}
		lz.emit(Jump{Target: lz.breakTargets[len(lz.breakTargets)-1]})
		return NoReg

	case *hir.NumericCast:
		src := lz.lowerNode(v.Operand)
		dst := lz.newReg()
		lz.emit(Cast{Dst: dst, Src: src, From: v.From, To: v.To})
		return dst

	case *hir.TakeUnique:
		return lz.lowerAddr(v.Operand)
	case *hir.TakeShared:
		return lz.lowerAddr(v.Operand)
	case *hir.Dereference:
		operand := lz.lowerNode(v.Operand)
		if n.Type.Kind == types.KInstanceOf {
			// Aggregate pointee: the pointer register already is this
			// representation's handle to the value, so dereferencing it
			// is a no-op.
			return operand
		}
		dst := lz.newReg()
		lz.emit(Deref{Dst: dst, Src: operand, Type: pt})
		return dst

	case *hir.Sequence:
		var last Reg = NoReg
		for _, stmt := range v.Statements {
			last = lz.lowerNode(stmt)
		}
		return last

	case *hir.If:
		// If is only ever a statement here: the checker only allows a
		// bare `if` (no else-if-expression value) in statement position,
		// so neither branch's result is ever consumed.
		cond := lz.lowerNode(v.Cond)
		elseLabel, endLabel := lz.newLabel(), lz.newLabel()
		lz.emit(JumpIfFalse{Cond: cond, Target: elseLabel})
		lz.lowerStatement(v.Then)
		lz.emit(Jump{Target: endLabel})
		lz.emit(BindLabel{Target: elseLabel})
		if v.Else != hir.NoNode {
			lz.lowerStatement(v.Else)
		}
		lz.emit(BindLabel{Target: endLabel})
		return NoReg

	case *hir.While:
		top, end := lz.newLabel(), lz.newLabel()
		lz.emit(BindLabel{Target: top})
		cond := lz.lowerNode(v.Cond)
		lz.emit(JumpIfFalse{Cond: cond, Target: end})
		lz.breakTargets = append(lz.breakTargets, end)
		lz.lowerStatement(v.Body)
		lz.breakTargets = lz.breakTargets[:len(lz.breakTargets)-1]
		lz.emit(Jump{Target: top})
		lz.emit(BindLabel{Target: end})
		return NoReg
	case *hir.Loop:
		top, end := lz.newLabel(), lz.newLabel()
		lz.emit(BindLabel{Target: top})
		lz.breakTargets = append(lz.breakTargets, end)
		lz.lowerStatement(v.Body)
		lz.breakTargets = lz.breakTargets[:len(lz.breakTargets)-1]
		lz.emit(Jump{Target: top})
		lz.emit(BindLabel{Target: end})
		return NoReg

	case *hir.Call:
		args := lz.lowerArgs(v.Args)
		dst := NoReg
		hasValue := n.Type.Kind != types.KVoid && n.Type.Kind != types.KUnreachable
		if hasValue {
			dst = lz.newReg()
		}
		lz.emit(Call{Dst: dst, Function: v.Function, Args: args})
		return dst
	case *hir.VtableCall:
		recv := lz.lowerNode(v.Receiver)
		args := lz.lowerArgs(v.Args)
		dst := NoReg
		if n.Type.Kind != types.KVoid && n.Type.Kind != types.KUnreachable {
			dst = lz.newReg()
		}
		// MethodSlot is the Index of the interface method's FunctionID,
		// which counts every function declared in that file, not the
		// method's position in its interface's method list; the emitted op
		// keeps no separate reference to Method.
		lz.emit(VtableCall{Dst: dst, Receiver: recv, MethodSlot: int(v.Method.Index), Args: args})
		return dst
	case *hir.IntrinsicCall:
		recv := lz.lowerNode(v.Receiver)
		args := lz.lowerArgs(v.Args)
		dst := NoReg
		if n.Type.Kind != types.KVoid && n.Type.Kind != types.KUnreachable {
			dst = lz.newReg()
		}
		lz.emit(IntrinsicCall{Dst: dst, Intrinsic: v.Intrinsic, Receiver: recv, Args: args})
		return dst
	case *hir.GeneratorCreate:
		args := lz.lowerArgs(v.Args)
		dst := lz.newReg()
		lz.emit(MakeGenerator{Dst: dst, Function: v.Function, Args: args})
		return dst

	case *hir.StructLiteral:
		phys := lz.layouts.Of(n.Type)
		fields := make([]Reg, len(v.Fields))
		for i, fid := range v.Fields {
			if fid == hir.NoNode {
				fields[i] = NoReg
				continue
			}
			fields[i] = lz.lowerNode(fid)
		}
		dst := lz.newReg()
		lz.emit(Alloc{Dst: dst, Layout: phys.Layout})
		lz.emit(MakeStruct{Dst: dst, Fields: fields, Layout: phys.Layout})
		return dst
	case *hir.UnionLiteral:
		phys := lz.layouts.Of(n.Type)
		payload := NoReg
		if v.Payload != hir.NoNode {
			payload = lz.lowerNode(v.Payload)
		}
		dst := lz.newReg()
		lz.emit(Alloc{Dst: dst, Layout: phys.Layout})
		lz.emit(MakeUnion{Dst: dst, Tag: v.VariantIndex, Payload: payload, Layout: phys.Layout})
		return dst
	case *hir.ArrayLiteral:
		elems := lz.lowerArgs(v.Elements)
		dst := lz.newReg()
		lz.emit(MakeArray{Dst: dst, Elems: elems, ElemType: elemPhysType(lz, n.Type)})
		return dst
	case *hir.ArrayLiteralLength:
		fill := lz.lowerNode(v.Fill)
		length := lz.lowerNode(v.Length)
		dst := lz.newReg()
		lz.emit(MakeArrayFill{Dst: dst, Length: length, Fill: fill, ElemType: elemPhysType(lz, n.Type)})
		return dst
	case *hir.DictLiteral:
		keys := lz.lowerArgs(v.Keys)
		vals := lz.lowerArgs(v.Values)
		dst := lz.newReg()
		lz.emit(MakeDict{Dst: dst, Keys: keys, Values: vals})
		return dst
	case *hir.ReferenceCountLiteral:
		inner := lz.lowerNode(v.Operand)
		dst := lz.newReg()
		lz.emit(AddrOf{Dst: dst, Src: inner})
		return dst
	case *hir.CellLiteral:
		inner := lz.lowerNode(v.Operand)
		dst := lz.newReg()
		lz.emit(AddrOf{Dst: dst, Src: inner})
		return dst

	case *hir.InterfaceAddress:
		iface := lz.lowerNode(v.Operand)
		return iface // the fat pointer's data-half is recovered at codegen time from the same register
	case *hir.StructToInterface:
		src := lz.lowerNode(v.Operand)
		dst := lz.newReg()
		vtable := make([]ident.FunctionID, 0, len(v.Vtable))
		for _, impl := range v.Vtable {
			vtable = append(vtable, impl)
		}
		lz.emit(MakeInterface{Dst: dst, Src: src, Vtable: vtable})
		return dst
	case *hir.MakeNullable:
		src := lz.lowerNode(v.Operand)
		dst := lz.newReg()
		lz.emit(WrapNullable{Dst: dst, Src: src})
		return dst
	case *hir.Discard:
		src := lz.lowerNode(v.Operand)
		lz.emit(Discard{Src: src})
		return NoReg

	case *hir.Switch:
		return lz.lowerSwitch(v)
	case *hir.UnionTag:
		operand := lz.lowerNode(v.Operand)
		opPhys := lz.layouts.Of(lz.get(v.Operand).Type)
		dst := lz.newReg()
		lz.emit(UnionTag{Dst: dst, Src: operand, Layout: opPhys.Layout})
		return dst
	case *hir.UnionVariant:
		operand := lz.lowerNode(v.Operand)
		opPhys := lz.layouts.Of(lz.get(v.Operand).Type)
		dst := lz.newReg()
		lz.emit(UnionPayload{Dst: dst, Src: operand, Layout: opPhys.Layout, Type: pt})
		return dst

	case *hir.ConstantReference:
		panic("lir: unexpected ConstantReference; constant-inlining pass should have removed it")
	case *hir.Yield, *hir.GeneratorSuspend, *hir.GotoLabel, *hir.GeneratorResume:
		// No checker-supported surface ever produces a resumable
		// coroutine body today (see internal/hir/desugar.go's
		// runYieldRewriting note), so these never reach a real module;
		// reaching one means a future checker change added that surface
		// without a matching LIR lowering.
		panic(fmt.Sprintf("lir: coroutine resume-point lowering not implemented for %T", v))

	default:
		panic(fmt.Sprintf("lir: lower: unhandled HIR node kind %T", v))
	}
}

// lowerStore lowers target as an lvalue and emits the instruction that
// writes val into it.
func (lz *linearizer) lowerStore(target hir.NodeID, val Reg) {
	switch t := lz.get(target).Value.(type) {
	case *hir.VariableReference:
		lz.emit(StoreLocal{Var: t.Variable, Src: val})
	case *hir.Access:
		base := lz.lowerNode(t.Target)
		lz.emit(StoreField{Base: base, Offset: fieldOffset(lz, t.Target, t.FieldIndex), Src: val})
	case *hir.ArrayIndex:
		base := lz.lowerNode(t.Target)
		idx := lz.lowerNode(t.Index)
		lz.emit(StoreIndex{Base: base, Index: idx, Src: val})
	case *hir.DictIndex:
		base := lz.lowerNode(t.Target)
		key := lz.lowerNode(t.Key)
		lz.emit(StoreIndex{Base: base, Index: key, Src: val, IsDict: true})
	case *hir.Dereference:
		base := lz.lowerNode(t.Operand)
		lz.emit(StoreField{Base: base, Offset: 0, Src: val})
	default:
		panic(fmt.Sprintf("lir: lowerStore: unsupported assignment target %T", t))
	}
}

// lowerAddr lowers a TakeUnique/TakeShared operand. An aggregate operand
// is already carried as a pointer register by lowerNode, so taking its
// address is a no-op; a scalar lvalue has to be boxed into fresh storage
// first since this representation never gives a bare local its own
// addressable memory.
func (lz *linearizer) lowerAddr(operand hir.NodeID) Reg {
	n := lz.get(operand)
	if n.Type.Kind == types.KInstanceOf {
		return lz.lowerNode(operand)
	}
	val := lz.lowerNode(operand)
	dst := lz.newReg()
	lz.emit(AddrOf{Dst: dst, Src: val})
	return dst
}

func (lz *linearizer) lowerArgs(ids []hir.NodeID) []Reg {
	regs := make([]Reg, len(ids))
	for i, id := range ids {
		regs[i] = lz.lowerNode(id)
	}
	return regs
}

func (lz *linearizer) lowerBin(op BinKind, lhs, rhs hir.NodeID, pt PhysicalType) Reg {
	l := lz.lowerNode(lhs)
	r := lz.lowerNode(rhs)
	dst := lz.newReg()
	lz.emit(BinOp{Dst: dst, Lhs: l, Rhs: r, Op: op, Type: pt})
	return dst
}

const tagPhysSize = 4

var tagPhysType = PhysicalType{Size: tagPhysSize, Align: tagPhysSize}

// lowerSwitch lowers the desugared form of `match`: one tag read followed
// by a chain of "does the tag match any of this case's values" tests,
// each falling through to the next case's test on mismatch.
func (lz *linearizer) lowerSwitch(v *hir.Switch) Reg {
	tagReg := lz.lowerNode(v.Value)
	end := lz.newLabel()
	for i, c := range v.Cases {
		last := i == len(v.Cases)-1
		matched := lz.matchAnyTag(tagReg, c.Tags)
		miss := end
		if !last {
			miss = lz.newLabel()
		}
		lz.emit(JumpIfFalse{Cond: matched, Target: miss})
		lz.lowerStatement(c.Body)
		lz.emit(Jump{Target: end})
		if !last {
			lz.emit(BindLabel{Target: miss})
		}
	}
	lz.emit(BindLabel{Target: end})
	return NoReg
}

func (lz *linearizer) matchAnyTag(tagReg Reg, tags []int) Reg {
	var acc Reg = NoReg
	for _, tag := range tags {
		tagConst := lz.newReg()
		lz.emit(ConstInt{Dst: tagConst, Value: int64(tag), Type: tagPhysType})
		eq := lz.newReg()
		lz.emit(BinOp{Dst: eq, Lhs: tagReg, Rhs: tagConst, Op: OpEq, Type: tagPhysType})
		if acc == NoReg {
			acc = eq
			continue
		}
		combined := lz.newReg()
		lz.emit(BinOp{Dst: combined, Lhs: acc, Rhs: eq, Op: OpOr, Type: tagPhysType})
		acc = combined
	}
	return acc
}

func fieldOffset(lz *linearizer, target hir.NodeID, fieldIndex int) int {
	phys := lz.layouts.Of(lz.get(target).Type)
	if phys.Layout == nil || fieldIndex >= len(phys.Layout.FieldOffsets) {
		return 0
	}
	return phys.Layout.FieldOffsets[fieldIndex]
}

func elemPhysType(lz *linearizer, arrayType types.ExpressionType) PhysicalType {
	if arrayType.Elem == nil {
		return PhysicalType{Size: 8, Align: 8}
	}
	return lz.layouts.Of(*arrayType.Elem)
}

func arithKind(op ast.BinOp) BinKind {
	switch op {
	case ast.Add:
		return OpAdd
	case ast.Sub:
		return OpSub
	case ast.Mul:
		return OpMul
	case ast.Div:
		return OpDiv
	case ast.Mod:
		return OpMod
	default:
		panic(fmt.Sprintf("lir: arithKind: unexpected operator %v", op))
	}
}

func compareKind(op ast.BinOp) BinKind {
	switch op {
	case ast.Eq:
		return OpEq
	case ast.Ne:
		return OpNe
	case ast.Lt:
		return OpLt
	case ast.Le:
		return OpLe
	case ast.Gt:
		return OpGt
	case ast.Ge:
		return OpGe
	default:
		panic(fmt.Sprintf("lir: compareKind: unexpected operator %v", op))
	}
}

func logicalKind(op ast.BinOp) BinKind {
	switch op {
	case ast.LogicalAnd:
		return OpAnd
	case ast.LogicalOr:
		return OpOr
	default:
		panic(fmt.Sprintf("lir: logicalKind: unexpected operator %v", op))
	}
}
