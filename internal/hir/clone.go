package hir

import "github.com/brick-lang/brickc/internal/ident"

// Clone deep-copies the subtree rooted at id into the same arena,
// allocating a fresh NodeID for every node in the copy (spec.md §4.3:
// "cloning an HirNode produces a fresh node_id"). Used by the
// constant-inlining pass, which must give every occurrence of a constant
// reference its own independent copy of the constant's value.
func (a *Arena) Clone(id NodeID) NodeID {
	if id == NoNode {
		return NoNode
	}
	n := a.Get(id)
	return a.Add(a.cloneValue(n.Value), n.Type, n.Provenance)
}

func (a *Arena) cloneIDs(ids []NodeID) []NodeID {
	if ids == nil {
		return nil
	}
	out := make([]NodeID, len(ids))
	for i, id := range ids {
		out[i] = a.Clone(id)
	}
	return out
}

func (a *Arena) cloneValue(v Value) Value {
	switch n := v.(type) {
	case *Parameter:
		c := *n
		return &c
	case *VariableReference:
		c := *n
		return &c
	case *ConstantReference:
		c := *n
		return &c
	case *Declaration:
		c := *n
		return &c
	case *Call:
		return &Call{Function: n.Function, Resolved: n.Resolved, Receiver: a.Clone(n.Receiver), Method: n.Method, Args: a.cloneIDs(n.Args)}
	case *VtableCall:
		return &VtableCall{Receiver: a.Clone(n.Receiver), Method: n.Method, Args: a.cloneIDs(n.Args)}
	case *IntrinsicCall:
		return &IntrinsicCall{Intrinsic: n.Intrinsic, Receiver: a.Clone(n.Receiver), Args: a.cloneIDs(n.Args)}
	case *Access:
		return &Access{Target: a.Clone(n.Target), Field: n.Field, FieldIndex: n.FieldIndex}
	case *NullableTraverse:
		return &NullableTraverse{Target: a.Clone(n.Target), Field: n.Field, FieldIndex: n.FieldIndex}
	case *Assignment:
		return &Assignment{Target: a.Clone(n.Target), Value: a.Clone(n.Value), FromCompound: n.FromCompound}
	case *ArrayIndex:
		return &ArrayIndex{Target: a.Clone(n.Target), Index: a.Clone(n.Index)}
	case *DictIndex:
		return &DictIndex{Target: a.Clone(n.Target), Key: a.Clone(n.Key)}
	case *StringConcat:
		return &StringConcat{Lhs: a.Clone(n.Lhs), Rhs: a.Clone(n.Rhs)}
	case *Arithmetic:
		return &Arithmetic{Op: n.Op, Lhs: a.Clone(n.Lhs), Rhs: a.Clone(n.Rhs)}
	case *Comparison:
		return &Comparison{Op: n.Op, Lhs: a.Clone(n.Lhs), Rhs: a.Clone(n.Rhs)}
	case *BinaryLogical:
		return &BinaryLogical{Op: n.Op, Lhs: a.Clone(n.Lhs), Rhs: a.Clone(n.Rhs)}
	case *NullCoalesce:
		return &NullCoalesce{Lhs: a.Clone(n.Lhs), Rhs: a.Clone(n.Rhs)}
	case *UnaryLogical:
		return &UnaryLogical{Operand: a.Clone(n.Operand)}
	case *Return:
		return &Return{Value: a.Clone(n.Value)}
	case *Yield:
		return &Yield{Value: a.Clone(n.Value)}
	case *Break:
		c := *n
		return &c
	case *IntLiteral, *FloatLiteral, *BoolLiteral, *CharLiteral, *StringLiteral, *NullLiteral, *PointerSizeLiteral:
		return v
	case *NumericCast:
		return &NumericCast{From: n.From, To: n.To, Operand: a.Clone(n.Operand)}
	case *TakeUnique:
		return &TakeUnique{Operand: a.Clone(n.Operand)}
	case *TakeShared:
		return &TakeShared{Operand: a.Clone(n.Operand)}
	case *Dereference:
		return &Dereference{Operand: a.Clone(n.Operand)}
	case *Sequence:
		return &Sequence{Statements: a.cloneIDs(n.Statements)}
	case *If:
		return &If{Cond: a.Clone(n.Cond), Then: a.Clone(n.Then), Else: a.Clone(n.Else)}
	case *While:
		return &While{Cond: a.Clone(n.Cond), Body: a.Clone(n.Body)}
	case *Loop:
		return &Loop{Body: a.Clone(n.Body)}
	case *StructLiteral:
		return &StructLiteral{Type: n.Type, Fields: a.cloneIDs(n.Fields)}
	case *UnionLiteral:
		return &UnionLiteral{Type: n.Type, Variant: n.Variant, VariantIndex: n.VariantIndex, Payload: a.Clone(n.Payload)}
	case *ArrayLiteral:
		return &ArrayLiteral{Elements: a.cloneIDs(n.Elements)}
	case *ArrayLiteralLength:
		return &ArrayLiteralLength{Length: a.Clone(n.Length), Fill: a.Clone(n.Fill)}
	case *DictLiteral:
		return &DictLiteral{Keys: a.cloneIDs(n.Keys), Values: a.cloneIDs(n.Values)}
	case *ReferenceCountLiteral:
		return &ReferenceCountLiteral{Operand: a.Clone(n.Operand)}
	case *CellLiteral:
		return &CellLiteral{Operand: a.Clone(n.Operand)}
	case *InterfaceAddress:
		return &InterfaceAddress{Operand: a.Clone(n.Operand)}
	case *StructToInterface:
		vt := make(map[ident.FunctionID]ident.FunctionID, len(n.Vtable))
		for k, val := range n.Vtable {
			vt[k] = val
		}
		return &StructToInterface{Operand: a.Clone(n.Operand), Vtable: vt}
	case *MakeNullable:
		return &MakeNullable{Operand: a.Clone(n.Operand)}
	case *Discard:
		return &Discard{Operand: a.Clone(n.Operand)}
	case *GeneratorSuspend:
		return &GeneratorSuspend{Label: n.Label, Value: a.Clone(n.Value)}
	case *GotoLabel:
		c := *n
		return &c
	case *GeneratorResume:
		return &GeneratorResume{Generator: a.Clone(n.Generator), Value: a.Clone(n.Value)}
	case *GeneratorCreate:
		return &GeneratorCreate{Function: n.Function, Args: a.cloneIDs(n.Args)}
	case *Switch:
		cases := make([]SwitchCase, len(n.Cases))
		for i, cs := range n.Cases {
			cases[i] = SwitchCase{Tags: cs.Tags, Body: a.Clone(cs.Body)}
		}
		return &Switch{Value: a.Clone(n.Value), Cases: cases}
	case *UnionTag:
		return &UnionTag{Operand: a.Clone(n.Operand)}
	case *UnionVariant:
		return &UnionVariant{Operand: a.Clone(n.Operand), Variant: n.Variant, VariantIndex: n.VariantIndex}
	default:
		return v
	}
}
