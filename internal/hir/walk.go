package hir

// children returns every direct child NodeID of v, in no particular
// order, giving the desugaring passes below a way to walk the whole tree
// without a type switch of their own for passes that only need to visit
// every node once (rather than rewrite a parent's own edges).
func children(v Value) []NodeID {
	switch n := v.(type) {
	case *Call:
		cs := append([]NodeID{}, n.Args...)
		if n.Receiver != NoNode {
			cs = append(cs, n.Receiver)
		}
		return cs
	case *VtableCall:
		return append([]NodeID{n.Receiver}, n.Args...)
	case *IntrinsicCall:
		cs := append([]NodeID{}, n.Args...)
		if n.Receiver != NoNode {
			cs = append(cs, n.Receiver)
		}
		return cs
	case *Access:
		return []NodeID{n.Target}
	case *NullableTraverse:
		return []NodeID{n.Target}
	case *Assignment:
		return []NodeID{n.Target, n.Value}
	case *ArrayIndex:
		return []NodeID{n.Target, n.Index}
	case *DictIndex:
		return []NodeID{n.Target, n.Key}
	case *StringConcat:
		return []NodeID{n.Lhs, n.Rhs}
	case *Arithmetic:
		return []NodeID{n.Lhs, n.Rhs}
	case *Comparison:
		return []NodeID{n.Lhs, n.Rhs}
	case *BinaryLogical:
		return []NodeID{n.Lhs, n.Rhs}
	case *NullCoalesce:
		return []NodeID{n.Lhs, n.Rhs}
	case *UnaryLogical:
		return []NodeID{n.Operand}
	case *Return:
		if n.Value == NoNode {
			return nil
		}
		return []NodeID{n.Value}
	case *Yield:
		return []NodeID{n.Value}
	case *NumericCast:
		return []NodeID{n.Operand}
	case *TakeUnique:
		return []NodeID{n.Operand}
	case *TakeShared:
		return []NodeID{n.Operand}
	case *Dereference:
		return []NodeID{n.Operand}
	case *Sequence:
		return n.Statements
	case *If:
		cs := []NodeID{n.Cond, n.Then}
		if n.Else != NoNode {
			cs = append(cs, n.Else)
		}
		return cs
	case *While:
		return []NodeID{n.Cond, n.Body}
	case *Loop:
		return []NodeID{n.Body}
	case *StructLiteral:
		return n.Fields
	case *UnionLiteral:
		if n.Payload == NoNode {
			return nil
		}
		return []NodeID{n.Payload}
	case *ArrayLiteral:
		return n.Elements
	case *ArrayLiteralLength:
		return []NodeID{n.Length, n.Fill}
	case *DictLiteral:
		cs := append([]NodeID{}, n.Keys...)
		return append(cs, n.Values...)
	case *ReferenceCountLiteral:
		return []NodeID{n.Operand}
	case *CellLiteral:
		return []NodeID{n.Operand}
	case *InterfaceAddress:
		return []NodeID{n.Operand}
	case *StructToInterface:
		return []NodeID{n.Operand}
	case *MakeNullable:
		return []NodeID{n.Operand}
	case *Discard:
		return []NodeID{n.Operand}
	case *GeneratorSuspend:
		if n.Value == NoNode {
			return nil
		}
		return []NodeID{n.Value}
	case *GeneratorResume:
		return []NodeID{n.Generator, n.Value}
	case *GeneratorCreate:
		return n.Args
	case *Switch:
		cs := []NodeID{n.Value}
		for _, c := range n.Cases {
			cs = append(cs, c.Body)
		}
		return cs
	case *UnionTag:
		return []NodeID{n.Operand}
	case *UnionVariant:
		return []NodeID{n.Operand}
	default:
		return nil
	}
}

// visitTree calls fn once for every node reachable from root, children
// before their parent. A pass may rewrite fn's own node in place (via
// Arena.Replace/Retype, or by mutating the fields of the *Value pointer
// Arena.Get(id).Value already holds) without disturbing the walk, since
// visitTree has already computed root's children by the time fn(root)
// runs.
func visitTree(a *Arena, root NodeID, fn func(id NodeID)) {
	if root == NoNode {
		return
	}
	for _, child := range children(a.Get(root).Value) {
		visitTree(a, child, fn)
	}
	fn(root)
}

// forEachFunctionNode runs fn over every node of every lowered function
// body (passing that function for context) and every module-level
// constant initializer (passing nil, since a constant expression can
// contain no Return/Yield).
func forEachFunctionNode(m *Module, fn func(id NodeID, enclosing *Function)) {
	for _, f := range m.Functions {
		f := f
		visitTree(m.Arena, f.Body, func(id NodeID) { fn(id, f) })
	}
	for _, root := range m.Constants {
		visitTree(m.Arena, root, func(id NodeID) { fn(id, nil) })
	}
}
