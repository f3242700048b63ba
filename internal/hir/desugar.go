package hir

import (
	"github.com/brick-lang/brickc/internal/errors"
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/passes"
	"github.com/brick-lang/brickc/internal/types"
)

// Passes builds the fourteen ordered desugaring passes from spec.md
// §4.3, in the fixed order the spec requires. Grounded on the teacher
// compiler's semantic.PassManager construction (internal/semantic/passes
// registered its checks in one place the same way); generalized here from
// a manager over *ast.Program to one over *hir.Module.
func Passes() *passes.Manager[*Module] {
	return passes.NewManager[*Module](
		passes.Func[*Module]{PassName: "coroutine call rewriting", Fn: runCoroutineCallRewriting},
		passes.Func[*Module]{PassName: "constant inlining", Fn: runConstantInlining},
		passes.Func[*Module]{PassName: "union variant calls", Fn: runUnionVariantCalls},
		passes.Func[*Module]{PassName: "associated function rewriting", Fn: runAssociatedFunctionRewriting},
		passes.Func[*Module]{PassName: "interface conversion", Fn: runInterfaceConversion},
		passes.Func[*Module]{PassName: "yield rewriting", Fn: runYieldRewriting},
		passes.Func[*Module]{PassName: "auto-deref on dot", Fn: runAutoDerefOnDot},
		passes.Func[*Module]{PassName: "automatic numeric cast", Fn: runAutomaticNumericCast},
		passes.Func[*Module]{PassName: "null widening", Fn: runNullWidening},
		passes.Func[*Module]{PassName: "lvalue temporaries", Fn: runLvalueTemporaries},
		passes.Func[*Module]{PassName: "sequence assignment simplification", Fn: runSequenceAssignmentSimplification},
		passes.Func[*Module]{PassName: "sequence use simplification", Fn: runSequenceUseSimplification},
		passes.Func[*Module]{PassName: "trailing-if simplification", Fn: runTrailingIfSimplification},
		passes.Func[*Module]{PassName: "discard unused values", Fn: runDiscardUnusedValues},
	)
}

// 1. Coroutine call rewriting: a direct call to a coroutine function
// allocates a generator frame rather than running the body immediately.
// Calls through a receiver (still Call.Resolved == false at this point)
// get the same treatment inside pass 4, once their target function is
// known.
func runCoroutineCallRewriting(m *Module, _ *errors.Diagnostics) {
	forEachFunctionNode(m, func(id NodeID, _ *Function) {
		call, ok := m.Arena.Get(id).Value.(*Call)
		if !ok || !call.Resolved {
			return
		}
		if ft := m.DC.Functions[call.Function]; ft != nil && ft.IsCoroutine {
			m.Arena.Replace(id, &GeneratorCreate{Function: call.Function, Args: call.Args})
		}
	})
}

// 2. Constant inlining: every reference to a top-level constant becomes
// its own independent copy of that constant's lowered initializer, so
// later passes (and LIR's constant-data pool) never have to reason about
// two references sharing one subtree.
func runConstantInlining(m *Module, _ *errors.Diagnostics) {
	forEachFunctionNode(m, func(id NodeID, _ *Function) {
		ref, ok := m.Arena.Get(id).Value.(*ConstantReference)
		if !ok {
			return
		}
		init, ok := m.Constants[ref.Constant]
		if !ok {
			return
		}
		fresh := m.Arena.Clone(init)
		freshNode := m.Arena.Get(fresh)
		m.Arena.Replace(id, freshNode.Value)
		m.Arena.Retype(id, freshNode.Type)
	})
}

// 3. Union variant calls: `UnionName.variant(payload)` and bare
// `UnionName.variant` are already resolved to UnionLiteral by Lower
// itself (lowerCall/lowerDot recognize the union-constructor shape
// eagerly, since it needs no information only a later pass would have).
// This pass is a no-op placeholder kept for the spec's pass numbering
// and ordering; it exists so a future desugaring that does need to run
// strictly after pass 2 and before pass 4 has a named slot to land in.
func runUnionVariantCalls(_ *Module, _ *errors.Diagnostics) {}

// 4. Associated function rewriting: resolves every Dot-call Lower left
// as Call{Resolved:false} into a concrete Call (struct receiver),
// VtableCall (interface receiver), IntrinsicCall (collection receiver),
// or GeneratorCreate (struct receiver resolving to a coroutine method).
func runAssociatedFunctionRewriting(m *Module, _ *errors.Diagnostics) {
	forEachFunctionNode(m, func(id NodeID, _ *Function) {
		call, ok := m.Arena.Get(id).Value.(*Call)
		if !ok || call.Resolved || call.Receiver == NoNode {
			return
		}
		recvType := m.Arena.Get(call.Receiver).Type.FullyDeref()

		switch recvType.Kind {
		case types.KInstanceOf:
			td := m.DC.Types[recvType.TypeID]
			if td == nil {
				return
			}
			fid, ok := td.AssociatedFunctions[call.Method]
			if !ok {
				return
			}
			switch td.Kind {
			case types.DeclStruct:
				args := append([]NodeID{call.Receiver}, call.Args...)
				if ft := m.DC.Functions[fid]; ft != nil && ft.IsCoroutine {
					m.Arena.Replace(id, &GeneratorCreate{Function: fid, Args: args})
				} else {
					m.Arena.Replace(id, &Call{Function: fid, Resolved: true, Receiver: NoNode, Args: args})
				}
			case types.DeclInterface:
				m.Arena.Replace(id, &VtableCall{Receiver: call.Receiver, Method: fid, Args: call.Args})
			}

		case types.KCollection:
			kind, ok := intrinsicFor(recvType.Collection, call.Method)
			if !ok {
				return
			}
			m.Arena.Replace(id, &IntrinsicCall{Intrinsic: kind, Receiver: call.Receiver, Args: call.Args})
		}
	})
}

// 5. Interface conversion: wherever a struct instance flows into a slot
// whose expected type is an interface, wrap it in StructToInterface
// carrying the method-to-method vtable built by name-matching the
// struct's associated functions against the interface's.
func runInterfaceConversion(m *Module, _ *errors.Diagnostics) {
	forEachFunctionNode(m, func(id NodeID, fn *Function) {
		for _, slot := range expectedSlots(m, id, fn) {
			got := m.Arena.Get(slot.node).Type
			if slot.expected.Kind != types.KInstanceOf || got.Kind != types.KInstanceOf {
				continue
			}
			want := m.DC.Types[slot.expected.TypeID]
			have := m.DC.Types[got.TypeID]
			if want == nil || have == nil || want.Kind != types.DeclInterface || have.Kind != types.DeclStruct {
				continue
			}
			vtable := make(map[ident.FunctionID]ident.FunctionID, len(want.AssociatedFunctions))
			for name, ifaceFn := range want.AssociatedFunctions {
				if implFn, ok := have.AssociatedFunctions[name]; ok {
					vtable[ifaceFn] = implFn
				}
			}
			wrapped := m.Arena.Add(&StructToInterface{Operand: slot.node, Vtable: vtable}, slot.expected, m.Arena.Get(slot.node).Provenance)
			slot.set(wrapped)
		}
	})
}

// 6. Yield rewriting: `yield v` becomes a GeneratorSuspend that stashes v
// into the coroutine's resume state followed by the GotoLabel the next
// GeneratorResume lands on; the GotoLabel node's own Type (the original
// Yield's type) is what a later read of the resumed value evaluates to.
func runYieldRewriting(m *Module, _ *errors.Diagnostics) {
	for _, fn := range m.Functions {
		if !fn.IsCoroutine {
			continue
		}
		fn := fn
		visitTree(m.Arena, fn.Body, func(id NodeID) {
			n := m.Arena.Get(id)
			y, ok := n.Value.(*Yield)
			if !ok {
				return
			}
			label := fn.NextLabel()
			suspend := m.Arena.Add(&GeneratorSuspend{Label: label, Value: y.Value}, types.Void(), n.Provenance)
			resumed := m.Arena.Add(&GotoLabel{Label: label}, n.Type, n.Provenance)
			m.Arena.Replace(id, &Sequence{Statements: []NodeID{suspend, resumed}})
		})
	}
}

// 7. Auto-deref on dot: Access/NullableTraverse keeps whatever pointer
// depth lowering left on its Target; this pass inserts one Dereference
// per pointer layer so LIR never has to chase pointers itself, and turns
// an Access through a Nullable target into a NullableTraverse.
func runAutoDerefOnDot(m *Module, _ *errors.Diagnostics) {
	forEachFunctionNode(m, func(id NodeID, _ *Function) {
		n := m.Arena.Get(id)
		switch v := n.Value.(type) {
		case *Access:
			target, targetType := derefChain(m, v.Target)
			v.Target = target
			if targetType.Kind == types.KNullable {
				m.Arena.Replace(id, &NullableTraverse{Target: target, Field: v.Field, FieldIndex: v.FieldIndex})
			}
		case *NullableTraverse:
			target, _ := derefChain(m, v.Target)
			v.Target = target
		}
	})
}

func derefChain(m *Module, target NodeID) (NodeID, types.ExpressionType) {
	t := m.Arena.Get(target).Type
	for t.Kind == types.KPointer {
		prov := m.Arena.Get(target).Provenance
		inner := *t.Inner
		target = m.Arena.Add(&Dereference{Operand: target}, inner, prov)
		t = inner
	}
	return target, t
}

// 8. Automatic numeric cast: inserts a NumericCast wherever a primitive
// value flows into a slot (assignment, return, call argument, arithmetic
// operand) expecting a different primitive width.
func runAutomaticNumericCast(m *Module, _ *errors.Diagnostics) {
	forEachFunctionNode(m, func(id NodeID, fn *Function) {
		for _, slot := range expectedSlots(m, id, fn) {
			got := m.Arena.Get(slot.node).Type
			if got.Kind != types.KPrimitive || slot.expected.Kind != types.KPrimitive {
				continue
			}
			if got.Primitive == slot.expected.Primitive {
				continue
			}
			wrapped := m.Arena.Add(&NumericCast{From: got.Primitive, To: slot.expected.Primitive, Operand: slot.node}, slot.expected, m.Arena.Get(slot.node).Provenance)
			slot.set(wrapped)
		}
	})
}

// 9. Null widening: inserts MakeNullable wherever a non-null, non-already
// -nullable value flows into a slot expecting a Nullable.
func runNullWidening(m *Module, _ *errors.Diagnostics) {
	forEachFunctionNode(m, func(id NodeID, fn *Function) {
		for _, slot := range expectedSlots(m, id, fn) {
			if slot.expected.Kind != types.KNullable {
				continue
			}
			got := m.Arena.Get(slot.node).Type
			if got.Kind == types.KNullable || got.Kind == types.KNull {
				continue
			}
			wrapped := m.Arena.Add(&MakeNullable{Operand: slot.node}, slot.expected, m.Arena.Get(slot.node).Provenance)
			slot.set(wrapped)
		}
	})
}

// 10. Lvalue temporaries: lowerCompoundAssign (x op= v) produced two
// independent lowerings of the same source lvalue — one as the
// Assignment's Target, one as the Arithmetic's Lhs. For a bare variable
// that duplication is harmless, but when the lvalue is an array/dict
// index whose own index expression might have side effects, evaluating
// it twice would be observable. This pass hoists that shared lvalue's
// address into a temporary pointer, computed once, and rewrites both
// occurrences to read through it.
func runLvalueTemporaries(m *Module, _ *errors.Diagnostics) {
	forEachFunctionNode(m, func(id NodeID, _ *Function) {
		n := m.Arena.Get(id)
		asn, ok := n.Value.(*Assignment)
		if !ok || !asn.FromCompound {
			return
		}
		targetNode := m.Arena.Get(asn.Target)
		switch targetNode.Value.(type) {
		case *ArrayIndex, *DictIndex:
		default:
			return
		}
		arithNode := m.Arena.Get(asn.Value)
		arith, ok := arithNode.Value.(*Arithmetic)
		if !ok {
			return
		}

		prov := targetNode.Provenance
		tv := m.VarIDs.Next()
		ptrType := types.Pointer(types.Unique, targetNode.Type)

		decl := m.Arena.Add(&Declaration{Variable: tv}, types.Void(), prov)
		addr := m.Arena.Add(&TakeUnique{Operand: asn.Target}, ptrType, prov)
		ref := m.Arena.Add(&VariableReference{Variable: tv}, ptrType, prov)
		initAssign := m.Arena.Add(&Assignment{Target: ref, Value: addr}, types.Void(), prov)

		newTarget := m.Arena.Add(&Dereference{Operand: m.Arena.Add(&VariableReference{Variable: tv}, ptrType, prov)}, targetNode.Type, prov)
		arith.Lhs = m.Arena.Add(&Dereference{Operand: m.Arena.Add(&VariableReference{Variable: tv}, ptrType, prov)}, targetNode.Type, prov)

		newAssign := m.Arena.Add(&Assignment{Target: newTarget, Value: asn.Value, FromCompound: true}, types.Void(), n.Provenance)
		m.Arena.Replace(id, &Sequence{Statements: []NodeID{decl, initAssign, newAssign}})
		m.Arena.Retype(id, types.Void())
	})
}

// 11. Sequence assignment simplification: flattens a Sequence whose own
// Statements directly nests another Sequence (the common shape left by
// Lower's VarDecl/BorrowDecl/Match expansions appearing back to back in
// an enclosing Block), so later passes walk one flat statement list
// instead of rediscovering the same nesting every time.
func runSequenceAssignmentSimplification(m *Module, _ *errors.Diagnostics) {
	forEachFunctionNode(m, func(id NodeID, _ *Function) {
		seq, ok := m.Arena.Get(id).Value.(*Sequence)
		if !ok {
			return
		}
		flat := make([]NodeID, 0, len(seq.Statements))
		changed := false
		for _, s := range seq.Statements {
			if inner, ok := m.Arena.Get(s).Value.(*Sequence); ok {
				flat = append(flat, inner.Statements...)
				changed = true
			} else {
				flat = append(flat, s)
			}
		}
		if changed {
			seq.Statements = flat
		}
	})
}

// 12. Sequence use simplification: a trailing `[Assignment(ref, v),
// VariableReference(ref)]` pair at the end of a Sequence reads back the
// value it just wrote one statement earlier; replacing the pair with
// just `v` drops the redundant read without re-evaluating v.
func runSequenceUseSimplification(m *Module, _ *errors.Diagnostics) {
	forEachFunctionNode(m, func(id NodeID, _ *Function) {
		seq, ok := m.Arena.Get(id).Value.(*Sequence)
		if !ok || len(seq.Statements) < 2 {
			return
		}
		last := len(seq.Statements) - 1
		read, ok := m.Arena.Get(seq.Statements[last]).Value.(*VariableReference)
		if !ok {
			return
		}
		asn, ok := m.Arena.Get(seq.Statements[last-1]).Value.(*Assignment)
		if !ok {
			return
		}
		target, ok := m.Arena.Get(asn.Target).Value.(*VariableReference)
		if !ok || target.Variable != read.Variable {
			return
		}
		seq.Statements = append(seq.Statements[:last-1], asn.Value)
	})
}

// 13. Trailing-if simplification: when an If's branch is a Sequence
// holding exactly one statement, that single-element Sequence wrapper
// adds nothing an LIR consumer needs, so the branch is replaced by the
// statement it wraps directly.
func runTrailingIfSimplification(m *Module, _ *errors.Diagnostics) {
	forEachFunctionNode(m, func(id NodeID, _ *Function) {
		iff, ok := m.Arena.Get(id).Value.(*If)
		if !ok {
			return
		}
		iff.Then = unwrapSingleton(m, iff.Then)
		if iff.Else != NoNode {
			iff.Else = unwrapSingleton(m, iff.Else)
		}
	})
}

func unwrapSingleton(m *Module, id NodeID) NodeID {
	seq, ok := m.Arena.Get(id).Value.(*Sequence)
	if !ok || len(seq.Statements) != 1 {
		return id
	}
	return seq.Statements[0]
}

// 14. Discard unused values: every non-last Sequence statement that
// still produces a non-Void value (a call used only for its side
// effects, most commonly) gets wrapped in Discard, so LIR lowering never
// has to leave a value sitting unconsumed on the evaluation stack.
func runDiscardUnusedValues(m *Module, _ *errors.Diagnostics) {
	forEachFunctionNode(m, func(id NodeID, _ *Function) {
		seq, ok := m.Arena.Get(id).Value.(*Sequence)
		if !ok || len(seq.Statements) == 0 {
			return
		}
		for i := 0; i < len(seq.Statements)-1; i++ {
			stmt := seq.Statements[i]
			t := m.Arena.Get(stmt).Type
			if t.Kind == types.KVoid || t.Kind == types.KUnreachable {
				continue
			}
			seq.Statements[i] = m.Arena.Add(&Discard{Operand: stmt}, types.Void(), m.Arena.Get(stmt).Provenance)
		}
	})
}
