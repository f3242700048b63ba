package hir

import "github.com/brick-lang/brickc/internal/types"

// typedSlot is one child node whose value flows into a specific expected
// type, spec.md §4.3's "expected type for children" walker primitive.
// Passes 5 (interface conversion), 8 (automatic numeric cast), and 9
// (null widening) all rewrite exactly these slots, each comparing the
// slot's expected type against the child's actual type for a different
// kind of mismatch.
type typedSlot struct {
	node     NodeID
	expected types.ExpressionType
	set      func(NodeID)
}

// expectedSlots returns every typed slot rooted directly at id's own
// Value. fn is the function id's tree belongs to (nil when walking a
// constant initializer), needed to resolve Return's expected type.
func expectedSlots(m *Module, id NodeID, fn *Function) []typedSlot {
	n := m.Arena.Get(id)
	switch v := n.Value.(type) {
	case *Assignment:
		target := v.Target
		return []typedSlot{{v.Value, m.Arena.Get(target).Type, func(r NodeID) { v.Value = r }}}

	case *Return:
		if v.Value == NoNode || fn == nil {
			return nil
		}
		return []typedSlot{{v.Value, fn.Returns, func(r NodeID) { v.Value = r }}}

	case *Arithmetic:
		return []typedSlot{
			{v.Lhs, n.Type, func(r NodeID) { v.Lhs = r }},
			{v.Rhs, n.Type, func(r NodeID) { v.Rhs = r }},
		}

	case *Call:
		if !v.Resolved {
			return nil
		}
		ft := m.DC.Functions[v.Function]
		if ft == nil {
			return nil
		}
		// Associated-call Args already carries the receiver as element 0
		// (desugar pass 4's doing), matching ft.Params[0] being the self
		// pointer for an associated FuncType — so Args and Params line
		// up 1:1 regardless of whether this is a free or associated call.
		var slots []typedSlot
		for i := range v.Args {
			if i >= len(ft.Params) {
				continue
			}
			i := i
			slots = append(slots, typedSlot{v.Args[i], ft.Params[i], func(r NodeID) { v.Args[i] = r }})
		}
		return slots

	case *StructLiteral:
		td := m.DC.Types[v.Type]
		if td == nil {
			return nil
		}
		var slots []typedSlot
		for i := range v.Fields {
			if i >= len(td.Fields) || v.Fields[i] == NoNode {
				continue
			}
			i := i
			slots = append(slots, typedSlot{v.Fields[i], td.Fields[i].Type, func(r NodeID) { v.Fields[i] = r }})
		}
		return slots

	default:
		return nil
	}
}
