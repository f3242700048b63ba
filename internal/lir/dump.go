package lir

import (
	"encoding/json"
	"fmt"
	"strings"

	goccyyaml "github.com/goccy/go-yaml"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Dump renders m as a human-readable per-instruction listing, grounded on
// bytecode.Disassembler's "== name ==" / constants-pool / per-instruction
// layout (internal/bytecode/disasm.go), generalized from stack opcodes to
// this representation's named Op structs.
func Dump(m *Module) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== module %d ==\n", m.File)
	if len(m.Constants.Strings) > 0 {
		fmt.Fprintf(&b, "Constants:\n")
		for i, s := range m.Constants.Strings {
			fmt.Fprintf(&b, "  [%04d] %q\n", i, s)
		}
		fmt.Fprintln(&b)
	}
	for _, fn := range m.Functions {
		fmt.Fprintf(&b, "fn %v (%d params, %d instructions)\n", fn.ID, len(fn.Params), len(fn.Instructions))
		for i, op := range fn.Instructions {
			fmt.Fprintf(&b, "  %04d  %s\n", i, describeOp(op))
		}
		fmt.Fprintln(&b)
	}
	return b.String()
}

// DumpJSON renders m as a pretty-printed JSON document for tooling
// (cmd/brickc's `build --json`). The document is built with encoding/json,
// stamped with a "kind" discriminator via sjson, spot-checked with gjson
// (catching a marshal-shape regression before it reaches a caller), and
// finally reformatted with tidwall/pretty rather than json.MarshalIndent.
func DumpJSON(m *Module) ([]byte, error) {
	raw, err := json.Marshal(toJSON(m))
	if err != nil {
		return nil, fmt.Errorf("lir: marshal module: %w", err)
	}
	stamped, err := sjson.SetBytes(raw, "kind", "brick.lir.module")
	if err != nil {
		return nil, fmt.Errorf("lir: stamp module kind: %w", err)
	}
	if !gjson.GetBytes(stamped, "functions").IsArray() {
		return nil, fmt.Errorf("lir: marshaled module missing functions array")
	}
	return pretty.Pretty(stamped), nil
}

// DumpYAML renders the same document as DumpJSON, reusing its JSON tree so
// the two dumps never drift from each other, run through goccy/go-yaml.
func DumpYAML(m *Module) ([]byte, error) {
	raw, err := json.Marshal(toJSON(m))
	if err != nil {
		return nil, fmt.Errorf("lir: marshal module: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("lir: decode module json: %w", err)
	}
	out, err := goccyyaml.MarshalWithOptions(generic, goccyyaml.Indent(2))
	if err != nil {
		return nil, fmt.Errorf("lir: marshal module yaml: %w", err)
	}
	return out, nil
}

func toJSON(m *Module) map[string]any {
	fns := make([]map[string]any, len(m.Functions))
	for i, fn := range m.Functions {
		ops := make([]string, len(fn.Instructions))
		for j, op := range fn.Instructions {
			ops[j] = describeOp(op)
		}
		fns[i] = map[string]any{
			"id":           fmt.Sprintf("%v", fn.ID),
			"params":       fn.Params,
			"is_coroutine": fn.IsCoroutine,
			"has_return":   fn.HasReturn,
			"instructions": ops,
		}
	}
	return map[string]any{
		"file":      m.File,
		"constants": m.Constants.Strings,
		"functions": fns,
	}
}

func (k BinKind) String() string {
	switch k {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpMod:
		return "mod"
	case OpEq:
		return "eq"
	case OpNe:
		return "ne"
	case OpLt:
		return "lt"
	case OpLe:
		return "le"
	case OpGt:
		return "gt"
	case OpGe:
		return "ge"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpConcat:
		return "concat"
	default:
		return "unknown"
	}
}

func describeOp(op Op) string {
	switch o := op.(type) {
	case ConstInt:
		return fmt.Sprintf("const_int    r%d, %d", o.Dst, o.Value)
	case ConstFloat:
		return fmt.Sprintf("const_float  r%d, %g", o.Dst, o.Value)
	case ConstString:
		return fmt.Sprintf("const_string r%d, #%d", o.Dst, o.Index)
	case ConstNull:
		return fmt.Sprintf("const_null   r%d", o.Dst)
	case LoadLocal:
		return fmt.Sprintf("load_local   r%d, %v", o.Dst, o.Var)
	case StoreLocal:
		return fmt.Sprintf("store_local  %v, r%d", o.Var, o.Src)
	case LoadField:
		return fmt.Sprintf("load_field   r%d, r%d+%d", o.Dst, o.Base, o.Offset)
	case StoreField:
		return fmt.Sprintf("store_field  r%d+%d, r%d", o.Base, o.Offset, o.Src)
	case LoadIndex:
		return fmt.Sprintf("load_index   r%d, r%d[r%d] dict=%v", o.Dst, o.Base, o.Index, o.IsDict)
	case StoreIndex:
		return fmt.Sprintf("store_index  r%d[r%d] = r%d dict=%v", o.Base, o.Index, o.Src, o.IsDict)
	case BinOp:
		return fmt.Sprintf("bin_op       r%d, r%d %s r%d", o.Dst, o.Lhs, o.Op, o.Rhs)
	case UnaryNot:
		return fmt.Sprintf("not          r%d, r%d", o.Dst, o.Src)
	case Cast:
		return fmt.Sprintf("cast         r%d, r%d (%v -> %v)", o.Dst, o.Src, o.From, o.To)
	case WrapNullable:
		return fmt.Sprintf("wrap_nullable r%d, r%d", o.Dst, o.Src)
	case AddrOf:
		return fmt.Sprintf("addr_of      r%d, r%d", o.Dst, o.Src)
	case Deref:
		return fmt.Sprintf("deref        r%d, r%d", o.Dst, o.Src)
	case Alloc:
		return fmt.Sprintf("alloc        r%d", o.Dst)
	case MakeStruct:
		return fmt.Sprintf("make_struct  r%d, fields=%v", o.Dst, o.Fields)
	case MakeUnion:
		return fmt.Sprintf("make_union   r%d, tag=%d, payload=r%d", o.Dst, o.Tag, o.Payload)
	case UnionTag:
		return fmt.Sprintf("union_tag    r%d, r%d", o.Dst, o.Src)
	case UnionPayload:
		return fmt.Sprintf("union_payload r%d, r%d", o.Dst, o.Src)
	case MakeArray:
		return fmt.Sprintf("make_array   r%d, elems=%v", o.Dst, o.Elems)
	case MakeArrayFill:
		return fmt.Sprintf("make_arr_fill r%d, r%d x r%d", o.Dst, o.Fill, o.Length)
	case MakeDict:
		return fmt.Sprintf("make_dict    r%d, keys=%v vals=%v", o.Dst, o.Keys, o.Values)
	case MakeInterface:
		return fmt.Sprintf("make_iface   r%d, r%d, vtable=%v", o.Dst, o.Src, o.Vtable)
	case Call:
		return fmt.Sprintf("call         r%d, %v(%v)", o.Dst, o.Function, o.Args)
	case VtableCall:
		return fmt.Sprintf("vtable_call  r%d, r%d.#%d(%v)", o.Dst, o.Receiver, o.MethodSlot, o.Args)
	case IntrinsicCall:
		return fmt.Sprintf("intrinsic    r%d, %v.%v(%v)", o.Dst, o.Receiver, o.Intrinsic, o.Args)
	case MakeGenerator:
		return fmt.Sprintf("make_gen     r%d, %v(%v)", o.Dst, o.Function, o.Args)
	case Jump:
		return fmt.Sprintf("jump         L%d", o.Target)
	case JumpIfFalse:
		return fmt.Sprintf("jump_if_false r%d, L%d", o.Cond, o.Target)
	case BindLabel:
		return fmt.Sprintf("L%d:", o.Target)
	case Return:
		if o.HasValue {
			return fmt.Sprintf("return       r%d", o.Value)
		}
		return "return"
	case Discard:
		return fmt.Sprintf("discard      r%d", o.Src)
	default:
		return fmt.Sprintf("<unknown op %T>", op)
	}
}
