package hir

import (
	"github.com/brick-lang/brickc/internal/ast"
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/provenance"
	"github.com/brick-lang/brickc/internal/semantic"
	"github.com/brick-lang/brickc/internal/types"
)

// Lower walks a fully type-checked ParsedFile and builds its HIR Module
// (spec.md §4.3's "Lowering"). It trusts every node's type cell and every
// Name's referenced-ID cell to already be set (CheckFile must have run
// cleanly first); a malformed or partially-checked file makes this panic
// via ast.Node.MustType, the same contract ast.Node itself documents.
func Lower(dc *semantic.DeclarationContext, pf *ast.ParsedFile, varIDs *ident.VariableIDAllocator) *Module {
	lw := &lowering{dc: dc, pf: pf, varIDs: varIDs, arena: NewArena()}

	m := &Module{
		File:      pf.File,
		Arena:     lw.arena,
		Constants: map[ident.ConstantID]NodeID{},
		DC:        dc,
		VarIDs:    varIDs,
	}

	for cid, cd := range dc.Constants {
		if cid.File != pf.File {
			continue
		}
		m.Constants[cid] = lw.lowerExpr(cd.Init)
	}

	for _, idx := range pf.TopLevel {
		node := pf.Arena.Get(idx)
		fd, ok := node.Value.(*ast.FunctionDecl)
		if !ok || fd.Body < 0 {
			continue
		}

		params := make([]ident.VariableID, 0, len(fd.Params)+1)
		if fd.Self != ast.NoSelf {
			params = append(params, fd.SelfVariable)
		}
		for _, p := range fd.Params {
			params = append(params, p.Variable)
		}

		bodyNode := pf.Arena.Get(fd.Body)
		block := bodyNode.Value.(*ast.Block)
		body := lw.lowerBlock(block, fd.Body)

		fid := functionIDFor(dc, pf.File, fd)
		returns := types.Void()
		if ft := dc.Functions[fid]; ft != nil {
			returns = ft.Returns
		}

		m.Functions = append(m.Functions, &Function{
			ID:          fid,
			Params:      params,
			Returns:     returns,
			IsCoroutine: fd.IsCoroutine,
			Body:        body,
		})
	}

	return m
}

// functionIDFor recomputes a FunctionDecl's own FunctionID by
// cross-referencing the declaration context the same way the type
// checker's lookupFuncType does, rather than threading an extra field
// through ast.FunctionDecl just for this one lookup.
func functionIDFor(dc *semantic.DeclarationContext, file ident.FileID, fd *ast.FunctionDecl) ident.FunctionID {
	fdecls := dc.Files[file]
	moduleDecl := dc.Types[fdecls.ModuleTypeID]
	if export, ok := moduleDecl.Exports[fd.Name]; ok && export.Type.Kind == types.KReferenceToFunction {
		return export.Type.FunctionID
	}
	if fd.AssociatedOn != "" {
		onID := typeIDNamed(dc, fdecls, fd.AssociatedOn)
		if td := dc.Types[onID]; td != nil {
			if fid, ok := td.AssociatedFunctions[fd.Name]; ok {
				return fid
			}
		}
	}
	return ident.FunctionID{}
}

func typeIDNamed(dc *semantic.DeclarationContext, fdecls *types.FileDeclarations, name string) ident.TypeID {
	moduleDecl := dc.Types[fdecls.ModuleTypeID]
	if export, ok := moduleDecl.Exports[name]; ok && export.Type.Kind == types.KReferenceToType {
		return export.Type.TypeID
	}
	if export, ok := fdecls.Imports[name]; ok && export.Type.Kind == types.KReferenceToType {
		return export.Type.TypeID
	}
	return ident.TypeID{}
}

// lowering holds the state threaded through one file's AST→HIR walk.
type lowering struct {
	dc     *semantic.DeclarationContext
	pf     *ast.ParsedFile
	varIDs *ident.VariableIDAllocator
	arena  *Arena
}

func (lw *lowering) lowerStatement(idx ast.Index) NodeID {
	node := lw.pf.Arena.Get(idx)
	switch s := node.Value.(type) {
	case *ast.VarDecl:
		return lw.lowerVarDecl(s, idx)
	case *ast.BorrowDecl:
		return lw.lowerBorrowDecl(s, idx)
	case *ast.ExprStatement:
		return lw.lowerExpr(s.Value)
	default:
		return lw.lowerExpr(idx)
	}
}

func (lw *lowering) lowerBlock(b *ast.Block, idx ast.Index) NodeID {
	node := lw.pf.Arena.Get(idx)
	stmts := make([]NodeID, len(b.Statements))
	for i, s := range b.Statements {
		stmts[i] = lw.lowerStatement(s)
	}
	return lw.arena.Add(&Sequence{Statements: stmts}, node.MustType(), node.Provenance)
}

// lowerVarDecl expands `let name[: Type] = value;` into
// Sequence[Declaration(var), Assignment(VariableReference, value)], the
// rule spec.md §4.3 names for Declaration.
func (lw *lowering) lowerVarDecl(s *ast.VarDecl, idx ast.Index) NodeID {
	node := lw.pf.Arena.Get(idx)
	valType := lw.pf.Arena.Get(s.Value).MustType()

	declNode := lw.arena.Add(&Declaration{Variable: s.Variable}, types.Void(), node.Provenance)
	valNode := lw.lowerExpr(s.Value)
	ref := lw.arena.Add(&VariableReference{Variable: s.Variable}, valType, node.Provenance)
	assignNode := lw.arena.Add(&Assignment{Target: ref, Value: valNode}, types.Void(), node.Provenance)

	return lw.arena.Add(&Sequence{Statements: []NodeID{declNode, assignNode}}, types.Void(), node.Provenance)
}

// lowerBorrowDecl expands `borrow name = &e;` the same way as a VarDecl,
// but wraps the initializer in the TakeUnique/TakeShared the checker's
// own BorrowDecl rule implies (checkBorrowDecl computes the bound type
// without ever materializing that wrapper node, since the AST has no
// separate borrow-expression shape).
func (lw *lowering) lowerBorrowDecl(s *ast.BorrowDecl, idx ast.Index) NodeID {
	node := lw.pf.Arena.Get(idx)
	valType := lw.pf.Arena.Get(s.Value).MustType()
	inner := valType
	if d, isPtr := valType.Deref(); isPtr {
		inner = d
	}
	ptrType := types.Pointer(s.Kind, inner)

	declNode := lw.arena.Add(&Declaration{Variable: s.Variable}, types.Void(), node.Provenance)
	valNode := lw.lowerExpr(s.Value)

	var wrapped Value
	if s.Kind == types.Unique {
		wrapped = &TakeUnique{Operand: valNode}
	} else {
		wrapped = &TakeShared{Operand: valNode}
	}
	wrappedID := lw.arena.Add(wrapped, ptrType, node.Provenance)

	ref := lw.arena.Add(&VariableReference{Variable: s.Variable}, ptrType, node.Provenance)
	assignNode := lw.arena.Add(&Assignment{Target: ref, Value: wrappedID}, types.Void(), node.Provenance)

	return lw.arena.Add(&Sequence{Statements: []NodeID{declNode, assignNode}}, types.Void(), node.Provenance)
}

func (lw *lowering) lowerExpr(idx ast.Index) NodeID {
	node := lw.pf.Arena.Get(idx)
	switch e := node.Value.(type) {
	case *ast.IntLiteral:
		return lw.arena.Add(&IntLiteral{Value: e.Value}, node.MustType(), node.Provenance)
	case *ast.FloatLiteral:
		return lw.arena.Add(&FloatLiteral{Value: e.Value}, node.MustType(), node.Provenance)
	case *ast.BoolLiteral:
		return lw.arena.Add(&BoolLiteral{Value: e.Value}, node.MustType(), node.Provenance)
	case *ast.CharLiteral:
		return lw.arena.Add(&CharLiteral{Value: e.Value}, node.MustType(), node.Provenance)
	case *ast.StringLiteral:
		return lw.arena.Add(&StringLiteral{Value: e.Value}, node.MustType(), node.Provenance)
	case *ast.NullLiteral:
		return lw.arena.Add(&NullLiteral{}, node.MustType(), node.Provenance)
	case *ast.Name:
		return lw.lowerName(e, node)
	case *ast.BinExpr:
		return lw.lowerBinExpr(e, node)
	case *ast.UnaryExpr:
		return lw.lowerUnaryExpr(e, node)
	case *ast.Call:
		return lw.lowerCall(e, node)
	case *ast.Dot:
		return lw.lowerDot(e, node)
	case *ast.IndexExpr:
		return lw.lowerIndex(e, node)
	case *ast.Assignment:
		return lw.lowerAssignment(e, node)
	case *ast.CompoundAssign:
		return lw.lowerCompoundAssign(e, node)
	case *ast.TakeUnique:
		return lw.lowerTakeRef(e.Operand, types.Unique, node)
	case *ast.TakeShared:
		return lw.lowerTakeRef(e.Operand, types.Shared, node)
	case *ast.Dereference:
		return lw.lowerDereference(e, node)
	case *ast.StructLiteral:
		return lw.lowerStructLiteral(e, node)
	case *ast.ArrayLiteral:
		return lw.lowerArrayLiteral(e, node)
	case *ast.DictLiteral:
		return lw.lowerDictLiteral(e, node)
	case *ast.Block:
		return lw.lowerBlock(e, idx)
	case *ast.If:
		return lw.lowerIf(e, node)
	case *ast.While:
		return lw.lowerWhile(e, node)
	case *ast.Loop:
		return lw.lowerLoop(e, node)
	case *ast.Match:
		return lw.lowerMatch(e, node)
	case *ast.Return:
		return lw.lowerReturn(e, node)
	case *ast.Yield:
		return lw.lowerYield(e, node)
	case *ast.Break:
		return lw.arena.Add(&Break{}, node.MustType(), node.Provenance)
	default:
		return lw.arena.Add(&NullLiteral{}, node.MustType(), node.Provenance)
	}
}

func (lw *lowering) lowerName(n *ast.Name, node *ast.Node) NodeID {
	id, _ := n.Ref()
	t := node.MustType()
	switch id.Kind {
	case ident.KindVariable:
		return lw.arena.Add(&VariableReference{Variable: id.Variable}, t, node.Provenance)
	case ident.KindConstant:
		return lw.arena.Add(&ConstantReference{Constant: id.Constant}, t, node.Provenance)
	default:
		// A bare type/function name carries no runtime value of its own.
		// lowerDot/lowerCall recognize a union-variant target before
		// lowering it; any other Dot target of this kind (a module name,
		// for instance) is lowered through here and gets this NullLiteral
		// as a placeholder value.
		return lw.arena.Add(&NullLiteral{}, t, node.Provenance)
	}
}

func (lw *lowering) lowerBinExpr(e *ast.BinExpr, node *ast.Node) NodeID {
	lhsType := lw.pf.Arena.Get(e.Lhs).MustType().FullyDeref()
	lhs := lw.lowerExpr(e.Lhs)
	rhs := lw.lowerExpr(e.Rhs)
	t := node.MustType()

	switch {
	case e.Op == ast.NullCoalesce:
		return lw.arena.Add(&NullCoalesce{Lhs: lhs, Rhs: rhs}, t, node.Provenance)
	case e.Op == ast.LogicalAnd || e.Op == ast.LogicalOr:
		return lw.arena.Add(&BinaryLogical{Op: e.Op, Lhs: lhs, Rhs: rhs}, t, node.Provenance)
	case e.Op.IsComparison():
		return lw.arena.Add(&Comparison{Op: e.Op, Lhs: lhs, Rhs: rhs}, t, node.Provenance)
	case e.Op == ast.Add && lhsType.Kind == types.KCollection && lhsType.Collection == types.CollectionString:
		return lw.arena.Add(&StringConcat{Lhs: lhs, Rhs: rhs}, t, node.Provenance)
	default:
		return lw.arena.Add(&Arithmetic{Op: e.Op, Lhs: lhs, Rhs: rhs}, t, node.Provenance)
	}
}

func (lw *lowering) lowerUnaryExpr(e *ast.UnaryExpr, node *ast.Node) NodeID {
	operand := lw.lowerExpr(e.Operand)
	t := node.MustType()
	if e.Op == ast.Not {
		return lw.arena.Add(&UnaryLogical{Operand: operand}, t, node.Provenance)
	}
	// Neg has no dedicated HIR variant (spec.md §4.3's operator nodes are
	// all binary); `-x` lowers to `0 - x`.
	zero := lw.zeroLiteral(t, node.Provenance)
	return lw.arena.Add(&Arithmetic{Op: ast.Sub, Lhs: zero, Rhs: operand}, t, node.Provenance)
}

func (lw *lowering) zeroLiteral(t types.ExpressionType, rng provenance.Range) NodeID {
	if t.Kind == types.KPrimitive && t.Primitive.IsFloat() {
		return lw.arena.Add(&FloatLiteral{Value: 0}, t, rng)
	}
	return lw.arena.Add(&IntLiteral{Value: 0}, t, rng)
}

// lowerCall handles plain calls, dot-calls (deferred to a Call node with
// Resolved=false for desugar pass 4 to settle), and union variant
// constructor calls, which are recognized and fully resolved here since
// they need no later pass.
func (lw *lowering) lowerCall(e *ast.Call, node *ast.Node) NodeID {
	args := make([]NodeID, len(e.Args))
	for i, a := range e.Args {
		args[i] = lw.lowerExpr(a)
	}

	calleeNode := lw.pf.Arena.Get(e.Callee)
	if dot, ok := calleeNode.Value.(*ast.Dot); ok {
		if uid, variant, vidx, isUnion := lw.unionVariantRef(dot); isUnion {
			payload := NoNode
			if len(args) > 0 {
				payload = args[0]
			}
			return lw.arena.Add(&UnionLiteral{Type: uid, Variant: variant, VariantIndex: vidx, Payload: payload},
				node.MustType(), node.Provenance)
		}
		receiver := lw.lowerExpr(dot.Target)
		return lw.arena.Add(&Call{Receiver: receiver, Method: dot.Field, Args: args}, node.MustType(), node.Provenance)
	}

	if name, ok := calleeNode.Value.(*ast.Name); ok {
		if id, ok2 := name.Ref(); ok2 && id.Kind == ident.KindFunction {
			return lw.arena.Add(&Call{Function: id.Function, Resolved: true, Receiver: NoNode, Args: args},
				node.MustType(), node.Provenance)
		}
	}

	// brick has no first-class function values to call indirectly; every
	// callable is a named function, an associated function, or an
	// intrinsic, all handled above.
	return lw.arena.Add(&Call{Receiver: NoNode, Args: args}, node.MustType(), node.Provenance)
}

// unionVariantRef recognizes `UnionName.variant`: a Dot whose target is a
// Name resolving to a union TypeID, rather than an instance value.
func (lw *lowering) unionVariantRef(dot *ast.Dot) (ident.TypeID, string, int, bool) {
	name, ok := lw.pf.Arena.Get(dot.Target).Value.(*ast.Name)
	if !ok {
		return ident.TypeID{}, "", 0, false
	}
	id, ok := name.Ref()
	if !ok || id.Kind != ident.KindType {
		return ident.TypeID{}, "", 0, false
	}
	td := lw.dc.Types[id.Type]
	if td == nil || td.Kind != types.DeclUnion {
		return ident.TypeID{}, "", 0, false
	}
	vidx := td.VariantIndex(dot.Field)
	if vidx < 0 {
		return ident.TypeID{}, "", 0, false
	}
	return id.Type, dot.Field, vidx, true
}

func (lw *lowering) lowerDot(e *ast.Dot, node *ast.Node) NodeID {
	if uid, variant, vidx, ok := lw.unionVariantRef(e); ok {
		return lw.arena.Add(&UnionLiteral{Type: uid, Variant: variant, VariantIndex: vidx, Payload: NoNode},
			node.MustType(), node.Provenance)
	}

	targetType := lw.pf.Arena.Get(e.Target).MustType().FullyDeref()
	target := lw.lowerExpr(e.Target)

	fieldIndex := -1
	if targetType.Kind == types.KInstanceOf {
		if td := lw.dc.Types[targetType.TypeID]; td != nil {
			fieldIndex = td.FieldIndex(e.Field)
		}
	}
	return lw.arena.Add(&Access{Target: target, Field: e.Field, FieldIndex: fieldIndex}, node.MustType(), node.Provenance)
}

func (lw *lowering) lowerIndex(e *ast.IndexExpr, node *ast.Node) NodeID {
	targetType := lw.pf.Arena.Get(e.Target).MustType().FullyDeref()
	target := lw.lowerExpr(e.Target)
	index := lw.lowerExpr(e.Index)
	t := node.MustType()

	if targetType.Kind == types.KCollection && targetType.Collection == types.CollectionDict {
		return lw.arena.Add(&DictIndex{Target: target, Key: index}, t, node.Provenance)
	}
	return lw.arena.Add(&ArrayIndex{Target: target, Index: index}, t, node.Provenance)
}

func (lw *lowering) lowerAssignment(e *ast.Assignment, node *ast.Node) NodeID {
	target := lw.lowerExpr(e.Target)
	value := lw.lowerExpr(e.Value)
	return lw.arena.Add(&Assignment{Target: target, Value: value}, types.Void(), node.Provenance)
}

func (lw *lowering) lowerCompoundAssign(e *ast.CompoundAssign, node *ast.Node) NodeID {
	target := lw.lowerExpr(e.Target)
	targetAgain := lw.lowerExpr(e.Target)
	value := lw.lowerExpr(e.Value)
	targetType := lw.pf.Arena.Get(e.Target).MustType()

	arith := lw.arena.Add(&Arithmetic{Op: e.Op, Lhs: targetAgain, Rhs: value}, targetType, node.Provenance)
	return lw.arena.Add(&Assignment{Target: target, Value: arith, FromCompound: true}, types.Void(), node.Provenance)
}

func (lw *lowering) lowerTakeRef(operand ast.Index, kind types.PointerKind, node *ast.Node) NodeID {
	v := lw.lowerExpr(operand)
	t := node.MustType()
	if kind == types.Unique {
		return lw.arena.Add(&TakeUnique{Operand: v}, t, node.Provenance)
	}
	return lw.arena.Add(&TakeShared{Operand: v}, t, node.Provenance)
}

func (lw *lowering) lowerDereference(e *ast.Dereference, node *ast.Node) NodeID {
	v := lw.lowerExpr(e.Operand)
	return lw.arena.Add(&Dereference{Operand: v}, node.MustType(), node.Provenance)
}

// lowerStructLiteral normalizes field order to the struct's own
// declaration order (spec.md §4.5: "field order as written need not
// match declaration order").
func (lw *lowering) lowerStructLiteral(e *ast.StructLiteral, node *ast.Node) NodeID {
	t := node.MustType()
	td := lw.dc.Types[t.TypeID]

	byName := make(map[string]ast.Index, len(e.Fields))
	for _, f := range e.Fields {
		byName[f.Name] = f.Value
	}

	fields := make([]NodeID, len(td.Fields))
	for i, f := range td.Fields {
		if idx, ok := byName[f.Name]; ok {
			fields[i] = lw.lowerExpr(idx)
		} else {
			fields[i] = NoNode
		}
	}
	return lw.arena.Add(&StructLiteral{Type: t.TypeID, Fields: fields}, t, node.Provenance)
}

func (lw *lowering) lowerArrayLiteral(e *ast.ArrayLiteral, node *ast.Node) NodeID {
	elems := make([]NodeID, len(e.Elements))
	for i, el := range e.Elements {
		elems[i] = lw.lowerExpr(el)
	}
	return lw.arena.Add(&ArrayLiteral{Elements: elems}, node.MustType(), node.Provenance)
}

func (lw *lowering) lowerDictLiteral(e *ast.DictLiteral, node *ast.Node) NodeID {
	keys := make([]NodeID, len(e.Entries))
	vals := make([]NodeID, len(e.Entries))
	for i, entry := range e.Entries {
		keys[i] = lw.lowerExpr(entry.Key)
		vals[i] = lw.lowerExpr(entry.Value)
	}
	return lw.arena.Add(&DictLiteral{Keys: keys, Values: vals}, node.MustType(), node.Provenance)
}

func (lw *lowering) lowerIf(e *ast.If, node *ast.Node) NodeID {
	cond := lw.lowerExpr(e.Cond)
	thenID := lw.lowerExpr(e.Then)
	elseID := NoNode
	if e.Else >= 0 {
		elseID = lw.lowerExpr(e.Else)
	}
	return lw.arena.Add(&If{Cond: cond, Then: thenID, Else: elseID}, node.MustType(), node.Provenance)
}

func (lw *lowering) lowerWhile(e *ast.While, node *ast.Node) NodeID {
	cond := lw.lowerExpr(e.Cond)
	body := lw.lowerExpr(e.Body)
	return lw.arena.Add(&While{Cond: cond, Body: body}, types.Void(), node.Provenance)
}

func (lw *lowering) lowerLoop(e *ast.Loop, node *ast.Node) NodeID {
	body := lw.lowerExpr(e.Body)
	return lw.arena.Add(&Loop{Body: body}, types.Void(), node.Provenance)
}

func (lw *lowering) lowerReturn(e *ast.Return, node *ast.Node) NodeID {
	v := NoNode
	if e.Value >= 0 {
		v = lw.lowerExpr(e.Value)
	}
	return lw.arena.Add(&Return{Value: v}, node.MustType(), node.Provenance)
}

func (lw *lowering) lowerYield(e *ast.Yield, node *ast.Node) NodeID {
	v := lw.lowerExpr(e.Value)
	return lw.arena.Add(&Yield{Value: v}, node.MustType(), node.Provenance)
}

// lowerMatch expands a `match` expression into
// Sequence[Declaration(temp), Assignment(temp, scrutinee),
// Switch{UnionTag(temp), cases}], per spec.md §4.3. A case that binds a
// payload gets its own Declaration+Assignment prefix reading the payload
// via UnionVariant, exactly mirroring the checker's own case-binding rule.
func (lw *lowering) lowerMatch(e *ast.Match, node *ast.Node) NodeID {
	scrType := lw.pf.Arena.Get(e.Value).MustType()
	tempVar := lw.varIDs.Next()

	decl := lw.arena.Add(&Declaration{Variable: tempVar}, types.Void(), node.Provenance)
	scrutinee := lw.lowerExpr(e.Value)
	tempRefAssign := lw.arena.Add(&VariableReference{Variable: tempVar}, scrType, node.Provenance)
	assign := lw.arena.Add(&Assignment{Target: tempRefAssign, Value: scrutinee}, types.Void(), node.Provenance)

	td := lw.dc.Types[scrType.FullyDeref().TypeID]

	cases := make([]SwitchCase, len(e.Cases))
	for i, mc := range e.Cases {
		tags := make([]int, len(mc.Variants))
		for j, v := range mc.Variants {
			tags[j] = td.VariantIndex(v)
		}

		bodyNode := lw.pf.Arena.Get(mc.Body)
		block := bodyNode.Value.(*ast.Block)
		caseBody := lw.lowerBlock(block, mc.Body)

		if mc.Binding != "" && len(mc.Variants) > 0 {
			payload := td.Variants[mc.Variants[0]]
			payloadType := types.Void()
			if payload != nil {
				payloadType = *payload
			}
			if scrType.IsPointer() {
				payloadType = types.Pointer(scrType.PointerKind, payloadType)
			}

			tempRefRead := lw.arena.Add(&VariableReference{Variable: tempVar}, scrType, node.Provenance)
			uv := lw.arena.Add(&UnionVariant{Operand: tempRefRead, Variant: mc.Variants[0], VariantIndex: tags[0]},
				payloadType, node.Provenance)
			bindDecl := lw.arena.Add(&Declaration{Variable: mc.Variable}, types.Void(), node.Provenance)
			bindRef := lw.arena.Add(&VariableReference{Variable: mc.Variable}, payloadType, node.Provenance)
			bindAssign := lw.arena.Add(&Assignment{Target: bindRef, Value: uv}, types.Void(), node.Provenance)

			caseBody = lw.arena.Add(&Sequence{Statements: []NodeID{bindDecl, bindAssign, caseBody}},
				bodyNode.MustType(), node.Provenance)
		}

		cases[i] = SwitchCase{Tags: tags, Body: caseBody}
	}

	tempRefTag := lw.arena.Add(&VariableReference{Variable: tempVar}, scrType, node.Provenance)
	tag := lw.arena.Add(&UnionTag{Operand: tempRefTag}, types.Prim(types.Int32), node.Provenance)
	sw := lw.arena.Add(&Switch{Value: tag, Cases: cases}, node.MustType(), node.Provenance)

	return lw.arena.Add(&Sequence{Statements: []NodeID{decl, assign, sw}}, node.MustType(), node.Provenance)
}
