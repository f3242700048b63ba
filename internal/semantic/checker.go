package semantic

import (
	"fmt"
	"math"

	"github.com/brick-lang/brickc/internal/ast"
	"github.com/brick-lang/brickc/internal/errors"
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/types"
)

// Checker assigns an ExpressionType to every AST node reachable from a
// function body or top-level statement and resolves every Name to its
// (AnyID, ExpressionType), per spec.md §4.2. It shares one DeclarationContext
// across every file being checked.
type Checker struct {
	dc       *DeclarationContext
	file     *ast.ParsedFile
	varIDs   *ident.VariableIDAllocator
	diags    *errors.Diagnostics
	funcType *types.FuncType // the function currently being checked, for return/yield rules
}

// NewChecker creates a Checker for one file, sharing dc and a global
// variable-ID allocator (spec.md "Lifecycle": VariableIDs are globally
// unique).
func NewChecker(dc *DeclarationContext, file *ast.ParsedFile, varIDs *ident.VariableIDAllocator) *Checker {
	return &Checker{dc: dc, file: file, varIDs: varIDs, diags: &errors.Diagnostics{}}
}

// Diagnostics returns the accumulated diagnostics after CheckFile runs.
func (c *Checker) Diagnostics() *errors.Diagnostics { return c.diags }

// CheckFile type-checks every top-level constant initializer and
// function body in the file, in that order (spec.md §4.2 "Top-level
// constants are resolved before any function body").
func (c *Checker) CheckFile() {
	global := NewScope(ScopeGlobal, nil)
	c.bindImportsAndExports(global)

	for cid, cd := range c.dc.Constants {
		if cid.File != c.file.File {
			continue
		}
		c.checkExpr(cd.Init, global, cd.Type)
		global.Define(c.constantName(cid), ident.AsConstant(cid), cd.Type)
	}

	for _, idx := range c.file.TopLevel {
		node := c.file.Arena.Get(idx)
		fd, ok := node.Value.(*ast.FunctionDecl)
		if !ok || fd.Body < 0 {
			continue
		}
		c.checkFunction(fd, global)
	}
}

func (c *Checker) constantName(cid ident.ConstantID) string {
	return fmt.Sprintf("#const%d", cid.Index)
}

// bindImportsAndExports seeds the global scope with this file's own
// exports and whatever it imported, so function bodies can reference
// sibling declarations and imported names uniformly.
func (c *Checker) bindImportsAndExports(global *Scope) {
	fd := c.dc.Files[c.file.File]
	if fd == nil {
		return
	}
	moduleDecl := c.dc.Types[fd.ModuleTypeID]
	for name, export := range moduleDecl.Exports {
		global.Define(name, anyIDOf(export.Type), export.Type)
	}
	for name, export := range fd.Imports {
		global.Define(name, anyIDOf(export.Type), export.Type)
	}
}

func anyIDOf(t types.ExpressionType) ident.AnyID {
	switch t.Kind {
	case types.KReferenceToType:
		return ident.AsType(t.TypeID)
	case types.KReferenceToFunction:
		return ident.AsFunction(t.FunctionID)
	default:
		return ident.AnyID{}
	}
}

func (c *Checker) checkFunction(fd *ast.FunctionDecl, global *Scope) {
	scope := global.Push(ScopeFunction)

	for _, p := range fd.Params {
		pt, cerr := resolveTypeExpr(c.file.Arena, p.Type, c.localNames())
		if cerr != nil {
			continue
		}
		scope.Define(p.Name, ident.AsVariable(p.Variable), pt)
	}

	if fd.Self != ast.NoSelf && fd.AssociatedOn != "" {
		selfKind := types.Shared
		if fd.Self == ast.UniqueSelf {
			selfKind = types.Unique
		}
		if onID, ok := c.localNames().types[fd.AssociatedOn]; ok {
			scope.Define("self", ident.AsVariable(fd.SelfVariable), types.Pointer(selfKind, types.InstanceOf(onID)))
		}
	}

	c.funcType = c.lookupFuncType(fd)
	returnType := types.Void()
	if c.funcType != nil {
		returnType = c.funcType.Returns
	}
	_ = returnType

	bodyNode := c.file.Arena.Get(fd.Body)
	block := bodyNode.Value.(*ast.Block)
	blockType := c.checkBlock(block, fd.Body, scope)

	if c.funcType != nil && !fd.IsCoroutine {
		if !assignable(c.funcType.Returns, blockType) && blockType.Kind != types.KUnreachable {
			c.diags.Addf(errors.TypeMismatch, bodyNode.Provenance,
				"function '%s' body evaluates to %v, expected %v", fd.Name, blockType, c.funcType.Returns)
		}
	}
}

// localNames rebuilds the file-local name map the checker needs to
// resolve parameter/self type expressions; the declaration context does
// not retain Pass B's localNames value, so the checker recomputes the
// same table from the file's own declarations plus its Imports. The table
// is rebuilt on every call, i.e. once per type expression or function
// lookup that needs it.
func (c *Checker) localNames() *localNames {
	ln := &localNames{types: map[string]ident.TypeID{}, functions: map[string]ident.FunctionID{}}
	fd := c.dc.Files[c.file.File]
	moduleDecl := c.dc.Types[fd.ModuleTypeID]
	for name, export := range moduleDecl.Exports {
		switch export.Type.Kind {
		case types.KReferenceToType:
			ln.types[name] = export.Type.TypeID
		case types.KReferenceToFunction:
			ln.functions[name] = export.Type.FunctionID
		}
	}
	for name, export := range fd.Imports {
		switch export.Type.Kind {
		case types.KReferenceToType:
			ln.types[name] = export.Type.TypeID
		case types.KReferenceToFunction:
			ln.functions[name] = export.Type.FunctionID
		}
	}
	return ln
}

func (c *Checker) lookupFuncType(fd *ast.FunctionDecl) *types.FuncType {
	fsys := c.dc.Files[c.file.File]
	moduleDecl := c.dc.Types[fsys.ModuleTypeID]
	if export, ok := moduleDecl.Exports[fd.Name]; ok && export.Type.Kind == types.KReferenceToFunction {
		return c.dc.Functions[export.Type.FunctionID]
	}
	if fd.AssociatedOn != "" {
		if onID, ok := c.localNames().types[fd.AssociatedOn]; ok {
			if td := c.dc.Types[onID]; td != nil {
				if fid, ok := td.AssociatedFunctions[fd.Name]; ok {
					return c.dc.Functions[fid]
				}
			}
		}
	}
	return nil
}

// checkBlock type-checks every statement of a block; children are
// void-typed except the last, whose type becomes the block's type
// (spec.md §4.2 "Block"). Unreachable propagates through subsequent
// statements.
func (c *Checker) checkBlock(b *ast.Block, blockIdx ast.Index, scope *Scope) types.ExpressionType {
	result := types.Void()
	for i, stmtIdx := range b.Statements {
		last := i == len(b.Statements)-1
		var expect types.ExpressionType
		if last {
			expect = types.ExpressionType{Kind: -1} // no specific expectation; infer freely
		} else {
			expect = types.Void()
		}
		t := c.checkStatement(stmtIdx, scope, expect)
		if last {
			result = t
		}
		if result.Kind == types.KUnreachable {
			break
		}
	}
	node := c.file.Arena.Get(blockIdx)
	if result.IsPointer() {
		c.diags.Addf(errors.IllegalFirstClassReference, node.Provenance,
			"a block's value may not be a pointer type")
	}
	_ = node.SetType(result)
	return result
}

func (c *Checker) checkStatement(idx ast.Index, scope *Scope, expect types.ExpressionType) types.ExpressionType {
	node := c.file.Arena.Get(idx)
	switch s := node.Value.(type) {
	case *ast.VarDecl:
		return c.checkVarDecl(s, idx, scope)
	case *ast.BorrowDecl:
		return c.checkBorrowDecl(s, idx, scope)
	case *ast.ExprStatement:
		return c.checkExpr(s.Value, scope, expect)
	case *ast.Return:
		return c.checkReturn(s, idx, scope)
	case *ast.Yield:
		return c.checkYield(s, idx, scope)
	case *ast.Break:
		_ = node.SetType(types.Void())
		return types.Void()
	default:
		t := c.checkExpr(idx, scope, types.Void())
		return t
	}
}

func (c *Checker) checkVarDecl(s *ast.VarDecl, idx ast.Index, scope *Scope) types.ExpressionType {
	node := c.file.Arena.Get(idx)

	var declared types.ExpressionType
	hasDeclared := s.Type >= 0
	if hasDeclared {
		t, cerr := resolveTypeExpr(c.file.Arena, s.Type, c.localNames())
		if cerr != nil {
			c.diags.Add(cerr)
		} else {
			declared = t
		}
	}

	expect := declared
	if !hasDeclared {
		expect = types.ExpressionType{Kind: -1}
	}
	valueType := c.checkExpr(s.Value, scope, expect)

	finalType := valueType
	if hasDeclared {
		finalType = declared
		if !assignable(declared, valueType) {
			c.diags.Addf(errors.TypeMismatch, node.Provenance,
				"cannot assign %v to declared type %v", valueType, declared)
		}
	}

	if finalType.IsPointer() {
		c.diags.Addf(errors.IllegalFirstClassReference, node.Provenance,
			"'%s' may not have a pointer type; use 'borrow' instead", s.Name)
	}

	scope.Define(s.Name, ident.AsVariable(s.Variable), finalType)
	_ = node.SetType(types.Void())
	return types.Void()
}

func (c *Checker) checkBorrowDecl(s *ast.BorrowDecl, idx ast.Index, scope *Scope) types.ExpressionType {
	node := c.file.Arena.Get(idx)
	if !isValidLvalue(c.file.Arena, s.Value) {
		c.diags.Addf(errors.IllegalNonLvalueBorrow, node.Provenance,
			"borrow initializer must be an lvalue")
	}
	valueType := c.checkExpr(s.Value, scope, types.ExpressionType{Kind: -1})
	inner, isPtr := valueType.Deref()
	if !isPtr {
		inner = valueType
	}
	ptrType := types.Pointer(s.Kind, inner)
	scope.Define(s.Name, ident.AsVariable(s.Variable), ptrType)
	_ = node.SetType(types.Void())
	return types.Void()
}

// isValidLvalue recognizes a Name, or a Dereference/Dot/Index on a valid
// lvalue (spec.md §4.2 "first-class reference ban": the only rhs shapes a
// borrow may take). It looks at shape only: a Dereference is accepted
// whatever the pointer kind of its operand, since operand types are not
// yet known when it runs; checkAssignment separately rejects a write
// through a shared pointer.
func isValidLvalue(arena *ast.Arena, idx ast.Index) bool {
	node := arena.Get(idx)
	switch v := node.Value.(type) {
	case *ast.Name:
		return true
	case *ast.Dereference:
		return isValidLvalue(arena, v.Operand)
	case *ast.Dot:
		return isValidLvalue(arena, v.Target)
	case *ast.IndexExpr:
		return isValidLvalue(arena, v.Target)
	default:
		return false
	}
}

func (c *Checker) checkReturn(s *ast.Return, idx ast.Index, scope *Scope) types.ExpressionType {
	node := c.file.Arena.Get(idx)
	want := types.Void()
	if c.funcType != nil {
		want = c.funcType.Returns
	}
	if s.Value >= 0 {
		got := c.checkExpr(s.Value, scope, want)
		if !assignable(want, got) {
			c.diags.Addf(errors.TypeMismatch, node.Provenance,
				"return value %v is not assignable to declared return type %v", got, want)
		}
	} else if want.Kind != types.KVoid {
		c.diags.Addf(errors.TypeMismatch, node.Provenance, "missing return value; expected %v", want)
	}
	_ = node.SetType(types.Unreachable())
	return types.Unreachable()
}

func (c *Checker) checkYield(s *ast.Yield, idx ast.Index, scope *Scope) types.ExpressionType {
	node := c.file.Arena.Get(idx)
	if c.funcType == nil || !c.funcType.IsCoroutine {
		c.diags.Addf(errors.CannotYield, node.Provenance, "'yield' is only legal inside a coroutine")
		_ = node.SetType(types.Void())
		return types.Void()
	}
	param := types.Void()
	if c.funcType.Returns.Kind == types.KGenerator {
		param = *c.funcType.Returns.ParamType
	}
	got := c.checkExpr(s.Value, scope, param)
	if !assignable(param, got) {
		c.diags.Addf(errors.TypeMismatch, node.Provenance,
			"yielded value %v is not assignable to the coroutine's resume type %v", got, param)
	}
	_ = node.SetType(param)
	return param
}

// checkExpr is the single recursive walk that fills every node's type
// cell. expect.Kind == -1 is used internally to mean "no particular
// expectation"; callers outside this file should never construct that
// sentinel directly.
func (c *Checker) checkExpr(idx ast.Index, scope *Scope, expect types.ExpressionType) types.ExpressionType {
	node := c.file.Arena.Get(idx)
	var result types.ExpressionType

	switch e := node.Value.(type) {
	case *ast.IntLiteral:
		result = intLiteralType(e.Value)
	case *ast.FloatLiteral:
		result = floatLiteralType(e.Value)
	case *ast.BoolLiteral:
		result = types.Prim(types.Bool)
	case *ast.CharLiteral:
		result = types.Prim(types.Char)
	case *ast.StringLiteral:
		result = types.StringType()
	case *ast.NullLiteral:
		result = types.Null()
	case *ast.Name:
		result = c.checkName(e, node, scope)
	case *ast.BinExpr:
		result = c.checkBinExpr(e, node, scope)
	case *ast.UnaryExpr:
		result = c.checkUnaryExpr(e, node, scope)
	case *ast.Call:
		result = c.checkCall(e, node, scope)
	case *ast.Dot:
		result = c.checkDot(e, node, scope)
	case *ast.IndexExpr:
		result = c.checkIndex(e, node, scope)
	case *ast.Assignment:
		result = c.checkAssignment(e, node, scope)
	case *ast.CompoundAssign:
		result = c.checkCompoundAssign(e, node, scope)
	case *ast.TakeUnique:
		result = c.checkTakeRef(e.Operand, types.Unique, node, scope)
	case *ast.TakeShared:
		result = c.checkTakeRef(e.Operand, types.Shared, node, scope)
	case *ast.Dereference:
		result = c.checkDereference(e, node, scope)
	case *ast.StructLiteral:
		result = c.checkStructLiteral(e, node, scope)
	case *ast.ArrayLiteral:
		result = c.checkArrayLiteral(e, node, scope)
	case *ast.DictLiteral:
		result = c.checkDictLiteral(e, node, scope)
	case *ast.Block:
		inner := scope.Push(ScopeBlock)
		result = c.checkBlock(e, idx, inner)
		return result // checkBlock already set the type cell
	case *ast.If:
		result = c.checkIf(e, node, scope)
	case *ast.While:
		result = c.checkWhile(e, node, scope)
	case *ast.Loop:
		result = c.checkLoop(e, node, scope)
	case *ast.Match:
		result = c.checkMatch(e, node, scope)
	case *ast.Return:
		return c.checkReturn(e, idx, scope)
	case *ast.Yield:
		return c.checkYield(e, idx, scope)
	case *ast.Break:
		result = types.Void()
	default:
		result = types.Void()
	}

	if err := node.SetType(result); err != nil {
		c.diags.Addf(errors.InternalError, node.Provenance, "%v", err)
	}
	return result
}

func intLiteralType(v int64) types.ExpressionType {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return types.Prim(types.Int32)
	}
	return types.Prim(types.Int64)
}

func floatLiteralType(v float64) types.ExpressionType {
	f32 := float32(v)
	if math.Abs(float64(f32)-v) < 1e-7 {
		return types.Prim(types.Float32)
	}
	return types.Prim(types.Float64)
}

func (c *Checker) checkName(n *ast.Name, node *ast.Node, scope *Scope) types.ExpressionType {
	id, t, ok := scope.Resolve(n.Value)
	if !ok {
		c.diags.Addf(errors.NameNotFound, node.Provenance, "undefined name '%s'", n.Value)
		return types.Unreachable()
	}
	if err := n.SetRef(id); err != nil {
		c.diags.Addf(errors.InternalError, node.Provenance, "%v", err)
	}
	return t
}

func (c *Checker) checkBinExpr(e *ast.BinExpr, node *ast.Node, scope *Scope) types.ExpressionType {
	lhs := c.checkExpr(e.Lhs, scope, types.ExpressionType{Kind: -1}).FullyDeref()
	rhs := c.checkExpr(e.Rhs, scope, types.ExpressionType{Kind: -1}).FullyDeref()

	if e.Op.IsComparison() {
		if lhs.Kind != types.KPrimitive || rhs.Kind != types.KPrimitive {
			c.diags.Addf(errors.ArithmeticMismatch, node.Provenance,
				"comparison requires primitive operands, got %v and %v", lhs, rhs)
			return types.Prim(types.Bool)
		}
		return types.Prim(types.Bool)
	}

	if e.Op == ast.LogicalAnd || e.Op == ast.LogicalOr {
		return types.Prim(types.Bool)
	}

	if e.Op == ast.NullCoalesce {
		if lhs.Kind == types.KNullable {
			return *lhs.Inner
		}
		return lhs
	}

	if lhs.Kind != types.KPrimitive || rhs.Kind != types.KPrimitive {
		c.diags.Addf(errors.ArithmeticMismatch, node.Provenance,
			"arithmetic requires primitive operands, got %v and %v", lhs, rhs)
		return types.Unreachable()
	}
	return widen(lhs.Primitive, rhs.Primitive)
}

// widen implements spec.md §4.2's asymmetric numeric widening table.
func widen(a, b types.Primitive) types.ExpressionType {
	rank := func(p types.Primitive) int {
		switch p {
		case types.PointerSizePrimitive:
			return 0
		case types.Int32:
			return 1
		case types.Int64:
			return 2
		case types.Float32:
			return 3
		case types.Float64:
			return 4
		default:
			return -1
		}
	}
	if rank(a) < 0 || rank(b) < 0 {
		if a == b {
			return types.Prim(a)
		}
		return types.Prim(a)
	}
	if rank(a) >= rank(b) {
		if a == types.PointerSizePrimitive {
			return types.Prim(types.Int32)
		}
		return types.Prim(a)
	}
	if b == types.PointerSizePrimitive {
		return types.Prim(types.Int32)
	}
	return types.Prim(b)
}

func (c *Checker) checkUnaryExpr(e *ast.UnaryExpr, node *ast.Node, scope *Scope) types.ExpressionType {
	operand := c.checkExpr(e.Operand, scope, types.ExpressionType{Kind: -1}).FullyDeref()
	if e.Op == ast.Not {
		return types.Prim(types.Bool)
	}
	return operand
}

func (c *Checker) checkTakeRef(operand ast.Index, kind types.PointerKind, node *ast.Node, scope *Scope) types.ExpressionType {
	if !isValidLvalue(c.file.Arena, operand) {
		c.diags.Addf(errors.IllegalNonLvalueBorrow, node.Provenance, "operand of '%v' must be an lvalue", kind)
	}
	inner := c.checkExpr(operand, scope, types.ExpressionType{Kind: -1})
	return types.Pointer(kind, inner)
}

func (c *Checker) checkDereference(e *ast.Dereference, node *ast.Node, scope *Scope) types.ExpressionType {
	operand := c.checkExpr(e.Operand, scope, types.ExpressionType{Kind: -1})
	inner, ok := operand.Deref()
	if !ok {
		c.diags.Addf(errors.DereferenceNonPointer, node.Provenance, "cannot dereference non-pointer type %v", operand)
		return types.Unreachable()
	}
	return inner
}

func (c *Checker) checkDot(e *ast.Dot, node *ast.Node, scope *Scope) types.ExpressionType {
	target := c.checkExpr(e.Target, scope, types.ExpressionType{Kind: -1}).FullyDeref()

	switch target.Kind {
	case types.KInstanceOf:
		td := c.dc.Types[target.TypeID]
		if td == nil {
			return types.Unreachable()
		}
		if td.Kind == types.DeclStruct {
			if i := td.FieldIndex(e.Field); i >= 0 {
				return td.Fields[i].Type
			}
			c.diags.Addf(errors.FieldNotPresent, node.Provenance, "struct '%s' has no field '%s'", td.Name, e.Field)
			return types.Unreachable()
		}
		c.diags.Addf(errors.IllegalDotLHS, node.Provenance, "cannot access a field on %v", target)
		return types.Unreachable()

	case types.KReferenceToType:
		td := c.dc.Types[target.TypeID]
		if td == nil {
			return types.Unreachable()
		}
		if td.Kind == types.DeclUnion {
			payload, hasVariant := td.Variants[e.Field]
			if !hasVariant {
				if td.VariantIndex(e.Field) < 0 {
					c.diags.Addf(errors.FieldNotPresent, node.Provenance, "union '%s' has no variant '%s'", td.Name, e.Field)
					return types.Unreachable()
				}
			}
			if payload != nil {
				return types.FuncRef([]types.ExpressionType{*payload}, types.InstanceOf(target.TypeID))
			}
			return types.InstanceOf(target.TypeID)
		}
		c.diags.Addf(errors.IllegalDotLHS, node.Provenance, "cannot access a member on type reference %v", target)
		return types.Unreachable()

	case types.KReferenceToFunction:
		c.diags.Addf(errors.IllegalDotLHS, node.Provenance, "cannot access a member on a function reference")
		return types.Unreachable()

	case types.KCollection:
		if fid, ok := intrinsicFor(target.Collection, e.Field); ok {
			ft := c.dc.Functions[fid]
			if ft != nil {
				return types.ReferenceToFunction(fid)
			}
		}
		c.diags.Addf(errors.UnknownProperty, node.Provenance, "no method '%s' on %v", e.Field, target)
		return types.Unreachable()

	default:
		if dc, ok := c.moduleDeclFor(target); ok {
			if export, ok := dc.Exports[e.Field]; ok {
				return export.Type
			}
			c.diags.Addf(errors.ExportNotFound, node.Provenance, "module has no export '%s'", e.Field)
			return types.Unreachable()
		}
		c.diags.Addf(errors.IllegalDotLHS, node.Provenance, "cannot access a member on %v", target)
		return types.Unreachable()
	}
}

func (c *Checker) moduleDeclFor(t types.ExpressionType) (*types.TypeDeclaration, bool) {
	if t.Kind != types.KInstanceOf && t.Kind != types.KReferenceToType {
		return nil, false
	}
	td, ok := c.dc.Types[t.TypeID]
	if !ok || td.Kind != types.DeclModule {
		return nil, false
	}
	return td, true
}

// intrinsicFor is a cheap placeholder lookup: it matches collection
// intrinsics by IntrinsicKind name rather than scanning every registered
// function, since intrinsics are few and fixed (spec.md §4.1 table).
func intrinsicFor(kind types.CollectionKind, field string) (ident.FunctionID, bool) {
	var want types.IntrinsicKind
	switch {
	case kind == types.CollectionArray && field == "len":
		want = types.IntrinsicArrayLen
	case kind == types.CollectionArray && field == "push":
		want = types.IntrinsicArrayPush
	case kind == types.CollectionDict && field == "contains_key":
		want = types.IntrinsicDictContainsKey
	case kind == types.CollectionDict && field == "insert":
		want = types.IntrinsicDictInsert
	case kind == types.CollectionRc && field == "clone":
		want = types.IntrinsicRcClone
	case kind == types.CollectionCell && field == "get":
		want = types.IntrinsicCellGet
	case kind == types.CollectionCell && field == "set":
		want = types.IntrinsicCellSet
	default:
		return ident.FunctionID{}, false
	}
	return ident.FunctionID{File: 0, Index: uint32(want)}, true
}

func (c *Checker) checkIndex(e *ast.IndexExpr, node *ast.Node, scope *Scope) types.ExpressionType {
	target := c.checkExpr(e.Target, scope, types.ExpressionType{Kind: -1}).FullyDeref()
	c.checkExpr(e.Index, scope, types.ExpressionType{Kind: -1})
	if target.Kind != types.KCollection {
		c.diags.Addf(errors.TypeMismatch, node.Provenance, "cannot index %v", target)
		return types.Unreachable()
	}
	switch target.Collection {
	case types.CollectionArray:
		return *target.Elem
	case types.CollectionDict:
		return *target.Elem
	default:
		c.diags.Addf(errors.TypeMismatch, node.Provenance, "%v is not indexable", target)
		return types.Unreachable()
	}
}

func (c *Checker) checkAssignment(e *ast.Assignment, node *ast.Node, scope *Scope) types.ExpressionType {
	if !isValidLvalue(c.file.Arena, e.Target) {
		c.diags.Addf(errors.IllegalAssignmentLHS, node.Provenance, "left-hand side of assignment must be an lvalue")
	}
	targetType := c.checkExpr(e.Target, scope, types.ExpressionType{Kind: -1})
	// A Dereference target writes through the pointer one layer up, so
	// it's that operand's own kind that decides mutability, not the
	// dereferenced (pointee) type targetType resolves to; checkExpr(e.Target)
	// above already ran checkDereference, which set the operand's type
	// cell, so read it back rather than re-checking (write-once cells).
	if deref, ok := c.file.Arena.Get(e.Target).Value.(*ast.Dereference); ok {
		if operandType, ok := c.file.Arena.Get(deref.Operand).Type(); ok &&
			operandType.Kind == types.KPointer && operandType.PointerKind == types.Shared {
			c.diags.Addf(errors.IllegalSharedRefMutation, node.Provenance, "cannot assign through a shared pointer")
		}
	} else if targetType.Kind == types.KPointer && targetType.PointerKind == types.Shared {
		c.diags.Addf(errors.IllegalSharedRefMutation, node.Provenance, "cannot assign through a shared pointer")
	}
	valueType := c.checkExpr(e.Value, scope, targetType)
	if !assignable(targetType, valueType) {
		c.diags.Addf(errors.TypeMismatch, node.Provenance, "cannot assign %v to %v", valueType, targetType)
	}
	return types.Void()
}

func (c *Checker) checkCompoundAssign(e *ast.CompoundAssign, node *ast.Node, scope *Scope) types.ExpressionType {
	if !isValidLvalue(c.file.Arena, e.Target) {
		c.diags.Addf(errors.IllegalAssignmentLHS, node.Provenance, "left-hand side of assignment must be an lvalue")
	}
	targetType := c.checkExpr(e.Target, scope, types.ExpressionType{Kind: -1})
	valueType := c.checkExpr(e.Value, scope, targetType)
	if targetType.FullyDeref().Kind != types.KPrimitive || valueType.FullyDeref().Kind != types.KPrimitive {
		c.diags.Addf(errors.ArithmeticMismatch, node.Provenance,
			"compound assignment requires primitive operands, got %v and %v", targetType, valueType)
	}
	return types.Void()
}

func (c *Checker) checkStructLiteral(e *ast.StructLiteral, node *ast.Node, scope *Scope) types.ExpressionType {
	t, cerr := resolveTypeExpr(c.file.Arena, e.Type, c.localNames())
	if cerr != nil {
		c.diags.Add(cerr)
		return types.Unreachable()
	}
	td, ok := c.dc.Types[t.TypeID]
	if !ok || td.Kind != types.DeclStruct {
		c.diags.Addf(errors.NonStructDeclStructLiteral, node.Provenance, "%v is not a struct type", t)
		return types.Unreachable()
	}
	for _, f := range e.Fields {
		i := td.FieldIndex(f.Name)
		if i < 0 {
			c.diags.Addf(errors.FieldNotPresent, node.Provenance, "struct '%s' has no field '%s'", td.Name, f.Name)
			continue
		}
		valType := c.checkExpr(f.Value, scope, td.Fields[i].Type)
		if !assignable(td.Fields[i].Type, valType) {
			c.diags.Addf(errors.TypeMismatch, node.Provenance,
				"field '%s' expects %v, got %v", f.Name, td.Fields[i].Type, valType)
		}
	}
	if len(e.Fields) != len(td.Fields) {
		c.diags.Addf(errors.MissingField, node.Provenance,
			"struct literal for '%s' supplies %d fields, expected %d", td.Name, len(e.Fields), len(td.Fields))
	}
	return types.InstanceOf(t.TypeID)
}

func (c *Checker) checkArrayLiteral(e *ast.ArrayLiteral, node *ast.Node, scope *Scope) types.ExpressionType {
	var elem types.ExpressionType
	if e.ElemType >= 0 {
		t, cerr := resolveTypeExpr(c.file.Arena, e.ElemType, c.localNames())
		if cerr != nil {
			c.diags.Add(cerr)
		} else {
			elem = t
		}
	}
	for i, el := range e.Elements {
		t := c.checkExpr(el, scope, elem)
		if i == 0 && e.ElemType < 0 {
			elem = t
		} else if !assignable(elem, t) {
			c.diags.Addf(errors.TypeMismatch, node.Provenance, "array element %v does not match element type %v", t, elem)
		}
	}
	return types.ArrayOf(elem)
}

func (c *Checker) checkDictLiteral(e *ast.DictLiteral, node *ast.Node, scope *Scope) types.ExpressionType {
	var key, val types.ExpressionType
	if e.KeyType >= 0 {
		if t, cerr := resolveTypeExpr(c.file.Arena, e.KeyType, c.localNames()); cerr == nil {
			key = t
		}
	}
	if e.ValueType >= 0 {
		if t, cerr := resolveTypeExpr(c.file.Arena, e.ValueType, c.localNames()); cerr == nil {
			val = t
		}
	}
	for i, entry := range e.Entries {
		kt := c.checkExpr(entry.Key, scope, key)
		vt := c.checkExpr(entry.Value, scope, val)
		if i == 0 {
			if e.KeyType < 0 {
				key = kt
			}
			if e.ValueType < 0 {
				val = vt
			}
		}
	}
	return types.DictOf(key, val)
}

func (c *Checker) checkIf(e *ast.If, node *ast.Node, scope *Scope) types.ExpressionType {
	c.checkExpr(e.Cond, scope, types.Prim(types.Bool))
	thenScope := scope.Push(ScopeBlock)
	thenType := c.checkExpr(e.Then, thenScope, types.ExpressionType{Kind: -1})
	if e.Else < 0 {
		return types.Void()
	}
	elseScope := scope.Push(ScopeBlock)
	elseType := c.checkExpr(e.Else, elseScope, types.ExpressionType{Kind: -1})
	if assignable(thenType, elseType) {
		return thenType
	}
	if assignable(elseType, thenType) {
		return elseType
	}
	c.diags.Addf(errors.TypeMismatch, node.Provenance, "if branches produce incompatible types %v and %v", thenType, elseType)
	return types.Void()
}

func (c *Checker) checkWhile(e *ast.While, node *ast.Node, scope *Scope) types.ExpressionType {
	c.checkExpr(e.Cond, scope, types.Prim(types.Bool))
	bodyScope := scope.Push(ScopeBlock)
	c.checkExpr(e.Body, bodyScope, types.Void())
	return types.Void()
}

func (c *Checker) checkLoop(e *ast.Loop, node *ast.Node, scope *Scope) types.ExpressionType {
	bodyScope := scope.Push(ScopeBlock)
	c.checkExpr(e.Body, bodyScope, types.Void())
	return types.Void()
}

func (c *Checker) checkMatch(e *ast.Match, node *ast.Node, scope *Scope) types.ExpressionType {
	scrutineeRaw := c.checkExpr(e.Value, scope, types.ExpressionType{Kind: -1})
	scrutinee := scrutineeRaw.FullyDeref()
	if scrutinee.Kind != types.KInstanceOf {
		c.diags.Addf(errors.CaseStatementRequiresUnion, node.Provenance, "match scrutinee must be a union, got %v", scrutinee)
		return types.Void()
	}
	td := c.dc.Types[scrutinee.TypeID]
	if td == nil || td.Kind != types.DeclUnion {
		c.diags.Addf(errors.CaseStatementRequiresUnion, node.Provenance, "match scrutinee must be a union, got %v", scrutinee)
		return types.Void()
	}

	covered := map[string]bool{}
	var resultType types.ExpressionType
	haveResult := false

	for _, mc := range e.Cases {
		var payload *types.ExpressionType
		for i, vname := range mc.Variants {
			covered[vname] = true
			p, ok := td.Variants[vname]
			if !ok {
				c.diags.Addf(errors.FieldNotPresent, node.Provenance, "union '%s' has no variant '%s'", td.Name, vname)
				continue
			}
			if i == 0 {
				payload = p
			} else if (payload == nil) != (p == nil) {
				c.diags.Addf(errors.BindingNameDoesntMatch, node.Provenance,
					"variants in one match arm must agree on whether they bind a value")
			}
		}

		caseScope := scope.Push(ScopeBlock)
		if mc.Binding != "" && payload != nil {
			bindType := *payload
			if scrutineeRaw.IsPointer() {
				bindType = types.Pointer(scrutineeRaw.PointerKind, bindType)
			}
			caseScope.Define(mc.Binding, ident.AsVariable(mc.Variable), bindType)
		}

		bodyNode := c.file.Arena.Get(mc.Body)
		block := bodyNode.Value.(*ast.Block)
		caseType := c.checkBlock(block, mc.Body, caseScope)

		if !haveResult {
			resultType = caseType
			haveResult = true
		} else if assignable(resultType, caseType) {
			// keep resultType
		} else if assignable(caseType, resultType) {
			resultType = caseType
		} else {
			c.diags.Addf(errors.TypeMismatch, node.Provenance,
				"match arms produce incompatible types %v and %v", resultType, caseType)
		}
	}

	for _, vname := range td.VariantOrder {
		if !covered[vname] {
			c.diags.Addf(errors.NonExhaustiveCase, node.Provenance, "match does not cover variant '%s'", vname)
		}
	}

	if resultType.IsPointer() {
		c.diags.Addf(errors.IllegalFirstClassReference, node.Provenance, "a match result may not be a pointer type")
	}

	return resultType
}

// checkCall handles spec.md §4.2's "Calls" rule: resolving the callee,
// prepending an associated-call's receiver, and running structural
// generic unification over parameters and arguments.
func (c *Checker) checkCall(e *ast.Call, node *ast.Node, scope *Scope) types.ExpressionType {
	var calleeType types.ExpressionType
	args := e.Args
	var receiverType *types.ExpressionType

	if dot, ok := c.file.Arena.Get(e.Callee).Value.(*ast.Dot); ok {
		targetType := c.checkExpr(dot.Target, scope, types.ExpressionType{Kind: -1})
		calleeType = c.checkDotAsCallTarget(dot, c.file.Arena.Get(e.Callee), scope, targetType)
		receiverType = &targetType
	} else {
		calleeType = c.checkExpr(e.Callee, scope, types.ExpressionType{Kind: -1})
	}

	var ft *types.FuncType
	switch calleeType.Kind {
	case types.KReferenceToFunction:
		ft = c.dc.Functions[calleeType.FunctionID]
	case types.KFunctionReference:
		ft = &types.FuncType{Params: calleeType.Signature.Parameters, Returns: calleeType.Signature.Returns}
	default:
		c.diags.Addf(errors.CantCall, node.Provenance, "%v is not callable", calleeType)
		for _, a := range args {
			c.checkExpr(a, scope, types.ExpressionType{Kind: -1})
		}
		return types.Unreachable()
	}
	if ft == nil {
		c.diags.Addf(errors.CantCall, node.Provenance, "unresolved callee")
		return types.Unreachable()
	}

	binding := make([]types.ExpressionType, ft.TypeParamCount)
	for i := range binding {
		binding[i] = types.Unreachable()
	}

	paramOffset := 0
	if ft.IsAssociated && receiverType != nil && len(ft.Params) > 0 {
		unify(ft.Params[0], *receiverType, binding)
		paramOffset = 1
	}

	wantArgs := len(ft.Params) - paramOffset
	if wantArgs != len(args) {
		c.diags.Addf(errors.WrongArgsCount, node.Provenance,
			"call expects %d argument(s), got %d", wantArgs, len(args))
	}

	for i, a := range args {
		pi := i + paramOffset
		var expect types.ExpressionType
		if pi < len(ft.Params) {
			expect = substitute(ft.Params[pi], binding)
		} else {
			expect = types.ExpressionType{Kind: -1}
		}
		got := c.checkExpr(a, scope, expect)
		if pi < len(ft.Params) {
			unify(ft.Params[pi], got, binding)
			want := substitute(ft.Params[pi], binding)
			if !assignable(want, got) {
				c.diags.Addf(errors.TypeMismatch, node.Provenance,
					"argument %d: cannot assign %v to %v", i+1, got, want)
			}
		}
	}

	return substitute(ft.Returns, binding)
}

func (c *Checker) checkDotAsCallTarget(dot *ast.Dot, node *ast.Node, scope *Scope, targetFull types.ExpressionType) types.ExpressionType {
	target := targetFull.FullyDeref()
	switch target.Kind {
	case types.KInstanceOf:
		td := c.dc.Types[target.TypeID]
		if td != nil {
			if fid, ok := td.AssociatedFunctions[dot.Field]; ok {
				return types.ReferenceToFunction(fid)
			}
		}
		c.diags.Addf(errors.UnknownProperty, node.Provenance, "no method '%s' on %v", dot.Field, target)
		return types.Unreachable()
	case types.KCollection:
		if fid, ok := intrinsicFor(target.Collection, dot.Field); ok {
			return types.ReferenceToFunction(fid)
		}
		c.diags.Addf(errors.UnknownProperty, node.Provenance, "no method '%s' on %v", dot.Field, target)
		return types.Unreachable()
	default:
		return c.checkDot(dot, node, scope)
	}
}

// unify performs first-write-wins structural unification of a type
// parameter reference against a concrete argument type, filling binding
// slots that are still Unreachable (spec.md §4.2 "Calls").
func unify(param, arg types.ExpressionType, binding []types.ExpressionType) {
	if param.Kind == types.KTypeParameterReference {
		if param.ParamIndex < len(binding) && binding[param.ParamIndex].Kind == types.KUnreachable {
			binding[param.ParamIndex] = arg
		}
		return
	}
	switch param.Kind {
	case types.KPointer:
		if arg.Kind == types.KPointer {
			unify(*param.Inner, *arg.Inner, binding)
		} else {
			unify(*param.Inner, arg, binding)
		}
	case types.KCollection:
		if arg.Kind == types.KCollection {
			if param.Elem != nil && arg.Elem != nil {
				unify(*param.Elem, *arg.Elem, binding)
			}
			if param.Key != nil && arg.Key != nil {
				unify(*param.Key, *arg.Key, binding)
			}
		}
	case types.KNullable:
		inner := arg
		if arg.Kind == types.KNullable {
			inner = *arg.Inner
		}
		unify(*param.Inner, inner, binding)
	}
}

// substitute replaces every TypeParameterReference in t with its bound
// type from binding, recursively.
func substitute(t types.ExpressionType, binding []types.ExpressionType) types.ExpressionType {
	switch t.Kind {
	case types.KTypeParameterReference:
		if t.ParamIndex < len(binding) {
			return binding[t.ParamIndex]
		}
		return t
	case types.KPointer:
		inner := substitute(*t.Inner, binding)
		return types.Pointer(t.PointerKind, inner)
	case types.KCollection:
		switch t.Collection {
		case types.CollectionDict:
			k := substitute(*t.Key, binding)
			v := substitute(*t.Elem, binding)
			return types.DictOf(k, v)
		case types.CollectionString:
			return t
		default:
			elem := substitute(*t.Elem, binding)
			r := t
			r.Elem = &elem
			return r
		}
	case types.KNullable:
		inner := substitute(*t.Inner, binding)
		return types.NullableOf(inner)
	default:
		return t
	}
}

// assignable implements spec.md §4.2's is_assignable_to(lhs, rhs).
func assignable(lhs, rhs types.ExpressionType) bool {
	if lhs.Kind == types.KUnreachable {
		return true
	}
	if rhs.Kind == types.KUnreachable {
		return true
	}
	if lhs.Kind == types.KVoid {
		return rhs.Kind == types.KUnreachable
	}
	if rhs.Kind == types.KNull {
		return lhs.Kind == types.KNullable
	}
	if lhs.Kind == types.KPointer && rhs.Kind == types.KPointer {
		if lhs.PointerKind == rhs.PointerKind {
			return assignable(*lhs.Inner, *rhs.Inner) || lhs.Inner.Equal(*rhs.Inner)
		}
		return lhs.PointerKind == types.Shared && rhs.PointerKind == types.Unique && lhs.Inner.Equal(*rhs.Inner)
	}
	if lhs.Kind != types.KPointer && rhs.Kind == types.KPointer {
		return assignable(lhs, *rhs.Inner)
	}
	if lhs.Kind == types.KNullable {
		if rhs.Kind == types.KNullable {
			return assignable(*lhs.Inner, *rhs.Inner)
		}
		return assignable(*lhs.Inner, rhs)
	}
	if lhs.Kind == types.KInstanceOf && rhs.Kind == types.KInstanceOf {
		return lhs.TypeID == rhs.TypeID
	}
	if lhs.Kind == types.KPrimitive && rhs.Kind == types.KPrimitive {
		return lhs.Primitive == rhs.Primitive || isWideningPair(lhs.Primitive, rhs.Primitive)
	}
	return lhs.Equal(rhs)
}

func isWideningPair(lhs, rhs types.Primitive) bool {
	switch rhs {
	case types.Int32:
		return lhs == types.Int64 || lhs == types.Float32 || lhs == types.Float64
	case types.Int64:
		return lhs == types.Float64
	case types.Float32:
		return lhs == types.Float64
	case types.PointerSizePrimitive:
		return lhs == types.Int32 || lhs == types.Int64
	default:
		return false
	}
}
