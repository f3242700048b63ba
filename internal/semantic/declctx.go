// Package semantic implements the Declaration Context and Type Checker
// (spec.md §4.1, §4.2): the two phases that turn a set of parsed files
// into fully typed, name-resolved ASTs. It is grounded on the original
// compiler's own internal/semantic package — same two-phase shape
// (forward declaration scan, then a scoped analysis pass), same
// Scope/SymbolTable parent-chain pattern, same diagnostic-accumulation
// style — generalized from DWScript's class/record/procedure model to
// this module's struct/union/interface/function model.
package semantic

import (
	"fmt"

	"github.com/brick-lang/brickc/internal/ast"
	"github.com/brick-lang/brickc/internal/errors"
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/provenance"
	"github.com/brick-lang/brickc/internal/types"
)

// FileInput pairs a declared module name with its parsed file, the input
// shape to Build (spec.md §4.1: "build(files: sequence of (module_name,
// ParsedFile))").
type FileInput struct {
	ModuleName string
	File       *ast.ParsedFile
}

// DeclarationContext is the result of Build: every file's declarations,
// every user type's TypeDeclaration (keyed by TypeID), every function's
// FuncType (keyed by FunctionID), every constant's resolved type, and
// the registered collection intrinsics.
type DeclarationContext struct {
	Files     map[ident.FileID]*types.FileDeclarations
	ModuleIDs map[string]ident.FileID

	Types     map[ident.TypeID]*types.TypeDeclaration
	Functions map[ident.FunctionID]*types.FuncType
	Constants map[ident.ConstantID]*ConstantDecl
}

// ConstantDecl is a resolved top-level constant: its type and the AST
// index of its (already-validated-constant) initializer expression.
type ConstantDecl struct {
	Type types.ExpressionType
	Init ast.Index
}

func newDeclarationContext() *DeclarationContext {
	return &DeclarationContext{
		Files:     make(map[ident.FileID]*types.FileDeclarations),
		ModuleIDs: make(map[string]ident.FileID),
		Types:     make(map[ident.TypeID]*types.TypeDeclaration),
		Functions: make(map[ident.FunctionID]*types.FuncType),
		Constants: make(map[ident.ConstantID]*ConstantDecl),
	}
}

// fileState tracks the per-file bookkeeping Pass A produces and Pass B
// consumes: which names this file exports as which TypeID/FunctionID,
// plus the lists of import/const declarations to resolve in Pass B.
type fileState struct {
	input      FileInput
	moduleType ident.TypeID
	decls      *types.FileDeclarations
	localTypes map[string]ident.TypeID
	localFuncs map[string]ident.FunctionID
	imports    []ast.Index
	constants  []ast.Index
}

// Build performs the two-pass declaration context construction described
// in spec.md §4.1. Diagnostics (including name conflicts and import
// errors) are accumulated rather than returned as a Go error; dc is
// always usable, holding whatever could be resolved despite errors
// (spec.md §4.1 "Failure semantics: partial results are preserved").
func Build(inputs []FileInput) (*DeclarationContext, *errors.Diagnostics) {
	diags := &errors.Diagnostics{}
	dc := newDeclarationContext()
	states := make([]*fileState, 0, len(inputs))

	// Pass A: allocate IDs, populate each file's module exports.
	for _, in := range inputs {
		moduleID := ident.TypeID{File: in.File.File, Index: 0}
		moduleDecl := &types.TypeDeclaration{
			Kind:    types.DeclModule,
			Name:    in.ModuleName,
			Exports: make(map[string]types.ModuleExport),
		}
		dc.Types[moduleID] = moduleDecl

		fd := types.NewFileDeclarations(in.File.File, moduleID)
		fd.TypeIDs.Next() // burn index 0, reserved for the module's own synthetic type
		dc.Files[in.File.File] = fd
		dc.ModuleIDs[in.ModuleName] = in.File.File

		fs := &fileState{
			input:      in,
			moduleType: moduleID,
			decls:      fd,
			localTypes: make(map[string]ident.TypeID),
			localFuncs: make(map[string]ident.FunctionID),
		}

		seen := make(map[string]ast.Index)
		for _, idx := range in.File.TopLevel {
			node := in.File.Arena.Get(idx)
			name, kind := topLevelNameOf(node.Value)

			switch kind {
			case kindImport:
				fs.imports = append(fs.imports, idx)
				continue
			case kindConst:
				fs.constants = append(fs.constants, idx)
				continue
			case kindNone:
				continue
			}

			if prevIdx, dup := seen[name]; dup {
				prevNode := in.File.Arena.Get(prevIdx)
				diags.Add(errors.New(errors.DeclarationNameConflict, node.Provenance,
					fmt.Sprintf("'%s' is declared more than once in this file", name)).
					WithRelated(prevNode.Provenance))
				continue
			}
			seen[name] = idx

			switch kind {
			case kindType:
				tid := fd.TypeIDs.Next()
				fs.localTypes[name] = tid
				moduleDecl.Exports[name] = types.ModuleExport{Type: types.ReferenceToType(tid)}
			case kindFunction:
				fid := fd.FunctionIDs.Next()
				fs.localFuncs[name] = fid
				moduleDecl.Exports[name] = types.ModuleExport{Type: types.ReferenceToFunction(fid)}
			}
		}

		states = append(states, fs)
	}

	// Pass B: resolve imports, then fill struct/union/interface/function
	// declarations, then constants.
	for _, fs := range states {
		localNames := resolveImports(dc, fs, diags)

		for _, idx := range fs.input.File.TopLevel {
			node := fs.input.File.Arena.Get(idx)
			switch decl := node.Value.(type) {
			case *ast.StructDecl:
				fillStruct(dc, fs, decl, fs.localTypes[decl.Name], localNames, diags)
			case *ast.UnionDecl:
				fillUnion(dc, fs, decl, fs.localTypes[decl.Name], localNames, diags)
			case *ast.InterfaceDecl:
				fillInterface(dc, fs, decl, fs.localTypes[decl.Name], localNames, diags)
			case *ast.FunctionDecl:
				fillFunction(dc, fs, decl, fs.localFuncs[decl.Name], node.Provenance, localNames, diags)
			}
		}

		for _, idx := range fs.constants {
			node := fs.input.File.Arena.Get(idx)
			fillConstant(dc, fs, node.Value.(*ast.ConstDecl), node.Provenance, localNames, diags)
		}
	}

	registerIntrinsics(dc)

	return dc, diags
}

const (
	kindNone = iota
	kindType
	kindFunction
	kindImport
	kindConst
)

func topLevelNameOf(v ast.Value) (name string, kind int) {
	switch d := v.(type) {
	case *ast.StructDecl:
		return d.Name, kindType
	case *ast.UnionDecl:
		return d.Name, kindType
	case *ast.InterfaceDecl:
		return d.Name, kindType
	case *ast.FunctionDecl:
		return d.Name, kindFunction
	case *ast.ImportDecl:
		return "", kindImport
	case *ast.ConstDecl:
		return d.Name, kindConst
	default:
		return "", kindNone
	}
}

// localNames is the file's local (type-name → TypeID) map built from its
// own top-level declarations plus whatever it imported (spec.md §4.1
// Pass B step 2: "the file's local (type-name → TypeID) map, built from
// exports plus imports").
type localNames struct {
	types     map[string]ident.TypeID
	functions map[string]ident.FunctionID
}

// resolveImports implements Pass B step (1): resolving each
// `self.<filename>[.<name>]*` import path by walking module exports.
func resolveImports(dc *DeclarationContext, fs *fileState, diags *errors.Diagnostics) *localNames {
	ln := &localNames{types: map[string]ident.TypeID{}, functions: map[string]ident.FunctionID{}}
	for k, v := range fs.localTypes {
		ln.types[k] = v
	}
	for k, v := range fs.localFuncs {
		ln.functions[k] = v
	}

	for _, idx := range fs.imports {
		node := fs.input.File.Arena.Get(idx)
		imp := node.Value.(*ast.ImportDecl)

		if len(imp.Path) == 0 {
			diags.Add(errors.New(errors.IllegalImport, node.Provenance, "import path is empty"))
			continue
		}
		if imp.Path[0] != "self" {
			diags.Add(errors.New(errors.IllegalImport, node.Provenance,
				fmt.Sprintf("import path must begin with 'self', found '%s'", imp.Path[0])))
			continue
		}
		if len(imp.Path) < 2 {
			diags.Add(errors.New(errors.IllegalImport, node.Provenance, "import path must name a file"))
			continue
		}

		moduleFileName := imp.Path[1]
		targetFile, ok := dc.ModuleIDs[moduleFileName]
		if !ok {
			diags.Add(errors.New(errors.FileNotFound, node.Provenance,
				fmt.Sprintf("no such file '%s'", moduleFileName)))
			continue
		}
		targetModuleDecl := dc.Types[ident.TypeID{File: targetFile, Index: 0}]

		rest := imp.Path[2:]
		if len(rest) == 0 {
			// Terminal module import: binds the module itself.
			fs.decls.Imports[moduleFileName] = types.ModuleExport{Type: types.ReferenceToType(ident.TypeID{File: targetFile, Index: 0})}
			continue
		}

		export, ok := targetModuleDecl.Exports[rest[0]]
		if !ok {
			diags.Add(errors.New(errors.ExportNotFound, node.Provenance,
				fmt.Sprintf("module '%s' has no export named '%s'", moduleFileName, rest[0])))
			continue
		}
		if len(rest) > 1 {
			diags.Add(errors.New(errors.ImportPathMustBeModule, node.Provenance,
				"only a terminal module import may be followed by further path segments"))
			continue
		}

		fs.decls.Imports[rest[0]] = export
		switch export.Type.Kind {
		case types.KReferenceToType:
			ln.types[rest[0]] = export.Type.TypeID
		case types.KReferenceToFunction:
			ln.functions[rest[0]] = export.Type.FunctionID
		}
	}

	return ln
}

// resolveTypeExpr resolves a type-expression AST subtree into an
// ExpressionType using the file's local name map (spec.md §4.1 Pass B
// step 2/3).
func resolveTypeExpr(arena *ast.Arena, idx ast.Index, ln *localNames) (types.ExpressionType, *errors.CompilerError) {
	if idx < 0 {
		return types.Void(), nil
	}
	node := arena.Get(idx)
	switch te := node.Value.(type) {
	case *ast.VoidTypeExpr:
		return types.Void(), nil
	case *ast.NameTypeExpr:
		if te.Name == "string" {
			return types.StringType(), nil
		}
		if p, ok := primitiveNamed(te.Name); ok {
			return types.Prim(p), nil
		}
		if tid, ok := ln.types[te.Name]; ok {
			return types.InstanceOf(tid), nil
		}
		return types.ExpressionType{}, errors.New(errors.NameNotFound, node.Provenance,
			fmt.Sprintf("unknown type '%s'", te.Name))
	case *ast.PointerTypeExpr:
		inner, err := resolveTypeExpr(arena, te.Inner, ln)
		if err != nil {
			return types.ExpressionType{}, err
		}
		return types.Pointer(te.Kind, inner), nil
	case *ast.NullableTypeExpr:
		inner, err := resolveTypeExpr(arena, te.Inner, ln)
		if err != nil {
			return types.ExpressionType{}, err
		}
		return types.NullableOf(inner), nil
	case *ast.ArrayTypeExpr:
		elem, err := resolveTypeExpr(arena, te.Elem, ln)
		if err != nil {
			return types.ExpressionType{}, err
		}
		return types.ArrayOf(elem), nil
	case *ast.DictTypeExpr:
		key, err := resolveTypeExpr(arena, te.Key, ln)
		if err != nil {
			return types.ExpressionType{}, err
		}
		val, err := resolveTypeExpr(arena, te.Value, ln)
		if err != nil {
			return types.ExpressionType{}, err
		}
		return types.DictOf(key, val), nil
	case *ast.RcTypeExpr:
		elem, err := resolveTypeExpr(arena, te.Elem, ln)
		if err != nil {
			return types.ExpressionType{}, err
		}
		return types.RcOf(elem), nil
	case *ast.CellTypeExpr:
		elem, err := resolveTypeExpr(arena, te.Elem, ln)
		if err != nil {
			return types.ExpressionType{}, err
		}
		return types.CellOf(elem), nil
	case *ast.GeneratorTypeExpr:
		yield, err := resolveTypeExpr(arena, te.Yield, ln)
		if err != nil {
			return types.ExpressionType{}, err
		}
		param, err := resolveTypeExpr(arena, te.Param, ln)
		if err != nil {
			return types.ExpressionType{}, err
		}
		return types.GeneratorOf(yield, param), nil
	default:
		return types.ExpressionType{}, errors.New(errors.InternalError, node.Provenance, "not a type expression")
	}
}

func primitiveNamed(name string) (types.Primitive, bool) {
	switch name {
	case "int32":
		return types.Int32, true
	case "int64":
		return types.Int64, true
	case "float32":
		return types.Float32, true
	case "float64":
		return types.Float64, true
	case "bool":
		return types.Bool, true
	case "char":
		return types.Char, true
	case "pointer_size":
		return types.PointerSizePrimitive, true
	default:
		return 0, false
	}
}

func fillStruct(dc *DeclarationContext, fs *fileState, decl *ast.StructDecl, id ident.TypeID, ln *localNames, diags *errors.Diagnostics) {
	td := &types.TypeDeclaration{Kind: types.DeclStruct, Name: decl.Name, IsAffine: decl.IsAffine, AssociatedFunctions: map[string]ident.FunctionID{}}
	for _, f := range decl.Fields {
		ft, err := resolveTypeExpr(fs.input.File.Arena, f.Type, ln)
		if err != nil {
			diags.Add(err)
			continue
		}
		if ft.IsPointer() {
			diags.Add(errors.New(errors.IllegalReferenceInsideDataType, fs.input.File.Arena.Get(f.Type).Provenance,
				fmt.Sprintf("field '%s' of struct '%s' may not be a pointer type", f.Name, decl.Name)))
			continue
		}
		td.Fields = append(td.Fields, types.StructField{Name: f.Name, Type: ft})
	}
	dc.Types[id] = td
}

func fillUnion(dc *DeclarationContext, fs *fileState, decl *ast.UnionDecl, id ident.TypeID, ln *localNames, diags *errors.Diagnostics) {
	td := &types.TypeDeclaration{Kind: types.DeclUnion, Name: decl.Name, IsAffine: decl.IsAffine, Variants: map[string]*types.ExpressionType{}}
	for _, v := range decl.Variants {
		td.VariantOrder = append(td.VariantOrder, v.Name)
		if v.Payload < 0 {
			td.Variants[v.Name] = nil
			continue
		}
		pt, err := resolveTypeExpr(fs.input.File.Arena, v.Payload, ln)
		if err != nil {
			diags.Add(err)
			continue
		}
		if pt.IsPointer() {
			diags.Add(errors.New(errors.IllegalReferenceInsideDataType, fs.input.File.Arena.Get(v.Payload).Provenance,
				fmt.Sprintf("variant '%s' of union '%s' may not carry a pointer payload", v.Name, decl.Name)))
			continue
		}
		pt2 := pt
		td.Variants[v.Name] = &pt2
	}
	dc.Types[id] = td
}

func fillInterface(dc *DeclarationContext, fs *fileState, decl *ast.InterfaceDecl, id ident.TypeID, ln *localNames, diags *errors.Diagnostics) {
	td := &types.TypeDeclaration{Kind: types.DeclInterface, Name: decl.Name, AssociatedFunctions: map[string]ident.FunctionID{}}
	// Interface method signatures are stored as synthesized FuncTypes in
	// AssociatedFunctions. The checker's assignable does not consult
	// them: an InstanceOf is assignable only to an InstanceOf with the
	// same TypeID, so a struct value is not accepted where an interface
	// type is expected.
	for _, m := range decl.Methods {
		var params []types.ExpressionType
		ok := true
		for _, p := range m.Params {
			pt, err := resolveTypeExpr(fs.input.File.Arena, p.Type, ln)
			if err != nil {
				diags.Add(err)
				ok = false
				continue
			}
			params = append(params, pt)
		}
		ret, err := resolveTypeExpr(fs.input.File.Arena, m.ReturnType, ln)
		if err != nil {
			diags.Add(err)
			ok = false
		}
		if !ok {
			continue
		}
		fid := fs.decls.FunctionIDs.Next()
		dc.Functions[fid] = &types.FuncType{ID: fid, Params: params, Returns: ret, IsAssociated: true}
		td.AssociatedFunctions[m.Name] = fid
	}
	dc.Types[id] = td
}

func fillFunction(dc *DeclarationContext, fs *fileState, decl *ast.FunctionDecl, id ident.FunctionID, rng provenance.Range, ln *localNames, diags *errors.Diagnostics) {
	ft := &types.FuncType{ID: id, TypeParamCount: decl.TypeParamCount, IsCoroutine: decl.IsCoroutine, Provenance: rng}

	if decl.Self != ast.NoSelf {
		kind := types.Shared
		if decl.Self == ast.UniqueSelf {
			kind = types.Unique
		}
		ft.SelfPointerKind = &kind
		ft.IsAssociated = true

		if decl.AssociatedOn != "" {
			if onID, ok := ln.types[decl.AssociatedOn]; ok {
				if td, ok := dc.Types[onID]; ok {
					selfType := types.Pointer(kind, types.InstanceOf(onID))
					ft.Params = append(ft.Params, selfType)
					if td.AssociatedFunctions == nil {
						td.AssociatedFunctions = map[string]ident.FunctionID{}
					}
					td.AssociatedFunctions[decl.Name] = id
				}
			}
		}
	} else if decl.AssociatedOn != "" {
		diags.Addf(errors.SelfParameterInNonAssociatedFunc, rng,
			"function '%s' is associated but declares no self parameter", decl.Name)
	}

	for _, p := range decl.Params {
		pt, err := resolveTypeExpr(fs.input.File.Arena, p.Type, ln)
		if err != nil {
			diags.Add(err)
			continue
		}
		ft.Params = append(ft.Params, pt)
	}
	ret, err := resolveTypeExpr(fs.input.File.Arena, decl.ReturnType, ln)
	if err != nil {
		diags.Add(err)
	} else {
		ft.Returns = ret
	}

	dc.Functions[id] = ft
}

func fillConstant(dc *DeclarationContext, fs *fileState, decl *ast.ConstDecl, rng provenance.Range, ln *localNames, diags *errors.Diagnostics) {
	if decl.Type < 0 {
		diags.Add(errors.New(errors.TopLevelConstantMustHaveType, rng,
			fmt.Sprintf("constant '%s' must have a declared type", decl.Name)))
		return
	}
	ct, err := resolveTypeExpr(fs.input.File.Arena, decl.Type, ln)
	if err != nil {
		diags.Add(err)
		return
	}
	cid := fs.decls.ConstantIDs.Next()
	dc.Constants[cid] = &ConstantDecl{Type: ct, Init: decl.Value}
}

// registerIntrinsics registers the compiler-provided Array/Dict/Rc/Cell
// methods described in spec.md §4.1. Each gets a synthesized FunctionID
// in a dedicated pseudo-file (FileID 0), which no real parsed file uses
// since file IDs are allocated starting at 1 by ident.FileIDAllocator.
func registerIntrinsics(dc *DeclarationContext) {
	const intrinsicFile ident.FileID = 0
	alloc := ident.NewFunctionIDAllocator(intrinsicFile)

	elemParam := types.TypeParam(0)
	shared := types.Shared
	unique := types.Unique

	def := func(kind types.IntrinsicKind, self *types.PointerKind, params []types.ExpressionType, ret types.ExpressionType) {
		id := alloc.Next()
		k := kind
		dc.Functions[id] = &types.FuncType{
			ID: id, Params: params, Returns: ret, TypeParamCount: 1,
			IsAssociated: true, SelfPointerKind: self, Intrinsic: &k,
		}
	}

	def(types.IntrinsicArrayLen, &shared, nil, types.Prim(types.PointerSizePrimitive))
	def(types.IntrinsicArrayPush, &unique, []types.ExpressionType{elemParam}, types.Void())
	def(types.IntrinsicDictContainsKey, &shared, []types.ExpressionType{elemParam}, types.Prim(types.Bool))
	def(types.IntrinsicDictInsert, &unique, []types.ExpressionType{elemParam, types.TypeParam(1)}, types.Void())
	def(types.IntrinsicRcClone, &shared, nil, types.RcOf(elemParam))
	def(types.IntrinsicCellGet, &shared, []types.ExpressionType{types.Pointer(types.Unique, elemParam)}, types.Void())
	def(types.IntrinsicCellSet, &shared, []types.ExpressionType{elemParam}, types.Void())
}
