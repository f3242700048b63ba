package hir

import "github.com/brick-lang/brickc/internal/types"

// intrinsicFor mirrors the type checker's own collection-intrinsic table
// (semantic.intrinsicFor): a cheap fixed lookup rather than scanning
// every registered function, since intrinsics are few and fixed (spec.md
// §4.1 table). Desugar pass 4 uses it to rewrite a still-unresolved
// Call on a collection receiver into an IntrinsicCall.
func intrinsicFor(kind types.CollectionKind, field string) (types.IntrinsicKind, bool) {
	switch {
	case kind == types.CollectionArray && field == "len":
		return types.IntrinsicArrayLen, true
	case kind == types.CollectionArray && field == "push":
		return types.IntrinsicArrayPush, true
	case kind == types.CollectionDict && field == "contains_key":
		return types.IntrinsicDictContainsKey, true
	case kind == types.CollectionDict && field == "insert":
		return types.IntrinsicDictInsert, true
	case kind == types.CollectionRc && field == "clone":
		return types.IntrinsicRcClone, true
	case kind == types.CollectionCell && field == "get":
		return types.IntrinsicCellGet, true
	case kind == types.CollectionCell && field == "set":
		return types.IntrinsicCellSet, true
	default:
		return 0, false
	}
}
