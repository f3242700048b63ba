package semantic

import (
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/types"
)

// ScopeKind identifies the kind of a lexical scope, kept mainly for
// debugging: the type checker's scoping rules (spec.md §4.2) only care
// about the parent chain, not the kind, except that control-flow
// constructs share their outer frame for the condition and push a fresh
// one only for the body.
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeFunction
	ScopeBlock
)

// binding is what a name resolves to: its identity and its type.
type binding struct {
	id  ident.AnyID
	typ types.ExpressionType
}

// Scope is one frame of the identifier-resolution stack described in
// spec.md §4.2: "a stack of maps from identifier name to (AnyID,
// ExpressionType)". Scopes chain to an enclosing Scope via Parent,
// mirroring the original compiler's SymbolTable/Scope parent-chain
// design, generalized from variable-only symbols to the full AnyID
// union (types, functions, constants, variables).
type Scope struct {
	bindings map[string]binding
	Parent   *Scope
	Kind     ScopeKind
}

// NewScope creates a scope of the given kind enclosed by parent (nil for
// the outermost/global scope).
func NewScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{bindings: make(map[string]binding), Parent: parent, Kind: kind}
}

// Define binds name in this scope, shadowing any binding of the same
// name in an enclosing scope.
func (s *Scope) Define(name string, id ident.AnyID, typ types.ExpressionType) {
	s.bindings[name] = binding{id: id, typ: typ}
}

// Resolve looks up name in this scope, then each enclosing scope in turn.
func (s *Scope) Resolve(name string) (ident.AnyID, types.ExpressionType, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if b, ok := sc.bindings[name]; ok {
			return b.id, b.typ, true
		}
	}
	return ident.AnyID{}, types.ExpressionType{}, false
}

// IsDeclaredInCurrentScope reports whether name is bound directly in
// this scope, ignoring enclosing scopes.
func (s *Scope) IsDeclaredInCurrentScope(name string) bool {
	_, ok := s.bindings[name]
	return ok
}

// Push returns a new scope of the given kind enclosed by s.
func (s *Scope) Push(kind ScopeKind) *Scope {
	return NewScope(kind, s)
}
