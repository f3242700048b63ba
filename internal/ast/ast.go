// Package ast defines the AST node types produced by the (external) parser:
// an arena of nodes referenced by integer index, as described in spec §6.
// Every node carries a write-once type cell, filled exactly once by the
// type checker; Name nodes additionally carry a write-once referenced-ID
// cell, filled when the name resolves. The arena is owned by a ParsedFile
// and is read-only from the declaration context and type checker onward
// except for those two cells.
package ast

import (
	"fmt"

	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/provenance"
	"github.com/brick-lang/brickc/internal/types"
)

// Index refers to a Node within an Arena.
type Index int

// Value is implemented by every concrete AST node payload (expressions,
// statements, declarations, type expressions).
type Value interface {
	astValue()
}

// typeCell is a "set once, read many" slot used to attach an inferred
// ExpressionType to a Node without mutating the node's core shape.
type typeCell struct {
	isSet bool
	value types.ExpressionType
}

func (c *typeCell) set(t types.ExpressionType) error {
	if c.isSet {
		return fmt.Errorf("type cell already set to %v, cannot set to %v", c.value, t)
	}
	c.value = t
	c.isSet = true
	return nil
}

func (c *typeCell) get() (types.ExpressionType, bool) {
	return c.value, c.isSet
}

// Node is one entry in the arena: a parsed value with its source
// provenance and its write-once type cell.
type Node struct {
	Value      Value
	Provenance provenance.Range

	typ typeCell
}

// SetType fills this node's type cell. It is an error to call this more
// than once on the same node (spec.md invariant: "every AST node's type
// cell is set at most once, and exactly once before HIR lowering").
func (n *Node) SetType(t types.ExpressionType) error {
	return n.typ.set(t)
}

// Type returns this node's type and whether it has been set yet.
func (n *Node) Type() (types.ExpressionType, bool) {
	return n.typ.get()
}

// MustType returns this node's type, panicking if it was never set. Only
// safe to call on nodes known to have type-checked successfully (e.g.
// during HIR lowering, which runs only after a clean type check).
func (n *Node) MustType() types.ExpressionType {
	t, ok := n.typ.get()
	if !ok {
		panic("ast: type cell read before being set")
	}
	return t
}

// refCell is the write-once referenced-ID cell carried by Name nodes.
type refCell struct {
	isSet bool
	value ident.AnyID
}

func (c *refCell) set(id ident.AnyID) error {
	if c.isSet {
		return fmt.Errorf("referenced-id cell already set to %v", c.value)
	}
	c.value = id
	c.isSet = true
	return nil
}

func (c *refCell) get() (ident.AnyID, bool) {
	return c.value, c.isSet
}

// Arena is a contiguous, append-only store of Nodes addressed by Index.
// Nodes never move once added, so an Index remains valid for the arena's
// whole lifetime.
type Arena struct {
	nodes []Node
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Add appends a new node and returns its Index.
func (a *Arena) Add(v Value, rng provenance.Range) Index {
	a.nodes = append(a.nodes, Node{Value: v, Provenance: rng})
	return Index(len(a.nodes) - 1)
}

// Get returns a mutable pointer to the node at i, so its type/ref cells
// can be filled in place.
func (a *Arena) Get(i Index) *Node {
	return &a.nodes[i]
}

// Len returns the number of nodes in the arena.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// ParsedFile is what the (external) parser produces for one compilation
// unit: an arena plus the list of top-level declaration indices.
type ParsedFile struct {
	File     ident.FileID
	Arena    *Arena
	TopLevel []Index
}

// Name is an identifier reference: a variable, function, type, or module
// name used as an expression or as the LHS of a Dot access. Its
// referenced-ID cell is filled by the type checker once the name
// resolves; it is left unset if resolution failed (spec.md invariant:
// "referenced_id is set iff the name resolved successfully").
type Name struct {
	Value string

	ref refCell
}

func (*Name) astValue() {}

// SetRef fills this Name's referenced-ID cell. Error if already set.
func (n *Name) SetRef(id ident.AnyID) error {
	return n.ref.set(id)
}

// Ref returns the resolved ID and whether resolution succeeded.
func (n *Name) Ref() (ident.AnyID, bool) {
	return n.ref.get()
}
