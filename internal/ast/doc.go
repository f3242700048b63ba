// Package ast defines the arena-indexed AST produced by the (external)
// parser: an Arena of Nodes addressed by Index, each carrying a write-once
// type cell and, for Name nodes, a write-once referenced-ID cell.
//
// Node categories:
//   - Literals: IntLiteral, FloatLiteral, BoolLiteral, CharLiteral,
//     StringLiteral, NullLiteral
//   - Expressions: BinExpr, UnaryExpr, Call, Dot, IndexExpr, Assignment,
//     CompoundAssign, TakeUnique, TakeShared, Dereference, StructLiteral,
//     ArrayLiteral, DictLiteral, Block, If, While, Loop, Break, Match
//   - Statements/declarations: ExprStatement, VarDecl, BorrowDecl,
//     ConstDecl, ImportDecl, FunctionDecl, StructDecl, UnionDecl,
//     InterfaceDecl
//   - Type expressions: NameTypeExpr, PointerTypeExpr, NullableTypeExpr,
//     ArrayTypeExpr, DictTypeExpr, RcTypeExpr, CellTypeExpr,
//     GeneratorTypeExpr, VoidTypeExpr
package ast
