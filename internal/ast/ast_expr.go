package ast

import (
	"github.com/snowdamiz/meshc/internal/cst"
	"github.com/snowdamiz/meshc/internal/token"
)

// Expr is implemented by every expression facade type. Callers obtain one
// via AsExpr and then type-switch, the same way rust-analyzer's
// `ast::Expr` enum is consumed.
type Expr interface {
	exprNode()
	Span() token.Span
}

// AsExpr classifies a generic CST node into its concrete expression
// facade. Returns nil for non-expression kinds.
func AsExpr(n *cst.Node) Expr {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case cst.IDENT_EXPR:
		return IdentExpr{Node{n}}
	case cst.INT_LITERAL:
		return IntLit{Node{n}}
	case cst.FLOAT_LITERAL:
		return FloatLit{Node{n}}
	case cst.BOOL_LITERAL:
		return BoolLit{Node{n}}
	case cst.NIL_LITERAL:
		return NilLit{Node{n}}
	case cst.STRING_LITERAL, cst.STRING_INTERP_EXPR:
		return StringLit{Node{n}}
	case cst.BINARY_EXPR:
		return BinaryExpr{Node{n}}
	case cst.UNARY_EXPR:
		return UnaryExpr{Node{n}}
	case cst.PIPE_EXPR:
		return PipeExpr{Node{n}}
	case cst.CALL_EXPR:
		return CallExpr{Node{n}}
	case cst.FIELD_ACCESS_EXPR:
		return FieldAccessExpr{Node{n}}
	case cst.INDEX_EXPR:
		return IndexExpr{Node{n}}
	case cst.TRY_EXPR:
		return TryExpr{Node{n}}
	case cst.IF_EXPR:
		return IfExpr{Node{n}}
	case cst.CASE_EXPR:
		return CaseExpr{Node{n}}
	case cst.LET_EXPR:
		return LetExpr{Node{n}}
	case cst.FOR_EXPR:
		return ForExpr{Node{n}}
	case cst.WHILE_EXPR:
		return WhileExpr{Node{n}}
	case cst.STRUCT_LITERAL:
		return StructLiteral{Node{n}}
	case cst.STRUCT_UPDATE:
		return StructUpdate{Node{n}}
	case cst.MAP_LITERAL:
		return MapLiteral{Node{n}}
	case cst.LIST_LITERAL:
		return ListLiteral{Node{n}}
	case cst.SET_LITERAL:
		return SetLiteral{Node{n}}
	case cst.TUPLE_EXPR:
		return TupleExpr{Node{n}}
	case cst.LAMBDA_EXPR:
		return LambdaExpr{Node{n}}
	case cst.SPAWN_EXPR:
		return SpawnExpr{Node{n}}
	case cst.SEND_EXPR:
		return SendExpr{Node{n}}
	case cst.RECEIVE_EXPR:
		return ReceiveExpr{Node{n}}
	case cst.BLOCK:
		return BlockExpr{Node{n}}
	default:
		return nil
	}
}

type IdentExpr struct{ Node }

func (IdentExpr) exprNode() {}
func (e IdentExpr) Name() string {
	if tok, ok := firstToken(e.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

type IntLit struct{ Node }

func (IntLit) exprNode() {}
func (e IntLit) Text() string {
	if tok, ok := firstToken(e.Syntax, token.INT); ok {
		return tok.Text
	}

	return ""
}

type FloatLit struct{ Node }

func (FloatLit) exprNode() {}

type BoolLit struct{ Node }

func (BoolLit) exprNode() {}
func (e BoolLit) Value() bool {
	_, ok := firstToken(e.Syntax, token.TRUE_KW)

	return ok
}

type NilLit struct{ Node }

func (NilLit) exprNode() {}

type StringLit struct{ Node }

func (StringLit) exprNode() {}

// Parts returns the alternating STRING_CONTENT / interpolated-expr
// sequence making up this string literal.
func (e StringLit) Parts() []cst.Element {
	return e.Syntax.Children
}

// BinaryExpr facades a two-operand operator application. Op is the
// operator token's kind (one of the rungs of the binding-power ladder in
// spec.md §4.2).
type BinaryExpr struct{ Node }

func (BinaryExpr) exprNode() {}

func (e BinaryExpr) Operands() (left, right Expr) {
	var exprs []*cst.Node

	for _, c := range e.Syntax.Children {
		if sub, ok := c.(*cst.Node); ok {
			exprs = append(exprs, sub)
		}
	}

	if len(exprs) >= 2 {
		return AsExpr(exprs[0]), AsExpr(exprs[1])
	}

	return nil, nil
}

func (e BinaryExpr) Op() token.Kind {
	for _, c := range e.Syntax.Children {
		if leaf, ok := c.(cst.Leaf); ok && isOperatorKind(leaf.Tok.Kind) {
			return leaf.Tok.Kind
		}
	}

	return token.ILLEGAL
}

func isOperatorKind(k token.Kind) bool {
	switch k {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQ_EQ, token.NOT_EQ, token.LT, token.GT, token.LT_EQ, token.GT_EQ,
		token.AMP_AMP, token.PIPE_PIPE, token.AND_KW, token.OR_KW,
		token.DOT_DOT, token.DIAMOND, token.PLUS_PLUS, token.CONS:
		return true
	default:
		return false
	}
}

type UnaryExpr struct{ Node }

func (UnaryExpr) exprNode() {}
func (e UnaryExpr) Operand() Expr {
	for _, c := range e.Syntax.Children {
		if sub, ok := c.(*cst.Node); ok {
			return AsExpr(sub)
		}
	}

	return nil
}

// PipeExpr facades `lhs |> rhs`; the inferencer (internal/types inferPipe)
// desugars this to a call.
type PipeExpr struct{ Node }

func (PipeExpr) exprNode() {}
func (e PipeExpr) Operands() (left, right Expr) {
	b := BinaryExpr(e)

	return b.Operands()
}

type CallExpr struct{ Node }

func (CallExpr) exprNode() {}

func (e CallExpr) Callee() Expr {
	for _, c := range e.Syntax.Children {
		if sub, ok := c.(*cst.Node); ok && sub.Kind != cst.ARG_LIST {
			return AsExpr(sub)
		}
	}

	return nil
}

func (e CallExpr) Args() []Expr {
	al := childOfKind(e.Syntax, cst.ARG_LIST)
	if al == nil {
		return nil
	}

	var out []Expr

	for _, c := range al.Children {
		if sub, ok := c.(*cst.Node); ok {
			out = append(out, AsExpr(sub))
		}
	}

	return out
}

type FieldAccessExpr struct{ Node }

func (FieldAccessExpr) exprNode() {}

func (e FieldAccessExpr) Receiver() Expr {
	for _, c := range e.Syntax.Children {
		if sub, ok := c.(*cst.Node); ok {
			return AsExpr(sub)
		}
	}

	return nil
}

func (e FieldAccessExpr) Field() string {
	idents := identsOf(e.Syntax)
	if len(idents) > 0 {
		return idents[len(idents)-1]
	}

	return ""
}

func identsOf(n *cst.Node) []string {
	var out []string
	for _, c := range n.Children {
		if leaf, ok := c.(cst.Leaf); ok && leaf.Tok.Kind == token.IDENT {
			out = append(out, leaf.Tok.Text)
		}
	}

	return out
}

type IndexExpr struct{ Node }

func (IndexExpr) exprNode() {}

type TryExpr struct{ Node }

func (TryExpr) exprNode() {}
func (e TryExpr) Operand() Expr {
	for _, c := range e.Syntax.Children {
		if sub, ok := c.(*cst.Node); ok {
			return AsExpr(sub)
		}
	}

	return nil
}

type IfExpr struct{ Node }

func (IfExpr) exprNode() {}

func (e IfExpr) Cond() Expr {
	exprs := childExprs(e.Syntax)
	if len(exprs) > 0 {
		return exprs[0]
	}

	return nil
}

func (e IfExpr) Then() Block { return Block{Node{childOfKind(e.Syntax, cst.BLOCK)}} }

func (e IfExpr) Else() (Block, bool) {
	blocks := childrenOfKind(e.Syntax, cst.BLOCK)
	if len(blocks) >= 2 {
		return Block{Node{blocks[1]}}, true
	}

	if n := childOfKind(e.Syntax, cst.IF_EXPR); n != nil {
		_ = n // else-if chains nest as a further IF_EXPR; handled by caller walking Else
	}

	return Block{}, false
}

func childExprs(n *cst.Node) []Expr {
	var out []Expr

	for _, c := range n.Children {
		sub, ok := c.(*cst.Node)
		if !ok || sub.Kind == cst.BLOCK {
			continue
		}

		if e := AsExpr(sub); e != nil {
			out = append(out, e)
		}
	}

	return out
}

// CaseExpr facades `case <scrutinee> do <arm>* end`.
type CaseExpr struct{ Node }

func (CaseExpr) exprNode() {}

func (e CaseExpr) Scrutinee() Expr {
	exprs := childExprs(e.Syntax)
	if len(exprs) > 0 {
		return exprs[0]
	}

	return nil
}

func (e CaseExpr) Arms() []MatchArm {
	var out []MatchArm
	for _, n := range childrenOfKind(e.Syntax, cst.MATCH_ARM) {
		out = append(out, MatchArm{Node{n}})
	}

	return out
}

// MatchArm facades one `pattern [when guard] -> body` clause.
type MatchArm struct{ Node }

func (a MatchArm) Pattern() Pattern {
	return AsPattern(firstPatternChild(a.Syntax))
}

func (a MatchArm) Guard() (Expr, bool) {
	if n := childOfKind(a.Syntax, cst.GUARD_CLAUSE); n != nil {
		exprs := childExprs(n)
		if len(exprs) > 0 {
			return exprs[0], true
		}
	}

	return nil, false
}

func (a MatchArm) Body() Expr {
	for _, c := range a.Syntax.Children {
		sub, ok := c.(*cst.Node)
		if !ok {
			continue
		}

		switch sub.Kind {
		case cst.GUARD_CLAUSE:
			continue
		default:
			if firstPatternChild(a.Syntax) == sub {
				continue
			}

			if e := AsExpr(sub); e != nil {
				return e
			}
		}
	}

	return nil
}

type LetExpr struct{ Node }

func (LetExpr) exprNode() {}

func (e LetExpr) Name() string {
	if tok, ok := firstToken(e.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

func (e LetExpr) TypeAnnotation() (TypeRef, bool) {
	if n := childOfKind(e.Syntax, cst.TYPE_REF); n != nil {
		return TypeRef{Node{n}}, true
	}

	return TypeRef{}, false
}

func (e LetExpr) Value() Expr {
	exprs := childExprs(e.Syntax)
	if len(exprs) > 0 {
		return exprs[0]
	}

	return nil
}

func (e LetExpr) Body() (Block, bool) {
	if n := childOfKind(e.Syntax, cst.BLOCK); n != nil {
		return Block{Node{n}}, true
	}

	return Block{}, false
}

// ForExpr facades `for <pat> in <iter> [when <guard>] do ... end`.
type ForExpr struct{ Node }

func (ForExpr) exprNode() {}

func (e ForExpr) Pattern() Pattern { return AsPattern(firstPatternChild(e.Syntax)) }

func (e ForExpr) Iterable() Expr {
	exprs := childExprs(e.Syntax)
	if len(exprs) > 0 {
		return exprs[0]
	}

	return nil
}

func (e ForExpr) Filter() (Expr, bool) {
	if n := childOfKind(e.Syntax, cst.GUARD_CLAUSE); n != nil {
		exprs := childExprs(n)
		if len(exprs) > 0 {
			return exprs[0], true
		}
	}

	return nil, false
}

func (e ForExpr) Body() Block { return Block{Node{childOfKind(e.Syntax, cst.BLOCK)}} }

type WhileExpr struct{ Node }

func (WhileExpr) exprNode() {}

func (e WhileExpr) Cond() Expr {
	exprs := childExprs(e.Syntax)
	if len(exprs) > 0 {
		return exprs[0]
	}

	return nil
}

func (e WhileExpr) Body() Block { return Block{Node{childOfKind(e.Syntax, cst.BLOCK)}} }

// StructLiteral facades `Name { field: expr, ... }`.
type StructLiteral struct{ Node }

func (StructLiteral) exprNode() {}

func (e StructLiteral) TypeName() string {
	if tok, ok := firstToken(e.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

func (e StructLiteral) Fields() []FieldInit {
	var out []FieldInit
	for _, n := range childrenOfKind(e.Syntax, cst.FIELD_INIT) {
		out = append(out, FieldInit{Node{n}})
	}

	return out
}

type FieldInit struct{ Node }

func (f FieldInit) Name() string {
	if tok, ok := firstToken(f.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

func (f FieldInit) Value() Expr {
	exprs := childExprs(f.Syntax)
	if len(exprs) > 0 {
		return exprs[0]
	}

	return nil
}

// StructUpdate facades `%{ base | field: v, ... }`.
type StructUpdate struct{ Node }

func (StructUpdate) exprNode() {}

func (e StructUpdate) Base() Expr {
	exprs := childExprs(e.Syntax)
	if len(exprs) > 0 {
		return exprs[0]
	}

	return nil
}

func (e StructUpdate) Fields() []FieldInit {
	var out []FieldInit
	for _, n := range childrenOfKind(e.Syntax, cst.FIELD_INIT) {
		out = append(out, FieldInit{Node{n}})
	}

	return out
}

// MapLiteral facades `%{ key => value, ... }`.
type MapLiteral struct{ Node }

func (MapLiteral) exprNode() {}

func (e MapLiteral) Entries() []MapEntry {
	var out []MapEntry
	for _, n := range childrenOfKind(e.Syntax, cst.MAP_ENTRY) {
		out = append(out, MapEntry{Node{n}})
	}

	return out
}

type MapEntry struct{ Node }

func (m MapEntry) KeyValue() (Expr, Expr) {
	exprs := childExprs(m.Syntax)
	if len(exprs) >= 2 {
		return exprs[0], exprs[1]
	}

	return nil, nil
}

type ListLiteral struct{ Node }

func (ListLiteral) exprNode() {}
func (e ListLiteral) Elements() []Expr { return childExprs(e.Syntax) }

type SetLiteral struct{ Node }

func (SetLiteral) exprNode() {}
func (e SetLiteral) Elements() []Expr { return childExprs(e.Syntax) }

type TupleExpr struct{ Node }

func (TupleExpr) exprNode() {}
func (e TupleExpr) Elements() []Expr { return childExprs(e.Syntax) }

// LambdaExpr facades `fn (params) -> expr end` / `fn (params) do ... end`.
type LambdaExpr struct{ Node }

func (LambdaExpr) exprNode() {}

func (e LambdaExpr) ParamList() ParamList {
	return ParamList{Node{childOfKind(e.Syntax, cst.PARAM_LIST)}}
}

func (e LambdaExpr) Body() Block { return Block{Node{childOfKind(e.Syntax, cst.BLOCK)}} }

type SpawnExpr struct{ Node }

func (SpawnExpr) exprNode() {}
func (e SpawnExpr) Callee() Expr {
	exprs := childExprs(e.Syntax)
	if len(exprs) > 0 {
		return exprs[0]
	}

	return nil
}
func (e SpawnExpr) Args() []Expr {
	exprs := childExprs(e.Syntax)
	if len(exprs) > 1 {
		return exprs[1:]
	}

	return nil
}

type SendExpr struct{ Node }

func (SendExpr) exprNode() {}
func (e SendExpr) Target() Expr {
	exprs := childExprs(e.Syntax)
	if len(exprs) > 0 {
		return exprs[0]
	}

	return nil
}
func (e SendExpr) Message() Expr {
	exprs := childExprs(e.Syntax)
	if len(exprs) > 1 {
		return exprs[1]
	}

	return nil
}

// ReceiveExpr facades `receive do <arm>* end [after <ms> do ... end]`.
type ReceiveExpr struct{ Node }

func (ReceiveExpr) exprNode() {}

func (e ReceiveExpr) Arms() []MatchArm {
	var out []MatchArm
	for _, n := range childrenOfKind(e.Syntax, cst.MATCH_ARM) {
		out = append(out, MatchArm{Node{n}})
	}

	return out
}

func (e ReceiveExpr) After() (timeoutMs Expr, body Block, ok bool) {
	n := childOfKind(e.Syntax, cst.AFTER_CLAUSE)
	if n == nil {
		return nil, Block{}, false
	}

	exprs := childExprs(n)
	blk := childOfKind(n, cst.BLOCK)

	if len(exprs) == 0 || blk == nil {
		return nil, Block{}, false
	}

	return exprs[0], Block{Node{blk}}, true
}

// BlockExpr allows a bare BLOCK to be used where an expression is
// expected (e.g. actor/service bodies nested under do/end).
type BlockExpr struct{ Node }

func (BlockExpr) exprNode() {}
func (e BlockExpr) Exprs() []Node { return Block(e).Exprs() }
