// Package ast is a typed facade over the lossless concrete syntax tree
// (internal/cst): every AST node wraps a *cst.Node and exposes strongly
// typed accessors instead of raw child indexing, without allocating a
// second parallel tree (spec.md §3 "AST").
package ast

import (
	"github.com/snowdamiz/meshc/internal/cst"
	"github.com/snowdamiz/meshc/internal/token"
)

// Node is the common facade base: every typed accessor type embeds one.
type Node struct {
	Syntax *cst.Node
}

// Kind returns the underlying CST node kind.
func (n Node) Kind() cst.Kind { return n.Syntax.Kind }

// Span returns the node's source range.
func (n Node) Span() token.Span { return n.Syntax.Span() }

// Text reproduces the node's exact source text (trivia included).
func (n Node) Text() string { return n.Syntax.Text() }

func childOfKind(n *cst.Node, k cst.Kind) *cst.Node {
	for _, c := range n.Children {
		if sub, ok := c.(*cst.Node); ok && sub.Kind == k {
			return sub
		}
	}

	return nil
}

func childrenOfKind(n *cst.Node, k cst.Kind) []*cst.Node {
	var out []*cst.Node

	for _, c := range n.Children {
		if sub, ok := c.(*cst.Node); ok && sub.Kind == k {
			out = append(out, sub)
		}
	}

	return out
}

func firstToken(n *cst.Node, k token.Kind) (token.Token, bool) {
	for _, c := range n.Children {
		if leaf, ok := c.(cst.Leaf); ok && leaf.Tok.Kind == k {
			return leaf.Tok, true
		}
	}

	return token.Token{}, false
}

// File is the facade over a FILE node: a module declaration, imports, and
// top-level items (functions, types, traits, impls, actors, services,
// supervisors).
type File struct {
	Node
}

// AsFile wraps a FILE CST node.
func AsFile(n *cst.Node) File { return File{Node{n}} }

// ModuleDecl returns the file's module declaration, if present.
func (f File) ModuleDecl() (ModuleDecl, bool) {
	if n := childOfKind(f.Syntax, cst.MODULE_DECL); n != nil {
		return ModuleDecl{Node{n}}, true
	}

	return ModuleDecl{}, false
}

// Imports returns every import declaration in file order.
func (f File) Imports() []ImportDecl {
	var out []ImportDecl
	for _, n := range childrenOfKind(f.Syntax, cst.IMPORT_DECL) {
		out = append(out, ImportDecl{Node{n}})
	}

	return out
}

// Items returns every top-level declaration (functions, types, actors,
// services, ...), each as a generic Node; callers switch on Kind().
func (f File) Items() []Node {
	var out []Node

	for _, c := range f.Syntax.Children {
		sub, ok := c.(*cst.Node)
		if !ok {
			continue
		}

		switch sub.Kind {
		case cst.MODULE_DECL, cst.IMPORT_DECL:
			continue
		default:
			out = append(out, Node{sub})
		}
	}

	return out
}

// ModuleDecl facades a MODULE_DECL node.
type ModuleDecl struct{ Node }

// Path returns the dot-joined module path text (e.g. "foo.bar").
func (m ModuleDecl) Path() string {
	if tok, ok := firstToken(m.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

// ImportDecl facades an IMPORT_DECL node.
type ImportDecl struct{ Node }

func (i ImportDecl) Path() string {
	if tok, ok := firstToken(i.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

// FnDef facades an FN_DEF node: one or more syntactically-consecutive
// clauses sharing a name (spec.md §4.2 "multi-clause function
// definitions").
type FnDef struct{ Node }

// AsFnDef wraps an FN_DEF CST node.
func AsFnDef(n *cst.Node) FnDef { return FnDef{Node{n}} }

// IsPub reports whether the `pub` modifier is present.
func (f FnDef) IsPub() bool {
	_, ok := firstToken(f.Syntax, token.PUB_KW)

	return ok
}

// Name returns the function's identifier text.
func (f FnDef) Name() string {
	if tok, ok := firstToken(f.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

// Clauses returns each FN_CLAUSE child in declaration order.
func (f FnDef) Clauses() []FnClause {
	var out []FnClause
	for _, n := range childrenOfKind(f.Syntax, cst.FN_CLAUSE) {
		out = append(out, FnClause{Node{n}})
	}

	return out
}

// FnClause facades one clause of a (possibly multi-clause) function:
// its parameter list, optional return-type annotation, optional where
// clause, and body (either `do ... end` or `= expr`).
type FnClause struct{ Node }

// ParamList returns the clause's PARAM_LIST node.
func (c FnClause) ParamList() ParamList {
	return ParamList{Node{childOfKind(c.Syntax, cst.PARAM_LIST)}}
}

// ReturnType returns the declared return type, if annotated.
func (c FnClause) ReturnType() (TypeRef, bool) {
	if n := childOfKind(c.Syntax, cst.TYPE_REF); n != nil {
		return TypeRef{Node{n}}, true
	}

	return TypeRef{}, false
}

// Where returns the clause's where-clause constraints, if present.
func (c FnClause) Where() (WhereClause, bool) {
	if n := childOfKind(c.Syntax, cst.WHERE_CLAUSE); n != nil {
		return WhereClause{Node{n}}, true
	}

	return WhereClause{}, false
}

// Body returns the clause's body as a BLOCK (a `do...end` body is the
// block directly; a `= expr` body is wrapped as a single-expression
// block by the parser so this accessor is uniform).
func (c FnClause) Body() Block {
	return Block{Node{childOfKind(c.Syntax, cst.BLOCK)}}
}

// ParamList facades a PARAM_LIST node.
type ParamList struct{ Node }

// Params returns each PARAM child.
func (p ParamList) Params() []Param {
	var out []Param
	for _, n := range childrenOfKind(p.Syntax, cst.PARAM) {
		out = append(out, Param{Node{n}})
	}

	return out
}

// Param facades a single parameter: name and optional type annotation.
type Param struct{ Node }

func (p Param) Name() string {
	if tok, ok := firstToken(p.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

func (p Param) TypeAnnotation() (TypeRef, bool) {
	if n := childOfKind(p.Syntax, cst.TYPE_REF); n != nil {
		return TypeRef{Node{n}}, true
	}

	return TypeRef{}, false
}

// WhereClause facades a WHERE_CLAUSE node (a list of trait-bound
// constraints on the enclosing scheme's type variables).
type WhereClause struct{ Node }

// Block facades a BLOCK node: an ordered sequence of statement/expression
// nodes, the last of which is the block's value.
type Block struct{ Node }

// Exprs returns every top-level expression in the block.
func (b Block) Exprs() []Node {
	var out []Node

	for _, c := range b.Syntax.Children {
		if sub, ok := c.(*cst.Node); ok {
			out = append(out, Node{sub})
		}
	}

	return out
}

// TypeRef facades any TYPE_REF / TYPE_APP / TYPE_FUN / TYPE_TUPLE node.
type TypeRef struct{ Node }

func (t TypeRef) Name() string {
	if tok, ok := firstToken(t.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

// Args returns type-application arguments, if this is a TYPE_APP.
func (t TypeRef) Args() []TypeRef {
	var out []TypeRef
	for _, n := range childrenOfKind(t.Syntax, cst.TYPE_REF) {
		out = append(out, TypeRef{Node{n}})
	}

	for _, n := range childrenOfKind(t.Syntax, cst.TYPE_APP) {
		out = append(out, TypeRef{Node{n}})
	}

	return out
}
