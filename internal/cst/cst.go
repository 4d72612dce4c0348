// Package cst implements the lossless concrete syntax tree: every leaf,
// trivia included, is retained so that concatenating the text of every
// leaf reproduces the original source byte-for-byte (spec.md §3, §8.1).
package cst

import (
	"strings"

	"github.com/snowdamiz/meshc/internal/token"
)

// Kind enumerates CST node kinds. Unlike token.Kind, these name syntactic
// constructs rather than lexical ones.
type Kind int

const (
	ERROR Kind = iota
	FILE
	MODULE_DECL
	IMPORT_DECL
	FN_DEF
	FN_CLAUSE
	PARAM_LIST
	PARAM
	STRUCT_DEF
	STRUCT_FIELD
	SUM_TYPE_DEF
	VARIANT_DEF
	TYPE_ALIAS
	INTERFACE_DEF
	ASSOC_TYPE_DECL
	IMPL_DEF
	ASSOC_TYPE_BINDING
	WHERE_CLAUSE
	DERIVING_CLAUSE
	ACTOR_DEF
	SERVICE_DEF
	SUPERVISOR_DEF
	CHILD_SPEC
	CALL_HANDLER
	CAST_HANDLER
	TERMINATE_CLAUSE

	BLOCK
	LET_EXPR
	IF_EXPR
	CASE_EXPR
	MATCH_ARM
	GUARD_CLAUSE
	FOR_EXPR
	WHILE_EXPR
	RECEIVE_EXPR
	AFTER_CLAUSE
	SPAWN_EXPR
	SEND_EXPR

	BINARY_EXPR
	UNARY_EXPR
	PIPE_EXPR
	CALL_EXPR
	ARG_LIST
	KEYWORD_ARG
	FIELD_ACCESS_EXPR
	INDEX_EXPR
	TRY_EXPR // postfix `?`
	STRUCT_LITERAL
	STRUCT_UPDATE
	FIELD_INIT
	MAP_LITERAL
	MAP_ENTRY
	LIST_LITERAL
	SET_LITERAL
	TUPLE_EXPR
	LAMBDA_EXPR
	STRING_INTERP_EXPR

	IDENT_EXPR
	INT_LITERAL
	FLOAT_LITERAL
	BOOL_LITERAL
	NIL_LITERAL
	STRING_LITERAL

	WILDCARD_PATTERN
	VAR_PATTERN
	LITERAL_PATTERN
	TUPLE_PATTERN
	VARIANT_PATTERN
	STRUCT_PATTERN
	LIST_PATTERN
	OR_PATTERN

	TYPE_REF
	TYPE_APP
	TYPE_FUN
	TYPE_TUPLE
)

// Element is either a *Node or a Leaf wrapping a token.Token; CST children
// are ordered mixtures of both.
type Element interface {
	isElement()
	Text() string
	Span() token.Span
}

// Node is one interior CST node: a kind and an ordered list of children.
type Node struct {
	Kind     Kind
	Children []Element
}

func (n *Node) isElement() {}

// Text reconstructs this node's exact source text by concatenating every
// leaf's text, recursively. This is the lossless-CST invariant.
func (n *Node) Text() string {
	var sb strings.Builder
	writeText(n, &sb)

	return sb.String()
}

func writeText(e Element, sb *strings.Builder) {
	switch v := e.(type) {
	case *Node:
		for _, c := range v.Children {
			writeText(c, sb)
		}
	case Leaf:
		sb.WriteString(v.Tok.Text)
	}
}

// Span computes this node's full source range from its first and last
// child; an empty node has a zero Span.
func (n *Node) Span() token.Span {
	if len(n.Children) == 0 {
		return token.Span{}
	}

	return token.Span{Start: n.Children[0].Span().Start, End: n.Children[len(n.Children)-1].Span().End}
}

// Leaf wraps a single token.Token as a CST element, including trivia
// tokens.
type Leaf struct {
	Tok token.Token
}

func (l Leaf) isElement()        {}
func (l Leaf) Text() string      { return l.Tok.Text }
func (l Leaf) Span() token.Span  { return l.Tok.Span }

// Builder assembles Node values incrementally; used by the parser so that
// trivia encountered between significant tokens is attached without every
// parser function needing to thread it through explicitly.
type Builder struct {
	kind     Kind
	children []Element
}

// NewBuilder starts building a node of the given kind.
func NewBuilder(kind Kind) *Builder {
	return &Builder{kind: kind}
}

// Token appends a single token as a leaf child.
func (b *Builder) Token(t token.Token) *Builder {
	b.children = append(b.children, Leaf{Tok: t})

	return b
}

// Child appends a completed sub-node.
func (b *Builder) Child(n *Node) *Builder {
	if n != nil {
		b.children = append(b.children, n)
	}

	return b
}

// Build finalizes the node.
func (b *Builder) Build() *Node {
	return &Node{Kind: b.kind, Children: b.children}
}

// SetKind retargets the node kind being built — used when a parser only
// learns which construct it is partway through (e.g. TYPE_REF vs.
// TYPE_APP, decided by whether a '<' follows the name).
func (b *Builder) SetKind(kind Kind) *Builder {
	b.kind = kind

	return b
}

// Leaves walks a node (or element) in order, invoking fn on every leaf
// token, trivia included — used both to verify the losslessness invariant
// in tests and to re-tokenize a reconstructed source for idempotence
// checks (spec.md §8.2).
func Leaves(e Element, fn func(token.Token)) {
	switch v := e.(type) {
	case *Node:
		for _, c := range v.Children {
			Leaves(c, fn)
		}
	case Leaf:
		fn(v.Tok)
	}
}
