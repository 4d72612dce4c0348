package ast

import (
	"github.com/snowdamiz/meshc/internal/cst"
	"github.com/snowdamiz/meshc/internal/token"
)

// Pattern is implemented by every pattern facade type.
type Pattern interface {
	patternNode()
	Span() token.Span
}

// AsPattern classifies a generic CST node into its concrete pattern
// facade. Returns nil (not a zero WildcardPattern) for nil input so
// callers can detect a missing pattern.
func AsPattern(n *cst.Node) Pattern {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case cst.WILDCARD_PATTERN:
		return WildcardPattern{Node{n}}
	case cst.VAR_PATTERN:
		return VarPattern{Node{n}}
	case cst.LITERAL_PATTERN:
		return LiteralPattern{Node{n}}
	case cst.TUPLE_PATTERN:
		return TuplePattern{Node{n}}
	case cst.VARIANT_PATTERN:
		return VariantPattern{Node{n}}
	case cst.STRUCT_PATTERN:
		return StructPattern{Node{n}}
	case cst.LIST_PATTERN:
		return ListPattern{Node{n}}
	case cst.OR_PATTERN:
		return OrPattern{Node{n}}
	default:
		return nil
	}
}

type WildcardPattern struct{ Node }

func (WildcardPattern) patternNode() {}

type VarPattern struct{ Node }

func (VarPattern) patternNode() {}
func (p VarPattern) Name() string {
	if tok, ok := firstToken(p.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

type LiteralPattern struct{ Node }

func (LiteralPattern) patternNode() {}
func (p LiteralPattern) Text() string { return p.Syntax.Text() }

type TuplePattern struct{ Node }

func (TuplePattern) patternNode() {}
func (p TuplePattern) Elements() []Pattern {
	var out []Pattern

	for _, c := range p.Syntax.Children {
		if sub, ok := c.(*cst.Node); ok {
			if pat := AsPattern(sub); pat != nil {
				out = append(out, pat)
			}
		}
	}

	return out
}

// VariantPattern facades `Ctor(p1, p2, ...)` or a bare `Ctor`.
type VariantPattern struct{ Node }

func (VariantPattern) patternNode() {}

func (p VariantPattern) Name() string {
	if tok, ok := firstToken(p.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

func (p VariantPattern) Fields() []Pattern {
	var out []Pattern

	first := true

	for _, c := range p.Syntax.Children {
		if sub, ok := c.(*cst.Node); ok {
			if pat := AsPattern(sub); pat != nil {
				if first {
					first = false
				}

				out = append(out, pat)
			}
		}
	}

	return out
}

// StructPattern facades `Name { field: pat, ... }`.
type StructPattern struct{ Node }

func (StructPattern) patternNode() {}

func (p StructPattern) TypeName() string {
	if tok, ok := firstToken(p.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

func (p StructPattern) FieldPatterns() map[string]Pattern {
	out := map[string]Pattern{}
	fields := identsOf(p.Syntax)
	subPatterns := []Pattern{}

	for _, c := range p.Syntax.Children {
		if sub, ok := c.(*cst.Node); ok {
			if pat := AsPattern(sub); pat != nil {
				subPatterns = append(subPatterns, pat)
			}
		}
	}
	// fields[0] is the type name; remaining idents correspond positionally
	// to subPatterns when both lists are the same length.
	if len(fields) > 1 && len(fields)-1 == len(subPatterns) {
		for i, name := range fields[1:] {
			out[name] = subPatterns[i]
		}
	}

	return out
}

// ListPattern facades `[]`, `[a, b]`, or `[head | tail]` cons patterns.
type ListPattern struct{ Node }

func (ListPattern) patternNode() {}

func (p ListPattern) Elements() []Pattern {
	var out []Pattern

	for _, c := range p.Syntax.Children {
		if sub, ok := c.(*cst.Node); ok {
			if pat := AsPattern(sub); pat != nil {
				out = append(out, pat)
			}
		}
	}

	return out
}

// IsCons reports whether this is a `[head | tail]` pattern (a BAR token
// separates the head element(s) from the tail pattern) rather than a
// fixed-length list pattern.
func (p ListPattern) IsCons() bool {
	for _, c := range p.Syntax.Children {
		if leaf, ok := c.(cst.Leaf); ok && leaf.Tok.Kind == token.BAR {
			return true
		}
	}

	return false
}

// OrPattern facades `pat1 | pat2 | ...` alternatives sharing one arm body
// (spec.md §4.5 "Or-patterns").
type OrPattern struct{ Node }

func (OrPattern) patternNode() {}

func (p OrPattern) Alternatives() []Pattern {
	var out []Pattern

	for _, c := range p.Syntax.Children {
		if sub, ok := c.(*cst.Node); ok {
			if pat := AsPattern(sub); pat != nil {
				out = append(out, pat)
			}
		}
	}

	return out
}
