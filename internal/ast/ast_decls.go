package ast

import (
	"github.com/snowdamiz/meshc/internal/cst"
	"github.com/snowdamiz/meshc/internal/token"
)

// StructDef facades a STRUCT_DEF node.
type StructDef struct{ Node }

func AsStructDef(n *cst.Node) StructDef { return StructDef{Node{n}} }

func (s StructDef) Name() string {
	if tok, ok := firstToken(s.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

func (s StructDef) Fields() []StructField {
	var out []StructField
	for _, n := range childrenOfKind(s.Syntax, cst.STRUCT_FIELD) {
		out = append(out, StructField{Node{n}})
	}

	return out
}

// Deriving returns the trait names listed in an `end deriving(...)`
// clause, if present.
func (s StructDef) Deriving() []string {
	return derivingNames(s.Syntax)
}

type StructField struct{ Node }

func (f StructField) Name() string {
	if tok, ok := firstToken(f.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

func (f StructField) Type() TypeRef {
	return TypeRef{Node{childOfKind(f.Syntax, cst.TYPE_REF)}}
}

// SumTypeDef facades a SUM_TYPE_DEF node: a tagged union of variants.
type SumTypeDef struct{ Node }

func AsSumTypeDef(n *cst.Node) SumTypeDef { return SumTypeDef{Node{n}} }

func (s SumTypeDef) Name() string {
	if tok, ok := firstToken(s.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

func (s SumTypeDef) Variants() []VariantDef {
	var out []VariantDef
	for _, n := range childrenOfKind(s.Syntax, cst.VARIANT_DEF) {
		out = append(out, VariantDef{Node{n}})
	}

	return out
}

func (s SumTypeDef) Deriving() []string {
	return derivingNames(s.Syntax)
}

// VariantDef facades one constructor of a sum type.
type VariantDef struct{ Node }

func (v VariantDef) Name() string {
	if tok, ok := firstToken(v.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

func (v VariantDef) FieldTypes() []TypeRef {
	var out []TypeRef
	for _, n := range childrenOfKind(v.Syntax, cst.TYPE_REF) {
		out = append(out, TypeRef{Node{n}})
	}

	return out
}

func derivingNames(n *cst.Node) []string {
	dc := childOfKind(n, cst.DERIVING_CLAUSE)
	if dc == nil {
		return nil
	}

	var out []string

	for _, c := range dc.Children {
		if leaf, ok := c.(cst.Leaf); ok && leaf.Tok.Kind == token.IDENT {
			out = append(out, leaf.Tok.Text)
		}
	}

	return out
}

// InterfaceDef facades an INTERFACE_DEF node (the language's trait /
// type-class construct, named `interface` at the syntax level — see
// DESIGN.md for the naming decision).
type InterfaceDef struct{ Node }

func AsInterfaceDef(n *cst.Node) InterfaceDef { return InterfaceDef{Node{n}} }

func (i InterfaceDef) Name() string {
	if tok, ok := firstToken(i.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

func (i InterfaceDef) AssocTypes() []string {
	var out []string
	for _, n := range childrenOfKind(i.Syntax, cst.ASSOC_TYPE_DECL) {
		if tok, ok := firstToken(n, token.IDENT); ok {
			out = append(out, tok.Text)
		}
	}

	return out
}

func (i InterfaceDef) Methods() []FnDef {
	var out []FnDef
	for _, n := range childrenOfKind(i.Syntax, cst.FN_DEF) {
		out = append(out, FnDef{Node{n}})
	}

	return out
}

// ImplDef facades an IMPL_DEF node: `impl Trait for Type ... end`.
type ImplDef struct{ Node }

func AsImplDef(n *cst.Node) ImplDef { return ImplDef{Node{n}} }

// TraitAndType returns the interface name and the implementing type's
// head-constructor name, in source order (`impl <Trait> for <Type>`).
func (d ImplDef) TraitAndType() (trait string, typ string) {
	var idents []string

	for _, c := range d.Syntax.Children {
		if leaf, ok := c.(cst.Leaf); ok && leaf.Tok.Kind == token.IDENT {
			idents = append(idents, leaf.Tok.Text)
		}
	}

	if len(idents) >= 2 {
		return idents[0], idents[1]
	}

	if len(idents) == 1 {
		return idents[0], ""
	}

	return "", ""
}

func (d ImplDef) AssocBindings() []AssocTypeBinding {
	var out []AssocTypeBinding
	for _, n := range childrenOfKind(d.Syntax, cst.ASSOC_TYPE_BINDING) {
		out = append(out, AssocTypeBinding{Node{n}})
	}

	return out
}

func (d ImplDef) Methods() []FnDef {
	var out []FnDef
	for _, n := range childrenOfKind(d.Syntax, cst.FN_DEF) {
		out = append(out, FnDef{Node{n}})
	}

	return out
}

type AssocTypeBinding struct{ Node }

func (b AssocTypeBinding) Name() string {
	if tok, ok := firstToken(b.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

func (b AssocTypeBinding) Type() TypeRef {
	return TypeRef{Node{childOfKind(b.Syntax, cst.TYPE_REF)}}
}

// ActorDef facades an ACTOR_DEF node: an actor with a message-handling
// loop and an optional terminate clause.
type ActorDef struct{ Node }

func AsActorDef(n *cst.Node) ActorDef { return ActorDef{Node{n}} }

func (a ActorDef) Name() string {
	if tok, ok := firstToken(a.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

func (a ActorDef) Terminate() (Block, bool) {
	if n := childOfKind(a.Syntax, cst.TERMINATE_CLAUSE); n != nil {
		return Block{Node{childOfKind(n, cst.BLOCK)}}, true
	}

	return Block{}, false
}

// ServiceDef facades a SERVICE_DEF node: call/cast dispatch handlers over
// a typed message protocol.
type ServiceDef struct{ Node }

func AsServiceDef(n *cst.Node) ServiceDef { return ServiceDef{Node{n}} }

func (s ServiceDef) Name() string {
	if tok, ok := firstToken(s.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

func (s ServiceDef) CallHandlers() []CallHandler {
	var out []CallHandler
	for _, n := range childrenOfKind(s.Syntax, cst.CALL_HANDLER) {
		out = append(out, CallHandler{Node{n}})
	}

	return out
}

func (s ServiceDef) CastHandlers() []CastHandler {
	var out []CastHandler
	for _, n := range childrenOfKind(s.Syntax, cst.CAST_HANDLER) {
		out = append(out, CastHandler{Node{n}})
	}

	return out
}

type CallHandler struct{ Node }

func (h CallHandler) MessagePattern() Pattern { return AsPattern(firstPatternChild(h.Syntax)) }
func (h CallHandler) Body() Block             { return Block{Node{childOfKind(h.Syntax, cst.BLOCK)}} }

type CastHandler struct{ Node }

func (h CastHandler) MessagePattern() Pattern { return AsPattern(firstPatternChild(h.Syntax)) }
func (h CastHandler) Body() Block             { return Block{Node{childOfKind(h.Syntax, cst.BLOCK)}} }

func firstPatternChild(n *cst.Node) *cst.Node {
	for _, c := range n.Children {
		if sub, ok := c.(*cst.Node); ok {
			switch sub.Kind {
			case cst.WILDCARD_PATTERN, cst.VAR_PATTERN, cst.LITERAL_PATTERN,
				cst.TUPLE_PATTERN, cst.VARIANT_PATTERN, cst.STRUCT_PATTERN,
				cst.LIST_PATTERN, cst.OR_PATTERN:
				return sub
			}
		}
	}

	return nil
}

// SupervisorDef facades a SUPERVISOR_DEF node: a restart strategy plus an
// ordered list of child specs.
type SupervisorDef struct{ Node }

func AsSupervisorDef(n *cst.Node) SupervisorDef { return SupervisorDef{Node{n}} }

func (s SupervisorDef) Name() string {
	if tok, ok := firstToken(s.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}

func (s SupervisorDef) Children() []ChildSpec {
	var out []ChildSpec
	for _, n := range childrenOfKind(s.Syntax, cst.CHILD_SPEC) {
		out = append(out, ChildSpec{Node{n}})
	}

	return out
}

type ChildSpec struct{ Node }

func (c ChildSpec) Name() string {
	if tok, ok := firstToken(c.Syntax, token.IDENT); ok {
		return tok.Text
	}

	return ""
}
