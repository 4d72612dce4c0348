package typedast

import "github.com/snowdamiz/meshc/internal/types"

// Pattern is the typed counterpart of ast.Pattern, with each binding site
// carrying its resolved Ty (consumed directly by internal/dtree, which
// needs concrete types to pick literal-test vs. switch strategies).
type Pattern interface {
	patternNode()
}

type WildcardPattern struct{}

func (WildcardPattern) patternNode() {}

type VarPattern struct {
	Name string
	Ty   types.Ty
}

func (VarPattern) patternNode() {}

type LiteralPattern struct {
	Kind  LiteralKind
	Text  string
	Ty    types.Ty
}

func (LiteralPattern) patternNode() {}

type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitBool
	LitNil
)

type TuplePattern struct {
	Elements []Pattern
	Ty       types.Ty
}

func (TuplePattern) patternNode() {}

// VariantPattern carries the owning sum type and the variant's declared
// tag (spec.md §4.5 "tags come from the sum-type definition"), resolved
// once here so internal/dtree never re-derives it from pattern order.
type VariantPattern struct {
	TypeName string
	Variant  string
	Tag      int
	Fields   []Pattern
	Ty       types.Ty
}

func (VariantPattern) patternNode() {}

type StructPattern struct {
	TypeName string
	Fields   map[string]Pattern
	Ty       types.Ty
}

func (StructPattern) patternNode() {}

// ListPattern covers both fixed-length `[a, b]` and cons `[head | tail]`
// forms; Tail is nil for the fixed-length form.
type ListPattern struct {
	Elements []Pattern
	Tail     Pattern
	ElemTy   types.Ty
}

func (ListPattern) patternNode() {}

type OrPattern struct {
	Alternatives []Pattern
}

func (OrPattern) patternNode() {}
