// Package typedast is the output of the inferencer (internal/types): the
// AST facade's shape, re-expressed with every node's resolved Ty attached
// and trait method calls/operators resolved to their concrete impl
// (spec.md §3 "AST + Env -> Inferencer -> Typed AST").
package typedast

import (
	"github.com/snowdamiz/meshc/internal/token"
	"github.com/snowdamiz/meshc/internal/types"
)

// Expr is implemented by every typed expression node.
type Expr interface {
	exprNode()
	Type() types.Ty
	Span() token.Span
}

// Base carries the resolved type and source span shared by every typed
// expression node; exported so internal/types can populate it directly
// when constructing nodes during inference.
type Base struct {
	Ty types.Ty
	Sp token.Span
}

func (b Base) Type() types.Ty  { return b.Ty }
func (b Base) Span() token.Span { return b.Sp }

type Var struct {
	Base
	Name string
}

func (Var) exprNode() {}

type IntLit struct {
	Base
	Value int64
}

func (IntLit) exprNode() {}

type FloatLit struct {
	Base
	Value float64
}

func (FloatLit) exprNode() {}

type BoolLit struct {
	Base
	Value bool
}

func (BoolLit) exprNode() {}

type NilLit struct{ Base }

func (NilLit) exprNode() {}

// StringLit's Parts alternate literal fragments and interpolated
// expressions; MIR desugaring (spec.md §4.4) rewrites this into
// `mesh_string_concat` calls around `to_string` dispatches.
type StringLit struct {
	Base
	Parts []StringPart
}

func (StringLit) exprNode() {}

type StringPart struct {
	Literal string // used when Expr == nil
	Expr    Expr
}

// BinOp carries the resolved trait + impl head so that MIR lowering needs
// no further resolution (spec.md §4.3 "each binary/unary operator is
// typed through a compiler-known trait").
type BinOp struct {
	Base
	Op          token.Kind
	Left, Right Expr
	Trait       string
	ImplHead    string
}

func (BinOp) exprNode() {}

type UnaryOp struct {
	Base
	Op       token.Kind
	Operand  Expr
	Trait    string
	ImplHead string
}

func (UnaryOp) exprNode() {}

// Call covers ordinary calls, method-dot calls (Callee nil, Method set),
// and builtin calls alike; MIR lowering tells them apart by Callee/Method.
type Call struct {
	Base
	Callee Expr
	Method string
	Args   []Expr
}

func (Call) exprNode() {}

type If struct {
	Base
	Cond, Then, Else Expr
}

func (If) exprNode() {}

type Let struct {
	Base
	Name   string
	Scheme *types.Scheme
	Value  Expr
	Body   Expr // nil for a statement-position `let` ending the block
}

func (Let) exprNode() {}

type Block struct {
	Base
	Exprs []Expr
}

func (Block) exprNode() {}

// Match is the typed case/receive expression prior to decision-tree
// compilation (internal/dtree consumes this shape, spec.md §4.5).
type Match struct {
	Base
	Scrutinee Expr
	Arms      []MatchArm
}

func (Match) exprNode() {}

type MatchArm struct {
	Pattern Pattern
	Guard   Expr // nil if none
	Body    Expr
}

type StructLit struct {
	Base
	TypeName string
	Fields   map[string]Expr
}

func (StructLit) exprNode() {}

type StructUpdate struct {
	Base
	Source Expr
	Fields map[string]Expr
}

func (StructUpdate) exprNode() {}

type FieldAccess struct {
	Base
	Receiver Expr
	Field    string
}

func (FieldAccess) exprNode() {}

type Index struct {
	Base
	Receiver, Index Expr
}

func (Index) exprNode() {}

// Try is the typed `?`-operator site. internal/types never sets From: no
// conversion impl is looked up when the error/none carrier types differ,
// so From is always empty.
type Try struct {
	Base
	Operand Expr
	From    string
}

func (Try) exprNode() {}

type ListLit struct {
	Base
	Elements []Expr
}

func (ListLit) exprNode() {}

type SetLit struct {
	Base
	Elements []Expr
}

func (SetLit) exprNode() {}

type TupleLit struct {
	Base
	Elements []Expr
}

func (TupleLit) exprNode() {}

// Lambda is a closure literal; closure conversion (spec.md §4.4) happens
// in internal/mir, not here — the typed AST just records the captured
// free-variable names are implicit (resolved by scope lookup at MIR
// build time).
type Lambda struct {
	Base
	Params []Param
	Body   Expr
}

func (Lambda) exprNode() {}

type Param struct {
	Name string
	Ty   types.Ty
}

type For struct {
	Base
	Pattern  Pattern
	Iterable Expr
	Filter   Expr // nil if none
	Body     Expr
}

func (For) exprNode() {}

type While struct {
	Base
	Cond Expr
	Body Expr
}

func (While) exprNode() {}

type Spawn struct {
	Base
	Callee Expr
	Args   []Expr
}

func (Spawn) exprNode() {}

type Send struct {
	Base
	Target, Message Expr
}

func (Send) exprNode() {}

type Receive struct {
	Base
	Arms       []MatchArm
	AfterMs    Expr // nil if no after-clause
	AfterBody  Expr
}

func (Receive) exprNode() {}

// ConstructVariant constructs a sum-type value directly — produced by
// typing a call-syntax constructor use (`Some(x)`), not a surface
// construct of its own.
type ConstructVariant struct {
	Base
	TypeName string
	Variant  string
	Fields   []Expr
}

func (ConstructVariant) exprNode() {}

// FnDef is a typed, fully elaborated function. For a multi-clause `fn`,
// internal/types keeps only the first clause's params and body; no later
// stage merges the clauses.
type FnDef struct {
	Name    string
	IsPub   bool
	Params  []Param
	RetType types.Ty
	Scheme  *types.Scheme
	Where   []types.WhereBound
	Body    Expr
	Span    token.Span
}

// File is one module's fully typed contents.
type File struct {
	ModulePath string
	Imports    []string
	Fns        []*FnDef
	Structs    []*types.StructInfo
	SumTypes   []*types.SumTypeInfo
	Impls      []*types.ImplDef
	Actors     []*ActorDef
	Services   []*ServiceDef
	Supervisors []*SupervisorDef
}

type ActorDef struct {
	Name      string
	Handlers  []*FnDef
	Terminate Expr // nil if none
	Span      token.Span
}

type ServiceDef struct {
	Name         string
	CallHandlers []ServiceHandler
	CastHandlers []ServiceHandler
	Span         token.Span
}

type ServiceHandler struct {
	Pattern Pattern
	Body    Expr
}

type SupervisorDef struct {
	Name     string
	Strategy string
	Children []ChildSpec
	Span     token.Span
}

type ChildSpec struct {
	Name string
	Args []Expr
}
