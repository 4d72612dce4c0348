// Package mir is the mid-level IR produced by lowering a fully typed file
// (internal/typedast) before LLVM emission (spec.md §4.4). Lowering does not
// put expressions in ANF: a complex sub-expression can appear directly as an
// operand, and codegen lowers such operands recursively.
package mir

import (
	"fmt"

	"github.com/snowdamiz/meshc/internal/dtree"
	"github.com/snowdamiz/meshc/internal/types"
)

// Expr is implemented by every MIR expression node.
type Expr interface {
	exprNode()
	ID() uint64
	Type() types.Ty
}

// Node carries the identity every MIR expression shares: a stable ID
// assigned during lowering (stable so later passes can key side tables off
// it) and the node's resolved, fully pruned type.
type Node struct {
	NodeID uint64
	Ty     types.Ty
}

func (n Node) ID() uint64    { return n.NodeID }
func (n Node) Type() types.Ty { return n.Ty }

// Atomic expressions — may appear directly as a call argument, branch
// condition, or Let value without further atomization.

type Var struct {
	Node
	Name string
}

func (*Var) exprNode() {}

type IntLit struct {
	Node
	Value int64
}

func (*IntLit) exprNode() {}

type FloatLit struct {
	Node
	Value float64
}

func (*FloatLit) exprNode() {}

type BoolLit struct {
	Node
	Value bool
}

func (*BoolLit) exprNode() {}

type StringLit struct {
	Node
	Value string
}

func (*StringLit) exprNode() {}

type UnitLit struct{ Node }

func (*UnitLit) exprNode() {}

// MakeClosure produces a fat pointer {code_ptr, env_ptr} for a lambda that
// closure conversion (closures.go) lifted to a top-level Func named FnName;
// Captures are the free variables packed into the environment struct, read
// back in FnName's entry block (spec.md §4.4 step 4).
type MakeClosure struct {
	Node
	FnName   string
	Captures []Var
}

func (*MakeClosure) exprNode() {}

// Lambda is the pre-closure-conversion shape a lowered typedast.Lambda
// takes; closures.go (spec.md §4.4 step 4) rewrites every Lambda reachable
// from a Func's body into a top-level Func plus a MakeClosure in its place.
type Lambda struct {
	Node
	Params []Param
	Body   Expr
}

func (*Lambda) exprNode() {}

// While is both the surface `while` loop and the desugared form of a
// `for…in…when…do…end` comprehension (spec.md §4.4 step 2): Acc/AccInit
// are set only for the desugared list-builder form, naming the
// accumulator variable a runtime list is built up in as the loop runs.
type While struct {
	Node
	Cond    Expr
	Body    Expr
	Acc     string
	AccInit Expr
}

func (*While) exprNode() {}

// Return is an explicit early exit from the enclosing function, emitted by
// `?`-operator desugaring (spec.md §4.4 step 2: "`?` to a `match` on
// `Ok/Err` or `Some/None`" — the Err/None arm doesn't just evaluate to a
// value, it exits the function immediately). The LLVM emitter treats it as
// a block terminator; its static type is Never.
type Return struct {
	Node
	Value Expr
}

func (*Return) exprNode() {}

// Complex expressions — may also appear directly as operands (see the
// package doc).

type Let struct {
	Node
	Name  string
	Value Expr
	Body  Expr // nil for the last binding in a block
}

func (*Let) exprNode() {}

// Call covers both ordinary calls and closure calls; Tail is set by the
// tail-call marking pass (spec.md §4.4 step 5) when this call is a
// self-recursive call in tail position.
type Call struct {
	Node
	Func Expr
	Args []Expr
	Tail bool
}

func (*Call) exprNode() {}

type If struct {
	Node
	Cond, Then, Else Expr
}

func (*If) exprNode() {}

// Match holds the lowered scrutinee and the compiled decision tree codegen
// walks; the original arm list is not kept.
type Match struct {
	Node
	Scrutinee Expr
	Tree      dtree.Node
}

func (*Match) exprNode() {}

type BinOp struct {
	Node
	Op          string
	Left, Right Expr
}

func (*BinOp) exprNode() {}

type UnOp struct {
	Node
	Op      string
	Operand Expr
}

func (*UnOp) exprNode() {}

type StructLit struct {
	Node
	TypeName string
	Fields   map[string]Expr
}

func (*StructLit) exprNode() {}

type FieldAccess struct {
	Node
	Receiver Expr
	Field    string
}

func (*FieldAccess) exprNode() {}

type Index struct {
	Node
	Receiver, Index Expr
}

func (*Index) exprNode() {}

type ListLit struct {
	Node
	Elements []Expr
}

func (*ListLit) exprNode() {}

type TupleLit struct {
	Node
	Elements []Expr
}

func (*TupleLit) exprNode() {}

// ConstructVariant builds a sum-type value: Tag is the variant's declared
// tag (spec.md §4.5's "tags come from the sum-type definition"), threaded
// straight through from typedast.ConstructVariant.
type ConstructVariant struct {
	Node
	TypeName string
	Variant  string
	Tag      int
	Fields   []Expr
}

func (*ConstructVariant) exprNode() {}

type Spawn struct {
	Node
	Func Expr
	Args []Expr
}

func (*Spawn) exprNode() {}

type Send struct {
	Node
	Target, Message Expr
}

func (*Send) exprNode() {}

// Receive mirrors Match but over mailbox messages; AfterMs/AfterBody are
// nil when there is no `after` clause.
type Receive struct {
	Node
	Tree      dtree.Node
	AfterMs   Expr
	AfterBody Expr
}

func (*Receive) exprNode() {}

// Func is a top-level MIR function: every surface `fn`, every monomorphized
// clone of a polymorphic `fn` (named via mangle, spec.md §4.4 step 3), and
// every closure lifted out of a Lambda (named __closure_N, step 4).
type Func struct {
	Name         string
	Params       []Param
	RetType      types.Ty
	Body         Expr
	Scheme       *types.Scheme // nil for an already-monomorphic function
	IsClosure    bool          // first param is the env pointer
	HasTailCalls bool
	origName     string // pre-mangling name, for re-specializing on demand
}

type Param struct {
	Name string
	Ty   types.Ty
}

// Global is a compiler-synthesized top-level constant. No pass populates
// Program.Globals; the LLVM emitter deduplicates string literals in its
// own table.
type Global struct {
	Name  string
	Value string
}

// Program is one module's fully lowered contents, ready for
// internal/codegen/llvmgen.
type Program struct {
	ModulePath string
	Funcs      []*Func
	Globals    []*Global
	Structs    []*types.StructInfo
	SumTypes   []*types.SumTypeInfo

	// Services/actors materialize into Funcs (actors.go); these slices
	// record their dispatch metadata and terminate functions (spec.md §4.4
	// step 6). internal/codegen/llvmgen reads neither slice.
	ServiceLoops []*ServiceLoop
	ActorHooks   []*ActorHook
}

// ServiceLoop describes the __service_{Name}_loop Func plus the call/cast
// dispatch tables keyed by message-type tag.
type ServiceLoop struct {
	ServiceName string
	LoopFunc    string
	CallDispatch dtree.Node
	CastDispatch dtree.Node
}

// ActorHook records a materialized __terminate_{name} function by actor
// name. No stage registers it with the runtime via actor_set_terminate.
type ActorHook struct {
	ActorName     string
	TerminateFunc string
}

func (f *Func) String() string {
	return fmt.Sprintf("fn %s/%d", f.Name, len(f.Params))
}
