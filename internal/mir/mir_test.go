package mir

import (
	"testing"

	"github.com/snowdamiz/meshc/internal/dtree"
	"github.com/snowdamiz/meshc/internal/token"
	"github.com/snowdamiz/meshc/internal/typedast"
	"github.com/snowdamiz/meshc/internal/types"
)

func tvar(id int) types.Ty { return types.TVar{Cell: &types.VarCell{ID: id, Level: 0}} }

func TestLower_SimpleFunction(t *testing.T) {
	fn := &typedast.FnDef{
		Name:    "add",
		Params:  []typedast.Param{{Name: "a", Ty: types.Int}, {Name: "b", Ty: types.Int}},
		RetType: types.Int,
		Body: typedast.BinOp{
			Base:  typedast.Base{Ty: types.Int},
			Op:    token.PLUS,
			Left:  typedast.Var{Base: typedast.Base{Ty: types.Int}, Name: "a"},
			Right: typedast.Var{Base: typedast.Base{Ty: types.Int}, Name: "b"},
		},
	}

	prog := Lower(&typedast.File{ModulePath: "m", Fns: []*typedast.FnDef{fn}})

	if len(prog.Funcs) != 1 {
		t.Fatalf("expected 1 func, got %d", len(prog.Funcs))
	}

	got := prog.Funcs[0]
	if got.Name != "add" || len(got.Params) != 2 {
		t.Fatalf("unexpected lowered func: %+v", got)
	}

	bin, ok := got.Body.(*BinOp)
	if !ok {
		t.Fatalf("expected *BinOp body, got %T", got.Body)
	}
	if bin.Op != "+" {
		t.Errorf("Op = %q, want %q", bin.Op, "+")
	}
}

func TestLower_StringInterpolationDesugarsToConcat(t *testing.T) {
	fn := &typedast.FnDef{
		Name:    "greet",
		Params:  []typedast.Param{{Name: "name", Ty: types.String}},
		RetType: types.String,
		Body: typedast.StringLit{
			Base: typedast.Base{Ty: types.String},
			Parts: []typedast.StringPart{
				{Literal: "hi "},
				{Expr: typedast.Var{Base: typedast.Base{Ty: types.String}, Name: "name"}},
			},
		},
	}

	prog := Lower(&typedast.File{ModulePath: "m", Fns: []*typedast.FnDef{fn}})

	call, ok := prog.Funcs[0].Body.(*Call)
	if !ok {
		t.Fatalf("expected *Call body, got %T", prog.Funcs[0].Body)
	}

	fnVar, ok := call.Func.(*Var)
	if !ok || fnVar.Name != "mesh_string_concat" {
		t.Fatalf("expected mesh_string_concat call, got %+v", call.Func)
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(call.Args))
	}

	toStr, ok := call.Args[1].(*Call)
	if !ok {
		t.Fatalf("expected second arg to be a to_string call, got %T", call.Args[1])
	}
	toStrFn, ok := toStr.Func.(*Var)
	if !ok || toStrFn.Name != "to_string__String" {
		t.Fatalf("unexpected to_string dispatch: %+v", toStr.Func)
	}
}

func TestLower_TryDesugarsFailArmToReturn(t *testing.T) {
	resultTy := types.TApp{Head: types.TCon{Name: "Result"}, Args: []types.Ty{types.Int, types.String}}

	fn := &typedast.FnDef{
		Name:    "unwrap_add",
		Params:  []typedast.Param{{Name: "r", Ty: resultTy}},
		RetType: types.Int,
		Body: typedast.Try{
			Base:    typedast.Base{Ty: types.Int},
			Operand: typedast.Var{Base: typedast.Base{Ty: resultTy}, Name: "r"},
		},
	}

	prog := Lower(&typedast.File{ModulePath: "m", Fns: []*typedast.FnDef{fn}})

	match, ok := prog.Funcs[0].Body.(*Match)
	if !ok {
		t.Fatalf("expected *Match body, got %T", prog.Funcs[0].Body)
	}

	var foundReturn bool

	leaves := collectLeaves(match.Tree)
	for _, leaf := range leaves {
		body := LeafBody(NewBuilder(), leaf)
		if _, ok := body.(*Return); ok {
			foundReturn = true
		}
	}

	if !foundReturn {
		t.Fatalf("expected at least one Leaf to carry a Return body from ?-desugaring")
	}
}

func TestMonomorphize_SpecializesGenericCallSite(t *testing.T) {
	genericVar := tvar(1)

	identity := &typedast.FnDef{
		Name:    "identity",
		Params:  []typedast.Param{{Name: "x", Ty: genericVar}},
		RetType: genericVar,
		Scheme:  &types.Scheme{Vars: []int{1}, Type: types.TFun{Params: []types.Ty{genericVar}, Ret: genericVar}},
		Body:    typedast.Var{Base: typedast.Base{Ty: genericVar}, Name: "x"},
	}

	caller := &typedast.FnDef{
		Name:    "main",
		RetType: types.Int,
		Body: typedast.Call{
			Base:   typedast.Base{Ty: types.Int},
			Callee: typedast.Var{Base: typedast.Base{Ty: types.TFun{Params: []types.Ty{types.Int}, Ret: types.Int}}, Name: "identity"},
			Args:   []typedast.Expr{typedast.IntLit{Base: typedast.Base{Ty: types.Int}, Value: 7}},
		},
	}

	prog := Lower(&typedast.File{ModulePath: "m", Fns: []*typedast.FnDef{identity, caller}})
	Monomorphize(prog)

	var found *Func
	for _, fn := range prog.Funcs {
		if fn.Name == "identity_Int" {
			found = fn
		}
	}
	if found == nil {
		t.Fatalf("expected a mangled identity_Int specialization, funcs: %+v", namesOf(prog.Funcs))
	}

	for _, fn := range prog.Funcs {
		if fn.Name == "identity" {
			t.Fatalf("unspecialized generic identity should have been dropped from the final Funcs list")
		}
	}

	mainFn := funcNamed(prog.Funcs, "main")
	call, ok := mainFn.Body.(*Call)
	if !ok {
		t.Fatalf("expected main body to still be a *Call, got %T", mainFn.Body)
	}
	fnVar, ok := call.Func.(*Var)
	if !ok || fnVar.Name != "identity_Int" {
		t.Fatalf("expected call site rewritten to identity_Int, got %+v", call.Func)
	}
}

func TestConvertClosures_LiftsLambdaAndCaptures(t *testing.T) {
	fn := &typedast.FnDef{
		Name:    "make_adder",
		Params:  []typedast.Param{{Name: "n", Ty: types.Int}},
		RetType: types.TFun{Params: []types.Ty{types.Int}, Ret: types.Int},
		Body: typedast.Lambda{
			Base:   typedast.Base{Ty: types.TFun{Params: []types.Ty{types.Int}, Ret: types.Int}},
			Params: []typedast.Param{{Name: "x", Ty: types.Int}},
			Body: typedast.BinOp{
				Base:  typedast.Base{Ty: types.Int},
				Op:    token.PLUS,
				Left:  typedast.Var{Base: typedast.Base{Ty: types.Int}, Name: "x"},
				Right: typedast.Var{Base: typedast.Base{Ty: types.Int}, Name: "n"},
			},
		},
	}

	prog := Lower(&typedast.File{ModulePath: "m", Fns: []*typedast.FnDef{fn}})
	ConvertClosures(prog)

	mk, ok := funcNamed(prog.Funcs, "make_adder").Body.(*MakeClosure)
	if !ok {
		t.Fatalf("expected make_adder's body to become a *MakeClosure, got %T", funcNamed(prog.Funcs, "make_adder").Body)
	}

	if len(mk.Captures) != 1 || mk.Captures[0].Name != "n" {
		t.Fatalf("expected a single capture named n, got %+v", mk.Captures)
	}

	lifted := funcNamed(prog.Funcs, mk.FnName)
	if lifted == nil {
		t.Fatalf("expected a lifted Func named %q", mk.FnName)
	}
	if !lifted.IsClosure || len(lifted.Params) != 2 || lifted.Params[0].Name != "__env" {
		t.Fatalf("unexpected lifted closure shape: %+v", lifted)
	}
}

func TestMarkTailCalls_FlagsSelfRecursiveTailCall(t *testing.T) {
	fn := &typedast.FnDef{
		Name:    "loop",
		Params:  []typedast.Param{{Name: "n", Ty: types.Int}},
		RetType: types.Int,
		Body: typedast.If{
			Base: typedast.Base{Ty: types.Int},
			Cond: typedast.BoolLit{Base: typedast.Base{Ty: types.Bool}, Value: true},
			Then: typedast.IntLit{Base: typedast.Base{Ty: types.Int}, Value: 0},
			Else: typedast.Call{
				Base:   typedast.Base{Ty: types.Int},
				Callee: typedast.Var{Base: typedast.Base{Ty: types.TFun{Params: []types.Ty{types.Int}, Ret: types.Int}}, Name: "loop"},
				Args:   []typedast.Expr{typedast.IntLit{Base: typedast.Base{Ty: types.Int}, Value: 1}},
			},
		},
	}

	prog := Lower(&typedast.File{ModulePath: "m", Fns: []*typedast.FnDef{fn}})
	MarkTailCalls(prog)

	got := prog.Funcs[0]
	if !got.HasTailCalls {
		t.Fatalf("expected HasTailCalls to be set")
	}

	ifExpr := got.Body.(*If)
	call, ok := ifExpr.Else.(*Call)
	if !ok || !call.Tail {
		t.Fatalf("expected the else-branch self-call to be marked Tail, got %+v", ifExpr.Else)
	}
}

func namesOf(fns []*Func) []string {
	out := make([]string, len(fns))
	for i, f := range fns {
		out[i] = f.Name
	}
	return out
}

func funcNamed(fns []*Func, name string) *Func {
	for _, f := range fns {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// collectLeaves walks a compiled decision tree collecting every Leaf,
// mirroring how the LLVM emitter would enumerate match arms.
func collectLeaves(n dtree.Node) []*dtree.Leaf {
	var out []*dtree.Leaf

	var walk func(n dtree.Node)
	walk = func(n dtree.Node) {
		switch v := n.(type) {
		case *dtree.Leaf:
			out = append(out, v)
		case *dtree.Switch:
			for _, c := range v.Cases {
				walk(c)
			}
			if v.Default != nil {
				walk(v.Default)
			}
		case *dtree.Test:
			walk(v.Then)
			walk(v.Else)
		case *dtree.ListDecons:
			walk(v.NonEmpty)
			walk(v.Empty)
		}
	}

	walk(n)

	return out
}
