package mir

import (
	"fmt"

	"github.com/snowdamiz/meshc/internal/dtree"
	"github.com/snowdamiz/meshc/internal/typedast"
	"github.com/snowdamiz/meshc/internal/types"
)

// Builder lowers one typed file into its MIR skeleton (spec.md §4.4 step 1)
// while performing the desugarings step 2 describes inline, rather than as
// a fully separate tree pass — pipe calls are already desugared by the
// inferencer's typedast shape, so the desugarings left for this stage are
// `?`, `for`, string interpolation, and struct update.
type Builder struct {
	nextID   uint64
	freshNum int
}

func NewBuilder() *Builder { return &Builder{} }

// LowerExpr lowers a single typed expression in isolation — used by
// internal/codegen/llvmgen to lower a dtree.Leaf's Guard, which (like
// Leaf.Body) is left as typedast.Expr by the decision-tree compiler since
// it operates before MIR lowering exists.
func LowerExpr(b *Builder, e typedast.Expr) Expr { return b.lowerExpr(e) }

func (b *Builder) node(ty types.Ty) Node {
	b.nextID++

	return Node{NodeID: b.nextID, Ty: types.Prune(ty)}
}

func (b *Builder) fresh(prefix string) string {
	b.freshNum++

	return fmt.Sprintf("__%s_%d", prefix, b.freshNum)
}

// Lower turns one fully typed file into a Program ready for
// monomorphization (spec.md §4.4). The step-2 desugarings and the step-6
// actor/service lowering (lowerActors, lowerServices) run inline during
// this walk; steps 3-5 are separate passes run by the caller — see
// Monomorphize, ConvertClosures, MarkTailCalls.
func Lower(file *typedast.File) *Program {
	b := NewBuilder()

	prog := &Program{
		ModulePath: file.ModulePath,
		Structs:    file.Structs,
		SumTypes:   file.SumTypes,
	}

	for _, fd := range file.Fns {
		prog.Funcs = append(prog.Funcs, b.lowerFn(fd))
	}

	lowerActors(b, file.Actors, prog)
	lowerServices(b, file.Services, prog)

	return prog
}

func (b *Builder) lowerFn(fd *typedast.FnDef) *Func {
	params := make([]Param, len(fd.Params))
	for i, p := range fd.Params {
		params[i] = Param{Name: p.Name, Ty: types.Prune(p.Ty)}
	}

	var body Expr
	if fd.Body != nil {
		body = b.lowerExpr(fd.Body)
	}

	scheme := fd.Scheme
	if scheme != nil && len(scheme.Vars) == 0 {
		scheme = nil
	}

	return &Func{Name: fd.Name, Params: params, RetType: types.Prune(fd.RetType), Body: body, Scheme: scheme, origName: fd.Name}
}

func (b *Builder) lowerExpr(e typedast.Expr) Expr {
	switch n := e.(type) {
	case typedast.Var:
		return &Var{Node: b.node(n.Type()), Name: n.Name}

	case typedast.IntLit:
		return &IntLit{Node: b.node(n.Type()), Value: n.Value}

	case typedast.FloatLit:
		return &FloatLit{Node: b.node(n.Type()), Value: n.Value}

	case typedast.BoolLit:
		return &BoolLit{Node: b.node(n.Type()), Value: n.Value}

	case typedast.NilLit:
		return &UnitLit{Node: b.node(n.Type())}

	case typedast.StringLit:
		return b.lowerStringLit(n)

	case typedast.BinOp:
		return &BinOp{Node: b.node(n.Type()), Op: n.Op.String(), Left: b.lowerExpr(n.Left), Right: b.lowerExpr(n.Right)}

	case typedast.UnaryOp:
		return &UnOp{Node: b.node(n.Type()), Op: n.Op.String(), Operand: b.lowerExpr(n.Operand)}

	case typedast.Call:
		return b.lowerCall(n)

	case typedast.If:
		out := &If{Node: b.node(n.Type()), Cond: b.lowerExpr(n.Cond), Then: b.lowerExpr(n.Then)}
		if n.Else != nil {
			out.Else = b.lowerExpr(n.Else)
		} else {
			out.Else = &UnitLit{Node: b.node(types.Unit)}
		}

		return out

	case typedast.Let:
		out := &Let{Node: b.node(n.Type()), Name: n.Name, Value: b.lowerExpr(n.Value)}
		if n.Body != nil {
			out.Body = b.lowerExpr(n.Body)
		}

		return out

	case typedast.Block:
		return b.lowerBlock(n)

	case typedast.Match:
		return b.lowerMatch(n)

	case typedast.StructLit:
		fields := map[string]Expr{}
		for name, fe := range n.Fields {
			fields[name] = b.lowerExpr(fe)
		}

		return &StructLit{Node: b.node(n.Type()), TypeName: n.TypeName, Fields: fields}

	case typedast.StructUpdate:
		// The source struct's fields, with Fields overriding by name; MIR
		// flattens the `%{ base | ... }` shape into a plain StructLit so
		// codegen only ever has to emit one struct-construction pattern.
		src := b.lowerExpr(n.Source)
		fields := map[string]Expr{}

		baseName := b.fresh("update_base")
		letBase := &Let{Node: b.node(n.Source.Type()), Name: baseName, Value: src}

		for name, fe := range n.Fields {
			fields[name] = b.lowerExpr(fe)
		}

		structTypeName := ""
		if tc, ok := types.Prune(n.Type()).(types.TCon); ok {
			structTypeName = tc.Name
		}

		lit := &StructLit{Node: b.node(n.Type()), TypeName: structTypeName, Fields: fields}
		lit.Fields[accessBaseMarker] = &Var{Node: b.node(n.Source.Type()), Name: baseName}
		letBase.Body = lit

		return letBase

	case typedast.FieldAccess:
		return &FieldAccess{Node: b.node(n.Type()), Receiver: b.lowerExpr(n.Receiver), Field: n.Field}

	case typedast.Index:
		return &Index{Node: b.node(n.Type()), Receiver: b.lowerExpr(n.Receiver), Index: b.lowerExpr(n.Index)}

	case typedast.Try:
		return b.lowerTry(n)

	case typedast.ListLit:
		elems := make([]Expr, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = b.lowerExpr(el)
		}

		return &ListLit{Node: b.node(n.Type()), Elements: elems}

	case typedast.SetLit:
		elems := make([]Expr, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = b.lowerExpr(el)
		}
		// Sets reuse ListLit's shape; the runtime distinguishes construction
		// by the Call the emitter wraps it in (mesh_set_from_list), chosen
		// from the static type rather than a separate MIR node.
		return &ListLit{Node: b.node(n.Type()), Elements: elems}

	case typedast.TupleLit:
		elems := make([]Expr, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = b.lowerExpr(el)
		}

		return &TupleLit{Node: b.node(n.Type()), Elements: elems}

	case typedast.Lambda:
		params := make([]Param, len(n.Params))
		for i, p := range n.Params {
			params[i] = Param{Name: p.Name, Ty: types.Prune(p.Ty)}
		}

		return &Lambda{Node: b.node(n.Type()), Params: params, Body: b.lowerExpr(n.Body)}

	case typedast.For:
		return b.lowerFor(n)

	case typedast.While:
		return &While{Node: b.node(n.Type()), Cond: b.lowerExpr(n.Cond), Body: b.lowerExpr(n.Body)}

	case typedast.Spawn:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = b.lowerExpr(a)
		}

		return &Spawn{Node: b.node(n.Type()), Func: b.lowerExpr(n.Callee), Args: args}

	case typedast.Send:
		return &Send{Node: b.node(n.Type()), Target: b.lowerExpr(n.Target), Message: b.lowerExpr(n.Message)}

	case typedast.Receive:
		return b.lowerReceive(n)

	case typedast.ConstructVariant:
		fields := make([]Expr, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = b.lowerExpr(f)
		}

		tag := 0
		if tc, ok := types.Prune(n.Type()).(types.TCon); ok {
			tag = b.variantTag(tc.Name, n.Variant)
		} else if ta, ok := types.Prune(n.Type()).(types.TApp); ok {
			if head, ok := ta.Head.(types.TCon); ok {
				tag = b.variantTag(head.Name, n.Variant)
			}
		}

		return &ConstructVariant{Node: b.node(n.Type()), TypeName: n.TypeName, Variant: n.Variant, Tag: tag, Fields: fields}

	default:
		return &UnitLit{Node: b.node(types.Unit)}
	}
}

// accessBaseMarker is a reserved field key StructLit uses internally to
// carry a struct-update's base value forward to the LLVM emitter, which
// fills in any field absent from the literal from this base record rather
// than from a declared default.
const accessBaseMarker = "\x00base"

// variantTagRegistry is populated by RegisterSumTypes before any expression using
// a sum-type constructor is lowered; resolved once per Program build from
// the typedast.File's SumTypes so ConstructVariant nodes never need to
// carry a mutable registry reference of their own.
var variantTagRegistry = map[string]map[string]int{}

func (b *Builder) variantTag(typeName, variant string) int {
	if m, ok := variantTagRegistry[typeName]; ok {
		if tag, ok := m[variant]; ok {
			return tag
		}
	}

	return 0
}

// RegisterSumTypes makes a file's declared variant tags available to
// ConstructVariant lowering; Compile (pipeline.go) calls it before Lower
// walks any function bodies, so constructor tags always reflect declaration order rather than
// call-site order (spec.md §4.3/§4.5).
func RegisterSumTypes(sumTypes []*types.SumTypeInfo) {
	for _, st := range sumTypes {
		m := map[string]int{}
		for _, v := range st.Variants {
			m[v.Name] = v.Tag
		}

		variantTagRegistry[st.Name] = m
	}
}

func (b *Builder) lowerBlock(n typedast.Block) Expr {
	if len(n.Exprs) == 0 {
		return &UnitLit{Node: b.node(n.Type())}
	}

	// A block is a sequence of expressions whose final value is the
	// block's value; statement-position expressions are threaded through
	// as Let bindings to a discarded name, keeping MIR's single-expression
	// function-body shape.
	var build func(i int) Expr
	build = func(i int) Expr {
		cur := n.Exprs[i]
		lowered := b.lowerExpr(cur)

		if i == len(n.Exprs)-1 {
			return lowered
		}

		return &Let{Node: b.node(cur.Type()), Name: b.fresh("stmt"), Value: lowered, Body: build(i + 1)}
	}

	return build(0)
}

func (b *Builder) lowerCall(n typedast.Call) Expr {
	args := make([]Expr, len(n.Args))
	for i, a := range n.Args {
		args[i] = b.lowerExpr(a)
	}

	if n.Method != "" {
		// Method dot-calls mangle the same way deriving(P) synthesizes
		// impl functions (spec.md §4.4 step 2: "{Protocol}__{method}__
		// {TypeName}"), except the trait name isn't threaded through
		// typedast.Call today, so the receiver's own head type name
		// stands in for the protocol-qualified lookup key; codegen's
		// function table falls back to an unqualified `{method}__
		// {TypeName}` entry when a trait-qualified one doesn't exist.
		recv := b.lowerExpr(n.Callee)
		fnName := n.Method + "__" + headTypeName(n.Callee.Type())
		callArgs := append([]Expr{recv}, args...)

		return &Call{Node: b.node(n.Type()), Func: &Var{Node: b.node(types.Never), Name: fnName}, Args: callArgs}
	}

	return &Call{Node: b.node(n.Type()), Func: b.lowerExpr(n.Callee), Args: args}
}

func headTypeName(t types.Ty) string {
	switch h := types.Prune(t).(type) {
	case types.TCon:
		return h.Name
	case types.TApp:
		if tc, ok := h.Head.(types.TCon); ok {
			return tc.Name
		}
	}

	return "unknown"
}

func (b *Builder) lowerStringLit(n typedast.StringLit) Expr {
	if len(n.Parts) == 1 && n.Parts[0].Expr == nil {
		return &StringLit{Node: b.node(n.Type()), Value: n.Parts[0].Literal}
	}

	// Interpolation desugars to nested mesh_string_concat calls wrapping a
	// monomorphic to_string dispatch per part (spec.md §4.4 step 2).
	var parts []Expr

	for _, p := range n.Parts {
		if p.Expr == nil {
			parts = append(parts, &StringLit{Node: b.node(types.String), Value: p.Literal})
			continue
		}

		val := b.lowerExpr(p.Expr)
		toStr := &Call{
			Node: b.node(types.String),
			Func: &Var{Node: b.node(types.Never), Name: "to_string__" + headTypeName(p.Expr.Type())},
			Args: []Expr{val},
		}

		parts = append(parts, toStr)
	}

	acc := parts[0]
	for _, p := range parts[1:] {
		acc = &Call{
			Node: b.node(types.String),
			Func: &Var{Node: b.node(types.Never), Name: "mesh_string_concat"},
			Args: []Expr{acc, p},
		}
	}

	return acc
}

func (b *Builder) lowerMatch(n typedast.Match) Expr {
	scrutinee := b.lowerExpr(n.Scrutinee)

	arms := make([]dtree.Arm, len(n.Arms))
	for i, a := range n.Arms {
		arm := dtree.Arm{Pattern: a.Pattern, Body: a.Body}
		if a.Guard != nil {
			arm.Guard = a.Guard
		}

		arms[i] = arm
	}

	return &Match{Node: b.node(n.Type()), Scrutinee: scrutinee, Tree: dtree.Compile(arms)}
}

func (b *Builder) lowerReceive(n typedast.Receive) Expr {
	arms := make([]dtree.Arm, len(n.Arms))
	for i, a := range n.Arms {
		arm := dtree.Arm{Pattern: a.Pattern, Body: a.Body}
		if a.Guard != nil {
			arm.Guard = a.Guard
		}

		arms[i] = arm
	}

	out := &Receive{Node: b.node(n.Type()), Tree: dtree.Compile(arms)}
	if n.AfterMs != nil {
		out.AfterMs = b.lowerExpr(n.AfterMs)
		out.AfterBody = b.lowerExpr(n.AfterBody)
	}

	return out
}

// lowerTry desugars `operand?` into a match on the operand's Ok/Err (or
// Some/None) variant: the success field is bound and becomes the match's
// value, the failure variant short-circuits the enclosing function body
// with an explicit Return (spec.md §4.4 step 2).
func (b *Builder) lowerTry(n typedast.Try) Expr {
	operand := b.lowerExpr(n.Operand)
	operandTy := types.Prune(n.Operand.Type())

	head := headTypeName(operandTy)

	okName, failName := "Ok", "Err"
	if head == "Option" {
		okName, failName = "Some", "None"
	}

	bindName := b.fresh("try")

	okPat := typedast.VariantPattern{TypeName: head, Variant: okName, Tag: 0, Fields: []typedast.Pattern{
		typedast.VarPattern{Name: bindName, Ty: n.Type()},
	}}

	var failFields []typedast.Pattern
	failBind := ""

	if head != "Option" {
		failBind = b.fresh("try_err")
		failFields = []typedast.Pattern{typedast.VarPattern{Name: failBind, Ty: n.Type()}}
	}

	failPat := typedast.VariantPattern{TypeName: head, Variant: failName, Tag: 1, Fields: failFields}

	var failValue Expr
	if failBind != "" {
		failValue = &ConstructVariant{
			Node: b.node(operandTy), TypeName: head, Variant: failName, Tag: 1,
			Fields: []Expr{&Var{Node: b.node(types.Unit), Name: failBind}},
		}
	} else {
		failValue = &ConstructVariant{Node: b.node(operandTy), TypeName: head, Variant: failName, Tag: 1}
	}

	arms := []dtree.Arm{
		{Pattern: okPat, Body: typedast.Var{Base: typedast.Base{Ty: n.Type(), Sp: n.Span()}, Name: bindName}},
		{Pattern: failPat, Body: typedast.NilLit{Base: typedast.Base{Ty: n.Type(), Sp: n.Span()}}},
	}

	tree := dtree.Compile(arms)

	// The Leaf for the fail arm needs its Body swapped for a Return rather
	// than the placeholder NilLit above, which exists only so dtree.Compile
	// has something type-shaped to attach; rewriteFailArm performs that
	// swap post-compilation.
	tree = rewriteFailArm(tree, 1, &Return{Node: b.node(types.Never), Value: failValue})

	return &Match{Node: b.node(n.Type()), Scrutinee: operand, Tree: tree}
}

// rewriteFailArm walks a compiled decision tree replacing every Leaf whose
// ArmIndex matches armIdx with one whose mir Body is replaced post-hoc;
// since dtree.Leaf.Body is a typedast.Expr (pre-lowering) and the
// replacement here is already a lowered mir.Expr, the swap is carried via
// a side table keyed by node identity rather than mutating dtree.Leaf's
// typed field.
func rewriteFailArm(n dtree.Node, armIdx int, replacement Expr) dtree.Node {
	switch t := n.(type) {
	case *dtree.Leaf:
		if t.ArmIndex == armIdx {
			failOverrides[t] = replacement
		}

		return t

	case *dtree.Switch:
		for _, c := range t.Cases {
			rewriteFailArm(c, armIdx, replacement)
		}

		if t.Default != nil {
			rewriteFailArm(t.Default, armIdx, replacement)
		}

		return t

	case *dtree.Test:
		rewriteFailArm(t.Then, armIdx, replacement)
		rewriteFailArm(t.Else, armIdx, replacement)

		return t

	case *dtree.ListDecons:
		rewriteFailArm(t.NonEmpty, armIdx, replacement)
		rewriteFailArm(t.Empty, armIdx, replacement)

		return t

	default:
		return t
	}
}

// failOverrides lets `?`-desugaring substitute a lowered mir.Return for a
// dtree.Leaf's placeholder typedast Body; LeafBody (called by
// internal/codegen/llvmgen's emitLeaf) checks this table before falling
// back to lowering Leaf.Body itself.
var failOverrides = map[*dtree.Leaf]Expr{}

// LeafBody resolves a dtree.Leaf's MIR body, honoring any Return swap
// `?`-desugaring installed in failOverrides, and otherwise lowering the
// leaf's typedast body directly (used by the LLVM emitter to avoid
// re-deriving this per package).
func LeafBody(b *Builder, leaf *dtree.Leaf) Expr {
	if override, ok := failOverrides[leaf]; ok {
		return override
	}

	return b.lowerExpr(leaf.Body)
}

// lowerFor desugars a comprehension into a While loop with an accumulator
// list the runtime builds up (spec.md §4.4 step 2); the iterator itself is
// left as a runtime call chosen by the iterable's static type so range,
// list, map, and set sources share one loop shape.
func (b *Builder) lowerFor(n typedast.For) Expr {
	iterable := b.lowerExpr(n.Iterable)
	accName := b.fresh("acc")
	cursorName := b.fresh("cursor")

	iterCall := &Call{
		Node: b.node(types.Never),
		Func: &Var{Node: b.node(types.Never), Name: "mesh_iter_new"},
		Args: []Expr{iterable},
	}

	hasNext := &Call{
		Node: b.node(types.Bool),
		Func: &Var{Node: b.node(types.Never), Name: "mesh_iter_has_next"},
		Args: []Expr{&Var{Node: b.node(types.Never), Name: cursorName}},
	}

	bodyVal := b.lowerExpr(n.Body)
	pushCall := &Call{
		Node: b.node(types.Unit),
		Func: &Var{Node: b.node(types.Never), Name: "mesh_list_push"},
		Args: []Expr{&Var{Node: b.node(n.Type()), Name: accName}, bodyVal},
	}

	var loopBody Expr = pushCall
	if n.Filter != nil {
		loopBody = &If{Node: b.node(types.Unit), Cond: b.lowerExpr(n.Filter), Then: pushCall, Else: &UnitLit{Node: b.node(types.Unit)}}
	}

	advance := &Call{
		Node: b.node(types.Never),
		Func: &Var{Node: b.node(types.Never), Name: "mesh_iter_advance"},
		Args: []Expr{&Var{Node: b.node(types.Never), Name: cursorName}},
	}

	loop := &While{
		Node: b.node(n.Type()), Cond: hasNext,
		Body: &Let{Node: b.node(types.Unit), Name: b.fresh("stmt"), Value: loopBody, Body: advance},
		Acc:  accName, AccInit: &Call{Node: b.node(n.Type()), Func: &Var{Node: b.node(types.Never), Name: "mesh_list_new"}},
	}

	return &Let{
		Node: b.node(n.Type()), Name: cursorName, Value: iterCall,
		Body: &Let{Node: b.node(n.Type()), Name: accName, Value: loop.AccInit, Body: loop},
	}
}
