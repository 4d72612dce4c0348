package types

import (
	"strconv"

	"github.com/snowdamiz/meshc/internal/ast"
	"github.com/snowdamiz/meshc/internal/cst"
	"github.com/snowdamiz/meshc/internal/errors"
	"github.com/snowdamiz/meshc/internal/token"
	"github.com/snowdamiz/meshc/internal/typedast"
)

// based attaches the resolved type and source span every typed node
// carries, since typedast.Base's fields are populated post hoc by the
// inferencer rather than by typedast itself.
func based(ty Ty, sp token.Span) typedast.Base {
	return typedast.Base{Ty: ty, Sp: sp}
}

// inferBlock types a sequence of expressions, threading a child
// environment so `let` statements without an explicit `in` body bind for
// the remainder of the block (mesh's do/end blocks are expression
// sequences, not a nested-let tree, at the surface-syntax level; MIR
// desugaring is free to re-nest them).
func inferBlock(ctx *Ctx, env *TypeEnv, b ast.Block) (typedast.Expr, Ty) {
	blockEnv := env.Child()
	exprs := b.Exprs()

	var typed []typedast.Expr
	var last Ty = Unit

	for _, n := range exprs {
		e := ast.AsExpr(n.Syntax)
		if e == nil {
			continue
		}

		te, ty := inferExpr(ctx, blockEnv, e)
		typed = append(typed, te)
		last = ty
	}

	if len(typed) == 0 {
		last = Unit
	}

	sp := b.Span()
	if len(exprs) > 0 {
		sp = exprs[len(exprs)-1].Span()
	}

	return typedast.Block{Base: based(last, sp), Exprs: typed}, last
}

// inferExpr is the Algorithm J dispatch over every expression facade kind
// (spec.md §4.3).
func inferExpr(ctx *Ctx, env *TypeEnv, e ast.Expr) (typedast.Expr, Ty) {
	switch n := e.(type) {
	case ast.IdentExpr:
		return inferIdent(ctx, env, n)
	case ast.IntLit:
		v, _ := strconv.ParseInt(n.Text(), 10, 64)

		return typedast.IntLit{Base: based(Int, n.Span()), Value: v}, Int
	case ast.FloatLit:
		v, _ := strconv.ParseFloat(n.Text(), 64)

		return typedast.FloatLit{Base: based(Float, n.Span()), Value: v}, Float
	case ast.BoolLit:
		return typedast.BoolLit{Base: based(Bool, n.Span()), Value: n.Value()}, Bool
	case ast.NilLit:
		ty := ctx.NewVar()

		return typedast.NilLit{Base: based(ty, n.Span())}, ty
	case ast.StringLit:
		return inferStringLit(ctx, env, n)
	case ast.BinaryExpr:
		return inferBinary(ctx, env, n)
	case ast.UnaryExpr:
		return inferUnary(ctx, env, n)
	case ast.PipeExpr:
		return inferPipe(ctx, env, n)
	case ast.CallExpr:
		return inferCall(ctx, env, n)
	case ast.FieldAccessExpr:
		return inferFieldAccess(ctx, env, n)
	case ast.IndexExpr:
		return inferIndex(ctx, env, n)
	case ast.TryExpr:
		return inferTry(ctx, env, n)
	case ast.IfExpr:
		return inferIf(ctx, env, n)
	case ast.CaseExpr:
		return inferCase(ctx, env, n)
	case ast.LetExpr:
		return inferLet(ctx, env, n)
	case ast.ForExpr:
		return inferFor(ctx, env, n)
	case ast.WhileExpr:
		return inferWhile(ctx, env, n)
	case ast.StructLiteral:
		return inferStructLiteral(ctx, env, n)
	case ast.StructUpdate:
		return inferStructUpdate(ctx, env, n)
	case ast.MapLiteral:
		return inferMapLiteral(ctx, env, n)
	case ast.ListLiteral:
		return inferListLiteral(ctx, env, n)
	case ast.SetLiteral:
		return inferSetLiteral(ctx, env, n)
	case ast.TupleExpr:
		return inferTuple(ctx, env, n)
	case ast.LambdaExpr:
		return inferLambda(ctx, env, n)
	case ast.SpawnExpr:
		return inferSpawn(ctx, env, n)
	case ast.SendExpr:
		return inferSend(ctx, env, n)
	case ast.ReceiveExpr:
		return inferReceive(ctx, env, n)
	case ast.BlockExpr:
		return inferBlock(ctx, env, ast.Block(n))
	default:
		ty := ctx.NewVar()

		return typedast.NilLit{Base: based(ty, e.Span())}, ty
	}
}

func inferIdent(ctx *Ctx, env *TypeEnv, n ast.IdentExpr) (typedast.Expr, Ty) {
	name := n.Name()

	if st, _, ok := env.VariantOwner(name); ok {
		// bare variant constructor with no arguments, e.g. `None`
		ty := TCon{Name: st.Name}

		return typedast.ConstructVariant{Base: based(ty, n.Span()), TypeName: st.Name, Variant: name}, ty
	}

	s, ok := env.Lookup(name)
	if !ok {
		ctx.Sink.Report(errors.Diagnostic{
			Code: errors.E0004Unbound, Severity: errors.SeverityError,
			Message: "unbound name: " + name, File: ctx.File, Span: n.Span(),
			Fix: suggestName(env, name),
		})

		ty := ctx.NewVar()

		return typedast.Var{Base: based(ty, n.Span()), Name: name}, ty
	}

	t, _ := ctx.Instantiate(s)

	return typedast.Var{Base: based(t, n.Span()), Name: name}, t
}

// suggestName does a cheap edit-distance-1 scan of names bound in env for
// a "did you mean" fix suggestion (spec.md §7 "edit-distance
// suggestions").
func suggestName(env *TypeEnv, name string) string {
	for e := env; e != nil; e = e.parent {
		for k := range e.vars {
			if editDistanceAtMost1(k, name) {
				return "did you mean `" + k + "`?"
			}
		}
	}

	return ""
}

func editDistanceAtMost1(a, b string) bool {
	if a == b {
		return false
	}

	la, lb := len(a), len(b)
	if la == lb {
		diff := 0
		for i := range a {
			if a[i] != b[i] {
				diff++
			}
		}

		return diff == 1
	}

	if abs(la-lb) != 1 {
		return false
	}

	if la > lb {
		a, b = b, a
	}
	// a is shorter by one; check a is b with one char removed
	i, j, mismatches := 0, 0, 0
	for i < len(a) && j < len(b) {
		if a[i] == b[j] {
			i++
			j++

			continue
		}

		mismatches++
		j++

		if mismatches > 1 {
			return false
		}
	}

	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}

func inferStringLit(ctx *Ctx, env *TypeEnv, n ast.StringLit) (typedast.Expr, Ty) {
	var parts []typedast.StringPart

	for _, c := range n.Parts() {
		switch v := c.(type) {
		case cst.Leaf:
			if v.Tok.Kind == token.STRING_CONTENT {
				parts = append(parts, typedast.StringPart{Literal: v.Tok.Text})
			}
		case *cst.Node:
			inner := ast.AsExpr(v)
			if inner == nil {
				continue
			}

			te, _ := inferExpr(ctx, env, inner)
			parts = append(parts, typedast.StringPart{Expr: te})
		}
	}

	return typedast.StringLit{Base: based(String, n.Span()), Parts: parts}, String
}

// operatorTrait maps a surface operator token to the compiler-known trait
// that resolves it (spec.md §4.3).
func operatorTrait(op token.Kind) (string, bool) {
	switch op {
	case token.PLUS:
		return TraitAdd, true
	case token.MINUS:
		return TraitSub, true
	case token.STAR:
		return TraitMul, true
	case token.SLASH:
		return TraitDiv, true
	case token.PERCENT:
		return TraitMod, true
	case token.EQ_EQ, token.NOT_EQ:
		return TraitEq, true
	case token.LT, token.GT, token.LT_EQ, token.GT_EQ:
		return TraitOrd, true
	default:
		return "", false
	}
}

func inferBinary(ctx *Ctx, env *TypeEnv, n ast.BinaryExpr) (typedast.Expr, Ty) {
	left, right := n.Operands()
	lt, lty := inferExpr(ctx, env, left)
	rt, rty := inferExpr(ctx, env, right)

	op := n.Op()
	origin := errors.ConstraintOrigin{Kind: errors.OriginBinOp, OpSpan: n.Span()}

	switch op {
	case token.AND_KW, token.AMP_AMP, token.OR_KW, token.PIPE_PIPE:
		ctx.Unify(lty, Bool, n.Span(), origin)
		ctx.Unify(rty, Bool, n.Span(), origin)

		return typedast.BinOp{Base: based(Bool, n.Span()), Op: op, Left: lt, Right: rt}, Bool

	case token.DIAMOND, token.PLUS_PLUS:
		ctx.Unify(lty, rty, n.Span(), origin)

		return typedast.BinOp{Base: based(lty, n.Span()), Op: op, Left: lt, Right: rt}, lty

	case token.CONS:
		listTy := app(con("List"), lty)
		ctx.Unify(rty, listTy, n.Span(), origin)

		return typedast.BinOp{Base: based(listTy, n.Span()), Op: op, Left: lt, Right: rt}, listTy

	case token.DOT_DOT:
		ctx.Unify(lty, Int, n.Span(), origin)
		ctx.Unify(rty, Int, n.Span(), origin)

		rangeTy := con("Range")

		return typedast.BinOp{Base: based(rangeTy, n.Span()), Op: op, Left: lt, Right: rt}, rangeTy
	}

	trait, known := operatorTrait(op)
	ctx.Unify(lty, rty, n.Span(), origin)

	result := lty
	isComparison := op == token.EQ_EQ || op == token.NOT_EQ || op == token.LT || op == token.GT || op == token.LT_EQ || op == token.GT_EQ
	if isComparison {
		result = Bool
	}

	binOp := typedast.BinOp{Base: based(result, n.Span()), Op: op, Left: lt, Right: rt}

	if !known {
		return binOp, result
	}

	resolved := resolve(lty)
	if _, stillVar := resolved.(TVar); stillVar {
		ctx.DeferTraitCheck(trait, lty, origin)
	} else {
		ctx.CheckTraitImpl(trait, resolved, origin)
	}

	if head, ok := headName(resolved); ok {
		binOp.Trait = trait
		binOp.ImplHead = head
	}

	return binOp, result
}

func inferUnary(ctx *Ctx, env *TypeEnv, n ast.UnaryExpr) (typedast.Expr, Ty) {
	operand := n.Operand()
	te, ty := inferExpr(ctx, env, operand)

	op := token.ILLEGAL
	for _, c := range n.Syntax.Children {
		if leaf, ok := c.(cst.Leaf); ok && (leaf.Tok.Kind == token.MINUS || leaf.Tok.Kind == token.BANG || leaf.Tok.Kind == token.NOT_KW) {
			op = leaf.Tok.Kind
			break
		}
	}

	return typedast.UnaryOp{Base: based(ty, n.Span()), Op: op, Operand: te}, ty
}

// inferPipe desugars `lhs |> rhs` into the typed call `rhs(lhs)`, so MIR
// lowering only ever sees an ordinary typedast.Call.
func inferPipe(ctx *Ctx, env *TypeEnv, n ast.PipeExpr) (typedast.Expr, Ty) {
	left, right := n.Operands()
	lt, lty := inferExpr(ctx, env, left)
	rt, rty := inferExpr(ctx, env, right)

	retTy := ctx.NewVar()
	ctx.Unify(rty, TFun{Params: []Ty{lty}, Ret: retTy}, n.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})

	return typedast.Call{Base: based(retTy, n.Span()), Callee: rt, Args: []typedast.Expr{lt}}, retTy
}

func inferCall(ctx *Ctx, env *TypeEnv, n ast.CallExpr) (typedast.Expr, Ty) {
	callee := n.Callee()
	args := n.Args()

	if ident, ok := callee.(ast.IdentExpr); ok {
		if st, variant, isVariant := env.VariantOwner(ident.Name()); isVariant {
			var typedArgs []typedast.Expr

			for i, a := range args {
				te, aty := inferExpr(ctx, env, a)
				typedArgs = append(typedArgs, te)

				if i < len(variant.Fields) {
					ctx.Unify(aty, variant.Fields[i], a.Span(), errors.ConstraintOrigin{Kind: errors.OriginFnArg, CallSite: n.Span(), ParamIdx: i})
				}
			}

			ty := TCon{Name: st.Name}

			return typedast.ConstructVariant{Base: based(ty, n.Span()), TypeName: st.Name, Variant: ident.Name(), Fields: typedArgs}, ty
		}
	}

	if fa, ok := callee.(ast.FieldAccessExpr); ok {
		return inferMethodCall(ctx, env, fa, args, n.Span())
	}

	ct, cty := inferExpr(ctx, env, callee)

	fnTy, ok := resolve(cty).(TFun)
	if !ok {
		if tv, isVar := resolve(cty).(TVar); isVar {
			params := make([]Ty, len(args))
			for i := range params {
				params[i] = ctx.NewVar()
			}

			ret := ctx.NewVar()
			ctx.Unify(tv, TFun{Params: params, Ret: ret}, n.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})
			fnTy = TFun{Params: params, Ret: ret}
		} else {
			ctx.Sink.Report(errors.Diagnostic{
				Code: errors.E0005NotCallable, Severity: errors.SeverityError,
				Message: "called value is not a function", File: ctx.File, Span: n.Span(),
			})

			var typedArgs []typedast.Expr
			for _, a := range args {
				te, _ := inferExpr(ctx, env, a)
				typedArgs = append(typedArgs, te)
			}

			ty := ctx.NewVar()

			return typedast.Call{Base: based(ty, n.Span()), Callee: ct, Args: typedArgs}, ty
		}
	}

	if len(fnTy.Params) != len(args) {
		ctx.Sink.Report(errors.Diagnostic{
			Code: errors.E0003Arity, Severity: errors.SeverityError,
			Message: "call has " + itoa(len(args)) + " arguments, expected " + itoa(len(fnTy.Params)),
			File: ctx.File, Span: n.Span(),
		})
	}

	var typedArgs []typedast.Expr
	for i, a := range args {
		te, aty := inferExpr(ctx, env, a)
		typedArgs = append(typedArgs, te)

		if i < len(fnTy.Params) {
			ctx.Unify(aty, fnTy.Params[i], a.Span(), errors.ConstraintOrigin{Kind: errors.OriginFnArg, CallSite: n.Span(), ParamIdx: i})
		}
	}

	return typedast.Call{Base: based(fnTy.Ret, n.Span()), Callee: ct, Args: typedArgs}, fnTy.Ret
}

// inferMethodCall resolves `receiver.method(args)` through the trait
// registry (spec.md §4.3); the resolved trait name alone disambiguates
// overloads, since MIR lowering recovers the impl head from the
// receiver's resolved type at the call site.
func inferMethodCall(ctx *Ctx, env *TypeEnv, fa ast.FieldAccessExpr, args []ast.Expr, span token.Span) (typedast.Expr, Ty) {
	receiver := fa.Receiver()
	rt, rty := inferExpr(ctx, env, receiver)

	_, sig, ok := ctx.ResolveMethod(resolve(rty), fa.Field(), span)
	if !ok {
		var typedArgs []typedast.Expr
		for _, a := range args {
			te, _ := inferExpr(ctx, env, a)
			typedArgs = append(typedArgs, te)
		}

		ty := ctx.NewVar()

		return typedast.Call{Base: based(ty, span), Callee: rt, Method: fa.Field(), Args: typedArgs}, ty
	}

	instantiated, _ := ctx.Instantiate(sig)
	fnTy, _ := instantiated.(TFun)

	var typedArgs []typedast.Expr
	for i, a := range args {
		te, aty := inferExpr(ctx, env, a)
		typedArgs = append(typedArgs, te)

		if i+1 < len(fnTy.Params) {
			ctx.Unify(aty, fnTy.Params[i+1], a.Span(), errors.ConstraintOrigin{Kind: errors.OriginFnArg, CallSite: span, ParamIdx: i + 1})
		}
	}

	return typedast.Call{Base: based(fnTy.Ret, span), Callee: rt, Method: fa.Field(), Args: typedArgs}, fnTy.Ret
}

func inferFieldAccess(ctx *Ctx, env *TypeEnv, n ast.FieldAccessExpr) (typedast.Expr, Ty) {
	rt, rty := inferExpr(ctx, env, n.Receiver())

	name, ok := headName(resolve(rty))
	if !ok {
		ty := ctx.NewVar()

		return typedast.FieldAccess{Base: based(ty, n.Span()), Receiver: rt, Field: n.Field()}, ty
	}

	info, ok := env.Structs[name]
	if !ok {
		ctx.Sink.Report(errors.Diagnostic{
			Code: errors.E0009FieldError, Severity: errors.SeverityError,
			Message: "unknown struct " + name, File: ctx.File, Span: n.Span(),
		})

		ty := ctx.NewVar()

		return typedast.FieldAccess{Base: based(ty, n.Span()), Receiver: rt, Field: n.Field()}, ty
	}

	for _, f := range info.Fields {
		if f.Name == n.Field() {
			return typedast.FieldAccess{Base: based(f.Type, n.Span()), Receiver: rt, Field: n.Field()}, f.Type
		}
	}

	ctx.Sink.Report(errors.Diagnostic{
		Code: errors.E0009FieldError, Severity: errors.SeverityError,
		Message: name + " has no field " + n.Field(), File: ctx.File, Span: n.Span(),
	})

	ty := ctx.NewVar()

	return typedast.FieldAccess{Base: based(ty, n.Span()), Receiver: rt, Field: n.Field()}, ty
}

func inferIndex(ctx *Ctx, env *TypeEnv, n ast.IndexExpr) (typedast.Expr, Ty) {
	exprs := n.Syntax
	var recv, idx ast.Expr

	first := true
	for _, c := range exprs.Children {
		if sub, ok := c.(*cst.Node); ok {
			if e := ast.AsExpr(sub); e != nil {
				if first {
					recv = e
					first = false
				} else {
					idx = e
				}
			}
		}
	}

	rt, rty := inferExpr(ctx, env, recv)

	var it typedast.Expr
	if idx != nil {
		it, _ = inferExpr(ctx, env, idx)
	}

	elemTy := ctx.NewVar()
	if app, ok := resolve(rty).(TApp); ok && len(app.Args) > 0 {
		elemTy = app.Args[len(app.Args)-1]
	}

	return typedast.Index{Base: based(elemTy, n.Span()), Receiver: rt, Index: it}, elemTy
}

// inferTry types the `?`-operator site (spec.md §4.3): the operand must
// resolve to Result<T,E> or Option<T>, and the enclosing clause must
// declare a compatible return type.
func inferTry(ctx *Ctx, env *TypeEnv, n ast.TryExpr) (typedast.Expr, Ty) {
	operand := n.Operand()
	te, ty := inferExpr(ctx, env, operand)

	resolved := resolve(ty)
	app, ok := resolved.(TApp)
	if !ok || (headOf(app) != "Result" && headOf(app) != "Option") {
		ctx.Sink.Report(errors.Diagnostic{
			Code: errors.E0037OperandMismatch, Severity: errors.SeverityError,
			Message: "`?` operand is not a Result or Option", File: ctx.File, Span: n.Span(),
		})

		resultTy := ctx.NewVar()

		return typedast.Try{Base: based(resultTy, n.Span()), Operand: te}, resultTy
	}

	if ctx.currentReturn == nil {
		ctx.Sink.Report(errors.Diagnostic{
			Code: errors.E0036NotResultOrOption, Severity: errors.SeverityError,
			Message: "`?` used in a function not returning Result/Option", File: ctx.File, Span: n.Span(),
		})
	} else if retApp, ok := resolve(ctx.currentReturn).(TApp); !ok || headOf(retApp) != headOf(app) {
		ctx.Sink.Report(errors.Diagnostic{
			Code: errors.E0036NotResultOrOption, Severity: errors.SeverityError,
			Message: "`?` carrier type does not match the enclosing function's return type", File: ctx.File, Span: n.Span(),
		})
	}

	resultTy := app.Args[0]

	return typedast.Try{Base: based(resultTy, n.Span()), Operand: te}, resultTy
}

func headOf(a TApp) string {
	if c, ok := a.Head.(TCon); ok {
		return c.Name
	}

	return ""
}

// elseBranch handles both a direct `else do ... end` block (ast.IfExpr.Else
// covers that shape) and an `else if` chain, which the parser represents as
// a further IF_EXPR node sitting directly among the outer if's children
// rather than wrapped in its own block.
func elseBranch(n ast.IfExpr) (ast.Expr, bool) {
	if blk, ok := n.Else(); ok {
		return ast.BlockExpr(blk), true
	}

	for _, c := range n.Syntax.Children {
		if sub, ok := c.(*cst.Node); ok && sub.Kind == cst.IF_EXPR {
			return ast.AsExpr(sub), true
		}
	}

	return nil, false
}

func inferIf(ctx *Ctx, env *TypeEnv, n ast.IfExpr) (typedast.Expr, Ty) {
	ct, cty := inferExpr(ctx, env, n.Cond())
	ctx.Unify(cty, Bool, n.Cond().Span(), errors.ConstraintOrigin{Kind: errors.OriginIfBranches, IfSpan: n.Span()})

	thenT, thenTy := inferBlock(ctx, env, n.Then())

	elseExpr, hasElse := elseBranch(n)
	if !hasElse {
		return typedast.If{Base: based(Unit, n.Span()), Cond: ct, Then: thenT}, Unit
	}

	elseT, elseTy := inferExpr(ctx, env, elseExpr)
	ctx.Unify(thenTy, elseTy, n.Span(), errors.ConstraintOrigin{Kind: errors.OriginIfBranches, IfSpan: n.Span()})

	return typedast.If{Base: based(thenTy, n.Span()), Cond: ct, Then: thenT, Else: elseT}, thenTy
}

func inferCase(ctx *Ctx, env *TypeEnv, n ast.CaseExpr) (typedast.Expr, Ty) {
	st, sty := inferExpr(ctx, env, n.Scrutinee())

	var arms []typedast.MatchArm
	var resultTy Ty

	astArms := n.Arms()
	astPatterns := make([]ast.Pattern, 0, len(astArms))

	for _, arm := range astArms {
		armEnv := env.Child()
		pat := inferPattern(ctx, armEnv, arm.Pattern(), sty)
		astPatterns = append(astPatterns, arm.Pattern())

		var guard typedast.Expr
		if g, ok := arm.Guard(); ok {
			gt, gty := inferExpr(ctx, armEnv, g)
			ctx.Unify(gty, Bool, g.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})
			guard = gt
		}

		bodyT, bodyTy := inferExpr(ctx, armEnv, arm.Body())

		if resultTy == nil {
			resultTy = bodyTy
		} else {
			ctx.Unify(resultTy, bodyTy, arm.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})
		}

		arms = append(arms, typedast.MatchArm{Pattern: pat, Guard: guard, Body: bodyT})
	}

	CheckExhaustiveness(ctx, env, sty, astPatterns, n.Span())

	if resultTy == nil {
		resultTy = Unit
	}

	return typedast.Match{Base: based(resultTy, n.Span()), Scrutinee: st, Arms: arms}, resultTy
}

func inferLet(ctx *Ctx, env *TypeEnv, n ast.LetExpr) (typedast.Expr, Ty) {
	ctx.EnterLevel()
	valT, valTy := inferExpr(ctx, env, n.Value())
	ctx.LeaveLevel()

	if ann, ok := n.TypeAnnotation(); ok {
		declared := resolveTypeRef(ctx, env, ann, nil)
		ctx.Unify(declared, valTy, n.Span(), errors.ConstraintOrigin{Kind: errors.OriginAnnotation, AnnotationSpan: n.Span()})
	}

	scheme := ctx.Generalize(valTy, nil)
	env.Bind(n.Name(), scheme)

	if body, ok := n.Body(); ok {
		bodyT, bodyTy := inferBlock(ctx, env, body)

		return typedast.Let{Base: based(bodyTy, n.Span()), Name: n.Name(), Scheme: scheme, Value: valT, Body: bodyT}, bodyTy
	}

	return typedast.Let{Base: based(Unit, n.Span()), Name: n.Name(), Scheme: scheme, Value: valT}, Unit
}

func inferFor(ctx *Ctx, env *TypeEnv, n ast.ForExpr) (typedast.Expr, Ty) {
	it, ity := inferExpr(ctx, env, n.Iterable())

	elemTy := ctx.NewVar()
	if app, ok := resolve(ity).(TApp); ok && len(app.Args) > 0 {
		elemTy = app.Args[0]
	}

	forEnv := env.Child()
	pat := inferPattern(ctx, forEnv, n.Pattern(), elemTy)

	var filter typedast.Expr
	if f, ok := n.Filter(); ok {
		ft, fty := inferExpr(ctx, forEnv, f)
		ctx.Unify(fty, Bool, f.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})
		filter = ft
	}

	bodyT, bodyTy := inferBlock(ctx, forEnv, n.Body())
	listTy := app(con("List"), bodyTy)

	return typedast.For{Base: based(listTy, n.Span()), Pattern: pat, Iterable: it, Filter: filter, Body: bodyT}, listTy
}

func inferWhile(ctx *Ctx, env *TypeEnv, n ast.WhileExpr) (typedast.Expr, Ty) {
	ct, cty := inferExpr(ctx, env, n.Cond())
	ctx.Unify(cty, Bool, n.Cond().Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})

	bodyT, _ := inferBlock(ctx, env, n.Body())

	return typedast.While{Base: based(Unit, n.Span()), Cond: ct, Body: bodyT}, Unit
}

func inferStructLiteral(ctx *Ctx, env *TypeEnv, n ast.StructLiteral) (typedast.Expr, Ty) {
	info, ok := env.Structs[n.TypeName()]
	fields := map[string]typedast.Expr{}

	for _, f := range n.Fields() {
		ft, fty := inferExpr(ctx, env, f.Value())
		fields[f.Name()] = ft

		if ok {
			for _, declared := range info.Fields {
				if declared.Name == f.Name() {
					ctx.Unify(declared.Type, fty, f.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})
				}
			}
		}
	}

	if !ok {
		ctx.Sink.Report(errors.Diagnostic{
			Code: errors.E0009FieldError, Severity: errors.SeverityError,
			Message: "unknown struct type " + n.TypeName(), File: ctx.File, Span: n.Span(),
		})
	}

	ty := Ty(TCon{Name: n.TypeName()})

	return typedast.StructLit{Base: based(ty, n.Span()), TypeName: n.TypeName(), Fields: fields}, ty
}

func inferStructUpdate(ctx *Ctx, env *TypeEnv, n ast.StructUpdate) (typedast.Expr, Ty) {
	bt, bty := inferExpr(ctx, env, n.Base())
	fields := map[string]typedast.Expr{}

	for _, f := range n.Fields() {
		ft, _ := inferExpr(ctx, env, f.Value())
		fields[f.Name()] = ft
	}

	return typedast.StructUpdate{Base: based(bty, n.Span()), Source: bt, Fields: fields}, bty
}

func inferMapLiteral(ctx *Ctx, env *TypeEnv, n ast.MapLiteral) (typedast.Expr, Ty) {
	keyTy := ctx.NewVar()
	valTy := ctx.NewVar()

	for _, e := range n.Entries() {
		k, v := e.KeyValue()
		_, kty := inferExpr(ctx, env, k)
		_, vty := inferExpr(ctx, env, v)
		ctx.Unify(keyTy, kty, e.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})
		ctx.Unify(valTy, vty, e.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})
	}

	mapTy := app(con("Map"), keyTy, valTy)

	return typedast.StructLit{Base: based(mapTy, n.Span()), TypeName: "__map__"}, mapTy
}

func inferListLiteral(ctx *Ctx, env *TypeEnv, n ast.ListLiteral) (typedast.Expr, Ty) {
	elemTy := ctx.NewVar()
	var elems []typedast.Expr

	for _, e := range n.Elements() {
		te, ty := inferExpr(ctx, env, e)
		elems = append(elems, te)
		ctx.Unify(elemTy, ty, e.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})
	}

	listTy := app(con("List"), elemTy)

	return typedast.ListLit{Base: based(listTy, n.Span()), Elements: elems}, listTy
}

func inferSetLiteral(ctx *Ctx, env *TypeEnv, n ast.SetLiteral) (typedast.Expr, Ty) {
	elemTy := ctx.NewVar()
	var elems []typedast.Expr

	for _, e := range n.Elements() {
		te, ty := inferExpr(ctx, env, e)
		elems = append(elems, te)
		ctx.Unify(elemTy, ty, e.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})
	}

	setTy := app(con("Set"), elemTy)

	return typedast.SetLit{Base: based(setTy, n.Span()), Elements: elems}, setTy
}

func inferTuple(ctx *Ctx, env *TypeEnv, n ast.TupleExpr) (typedast.Expr, Ty) {
	var elems []typedast.Expr
	var tys []Ty

	for _, e := range n.Elements() {
		te, ty := inferExpr(ctx, env, e)
		elems = append(elems, te)
		tys = append(tys, ty)
	}

	tupTy := Ty(TTuple{Elems: tys})

	return typedast.TupleLit{Base: based(tupTy, n.Span()), Elements: elems}, tupTy
}

func inferLambda(ctx *Ctx, env *TypeEnv, n ast.LambdaExpr) (typedast.Expr, Ty) {
	lambdaEnv := env.Child()
	params := n.ParamList().Params()

	paramTys := make([]Ty, len(params))
	typedParams := make([]typedast.Param, len(params))

	for i, p := range params {
		var pt Ty
		if ann, ok := p.TypeAnnotation(); ok {
			pt = resolveTypeRef(ctx, env, ann, nil)
		} else {
			pt = ctx.NewVar()
		}

		paramTys[i] = pt
		typedParams[i] = typedast.Param{Name: p.Name(), Ty: pt}
		lambdaEnv.Bind(p.Name(), mono(pt))
	}

	bodyT, bodyTy := inferBlock(ctx, lambdaEnv, n.Body())
	fnTy := fn(paramTys, bodyTy)

	return typedast.Lambda{Base: based(fnTy, n.Span()), Params: typedParams, Body: bodyT}, fnTy
}

func inferSpawn(ctx *Ctx, env *TypeEnv, n ast.SpawnExpr) (typedast.Expr, Ty) {
	ct, cty := inferExpr(ctx, env, n.Callee())

	var args []typedast.Expr
	for _, a := range n.Args() {
		at, _ := inferExpr(ctx, env, a)
		args = append(args, at)
	}

	if _, ok := resolve(cty).(TFun); !ok {
		if _, isVar := resolve(cty).(TVar); !isVar {
			ctx.Sink.Report(errors.Diagnostic{
				Code: errors.E0017SpawnNonFunction, Severity: errors.SeverityError,
				Message: "spawn target is not a function", File: ctx.File, Span: n.Span(),
			})
		}
	}

	pidTy := app(con("Pid"), ctx.NewVar())

	return typedast.Spawn{Base: based(pidTy, n.Span()), Callee: ct, Args: args}, pidTy
}

func inferSend(ctx *Ctx, env *TypeEnv, n ast.SendExpr) (typedast.Expr, Ty) {
	tt, tty := inferExpr(ctx, env, n.Target())
	mt, mty := inferExpr(ctx, env, n.Message())

	if pidApp, ok := resolve(tty).(TApp); ok && headOf(pidApp) == "Pid" && len(pidApp.Args) == 1 {
		ctx.Unify(pidApp.Args[0], mty, n.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})
	} else if _, isVar := resolve(tty).(TVar); !isVar {
		ctx.Sink.Report(errors.Diagnostic{
			Code: errors.E0014SendTypeMismatch, Severity: errors.SeverityError,
			Message: "send target is not a Pid", File: ctx.File, Span: n.Span(),
		})
	}

	return typedast.Send{Base: based(Unit, n.Span()), Target: tt, Message: mt}, Unit
}

func inferReceive(ctx *Ctx, env *TypeEnv, n ast.ReceiveExpr) (typedast.Expr, Ty) {
	msgTy := ctx.NewVar()

	var arms []typedast.MatchArm
	var resultTy Ty

	for _, arm := range n.Arms() {
		armEnv := env.Child()
		pat := inferPattern(ctx, armEnv, arm.Pattern(), msgTy)

		var guard typedast.Expr
		if g, ok := arm.Guard(); ok {
			gt, _ := inferExpr(ctx, armEnv, g)
			guard = gt
		}

		bodyT, bodyTy := inferExpr(ctx, armEnv, arm.Body())

		if resultTy == nil {
			resultTy = bodyTy
		} else {
			ctx.Unify(resultTy, bodyTy, arm.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})
		}

		arms = append(arms, typedast.MatchArm{Pattern: pat, Guard: guard, Body: bodyT})
	}

	out := typedast.Receive{Base: based(Unit, n.Span()), Arms: arms}

	if ms, body, ok := n.After(); ok {
		mst, msty := inferExpr(ctx, env, ms)
		ctx.Unify(msty, Int, ms.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})
		bodyT, bodyTy := inferBlock(ctx, env, body)

		out.AfterMs = mst
		out.AfterBody = bodyT

		if resultTy == nil {
			resultTy = bodyTy
		} else {
			ctx.Unify(resultTy, bodyTy, body.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})
		}
	}

	if resultTy == nil {
		resultTy = Unit
	}

	out.Base = based(resultTy, n.Span())

	return out, resultTy
}
