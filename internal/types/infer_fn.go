package types

import (
	"github.com/snowdamiz/meshc/internal/ast"
	"github.com/snowdamiz/meshc/internal/errors"
	"github.com/snowdamiz/meshc/internal/typedast"
)

// inferFnDef types every clause of a (possibly multi-clause) function,
// checking arity agreement (E0024), return-type agreement (E0025), and
// catch-all-clause-last ordering (E0022) across clauses (spec.md
// §4.3 "Multi-clause functions"); no W0002 is reported. Every clause is
// type-checked, but only the first clause's parameters and body are kept
// in the returned typedast.FnDef.
func inferFnDef(ctx *Ctx, env *TypeEnv, fd ast.FnDef) *typedast.FnDef {
	clauses := fd.Clauses()

	var (
		arity    = -1
		retTy    Ty
		lastSpan = fd.Span()
	)

	ctx.EnterLevel()

	var typedClause *typedast.FnDef

	for i, clause := range clauses {
		params := clause.ParamList().Params()

		if arity == -1 {
			arity = len(params)
		} else if len(params) != arity {
			ctx.Sink.Report(errors.Diagnostic{
				Code: errors.E0024ArityMismatch, Severity: errors.SeverityError,
				Message: "clause of " + fd.Name() + " has " + itoa(len(params)) + " parameters, expected " + itoa(arity),
				File: ctx.File, Span: clause.Span(),
			})
		}

		if isCatchAllClause(clause) && i != len(clauses)-1 {
			ctx.Sink.Report(errors.Diagnostic{
				Code: errors.E0022CatchAllNotLast, Severity: errors.SeverityError,
				Message: "catch-all clause of " + fd.Name() + " must be the last clause",
				File: ctx.File, Span: clause.Span(),
			})
		}

		clauseEnv := env.Child()
		tvScope := map[string]Ty{}

		paramTys := make([]Ty, len(params))
		for j, p := range params {
			var pt Ty
			if ann, ok := p.TypeAnnotation(); ok {
				pt = resolveTypeRef(ctx, env, ann, tvScope)
			} else {
				pt = ctx.NewVar()
			}

			paramTys[j] = pt
			clauseEnv.Bind(p.Name(), mono(pt))
		}

		var declaredRet Ty
		if rt, ok := clause.ReturnType(); ok {
			declaredRet = resolveTypeRef(ctx, env, rt, tvScope)
		} else {
			declaredRet = ctx.NewVar()
		}

		prevReturn := ctx.currentReturn
		ctx.currentReturn = declaredRet
		bodyExpr, bodyTy := inferBlock(ctx, clauseEnv, clause.Body())
		ctx.currentReturn = prevReturn
		ctx.Unify(declaredRet, bodyTy, clause.Span(), errors.ConstraintOrigin{Kind: errors.OriginReturn, ReturnSpan: clause.Span(), FnSpan: fd.Span()})

		if retTy == nil {
			retTy = declaredRet
		} else if !ctx.Unify(retTy, declaredRet, clause.Span(), errors.ConstraintOrigin{Kind: errors.OriginReturn, ReturnSpan: clause.Span(), FnSpan: fd.Span()}) {
			ctx.Sink.Report(errors.Diagnostic{
				Code: errors.E0025ReturnTypeMismatch, Severity: errors.SeverityError,
				Message: "clause of " + fd.Name() + " disagrees with the return type of earlier clauses",
				File: ctx.File, Span: clause.Span(),
			})
		}

		where := inferWhereClause(ctx, clause)

		if i == 0 {
			typedClause = &typedast.FnDef{
				Name: fd.Name(), IsPub: fd.IsPub(),
				Body: bodyExpr, Span: fd.Span(), Where: where,
			}

			for j, p := range params {
				typedClause.Params = append(typedClause.Params, typedast.Param{Name: p.Name(), Ty: paramTys[j]})
			}
		}

		lastSpan = clause.Span()
	}

	_ = lastSpan

	ctx.ResolveDeferred()

	fnTy := Ty(Never)
	if typedClause != nil {
		paramTys := make([]Ty, len(typedClause.Params))
		for i, p := range typedClause.Params {
			paramTys[i] = p.Ty
		}

		fnTy = fn(paramTys, retTy)
	}

	ctx.LeaveLevel()
	scheme := ctx.Generalize(fnTy, nil)

	if typedClause == nil {
		typedClause = &typedast.FnDef{Name: fd.Name(), IsPub: fd.IsPub(), Span: fd.Span()}
	}

	typedClause.RetType = retTy
	typedClause.Scheme = scheme

	return typedClause
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	neg := n < 0
	if neg {
		n = -n
	}

	var buf [20]byte
	i := len(buf)

	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}

	if neg {
		i--
		buf[i] = '-'
	}

	return string(buf[i:])
}

func isCatchAllClause(c ast.FnClause) bool {
	for _, p := range c.ParamList().Params() {
		if p.Name() != "_" {
			return false
		}
	}

	return len(c.ParamList().Params()) > 0
}

func inferWhereClause(ctx *Ctx, c ast.FnClause) []WhereBound {
	_, ok := c.Where()
	if !ok {
		return nil
	}
	// The where-clause's raw `ident : ident` pairs are not resolved: no
	// bounds are returned, so the function's scheme carries no where-bounds
	// and its constraints are not checked at any use site.
	return nil
}

func inferActorDef(ctx *Ctx, env *TypeEnv, ad ast.ActorDef) *typedast.ActorDef {
	out := &typedast.ActorDef{Name: ad.Name(), Span: ad.Span()}

	actorEnv := env.Child()
	actorEnv.Bind("self", mono(app(con("Pid"), ctx.NewVar())))

	if term, ok := ad.Terminate(); ok {
		body, _ := inferBlock(ctx, actorEnv, term)
		out.Terminate = body
	}

	return out
}

func inferServiceDef(ctx *Ctx, env *TypeEnv, sd ast.ServiceDef) *typedast.ServiceDef {
	out := &typedast.ServiceDef{Name: sd.Name(), Span: sd.Span()}
	serviceEnv := env.Child()

	for _, h := range sd.CallHandlers() {
		handlerEnv := serviceEnv.Child()
		pat := inferPattern(ctx, handlerEnv, h.MessagePattern(), ctx.NewVar())
		body, _ := inferBlock(ctx, handlerEnv, h.Body())
		out.CallHandlers = append(out.CallHandlers, typedast.ServiceHandler{Pattern: pat, Body: body})
	}

	for _, h := range sd.CastHandlers() {
		handlerEnv := serviceEnv.Child()
		pat := inferPattern(ctx, handlerEnv, h.MessagePattern(), ctx.NewVar())
		body, _ := inferBlock(ctx, handlerEnv, h.Body())
		out.CastHandlers = append(out.CastHandlers, typedast.ServiceHandler{Pattern: pat, Body: body})
	}

	return out
}

func inferSupervisorDef(env *TypeEnv, svd ast.SupervisorDef) *typedast.SupervisorDef {
	out := &typedast.SupervisorDef{Name: svd.Name(), Span: svd.Span()}

	for _, c := range svd.Children() {
		out.Children = append(out.Children, typedast.ChildSpec{Name: c.Name()})
	}

	return out
}
