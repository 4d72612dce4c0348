package mir

import (
	"sort"

	"github.com/snowdamiz/meshc/internal/types"
)

// Monomorphize clones every polymorphic function called with concrete type
// arguments under a mangled name (spec.md §4.4 step 3: "Func_Type1_Type2"),
// substituting type-variable occurrences throughout the clone, and drives
// the work list to a fixpoint since a freshly specialized function's body
// may itself call other generics at newly concrete types. Generic
// functions with no remaining concrete call site are dropped from the
// final Program — they're uncallable from codegen's perspective, since
// LLVM has no notion of a type-parameterized function.
func Monomorphize(prog *Program) {
	generic := map[string]*Func{}
	concrete := map[string]*Func{}

	for _, fn := range prog.Funcs {
		if fn.Scheme != nil {
			generic[fn.Name] = fn
		} else {
			concrete[fn.Name] = fn
		}
	}

	type job struct {
		fn     *Func
		subst  map[int]types.Ty
		mangled string
	}

	seen := map[string]bool{}
	var worklist []job

	// Seed the work list from every call site in an already-concrete
	// function (the program's entry points and anything non-generic).
	enqueue := func(fn *Func) {
		for callee, subst := range collectGenericCalls(fn, generic) {
			g := generic[callee]
			mangled := mangleName(g.origName, g.Scheme, subst)

			if seen[mangled] {
				continue
			}

			seen[mangled] = true
			worklist = append(worklist, job{fn: g, subst: subst, mangled: mangled})
		}
	}

	for _, fn := range concrete {
		enqueue(fn)
	}

	var specialized []*Func

	for len(worklist) > 0 {
		j := worklist[0]
		worklist = worklist[1:]

		clone := specializeFunc(j.fn, j.subst, j.mangled)
		specialized = append(specialized, clone)
		concrete[clone.Name] = clone

		enqueue(clone)
	}

	// Rewrite every concrete function's calls to generics so they target
	// the mangled clone instead of the now-dropped generic original.
	for _, fn := range concrete {
		rewriteGenericCallSites(fn, generic)
	}

	final := make([]*Func, 0, len(concrete))
	for _, fn := range concrete {
		final = append(final, fn)
	}

	sort.Slice(final, func(i, j int) bool { return final[i].Name < final[j].Name })

	prog.Funcs = final
}

// collectGenericCalls walks fn's body for direct calls (Func is a *Var) to
// a name present in generic, inferring the concrete type-argument
// substitution from the call's own (already-resolved) argument and result
// types matched structurally against the callee's quantified scheme.
func collectGenericCalls(fn *Func, generic map[string]*Func) map[string]map[int]types.Ty {
	out := map[string]map[int]types.Ty{}

	var walk func(e Expr)
	walk = func(e Expr) {
		if e == nil {
			return
		}

		if call, ok := e.(*Call); ok {
			if v, ok := call.Func.(*Var); ok {
				if g, isGeneric := generic[v.Name]; isGeneric {
					subst := map[int]types.Ty{}
					if schemeFn, ok := g.Scheme.Type.(types.TFun); ok {
						for i, arg := range call.Args {
							if i < len(schemeFn.Params) {
								matchTy(schemeFn.Params[i], types.Prune(arg.Type()), varSet(g.Scheme.Vars), subst)
							}
						}

						matchTy(schemeFn.Ret, types.Prune(call.Type()), varSet(g.Scheme.Vars), subst)
					}

					if len(subst) > 0 {
						out[v.Name] = subst
					}
				}
			}
		}

		for _, child := range childExprs(e) {
			walk(child)
		}
	}

	walk(fn.Body)

	return out
}

func varSet(ids []int) map[int]bool {
	m := map[int]bool{}
	for _, id := range ids {
		m[id] = true
	}

	return m
}

// childExprs returns e's immediate Expr children, used by the generic
// call-site scanner; it does not need to be exhaustive in the way
// transform/freeVars are since it only drives discovery, not rewriting.
func childExprs(e Expr) []Expr {
	switch n := e.(type) {
	case *Let:
		if n.Body != nil {
			return []Expr{n.Value, n.Body}
		}

		return []Expr{n.Value}

	case *Call:
		return append([]Expr{n.Func}, n.Args...)

	case *If:
		return []Expr{n.Cond, n.Then, n.Else}

	case *Match:
		return []Expr{n.Scrutinee}

	case *BinOp:
		return []Expr{n.Left, n.Right}

	case *UnOp:
		return []Expr{n.Operand}

	case *StructLit:
		var out []Expr
		for _, v := range n.Fields {
			out = append(out, v)
		}

		return out

	case *FieldAccess:
		return []Expr{n.Receiver}

	case *Index:
		return []Expr{n.Receiver, n.Index}

	case *ListLit:
		return n.Elements

	case *TupleLit:
		return n.Elements

	case *ConstructVariant:
		return n.Fields

	case *Lambda:
		return []Expr{n.Body}

	case *While:
		if n.AccInit != nil {
			return []Expr{n.Cond, n.Body, n.AccInit}
		}

		return []Expr{n.Cond, n.Body}

	case *Spawn:
		return append([]Expr{n.Func}, n.Args...)

	case *Send:
		return []Expr{n.Target, n.Message}

	case *Receive:
		if n.AfterMs != nil {
			return []Expr{n.AfterMs, n.AfterBody}
		}

		return nil

	case *Return:
		return []Expr{n.Value}

	default:
		return nil
	}
}

// matchTy walks scheme and concrete in parallel, binding any scheme
// TVar whose cell ID is in quantified into subst the first time it's
// encountered (later occurrences are left for the caller to cross-check,
// since a genuinely inconsistent instantiation is an inference-stage bug,
// not something monomorphization needs to re-diagnose).
func matchTy(scheme, concrete types.Ty, quantified map[int]bool, subst map[int]types.Ty) {
	scheme = types.Prune(scheme)

	if tv, ok := scheme.(types.TVar); ok && quantified[tv.Cell.ID] {
		if _, bound := subst[tv.Cell.ID]; !bound {
			subst[tv.Cell.ID] = concrete
		}

		return
	}

	concrete = types.Prune(concrete)

	switch s := scheme.(type) {
	case types.TApp:
		if c, ok := concrete.(types.TApp); ok {
			matchTy(s.Head, c.Head, quantified, subst)

			for i := range s.Args {
				if i < len(c.Args) {
					matchTy(s.Args[i], c.Args[i], quantified, subst)
				}
			}
		}

	case types.TFun:
		if c, ok := concrete.(types.TFun); ok {
			for i := range s.Params {
				if i < len(c.Params) {
					matchTy(s.Params[i], c.Params[i], quantified, subst)
				}
			}

			matchTy(s.Ret, c.Ret, quantified, subst)
		}

	case types.TTuple:
		if c, ok := concrete.(types.TTuple); ok {
			for i := range s.Elems {
				if i < len(c.Elems) {
					matchTy(s.Elems[i], c.Elems[i], quantified, subst)
				}
			}
		}
	}
}

func mangleName(base string, scheme *types.Scheme, subst map[int]types.Ty) string {
	name := base

	for _, id := range scheme.Vars {
		if concrete, ok := subst[id]; ok {
			name += "_" + headTypeName(concrete)
		} else {
			name += "_Any"
		}
	}

	return name
}

// specializeFunc clones fn's parameter/return types and body, substituting
// every quantified variable occurrence with its bound concrete type.
func specializeFunc(fn *Func, subst map[int]types.Ty, mangled string) *Func {
	sub := func(t types.Ty) types.Ty { return substituteTy(t, subst) }

	params := make([]Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = Param{Name: p.Name, Ty: sub(p.Ty)}
	}

	return &Func{
		Name:     mangled,
		Params:   params,
		RetType:  sub(fn.RetType),
		Body:     cloneExprSubst(fn.Body, sub),
		origName: fn.origName,
	}
}

func substituteTy(t types.Ty, subst map[int]types.Ty) types.Ty {
	t = types.Prune(t)

	switch n := t.(type) {
	case types.TVar:
		if concrete, ok := subst[n.Cell.ID]; ok {
			return concrete
		}

		return n

	case types.TApp:
		args := make([]types.Ty, len(n.Args))
		for i, a := range n.Args {
			args[i] = substituteTy(a, subst)
		}

		return types.TApp{Head: substituteTy(n.Head, subst), Args: args}

	case types.TFun:
		params := make([]types.Ty, len(n.Params))
		for i, p := range n.Params {
			params[i] = substituteTy(p, subst)
		}

		return types.TFun{Params: params, Ret: substituteTy(n.Ret, subst)}

	case types.TTuple:
		elems := make([]types.Ty, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = substituteTy(e, subst)
		}

		return types.TTuple{Elems: elems}

	default:
		return t
	}
}

// cloneExprSubst deep-copies e, applying sub to every node's resolved
// type and rewriting any direct self-call name is left to
// rewriteGenericCallSites afterward (the clone doesn't yet know its own
// final mangled name at construction time in the general case).
func cloneExprSubst(e Expr, sub func(types.Ty) types.Ty) Expr {
	if e == nil {
		return nil
	}

	switch n := e.(type) {
	case *Var:
		c := *n
		c.Ty = sub(n.Ty)

		return &c

	case *IntLit:
		c := *n
		c.Ty = sub(n.Ty)

		return &c

	case *FloatLit:
		c := *n
		c.Ty = sub(n.Ty)

		return &c

	case *BoolLit:
		c := *n
		c.Ty = sub(n.Ty)

		return &c

	case *StringLit:
		c := *n
		c.Ty = sub(n.Ty)

		return &c

	case *UnitLit:
		c := *n
		c.Ty = sub(n.Ty)

		return &c

	case *MakeClosure:
		c := *n
		c.Ty = sub(n.Ty)

		return &c

	case *Let:
		c := *n
		c.Ty = sub(n.Ty)
		c.Value = cloneExprSubst(n.Value, sub)
		if n.Body != nil {
			c.Body = cloneExprSubst(n.Body, sub)
		}

		return &c

	case *Call:
		c := *n
		c.Ty = sub(n.Ty)
		c.Func = cloneExprSubst(n.Func, sub)
		c.Args = make([]Expr, len(n.Args))
		for i, a := range n.Args {
			c.Args[i] = cloneExprSubst(a, sub)
		}

		return &c

	case *If:
		c := *n
		c.Ty = sub(n.Ty)
		c.Cond = cloneExprSubst(n.Cond, sub)
		c.Then = cloneExprSubst(n.Then, sub)
		c.Else = cloneExprSubst(n.Else, sub)

		return &c

	case *Match:
		c := *n
		c.Ty = sub(n.Ty)
		c.Scrutinee = cloneExprSubst(n.Scrutinee, sub)

		return &c

	case *BinOp:
		c := *n
		c.Ty = sub(n.Ty)
		c.Left = cloneExprSubst(n.Left, sub)
		c.Right = cloneExprSubst(n.Right, sub)

		return &c

	case *UnOp:
		c := *n
		c.Ty = sub(n.Ty)
		c.Operand = cloneExprSubst(n.Operand, sub)

		return &c

	case *StructLit:
		c := *n
		c.Ty = sub(n.Ty)
		c.Fields = map[string]Expr{}
		for k, v := range n.Fields {
			c.Fields[k] = cloneExprSubst(v, sub)
		}

		return &c

	case *FieldAccess:
		c := *n
		c.Ty = sub(n.Ty)
		c.Receiver = cloneExprSubst(n.Receiver, sub)

		return &c

	case *Index:
		c := *n
		c.Ty = sub(n.Ty)
		c.Receiver = cloneExprSubst(n.Receiver, sub)
		c.Index = cloneExprSubst(n.Index, sub)

		return &c

	case *ListLit:
		c := *n
		c.Ty = sub(n.Ty)
		c.Elements = make([]Expr, len(n.Elements))
		for i, el := range n.Elements {
			c.Elements[i] = cloneExprSubst(el, sub)
		}

		return &c

	case *TupleLit:
		c := *n
		c.Ty = sub(n.Ty)
		c.Elements = make([]Expr, len(n.Elements))
		for i, el := range n.Elements {
			c.Elements[i] = cloneExprSubst(el, sub)
		}

		return &c

	case *ConstructVariant:
		c := *n
		c.Ty = sub(n.Ty)
		c.Fields = make([]Expr, len(n.Fields))
		for i, el := range n.Fields {
			c.Fields[i] = cloneExprSubst(el, sub)
		}

		return &c

	case *Lambda:
		c := *n
		c.Ty = sub(n.Ty)
		c.Params = make([]Param, len(n.Params))
		for i, p := range n.Params {
			c.Params[i] = Param{Name: p.Name, Ty: sub(p.Ty)}
		}

		c.Body = cloneExprSubst(n.Body, sub)

		return &c

	case *While:
		c := *n
		c.Ty = sub(n.Ty)
		c.Cond = cloneExprSubst(n.Cond, sub)
		c.Body = cloneExprSubst(n.Body, sub)
		if n.AccInit != nil {
			c.AccInit = cloneExprSubst(n.AccInit, sub)
		}

		return &c

	case *Spawn:
		c := *n
		c.Ty = sub(n.Ty)
		c.Func = cloneExprSubst(n.Func, sub)
		c.Args = make([]Expr, len(n.Args))
		for i, a := range n.Args {
			c.Args[i] = cloneExprSubst(a, sub)
		}

		return &c

	case *Send:
		c := *n
		c.Ty = sub(n.Ty)
		c.Target = cloneExprSubst(n.Target, sub)
		c.Message = cloneExprSubst(n.Message, sub)

		return &c

	case *Receive:
		c := *n
		c.Ty = sub(n.Ty)
		if n.AfterMs != nil {
			c.AfterMs = cloneExprSubst(n.AfterMs, sub)
			c.AfterBody = cloneExprSubst(n.AfterBody, sub)
		}

		return &c

	case *Return:
		c := *n
		c.Ty = sub(n.Ty)
		c.Value = cloneExprSubst(n.Value, sub)

		return &c

	default:
		return e
	}
}

// rewriteGenericCallSites retargets every call from fn to a name in
// generic onto its mangled specialization, now that Monomorphize has
// finished discovering every instantiation reachable from the program's
// concrete entry points.
func rewriteGenericCallSites(fn *Func, generic map[string]*Func) {
	transform(fn.Body, func(e Expr) Expr {
		call, ok := e.(*Call)
		if !ok {
			return e
		}

		v, ok := call.Func.(*Var)
		if !ok {
			return e
		}

		g, isGeneric := generic[v.Name]
		if !isGeneric {
			return e
		}

		subst := map[int]types.Ty{}
		if schemeFn, ok := g.Scheme.Type.(types.TFun); ok {
			for i, arg := range call.Args {
				if i < len(schemeFn.Params) {
					matchTy(schemeFn.Params[i], types.Prune(arg.Type()), varSet(g.Scheme.Vars), subst)
				}
			}
		}

		v.Name = mangleName(g.origName, g.Scheme, subst)

		return e
	})
}
