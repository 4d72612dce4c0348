package mir

// transform rewrites every Expr reachable from e, innermost-first (a
// node's children are transformed before the node itself is passed to f),
// so a pass like closure conversion always sees already-converted nested
// lambdas when it computes an outer lambda's free variables.
func transform(e Expr, f func(Expr) Expr) Expr {
	if e == nil {
		return nil
	}

	switch n := e.(type) {
	case *Var, *IntLit, *FloatLit, *BoolLit, *StringLit, *UnitLit:
		return f(e)

	case *MakeClosure:
		return f(n)

	case *Let:
		n.Value = transform(n.Value, f)
		if n.Body != nil {
			n.Body = transform(n.Body, f)
		}

		return f(n)

	case *Call:
		n.Func = transform(n.Func, f)
		for i, a := range n.Args {
			n.Args[i] = transform(a, f)
		}

		return f(n)

	case *If:
		n.Cond = transform(n.Cond, f)
		n.Then = transform(n.Then, f)
		n.Else = transform(n.Else, f)

		return f(n)

	case *Match:
		n.Scrutinee = transform(n.Scrutinee, f)
		transformDecisionTree(n.Tree, f)

		return f(n)

	case *BinOp:
		n.Left = transform(n.Left, f)
		n.Right = transform(n.Right, f)

		return f(n)

	case *UnOp:
		n.Operand = transform(n.Operand, f)

		return f(n)

	case *StructLit:
		for k, v := range n.Fields {
			n.Fields[k] = transform(v, f)
		}

		return f(n)

	case *FieldAccess:
		n.Receiver = transform(n.Receiver, f)

		return f(n)

	case *Index:
		n.Receiver = transform(n.Receiver, f)
		n.Index = transform(n.Index, f)

		return f(n)

	case *ListLit:
		for i, el := range n.Elements {
			n.Elements[i] = transform(el, f)
		}

		return f(n)

	case *TupleLit:
		for i, el := range n.Elements {
			n.Elements[i] = transform(el, f)
		}

		return f(n)

	case *ConstructVariant:
		for i, el := range n.Fields {
			n.Fields[i] = transform(el, f)
		}

		return f(n)

	case *Lambda:
		n.Body = transform(n.Body, f)

		return f(n)

	case *While:
		n.Cond = transform(n.Cond, f)
		n.Body = transform(n.Body, f)
		if n.AccInit != nil {
			n.AccInit = transform(n.AccInit, f)
		}

		return f(n)

	case *Spawn:
		n.Func = transform(n.Func, f)
		for i, a := range n.Args {
			n.Args[i] = transform(a, f)
		}

		return f(n)

	case *Send:
		n.Target = transform(n.Target, f)
		n.Message = transform(n.Message, f)

		return f(n)

	case *Receive:
		transformDecisionTree(n.Tree, f)
		if n.AfterMs != nil {
			n.AfterMs = transform(n.AfterMs, f)
		}
		if n.AfterBody != nil {
			n.AfterBody = transform(n.AfterBody, f)
		}

		return f(n)

	case *Return:
		n.Value = transform(n.Value, f)

		return f(n)

	default:
		return f(e)
	}
}

// transformDecisionTree is a placeholder hook: a dtree.Node's Leaf bodies
// are still typedast.Expr (lowered lazily via LeafBody at codegen time, see
// build.go), so there is nothing of mir.Expr shape inside one yet for a mir
// pass to rewrite. Declared so future passes that do need to reach into
// compiled trees (e.g. once LeafBody results are cached) have one place to
// add that traversal.
func transformDecisionTree(_ interface{}, _ func(Expr) Expr) {}

// freeVars collects the names referenced as Var inside e that aren't bound
// by one of the names in bound, used by closure conversion to compute a
// Lambda's capture set.
func freeVars(e Expr, bound map[string]bool, out map[string]bool) {
	if e == nil {
		return
	}

	switch n := e.(type) {
	case *Var:
		if !bound[n.Name] {
			out[n.Name] = true
		}

	case *Let:
		freeVars(n.Value, bound, out)

		inner := cloneSet(bound)
		inner[n.Name] = true

		if n.Body != nil {
			freeVars(n.Body, inner, out)
		}

	case *Call:
		freeVars(n.Func, bound, out)
		for _, a := range n.Args {
			freeVars(a, bound, out)
		}

	case *If:
		freeVars(n.Cond, bound, out)
		freeVars(n.Then, bound, out)
		freeVars(n.Else, bound, out)

	case *Match:
		freeVars(n.Scrutinee, bound, out)

	case *BinOp:
		freeVars(n.Left, bound, out)
		freeVars(n.Right, bound, out)

	case *UnOp:
		freeVars(n.Operand, bound, out)

	case *StructLit:
		for _, v := range n.Fields {
			freeVars(v, bound, out)
		}

	case *FieldAccess:
		freeVars(n.Receiver, bound, out)

	case *Index:
		freeVars(n.Receiver, bound, out)
		freeVars(n.Index, bound, out)

	case *ListLit:
		for _, el := range n.Elements {
			freeVars(el, bound, out)
		}

	case *TupleLit:
		for _, el := range n.Elements {
			freeVars(el, bound, out)
		}

	case *ConstructVariant:
		for _, el := range n.Fields {
			freeVars(el, bound, out)
		}

	case *Lambda:
		inner := cloneSet(bound)
		for _, p := range n.Params {
			inner[p.Name] = true
		}

		freeVars(n.Body, inner, out)

	case *While:
		freeVars(n.Cond, bound, out)
		freeVars(n.Body, bound, out)
		if n.AccInit != nil {
			freeVars(n.AccInit, bound, out)
		}

	case *Spawn:
		freeVars(n.Func, bound, out)
		for _, a := range n.Args {
			freeVars(a, bound, out)
		}

	case *Send:
		freeVars(n.Target, bound, out)
		freeVars(n.Message, bound, out)

	case *Receive:
		if n.AfterMs != nil {
			freeVars(n.AfterMs, bound, out)
		}
		if n.AfterBody != nil {
			freeVars(n.AfterBody, bound, out)
		}

	case *Return:
		freeVars(n.Value, bound, out)

	case *MakeClosure:
		for _, c := range n.Captures {
			if !bound[c.Name] {
				out[c.Name] = true
			}
		}
	}
}

func cloneSet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s)+1)
	for k := range s {
		out[k] = true
	}

	return out
}
