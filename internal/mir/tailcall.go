package mir

// MarkTailCalls marks every Call in tail position whose callee is the
// enclosing Func itself (self-recursion only, spec.md §4.4 step 5) and
// sets the Func's HasTailCalls flag when at least one was found — the flag
// tells the LLVM emitter to append a TCE loop header block (spec.md §4.6).
// Tail positions inside a Match or Receive are not searched: their arm
// bodies stay typedast.Expr on the decision-tree leaves until codegen
// lowers them, so self-calls there are not marked.
func MarkTailCalls(prog *Program) {
	for _, fn := range prog.Funcs {
		found := markTail(fn.Body, fn.Name)
		fn.HasTailCalls = found
	}
}

// markTail walks e's tail positions only — the position whose value is the
// whole expression's value — marking a matching self-call and reporting
// whether it found one.
func markTail(e Expr, selfName string) bool {
	switch n := e.(type) {
	case *Call:
		v, ok := n.Func.(*Var)
		if ok && v.Name == selfName {
			n.Tail = true
			return true
		}

		return false

	case *If:
		thenHas := markTail(n.Then, selfName)
		elseHas := markTail(n.Else, selfName)

		return thenHas || elseHas

	case *Let:
		if n.Body != nil {
			return markTail(n.Body, selfName)
		}

		return markTail(n.Value, selfName)

	case *While:
		// A loop body never contains a tail-position self-call relative to
		// the enclosing function — it always returns to evaluate the
		// condition again, not to the function's own return — so nothing
		// inside it is marked.
		return false

	default:
		return false
	}
}
