package llvmgen

import "github.com/snowdamiz/meshc/internal/mir"

// collectClosureCaptures scans every Func's body for *mir.MakeClosure
// nodes and records each lifted closure function's capture name order,
// keyed by FnName — the env struct layout a closure's own entry block
// needs to unpack, but which MakeClosure.Captures only records at its
// construction site (internal/mir/closures.go lifts each Lambda to a
// uniquely counter-named Func, so one FnName has exactly one capture
// list in the whole program).
func (c *Compiler) collectClosureCaptures() {
	c.closureCaptures = map[string][]string{}

	for _, fn := range c.prog.Funcs {
		walkMIR(fn.Body, func(e mir.Expr) {
			mk, ok := e.(*mir.MakeClosure)
			if !ok {
				return
			}

			names := make([]string, len(mk.Captures))
			for i, cap := range mk.Captures {
				names[i] = cap.Name
			}
			c.closureCaptures[mk.FnName] = names
		})
	}
}

// walkMIR visits every mir.Expr reachable from e (including e itself),
// depth-first; unlike internal/mir's unexported transform, this never
// rewrites anything — it only needs to observe MakeClosure nodes.
func walkMIR(e mir.Expr, visit func(mir.Expr)) {
	if e == nil {
		return
	}

	visit(e)

	switch n := e.(type) {
	case *mir.Let:
		walkMIR(n.Value, visit)
		walkMIR(n.Body, visit)
	case *mir.Call:
		walkMIR(n.Func, visit)
		for _, a := range n.Args {
			walkMIR(a, visit)
		}
	case *mir.If:
		walkMIR(n.Cond, visit)
		walkMIR(n.Then, visit)
		walkMIR(n.Else, visit)
	case *mir.Match:
		walkMIR(n.Scrutinee, visit)
	case *mir.BinOp:
		walkMIR(n.Left, visit)
		walkMIR(n.Right, visit)
	case *mir.UnOp:
		walkMIR(n.Operand, visit)
	case *mir.StructLit:
		for _, v := range n.Fields {
			walkMIR(v, visit)
		}
	case *mir.FieldAccess:
		walkMIR(n.Receiver, visit)
	case *mir.Index:
		walkMIR(n.Receiver, visit)
		walkMIR(n.Index, visit)
	case *mir.ListLit:
		for _, el := range n.Elements {
			walkMIR(el, visit)
		}
	case *mir.TupleLit:
		for _, el := range n.Elements {
			walkMIR(el, visit)
		}
	case *mir.ConstructVariant:
		for _, el := range n.Fields {
			walkMIR(el, visit)
		}
	case *mir.While:
		walkMIR(n.Cond, visit)
		walkMIR(n.Body, visit)
		walkMIR(n.AccInit, visit)
	case *mir.Spawn:
		walkMIR(n.Func, visit)
		for _, a := range n.Args {
			walkMIR(a, visit)
		}
	case *mir.Send:
		walkMIR(n.Target, visit)
		walkMIR(n.Message, visit)
	case *mir.Receive:
		walkMIR(n.AfterMs, visit)
		walkMIR(n.AfterBody, visit)
	case *mir.Return:
		walkMIR(n.Value, visit)
	case *mir.Lambda:
		walkMIR(n.Body, visit)
	}
}
