package mir

import "github.com/snowdamiz/meshc/internal/types"

// ConvertClosures lifts every Lambda reachable from any Func's body into
// its own top-level Func named __closure_N (prefixed with the module path
// to avoid cross-module collisions), leaving a MakeClosure node producing
// the {code_ptr, env_ptr} fat pointer in its place (spec.md §4.4 step 4).
// Free variables become the closure's captures, packed by the emitter into
// a GC-allocated environment struct the closure function's entry block
// unpacks before running its body.
func ConvertClosures(prog *Program) {
	b := NewBuilder()

	globals := map[string]bool{}
	for _, fn := range prog.Funcs {
		globals[fn.Name] = true
	}

	counter := 0

	var liftedFuncs []*Func

	for _, fn := range prog.Funcs {
		fn.Body = transform(fn.Body, func(e Expr) Expr {
			lam, ok := e.(*Lambda)
			if !ok {
				return e
			}

			bound := map[string]bool{}
			for _, p := range lam.Params {
				bound[p.Name] = true
			}

			freeSet := map[string]bool{}
			freeVars(lam.Body, bound, freeSet)

			var captures []Var
			for name := range freeSet {
				if globals[name] {
					continue
				}

				captures = append(captures, Var{Node: b.node(types.Never), Name: name})
			}

			counter++
			closureName := closurePrefix(prog.ModulePath) + "_" + itoaMir(counter)

			envName := "__env"
			body := lam.Body

			// Each capture is reloaded from the environment struct at the
			// top of the closure function's body as a field access off the
			// implicit env parameter, matching the LLVM emitter's entry-
			// block alloca-and-load convention (spec.md §4.6).
			for _, c := range captures {
				body = &Let{
					Node:  b.node(c.Ty),
					Name:  c.Name,
					Value: &FieldAccess{Node: b.node(c.Ty), Receiver: &Var{Node: b.node(types.Never), Name: envName}, Field: c.Name},
					Body:  body,
				}
			}

			params := append([]Param{{Name: envName, Ty: types.Never}}, lam.Params...)

			liftedFuncs = append(liftedFuncs, &Func{
				Name: closureName, Params: params, RetType: bodyRetType(lam), Body: body, IsClosure: true,
			})

			globals[closureName] = true

			return &MakeClosure{Node: b.node(lam.Type()), FnName: closureName, Captures: captures}
		})
	}

	prog.Funcs = append(prog.Funcs, liftedFuncs...)
}

func closurePrefix(modulePath string) string {
	if modulePath == "" {
		return "__closure"
	}

	return "__closure_" + modulePath
}

func bodyRetType(lam *Lambda) types.Ty {
	if fn, ok := types.Prune(lam.Type()).(types.TFun); ok {
		return fn.Ret
	}

	return types.Never
}

func itoaMir(n int) string {
	if n == 0 {
		return "0"
	}

	var buf [20]byte
	i := len(buf)

	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}

	return string(buf[i:])
}
