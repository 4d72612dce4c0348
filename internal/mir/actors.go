package mir

import (
	"github.com/snowdamiz/meshc/internal/dtree"
	"github.com/snowdamiz/meshc/internal/typedast"
	"github.com/snowdamiz/meshc/internal/types"
)

// messageTy stands in for a mailbox message's static type: the runtime
// mailbox is dynamically tagged (spec.md's opaque `ptr` runtime types),
// so handler parameters carry this placeholder constructor rather than a
// type the inferencer actually resolved.
var messageTy = types.Ty(types.TCon{Name: "Message"})

// lowerActors materializes each actor's handler clauses as ordinary Funcs
// and, when a `terminate do … end` block is present, a __terminate_{name}
// function recorded on prog.ActorHooks (spec.md §4.4 step 6). No later
// stage registers it: internal/codegen/llvmgen declares actor_set_terminate
// but never calls it.
func lowerActors(b *Builder, actors []*typedast.ActorDef, prog *Program) {
	for _, a := range actors {
		for _, h := range a.Handlers {
			prog.Funcs = append(prog.Funcs, b.lowerFn(h))
		}

		if a.Terminate == nil {
			continue
		}

		fnName := "__terminate_" + a.Name
		prog.Funcs = append(prog.Funcs, &Func{
			Name:    fnName,
			Params:  []Param{{Name: "self", Ty: types.TApp{Head: types.TCon{Name: "Pid"}, Args: []types.Ty{messageTy}}}},
			RetType: types.Unit,
			Body:    b.lowerExpr(a.Terminate),
		})

		prog.ActorHooks = append(prog.ActorHooks, &ActorHook{ActorName: a.Name, TerminateFunc: fnName})
	}
}

// lowerServices builds the __service_{Name}_loop Func plus the call/cast
// decision trees that dispatch an incoming message to the matching
// handler clause by its message-pattern shape (spec.md §4.4 step 6). The
// loop body's own Receive walks the call tree; the cast tree is only
// recorded on ServiceLoop.CastDispatch, which internal/codegen/llvmgen does
// not read, so cast handlers are not dispatched from the loop.
func lowerServices(b *Builder, services []*typedast.ServiceDef, prog *Program) {
	for _, s := range services {
		loopName := "__service_" + s.Name + "_loop"

		callTree := compileHandlerDispatch(s.CallHandlers)
		castTree := compileHandlerDispatch(s.CastHandlers)

		msgVar := b.fresh("msg")
		loopBody := &Receive{Node: b.node(types.Unit), Tree: callTree}

		prog.Funcs = append(prog.Funcs, &Func{
			Name:    loopName,
			Params:  []Param{{Name: msgVar, Ty: messageTy}},
			RetType: types.Unit,
			Body:    loopBody,
		})

		prog.ServiceLoops = append(prog.ServiceLoops, &ServiceLoop{
			ServiceName:  s.Name,
			LoopFunc:     loopName,
			CallDispatch: callTree,
			CastDispatch: castTree,
		})
	}
}

func compileHandlerDispatch(handlers []typedast.ServiceHandler) dtree.Node {
	if len(handlers) == 0 {
		return &dtree.Fail{}
	}

	arms := make([]dtree.Arm, len(handlers))
	for i, h := range handlers {
		arms[i] = dtree.Arm{Pattern: h.Pattern, Body: h.Body}
	}

	return dtree.Compile(arms)
}
