package types

import (
	"github.com/snowdamiz/meshc/internal/ast"
	"github.com/snowdamiz/meshc/internal/cst"
	"github.com/snowdamiz/meshc/internal/errors"
	"github.com/snowdamiz/meshc/internal/token"
	"github.com/snowdamiz/meshc/internal/typedast"
)

// InferFile runs Algorithm J (spec.md §4.3) over one parsed file, returning
// its fully typed AST. Diagnostics are appended to ctx.Sink rather than
// raised; callers check ctx.Sink.HasErrors() before proceeding to MIR
// lowering (spec.md §7 "Lowering, codegen, and verification... run only
// when the diagnostic list is empty").
func InferFile(ctx *Ctx, file ast.File, env *TypeEnv) *typedast.File {
	out := &typedast.File{}

	if md, ok := file.ModuleDecl(); ok {
		out.ModulePath = md.Path()
	}

	for _, imp := range file.Imports() {
		out.Imports = append(out.Imports, imp.Path())
	}

	items := file.Items()

	registerTypeDecls(ctx, env, items, out)
	registerImplsAndDeriving(ctx, env, items, out)

	seenNames := map[string]token.Span{}

	for _, item := range items {
		switch item.Kind() {
		case cst.FN_DEF:
			fd := ast.AsFnDef(item.Syntax)
			name := fd.Name()

			if prev, dup := seenNames[name]; dup {
				ctx.Sink.Report(errors.Diagnostic{
					Code:     errors.E0023NonConsecutiveClauses,
					Severity: errors.SeverityError,
					Message:  "function " + name + " is redefined; clauses of the same function must be syntactically consecutive",
					File:     ctx.File,
					Span:     fd.Span(),
					Spans:    []errors.LabeledSpan{{Span: prev, Label: "previous definition"}},
				})

				continue
			}

			seenNames[name] = fd.Span()

			typed := inferFnDef(ctx, env, fd)
			out.Fns = append(out.Fns, typed)
			env.Bind(name, typed.Scheme)

		case cst.ACTOR_DEF:
			out.Actors = append(out.Actors, inferActorDef(ctx, env, ast.AsActorDef(item.Syntax)))

		case cst.SERVICE_DEF:
			out.Services = append(out.Services, inferServiceDef(ctx, env, ast.AsServiceDef(item.Syntax)))

		case cst.SUPERVISOR_DEF:
			out.Supervisors = append(out.Supervisors, inferSupervisorDef(env, ast.AsSupervisorDef(item.Syntax)))
		}
	}

	for name, info := range env.Structs {
		if info.Name != "" {
			_ = name
			out.Structs = append(out.Structs, info)
		}
	}

	for _, info := range env.SumTypes {
		out.SumTypes = append(out.SumTypes, info)
	}

	return out
}
