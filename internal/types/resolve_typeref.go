package types

import "github.com/snowdamiz/meshc/internal/ast"

// primConName maps a surface type name to its TCon, for the primitives
// that aren't registered as struct/sum declarations.
var primConName = map[string]Ty{
	"Int": Int, "Float": Float, "String": String, "Bool": Bool, "Unit": Unit,
}

// resolveTypeRef converts a parsed type annotation into a Ty, consulting
// env for user-declared struct/sum-type names and type parameters bound
// in scope (tvScope maps a type-parameter name to its Ty for the
// enclosing scheme, e.g. the `T` in `fn identity(x: T) -> T`).
func resolveTypeRef(ctx *Ctx, env *TypeEnv, t ast.TypeRef, tvScope map[string]Ty) Ty {
	name := t.Name()

	if tv, ok := tvScope[name]; ok {
		return tv
	}

	if prim, ok := primConName[name]; ok {
		return prim
	}

	args := t.Args()
	if len(args) == 0 {
		if _, ok := env.Structs[name]; ok {
			return TCon{Name: name}
		}

		if _, ok := env.SumTypes[name]; ok {
			return TCon{Name: name}
		}

		// Opaque collection names (List, Map, Set, Range, Queue) used bare,
		// or an as-yet-unresolved type parameter: treat as a nullary
		// constructor; the name alone distinguishes it structurally.
		return TCon{Name: name}
	}

	resolved := make([]Ty, len(args))
	for i, a := range args {
		resolved[i] = resolveTypeRef(ctx, env, a, tvScope)
	}

	return TApp{Head: TCon{Name: name}, Args: resolved}
}
