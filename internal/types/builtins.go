package types

// RegisterBuiltins populates env and reg with mesh's compiler-known
// primitives, operators, traits, and standard-library signatures.
// Grounded directly on `original_source/crates/mesh-typeck/src/builtins.rs`'s
// `register_builtins(ctx, env, trait_registry)` — the Go port below
// mirrors its registration order and uses the same sentinel type-variable
// numbering convention to avoid accidental variable sharing across
// independently-declared polymorphic signatures (builtins.rs's fixed
// TyVar(99000)/TyVar(99002)/TyVar(91000..91001)/TyVar(90000..90001)
// become freshly-minted Ctx.NewVar() calls here, since Go's union-find
// cells are allocated, not numbered by convention).
func RegisterBuiltins(ctx *Ctx, env *TypeEnv, reg *TraitRegistry) {
	registerPrimitives(env)
	registerPid(env)
	registerIO(env)
	registerDefaultAndCompare(ctx, env, reg)
	registerCompilerTraits(reg)
	registerArithmeticAndComparison(env)
	registerLogical(env)
	registerStdlib(ctx, env)
}

func scheme(vars []int, t Ty) *Scheme { return &Scheme{Vars: vars, Type: t} }

func mono(t Ty) *Scheme { return &Scheme{Type: t} }

func fn(params []Ty, ret Ty) Ty { return TFun{Params: params, Ret: ret} }

func app(head Ty, args ...Ty) Ty { return TApp{Head: head, Args: args} }

func con(name string) Ty { return TCon{Name: name} }

func registerPrimitives(env *TypeEnv) {
	// Primitives themselves are introduced as Cons at use sites by the
	// type-reference resolver (internal/types's AST-facing half, see
	// infer.go resolveTypeRef); nothing to bind here as values.
}

// registerPid wires the actor PID type: the typed `Pid<M>` (arity 1) plus
// the untyped `Pid` escape hatch used when a spawn site's message type
// cannot be statically pinned down.
func registerPid(env *TypeEnv) {
	env.Structs["Pid"] = &StructInfo{Name: "Pid", TypeParams: []string{"M"}}
}

func registerIO(env *TypeEnv) {
	env.Bind("println", mono(fn([]Ty{String}, Unit)))
	env.Bind("print", mono(fn([]Ty{String}, Unit)))
}

// registerDefaultAndCompare ports builtins.rs's two static (no-`self`)
// polymorphic protocol functions: `default() -> T` dispatches on its
// return type's resolved instance at monomorphization; `compare(T,T) ->
// Ordering` dispatches to `Ord__compare__TypeName` at the MIR level
// (spec.md §4.4 deriving-synthesis naming convention).
func registerDefaultAndCompare(ctx *Ctx, env *TypeEnv, reg *TraitRegistry) {
	tDefault := ctx.NewVar()
	tv := tDefault.(TVar).Cell.ID
	env.Bind("default", scheme([]int{tv}, tDefault))

	tCompare := ctx.NewVar()
	cv := tCompare.(TVar).Cell.ID
	env.Bind("compare", scheme([]int{cv}, fn([]Ty{tCompare, tCompare}, con("Ordering"))))

	env.SumTypes["Ordering"] = &SumTypeInfo{
		Name: "Ordering",
		Variants: []VariantInfo{
			{Name: "Less", Tag: 0},
			{Name: "Equal", Tag: 1},
			{Name: "Greater", Tag: 2},
		},
	}
}

func registerCompilerTraits(reg *TraitRegistry) {
	for _, t := range []string{TraitAdd, TraitSub, TraitMul, TraitDiv, TraitMod} {
		reg.RegisterTrait(&TraitDef{Name: t, Methods: map[string]*Scheme{"op": nil}})
	}
	reg.RegisterTrait(&TraitDef{Name: TraitEq, Methods: map[string]*Scheme{"eq": nil}})
	reg.RegisterTrait(&TraitDef{Name: TraitOrd, Super: TraitEq, Methods: map[string]*Scheme{"compare": nil}})
	reg.RegisterTrait(&TraitDef{Name: TraitNot, Methods: map[string]*Scheme{"not": nil}})
	reg.RegisterTrait(&TraitDef{Name: TraitDefault, Methods: map[string]*Scheme{"default": nil}})

	for _, prim := range []string{"Int", "Float", "String", "Bool"} {
		for _, t := range []string{TraitAdd, TraitSub, TraitMul, TraitDiv, TraitMod, TraitEq, TraitOrd} {
			if (t == TraitAdd || t == TraitSub || t == TraitMul || t == TraitDiv || t == TraitMod) && prim != "Int" && prim != "Float" {
				continue
			}
			reg.Impls[t] = ensureHeadMap(reg.Impls, t)
			reg.Impls[t][prim] = &ImplDef{Trait: t, Head: prim, Assoc: map[string]Ty{}, Methods: map[string]Ty{}}
		}
	}
}

func ensureHeadMap(m map[string]map[string]*ImplDef, key string) map[string]*ImplDef {
	if existing, ok := m[key]; ok {
		return existing
	}

	return map[string]*ImplDef{}
}

// registerArithmeticAndComparison keeps Int `+ - * /` and comparisons as
// direct env entries "for backward compatibility" alongside trait
// dispatch, and registers the float-suffixed operators `+. -. *. /.`
// exactly as builtins.rs does (mesh does not support numeric-literal
// polymorphism between Int and Float; the suffix disambiguates which
// operator a literal-adjacent expression resolves to before trait
// resolution is even consulted).
func registerArithmeticAndComparison(env *TypeEnv) {
	intBinOp := fn([]Ty{Int, Int}, Int)
	for _, op := range []string{"+", "-", "*", "/"} {
		env.Bind(op, mono(intBinOp))
	}

	floatBinOp := fn([]Ty{Float, Float}, Float)
	for _, op := range []string{"+.", "-.", "*.", "/."} {
		env.Bind(op, mono(floatBinOp))
	}

	intCmp := fn([]Ty{Int, Int}, Bool)
	for _, op := range []string{"==", "!=", "<", ">", "<=", ">="} {
		env.Bind(op, mono(intCmp))
	}

	env.Bind("<>", mono(fn([]Ty{String, String}, String)))
}

func registerLogical(env *TypeEnv) {
	env.Bind("and", mono(fn([]Ty{Bool, Bool}, Bool)))
	env.Bind("or", mono(fn([]Ty{Bool, Bool}, Bool)))
	env.Bind("not", mono(fn([]Ty{Bool}, Bool)))
}

// registerStdlib ports the large String/File/IO/Env/List/Map/Set
// function-signature surface from builtins.rs. List/Map are genuinely
// polymorphic (List<T>, Map<K,V>); Set mirrors builtins.rs's own
// Int-specialized surface rather than generalizing it (see DESIGN.md
// Open Question: "Set functions hard-code Int" — preserved as-is since
// inventing a polymorphic Set the original doesn't have would be scope
// creep beyond what spec.md asks for).
func registerStdlib(ctx *Ctx, env *TypeEnv) {
	optionOf := func(t Ty) Ty { return app(con("Option"), t) }
	resultOf := func(t, e Ty) Ty { return app(con("Result"), t, e) }

	env.SumTypes["Option"] = &SumTypeInfo{Name: "Option", TypeParams: []string{"T"},
		Variants: []VariantInfo{{Name: "Some", Tag: 0, Fields: []Ty{ctx.NewVar()}}, {Name: "None", Tag: 1}}}
	env.SumTypes["Result"] = &SumTypeInfo{Name: "Result", TypeParams: []string{"T", "E"},
		Variants: []VariantInfo{{Name: "Ok", Tag: 0, Fields: []Ty{ctx.NewVar()}}, {Name: "Err", Tag: 1, Fields: []Ty{ctx.NewVar()}}}}

	// string_*
	env.Bind("string_length", mono(fn([]Ty{String}, Int)))
	env.Bind("string_concat", mono(fn([]Ty{String, String}, String)))
	env.Bind("string_split", mono(fn([]Ty{String, String}, app(con("List"), String))))
	env.Bind("string_trim", mono(fn([]Ty{String}, String)))
	env.Bind("string_upper", mono(fn([]Ty{String}, String)))
	env.Bind("string_lower", mono(fn([]Ty{String}, String)))
	env.Bind("string_contains", mono(fn([]Ty{String, String}, Bool)))
	env.Bind("string_replace", mono(fn([]Ty{String, String, String}, String)))
	env.Bind("string_to_int", mono(fn([]Ty{String}, optionOf(Int))))
	env.Bind("string_to_float", mono(fn([]Ty{String}, optionOf(Float))))
	env.Bind("to_string", monoPoly(ctx, func(t Ty) Ty { return fn([]Ty{t}, String) }))

	// file_* / io_*
	env.Bind("file_read", mono(fn([]Ty{String}, resultOf(String, String))))
	env.Bind("file_write", mono(fn([]Ty{String, String}, resultOf(Unit, String))))
	env.Bind("file_exists", mono(fn([]Ty{String}, Bool)))
	env.Bind("io_read_line", mono(fn(nil, optionOf(String))))
	env.Bind("env_get", mono(fn([]Ty{String}, optionOf(String))))

	// List<T> — bare prelude names (auto-imported) and list_-qualified
	// duplicates, per builtins.rs.
	registerListFns(ctx, env, optionOf)

	// Map<K,V>
	registerMapFns(ctx, env, optionOf)

	// Set — Int-specialized in the original; preserved verbatim here.
	registerSetFns(env)
}

func monoPoly(ctx *Ctx, build func(Ty) Ty) *Scheme {
	t := ctx.NewVar()
	tv := t.(TVar).Cell.ID

	return scheme([]int{tv}, build(t))
}

func registerListFns(ctx *Ctx, env *TypeEnv, optionOf func(Ty) Ty) {
	listOf := func(t Ty) Ty { return app(con("List"), t) }

	unary := func(name string) {
		t := ctx.NewVar()
		tv := t.(TVar).Cell.ID
		sig := scheme([]int{tv}, fn([]Ty{listOf(t)}, listOf(t)))
		env.Bind(name, sig)
		env.Bind("list_"+name, sig)
	}

	for _, name := range []string{"reverse", "sort", "flatten"} {
		unary(name)
	}

	t := ctx.NewVar()
	tv := t.(TVar).Cell.ID
	env.Bind("list_new", scheme([]int{tv}, fn(nil, listOf(t))))

	length := func() *Scheme {
		t := ctx.NewVar()
		tv := t.(TVar).Cell.ID

		return scheme([]int{tv}, fn([]Ty{listOf(t)}, Int))
	}
	env.Bind("length", length())
	env.Bind("list_length", length())

	headFn := func() *Scheme {
		t := ctx.NewVar()
		tv := t.(TVar).Cell.ID

		return scheme([]int{tv}, fn([]Ty{listOf(t)}, optionOf(t)))
	}
	env.Bind("head", headFn())
	env.Bind("last", headFn())
	env.Bind("nth", func() *Scheme {
		t := ctx.NewVar()
		tv := t.(TVar).Cell.ID

		return scheme([]int{tv}, fn([]Ty{listOf(t), Int}, optionOf(t)))
	}())

	tailFn := func() *Scheme {
		t := ctx.NewVar()
		tv := t.(TVar).Cell.ID

		return scheme([]int{tv}, fn([]Ty{listOf(t)}, listOf(t)))
	}
	env.Bind("tail", tailFn())
	env.Bind("take", func() *Scheme {
		t := ctx.NewVar()
		tv := t.(TVar).Cell.ID

		return scheme([]int{tv}, fn([]Ty{listOf(t), Int}, listOf(t)))
	}())
	env.Bind("drop", func() *Scheme {
		t := ctx.NewVar()
		tv := t.(TVar).Cell.ID

		return scheme([]int{tv}, fn([]Ty{listOf(t), Int}, listOf(t)))
	}())

	appendFn := func() *Scheme {
		t := ctx.NewVar()
		tv := t.(TVar).Cell.ID

		return scheme([]int{tv}, fn([]Ty{listOf(t), t}, listOf(t)))
	}
	env.Bind("append", appendFn())
	env.Bind("list_append", appendFn())

	concatFn := func() *Scheme {
		t := ctx.NewVar()
		tv := t.(TVar).Cell.ID

		return scheme([]int{tv}, fn([]Ty{listOf(t), listOf(t)}, listOf(t)))
	}
	env.Bind("concat", concatFn())
	env.Bind("list_concat", concatFn())

	mapFn := func() *Scheme {
		a, b := ctx.NewVar(), ctx.NewVar()
		av, bv := a.(TVar).Cell.ID, b.(TVar).Cell.ID

		return scheme([]int{av, bv}, fn([]Ty{listOf(a), fn([]Ty{a}, b)}, listOf(b)))
	}
	env.Bind("map", mapFn())
	env.Bind("list_map", mapFn())

	filterFn := func() *Scheme {
		t := ctx.NewVar()
		tv := t.(TVar).Cell.ID

		return scheme([]int{tv}, fn([]Ty{listOf(t), fn([]Ty{t}, Bool)}, listOf(t)))
	}
	env.Bind("filter", filterFn())
	env.Bind("list_filter", filterFn())

	reduceFn := func() *Scheme {
		a, b := ctx.NewVar(), ctx.NewVar()
		av, bv := a.(TVar).Cell.ID, b.(TVar).Cell.ID

		return scheme([]int{av, bv}, fn([]Ty{listOf(a), b, fn([]Ty{b, a}, b)}, b))
	}
	env.Bind("reduce", reduceFn())
	env.Bind("list_reduce", reduceFn())

	flatMapFn := func() *Scheme {
		a, b := ctx.NewVar(), ctx.NewVar()
		av, bv := a.(TVar).Cell.ID, b.(TVar).Cell.ID

		return scheme([]int{av, bv}, fn([]Ty{listOf(a), fn([]Ty{a}, listOf(b))}, listOf(b)))
	}
	env.Bind("flat_map", flatMapFn())
	env.Bind("list_flat_map", flatMapFn())

	predFn := func(name string) {
		t := ctx.NewVar()
		tv := t.(TVar).Cell.ID
		sig := scheme([]int{tv}, fn([]Ty{listOf(t), fn([]Ty{t}, Bool)}, Bool))
		env.Bind(name, sig)
		env.Bind("list_"+name, sig)
	}
	predFn("any")
	predFn("all")

	findFn := func() *Scheme {
		t := ctx.NewVar()
		tv := t.(TVar).Cell.ID

		return scheme([]int{tv}, fn([]Ty{listOf(t), fn([]Ty{t}, Bool)}, optionOf(t)))
	}
	env.Bind("find", findFn())
	env.Bind("list_find", findFn())

	containsFn := func() *Scheme {
		t := ctx.NewVar()
		tv := t.(TVar).Cell.ID

		return scheme([]int{tv}, fn([]Ty{listOf(t), t}, Bool))
	}
	env.Bind("contains", containsFn())
	env.Bind("list_contains", containsFn())

	zipFn := func() *Scheme {
		a, b := ctx.NewVar(), ctx.NewVar()
		av, bv := a.(TVar).Cell.ID, b.(TVar).Cell.ID

		return scheme([]int{av, bv}, fn([]Ty{listOf(a), listOf(b)}, listOf(TTuple{Elems: []Ty{a, b}})))
	}
	env.Bind("zip", zipFn())
	env.Bind("list_zip", zipFn())

	enumFn := func() *Scheme {
		t := ctx.NewVar()
		tv := t.(TVar).Cell.ID

		return scheme([]int{tv}, fn([]Ty{listOf(t)}, listOf(TTuple{Elems: []Ty{Int, t}})))
	}
	env.Bind("enumerate", enumFn())
	env.Bind("list_enumerate", enumFn())
}

func registerMapFns(ctx *Ctx, env *TypeEnv, optionOf func(Ty) Ty) {
	mapOf := func(k, v Ty) Ty { return app(con("Map"), k, v) }

	kv := func() (Ty, Ty, int, int) {
		k, v := ctx.NewVar(), ctx.NewVar()

		return k, v, k.(TVar).Cell.ID, v.(TVar).Cell.ID
	}

	env.Bind("map_new", func() *Scheme {
		k, v, kv1, vv := kv()

		return scheme([]int{kv1, vv}, fn(nil, mapOf(k, v)))
	}())
	env.Bind("map_put", func() *Scheme {
		k, v, kv1, vv := kv()

		return scheme([]int{kv1, vv}, fn([]Ty{mapOf(k, v), k, v}, mapOf(k, v)))
	}())
	env.Bind("map_get", func() *Scheme {
		k, v, kv1, vv := kv()

		return scheme([]int{kv1, vv}, fn([]Ty{mapOf(k, v), k}, optionOf(v)))
	}())
	env.Bind("map_has_key", func() *Scheme {
		k, v, kv1, vv := kv()

		return scheme([]int{kv1, vv}, fn([]Ty{mapOf(k, v), k}, Bool))
	}())
	env.Bind("map_delete", func() *Scheme {
		k, v, kv1, vv := kv()

		return scheme([]int{kv1, vv}, fn([]Ty{mapOf(k, v), k}, mapOf(k, v)))
	}())
	env.Bind("map_size", func() *Scheme {
		k, v, kv1, vv := kv()

		return scheme([]int{kv1, vv}, fn([]Ty{mapOf(k, v)}, Int))
	}())
	env.Bind("map_keys", func() *Scheme {
		k, v, kv1, vv := kv()

		return scheme([]int{kv1, vv}, fn([]Ty{mapOf(k, v)}, app(con("List"), k)))
	}())
	env.Bind("map_values", func() *Scheme {
		k, v, kv1, vv := kv()

		return scheme([]int{kv1, vv}, fn([]Ty{mapOf(k, v)}, app(con("List"), v)))
	}())
	env.Bind("map_merge", func() *Scheme {
		k, v, kv1, vv := kv()

		return scheme([]int{kv1, vv}, fn([]Ty{mapOf(k, v), mapOf(k, v)}, mapOf(k, v)))
	}())
	env.Bind("map_to_list", func() *Scheme {
		k, v, kv1, vv := kv()

		return scheme([]int{kv1, vv}, fn([]Ty{mapOf(k, v)}, app(con("List"), TTuple{Elems: []Ty{k, v}})))
	}())
	env.Bind("map_from_list", func() *Scheme {
		k, v, kv1, vv := kv()

		return scheme([]int{kv1, vv}, fn([]Ty{app(con("List"), TTuple{Elems: []Ty{k, v}})}, mapOf(k, v)))
	}())
}

// registerSetFns mirrors builtins.rs: Set's element type is hard-coded to
// Int rather than polymorphic, unlike List/Map (see DESIGN.md).
func registerSetFns(env *TypeEnv) {
	setOfInt := app(con("Set"), Int)

	env.Bind("set_new", mono(fn(nil, setOfInt)))
	env.Bind("set_add", mono(fn([]Ty{setOfInt, Int}, setOfInt)))
	env.Bind("set_remove", mono(fn([]Ty{setOfInt, Int}, setOfInt)))
	env.Bind("set_contains", mono(fn([]Ty{setOfInt, Int}, Bool)))
	env.Bind("set_size", mono(fn([]Ty{setOfInt}, Int)))
	env.Bind("set_union", mono(fn([]Ty{setOfInt, setOfInt}, setOfInt)))
	env.Bind("set_intersection", mono(fn([]Ty{setOfInt, setOfInt}, setOfInt)))
	env.Bind("set_difference", mono(fn([]Ty{setOfInt, setOfInt}, setOfInt)))
	env.Bind("set_to_list", mono(fn([]Ty{setOfInt}, app(con("List"), Int))))
}
