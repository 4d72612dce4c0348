package llvmgen

import "tinygo.org/x/go-llvm"

// declareRuntime declares every runtime ABI symbol by its exact signature
// (spec.md §6's runtime-ABI table), plus the handful of `mesh_*` opaque-
// collection helpers internal/mir's desugaring passes call directly
// (mesh_string_concat for interpolation, mesh_iter_*/mesh_list_* for the
// desugared `for` loop). Declaring everything up front mirrors the
// teacher-grounded other_examples/hhramberg-go-vslc pattern of declaring
// printf/atoi/atof once before any function body references them.
func (c *Compiler) declareRuntime() {
	i64 := c.ctx.Int64Type()
	i32 := c.ctx.Int32Type()
	i8 := c.ctx.Int8Type()
	i1 := c.ctx.Int1Type()
	ptr := llvm.PointerType(i8, 0)
	void := c.ctx.VoidType()

	decl := func(name string, ret llvm.Type, params []llvm.Type, variadic bool) {
		c.runtime[name] = llvm.AddFunction(c.mod, name, llvm.FunctionType(ret, params, variadic))
	}

	decl("rt_init", void, nil, false)
	decl("rt_init_actor", void, []llvm.Type{i32}, false)
	decl("rt_run_scheduler", void, nil, false)
	decl("gc_alloc_actor", ptr, []llvm.Type{i64, i64}, false)
	decl("actor_spawn", i64, []llvm.Type{ptr, ptr, i64, i8}, false)
	decl("actor_send", void, []llvm.Type{i64, ptr, i64}, false)
	decl("actor_receive", ptr, []llvm.Type{i64}, false)
	decl("actor_self", i64, nil, false)
	decl("actor_link", void, []llvm.Type{i64}, false)
	decl("actor_set_terminate", void, []llvm.Type{i64, ptr}, false)
	decl("reduction_check", void, nil, false)
	decl("register_function", void, []llvm.Type{ptr, i64, ptr}, false)
	decl("panic", void, []llvm.Type{ptr, i64, ptr, i64, i32}, false) // noreturn in spirit; verifier doesn't require unreachable after

	// String/collection intrinsics the desugaring passes call by name.
	decl("mesh_string_concat", ptr, []llvm.Type{ptr, ptr}, false)
	decl("mesh_iter_new", ptr, []llvm.Type{ptr}, false)
	decl("mesh_iter_has_next", i1, []llvm.Type{ptr}, false)
	decl("mesh_iter_advance", void, []llvm.Type{ptr}, false)
	decl("mesh_list_new", ptr, nil, false)
	decl("mesh_list_push", void, []llvm.Type{ptr, ptr}, false)
	decl("mesh_set_from_list", ptr, []llvm.Type{ptr}, false)
	decl("mesh_list_len", i64, []llvm.Type{ptr}, false)
	decl("mesh_list_head", ptr, []llvm.Type{ptr}, false)
	decl("mesh_list_tail", ptr, []llvm.Type{ptr}, false)
	decl("mesh_string_eq", i1, []llvm.Type{ptr, ptr}, false)
	decl("mesh_index", ptr, []llvm.Type{ptr, ptr}, false)

	// Builtin to_string dispatch for the four primitive types; a
	// deriving(Show)-synthesized MIR Func of the same naming convention
	// shadows this declaration for user struct/sum types (mir/build.go's
	// headTypeName-based mangling), so the two naming schemes share one
	// call-site convention without a runtime/compiled split visible to
	// codegen.
	decl("to_string__Int", ptr, []llvm.Type{i64}, false)
	decl("to_string__Float", ptr, []llvm.Type{c.ctx.DoubleType()}, false)
	decl("to_string__Bool", ptr, []llvm.Type{i1}, false)
	decl("to_string__String", ptr, []llvm.Type{ptr}, false)
}
