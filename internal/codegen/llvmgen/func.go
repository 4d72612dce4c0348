package llvmgen

import (
	"tinygo.org/x/go-llvm"

	"github.com/snowdamiz/meshc/internal/mir"
	"github.com/snowdamiz/meshc/internal/types"
)

// declareFunc forward-declares fn's LLVM signature (spec.md §4.6 function
// emission step 2), so every call site resolves regardless of definition
// order — mirrors other_examples/hhramberg-go-vslc's genFuncHeader/
// genFuncBody split.
func (c *Compiler) declareFunc(fn *mir.Func) {
	if existing, ok := c.runtime[fn.Name]; ok {
		// A deriving-synthesized Func can share a name with a primitive
		// to_string__* runtime declaration; the MIR definition wins and
		// gets its body emitted onto the already-declared signature.
		c.funcs[fn.Name] = existing
		return
	}

	params := make([]llvm.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = c.paramType(p)
	}

	ret := c.llvmType(fn.RetType)
	ftyp := llvm.FunctionType(ret, params, false)

	llfn := llvm.AddFunction(c.mod, fn.Name, ftyp)
	for i, p := range fn.Params {
		llfn.Param(i).SetName(p.Name)
	}

	c.funcs[fn.Name] = llfn
}

// paramType resolves a Param's LLVM type; the implicit "__env" parameter
// closure conversion adds (internal/mir/closures.go) carries a types.Never
// placeholder, not its real struct type, so it is always an opaque
// pointer regardless of its declared Ty.
func (c *Compiler) paramType(p mir.Param) llvm.Type {
	if p.Name == "__env" {
		return llvm.PointerType(c.ctx.Int8Type(), 0)
	}
	return c.llvmType(p.Ty)
}

// funcScope tracks the entry-block allocas for a function's locals, the
// TCE loop header (if any), and the frame's static info needed by Call/
// Return/While emission.
type funcScope struct {
	fn        *mir.Func
	llfn      llvm.Value
	vars      map[string]llvm.Value // name -> alloca
	entry     llvm.BasicBlock
	tceHeader llvm.BasicBlock // valid iff fn.HasTailCalls
}

// emitFuncBody emits fn's entry block, parameter allocas, optional TCE
// loop header, and compiles the body expression (spec.md §4.6 function
// emission steps 3-4). All allocas are hoisted into the entry block so a
// TCE loop never grows the stack per iteration.
func (c *Compiler) emitFuncBody(fn *mir.Func) error {
	llfn := c.funcs[fn.Name]

	entry := llvm.AddBasicBlock(llfn, "entry")
	c.builder.SetInsertPointAtEnd(entry)

	scope := &funcScope{fn: fn, llfn: llfn, vars: map[string]llvm.Value{}, entry: entry}

	for i, p := range fn.Params {
		alloca := c.builder.CreateAlloca(c.paramType(p), p.Name)
		c.builder.CreateStore(llfn.Param(i), alloca)
		scope.vars[p.Name] = alloca
	}

	if fn.HasTailCalls {
		header := llvm.AddBasicBlock(llfn, "tce.loop")
		c.builder.CreateBr(header)
		c.builder.SetInsertPointAtEnd(header)
		scope.tceHeader = header
	}

	val, err := c.emitExpr(scope, fn.Body)
	if err != nil {
		return err
	}

	if !blockTerminated(c.builder.GetInsertBlock()) {
		c.emitReturn(fn.RetType, val)
	}

	return nil
}

// blockTerminated reports whether bb already ends in a terminator
// instruction (ret/br/switch/unreachable); emitFuncBody only needs to
// synthesize a return when the body's last expression didn't already
// produce one (e.g. an If whose arms both returned).
func blockTerminated(bb llvm.BasicBlock) bool {
	last := bb.LastInstruction()
	if last.IsNil() {
		return false
	}
	switch last.InstructionOpcode() {
	case llvm.Ret, llvm.Br, llvm.Switch, llvm.Unreachable:
		return true
	default:
		return false
	}
}

// emitReturn synthesizes the current block's terminating return,
// coercing val to retType's LLVM representation first (spec.md §4.6
// "return-value coercion").
func (c *Compiler) emitReturn(retType types.Ty, val llvm.Value) {
	want := c.llvmType(retType)
	if val.IsNil() {
		c.builder.CreateRet(llvm.ConstNull(want))
		return
	}

	c.builder.CreateRet(c.coerce(val, want))
}

// coerce performs the small fixups spec.md §4.6 describes for
// representation mismatches introduced by monomorphization/closures:
// ptr<->struct through a fresh GC allocation, int<->ptr via inttoptr/
// ptrtoint, struct<->struct via bitcast-through-alloca.
func (c *Compiler) coerce(val llvm.Value, want llvm.Type) llvm.Value {
	got := val.Type()
	if got == want {
		return val
	}

	switch {
	case got.TypeKind() == llvm.PointerTypeKind && want.TypeKind() == llvm.IntegerTypeKind:
		return c.builder.CreatePtrToInt(val, want, "")

	case got.TypeKind() == llvm.IntegerTypeKind && want.TypeKind() == llvm.PointerTypeKind:
		return c.builder.CreateIntToPtr(val, want, "")

	case got.TypeKind() == llvm.StructTypeKind && want.TypeKind() == llvm.PointerTypeKind:
		alloc := c.gcAlloc(got)
		c.builder.CreateStore(val, alloc)
		return c.builder.CreateBitCast(alloc, want, "")

	case got.TypeKind() == llvm.PointerTypeKind && want.TypeKind() == llvm.StructTypeKind:
		cast := c.builder.CreateBitCast(val, llvm.PointerType(want, 0), "")
		return c.builder.CreateLoad(cast, "")

	case got.TypeKind() == llvm.StructTypeKind && want.TypeKind() == llvm.StructTypeKind:
		alloc := c.gcAlloc(got)
		c.builder.CreateStore(val, alloc)
		cast := c.builder.CreateBitCast(alloc, llvm.PointerType(want, 0), "")
		return c.builder.CreateLoad(cast, "")

	default:
		return val
	}
}

// gcAlloc allocates size bytes of got's storage through the runtime's
// actor-local GC allocator rather than a raw LLVM alloca, since the
// result may need to outlive the current stack frame (spec.md §5 "never
// emit user-reachable allocations except through the runtime's GC-alloc
// intrinsic").
func (c *Compiler) gcAlloc(t llvm.Type) llvm.Value {
	size := llvm.ConstInt(c.ctx.Int64Type(), uint64(c.typeSizeBytes(t)), false)
	align := llvm.ConstInt(c.ctx.Int64Type(), 8, false)
	raw := c.builder.CreateCall(c.runtime["gc_alloc_actor"], []llvm.Value{size, align}, "")
	return c.builder.CreateBitCast(raw, llvm.PointerType(t, 0), "")
}

