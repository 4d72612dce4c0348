package llvmgen

import (
	"strings"

	"tinygo.org/x/go-llvm"
)

// emitMainWrapper builds the C-ABI `main(argc, argv)` entry point (spec.md
// §4.6 "main wrapper"), grounded on other_examples/hhramberg-go-vslc's
// genMain: rt_init, then rt_init_actor, then register every spawnable
// top-level function by name so a remote node can address it by symbol,
// call the program's entry function on the main thread, then block in
// rt_run_scheduler until every actor has terminated.
func (c *Compiler) emitMainWrapper(entry llvm.Value) error {
	i32 := c.ctx.Int32Type()
	i64 := c.ctx.Int64Type()
	ptrI8 := llvm.PointerType(c.ctx.Int8Type(), 0)

	mainTy := llvm.FunctionType(i32, []llvm.Type{i32, llvm.PointerType(ptrI8, 0)}, false)
	mainFn := llvm.AddFunction(c.mod, "main", mainTy)

	entryBB := llvm.AddBasicBlock(mainFn, "entry")
	c.builder.SetInsertPointAtEnd(entryBB)

	c.builder.CreateCall(c.runtime["rt_init"], nil, "")
	c.builder.CreateCall(c.runtime["rt_init_actor"], []llvm.Value{llvm.ConstInt(i32, 0, false)}, "")

	for _, fn := range c.prog.Funcs {
		if fn.IsClosure || strings.HasPrefix(fn.Name, "__") {
			continue
		}

		namePtr := c.globalString(fn.Name)
		fnPtr := c.builder.CreateBitCast(c.funcs[fn.Name], ptrI8, "")
		c.builder.CreateCall(c.runtime["register_function"], []llvm.Value{
			namePtr, llvm.ConstInt(i64, uint64(len(fn.Name)), false), fnPtr,
		}, "")
	}

	c.builder.CreateCall(entry, nil, "")
	c.builder.CreateCall(c.runtime["rt_run_scheduler"], nil, "")
	c.builder.CreateRet(llvm.ConstInt(i32, 0, false))

	return nil
}
