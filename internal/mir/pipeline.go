package mir

import "github.com/snowdamiz/meshc/internal/typedast"

// Compile runs the full MIR pipeline over one typed file (spec.md §4.4):
// lowering with inline desugaring, monomorphization to a fixpoint, closure
// conversion, and tail-call marking, in that order — each later pass
// assumes the shape the one before it produces (closure conversion must
// run after monomorphization clones a generic closure-capturing function,
// and tail-call marking must run last since specialization and closure
// lifting both introduce or rename Funcs).
func Compile(file *typedast.File) *Program {
	RegisterSumTypes(file.SumTypes)

	prog := Lower(file)

	Monomorphize(prog)
	ConvertClosures(prog)
	MarkTailCalls(prog)

	return prog
}
