package llvmgen

import (
	"fmt"
	"strconv"

	"tinygo.org/x/go-llvm"

	"github.com/snowdamiz/meshc/internal/mir"
)

// emitExpr is the core recursive expression-emission switch (spec.md
// §4.6's "compile body" step): every mir.Expr kind lowers to an LLVM
// value (or, for block-terminating nodes like Return/TCE branches, to a
// nil llvm.Value the caller must not use further).
func (c *Compiler) emitExpr(scope *funcScope, e mir.Expr) (llvm.Value, error) {
	switch n := e.(type) {
	case *mir.Var:
		return c.emitVar(scope, n)

	case *mir.IntLit:
		return llvm.ConstInt(c.ctx.Int64Type(), uint64(n.Value), true), nil

	case *mir.FloatLit:
		return llvm.ConstFloat(c.ctx.DoubleType(), n.Value), nil

	case *mir.BoolLit:
		v := uint64(0)
		if n.Value {
			v = 1
		}
		return llvm.ConstInt(c.ctx.Int1Type(), v, false), nil

	case *mir.StringLit:
		return c.globalString(n.Value), nil

	case *mir.UnitLit:
		return llvm.ConstNull(c.unitType), nil

	case *mir.MakeClosure:
		return c.emitMakeClosure(scope, n)

	case *mir.Lambda:
		return llvm.Value{}, fmt.Errorf("llvmgen: un-converted lambda reached codegen (ConvertClosures should have lifted it)")

	case *mir.While:
		return c.emitWhile(scope, n)

	case *mir.Return:
		return c.emitReturnExpr(scope, n)

	case *mir.Let:
		return c.emitLet(scope, n)

	case *mir.Call:
		return c.emitCall(scope, n)

	case *mir.If:
		return c.emitIf(scope, n)

	case *mir.Match:
		scrut, err := c.emitExpr(scope, n.Scrutinee)
		if err != nil {
			return llvm.Value{}, err
		}
		return c.emitDecisionTree(scope, n.Tree, scrut)

	case *mir.BinOp:
		return c.emitBinOp(scope, n)

	case *mir.UnOp:
		return c.emitUnOp(scope, n)

	case *mir.StructLit:
		return c.emitStructLit(scope, n)

	case *mir.FieldAccess:
		return c.emitFieldAccess(scope, n)

	case *mir.Index:
		return c.emitIndex(scope, n)

	case *mir.ListLit:
		return c.emitListLit(scope, n)

	case *mir.TupleLit:
		return c.emitTupleLit(scope, n)

	case *mir.ConstructVariant:
		return c.emitConstructVariant(scope, n)

	case *mir.Spawn:
		return c.emitSpawn(scope, n)

	case *mir.Send:
		return c.emitSend(scope, n)

	case *mir.Receive:
		return c.emitReceive(scope, n)

	default:
		return llvm.Value{}, fmt.Errorf("llvmgen: unhandled MIR expression %T", e)
	}
}

func (c *Compiler) emitVar(scope *funcScope, v *mir.Var) (llvm.Value, error) {
	if alloca, ok := scope.vars[v.Name]; ok {
		return c.builder.CreateLoad(alloca, v.Name), nil
	}

	if llfn, ok := c.funcs[v.Name]; ok {
		return llfn, nil
	}

	return llvm.Value{}, fmt.Errorf("llvmgen: unresolved name %q", v.Name)
}

// emitMakeClosure packs FnName's captures into a GC-allocated environment
// array of opaque pointers and returns the {code_ptr, env_ptr} fat
// pointer (spec.md §4.6 "Closure = {code_ptr, env_ptr}").
func (c *Compiler) emitMakeClosure(scope *funcScope, mk *mir.MakeClosure) (llvm.Value, error) {
	ptrI8 := llvm.PointerType(c.ctx.Int8Type(), 0)

	n := len(mk.Captures)
	arrType := llvm.ArrayType(ptrI8, maxInt(n, 1))

	envRaw := c.gcAllocRaw(arrType)
	envTyped := c.builder.CreateBitCast(envRaw, llvm.PointerType(arrType, 0), "")

	for i := range mk.Captures {
		capture := mk.Captures[i]
		val, err := c.emitVar(scope, &capture)
		if err != nil {
			return llvm.Value{}, err
		}

		coerced := c.coerce(val, ptrI8)
		slot := c.builder.CreateGEP(envTyped, []llvm.Value{
			llvm.ConstInt(c.ctx.Int32Type(), 0, false),
			llvm.ConstInt(c.ctx.Int32Type(), uint64(i), false),
		}, "")
		c.builder.CreateStore(coerced, slot)
	}

	codePtr := c.builder.CreateBitCast(c.funcs[mk.FnName], ptrI8, "")

	closureVal := llvm.ConstNull(c.closureType)
	closureVal = c.builder.CreateInsertValue(closureVal, codePtr, 0, "")
	closureVal = c.builder.CreateInsertValue(closureVal, envRaw, 1, "")

	return closureVal, nil
}

func (c *Compiler) gcAllocRaw(t llvm.Type) llvm.Value {
	size := llvm.ConstInt(c.ctx.Int64Type(), uint64(c.typeSizeBytes(t)), false)
	align := llvm.ConstInt(c.ctx.Int64Type(), 8, false)
	return c.builder.CreateCall(c.runtime["gc_alloc_actor"], []llvm.Value{size, align}, "")
}

// emitWhile lowers both the surface `while` loop and the desugared
// `for` comprehension's accumulator form (spec.md §4.4 step 2); a
// reduction check is emitted at the loop's back-edge (spec.md §5).
func (c *Compiler) emitWhile(scope *funcScope, w *mir.While) (llvm.Value, error) {
	if w.Acc != "" {
		initVal, err := c.emitExpr(scope, w.AccInit)
		if err != nil {
			return llvm.Value{}, err
		}
		alloca := c.builder.CreateAlloca(initVal.Type(), w.Acc)
		c.builder.CreateStore(initVal, alloca)
		scope.vars[w.Acc] = alloca
	}

	condBB := llvm.AddBasicBlock(scope.llfn, "while.cond")
	bodyBB := llvm.AddBasicBlock(scope.llfn, "while.body")
	endBB := llvm.AddBasicBlock(scope.llfn, "while.end")

	c.builder.CreateBr(condBB)
	c.builder.SetInsertPointAtEnd(condBB)

	condVal, err := c.emitExpr(scope, w.Cond)
	if err != nil {
		return llvm.Value{}, err
	}
	c.builder.CreateCondBr(condVal, bodyBB, endBB)

	c.builder.SetInsertPointAtEnd(bodyBB)
	if _, err := c.emitExpr(scope, w.Body); err != nil {
		return llvm.Value{}, err
	}
	if !blockTerminated(c.builder.GetInsertBlock()) {
		c.builder.CreateCall(c.runtime["reduction_check"], nil, "")
		c.builder.CreateBr(condBB)
	}

	c.builder.SetInsertPointAtEnd(endBB)

	if w.Acc != "" {
		return c.builder.CreateLoad(scope.vars[w.Acc], ""), nil
	}

	return llvm.ConstNull(c.unitType), nil
}

func (c *Compiler) emitReturnExpr(scope *funcScope, r *mir.Return) (llvm.Value, error) {
	val, err := c.emitExpr(scope, r.Value)
	if err != nil {
		return llvm.Value{}, err
	}

	c.emitReturn(scope.fn.RetType, val)

	return llvm.Value{}, nil
}

func (c *Compiler) emitLet(scope *funcScope, l *mir.Let) (llvm.Value, error) {
	val, err := c.emitExpr(scope, l.Value)
	if err != nil {
		return llvm.Value{}, err
	}

	if blockTerminated(c.builder.GetInsertBlock()) {
		return llvm.Value{}, nil
	}

	if l.Name != "" && l.Name != "_" {
		alloca := c.builder.CreateAlloca(val.Type(), l.Name)
		c.builder.CreateStore(val, alloca)
		scope.vars[l.Name] = alloca
	}

	if l.Body == nil {
		return val, nil
	}

	return c.emitExpr(scope, l.Body)
}

func (c *Compiler) emitIf(scope *funcScope, i *mir.If) (llvm.Value, error) {
	cond, err := c.emitExpr(scope, i.Cond)
	if err != nil {
		return llvm.Value{}, err
	}

	thenBB := llvm.AddBasicBlock(scope.llfn, "if.then")
	elseBB := llvm.AddBasicBlock(scope.llfn, "if.else")
	joinBB := llvm.AddBasicBlock(scope.llfn, "if.join")

	c.builder.CreateCondBr(cond, thenBB, elseBB)

	c.builder.SetInsertPointAtEnd(thenBB)
	thenVal, err := c.emitExpr(scope, i.Then)
	if err != nil {
		return llvm.Value{}, err
	}
	thenEnd := c.builder.GetInsertBlock()
	thenTerminated := blockTerminated(thenEnd)
	if !thenTerminated {
		c.builder.CreateBr(joinBB)
	}

	c.builder.SetInsertPointAtEnd(elseBB)
	elseVal, err := c.emitExpr(scope, i.Else)
	if err != nil {
		return llvm.Value{}, err
	}
	elseEnd := c.builder.GetInsertBlock()
	elseTerminated := blockTerminated(elseEnd)
	if !elseTerminated {
		c.builder.CreateBr(joinBB)
	}

	c.builder.SetInsertPointAtEnd(joinBB)

	if thenTerminated && elseTerminated {
		c.builder.CreateUnreachable()
		return llvm.Value{}, nil
	}
	if thenTerminated {
		return elseVal, nil
	}
	if elseTerminated {
		return thenVal, nil
	}

	phi := c.builder.CreatePHI(thenVal.Type(), "if.result")
	phi.AddIncoming([]llvm.Value{thenVal, elseVal}, []llvm.BasicBlock{thenEnd, elseEnd})
	return phi, nil
}

// emitCall distinguishes a direct call to a known top-level function from
// a closure call through a fat pointer, and lowers a marked self-
// recursive Tail call into the enclosing function's TCE loop instead of
// an actual call instruction (spec.md §4.4 step 5, §4.6 "TailCall two-
// phase staging").
func (c *Compiler) emitCall(scope *funcScope, call *mir.Call) (llvm.Value, error) {
	if fnVar, ok := call.Func.(*mir.Var); ok {
		if _, isLocal := scope.vars[fnVar.Name]; !isLocal {
			if target, ok := c.funcs[fnVar.Name]; ok {
				return c.emitDirectCall(scope, call, fnVar.Name, target)
			}
		}
	}

	return c.emitClosureCall(scope, call)
}

func (c *Compiler) emitDirectCall(scope *funcScope, call *mir.Call, name string, target llvm.Value) (llvm.Value, error) {
	targetMIR := c.funcMIR[name]

	args := make([]llvm.Value, len(call.Args))
	for i, a := range call.Args {
		v, err := c.emitExpr(scope, a)
		if err != nil {
			return llvm.Value{}, err
		}
		if targetMIR != nil && i < len(targetMIR.Params) {
			v = c.coerce(v, c.llvmType(targetMIR.Params[i].Ty))
		}
		args[i] = v
	}

	if call.Tail && scope.fn.HasTailCalls && name == scope.fn.Name && !scope.tceHeader.IsNil() {
		for i, p := range scope.fn.Params {
			c.builder.CreateStore(args[i], scope.vars[p.Name])
		}
		c.builder.CreateCall(c.runtime["reduction_check"], nil, "")
		c.builder.CreateBr(scope.tceHeader)
		return llvm.Value{}, nil
	}

	result := c.builder.CreateCall(target, args, "")
	c.builder.CreateCall(c.runtime["reduction_check"], nil, "")

	return result, nil
}

func (c *Compiler) emitClosureCall(scope *funcScope, call *mir.Call) (llvm.Value, error) {
	closureVal, err := c.emitExpr(scope, call.Func)
	if err != nil {
		return llvm.Value{}, err
	}

	codePtr := c.builder.CreateExtractValue(closureVal, 0, "")
	envPtr := c.builder.CreateExtractValue(closureVal, 1, "")

	ptrI8 := llvm.PointerType(c.ctx.Int8Type(), 0)
	argTypes := []llvm.Type{ptrI8}
	args := []llvm.Value{envPtr}

	for _, a := range call.Args {
		v, err := c.emitExpr(scope, a)
		if err != nil {
			return llvm.Value{}, err
		}
		argTypes = append(argTypes, v.Type())
		args = append(args, v)
	}

	fnType := llvm.FunctionType(c.llvmType(call.Type()), argTypes, false)
	castFn := c.builder.CreateBitCast(codePtr, llvm.PointerType(fnType, 0), "")

	result := c.builder.CreateCall(castFn, args, "")
	c.builder.CreateCall(c.runtime["reduction_check"], nil, "")

	return result, nil
}

func (c *Compiler) emitBinOp(scope *funcScope, b *mir.BinOp) (llvm.Value, error) {
	lhs, err := c.emitExpr(scope, b.Left)
	if err != nil {
		return llvm.Value{}, err
	}
	rhs, err := c.emitExpr(scope, b.Right)
	if err != nil {
		return llvm.Value{}, err
	}

	isFloat := lhs.Type().TypeKind() == llvm.DoubleTypeKind
	isPtr := lhs.Type().TypeKind() == llvm.PointerTypeKind

	switch b.Op {
	case "+":
		switch {
		case isPtr:
			return c.builder.CreateCall(c.runtime["mesh_string_concat"], []llvm.Value{lhs, rhs}, ""), nil
		case isFloat:
			return c.builder.CreateFAdd(lhs, rhs, ""), nil
		default:
			return c.builder.CreateAdd(lhs, rhs, ""), nil
		}
	case "-":
		if isFloat {
			return c.builder.CreateFSub(lhs, rhs, ""), nil
		}
		return c.builder.CreateSub(lhs, rhs, ""), nil
	case "*":
		if isFloat {
			return c.builder.CreateFMul(lhs, rhs, ""), nil
		}
		return c.builder.CreateMul(lhs, rhs, ""), nil
	case "/":
		if isFloat {
			return c.builder.CreateFDiv(lhs, rhs, ""), nil
		}
		return c.builder.CreateSDiv(lhs, rhs, ""), nil
	case "%":
		if isFloat {
			return c.builder.CreateFRem(lhs, rhs, ""), nil
		}
		return c.builder.CreateSRem(lhs, rhs, ""), nil
	case "==":
		if isPtr {
			return c.builder.CreateCall(c.runtime["mesh_string_eq"], []llvm.Value{lhs, rhs}, ""), nil
		}
		if isFloat {
			return c.builder.CreateFCmp(llvm.FloatOEQ, lhs, rhs, ""), nil
		}
		return c.builder.CreateICmp(llvm.IntEQ, lhs, rhs, ""), nil
	case "!=":
		if isFloat {
			return c.builder.CreateFCmp(llvm.FloatONE, lhs, rhs, ""), nil
		}
		return c.builder.CreateICmp(llvm.IntNE, lhs, rhs, ""), nil
	case "<":
		if isFloat {
			return c.builder.CreateFCmp(llvm.FloatOLT, lhs, rhs, ""), nil
		}
		return c.builder.CreateICmp(llvm.IntSLT, lhs, rhs, ""), nil
	case "<=":
		if isFloat {
			return c.builder.CreateFCmp(llvm.FloatOLE, lhs, rhs, ""), nil
		}
		return c.builder.CreateICmp(llvm.IntSLE, lhs, rhs, ""), nil
	case ">":
		if isFloat {
			return c.builder.CreateFCmp(llvm.FloatOGT, lhs, rhs, ""), nil
		}
		return c.builder.CreateICmp(llvm.IntSGT, lhs, rhs, ""), nil
	case ">=":
		if isFloat {
			return c.builder.CreateFCmp(llvm.FloatOGE, lhs, rhs, ""), nil
		}
		return c.builder.CreateICmp(llvm.IntSGE, lhs, rhs, ""), nil
	case "&&":
		return c.builder.CreateAnd(lhs, rhs, ""), nil
	case "||":
		return c.builder.CreateOr(lhs, rhs, ""), nil
	default:
		return llvm.Value{}, fmt.Errorf("llvmgen: unhandled binary operator %q", b.Op)
	}
}

func (c *Compiler) emitUnOp(scope *funcScope, u *mir.UnOp) (llvm.Value, error) {
	val, err := c.emitExpr(scope, u.Operand)
	if err != nil {
		return llvm.Value{}, err
	}

	switch u.Op {
	case "-":
		if val.Type().TypeKind() == llvm.DoubleTypeKind {
			return c.builder.CreateFNeg(val, ""), nil
		}
		return c.builder.CreateNeg(val, ""), nil
	case "!":
		return c.builder.CreateNot(val, ""), nil
	default:
		return llvm.Value{}, fmt.Errorf("llvmgen: unhandled unary operator %q", u.Op)
	}
}

// emitStructLit builds a struct value via insertvalue; when Fields
// carries the reserved accessBaseMarker key (struct-update syntax), the
// base struct's value seeds every field not explicitly overridden
// (internal/mir/build.go's StructUpdate-to-StructLit flattening).
func (c *Compiler) emitStructLit(scope *funcScope, s *mir.StructLit) (llvm.Value, error) {
	layout, ok := c.structInfo[s.TypeName]
	if !ok {
		return llvm.Value{}, fmt.Errorf("llvmgen: unknown struct type %q", s.TypeName)
	}

	result := llvm.ConstNull(c.structTypes[s.TypeName])

	if base, ok := s.Fields[mirAccessBaseMarker]; ok {
		baseVal, err := c.emitExpr(scope, base)
		if err != nil {
			return llvm.Value{}, err
		}
		result = baseVal
	}

	for i, name := range layout.fieldOrder {
		fe, ok := s.Fields[name]
		if !ok {
			continue
		}

		v, err := c.emitExpr(scope, fe)
		if err != nil {
			return llvm.Value{}, err
		}

		result = c.builder.CreateInsertValue(result, c.coerce(v, layout.fieldTypes[name]), i, "")
	}

	return result, nil
}

// mirAccessBaseMarker mirrors internal/mir/build.go's unexported
// accessBaseMarker constant; duplicated here since that identifier isn't
// exported across the package boundary.
const mirAccessBaseMarker = "\x00base"

func (c *Compiler) emitFieldAccess(scope *funcScope, fa *mir.FieldAccess) (llvm.Value, error) {
	if v, ok := fa.Receiver.(*mir.Var); ok && v.Name == "__env" {
		return c.emitEnvFieldAccess(scope, fa.Field)
	}

	recv, err := c.emitExpr(scope, fa.Receiver)
	if err != nil {
		return llvm.Value{}, err
	}

	idx := c.structFieldIndex(recv.Type(), fa.Field)
	return c.builder.CreateExtractValue(recv, idx, ""), nil
}

func (c *Compiler) emitEnvFieldAccess(scope *funcScope, field string) (llvm.Value, error) {
	order := c.closureCaptures[scope.fn.Name]
	idx := -1
	for i, name := range order {
		if name == field {
			idx = i
			break
		}
	}
	if idx < 0 {
		return llvm.Value{}, fmt.Errorf("llvmgen: capture %q not found for closure %q", field, scope.fn.Name)
	}

	envAlloca := scope.vars["__env"]
	envVal := c.builder.CreateLoad(envAlloca, "")

	ptrI8 := llvm.PointerType(c.ctx.Int8Type(), 0)
	arrType := llvm.ArrayType(ptrI8, maxInt(len(order), 1))
	typed := c.builder.CreateBitCast(envVal, llvm.PointerType(arrType, 0), "")

	slot := c.builder.CreateGEP(typed, []llvm.Value{
		llvm.ConstInt(c.ctx.Int32Type(), 0, false),
		llvm.ConstInt(c.ctx.Int32Type(), uint64(idx), false),
	}, "")

	return c.builder.CreateLoad(slot, ""), nil
}

func (c *Compiler) emitIndex(scope *funcScope, idx *mir.Index) (llvm.Value, error) {
	recv, err := c.emitExpr(scope, idx.Receiver)
	if err != nil {
		return llvm.Value{}, err
	}
	key, err := c.emitExpr(scope, idx.Index)
	if err != nil {
		return llvm.Value{}, err
	}

	return c.builder.CreateCall(c.runtime["mesh_index"], []llvm.Value{recv, c.coerce(key, llvm.PointerType(c.ctx.Int8Type(), 0))}, ""), nil
}

func (c *Compiler) emitListLit(scope *funcScope, l *mir.ListLit) (llvm.Value, error) {
	list := c.builder.CreateCall(c.runtime["mesh_list_new"], nil, "")
	ptrI8 := llvm.PointerType(c.ctx.Int8Type(), 0)

	for _, el := range l.Elements {
		v, err := c.emitExpr(scope, el)
		if err != nil {
			return llvm.Value{}, err
		}
		c.builder.CreateCall(c.runtime["mesh_list_push"], []llvm.Value{list, c.coerce(v, ptrI8)}, "")
	}

	return list, nil
}

func (c *Compiler) emitTupleLit(scope *funcScope, t *mir.TupleLit) (llvm.Value, error) {
	elemTypes := make([]llvm.Type, len(t.Elements))
	elemVals := make([]llvm.Value, len(t.Elements))

	for i, el := range t.Elements {
		v, err := c.emitExpr(scope, el)
		if err != nil {
			return llvm.Value{}, err
		}
		elemVals[i] = v
		elemTypes[i] = v.Type()
	}

	tupTy := c.ctx.StructType(elemTypes, false)
	result := llvm.ConstNull(tupTy)
	for i, v := range elemVals {
		result = c.builder.CreateInsertValue(result, v, i, "")
	}

	return result, nil
}

// emitConstructVariant builds the `{i8 tag, [N]i8 payload}` sum-type
// representation (spec.md §4.6): the variant's own field struct is
// materialized, then stored byte-for-byte into the payload array through
// a bitcast alloca.
func (c *Compiler) emitConstructVariant(scope *funcScope, cv *mir.ConstructVariant) (llvm.Value, error) {
	sumTy, ok := c.sumTypes[cv.TypeName]
	if !ok {
		return llvm.Value{}, fmt.Errorf("llvmgen: unknown sum type %q", cv.TypeName)
	}
	info := c.sumInfo[cv.TypeName]
	variant := info.variants[cv.Variant]

	payloadStructTy := c.ctx.StructType(variant.fieldTypes, false)
	payloadVal := llvm.ConstNull(payloadStructTy)

	for i, fe := range cv.Fields {
		v, err := c.emitExpr(scope, fe)
		if err != nil {
			return llvm.Value{}, err
		}
		payloadVal = c.builder.CreateInsertValue(payloadVal, c.coerce(v, variant.fieldTypes[i]), i, "")
	}

	payloadArrTy := llvm.ArrayType(c.ctx.Int8Type(), info.payloadSize)
	slot := c.builder.CreateAlloca(payloadArrTy, "")
	typedSlot := c.builder.CreateBitCast(slot, llvm.PointerType(payloadStructTy, 0), "")
	c.builder.CreateStore(payloadVal, typedSlot)
	payloadArr := c.builder.CreateLoad(slot, "")

	result := llvm.ConstNull(sumTy)
	result = c.builder.CreateInsertValue(result, llvm.ConstInt(c.ctx.Int8Type(), uint64(variant.tag), false), 0, "")
	result = c.builder.CreateInsertValue(result, payloadArr, 1, "")

	return result, nil
}

// emitSpawn packs Args into a GC-allocated tuple buffer and hands it to
// actor_spawn (spec.md §6 "actor_spawn(fn_ptr, args, args_size, priority)").
func (c *Compiler) emitSpawn(scope *funcScope, sp *mir.Spawn) (llvm.Value, error) {
	fnVar, ok := sp.Func.(*mir.Var)
	if !ok {
		return llvm.Value{}, fmt.Errorf("llvmgen: Spawn target must be a named function")
	}
	target, ok := c.funcs[fnVar.Name]
	if !ok {
		return llvm.Value{}, fmt.Errorf("llvmgen: spawn of unknown function %q", fnVar.Name)
	}

	argVals := make([]llvm.Value, len(sp.Args))
	argTypes := make([]llvm.Type, len(sp.Args))
	for i, a := range sp.Args {
		v, err := c.emitExpr(scope, a)
		if err != nil {
			return llvm.Value{}, err
		}
		argVals[i] = v
		argTypes[i] = v.Type()
	}

	argsTupleTy := c.ctx.StructType(argTypes, false)
	argsVal := llvm.ConstNull(argsTupleTy)
	for i, v := range argVals {
		argsVal = c.builder.CreateInsertValue(argsVal, v, i, "")
	}

	buf := c.gcAllocRaw(argsTupleTy)
	typedBuf := c.builder.CreateBitCast(buf, llvm.PointerType(argsTupleTy, 0), "")
	c.builder.CreateStore(argsVal, typedBuf)

	fnPtr := c.builder.CreateBitCast(target, llvm.PointerType(c.ctx.Int8Type(), 0), "")
	size := llvm.ConstInt(c.ctx.Int64Type(), uint64(c.typeSizeBytes(argsTupleTy)), false)
	priority := llvm.ConstInt(c.ctx.Int8Type(), 0, false)

	return c.builder.CreateCall(c.runtime["actor_spawn"], []llvm.Value{fnPtr, buf, size, priority}, ""), nil
}

func (c *Compiler) emitSend(scope *funcScope, s *mir.Send) (llvm.Value, error) {
	target, err := c.emitExpr(scope, s.Target)
	if err != nil {
		return llvm.Value{}, err
	}
	msg, err := c.emitExpr(scope, s.Message)
	if err != nil {
		return llvm.Value{}, err
	}

	ptrI8 := llvm.PointerType(c.ctx.Int8Type(), 0)
	msgBuf := c.gcAllocRaw(msg.Type())
	typedBuf := c.builder.CreateBitCast(msgBuf, llvm.PointerType(msg.Type(), 0), "")
	c.builder.CreateStore(msg, typedBuf)

	size := llvm.ConstInt(c.ctx.Int64Type(), uint64(c.typeSizeBytes(msg.Type())), false)

	c.builder.CreateCall(c.runtime["actor_send"], []llvm.Value{target, msgBuf, size}, "")

	_ = ptrI8

	return llvm.ConstNull(c.unitType), nil
}

// emitReceive calls actor_receive and dispatches the returned mailbox
// message pointer through the compiled decision tree, honoring an
// `after` timeout clause when present.
func (c *Compiler) emitReceive(scope *funcScope, r *mir.Receive) (llvm.Value, error) {
	timeout := llvm.ConstInt(c.ctx.Int64Type(), ^uint64(0), false)
	if r.AfterMs != nil {
		v, err := c.emitExpr(scope, r.AfterMs)
		if err != nil {
			return llvm.Value{}, err
		}
		timeout = v
	}

	msgPtr := c.builder.CreateCall(c.runtime["actor_receive"], []llvm.Value{timeout}, "")

	if r.AfterMs == nil {
		return c.emitDecisionTree(scope, r.Tree, msgPtr)
	}

	isTimeout := c.builder.CreateIsNull(msgPtr, "")

	timeoutBB := llvm.AddBasicBlock(scope.llfn, "receive.timeout")
	matchBB := llvm.AddBasicBlock(scope.llfn, "receive.match")
	joinBB := llvm.AddBasicBlock(scope.llfn, "receive.join")

	c.builder.CreateCondBr(isTimeout, timeoutBB, matchBB)

	c.builder.SetInsertPointAtEnd(timeoutBB)
	afterVal, err := c.emitExpr(scope, r.AfterBody)
	if err != nil {
		return llvm.Value{}, err
	}
	afterEnd := c.builder.GetInsertBlock()
	afterTerminated := blockTerminated(afterEnd)
	if !afterTerminated {
		c.builder.CreateBr(joinBB)
	}

	c.builder.SetInsertPointAtEnd(matchBB)
	matchVal, err := c.emitDecisionTree(scope, r.Tree, msgPtr)
	if err != nil {
		return llvm.Value{}, err
	}
	matchEnd := c.builder.GetInsertBlock()
	matchTerminated := blockTerminated(matchEnd)
	if !matchTerminated {
		c.builder.CreateBr(joinBB)
	}

	c.builder.SetInsertPointAtEnd(joinBB)

	if afterTerminated && matchTerminated {
		c.builder.CreateUnreachable()
		return llvm.Value{}, nil
	}
	if afterTerminated {
		return matchVal, nil
	}
	if matchTerminated {
		return afterVal, nil
	}

	phi := c.builder.CreatePHI(afterVal.Type(), "receive.result")
	phi.AddIncoming([]llvm.Value{afterVal, matchVal}, []llvm.BasicBlock{afterEnd, matchEnd})
	return phi, nil
}

func (c *Compiler) globalString(s string) llvm.Value {
	if g, ok := c.strings[s]; ok {
		return g
	}

	gv := llvm.AddGlobal(c.mod, llvm.ArrayType(c.ctx.Int8Type(), len(s)+1), c.fresh("str"))
	gv.SetInitializer(c.ctx.ConstString(s, true))
	gv.SetGlobalConstant(true)
	gv.SetLinkage(llvm.PrivateLinkage)

	ptr := llvm.ConstBitCast(gv, llvm.PointerType(c.ctx.Int8Type(), 0))
	c.strings[s] = ptr

	return ptr
}

func (c *Compiler) fresh(prefix string) string {
	c.stringCounter++
	return fmt.Sprintf(".%s.%d", prefix, c.stringCounter)
}

func (c *Compiler) constIntFromText(text string) llvm.Value {
	v, _ := strconv.ParseInt(text, 10, 64)
	return llvm.ConstInt(c.ctx.Int64Type(), uint64(v), true)
}

func (c *Compiler) constFloatFromText(text string) llvm.Value {
	v, _ := strconv.ParseFloat(text, 64)
	return llvm.ConstFloat(c.ctx.DoubleType(), v)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
