package llvmgen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/snowdamiz/meshc/internal/dtree"
	"github.com/snowdamiz/meshc/internal/mir"
	"github.com/snowdamiz/meshc/internal/typedast"
)

// emitDecisionTree walks a compiled dtree.Node and emits the switch/test/
// listdecons chain spec.md §4.5/§4.6 describe, loading each access path
// off scrutinee on demand rather than materializing every sub-value up
// front.
func (c *Compiler) emitDecisionTree(scope *funcScope, n dtree.Node, scrutinee llvm.Value) (llvm.Value, error) {
	switch t := n.(type) {
	case *dtree.Leaf:
		return c.emitLeaf(scope, t, scrutinee)

	case *dtree.Fail:
		c.emitPanic("non-exhaustive match")
		return llvm.Value{}, nil

	case *dtree.Switch:
		return c.emitSwitch(scope, t, scrutinee)

	case *dtree.Test:
		return c.emitTest(scope, t, scrutinee)

	case *dtree.ListDecons:
		return c.emitListDecons(scope, t, scrutinee)

	default:
		return llvm.Value{}, fmt.Errorf("llvmgen: unknown decision-tree node %T", n)
	}
}

// emitLeaf materializes every Binding visible at this Leaf (loading each
// off scrutinee via its AccessPath), branches past Guard when present
// (falling back to FailNext on failure, spec.md §4.5 step 2), then lowers
// and emits the arm body.
func (c *Compiler) emitLeaf(scope *funcScope, leaf *dtree.Leaf, scrutinee llvm.Value) (llvm.Value, error) {
	for _, bind := range leaf.Bindings {
		val := c.readAccessPath(scope, scrutinee, bind.Path)
		alloca := c.builder.CreateAlloca(val.Type(), bind.Name)
		c.builder.CreateStore(val, alloca)
		scope.vars[bind.Name] = alloca
	}

	body := mir.LeafBody(mir.NewBuilder(), leaf)

	if leaf.Guard == nil {
		return c.emitExpr(scope, body)
	}

	guardVal, err := c.emitExpr(scope, mir.LowerExpr(mir.NewBuilder(), leaf.Guard))
	if err != nil {
		return llvm.Value{}, err
	}

	thenBB := llvm.AddBasicBlock(scope.llfn, "guard.then")
	elseBB := llvm.AddBasicBlock(scope.llfn, "guard.else")
	joinBB := llvm.AddBasicBlock(scope.llfn, "guard.join")

	c.builder.CreateCondBr(guardVal, thenBB, elseBB)

	c.builder.SetInsertPointAtEnd(thenBB)
	thenVal, err := c.emitExpr(scope, body)
	if err != nil {
		return llvm.Value{}, err
	}
	var thenEnd llvm.BasicBlock
	if !blockTerminated(c.builder.GetInsertBlock()) {
		thenEnd = c.builder.GetInsertBlock()
		c.builder.CreateBr(joinBB)
	}

	c.builder.SetInsertPointAtEnd(elseBB)
	var elseVal llvm.Value
	if leaf.FailNext != nil {
		elseVal, err = c.emitDecisionTree(scope, leaf.FailNext, scrutinee)
		if err != nil {
			return llvm.Value{}, err
		}
	} else {
		c.emitPanic("guard failed with no alternative")
	}
	var elseEnd llvm.BasicBlock
	if !blockTerminated(c.builder.GetInsertBlock()) {
		elseEnd = c.builder.GetInsertBlock()
		c.builder.CreateBr(joinBB)
	}

	c.builder.SetInsertPointAtEnd(joinBB)

	if thenEnd.IsNil() && elseEnd.IsNil() {
		return llvm.Value{}, nil
	}
	if thenEnd.IsNil() {
		return elseVal, nil
	}
	if elseEnd.IsNil() {
		return thenVal, nil
	}

	phi := c.builder.CreatePHI(thenVal.Type(), "guard.result")
	phi.AddIncoming([]llvm.Value{thenVal, elseVal}, []llvm.BasicBlock{thenEnd, elseEnd})
	return phi, nil
}

// emitSwitch reads the tag byte at Path and dispatches on it (spec.md
// §4.5 "cases keyed by the variant's declared tag").
func (c *Compiler) emitSwitch(scope *funcScope, sw *dtree.Switch, scrutinee llvm.Value) (llvm.Value, error) {
	tag := c.readTag(scope, scrutinee, sw.Path)

	defaultBB := llvm.AddBasicBlock(scope.llfn, "switch.default")
	joinBB := llvm.AddBasicBlock(scope.llfn, "switch.join")

	sv := c.builder.CreateSwitch(tag, defaultBB, len(sw.Cases))

	type arm struct {
		bb  llvm.BasicBlock
		val llvm.Value
	}
	var arms []arm

	for tagVal, sub := range sw.Cases {
		caseBB := llvm.AddBasicBlock(scope.llfn, "switch.case")
		c.builder.SetInsertPointAtEnd(caseBB)

		v, err := c.emitDecisionTree(scope, sub, scrutinee)
		if err != nil {
			return llvm.Value{}, err
		}
		if !blockTerminated(c.builder.GetInsertBlock()) {
			arms = append(arms, arm{bb: c.builder.GetInsertBlock(), val: v})
			c.builder.CreateBr(joinBB)
		}

		sv.AddCase(llvm.ConstInt(c.ctx.Int8Type(), uint64(tagVal), false), caseBB)
	}

	c.builder.SetInsertPointAtEnd(defaultBB)
	var defaultVal llvm.Value
	var defaultErr error
	if sw.Default != nil {
		defaultVal, defaultErr = c.emitDecisionTree(scope, sw.Default, scrutinee)
	} else {
		c.emitPanic("non-exhaustive match")
	}
	if defaultErr != nil {
		return llvm.Value{}, defaultErr
	}
	if !blockTerminated(c.builder.GetInsertBlock()) {
		arms = append(arms, arm{bb: c.builder.GetInsertBlock(), val: defaultVal})
		c.builder.CreateBr(joinBB)
	}

	c.builder.SetInsertPointAtEnd(joinBB)

	if len(arms) == 0 {
		return llvm.Value{}, nil
	}

	phi := c.builder.CreatePHI(arms[0].val.Type(), "switch.result")
	for _, a := range arms {
		phi.AddIncoming([]llvm.Value{a.val}, []llvm.BasicBlock{a.bb})
	}
	return phi, nil
}

// emitTest is one link of the right-to-left literal-equality chain
// (spec.md §4.5 step 6).
func (c *Compiler) emitTest(scope *funcScope, t *dtree.Test, scrutinee llvm.Value) (llvm.Value, error) {
	val := c.readAccessPath(scope, scrutinee, t.Path)

	var cond llvm.Value
	switch t.Kind {
	case typedast.LitInt:
		cond = c.builder.CreateICmp(llvm.IntEQ, val, c.constIntFromText(t.Value), "")
	case typedast.LitFloat:
		cond = c.builder.CreateFCmp(llvm.FloatOEQ, val, c.constFloatFromText(t.Value), "")
	case typedast.LitBool:
		want := uint64(0)
		if t.Value == "true" {
			want = 1
		}
		cond = c.builder.CreateICmp(llvm.IntEQ, val, llvm.ConstInt(c.ctx.Int1Type(), want, false), "")
	case typedast.LitString:
		lit := c.globalString(t.Value)
		cond = c.builder.CreateCall(c.runtime["mesh_string_eq"], []llvm.Value{val, lit}, "")
	default:
		cond = llvm.ConstInt(c.ctx.Int1Type(), 1, false)
	}

	thenBB := llvm.AddBasicBlock(scope.llfn, "test.then")
	elseBB := llvm.AddBasicBlock(scope.llfn, "test.else")
	joinBB := llvm.AddBasicBlock(scope.llfn, "test.join")

	c.builder.CreateCondBr(cond, thenBB, elseBB)

	c.builder.SetInsertPointAtEnd(thenBB)
	thenVal, err := c.emitDecisionTree(scope, t.Then, scrutinee)
	if err != nil {
		return llvm.Value{}, err
	}
	thenEnd := c.builder.GetInsertBlock()
	thenTerminated := blockTerminated(thenEnd)
	if !thenTerminated {
		c.builder.CreateBr(joinBB)
	}

	c.builder.SetInsertPointAtEnd(elseBB)
	elseVal, err := c.emitDecisionTree(scope, t.Else, scrutinee)
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
		return llvm.Value{}, nil
	}
	if thenTerminated {
		return elseVal, nil
	}
	if elseTerminated {
		return thenVal, nil
	}

	phi := c.builder.CreatePHI(thenVal.Type(), "test.result")
	phi.AddIncoming([]llvm.Value{thenVal, elseVal}, []llvm.BasicBlock{thenEnd, elseEnd})
	return phi, nil
}

// emitListDecons splits scrutinee's list value at Path into a non-empty
// (head/tail readable) branch or the empty default, tested via the
// runtime's length intrinsic (spec.md §4.5 step 6, §4.6 "ListDecons: runtime
// list-length intrinsic").
func (c *Compiler) emitListDecons(scope *funcScope, d *dtree.ListDecons, scrutinee llvm.Value) (llvm.Value, error) {
	listVal := c.readAccessPath(scope, scrutinee, d.Path)
	length := c.builder.CreateCall(c.runtime["mesh_list_len"], []llvm.Value{listVal}, "")
	nonEmpty := c.builder.CreateICmp(llvm.IntSGT, length, llvm.ConstInt(c.ctx.Int64Type(), 0, false), "")

	thenBB := llvm.AddBasicBlock(scope.llfn, "decons.nonempty")
	elseBB := llvm.AddBasicBlock(scope.llfn, "decons.empty")
	joinBB := llvm.AddBasicBlock(scope.llfn, "decons.join")

	c.builder.CreateCondBr(nonEmpty, thenBB, elseBB)

	c.builder.SetInsertPointAtEnd(thenBB)
	thenVal, err := c.emitDecisionTree(scope, d.NonEmpty, scrutinee)
	if err != nil {
		return llvm.Value{}, err
	}
	thenEnd := c.builder.GetInsertBlock()
	thenTerminated := blockTerminated(thenEnd)
	if !thenTerminated {
		c.builder.CreateBr(joinBB)
	}

	c.builder.SetInsertPointAtEnd(elseBB)
	elseVal, err := c.emitDecisionTree(scope, d.Empty, scrutinee)
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
		return llvm.Value{}, nil
	}
	if thenTerminated {
		return elseVal, nil
	}
	if elseTerminated {
		return thenVal, nil
	}

	phi := c.builder.CreatePHI(thenVal.Type(), "decons.result")
	phi.AddIncoming([]llvm.Value{thenVal, elseVal}, []llvm.BasicBlock{thenEnd, elseEnd})
	return phi, nil
}

// readAccessPath walks path off scrutinee, resolving ListHead/ListTail
// through runtime calls and Tuple/Variant/Struct fields through
// extractvalue on the appropriate (possibly bitcast) aggregate.
func (c *Compiler) readAccessPath(scope *funcScope, scrutinee llvm.Value, path dtree.AccessPath) llvm.Value {
	cur := scrutinee

	for _, op := range path {
		switch op.Kind {
		case dtree.TupleField:
			cur = c.builder.CreateExtractValue(cur, op.Index, "")

		case dtree.StructFieldOp:
			idx := c.structFieldIndex(cur.Type(), op.Name)
			cur = c.builder.CreateExtractValue(cur, idx, "")

		case dtree.VariantField:
			payload := c.builder.CreateExtractValue(cur, 1, "") // [N]i8 payload array
			slot := c.builder.CreateAlloca(payload.Type(), "")
			c.builder.CreateStore(payload, slot)
			// The field's own type isn't known at this generic access-path
			// level (it is recovered by the caller's Leaf binding type);
			// load it back as a generic i64 slot and let coerce() fix it up
			// at the point of use, mirroring how func.go already coerces
			// ptr<->struct<->int mismatches introduced elsewhere.
			word := c.builder.CreateBitCast(slot, llvm.PointerType(c.ctx.Int64Type(), 0), "")
			cur = c.builder.CreateLoad(word, "")
			_ = op.Index

		case dtree.ListHead:
			cur = c.builder.CreateCall(c.runtime["mesh_list_head"], []llvm.Value{cur}, "")

		case dtree.ListTail:
			cur = c.builder.CreateCall(c.runtime["mesh_list_tail"], []llvm.Value{cur}, "")
		}
	}

	return cur
}

// readTag loads the i8 discriminant at path (an empty path means
// scrutinee itself is the sum-type value).
func (c *Compiler) readTag(scope *funcScope, scrutinee llvm.Value, path dtree.AccessPath) llvm.Value {
	val := c.readAccessPath(scope, scrutinee, path)
	return c.builder.CreateExtractValue(val, 0, "tag")
}

// structFieldIndex resolves name to its positional index within t's
// declared field order, identifying which struct t is by matching LLVM
// type identity against the structTypes cache buildLayouts populated.
func (c *Compiler) structFieldIndex(t llvm.Type, name string) int {
	for typeName, llt := range c.structTypes {
		if llt != t {
			continue
		}
		info := c.structInfo[typeName]
		for i, f := range info.fieldOrder {
			if f == name {
				return i
			}
		}
	}
	return 0
}

func (c *Compiler) emitPanic(msg string) {
	gmsg := c.globalString(msg)
	gfile := c.globalString("<generated>")
	c.builder.CreateCall(c.runtime["panic"], []llvm.Value{
		gmsg, llvm.ConstInt(c.ctx.Int64Type(), uint64(len(msg)), false),
		gfile, llvm.ConstInt(c.ctx.Int64Type(), 11, false),
		llvm.ConstInt(c.ctx.Int32Type(), 0, false),
	}, "")
	c.builder.CreateUnreachable()
}
