package llvmgen

import (
	"tinygo.org/x/go-llvm"

	"github.com/snowdamiz/meshc/internal/types"
)

// structLayout records a struct's LLVM field order, needed to turn a
// mir.StructLit's name->value map into positional insertvalue indices.
type structLayout struct {
	fieldOrder []string
	fieldTypes map[string]llvm.Type
}

// sumLayout records a sum type's variant tags and per-variant field
// layouts so ConstructVariant/decision-tree codegen can build and read
// the `{i8 tag, [N]i8 payload}` representation (spec.md §4.6).
type sumLayout struct {
	payloadSize int // bytes, max across variants
	variants    map[string]*variantLayout
}

type variantLayout struct {
	tag        int
	fieldTypes []llvm.Type
}

// opaqueCollectionHeads are the builtin type constructors whose values
// are always runtime-owned opaque pointers (spec.md §4.6 "Strings, lists,
// maps, sets, queues, JSON, HTTP types: opaque ptr").
var opaqueCollectionHeads = map[string]bool{
	"List": true, "Map": true, "Set": true, "Range": true, "Queue": true,
	"Json": true, "Http": true, "Sql": true, "String": true,
}

// buildLayouts declares every struct and sum type as an opaque named
// LLVM struct, then fills in bodies once every name is available — two
// passes are required because struct/sum-type fields can reference each
// other (spec.md §4.6 "Struct: LLVM opaque struct").
func (c *Compiler) buildLayouts() {
	for _, si := range c.prog.Structs {
		c.structTypes[si.Name] = c.ctx.StructCreateNamed(si.Name)
	}
	for _, st := range c.prog.SumTypes {
		c.sumTypes[st.Name] = c.ctx.StructCreateNamed(st.Name)
	}

	for _, si := range c.prog.Structs {
		layout := &structLayout{fieldTypes: map[string]llvm.Type{}}
		fieldLLVM := make([]llvm.Type, len(si.Fields))

		for i, f := range si.Fields {
			ft := c.llvmType(f.Type)
			fieldLLVM[i] = ft
			layout.fieldOrder = append(layout.fieldOrder, f.Name)
			layout.fieldTypes[f.Name] = ft
		}

		c.structTypes[si.Name].StructSetBody(fieldLLVM, false)
		c.structInfo[si.Name] = layout
	}

	for _, st := range c.prog.SumTypes {
		layout := &sumLayout{variants: map[string]*variantLayout{}}

		for _, v := range st.Variants {
			fts := make([]llvm.Type, len(v.Fields))
			size := 0
			for i, fty := range v.Fields {
				fts[i] = c.llvmType(fty)
				size += c.typeSizeBytes(fts[i])
			}
			layout.variants[v.Name] = &variantLayout{tag: v.Tag, fieldTypes: fts}
			if size > layout.payloadSize {
				layout.payloadSize = size
			}
		}

		if layout.payloadSize == 0 {
			layout.payloadSize = 8 // at least a pointer-width payload slot
		}

		c.sumTypes[st.Name].StructSetBody([]llvm.Type{
			c.ctx.Int8Type(),
			llvm.ArrayType(c.ctx.Int8Type(), layout.payloadSize),
		}, false)

		c.sumInfo[st.Name] = layout
	}
}

// typeSizeBytes is a rough static upper bound used only to size the sum
// type payload array; it does not need to match the target's real ABI
// size exactly since the payload is always accessed through a bitcast to
// the variant's own struct type, never by raw byte offset arithmetic.
func (c *Compiler) typeSizeBytes(t llvm.Type) int {
	switch t.TypeKind() {
	case llvm.IntegerTypeKind:
		return (t.IntTypeWidth() + 7) / 8
	case llvm.DoubleTypeKind:
		return 8
	case llvm.PointerTypeKind:
		return 8
	case llvm.StructTypeKind:
		total := 0
		for _, f := range t.StructElementTypes() {
			total += c.typeSizeBytes(f)
		}
		return total
	default:
		return 8
	}
}

// llvmType maps a resolved mesh type to its LLVM representation per
// spec.md §4.6's layout table.
func (c *Compiler) llvmType(t types.Ty) llvm.Type {
	switch n := types.Prune(t).(type) {
	case types.TCon:
		switch n.Name {
		case "Int":
			return c.ctx.Int64Type()
		case "Float":
			return c.ctx.DoubleType()
		case "Bool":
			return c.ctx.Int1Type()
		case "Unit":
			return c.unitType
		}

		if st, ok := c.structTypes[n.Name]; ok {
			return st
		}
		if st, ok := c.sumTypes[n.Name]; ok {
			return st
		}
		if opaqueCollectionHeads[n.Name] {
			return llvm.PointerType(c.ctx.Int8Type(), 0)
		}

		// Unknown nullary constructor (e.g. an internal placeholder type
		// like the mir package's messageTy): treat as opaque pointer.
		return llvm.PointerType(c.ctx.Int8Type(), 0)

	case types.TApp:
		head, ok := n.Head.(types.TCon)
		if !ok {
			return llvm.PointerType(c.ctx.Int8Type(), 0)
		}

		if head.Name == "Pid" {
			return c.ctx.Int64Type()
		}
		if opaqueCollectionHeads[head.Name] {
			return llvm.PointerType(c.ctx.Int8Type(), 0)
		}
		if st, ok := c.structTypes[head.Name]; ok {
			return st
		}
		if st, ok := c.sumTypes[head.Name]; ok {
			return st
		}

		return llvm.PointerType(c.ctx.Int8Type(), 0)

	case types.TFun:
		return c.closureType

	case types.TTuple:
		elems := make([]llvm.Type, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = c.llvmType(e)
		}
		return c.ctx.StructType(elems, false)

	case types.TNever:
		// Never is uninhabited; codegen only ever reaches this when
		// typing a placeholder node (e.g. a bare function-name Var) that
		// is never itself loaded as a value.
		return c.unitType

	default:
		return c.unitType
	}
}
