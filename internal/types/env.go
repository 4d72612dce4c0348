package types

// TypeEnv is a chained environment mapping names to Schemes, plus the
// type-level bindings needed by the inferencer: struct/sum-type field
// tables and sum-type variant-to-tag assignment (spec.md §3 "tags come
// from the sum-type definition, not pattern order").
type TypeEnv struct {
	parent *TypeEnv
	vars   map[string]*Scheme

	Structs   map[string]*StructInfo
	SumTypes  map[string]*SumTypeInfo
}

// StructInfo records a struct declaration's field order and types.
type StructInfo struct {
	Name       string
	TypeParams []string
	Fields     []FieldInfo
	Deriving   []string
}

type FieldInfo struct {
	Name string
	Type Ty
}

// SumTypeInfo records a sum type's variants in declaration order; the
// slice index IS the constructor's tag byte (spec.md §4.5).
type SumTypeInfo struct {
	Name       string
	TypeParams []string
	Variants   []VariantInfo
	Deriving   []string
}

type VariantInfo struct {
	Name   string
	Tag    int
	Fields []Ty
}

// NewTypeEnv creates a fresh root environment (the module/prelude scope).
func NewTypeEnv() *TypeEnv {
	return &TypeEnv{
		vars:     map[string]*Scheme{},
		Structs:  map[string]*StructInfo{},
		SumTypes: map[string]*SumTypeInfo{},
	}
}

// Child opens a nested lexical scope (a `let`, `fn` body, `for`/`case` arm)
// sharing the parent's type-level tables.
func (e *TypeEnv) Child() *TypeEnv {
	return &TypeEnv{parent: e, vars: map[string]*Scheme{}, Structs: e.Structs, SumTypes: e.SumTypes}
}

// Bind introduces name : s in the current scope.
func (e *TypeEnv) Bind(name string, s *Scheme) { e.vars[name] = s }

// Lookup searches this scope then its ancestors.
func (e *TypeEnv) Lookup(name string) (*Scheme, bool) {
	for env := e; env != nil; env = env.parent {
		if s, ok := env.vars[name]; ok {
			return s, true
		}
	}

	return nil, false
}

// VariantOwner finds which sum type declares a given variant/constructor
// name, needed both for pattern typing and for exhaustiveness (spec.md
// §4.5 "tags come from the sum-type definition").
func (e *TypeEnv) VariantOwner(variant string) (*SumTypeInfo, *VariantInfo, bool) {
	for _, st := range e.SumTypes {
		for i := range st.Variants {
			if st.Variants[i].Name == variant {
				return st, &st.Variants[i], true
			}
		}
	}

	return nil, nil, false
}
