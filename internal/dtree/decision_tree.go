// Package dtree implements Maranget's pattern-matrix-to-decision-tree
// algorithm (spec.md §4.5): it consumes the typed pattern tree
// internal/types produces (internal/typedast.Pattern) for one case/
// receive expression's arms and compiles them into a Node tree that
// internal/mir/internal/codegen/llvmgen can emit directly as a sequence
// of tag switches, literal tests, and list deconstructions — with no
// further pattern-matching logic needed at codegen time.
package dtree

import (
	"fmt"
	"sort"

	"github.com/snowdamiz/meshc/internal/typedast"
	"github.com/snowdamiz/meshc/internal/types"
)

// AccessPathOp is one step in the read path from the match scrutinee down
// to a sub-value a pattern column tests or binds.
type AccessPathOp struct {
	Kind  AccessKind
	Index int    // TupleField/VariantField argument index
	Name  string // StructField field name
}

type AccessKind int

const (
	TupleField AccessKind = iota
	VariantField
	StructFieldOp
	ListHead
	ListTail
)

// AccessPath is the full sequence of steps from the scrutinee to a
// sub-value; the empty path denotes the scrutinee itself.
type AccessPath []AccessPathOp

func (p AccessPath) String() string {
	s := "$"
	for _, op := range p {
		switch op.Kind {
		case TupleField:
			s += fmt.Sprintf(".%d", op.Index)
		case VariantField:
			s += fmt.Sprintf("#%d", op.Index)
		case StructFieldOp:
			s += "." + op.Name
		case ListHead:
			s += ".head"
		case ListTail:
			s += ".tail"
		}
	}

	return s
}

func extend(path AccessPath, op AccessPathOp) AccessPath {
	out := make(AccessPath, len(path)+1)
	copy(out, path)
	out[len(path)] = op

	return out
}

// Binding is a name introduced by a variable pattern, materialized only
// once control reaches a Leaf (spec.md §4.5 "bindings... materialized
// only at Leaf construction").
type Binding struct {
	Name string
	Ty   types.Ty
	Path AccessPath
}

// Node is one compiled decision-tree node.
type Node interface {
	isNode()
	String() string
}

// Leaf is a successful match: arm body plus every binding visible at this
// point. Guard is non-nil when the originating arm had a `when` clause;
// FailNext is the subtree to fall into if the guard evaluates false.
type Leaf struct {
	ArmIndex int
	Bindings []Binding
	Guard    typedast.Expr
	Body     typedast.Expr
	FailNext Node
}

func (*Leaf) isNode() {}
func (l *Leaf) String() string { return fmt.Sprintf("Leaf(arm=%d, guard=%v)", l.ArmIndex, l.Guard != nil) }

// Fail is a non-exhaustive-match trap; internal/codegen/llvmgen lowers it
// to a panic call. Fail carries no span, so the panic reports the file
// "<generated>" at line 0.
type Fail struct{}

func (*Fail) isNode() {}
func (*Fail) String() string { return "Fail" }

// Switch dispatches on a sum-type variant's declared tag (spec.md §4.5
// "cases keyed by the variant's declared tag — tags come from the
// sum-type definition, not pattern order").
type Switch struct {
	Path    AccessPath
	Cases   map[int]Node // variant tag -> subtree
	Default Node
}

func (*Switch) isNode() {}
func (s *Switch) String() string {
	return fmt.Sprintf("Switch(%s, cases=%d)", s.Path, len(s.Cases))
}

// Test is one link of a right-to-left literal-equality chain (spec.md
// §4.5 "otherwise literals; emit a right-to-left chain of Test nodes").
type Test struct {
	Path  AccessPath
	Kind  typedast.LiteralKind
	Value string
	Then  Node
	Else  Node
}

func (*Test) isNode() {}
func (t *Test) String() string { return fmt.Sprintf("Test(%s == %q)", t.Path, t.Value) }

// ListDecons splits a list value into head/tail (non-empty branch) or
// takes the default matrix (empty branch), per spec.md §4.5.
type ListDecons struct {
	Path     AccessPath
	NonEmpty Node
	Empty    Node
}

func (*ListDecons) isNode() {}
func (d *ListDecons) String() string { return fmt.Sprintf("ListDecons(%s)", d.Path) }

// Arm is one case/receive arm as the compiler's caller (internal/types'
// inferCase/inferReceive via internal/mir) supplies it.
type Arm struct {
	Pattern typedast.Pattern
	Guard   typedast.Expr
	Body    typedast.Expr
}

// row is one matrix row: one pattern per live column, the AccessPath each
// column reads from, and the bindings/guard/body carried from its arm.
type row struct {
	pats     []typedast.Pattern
	paths    []AccessPath
	armIndex int
	guard    typedast.Expr
	body     typedast.Expr
	bindings []Binding
}

// Compile builds the decision tree for one case/receive expression's arms
// (spec.md §4.5). AccessPath typing is recovered structurally from the
// patterns, not from a separate type walk.
func Compile(arms []Arm) Node {
	rows := make([]row, 0, len(arms))

	for i, a := range arms {
		rows = append(rows, expandOrPatterns(row{
			pats:     []typedast.Pattern{a.Pattern},
			paths:    []AccessPath{{}},
			armIndex: i,
			guard:    a.Guard,
			body:     a.Body,
		})...)
	}

	return compileMatrix(rows)
}

// expandOrPatterns turns a row whose pattern (at any column) is an
// OrPattern into sibling rows, one per alternative, all sharing the row's
// arm_index/guard/body (spec.md §4.5 "Or-patterns are expanded to sibling
// rows... preserves sharing while keeping the matrix regular").
func expandOrPatterns(r row) []row {
	for c, p := range r.pats {
		if or, ok := p.(typedast.OrPattern); ok {
			var out []row

			for _, alt := range or.Alternatives {
				clone := cloneRow(r)
				clone.pats[c] = alt
				out = append(out, expandOrPatterns(clone)...)
			}

			return out
		}
	}

	return []row{r}
}

func cloneRow(r row) row {
	pats := make([]typedast.Pattern, len(r.pats))
	copy(pats, r.pats)
	paths := make([]AccessPath, len(r.paths))
	copy(paths, r.paths)
	bindings := make([]Binding, len(r.bindings))
	copy(bindings, r.bindings)

	return row{pats: pats, paths: paths, armIndex: r.armIndex, guard: r.guard, body: r.body, bindings: bindings}
}

func compileMatrix(rows []row) Node {
	if len(rows) == 0 {
		return &Fail{}
	}

	if allWildcard(rows[0]) {
		return leafFor(rows[0], compileMatrix(rows[1:]))
	}

	col := selectColumn(rows)

	if tuplesIn(rows, col) {
		return compileMatrix(expandTupleColumn(rows, col))
	}

	if structsIn(rows, col) {
		return compileMatrix(expandStructColumn(rows, col))
	}

	switch headKindOf(rows, col) {
	case kindVariant:
		return compileVariantSwitch(rows, col)
	case kindList:
		return compileListDecons(rows, col)
	case kindLiteral:
		return compileLiteralChain(rows, col)
	default:
		// Every non-empty-column pattern was wildcard/var after all (can
		// happen once earlier columns are exhausted); drop the column.
		return compileMatrix(dropColumn(rows, col, nil))
	}
}

// leafFor builds the Leaf for an all-wildcard row, collecting its
// bindings and wiring FailNext to the rest of the matrix when the row
// carries a guard (spec.md §4.5 step 2).
func leafFor(r row, rest Node) Node {
	bindings := append([]Binding{}, r.bindings...)

	for i, p := range r.pats {
		if v, ok := p.(typedast.VarPattern); ok {
			bindings = append(bindings, Binding{Name: v.Name, Ty: v.Ty, Path: r.paths[i]})
		}
	}

	leaf := &Leaf{ArmIndex: r.armIndex, Bindings: bindings, Guard: r.guard, Body: r.body}
	if r.guard != nil {
		leaf.FailNext = rest
	}

	return leaf
}

func allWildcard(r row) bool {
	for _, p := range r.pats {
		switch p.(type) {
		case typedast.WildcardPattern, typedast.VarPattern:
		default:
			return false
		}
	}

	return true
}

// selectColumn picks the column maximizing distinct head-constructor count
// (spec.md §4.5 step 4 — "a well-known heuristic for small trees"),
// breaking ties toward the lowest index.
func selectColumn(rows []row) int {
	best, bestCount := 0, -1

	for c := range rows[0].pats {
		seen := map[string]bool{}

		for _, r := range rows {
			if c >= len(r.pats) {
				continue
			}

			if key, ok := headKey(r.pats[c]); ok {
				seen[key] = true
			}
		}

		if len(seen) > bestCount {
			best, bestCount = c, len(seen)
		}
	}

	return best
}

// headKey identifies a pattern's head constructor for column-selection and
// specialization purposes; wildcards/vars have no head (ok=false).
func headKey(p typedast.Pattern) (string, bool) {
	switch v := p.(type) {
	case typedast.VariantPattern:
		return "v:" + v.Variant, true
	case typedast.LiteralPattern:
		return "l:" + v.Text, true
	case typedast.ListPattern:
		if len(v.Elements) == 0 && v.Tail == nil {
			return "list:empty", true
		}

		return "list:cons", true
	case typedast.TuplePattern:
		return "tuple", true
	case typedast.StructPattern:
		return "struct:" + v.TypeName, true
	default:
		return "", false
	}
}

type headKind int

const (
	kindNone headKind = iota
	kindVariant
	kindLiteral
	kindList
)

func headKindOf(rows []row, col int) headKind {
	for _, r := range rows {
		if col >= len(r.pats) {
			continue
		}

		switch r.pats[col].(type) {
		case typedast.VariantPattern:
			return kindVariant
		case typedast.LiteralPattern:
			return kindLiteral
		case typedast.ListPattern:
			return kindList
		}
	}

	return kindNone
}

func tuplesIn(rows []row, col int) bool {
	for _, r := range rows {
		if col >= len(r.pats) {
			continue
		}

		if _, ok := r.pats[col].(typedast.TuplePattern); ok {
			return true
		}
	}

	return false
}

func structsIn(rows []row, col int) bool {
	for _, r := range rows {
		if col >= len(r.pats) {
			continue
		}

		if _, ok := r.pats[col].(typedast.StructPattern); ok {
			return true
		}
	}

	return false
}

// dropColumn removes column col from every row, recording a binding for
// var patterns found there (used whenever a column's information is fully
// consumed without needing a switch — e.g. the "all remaining patterns are
// wildcard" fallback).
func dropColumn(rows []row, col int, extra func(row) []Binding) []row {
	out := make([]row, len(rows))

	for i, r := range rows {
		clone := cloneRow(r)

		if v, ok := r.pats[col].(typedast.VarPattern); ok {
			clone.bindings = append(clone.bindings, Binding{Name: v.Name, Ty: v.Ty, Path: r.paths[col]})
		}

		if extra != nil {
			clone.bindings = append(clone.bindings, extra(r)...)
		}

		clone.pats = append(append([]typedast.Pattern{}, r.pats[:col]...), r.pats[col+1:]...)
		clone.paths = append(append([]AccessPath{}, r.paths[:col]...), r.paths[col+1:]...)
		out[i] = clone
	}

	return out
}

// expandTupleColumn decomposes a tuple-pattern column into one new column
// per tuple field, expanding wildcard/var rows into matching-arity
// wildcards so every row stays rectangular (spec.md §4.5 step 5).
func expandTupleColumn(rows []row, col int) []row {
	arity := 0

	for _, r := range rows {
		if t, ok := r.pats[col].(typedast.TuplePattern); ok {
			arity = len(t.Elements)
			break
		}
	}

	out := make([]row, len(rows))

	for i, r := range rows {
		clone := cloneRow(r)
		path := r.paths[col]

		var subPats []typedast.Pattern
		var subPaths []AccessPath

		switch p := r.pats[col].(type) {
		case typedast.TuplePattern:
			subPats = p.Elements
		case typedast.VarPattern:
			clone.bindings = append(clone.bindings, Binding{Name: p.Name, Ty: p.Ty, Path: path})

			subPats = wildcards(arity)
		default:
			subPats = wildcards(arity)
		}

		for j := 0; j < arity; j++ {
			subPaths = append(subPaths, extend(path, AccessPathOp{Kind: TupleField, Index: j}))
		}

		clone.pats = spliceCol(r.pats, col, subPats)
		clone.paths = splicePathCol(r.paths, col, subPaths)
		out[i] = clone
	}

	return out
}

// expandStructColumn decomposes a struct-pattern column field-by-field,
// keyed by declared field name rather than position.
func expandStructColumn(rows []row, col int) []row {
	var fieldNames []string
	seen := map[string]bool{}

	for _, r := range rows {
		if s, ok := r.pats[col].(typedast.StructPattern); ok {
			for name := range s.Fields {
				if !seen[name] {
					seen[name] = true
					fieldNames = append(fieldNames, name)
				}
			}
		}
	}

	sort.Strings(fieldNames)

	out := make([]row, len(rows))

	for i, r := range rows {
		clone := cloneRow(r)
		path := r.paths[col]

		subPats := make([]typedast.Pattern, len(fieldNames))
		subPaths := make([]AccessPath, len(fieldNames))

		switch p := r.pats[col].(type) {
		case typedast.StructPattern:
			for j, name := range fieldNames {
				if fp, ok := p.Fields[name]; ok {
					subPats[j] = fp
				} else {
					subPats[j] = typedast.WildcardPattern{}
				}

				subPaths[j] = extend(path, AccessPathOp{Kind: StructFieldOp, Name: name})
			}
		case typedast.VarPattern:
			clone.bindings = append(clone.bindings, Binding{Name: p.Name, Ty: p.Ty, Path: path})

			for j, name := range fieldNames {
				subPats[j] = typedast.WildcardPattern{}
				subPaths[j] = extend(path, AccessPathOp{Kind: StructFieldOp, Name: name})
			}
		default:
			for j, name := range fieldNames {
				subPats[j] = typedast.WildcardPattern{}
				subPaths[j] = extend(path, AccessPathOp{Kind: StructFieldOp, Name: name})
			}
		}

		clone.pats = spliceCol(r.pats, col, subPats)
		clone.paths = splicePathCol(r.paths, col, subPaths)
		out[i] = clone
	}

	return out
}

func wildcards(n int) []typedast.Pattern {
	out := make([]typedast.Pattern, n)
	for i := range out {
		out[i] = typedast.WildcardPattern{}
	}

	return out
}

func spliceCol(pats []typedast.Pattern, col int, replacement []typedast.Pattern) []typedast.Pattern {
	out := make([]typedast.Pattern, 0, len(pats)-1+len(replacement))
	out = append(out, pats[:col]...)
	out = append(out, replacement...)
	out = append(out, pats[col+1:]...)

	return out
}

func splicePathCol(paths []AccessPath, col int, replacement []AccessPath) []AccessPath {
	out := make([]AccessPath, 0, len(paths)-1+len(replacement))
	out = append(out, paths[:col]...)
	out = append(out, replacement...)
	out = append(out, paths[col+1:]...)

	return out
}

// compileVariantSwitch builds a Switch keyed by each encountered variant's
// declared tag; wildcard/var rows specialize into every case plus the
// default (spec.md §4.5 step 6, "tags come from the sum-type definition").
func compileVariantSwitch(rows []row, col int) Node {
	type variantInfo struct {
		tag   int
		arity int
	}

	variants := map[string]variantInfo{}
	var order []string

	for _, r := range rows {
		if v, ok := r.pats[col].(typedast.VariantPattern); ok {
			if _, ok := variants[v.Variant]; !ok {
				variants[v.Variant] = variantInfo{tag: v.Tag, arity: len(v.Fields)}
				order = append(order, v.Variant)
			}
		}
	}

	sw := &Switch{Path: rows[0].paths[col], Cases: map[int]Node{}}

	for _, name := range order {
		info := variants[name]
		specialized := specializeVariant(rows, col, name, info.arity)
		sw.Cases[info.tag] = compileMatrix(specialized)
	}

	defaultRows := defaultRowsFor(rows, col)
	if len(defaultRows) > 0 {
		sw.Default = compileMatrix(defaultRows)
	} else {
		sw.Default = &Fail{}
	}

	return sw
}

func specializeVariant(rows []row, col int, name string, arity int) []row {
	var out []row

	for _, r := range rows {
		path := r.paths[col]

		switch p := r.pats[col].(type) {
		case typedast.VariantPattern:
			if p.Variant != name {
				continue
			}

			fields := p.Fields
			subPats := make([]typedast.Pattern, arity)
			subPaths := make([]AccessPath, arity)

			for j := 0; j < arity; j++ {
				if j < len(fields) {
					subPats[j] = fields[j]
				} else {
					subPats[j] = typedast.WildcardPattern{}
				}

				subPaths[j] = extend(path, AccessPathOp{Kind: VariantField, Index: j})
			}

			clone := cloneRow(r)
			clone.pats = spliceCol(r.pats, col, subPats)
			clone.paths = splicePathCol(r.paths, col, subPaths)
			out = append(out, clone)

		case typedast.VarPattern, typedast.WildcardPattern:
			clone := cloneRow(r)
			if v, ok := p.(typedast.VarPattern); ok {
				clone.bindings = append(clone.bindings, Binding{Name: v.Name, Ty: v.Ty, Path: path})
			}

			subPats := wildcards(arity)
			subPaths := make([]AccessPath, arity)
			for j := 0; j < arity; j++ {
				subPaths[j] = extend(path, AccessPathOp{Kind: VariantField, Index: j})
			}

			clone.pats = spliceCol(r.pats, col, subPats)
			clone.paths = splicePathCol(r.paths, col, subPaths)
			out = append(out, clone)
		}
	}

	return out
}

// defaultRowsFor collects the rows (dropping column col) that still apply
// when none of the column's specific constructors matched: only
// wildcard/var rows qualify.
func defaultRowsFor(rows []row, col int) []row {
	var out []row

	for _, r := range rows {
		switch p := r.pats[col].(type) {
		case typedast.VarPattern:
			clone := cloneRow(r)
			clone.bindings = append(clone.bindings, Binding{Name: p.Name, Ty: p.Ty, Path: r.paths[col]})
			clone.pats = append(append([]typedast.Pattern{}, r.pats[:col]...), r.pats[col+1:]...)
			clone.paths = append(append([]AccessPath{}, r.paths[:col]...), r.paths[col+1:]...)
			out = append(out, clone)

		case typedast.WildcardPattern:
			clone := cloneRow(r)
			clone.pats = append(append([]typedast.Pattern{}, r.pats[:col]...), r.pats[col+1:]...)
			clone.paths = append(append([]AccessPath{}, r.paths[:col]...), r.paths[col+1:]...)
			out = append(out, clone)
		}
	}

	return out
}

// compileLiteralChain builds the right-to-left Test chain (spec.md §4.5
// step 6): the last-encountered distinct literal is tested innermost so
// that, read top to bottom, the chain tries literals in first-seen order.
func compileLiteralChain(rows []row, col int) Node {
	var order []typedast.LiteralPattern
	seen := map[string]bool{}

	for _, r := range rows {
		if l, ok := r.pats[col].(typedast.LiteralPattern); ok {
			if !seen[l.Text] {
				seen[l.Text] = true
				order = append(order, l)
			}
		}
	}

	defaultRows := defaultRowsFor(rows, col)
	next := compileMatrix(defaultRows)

	for i := len(order) - 1; i >= 0; i-- {
		lit := order[i]

		var then []row
		then = append(then, literalMatchRows(rows, col, lit.Text)...)
		then = append(then, defaultRows...)

		next = &Test{
			Path: rows[0].paths[col], Kind: lit.Kind, Value: lit.Text,
			Then: compileMatrix(then), Else: next,
		}
	}

	return next
}

func literalMatchRows(rows []row, col int, text string) []row {
	var out []row

	for _, r := range rows {
		l, ok := r.pats[col].(typedast.LiteralPattern)
		if !ok || l.Text != text {
			continue
		}

		clone := cloneRow(r)
		clone.pats = append(append([]typedast.Pattern{}, r.pats[:col]...), r.pats[col+1:]...)
		clone.paths = append(append([]AccessPath{}, r.paths[:col]...), r.paths[col+1:]...)
		out = append(out, clone)
	}

	return out
}

// compileListDecons builds the non-empty/empty split for a list-pattern
// column (spec.md §4.5 step 6). A ListPattern is "empty" when it has no
// head elements and no tail binding (the canonical shape of a literal `[]`
// pattern, including the synthetic remainder produced once a cons chain's
// heads are fully consumed without a `| tail`).
func compileListDecons(rows []row, col int) Node {
	path := rows[0].paths[col]

	var nonEmpty, empty []row

	for _, r := range rows {
		switch p := r.pats[col].(type) {
		case typedast.ListPattern:
			if len(p.Elements) == 0 && p.Tail == nil {
				clone := cloneRow(r)
				clone.pats = append(append([]typedast.Pattern{}, r.pats[:col]...), r.pats[col+1:]...)
				clone.paths = append(append([]AccessPath{}, r.paths[:col]...), r.paths[col+1:]...)
				empty = append(empty, clone)

				continue
			}

			head := p.Elements[0]
			tail := listRemainder(p)

			clone := cloneRow(r)
			subPats := []typedast.Pattern{head, tail}
			subPaths := []AccessPath{extend(path, AccessPathOp{Kind: ListHead}), extend(path, AccessPathOp{Kind: ListTail})}
			clone.pats = spliceCol(r.pats, col, subPats)
			clone.paths = splicePathCol(r.paths, col, subPaths)
			nonEmpty = append(nonEmpty, clone)

		case typedast.VarPattern:
			bindNonEmpty := cloneRow(r)
			bindNonEmpty.bindings = append(bindNonEmpty.bindings, Binding{Name: p.Name, Ty: p.Ty, Path: path})
			subPats := wildcards(2)
			subPaths := []AccessPath{extend(path, AccessPathOp{Kind: ListHead}), extend(path, AccessPathOp{Kind: ListTail})}
			bindNonEmpty.pats = spliceCol(r.pats, col, subPats)
			bindNonEmpty.paths = splicePathCol(r.paths, col, subPaths)
			nonEmpty = append(nonEmpty, bindNonEmpty)

			bindEmpty := cloneRow(r)
			bindEmpty.bindings = append(bindEmpty.bindings, Binding{Name: p.Name, Ty: p.Ty, Path: path})
			bindEmpty.pats = append(append([]typedast.Pattern{}, r.pats[:col]...), r.pats[col+1:]...)
			bindEmpty.paths = append(append([]AccessPath{}, r.paths[:col]...), r.paths[col+1:]...)
			empty = append(empty, bindEmpty)

		case typedast.WildcardPattern:
			wc := cloneRow(r)
			subPats := wildcards(2)
			subPaths := []AccessPath{extend(path, AccessPathOp{Kind: ListHead}), extend(path, AccessPathOp{Kind: ListTail})}
			wc.pats = spliceCol(r.pats, col, subPats)
			wc.paths = splicePathCol(r.paths, col, subPaths)
			nonEmpty = append(nonEmpty, wc)

			wc2 := cloneRow(r)
			wc2.pats = append(append([]typedast.Pattern{}, r.pats[:col]...), r.pats[col+1:]...)
			wc2.paths = append(append([]AccessPath{}, r.paths[:col]...), r.paths[col+1:]...)
			empty = append(empty, wc2)
		}
	}

	return &ListDecons{Path: path, NonEmpty: compileMatrix(nonEmpty), Empty: compileMatrix(empty)}
}

// listRemainder is the pattern matching everything after a list pattern's
// first head element: further heads if any remain, the explicit `| tail`
// pattern once heads run out, or the canonical empty-list pattern when
// neither remains (a fixed-length `[a, b]` pattern with no heads left to
// consume requires the list to end exactly there).
func listRemainder(p typedast.ListPattern) typedast.Pattern {
	if len(p.Elements) > 1 {
		return typedast.ListPattern{Elements: p.Elements[1:], Tail: p.Tail, ElemTy: p.ElemTy}
	}

	if p.Tail != nil {
		return p.Tail
	}

	return typedast.ListPattern{}
}
