package dtree

import (
	"testing"

	"github.com/snowdamiz/meshc/internal/typedast"
	"github.com/snowdamiz/meshc/internal/types"
)

func lit(kind typedast.LiteralKind, text string) typedast.Pattern {
	return typedast.LiteralPattern{Kind: kind, Text: text}
}

func TestCompile_BoolLiteralsBuildTestChain(t *testing.T) {
	// case x { true -> 1, false -> 0 }
	arms := []Arm{
		{Pattern: lit(typedast.LitBool, "true"), Body: typedast.IntLit{Value: 1}},
		{Pattern: lit(typedast.LitBool, "false"), Body: typedast.IntLit{Value: 0}},
	}

	tree := Compile(arms)

	test, ok := tree.(*Test)
	if !ok {
		t.Fatalf("expected *Test, got %T", tree)
	}

	if test.Value != "true" {
		t.Errorf("expected first test against %q, got %q", "true", test.Value)
	}

	inner, ok := test.Else.(*Test)
	if !ok {
		t.Fatalf("expected chained *Test in Else branch, got %T", test.Else)
	}

	if inner.Value != "false" {
		t.Errorf("expected second test against %q, got %q", "false", inner.Value)
	}

	if _, ok := inner.Else.(*Fail); !ok {
		t.Errorf("expected Fail once every literal is exhausted with no catch-all, got %T", inner.Else)
	}
}

func TestCompile_WildcardBecomesDefault(t *testing.T) {
	// case x { true -> 1, _ -> 0 }
	arms := []Arm{
		{Pattern: lit(typedast.LitBool, "true"), Body: typedast.IntLit{Value: 1}},
		{Pattern: typedast.WildcardPattern{}, Body: typedast.IntLit{Value: 0}},
	}

	tree := Compile(arms)

	test, ok := tree.(*Test)
	if !ok {
		t.Fatalf("expected *Test, got %T", tree)
	}

	if _, ok := test.Else.(*Leaf); !ok {
		t.Errorf("expected the wildcard arm's Leaf once the literal test fails, got %T", test.Else)
	}
}

func TestCompile_AllWildcardIsImmediateLeaf(t *testing.T) {
	arms := []Arm{{Pattern: typedast.WildcardPattern{}, Body: typedast.IntLit{Value: 42}}}

	tree := Compile(arms)

	leaf, ok := tree.(*Leaf)
	if !ok {
		t.Fatalf("expected *Leaf for a wildcard-only match, got %T", tree)
	}

	if leaf.ArmIndex != 0 {
		t.Errorf("expected arm index 0, got %d", leaf.ArmIndex)
	}
}

func TestCompile_VariantSwitchUsesDeclaredTag(t *testing.T) {
	// case opt { Some(x) -> x, None -> 0 }, with None declared before Some
	// (tag 0) so a pattern-order-derived tag would be wrong.
	arms := []Arm{
		{
			Pattern: typedast.VariantPattern{
				TypeName: "Option", Variant: "Some", Tag: 1,
				Fields: []typedast.Pattern{typedast.VarPattern{Name: "x", Ty: types.Int}},
			},
			Body: typedast.Var{Name: "x"},
		},
		{
			Pattern: typedast.VariantPattern{TypeName: "Option", Variant: "None", Tag: 0},
			Body:    typedast.IntLit{Value: 0},
		},
	}

	tree := Compile(arms)

	sw, ok := tree.(*Switch)
	if !ok {
		t.Fatalf("expected *Switch, got %T", tree)
	}

	if len(sw.Cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(sw.Cases))
	}

	if _, ok := sw.Cases[1]; !ok {
		t.Error("expected a case keyed by Some's declared tag 1")
	}

	if _, ok := sw.Cases[0]; !ok {
		t.Error("expected a case keyed by None's declared tag 0")
	}

	someLeaf, ok := sw.Cases[1].(*Leaf)
	if !ok {
		t.Fatalf("expected Some's case to compile to a *Leaf, got %T", sw.Cases[1])
	}

	if len(someLeaf.Bindings) != 1 || someLeaf.Bindings[0].Name != "x" {
		t.Errorf("expected binding x from Some(x), got %+v", someLeaf.Bindings)
	}
}

func TestCompile_TuplePatternExpandsIntoColumns(t *testing.T) {
	// case pair { (0, y) -> y, (x, 0) -> x, _ -> -1 }
	arms := []Arm{
		{
			Pattern: typedast.TuplePattern{Elements: []typedast.Pattern{
				lit(typedast.LitInt, "0"), typedast.VarPattern{Name: "y", Ty: types.Int},
			}},
			Body: typedast.Var{Name: "y"},
		},
		{
			Pattern: typedast.TuplePattern{Elements: []typedast.Pattern{
				typedast.VarPattern{Name: "x", Ty: types.Int}, lit(typedast.LitInt, "0"),
			}},
			Body: typedast.Var{Name: "x"},
		},
		{Pattern: typedast.WildcardPattern{}, Body: typedast.IntLit{Value: -1}},
	}

	tree := Compile(arms)

	// The tuple column must have been expanded into its own test/switch
	// rather than the root staying a single undifferentiated node.
	if _, ok := tree.(*Leaf); ok {
		t.Fatalf("expected tuple fields to be decomposed into tests, got an immediate *Leaf")
	}
}

func TestCompile_OrPatternSharesOneArmBody(t *testing.T) {
	// case n { 1 | 2 -> "small", _ -> "big" }
	shared := typedast.StringLit{Parts: []typedast.StringPart{{Literal: "small"}}}
	arms := []Arm{
		{
			Pattern: typedast.OrPattern{Alternatives: []typedast.Pattern{
				lit(typedast.LitInt, "1"), lit(typedast.LitInt, "2"),
			}},
			Body: shared,
		},
		{Pattern: typedast.WildcardPattern{}, Body: typedast.StringLit{Parts: []typedast.StringPart{{Literal: "big"}}}},
	}

	tree := Compile(arms)

	test, ok := tree.(*Test)
	if !ok {
		t.Fatalf("expected *Test for the first literal alternative, got %T", tree)
	}

	leaf, ok := test.Then.(*Leaf)
	if !ok {
		t.Fatalf("expected *Leaf for the matching alternative, got %T", test.Then)
	}

	if leaf.ArmIndex != 0 {
		t.Errorf("expected both or-pattern alternatives to share arm index 0, got %d", leaf.ArmIndex)
	}
}

func TestCompile_ListConsSplitsHeadAndTail(t *testing.T) {
	// case xs { [] -> 0, [h | t] -> h }
	arms := []Arm{
		{Pattern: typedast.ListPattern{}, Body: typedast.IntLit{Value: 0}},
		{
			Pattern: typedast.ListPattern{
				Elements: []typedast.Pattern{typedast.VarPattern{Name: "h", Ty: types.Int}},
				Tail:     typedast.VarPattern{Name: "t", Ty: types.Int},
			},
			Body: typedast.Var{Name: "h"},
		},
	}

	tree := Compile(arms)

	decons, ok := tree.(*ListDecons)
	if !ok {
		t.Fatalf("expected *ListDecons, got %T", tree)
	}

	emptyLeaf, ok := decons.Empty.(*Leaf)
	if !ok || emptyLeaf.ArmIndex != 0 {
		t.Fatalf("expected the empty branch to resolve to arm 0's leaf, got %#v", decons.Empty)
	}

	nonEmptyLeaf, ok := decons.NonEmpty.(*Leaf)
	if !ok || nonEmptyLeaf.ArmIndex != 1 {
		t.Fatalf("expected the non-empty branch to resolve to arm 1's leaf, got %#v", decons.NonEmpty)
	}

	names := map[string]bool{}
	for _, b := range nonEmptyLeaf.Bindings {
		names[b.Name] = true
	}

	if !names["h"] || !names["t"] {
		t.Errorf("expected both head and tail bindings, got %+v", nonEmptyLeaf.Bindings)
	}
}

func TestCompile_GuardFallsThroughToNextArm(t *testing.T) {
	// case n { x when x > 0 -> 1, _ -> 0 }
	arms := []Arm{
		{
			Pattern: typedast.VarPattern{Name: "x", Ty: types.Int},
			Guard:   typedast.BoolLit{Value: true},
			Body:    typedast.IntLit{Value: 1},
		},
		{Pattern: typedast.WildcardPattern{}, Body: typedast.IntLit{Value: 0}},
	}

	tree := Compile(arms)

	leaf, ok := tree.(*Leaf)
	if !ok {
		t.Fatalf("expected *Leaf, got %T", tree)
	}

	if leaf.Guard == nil {
		t.Fatal("expected a guard to be attached")
	}

	if leaf.FailNext == nil {
		t.Fatal("expected FailNext to be wired to the remaining matrix for guard failure")
	}

	fallback, ok := leaf.FailNext.(*Leaf)
	if !ok || fallback.ArmIndex != 1 {
		t.Errorf("expected guard failure to fall through to arm 1, got %#v", leaf.FailNext)
	}
}
