package types

import (
	"github.com/snowdamiz/meshc/internal/ast"
	"github.com/snowdamiz/meshc/internal/errors"
	"github.com/snowdamiz/meshc/internal/typedast"
)

// inferPattern types a pattern against an expected scrutinee type, binding
// any variables it introduces into env, and produces the parallel typedast
// pattern tree internal/dtree later compiles into a decision tree (spec.md
// §4.5).
func inferPattern(ctx *Ctx, env *TypeEnv, pat ast.Pattern, expected Ty) typedast.Pattern {
	switch p := pat.(type) {
	case ast.WildcardPattern:
		return typedast.WildcardPattern{}

	case ast.VarPattern:
		env.Bind(p.Name(), mono(expected))

		return typedast.VarPattern{Name: p.Name(), Ty: expected}

	case ast.LiteralPattern:
		return inferLiteralPattern(ctx, env, p, expected)

	case ast.TuplePattern:
		return inferTuplePattern(ctx, env, p, expected)

	case ast.VariantPattern:
		return inferVariantPattern(ctx, env, p, expected)

	case ast.StructPattern:
		return inferStructPattern(ctx, env, p, expected)

	case ast.ListPattern:
		return inferListPattern(ctx, env, p, expected)

	case ast.OrPattern:
		return inferOrPattern(ctx, env, p, expected)

	default:
		return typedast.WildcardPattern{}
	}
}

func inferLiteralPattern(ctx *Ctx, env *TypeEnv, p ast.LiteralPattern, expected Ty) typedast.Pattern {
	text := p.Text()

	kind, ty := classifyLiteralPattern(text)
	ctx.Unify(ty, expected, p.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})

	return typedast.LiteralPattern{Kind: kind, Text: text, Ty: ty}
}

// classifyLiteralPattern infers a literal pattern's type from its surface
// text, the same way inferExpr's literal cases do for literal expressions,
// except that a `nil` pattern is typed Unit where a `nil` expression gets a
// fresh variable.
func classifyLiteralPattern(text string) (typedast.LiteralKind, Ty) {
	switch text {
	case "true", "false":
		return typedast.LitBool, Bool
	case "nil":
		return typedast.LitNil, Ty(Unit)
	}

	isFloat := false
	isNumeric := len(text) > 0

	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			isFloat = true
		case r == '-' && isNumeric:
		default:
			isNumeric = false
		}
	}

	if text[0] == '"' {
		return typedast.LitString, String
	}

	if isNumeric && isFloat {
		return typedast.LitFloat, Float
	}

	if isNumeric {
		return typedast.LitInt, Int
	}

	return typedast.LitString, String
}

func inferTuplePattern(ctx *Ctx, env *TypeEnv, p ast.TuplePattern, expected Ty) typedast.Pattern {
	elems := p.Elements()

	expectedTuple, ok := resolve(expected).(TTuple)
	if !ok || len(expectedTuple.Elems) != len(elems) {
		elemTys := make([]Ty, len(elems))
		for i := range elemTys {
			elemTys[i] = ctx.NewVar()
		}

		expectedTuple = TTuple{Elems: elemTys}
		ctx.Unify(expected, expectedTuple, p.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})
	}

	typed := make([]typedast.Pattern, len(elems))
	for i, e := range elems {
		typed[i] = inferPattern(ctx, env, e, expectedTuple.Elems[i])
	}

	return typedast.TuplePattern{Elements: typed, Ty: expectedTuple}
}

// inferVariantPattern resolves a `Ctor(p1, p2, ...)` or bare `Ctor` pattern
// against the sum type owning that variant, looking up its declared tag
// (spec.md §4.5 "tags come from the sum-type definition, not pattern
// order") rather than deriving one from arm position.
func inferVariantPattern(ctx *Ctx, env *TypeEnv, p ast.VariantPattern, expected Ty) typedast.Pattern {
	name := p.Name()

	st, vi, ok := env.VariantOwner(name)
	if !ok {
		ctx.Sink.Report(errors.Diagnostic{
			Code: errors.E0004Unbound, Severity: errors.SeverityError,
			Message: "unknown variant constructor " + name, File: ctx.File, Span: p.Span(),
		})

		ty := ctx.NewVar()

		return typedast.VariantPattern{Variant: name, Ty: ty}
	}

	ty := Ty(TCon{Name: st.Name})
	ctx.Unify(ty, expected, p.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})

	fieldPats := p.Fields()
	fields := make([]typedast.Pattern, len(fieldPats))

	for i, fp := range fieldPats {
		var fty Ty
		if i < len(vi.Fields) {
			fty = vi.Fields[i]
		} else {
			fty = ctx.NewVar()
		}

		fields[i] = inferPattern(ctx, env, fp, fty)
	}

	return typedast.VariantPattern{TypeName: st.Name, Variant: name, Tag: vi.Tag, Fields: fields, Ty: ty}
}

func inferStructPattern(ctx *Ctx, env *TypeEnv, p ast.StructPattern, expected Ty) typedast.Pattern {
	name := p.TypeName()

	info, ok := env.Structs[name]
	if !ok {
		ctx.Sink.Report(errors.Diagnostic{
			Code: errors.E0009FieldError, Severity: errors.SeverityError,
			Message: "unknown struct " + name, File: ctx.File, Span: p.Span(),
		})

		ty := ctx.NewVar()

		return typedast.StructPattern{TypeName: name, Ty: ty}
	}

	ty := Ty(TCon{Name: name})
	ctx.Unify(ty, expected, p.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})

	fields := map[string]typedast.Pattern{}
	for fname, fp := range p.FieldPatterns() {
		fty := ctx.NewVar()

		for _, declared := range info.Fields {
			if declared.Name == fname {
				fty = declared.Type
			}
		}

		fields[fname] = inferPattern(ctx, env, fp, fty)
	}

	return typedast.StructPattern{TypeName: name, Fields: fields, Ty: ty}
}

// inferListPattern handles both fixed-length `[a, b]` and cons-style
// `[head | tail]` patterns, the latter binding Tail against the whole list
// type rather than a single element.
func inferListPattern(ctx *Ctx, env *TypeEnv, p ast.ListPattern, expected Ty) typedast.Pattern {
	elemTy := ctx.NewVar()
	listTy := app(con("List"), elemTy)
	ctx.Unify(listTy, expected, p.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})

	elems := p.Elements()

	if p.IsCons() && len(elems) > 0 {
		heads := elems[:len(elems)-1]
		tailPat := elems[len(elems)-1]

		typedHeads := make([]typedast.Pattern, len(heads))
		for i, h := range heads {
			typedHeads[i] = inferPattern(ctx, env, h, elemTy)
		}

		tail := inferPattern(ctx, env, tailPat, listTy)

		return typedast.ListPattern{Elements: typedHeads, Tail: tail, ElemTy: elemTy}
	}

	typed := make([]typedast.Pattern, len(elems))
	for i, e := range elems {
		typed[i] = inferPattern(ctx, env, e, elemTy)
	}

	return typedast.ListPattern{Elements: typed, ElemTy: elemTy}
}

// inferOrPattern requires every alternative to bind the same set of names
// at the same types (E0011); alternatives are typed in independent child
// scopes so a later alternative's bindings can't leak into an earlier one's
// guard/body, then checked for agreement against the first alternative.
func inferOrPattern(ctx *Ctx, env *TypeEnv, p ast.OrPattern, expected Ty) typedast.Pattern {
	alts := p.Alternatives()
	typed := make([]typedast.Pattern, len(alts))

	var firstNames map[string]Ty

	for i, a := range alts {
		altEnv := env.Child()
		typed[i] = inferPattern(ctx, altEnv, a, expected)

		names := map[string]Ty{}
		for name, scheme := range altEnv.vars {
			names[name] = scheme.Type
		}

		if i == 0 {
			firstNames = names
			for name, ty := range names {
				env.Bind(name, mono(ty))
			}

			continue
		}

		if len(names) != len(firstNames) {
			ctx.Sink.Report(errors.Diagnostic{
				Code: errors.E0011OrBindingMismatch, Severity: errors.SeverityError,
				Message: "or-pattern alternatives must bind the same names", File: ctx.File, Span: a.Span(),
			})

			continue
		}

		for name, ty := range names {
			expectedTy, ok := firstNames[name]
			if !ok {
				ctx.Sink.Report(errors.Diagnostic{
					Code: errors.E0011OrBindingMismatch, Severity: errors.SeverityError,
					Message: "or-pattern alternatives must bind the same names", File: ctx.File, Span: a.Span(),
				})

				continue
			}

			ctx.Unify(ty, expectedTy, a.Span(), errors.ConstraintOrigin{Kind: errors.OriginBuiltin})
		}
	}

	return typedast.OrPattern{Alternatives: typed}
}
