package types

import (
	"github.com/snowdamiz/meshc/internal/ast"
	"github.com/snowdamiz/meshc/internal/errors"
	"github.com/snowdamiz/meshc/internal/token"
)

// coverageRow is the pattern-sketch abstraction CheckExhaustiveness works
// over: enough of a pattern's shape to tell whether it's a catch-all, which
// sum-type variant (if any) it matches, and the literal text of a literal
// pattern, without needing the full decision-tree machinery internal/dtree
// builds for codegen.
type coverageRow struct {
	span     token.Span
	catchAll bool
	keys     []string // one key per alternative the row covers ("_" for catch-all)
}

func sketchPattern(p ast.Pattern) coverageRow {
	row := coverageRow{span: p.Span()}

	switch n := p.(type) {
	case ast.WildcardPattern:
		row.catchAll = true
		row.keys = []string{"_"}

	case ast.VarPattern:
		row.catchAll = true
		row.keys = []string{"_"}

	case ast.VariantPattern:
		row.keys = []string{"v:" + n.Name()}

	case ast.LiteralPattern:
		row.keys = []string{"l:" + n.Text()}

	case ast.OrPattern:
		for _, alt := range n.Alternatives() {
			sub := sketchPattern(alt)
			if sub.catchAll {
				row.catchAll = true
			}

			row.keys = append(row.keys, sub.keys...)
		}

	default:
		// Tuple/struct/list patterns decompose into their own sub-matches;
		// at the top level of a case/receive arm they behave like a
		// catch-all for this coarse constructor-coverage check.
		// Non-exhaustiveness inside them is not reported: inferPattern's
		// Unify calls on each sub-pattern check its type only.
		row.catchAll = true
		row.keys = []string{"_"}
	}

	return row
}

// CheckExhaustiveness runs the usefulness check spec.md §4.3 requires after
// typing a case/receive expression: it asks the type registry for the
// scrutinee's constructor set, then reports NonExhaustiveMatch (E0012) when
// some constructor has no covering arm, or RedundantArm (W0001) when an arm
// can never be reached because an earlier arm already covers everything it
// would match. This is a pattern-sketch approximation of full Maranget
// usefulness, not the decision-tree compiler itself (that's internal/dtree,
// which serves codegen rather than diagnostics).
func CheckExhaustiveness(ctx *Ctx, env *TypeEnv, scrutineeTy Ty, patterns []ast.Pattern, span token.Span) {
	rows := make([]coverageRow, len(patterns))
	for i, p := range patterns {
		rows[i] = sketchPattern(p)
	}

	seen := map[string]bool{}
	reachedCatchAll := false

	for _, row := range rows {
		if reachedCatchAll {
			ctx.Sink.Report(errors.Diagnostic{
				Code: errors.W0001RedundantArm, Severity: errors.SeverityWarning,
				Message: "unreachable match arm: an earlier arm already covers every case",
				File: ctx.File, Span: row.span,
			})

			continue
		}

		allSeen := len(row.keys) > 0
		for _, k := range row.keys {
			if seen[k] {
				continue
			}

			allSeen = false
			seen[k] = true
		}

		if allSeen && !row.catchAll {
			ctx.Sink.Report(errors.Diagnostic{
				Code: errors.W0001RedundantArm, Severity: errors.SeverityWarning,
				Message: "unreachable match arm: every alternative it covers was already matched",
				File: ctx.File, Span: row.span,
			})
		}

		if row.catchAll {
			reachedCatchAll = true
		}
	}

	if reachedCatchAll {
		return
	}

	resolved := resolve(scrutineeTy)

	switch t := resolved.(type) {
	case TCon:
		if st, ok := env.SumTypes[t.Name]; ok {
			reportMissingVariants(ctx, st, seen, span)
			return
		}

	case TApp:
		if head, ok := t.Head.(TCon); ok {
			if st, ok := env.SumTypes[head.Name]; ok {
				reportMissingVariants(ctx, st, seen, span)
				return
			}
		}
	}

	if resolved == Ty(Bool) {
		if !seen["l:true"] || !seen["l:false"] {
			ctx.Sink.Report(errors.Diagnostic{
				Code: errors.E0012NonExhaustive, Severity: errors.SeverityError,
				Message: "match is not exhaustive: missing `true` or `false`",
				File: ctx.File, Span: span,
			})
		}

		return
	}

	// Any other scrutinee type (Int, String, a struct, a tuple...) has no
	// finite constructor set the registry can enumerate; without a
	// catch-all arm the match cannot be proven exhaustive.
	ctx.Sink.Report(errors.Diagnostic{
		Code: errors.E0012NonExhaustive, Severity: errors.SeverityError,
		Message: "match is not exhaustive: add a wildcard or binding arm to cover the remaining cases",
		File: ctx.File, Span: span,
	})
}

func reportMissingVariants(ctx *Ctx, st *SumTypeInfo, seen map[string]bool, span token.Span) {
	var missing []string

	for _, v := range st.Variants {
		if !seen["v:"+v.Name] {
			missing = append(missing, v.Name)
		}
	}

	if len(missing) == 0 {
		return
	}

	msg := "match is not exhaustive: missing variant"
	if len(missing) > 1 {
		msg += "s"
	}

	msg += " " + joinNames(missing)

	ctx.Sink.Report(errors.Diagnostic{
		Code: errors.E0012NonExhaustive, Severity: errors.SeverityError,
		Message: msg, File: ctx.File, Span: span,
	})
}
