package types

import (
	"github.com/snowdamiz/meshc/internal/errors"
	"github.com/snowdamiz/meshc/internal/token"
)

// Unify performs recursive-descent unification with a union-find over
// variables (spec.md §4.3). On failure it reports a diagnostic tagged
// with origin to c.Sink and returns false rather than aborting, so the
// caller can substitute a recovery type and keep typing the rest of the
// unit (spec.md §7 "Inferencer never aborts... on the first error").
func (c *Ctx) Unify(a, b Ty, span token.Span, origin errors.ConstraintOrigin) bool {
	a, b = resolve(a), resolve(b)

	if av, ok := a.(TVar); ok {
		if bv, ok := b.(TVar); ok && av.Cell == bv.Cell {
			return true
		}

		return c.bind(av, b, span, origin)
	}

	if bv, ok := b.(TVar); ok {
		return c.bind(bv, a, span, origin)
	}

	if _, ok := b.(TNever); ok {
		return true
	}

	switch an := a.(type) {
	case TCon:
		bn, ok := b.(TCon)
		if !ok || an.Name != bn.Name {
			c.mismatch(a, b, span, origin)

			return false
		}

		return true

	case TApp:
		bn, ok := b.(TApp)
		if !ok || len(an.Args) != len(bn.Args) {
			c.mismatch(a, b, span, origin)

			return false
		}

		ok = c.Unify(an.Head, bn.Head, span, origin)
		for i := range an.Args {
			ok = c.Unify(an.Args[i], bn.Args[i], span, origin) && ok
		}

		return ok

	case TFun:
		bn, ok := b.(TFun)
		if !ok || len(an.Params) != len(bn.Params) {
			c.arity(a, b, span, origin)

			return false
		}

		ok = true
		for i := range an.Params {
			ok = c.Unify(an.Params[i], bn.Params[i], span, origin) && ok
		}

		return c.Unify(an.Ret, bn.Ret, span, origin) && ok

	case TTuple:
		bn, ok := b.(TTuple)
		if !ok || len(an.Elems) != len(bn.Elems) {
			c.mismatch(a, b, span, origin)

			return false
		}

		ok = true
		for i := range an.Elems {
			ok = c.Unify(an.Elems[i], bn.Elems[i], span, origin) && ok
		}

		return ok

	case TNever:
		// Never unifies with anything on the other side by absorption: a
		// panicking branch imposes no constraint on its sibling's type.
		return true

	default:
		c.mismatch(a, b, span, origin)

		return false
	}
}

// bind binds an unbound variable to t after the occurs check. Binding
// already-linked variables is unreachable because resolve() is called
// before bind() at every call site.
func (c *Ctx) bind(v TVar, t Ty, span token.Span, origin errors.ConstraintOrigin) bool {
	if tv, ok := resolve(t).(TVar); ok && tv.Cell == v.Cell {
		return true
	}

	if occurs(v.Cell, t) {
		c.Sink.Report(errors.Diagnostic{
			Code:     errors.E0002InfiniteType,
			Severity: errors.SeverityError,
			Message:  "infinite type: " + v.String() + " occurs in " + t.String(),
			File:     c.File,
			Span:     span,
			Origin:   origin,
		})

		return false
	}

	// Level adjustment: any variable newly reachable from v's binding must
	// not outlive v's own level (classic level-based generalization
	// bookkeeping for polymorphic let).
	lowerLevel(t, v.Cell.Level)

	v.Cell.Link = t

	return true
}

func lowerLevel(t Ty, maxLevel int) {
	switch n := resolve(t).(type) {
	case TVar:
		if n.Cell.Level > maxLevel {
			n.Cell.Level = maxLevel
		}
	case TApp:
		lowerLevel(n.Head, maxLevel)
		for _, a := range n.Args {
			lowerLevel(a, maxLevel)
		}
	case TFun:
		for _, p := range n.Params {
			lowerLevel(p, maxLevel)
		}
		lowerLevel(n.Ret, maxLevel)
	case TTuple:
		for _, e := range n.Elems {
			lowerLevel(e, maxLevel)
		}
	}
}

// occurs walks the candidate type before binding cell to it; occurrence
// raises InfiniteType rather than ever overflowing the stack building a
// cyclic structure (spec.md §8 property 4, §9 "Cyclic types as an
// illegal state").
func occurs(cell *VarCell, t Ty) bool {
	switch n := resolve(t).(type) {
	case TVar:
		return n.Cell == cell
	case TApp:
		if occurs(cell, n.Head) {
			return true
		}

		for _, a := range n.Args {
			if occurs(cell, a) {
				return true
			}
		}

		return false
	case TFun:
		for _, p := range n.Params {
			if occurs(cell, p) {
				return true
			}
		}

		return occurs(cell, n.Ret)
	case TTuple:
		for _, e := range n.Elems {
			if occurs(cell, e) {
				return true
			}
		}

		return false
	default:
		return false
	}
}

func (c *Ctx) mismatch(a, b Ty, span token.Span, origin errors.ConstraintOrigin) {
	c.Sink.Report(errors.Diagnostic{
		Code:     errors.E0001Mismatch,
		Severity: errors.SeverityError,
		Message:  "type mismatch: expected " + a.String() + ", found " + b.String(),
		File:     c.File,
		Span:     span,
		Origin:   origin,
	})
}

func (c *Ctx) arity(a, b Ty, span token.Span, origin errors.ConstraintOrigin) {
	c.Sink.Report(errors.Diagnostic{
		Code:     errors.E0003Arity,
		Severity: errors.SeverityError,
		Message:  "function arity mismatch: " + a.String() + " vs " + b.String(),
		File:     c.File,
		Span:     span,
		Origin:   origin,
	})
}
