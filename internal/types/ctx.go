package types

import "github.com/snowdamiz/meshc/internal/errors"

// Ctx is the inference context: it exclusively owns the union-find cells,
// the current generalization level, and the accumulated diagnostic sink
// (spec.md §3 "Ownership model" — "The inference context exclusively owns
// the union-find, substitution, and the accumulated diagnostic list").
type Ctx struct {
	Sink    *errors.Sink
	Traits  *TraitRegistry
	nextID  int
	level   int
	File    string
	deferred []deferredTraitCheck

	// currentReturn is the declared return type of the function clause
	// currently being typed, consulted by the `?`-operator (spec.md §4.3);
	// nil outside any clause body.
	currentReturn Ty
}

// NewCtx constructs an inference context at the top (module) level.
func NewCtx(sink *errors.Sink, traits *TraitRegistry, file string) *Ctx {
	return &Ctx{Sink: sink, Traits: traits, level: 0, File: file}
}

// EnterLevel brackets a let/fn/module-scoped region (spec.md §4.3
// "enter_level/leave_level bracket every let, fn, and module-scoped
// region").
func (c *Ctx) EnterLevel() { c.level++ }

// LeaveLevel closes the region opened by the matching EnterLevel.
func (c *Ctx) LeaveLevel() { c.level-- }

// Level returns the current generalization level.
func (c *Ctx) Level() int { return c.level }

// NewVar allocates a fresh, unbound inference variable at the current
// level.
func (c *Ctx) NewVar() Ty {
	c.nextID++

	return TVar{Cell: &VarCell{ID: c.nextID, Level: c.level}}
}

// Generalize quantifies exactly those free variables of t whose level
// exceeds the current level (spec.md §4.3 "generalize(τ) quantifies
// exactly those free variables whose level exceeds the current level").
func (c *Ctx) Generalize(t Ty, bounds []WhereBound) *Scheme {
	m := map[int]*VarCell{}
	freeVars(t, c.level, m)

	vars := make([]int, 0, len(m))
	for id := range m {
		vars = append(vars, id)
	}

	return &Scheme{Vars: vars, Type: t, WhereBounds: bounds}
}

// Instantiate freshens every bound variable of s with a new Var at the
// current level (spec.md §4.3 "instantiate(σ) freshens every bound
// variable with a new Var at the current level"). Returns the
// instantiated type plus the where-bounds re-targeted at the fresh
// variable IDs, so call sites can check them against resolved arguments.
func (c *Ctx) Instantiate(s *Scheme) (Ty, []WhereBound) {
	sub := map[int]Ty{}
	for _, id := range s.Vars {
		sub[id] = c.NewVar()
	}

	bounds := make([]WhereBound, 0, len(s.WhereBounds))
	for _, b := range s.WhereBounds {
		if fresh, ok := sub[b.VarID]; ok {
			if fv, ok := fresh.(TVar); ok {
				bounds = append(bounds, WhereBound{VarID: fv.Cell.ID, Trait: b.Trait})
				continue
			}
		}
		bounds = append(bounds, b)
	}

	return substituteBound(s.Type, sub), bounds
}

func substituteBound(t Ty, sub map[int]Ty) Ty {
	switch n := resolve(t).(type) {
	case TVar:
		if r, ok := sub[n.Cell.ID]; ok {
			return r
		}

		return n
	case TApp:
		args := make([]Ty, len(n.Args))
		for i, a := range n.Args {
			args[i] = substituteBound(a, sub)
		}

		return TApp{Head: substituteBound(n.Head, sub), Args: args}
	case TFun:
		params := make([]Ty, len(n.Params))
		for i, p := range n.Params {
			params[i] = substituteBound(p, sub)
		}

		return TFun{Params: params, Ret: substituteBound(n.Ret, sub)}
	case TTuple:
		elems := make([]Ty, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = substituteBound(e, sub)
		}

		return TTuple{Elems: elems}
	default:
		return n
	}
}

// deferredTraitCheck is a trait-constraint check postponed because the
// operand type was still a free variable at the point the operator was
// typed (spec.md §4.3 "if the type is still a free variable, the check
// is deferred... revisited after the enclosing fn finishes").
type deferredTraitCheck struct {
	Trait   string
	Operand Ty
	Origin  errors.ConstraintOrigin
	Span    errors.LabeledSpan
}

// DeferTraitCheck postpones a trait-obligation check.
func (c *Ctx) DeferTraitCheck(trait string, operand Ty, origin errors.ConstraintOrigin) {
	c.deferred = append(c.deferred, deferredTraitCheck{Trait: trait, Operand: operand, Origin: origin})
}

// ResolveDeferred re-checks every deferred trait obligation now that the
// enclosing function's inference is complete and its variables are
// maximally resolved. Called once per FnDef by the inferencer.
func (c *Ctx) ResolveDeferred() {
	pending := c.deferred
	c.deferred = nil

	for _, d := range pending {
		resolved := resolve(d.Operand)
		if _, stillVar := resolved.(TVar); stillVar {
			// Still unconstrained at generalization time: default resolution
			// (defaulting, e.g. to Int) is out of scope for this compiler;
			// leaving it as a free variable is acceptable at a polymorphic
			// boundary, so no error is raised here.
			continue
		}

		c.CheckTraitImpl(d.Trait, resolved, d.Origin)
	}
}
