package types

import (
	"github.com/snowdamiz/meshc/internal/errors"
	"github.com/snowdamiz/meshc/internal/token"
)

// TraitDef is one entry of the registry: a trait's method signatures
// (schemes generic in the trait's own Self variable) and the names of its
// associated-type slots (spec.md §3 "Trait registry").
type TraitDef struct {
	Name        string
	SelfVarID   int
	AssocTypes  []string
	Methods     map[string]*Scheme
	Super       string // "" if none; Ord's superclass is Eq, for example
}

// ImplDef is one `impl Trait for Type` binding: concrete method types and
// associated-type bindings for a specific head constructor.
type ImplDef struct {
	Trait    string
	Head     string // the implementing type's head-constructor name
	Assoc    map[string]Ty
	Methods  map[string]Ty
}

// TraitRegistry maps trait name to definition, and (trait, head
// constructor) to impl (spec.md §3). Duplicate-impl detection is a
// registry invariant enforced by RegisterImpl.
type TraitRegistry struct {
	Traits map[string]*TraitDef
	Impls  map[string]map[string]*ImplDef // trait -> head -> impl
}

// Compiler-known traits: every binary/unary operator is typed through one
// of these (spec.md §4.3).
const (
	TraitAdd     = "Add"
	TraitSub     = "Sub"
	TraitMul     = "Mul"
	TraitDiv     = "Div"
	TraitMod     = "Mod"
	TraitEq      = "Eq"
	TraitOrd     = "Ord"
	TraitNot     = "Not"
	TraitDefault = "Default"
)

// Derivable is the closed set of traits a `deriving(...)` clause may name
// (spec.md §4.3 "The derivable closed set is {Eq, Ord, Display, Debug,
// Hash, Default}").
var Derivable = map[string]bool{
	"Eq": true, "Ord": true, "Display": true, "Debug": true, "Hash": true, "Default": true,
}

// derivePrereqs encodes "Ord requires Eq" and similar static checks.
var derivePrereqs = map[string][]string{
	"Ord": {"Eq"},
}

func NewTraitRegistry() *TraitRegistry {
	return &TraitRegistry{Traits: map[string]*TraitDef{}, Impls: map[string]map[string]*ImplDef{}}
}

func (r *TraitRegistry) RegisterTrait(t *TraitDef) { r.Traits[t.Name] = t }

// RegisterImpl records an impl, reporting E0026 on a duplicate
// (trait, head) pair.
func (r *TraitRegistry) RegisterImpl(ctx *Ctx, impl *ImplDef, span token.Span) {
	byHead, ok := r.Impls[impl.Trait]
	if !ok {
		byHead = map[string]*ImplDef{}
		r.Impls[impl.Trait] = byHead
	}

	if _, dup := byHead[impl.Head]; dup {
		ctx.Sink.Report(errors.Diagnostic{
			Code:     errors.E0026DuplicateImpl,
			Severity: errors.SeverityError,
			Message:  "duplicate impl of " + impl.Trait + " for " + impl.Head,
			File:     ctx.File,
			Span:     span,
		})

		return
	}

	byHead[impl.Head] = impl

	def, ok := r.Traits[impl.Trait]
	if !ok {
		return
	}

	for _, name := range def.AssocTypes {
		if _, bound := impl.Assoc[name]; !bound {
			ctx.Sink.Report(errors.Diagnostic{
				Code:     errors.E0040MissingAssocType,
				Severity: errors.SeverityError,
				Message:  impl.Trait + " for " + impl.Head + " is missing associated type " + name,
				File:     ctx.File,
				Span:     span,
			})
		}
	}

	declared := map[string]bool{}
	for _, name := range def.AssocTypes {
		declared[name] = true
	}

	for name := range impl.Assoc {
		if !declared[name] {
			ctx.Sink.Report(errors.Diagnostic{
				Code:     errors.E0041ExtraAssocType,
				Severity: errors.SeverityError,
				Message:  impl.Trait + " for " + impl.Head + " declares unknown associated type " + name,
				File:     ctx.File,
				Span:     span,
			})
		}
	}
}

// FindImpl looks up the impl of trait for a resolved type's head
// constructor name.
func (r *TraitRegistry) FindImpl(trait, head string) (*ImplDef, bool) {
	byHead, ok := r.Impls[trait]
	if !ok {
		return nil, false
	}

	impl, ok := byHead[head]

	return impl, ok
}

// headName extracts the head-constructor name used to index the impl
// table: a TCon's own name, or a TApp's head TCon name.
func headName(t Ty) (string, bool) {
	switch n := resolve(t).(type) {
	case TCon:
		return n.Name, true
	case TApp:
		return headName(n.Head)
	default:
		return "", false
	}
}

// CheckTraitImpl verifies that resolved has an impl of trait, reporting
// E0006 if not (spec.md §4.3 "checks that the resolved type has an impl
// for the trait").
func (c *Ctx) CheckTraitImpl(trait string, resolved Ty, origin errors.ConstraintOrigin) bool {
	name, ok := headName(resolved)
	if !ok {
		return true // still abstract (e.g. a tuple/function type); nothing to check yet
	}

	if _, ok := c.Traits.FindImpl(trait, name); !ok {
		c.Sink.Report(errors.Diagnostic{
			Code:     errors.E0006Unsatisfied,
			Severity: errors.SeverityError,
			Message:  resolved.String() + " does not implement " + trait,
			File:     c.File,
			Origin:   origin,
		})

		return false
	}

	return true
}

// CheckDeriving validates a `deriving(...)` list against Derivable and its
// prerequisites (spec.md §4.3), reporting E0028/E0029. Valid entries are
// registered as impls so that monomorphization dispatch
// (`{Protocol}__{method}__{TypeName}`, spec.md §4.4) can find them; the
// MIR lowerer is responsible for actually synthesizing the method bodies.
func (c *Ctx) CheckDeriving(typeName string, traitNames []string, span token.Span) {
	present := map[string]bool{}
	for _, t := range traitNames {
		present[t] = true
	}

	for _, t := range traitNames {
		if !Derivable[t] {
			c.Sink.Report(errors.Diagnostic{
				Code:     errors.E0028UnsupportedDerive,
				Severity: errors.SeverityError,
				Message:  t + " is not a derivable trait",
				File:     c.File,
				Span:     span,
			})

			continue
		}

		for _, prereq := range derivePrereqs[t] {
			if !present[prereq] {
				c.Sink.Report(errors.Diagnostic{
					Code:     errors.E0029MissingDerivePrereq,
					Severity: errors.SeverityError,
					Message:  "deriving(" + t + ") requires " + prereq + " also be derived for " + typeName,
					File:     c.File,
					Span:     span,
				})
			}
		}

		c.Traits.RegisterImpl(c, &ImplDef{Trait: t, Head: typeName, Assoc: map[string]Ty{}, Methods: map[string]Ty{}}, span)
	}
}

// ResolveMethod implements method dot-syntax resolution (spec.md §4.3
// "receiver.method(args)"): it searches every registered trait for one
// declaring `method` and holding an impl for receiver's head constructor.
// More than one match is E0027 AmbiguousMethod; none is E0007
// MissingMethod.
func (c *Ctx) ResolveMethod(receiver Ty, method string, span token.Span) (trait string, sig *Scheme, ok bool) {
	name, hasHead := headName(receiver)
	if !hasHead {
		return "", nil, false
	}

	var matches []string

	for tname, def := range c.Traits.Traits {
		if _, declares := def.Methods[method]; !declares {
			continue
		}

		if _, has := c.Traits.FindImpl(tname, name); has {
			matches = append(matches, tname)
		}
	}

	switch len(matches) {
	case 0:
		c.Sink.Report(errors.Diagnostic{
			Code:     errors.E0007MissingMethod,
			Severity: errors.SeverityError,
			Message:  receiver.String() + " has no method " + method,
			File:     c.File,
			Span:     span,
		})

		return "", nil, false
	case 1:
		def := c.Traits.Traits[matches[0]]

		return matches[0], def.Methods[method], true
	default:
		c.Sink.Report(errors.Diagnostic{
			Code:     errors.E0027AmbiguousMethod,
			Severity: errors.SeverityError,
			Message:  "ambiguous method " + method + " on " + receiver.String() + ": matches traits " + joinNames(matches),
			File:     c.File,
			Span:     span,
		})

		def := c.Traits.Traits[matches[0]]

		return matches[0], def.Methods[method], true
	}
}

func joinNames(ns []string) string {
	out := ""
	for i, n := range ns {
		if i > 0 {
			out += ", "
		}

		out += n
	}

	return out
}
