package errors

import "github.com/snowdamiz/meshc/internal/token"

// LabeledSpan is one labeled source range attached to a Diagnostic,
// matching spec.md §6's JSON `spans: [{start,end,label}]` field.
type LabeledSpan struct {
	Span  token.Span
	Label string
}

// Diagnostic is one compiler-emitted error or warning. Phases append these
// to a shared sink (Sink, below) rather than aborting, except
// where spec.md §7 requires a hard stop (parse errors; any recorded error
// before codegen).
type Diagnostic struct {
	Code     string
	Severity Severity
	Message  string
	File     string
	Span     token.Span
	Spans    []LabeledSpan
	Fix      string // one-line "help" suggestion, optional
	Origin   ConstraintOrigin
}

// ConstraintOrigin records why a unification was attempted, so the
// diagnostic renderer can produce multi-label messages instead of a bare
// "type mismatch" (spec.md §4.3).
type ConstraintOrigin struct {
	Kind ConstraintOriginKind

	CallSite token.Span
	ParamIdx int

	OpSpan token.Span

	IfSpan   token.Span
	ThenSpan token.Span
	ElseSpan token.Span

	AnnotationSpan token.Span

	ReturnSpan token.Span
	FnSpan     token.Span

	LetSpan token.Span

	LHSSpan token.Span
	RHSSpan token.Span
}

type ConstraintOriginKind int

const (
	OriginBuiltin ConstraintOriginKind = iota
	OriginFnArg
	OriginBinOp
	OriginIfBranches
	OriginAnnotation
	OriginReturn
	OriginLetBinding
	OriginAssignment
)

func (k ConstraintOriginKind) String() string {
	switch k {
	case OriginFnArg:
		return "FnArg"
	case OriginBinOp:
		return "BinOp"
	case OriginIfBranches:
		return "IfBranches"
	case OriginAnnotation:
		return "Annotation"
	case OriginReturn:
		return "Return"
	case OriginLetBinding:
		return "LetBinding"
	case OriginAssignment:
		return "Assignment"
	default:
		return "Builtin"
	}
}

// Sink accumulates diagnostics across a compilation unit. The inferencer
// owns one exclusively (spec.md §3 "Ownership model"); it is write-only to
// every later phase.
type Sink struct {
	diags []Diagnostic
}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) Report(d Diagnostic) { s.diags = append(s.diags, d) }

func (s *Sink) All() []Diagnostic { return s.diags }

func (s *Sink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == SeverityError {
			return true
		}
	}

	return false
}

func (s *Sink) ErrorCount() int {
	n := 0

	for _, d := range s.diags {
		if d.Severity == SeverityError {
			n++
		}
	}

	return n
}
