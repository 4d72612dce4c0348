// Package errors defines the compiler's closed diagnostic taxonomy
// (spec.md §7): every error code is bound to exactly one meaning, carried
// as a stable string of the form E#### (errors) or W#### (warnings).
package errors

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Parser errors.
const (
	E0030UnexpectedToken  = "E0030"
	E0031MissingDelimiter = "E0031"
	E0032InvalidFnDef     = "E0032"
	E0033InvalidModule    = "E0033"
	E0034UnterminatedStr  = "E0034"
)

// Unification / type errors.
const (
	E0001Mismatch     = "E0001"
	E0002InfiniteType = "E0002"
	E0003Arity        = "E0003"
)

// Name resolution.
const (
	E0004Unbound       = "E0004"
	E0010UnknownVariant = "E0010"
)

// Calls on non-functions.
const E0005NotCallable = "E0005"

// Traits.
const (
	E0006Unsatisfied        = "E0006"
	E0007MissingMethod      = "E0007"
	E0008SignatureMismatch  = "E0008"
	E0026DuplicateImpl      = "E0026"
	E0027AmbiguousMethod    = "E0027"
	E0028UnsupportedDerive  = "E0028"
	E0029MissingDerivePrereq = "E0029"
	E0040MissingAssocType   = "E0040"
	E0041ExtraAssocType     = "E0041"
)

// Structs.
const E0009FieldError = "E0009"

// Patterns.
const (
	E0011OrBindingMismatch = "E0011"
	E0012NonExhaustive     = "E0012"
	W0001RedundantArm      = "W0001"
)

// Actors / services / supervisors.
const (
	E0014SendTypeMismatch    = "E0014"
	E0015SelfOutsideActor    = "E0015"
	E0016ReceiveOutsideActor = "E0016"
	E0017SpawnNonFunction    = "E0017"
	E0018ChildStartInvalid   = "E0018"
	E0019BadStrategy         = "E0019"
	E0020BadRestart          = "E0020"
	E0021BadShutdown         = "E0021"
)

// Multi-clause functions.
const (
	E0022CatchAllNotLast     = "E0022"
	E0023NonConsecutiveClauses = "E0023"
	E0024ArityMismatch       = "E0024"
	E0025ReturnTypeMismatch  = "E0025"
	W0002UnreachableClause   = "W0002"
)

// The `?` operator.
const (
	E0036NotResultOrOption = "E0036"
	E0037OperandMismatch   = "E0037"
)

// MIR / lowering-time errors, beyond the source taxonomy, for sum types
// with more than 256 variants. No compiler pass reports this code.
const E0042TooManyVariants = "E0042"

// Module system.
const (
	E0050PrivateImport  = "E0050"
	E0051DuplicateModule = "E0051"
)

// Descriptions gives a short human-readable name for each code, used by
// the diagnostic renderer's default message when a phase doesn't supply
// one of its own.
var Descriptions = map[string]string{
	E0001Mismatch:            "type mismatch",
	E0002InfiniteType:        "infinite type (occurs check failed)",
	E0003Arity:               "function arity mismatch",
	E0004Unbound:             "unbound name",
	E0005NotCallable:         "called value is not a function",
	E0006Unsatisfied:         "trait constraint not satisfied",
	E0007MissingMethod:       "trait method not implemented",
	E0008SignatureMismatch:   "impl method signature does not match trait",
	E0009FieldError:          "unknown or missing struct field",
	E0010UnknownVariant:      "unknown variant",
	E0011OrBindingMismatch:   "or-pattern alternatives bind different variables",
	E0012NonExhaustive:       "non-exhaustive pattern match",
	E0014SendTypeMismatch:    "actor send message type mismatch",
	E0015SelfOutsideActor:    "self used outside an actor context",
	E0016ReceiveOutsideActor: "receive used outside an actor context",
	E0017SpawnNonFunction:    "spawn target is not a function",
	E0018ChildStartInvalid:   "supervisor child spec has invalid start function",
	E0019BadStrategy:         "unknown supervisor restart strategy",
	E0020BadRestart:          "invalid restart intensity",
	E0021BadShutdown:         "invalid shutdown specification",
	E0022CatchAllNotLast:     "catch-all clause must be last",
	E0023NonConsecutiveClauses: "function clauses must be syntactically consecutive",
	E0024ArityMismatch:       "function clauses disagree on parameter count",
	E0025ReturnTypeMismatch:  "function clauses disagree on return type",
	E0026DuplicateImpl:       "duplicate trait impl for type",
	E0027AmbiguousMethod:     "ambiguous method call between multiple traits",
	E0028UnsupportedDerive:   "trait is not derivable",
	E0029MissingDerivePrereq: "derive prerequisite not satisfied",
	E0030UnexpectedToken:     "unexpected token",
	E0031MissingDelimiter:    "missing closing delimiter",
	E0032InvalidFnDef:        "invalid function definition",
	E0033InvalidModule:       "invalid module declaration",
	E0034UnterminatedStr:     "unterminated string literal",
	E0036NotResultOrOption:   "? operator used in function not returning Result/Option",
	E0037OperandMismatch:     "? operator applied to non Result/Option operand",
	E0040MissingAssocType:    "impl is missing a required associated type",
	E0041ExtraAssocType:      "impl declares an associated type not on the trait",
	E0042TooManyVariants:     "sum type has more than 256 variants",
	E0050PrivateImport:       "attempt to import a private item",
	E0051DuplicateModule:     "duplicate module declaration",
	W0001RedundantArm:        "redundant match arm",
	W0002UnreachableClause:   "unreachable function clause",
}
