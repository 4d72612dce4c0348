// Package token defines the lexical token vocabulary shared by the lexer,
// the concrete syntax tree, and the parser.
package token

import "fmt"

// Kind enumerates every token the lexer can produce, including the trivia
// kinds (whitespace, newline, comment, doc-comment) needed to keep the
// concrete syntax tree lossless.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	// Trivia — never significant to the parser's grammar, but carried on
	// the CST so that concatenating every leaf's text reproduces the
	// source byte-for-byte.
	WHITESPACE
	NEWLINE
	COMMENT
	DOC_COMMENT

	// Identifiers and literals.
	IDENT
	INT
	FLOAT
	CHAR
	TRUE_KW
	FALSE_KW
	NIL_KW

	// String interpolation fragments. A string literal lexes as
	// STRING_START, then zero-or-more of (STRING_CONTENT |
	// INTERPOLATION_START ... INTERPOLATION_END), then STRING_END.
	STRING_START
	STRING_CONTENT
	INTERPOLATION_START
	INTERPOLATION_END
	STRING_END
	STRING_ERROR // unterminated string fragment

	// Layout keywords.
	DO_KW
	END_KW

	// Declaration keywords.
	FN_KW
	LET_KW
	IN_KW
	MODULE_KW
	IMPORT_KW
	PUB_KW
	STRUCT_KW
	TYPE_KW
	INTERFACE_KW
	IMPL_KW
	WHERE_KW
	DERIVING_KW // contextual keyword, recognized by text on an IDENT

	// Control-flow keywords.
	IF_KW
	ELSE_KW
	CASE_KW
	MATCH_KW
	WHEN_KW
	FOR_KW
	WHILE_KW
	BREAK_KW
	CONTINUE_KW
	RETURN_KW

	// Actor/service/supervisor keywords.
	ACTOR_KW
	SERVICE_KW
	SUPERVISOR_KW
	SPAWN_KW
	SEND_KW
	RECEIVE_KW
	AFTER_KW
	SELF_KW
	LINK_KW
	MONITOR_KW
	TERMINATE_KW
	CALL_KW
	CAST_KW

	// Logical keywords (also usable as operators).
	AND_KW
	OR_KW
	NOT_KW

	// Operators & punctuation.
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	EQ_EQ
	NOT_EQ
	LT
	GT
	LT_EQ
	GT_EQ
	AMP_AMP
	PIPE_PIPE
	ARROW     // ->
	FAT_ARROW // =>
	PIPE      // |>
	BAR       // | (struct-update separator, pattern or-bar)
	DOT_DOT   // ..
	DIAMOND   // <>  (string concat)
	PLUS_PLUS // ++  (list/collection concat)
	CONS      // ::
	BANG      // !
	QUESTION  // ?
	AT_SIGN   // @
	DOLLAR    // $
	PERCENT_BRACE
	ASSIGN // =
	COLON
	COMMA
	DOT
	ELLIPSIS
	SEMICOLON

	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
)

var names = map[Kind]string{
	ILLEGAL:              "ILLEGAL",
	EOF:                  "EOF",
	WHITESPACE:           "WHITESPACE",
	NEWLINE:              "NEWLINE",
	COMMENT:              "COMMENT",
	DOC_COMMENT:          "DOC_COMMENT",
	IDENT:                "IDENT",
	INT:                  "INT",
	FLOAT:                "FLOAT",
	CHAR:                 "CHAR",
	TRUE_KW:              "true",
	FALSE_KW:             "false",
	NIL_KW:               "nil",
	STRING_START:         "STRING_START",
	STRING_CONTENT:       "STRING_CONTENT",
	INTERPOLATION_START:  "INTERPOLATION_START",
	INTERPOLATION_END:    "INTERPOLATION_END",
	STRING_END:           "STRING_END",
	STRING_ERROR:         "STRING_ERROR",
	DO_KW:                "do",
	END_KW:               "end",
	FN_KW:                "fn",
	LET_KW:               "let",
	IN_KW:                "in",
	MODULE_KW:            "module",
	IMPORT_KW:            "import",
	PUB_KW:               "pub",
	STRUCT_KW:            "struct",
	TYPE_KW:              "type",
	INTERFACE_KW:         "interface",
	IMPL_KW:              "impl",
	WHERE_KW:             "where",
	DERIVING_KW:          "deriving",
	IF_KW:                "if",
	ELSE_KW:              "else",
	CASE_KW:              "case",
	MATCH_KW:             "match",
	WHEN_KW:              "when",
	FOR_KW:               "for",
	WHILE_KW:             "while",
	BREAK_KW:             "break",
	CONTINUE_KW:          "continue",
	RETURN_KW:            "return",
	ACTOR_KW:             "actor",
	SERVICE_KW:           "service",
	SUPERVISOR_KW:        "supervisor",
	SPAWN_KW:             "spawn",
	SEND_KW:              "send",
	RECEIVE_KW:           "receive",
	AFTER_KW:             "after",
	SELF_KW:              "self",
	LINK_KW:              "link",
	MONITOR_KW:           "monitor",
	TERMINATE_KW:         "terminate",
	CALL_KW:              "call",
	CAST_KW:              "cast",
	AND_KW:               "and",
	OR_KW:                "or",
	NOT_KW:               "not",
	PLUS:                 "+",
	MINUS:                "-",
	STAR:                 "*",
	SLASH:                "/",
	PERCENT:              "%",
	EQ_EQ:                "==",
	NOT_EQ:               "!=",
	LT:                   "<",
	GT:                   ">",
	LT_EQ:                "<=",
	GT_EQ:                ">=",
	AMP_AMP:              "&&",
	PIPE_PIPE:            "||",
	ARROW:                "->",
	FAT_ARROW:            "=>",
	PIPE:                 "|>",
	BAR:                  "|",
	DOT_DOT:              "..",
	DIAMOND:              "<>",
	PLUS_PLUS:            "++",
	CONS:                 "::",
	BANG:                 "!",
	QUESTION:             "?",
	AT_SIGN:              "@",
	DOLLAR:               "$",
	PERCENT_BRACE:        "%{",
	ASSIGN:               "=",
	COLON:                ":",
	COMMA:                ",",
	DOT:                  ".",
	ELLIPSIS:             "...",
	SEMICOLON:            ";",
	LPAREN:               "(",
	RPAREN:               ")",
	LBRACE:               "{",
	RBRACE:               "}",
	LBRACKET:             "[",
	RBRACKET:             "]",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsTrivia reports whether a token kind is insignificant to the grammar
// but still required for lossless CST reconstruction.
func (k Kind) IsTrivia() bool {
	switch k {
	case WHITESPACE, NEWLINE, COMMENT, DOC_COMMENT:
		return true
	default:
		return false
	}
}

// Keywords maps reserved words to their token kind. "deriving" is
// deliberately absent: it is a contextual keyword recognized by text on an
// ordinary IDENT token, matching the source grammar's treatment of it.
var Keywords = map[string]Kind{
	"do":         DO_KW,
	"end":        END_KW,
	"fn":         FN_KW,
	"let":        LET_KW,
	"in":         IN_KW,
	"module":     MODULE_KW,
	"import":     IMPORT_KW,
	"pub":        PUB_KW,
	"struct":     STRUCT_KW,
	"type":       TYPE_KW,
	"interface":  INTERFACE_KW,
	"impl":       IMPL_KW,
	"where":      WHERE_KW,
	"if":         IF_KW,
	"else":       ELSE_KW,
	"case":       CASE_KW,
	"match":      MATCH_KW,
	"when":       WHEN_KW,
	"for":        FOR_KW,
	"while":      WHILE_KW,
	"break":      BREAK_KW,
	"continue":   CONTINUE_KW,
	"return":     RETURN_KW,
	"actor":      ACTOR_KW,
	"service":    SERVICE_KW,
	"supervisor": SUPERVISOR_KW,
	"spawn":      SPAWN_KW,
	"send":       SEND_KW,
	"receive":    RECEIVE_KW,
	"after":      AFTER_KW,
	"self":       SELF_KW,
	"link":       LINK_KW,
	"monitor":    MONITOR_KW,
	"terminate":  TERMINATE_KW,
	"call":       CALL_KW,
	"cast":       CAST_KW,
	"and":        AND_KW,
	"or":         OR_KW,
	"not":        NOT_KW,
	"true":       TRUE_KW,
	"false":      FALSE_KW,
	"nil":        NIL_KW,
}

// Lookup classifies an identifier's text as a keyword kind or IDENT.
func Lookup(text string) Kind {
	if k, ok := Keywords[text]; ok {
		return k
	}
	return IDENT
}

// Pos is a single source location, tracked as both line/column (for
// diagnostics) and byte offset (for span arithmetic and CST slicing).
type Pos struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a half-open [Start, End) byte range with resolved positions at
// both ends, used on every CST node and AST node for diagnostics.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) String() string {
	return fmt.Sprintf("%s-%d:%d", s.Start, s.End.Line, s.End.Column)
}

// Token is one lexical token: its kind, the exact source text it covers
// (trivia included verbatim — no normalization happens at this layer), and
// its span.
type Token struct {
	Kind Kind
	Text string
	Span Span
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}
