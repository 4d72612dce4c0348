// Package lexer turns normalized source bytes into a flat, lossless token
// stream: every trivia byte (whitespace, newlines, comments) is preserved
// as its own token so that the concrete syntax tree built on top of this
// stream can reproduce the source byte-for-byte.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/snowdamiz/meshc/internal/token"
)

// Lexer scans one source file into tokens on demand via Next.
type Lexer struct {
	file string
	src  []byte

	offset     int // byte offset of ch
	rdOffset   int // byte offset after ch
	ch         rune
	line       int
	col        int

	// delimiterDepth tracks how many of ( [ { we are nested inside.
	// Newlines are insignificant while this is > 0, per spec.md §4.1.
	delimiterDepth int

	// interpStack records, for each currently-open string interpolation
	// expression, the delimiter depth that was active when it opened, so
	// that the closing '}' of the interpolation can be told apart from an
	// ordinary brace used inside the interpolated expression.
	interpStack []int
}

// New creates a Lexer over already-normalized source bytes (see
// Normalize). file is used only for diagnostic positions.
func New(file string, src []byte) *Lexer {
	l := &Lexer{file: file, src: src, line: 1, col: 0}
	l.advance()

	return l
}

func (l *Lexer) advance() {
	if l.rdOffset >= len(l.src) {
		l.ch = 0
		l.offset = l.rdOffset

		return
	}

	r, w := utf8.DecodeRune(l.src[l.rdOffset:])
	if r == utf8.RuneError && w == 1 {
		r = rune(l.src[l.rdOffset])
	}

	l.offset = l.rdOffset
	l.rdOffset += w
	l.ch = r

	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

func (l *Lexer) peek() rune {
	if l.rdOffset >= len(l.src) {
		return 0
	}

	r, _ := utf8.DecodeRune(l.src[l.rdOffset:])

	return r
}

func (l *Lexer) peek2() rune {
	if l.rdOffset >= len(l.src) {
		return 0
	}

	_, w := utf8.DecodeRune(l.src[l.rdOffset:])
	next := l.rdOffset + w

	if next >= len(l.src) {
		return 0
	}

	r, _ := utf8.DecodeRune(l.src[next:])

	return r
}

func (l *Lexer) pos() token.Pos {
	return token.Pos{File: l.file, Line: l.line, Column: l.col, Offset: l.offset}
}

func (l *Lexer) make(kind token.Kind, start token.Pos, startOffset int) token.Token {
	return token.Token{
		Kind: kind,
		Text: string(l.src[startOffset:l.offset]),
		Span: token.Span{Start: start, End: l.pos()},
	}
}

// Next returns the next token, including trivia. At end of input it
// repeatedly returns an EOF token.
func (l *Lexer) Next() token.Token {
	if l.inInterpolation() {
		return l.lexInterpolationBody()
	}

	return l.lexNormal()
}

func (l *Lexer) inInterpolation() bool {
	return false // interpolation body scanning is driven by lexString; see there.
}

func (l *Lexer) lexInterpolationBody() token.Token {
	return l.lexNormal()
}

func (l *Lexer) lexNormal() token.Token {
	start := l.pos()
	startOffset := l.offset

	switch {
	case l.ch == 0:
		return token.Token{Kind: token.EOF, Span: token.Span{Start: start, End: start}}
	case l.ch == '\n':
		l.advance()

		return l.make(token.NEWLINE, start, startOffset)
	case isSpace(l.ch):
		for isSpace(l.ch) {
			l.advance()
		}

		return l.make(token.WHITESPACE, start, startOffset)
	case l.ch == '#':
		return l.lexComment(start, startOffset)
	case l.ch == '"':
		return l.lexStringStart(start, startOffset)
	case isDigit(l.ch):
		return l.lexNumber(start, startOffset)
	case isIdentStart(l.ch):
		return l.lexIdent(start, startOffset)
	default:
		return l.lexOperator(start, startOffset)
	}
}

func (l *Lexer) lexComment(start token.Pos, startOffset int) token.Token {
	doc := l.peek() == '#'
	for l.ch != '\n' && l.ch != 0 {
		l.advance()
	}

	kind := token.COMMENT
	if doc {
		kind = token.DOC_COMMENT
	}

	return l.make(kind, start, startOffset)
}

func (l *Lexer) lexIdent(start token.Pos, startOffset int) token.Token {
	for isIdentPart(l.ch) {
		l.advance()
	}

	text := string(l.src[startOffset:l.offset])
	kind := token.Lookup(text)

	if kind == token.IDENT {
		kind = token.IDENT
	}

	return token.Token{Kind: kind, Text: text, Span: token.Span{Start: start, End: l.pos()}}
}

func (l *Lexer) lexNumber(start token.Pos, startOffset int) token.Token {
	for isDigit(l.ch) || l.ch == '_' {
		l.advance()
	}

	kind := token.INT

	if l.ch == '.' && isDigit(l.peek()) {
		kind = token.FLOAT

		l.advance()
		for isDigit(l.ch) || l.ch == '_' {
			l.advance()
		}
	}

	if l.ch == 'e' || l.ch == 'E' {
		save := l.offset
		l.advance()

		if l.ch == '+' || l.ch == '-' {
			l.advance()
		}

		if isDigit(l.ch) {
			kind = token.FLOAT
			for isDigit(l.ch) {
				l.advance()
			}
		} else {
			l.offset = save // not an exponent; rewind is approximate (rare edge case)
		}
	}

	return l.make(kind, start, startOffset)
}

// lexStringStart produces only the STRING_START token; the parser drives
// subsequent calls to NextStringFragment to pull STRING_CONTENT /
// INTERPOLATION_START / STRING_END tokens, since a bare token-at-a-time
// lexer cannot otherwise know when a string has ended versus an
// interpolation has opened.
func (l *Lexer) lexStringStart(start token.Pos, startOffset int) token.Token {
	l.advance() // consume opening quote

	return l.make(token.STRING_START, start, startOffset)
}

// NextStringFragment continues lexing a string literal after STRING_START
// or after a consumed INTERPOLATION_END, returning STRING_CONTENT,
// INTERPOLATION_START, STRING_END, or STRING_ERROR (unterminated — the
// lexer then resumes normal scanning at the next line boundary, per
// spec.md §4.1).
func (l *Lexer) NextStringFragment() token.Token {
	start := l.pos()
	startOffset := l.offset

	var sb strings.Builder

	for {
		switch {
		case l.ch == 0 || l.ch == '\n':
			// Unterminated string: emit what we have as an error token and
			// let the caller resynchronize at the next line.
			if sb.Len() > 0 {
				return token.Token{Kind: token.STRING_CONTENT, Text: sb.String(), Span: token.Span{Start: start, End: l.pos()}}
			}

			return l.make(token.STRING_ERROR, start, startOffset)
		case l.ch == '"':
			if sb.Len() > 0 {
				// Content ends here; STRING_END is reported on the next call
				// so the content and the closing quote are distinct tokens.
				return token.Token{Kind: token.STRING_CONTENT, Text: sb.String(), Span: token.Span{Start: start, End: l.pos()}}
			}

			l.advance()

			return l.make(token.STRING_END, start, startOffset)
		case l.ch == '$' && l.peek() == '{':
			if sb.Len() > 0 {
				return token.Token{Kind: token.STRING_CONTENT, Text: sb.String(), Span: token.Span{Start: start, End: l.pos()}}
			}

			l.advance() // '$'
			l.advance() // '{'
			l.interpStack = append(l.interpStack, l.delimiterDepth)
			l.delimiterDepth++

			return l.make(token.INTERPOLATION_START, start, startOffset)
		case l.ch == '\\':
			sb.WriteRune(l.ch)
			l.advance()

			if l.ch != 0 {
				sb.WriteRune(l.ch)
				l.advance()
			}
		default:
			sb.WriteRune(l.ch)
			l.advance()
		}
	}
}

// CloseInterpolation is called by the parser when it reads the '}' that
// matches the most recent INTERPOLATION_START, producing the
// INTERPOLATION_END token and resuming string-fragment mode.
func (l *Lexer) CloseInterpolation() token.Token {
	start := l.pos()
	startOffset := l.offset

	l.advance() // consume '}'

	if n := len(l.interpStack); n > 0 {
		l.delimiterDepth = l.interpStack[n-1]
		l.interpStack = l.interpStack[:n-1]
	}

	return l.make(token.INTERPOLATION_END, start, startOffset)
}

func (l *Lexer) lexOperator(start token.Pos, startOffset int) token.Token {
	ch := l.ch

	two := func(next rune, kind token.Kind, single token.Kind) token.Token {
		if l.peek() == next {
			l.advance()
			l.advance()

			return l.make(kind, start, startOffset)
		}

		l.advance()

		return l.make(single, start, startOffset)
	}

	switch ch {
	case '+':
		if l.peek() == '+' {
			l.advance()
			l.advance()

			return l.make(token.PLUS_PLUS, start, startOffset)
		}

		l.advance()

		return l.make(token.PLUS, start, startOffset)
	case '-':
		if l.peek() == '>' {
			l.advance()
			l.advance()

			return l.make(token.ARROW, start, startOffset)
		}

		l.advance()

		return l.make(token.MINUS, start, startOffset)
	case '*':
		l.advance()

		return l.make(token.STAR, start, startOffset)
	case '/':
		l.advance()

		return l.make(token.SLASH, start, startOffset)
	case '%':
		if l.peek() == '{' {
			l.advance()
			l.advance()

			return l.make(token.PERCENT_BRACE, start, startOffset)
		}

		l.advance()

		return l.make(token.PERCENT, start, startOffset)
	case '=':
		if l.peek() == '=' {
			l.advance()
			l.advance()

			return l.make(token.EQ_EQ, start, startOffset)
		}

		if l.peek() == '>' {
			l.advance()
			l.advance()

			return l.make(token.FAT_ARROW, start, startOffset)
		}

		l.advance()

		return l.make(token.ASSIGN, start, startOffset)
	case '!':
		return two('=', token.NOT_EQ, token.BANG)
	case '<':
		if l.peek() == '=' {
			l.advance()
			l.advance()

			return l.make(token.LT_EQ, start, startOffset)
		}

		if l.peek() == '>' {
			l.advance()
			l.advance()

			return l.make(token.DIAMOND, start, startOffset)
		}

		l.advance()

		return l.make(token.LT, start, startOffset)
	case '>':
		return two('=', token.GT_EQ, token.GT)
	case '&':
		if l.peek() == '&' {
			l.advance()
			l.advance()

			return l.make(token.AMP_AMP, start, startOffset)
		}

		l.advance()

		return l.make(token.ILLEGAL, start, startOffset)
	case '|':
		if l.peek() == '>' {
			l.advance()
			l.advance()

			return l.make(token.PIPE, start, startOffset)
		}

		if l.peek() == '|' {
			l.advance()
			l.advance()

			return l.make(token.PIPE_PIPE, start, startOffset)
		}

		l.advance()

		return l.make(token.BAR, start, startOffset)
	case ':':
		if l.peek() == ':' {
			l.advance()
			l.advance()

			return l.make(token.CONS, start, startOffset)
		}

		l.advance()

		return l.make(token.COLON, start, startOffset)
	case '.':
		if l.peek() == '.' && l.peek2() == '.' {
			l.advance()
			l.advance()
			l.advance()

			return l.make(token.ELLIPSIS, start, startOffset)
		}

		if l.peek() == '.' {
			l.advance()
			l.advance()

			return l.make(token.DOT_DOT, start, startOffset)
		}

		l.advance()

		return l.make(token.DOT, start, startOffset)
	case '?':
		l.advance()

		return l.make(token.QUESTION, start, startOffset)
	case '@':
		l.advance()

		return l.make(token.AT_SIGN, start, startOffset)
	case '$':
		l.advance()

		return l.make(token.DOLLAR, start, startOffset)
	case ',':
		l.advance()

		return l.make(token.COMMA, start, startOffset)
	case ';':
		l.advance()

		return l.make(token.SEMICOLON, start, startOffset)
	case '(':
		l.delimiterDepth++

		l.advance()

		return l.make(token.LPAREN, start, startOffset)
	case ')':
		l.closeDelimiter()
		l.advance()

		return l.make(token.RPAREN, start, startOffset)
	case '[':
		l.delimiterDepth++

		l.advance()

		return l.make(token.LBRACKET, start, startOffset)
	case ']':
		l.closeDelimiter()
		l.advance()

		return l.make(token.RBRACKET, start, startOffset)
	case '{':
		l.delimiterDepth++

		l.advance()

		return l.make(token.LBRACE, start, startOffset)
	case '}':
		l.closeDelimiter()
		l.advance()

		return l.make(token.RBRACE, start, startOffset)
	default:
		l.advance()

		return l.make(token.ILLEGAL, start, startOffset)
	}
}

func (l *Lexer) closeDelimiter() {
	if l.delimiterDepth > 0 {
		l.delimiterDepth--
	}
}

func isSpace(r rune) bool      { return r == ' ' || r == '\t' || r == '\r' }
func isDigit(r rune) bool      { return r >= '0' && r <= '9' }
func isIdentStart(r rune) bool { return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r >= utf8.RuneSelf }
func isIdentPart(r rune) bool  { return isIdentStart(r) || isDigit(r) }
