package lexer

import "github.com/snowdamiz/meshc/internal/token"

// Tokenize fully scans normalized source into a flat token stream,
// trivia included, driving the string-interpolation sub-lexer so callers
// (the parser) never need to know about STRING_START/STRING_END framing
// internals.
func Tokenize(file string, src []byte) []token.Token {
	l := New(file, src)

	var out []token.Token

	for {
		tok := l.Next()
		out = append(out, tok)

		switch tok.Kind {
		case token.EOF:
			return out
		case token.STRING_START:
			out = append(out, scanStringBody(l)...)
		}
	}
}

// scanStringBody pulls STRING_CONTENT / INTERPOLATION_START / ... /
// INTERPOLATION_END / STRING_END tokens until the string literal that was
// just opened by STRING_START is fully consumed. Each interpolated
// expression is scanned with the ordinary tokenizer (braces and nested
// strings all work, since CloseInterpolation tracks its own depth on the
// Lexer) until the brace that matches the INTERPOLATION_START is found.
func scanStringBody(l *Lexer) []token.Token {
	var out []token.Token

	for {
		frag := l.NextStringFragment()
		out = append(out, frag)

		switch frag.Kind {
		case token.STRING_END, token.STRING_ERROR:
			return out
		case token.INTERPOLATION_START:
			depth := 1

			for depth > 0 {
				if depth == 1 && isCloseBraceNext(l) {
					out = append(out, l.CloseInterpolation())
					depth--

					continue
				}

				tok := l.Next()
				out = append(out, tok)

				switch tok.Kind {
				case token.LBRACE:
					depth++
				case token.RBRACE:
					depth--
				case token.STRING_START:
					out = append(out, scanStringBody(l)...)
				case token.EOF:
					depth = 0
				}
			}
		}
	}
}

func isCloseBraceNext(l *Lexer) bool {
	return l.ch == '}'
}
