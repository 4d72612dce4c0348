package parser

import (
	"github.com/snowdamiz/meshc/internal/cst"
	"github.com/snowdamiz/meshc/internal/errors"
	"github.com/snowdamiz/meshc/internal/token"
)

// parsePattern parses one pattern, including `|`-separated or-patterns
// (spec.md §4.5 "Or-patterns are expanded to sibling rows").
func (p *Parser) parsePattern() *cst.Node {
	first := p.parsePatternPrimary()

	if !p.at(token.BAR) {
		return first
	}

	b := cst.NewBuilder(cst.OR_PATTERN)
	b.Child(first)

	for p.at(token.BAR) {
		p.consumeInto(b)
		b.Child(p.parsePatternPrimary())
	}

	return b.Build()
}

func (p *Parser) parsePatternPrimary() *cst.Node {
	tok := p.significant()

	switch tok.Kind {
	case token.IDENT:
		if tok.Text == "_" {
			b := cst.NewBuilder(cst.WILDCARD_PATTERN)
			p.consumeInto(b)

			return b.Build()
		}

		// Uppercase-leading identifiers are constructor/variant patterns;
		// lowercase bind a variable. This mirrors the source grammar's
		// convention without requiring a symbol table at parse time.
		if isUpper(tok.Text) {
			return p.parseVariantOrStructPattern()
		}

		b := cst.NewBuilder(cst.VAR_PATTERN)
		p.consumeInto(b)

		return b.Build()
	case token.INT, token.FLOAT, token.STRING_START, token.TRUE_KW, token.FALSE_KW, token.NIL_KW, token.MINUS:
		return p.parseLiteralPattern()
	case token.LPAREN:
		return p.parseTuplePattern()
	case token.LBRACKET:
		return p.parseListPattern()
	default:
		p.errorAt(tok.Span, errors.E0030UnexpectedToken, "expected a pattern")

		b := cst.NewBuilder(cst.WILDCARD_PATTERN)

		return b.Build()
	}
}

func isUpper(s string) bool {
	return len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z'
}

func (p *Parser) parseLiteralPattern() *cst.Node {
	b := cst.NewBuilder(cst.LITERAL_PATTERN)

	if p.at(token.MINUS) {
		p.consumeInto(b)
	}

	if p.at(token.STRING_START) {
		p.consumeStringInto(b)
	} else {
		p.consumeInto(b)
	}

	return b.Build()
}

func (p *Parser) parseVariantOrStructPattern() *cst.Node {
	if p.significantAt(1).Kind == token.LBRACE {
		b := cst.NewBuilder(cst.STRUCT_PATTERN)
		p.consumeInto(b) // name
		p.consumeInto(b) // '{'

		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			p.consumeInto(b) // field name
			p.expect(b, token.COLON, errors.E0030UnexpectedToken, "expected ':' in struct pattern field")
			b.Child(p.parsePattern())

			if p.at(token.COMMA) {
				p.consumeInto(b)
			} else {
				break
			}
		}

		p.expect(b, token.RBRACE, errors.E0031MissingDelimiter, "expected '}' to close struct pattern")

		return b.Build()
	}

	b := cst.NewBuilder(cst.VARIANT_PATTERN)
	p.consumeInto(b) // name

	if p.at(token.LPAREN) {
		p.consumeInto(b)

		for !p.at(token.RPAREN) && !p.at(token.EOF) {
			b.Child(p.parsePattern())

			if p.at(token.COMMA) {
				p.consumeInto(b)
			} else {
				break
			}
		}

		p.expect(b, token.RPAREN, errors.E0031MissingDelimiter, "expected ')' to close variant pattern arguments")
	}

	return b.Build()
}

func (p *Parser) parseTuplePattern() *cst.Node {
	b := cst.NewBuilder(cst.TUPLE_PATTERN)
	p.consumeInto(b) // '('

	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		b.Child(p.parsePattern())

		if p.at(token.COMMA) {
			p.consumeInto(b)
		} else {
			break
		}
	}

	p.expect(b, token.RPAREN, errors.E0031MissingDelimiter, "expected ')' to close tuple pattern")

	return b.Build()
}

// parseListPattern parses `[]`, `[a, b, c]`, and cons patterns
// `[head | tail]` (spec.md §3 AccessPath ListHead/ListTail).
func (p *Parser) parseListPattern() *cst.Node {
	b := cst.NewBuilder(cst.LIST_PATTERN)
	p.consumeInto(b) // '['

	for !p.at(token.RBRACKET) && !p.at(token.EOF) {
		b.Child(p.parsePatternPrimary())

		if p.at(token.BAR) {
			p.consumeInto(b) // '|' introduces the tail pattern
			b.Child(p.parsePatternPrimary())

			break
		}

		if p.at(token.COMMA) {
			p.consumeInto(b)
		} else {
			break
		}
	}

	p.expect(b, token.RBRACKET, errors.E0031MissingDelimiter, "expected ']' to close list pattern")

	return b.Build()
}
