package parser

import (
	"github.com/snowdamiz/meshc/internal/cst"
	"github.com/snowdamiz/meshc/internal/errors"
	"github.com/snowdamiz/meshc/internal/token"
)

// parseType parses a type expression: a bare name, a type application
// (`List<Int>`, `Result<T,E>`), a tuple type, or a function type
// (`(A, B) -> C`).
func (p *Parser) parseType() *cst.Node {
	if p.at(token.LPAREN) {
		return p.parseTypeParenOrFunc()
	}

	b := cst.NewBuilder(cst.TYPE_REF)
	p.consumeInto(b) // IDENT

	if p.at(token.LT) {
		return p.parseTypeApp(b)
	}

	return b.Build()
}

func (p *Parser) parseTypeApp(b *cst.Builder) *cst.Node {
	b.SetKind(cst.TYPE_APP)
	p.consumeInto(b) // '<'

	for !p.at(token.GT) && !p.at(token.EOF) {
		b.Child(p.parseType())

		if p.at(token.COMMA) {
			p.consumeInto(b)
		} else {
			break
		}
	}

	p.expect(b, token.GT, errors.E0030UnexpectedToken, "expected '>' to close type arguments")

	return b.Build()
}

func (p *Parser) parseTypeParenOrFunc() *cst.Node {
	b := cst.NewBuilder(cst.TYPE_TUPLE)
	p.consumeInto(b) // '('

	var elems []*cst.Node

	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		t := p.parseType()
		elems = append(elems, t)
		b.Child(t)

		if p.at(token.COMMA) {
			p.consumeInto(b)
		} else {
			break
		}
	}

	p.expect(b, token.RPAREN, errors.E0031MissingDelimiter, "expected ')' to close type tuple/params")

	if p.at(token.ARROW) {
		fb := cst.NewBuilder(cst.TYPE_FUN)

		for _, e := range elems {
			fb.Child(e)
		}

		p.consumeInto(fb) // '->'
		fb.Child(p.parseType())

		return fb.Build()
	}

	if len(elems) == 1 {
		return elems[0]
	}

	return b.Build()
}

// cst.Builder.SetKind retargets a builder's kind after construction
// started; parseTypeApp uses it to decide TYPE_REF vs TYPE_APP after
// already consuming the name token (parseExpr also uses it for PIPE_EXPR).
