package parser

import (
	"github.com/snowdamiz/meshc/internal/cst"
	"github.com/snowdamiz/meshc/internal/errors"
	"github.com/snowdamiz/meshc/internal/token"
)

// Binding-power ladder (spec.md §4.2), low to high. Left/right pairs
// follow the usual Pratt convention: right > left for left-associative
// operators so a same-precedence chain nests left-leaning.
const (
	bpLowest = iota * 2
	bpPipe
	bpOr
	bpAnd
	bpEquality
	bpComparison
	bpRange
	bpConcat
	bpAdditive
	bpMultiplicative
	bpPrefix
	bpPostfix // tighter than all infix; used only for call/field/index/try
)

func infixBP(k token.Kind) (left, right int, ok bool) {
	switch k {
	case token.PIPE:
		return bpPipe, bpPipe + 1, true
	case token.OR_KW, token.PIPE_PIPE:
		return bpOr, bpOr + 1, true
	case token.AND_KW, token.AMP_AMP:
		return bpAnd, bpAnd + 1, true
	case token.EQ_EQ, token.NOT_EQ:
		return bpEquality, bpEquality + 1, true
	case token.LT, token.GT, token.LT_EQ, token.GT_EQ:
		return bpComparison, bpComparison + 1, true
	case token.DOT_DOT:
		return bpRange, bpRange + 1, true
	case token.DIAMOND, token.PLUS_PLUS, token.CONS:
		return bpConcat, bpConcat + 1, true
	case token.PLUS, token.MINUS:
		return bpAdditive, bpAdditive + 1, true
	case token.STAR, token.SLASH, token.PERCENT:
		return bpMultiplicative, bpMultiplicative + 1, true
	default:
		return 0, 0, false
	}
}

func prefixBP(k token.Kind) (int, bool) {
	switch k {
	case token.MINUS, token.BANG, token.NOT_KW:
		return bpPrefix, true
	default:
		return 0, false
	}
}

// ParseExpr is the public entry point used by callers that just want one
// expression (e.g. the driver's `check` verb, or eval_harness-adjacent
// tooling).
func (p *Parser) ParseExpr() *cst.Node { return p.parseExpr(bpLowest) }

func (p *Parser) parseExpr(minBP int) *cst.Node {
	left := p.parsePrefix()

	for {
		// Multi-line pipe continuation: a newline immediately followed by
		// `|>` behaves as if the newline were absorbed (spec.md §4.2).
		if p.newlineBeforeNext() && p.significant().Kind != token.PIPE {
			break
		}

		op := p.significant().Kind

		lbp, rbp, ok := infixBP(op)
		if !ok || lbp < minBP {
			break
		}

		b := cst.NewBuilder(cst.BINARY_EXPR)
		if op == token.PIPE {
			b.SetKind(cst.PIPE_EXPR)
		}

		b.Child(left)
		p.consumeInto(b) // operator token
		b.Child(p.parseExpr(rbp))
		left = b.Build()
	}

	return left
}

func (p *Parser) parsePrefix() *cst.Node {
	tok := p.significant()

	if bp, ok := prefixBP(tok.Kind); ok {
		b := cst.NewBuilder(cst.UNARY_EXPR)
		p.consumeInto(b)
		b.Child(p.parseExpr(bp))

		return p.parsePostfix(b.Build())
	}

	return p.parsePostfix(p.parseAtom())
}

func (p *Parser) parseAtom() *cst.Node {
	tok := p.significant()

	switch tok.Kind {
	case token.INT:
		b := cst.NewBuilder(cst.INT_LITERAL)
		p.consumeInto(b)

		return b.Build()
	case token.FLOAT:
		b := cst.NewBuilder(cst.FLOAT_LITERAL)
		p.consumeInto(b)

		return b.Build()
	case token.TRUE_KW, token.FALSE_KW:
		b := cst.NewBuilder(cst.BOOL_LITERAL)
		p.consumeInto(b)

		return b.Build()
	case token.NIL_KW:
		b := cst.NewBuilder(cst.NIL_LITERAL)
		p.consumeInto(b)

		return b.Build()
	case token.STRING_START:
		return p.parseStringLiteral()
	case token.LPAREN:
		return p.parseParenOrTuple()
	case token.LBRACKET:
		return p.parseListLiteral()
	case token.PERCENT_BRACE:
		return p.parseMapOrStructUpdate()
	case token.FN_KW:
		return p.parseLambda()
	case token.IF_KW:
		return p.parseIf()
	case token.CASE_KW:
		return p.parseCase()
	case token.LET_KW:
		return p.parseLet()
	case token.FOR_KW:
		return p.parseFor()
	case token.WHILE_KW:
		return p.parseWhile()
	case token.SPAWN_KW:
		return p.parseSpawn()
	case token.SEND_KW:
		return p.parseSend()
	case token.RECEIVE_KW:
		return p.parseReceive()
	case token.SELF_KW:
		b := cst.NewBuilder(cst.IDENT_EXPR)
		p.consumeInto(b)

		return b.Build()
	case token.IDENT:
		return p.parseIdentOrStructLiteral()
	default:
		p.errorAt(tok.Span, errors.E0030UnexpectedToken, "expected an expression")

		b := cst.NewBuilder(cst.IDENT_EXPR)

		return b.Build()
	}
}

// parseIdentOrStructLiteral disambiguates `Name { field: v }` (a
// STRUCT_LITERAL, per spec.md §4.2) from a bare identifier by looking one
// token ahead: an uppercase name followed by `{` always starts a struct
// literal. parseFor parses its iterable with parseExpr, which reaches this
// function, so `Name {` in loop-iterator position is also read as a struct
// literal rather than as a name followed by a block.
func (p *Parser) parseIdentOrStructLiteral() *cst.Node {
	nameTok := p.significant()

	if isUpper(nameTok.Text) && p.significantAt(1).Kind == token.LBRACE {
		b := cst.NewBuilder(cst.STRUCT_LITERAL)
		p.consumeInto(b) // name
		p.consumeInto(b) // '{'

		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			b.Child(p.parseFieldInit())

			if p.at(token.COMMA) {
				p.consumeInto(b)
			} else {
				break
			}
		}

		p.expect(b, token.RBRACE, errors.E0031MissingDelimiter, "expected '}' to close struct literal")

		return b.Build()
	}

	b := cst.NewBuilder(cst.IDENT_EXPR)
	p.consumeInto(b)

	return b.Build()
}

func (p *Parser) parseFieldInit() *cst.Node {
	b := cst.NewBuilder(cst.FIELD_INIT)
	p.consumeInto(b) // name
	p.expect(b, token.COLON, errors.E0030UnexpectedToken, "expected ':' in field initializer")
	b.Child(p.parseExpr(bpLowest))

	return b.Build()
}

// parseMapOrStructUpdate disambiguates `%{ k => v }` (MAP_LITERAL) from
// `%{ base | field: v }` (STRUCT_UPDATE) by the first separator seen
// after the head expression, per spec.md §4.2.
func (p *Parser) parseMapOrStructUpdate() *cst.Node {
	openB := cst.NewBuilder(cst.MAP_LITERAL)
	p.consumeInto(openB) // '%{'

	if p.at(token.RBRACE) {
		p.expect(openB, token.RBRACE, errors.E0031MissingDelimiter, "expected '}'")

		return openB.Build()
	}

	head := p.parseExpr(bpLowest)

	if p.at(token.BAR) {
		b := cst.NewBuilder(cst.STRUCT_UPDATE)
		b.Child(head)
		p.consumeInto(b) // '|'

		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			b.Child(p.parseFieldInit())

			if p.at(token.COMMA) {
				p.consumeInto(b)
			} else {
				break
			}
		}

		p.expect(b, token.RBRACE, errors.E0031MissingDelimiter, "expected '}' to close struct update")

		return b.Build()
	}

	// Map literal: head was the first key.
	b := cst.NewBuilder(cst.MAP_LITERAL)
	entryB := cst.NewBuilder(cst.MAP_ENTRY)
	entryB.Child(head)
	p.expect(entryB, token.FAT_ARROW, errors.E0030UnexpectedToken, "expected '=>' in map literal")
	entryB.Child(p.parseExpr(bpLowest))
	b.Child(entryB.Build())

	for p.at(token.COMMA) {
		p.consumeInto(b)

		if p.at(token.RBRACE) {
			break
		}

		eb := cst.NewBuilder(cst.MAP_ENTRY)
		eb.Child(p.parseExpr(bpLowest))
		p.expect(eb, token.FAT_ARROW, errors.E0030UnexpectedToken, "expected '=>' in map literal")
		eb.Child(p.parseExpr(bpLowest))
		b.Child(eb.Build())
	}

	p.expect(b, token.RBRACE, errors.E0031MissingDelimiter, "expected '}' to close map literal")

	return b.Build()
}

func (p *Parser) parseParenOrTuple() *cst.Node {
	b := cst.NewBuilder(cst.TUPLE_EXPR)
	p.consumeInto(b) // '('

	var elems []*cst.Node

	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		e := p.parseExpr(bpLowest)
		elems = append(elems, e)
		b.Child(e)

		if p.at(token.COMMA) {
			p.consumeInto(b)
		} else {
			break
		}
	}

	p.expect(b, token.RPAREN, errors.E0031MissingDelimiter, "expected ')' to close parenthesized expression")

	if len(elems) == 1 {
		return elems[0] // a parenthesized single expression is not a tuple
	}

	return b.Build()
}

func (p *Parser) parseListLiteral() *cst.Node {
	b := cst.NewBuilder(cst.LIST_LITERAL)
	p.consumeInto(b) // '['

	for !p.at(token.RBRACKET) && !p.at(token.EOF) {
		b.Child(p.parseExpr(bpLowest))

		if p.at(token.COMMA) {
			p.consumeInto(b)
		} else {
			break
		}
	}

	p.expect(b, token.RBRACKET, errors.E0031MissingDelimiter, "expected ']' to close list literal")

	return b.Build()
}

// parseStringLiteral consumes a full STRING_START..STRING_END run,
// wrapping interpolated expressions as nested expression nodes.
func (p *Parser) parseStringLiteral() *cst.Node {
	b := cst.NewBuilder(cst.STRING_LITERAL)
	p.consumeStringInto(b)

	return b.Build()
}

func (p *Parser) consumeStringInto(b *cst.Builder) {
	p.consumeRawInto(b) // STRING_START

	for {
		tok := p.toks[p.pos]

		switch tok.Kind {
		case token.STRING_CONTENT, token.STRING_ERROR:
			p.consumeRawInto(b)
		case token.STRING_END:
			p.consumeRawInto(b)

			return
		case token.INTERPOLATION_START:
			p.consumeRawInto(b)
			b.Child(p.parseExpr(bpLowest))

			if p.at(token.INTERPOLATION_END) {
				p.consumeInto(b)
			}
		default:
			return
		}
	}
}

// parsePostfix handles call/field/index/try postfix forms, all at a
// binding power tighter than every infix operator (spec.md §4.2).
func (p *Parser) parsePostfix(left *cst.Node) *cst.Node {
	for {
		switch p.significant().Kind {
		case token.LPAREN:
			left = p.parseCall(left)
		case token.DOT:
			left = p.parseFieldAccess(left)
		case token.LBRACKET:
			left = p.parseIndex(left)
		case token.QUESTION:
			b := cst.NewBuilder(cst.TRY_EXPR)
			b.Child(left)
			p.consumeInto(b)
			left = b.Build()
		default:
			return left
		}
	}
}

func (p *Parser) parseCall(callee *cst.Node) *cst.Node {
	b := cst.NewBuilder(cst.CALL_EXPR)
	b.Child(callee)

	argsB := cst.NewBuilder(cst.ARG_LIST)
	p.consumeInto(argsB) // '('

	var kwArgs []*cst.Node

	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		// Keyword arguments `name: expr` trailing positional args desugar
		// at parse time into a synthetic map literal appended after
		// positional arguments (spec.md §4.2).
		if p.at(token.IDENT) && p.significantAt(1).Kind == token.COLON {
			kwB := cst.NewBuilder(cst.KEYWORD_ARG)
			p.consumeInto(kwB) // name
			p.consumeInto(kwB) // ':'
			kwB.Child(p.parseExpr(bpLowest))
			kwArgs = append(kwArgs, kwB.Build())
		} else {
			argsB.Child(p.parseExpr(bpLowest))
		}

		if p.at(token.COMMA) {
			p.consumeInto(argsB)
		} else {
			break
		}
	}

	p.expect(argsB, token.RPAREN, errors.E0031MissingDelimiter, "expected ')' to close call arguments")

	if len(kwArgs) > 0 {
		mapB := cst.NewBuilder(cst.MAP_LITERAL)
		for _, kw := range kwArgs {
			mapB.Child(kw)
		}

		argsB.Child(mapB.Build())
	}

	b.Child(argsB.Build())

	return b.Build()
}

func (p *Parser) parseFieldAccess(recv *cst.Node) *cst.Node {
	b := cst.NewBuilder(cst.FIELD_ACCESS_EXPR)
	b.Child(recv)
	p.consumeInto(b) // '.'
	p.expect(b, token.IDENT, errors.E0030UnexpectedToken, "expected field name after '.'")

	return b.Build()
}

func (p *Parser) parseIndex(recv *cst.Node) *cst.Node {
	b := cst.NewBuilder(cst.INDEX_EXPR)
	b.Child(recv)
	p.consumeInto(b) // '['
	b.Child(p.parseExpr(bpLowest))
	p.expect(b, token.RBRACKET, errors.E0031MissingDelimiter, "expected ']' to close index expression")

	return b.Build()
}

func (p *Parser) parseLambda() *cst.Node {
	b := cst.NewBuilder(cst.LAMBDA_EXPR)
	p.consumeInto(b) // 'fn'
	b.Child(p.parseParamList())

	if p.at(token.ARROW) {
		p.consumeInto(b)
		blk := cst.NewBuilder(cst.BLOCK)
		blk.Child(p.parseExpr(bpLowest))
		b.Child(blk.Build())

		return b.Build()
	}

	p.expect(b, token.DO_KW, errors.E0032InvalidFnDef, "expected 'do' or '->' to start lambda body")
	b.Child(p.parseBlock())
	p.expect(b, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close lambda body")

	return b.Build()
}

func (p *Parser) parseIf() *cst.Node {
	b := cst.NewBuilder(cst.IF_EXPR)
	p.consumeInto(b) // 'if'
	b.Child(p.parseExpr(bpLowest))
	p.expect(b, token.DO_KW, errors.E0030UnexpectedToken, "expected 'do' after if condition")
	b.Child(p.parseBlock())

	if p.at(token.ELSE_KW) {
		p.consumeInto(b)

		if p.at(token.IF_KW) {
			elseBlk := cst.NewBuilder(cst.BLOCK)
			elseBlk.Child(p.parseIf())
			b.Child(elseBlk.Build())

			return b.Build()
		}

		p.expect(b, token.DO_KW, errors.E0030UnexpectedToken, "expected 'do' after else")
		b.Child(p.parseBlock())
	}

	p.expect(b, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close if expression")

	return b.Build()
}

func (p *Parser) parseCase() *cst.Node {
	b := cst.NewBuilder(cst.CASE_EXPR)
	p.consumeInto(b) // 'case'
	b.Child(p.parseExpr(bpLowest))
	p.expect(b, token.DO_KW, errors.E0030UnexpectedToken, "expected 'do' after case scrutinee")

	for !p.at(token.END_KW) && !p.at(token.EOF) {
		b.Child(p.parseMatchArm())
	}

	p.expect(b, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close case expression")

	return b.Build()
}

func (p *Parser) parseMatchArm() *cst.Node {
	b := cst.NewBuilder(cst.MATCH_ARM)
	b.Child(p.parsePattern())

	if p.at(token.WHEN_KW) {
		gb := cst.NewBuilder(cst.GUARD_CLAUSE)
		p.consumeInto(gb)
		gb.Child(p.parseExpr(bpLowest))
		b.Child(gb.Build())
	}

	p.expect(b, token.ARROW, errors.E0030UnexpectedToken, "expected '->' in match arm")
	b.Child(p.parseExpr(bpLowest))

	if p.at(token.SEMICOLON) {
		p.consumeInto(b)
	}

	return b.Build()
}

func (p *Parser) parseLet() *cst.Node {
	b := cst.NewBuilder(cst.LET_EXPR)
	p.consumeInto(b) // 'let'
	p.expect(b, token.IDENT, errors.E0030UnexpectedToken, "expected a name after 'let'")

	if p.at(token.COLON) {
		p.consumeInto(b)
		b.Child(p.parseType())
	}

	p.expect(b, token.ASSIGN, errors.E0030UnexpectedToken, "expected '=' in let binding")
	b.Child(p.parseExpr(bpLowest))

	if p.at(token.IN_KW) {
		p.consumeInto(b)
		blk := cst.NewBuilder(cst.BLOCK)
		blk.Child(p.parseExpr(bpLowest))
		b.Child(blk.Build())
	}

	return b.Build()
}

// parseFor parses `for <pat> in <iter> [when <guard>] do ... end`; MIR
// lowering chooses a list/map/set/range iterator primitive based on the
// scrutinee's resolved type (spec.md §4.4).
func (p *Parser) parseFor() *cst.Node {
	b := cst.NewBuilder(cst.FOR_EXPR)
	p.consumeInto(b) // 'for'
	b.Child(p.parsePattern())
	p.expect(b, token.IN_KW, errors.E0030UnexpectedToken, "expected 'in' in for expression")
	b.Child(p.parseExpr(bpLowest))

	if p.at(token.WHEN_KW) {
		gb := cst.NewBuilder(cst.GUARD_CLAUSE)
		p.consumeInto(gb)
		gb.Child(p.parseExpr(bpLowest))
		b.Child(gb.Build())
	}

	p.expect(b, token.DO_KW, errors.E0030UnexpectedToken, "expected 'do' in for expression")
	b.Child(p.parseBlock())
	p.expect(b, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close for expression")

	return b.Build()
}

func (p *Parser) parseWhile() *cst.Node {
	b := cst.NewBuilder(cst.WHILE_EXPR)
	p.consumeInto(b) // 'while'
	b.Child(p.parseExpr(bpLowest))
	p.expect(b, token.DO_KW, errors.E0030UnexpectedToken, "expected 'do' in while expression")
	b.Child(p.parseBlock())
	p.expect(b, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close while expression")

	return b.Build()
}

func (p *Parser) parseSpawn() *cst.Node {
	b := cst.NewBuilder(cst.SPAWN_EXPR)
	p.consumeInto(b) // 'spawn'
	b.Child(p.parseExpr(bpPostfix))

	if p.at(token.LPAREN) {
		p.consumeInto(b)

		for !p.at(token.RPAREN) && !p.at(token.EOF) {
			b.Child(p.parseExpr(bpLowest))

			if p.at(token.COMMA) {
				p.consumeInto(b)
			} else {
				break
			}
		}

		p.expect(b, token.RPAREN, errors.E0031MissingDelimiter, "expected ')' to close spawn arguments")
	}

	return b.Build()
}

func (p *Parser) parseSend() *cst.Node {
	b := cst.NewBuilder(cst.SEND_EXPR)
	p.consumeInto(b) // 'send'
	b.Child(p.parseExpr(bpPostfix))
	p.expect(b, token.COMMA, errors.E0030UnexpectedToken, "expected ',' between send target and message")
	b.Child(p.parseExpr(bpLowest))

	return b.Build()
}

func (p *Parser) parseReceive() *cst.Node {
	b := cst.NewBuilder(cst.RECEIVE_EXPR)
	p.consumeInto(b) // 'receive'
	p.expect(b, token.DO_KW, errors.E0030UnexpectedToken, "expected 'do' after receive")

	for !p.at(token.END_KW) && !p.at(token.AFTER_KW) && !p.at(token.EOF) {
		b.Child(p.parseMatchArm())
	}

	if p.at(token.AFTER_KW) {
		ab := cst.NewBuilder(cst.AFTER_CLAUSE)
		p.consumeInto(ab)
		ab.Child(p.parseExpr(bpLowest))
		p.expect(ab, token.DO_KW, errors.E0030UnexpectedToken, "expected 'do' after receive-timeout")
		ab.Child(p.parseBlock())
		b.Child(ab.Build())
	}

	p.expect(b, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close receive expression")

	return b.Build()
}

// parseBlock parses a sequence of expressions up to (but not consuming)
// the closing `end`/`else`.
func (p *Parser) parseBlock() *cst.Node {
	b := cst.NewBuilder(cst.BLOCK)

	for !p.at(token.END_KW) && !p.at(token.ELSE_KW) && !p.at(token.EOF) {
		before := p.pos
		b.Child(p.parseExpr(bpLowest))

		if p.pos == before {
			break
		}
	}

	return b.Build()
}
