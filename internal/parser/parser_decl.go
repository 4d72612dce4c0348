package parser

import (
	"github.com/snowdamiz/meshc/internal/cst"
	"github.com/snowdamiz/meshc/internal/errors"
	"github.com/snowdamiz/meshc/internal/token"
)

// parseModuleDecl parses `module a.b.c`.
func (p *Parser) parseModuleDecl() *cst.Node {
	b := cst.NewBuilder(cst.MODULE_DECL)
	p.consumeInto(b) // 'module'
	p.expect(b, token.IDENT, errors.E0033InvalidModule, "expected a module path after 'module'")

	for p.at(token.DOT) {
		p.consumeInto(b)
		p.expect(b, token.IDENT, errors.E0033InvalidModule, "expected a path segment after '.'")
	}

	return b.Build()
}

// parseImportDecl parses `import a.b.c`.
func (p *Parser) parseImportDecl() *cst.Node {
	b := cst.NewBuilder(cst.IMPORT_DECL)
	p.consumeInto(b) // 'import'
	p.expect(b, token.IDENT, errors.E0033InvalidModule, "expected a module path after 'import'")

	for p.at(token.DOT) {
		p.consumeInto(b)
		p.expect(b, token.IDENT, errors.E0033InvalidModule, "expected a path segment after '.'")
	}

	return b.Build()
}

// parseItem dispatches one top-level declaration. It returns nil and
// records a diagnostic if the current position doesn't start a
// recognized item; the caller handles recovery.
func (p *Parser) parseItem() *cst.Node {
	pubTok, hasPub := p.tryConsumePub()

	switch p.significant().Kind {
	case token.FN_KW:
		return p.parseFnDef(pubTok, hasPub)
	case token.STRUCT_KW:
		return p.parseStructDef(pubTok, hasPub)
	case token.TYPE_KW:
		return p.parseSumTypeDef(pubTok, hasPub)
	case token.INTERFACE_KW:
		return p.parseInterfaceDef(pubTok, hasPub)
	case token.IMPL_KW:
		return p.parseImplDef()
	case token.ACTOR_KW:
		return p.parseActorDef(pubTok, hasPub)
	case token.SERVICE_KW:
		return p.parseServiceDef(pubTok, hasPub)
	case token.SUPERVISOR_KW:
		return p.parseSupervisorDef(pubTok, hasPub)
	default:
		p.errorAt(p.significant().Span, errors.E0030UnexpectedToken, "expected a top-level declaration")

		return nil
	}
}

// tryConsumePub peeks for a leading `pub` modifier without attaching it to
// any builder yet, since the modifier belongs on whichever item follows.
func (p *Parser) tryConsumePub() (token.Token, bool) {
	if p.at(token.PUB_KW) {
		tmp := cst.NewBuilder(cst.ERROR)
		tok := p.consumeInto(tmp)

		return tok, true
	}

	return token.Token{}, false
}

func attachPub(b *cst.Builder, pubTok token.Token, hasPub bool) {
	if hasPub {
		b.Token(pubTok)
	}
}

// parseFnDef parses one `fn name(params) [-> RetType] [where ...] do ...
// end` clause, producing an FN_DEF with a single FN_CLAUSE; consecutive
// same-named clauses are merged by the caller (parseFileBody).
func (p *Parser) parseFnDef(pubTok token.Token, hasPub bool) *cst.Node {
	b := cst.NewBuilder(cst.FN_DEF)
	attachPub(b, pubTok, hasPub)
	p.consumeInto(b) // 'fn'
	p.expect(b, token.IDENT, errors.E0032InvalidFnDef, "expected a function name after 'fn'")

	clauseB := cst.NewBuilder(cst.FN_CLAUSE)
	clauseB.Child(p.parseParamList())

	if p.at(token.ARROW) {
		p.consumeInto(clauseB)
		clauseB.Child(p.parseType())
	}

	if p.at(token.WHERE_KW) {
		clauseB.Child(p.parseWhereClause())
	}

	if p.at(token.ASSIGN) {
		p.consumeInto(clauseB)
		blk := cst.NewBuilder(cst.BLOCK)
		blk.Child(p.parseExpr(bpLowest))
		clauseB.Child(blk.Build())
	} else {
		p.expect(clauseB, token.DO_KW, errors.E0032InvalidFnDef, "expected 'do' or '=' to start function body")
		clauseB.Child(p.parseBlock())
		p.expect(clauseB, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close function body")
	}

	b.Child(clauseB.Build())

	return b.Build()
}

func (p *Parser) parseParamList() *cst.Node {
	b := cst.NewBuilder(cst.PARAM_LIST)
	p.expect(b, token.LPAREN, errors.E0032InvalidFnDef, "expected '(' to start parameter list")

	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		pb := cst.NewBuilder(cst.PARAM)
		p.expect(pb, token.IDENT, errors.E0032InvalidFnDef, "expected a parameter name")

		if p.at(token.COLON) {
			p.consumeInto(pb)
			pb.Child(p.parseType())
		}

		b.Child(pb.Build())

		if p.at(token.COMMA) {
			p.consumeInto(b)
		} else {
			break
		}
	}

	p.expect(b, token.RPAREN, errors.E0031MissingDelimiter, "expected ')' to close parameter list")

	return b.Build()
}

func (p *Parser) parseWhereClause() *cst.Node {
	b := cst.NewBuilder(cst.WHERE_CLAUSE)
	p.consumeInto(b) // 'where'

	for {
		p.expect(b, token.IDENT, errors.E0030UnexpectedToken, "expected a type variable in where clause")
		p.expect(b, token.COLON, errors.E0030UnexpectedToken, "expected ':' in where clause constraint")
		p.expect(b, token.IDENT, errors.E0030UnexpectedToken, "expected an interface name in where clause")

		if p.at(token.COMMA) {
			p.consumeInto(b)
		} else {
			break
		}
	}

	return b.Build()
}

// parseDerivingClause parses a trailing `deriving(Eq, Ord, ...)` clause,
// recognized contextually since "deriving" lexes as a plain IDENT.
func (p *Parser) parseDerivingClause() *cst.Node {
	b := cst.NewBuilder(cst.DERIVING_CLAUSE)
	p.consumeInto(b) // 'deriving' (IDENT)
	p.expect(b, token.LPAREN, errors.E0030UnexpectedToken, "expected '(' after 'deriving'")

	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		p.expect(b, token.IDENT, errors.E0030UnexpectedToken, "expected an interface name")

		if p.at(token.COMMA) {
			p.consumeInto(b)
		} else {
			break
		}
	}

	p.expect(b, token.RPAREN, errors.E0031MissingDelimiter, "expected ')' to close deriving clause")

	return b.Build()
}

func (p *Parser) atDeriving() bool {
	t := p.significant()

	return t.Kind == token.IDENT && t.Text == "deriving"
}

func (p *Parser) parseStructDef(pubTok token.Token, hasPub bool) *cst.Node {
	b := cst.NewBuilder(cst.STRUCT_DEF)
	attachPub(b, pubTok, hasPub)
	p.consumeInto(b) // 'struct'
	p.expect(b, token.IDENT, errors.E0030UnexpectedToken, "expected a struct name")
	p.expect(b, token.DO_KW, errors.E0030UnexpectedToken, "expected 'do' to start struct body")

	for !p.at(token.END_KW) && !p.at(token.EOF) {
		fb := cst.NewBuilder(cst.STRUCT_FIELD)
		p.expect(fb, token.IDENT, errors.E0030UnexpectedToken, "expected a field name")
		p.expect(fb, token.COLON, errors.E0030UnexpectedToken, "expected ':' after field name")
		fb.Child(p.parseType())
		b.Child(fb.Build())

		if p.at(token.COMMA) {
			p.consumeInto(b)
		}
	}

	p.expect(b, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close struct body")

	if p.atDeriving() {
		b.Child(p.parseDerivingClause())
	}

	return b.Build()
}

// parseSumTypeDef parses `type Name do Variant(T1, T2) ... end [deriving
// (...)]`.
func (p *Parser) parseSumTypeDef(pubTok token.Token, hasPub bool) *cst.Node {
	b := cst.NewBuilder(cst.SUM_TYPE_DEF)
	attachPub(b, pubTok, hasPub)
	p.consumeInto(b) // 'type'
	p.expect(b, token.IDENT, errors.E0030UnexpectedToken, "expected a type name")
	p.expect(b, token.DO_KW, errors.E0030UnexpectedToken, "expected 'do' to start type body")

	for !p.at(token.END_KW) && !p.at(token.EOF) {
		vb := cst.NewBuilder(cst.VARIANT_DEF)
		p.expect(vb, token.IDENT, errors.E0030UnexpectedToken, "expected a variant name")

		if p.at(token.LPAREN) {
			p.consumeInto(vb)

			for !p.at(token.RPAREN) && !p.at(token.EOF) {
				vb.Child(p.parseType())

				if p.at(token.COMMA) {
					p.consumeInto(vb)
				} else {
					break
				}
			}

			p.expect(vb, token.RPAREN, errors.E0031MissingDelimiter, "expected ')' to close variant fields")
		}

		b.Child(vb.Build())

		if p.at(token.COMMA) {
			p.consumeInto(b)
		}
	}

	p.expect(b, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close type body")

	if p.atDeriving() {
		b.Child(p.parseDerivingClause())
	}

	return b.Build()
}

// parseInterfaceDef parses the language's type-class construct:
// `interface Name do type Assoc fn method(...) -> T end`.
func (p *Parser) parseInterfaceDef(pubTok token.Token, hasPub bool) *cst.Node {
	b := cst.NewBuilder(cst.INTERFACE_DEF)
	attachPub(b, pubTok, hasPub)
	p.consumeInto(b) // 'interface'
	p.expect(b, token.IDENT, errors.E0030UnexpectedToken, "expected an interface name")
	p.expect(b, token.DO_KW, errors.E0030UnexpectedToken, "expected 'do' to start interface body")

	for !p.at(token.END_KW) && !p.at(token.EOF) {
		switch p.significant().Kind {
		case token.TYPE_KW:
			ab := cst.NewBuilder(cst.ASSOC_TYPE_DECL)
			p.consumeInto(ab) // 'type'
			p.expect(ab, token.IDENT, errors.E0030UnexpectedToken, "expected an associated type name")
			b.Child(ab.Build())
		case token.FN_KW:
			b.Child(p.parseFnSignatureOrDef())
		default:
			p.errorAt(p.significant().Span, errors.E0030UnexpectedToken, "expected a type or method declaration")

			p.consumeInto(cst.NewBuilder(cst.ERROR))
		}
	}

	p.expect(b, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close interface body")

	return b.Build()
}

// parseFnSignatureOrDef parses a method inside an interface or impl body:
// either a bare signature (`fn name(...) -> T`, interface declaration with
// no body) or a full definition with a `do...end`/`= expr` body.
func (p *Parser) parseFnSignatureOrDef() *cst.Node {
	b := cst.NewBuilder(cst.FN_DEF)
	p.consumeInto(b) // 'fn'
	p.expect(b, token.IDENT, errors.E0032InvalidFnDef, "expected a method name after 'fn'")

	clauseB := cst.NewBuilder(cst.FN_CLAUSE)
	clauseB.Child(p.parseParamList())

	if p.at(token.ARROW) {
		p.consumeInto(clauseB)
		clauseB.Child(p.parseType())
	}

	if p.at(token.WHERE_KW) {
		clauseB.Child(p.parseWhereClause())
	}

	switch {
	case p.at(token.ASSIGN):
		p.consumeInto(clauseB)
		blk := cst.NewBuilder(cst.BLOCK)
		blk.Child(p.parseExpr(bpLowest))
		clauseB.Child(blk.Build())
	case p.at(token.DO_KW):
		p.consumeInto(clauseB)
		clauseB.Child(p.parseBlock())
		p.expect(clauseB, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close method body")
	}

	b.Child(clauseB.Build())

	return b.Build()
}

// parseImplDef parses `impl Trait for Type do [type Assoc = T] fn ... end`.
func (p *Parser) parseImplDef() *cst.Node {
	b := cst.NewBuilder(cst.IMPL_DEF)
	p.consumeInto(b) // 'impl'
	p.expect(b, token.IDENT, errors.E0030UnexpectedToken, "expected an interface name after 'impl'")

	// 'for' is not a reserved word at the lexical level (it lexes as a
	// plain IDENT); wrapped in its own throwaway node so it doesn't
	// pollute the positional IDENT scan ImplDef.TraitAndType relies on.
	forB := cst.NewBuilder(cst.ERROR)
	p.expect(forB, token.IDENT, errors.E0030UnexpectedToken, "expected 'for'")
	b.Child(forB.Build())

	p.expect(b, token.IDENT, errors.E0030UnexpectedToken, "expected the implementing type's name")
	p.expect(b, token.DO_KW, errors.E0030UnexpectedToken, "expected 'do' to start impl body")

	for !p.at(token.END_KW) && !p.at(token.EOF) {
		switch p.significant().Kind {
		case token.TYPE_KW:
			ab := cst.NewBuilder(cst.ASSOC_TYPE_BINDING)
			p.consumeInto(ab) // 'type'
			p.expect(ab, token.IDENT, errors.E0030UnexpectedToken, "expected an associated type name")
			p.expect(ab, token.ASSIGN, errors.E0030UnexpectedToken, "expected '=' in associated type binding")
			ab.Child(p.parseType())
			b.Child(ab.Build())
		case token.FN_KW:
			b.Child(p.parseFnSignatureOrDef())
		default:
			p.errorAt(p.significant().Span, errors.E0030UnexpectedToken, "expected an associated type binding or method")

			p.consumeInto(cst.NewBuilder(cst.ERROR))
		}
	}

	p.expect(b, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close impl body")

	return b.Build()
}

// parseActorDef parses `actor Name do ... [terminate do ... end] end`.
func (p *Parser) parseActorDef(pubTok token.Token, hasPub bool) *cst.Node {
	b := cst.NewBuilder(cst.ACTOR_DEF)
	attachPub(b, pubTok, hasPub)
	p.consumeInto(b) // 'actor'
	p.expect(b, token.IDENT, errors.E0030UnexpectedToken, "expected an actor name")
	p.expect(b, token.DO_KW, errors.E0030UnexpectedToken, "expected 'do' to start actor body")

	for !p.at(token.END_KW) && !p.at(token.EOF) {
		if p.at(token.TERMINATE_KW) {
			tb := cst.NewBuilder(cst.TERMINATE_CLAUSE)
			p.consumeInto(tb) // 'terminate'
			p.expect(tb, token.DO_KW, errors.E0030UnexpectedToken, "expected 'do' after 'terminate'")
			tb.Child(p.parseBlock())
			p.expect(tb, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close terminate clause")
			b.Child(tb.Build())

			continue
		}

		if p.at(token.FN_KW) {
			b.Child(p.parseFnSignatureOrDef())

			continue
		}

		p.errorAt(p.significant().Span, errors.E0030UnexpectedToken, "expected a function or terminate clause in actor body")
		p.consumeInto(cst.NewBuilder(cst.ERROR))
	}

	p.expect(b, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close actor body")

	return b.Build()
}

// parseServiceDef parses `service Name do call P -> ... end cast P -> ...
// end end`.
func (p *Parser) parseServiceDef(pubTok token.Token, hasPub bool) *cst.Node {
	b := cst.NewBuilder(cst.SERVICE_DEF)
	attachPub(b, pubTok, hasPub)
	p.consumeInto(b) // 'service'
	p.expect(b, token.IDENT, errors.E0030UnexpectedToken, "expected a service name")
	p.expect(b, token.DO_KW, errors.E0030UnexpectedToken, "expected 'do' to start service body")

	for !p.at(token.END_KW) && !p.at(token.EOF) {
		switch p.significant().Kind {
		case token.CALL_KW:
			hb := cst.NewBuilder(cst.CALL_HANDLER)
			p.consumeInto(hb) // 'call'
			hb.Child(p.parsePattern())
			p.expect(hb, token.ARROW, errors.E0030UnexpectedToken, "expected '->' after call pattern")

			if p.at(token.DO_KW) {
				p.consumeInto(hb)
				hb.Child(p.parseBlock())
				p.expect(hb, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close call handler")
			} else {
				blk := cst.NewBuilder(cst.BLOCK)
				blk.Child(p.parseExpr(bpLowest))
				hb.Child(blk.Build())
			}

			b.Child(hb.Build())
		case token.CAST_KW:
			hb := cst.NewBuilder(cst.CAST_HANDLER)
			p.consumeInto(hb) // 'cast'
			hb.Child(p.parsePattern())
			p.expect(hb, token.ARROW, errors.E0030UnexpectedToken, "expected '->' after cast pattern")

			if p.at(token.DO_KW) {
				p.consumeInto(hb)
				hb.Child(p.parseBlock())
				p.expect(hb, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close cast handler")
			} else {
				blk := cst.NewBuilder(cst.BLOCK)
				blk.Child(p.parseExpr(bpLowest))
				hb.Child(blk.Build())
			}

			b.Child(hb.Build())
		case token.FN_KW:
			b.Child(p.parseFnSignatureOrDef())
		default:
			p.errorAt(p.significant().Span, errors.E0030UnexpectedToken, "expected a call/cast handler in service body")
			p.consumeInto(cst.NewBuilder(cst.ERROR))
		}
	}

	p.expect(b, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close service body")

	return b.Build()
}

// parseSupervisorDef parses `supervisor Name do child Name(...) ... end`.
func (p *Parser) parseSupervisorDef(pubTok token.Token, hasPub bool) *cst.Node {
	b := cst.NewBuilder(cst.SUPERVISOR_DEF)
	attachPub(b, pubTok, hasPub)
	p.consumeInto(b) // 'supervisor'
	p.expect(b, token.IDENT, errors.E0030UnexpectedToken, "expected a supervisor name")
	p.expect(b, token.DO_KW, errors.E0030UnexpectedToken, "expected 'do' to start supervisor body")

	for !p.at(token.END_KW) && !p.at(token.EOF) {
		cb := cst.NewBuilder(cst.CHILD_SPEC)
		p.expect(cb, token.IDENT, errors.E0018ChildStartInvalid, "expected a child spec name")

		if p.at(token.LPAREN) {
			p.consumeInto(cb)

			for !p.at(token.RPAREN) && !p.at(token.EOF) {
				cb.Child(p.parseExpr(bpLowest))

				if p.at(token.COMMA) {
					p.consumeInto(cb)
				} else {
					break
				}
			}

			p.expect(cb, token.RPAREN, errors.E0031MissingDelimiter, "expected ')' to close child spec arguments")
		}

		b.Child(cb.Build())

		if p.at(token.COMMA) {
			p.consumeInto(b)
		}
	}

	p.expect(b, token.END_KW, errors.E0031MissingDelimiter, "expected 'end' to close supervisor body")

	return b.Build()
}
