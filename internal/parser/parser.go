// Package parser implements a Pratt expression parser over the mesh
// grammar, building a lossless concrete syntax tree (internal/cst) as it
// goes (spec.md §4.2). Each parseX function owns a local cst.Builder and
// returns a completed *cst.Node; there is no global builder stack, which
// sidesteps the "retroactively wrap an already-closed child" problem that
// a stack-based green-tree builder would otherwise need a marker/precede
// API to solve.
package parser

import (
	"github.com/snowdamiz/meshc/internal/cst"
	"github.com/snowdamiz/meshc/internal/errors"
	"github.com/snowdamiz/meshc/internal/lexer"
	"github.com/snowdamiz/meshc/internal/token"
)

// Parser holds the raw token stream (trivia included).
type Parser struct {
	toks []token.Token
	pos  int

	hasError bool
	Diags    []errors.Diagnostic
}

// New tokenizes src and prepares a Parser positioned at the first token.
func New(file string, src []byte) *Parser {
	return &Parser{toks: lexer.Tokenize(file, src)}
}

// ParseFile parses a complete source file into a FILE node.
func ParseFile(file string, src []byte) (*cst.Node, []errors.Diagnostic) {
	p := New(file, src)
	n := p.parseFileBody()

	return n, p.Diags
}

func (p *Parser) parseFileBody() *cst.Node {
	b := cst.NewBuilder(cst.FILE)

	p.skipTriviaInto(b)

	if p.atKw(token.MODULE_KW) {
		b.Child(p.parseModuleDecl())
	}

	for p.atKw(token.IMPORT_KW) {
		b.Child(p.parseImportDecl())
	}

	var lastFnDef *cst.Node

	for !p.atRaw(token.EOF) {
		before := p.pos

		n := p.parseItem()
		if n != nil {
			// Consecutive clauses of the same named function are merged
			// into one FN_DEF (spec.md §4.2 "multi-clause function
			// definitions" — clauses must be syntactically consecutive,
			// checked here by construction rather than as a separate
			// pass).
			if n.Kind == cst.FN_DEF && lastFnDef != nil && fnName(n) == fnName(lastFnDef) {
				lastFnDef.Children = append(lastFnDef.Children, childrenOfKind(n, cst.FN_CLAUSE)...)
			} else {
				b.Child(n)

				if n.Kind == cst.FN_DEF {
					lastFnDef = n
				} else {
					lastFnDef = nil
				}
			}
		}

		if p.pos == before {
			// No forward progress: recovery by anchor, skip one token.
			if p.atRaw(token.EOF) {
				break
			}

			p.consumeRawInto(b)
		}
	}

	return b.Build()
}

func fnName(n *cst.Node) string {
	for _, c := range n.Children {
		if leaf, ok := c.(cst.Leaf); ok && leaf.Tok.Kind == token.IDENT {
			return leaf.Tok.Text
		}
	}

	return ""
}

func childrenOfKind(n *cst.Node, k cst.Kind) []*cst.Node {
	var out []*cst.Node

	for _, c := range n.Children {
		if sub, ok := c.(*cst.Node); ok && sub.Kind == k {
			out = append(out, sub)
		}
	}

	return out
}

// --- low-level token access ---------------------------------------------

func (p *Parser) skipTriviaInto(b *cst.Builder) {
	for p.pos < len(p.toks) && p.toks[p.pos].Kind.IsTrivia() {
		b.Token(p.toks[p.pos])
		p.pos++
	}
}

func (p *Parser) significant() token.Token {
	i := p.pos
	for i < len(p.toks) && p.toks[i].Kind.IsTrivia() {
		i++
	}

	if i >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}

	return p.toks[i]
}

func (p *Parser) significantAt(n int) token.Token {
	i := p.pos
	seen := 0

	for i < len(p.toks) {
		if p.toks[i].Kind.IsTrivia() {
			i++

			continue
		}

		if seen == n {
			return p.toks[i]
		}

		seen++
		i++
	}

	return token.Token{Kind: token.EOF}
}

func (p *Parser) at(k token.Kind) bool    { return p.significant().Kind == k }
func (p *Parser) atKw(k token.Kind) bool  { return p.at(k) }
func (p *Parser) atRaw(k token.Kind) bool {
	if k == token.EOF {
		return p.significant().Kind == token.EOF
	}

	return p.pos < len(p.toks) && p.toks[p.pos].Kind == k
}

// newlineBeforeNext reports whether a NEWLINE token appears in the trivia
// immediately preceding the next significant token — used for the
// multi-line pipe continuation rule (spec.md §4.2).
func (p *Parser) newlineBeforeNext() bool {
	i := p.pos
	for i < len(p.toks) && p.toks[i].Kind.IsTrivia() {
		if p.toks[i].Kind == token.NEWLINE {
			return true
		}

		i++
	}

	return false
}

// consumeInto skips trivia into b, then consumes and attaches the next
// significant token, returning it.
func (p *Parser) consumeInto(b *cst.Builder) token.Token {
	p.skipTriviaInto(b)

	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}

	t := p.toks[p.pos]
	p.pos++
	b.Token(t)

	return t
}

func (p *Parser) consumeRawInto(b *cst.Builder) token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}

	t := p.toks[p.pos]
	p.pos++
	b.Token(t)

	return t
}

func (p *Parser) expect(b *cst.Builder, k token.Kind, code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.consumeInto(b), true
	}

	p.errorAt(p.significant().Span, code, msg)

	return token.Token{}, false
}

func (p *Parser) errorAt(span token.Span, code, msg string) {
	p.hasError = true
	p.Diags = append(p.Diags, errors.Diagnostic{
		Code:     code,
		Severity: errors.SeverityError,
		Message:  msg,
		Span:     span,
	})
}

// HasError reports whether any fatal parse error has been recorded. The
// flag is only reported here: no parse function consults it, so after an
// error the parser keeps adding children to the current subtree.
func (p *Parser) HasError() bool { return p.hasError }

type mark struct{ pos int }

func (p *Parser) save() mark     { return mark{pos: p.pos} }
func (p *Parser) restore(m mark) { p.pos = m.pos }
