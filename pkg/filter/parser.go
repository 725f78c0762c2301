package filter

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// ParseError locates a syntax error in the source expression.
type ParseError struct {
	Position int
	Message  string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Position, e.Message)
}

type parser struct {
	lexer *lexer
	cur   lexeme
}

// Parse parses src. The recursive descent panics with a ParseError which is
// recovered here; any other panic is a bug and is raised again.
func Parse(src string) (expr Expression, err error) {
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(ParseError)
			if !ok {
				panic(r)
			}
			expr, err = nil, pe
		}
	}()

	p := &parser{lexer: &lexer{src: src}}
	p.next()
	expr = p.expression()
	p.expect(tokEOF)
	return expr, nil
}

// Compile parses src and resolves its fields. An empty src matches
// everything and returns a nil condition.
func Compile(src string, fields Fields) (sq.Sqlizer, error) {
	if src == "" {
		return nil, nil
	}
	expr, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return expr.sqlizer(fields)
}

func (p *parser) expression() Expression {
	expr := p.term()
	for p.cur.tok == tokOr {
		p.next()
		expr = &logical{op: tokOr, left: expr, right: p.term()}
	}
	return expr
}

func (p *parser) term() Expression {
	expr := p.factor()
	for p.cur.tok == tokAnd {
		p.next()
		expr = &logical{op: tokAnd, left: expr, right: p.factor()}
	}
	return expr
}

func (p *parser) factor() Expression {
	if p.cur.tok != tokLParen {
		return p.comparison()
	}
	p.next()
	expr := p.expression()
	p.expect(tokRParen)
	p.next()
	return expr
}

func (p *parser) comparison() Expression {
	p.expect(tokField)
	e := &comparison{field: p.cur.val}
	p.next()

	if !p.cur.tok.comparison() {
		p.fail("expected operator instead of %s", p.cur.tok)
	}
	e.op = p.cur.tok
	p.next()

	switch {
	case e.op == tokMatch || e.op == tokNotMatch:
		p.expect(tokRegex)
		pattern, err := compileRegex(p.cur.val)
		if err != nil {
			p.fail("invalid regex: %s", err)
		}
		e.value = pattern
	case p.cur.tok == tokString:
		e.value = p.cur.val
	case p.cur.tok == tokNumber:
		n, err := parseNumber(p.cur.val)
		if err != nil {
			p.fail("invalid number %s", p.cur.val)
		}
		e.value = n
	default:
		p.fail("expected value instead of %s", p.cur.tok)
	}

	p.next()
	return e
}

func (p *parser) next() {
	p.cur = p.lexer.scan()
	if p.cur.tok == tokIllegal {
		p.fail("%s", p.cur.val)
	}
}

func (p *parser) expect(tok token) {
	if p.cur.tok != tok {
		p.fail("expected %s instead of %s", tok, p.cur.tok)
	}
}

func (p *parser) fail(format string, args ...any) {
	panic(ParseError{Position: p.cur.pos, Message: fmt.Sprintf(format, args...)})
}
