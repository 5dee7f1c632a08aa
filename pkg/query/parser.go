package query

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Expr is a parsed boolean predicate over the columns of one row.
type Expr interface {
	// Columns returns every column name referenced by the expression.
	Columns() []string

	eval(row valueSource, numeric func(column string) bool) bool
}

// valueSource supplies raw cell values during evaluation.
type valueSource interface {
	Value(column string) string
}

type logicalExpr struct {
	or          bool
	left, right Expr
}

func (e *logicalExpr) Columns() []string {
	return append(e.left.Columns(), e.right.Columns()...)
}

func (e *logicalExpr) eval(row valueSource, numeric func(string) bool) bool {
	if e.or {
		return e.left.eval(row, numeric) || e.right.eval(row, numeric)
	}
	return e.left.eval(row, numeric) && e.right.eval(row, numeric)
}

type compareExpr struct {
	column  string
	op      string
	literal string
	like    *regexp.Regexp // non-nil for LIKE
}

func (e *compareExpr) Columns() []string {
	return []string{e.column}
}

// Parse turns a predicate string into an expression tree. AND binds
// tighter than OR; comparisons are column OP literal with OP one of
// =, !=, <, <=, >, >= and LIKE.
func Parse(input string) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, errors.New("empty predicate")
	}
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, errors.Errorf("unexpected %q at position %d", tok.text, tok.pos)
	}
	return expr, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &logicalExpr{or: true, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenAnd {
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &logicalExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (Expr, error) {
	tok := p.next()
	switch tok.kind {
	case tokenLParen:
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokenRParen {
			return nil, errors.Errorf("expected ')' at position %d", closing.pos)
		}
		return expr, nil
	case tokenIdent:
		return p.parseComparison(tok)
	default:
		return nil, errors.Errorf("expected column name or '(' at position %d", tok.pos)
	}
}

func (p *parser) parseComparison(column token) (Expr, error) {
	op := p.next()
	switch op.kind {
	case tokenOp:
		lit := p.next()
		if lit.kind != tokenString && lit.kind != tokenNumber {
			return nil, errors.Errorf("expected literal after %q at position %d", op.text, lit.pos)
		}
		return &compareExpr{column: column.text, op: op.text, literal: lit.text}, nil
	case tokenLike:
		lit := p.next()
		if lit.kind != tokenString {
			return nil, errors.Errorf("LIKE requires a string literal at position %d", lit.pos)
		}
		re, err := likeRegexp(lit.text)
		if err != nil {
			return nil, err
		}
		return &compareExpr{column: column.text, op: "LIKE", literal: lit.text, like: re}, nil
	default:
		return nil, errors.Errorf("expected comparison operator after %q at position %d", column.text, op.pos)
	}
}

// likeRegexp compiles an SQL LIKE pattern (% and _ wildcards) into an
// anchored, case-insensitive regexp.
func likeRegexp(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("(?i)^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
