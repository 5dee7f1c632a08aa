package query

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenString
	tokenNumber
	tokenOp
	tokenLParen
	tokenRParen
	tokenAnd
	tokenOr
	tokenLike
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lex splits a predicate into tokens. Keywords AND, OR and LIKE are
// case-insensitive; string literals are double-quoted with `""` as the
// escape for an embedded quote.
func lex(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")", pos: i})
			i++
		case c == '=':
			tokens = append(tokens, token{kind: tokenOp, text: "=", pos: i})
			i++
		case c == '!':
			if i+1 >= len(input) || input[i+1] != '=' {
				return nil, errors.Errorf("unexpected %q at position %d", string(c), i)
			}
			tokens = append(tokens, token{kind: tokenOp, text: "!=", pos: i})
			i += 2
		case c == '<' || c == '>':
			op := string(c)
			if i+1 < len(input) && input[i+1] == '=' {
				op += "="
				i++
			}
			tokens = append(tokens, token{kind: tokenOp, text: op, pos: i})
			i++
		case c == '"':
			lit, end, err := lexString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenString, text: lit, pos: i})
			i = end
		case c == '-' || c == '+' || (c >= '0' && c <= '9') || c == '.':
			start := i
			i++
			for i < len(input) && (input[i] == '.' || input[i] == 'e' || input[i] == 'E' ||
				input[i] == '-' || input[i] == '+' || (input[i] >= '0' && input[i] <= '9')) {
				i++
			}
			tokens = append(tokens, token{kind: tokenNumber, text: input[start:i], pos: start})
		case isIdentStart(rune(c)):
			start := i
			for i < len(input) && isIdentPart(rune(input[i])) {
				i++
			}
			word := input[start:i]
			kind := tokenIdent
			switch strings.ToUpper(word) {
			case "AND":
				kind = tokenAnd
			case "OR":
				kind = tokenOr
			case "LIKE":
				kind = tokenLike
			}
			tokens = append(tokens, token{kind: kind, text: word, pos: start})
		default:
			return nil, errors.Errorf("unexpected %q at position %d", string(c), i)
		}
	}
	tokens = append(tokens, token{kind: tokenEOF, pos: len(input)})
	return tokens, nil
}

func lexString(input string, start int) (string, int, error) {
	var sb strings.Builder
	i := start + 1
	for i < len(input) {
		if input[i] == '"' {
			if i+1 < len(input) && input[i+1] == '"' {
				sb.WriteByte('"')
				i += 2
				continue
			}
			return sb.String(), i + 1, nil
		}
		sb.WriteByte(input[i])
		i++
	}
	return "", 0, errors.Errorf("unterminated string literal at position %d", start)
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
