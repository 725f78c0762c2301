package filter

import (
	"strings"
)

var units = map[string]float64{
	"kb": 1 << 10,
	"mb": 1 << 20,
	"gb": 1 << 30,
	"tb": 1 << 40,
}

type lexeme struct {
	pos int
	tok token
	val string
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) peek(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

// scan returns the next lexeme. Illegal lexemes carry the reason in val.
func (l *lexer) scan() lexeme {
	for l.pos < len(l.src) && strings.IndexByte(" \t\r\n", l.src[l.pos]) >= 0 {
		l.pos++
	}

	start := l.pos
	if start >= len(l.src) {
		return lexeme{pos: start, tok: tokEOF}
	}

	ch := l.src[start]
	switch {
	case isLetter(ch):
		for l.pos < len(l.src) && (isLetter(l.src[l.pos]) || isDigit(l.src[l.pos])) {
			l.pos++
		}
		word := l.src[start:l.pos]
		switch strings.ToLower(word) {
		case "and":
			return lexeme{start, tokAnd, word}
		case "or":
			return lexeme{start, tokOr, word}
		}
		return lexeme{start, tokField, word}

	case isDigit(ch):
		return l.number()

	case ch == '"' || ch == '\'':
		end := strings.IndexByte(l.src[start+1:], ch)
		if end < 0 {
			l.pos = len(l.src)
			return lexeme{start, tokIllegal, "unclosed string"}
		}
		l.pos = start + end + 2
		return lexeme{start, tokString, l.src[start+1 : start+1+end]}

	case ch == '/':
		return l.regex()
	}

	l.pos++
	two := func(next byte, long, short token) lexeme {
		if l.peek(0) == next {
			l.pos++
			return lexeme{start, long, ""}
		}
		return lexeme{start, short, ""}
	}

	switch ch {
	case '(':
		return lexeme{start, tokLParen, ""}
	case ')':
		return lexeme{start, tokRParen, ""}
	case '=':
		return lexeme{start, tokEq, ""}
	case '~':
		return lexeme{start, tokMatch, ""}
	case '<':
		return two('=', tokLessEq, tokLess)
	case '>':
		return two('=', tokGreaterEq, tokGreater)
	case '!':
		switch l.peek(0) {
		case '=':
			l.pos++
			return lexeme{start, tokNotEq, ""}
		case '~':
			l.pos++
			return lexeme{start, tokNotMatch, ""}
		}
	}
	return lexeme{start, tokIllegal, "unexpected character " + string(ch)}
}

func (l *lexer) number() lexeme {
	start := l.pos
	dot := false
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if ch == '.' && !dot && isDigit(l.peek(1)) {
			dot = true
		} else if !isDigit(ch) {
			break
		}
		l.pos++
	}

	if isLetter(l.peek(0)) {
		suffix := strings.ToLower(l.src[l.pos:min(l.pos+2, len(l.src))])
		if _, ok := units[suffix]; !ok || isLetter(l.peek(2)) {
			return lexeme{start, tokIllegal, "malformed unit"}
		}
		l.pos += 2
	}
	return lexeme{start, tokNumber, l.src[start:l.pos]}
}

func (l *lexer) regex() lexeme {
	start := l.pos
	l.pos++

	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return lexeme{start, tokIllegal, "unclosed regex"}
		}
		ch := l.src[l.pos]
		switch {
		case ch == '\\' && l.peek(1) == '/':
			sb.WriteByte('/')
			l.pos += 2
		case ch == '/':
			l.pos++
			return lexeme{start, tokRegex, sb.String()}
		default:
			sb.WriteByte(ch)
			l.pos++
		}
	}
}

func isLetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
