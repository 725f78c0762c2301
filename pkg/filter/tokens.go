package filter

type token int

const (
	tokIllegal token = iota
	tokEOF
	tokAnd
	tokOr
	tokLParen
	tokRParen
	tokEq
	tokNotEq
	tokLess
	tokLessEq
	tokGreater
	tokGreaterEq
	tokMatch
	tokNotMatch
	tokField
	tokString
	tokNumber
	tokRegex
)

var tokenNames = [...]string{
	tokIllegal:   "illegal",
	tokEOF:       "end of input",
	tokAnd:       "and",
	tokOr:        "or",
	tokLParen:    "(",
	tokRParen:    ")",
	tokEq:        "=",
	tokNotEq:     "!=",
	tokLess:      "<",
	tokLessEq:    "<=",
	tokGreater:   ">",
	tokGreaterEq: ">=",
	tokMatch:     "~",
	tokNotMatch:  "!~",
	tokField:     "field",
	tokString:    "string",
	tokNumber:    "number",
	tokRegex:     "regex",
}

func (t token) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "unknown"
}

func (t token) comparison() bool {
	return t >= tokEq && t <= tokNotMatch
}
