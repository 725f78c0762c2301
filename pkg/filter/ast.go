package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Fields maps the field names accepted in expressions to columns.
type Fields map[string]string

func (f Fields) column(name string) (string, error) {
	if col, ok := f[strings.ToLower(name)]; ok {
		return col, nil
	}
	return "", fmt.Errorf("unknown field %q", name)
}

// Expression is a parsed filter.
type Expression interface {
	String() string
	sqlizer(fields Fields) (sq.Sqlizer, error)
}

type logical struct {
	op          token
	left, right Expression
}

func (e *logical) String() string {
	return fmt.Sprintf("(%s %s %s)", e.left, e.op, e.right)
}

func (e *logical) sqlizer(fields Fields) (sq.Sqlizer, error) {
	left, err := e.left.sqlizer(fields)
	if err != nil {
		return nil, err
	}
	right, err := e.right.sqlizer(fields)
	if err != nil {
		return nil, err
	}
	if e.op == tokOr {
		return sq.Or{left, right}, nil
	}
	return sq.And{left, right}, nil
}

type comparison struct {
	field string
	op    token
	value any
}

func (e *comparison) String() string {
	switch v := e.value.(type) {
	case string:
		if e.op == tokMatch || e.op == tokNotMatch {
			return fmt.Sprintf("(%s %s /%s/)", e.field, e.op, v)
		}
		return fmt.Sprintf("(%s %s %q)", e.field, e.op, v)
	default:
		return fmt.Sprintf("(%s %s %v)", e.field, e.op, v)
	}
}

func (e *comparison) sqlizer(fields Fields) (sq.Sqlizer, error) {
	col, err := fields.column(e.field)
	if err != nil {
		return nil, err
	}

	switch e.op {
	case tokEq:
		return sq.Eq{col: e.value}, nil
	case tokNotEq:
		return sq.NotEq{col: e.value}, nil
	case tokLess:
		return sq.Lt{col: e.value}, nil
	case tokLessEq:
		return sq.LtOrEq{col: e.value}, nil
	case tokGreater:
		return sq.Gt{col: e.value}, nil
	case tokGreaterEq:
		return sq.GtOrEq{col: e.value}, nil
	case tokMatch:
		return sq.Expr(fmt.Sprintf("regexp_matches(%s, ?)", col), e.value), nil
	case tokNotMatch:
		return sq.Expr(fmt.Sprintf("NOT regexp_matches(%s, ?)", col), e.value), nil
	}
	return nil, fmt.Errorf("unsupported operator %s", e.op)
}

// parseNumber returns an int64 for whole numbers and a float64 otherwise.
// Unit suffixes are binary multiples of a byte.
func parseNumber(val string) (any, error) {
	multiplier := 1.0
	if n := len(val); n > 2 {
		if m, ok := units[strings.ToLower(val[n-2:])]; ok {
			multiplier = m
			val = val[:n-2]
		}
	}

	if multiplier == 1 {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i, nil
		}
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil, err
	}
	f *= multiplier
	if f == float64(int64(f)) {
		return int64(f), nil
	}
	return f, nil
}

func compileRegex(pattern string) (string, error) {
	if _, err := regexp.Compile(pattern); err != nil {
		return "", err
	}
	return pattern, nil
}
