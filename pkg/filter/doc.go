// Package filter compiles filter expressions over recorded results into
// squirrel conditions.
//
//	expression : term ( "or" term )*
//	term       : factor ( "and" factor )*
//	factor     : comparison | "(" expression ")"
//	comparison : FIELD ( "=" | "!=" | "<" | "<=" | ">" | ">=" ) value
//	           | FIELD ( "~" | "!~" ) REGEX
//	value      : STRING | NUMBER
//
//	FIELD  : [a-zA-Z_][a-zA-Z0-9_]*
//	STRING : '...' | "..."
//	REGEX  : /.../ with \/ for a slash
//	NUMBER : [0-9]+(.[0-9]+)? with an optional KB, MB, GB or TB suffix, in bytes
//
// Example:
//
//	host = "10.0.0.1" and (return_code != 0 or stderr ~ /timeout/)
//
// Fields are resolved against a Fields map so only known columns reach the
// query.
package filter
