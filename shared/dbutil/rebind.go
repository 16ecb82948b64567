// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package dbutil

import "strconv"

// Rebind rewrites ? placeholders into the positional form the implementation
// expects: $n for postgres and cockroach, @pn for sqlserver. Question marks
// inside string literals, quoted identifiers and line comments are left
// alone. sqlite and mysql take ? directly, so their queries pass through
// unchanged.
func Rebind(impl Implementation, query string) string {
	var prefix string
	switch impl {
	case Postgres, Cockroach:
		prefix = "$"
	case SQLServer:
		prefix = "@p"
	default:
		return query
	}

	type sqlParseState int
	const (
		sqlParseStart sqlParseState = iota
		sqlParseInStringLiteral
		sqlParseInQuotedIdentifier
		sqlParseInComment
	)

	out := make([]byte, 0, len(query)+10)

	j := 1
	state := sqlParseStart
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch state {
		case sqlParseStart:
			switch ch {
			case '?':
				out = append(out, prefix...)
				out = append(out, strconv.Itoa(j)...)
				state = sqlParseStart
				j++
				continue
			case '-':
				if i+1 < len(query) && query[i+1] == '-' {
					state = sqlParseInComment
				}
			case '"':
				state = sqlParseInQuotedIdentifier
			case '\'':
				state = sqlParseInStringLiteral
			}
		case sqlParseInStringLiteral:
			if ch == '\'' {
				state = sqlParseStart
			}
		case sqlParseInQuotedIdentifier:
			if ch == '"' {
				state = sqlParseStart
			}
		case sqlParseInComment:
			if ch == '\n' {
				state = sqlParseStart
			}
		}
		out = append(out, ch)
	}

	return string(out)
}
