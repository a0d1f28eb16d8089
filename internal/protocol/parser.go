// Package protocol holds the small string parsers shared by the HTTP and
// MCP front ends and the dataset tooling.
package protocol

import "strings"

// ParseTerms splits a raw terms string into search terms. Terms separate
// on whitespace and commas; a double-quoted run stays together as one
// phrase, so `gross "adjusted gross income"` yields two terms. An
// unterminated quote swallows the rest of the string as one phrase.
func ParseTerms(raw string) []string {
	terms := make([]string, 0, 4)
	var cur strings.Builder
	inQuote := false

	flush := func() {
		if cur.Len() > 0 {
			terms = append(terms, cur.String())
			cur.Reset()
		}
	}

	for _, r := range raw {
		switch {
		case r == '"':
			if inQuote {
				flush()
			}
			inQuote = !inQuote
		case !inQuote && (r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	return terms
}

// ParseList splits a comma-separated list, trimming whitespace around
// each entry and dropping empty ones.
func ParseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
