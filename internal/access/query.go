package access

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnsafeQuery flags a base query authored with clauses that would break
// filter composition. It is a programming error in a dashboard definition
// and is meant to be caught when the registry is built, not at request time.
var ErrUnsafeQuery = errors.New("access: unsafe base query")

// Query is a developer-authored dashboard query. Base holds the
// SELECT ... FROM ... portion only; grouping and ordering live in their own
// fields so the generated security filter can be spliced in as valid SQL:
//
//	<Base> <filter> [GROUP BY <GroupBy>] [ORDER BY <OrderBy>] [LIMIT <Limit>]
//
// Base must never contain its own top-level WHERE, GROUP BY, or ORDER BY.
// Subqueries may use any clause; only unparenthesised occurrences count.
// Limit, when positive, caps the result set with a LIMIT clause after the
// ordering.
type Query struct {
	Base    string
	GroupBy string
	OrderBy string
	Limit   int
}

// Validate enforces the composition invariant.
func (q Query) Validate() error {
	base := strings.TrimSpace(q.Base)
	if base == "" {
		return fmt.Errorf("%w: base query is empty", ErrUnsafeQuery)
	}

	for _, keyword := range []string{"WHERE", "GROUP", "ORDER"} {
		if containsTopLevelKeyword(base, keyword) {
			return fmt.Errorf("%w: base query contains a top-level %s clause", ErrUnsafeQuery, keyword)
		}
	}

	if q.Limit < 0 {
		return fmt.Errorf("%w: negative row limit", ErrUnsafeQuery)
	}

	return nil
}

// compose assembles the final statement from the base query, a generated
// filter clause, and the optional grouping/ordering.
func (q Query) compose(filterClause string) string {
	parts := []string{strings.TrimSpace(q.Base)}

	if filterClause != "" {
		parts = append(parts, filterClause)
	}
	if group := strings.TrimSpace(q.GroupBy); group != "" {
		parts = append(parts, "GROUP BY "+group)
	}
	if order := strings.TrimSpace(q.OrderBy); order != "" {
		parts = append(parts, "ORDER BY "+order)
	}
	if q.Limit > 0 {
		parts = append(parts, fmt.Sprintf("LIMIT %d", q.Limit))
	}

	return strings.Join(parts, "\n")
}

// containsTopLevelKeyword reports whether the keyword occurs outside any
// parenthesised subexpression and outside quoted strings. The scan is
// character-wise so a keyword glued to a parenthesis, as in "WHERE(monto > 0)",
// is checked before its parenthesis changes the depth.
func containsTopLevelKeyword(query, keyword string) bool {
	runes := []rune(query)
	depth := 0
	inString := false
	prevWord := false

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if inString {
			if r == '\'' {
				inString = false
			}
			continue
		}

		switch r {
		case '\'':
			inString = true
			prevWord = false
			continue
		case '(':
			depth++
			prevWord = false
			continue
		case ')':
			if depth > 0 {
				depth--
			}
			prevWord = false
			continue
		}

		if depth == 0 && !prevWord && keywordAt(runes[i:], keyword) {
			return true
		}
		prevWord = isWordRune(r)
	}

	return false
}

// keywordAt reports whether rest begins with the keyword as a whole token:
// the next rune, if any, must be a delimiter rather than an identifier rune,
// so column names like order_id never match.
func keywordAt(rest []rune, keyword string) bool {
	kw := []rune(keyword)
	if len(rest) < len(kw) {
		return false
	}
	for i, k := range kw {
		if unicode.ToUpper(rest[i]) != k {
			return false
		}
	}
	return len(rest) == len(kw) || !isWordRune(rest[len(kw)])
}

func isWordRune(r rune) bool {
	return r == '_' ||
		('0' <= r && r <= '9') ||
		('a' <= r && r <= 'z') ||
		('A' <= r && r <= 'Z')
}
