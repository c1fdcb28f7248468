package database

import (
	"strings"
)

// QueryBuilder rewrites queries written with ? markers for a dialect.
type QueryBuilder struct {
	dialect Dialect
}

// NewQueryBuilder creates a QueryBuilder for the given dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build replaces each ? outside a quoted literal with the dialect's
// placeholder for its position.
//
//	"SELECT * FROM t WHERE a = ? AND b = '?'"
//	sqlite:   unchanged
//	postgres: "SELECT * FROM t WHERE a = $1 AND b = '?'"
func (qb *QueryBuilder) Build(query string) string {
	if _, ok := qb.dialect.(*SQLiteDialect); ok {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	position := 0
	quoted := false
	for _, r := range query {
		switch {
		case r == '\'':
			quoted = !quoted
			b.WriteRune(r)
		case r == '?' && !quoted:
			position++
			b.WriteString(qb.dialect.Placeholder(position))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
