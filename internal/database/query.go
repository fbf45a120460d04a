package database

import (
	"strings"
)

// QueryBuilder converts SQL queries with ? placeholders to dialect-specific format.
type QueryBuilder struct {
	dialect Dialect
}

// NewQueryBuilder creates a new QueryBuilder for the given dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build rewrites ? placeholders for the dialect. Question marks inside
// single-quoted literals are left alone.
//
//	input:    "SELECT * FROM maps WHERE id = ? AND seed = ?"
//	SQLite:   "SELECT * FROM maps WHERE id = ? AND seed = ?"
//	Postgres: "SELECT * FROM maps WHERE id = $1 AND seed = $2"
func (qb *QueryBuilder) Build(query string) string {
	if qb.dialect.Placeholder(1) == "?" {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)

	position := 1
	inLiteral := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inLiteral = !inLiteral
			sb.WriteByte(c)
		case c == '?' && !inLiteral:
			sb.WriteString(qb.dialect.Placeholder(position))
			position++
		default:
			sb.WriteByte(c)
		}
	}

	return sb.String()
}

// BuildInsert builds an INSERT and appends a RETURNING clause for dialects
// without LastInsertId.
func (qb *QueryBuilder) BuildInsert(query string, column string) string {
	converted := qb.Build(query)
	if !qb.dialect.SupportsLastInsertID() {
		converted += qb.dialect.ReturningClause(column)
	}
	return converted
}
