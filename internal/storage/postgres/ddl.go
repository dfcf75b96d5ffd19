package postgres

import (
	"strings"

	"recflow/internal/ddl"
)

// Dialect renders Postgres DDL: double-quoted identifiers and
// CREATE TABLE IF NOT EXISTS.
var Dialect = ddl.Dialect{
	Name:       "postgres ddl",
	QuoteIdent: func(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` },
	TextType:   "TEXT",
}
