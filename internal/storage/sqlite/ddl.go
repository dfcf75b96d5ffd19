package sqlite

import (
	"strings"

	"recflow/internal/ddl"
)

// Dialect renders SQLite DDL: double-quoted identifiers and
// CREATE TABLE IF NOT EXISTS.
var Dialect = ddl.Dialect{
	Name:       "sqlite ddl",
	QuoteIdent: func(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` },
	TextType:   "TEXT",
}
