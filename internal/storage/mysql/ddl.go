package mysql

import (
	"strings"

	"recflow/internal/ddl"
)

// Dialect renders MySQL DDL: backtick-quoted identifiers and
// CREATE TABLE IF NOT EXISTS.
var Dialect = ddl.Dialect{
	Name:       "mysql ddl",
	QuoteIdent: func(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" },
	TextType:   "TEXT",
}
