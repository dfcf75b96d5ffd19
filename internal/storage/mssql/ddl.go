package mssql

import (
	"fmt"
	"strings"

	"recflow/internal/ddl"
)

// Dialect renders T-SQL DDL: bracket-quoted identifiers and an
// IF OBJECT_ID(...) IS NULL guard, since T-SQL has no CREATE TABLE IF NOT
// EXISTS.
var Dialect = ddl.Dialect{
	Name:       "mssql ddl",
	QuoteIdent: func(id string) string { return "[" + strings.ReplaceAll(id, "]", "]]") + "]" },
	TextType:   "NVARCHAR(MAX)",
	Wrap: func(fqn, cols string) string {
		return fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
			strings.ReplaceAll(fqn, "'", "''"), fqn, strings.ReplaceAll(cols, "\n  ", "\n    "),
		)
	},
}
