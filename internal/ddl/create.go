// Package ddl defines a small, backend-agnostic model for SQL DDL and a
// dialect-parameterised CREATE TABLE renderer.
//
// Backends describe their dialect (identifier quoting, text type and the
// "create if missing" wrapper) and render TableDef values through it.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures what differs between SQL backends when creating tables.
type Dialect struct {
	// Name prefixes error messages, e.g. "postgres ddl".
	Name string

	// QuoteIdent quotes a single identifier segment. Nil emits names as-is.
	QuoteIdent func(string) string

	// TextType is the column type used for record text.
	TextType string

	// Wrap turns the quoted table name and the rendered column list into
	// the final statement. Nil renders CREATE TABLE IF NOT EXISTS.
	Wrap func(quotedFQN, columns string) string
}

// Generic renders names verbatim and uses plain CREATE TABLE.
var Generic = Dialect{
	Name:     "ddl",
	TextType: "TEXT",
	Wrap: func(fqn, cols string) string {
		return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", fqn, cols)
	},
}

// QuoteFQN quotes a possibly schema-qualified name segment by segment.
// Empty segments are ignored.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.quote(p))
	}
	return strings.Join(out, ".")
}

// QuoteAll quotes every identifier of names.
func (d Dialect) QuoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = d.quote(n)
	}
	return out
}

func (d Dialect) quote(id string) string {
	if d.QuoteIdent == nil {
		return id
	}
	return d.QuoteIdent(id)
}

// TextTable is TextTable with the dialect's text type.
func (d Dialect) TextTable(fqn string, columns []string) TableDef {
	return TextTable(fqn, columns, d.TextType)
}

// BuildCreateTableSQL renders t in this dialect.
//
// Rules:
//   - t.FQN must be non-empty.
//   - Each column must have a non-empty Name and SQLType.
//   - A column renders as <name> <type> [NOT NULL] [DEFAULT <expr>]; primary
//     key columns are always NOT NULL.
//   - Primary key columns are collected into a trailing PRIMARY KEY clause
//     in declaration order.
func (d Dialect) BuildCreateTableSQL(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", d.Name, name)
		}

		var sb strings.Builder
		sb.WriteString(d.quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	wrap := d.Wrap
	if wrap == nil {
		wrap = func(fqn, cols string) string {
			return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", fqn, cols)
		}
	}
	return wrap(d.QuoteFQN(fqn), strings.Join(cols, ",\n  ")), nil
}
