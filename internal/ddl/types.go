package ddl

// ColumnDef describes a single column of a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g. TEXT, NVARCHAR(MAX))
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the fully-qualified table name (FQN) and an ordered list of
// columns. The FQN is expected in dotted form (e.g. "schema.table").
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// TextTable defines a table whose columns all hold nullable text of sqlType.
// Record fields are text, so every destination column gets the same type.
func TextTable(fqn string, columns []string, sqlType string) TableDef {
	defs := make([]ColumnDef, len(columns))
	for i, c := range columns {
		defs[i] = ColumnDef{Name: c, SQLType: sqlType, Nullable: true}
	}
	return TableDef{FQN: fqn, Columns: defs}
}
