// Package all enables every built-in storage backend. Import it for side
// effects:
//
//	import _ "recflow/internal/storage/all"
//
// which registers the "sqlite", "postgres", "mssql", "mysql" and "csv" kinds
// (factories and DDL bootstrappers) with the storage package.
package all

import (
	_ "recflow/internal/storage/csv"
	_ "recflow/internal/storage/mssql"
	_ "recflow/internal/storage/mysql"
	_ "recflow/internal/storage/postgres"
	_ "recflow/internal/storage/sqlite"
)
