package storage

import (
	"context"
	"fmt"
	"sync"

	"recflow/internal/config"
)

// DDLBootstrapper creates the destination table described by db through
// repo.Exec. Backends register one per storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, db config.DBConfig) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable runs the DDLBootstrapper registered for kind. Every column of
// db.AllColumns is created as nullable text.
func EnsureTable(ctx context.Context, kind string, repo Repository, db config.DBConfig) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, db)
}
