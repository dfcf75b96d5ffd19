// This adapter wires the MSSQL backend into the storage factory.

package mssql

import (
	"context"
	"fmt"

	"recflow/internal/config"
	"recflow/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			DSN:     cfg.DSN,
			Table:   cfg.Table,
			Columns: cfg.Columns,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("mssql", func(ctx context.Context, repo storage.Repository, db config.DBConfig) error {
		stmt, err := Dialect.BuildCreateTableSQL(Dialect.TextTable(db.Table, db.AllColumns()))
		if err != nil {
			return fmt.Errorf("build DDL: %w", err)
		}
		return repo.Exec(ctx, stmt)
	})
}

// wrappedRepo adapts *Repository to storage.Repository and provides Close.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() { w.closeFn() }
