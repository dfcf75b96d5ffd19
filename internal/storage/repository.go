// Package storage contains the storage-agnostic contracts the record sink
// writes through: the Repository interface, a registry of backend factories,
// DDL bootstrappers and the batched loader.
//
// Backends (sqlite, postgres, mssql, mysql, csv) register themselves at init
// time; import recflow/internal/storage/all to enable every built-in one.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the write side of a backend.
type Repository interface {
	// CopyFrom inserts rows aligned to columns and reports how many rows
	// were inserted.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)

	// Exec runs a statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	// Close releases the connection.
	Close()
}

// Config is the backend-neutral connection configuration.
type Config struct {
	Kind    string
	DSN     string
	Table   string
	Columns []string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository of cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
