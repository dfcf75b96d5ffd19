// Package csv implements a storage.Repository that writes rows to a CSV file
// (or stdout when the DSN is "-"). A header row with the destination columns
// is written before the first batch; NULL values become empty cells.
package csv

import (
	"context"
	stdcsv "encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"recflow/internal/config"
	"recflow/internal/storage"
)

// stdout is replaced in tests.
var stdout io.Writer = os.Stdout

// Repository writes CSV rows.
type Repository struct {
	mu      sync.Mutex
	w       *stdcsv.Writer
	closer  io.Closer
	columns []string
	header  bool
}

// NewRepository creates (or truncates) the file at dsn. "-" writes to stdout.
func NewRepository(dsn string, columns []string) (*Repository, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("csv: DSN must be a path or \"-\"")
	}
	r := &Repository{columns: append([]string(nil), columns...)}
	if dsn == "-" {
		r.w = stdcsv.NewWriter(stdout)
		return r, nil
	}
	f, err := os.Create(dsn)
	if err != nil {
		return nil, fmt.Errorf("csv: create: %w", err)
	}
	r.w = stdcsv.NewWriter(f)
	r.closer = f
	return r, nil
}

// CopyFrom writes rows, preceded by the header on the first call.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.header {
		header := r.columns
		if len(header) == 0 {
			header = columns
		}
		if err := r.w.Write(header); err != nil {
			return 0, fmt.Errorf("csv: header: %w", err)
		}
		r.header = true
	}

	var n int64
	line := make([]string, len(columns))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if len(row) != len(columns) {
			return n, fmt.Errorf("csv: row %d has %d values for %d columns", i, len(row), len(columns))
		}
		for j, v := range row {
			line[j] = cell(v)
		}
		if err := r.w.Write(line); err != nil {
			return n, fmt.Errorf("csv: write: %w", err)
		}
		n++
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return n, fmt.Errorf("csv: flush: %w", err)
	}
	return n, nil
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// Exec is a no-op; CSV output has no schema.
func (r *Repository) Exec(context.Context, string) error { return nil }

// Close flushes and closes the file.
func (r *Repository) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.Flush()
	if r.closer != nil {
		_ = r.closer.Close()
	}
}

var _ storage.Repository = (*Repository)(nil)

func init() {
	storage.Register("csv", func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(cfg.DSN, cfg.Columns)
	})
	storage.RegisterDDL("csv", func(context.Context, storage.Repository, config.DBConfig) error { return nil })
}
