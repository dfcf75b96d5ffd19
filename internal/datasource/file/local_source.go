// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Stdin is the path that makes Local read standard input.
const Stdin = "-"

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a Local data source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path is the configured path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for reading. A context that is already done
// short-circuits without touching the filesystem. Filesystem errors are
// wrapped with the path and keep errors.Is(err, os.ErrNotExist) working.
//
// Regular files are opened with a sequential read-ahead hint where the
// platform supports one.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if l.path == Stdin {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}
