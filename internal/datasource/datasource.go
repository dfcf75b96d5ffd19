// Package datasource abstracts where parsers read their bytes from.
package datasource

import (
	"context"
	"io"
)

// Source opens a byte stream. Each call to Open returns a fresh reader that
// the caller closes.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Func adapts a function to Source.
type Func func(ctx context.Context) (io.ReadCloser, error)

func (f Func) Open(ctx context.Context) (io.ReadCloser, error) { return f(ctx) }

// Reader is a Source over an in-memory or already open reader. The reader is
// handed out as is on every Open and is never closed.
func Reader(r io.Reader) Source {
	return Func(func(ctx context.Context) (io.ReadCloser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return io.NopCloser(r), nil
	})
}
