package storage

import (
	"context"
	"fmt"
	"sync"

	"recflow/internal/config"
	"recflow/pkg/records"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize = 5000
	defaultBuffer    = 1024
)

// SinkOptions tune a Sink.
type SinkOptions struct {
	Job string

	// BatchSize is the number of rows per Copy. Defaults to 5000.
	BatchSize int

	// Buffer is the capacity of the channel feeding the loader. Defaults
	// to 1024.
	Buffer int

	Logger *zap.Logger
}

// Sink is a record consumer that writes through a Repository. Records are
// converted to rows on the caller's goroutine and loaded in batches by a
// background loader started in Open; Flush drains it.
type Sink struct {
	kind string
	db   config.DBConfig
	opts SinkOptions
	log  *zap.Logger
	rows RowMapper

	// open is replaced in tests.
	open func(ctx context.Context, cfg Config) (Repository, error)

	repo     Repository
	cancel   context.CancelFunc
	flushed  bool
	in       chan []any
	g        *errgroup.Group
	gctx     context.Context
	closeIn  sync.Once
	waitOnce sync.Once
	waitErr  error
	inserted int64
}

// NewSink returns a Sink for the configured storage. The repository is opened
// in Open.
func NewSink(st config.Storage, opts SinkOptions) *Sink {
	s := newSink(st.Kind, st.DB, opts)
	s.open = New
	return s
}

// NewRepositorySink returns a Sink writing through an already open repo. The
// sink closes repo on Close.
func NewRepositorySink(kind string, repo Repository, db config.DBConfig, opts SinkOptions) *Sink {
	s := newSink(kind, db, opts)
	s.open = func(context.Context, Config) (Repository, error) { return repo, nil }
	return s
}

func newSink(kind string, db config.DBConfig, opts SinkOptions) *Sink {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{
		kind: kind,
		db:   db,
		opts: opts,
		log:  log.With(zap.String("storage", kind)),
		rows: NewRowMapper(db),
	}
}

// Open connects, creates the table when configured and starts the loader.
func (s *Sink) Open(ctx context.Context) error {
	columns := s.db.AllColumns()
	repo, err := s.open(ctx, Config{Kind: s.kind, DSN: s.db.DSN, Table: s.db.Table, Columns: columns})
	if err != nil {
		return fmt.Errorf("storage: open %s: %w", s.kind, err)
	}
	if s.db.AutoCreateTable {
		if err := EnsureTable(ctx, s.kind, repo, s.db); err != nil {
			repo.Close()
			return fmt.Errorf("storage: ensure table: %w", err)
		}
	}
	s.repo = repo

	ctx, s.cancel = context.WithCancel(ctx)
	s.in = make(chan []any, s.opts.Buffer)
	s.g, s.gctx = errgroup.WithContext(ctx)
	loader := Loader{
		Columns:   columns,
		BatchSize: s.opts.BatchSize,
		Copy:      repo.CopyFrom,
		Job:       s.opts.Job,
		Logger:    s.log,
	}
	s.g.Go(func() error {
		n, err := loader.Run(s.gctx, s.in)
		s.inserted = n
		return err
	})
	return nil
}

// Consume queues r for loading. It fails once the loader has failed.
func (s *Sink) Consume(ctx context.Context, r records.Record) error {
	row := s.rows.Row(r)
	select {
	case s.in <- row:
		return nil
	case <-s.gctx.Done():
		if err := s.wait(); err != nil {
			return err
		}
		return s.gctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush loads the remaining rows and waits for the loader.
func (s *Sink) Flush(context.Context) error {
	s.flushed = true
	s.closeIn.Do(func() { close(s.in) })
	return s.wait()
}

// Close closes the repository. Without a prior Flush the loader is cancelled
// and pending rows are abandoned.
func (s *Sink) Close() error {
	if s.in != nil {
		if !s.flushed {
			s.cancel()
		}
		s.closeIn.Do(func() { close(s.in) })
		_ = s.wait()
		s.cancel()
	}
	if s.repo != nil {
		s.repo.Close()
	}
	return nil
}

// Inserted is the number of rows the repository reported as inserted. It is
// final once Flush returned.
func (s *Sink) Inserted() int64 { return s.inserted }

func (s *Sink) wait() error {
	s.waitOnce.Do(func() { s.waitErr = s.g.Wait() })
	return s.waitErr
}
