// Package pipeline runs a record stream from a Producer through a transform
// chain into a Consumer.
//
// The producer and the transform chain run on one goroutine and the consumer
// on another, connected by a bounded channel. A consumer failure cancels the
// producer side; a producer failure stops the consumer once the records
// already emitted have been consumed, and nothing the transform chain yields
// after the failure reaches the consumer. Errors are wrapped in ProducerError or
// ConsumerError and returned, never swallowed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"recflow/internal/metrics"
	"recflow/internal/transformer"
	"recflow/pkg/records"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Producer yields records. A non-nil error ends the sequence.
type Producer interface {
	Produce(ctx context.Context) iter.Seq2[records.Record, error]
}

// Consumer accepts records one at a time.
type Consumer interface {
	Consume(ctx context.Context, r records.Record) error
}

// Opener is implemented by producers and consumers that need setup before
// the run.
type Opener interface {
	Open(ctx context.Context) error
}

// Flusher is implemented by consumers that buffer records. Flush is called
// once after the last record was consumed.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Closer is implemented by producers and consumers that hold resources.
// Close is called once Open succeeded, whatever the outcome of the run.
type Closer interface {
	Close() error
}

// ProducerError wraps a failure of the producer side.
type ProducerError struct {
	Op  string
	Err error
}

func (e *ProducerError) Error() string { return fmt.Sprintf("producer: %s: %v", e.Op, e.Err) }
func (e *ProducerError) Unwrap() error { return e.Err }

// ConsumerError wraps a failure of the consumer side.
type ConsumerError struct {
	Op  string
	Err error
}

func (e *ConsumerError) Error() string { return fmt.Sprintf("consumer: %s: %v", e.Op, e.Err) }
func (e *ConsumerError) Unwrap() error { return e.Err }

// Stats summarises a run.
type Stats struct {
	Produced int64
	Emitted  int64
	Consumed int64
	Duration time.Duration
}

// Options tune a run.
type Options struct {
	// Job labels logs and metrics.
	Job string
	// Buffer is the capacity of the channel between the transform chain and
	// the consumer. Defaults to 1024.
	Buffer int
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

const defaultBuffer = 1024

// Run drives p through m into c. A nil m passes records through unchanged.
func Run(ctx context.Context, p Producer, m transformer.Modifier[records.Record, records.Record], c Consumer, opts Options) (Stats, error) {
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("job", opts.Job))
	if m == nil {
		m = transformer.Identity[records.Record]()
	}

	var st Stats
	start := time.Now()
	err := run(ctx, p, m, c, opts.Buffer, &st, log)
	st.Duration = time.Since(start)

	metrics.RecordStep(opts.Job, "run", err, st.Duration)
	metrics.RecordRow(opts.Job, "produced", st.Produced)
	metrics.RecordRow(opts.Job, "emitted", st.Emitted)
	metrics.RecordRow(opts.Job, "consumed", st.Consumed)

	fields := []zap.Field{
		zap.Int64("produced", st.Produced),
		zap.Int64("emitted", st.Emitted),
		zap.Int64("consumed", st.Consumed),
		zap.Duration("elapsed", st.Duration.Truncate(time.Millisecond)),
	}
	if err != nil {
		log.Error("pipeline: failed", append(fields, zap.Error(err))...)
		return st, err
	}
	log.Info("pipeline: summary", fields...)
	return st, nil
}

func run(ctx context.Context, p Producer, m transformer.Modifier[records.Record, records.Record], c Consumer, buffer int, st *Stats, log *zap.Logger) (err error) {
	if o, ok := p.(Opener); ok {
		if err := o.Open(ctx); err != nil {
			return &ProducerError{Op: "open", Err: err}
		}
	}
	if cl, ok := p.(Closer); ok {
		defer func() {
			if cerr := cl.Close(); cerr != nil && err == nil {
				err = &ProducerError{Op: "close", Err: cerr}
			}
		}()
	}
	if o, ok := c.(Opener); ok {
		if err := o.Open(ctx); err != nil {
			return &ConsumerError{Op: "open", Err: err}
		}
	}
	if cl, ok := c.(Closer); ok {
		defer func() {
			if cerr := cl.Close(); cerr != nil && err == nil {
				err = &ConsumerError{Op: "close", Err: cerr}
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	ch := make(chan records.Record, buffer)

	g.Go(func() error {
		defer close(ch)
		seq, produceErr := Values(p.Produce(gctx))
		counted := func(yield func(records.Record) bool) {
			for r := range seq {
				st.Produced++
				if !yield(r) {
					return
				}
			}
		}
		for r := range m(counted) {
			// A buffering stage flushes what it saw once upstream ends; after a
			// producer failure that output covers a truncated input.
			if err := produceErr(); err != nil {
				return &ProducerError{Op: "produce", Err: err}
			}
			select {
			case ch <- r:
				st.Emitted++
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		if err := produceErr(); err != nil {
			return &ProducerError{Op: "produce", Err: err}
		}
		log.Debug("pipeline: producer done", zap.Int64("produced", st.Produced))
		return nil
	})

	g.Go(func() error {
		for r := range ch {
			if err := c.Consume(gctx, r); err != nil {
				return &ConsumerError{Op: "consume", Err: err}
			}
			st.Consumed++
		}
		if gctx.Err() != nil {
			return gctx.Err()
		}
		if f, ok := c.(Flusher); ok {
			if err := f.Flush(gctx); err != nil {
				return &ConsumerError{Op: "flush", Err: err}
			}
		}
		return nil
	})

	return g.Wait()
}

// Values splits a fallible sequence into a plain one and a function that
// reports the error that ended it. The plain sequence stops at the first
// error; the error function is meaningful once the sequence is drained.
func Values(seq iter.Seq2[records.Record, error]) (iter.Seq[records.Record], func() error) {
	var err error
	values := func(yield func(records.Record) bool) {
		for r, e := range seq {
			if e != nil {
				err = e
				return
			}
			if !yield(r) {
				return
			}
		}
	}
	return values, func() error { return err }
}

// IsProducerError reports whether err came from the producer side.
func IsProducerError(err error) bool {
	var pe *ProducerError
	return errors.As(err, &pe)
}

// IsConsumerError reports whether err came from the consumer side.
func IsConsumerError(err error) bool {
	var ce *ConsumerError
	return errors.As(err, &ce)
}
