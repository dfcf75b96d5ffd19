// Package generator synthesises record sequences from a function that sees
// the records it produced so far.
//
// A Generator runs in one of two modes. A known-size generator produces
// exactly n records, and its final step already sees Context.Last set. An
// unbounded generator runs until a stop predicate accepts the record just
// produced; that record is still emitted, and Context.Last is never set
// while generating in this mode.
package generator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"recflow/pkg/records"
)

// ErrNoRecord is returned when the generator function reports no record.
var ErrNoRecord = errors.New("generator: no record generated")

// Context is the per-step state handed to a generator function.
type Context struct {
	Time        time.Time
	RecordIndex int64
	First       bool
	Last        bool

	first, previous       records.Record
	hasFirst, hasPrevious bool
}

// FirstRecord is the record produced at index 0, if any.
func (c Context) FirstRecord() (records.Record, bool) { return c.first, c.hasFirst }

// PreviousRecord is the record produced by the previous step, if any.
func (c Context) PreviousRecord() (records.Record, bool) { return c.previous, c.hasPrevious }

// Func builds the record for one step. Returning false is a fatal error that
// ends the sequence with ErrNoRecord.
type Func func(ctx Context) (records.Record, bool)

// StopFunc reports whether r, produced under ctx, is the last record.
type StopFunc func(ctx Context, r records.Record) bool

// Generator produces records lazily. It keeps no per-run state, so one
// Generator can be produced from any number of times.
type Generator struct {
	fn    Func
	size  int64
	stop  StopFunc
	clock func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the source of Context.Time.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.clock = now
		}
	}
}

// KnownSize returns a generator producing exactly n records. It panics when
// fn is nil or n is negative.
func KnownSize(fn Func, n int64, opts ...Option) *Generator {
	if fn == nil {
		panic("generator: nil func")
	}
	if n < 0 {
		panic(fmt.Sprintf("generator: negative size %d", n))
	}
	return newGenerator(&Generator{fn: fn, size: n}, opts)
}

// Until returns an unbounded generator that stops after the first record
// accepted by stop. A nil stop never stops; the consumer must.
func Until(fn Func, stop StopFunc, opts ...Option) *Generator {
	if fn == nil {
		panic("generator: nil func")
	}
	return newGenerator(&Generator{fn: fn, size: -1, stop: stop}, opts)
}

func newGenerator(g *Generator, opts []Option) *Generator {
	g.clock = time.Now
	for _, o := range opts {
		o(g)
	}
	return g
}

// Size reports the number of records of a known-size generator.
func (g *Generator) Size() (int64, bool) {
	if g.size < 0 {
		return 0, false
	}
	return g.size, true
}

// Produce returns the record sequence. Records are produced one step at a
// time as the sequence is pulled. A failed step yields a single non-nil
// error and ends the sequence; so does cancellation of ctx.
func (g *Generator) Produce(ctx context.Context) iter.Seq2[records.Record, error] {
	return func(yield func(records.Record, error) bool) {
		var (
			index    int64 = -1
			finished       = g.size == 0
			gc       Context
		)
		for !finished {
			if err := ctx.Err(); err != nil {
				yield(records.Record{}, fmt.Errorf("generator: %w", err))
				return
			}
			index++
			bounded := g.size >= 0
			if bounded && index >= g.size-1 {
				finished = true
			}
			gc.Time = g.clock()
			gc.RecordIndex = index
			gc.First = index == 0
			gc.Last = bounded && finished

			r, ok := g.fn(gc)
			if !ok {
				yield(records.Record{}, fmt.Errorf("%w at index %d", ErrNoRecord, index))
				return
			}
			if !bounded && g.stop != nil && g.stop(gc, r) {
				finished = true
			}
			if !gc.hasFirst {
				gc.first, gc.hasFirst = r, true
			}
			gc.previous, gc.hasPrevious = r, true

			if !yield(r, nil) {
				return
			}
		}
	}
}

// Records adapts Produce to a plain record sequence for callers that do not
// expect errors. It panics on a generation error.
func (g *Generator) Records(ctx context.Context) iter.Seq[records.Record] {
	return func(yield func(records.Record) bool) {
		for r, err := range g.Produce(ctx) {
			if err != nil {
				panic(err)
			}
			if !yield(r) {
				return
			}
		}
	}
}
