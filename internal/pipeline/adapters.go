package pipeline

import (
	"context"
	"iter"
	"sync"

	"recflow/pkg/records"
)

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context) iter.Seq2[records.Record, error]

func (f ProducerFunc) Produce(ctx context.Context) iter.Seq2[records.Record, error] { return f(ctx) }

// FromSeq produces the records of seq. Cancellation of ctx ends the
// sequence with ctx's error.
func FromSeq(seq iter.Seq[records.Record]) Producer {
	return ProducerFunc(func(ctx context.Context) iter.Seq2[records.Record, error] {
		return func(yield func(records.Record, error) bool) {
			for r := range seq {
				if err := ctx.Err(); err != nil {
					yield(records.Record{}, err)
					return
				}
				if !yield(r, nil) {
					return
				}
			}
		}
	})
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc func(ctx context.Context, r records.Record) error

func (f ConsumerFunc) Consume(ctx context.Context, r records.Record) error { return f(ctx, r) }

// Collector is a Consumer that keeps every record in memory.
type Collector struct {
	mu   sync.Mutex
	recs []records.Record
}

func (c *Collector) Consume(_ context.Context, r records.Record) error {
	c.mu.Lock()
	c.recs = append(c.recs, r)
	c.mu.Unlock()
	return nil
}

// Records returns a copy of the collected records.
func (c *Collector) Records() []records.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]records.Record(nil), c.recs...)
}
